package dispatcher

import (
	"fmt"
	"strings"

	"mediabot/internal/models"
	"mediabot/internal/utils"
)

const (
	msgGenericError   = "❌ An error occurred. Please try again later."
	msgUsage          = "📥 Send me a video URL to download!\nOr use /bulk for multiple downloads."
	msgNoValidURLs    = "❌ No valid URLs found. Please send valid URLs."
	msgNothingToDo    = "❌ No URLs to download."
	msgNotCollecting  = "❌ No bulk session in progress. Use /bulk to start one."
	msgCancelled      = "✅ Operation cancelled."
	msgChannelFailed  = "❌ Could not fetch channel videos."
	msgChannelGone    = "⌛ This list has expired. Run /channel again."
	msgChannelCancel  = "✅ Channel download cancelled."
	msgRefExpired     = "⌛ This link has expired. Please send it again."
	msgQueued         = "⏳ Other downloads are running. Yours will start shortly."
	msgDownloadFailed = "❌ Download failed. The video might be private or restricted."
	msgFileMissing    = "❌ File not found after download."
	msgSendFailed     = "❌ Error sending file."
	msgBackToMain     = "🔙 Returning to main menu..."
	msgAllChannel     = "🔄 Downloading all videos..."

	channelButtonLimit = 10
	channelTitleLimit  = 30
	urlPreviewLimit    = 50
	progressURLLimit   = 40
	recentRunsLimit    = 3
)

var helpSections = []struct {
	Name  string
	Label string
	Text  string
}{
	{"single", "📥 Single Download", "📥 *Single Download*\n\nJust send any video URL directly to the bot!"},
	{"bulk", "📚 Bulk Download", "📚 *Bulk Download*\n\nUse /bulk, then send multiple URLs (one per line). Send /done to start."},
	{"channel", "📺 Channel Download", "📺 *Channel Download*\n\nUse /channel <URL> [number] to download from channels."},
	{"settings", "⚙️ Settings", "⚙️ *Settings*\n\nUse /settings to change download quality."},
}

func welcomeMessage(firstName string, platforms []models.Platform, maxBulk int) models.OutMessage {
	if firstName == "" {
		firstName = "there"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🚀 *Welcome %s!*\n\n", escapeMarkdown(firstName))
	b.WriteString("I can download videos from:\n\n")
	for _, p := range platforms {
		fmt.Fprintf(&b, "• %s\n", platformName(p))
	}
	b.WriteString("\n📥 *How to use:*\n")
	b.WriteString("1. Send me a video URL\n")
	b.WriteString("2. Or use /bulk for multiple downloads\n")
	b.WriteString("3. Or use /channel to download from channels/pages\n\n")
	fmt.Fprintf(&b, "Bulk downloads take up to %d videos.\n\nSend me a link to get started!", maxBulk)

	rows := make([][]models.Button, 0, 2)
	for i := 0; i < len(helpSections); i += 2 {
		row := []models.Button{{Label: helpSections[i].Label, Token: helpSectionToken(helpSections[i].Name)}}
		if i+1 < len(helpSections) {
			row = append(row, models.Button{Label: helpSections[i+1].Label, Token: helpSectionToken(helpSections[i+1].Name)})
		}
		rows = append(rows, row)
	}

	return models.OutMessage{Text: b.String(), Markdown: true, Buttons: rows}
}

func helpMessage(maxBulk int) models.OutMessage {
	text := "🔧 *Available Commands:*\n\n" +
		"/start - Start the bot\n" +
		"/help - Show this help message\n" +
		"/bulk - Start bulk download session\n" +
		"/done - Download the collected URLs\n" +
		"/channel - Download from channel/page\n" +
		"/settings - Change download settings\n" +
		"/cancel - Cancel current operation\n" +
		"/status - Show your session and totals\n\n" +
		"📋 *Usage:*\n" +
		"1. Send any video URL directly\n" +
		"2. Use /bulk then send multiple URLs (one per line)\n" +
		"3. Use /channel <URL> <number> to download from channels\n\n" +
		fmt.Sprintf("⚠️ Max %d items in bulk. Private or age-restricted content may not work.", maxBulk)

	return models.OutMessage{Text: text, Markdown: true}
}

func helpSectionMessage(name string) models.OutMessage {
	for _, s := range helpSections {
		if s.Name == name {
			return models.OutMessage{Text: s.Text, Markdown: true}
		}
	}

	return models.OutMessage{Text: "Help section"}
}

func bulkStartedMessage(maxBulk int) models.OutMessage {
	return models.OutMessage{
		Text: "📚 *Bulk Download Mode Activated*\n\n" +
			"Send me multiple video URLs (one per line).\n" +
			fmt.Sprintf("Maximum: %d videos\n\n", maxBulk) +
			"When finished, send /done to start downloading.\n" +
			"Send /cancel to abort.\n\n" +
			"*Current URLs:* 0",
		Markdown: true,
	}
}

func bulkAddedMessage(res models.AddResult, maxBulk int) models.OutMessage {
	if res.Accepted == 0 {
		return models.OutMessage{Text: "❌ No supported URLs found or reached maximum limit."}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "✅ Added %d URL(s)\n*Total URLs:* %d/%d\n", res.Accepted, res.Total, maxBulk)
	if res.Unsupported > 0 {
		fmt.Fprintf(&b, "Skipped %d unsupported URL(s).\n", res.Unsupported)
	}
	if res.OverCapacity > 0 {
		fmt.Fprintf(&b, "Limit reached, %d URL(s) were not added.\n", res.OverCapacity)
	}
	b.WriteString("\nSend more URLs or /done to start downloading.")

	return models.OutMessage{Text: b.String(), Markdown: true}
}

func unsupportedMessage(platforms []models.Platform) models.OutMessage {
	names := make([]string, 0, len(platforms))
	for _, p := range platforms {
		names = append(names, platformName(p))
	}

	return models.OutMessage{Text: "❌ Unsupported URL.\n\nSupported platforms:\n" + strings.Join(names, ", ")}
}

func qualityPromptMessage(url, ref string) models.OutMessage {
	return models.OutMessage{
		Text: "📥 Video Found\n\nURL: " + utils.Truncate(url, urlPreviewLimit) + "\n\nSelect download quality:",
		Buttons: [][]models.Button{
			{
				{Label: "🎯 Best Quality", Token: downloadQualityToken(models.QualityBest, ref)},
				{Label: "📱 720p", Token: downloadQualityToken(models.Quality720, ref)},
			},
			{
				{Label: "💾 480p", Token: downloadQualityToken(models.Quality480, ref)},
				{Label: "🚀 Fast (360p)", Token: downloadQualityToken(models.Quality360, ref)},
			},
		},
	}
}

func settingsMessage(current models.Quality) models.OutMessage {
	return models.OutMessage{
		Text: "⚙️ *Download Settings*\n\n" +
			"Select preferred video quality:\n" +
			"• Best - Highest available quality\n" +
			"• 720p - HD quality\n" +
			"• 480p - Standard quality\n" +
			"• 360p - Lower quality (faster)\n\n" +
			"Current: " + current.Label(),
		Markdown: true,
		Buttons: [][]models.Button{
			{
				{Label: "🎯 Quality: Best", Token: qualityPrefToken(models.QualityBest)},
				{Label: "📦 Quality: 720p", Token: qualityPrefToken(models.Quality720)},
			},
			{
				{Label: "📱 Quality: 480p", Token: qualityPrefToken(models.Quality480)},
				{Label: "💾 Quality: 360p", Token: qualityPrefToken(models.Quality360)},
			},
			{
				{Label: "🔙 Back", Token: tokenBackToMain},
			},
		},
	}
}

func qualitySetMessage(q models.Quality) models.OutMessage {
	return models.OutMessage{Text: "✅ Quality set to: " + q.Label() + "\n\nThis setting will be used for future downloads."}
}

func channelUsageMessage() models.OutMessage {
	return models.OutMessage{
		Text: "📺 *Channel Download*\n\n" +
			"Usage: /channel <URL> [number]\n\n" +
			"Examples:\n" +
			"/channel https://youtube.com/c/ChannelName 10\n" +
			"/channel https://tiktok.com/@username\n\n" +
			"Number is optional (default: 5 videos)",
	}
}

func channelListMessage(entries []models.ChannelEntry) models.OutMessage {
	rows := make([][]models.Button, 0, channelButtonLimit+1)
	for i, e := range entries {
		if i == channelButtonLimit {
			break
		}

		token := channelItemToken(e.ID)
		if token == "" {
			continue
		}

		rows = append(rows, []models.Button{{
			Label: fmt.Sprintf("%d. %s", i+1, utils.Truncate(e.Title, channelTitleLimit)),
			Token: token,
		}})
	}

	rows = append(rows, []models.Button{
		{Label: "✅ Download All", Token: tokenChannelAll},
		{Label: "❌ Cancel", Token: tokenChannelCancel},
	})

	return models.OutMessage{
		Text:    fmt.Sprintf("📺 Found %d videos:\n\nSelect videos to download or download all:", len(entries)),
		Buttons: rows,
	}
}

func statusMessage(sess models.UserSession, maxBulk int, totals *models.Totals, recent []models.BatchRun) models.OutMessage {
	var b strings.Builder
	b.WriteString("📊 Status\n\n")

	if sess.Mode == models.ModeCollecting {
		fmt.Fprintf(&b, "Mode: bulk collection (%d/%d URLs)\n", len(sess.PendingURLs), maxBulk)
	} else {
		b.WriteString("Mode: idle\n")
	}
	fmt.Fprintf(&b, "Quality: %s\n", sess.Quality.Label())

	if totals != nil {
		fmt.Fprintf(&b, "\nRuns: %d\nVideos: %d (success %d, failed %d)", totals.Runs, totals.Total, totals.Succeeded, totals.Failed)
	}

	if len(recent) > 0 {
		b.WriteString("\n\nRecent runs:")
		for _, r := range recent {
			fmt.Fprintf(&b, "\n• %s %s: %d/%d ok",
				r.StartedAt.UTC().Format("Jan 2 15:04"), r.Kind, r.Outcome.Succeeded, r.Outcome.Total)
		}
	}

	return models.OutMessage{Text: b.String()}
}

func progressText(index, total int, url string) string {
	return fmt.Sprintf("🔄 Downloading %d/%d\nURL: %s", index, total, utils.Truncate(url, progressURLLimit))
}

func summaryMessage(out models.BulkOutcome) models.OutMessage {
	return models.OutMessage{
		Text: fmt.Sprintf("✅ *Download Complete*\n\nTotal: %d\nSuccess: %d\nFailed: %d",
			out.Total, out.Succeeded, out.Failed),
		Markdown: true,
	}
}

func bulkCaption(res *models.DownloadResult) string {
	return fmt.Sprintf("✅ %s\nSize: %s", res.Title, utils.FormatMB(res.SizeBytes))
}

func singleCaption(res *models.DownloadResult, userName string) string {
	by := "Downloaded by User"
	if userName != "" {
		by = "Downloaded by @" + userName
	}

	return fmt.Sprintf("✅ %s\n\nPlatform: %s\nDuration: %s\nSize: %s\n\n%s",
		res.Title,
		platformName(res.Platform),
		utils.FormatDuration(res.DurationSeconds),
		utils.FormatMB(res.SizeBytes),
		by,
	)
}

func oversizeText(res *models.DownloadResult) string {
	return fmt.Sprintf("📁 File too large for Telegram: %s\nSize: %s\nSaved to server.", res.Title, utils.FormatMB(res.SizeBytes))
}

func platformName(p models.Platform) string {
	switch p {
	case models.PlatformYouTube:
		return "YouTube"
	case models.PlatformTikTok:
		return "TikTok"
	case models.PlatformTwitter:
		return "Twitter/X"
	case models.PlatformUnsupported:
		return "Unknown"
	}

	s := string(p)

	return strings.ToUpper(s[:1]) + s[1:]
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
