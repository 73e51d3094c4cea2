package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/lrstanley/go-ytdlp"
	ytplaylist "github.com/ytget/ytdlp/v2"

	"mediabot/internal/models"
)

const (
	unknownTitle    = "Unknown"
	youtubeWatchURL = "https://www.youtube.com/watch?v=%s"
	playlistParam   = "list"
)

type Classifier interface {
	Classify(rawURL string) models.Platform
}

// YtDlp drives the yt-dlp binary. Each Fetch resolves and downloads one item, without retries.
type YtDlp struct {
	settings   Settings
	classifier Classifier
	log        *slog.Logger
}

func New(s Settings, c Classifier, log *slog.Logger) *YtDlp {
	return &YtDlp{
		settings:   s,
		classifier: c,
		log:        log.With(slog.String("component", "extractor")),
	}
}

func (y *YtDlp) Fetch(ctx context.Context, req models.DownloadRequest) (*models.DownloadResult, error) {
	platform := y.classifier.Classify(req.URL)
	opts := BuildOptions(y.settings, platform, req.Quality)

	y.log.Debug("fetch", slog.String("url", req.URL), slog.String("format", opts.Format))

	res, err := opts.command(y.settings.BinaryPath).Run(ctx, req.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrExtractionFailed, err)
	}

	infos, err := res.GetExtractedInfo()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrExtractionFailed, err)
	}
	if len(infos) == 0 {
		return nil, fmt.Errorf("%w: no metadata for %s", models.ErrExtractionFailed, req.URL)
	}

	info := infos[0]

	return &models.DownloadResult{
		Title:           stringOr(info.Title, unknownTitle),
		DurationSeconds: seconds(info.Duration),
		ArtifactPath:    stringOr(info.Filename, ""),
		ThumbnailURL:    stringOr(info.Thumbnail, ""),
		Platform:        platform,
	}, nil
}

// ListChannel returns up to maxItems entries without downloading media.
func (y *YtDlp) ListChannel(ctx context.Context, rawURL string, maxItems int) ([]models.ChannelEntry, error) {
	if maxItems <= 0 {
		return nil, nil
	}

	if id := PlaylistID(rawURL); id != "" && y.classifier.Classify(rawURL) == models.PlatformYouTube {
		return y.listPlaylist(ctx, id, maxItems)
	}

	cmd := ytdlp.New().
		FlatPlaylist().
		DumpSingleJSON().
		NoWarnings().
		PlaylistEnd(maxItems)

	if y.settings.BinaryPath != "" {
		cmd.SetExecutable(y.settings.BinaryPath)
	}

	res, err := cmd.Run(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrExtractionFailed, err)
	}

	infos, err := res.GetExtractedInfo()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrExtractionFailed, err)
	}
	if len(infos) == 0 {
		return nil, fmt.Errorf("%w: empty listing for %s", models.ErrExtractionFailed, rawURL)
	}

	entries := make([]models.ChannelEntry, 0, maxItems)
	for _, e := range infos[0].Entries {
		if e == nil {
			continue
		}
		if len(entries) == maxItems {
			break
		}

		link := stringOr(e.URL, stringOr(e.WebpageURL, ""))
		if link == "" && e.ID != "" {
			link = fmt.Sprintf(youtubeWatchURL, e.ID)
		}

		entries = append(entries, models.ChannelEntry{
			Title:           stringOr(e.Title, unknownTitle),
			ID:              e.ID,
			URL:             link,
			DurationSeconds: seconds(e.Duration),
			ThumbnailURL:    stringOr(e.Thumbnail, ""),
		})
	}

	return entries, nil
}

func (y *YtDlp) listPlaylist(ctx context.Context, playlistID string, maxItems int) ([]models.ChannelEntry, error) {
	items, err := ytplaylist.New().GetPlaylistItemsAll(ctx, playlistID, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: playlist %s: %w", models.ErrExtractionFailed, playlistID, err)
	}

	entries := make([]models.ChannelEntry, 0, maxItems)
	for _, it := range items {
		if len(entries) == maxItems {
			break
		}

		title := it.Title
		if title == "" {
			title = unknownTitle
		}

		entries = append(entries, models.ChannelEntry{
			Title: title,
			ID:    it.VideoID,
			URL:   fmt.Sprintf(youtubeWatchURL, it.VideoID),
		})
	}

	return entries, nil
}

// PlaylistID extracts the list= query value, or "" when there is none.
func PlaylistID(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}

	return u.Query().Get(playlistParam)
}

func stringOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}

	return *s
}

func seconds(d *float64) int {
	if d == nil || *d < 0 {
		return 0
	}

	return int(*d)
}
