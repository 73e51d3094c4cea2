package extractor

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"mediabot/internal/models"
)

const (
	userAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	tiktokReferer = "https://www.tiktok.com/"
	mergeFormat   = "mp4"
	outputPattern = "%(title)s.%(ext)s"
)

// Settings are the process-wide extraction defaults.
type Settings struct {
	DownloadDir   string
	CookieFile    string
	BinaryPath    string
	SocketTimeout time.Duration
	MaxFileSize   int64
}

// Options is the resolved yt-dlp invocation for one request.
type Options struct {
	Format        string
	MergeFormat   string
	Output        string
	UserAgent     string
	Referer       string
	CookieFile    string
	NoPlaylist    bool
	SocketTimeout time.Duration
	MaxFileSize   int64
}

// FormatSelector maps a quality preference to a yt-dlp format string.
// Best keeps the platform default.
func FormatSelector(q models.Quality, platformDefault string) string {
	if h := q.Height(); h > 0 {
		return fmt.Sprintf("best[height<=%d]/best", h)
	}

	return platformDefault
}

func BuildOptions(s Settings, platform models.Platform, q models.Quality) Options {
	opts := Options{
		Format:        "best",
		MergeFormat:   mergeFormat,
		Output:        filepath.Join(s.DownloadDir, outputPattern),
		UserAgent:     userAgent,
		NoPlaylist:    true,
		SocketTimeout: s.SocketTimeout,
		MaxFileSize:   s.MaxFileSize,
	}

	switch platform {
	case models.PlatformYouTube:
		opts.Format = "best[height<=1080]"
	case models.PlatformInstagram, models.PlatformFacebook:
		if fileExists(s.CookieFile) {
			opts.CookieFile = s.CookieFile
		}
	case models.PlatformTikTok:
		opts.Referer = tiktokReferer
	}

	opts.Format = FormatSelector(q, opts.Format)

	return opts
}

func (o Options) command(binary string) *ytdlp.Command {
	cmd := ytdlp.New().
		PrintJSON().
		NoProgress().
		ForceOverwrites().
		RestrictFilenames().
		Format(o.Format).
		MergeOutputFormat(o.MergeFormat).
		Output(o.Output).
		UserAgent(o.UserAgent)

	if binary != "" {
		cmd.SetExecutable(binary)
	}
	if o.NoPlaylist {
		cmd.NoPlaylist()
	}
	if o.CookieFile != "" {
		cmd.Cookies(o.CookieFile)
	}
	if o.Referer != "" {
		cmd.Referer(o.Referer)
	}
	if o.SocketTimeout > 0 {
		cmd.SocketTimeout(o.SocketTimeout.Seconds())
	}
	if o.MaxFileSize > 0 {
		cmd.MaxFileSize(strconv.FormatInt(o.MaxFileSize, 10))
	}

	return cmd
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}

	info, err := os.Stat(path)

	return err == nil && !info.IsDir()
}
