package extractor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediabot/internal/models"
)

func testSettings(t *testing.T) Settings {
	return Settings{
		DownloadDir:   "downloads",
		CookieFile:    filepath.Join(t.TempDir(), "cookies.txt"),
		SocketTimeout: 30 * time.Second,
		MaxFileSize:   2000 << 20,
	}
}

func TestFormatSelector(t *testing.T) {
	tests := []struct {
		quality  models.Quality
		expected string
	}{
		{models.QualityBest, "best[height<=1080]"},
		{models.Quality720, "best[height<=720]/best"},
		{models.Quality480, "best[height<=480]/best"},
		{models.Quality360, "best[height<=360]/best"},
	}

	for _, tt := range tests {
		t.Run(string(tt.quality), func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatSelector(tt.quality, "best[height<=1080]"))
		})
	}
}

func TestBuildOptionsDefaults(t *testing.T) {
	opts := BuildOptions(testSettings(t), models.PlatformVimeo, models.QualityBest)

	assert.Equal(t, "best", opts.Format)
	assert.Equal(t, "mp4", opts.MergeFormat)
	assert.Equal(t, filepath.Join("downloads", "%(title)s.%(ext)s"), opts.Output)
	assert.True(t, opts.NoPlaylist)
	assert.Equal(t, userAgent, opts.UserAgent)
	assert.Empty(t, opts.CookieFile)
	assert.Empty(t, opts.Referer)
	assert.Equal(t, 30*time.Second, opts.SocketTimeout)
	assert.Equal(t, int64(2000<<20), opts.MaxFileSize)
}

func TestBuildOptionsPlatformOverrides(t *testing.T) {
	s := testSettings(t)

	yt := BuildOptions(s, models.PlatformYouTube, models.QualityBest)
	assert.Equal(t, "best[height<=1080]", yt.Format)

	yt480 := BuildOptions(s, models.PlatformYouTube, models.Quality480)
	assert.Equal(t, "best[height<=480]/best", yt480.Format)

	tt := BuildOptions(s, models.PlatformTikTok, models.QualityBest)
	assert.Equal(t, "https://www.tiktok.com/", tt.Referer)

	ig := BuildOptions(s, models.PlatformInstagram, models.QualityBest)
	assert.Empty(t, ig.CookieFile, "cookie file is absent on disk")

	require.NoError(t, os.WriteFile(s.CookieFile, []byte("# Netscape HTTP Cookie File\n"), 0600))

	ig = BuildOptions(s, models.PlatformInstagram, models.QualityBest)
	assert.Equal(t, s.CookieFile, ig.CookieFile)

	fb := BuildOptions(s, models.PlatformFacebook, models.Quality720)
	assert.Equal(t, s.CookieFile, fb.CookieFile)
	assert.Equal(t, "best[height<=720]/best", fb.Format)
}

func TestCommandFlags(t *testing.T) {
	opts := BuildOptions(testSettings(t), models.PlatformTikTok, models.QualityBest)

	args := opts.command("yt-dlp").BuildCommand(context.Background(), "https://www.tiktok.com/@u/video/1").Args

	assert.Contains(t, args, "--socket-timeout")
	assert.Contains(t, args, "--max-filesize")
	assert.Contains(t, args, "2097152000")
	assert.Contains(t, args, "--referer")
	assert.Equal(t, "https://www.tiktok.com/@u/video/1", args[len(args)-1])
}

func TestCommandOmitsZeroLimits(t *testing.T) {
	args := Options{Format: "best"}.command("yt-dlp").BuildCommand(context.Background()).Args

	assert.NotContains(t, args, "--socket-timeout")
	assert.NotContains(t, args, "--max-filesize")
	assert.NotContains(t, args, "--cookies")
}

func TestPlaylistID(t *testing.T) {
	assert.Equal(t, "PL123", PlaylistID("https://www.youtube.com/playlist?list=PL123"))
	assert.Equal(t, "PL9", PlaylistID("https://www.youtube.com/watch?v=abc&list=PL9&index=2"))
	assert.Empty(t, PlaylistID("https://www.youtube.com/@channel/videos"))
	assert.Empty(t, PlaylistID("::bad"))
}

func TestHelpers(t *testing.T) {
	title := "Clip"
	empty := ""
	dur := 12.7
	neg := -1.0

	assert.Equal(t, "Clip", stringOr(&title, unknownTitle))
	assert.Equal(t, unknownTitle, stringOr(&empty, unknownTitle))
	assert.Equal(t, unknownTitle, stringOr(nil, unknownTitle))
	assert.Equal(t, 12, seconds(&dur))
	assert.Equal(t, 0, seconds(&neg))
	assert.Equal(t, 0, seconds(nil))
}
