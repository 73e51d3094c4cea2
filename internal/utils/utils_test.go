package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSizeAndRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, make([]byte, 1234), 0644))

	size, err := FileSize(path)
	require.NoError(t, err)
	assert.Equal(t, int64(1234), size)

	require.NoError(t, RemoveArtifact(path))
	_, err = FileSize(path)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, RemoveArtifact(path))
	assert.NoError(t, RemoveArtifact(""))
}

func TestFileSizeRejectsDir(t *testing.T) {
	_, err := FileSize(t.TempDir())
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 30))
	assert.Equal(t, "abc...", Truncate("abcdef", 3))
	assert.Equal(t, "привет...", Truncate("приветмир", 6))
}

func TestDeliveryFileName(t *testing.T) {
	assert.Equal(t, "a_b.mp4", DeliveryFileName("a/b"))
	assert.Equal(t, "video.mp4", DeliveryFileName("  "))

	long := DeliveryFileName(strings.Repeat("x", 80))
	assert.Equal(t, strings.Repeat("x", 50)+".mp4", long)
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "1.5 MB", FormatMB(3<<19))
	assert.Equal(t, "3:05", FormatDuration(185))
	assert.Equal(t, "1:01:01", FormatDuration(3661))
	assert.Equal(t, "unknown", FormatDuration(0))
}
