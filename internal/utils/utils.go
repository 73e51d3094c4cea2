package utils

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

const deliveryNameLimit = 50

// FileSize returns the artifact size. A missing file is reported as os.ErrNotExist.
func FileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%s is a directory", path)
	}

	return info.Size(), nil
}

func RemoveArtifact(path string) error {
	if path == "" {
		return nil
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}

	return nil
}

func EnsureDir(dir string) error {
	if dir == "" {
		return nil
	}

	return os.MkdirAll(dir, 0755)
}

// Truncate cuts s to limit runes and appends "..." when it was longer.
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}

	return string([]rune(s)[:limit]) + "..."
}

// DeliveryFileName builds the document name shown in chat.
func DeliveryFileName(title string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(title))

	if name == "" {
		name = "video"
	}

	if utf8.RuneCountInString(name) > deliveryNameLimit {
		name = string([]rune(name)[:deliveryNameLimit])
	}

	return name + ".mp4"
}

func FormatMB(bytes int64) string {
	return fmt.Sprintf("%.1f MB", float64(bytes)/(1<<20))
}

// FormatDuration renders seconds as m:ss or h:mm:ss.
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return "unknown"
	}

	h, m, s := seconds/3600, seconds/60%60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}

	return fmt.Sprintf("%d:%02d", m, s)
}
