package models

import (
	"fmt"
	"strings"
	"time"
)

type UserID int64

type Mode string

const (
	ModeIdle       Mode = "idle"
	ModeCollecting Mode = "collecting_bulk"
)

type Quality string

const (
	QualityBest Quality = "best"
	Quality720  Quality = "720"
	Quality480  Quality = "480"
	Quality360  Quality = "360"
)

var Qualities = []Quality{QualityBest, Quality720, Quality480, Quality360}

func ParseQuality(s string) (Quality, error) {
	q := Quality(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Qualities {
		if q == known {
			return q, nil
		}
	}

	return "", fmt.Errorf("unknown quality %q", s)
}

// Height returns the vertical resolution cap, 0 for best.
func (q Quality) Height() int {
	switch q {
	case Quality720:
		return 720
	case Quality480:
		return 480
	case Quality360:
		return 360
	default:
		return 0
	}
}

func (q Quality) Label() string {
	switch q {
	case Quality720:
		return "720p HD"
	case Quality480:
		return "480p Standard"
	case Quality360:
		return "360p Fast"
	default:
		return "Best Quality"
	}
}

type Platform string

const (
	PlatformUnsupported Platform = ""
	PlatformYouTube     Platform = "youtube"
	PlatformFacebook    Platform = "facebook"
	PlatformInstagram   Platform = "instagram"
	PlatformTikTok      Platform = "tiktok"
	PlatformTwitter     Platform = "twitter"
	PlatformReddit      Platform = "reddit"
	PlatformPinterest   Platform = "pinterest"
	PlatformLikee       Platform = "likee"
	PlatformTwitch      Platform = "twitch"
	PlatformDailymotion Platform = "dailymotion"
	PlatformVimeo       Platform = "vimeo"
)

func (p Platform) Supported() bool {
	return p != PlatformUnsupported
}

type UserSession struct {
	Mode        Mode
	PendingURLs []string
	Quality     Quality
}

type DownloadRequest struct {
	URL     string
	Quality Quality
}

type DownloadResult struct {
	Title           string
	DurationSeconds int
	SizeBytes       int64
	ArtifactPath    string
	ThumbnailURL    string
	Platform        Platform
}

type ChannelEntry struct {
	Title           string
	ID              string
	URL             string
	DurationSeconds int
	ThumbnailURL    string
}

type BulkOutcome struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

type AddResult struct {
	Accepted     int
	Unsupported  int
	OverCapacity int
	Total        int
}

func (r AddResult) Err() error {
	if r.OverCapacity > 0 {
		return ErrCapacityExceeded
	}

	return nil
}

type RunKind string

const (
	RunBulk    RunKind = "bulk"
	RunChannel RunKind = "channel"
	RunSingle  RunKind = "single"
)

type BatchRun struct {
	ID         string
	UserID     UserID
	Kind       RunKind
	Outcome    BulkOutcome
	StartedAt  time.Time
	FinishedAt time.Time
}

type Totals struct {
	Runs      int `json:"runs" db:"runs"`
	Total     int `json:"total" db:"total"`
	Succeeded int `json:"succeeded" db:"succeeded"`
	Failed    int `json:"failed" db:"failed"`
}

type StatsResponse struct {
	Journal        *Totals `json:"journal,omitempty"`
	ActiveSessions int     `json:"active_sessions"`
	RunningBatches int     `json:"running_batches"`
}

type ErrorResponse struct {
	Request string `json:"request"`
	Error   string `json:"error"`
}
