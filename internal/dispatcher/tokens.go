package dispatcher

import (
	"errors"
	"fmt"
	"strings"

	"mediabot/internal/models"
)

// Button payloads. Telegram caps callback data at 64 bytes.
const (
	tokenDownloadQuality = "download-quality"
	tokenChannelItem     = "channel-item"
	tokenChannelAll      = "channel-all"
	tokenChannelCancel   = "channel-cancel"
	tokenQualityPref     = "quality-pref"
	tokenHelpSection     = "help-section"
	tokenBackToMain      = "back-to-main"

	maxTokenLen = 64
)

var ErrBadToken = errors.New("malformed button token")

type Action int

const (
	ActionDownloadQuality Action = iota + 1
	ActionChannelItem
	ActionChannelAll
	ActionChannelCancel
	ActionQualityPref
	ActionHelpSection
	ActionBackToMain
)

type Token struct {
	Action  Action
	Quality models.Quality
	Ref     string
	ID      string
	Section string
}

func ParseToken(data string) (Token, error) {
	switch data {
	case tokenChannelAll:
		return Token{Action: ActionChannelAll}, nil
	case tokenChannelCancel:
		return Token{Action: ActionChannelCancel}, nil
	case tokenBackToMain:
		return Token{Action: ActionBackToMain}, nil
	}

	name, rest, ok := strings.Cut(data, ":")
	if !ok || rest == "" {
		return Token{}, fmt.Errorf("%w: %q", ErrBadToken, data)
	}

	switch name {
	case tokenDownloadQuality:
		q, ref, ok := strings.Cut(rest, ":")
		if !ok || ref == "" {
			return Token{}, fmt.Errorf("%w: %q", ErrBadToken, data)
		}

		quality, err := models.ParseQuality(q)
		if err != nil {
			return Token{}, fmt.Errorf("%w: %w", ErrBadToken, err)
		}

		return Token{Action: ActionDownloadQuality, Quality: quality, Ref: ref}, nil

	case tokenChannelItem:
		return Token{Action: ActionChannelItem, ID: rest}, nil

	case tokenQualityPref:
		quality, err := models.ParseQuality(rest)
		if err != nil {
			return Token{}, fmt.Errorf("%w: %w", ErrBadToken, err)
		}

		return Token{Action: ActionQualityPref, Quality: quality}, nil

	case tokenHelpSection:
		return Token{Action: ActionHelpSection, Section: rest}, nil
	}

	return Token{}, fmt.Errorf("%w: %q", ErrBadToken, data)
}

func downloadQualityToken(q models.Quality, ref string) string {
	return tokenDownloadQuality + ":" + string(q) + ":" + ref
}

// channelItemToken returns "" when the id does not fit in a callback payload.
func channelItemToken(id string) string {
	t := tokenChannelItem + ":" + id
	if id == "" || len(t) > maxTokenLen {
		return ""
	}

	return t
}

func qualityPrefToken(q models.Quality) string {
	return tokenQualityPref + ":" + string(q)
}

func helpSectionToken(section string) string {
	return tokenHelpSection + ":" + section
}
