package dispatcher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediabot/internal/models"
)

func TestParseToken(t *testing.T) {
	tests := []struct {
		data     string
		expected Token
	}{
		{"download-quality:720:abc-123", Token{Action: ActionDownloadQuality, Quality: models.Quality720, Ref: "abc-123"}},
		{"channel-item:dQw4w9WgXcQ", Token{Action: ActionChannelItem, ID: "dQw4w9WgXcQ"}},
		{"channel-all", Token{Action: ActionChannelAll}},
		{"channel-cancel", Token{Action: ActionChannelCancel}},
		{"quality-pref:best", Token{Action: ActionQualityPref, Quality: models.QualityBest}},
		{"help-section:bulk", Token{Action: ActionHelpSection, Section: "bulk"}},
		{"back-to-main", Token{Action: ActionBackToMain}},
	}

	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			got, err := ParseToken(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseTokenRejects(t *testing.T) {
	for _, data := range []string{
		"",
		"nonsense",
		"download-quality:720",
		"download-quality:4k:ref",
		"quality-pref:1080",
		"channel-item:",
		"mystery:thing",
	} {
		t.Run(data, func(t *testing.T) {
			_, err := ParseToken(data)
			assert.ErrorIs(t, err, ErrBadToken)
		})
	}
}

func TestTokenBuilders(t *testing.T) {
	tok, err := ParseToken(downloadQualityToken(models.Quality360, "r1"))
	require.NoError(t, err)
	assert.Equal(t, Token{Action: ActionDownloadQuality, Quality: models.Quality360, Ref: "r1"}, tok)

	assert.Equal(t, "quality-pref:480", qualityPrefToken(models.Quality480))
	assert.Equal(t, "help-section:channel", helpSectionToken("channel"))
	assert.Equal(t, "channel-item:x", channelItemToken("x"))
	assert.Empty(t, channelItemToken(""))
	assert.Empty(t, channelItemToken(strings.Repeat("i", 60)))
}
