package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRoomName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"ok", "friday movie night", true},
		{"single rune", "x", true},
		{"exactly 50 runes", strings.Repeat("n", 50), true},
		{"empty", "", false},
		{"whitespace only", "   ", false},
		{"51 runes", strings.Repeat("n", 51), false},
		{"50 multibyte runes", strings.Repeat("й", 50), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRoomName(tt.input)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidateCapacity(t *testing.T) {
	assert.Error(t, ValidateCapacity(1))
	assert.NoError(t, ValidateCapacity(2))
	assert.NoError(t, ValidateCapacity(100))
	assert.Error(t, ValidateCapacity(101))
	assert.Error(t, ValidateCapacity(0))
	assert.Error(t, ValidateCapacity(-5))
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword(""), "empty means no gate")
	assert.NoError(t, ValidatePassword(strings.Repeat("p", 20)))
	assert.Error(t, ValidatePassword(strings.Repeat("p", 21)))
}

func TestValidateAnnouncement(t *testing.T) {
	assert.NoError(t, ValidateAnnouncement(""))
	assert.NoError(t, ValidateAnnouncement(strings.Repeat("a", 500)))
	assert.Error(t, ValidateAnnouncement(strings.Repeat("a", 501)))
}

func TestValidateNickname(t *testing.T) {
	assert.NoError(t, ValidateNickname("movie buff"))
	assert.Error(t, ValidateNickname(""))
	assert.Error(t, ValidateNickname("  "))
	assert.Error(t, ValidateNickname(strings.Repeat("n", 51)))
}

func TestValidateMessageContent(t *testing.T) {
	assert.NoError(t, ValidateMessageContent("hi"))
	assert.NoError(t, ValidateMessageContent(strings.Repeat("m", 200)))
	assert.Error(t, ValidateMessageContent(""))
	assert.Error(t, ValidateMessageContent(" \t "))
	assert.Error(t, ValidateMessageContent(strings.Repeat("m", 201)))
}

func TestValidateVideoStatus(t *testing.T) {
	for _, status := range []string{"playing", "paused", "stopped"} {
		assert.NoError(t, ValidateVideoStatus(status))
	}
	assert.Error(t, ValidateVideoStatus(""))
	assert.Error(t, ValidateVideoStatus("Playing"))
	assert.Error(t, ValidateVideoStatus("buffering"))
}

func TestValidateRoomStatusFilter(t *testing.T) {
	for _, status := range []string{"", "waiting", "playing", "closed"} {
		assert.NoError(t, ValidateRoomStatusFilter(status))
	}
	assert.Error(t, ValidateRoomStatusFilter("dissolved"))
}

func TestValidateProgress(t *testing.T) {
	assert.NoError(t, ValidateProgress(0))
	assert.NoError(t, ValidateProgress(3600.5))
	assert.Error(t, ValidateProgress(-0.1))
}

func TestValidatePage(t *testing.T) {
	assert.NoError(t, ValidatePage(1, 20))
	assert.NoError(t, ValidatePage(100, 100))
	assert.Error(t, ValidatePage(0, 20))
	assert.Error(t, ValidatePage(1, 0))
	assert.Error(t, ValidatePage(1, 101))
}
