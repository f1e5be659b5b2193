package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Field validators for the room core. Each returns nil or a single
// human-readable error; callers that need to report every violation at once
// collect the results themselves.

// ValidateRoomName validates the 1-50 character room name.
func ValidateRoomName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("room name is required")
	}
	if utf8.RuneCountInString(name) > 50 {
		return fmt.Errorf("room name is too long (max 50 characters)")
	}
	return nil
}

// ValidateCapacity validates the participant capacity range [2,100].
func ValidateCapacity(capacity int) error {
	if capacity < 2 {
		return fmt.Errorf("capacity must be at least 2")
	}
	if capacity > 100 {
		return fmt.Errorf("capacity is too high (max 100)")
	}
	return nil
}

// ValidatePassword validates the optional room password. Empty means no
// gate and is always valid.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) > 20 {
		return fmt.Errorf("password is too long (max 20 characters)")
	}
	return nil
}

// ValidateAnnouncement validates the room announcement.
func ValidateAnnouncement(announcement string) error {
	if utf8.RuneCountInString(announcement) > 500 {
		return fmt.Errorf("announcement is too long (max 500 characters)")
	}
	return nil
}

// ValidateNickname validates a participant display name.
func ValidateNickname(nickname string) error {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return fmt.Errorf("nickname is required")
	}
	if utf8.RuneCountInString(nickname) > 50 {
		return fmt.Errorf("nickname is too long (max 50 characters)")
	}
	return nil
}

// ValidateMessageContent validates a chat message body.
func ValidateMessageContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("message content is required")
	}
	if utf8.RuneCountInString(content) > 200 {
		return fmt.Errorf("message is too long (max 200 characters)")
	}
	return nil
}

// ValidateVideoStatus validates a playback status value.
func ValidateVideoStatus(status string) error {
	switch status {
	case "playing", "paused", "stopped":
		return nil
	}
	return fmt.Errorf("invalid video status (must be playing, paused, or stopped)")
}

// ValidateRoomStatusFilter validates the optional list filter value.
func ValidateRoomStatusFilter(status string) error {
	switch status {
	case "", "waiting", "playing", "closed":
		return nil
	}
	return fmt.Errorf("invalid room status (must be waiting, playing, or closed)")
}

// ValidateProgress validates a playback position.
func ValidateProgress(progress float64) error {
	if progress < 0 {
		return fmt.Errorf("progress must not be negative")
	}
	return nil
}

// ValidatePage validates pagination input.
func ValidatePage(page, pageSize int) error {
	if page < 1 {
		return fmt.Errorf("page must be at least 1")
	}
	if pageSize < 1 || pageSize > 100 {
		return fmt.Errorf("page size must be between 1 and 100")
	}
	return nil
}
