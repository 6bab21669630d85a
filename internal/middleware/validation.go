package middleware

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// MaxMessageLength bounds a chat message in characters.
const MaxMessageLength = 1000

// ValidateMessageText validates a chat message posted to the API.
func ValidateMessageText(text string) error {
	if strings.TrimSpace(text) == "" {
		return errors.New("text cannot be empty")
	}
	if !utf8.ValidString(text) {
		return errors.New("text must be valid UTF-8")
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return errors.New("text exceeds maximum length")
	}
	return nil
}

// ValidateOwnerID validates an owner id.
func ValidateOwnerID(id string) error {
	if len(id) == 0 {
		return errors.New("owner ID cannot be empty")
	}
	if len(id) > 64 {
		return errors.New("owner ID exceeds maximum length")
	}
	return nil
}
