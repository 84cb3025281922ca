package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	ErrInvalidString      = errors.New("invalid string format")
	ErrStringTooLong      = errors.New("string exceeds maximum length")
	ErrStringTooShort     = errors.New("string below minimum length")
	ErrContainsXSSPattern = errors.New("input contains suspicious XSS patterns")
)

const (
	MaxPlayerNameLength = 32
	MaxRoomNameLength   = 64
	MaxChatLength       = 500
)

var xssPatterns = []string{
	"<script", "</script", "javascript:", "onerror=", "onload=",
	"<iframe", "</iframe", "<object", "</object", "eval(",
}

// SanitizeString drops null bytes and surrounding whitespace.
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")
	return strings.TrimSpace(input)
}

// ValidateStringLength counts runes, not bytes.
func ValidateStringLength(value string, minLen, maxLen int, fieldName string) error {
	n := utf8.RuneCountInString(value)
	if n < minLen {
		return fmt.Errorf("%w: %s must be at least %d characters", ErrStringTooShort, fieldName, minLen)
	}
	if n > maxLen {
		return fmt.Errorf("%w: %s must be at most %d characters", ErrStringTooLong, fieldName, maxLen)
	}
	return nil
}

func CheckXSS(input string) error {
	lower := strings.ToLower(input)
	for _, pattern := range xssPatterns {
		if strings.Contains(lower, pattern) {
			return fmt.Errorf("%w: contains '%s'", ErrContainsXSSPattern, pattern)
		}
	}
	return nil
}

func checkPrintable(input, fieldName string) error {
	if !utf8.ValidString(input) {
		return fmt.Errorf("%w: %s is not valid UTF-8", ErrInvalidString, fieldName)
	}
	for _, r := range input {
		if unicode.IsControl(r) && r != '\n' {
			return fmt.Errorf("%w: %s contains control characters", ErrInvalidString, fieldName)
		}
	}
	return nil
}

// ValidateSafeString sanitizes input and checks its length and content.
func ValidateSafeString(input string, minLen, maxLen int, fieldName string) (string, error) {
	sanitized := SanitizeString(input)
	if err := ValidateStringLength(sanitized, minLen, maxLen, fieldName); err != nil {
		return "", err
	}
	if err := checkPrintable(sanitized, fieldName); err != nil {
		return "", err
	}
	if err := CheckXSS(sanitized); err != nil {
		return "", fmt.Errorf("%s: %w", fieldName, err)
	}
	return sanitized, nil
}

// ValidatePlayerName allows an empty name; guests get a generated one.
func ValidatePlayerName(name string) (string, error) {
	sanitized, err := ValidateSafeString(name, 0, MaxPlayerNameLength, "player name")
	if err != nil {
		return "", err
	}
	if strings.Contains(sanitized, "\n") {
		return "", fmt.Errorf("%w: player name must be one line", ErrInvalidString)
	}
	return sanitized, nil
}

// ValidateRoomName allows an empty name; the room is then named after its id.
func ValidateRoomName(name string) (string, error) {
	sanitized, err := ValidateSafeString(name, 0, MaxRoomNameLength, "room name")
	if err != nil {
		return "", err
	}
	if strings.Contains(sanitized, "\n") {
		return "", fmt.Errorf("%w: room name must be one line", ErrInvalidString)
	}
	return sanitized, nil
}

func ValidateChatMessage(msg string) (string, error) {
	return ValidateSafeString(msg, 1, MaxChatLength, "message")
}
