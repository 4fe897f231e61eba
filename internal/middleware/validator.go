package middleware

import (
	"regexp"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// Input validation and sanitization utilities

var userIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_|:@.\-]{1,128}$`)

// SanitizeString removes control characters and surrounding whitespace
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateUserID checks the format of ids handed out by identity providers
func ValidateUserID(id string) error {
	if id == "" {
		return goerr.New("user ID cannot be empty")
	}
	// ids end up as object key segments
	if !userIDPattern.MatchString(id) || strings.Trim(id, ".") == "" {
		return goerr.New("invalid user ID format", goerr.V("user_id", id))
	}
	return nil
}

// ValidateLimit clamps a page size
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}

// ValidatePage clamps a 1-based page number
func ValidatePage(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}
