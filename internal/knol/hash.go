// Package knol derives a stable identity for card content so re-imported
// cards can be recognised.
package knol

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/conorfennell/recall/internal/domain"
)

// Normalize concatenates the card's content after cleaning each part.
// It trims whitespace, lowercases, and normalizes line endings for each field
// before joining them. Image references keep their case since file names
// are case-sensitive on most systems.
func Normalize(c domain.Content) string {
	normalizePart := func(part string) string {
		p := strings.ToLower(part)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		return strings.TrimSpace(p)
	}

	// Joined with a newline so "question" and "answer" never collapse into
	// "questionanswer".
	return strings.Join([]string{
		normalizePart(c.Front),
		normalizePart(c.Back),
		strings.TrimSpace(c.FrontImage),
		strings.TrimSpace(c.BackImage),
	}, "\n")
}

// Hash normalizes the content and returns its SHA-256 hash as a hex string.
func Hash(c domain.Content) string {
	sum := sha256.Sum256([]byte(Normalize(c)))
	return fmt.Sprintf("%x", sum)
}
