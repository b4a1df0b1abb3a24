package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// gameSlugRegex matches Nexus game slugs as they appear in page URLs
// (e.g., "skyrimspecialedition", "fallout4", "newvegas").
var gameSlugRegex = regexp.MustCompile(`^[a-z0-9]+$`)

// ValidateGameSlug validates a Nexus game slug.
// Slugs are lowercase alphanumeric path segments; anything else would let a
// crafted slug escape the /{game}/mods/{id} URL shape.
func ValidateGameSlug(slug string) error {
	if slug == "" {
		return New(ErrCodeInvalidGame, "game slug cannot be empty")
	}
	if len(slug) > 64 {
		return New(ErrCodeInvalidGame, "game slug too long (max 64 characters)")
	}
	if !gameSlugRegex.MatchString(slug) {
		return New(ErrCodeInvalidGame, "invalid game slug: %q", slug)
	}
	return nil
}

// ValidateModID validates a Nexus mod identifier.
// Mod ids are positive integers; zero and negatives never name a real mod.
func ValidateModID(id int) error {
	if id <= 0 {
		return New(ErrCodeInvalidMod, "mod id must be positive, got %d", id)
	}
	return nil
}

// ValidateFileID validates a Nexus file identifier.
// A file id of zero means "no specific file" and is accepted; negative ids
// are rejected.
func ValidateFileID(id int) error {
	if id < 0 {
		return New(ErrCodeInvalidFile, "file id cannot be negative, got %d", id)
	}
	return nil
}

// ValidateURL validates an off-site requirement URL for safety.
// It ensures the URL has a safe scheme (http or https) and contains no
// control characters.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	for _, r := range rawURL {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "URL contains invalid control characters")
		}
	}

	return nil
}

// ValidateArchiveName validates a downloaded archive filename for safety.
// It ensures the name is a simple basename without path components, so a
// crafted .meta file cannot point the scanner outside the downloads dir.
func ValidateArchiveName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "archive name cannot be empty")
	}
	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidInput, "archive name cannot contain path separators")
	}
	if strings.Contains(name, "..") {
		return New(ErrCodeInvalidInput, "archive name cannot contain path traversal sequences (..)")
	}
	for _, r := range name {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "archive name contains invalid characters")
		}
	}
	return nil
}
