package internal

import (
	"regexp"
	"strings"
)

var (
	slugQuoteRe = regexp.MustCompile(`['"]`)
	slugSepRe   = regexp.MustCompile(`[\s_/]+`)
	slugCleanRe = regexp.MustCompile(`[^a-z0-9-]+`)
)

// Slugify creates a filesystem-friendly slug from a unit title.
func Slugify(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	value = slugQuoteRe.ReplaceAllString(value, "")
	value = slugSepRe.ReplaceAllString(value, "-")
	value = slugCleanRe.ReplaceAllString(value, "")
	value = strings.Trim(value, "-")
	if value == "" {
		return "chapter"
	}
	return value
}
