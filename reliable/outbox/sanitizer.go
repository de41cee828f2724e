package outbox

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Delivery error text ends up in database columns and operator listings, so
// it is redacted and bounded before storage (CWE-209).
const maxStoredErrorLength = 512

const truncatedSuffix = "... (truncated)"

const redactedValue = "[REDACTED]"

var sensitivePatterns = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	{
		pattern:     regexp.MustCompile(`(?i)\b([a-z][a-z0-9+.-]*://[^:\s/]+):([^@\s]+)@`),
		replacement: `$1:` + redactedValue + `@`,
	},
	{
		pattern:     regexp.MustCompile(`(?i)\bbearer\s+[a-z0-9\-._~+/]+=*`),
		replacement: "Bearer " + redactedValue,
	},
	{
		pattern:     regexp.MustCompile(`(?i)\b(api[-_ ]?key|access[-_ ]?token|refresh[-_ ]?token|password|secret)\s*[:=]\s*([^\s,;]+)`),
		replacement: `$1=` + redactedValue,
	},
	{
		pattern:     regexp.MustCompile(`(?i)([?&](?:password|pwd|token|api[_-]?key)=)([^&\s]+)`),
		replacement: `$1` + redactedValue,
	},
}

// sanitizeErrorForStorage redacts credential-shaped substrings and enforces a
// bounded length.
func sanitizeErrorForStorage(err error) string {
	if err == nil {
		return ""
	}

	text := err.Error()
	for _, entry := range sensitivePatterns {
		text = entry.pattern.ReplaceAllString(text, entry.replacement)
	}

	text = strings.ToValidUTF8(text, "")

	if len(text) > maxStoredErrorLength {
		limit := maxStoredErrorLength - len(truncatedSuffix)

		// Back up to a rune boundary so truncation never produces invalid
		// UTF-8; the text column rejects it.
		for limit > 0 && !utf8.RuneStart(text[limit]) {
			limit--
		}

		text = text[:limit] + truncatedSuffix
	}

	return text
}
