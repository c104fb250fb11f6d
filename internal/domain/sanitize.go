package domain

import (
	"regexp"
	"strings"
)

// Patterns removed from free text. This is a deny-list over a handful of
// script constructs, not an HTML parser, and does not make arbitrary
// markup safe to render.
var sanitizePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`),
	regexp.MustCompile(`(?i)<script\b[^>]*/>`),
	regexp.MustCompile(`(?i)javascript\s*:`),
	regexp.MustCompile(`(?i)\s*\bon\w+\s*=\s*"[^"]*"`),
	regexp.MustCompile(`(?i)\s*\bon\w+\s*=\s*'[^']*'`),
	regexp.MustCompile(`(?i)\s*\bon\w+\s*=\s*[^\s>]+`),
}

// Sanitize strips script blocks, self-closing script tags, javascript: URI
// prefixes and inline on* event handler attributes, then trims whitespace.
// Other markup is left as is, and blank input is returned unchanged.
// Passes repeat until the value stops changing, so
// Sanitize(Sanitize(s)) == Sanitize(s). Each pass that changes the value
// shortens it, so the loop terminates.
func Sanitize(s string) string {
	if strings.TrimSpace(s) == "" {
		return s
	}

	out := s
	for {
		next := out
		for _, re := range sanitizePatterns {
			next = re.ReplaceAllString(next, "")
		}
		next = strings.TrimSpace(next)
		if next == out {
			return out
		}
		out = next
	}
}
