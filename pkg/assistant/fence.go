package assistant

import (
	"regexp"
	"strings"
)

var codeFencePattern = regexp.MustCompile("```\\w*\\n?")

// StripCodeFence removes markdown code fences, with or without a language
// tag, and trims the remaining text.
func StripCodeFence(s string) string {
	return strings.TrimSpace(codeFencePattern.ReplaceAllString(s, ""))
}
