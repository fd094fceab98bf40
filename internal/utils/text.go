package utils

import (
	"strings"
	"unicode/utf8"
)

// Snippet returns at most limit runes of text with surrounding whitespace removed.
func Snippet(text string, limit int) string {
	text = strings.TrimSpace(text)
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:limit]))
}

// ContainsAny reports whether text contains any of the keywords.
func ContainsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if keyword == "" {
			continue
		}
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

// JoinLines joins non-empty layers with newlines.
func JoinLines(layers ...string) string {
	kept := make([]string, 0, len(layers))
	for _, layer := range layers {
		layer = strings.TrimSpace(layer)
		if layer == "" {
			continue
		}
		kept = append(kept, layer)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
