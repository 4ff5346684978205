package task

import (
	"strings"
	"unicode"

	"github.com/orgogpt/orgogpt/internal/session"
)

// intentMarkers mark input as a request for the translator rather than a
// shell command. They match anywhere in the input, case-insensitive.
var intentMarkers = []string{
	"open",
	"search",
	"find",
	"click",
	"type",
	"navigate",
	"go to",
}

// Classify decides whether input is natural language or a direct command.
// Input without whitespace is treated as natural language, as is input that
// contains an intent verb or the phrase "go to".
func Classify(input string) session.Mode {
	trimmed := strings.TrimSpace(input)
	if !strings.ContainsFunc(trimmed, unicode.IsSpace) {
		return session.ModeNaturalLanguage
	}

	lower := strings.ToLower(trimmed)
	for _, marker := range intentMarkers {
		if strings.Contains(lower, marker) {
			return session.ModeNaturalLanguage
		}
	}
	return session.ModeCommand
}
