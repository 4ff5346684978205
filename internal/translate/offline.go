package translate

import (
	"context"
	"net/url"
	"strings"
)

// Offline is a rule-based translator used with --offline. It understands
// web searches and "open"/"go to" a site; everything else is echoed.
type Offline struct{}

func (Offline) Translate(ctx context.Context, request, model string) (string, error) {
	request = strings.TrimSpace(request)
	lower := strings.ToLower(request)
	if len(lower) != len(request) {
		// Offsets into lower would not line up with request.
		return "echo " + shellQuote(request), nil
	}

	if i := strings.Index(lower, "search for "); i >= 0 {
		terms := strings.TrimSpace(request[i+len("search for "):])
		return `firefox "https://www.google.com/search?q=` + url.QueryEscape(terms) + `"`, nil
	}

	for _, prefix := range []string{"go to ", "navigate to ", "open "} {
		if strings.HasPrefix(lower, prefix) {
			target := strings.TrimSpace(request[len(prefix):])
			if !strings.Contains(target, ".") {
				return target, nil
			}
			if !strings.Contains(target, "://") {
				target = "https://" + target
			}
			return `firefox "` + target + `"`, nil
		}
	}

	return "echo " + shellQuote(request), nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
