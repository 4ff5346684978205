// Package translate turns natural-language requests into a single shell
// command for the remote desktop.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultModel     = "claude-3-5-sonnet-latest"
	DefaultMaxTokens = 1000

	anthropicVersion = "2023-06-01"
)

// ErrNoAPIKey is returned when the translator is built without a key.
var ErrNoAPIKey = errors.New("anthropic API key not configured (set ANTHROPIC_API_KEY or translate.api_key)")

const promptTemplate = `Convert this natural language request into a single bash command that can be executed on a Linux desktop:

Request: %q

Rules:
- Return ONLY the bash command, nothing else
- Use firefox for web browsing
- Use xdotool for typing if needed
- Keep it simple and direct
- If it's a web search, use: firefox "https://www.google.com/search?q=SEARCH_TERMS"
- If it's opening an app, use: firefox URL or appropriate command

Bash command:`

// Anthropic translates through the Anthropic Messages API.
type Anthropic struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	maxTokens  int
}

// NewAnthropic creates a translator. Empty baseURL and model and a
// non-positive maxTokens fall back to the defaults.
func NewAnthropic(baseURL, apiKey, model string, maxTokens int, timeout time.Duration) (*Anthropic, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Anthropic{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		maxTokens:  maxTokens,
	}, nil
}

// Translate asks the model for one bash command implementing request. A
// non-empty model overrides the configured one for this call.
func (a *Anthropic) Translate(ctx context.Context, request, model string) (string, error) {
	if model == "" {
		model = a.model
	}

	body, err := json.Marshal(messagesRequest{
		Model:     model,
		MaxTokens: a.maxTokens,
		Messages: []message{{
			Role:    "user",
			Content: fmt.Sprintf(promptTemplate, request),
		}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr errorResponse
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("anthropic API error: %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return "", fmt.Errorf("anthropic API error: %d", resp.StatusCode)
	}

	var out messagesResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	for _, block := range out.Content {
		if block.Type == "text" {
			return CleanCommand(block.Text), nil
		}
	}
	return "", errors.New("anthropic response contained no text")
}

// CleanCommand strips whitespace and a surrounding markdown code fence from a
// model reply.
func CleanCommand(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		// Drop the language tag line, e.g. ```bash.
		text = text[nl+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Unavailable stands in when no translator could be configured. Every call
// fails with Err, so command input still works.
type Unavailable struct {
	Err error
}

func (u Unavailable) Translate(ctx context.Context, request, model string) (string, error) {
	return "", u.Err
}
