package translate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAnthropicRequiresKey(t *testing.T) {
	_, err := NewAnthropic("", "", "", 0, time.Second)
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestAnthropicTranslate(t *testing.T) {
	var got messagesRequest
	var headers http.Header

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		headers = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"  firefox \"https://www.google.com/search?q=cats\"\n"}]}`))
	}))
	defer srv.Close()

	a, err := NewAnthropic(srv.URL, "sk-test", "", 0, 5*time.Second)
	require.NoError(t, err)

	cmd, err := a.Translate(context.Background(), "search for cats", "")
	require.NoError(t, err)

	assert.Equal(t, `firefox "https://www.google.com/search?q=cats"`, cmd)
	assert.Equal(t, "sk-test", headers.Get("x-api-key"))
	assert.Equal(t, "2023-06-01", headers.Get("anthropic-version"))
	assert.Equal(t, DefaultModel, got.Model)
	assert.Equal(t, DefaultMaxTokens, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Contains(t, got.Messages[0].Content, `"search for cats"`)
}

func TestAnthropicModelOverride(t *testing.T) {
	var model string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req messagesRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		model = req.Model
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"ls"}]}`))
	}))
	defer srv.Close()

	a, err := NewAnthropic(srv.URL, "k", "base-model", 0, time.Second)
	require.NoError(t, err)

	_, err = a.Translate(context.Background(), "list files", "other-model")
	require.NoError(t, err)
	assert.Equal(t, "other-model", model)
}

func TestAnthropicErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"api error with message", http.StatusTooManyRequests, `{"error":{"type":"rate_limit_error","message":"slow down"}}`, "429: slow down"},
		{"api error without body", http.StatusInternalServerError, ``, "anthropic API error: 500"},
		{"no text block", http.StatusOK, `{"content":[]}`, "no text"},
		{"bad json", http.StatusOK, `{`, "failed to decode response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			a, err := NewAnthropic(srv.URL, "k", "", 0, time.Second)
			require.NoError(t, err)

			_, err = a.Translate(context.Background(), "open firefox", "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCleanCommand(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ls -la", "ls -la"},
		{"  pwd \n", "pwd"},
		{"```bash\nfirefox https://example.com\n```", "firefox https://example.com"},
		{"```\ndate\n```", "date"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanCommand(tt.in))
	}
}

func TestOffline(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"open google and search for cats", `firefox "https://www.google.com/search?q=cats"`},
		{"Search for go generics", `firefox "https://www.google.com/search?q=go+generics"`},
		{"go to github.com", `firefox "https://github.com"`},
		{"navigate to https://example.com/a", `firefox "https://example.com/a"`},
		{"open firefox", "firefox"},
		{"hello", "echo 'hello'"},
		{"it's me", `echo 'it'\''s me'`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Offline{}.Translate(context.Background(), tt.in, "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnavailable(t *testing.T) {
	_, err := Unavailable{Err: ErrNoAPIKey}.Translate(context.Background(), "open firefox", "")
	assert.ErrorIs(t, err, ErrNoAPIKey)
}
