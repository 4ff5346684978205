package vm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the public Orgo API endpoint.
const DefaultBaseURL = "https://www.orgo.ai/api"

// OrgoClient implements Provider against the Orgo REST API.
type OrgoClient struct {
	http    *http.Client
	baseURL *url.URL
	apiKey  string
}

// NewOrgoClient creates a client for baseURL authenticated with apiKey.
func NewOrgoClient(baseURL, apiKey string, timeout time.Duration) (*OrgoClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNoAPIKey
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid orgo base url: %w", err)
	}
	return &OrgoClient{
		http:    &http.Client{Timeout: timeout},
		baseURL: u,
		apiKey:  apiKey,
	}, nil
}

type projectResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

func (p projectResponse) info() Info {
	return Info{ID: p.ID, Name: p.Name, State: ParseState(p.Status)}
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Create provisions a new project.
func (c *OrgoClient) Create(ctx context.Context, cfg *Config) (Computer, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	var resp projectResponse
	if err := c.do(ctx, http.MethodPost, "/projects", cfg, &resp); err != nil {
		return nil, err
	}
	debugLog("Created project %q (status %q)", resp.ID, resp.Status)
	return &orgoComputer{client: c, id: resp.ID}, nil
}

// Attach looks up an existing project and starts it if it was stopped.
func (c *OrgoClient) Attach(ctx context.Context, id string) (Computer, error) {
	resp, err := c.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if ParseState(resp.Status) == StateStopped {
		debugLog("Project %s is stopped, starting it", id)
		if err := c.do(ctx, http.MethodPost, "/projects/"+url.PathEscape(id)+"/start", nil, nil); err != nil {
			return nil, fmt.Errorf("failed to start project %s: %w", id, err)
		}
	}
	return c.handle(resp, id), nil
}

// Lookup fetches an existing project and leaves it in whatever state it is in.
func (c *OrgoClient) Lookup(ctx context.Context, id string) (Computer, error) {
	resp, err := c.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.handle(resp, id), nil
}

func (c *OrgoClient) get(ctx context.Context, id string) (projectResponse, error) {
	var resp projectResponse
	err := c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

// handle builds a computer for resp. The provider's view of the identifier
// wins; fall back to the one we asked for.
func (c *OrgoClient) handle(resp projectResponse, id string) Computer {
	actual := resp.ID
	if actual == "" {
		actual = id
	}
	return &orgoComputer{client: c, id: actual}
}

// List returns all projects for the API key.
func (c *OrgoClient) List(ctx context.Context) ([]Info, error) {
	var resp struct {
		Projects []projectResponse `json:"projects"`
	}
	if err := c.do(ctx, http.MethodGet, "/projects", nil, &resp); err != nil {
		return nil, err
	}
	infos := make([]Info, 0, len(resp.Projects))
	for _, p := range resp.Projects {
		infos = append(infos, p.info())
	}
	return infos, nil
}

func (c *OrgoClient) do(ctx context.Context, method, path string, body, out any) error {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Path: path}
		var er errorResponse
		if json.Unmarshal(data, &er) == nil {
			apiErr.Message = er.Error
			if apiErr.Message == "" {
				apiErr.Message = er.Message
			}
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

type orgoComputer struct {
	client *OrgoClient
	id     string
}

func (c *orgoComputer) ID() string {
	return c.id
}

func (c *orgoComputer) Status(ctx context.Context) (State, error) {
	var resp projectResponse
	if err := c.client.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(c.id), nil, &resp); err != nil {
		return "", err
	}
	return ParseState(resp.Status), nil
}

func (c *orgoComputer) Exec(ctx context.Context, command string) (*ExecResult, error) {
	var resp ExecResult
	err := c.client.do(ctx, http.MethodPost, "/computers/"+url.PathEscape(c.id)+"/bash",
		map[string]string{"command": command}, &resp)
	if err != nil {
		return nil, friendlyExecError(err)
	}
	return &resp, nil
}

func (c *orgoComputer) Key(ctx context.Context, key string) error {
	return c.client.do(ctx, http.MethodPost, "/computers/"+url.PathEscape(c.id)+"/key",
		map[string]string{"key": key}, nil)
}

func (c *orgoComputer) Screenshot(ctx context.Context) (string, error) {
	var resp struct {
		Image string `json:"image"`
	}
	if err := c.client.do(ctx, http.MethodGet, "/computers/"+url.PathEscape(c.id)+"/screenshot", nil, &resp); err != nil {
		return "", err
	}
	return resp.Image, nil
}

func (c *orgoComputer) Destroy(ctx context.Context) error {
	return c.client.do(ctx, http.MethodDelete, "/projects/"+url.PathEscape(c.id), nil, nil)
}

// friendlyExecError rewrites the bash endpoint's common failures into
// actionable messages while keeping the status code for classification.
func friendlyExecError(err error) error {
	apiErr, ok := err.(*APIError)
	if !ok {
		return err
	}
	switch apiErr.StatusCode {
	case http.StatusInternalServerError:
		return &APIError{StatusCode: apiErr.StatusCode, Path: apiErr.Path,
			Message: "Command execution failed. The command may be invalid or the system may be busy. Try a simpler command like 'ls' or 'pwd'."}
	case http.StatusNotFound:
		return &APIError{StatusCode: apiErr.StatusCode, Path: apiErr.Path,
			Message: "Computer not found. The project may have expired. Please create a new project."}
	}
	return err
}
