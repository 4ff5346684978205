// Package server exposes the lifecycle manager over a small JSON API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/orgogpt/orgogpt/internal/session"
	"github.com/orgogpt/orgogpt/internal/vm"
)

const maxBodyBytes = 1 << 20

func debugLog(format string, args ...interface{}) {
	if os.Getenv("ORGOGPT_DEBUG") == "1" {
		fmt.Printf("[DEBUG:SERVER] "+format+"\n", args...)
	}
}

// Lifecycle is the part of the lifecycle manager the server drives.
type Lifecycle interface {
	Connect(ctx context.Context, id string) (session.Status, error)
	Disconnect(ctx context.Context) error
	Status() session.Status
	Run(ctx context.Context, input string, opts session.TaskOptions) *session.TaskResult
}

// Server handles /api/orgo requests.
type Server struct {
	lifecycle Lifecycle
	projects  vm.Provider
	history   *session.History
}

// New creates a server. provider backs the project listing and history, if
// non-nil, records every processed task.
func New(lc Lifecycle, provider vm.Provider, history *session.History) *Server {
	return &Server{lifecycle: lc, projects: provider, history: history}
}

// Request is the body of POST /api/orgo.
type Request struct {
	Action    string              `json:"action"`
	ProjectID string              `json:"projectId,omitempty"`
	Input     string              `json:"input,omitempty"`
	Options   session.TaskOptions `json:"options"`
}

// Response is the body of every /api/orgo reply.
type Response struct {
	Success  bool                `json:"success"`
	Status   *session.Status     `json:"status,omitempty"`
	Result   *session.TaskResult `json:"result,omitempty"`
	Projects *[]vm.Info          `json:"projects,omitempty"`
	Error    string              `json:"error,omitempty"`
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/orgo", s.handleAction)
	mux.HandleFunc("GET /api/orgo/projects", s.handleProjects)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	var req Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	debugLog("action=%q projectId=%q", req.Action, req.ProjectID)

	ctx := r.Context()
	switch req.Action {
	case "":
		writeError(w, http.StatusBadRequest, `missing required "action" field`)

	case "connect":
		st, err := s.lifecycle.Connect(ctx, req.ProjectID)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, Response{Success: true, Status: &st})

	case "disconnect":
		if err := s.lifecycle.Disconnect(ctx); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, Response{Success: true})

	case "process":
		input := strings.TrimSpace(req.Input)
		if input == "" {
			writeError(w, http.StatusBadRequest, `missing required "input" field`)
			return
		}
		result := s.lifecycle.Run(ctx, input, req.Options)
		if s.history != nil {
			if _, err := s.history.Record(input, result); err != nil {
				debugLog("Failed to record task: %v", err)
			}
		}
		writeJSON(w, http.StatusOK, Response{Success: true, Result: result})

	case "status":
		st := s.lifecycle.Status()
		writeJSON(w, http.StatusOK, Response{Success: true, Status: &st})

	default:
		writeError(w, http.StatusBadRequest, "Invalid action")
	}
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	if s.projects == nil {
		writeError(w, http.StatusNotImplemented, "project listing not available")
		return
	}
	projects, err := s.projects.List(r.Context())
	if err != nil {
		status := http.StatusBadGateway
		if vm.Classify(err) == vm.FailureAuth {
			status = http.StatusUnauthorized
		}
		writeError(w, status, err.Error())
		return
	}
	if projects == nil {
		projects = []vm.Info{}
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Projects: &projects})
}

// Serve listens on addr until ctx is done, then drains in-flight requests for
// up to shutdownTimeout.
func (s *Server) Serve(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		debugLog("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		debugLog("Failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, Response{Success: false, Error: msg})
}
