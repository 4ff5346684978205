package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/orgogpt/orgogpt/internal/project"
)

// ErrUnusableID is returned when asked to persist an identifier that could
// never be reattached.
var ErrUnusableID = errors.New("project id is not reusable")

const storeFile = "project.json"

type storedProject struct {
	ProjectID string    `json:"project_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists the active project identifier at <dir>/project.json.
// Last write wins; no locking is attempted.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir, creating the directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path() string {
	return filepath.Join(s.dir, storeFile)
}

// Get returns the persisted identifier, or "" if none is stored. A stored
// value that is no longer usable is removed before returning "".
func (s *Store) Get() (string, error) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read project file: %w", err)
	}

	var sp storedProject
	if err := json.Unmarshal(data, &sp); err != nil {
		// A corrupt file is as stale as a legacy id.
		return "", s.Clear()
	}

	if !project.IsUsable(sp.ProjectID) {
		if err := s.Clear(); err != nil {
			return "", err
		}
		return "", nil
	}

	return sp.ProjectID, nil
}

// Set persists id. Unusable identifiers are rejected.
func (s *Store) Set(id string) error {
	if !project.IsUsable(id) {
		return fmt.Errorf("%w: %q (%s)", ErrUnusableID, id, project.Classify(id))
	}

	data, err := json.MarshalIndent(storedProject{ProjectID: id, UpdatedAt: time.Now().UTC()}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal project: %w", err)
	}

	if err := os.WriteFile(s.path(), data, 0644); err != nil {
		return fmt.Errorf("failed to write project file: %w", err)
	}

	return nil
}

// Clear removes the persisted identifier. Clearing an empty store is a no-op.
func (s *Store) Clear() error {
	if err := os.Remove(s.path()); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete project file: %w", err)
	}
	return nil
}

// Dir returns the store directory
func (s *Store) Dir() string {
	return s.dir
}
