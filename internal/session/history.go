package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultHistoryLimit is how many tasks are kept when no limit is configured.
const DefaultHistoryLimit = 20

// History keeps the most recent tasks in a single JSON file, newest first.
type History struct {
	path  string
	limit int
	mu    sync.Mutex
}

// NewHistory creates a history backed by path.
func NewHistory(path string, limit int) (*History, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	return &History{path: path, limit: limit}, nil
}

// List returns the stored tasks, newest first.
func (h *History) List() ([]*Task, error) {
	data, err := os.ReadFile(h.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []*Task{}, nil
		}
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	var tasks []*Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}
	return tasks, nil
}

// Add records task. An existing entry with the same ID is replaced in place;
// otherwise the task is prepended and the list trimmed to the limit.
func (h *History) Add(task *Task) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	tasks, err := h.List()
	if err != nil {
		return err
	}

	replaced := false
	for i, t := range tasks {
		if t.ID == task.ID {
			tasks[i] = task
			replaced = true
			break
		}
	}
	if !replaced {
		tasks = append([]*Task{task}, tasks...)
		if len(tasks) > h.limit {
			tasks = tasks[:h.limit]
		}
	}

	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := os.WriteFile(h.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	return nil
}

// Record stores the outcome of running input as a new history entry.
func (h *History) Record(input string, result *TaskResult) (*Task, error) {
	task := &Task{
		ID:        uuid.NewString(),
		Input:     input,
		Status:    TaskCompleted,
		Result:    result,
		Timestamp: time.Now().UTC(),
	}
	if result == nil || !result.Success {
		task.Status = TaskError
		if result != nil {
			task.Error = result.Error
		}
	}
	return task, h.Add(task)
}
