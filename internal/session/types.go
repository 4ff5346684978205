package session

import "time"

// State is the primary connection state of the lifecycle manager.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateError        State = "error"
)

// Phase refines StateConnecting.
type Phase string

const (
	PhaseNone      Phase = ""
	PhaseCreating  Phase = "creating"
	PhaseRestoring Phase = "restoring"
)

// Status is the caller-visible connection status. It is always handed out by
// value so callers never observe a partially updated status.
type Status struct {
	State       State  `json:"state" yaml:"state"`
	Phase       Phase  `json:"phase,omitempty" yaml:"phase,omitempty"`
	IsConnected bool   `json:"isConnected" yaml:"is_connected"`
	IsRunning   bool   `json:"isRunning" yaml:"is_running"`
	ProjectID   string `json:"projectId,omitempty" yaml:"project_id,omitempty"`
	Error       string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Disconnected returns the zero connection status.
func Disconnected() Status {
	return Status{State: StateDisconnected}
}

// Mode records how a task input was interpreted.
type Mode string

const (
	ModeCommand         Mode = "command"
	ModeNaturalLanguage Mode = "natural_language"
)

// TaskResult is the outcome of one task. It is built once by the task runner
// and not modified afterwards.
type TaskResult struct {
	Success     bool     `json:"success" yaml:"success"`
	Output      string   `json:"output" yaml:"output"`
	Screenshots []string `json:"screenshots,omitempty" yaml:"-"`
	Error       string   `json:"error,omitempty" yaml:"error,omitempty"`
	ProjectID   string   `json:"projectId,omitempty" yaml:"project_id,omitempty"`

	Mode        Mode     `json:"mode,omitempty" yaml:"mode,omitempty"`
	Request     string   `json:"request,omitempty" yaml:"request,omitempty"`
	Command     string   `json:"command,omitempty" yaml:"command,omitempty"`
	Phase       string   `json:"phase,omitempty" yaml:"phase,omitempty"` // "translate" | "execute" on failure
	Suggestions []string `json:"suggestions,omitempty" yaml:"suggestions,omitempty"`
}

// TaskOptions tunes a single task run.
type TaskOptions struct {
	// Model overrides the translation model for natural-language input.
	Model string `json:"model,omitempty"`
	// SkipScreenshot disables the screenshot taken after a successful run.
	SkipScreenshot bool `json:"skipScreenshot,omitempty"`
}

// TaskStatus is the persisted state of a history entry.
type TaskStatus string

const (
	TaskProcessing TaskStatus = "processing"
	TaskCompleted  TaskStatus = "completed"
	TaskError      TaskStatus = "error"
)

// Task is one entry of the task history.
type Task struct {
	ID        string      `json:"id"`
	Input     string      `json:"input"`
	Status    TaskStatus  `json:"status"`
	Result    *TaskResult `json:"result,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
