package vm

import "strings"

// State is the remote lifecycle state of a project.
type State string

const (
	StateStarting State = "starting"
	StateReady    State = "ready"
	StateError    State = "error"
	StateStopped  State = "stopped"
)

// ParseState maps the provider's status strings onto State. Unknown values
// are treated as still starting.
func ParseState(s string) State {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ready", "running", "active":
		return StateReady
	case "error", "failed":
		return StateError
	case "stopped", "suspended", "terminated":
		return StateStopped
	default:
		return StateStarting
	}
}

// Config is the optional body sent when creating a project.
type Config struct {
	Name string `json:"name,omitempty"`
	OS   string `json:"os,omitempty"`
	RAM  int    `json:"ram,omitempty"`
	CPU  int    `json:"cpu,omitempty"`
}

// Info describes a project as listed by the provider.
type Info struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	State State  `json:"state" yaml:"state"`
}

// ExecResult is the output of one shell command.
type ExecResult struct {
	Output string `json:"output"`
	Error  string `json:"error,omitempty"`
}
