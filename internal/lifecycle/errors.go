package lifecycle

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout means the project never reported ready within the bound.
	ErrTimeout = errors.New("timeout waiting for project to be ready")
	// ErrRemote means the provider reported the project as failed.
	ErrRemote = errors.New("project failed to start")
	// ErrConnectAborted is returned by a Connect that was overtaken by Disconnect.
	ErrConnectAborted = errors.New("connect aborted by disconnect")
	// ErrNotConnected means no computer is installed.
	ErrNotConnected = errors.New("not connected")
)

// ProvisionError wraps any failure while creating a fresh project.
type ProvisionError struct {
	Err error
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("failed to create new Orgo project: %v", e.Err)
}

func (e *ProvisionError) Unwrap() error { return e.Err }

// AttachError wraps a failure reconnecting to an existing project that was
// not a not-found condition.
type AttachError struct {
	ProjectID string
	Err       error
}

func (e *AttachError) Error() string {
	return fmt.Sprintf("failed to attach to project %s: %v", e.ProjectID, e.Err)
}

func (e *AttachError) Unwrap() error { return e.Err }
