package vm

import (
	"context"
	"fmt"
	"os"
)

func debugLog(format string, args ...interface{}) {
	if os.Getenv("ORGOGPT_DEBUG") == "1" {
		fmt.Printf("[DEBUG:VM] "+format+"\n", args...)
	}
}

// Provider creates and reattaches remote computers. Each project is a
// separately billed virtual desktop owned by the provider.
type Provider interface {
	// Create provisions a brand-new project. The returned computer may not
	// be ready yet.
	Create(ctx context.Context, cfg *Config) (Computer, error)
	// Attach connects to an existing project. Missing projects fail with an
	// error that Classify reports as FailureNotFound.
	Attach(ctx context.Context, id string) (Computer, error)
	// Lookup returns a handle to an existing project without changing its
	// state. Missing projects fail like Attach.
	Lookup(ctx context.Context, id string) (Computer, error)
	// List returns the projects visible to the API key.
	List(ctx context.Context) ([]Info, error)
}

// Computer is a live handle to one remote project.
type Computer interface {
	// ID is the provider-assigned project identifier. It may be empty for a
	// project the provider has not finished registering.
	ID() string
	Status(ctx context.Context) (State, error)
	Exec(ctx context.Context, command string) (*ExecResult, error)
	Key(ctx context.Context, key string) error
	// Screenshot returns the current screen as a base64 encoded image.
	Screenshot(ctx context.Context) (string, error)
	Destroy(ctx context.Context) error
}
