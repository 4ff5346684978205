package lifecycle

import (
	"context"
	"time"

	"github.com/orgogpt/orgogpt/internal/project"
	"github.com/orgogpt/orgogpt/internal/vm"
)

// teardownTimeout bounds best-effort destroy calls, which may run after the
// caller's context is already done.
const teardownTimeout = 30 * time.Second

// Factory provisions brand-new projects. It does not retry.
type Factory struct {
	Provider     vm.Provider
	Poller       *Poller
	Config       *vm.Config
	ReadyTimeout time.Duration
}

// CreateFresh creates a project and waits for it to be ready. The returned
// identifier is the provider's, or project.SentinelNew when the provider did
// not assign one yet.
func (f *Factory) CreateFresh(ctx context.Context) (vm.Computer, string, error) {
	c, err := f.Provider.Create(ctx, f.Config)
	if err != nil {
		return nil, "", &ProvisionError{Err: err}
	}

	if err := f.Poller.AwaitReady(ctx, c, f.ReadyTimeout); err != nil {
		destroy(c)
		return nil, "", &ProvisionError{Err: err}
	}

	id := c.ID()
	if id == "" {
		id = project.SentinelNew
	}
	debugLog("Fresh project ready: %s", id)
	return c, id, nil
}

// destroy tears c down, logging instead of returning failures.
func destroy(c vm.Computer) {
	ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
	defer cancel()
	if err := c.Destroy(ctx); err != nil {
		debugLog("Failed to destroy project %s: %v", c.ID(), err)
	}
}
