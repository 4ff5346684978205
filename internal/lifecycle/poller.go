package lifecycle

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/orgogpt/orgogpt/internal/vm"
)

const (
	// DefaultReadyTimeout bounds how long a project may take to become ready.
	DefaultReadyTimeout = 180 * time.Second
	// DefaultPollInterval is the spacing between status checks.
	DefaultPollInterval = time.Second
)

func debugLog(format string, args ...interface{}) {
	if os.Getenv("ORGOGPT_DEBUG") == "1" {
		fmt.Printf("[DEBUG:LIFECYCLE] "+format+"\n", args...)
	}
}

// Poller waits for a computer to report ready.
type Poller struct {
	Clock    Clock
	Interval time.Duration
}

// NewPoller creates a poller with the given interval, or the default when
// interval is not positive.
func NewPoller(clock Clock, interval time.Duration) *Poller {
	if clock == nil {
		clock = RealClock()
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{Clock: clock, Interval: interval}
}

// AwaitReady polls c until it reports ready. A reported error state fails
// immediately with ErrRemote. Failed status fetches count as "not ready yet"
// and are retried until the deadline, which is fixed on entry.
func (p *Poller) AwaitReady(ctx context.Context, c vm.Computer, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultReadyTimeout
	}
	deadline := p.Clock.Now().Add(timeout)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		state, err := c.Status(ctx)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			debugLog("Status check for %s failed, retrying: %v", c.ID(), err)
		case state == vm.StateReady:
			return nil
		case state == vm.StateError:
			return fmt.Errorf("%w: project %s reported an error state", ErrRemote, c.ID())
		}

		if !p.Clock.Now().Before(deadline) {
			return fmt.Errorf("%w (%s)", ErrTimeout, timeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.Clock.After(p.Interval):
		}
	}
}
