package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/orgogpt/orgogpt/internal/project"
	"github.com/orgogpt/orgogpt/internal/session"
	"github.com/orgogpt/orgogpt/internal/vm"
)

// minRefreshSpacing is the least time between two remote status refreshes
// issued by Monitor.
const minRefreshSpacing = 2 * time.Second

// IDStore persists the active project identifier across restarts.
type IDStore interface {
	Get() (string, error)
	Set(id string) error
	Clear() error
}

// TaskRunner executes one task against a ready computer.
type TaskRunner interface {
	Run(ctx context.Context, c vm.Computer, input string, opts session.TaskOptions) *session.TaskResult
}

// Options configures a Manager.
type Options struct {
	Provider     vm.Provider
	Store        IDStore
	Runner       TaskRunner
	Clock        Clock
	PollInterval time.Duration
	ReadyTimeout time.Duration
	// CreateConfig is sent with every project creation.
	CreateConfig *vm.Config
}

// Manager owns the single live computer for this process. It tracks the
// connection status, persists the project identifier and lets at most one
// Connect run at a time.
type Manager struct {
	store       IDStore
	runner      TaskRunner
	clock       Clock
	reconnector *Reconnector

	mu         sync.Mutex
	status     session.Status
	computer   vm.Computer
	connecting bool
	// generation increments on every Connect and Disconnect. Work started
	// under an older generation must not touch state.
	generation uint64
	cancel     context.CancelFunc
}

// NewManager creates a disconnected Manager.
func NewManager(opts Options) *Manager {
	clock := opts.Clock
	if clock == nil {
		clock = RealClock()
	}
	poller := NewPoller(clock, opts.PollInterval)
	factory := &Factory{
		Provider:     opts.Provider,
		Poller:       poller,
		Config:       opts.CreateConfig,
		ReadyTimeout: opts.ReadyTimeout,
	}
	return &Manager{
		store:  opts.Store,
		runner: opts.Runner,
		clock:  clock,
		reconnector: &Reconnector{
			Provider:     opts.Provider,
			Factory:      factory,
			Poller:       poller,
			ReadyTimeout: opts.ReadyTimeout,
		},
		status: session.Disconnected(),
	}
}

// Status returns a copy of the current connection status. It performs no I/O.
func (m *Manager) Status() session.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Connect attaches to id, or to the persisted identifier when id is empty,
// creating a fresh project when neither is usable. While another Connect is
// in flight it returns the current status unchanged and does nothing.
//
// Any existing computer is torn down first. On failure the status moves to
// StateError and no computer is installed.
func (m *Manager) Connect(ctx context.Context, id string) (session.Status, error) {
	m.mu.Lock()
	if m.connecting {
		s := m.status
		m.mu.Unlock()
		debugLog("Connect already in progress, ignoring")
		return s, nil
	}
	m.connecting = true
	m.generation++
	gen := m.generation
	old := m.computer
	m.computer = nil
	m.status = session.Status{
		State:     session.StateConnecting,
		ProjectID: m.status.ProjectID,
	}
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.mu.Unlock()
	defer cancel()

	if old != nil {
		debugLog("Tearing down project %s before reconnecting", old.ID())
		destroy(old)
		if err := m.store.Clear(); err != nil {
			debugLog("Failed to clear stored project id: %v", err)
		}
	}

	if id == "" {
		stored, err := m.store.Get()
		if err != nil {
			debugLog("Failed to read stored project id: %v", err)
		}
		id = stored
	}

	att, err := m.reconnector.Attach(ctx, id, func(p session.Phase) { m.setPhase(gen, p) })

	m.mu.Lock()
	if gen != m.generation {
		// Disconnect ran while we were provisioning. It already reset the
		// connecting flag, and a newer Connect may own it now.
		s := m.status
		m.mu.Unlock()
		if att != nil {
			destroy(att.Computer)
		}
		return s, ErrConnectAborted
	}
	m.connecting = false
	m.cancel = nil

	if err != nil {
		m.status = session.Status{State: session.StateError, Error: err.Error()}
		s := m.status
		m.mu.Unlock()
		debugLog("Connect failed: %v", err)
		return s, err
	}

	m.computer = att.Computer
	m.status = session.Status{
		State:       session.StateConnected,
		IsConnected: true,
		IsRunning:   true,
		ProjectID:   att.ProjectID,
	}
	s := m.status
	m.persist(att.ProjectID)
	m.mu.Unlock()

	debugLog("Connected to project %s (new: %t)", att.ProjectID, att.IsNew)
	return s, nil
}

func (m *Manager) setPhase(gen uint64, p session.Phase) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen == m.generation && m.connecting {
		m.status.Phase = p
	}
}

// persist records id, or clears the store when the provider has not assigned
// a reusable identifier. Callers hold m.mu.
func (m *Manager) persist(id string) {
	var err error
	if project.IsUsable(id) {
		err = m.store.Set(id)
	} else {
		err = m.store.Clear()
	}
	if err != nil {
		debugLog("Failed to persist project id %q: %v", id, err)
	}
}

// Disconnect destroys the current computer, if any, and forgets the stored
// identifier. An in-flight Connect is cancelled. Calling it with nothing to
// disconnect is a no-op.
func (m *Manager) Disconnect(ctx context.Context) error {
	m.mu.Lock()
	c := m.computer
	if c == nil && !m.connecting {
		m.mu.Unlock()
		return nil
	}
	m.generation++
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.computer = nil
	m.connecting = false
	m.status = session.Disconnected()
	if err := m.store.Clear(); err != nil {
		debugLog("Failed to clear stored project id: %v", err)
	}
	m.mu.Unlock()

	if c == nil {
		return nil
	}
	if err := c.Destroy(ctx); err != nil {
		return fmt.Errorf("failed to destroy project %s: %w", c.ID(), err)
	}
	return nil
}

// Run executes input on the connected computer, connecting first if needed.
// Failures are reported in the result; Run never changes the connection
// state because of a task failure.
func (m *Manager) Run(ctx context.Context, input string, opts session.TaskOptions) *session.TaskResult {
	if strings.TrimSpace(input) == "" {
		return &session.TaskResult{Success: false, Error: "missing input", Request: input}
	}

	if !m.Status().IsConnected {
		if _, err := m.Connect(ctx, ""); err != nil {
			return &session.TaskResult{
				Success: false,
				Error:   err.Error(),
				Request: input,
				Phase:   "connect",
			}
		}
	}

	m.mu.Lock()
	c := m.computer
	id := m.status.ProjectID
	m.mu.Unlock()

	if c == nil {
		return &session.TaskResult{
			Success:   false,
			Error:     fmt.Sprintf("%v: a connection attempt is still in progress", ErrNotConnected),
			Request:   input,
			ProjectID: id,
			Phase:     "connect",
		}
	}

	return m.runner.Run(ctx, c, input, opts)
}

// Refresh asks the provider for the current remote state and updates
// IsRunning. A failed fetch leaves the status untouched.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	c := m.computer
	m.mu.Unlock()
	if c == nil {
		return nil
	}

	state, err := c.Status(ctx)
	if err != nil {
		debugLog("Failed to refresh status of %s: %v", c.ID(), err)
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.computer == c {
		m.status.IsRunning = state == vm.StateReady || state == vm.StateStarting
	}
	return nil
}

// Monitor refreshes the remote status of whichever computer is active every
// interval until ctx is done. It idles while disconnected and follows the
// active computer across reconnects.
func (m *Manager) Monitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = minRefreshSpacing
	}

	var (
		current vm.Computer
		last    time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.clock.After(interval):
		}

		m.mu.Lock()
		c := m.computer
		m.mu.Unlock()
		if c == nil {
			current = nil
			continue
		}
		if c != current {
			debugLog("Monitor following project %s", c.ID())
			current = c
			last = time.Time{}
		}

		now := m.clock.Now()
		if !last.IsZero() && now.Sub(last) < minRefreshSpacing {
			continue
		}
		last = now
		_ = m.Refresh(ctx)
	}
}

// Key sends a key press to the connected computer.
func (m *Manager) Key(ctx context.Context, key string) error {
	m.mu.Lock()
	c := m.computer
	m.mu.Unlock()
	if c == nil {
		return ErrNotConnected
	}
	return c.Key(ctx, key)
}
