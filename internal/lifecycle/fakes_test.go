package lifecycle

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/orgogpt/orgogpt/internal/session"
	"github.com/orgogpt/orgogpt/internal/vm"
)

// fakeClock advances instantly whenever After is called.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	c.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- now
	return ch
}

type statusStep struct {
	state vm.State
	err   error
}

// scriptedComputer answers Status from a script, repeating the last step.
type scriptedComputer struct {
	id    string
	steps []statusStep

	mu        sync.Mutex
	polls     int
	destroyed int
	keys      []string
}

func (c *scriptedComputer) ID() string { return c.id }

func (c *scriptedComputer) Status(ctx context.Context) (vm.State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.polls
	if i >= len(c.steps) {
		i = len(c.steps) - 1
	}
	c.polls++
	return c.steps[i].state, c.steps[i].err
}

func (c *scriptedComputer) Exec(ctx context.Context, command string) (*vm.ExecResult, error) {
	return &vm.ExecResult{Output: command}, nil
}

func (c *scriptedComputer) Key(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys = append(c.keys, key)
	return nil
}

func (c *scriptedComputer) Screenshot(ctx context.Context) (string, error) {
	return "", errors.New("no display")
}

func (c *scriptedComputer) Destroy(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.destroyed++
	return nil
}

func (c *scriptedComputer) pollCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.polls
}

func (c *scriptedComputer) destroyCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.destroyed
}

func ready(id string) *scriptedComputer {
	return &scriptedComputer{id: id, steps: []statusStep{{state: vm.StateReady}}}
}

// gatedProvider wraps a provider and holds Create until release is closed.
type gatedProvider struct {
	vm.Provider
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedProvider(inner vm.Provider) *gatedProvider {
	return &gatedProvider{
		Provider: inner,
		entered:  make(chan struct{}),
		release:  make(chan struct{}),
	}
}

func (g *gatedProvider) Create(ctx context.Context, cfg *vm.Config) (vm.Computer, error) {
	g.once.Do(func() { close(g.entered) })
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return g.Provider.Create(ctx, cfg)
}

// memStore keeps whatever it is given, stale or not.
type memStore struct {
	mu      sync.Mutex
	id      string
	sets    []string
	clears  int
	failGet error
}

func (s *memStore) Get() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id, s.failGet
}

func (s *memStore) Set(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
	s.sets = append(s.sets, id)
	return nil
}

func (s *memStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = ""
	s.clears++
	return nil
}

func (s *memStore) current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// recordingRunner echoes the input and records which computer ran it.
type recordingRunner struct {
	mu    sync.Mutex
	calls []string
}

func (r *recordingRunner) Run(ctx context.Context, c vm.Computer, input string, opts session.TaskOptions) *session.TaskResult {
	r.mu.Lock()
	r.calls = append(r.calls, c.ID())
	r.mu.Unlock()
	return &session.TaskResult{Success: true, Output: input, ProjectID: c.ID(), Mode: session.ModeCommand}
}
