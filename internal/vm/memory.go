package vm

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryProvider is an in-process Provider used for offline runs and tests.
// Projects become ready after ReadyAfter status checks.
type MemoryProvider struct {
	// ReadyAfter is the number of "starting" answers before "ready".
	ReadyAfter int
	// ExecFunc handles commands. When nil, commands are echoed back.
	ExecFunc func(id, command string) (*ExecResult, error)

	mu       sync.Mutex
	projects map[string]*memoryProject
	creates  int
	attaches int
	destroys int
}

type memoryProject struct {
	id    string
	polls int
	alive bool
	keys  []string
}

// NewMemoryProvider creates an empty in-memory provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{projects: make(map[string]*memoryProject)}
}

// Counts reports how many create, attach and destroy calls were made.
func (m *MemoryProvider) Counts() (creates, attaches, destroys int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creates, m.attaches, m.destroys
}

// Seed registers an existing live project, as if created in an earlier run.
func (m *MemoryProvider) Seed(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[id] = &memoryProject{id: id, alive: true, polls: m.ReadyAfter}
}

func (m *MemoryProvider) Create(ctx context.Context, cfg *Config) (Computer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	p := &memoryProject{id: uuid.NewString(), alive: true}
	m.projects[p.id] = p
	return &memoryComputer{provider: m, project: p}, nil
}

func (m *MemoryProvider) Attach(ctx context.Context, id string) (Computer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attaches++
	return m.lookupLocked(id)
}

// Lookup is Attach without counting as an attach.
func (m *MemoryProvider) Lookup(ctx context.Context, id string) (Computer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookupLocked(id)
}

func (m *MemoryProvider) lookupLocked(id string) (Computer, error) {
	p, ok := m.projects[id]
	if !ok || !p.alive {
		return nil, &APIError{StatusCode: http.StatusNotFound, Path: "/projects/" + id, Message: "project not found"}
	}
	return &memoryComputer{provider: m, project: p}, nil
}

func (m *MemoryProvider) List(ctx context.Context) ([]Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	infos := make([]Info, 0, len(m.projects))
	for _, p := range m.projects {
		if !p.alive {
			continue
		}
		infos = append(infos, Info{ID: p.id, State: m.stateLocked(p)})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos, nil
}

func (m *MemoryProvider) stateLocked(p *memoryProject) State {
	if !p.alive {
		return StateStopped
	}
	if p.polls < m.ReadyAfter {
		return StateStarting
	}
	return StateReady
}

type memoryComputer struct {
	provider *MemoryProvider
	project  *memoryProject
}

func (c *memoryComputer) ID() string {
	return c.project.id
}

func (c *memoryComputer) Status(ctx context.Context) (State, error) {
	c.provider.mu.Lock()
	defer c.provider.mu.Unlock()
	s := c.provider.stateLocked(c.project)
	c.project.polls++
	return s, nil
}

func (c *memoryComputer) Exec(ctx context.Context, command string) (*ExecResult, error) {
	if err := c.live(); err != nil {
		return nil, err
	}
	if c.provider.ExecFunc != nil {
		return c.provider.ExecFunc(c.project.id, command)
	}
	return &ExecResult{Output: command + "\n"}, nil
}

func (c *memoryComputer) Key(ctx context.Context, key string) error {
	if err := c.live(); err != nil {
		return err
	}
	c.provider.mu.Lock()
	defer c.provider.mu.Unlock()
	c.project.keys = append(c.project.keys, key)
	return nil
}

func (c *memoryComputer) Screenshot(ctx context.Context) (string, error) {
	if err := c.live(); err != nil {
		return "", err
	}
	// 1x1 transparent PNG.
	return "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII=", nil
}

func (c *memoryComputer) Destroy(ctx context.Context) error {
	c.provider.mu.Lock()
	defer c.provider.mu.Unlock()
	c.provider.destroys++
	c.project.alive = false
	return nil
}

func (c *memoryComputer) live() error {
	c.provider.mu.Lock()
	defer c.provider.mu.Unlock()
	if !c.project.alive {
		return fmt.Errorf("project %s: %w", c.project.id,
			&APIError{StatusCode: http.StatusNotFound, Path: "/computers/" + c.project.id, Message: "project destroyed"})
	}
	return nil
}
