package lifecycle

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgogpt/orgogpt/internal/session"
	"github.com/orgogpt/orgogpt/internal/vm"
)

func newTestManager(p vm.Provider, store IDStore) (*Manager, *recordingRunner) {
	runner := &recordingRunner{}
	return NewManager(Options{
		Provider:     p,
		Store:        store,
		Runner:       runner,
		Clock:        newFakeClock(),
		PollInterval: time.Second,
		ReadyTimeout: 10 * time.Second,
	}), runner
}

func TestManagerConnectFresh(t *testing.T) {
	p := vm.NewMemoryProvider()
	p.ReadyAfter = 2
	store := &memStore{}
	m, _ := newTestManager(p, store)

	st, err := m.Connect(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, session.StateConnected, st.State)
	assert.True(t, st.IsConnected)
	assert.True(t, st.IsRunning)
	assert.NotEmpty(t, st.ProjectID)
	assert.Empty(t, st.Error)
	assert.Equal(t, st.ProjectID, store.current())
	assert.Equal(t, st, m.Status())

	creates, attaches, _ := p.Counts()
	assert.Equal(t, 1, creates)
	assert.Zero(t, attaches)
}

func TestManagerConnectRestoresStoredProject(t *testing.T) {
	p := vm.NewMemoryProvider()
	id := uuid.NewString()
	p.Seed(id)
	m, _ := newTestManager(p, &memStore{id: id})

	st, err := m.Connect(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, id, st.ProjectID)

	creates, attaches, _ := p.Counts()
	assert.Zero(t, creates)
	assert.Equal(t, 1, attaches)
}

func TestManagerConnectWithLegacyStoredID(t *testing.T) {
	p := vm.NewMemoryProvider()
	store := &memStore{id: "computer-abc123"}
	m, _ := newTestManager(p, store)

	st, err := m.Connect(context.Background(), "")
	require.NoError(t, err)

	creates, attaches, _ := p.Counts()
	assert.Equal(t, 1, creates)
	assert.Zero(t, attaches, "legacy id must never be sent to the provider")
	assert.NotEqual(t, "computer-abc123", st.ProjectID)
	assert.Equal(t, st.ProjectID, store.current())
}

func TestManagerConnectWithLegacyIDOnDisk(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "project.json"),
		[]byte(`{"project_id":"computer-abc123"}`), 0644))
	store, err := session.NewStore(dir)
	require.NoError(t, err)

	p := vm.NewMemoryProvider()
	m, _ := newTestManager(p, store)

	st, err := m.Connect(context.Background(), "")
	require.NoError(t, err)

	got, err := store.Get()
	require.NoError(t, err)
	assert.Equal(t, st.ProjectID, got)

	_, attaches, _ := p.Counts()
	assert.Zero(t, attaches)
}

func TestManagerConnectNotFoundCreatesFresh(t *testing.T) {
	p := vm.NewMemoryProvider()
	gone := uuid.NewString()
	store := &memStore{id: gone}
	m, _ := newTestManager(p, store)

	st, err := m.Connect(context.Background(), "")
	require.NoError(t, err)

	assert.NotEqual(t, gone, st.ProjectID)
	assert.Equal(t, st.ProjectID, store.current())
	creates, attaches, _ := p.Counts()
	assert.Equal(t, 1, creates)
	assert.Equal(t, 1, attaches)
}

func TestManagerConnectFailure(t *testing.T) {
	p := &stubProvider{createErr: errors.New("quota exceeded")}
	store := &memStore{}
	m, _ := newTestManager(p, store)

	st, err := m.Connect(context.Background(), "")
	require.Error(t, err)

	assert.Equal(t, session.StateError, st.State)
	assert.False(t, st.IsConnected)
	assert.Contains(t, st.Error, "quota exceeded")
	assert.Equal(t, st, m.Status())
	assert.Empty(t, store.current())

	// A later Run retries the connection instead of reusing a dead handle.
	res := m.Run(context.Background(), "ls", session.TaskOptions{})
	assert.False(t, res.Success)
	assert.Equal(t, "connect", res.Phase)
	assert.Equal(t, 2, p.creates)
}

func TestManagerConnectTimeout(t *testing.T) {
	c := &scriptedComputer{id: "slow", steps: []statusStep{{state: vm.StateStarting}}}
	p := &stubProvider{created: c}
	m, _ := newTestManager(p, &memStore{})

	st, err := m.Connect(context.Background(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, session.StateError, st.State)
	assert.Equal(t, 1, c.destroyCount())
}

func TestManagerConcurrentConnectIsSingleFlight(t *testing.T) {
	inner := vm.NewMemoryProvider()
	gate := newGatedProvider(inner)
	m, _ := newTestManager(gate, &memStore{})

	var (
		wg    sync.WaitGroup
		first session.Status
		err1  error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		first, err1 = m.Connect(context.Background(), "")
	}()

	<-gate.entered

	during := m.Status()
	assert.Equal(t, session.StateConnecting, during.State)
	assert.Equal(t, session.PhaseCreating, during.Phase)

	second, err2 := m.Connect(context.Background(), "")
	require.NoError(t, err2)
	assert.Equal(t, session.StateConnecting, second.State)

	close(gate.release)
	wg.Wait()

	require.NoError(t, err1)
	assert.True(t, first.IsConnected)
	creates, _, _ := inner.Counts()
	assert.Equal(t, 1, creates)
}

func TestManagerDisconnectDuringConnect(t *testing.T) {
	inner := vm.NewMemoryProvider()
	gate := newGatedProvider(inner)
	store := &memStore{}
	m, _ := newTestManager(gate, store)

	done := make(chan error, 1)
	go func() {
		_, err := m.Connect(context.Background(), "")
		done <- err
	}()

	<-gate.entered
	require.NoError(t, m.Disconnect(context.Background()))

	err := <-done
	assert.ErrorIs(t, err, ErrConnectAborted)

	st := m.Status()
	assert.Equal(t, session.StateDisconnected, st.State)
	assert.False(t, st.IsConnected)
	assert.Empty(t, store.current())
}

func TestManagerDisconnectIsIdempotent(t *testing.T) {
	p := vm.NewMemoryProvider()
	store := &memStore{}
	m, _ := newTestManager(p, store)

	_, err := m.Connect(context.Background(), "")
	require.NoError(t, err)

	require.NoError(t, m.Disconnect(context.Background()))
	require.NoError(t, m.Disconnect(context.Background()))

	_, _, destroys := p.Counts()
	assert.Equal(t, 1, destroys)
	assert.Equal(t, session.Disconnected(), m.Status())
	assert.Empty(t, store.current())
}

func TestManagerReconnectTearsDownOldProject(t *testing.T) {
	p := vm.NewMemoryProvider()
	other := uuid.NewString()
	p.Seed(other)
	m, _ := newTestManager(p, &memStore{})

	first, err := m.Connect(context.Background(), "")
	require.NoError(t, err)

	second, err := m.Connect(context.Background(), other)
	require.NoError(t, err)
	assert.Equal(t, other, second.ProjectID)
	assert.NotEqual(t, first.ProjectID, second.ProjectID)

	_, _, destroys := p.Counts()
	assert.Equal(t, 1, destroys)
}

func TestManagerRunAutoConnects(t *testing.T) {
	p := vm.NewMemoryProvider()
	m, runner := newTestManager(p, &memStore{})

	res := m.Run(context.Background(), "ls -la", session.TaskOptions{})
	require.True(t, res.Success)
	assert.Equal(t, "ls -la", res.Output)

	st := m.Status()
	assert.True(t, st.IsConnected)
	assert.Equal(t, []string{st.ProjectID}, runner.calls)

	// Second run reuses the connection.
	m.Run(context.Background(), "pwd", session.TaskOptions{})
	creates, _, _ := p.Counts()
	assert.Equal(t, 1, creates)
}

func TestManagerRunRejectsEmptyInput(t *testing.T) {
	p := vm.NewMemoryProvider()
	m, runner := newTestManager(p, &memStore{})

	res := m.Run(context.Background(), "   ", session.TaskOptions{})
	assert.False(t, res.Success)
	assert.Empty(t, runner.calls)
	creates, _, _ := p.Counts()
	assert.Zero(t, creates)
}

func TestManagerRefresh(t *testing.T) {
	c := &scriptedComputer{id: uuid.NewString(), steps: []statusStep{{state: vm.StateReady}, {state: vm.StateStopped}}}
	p := &stubProvider{created: c}
	m, _ := newTestManager(p, &memStore{})

	require.NoError(t, m.Refresh(context.Background()), "refresh while disconnected is a no-op")

	_, err := m.Connect(context.Background(), "")
	require.NoError(t, err)
	require.True(t, m.Status().IsRunning)

	require.NoError(t, m.Refresh(context.Background()))
	st := m.Status()
	assert.False(t, st.IsRunning)
	assert.True(t, st.IsConnected)
}

func newMonitoredManager(p vm.Provider) *Manager {
	return NewManager(Options{
		Provider:     p,
		Store:        &memStore{},
		Runner:       &recordingRunner{},
		Clock:        RealClock(),
		PollInterval: time.Millisecond,
		ReadyTimeout: time.Second,
	})
}

func TestManagerMonitorStartedBeforeConnect(t *testing.T) {
	c := &scriptedComputer{id: uuid.NewString(), steps: []statusStep{{state: vm.StateReady}, {state: vm.StateStopped}}}
	p := &stubProvider{created: c}
	m := newMonitoredManager(p)

	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		m.Monitor(ctx, time.Millisecond)
		close(finished)
	}()

	// Still idling while disconnected.
	select {
	case <-finished:
		t.Fatal("monitor returned before anything was connected")
	case <-time.After(20 * time.Millisecond):
	}

	_, err := m.Connect(context.Background(), "")
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return !m.Status().IsRunning }, 2*time.Second, time.Millisecond)
	assert.True(t, m.Status().IsConnected)

	cancel()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop on cancel")
	}
}

func TestManagerMonitorFollowsReconnect(t *testing.T) {
	first := ready(uuid.NewString())
	p := &stubProvider{created: first}
	m := newMonitoredManager(p)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Monitor(ctx, time.Millisecond)

	_, err := m.Connect(context.Background(), "")
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return first.pollCount() > 1 }, 2*time.Second, time.Millisecond)

	require.NoError(t, m.Disconnect(context.Background()))

	second := ready(uuid.NewString())
	p.created = second
	_, err = m.Connect(context.Background(), "")
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return second.pollCount() > 1 }, 2*time.Second, time.Millisecond)
}

func TestManagerKey(t *testing.T) {
	c := ready(uuid.NewString())
	p := &stubProvider{created: c}
	m, _ := newTestManager(p, &memStore{})

	assert.ErrorIs(t, m.Key(context.Background(), "Enter"), ErrNotConnected)

	_, err := m.Connect(context.Background(), "")
	require.NoError(t, err)
	require.NoError(t, m.Key(context.Background(), "Enter"))
	assert.Equal(t, []string{"Enter"}, c.keys)
}
