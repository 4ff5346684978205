package vm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryProvider(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryProvider()
	m.ReadyAfter = 2

	comp, err := m.Create(ctx, nil)
	require.NoError(t, err)

	var states []State
	for i := 0; i < 3; i++ {
		s, err := comp.Status(ctx)
		require.NoError(t, err)
		states = append(states, s)
	}
	assert.Equal(t, []State{StateStarting, StateStarting, StateReady}, states)

	res, err := comp.Exec(ctx, "pwd")
	require.NoError(t, err)
	assert.Equal(t, "pwd\n", res.Output)

	again, err := m.Attach(ctx, comp.ID())
	require.NoError(t, err)
	assert.Equal(t, comp.ID(), again.ID())

	looked, err := m.Lookup(ctx, comp.ID())
	require.NoError(t, err)
	assert.Equal(t, comp.ID(), looked.ID())

	require.NoError(t, comp.Destroy(ctx))

	_, err = m.Attach(ctx, comp.ID())
	assert.Equal(t, FailureNotFound, Classify(err))

	_, err = comp.Exec(ctx, "pwd")
	assert.Equal(t, FailureNotFound, Classify(err))

	creates, attaches, destroys := m.Counts()
	assert.Equal(t, 1, creates)
	assert.Equal(t, 2, attaches)
	assert.Equal(t, 1, destroys)
}

func TestMemoryProviderSeedAndList(t *testing.T) {
	m := NewMemoryProvider()
	m.Seed("b")
	m.Seed("a")

	infos, err := m.List(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "a", infos[0].ID)
	assert.Equal(t, StateReady, infos[0].State)
}
