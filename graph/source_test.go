package graph_test

import (
	"testing"

	"github.com/delaneyj/ripple/graph"
	"github.com/stretchr/testify/assert"
)

// should notify listeners with old and new values on write
func TestSourceWriteNotifies(t *testing.T) {
	g := graph.New()
	src := graph.NewSource(g, 1)

	var invalidations int
	var changes []graph.Change
	src.OnInvalidate(func() { invalidations++ })
	src.OnChange(func(ch graph.Change) { changes = append(changes, ch) })

	assert.NoError(t, src.Set(2))
	v, err := src.Value()
	assert.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, invalidations)
	assert.Equal(t, []graph.Change{graph.ValueChange{Old: 1, New: 2}}, changes)
}

// should suppress writes of an equal value entirely
func TestSourceEqualWriteIsSilent(t *testing.T) {
	g := graph.New()
	src := graph.NewSource(g, "same")

	events := 0
	src.OnChange(func(graph.Change) { events++ })
	src.OnInvalidate(func() { events++ })

	assert.NoError(t, src.Set("same"))
	assert.Equal(t, 0, events)
}

// should stop delivering to a cancelled subscription
func TestSourceSubscriptionStop(t *testing.T) {
	g := graph.New()
	src := graph.NewSource(g, 1)

	events := 0
	stop := src.OnChange(func(graph.Change) { events++ })

	assert.NoError(t, src.Set(2))
	stop()
	assert.NoError(t, src.Set(3))
	assert.Equal(t, 1, events)
}

// should emit a terminal change on destroy and then refuse all use
func TestSourceDestroy(t *testing.T) {
	g := graph.New()
	src := graph.NewSource(g, 42)

	var last graph.Change
	src.OnChange(func(ch graph.Change) { last = ch })

	src.Destroy()
	assert.False(t, src.Alive())
	assert.Equal(t, graph.ValueChange{Old: 42, New: nil}, last)

	_, err := src.Value()
	assert.ErrorIs(t, err, graph.ErrUseAfterDestroy)
	assert.ErrorIs(t, src.Set(1), graph.ErrUseAfterDestroy)

	// second destroy is a no-op
	last = nil
	src.Destroy()
	assert.Nil(t, last)
}
