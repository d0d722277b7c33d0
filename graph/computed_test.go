package graph_test

import (
	"errors"
	"testing"

	"github.com/delaneyj/ripple/graph"
	"github.com/stretchr/testify/assert"
)

func first(inputs []any) (any, error) { return inputs[0], nil }

// should derive from its inputs and track writes
func TestComputedTracksInputs(t *testing.T) {
	g := graph.New()
	a := graph.NewSource(g, 2)
	b := graph.NewSource(g, 3)
	sum := graph.NewComputed(g, func(inputs []any) (any, error) {
		return inputs[0].(int) + inputs[1].(int), nil
	}, a, b)

	v, err := sum.Value()
	assert.NoError(t, err)
	assert.Equal(t, 5, v)

	assert.NoError(t, a.Set(10))
	v, _ = sum.Value()
	assert.Equal(t, 13, v)
}

// should not recompute while the cache is clean
func TestComputedReadsAreCached(t *testing.T) {
	g := graph.New()
	src := graph.NewSource(g, 1)
	runs := 0
	c := graph.NewComputed(g, func(inputs []any) (any, error) {
		runs++
		return inputs[0], nil
	}, src)

	assert.Equal(t, 1, runs)
	c.Value()
	c.Value()
	assert.Equal(t, 1, runs)

	assert.NoError(t, src.Set(2))
	c.Value()
	assert.Equal(t, 2, runs)
}

// should stop a redundant cascade at the first node whose value is unchanged
func TestComputedUnchangedResultIsSilent(t *testing.T) {
	g := graph.New()
	src := graph.NewSource(g, 4)
	parity := graph.NewComputed(g, func(inputs []any) (any, error) {
		return inputs[0].(int) % 2, nil
	}, src)

	events := 0
	parity.OnChange(func(graph.Change) { events++ })

	assert.NoError(t, src.Set(6))
	assert.Equal(t, 0, events)
	assert.NoError(t, src.Set(7))
	assert.Equal(t, 1, events)
}

// should emit exactly one consistent change per write across a diamond
func TestComputedDiamondNoGlitch(t *testing.T) {
	g := graph.New()
	a := graph.NewSource(g, 1)
	b := graph.NewComputed(g, func(in []any) (any, error) { return in[0].(int) * 2, nil }, a)
	c := graph.NewComputed(g, func(in []any) (any, error) { return in[0].(int) + 1, nil }, a)
	d := graph.NewComputed(g, func(in []any) (any, error) {
		return in[0].(int) + in[1].(int), nil
	}, b, c)

	var seen []any
	d.OnChange(func(ch graph.Change) {
		seen = append(seen, ch.(graph.ValueChange).New)
	})

	assert.NoError(t, a.Set(2))
	// 2*2 + (2+1), never a half-updated intermediate
	assert.Equal(t, []any{7}, seen)
}

// should surface a compute failure as the unavailable value, not an error
func TestComputedFailureIsUnavailable(t *testing.T) {
	g := graph.New()
	src := graph.NewSource(g, 1)
	c := graph.NewComputed(g, func(inputs []any) (any, error) {
		if inputs[0].(int) < 0 {
			return nil, errors.New("negative input")
		}
		return inputs[0], nil
	}, src)

	assert.NoError(t, src.Set(-1))
	v, err := c.Value()
	assert.NoError(t, err)
	assert.Nil(t, v)

	assert.NoError(t, src.Set(5))
	v, _ = c.Value()
	assert.Equal(t, 5, v)
}

// should go unavailable when an input is destroyed underneath it
func TestComputedDestroyedInput(t *testing.T) {
	g := graph.New()
	src := graph.NewSource(g, 9)
	c := graph.NewComputed(g, first, src)

	src.Destroy()
	v, err := c.Value()
	assert.NoError(t, err)
	assert.Nil(t, v)
}

// should detach from inputs on destroy
func TestComputedDestroyDetaches(t *testing.T) {
	g := graph.New()
	src := graph.NewSource(g, 1)
	c := graph.NewComputed(g, first, src)

	events := 0
	c.OnChange(func(graph.Change) { events++ })
	c.Destroy()
	// only the terminal change, nothing after
	assert.Equal(t, 1, events)

	assert.NoError(t, src.Set(2))
	assert.Equal(t, 1, events)
	_, err := c.Value()
	assert.ErrorIs(t, err, graph.ErrUseAfterDestroy)
}
