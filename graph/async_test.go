package graph_test

import (
	"errors"
	"testing"

	"github.com/delaneyj/ripple/graph"
	"github.com/stretchr/testify/assert"
)

// collects every deferred the node issues so tests can settle them by hand
type deferredScript struct {
	issued []*graph.Deferred
}

func (s *deferredScript) fn([]any) *graph.Deferred {
	d := graph.NewDeferred()
	s.issued = append(s.issued, d)
	return d
}

// should apply a settled result and notify, without ever blocking reads
func TestAsyncAppliesOnSettle(t *testing.T) {
	g := graph.New()
	src := graph.NewSource(g, 1)
	script := &deferredScript{}
	a := graph.NewAsyncComputed(g, script.fn, false, false, src)

	v, err := a.Value()
	assert.NoError(t, err)
	assert.Nil(t, v)

	var changes []graph.ValueChange
	a.OnChange(func(ch graph.Change) {
		changes = append(changes, ch.(graph.ValueChange))
	})

	script.issued[0].Resolve("ready")
	v, _ = a.Value()
	assert.Equal(t, "ready", v)
	assert.Equal(t, []graph.ValueChange{{Old: nil, New: "ready"}}, changes)
}

// should drop results that settle after a newer computation was issued
func TestAsyncCancelInterrupted(t *testing.T) {
	g := graph.New()
	src := graph.NewSource(g, 1)

	results := map[int]*graph.Deferred{}
	fn := func(inputs []any) *graph.Deferred {
		d := graph.NewDeferred()
		results[inputs[0].(int)] = d
		return d
	}
	a := graph.NewAsyncComputed(g, fn, true, false, src)

	assert.NoError(t, src.Set(2))
	assert.NoError(t, src.Set(3))

	// the run for 2 is stale by the time it settles
	results[2].Resolve("two")
	v, _ := a.Value()
	assert.Nil(t, v)

	results[3].Resolve("three")
	v, _ = a.Value()
	assert.Equal(t, "three", v)

	// and the oldest run can no longer clobber the applied result
	results[1].Resolve("one")
	v, _ = a.Value()
	assert.Equal(t, "three", v)
}

// should apply out-of-order settlements in issue order when ordering is kept
func TestAsyncMaintainOrdering(t *testing.T) {
	g := graph.New()
	src := graph.NewSource(g, 1)
	script := &deferredScript{}
	a := graph.NewAsyncComputed(g, script.fn, false, true, src)

	var applied []any
	a.OnChange(func(ch graph.Change) {
		applied = append(applied, ch.(graph.ValueChange).New)
	})

	assert.NoError(t, src.Set(2))
	assert.NoError(t, src.Set(3))
	assert.Len(t, script.issued, 3)

	// later runs settle first but are held back
	script.issued[2].Resolve("c")
	script.issued[1].Resolve("b")
	assert.Empty(t, applied)

	script.issued[0].Resolve("a")
	assert.Equal(t, []any{"a", "b", "c"}, applied)
	v, _ := a.Value()
	assert.Equal(t, "c", v)
}

// should treat a rejection as the unavailable value
func TestAsyncRejectionIsUnavailable(t *testing.T) {
	g := graph.New()
	src := graph.NewSource(g, 1)
	script := &deferredScript{}
	a := graph.NewAsyncComputed(g, script.fn, false, false, src)

	script.issued[0].Resolve("ok")
	assert.NoError(t, src.Set(2))
	script.issued[1].Reject(errors.New("backend down"))

	v, err := a.Value()
	assert.NoError(t, err)
	assert.Nil(t, v)
}

// should settle a deferred exactly once
func TestDeferredSingleSettlement(t *testing.T) {
	d := graph.NewDeferred()
	d.Resolve(1)
	d.Resolve(2)
	d.Reject(errors.New("late"))

	a := graph.New()
	src := graph.NewSource(a, 0)
	node := graph.NewAsyncComputed(a, func([]any) *graph.Deferred { return d }, false, false, src)
	v, _ := node.Value()
	assert.Equal(t, 1, v)
}

// should hand back an already-settled deferred from Resolved
func TestDeferredResolved(t *testing.T) {
	g := graph.New()
	src := graph.NewSource(g, 7)
	a := graph.NewAsyncComputed(g, func(inputs []any) *graph.Deferred {
		return graph.Resolved(inputs[0])
	}, false, false, src)

	v, _ := a.Value()
	assert.Equal(t, 7, v)

	assert.NoError(t, src.Set(8))
	v, _ = a.Value()
	assert.Equal(t, 8, v)
}
