package graph

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// Node is the base reactive unit. Every node carries two broadcast channels:
// invalidation fires before a value is known to have changed (so downstream
// caches can be flushed early), change fires after the new value is committed
// and carries the record describing it.
type Node interface {
	ID() uint64
	Alive() bool
	Value() (any, error)
	OnInvalidate(fn func()) (stop func())
	OnChange(fn func(Change)) (stop func())
	Destroy()
}

type invalidateListener struct {
	fn func()
}

type changeListener struct {
	fn func(Change)
}

// cell is the shared node core embedded by every concrete node type.
type cell struct {
	g            *Graph
	id           uint64
	alive        bool
	value        any
	invalidators mapset.Set[*invalidateListener]
	changers     mapset.Set[*changeListener]
}

func newCell(g *Graph, initial any) cell {
	return cell{
		g:            g,
		id:           g.nextID(),
		alive:        true,
		value:        initial,
		invalidators: mapset.NewSet[*invalidateListener](),
		changers:     mapset.NewSet[*changeListener](),
	}
}

func (c *cell) ID() uint64 { return c.id }

func (c *cell) Alive() bool { return c.alive }

func (c *cell) OnInvalidate(fn func()) (stop func()) {
	l := &invalidateListener{fn: fn}
	c.invalidators.Add(l)
	return func() {
		c.invalidators.Remove(l)
	}
}

func (c *cell) OnChange(fn func(Change)) (stop func()) {
	l := &changeListener{fn: fn}
	c.changers.Add(l)
	return func() {
		c.changers.Remove(l)
	}
}

func (c *cell) invalidate() {
	// Snapshot before dispatch, listeners may unsubscribe mid-loop.
	for _, l := range c.invalidators.ToSlice() {
		l.fn()
	}
}

// emit routes a change through the batch controller; outside a batch it
// dispatches immediately.
func (c *cell) emit(ch Change) {
	if c.g.enqueue(c, ch) {
		return
	}
	c.dispatch(ch)
}

// dispatch fires listeners directly, bypassing batching. Each listener gets
// its own copy of the record.
func (c *cell) dispatch(ch Change) {
	for _, l := range c.changers.ToSlice() {
		l.fn(ch.Clone())
	}
}

// destroy marks the cell dead, emits the terminal invalidation and a final
// nil-valued change, then drops every listener. Destruction is never deferred
// by a batch. A second destroy is a no-op.
func (c *cell) destroy() {
	if !c.alive {
		return
	}
	c.alive = false
	old := c.value
	c.value = nil
	c.invalidate()
	c.dispatch(ValueChange{Old: old, New: nil})
	c.invalidators.Clear()
	c.changers.Clear()
}
