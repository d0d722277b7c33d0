// Package graph is an incremental-computation runtime: a graph of source and
// derived nodes that caches lazily, propagates changes synchronously, batches
// redundant updates, and diffs ordered collections as splice records.
//
// A Graph and every node hanging off it belong to a single goroutine; nothing
// here locks. The only suspension point is AsyncComputed, whose deferred
// results should be resolved from the owning goroutine.
package graph

import (
	"errors"
	"reflect"
)

var (
	// ErrUseAfterDestroy is returned when a destroyed node is read or written.
	ErrUseAfterDestroy = errors.New("graph: node used after destroy")
	// ErrInvalidIndex is returned for out-of-range indexed access; the
	// collection is left untouched, a splice never partially applies.
	ErrInvalidIndex = errors.New("graph: index out of range")
	// ErrReadOnly is returned when writing a fixed or derived collection.
	ErrReadOnly = errors.New("graph: collection is read-only")
)

// Graph owns id allocation and the batch controller for one reactive system.
type Graph struct {
	lastID     uint64
	batchDepth int
	pending    map[uint64]*pendingEntry
}

func New() *Graph {
	return &Graph{}
}

func (g *Graph) nextID() uint64 {
	g.lastID++
	return g.lastID
}

// equalValues is the single equality used everywhere emission is suppressed.
func equalValues(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

func toIndex(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		return int(n), true
	case float32:
		return int(n), true
	}
	return 0, false
}
