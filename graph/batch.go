package graph

import "slices"

// The batch controller defers and deduplicates change emission. While a batch
// is open every emit lands in a per-node pending table instead of firing; the
// close runs a fixpoint loop so that each distinct node fires at most once per
// batch and round-trips back to the starting value are never observed.
// Invalidation is never deferred, only change emission is, so caches still
// flush eagerly and reads mid-batch see committed values.

type pendingEntry struct {
	target      *cell
	change      Change
	original    any
	hasOriginal bool
}

// Batching reports whether a batch scope is currently open.
func (g *Graph) Batching() bool { return g.batchDepth > 0 }

func (g *Graph) StartBatch() {
	if g.batchDepth == 0 {
		g.pending = map[uint64]*pendingEntry{}
	}
	g.batchDepth++
}

func (g *Graph) EndBatch() {
	if g.batchDepth == 0 {
		return
	}
	if g.batchDepth == 1 {
		// Close while the scope still counts as open: dispatching a change
		// here may make dependents enqueue further pending changes, and those
		// have to land back in the table for the next fixpoint pass.
		g.closeBatch()
	}
	g.batchDepth--
	if g.batchDepth == 0 {
		g.pending = nil
	}
}

// Batch runs fn with change emission deferred. Nested calls flatten into the
// outermost batch; only its close dispatches.
func (g *Graph) Batch(fn func()) {
	g.StartBatch()
	defer g.EndBatch()
	fn()
}

// enqueue captures a change for the open batch, reporting false when no batch
// is open. The latest record wins; the original value is pinned from the
// first ValueChange and never overwritten while the batch stays open.
func (g *Graph) enqueue(c *cell, ch Change) bool {
	if g.batchDepth == 0 {
		return false
	}
	e, ok := g.pending[c.id]
	if !ok {
		e = &pendingEntry{target: c}
		g.pending[c.id] = e
	}
	if vc, isValue := ch.(ValueChange); isValue && !e.hasOriginal {
		e.original = vc.Old
		e.hasOriginal = true
	}
	e.change = ch
	return true
}

func (g *Graph) closeBatch() {
	for len(g.pending) > 0 {
		ids := make([]uint64, 0, len(g.pending))
		for id := range g.pending {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		for _, id := range ids {
			e, ok := g.pending[id]
			if !ok {
				continue
			}
			delete(g.pending, id)
			if vc, isValue := e.change.(ValueChange); isValue && e.hasOriginal {
				if equalValues(vc.New, e.original) {
					// Round-tripped back to the starting value, drop it.
					continue
				}
				vc.Old = e.original
				e.change = vc
			}
			e.target.dispatch(e.change)
		}
	}
}
