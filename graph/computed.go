package graph

// ComputeFunc derives a value from the current input values, given in the
// order the inputs were declared. A non-nil error makes the node's value the
// nil "unavailable" sentinel instead of failing the read; a transiently
// inconsistent upstream must not take the rest of the graph down.
type ComputeFunc func(inputs []any) (any, error)

// Computed is a lazily recomputed, cached node over an ordered list of
// inputs. It listens to each input twice: the invalidation channel only
// flushes the cache, the change channel recomputes eagerly and compares. The
// split is what prevents diamond glitches: an invalidated-but-not-yet-
// recomputed node can never serve a stale value, any read forces recompute.
type Computed struct {
	cell
	inputs     []Node
	fn         ComputeFunc
	cacheValid bool
	stops      []func()
}

func NewComputed(g *Graph, fn ComputeFunc, inputs ...Node) *Computed {
	c := &Computed{
		cell:   newCell(g, nil),
		inputs: inputs,
		fn:     fn,
	}
	for _, in := range inputs {
		c.stops = append(c.stops,
			in.OnInvalidate(c.flush),
			in.OnChange(func(Change) { c.refresh() }),
		)
	}
	c.value = c.compute()
	c.cacheValid = true
	return c
}

// Value returns the cached value, recomputing first if an input invalidated
// it. Reading a clean cache has no side effects.
func (c *Computed) Value() (any, error) {
	if !c.alive {
		return nil, ErrUseAfterDestroy
	}
	if !c.cacheValid {
		c.refresh()
	}
	return c.value, nil
}

// flush drops the cache and forwards the invalidation downstream, once per
// dirtying.
func (c *Computed) flush() {
	if !c.alive || !c.cacheValid {
		return
	}
	c.cacheValid = false
	c.invalidate()
}

func (c *Computed) compute() any {
	vals := make([]any, len(c.inputs))
	for i, in := range c.inputs {
		v, err := in.Value()
		if err != nil {
			// An input vanished underneath us, the result is unavailable.
			return nil
		}
		vals[i] = v
	}
	v, err := c.fn(vals)
	if err != nil {
		return nil
	}
	return v
}

// refresh recomputes and compares. An unchanged result revalidates the cache
// silently, so redundant cascades stop here.
func (c *Computed) refresh() {
	if !c.alive {
		return
	}
	wasValid := c.cacheValid
	next := c.compute()
	c.cacheValid = true
	if equalValues(c.value, next) {
		return
	}
	old := c.value
	c.value = next
	if wasValid {
		c.invalidate()
	}
	c.emit(ValueChange{Old: old, New: next})
}

// Destroy cancels all input subscriptions and nulls references so the inputs
// can be reclaimed.
func (c *Computed) Destroy() {
	for _, stop := range c.stops {
		stop()
	}
	c.stops = nil
	c.inputs = nil
	c.fn = nil
	c.destroy()
}
