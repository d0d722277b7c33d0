package graph

import "sync"

// Deferred is a single-settlement result. Callbacks run synchronously on the
// resolver's goroutine; resolve from the graph's goroutine (or while it is
// parked) to keep the single-threaded model intact. There is no timeout: a
// deferred that never settles permanently withholds that node's next update.
type Deferred struct {
	mu      sync.Mutex
	settled bool
	value   any
	err     error
	cbs     []func(any, error)
}

func NewDeferred() *Deferred { return &Deferred{} }

// Resolved returns an already-settled deferred, handy for compute functions
// that sometimes have the answer immediately.
func Resolved(v any) *Deferred {
	d := NewDeferred()
	d.Resolve(v)
	return d
}

func (d *Deferred) Resolve(v any) { d.settle(v, nil) }

func (d *Deferred) Reject(err error) { d.settle(nil, err) }

func (d *Deferred) settle(v any, err error) {
	d.mu.Lock()
	if d.settled {
		d.mu.Unlock()
		return
	}
	d.settled = true
	d.value = v
	d.err = err
	cbs := d.cbs
	d.cbs = nil
	d.mu.Unlock()
	for _, cb := range cbs {
		cb(v, err)
	}
}

func (d *Deferred) then(cb func(any, error)) {
	d.mu.Lock()
	if d.settled {
		v, err := d.value, d.err
		d.mu.Unlock()
		cb(v, err)
		return
	}
	d.cbs = append(d.cbs, cb)
	d.mu.Unlock()
}

// AsyncComputeFunc starts a computation over the current input values and
// returns its deferred result.
type AsyncComputeFunc func(inputs []any) *Deferred

type asyncRun struct {
	d       *Deferred
	settled bool
	value   any
}

// AsyncComputed is the Computed variant whose compute step yields
// asynchronously: the cached value only moves once a deferred result settles.
//
// cancelInterrupted discards in-flight results that settle after a newer
// computation was issued (last-started-wins). maintainOrdering, meaningful
// only when cancellation is off, applies results in the order their inputs
// changed even when they settle out of order, by holding each result until
// every earlier one has been applied.
type AsyncComputed struct {
	cell
	inputs            []Node
	fn                AsyncComputeFunc
	cancelInterrupted bool
	maintainOrdering  bool
	latest            *asyncRun
	queue             []*asyncRun
	stops             []func()
}

func NewAsyncComputed(g *Graph, fn AsyncComputeFunc, cancelInterrupted, maintainOrdering bool, inputs ...Node) *AsyncComputed {
	a := &AsyncComputed{
		cell:              newCell(g, nil),
		inputs:            inputs,
		fn:                fn,
		cancelInterrupted: cancelInterrupted,
		maintainOrdering:  maintainOrdering,
	}
	for _, in := range inputs {
		a.stops = append(a.stops, in.OnChange(func(Change) { a.issue() }))
	}
	a.issue()
	return a
}

// Value returns the last applied result; it never blocks on outstanding work.
func (a *AsyncComputed) Value() (any, error) {
	if !a.alive {
		return nil, ErrUseAfterDestroy
	}
	return a.value, nil
}

func (a *AsyncComputed) issue() {
	if !a.alive {
		return
	}
	vals := make([]any, len(a.inputs))
	for i, in := range a.inputs {
		if v, err := in.Value(); err == nil {
			vals[i] = v
		}
	}
	run := &asyncRun{d: a.fn(vals)}
	a.latest = run
	if a.maintainOrdering && !a.cancelInterrupted {
		a.queue = append(a.queue, run)
		run.d.then(func(v any, err error) {
			if err != nil {
				v = nil
			}
			run.value = v
			run.settled = true
			a.drain()
		})
		return
	}
	run.d.then(func(v any, err error) {
		if err != nil {
			v = nil
		}
		if a.cancelInterrupted && a.latest != run {
			// Stale by identity, a newer computation superseded this one.
			return
		}
		a.apply(v)
	})
}

func (a *AsyncComputed) drain() {
	for len(a.queue) > 0 && a.queue[0].settled {
		run := a.queue[0]
		a.queue = a.queue[1:]
		a.apply(run.value)
	}
}

func (a *AsyncComputed) apply(v any) {
	if !a.alive {
		return
	}
	if equalValues(a.value, v) {
		return
	}
	old := a.value
	a.value = v
	a.invalidate()
	a.emit(ValueChange{Old: old, New: v})
}

func (a *AsyncComputed) Destroy() {
	for _, stop := range a.stops {
		stop()
	}
	a.stops = nil
	a.inputs = nil
	a.fn = nil
	a.latest = nil
	a.queue = nil
	a.destroy()
}
