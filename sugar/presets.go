package sugar

import (
	"time"

	"github.com/delaneyj/ripple/graph"
)

// Debounce follows src but only surfaces a value once it has been stable for
// d: every new upstream value starts a fresh timer and abandons the previous
// one.
func Debounce(g *graph.Graph, src graph.Node, d time.Duration) *graph.AsyncComputed {
	fn := func(inputs []any) *graph.Deferred {
		v := inputs[0]
		def := graph.NewDeferred()
		time.AfterFunc(d, func() {
			def.Resolve(v)
		})
		return def
	}
	return graph.NewAsyncComputed(g, fn, true, false, src)
}

// Delay surfaces every upstream value after d, in the order the values were
// produced.
func Delay(g *graph.Graph, src graph.Node, d time.Duration) *graph.AsyncComputed {
	fn := func(inputs []any) *graph.Deferred {
		v := inputs[0]
		def := graph.NewDeferred()
		time.AfterFunc(d, func() {
			def.Resolve(v)
		})
		return def
	}
	return graph.NewAsyncComputed(g, fn, false, true, src)
}

// Throttle forwards upstream values but enforces a minimum spacing of d
// between surfaced updates. The first value passes immediately; values
// arriving inside the window are deferred to the window's edge, later values
// superseding earlier ones.
func Throttle(g *graph.Graph, src graph.Node, d time.Duration) *graph.AsyncComputed {
	var lastFire time.Time
	fn := func(inputs []any) *graph.Deferred {
		v := inputs[0]
		now := time.Now()
		wait := d - now.Sub(lastFire)
		if wait <= 0 {
			lastFire = now
			return graph.Resolved(v)
		}
		lastFire = now.Add(wait)
		def := graph.NewDeferred()
		time.AfterFunc(wait, func() {
			def.Resolve(v)
		})
		return def
	}
	return graph.NewAsyncComputed(g, fn, true, false, src)
}
