package sugar_test

import (
	"testing"
	"time"

	"github.com/delaneyj/ripple/graph"
	"github.com/delaneyj/ripple/sugar"
	"github.com/stretchr/testify/assert"
)

// should surface only the last of a burst once the input goes quiet
func TestDebounceCoalescesBursts(t *testing.T) {
	g := graph.New()
	src := graph.NewSource(g, 0)
	deb := sugar.Debounce(g, src, 30*time.Millisecond)

	// let the initial value settle first
	time.Sleep(60 * time.Millisecond)
	v, _ := deb.Value()
	assert.Equal(t, 0, v)

	var applied []any
	deb.OnChange(func(ch graph.Change) {
		applied = append(applied, ch.(graph.ValueChange).New)
	})

	assert.NoError(t, src.Set(1))
	assert.NoError(t, src.Set(2))
	assert.NoError(t, src.Set(3))
	time.Sleep(100 * time.Millisecond)

	v, _ = deb.Value()
	assert.Equal(t, 3, v)
	assert.Equal(t, []any{3}, applied)
}

// should deliver every value after the delay, preserving input order
func TestDelayPreservesOrder(t *testing.T) {
	g := graph.New()
	src := graph.NewSource(g, 0)
	del := sugar.Delay(g, src, 20*time.Millisecond)

	time.Sleep(50 * time.Millisecond)

	var applied []any
	del.OnChange(func(ch graph.Change) {
		applied = append(applied, ch.(graph.ValueChange).New)
	})

	assert.NoError(t, src.Set(1))
	assert.NoError(t, src.Set(2))
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, []any{1, 2}, applied)
	v, _ := del.Value()
	assert.Equal(t, 2, v)
}

// should pass the first value straight through and space the rest
func TestThrottleSpacing(t *testing.T) {
	g := graph.New()
	src := graph.NewSource(g, 0)
	thr := sugar.Throttle(g, src, 50*time.Millisecond)

	// the initial value is outside any window, it applies immediately
	v, _ := thr.Value()
	assert.Equal(t, 0, v)

	assert.NoError(t, src.Set(1))
	assert.NoError(t, src.Set(2))

	// still inside the window, the deferred value has not landed yet
	v, _ = thr.Value()
	assert.Equal(t, 0, v)

	time.Sleep(200 * time.Millisecond)
	v, _ = thr.Value()
	assert.Equal(t, 2, v)
}
