package sugar_test

import (
	"testing"

	"github.com/delaneyj/ripple/graph"
	"github.com/delaneyj/ripple/sugar"
	"github.com/stretchr/testify/assert"
)

// should derive arithmetic over numeric nodes and track writes
func TestArithmeticCombinators(t *testing.T) {
	g := graph.New()
	a := graph.NewSource(g, 2)
	b := graph.NewSource(g, 3)

	sum := sugar.Add(g, a, b)
	diff := sugar.Sub(g, a, b)
	prod := sugar.Mul(g, a, b)

	v, _ := sum.Value()
	assert.Equal(t, 5.0, v)
	v, _ = diff.Value()
	assert.Equal(t, -1.0, v)
	v, _ = prod.Value()
	assert.Equal(t, 6.0, v)

	assert.NoError(t, a.Set(10))
	v, _ = sum.Value()
	assert.Equal(t, 13.0, v)
	v, _ = prod.Value()
	assert.Equal(t, 30.0, v)
}

// should mix integer widths and floats through one numeric domain
func TestCombinatorNumericCoercion(t *testing.T) {
	g := graph.New()
	a := graph.NewSource(g, int64(4))
	b := graph.NewSource(g, 0.5)

	v, _ := sugar.Mul(g, a, b).Value()
	assert.Equal(t, 2.0, v)
}

// should be unavailable on division by zero or non-numeric inputs
func TestCombinatorUnavailability(t *testing.T) {
	g := graph.New()
	a := graph.NewSource(g, 1)
	zero := graph.NewSource(g, 0)
	text := graph.NewSource(g, "nope")

	v, _ := sugar.Div(g, a, zero).Value()
	assert.Nil(t, v)
	v, _ = sugar.Add(g, a, text).Value()
	assert.Nil(t, v)

	// and recovers once the input becomes numeric again
	div := sugar.Div(g, a, zero)
	assert.NoError(t, zero.Set(4))
	v, _ = div.Value()
	assert.Equal(t, 0.25, v)
}

// should fold any number of inputs
func TestSum(t *testing.T) {
	g := graph.New()
	a := graph.NewSource(g, 1)
	b := graph.NewSource(g, 2)
	c := graph.NewSource(g, 3)

	total := sugar.Sum(g, a, b, c)
	v, _ := total.Value()
	assert.Equal(t, 6.0, v)

	assert.NoError(t, c.Set(10))
	v, _ = total.Value()
	assert.Equal(t, 13.0, v)
}

// should compare and negate reactively
func TestComparisonsAndNot(t *testing.T) {
	g := graph.New()
	a := graph.NewSource(g, 2)
	b := graph.NewSource(g, 3)

	gt := sugar.GreaterThan(g, a, b)
	lt := sugar.LessThan(g, a, b)
	eq := sugar.Equal(g, a, b)
	inverted := sugar.Not(g, gt)

	v, _ := gt.Value()
	assert.Equal(t, false, v)
	v, _ = lt.Value()
	assert.Equal(t, true, v)
	v, _ = inverted.Value()
	assert.Equal(t, true, v)

	assert.NoError(t, a.Set(3))
	v, _ = eq.Value()
	assert.Equal(t, true, v)

	assert.NoError(t, a.Set(5))
	v, _ = gt.Value()
	assert.Equal(t, true, v)
	v, _ = inverted.Value()
	assert.Equal(t, false, v)

	v, _ = sugar.Neg(g, a).Value()
	assert.Equal(t, -5.0, v)

	// Not over a non-boolean is unavailable
	v, _ = sugar.Not(g, graph.NewSource(g, 1)).Value()
	assert.Nil(t, v)
}
