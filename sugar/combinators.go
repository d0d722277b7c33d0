// Package sugar provides small derived-node constructors over the core
// graph: arithmetic and comparison combinators plus timing presets built on
// async nodes.
package sugar

import (
	"github.com/delaneyj/ripple/graph"
)

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func binary(g *graph.Graph, a, b graph.Node, op func(x, y float64) any) *graph.Computed {
	return graph.NewComputed(g, func(inputs []any) (any, error) {
		x, okX := toFloat(inputs[0])
		y, okY := toFloat(inputs[1])
		if !okX || !okY {
			return nil, nil
		}
		return op(x, y), nil
	}, a, b)
}

func Add(g *graph.Graph, a, b graph.Node) *graph.Computed {
	return binary(g, a, b, func(x, y float64) any { return x + y })
}

func Sub(g *graph.Graph, a, b graph.Node) *graph.Computed {
	return binary(g, a, b, func(x, y float64) any { return x - y })
}

func Mul(g *graph.Graph, a, b graph.Node) *graph.Computed {
	return binary(g, a, b, func(x, y float64) any { return x * y })
}

func Div(g *graph.Graph, a, b graph.Node) *graph.Computed {
	return binary(g, a, b, func(x, y float64) any {
		if y == 0 {
			return nil
		}
		return x / y
	})
}

func GreaterThan(g *graph.Graph, a, b graph.Node) *graph.Computed {
	return binary(g, a, b, func(x, y float64) any { return x > y })
}

func LessThan(g *graph.Graph, a, b graph.Node) *graph.Computed {
	return binary(g, a, b, func(x, y float64) any { return x < y })
}

func Equal(g *graph.Graph, a, b graph.Node) *graph.Computed {
	return binary(g, a, b, func(x, y float64) any { return x == y })
}

// Sum folds any number of numeric inputs; a non-numeric input makes the
// result unavailable.
func Sum(g *graph.Graph, inputs ...graph.Node) *graph.Computed {
	return graph.NewComputed(g, func(vals []any) (any, error) {
		total := 0.0
		for _, v := range vals {
			f, ok := toFloat(v)
			if !ok {
				return nil, nil
			}
			total += f
		}
		return total, nil
	}, inputs...)
}

func Neg(g *graph.Graph, a graph.Node) *graph.Computed {
	return graph.NewComputed(g, func(vals []any) (any, error) {
		x, ok := toFloat(vals[0])
		if !ok {
			return nil, nil
		}
		return -x, nil
	}, a)
}

// Not inverts a boolean input; anything else is unavailable.
func Not(g *graph.Graph, a graph.Node) *graph.Computed {
	return graph.NewComputed(g, func(vals []any) (any, error) {
		b, ok := vals[0].(bool)
		if !ok {
			return nil, nil
		}
		return !b, nil
	}, a)
}
