// Package bind exposes a record-like model whose named properties are backed
// by graph nodes, so UI or config layers can observe individual fields or the
// record as a whole.
package bind

import (
	"errors"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/delaneyj/ripple/graph"
)

var ErrUnknownField = errors.New("bind: unknown field")

// Field seeds one named property of a model.
type Field struct {
	Name  string
	Value any
}

type changeListener struct {
	fn func(graph.Change)
}

type invalidateListener struct {
	fn func()
}

type propSlot struct {
	sw    *graph.Switch
	src   *graph.Source // nil when the property is backed by an attached node
	stops []func()
}

// Model is a set of named properties. Each property is a keyed accessor over
// either an owned source (plain values written through Set) or a node the
// caller attached. Changes bubble out as property changes keyed by field
// name.
type Model struct {
	g            *graph.Graph
	alive        bool
	props        map[string]*propSlot
	order        []string
	changers     mapset.Set[*changeListener]
	invalidators mapset.Set[*invalidateListener]
}

func NewModel(g *graph.Graph, fields ...Field) *Model {
	m := &Model{
		g:            g,
		alive:        true,
		props:        map[string]*propSlot{},
		changers:     mapset.NewThreadUnsafeSet[*changeListener](),
		invalidators: mapset.NewThreadUnsafeSet[*invalidateListener](),
	}
	for _, f := range fields {
		src := graph.NewSource(g, f.Value)
		m.install(f.Name, src, src)
	}
	return m
}

func (m *Model) install(name string, basis graph.Node, owned *graph.Source) *propSlot {
	sw := graph.NewAccessor(m.g, name, basis)
	slot := &propSlot{sw: sw, src: owned}
	slot.stops = append(slot.stops,
		sw.OnInvalidate(m.invalidate),
		sw.OnChange(m.dispatch),
	)
	m.props[name] = slot
	m.order = append(m.order, name)
	return slot
}

// Fields lists the property names in definition order.
func (m *Model) Fields() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

func (m *Model) Get(name string) (any, error) {
	if !m.alive {
		return nil, graph.ErrUseAfterDestroy
	}
	slot, ok := m.props[name]
	if !ok {
		return nil, ErrUnknownField
	}
	return slot.sw.Value()
}

// Set writes a property backed by an owned source. Writing a property whose
// backing node was attached by the caller fails; writing a name the model has
// never seen defines it.
func (m *Model) Set(name string, v any) error {
	if !m.alive {
		return graph.ErrUseAfterDestroy
	}
	slot, ok := m.props[name]
	if !ok {
		src := graph.NewSource(m.g, v)
		m.install(name, src, src)
		m.invalidate()
		m.dispatch(graph.PropertyChange{
			Path: []any{name},
			Base: graph.ValueChange{New: v},
		})
		return nil
	}
	if slot.src == nil {
		return graph.ErrReadOnly
	}
	slot.src.Set(v)
	return nil
}

// Attach backs the named property with n instead of an owned source.
// Observers of the property survive the swap; a silent swap happens when n
// currently holds the same value.
func (m *Model) Attach(name string, n graph.Node) error {
	if !m.alive {
		return graph.ErrUseAfterDestroy
	}
	slot, ok := m.props[name]
	if !ok {
		m.install(name, n, nil)
		if v, err := n.Value(); err == nil && v != nil {
			m.invalidate()
			m.dispatch(graph.PropertyChange{
				Path: []any{name},
				Base: graph.ValueChange{New: v},
			})
		}
		return nil
	}
	old := slot.src
	slot.src = nil
	slot.sw.Rebase(n)
	if old != nil {
		old.Destroy()
	}
	return nil
}

// NodeOf exposes the accessor node for a property, for wiring into computed
// inputs.
func (m *Model) NodeOf(name string) (graph.Node, error) {
	if !m.alive {
		return nil, graph.ErrUseAfterDestroy
	}
	slot, ok := m.props[name]
	if !ok {
		return nil, ErrUnknownField
	}
	return slot.sw, nil
}

// Value snapshots the model as a plain map.
func (m *Model) Value() (any, error) {
	if !m.alive {
		return nil, graph.ErrUseAfterDestroy
	}
	out := make(map[string]any, len(m.props))
	for name, slot := range m.props {
		if v, err := slot.sw.Value(); err == nil {
			out[name] = v
		}
	}
	return out, nil
}

func (m *Model) OnChange(fn func(graph.Change)) (stop func()) {
	l := &changeListener{fn: fn}
	m.changers.Add(l)
	return func() {
		m.changers.Remove(l)
	}
}

func (m *Model) OnInvalidate(fn func()) (stop func()) {
	l := &invalidateListener{fn: fn}
	m.invalidators.Add(l)
	return func() {
		m.invalidators.Remove(l)
	}
}

func (m *Model) invalidate() {
	for _, l := range m.invalidators.ToSlice() {
		l.fn()
	}
}

func (m *Model) dispatch(ch graph.Change) {
	for _, l := range m.changers.ToSlice() {
		l.fn(ch.Clone())
	}
}

func (m *Model) Destroy() {
	if !m.alive {
		return
	}
	snapshot, _ := m.Value()
	m.alive = false
	for _, slot := range m.props {
		for _, stop := range slot.stops {
			stop()
		}
		slot.sw.Destroy()
		if slot.src != nil {
			slot.src.Destroy()
		}
	}
	m.invalidate()
	m.dispatch(graph.ValueChange{Old: snapshot})
	m.props = nil
	m.order = nil
	m.changers.Clear()
	m.invalidators.Clear()
}
