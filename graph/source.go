package graph

// Source is a directly settable leaf node; setting it is the only way its
// value changes.
type Source struct {
	cell
}

func NewSource(g *Graph, initial any) *Source {
	return &Source{cell: newCell(g, initial)}
}

func (s *Source) Value() (any, error) {
	if !s.alive {
		return nil, ErrUseAfterDestroy
	}
	return s.value, nil
}

// Set commits v, then emits invalidation followed by a ValueChange. Writing
// the current value is a no-op. The change emission is subject to batching,
// the invalidation never is.
func (s *Source) Set(v any) error {
	if !s.alive {
		return ErrUseAfterDestroy
	}
	if equalValues(s.value, v) {
		return nil
	}
	old := s.value
	s.value = v
	s.invalidate()
	s.emit(ValueChange{Old: old, New: v})
	return nil
}

func (s *Source) Destroy() {
	s.destroy()
}
