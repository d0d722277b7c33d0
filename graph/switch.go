package graph

// IndexedContainer is the capability a Switch delegates when its basis is an
// ordered collection. Only these methods are forwarded, there is no dynamic
// proxying.
type IndexedContainer interface {
	Len() int
	Get(i int) (any, error)
	NodeAt(i int) (*Switch, error)
}

// Switch wraps a current basis node and proxies reads to it. The basis can be
// hot-swapped without breaking external subscriptions: listeners attach to
// the switch, never to the basis.
//
// Two specializations exist: the keyed accessor (NewAccessor) bubbles every
// basis change as a PropertyChange under its key, and the index demultiplexer
// (NewIndexSwitch) re-picks its basis from a collection whenever a selector
// node changes.
type Switch struct {
	cell
	basis   Node
	key     any
	hasKey  bool
	stopInv func()
	stopChg func()
	// demux bookkeeping
	extraStops []func()
}

func NewSwitch(g *Graph, basis Node) *Switch {
	s := &Switch{cell: newCell(g, nil), basis: basis}
	if v, err := basis.Value(); err == nil {
		s.value = v
	}
	s.attach()
	return s
}

// NewAccessor builds a Switch attached to a specific key in a containing
// node; changes of the basis bubble out as PropertyChange([key], base).
func NewAccessor(g *Graph, key any, basis Node) *Switch {
	s := NewSwitch(g, basis)
	s.key = key
	s.hasKey = true
	return s
}

// NewIndexSwitch builds a live pointer that follows a moving index: the basis
// is collection[selector] and is re-chosen every time the selector changes.
// A selector value outside the collection leaves the previous basis in place.
func NewIndexSwitch(g *Graph, col *Collection, selector Node) (*Switch, error) {
	sv, err := selector.Value()
	if err != nil {
		return nil, err
	}
	idx, ok := toIndex(sv)
	if !ok {
		return nil, ErrInvalidIndex
	}
	target, err := col.NodeAt(idx)
	if err != nil {
		return nil, err
	}
	s := NewSwitch(g, target)
	stop := selector.OnChange(func(Change) {
		v, err := selector.Value()
		if err != nil {
			return
		}
		i, ok := toIndex(v)
		if !ok {
			return
		}
		next, err := col.NodeAt(i)
		if err != nil {
			return
		}
		s.Rebase(next)
	})
	s.extraStops = append(s.extraStops, stop)
	return s, nil
}

// Key reports the accessor key, if this switch is a keyed accessor.
func (s *Switch) Key() (any, bool) { return s.key, s.hasKey }

func (s *Switch) setKey(key any) { s.key = key }

func (s *Switch) attach() {
	s.stopInv = s.basis.OnInvalidate(s.invalidate)
	s.stopChg = s.basis.OnChange(s.forward)
}

func (s *Switch) detach() {
	if s.stopInv != nil {
		s.stopInv()
		s.stopInv = nil
	}
	if s.stopChg != nil {
		s.stopChg()
		s.stopChg = nil
	}
}

func (s *Switch) forward(ch Change) {
	if !s.alive {
		return
	}
	if v, err := s.basis.Value(); err == nil {
		s.value = v
	} else {
		s.value = nil
	}
	s.emit(s.wrap(ch))
}

func (s *Switch) wrap(ch Change) Change {
	if !s.hasKey {
		return ch
	}
	return bubbled(s.key, ch)
}

// Rebase swaps the basis. Swaps that don't change the externally observable
// value are silent; otherwise a single ValueChange covering the swap fires.
func (s *Switch) Rebase(n Node) error {
	if !s.alive {
		return ErrUseAfterDestroy
	}
	old := s.value
	s.detach()
	s.basis = n
	s.attach()
	next, err := n.Value()
	if err != nil {
		next = nil
	}
	s.value = next
	if equalValues(old, next) {
		return nil
	}
	s.invalidate()
	s.emit(s.wrap(ValueChange{Old: old, New: next}))
	return nil
}

// Basis returns the node currently delegated to.
func (s *Switch) Basis() Node { return s.basis }

func (s *Switch) Value() (any, error) {
	if !s.alive {
		return nil, ErrUseAfterDestroy
	}
	v, err := s.basis.Value()
	if err != nil {
		return nil, err
	}
	s.value = v
	return v, nil
}

// Len delegates to the basis when it is an IndexedContainer.
func (s *Switch) Len() int {
	if c, ok := s.basis.(IndexedContainer); ok {
		return c.Len()
	}
	return 0
}

func (s *Switch) Get(i int) (any, error) {
	if c, ok := s.basis.(IndexedContainer); ok {
		return c.Get(i)
	}
	return nil, ErrInvalidIndex
}

func (s *Switch) NodeAt(i int) (*Switch, error) {
	if c, ok := s.basis.(IndexedContainer); ok {
		return c.NodeAt(i)
	}
	return nil, ErrInvalidIndex
}

func (s *Switch) Destroy() {
	s.detach()
	for _, stop := range s.extraStops {
		stop()
	}
	s.extraStops = nil
	s.basis = nil
	s.destroy()
}
