package graph

import (
	"slices"
	"sort"
)

// slot is one cached position node: a keyed accessor whose basis is either an
// owned Source holding the raw value, or a caller-installed node (src == nil).
type slot struct {
	sw      *Switch
	src     *Source
	stopChg func()
	stopInv func()
}

// Collection is an ordered-collection node: raw storage plus a sparse slot
// cache created lazily on first access to an index. The pinned flag, fixed at
// construction, picks the index-identity policy for splices:
//
//   - pinned: a slot's identity follows its value across structural shifts;
//     deleting the value destroys the slot.
//   - unpinned: a slot's identity is the position itself; splices rebind the
//     content underneath it. Cached slots outside a mutation's rebind range go
//     stale until a later mutation covers them or RefreshSlot is called.
//
// Slot changes bubble out of the collection as PropertyChange records whose
// path grows one index per nesting level.
type Collection struct {
	cell
	items    []any
	slots    map[int]*slot
	pinned   bool
	readOnly bool
	length   *Source
}

func NewCollection(g *Graph, items []any, pinned bool) *Collection {
	c := &Collection{
		cell:   newCell(g, nil),
		items:  slices.Clone(items),
		slots:  map[int]*slot{},
		pinned: pinned,
	}
	return c
}

// NewFixedCollection builds a read-only collection: every mutation returns
// ErrReadOnly.
func NewFixedCollection(g *Graph, items []any) *Collection {
	c := NewCollection(g, items, false)
	c.readOnly = true
	return c
}

func (c *Collection) Pinned() bool { return c.pinned }

func (c *Collection) Len() int {
	if !c.alive {
		return 0
	}
	return len(c.items)
}

// Get reads through the cached slot when one exists, so a computed occupant
// (or an unpinned slot gone stale) is the authority for its index.
func (c *Collection) Get(i int) (any, error) {
	if !c.alive {
		return nil, ErrUseAfterDestroy
	}
	if i < 0 || i >= len(c.items) {
		return nil, ErrInvalidIndex
	}
	if s, ok := c.slots[i]; ok {
		v, err := s.sw.Value()
		if err != nil {
			return nil, nil
		}
		return v, nil
	}
	return c.items[i], nil
}

// Set writes a raw value at i. When a caller-installed node occupies the
// slot, it is replaced by the raw value.
func (c *Collection) Set(i int, v any) error {
	if !c.alive {
		return ErrUseAfterDestroy
	}
	if c.readOnly {
		return ErrReadOnly
	}
	if i < 0 || i >= len(c.items) {
		return ErrInvalidIndex
	}
	old := c.items[i]
	c.items[i] = v
	if s, ok := c.slots[i]; ok {
		c.refreshSlotRaw(s, v)
		return nil
	}
	if equalValues(old, v) {
		return nil
	}
	c.invalidate()
	c.emit(PropertyChange{Path: []any{i}, Base: ValueChange{Old: old, New: v}})
	return nil
}

// SetNode installs n as the occupant of index i; the slot keeps its identity
// and external subscriptions while the basis swaps underneath.
func (c *Collection) SetNode(i int, n Node) error {
	if !c.alive {
		return ErrUseAfterDestroy
	}
	if c.readOnly {
		return ErrReadOnly
	}
	if i < 0 || i >= len(c.items) {
		return ErrInvalidIndex
	}
	s := c.ensureSlot(i)
	owned := s.src
	s.src = nil
	if err := s.sw.Rebase(n); err != nil {
		return err
	}
	if owned != nil {
		owned.Destroy()
	}
	if v, err := n.Value(); err == nil {
		c.items[i] = v
	} else {
		c.items[i] = nil
	}
	return nil
}

// NodeAt returns the slot node for index i, creating it on first access.
func (c *Collection) NodeAt(i int) (*Switch, error) {
	if !c.alive {
		return nil, ErrUseAfterDestroy
	}
	if i < 0 || i >= len(c.items) {
		return nil, ErrInvalidIndex
	}
	return c.ensureSlot(i).sw, nil
}

func (c *Collection) Append(v any) error {
	return c.InsertRange(len(c.items), []any{v})
}

// AppendNode appends a caller-installed node occupant, its slot is created
// immediately around the given basis.
func (c *Collection) AppendNode(n Node) error {
	if !c.alive {
		return ErrUseAfterDestroy
	}
	if c.readOnly {
		return ErrReadOnly
	}
	idx := len(c.items)
	var v any
	if nv, err := n.Value(); err == nil {
		v = nv
	}
	c.items = append(c.items, v)
	c.slots[idx] = c.newSlot(idx, n, nil)
	c.invalidate()
	c.emit(SpliceChange{Start: idx, Inserted: 1})
	c.syncLength()
	return nil
}

// InsertRange inserts vals at index start and emits a single SpliceChange.
func (c *Collection) InsertRange(start int, vals []any) error {
	if !c.alive {
		return ErrUseAfterDestroy
	}
	if c.readOnly {
		return ErrReadOnly
	}
	if start < 0 || start > len(c.items) {
		return ErrInvalidIndex
	}
	n := len(vals)
	if n == 0 {
		return nil
	}
	c.items = slices.Insert(c.items, start, vals...)
	if c.pinned {
		// Shift cached slots upward, highest first to dodge key collisions;
		// identity follows the value to its new position, silently.
		keys := c.slotKeysAtLeast(start)
		sort.Sort(sort.Reverse(sort.IntSlice(keys)))
		for _, k := range keys {
			s := c.slots[k]
			delete(c.slots, k)
			c.slots[k+n] = s
			s.sw.setKey(k + n)
		}
	} else {
		// Position identity: only slots inside the inserted window are
		// refreshed in place, everything beyond stays as it was.
		for k := start; k < start+n; k++ {
			if s, ok := c.slots[k]; ok {
				c.refreshSlotRaw(s, c.items[k])
			}
		}
	}
	c.invalidate()
	c.emit(SpliceChange{Start: start, Inserted: n})
	c.syncLength()
	return nil
}

// RemoveRange deletes indices [start, end) and emits a single SpliceChange.
// Bounds are checked up front, a splice never partially applies.
func (c *Collection) RemoveRange(start, end int) error {
	if !c.alive {
		return ErrUseAfterDestroy
	}
	if c.readOnly {
		return ErrReadOnly
	}
	if start < 0 || end < start || end > len(c.items) {
		return ErrInvalidIndex
	}
	del := end - start
	if del == 0 {
		return nil
	}
	if c.pinned {
		for k := start; k < end; k++ {
			if s, ok := c.slots[k]; ok {
				c.destroySlot(s)
				delete(c.slots, k)
			}
		}
		c.items = slices.Delete(c.items, start, end)
		// Survivors shift down, lowest first.
		keys := c.slotKeysAtLeast(end)
		sort.Ints(keys)
		for _, k := range keys {
			s := c.slots[k]
			delete(c.slots, k)
			c.slots[k-del] = s
			s.sw.setKey(k - del)
		}
	} else {
		c.items = slices.Delete(c.items, start, end)
		newLen := len(c.items)
		for k := start; k < newLen; k++ {
			if s, ok := c.slots[k]; ok {
				c.refreshSlotRaw(s, c.items[k])
			}
		}
		for k, s := range c.slots {
			if k >= newLen {
				c.destroySlot(s)
				delete(c.slots, k)
			}
		}
	}
	c.invalidate()
	c.emit(SpliceChange{Start: start, Deleted: del})
	c.syncLength()
	return nil
}

// RefreshSlot resynchronizes an unpinned slot that has gone stale relative to
// the raw storage. Best effort, see the policy note on Collection.
func (c *Collection) RefreshSlot(i int) error {
	if !c.alive {
		return ErrUseAfterDestroy
	}
	if i < 0 || i >= len(c.items) {
		return ErrInvalidIndex
	}
	if s, ok := c.slots[i]; ok {
		c.refreshSlotRaw(s, c.items[i])
	}
	return nil
}

// LengthNode returns a node tracking the collection length; every structural
// mutation updates it.
func (c *Collection) LengthNode() Node {
	if c.length == nil {
		c.length = NewSource(c.g, len(c.items))
	}
	return c.length
}

// Value snapshots the current read-through contents.
func (c *Collection) Value() (any, error) {
	if !c.alive {
		return nil, ErrUseAfterDestroy
	}
	out := make([]any, len(c.items))
	for i := range c.items {
		v, _ := c.Get(i)
		out[i] = v
	}
	return out, nil
}

func (c *Collection) Destroy() {
	if !c.alive {
		return
	}
	for k, s := range c.slots {
		c.destroySlot(s)
		delete(c.slots, k)
	}
	if c.length != nil {
		c.length.Destroy()
		c.length = nil
	}
	c.destroy()
}

func (c *Collection) slotKeysAtLeast(min int) []int {
	keys := make([]int, 0, len(c.slots))
	for k := range c.slots {
		if k >= min {
			keys = append(keys, k)
		}
	}
	return keys
}

func (c *Collection) ensureSlot(i int) *slot {
	if s, ok := c.slots[i]; ok {
		return s
	}
	src := NewSource(c.g, c.items[i])
	s := c.newSlot(i, src, src)
	c.slots[i] = s
	return s
}

func (c *Collection) newSlot(i int, basis Node, owned *Source) *slot {
	sw := NewAccessor(c.g, i, basis)
	s := &slot{sw: sw, src: owned}
	s.stopChg = sw.OnChange(c.bubble)
	s.stopInv = sw.OnInvalidate(c.invalidate)
	return s
}

// refreshSlotRaw rebinds a slot's content to a raw value, keeping the slot's
// identity. A caller-installed occupant is displaced by a fresh owned source.
func (c *Collection) refreshSlotRaw(s *slot, v any) {
	if s.src != nil {
		s.src.Set(v)
		return
	}
	src := NewSource(c.g, v)
	s.src = src
	s.sw.Rebase(src)
}

func (c *Collection) destroySlot(s *slot) {
	s.stopChg()
	s.stopInv()
	s.sw.Destroy()
	if s.src != nil {
		s.src.Destroy()
		s.src = nil
	}
}

// bubble re-emits a slot's property change on the collection's own change
// channel and keeps raw storage in sync with the slot's current value. Slot
// terminal events (plain ValueChange from a destroy) are not re-emitted; the
// structural SpliceChange covers them.
func (c *Collection) bubble(ch Change) {
	if !c.alive {
		return
	}
	pc, ok := ch.(PropertyChange)
	if !ok || len(pc.Path) == 0 {
		return
	}
	if i, ok := toIndex(pc.Path[0]); ok && i >= 0 && i < len(c.items) {
		if s, ok := c.slots[i]; ok {
			if v, err := s.sw.Value(); err == nil {
				c.items[i] = v
			} else {
				c.items[i] = nil
			}
		}
	}
	c.emit(pc)
}

func (c *Collection) syncLength() {
	if c.length != nil {
		c.length.Set(len(c.items))
	}
}
