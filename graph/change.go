package graph

// A Change describes what happened to a node's value. Records are plain data
// with value semantics; Clone returns a copy that shares no mutable state with
// the original, so a record handed to one listener can never be corrupted by
// another.
type Change interface {
	isChange()
	Clone() Change
}

// ValueChange replaces the whole value.
type ValueChange struct {
	Old any
	New any
}

func (c ValueChange) isChange() {}

func (c ValueChange) Clone() Change { return c }

// SpliceChange is a structural insert/delete on an ordered collection.
// A single record may describe both an insertion and a deletion.
type SpliceChange struct {
	Start    int
	Inserted int
	Deleted  int
}

func (c SpliceChange) isChange() {}

func (c SpliceChange) Clone() Change { return c }

func (c SpliceChange) IsInsertion() bool { return c.Inserted > 0 }

func (c SpliceChange) IsDeletion() bool { return c.Deleted > 0 }

// PropertyChange is a nested mutation bubbling out of a containing node. Path
// grows one key per container the event passes through, outermost key first.
type PropertyChange struct {
	Path []any
	Base Change
}

func (c PropertyChange) isChange() {}

func (c PropertyChange) Clone() Change {
	path := make([]any, len(c.Path))
	copy(path, c.Path)
	out := PropertyChange{Path: path}
	if c.Base != nil {
		out.Base = c.Base.Clone()
	}
	return out
}

// bubbled rewraps ch as seen from one container level up: an existing
// PropertyChange grows its path, anything else becomes the base of a fresh
// single-key record.
func bubbled(key any, ch Change) PropertyChange {
	if pc, ok := ch.(PropertyChange); ok {
		path := make([]any, 0, len(pc.Path)+1)
		path = append(path, key)
		path = append(path, pc.Path...)
		return PropertyChange{Path: path, Base: pc.Base}
	}
	return PropertyChange{Path: []any{key}, Base: ch}
}
