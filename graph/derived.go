package graph

import (
	"slices"
	"sort"
)

// TransformFunc maps one upstream item to one derived item; it must be pure.
type TransformFunc func(v any) any

// TransformView re-expresses a source collection's change stream under a
// per-item function: whole-value replacements are remapped wholesale,
// property changes remap the touched element, splices drop the deleted range
// as-is and transform the inserted one. The view is read-only.
type TransformView struct {
	cell
	src     *Collection
	fn      TransformFunc
	derived []any
	stops   []func()
}

func NewTransformView(g *Graph, src *Collection, fn TransformFunc) *TransformView {
	v := &TransformView{cell: newCell(g, nil), src: src, fn: fn}
	v.derived = make([]any, src.Len())
	for i := range v.derived {
		raw, _ := src.Get(i)
		v.derived[i] = fn(raw)
	}
	v.stops = append(v.stops,
		src.OnInvalidate(v.invalidate),
		src.OnChange(v.apply),
	)
	return v
}

func (v *TransformView) Len() int {
	if !v.alive {
		return 0
	}
	return len(v.derived)
}

func (v *TransformView) Get(i int) (any, error) {
	if !v.alive {
		return nil, ErrUseAfterDestroy
	}
	if i < 0 || i >= len(v.derived) {
		return nil, ErrInvalidIndex
	}
	return v.derived[i], nil
}

func (v *TransformView) Set(int, any) error {
	if !v.alive {
		return ErrUseAfterDestroy
	}
	return ErrReadOnly
}

func (v *TransformView) Value() (any, error) {
	if !v.alive {
		return nil, ErrUseAfterDestroy
	}
	return slices.Clone(v.derived), nil
}

// SetTransform swaps the per-item function and recomputes every derived
// element.
func (v *TransformView) SetTransform(fn TransformFunc) error {
	if !v.alive {
		return ErrUseAfterDestroy
	}
	v.fn = fn
	v.recomputeAll()
	return nil
}

func (v *TransformView) apply(ch Change) {
	if !v.alive {
		return
	}
	switch ch := ch.(type) {
	case SpliceChange:
		if ch.Deleted > 0 {
			v.derived = slices.Delete(v.derived, ch.Start, ch.Start+ch.Deleted)
		}
		if ch.Inserted > 0 {
			ins := make([]any, ch.Inserted)
			for k := 0; k < ch.Inserted; k++ {
				raw, _ := v.src.Get(ch.Start + k)
				ins[k] = v.fn(raw)
			}
			v.derived = slices.Insert(v.derived, ch.Start, ins...)
		}
		v.invalidate()
		v.emit(ch)
	case PropertyChange:
		if len(ch.Path) == 0 {
			return
		}
		i, ok := toIndex(ch.Path[0])
		if !ok || i < 0 || i >= len(v.derived) {
			return
		}
		raw, err := v.src.Get(i)
		if err != nil {
			raw = nil
		}
		next := v.fn(raw)
		if equalValues(v.derived[i], next) {
			return
		}
		old := v.derived[i]
		v.derived[i] = next
		v.invalidate()
		v.emit(PropertyChange{Path: []any{i}, Base: ValueChange{Old: old, New: next}})
	case ValueChange:
		v.recomputeAll()
	}
}

func (v *TransformView) recomputeAll() {
	old := slices.Clone(v.derived)
	n := v.src.Len()
	next := make([]any, n)
	for i := 0; i < n; i++ {
		raw, _ := v.src.Get(i)
		next[i] = v.fn(raw)
	}
	v.derived = next
	if equalValues(old, next) {
		return
	}
	v.invalidate()
	v.emit(ValueChange{Old: old, New: slices.Clone(next)})
}

func (v *TransformView) Destroy() {
	for _, stop := range v.stops {
		stop()
	}
	v.stops = nil
	v.src = nil
	v.fn = nil
	v.derived = nil
	v.destroy()
}

// BoundTransformFunc additionally sees the current values of auxiliary scalar
// nodes the view is bound to.
type BoundTransformFunc func(item any, aux []any) any

// BoundTransformView is a TransformView whose function closes over auxiliary
// nodes; any aux change recomputes every derived element.
type BoundTransformView struct {
	*TransformView
	aux      []Node
	auxStops []func()
}

func NewBoundTransformView(g *Graph, src *Collection, fn BoundTransformFunc, aux ...Node) *BoundTransformView {
	b := &BoundTransformView{aux: aux}
	inner := func(item any) any {
		vals := make([]any, len(aux))
		for i, a := range aux {
			if v, err := a.Value(); err == nil {
				vals[i] = v
			}
		}
		return fn(item, vals)
	}
	b.TransformView = NewTransformView(g, src, inner)
	for _, a := range aux {
		b.auxStops = append(b.auxStops, a.OnChange(func(Change) {
			b.recomputeAll()
		}))
	}
	return b
}

func (b *BoundTransformView) Destroy() {
	for _, stop := range b.auxStops {
		stop()
	}
	b.auxStops = nil
	b.aux = nil
	b.TransformView.Destroy()
}

// reindexPolicy supplies the variant-specific parts of a reindex view: the
// initial mapping, placement of inserted originals, and the reaction to a
// property change. Deletions are handled generically by the template.
type reindexPolicy interface {
	seed(v *ReindexView)
	insert(v *ReindexView, start, count int)
	property(v *ReindexView, orig int, pc PropertyChange)
}

// ReindexView re-orders or filters a source collection through a
// bidirectional index map (original index <-> derived index). The two maps
// are always updated together; a whole-value upstream replacement reruns the
// policy from scratch instead of adjusting incrementally.
type ReindexView struct {
	cell
	src    *Collection
	policy reindexPolicy
	o2d    map[int]int
	d2o    map[int]int
	stops  []func()
}

// NewFilterView keeps only the items satisfying pred, preserving source
// order. Membership is re-evaluated on every property change.
func NewFilterView(g *Graph, src *Collection, pred func(any) bool) *ReindexView {
	return newReindexView(g, src, &filterPolicy{pred: pred})
}

// NewSortView orders items by less, keeping the order maintained across
// splices and property changes.
func NewSortView(g *Graph, src *Collection, less func(a, b any) bool) *ReindexView {
	return newReindexView(g, src, &sortPolicy{less: less})
}

func newReindexView(g *Graph, src *Collection, policy reindexPolicy) *ReindexView {
	v := &ReindexView{
		cell:   newCell(g, nil),
		src:    src,
		policy: policy,
		o2d:    map[int]int{},
		d2o:    map[int]int{},
	}
	policy.seed(v)
	v.stops = append(v.stops,
		src.OnInvalidate(v.invalidate),
		src.OnChange(v.apply),
	)
	return v
}

func (v *ReindexView) Len() int {
	if !v.alive {
		return 0
	}
	return len(v.d2o)
}

func (v *ReindexView) Get(i int) (any, error) {
	if !v.alive {
		return nil, ErrUseAfterDestroy
	}
	o, ok := v.d2o[i]
	if !ok {
		return nil, ErrInvalidIndex
	}
	return v.src.Get(o)
}

func (v *ReindexView) Set(int, any) error {
	if !v.alive {
		return ErrUseAfterDestroy
	}
	return ErrReadOnly
}

// OriginalIndex maps a derived position back to the source index.
func (v *ReindexView) OriginalIndex(derived int) (int, bool) {
	o, ok := v.d2o[derived]
	return o, ok
}

// DerivedIndex maps a source index to its derived position, if mapped.
func (v *ReindexView) DerivedIndex(orig int) (int, bool) {
	d, ok := v.o2d[orig]
	return d, ok
}

func (v *ReindexView) Value() (any, error) {
	if !v.alive {
		return nil, ErrUseAfterDestroy
	}
	return v.snapshot(), nil
}

func (v *ReindexView) apply(ch Change) {
	if !v.alive {
		return
	}
	switch ch := ch.(type) {
	case SpliceChange:
		if ch.Deleted > 0 {
			var drops []int
			for o, d := range v.o2d {
				if o >= ch.Start && o < ch.Start+ch.Deleted {
					drops = append(drops, d)
				}
			}
			sort.Sort(sort.Reverse(sort.IntSlice(drops)))
			for _, d := range drops {
				v.unlink(d)
				v.invalidate()
				v.emit(SpliceChange{Start: d, Deleted: 1})
			}
			v.shiftOrig(ch.Start+ch.Deleted, -ch.Deleted)
		}
		if ch.Inserted > 0 {
			v.shiftOrig(ch.Start, ch.Inserted)
			v.policy.insert(v, ch.Start, ch.Inserted)
		}
	case PropertyChange:
		if len(ch.Path) == 0 {
			return
		}
		if o, ok := toIndex(ch.Path[0]); ok {
			v.policy.property(v, o, ch)
		}
	case ValueChange:
		v.rebuild()
	}
}

func (v *ReindexView) rebuild() {
	old := v.snapshot()
	v.o2d = map[int]int{}
	v.d2o = map[int]int{}
	v.policy.seed(v)
	next := v.snapshot()
	if equalValues(old, next) {
		return
	}
	v.invalidate()
	v.emit(ValueChange{Old: old, New: next})
}

func (v *ReindexView) snapshot() []any {
	out := make([]any, len(v.d2o))
	for d := 0; d < len(v.d2o); d++ {
		if val, err := v.src.Get(v.d2o[d]); err == nil {
			out[d] = val
		}
	}
	return out
}

// link places orig at derived position d, shifting later positions up. The
// two maps move together.
func (v *ReindexView) link(orig, d int) {
	for k := len(v.d2o) - 1; k >= d; k-- {
		o := v.d2o[k]
		v.d2o[k+1] = o
		v.o2d[o] = k + 1
	}
	v.d2o[d] = orig
	v.o2d[orig] = d
}

// unlink removes derived position d and compacts the positions above it.
func (v *ReindexView) unlink(d int) {
	o := v.d2o[d]
	delete(v.o2d, o)
	last := len(v.d2o) - 1
	for k := d; k < last; k++ {
		o2 := v.d2o[k+1]
		v.d2o[k] = o2
		v.o2d[o2] = k
	}
	delete(v.d2o, last)
}

// shiftOrig renumbers mapped original indices at or above from by delta.
func (v *ReindexView) shiftOrig(from, delta int) {
	next := make(map[int]int, len(v.o2d))
	for o, d := range v.o2d {
		if o >= from {
			o += delta
		}
		next[o] = d
		v.d2o[d] = o
	}
	v.o2d = next
}

// derivedPosFor returns the derived position an original index would occupy
// under source order: the count of mapped originals below it.
func (v *ReindexView) derivedPosFor(o int) int {
	d := 0
	for mo := range v.o2d {
		if mo < o {
			d++
		}
	}
	return d
}

func (v *ReindexView) Destroy() {
	for _, stop := range v.stops {
		stop()
	}
	v.stops = nil
	v.src = nil
	v.policy = nil
	v.o2d = nil
	v.d2o = nil
	v.destroy()
}

type filterPolicy struct {
	pred func(any) bool
}

func (p *filterPolicy) seed(v *ReindexView) {
	d := 0
	for o := 0; o < v.src.Len(); o++ {
		val, _ := v.src.Get(o)
		if p.pred(val) {
			v.d2o[d] = o
			v.o2d[o] = d
			d++
		}
	}
}

func (p *filterPolicy) insert(v *ReindexView, start, count int) {
	for o := start; o < start+count; o++ {
		val, _ := v.src.Get(o)
		if !p.pred(val) {
			continue
		}
		d := v.derivedPosFor(o)
		v.link(o, d)
		v.invalidate()
		v.emit(SpliceChange{Start: d, Inserted: 1})
	}
}

func (p *filterPolicy) property(v *ReindexView, o int, pc PropertyChange) {
	val, err := v.src.Get(o)
	if err != nil {
		return
	}
	include := p.pred(val)
	d, had := v.o2d[o]
	switch {
	case include && had:
		path := slices.Clone(pc.Path)
		path[0] = d
		v.emit(PropertyChange{Path: path, Base: pc.Base})
	case include && !had:
		nd := v.derivedPosFor(o)
		v.link(o, nd)
		v.invalidate()
		v.emit(SpliceChange{Start: nd, Inserted: 1})
	case !include && had:
		v.unlink(d)
		v.invalidate()
		v.emit(SpliceChange{Start: d, Deleted: 1})
	}
}

type sortPolicy struct {
	less func(a, b any) bool
}

func (p *sortPolicy) seed(v *ReindexView) {
	n := v.src.Len()
	origs := make([]int, n)
	vals := make([]any, n)
	for i := range origs {
		origs[i] = i
		vals[i], _ = v.src.Get(i)
	}
	sort.SliceStable(origs, func(a, b int) bool {
		return p.less(vals[origs[a]], vals[origs[b]])
	})
	for d, o := range origs {
		v.d2o[d] = o
		v.o2d[o] = d
	}
}

func (p *sortPolicy) insert(v *ReindexView, start, count int) {
	for o := start; o < start+count; o++ {
		val, _ := v.src.Get(o)
		d := p.position(v, val)
		v.link(o, d)
		v.invalidate()
		v.emit(SpliceChange{Start: d, Inserted: 1})
	}
}

// position finds where val belongs: the first derived slot whose value sorts
// after it, so equal values land after their peers.
func (p *sortPolicy) position(v *ReindexView, val any) int {
	return sort.Search(len(v.d2o), func(d int) bool {
		dv, _ := v.src.Get(v.d2o[d])
		return p.less(val, dv)
	})
}

func (p *sortPolicy) property(v *ReindexView, o int, pc PropertyChange) {
	d, ok := v.o2d[o]
	if !ok {
		return
	}
	v.unlink(d)
	v.invalidate()
	v.emit(SpliceChange{Start: d, Deleted: 1})
	val, err := v.src.Get(o)
	if err != nil {
		val = nil
	}
	nd := p.position(v, val)
	v.link(o, nd)
	v.invalidate()
	v.emit(SpliceChange{Start: nd, Inserted: 1})
}
