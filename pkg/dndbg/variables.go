package dndbg

import (
	"github.com/pockees/dnSpy/pkg/cordbg"
)

// ValueIter is a lazy, finite, non-restartable iterator over the value
// slots of a frame. The slot count is fetched once when the iterator
// is created; each element is then fetched by position on Next. A slot
// the debuggee fails to materialize yields a nil Value without
// aborting the sequence, keeping indices aligned with declaration
// order.
type ValueIter struct {
	count int
	next  int
	fetch func(i int) (cordbg.Value, cordbg.Status)
	cur   *Value
}

var emptyValueIter = &ValueIter{}

func newValueIter(count func() (int, cordbg.Status), fetch func(i int) (cordbg.Value, cordbg.Status)) *ValueIter {
	n, st := count()
	if st.Failed() || n < 0 {
		return emptyValueIter
	}
	return &ValueIter{count: n, fetch: fetch}
}

// Count returns the number of declared slots in the sequence.
func (it *ValueIter) Count() int {
	return it.count
}

// Next advances the iterator and reports whether a slot is available.
func (it *ValueIter) Next() bool {
	if it.next >= it.count {
		it.cur = nil
		return false
	}
	raw, st := it.fetch(it.next)
	it.next++
	if st.Failed() || raw == nil {
		it.cur = nil
	} else {
		it.cur = NewValue(raw)
	}
	return true
}

// Value returns the slot Next advanced to. It is nil when the debuggee
// failed to materialize that slot.
func (it *ValueIter) Value() *Value {
	return it.cur
}

// Slice drains the iterator into a slice, preserving nil elements for
// slots that failed to materialize.
func (it *ValueIter) Slice() []*Value {
	vals := make([]*Value, 0, it.count)
	for it.Next() {
		vals = append(vals, it.Value())
	}
	return vals
}

// ILArguments enumerates this frame's arguments in declaration order.
// The iterator is empty if the frame is not an IL frame or the count
// query fails.
func (f *Frame) ILArguments() *ValueIter {
	ilf, ok := f.raw.(cordbg.ILFrame)
	if !ok || f.caps&CapIL == 0 {
		return emptyValueIter
	}
	return newValueIter(ilf.ArgumentCount, ilf.Argument)
}

// ILLocals enumerates this frame's locals in declaration order. The
// iterator is empty if the frame is not an IL frame or the count query
// fails.
func (f *Frame) ILLocals() *ValueIter {
	ilf, ok := f.raw.(cordbg.ILFrame)
	if !ok || f.caps&CapIL == 0 {
		return emptyValueIter
	}
	return newValueIter(ilf.LocalCount, ilf.Local)
}

// ILLocalsKind enumerates the locals of one particular code
// representation of the method. The iterator is empty on frames
// lacking the extended IL capability.
func (f *Frame) ILLocalsKind(kind cordbg.ILCodeKind) *ValueIter {
	ilf4, ok := f.raw.(cordbg.ILFrame4)
	if !ok || f.caps&CapILExtended == 0 {
		return emptyValueIter
	}
	return newValueIter(
		func() (int, cordbg.Status) { return ilf4.LocalCountEx(kind) },
		func(i int) (cordbg.Value, cordbg.Status) { return ilf4.LocalEx(kind, i) },
	)
}

// ILLocalKind returns one local of one particular code representation,
// or nil on frames lacking the extended IL capability, out of range
// indices and fetch failures.
func (f *Frame) ILLocalKind(kind cordbg.ILCodeKind, index int) *Value {
	ilf4, ok := f.raw.(cordbg.ILFrame4)
	if !ok || f.caps&CapILExtended == 0 {
		return nil
	}
	raw, st := ilf4.LocalEx(kind, index)
	if st.Failed() || raw == nil {
		return nil
	}
	return NewValue(raw)
}

// CodeKind returns the code handle of one particular representation of
// the method body, or nil on failure. On frames lacking the extended
// IL capability only the original representation is reachable: it
// degrades to the frame's plain code handle, every other kind yields
// nil.
func (f *Frame) CodeKind(kind cordbg.ILCodeKind) *Code {
	ilf4, ok := f.raw.(cordbg.ILFrame4)
	if !ok || f.caps&CapILExtended == 0 {
		if kind == cordbg.ILCodeOriginal && f.caps&CapIL != 0 {
			return f.Code()
		}
		return nil
	}
	raw, st := ilf4.CodeEx(kind)
	if st.Failed() || raw == nil {
		return nil
	}
	return NewCode(raw)
}
