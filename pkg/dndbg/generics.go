package dndbg

import (
	"fmt"

	"github.com/pockees/dnSpy/pkg/cordbg"
	"github.com/pockees/dnSpy/pkg/logflags"
)

// TypeIter is a lazy, finite, non-restartable iterator over the
// generic arguments of a frame's method: all type-level arguments
// first, then all method-level arguments, with no marker between the
// two groups in the raw sequence.
type TypeIter struct {
	count int
	next  int
	fetch func(i int) (cordbg.Type, cordbg.Status)
	cur   *TypeHandle
}

var emptyTypeIter = &TypeIter{}

// Count returns the total number of generic arguments.
func (it *TypeIter) Count() int {
	return it.count
}

// Next advances the iterator and reports whether a slot is available.
func (it *TypeIter) Next() bool {
	if it.next >= it.count {
		it.cur = nil
		return false
	}
	raw, st := it.fetch(it.next)
	it.next++
	if st.Failed() || raw == nil {
		it.cur = nil
	} else {
		it.cur = NewTypeHandle(raw)
	}
	return true
}

// TypeHandle returns the slot Next advanced to, nil if that slot
// failed to materialize.
func (it *TypeIter) TypeHandle() *TypeHandle {
	return it.cur
}

// Slice drains the iterator into a slice, preserving nil elements.
func (it *TypeIter) Slice() []*TypeHandle {
	types := make([]*TypeHandle, 0, it.count)
	for it.Next() {
		types = append(types, it.TypeHandle())
	}
	return types
}

// TypeParameters enumerates the generic arguments of the method this
// frame executes, type-level arguments followed by method-level
// arguments. The iterator is empty if the frame cannot enumerate type
// parameters or the count query fails.
func (f *Frame) TypeParameters() *TypeIter {
	tpe, ok := f.raw.(cordbg.TypeParamEnum)
	if !ok || f.caps&CapTypeParams == 0 {
		return emptyTypeIter
	}
	n, st := tpe.TypeParamCount()
	if st.Failed() || n < 0 {
		return emptyTypeIter
	}
	return &TypeIter{count: n, fetch: tpe.TypeParam}
}

// SplitGenericParameters partitions the flat generic argument list of
// this frame's method into the arguments bound to the declaring type
// and the arguments bound to the method itself. The split point is
// computed through the metadata service: the declaring type's count of
// directly declared generic parameters comes first, the method's own
// count second.
//
// It returns ok == false if the method, its declaring module or either
// metadata count cannot be resolved.
//
// The two counts must account for the whole flat list. A mismatch
// means the metadata tables and the runtime disagree about the method
// being executed, which is not a recoverable condition: this function
// panics rather than letting callers use misaligned partial results.
func (f *Frame) SplitGenericParameters(md cordbg.Metadata) (typeArgs, methodArgs []*TypeHandle, ok bool) {
	rawFn, st := f.raw.Function()
	if st.Failed() || rawFn == nil {
		return nil, nil, false
	}
	module, st := rawFn.Module()
	if st.Failed() || module == nil {
		return nil, nil, false
	}
	classToken, st := rawFn.ClassToken()
	if st.Failed() {
		return nil, nil, false
	}
	methodToken, st := rawFn.Token()
	if st.Failed() {
		return nil, nil, false
	}

	typeCount, err := md.GenericParamCount(module, classToken)
	if err != nil {
		if logflags.Frame() {
			logflags.FrameLogger().WithError(err).Debugf("generic param count for type %#x failed", classToken)
		}
		return nil, nil, false
	}
	methodCount, err := md.GenericParamCount(module, methodToken)
	if err != nil {
		if logflags.Frame() {
			logflags.FrameLogger().WithError(err).Debugf("generic param count for method %#x failed", methodToken)
		}
		return nil, nil, false
	}

	all := f.TypeParameters().Slice()
	if typeCount+methodCount != len(all) {
		panic(fmt.Sprintf("generic parameter count mismatch: type declares %d, method declares %d, frame carries %d", typeCount, methodCount, len(all)))
	}
	return all[:typeCount], all[typeCount:], true
}
