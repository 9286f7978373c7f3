package dndbg

import (
	"github.com/pockees/dnSpy/pkg/cordbg"
)

// Chain represents a contiguous segment of a thread's call stack
// sharing one execution context, for example the managed frames
// between two transitions to unmanaged code. Like Frame it is a thin
// identity-bearing wrapper: every accessor degrades to its absent
// result on failure.
type Chain struct {
	raw cordbg.Chain
}

// NewChain wraps a raw chain handle.
func NewChain(raw cordbg.Chain) *Chain {
	return &Chain{raw: raw}
}

// Raw returns the underlying debuggee handle.
func (c *Chain) Raw() cordbg.Chain {
	return c.raw
}

// HandleID returns the identity of the underlying debuggee chain.
func (c *Chain) HandleID() uint64 {
	return c.raw.HandleID()
}

// Equal reports whether two wrappers refer to the same debuggee-side
// chain.
func (c *Chain) Equal(other *Chain) bool {
	if other == nil {
		return false
	}
	return c.raw.HandleID() == other.raw.HandleID()
}

// StackRange returns the native stack address range this chain
// occupies, (0, 0) on failure.
func (c *Chain) StackRange() (start, end uint64) {
	start, end, st := c.raw.StackRange()
	if st.Failed() {
		return 0, 0
	}
	return start, end
}

// Reason returns what created this chain, ChainNone on failure.
func (c *Chain) Reason() cordbg.ChainReason {
	reason, st := c.raw.Reason()
	if st.Failed() {
		return cordbg.ChainNone
	}
	return reason
}

// IsManaged reports whether this chain runs managed code. Failure
// reports false.
func (c *Chain) IsManaged() bool {
	managed, st := c.raw.IsManaged()
	if st.Failed() {
		return false
	}
	return managed
}

// Callee returns the next chain toward the leaf of the stack, nil when
// there is none or on failure.
func (c *Chain) Callee() *Chain {
	raw, st := c.raw.Callee()
	if st.Failed() || raw == nil {
		return nil
	}
	return NewChain(raw)
}

// Caller returns the next chain toward the root of the stack, nil when
// there is none or on failure.
func (c *Chain) Caller() *Chain {
	raw, st := c.raw.Caller()
	if st.Failed() || raw == nil {
		return nil
	}
	return NewChain(raw)
}

// FrameIter is a lazy, finite, non-restartable iterator over the
// frames of a chain, callee-most first. Slots that fail to materialize
// yield nil without aborting the sequence.
type FrameIter struct {
	count int
	next  int
	fetch func(i int) (cordbg.Frame, cordbg.Status)
	cur   *Frame
}

var emptyFrameIter = &FrameIter{}

// Count returns the number of frames in the chain.
func (it *FrameIter) Count() int {
	return it.count
}

// Next advances the iterator and reports whether a slot is available.
func (it *FrameIter) Next() bool {
	if it.next >= it.count {
		it.cur = nil
		return false
	}
	raw, st := it.fetch(it.next)
	it.next++
	if st.Failed() || raw == nil {
		it.cur = nil
	} else {
		it.cur = NewFrame(raw)
	}
	return true
}

// Frame returns the frame Next advanced to, nil if that slot failed to
// materialize.
func (it *FrameIter) Frame() *Frame {
	return it.cur
}

// Slice drains the iterator into a slice, preserving nil elements.
func (it *FrameIter) Slice() []*Frame {
	frames := make([]*Frame, 0, it.count)
	for it.Next() {
		frames = append(frames, it.Frame())
	}
	return frames
}

// Frames enumerates the frames of this chain, callee-most first. The
// iterator is empty on failure.
func (c *Chain) Frames() *FrameIter {
	n, st := c.raw.FrameCount()
	if st.Failed() || n < 0 {
		return emptyFrameIter
	}
	return &FrameIter{count: n, fetch: c.raw.Frame}
}
