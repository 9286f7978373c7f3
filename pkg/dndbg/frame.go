package dndbg

import (
	"github.com/pockees/dnSpy/pkg/cordbg"
	"github.com/pockees/dnSpy/pkg/logflags"
)

// CapFlags records which optional capability interfaces a frame handle
// implements. The capability set of a handle is fixed for its
// lifetime, so it is probed once at wrapper construction.
type CapFlags uint16

const (
	// CapIL is set on frames that can be queried at the IL level.
	CapIL CapFlags = 1 << iota
	// CapNative is set on frames that can be queried at the machine
	// code level.
	CapNative
	// CapInternal is set on runtime-internal frames.
	CapInternal
	// CapRuntimeUnwindable is set on special unwindable marker frames.
	CapRuntimeUnwindable
	// CapILExtended is set on IL frames that expose multiple code
	// representations per method.
	CapILExtended
	// CapTypeParams is set on frames whose method can enumerate
	// generic parameters.
	CapTypeParams
)

// Frame represents one activation record on a debuggee thread's call
// stack. It owns no debuggee memory: it holds the raw handle plus two
// identity fields captured at construction. Everything else is fetched
// on demand and can fail independently on every access.
//
// A Frame is valid only for the stack walk snapshot it was obtained
// from. Once the debuggee resumes, all queries against it fail and
// degrade to their absent results.
type Frame struct {
	raw  cordbg.Frame
	caps CapFlags

	// Captured eagerly at construction; sentinel zero values if the
	// underlying queries failed.
	funcToken  uint32
	stackStart uint64
	stackEnd   uint64
}

// NewFrame wraps a raw frame handle. The function token and stack
// range are captured immediately; if either query fails the
// corresponding field keeps its zero sentinel. NewFrame never fails.
func NewFrame(raw cordbg.Frame) *Frame {
	f := &Frame{raw: raw, caps: probeCaps(raw)}
	if tok, st := raw.FunctionToken(); !st.Failed() {
		f.funcToken = tok
	}
	if start, end, st := raw.StackRange(); !st.Failed() {
		f.stackStart, f.stackEnd = start, end
	}
	if logflags.Frame() {
		logflags.FrameLogger().Debugf("new frame handle=%#x token=%#x stack=[%#x,%#x] caps=%#x", raw.HandleID(), f.funcToken, f.stackStart, f.stackEnd, f.caps)
	}
	return f
}

func probeCaps(raw cordbg.Frame) CapFlags {
	var caps CapFlags
	if _, ok := raw.(cordbg.ILFrame); ok {
		caps |= CapIL
	}
	if _, ok := raw.(cordbg.NativeFrame); ok {
		caps |= CapNative
	}
	if _, ok := raw.(cordbg.InternalFrame); ok {
		caps |= CapInternal
	}
	if _, ok := raw.(cordbg.RuntimeUnwindableFrame); ok {
		caps |= CapRuntimeUnwindable
	}
	if _, ok := raw.(cordbg.ILFrame4); ok {
		caps |= CapILExtended
	}
	if _, ok := raw.(cordbg.TypeParamEnum); ok {
		caps |= CapTypeParams
	}
	return caps
}

// Raw returns the underlying debuggee handle.
func (f *Frame) Raw() cordbg.Frame {
	return f.raw
}

// HandleID returns the identity of the underlying debuggee frame
// object. Use it as a map key when hashing frames.
func (f *Frame) HandleID() uint64 {
	return f.raw.HandleID()
}

// Equal reports whether two wrappers refer to the same debuggee-side
// frame object. Wrapper instances and cached fields do not participate
// in identity.
func (f *Frame) Equal(other *Frame) bool {
	if other == nil {
		return false
	}
	return f.raw.HandleID() == other.raw.HandleID()
}

// FunctionToken returns the metadata token of the method this frame
// executes, captured at construction. Zero means the query failed.
func (f *Frame) FunctionToken() uint32 {
	return f.funcToken
}

// StackRange returns the native stack address range of this frame,
// captured at construction. (0, 0) means the query failed.
func (f *Frame) StackRange() (start, end uint64) {
	return f.stackStart, f.stackEnd
}

// IsILFrame reports whether this frame supports IL level queries.
func (f *Frame) IsILFrame() bool {
	return f.caps&CapIL != 0
}

// IsNativeFrame reports whether this frame supports machine code level
// queries.
func (f *Frame) IsNativeFrame() bool {
	return f.caps&CapNative != 0
}

// IsJITCompiledFrame reports whether this frame is JIT-compiled code,
// which supports both the IL and the native view. This is the common
// case for managed methods.
func (f *Frame) IsJITCompiledFrame() bool {
	return f.IsILFrame() && f.IsNativeFrame()
}

// IsInternalFrame reports whether this is a runtime-internal frame.
func (f *Frame) IsInternalFrame() bool {
	return f.caps&CapInternal != 0
}

// IsRuntimeUnwindableFrame reports whether this is a special
// unwindable marker frame.
func (f *Frame) IsRuntimeUnwindableFrame() bool {
	return f.caps&CapRuntimeUnwindable != 0
}

// IsNeutered reports whether the underlying handle was invalidated by
// the debuggee resuming execution. It samples a single structural
// query (the chain lookup) as a liveness probe, so it can report false
// while other capabilities are already invalid. Callers rely on this
// being a cheap single-query check; do not strengthen it.
func (f *Frame) IsNeutered() bool {
	_, st := f.raw.Chain()
	return st.Neutered()
}

// Callee returns the frame this frame called, or nil when there is
// none or the query failed.
func (f *Frame) Callee() *Frame {
	raw, st := f.raw.Callee()
	if st.Failed() || raw == nil {
		return nil
	}
	return NewFrame(raw)
}

// Caller returns the frame that called this frame, or nil when there
// is none or the query failed.
func (f *Frame) Caller() *Frame {
	raw, st := f.raw.Caller()
	if st.Failed() || raw == nil {
		return nil
	}
	return NewFrame(raw)
}

// Chain returns the chain this frame belongs to, or nil on failure.
func (f *Frame) Chain() *Chain {
	raw, st := f.raw.Chain()
	if st.Failed() || raw == nil {
		return nil
	}
	return NewChain(raw)
}

// Function returns the method this frame executes, or nil on failure.
func (f *Frame) Function() *Function {
	raw, st := f.raw.Function()
	if st.Failed() || raw == nil {
		return nil
	}
	return NewFunction(raw)
}

// Code returns the compiled code of this frame, or nil on failure.
func (f *Frame) Code() *Code {
	raw, st := f.raw.Code()
	if st.Failed() || raw == nil {
		return nil
	}
	return NewCode(raw)
}

// CreateStepper requests a new single-step controller scoped to this
// frame, or nil on failure. Driving the stepper belongs to the process
// control layer.
func (f *Frame) CreateStepper() *Stepper {
	raw, st := f.raw.CreateStepper()
	if st.Failed() || raw == nil {
		return nil
	}
	return NewStepper(raw)
}
