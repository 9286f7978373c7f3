package cordbg

import "fmt"

// Handle is the identity every raw debuggee object carries. Two
// handles refer to the same debuggee-side object iff their IDs are
// equal; wrapper equality in the frame layer is defined on this and
// nothing else.
type Handle interface {
	HandleID() uint64
}

// Frame is the base contract of a stack frame handle. Richer frame
// kinds are discovered by asserting the handle against the extension
// interfaces below. A JIT-compiled frame implements both ILFrame and
// NativeFrame on the same handle.
type Frame interface {
	Handle

	// Callee returns the frame this frame called, if any.
	Callee() (Frame, Status)
	// Caller returns the frame that called this frame, if any.
	Caller() (Frame, Status)
	// Chain returns the chain this frame belongs to.
	Chain() (Chain, Status)
	// FunctionToken returns the metadata token of the method this
	// frame executes.
	FunctionToken() (uint32, Status)
	// StackRange returns the address range this frame occupies on the
	// native stack.
	StackRange() (start, end uint64, st Status)
	// Function returns the method handle.
	Function() (Function, Status)
	// Code returns the compiled code handle.
	Code() (Code, Status)
	// CreateStepper requests a new single-step controller scoped to
	// this frame.
	CreateStepper() (Stepper, Status)
}

// MappingResult qualifies an IL offset reported for a frame: how well
// the current native instruction pointer maps back to the IL body.
type MappingResult uint32

const (
	MappingProlog          MappingResult = 0x1
	MappingEpilog          MappingResult = 0x2
	MappingNoInfo          MappingResult = 0x4
	MappingUnmappedAddress MappingResult = 0x8
	MappingExact           MappingResult = 0x10
	MappingApproximate     MappingResult = 0x20
	MappingAfterTailCall   MappingResult = 0x40
)

func (m MappingResult) String() string {
	switch m {
	case MappingProlog:
		return "prolog"
	case MappingEpilog:
		return "epilog"
	case MappingNoInfo:
		return "no info"
	case MappingUnmappedAddress:
		return "unmapped address"
	case MappingExact:
		return "exact"
	case MappingApproximate:
		return "approximate"
	case MappingAfterTailCall:
		return "after tail call"
	}
	return "unknown"
}

// ILFrame is the capability extension of frames that can be queried at
// the IL level.
type ILFrame interface {
	Frame

	// ILIP returns the current IL offset and how reliable the mapping
	// from the native instruction pointer is.
	ILIP() (offset uint32, mapping MappingResult, st Status)
	// SetILIP relocates execution to a new IL offset within the same
	// method body. On success every frame and chain previously handed
	// out for the owning thread is invalidated.
	SetILIP(offset uint32) Status
	// CanSetILIP is an advisory feasibility probe for SetILIP.
	CanSetILIP(offset uint32) Status
	// ArgumentCount returns the number of declared arguments.
	ArgumentCount() (int, Status)
	// Argument returns the value handle of the i'th argument.
	Argument(i int) (Value, Status)
	// LocalCount returns the number of declared locals.
	LocalCount() (int, Status)
	// Local returns the value handle of the i'th local.
	Local(i int) (Value, Status)
}

// ILCodeKind selects among multiple representations of a method body
// when more than one exists.
type ILCodeKind uint32

const (
	// ILCodeOriginal is the method body as compiled from source.
	ILCodeOriginal ILCodeKind = 1
	// ILCodeReJIT is the body instrumented through a profiler ReJIT
	// request.
	ILCodeReJIT ILCodeKind = 2
)

func (k ILCodeKind) String() string {
	switch k {
	case ILCodeOriginal:
		return "original"
	case ILCodeReJIT:
		return "rejit"
	default:
		return fmt.Sprintf("ILCodeKind(%d)", uint32(k))
	}
}

// ILFrame4 extends ILFrame on runtimes that expose multiple code
// representations per method.
type ILFrame4 interface {
	ILFrame

	LocalEx(kind ILCodeKind, i int) (Value, Status)
	LocalCountEx(kind ILCodeKind) (int, Status)
	CodeEx(kind ILCodeKind) (Code, Status)
}

// NativeFrame is the capability extension of frames that can be
// queried at the machine code level.
type NativeFrame interface {
	Frame

	// NativeIP returns the current native offset from the start of the
	// compiled code.
	NativeIP() (uint32, Status)
	SetNativeIP(offset uint32) Status
	CanSetNativeIP(offset uint32) Status
	// CodeBytes reads up to n bytes of machine code starting at the
	// given offset within this frame's compiled code.
	CodeBytes(offset uint32, n int) ([]byte, Status)
	// RegisterSet returns the saved register state of this frame.
	RegisterSet() (RegisterSet, Status)
}

// RegisterSet is a handle to the register state saved for a native
// frame. Like every handle it goes stale when the debuggee resumes.
type RegisterSet interface {
	Handle

	// IP returns the native instruction pointer.
	IP() (uint64, Status)
	// SP returns the stack pointer.
	SP() (uint64, Status)
}

// InternalFrame marks runtime-internal frames (stubs, marshaling
// transitions) that carry no user code.
type InternalFrame interface {
	Frame

	// InternalKind describes what kind of runtime frame this is.
	InternalKind() (uint32, Status)
}

// RuntimeUnwindableFrame marks special frames the runtime can unwind
// through but that support no richer queries. RuntimeUnwindable is a
// marker method: the extension carries no operations of its own, the
// method only makes the capability discoverable by type assertion.
type RuntimeUnwindableFrame interface {
	Frame

	RuntimeUnwindable()
}

// TypeParamEnum is the capability extension of frames whose method
// carries generic parameters. Enumeration follows the debuggee's
// count-then-fetch cursor protocol.
type TypeParamEnum interface {
	Frame

	TypeParamCount() (int, Status)
	TypeParam(i int) (Type, Status)
}
