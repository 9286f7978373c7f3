package cordbg

// ChainReason describes what created a chain.
type ChainReason uint32

const (
	ChainNone            ChainReason = 0
	ChainClassInit       ChainReason = 0x1
	ChainExceptionFilter ChainReason = 0x2
	ChainSecurity        ChainReason = 0x4
	ChainContextPolicy   ChainReason = 0x8
	ChainInterception    ChainReason = 0x10
	ChainProcessStart    ChainReason = 0x20
	ChainThreadStart     ChainReason = 0x40
	ChainEnterManaged    ChainReason = 0x80
	ChainEnterUnmanaged  ChainReason = 0x100
)

func (r ChainReason) String() string {
	switch r {
	case ChainNone:
		return "none"
	case ChainClassInit:
		return "class init"
	case ChainExceptionFilter:
		return "exception filter"
	case ChainSecurity:
		return "security evaluation"
	case ChainContextPolicy:
		return "context policy"
	case ChainInterception:
		return "interception"
	case ChainProcessStart:
		return "process start"
	case ChainThreadStart:
		return "thread start"
	case ChainEnterManaged:
		return "enter managed"
	case ChainEnterUnmanaged:
		return "enter unmanaged"
	}
	return "unknown"
}

// Chain is a contiguous segment of a thread's call stack sharing one
// execution context.
type Chain interface {
	Handle

	StackRange() (start, end uint64, st Status)
	Reason() (ChainReason, Status)
	IsManaged() (bool, Status)
	Callee() (Chain, Status)
	Caller() (Chain, Status)
	// FrameCount and Frame implement the count-then-fetch cursor over
	// the frames of this chain, callee-most first.
	FrameCount() (int, Status)
	Frame(i int) (Frame, Status)
}

// Stepper is a single-step controller. Its state machine belongs to
// the process-control layer; the frame layer only creates it.
type Stepper interface {
	Handle

	IsActive() (bool, Status)
	Deactivate() Status
}

// Value is a handle to a debuggee value slot (argument, local, field).
type Value interface {
	Handle

	TypeName() (string, Status)
	// Repr returns a best-effort textual rendering of the value.
	Repr() (string, Status)
}

// Type is a handle to a debuggee type used as a generic argument.
type Type interface {
	Handle

	Name() (string, Status)
	Token() (uint32, Status)
}

// Function is a handle to the method a frame executes.
type Function interface {
	Handle

	Token() (uint32, Status)
	ClassToken() (uint32, Status)
	Module() (Module, Status)
}

// Code is a handle to one compiled representation of a method body.
type Code interface {
	Handle

	IsIL() (bool, Status)
	Address() (uint64, Status)
	Size() (uint32, Status)
}

// Module identifies the metadata scope a token is resolved against.
type Module interface {
	Handle

	Name() (string, Status)
}
