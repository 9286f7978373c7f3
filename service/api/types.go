package api

// Frame is the wire representation of a stack frame. All fields are
// best-effort: a frame whose underlying handles have gone stale still
// converts, with sentinel values in place of the information that could
// not be read.
type Frame struct {
	// ID is the identity of the underlying debuggee handle. Two Frame
	// values with the same ID describe the same physical frame.
	ID uint64 `json:"id"`

	FunctionToken uint32 `json:"functionToken"`
	StackStart    uint64 `json:"stackStart"`
	StackEnd      uint64 `json:"stackEnd"`

	ILFrame     bool `json:"ilFrame"`
	NativeFrame bool `json:"nativeFrame"`
	JITCompiled bool `json:"jitCompiled"`
	Internal    bool `json:"internal"`
	Unwindable  bool `json:"unwindable"`
	Neutered    bool `json:"neutered,omitempty"`

	// ILOffset and ILMapping are only meaningful when ILFrame is true
	// and ILMapping is not "no-info".
	ILOffset  uint32 `json:"ilOffset"`
	ILMapping string `json:"ilMapping,omitempty"`
	NativeIP  uint32 `json:"nativeIP"`

	Function    string   `json:"function,omitempty"`
	Module      string   `json:"module,omitempty"`
	GenericArgs []string `json:"genericArgs,omitempty"`
}

// Chain is the wire representation of a stack chain.
type Chain struct {
	ID         uint64  `json:"id"`
	StackStart uint64  `json:"stackStart"`
	StackEnd   uint64  `json:"stackEnd"`
	Reason     string  `json:"reason"`
	Managed    bool    `json:"managed"`
	Frames     []Frame `json:"frames"`
}

// Variable is the wire representation of an argument, local or type
// parameter slot. Unavailable is set for slots whose handle could not
// be fetched.
type Variable struct {
	Index       int    `json:"index"`
	Type        string `json:"type,omitempty"`
	Value       string `json:"value,omitempty"`
	Unavailable bool   `json:"unavailable,omitempty"`
}
