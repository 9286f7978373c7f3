package dndbg

import (
	"github.com/pockees/dnSpy/pkg/cordbg"
)

// Stepper wraps a raw single-step controller. Its state machine is
// driven by the process control layer; this wrapper only carries
// identity and the two queries the frame layer needs.
type Stepper struct {
	raw cordbg.Stepper
}

// NewStepper wraps a raw stepper handle.
func NewStepper(raw cordbg.Stepper) *Stepper {
	return &Stepper{raw: raw}
}

// Raw returns the underlying debuggee handle.
func (s *Stepper) Raw() cordbg.Stepper { return s.raw }

// HandleID returns the identity of the underlying debuggee stepper.
func (s *Stepper) HandleID() uint64 { return s.raw.HandleID() }

// Equal reports whether two wrappers refer to the same debuggee-side
// stepper.
func (s *Stepper) Equal(other *Stepper) bool {
	return other != nil && s.raw.HandleID() == other.raw.HandleID()
}

// IsActive reports whether the stepper is armed. Failure reports
// false.
func (s *Stepper) IsActive() bool {
	active, st := s.raw.IsActive()
	return !st.Failed() && active
}

// Deactivate disarms the stepper and reports whether the request
// succeeded.
func (s *Stepper) Deactivate() bool {
	return !s.raw.Deactivate().Failed()
}

// Value wraps a raw value slot handle (argument, local or field).
type Value struct {
	raw cordbg.Value
}

// NewValue wraps a raw value handle.
func NewValue(raw cordbg.Value) *Value {
	return &Value{raw: raw}
}

// Raw returns the underlying debuggee handle.
func (v *Value) Raw() cordbg.Value { return v.raw }

// HandleID returns the identity of the underlying debuggee value.
func (v *Value) HandleID() uint64 { return v.raw.HandleID() }

// Equal reports whether two wrappers refer to the same debuggee-side
// value.
func (v *Value) Equal(other *Value) bool {
	return other != nil && v.raw.HandleID() == other.raw.HandleID()
}

// TypeName returns the name of the value's type, "" on failure.
func (v *Value) TypeName() string {
	name, st := v.raw.TypeName()
	if st.Failed() {
		return ""
	}
	return name
}

// String returns a best-effort rendering of the value, "?" on failure.
func (v *Value) String() string {
	repr, st := v.raw.Repr()
	if st.Failed() {
		return "?"
	}
	return repr
}

// TypeHandle wraps a raw type handle used as a generic argument.
type TypeHandle struct {
	raw cordbg.Type
}

// NewTypeHandle wraps a raw type handle.
func NewTypeHandle(raw cordbg.Type) *TypeHandle {
	return &TypeHandle{raw: raw}
}

// Raw returns the underlying debuggee handle.
func (t *TypeHandle) Raw() cordbg.Type { return t.raw }

// HandleID returns the identity of the underlying debuggee type.
func (t *TypeHandle) HandleID() uint64 { return t.raw.HandleID() }

// Equal reports whether two wrappers refer to the same debuggee-side
// type.
func (t *TypeHandle) Equal(other *TypeHandle) bool {
	return other != nil && t.raw.HandleID() == other.raw.HandleID()
}

// Name returns the full name of the type, "" on failure.
func (t *TypeHandle) Name() string {
	name, st := t.raw.Name()
	if st.Failed() {
		return ""
	}
	return name
}

// Token returns the metadata token of the type, 0 on failure.
func (t *TypeHandle) Token() uint32 {
	tok, st := t.raw.Token()
	if st.Failed() {
		return 0
	}
	return tok
}

// Function wraps a raw method handle.
type Function struct {
	raw cordbg.Function
}

// NewFunction wraps a raw function handle.
func NewFunction(raw cordbg.Function) *Function {
	return &Function{raw: raw}
}

// Raw returns the underlying debuggee handle.
func (fn *Function) Raw() cordbg.Function { return fn.raw }

// HandleID returns the identity of the underlying debuggee function.
func (fn *Function) HandleID() uint64 { return fn.raw.HandleID() }

// Equal reports whether two wrappers refer to the same debuggee-side
// function.
func (fn *Function) Equal(other *Function) bool {
	return other != nil && fn.raw.HandleID() == other.raw.HandleID()
}

// Token returns the metadata token of the method, 0 on failure.
func (fn *Function) Token() uint32 {
	tok, st := fn.raw.Token()
	if st.Failed() {
		return 0
	}
	return tok
}

// ClassToken returns the metadata token of the declaring type, 0 on
// failure.
func (fn *Function) ClassToken() uint32 {
	tok, st := fn.raw.ClassToken()
	if st.Failed() {
		return 0
	}
	return tok
}

// Module returns the module the method's tokens resolve against, nil
// on failure.
func (fn *Function) Module() cordbg.Module {
	module, st := fn.raw.Module()
	if st.Failed() {
		return nil
	}
	return module
}

// Registers wraps the raw register state of a native frame.
type Registers struct {
	raw cordbg.RegisterSet
}

// NewRegisters wraps a raw register set handle.
func NewRegisters(raw cordbg.RegisterSet) *Registers {
	return &Registers{raw: raw}
}

// Raw returns the underlying debuggee handle.
func (r *Registers) Raw() cordbg.RegisterSet { return r.raw }

// HandleID returns the identity of the underlying debuggee register
// set.
func (r *Registers) HandleID() uint64 { return r.raw.HandleID() }

// Equal reports whether two wrappers refer to the same debuggee-side
// register set.
func (r *Registers) Equal(other *Registers) bool {
	return other != nil && r.raw.HandleID() == other.raw.HandleID()
}

// IP returns the native instruction pointer, 0 on failure.
func (r *Registers) IP() uint64 {
	ip, st := r.raw.IP()
	if st.Failed() {
		return 0
	}
	return ip
}

// SP returns the stack pointer, 0 on failure.
func (r *Registers) SP() uint64 {
	sp, st := r.raw.SP()
	if st.Failed() {
		return 0
	}
	return sp
}

// Code wraps a raw compiled code handle.
type Code struct {
	raw cordbg.Code
}

// NewCode wraps a raw code handle.
func NewCode(raw cordbg.Code) *Code {
	return &Code{raw: raw}
}

// Raw returns the underlying debuggee handle.
func (c *Code) Raw() cordbg.Code { return c.raw }

// HandleID returns the identity of the underlying debuggee code
// object.
func (c *Code) HandleID() uint64 { return c.raw.HandleID() }

// Equal reports whether two wrappers refer to the same debuggee-side
// code object.
func (c *Code) Equal(other *Code) bool {
	return other != nil && c.raw.HandleID() == other.raw.HandleID()
}

// IsIL reports whether this code handle refers to the IL body rather
// than JIT-compiled machine code. Failure reports false.
func (c *Code) IsIL() bool {
	isIL, st := c.raw.IsIL()
	return !st.Failed() && isIL
}

// Address returns the load address of the code, 0 on failure.
func (c *Code) Address() uint64 {
	addr, st := c.raw.Address()
	if st.Failed() {
		return 0
	}
	return addr
}

// Size returns the size of the code in bytes, 0 on failure.
func (c *Code) Size() uint32 {
	size, st := c.raw.Size()
	if st.Failed() {
		return 0
	}
	return size
}
