// Package cordbg defines the raw contracts between the debugger engine
// and a debuggee-side runtime controller. Every handle in this package
// is an opaque reference to an object owned by the debuggee process;
// the engine never owns the underlying memory and every call against a
// handle can fail if the debuggee has resumed execution in the
// meantime.
package cordbg

// Status is the result code returned by every raw debuggee call,
// modeled on HRESULT: zero and positive values are success, negative
// values are failure. One failure code is reserved to mean that the
// handle's remote counterpart no longer exists.
type Status int32

const (
	// StatusOK is unqualified success.
	StatusOK Status = 0
	// StatusFalse is success with a negative answer (S_FALSE).
	StatusFalse Status = 1
	// StatusFail is an unspecified failure (E_FAIL).
	StatusFail Status = -0x7FFFBFFB
	// StatusNotImplemented is returned by handles asked for an
	// operation outside their capability set (E_NOTIMPL).
	StatusNotImplemented Status = -0x7FFFBFFF
	// StatusInvalidArg is returned for out of range slot indices and
	// malformed offsets (E_INVALIDARG).
	StatusInvalidArg Status = -0x7FF8FFA9
	// StatusNeutered is the one reserved failure code meaning the
	// handle was invalidated because the debuggee resumed execution
	// (CORDBG_E_OBJECT_NEUTERED).
	StatusNeutered Status = -0x7FECECB1
	// StatusUnavailable is returned when a variable slot cannot be
	// materialized, typically because it was optimized away or its
	// lifetime does not cover the current IP
	// (CORDBG_E_IL_VAR_NOT_AVAILABLE).
	StatusUnavailable Status = -0x7FECEC7C
)

// Failed reports whether s is any failure code. Callers in the frame
// layer never distinguish failure causes beyond this test, except for
// the neutered probe.
func (s Status) Failed() bool {
	return s < 0
}

// Neutered reports whether s is the reserved handle-invalidated code.
func (s Status) Neutered() bool {
	return s == StatusNeutered
}
