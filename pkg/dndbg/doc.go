// Package dndbg implements the stack frame abstraction layer of the
// debugger engine. It wraps the raw debuggee handles defined in
// pkg/cordbg into identity-bearing wrappers that expose a frame's
// classification, code location, locals, arguments and generic
// parameters, and that let a caller retarget execution within a method
// body.
//
// Every wrapper in this package follows the same best-effort contract:
// a query that fails for any reason (the debuggee resumed and the
// handle is neutered, the frame does not support the requested
// capability, or the underlying call failed transiently) degrades to
// the operation's neutral absent result (nil, empty iterator, false or
// a zero sentinel) instead of returning an error. The three causes are
// deliberately indistinguishable at this surface; a caller that needs
// to know why can re-query the capability predicates or the neutered
// probe explicitly.
//
// All wrappers obtained for a thread become stale the moment the
// debuggee resumes execution. SetILFrameIP and SetNativeFrameIP resume
// it as a side effect: after either succeeds, the caller's entire
// stack walk snapshot for that thread is invalid and must be
// re-acquired.
package dndbg
