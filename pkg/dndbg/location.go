package dndbg

import (
	"github.com/pockees/dnSpy/pkg/cordbg"
	"github.com/pockees/dnSpy/pkg/logflags"
)

// ILFrameIP is the IL instruction pointer of a frame: the offset into
// the method body plus a qualifier describing how reliable the mapping
// from the native instruction pointer is.
type ILFrameIP struct {
	Offset  uint32
	Mapping cordbg.MappingResult
}

// IsExact reports whether the offset maps exactly to an IL
// instruction.
func (ip ILFrameIP) IsExact() bool {
	return ip.Mapping == cordbg.MappingExact
}

// ILIP returns the frame's current IL instruction pointer. If the
// frame is not an IL frame or the query fails, the zero offset with
// the no-info qualifier is returned.
func (f *Frame) ILIP() ILFrameIP {
	ilf, ok := f.raw.(cordbg.ILFrame)
	if !ok || f.caps&CapIL == 0 {
		return ILFrameIP{Mapping: cordbg.MappingNoInfo}
	}
	offset, mapping, st := ilf.ILIP()
	if st.Failed() {
		return ILFrameIP{Mapping: cordbg.MappingNoInfo}
	}
	return ILFrameIP{Offset: offset, Mapping: mapping}
}

// NativeIP returns the frame's current native offset from the start of
// its compiled code, or 0 if the frame is not a native frame or the
// query fails.
func (f *Frame) NativeIP() uint32 {
	nf, ok := f.raw.(cordbg.NativeFrame)
	if !ok || f.caps&CapNative == 0 {
		return 0
	}
	offset, st := nf.NativeIP()
	if st.Failed() {
		return 0
	}
	return offset
}

// Registers returns the saved register state of a native frame, nil if
// the frame is not a native frame or the query fails.
func (f *Frame) Registers() *Registers {
	nf, ok := f.raw.(cordbg.NativeFrame)
	if !ok || f.caps&CapNative == 0 {
		return nil
	}
	raw, st := nf.RegisterSet()
	if st.Failed() || raw == nil {
		return nil
	}
	return NewRegisters(raw)
}

// SetILFrameIP relocates execution to a new IL offset within the same
// method body and reports whether the request succeeded.
//
// On success every Frame and Chain previously obtained for the owning
// thread is invalidated, this one included. The caller must discard
// its entire stack walk snapshot and re-walk the stack.
func (f *Frame) SetILFrameIP(offset uint32) bool {
	ilf, ok := f.raw.(cordbg.ILFrame)
	if !ok || f.caps&CapIL == 0 {
		return false
	}
	st := ilf.SetILIP(offset)
	if logflags.Frame() {
		logflags.FrameLogger().Debugf("set IL IP handle=%#x offset=%#x status=%#x", f.raw.HandleID(), offset, uint32(st))
	}
	return !st.Failed()
}

// CanSetILFrameIP reports whether relocating execution to the given IL
// offset looks feasible. The answer is advisory: a true result does
// not guarantee a subsequent SetILFrameIP will succeed and a false
// result does not forbid attempting it.
func (f *Frame) CanSetILFrameIP(offset uint32) bool {
	ilf, ok := f.raw.(cordbg.ILFrame)
	if !ok || f.caps&CapIL == 0 {
		return false
	}
	return !ilf.CanSetILIP(offset).Failed()
}

// SetNativeFrameIP relocates execution to a new native offset within
// the same compiled code and reports whether the request succeeded.
// The invalidation postcondition of SetILFrameIP applies here too.
func (f *Frame) SetNativeFrameIP(offset uint32) bool {
	nf, ok := f.raw.(cordbg.NativeFrame)
	if !ok || f.caps&CapNative == 0 {
		return false
	}
	st := nf.SetNativeIP(offset)
	if logflags.Frame() {
		logflags.FrameLogger().Debugf("set native IP handle=%#x offset=%#x status=%#x", f.raw.HandleID(), offset, uint32(st))
	}
	return !st.Failed()
}

// CanSetNativeFrameIP is the advisory probe for SetNativeFrameIP.
func (f *Frame) CanSetNativeFrameIP(offset uint32) bool {
	nf, ok := f.raw.(cordbg.NativeFrame)
	if !ok || f.caps&CapNative == 0 {
		return false
	}
	return !nf.CanSetNativeIP(offset).Failed()
}
