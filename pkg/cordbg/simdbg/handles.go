package simdbg

import (
	"github.com/pockees/dnSpy/pkg/cordbg"
)

// chainView is a handle to a chainData, bound to one snapshot
// generation.
type chainView struct {
	d   *chainData
	gen uint64
}

func (v *chainView) stale() bool {
	return v.gen != v.d.th.gen
}

func (v *chainView) HandleID() uint64 {
	return v.d.id
}

func (v *chainView) StackRange() (uint64, uint64, cordbg.Status) {
	if v.stale() {
		return 0, 0, cordbg.StatusNeutered
	}
	var start, end uint64
	for _, fd := range v.d.frames {
		if fd.spec.StackStart != 0 && (start == 0 || fd.spec.StackStart < start) {
			start = fd.spec.StackStart
		}
		if fd.spec.StackEnd > end {
			end = fd.spec.StackEnd
		}
	}
	return start, end, cordbg.StatusOK
}

func (v *chainView) Reason() (cordbg.ChainReason, cordbg.Status) {
	if v.stale() {
		return cordbg.ChainNone, cordbg.StatusNeutered
	}
	return v.d.reason, cordbg.StatusOK
}

func (v *chainView) IsManaged() (bool, cordbg.Status) {
	if v.stale() {
		return false, cordbg.StatusNeutered
	}
	return v.d.managed, cordbg.StatusOK
}

func (v *chainView) Callee() (cordbg.Chain, cordbg.Status) {
	return v.adjacent(-1)
}

func (v *chainView) Caller() (cordbg.Chain, cordbg.Status) {
	return v.adjacent(+1)
}

func (v *chainView) adjacent(dir int) (cordbg.Chain, cordbg.Status) {
	if v.stale() {
		return nil, cordbg.StatusNeutered
	}
	i := v.d.index + dir
	if i < 0 || i >= len(v.d.th.chains) {
		return nil, cordbg.StatusFalse
	}
	return &chainView{d: v.d.th.chains[i], gen: v.gen}, cordbg.StatusOK
}

func (v *chainView) FrameCount() (int, cordbg.Status) {
	if v.stale() {
		return 0, cordbg.StatusNeutered
	}
	return len(v.d.frames), cordbg.StatusOK
}

func (v *chainView) Frame(i int) (cordbg.Frame, cordbg.Status) {
	if v.stale() {
		return nil, cordbg.StatusNeutered
	}
	if i < 0 || i >= len(v.d.frames) {
		return nil, cordbg.StatusInvalidArg
	}
	return newFrameHandle(v.d.frames[i], v.gen), cordbg.StatusOK
}

// stepperView is a stepper handle. Steppers belong to the process
// control layer and survive stack invalidation.
type stepperView struct {
	id     uint64
	active bool
}

func (v *stepperView) HandleID() uint64 {
	return v.id
}

func (v *stepperView) IsActive() (bool, cordbg.Status) {
	return v.active, cordbg.StatusOK
}

func (v *stepperView) Deactivate() cordbg.Status {
	v.active = false
	return cordbg.StatusOK
}

// valueView is a handle to a value slot, bound to one snapshot
// generation.
type valueView struct {
	d   *slotData
	th  *Thread
	gen uint64
}

func (v *valueView) HandleID() uint64 {
	return v.d.id
}

func (v *valueView) TypeName() (string, cordbg.Status) {
	if v.gen != v.th.gen {
		return "", cordbg.StatusNeutered
	}
	return v.d.typeName, cordbg.StatusOK
}

func (v *valueView) Repr() (string, cordbg.Status) {
	if v.gen != v.th.gen {
		return "", cordbg.StatusNeutered
	}
	return v.d.repr, cordbg.StatusOK
}

// typeView is a handle to a generic argument type, bound to one
// snapshot generation.
type typeView struct {
	d   *typeData
	th  *Thread
	gen uint64
}

func (v *typeView) HandleID() uint64 {
	return v.d.id
}

func (v *typeView) Name() (string, cordbg.Status) {
	if v.gen != v.th.gen {
		return "", cordbg.StatusNeutered
	}
	return v.d.name, cordbg.StatusOK
}

func (v *typeView) Token() (uint32, cordbg.Status) {
	if v.gen != v.th.gen {
		return 0, cordbg.StatusNeutered
	}
	return v.d.token, cordbg.StatusOK
}

// functionView is a handle to the method of a frame, bound to one
// snapshot generation.
type functionView struct {
	d   *functionData
	th  *Thread
	gen uint64
}

func (v *functionView) HandleID() uint64 {
	return v.d.id
}

func (v *functionView) Token() (uint32, cordbg.Status) {
	if v.gen != v.th.gen {
		return 0, cordbg.StatusNeutered
	}
	return v.d.token, cordbg.StatusOK
}

func (v *functionView) ClassToken() (uint32, cordbg.Status) {
	if v.gen != v.th.gen {
		return 0, cordbg.StatusNeutered
	}
	return v.d.classToken, cordbg.StatusOK
}

func (v *functionView) Module() (cordbg.Module, cordbg.Status) {
	if v.gen != v.th.gen {
		return nil, cordbg.StatusNeutered
	}
	if v.d.module == nil {
		return nil, cordbg.StatusFail
	}
	return &moduleView{d: v.d.module}, cordbg.StatusOK
}

// codeView is a handle to one compiled representation of a method
// body, bound to one snapshot generation.
type codeView struct {
	d   *codeData
	th  *Thread
	gen uint64
}

func (v *codeView) HandleID() uint64 {
	return v.d.id
}

func (v *codeView) IsIL() (bool, cordbg.Status) {
	if v.gen != v.th.gen {
		return false, cordbg.StatusNeutered
	}
	return v.d.isIL, cordbg.StatusOK
}

func (v *codeView) Address() (uint64, cordbg.Status) {
	if v.gen != v.th.gen {
		return 0, cordbg.StatusNeutered
	}
	return v.d.address, cordbg.StatusOK
}

func (v *codeView) Size() (uint32, cordbg.Status) {
	if v.gen != v.th.gen {
		return 0, cordbg.StatusNeutered
	}
	return v.d.size, cordbg.StatusOK
}

// registersView is a handle to the register state saved for a native
// frame, bound to one snapshot generation. The instruction pointer is
// the code load address plus the native offset; the stack pointer is
// the leaf end of the frame's stack range.
type registersView struct {
	d   *frameData
	gen uint64
}

func (v *registersView) HandleID() uint64 {
	return v.d.regsID
}

func (v *registersView) IP() (uint64, cordbg.Status) {
	if v.gen != v.d.thread().gen {
		return 0, cordbg.StatusNeutered
	}
	return v.d.nativeCode.address + uint64(v.d.nativeIP), cordbg.StatusOK
}

func (v *registersView) SP() (uint64, cordbg.Status) {
	if v.gen != v.d.thread().gen {
		return 0, cordbg.StatusNeutered
	}
	return v.d.spec.StackStart, cordbg.StatusOK
}

// moduleView is a handle to a module. Modules are not tied to a stack
// snapshot and never go stale.
type moduleView struct {
	d *moduleData
}

func (v *moduleView) HandleID() uint64 {
	return v.d.id
}

func (v *moduleView) Name() (string, cordbg.Status) {
	return v.d.name, cordbg.StatusOK
}
