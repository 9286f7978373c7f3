package simdbg

import (
	"github.com/pockees/dnSpy/pkg/cordbg"
)

// frameCore implements the base cordbg.Frame contract. Capability
// extensions are layered on top of it by the combo types at the bottom
// of this file; which combo a frame gets is decided by its spec, so
// the frame layer's type assertion probing sees exactly the
// capabilities the snapshot describes.
type frameCore struct {
	d   *frameData
	gen uint64
}

func (c *frameCore) stale() bool {
	return c.gen != c.d.thread().gen
}

func (c *frameCore) HandleID() uint64 {
	return c.d.id
}

func (th *Thread) frameAt(i int) *frameData {
	if i < 0 {
		return nil
	}
	for _, cd := range th.chains {
		for _, fd := range cd.frames {
			if fd.index == i {
				return fd
			}
		}
	}
	return nil
}

func (c *frameCore) Callee() (cordbg.Frame, cordbg.Status) {
	if c.stale() {
		return nil, cordbg.StatusNeutered
	}
	fd := c.d.thread().frameAt(c.d.index - 1)
	if fd == nil {
		return nil, cordbg.StatusFalse
	}
	return newFrameHandle(fd, c.gen), cordbg.StatusOK
}

func (c *frameCore) Caller() (cordbg.Frame, cordbg.Status) {
	if c.stale() {
		return nil, cordbg.StatusNeutered
	}
	fd := c.d.thread().frameAt(c.d.index + 1)
	if fd == nil {
		return nil, cordbg.StatusFalse
	}
	return newFrameHandle(fd, c.gen), cordbg.StatusOK
}

func (c *frameCore) Chain() (cordbg.Chain, cordbg.Status) {
	if c.stale() {
		return nil, cordbg.StatusNeutered
	}
	return &chainView{d: c.d.ch, gen: c.gen}, cordbg.StatusOK
}

func (c *frameCore) FunctionToken() (uint32, cordbg.Status) {
	if c.stale() {
		return 0, cordbg.StatusNeutered
	}
	if c.d.spec.FailIdentity {
		return 0, cordbg.StatusFail
	}
	return c.d.spec.Token, cordbg.StatusOK
}

func (c *frameCore) StackRange() (uint64, uint64, cordbg.Status) {
	if c.stale() {
		return 0, 0, cordbg.StatusNeutered
	}
	if c.d.spec.FailIdentity {
		return 0, 0, cordbg.StatusFail
	}
	return c.d.spec.StackStart, c.d.spec.StackEnd, cordbg.StatusOK
}

func (c *frameCore) Function() (cordbg.Function, cordbg.Status) {
	if c.stale() {
		return nil, cordbg.StatusNeutered
	}
	if c.d.spec.FailIdentity {
		return nil, cordbg.StatusFail
	}
	return &functionView{d: c.d.fn, th: c.d.thread(), gen: c.gen}, cordbg.StatusOK
}

func (c *frameCore) Code() (cordbg.Code, cordbg.Status) {
	if c.stale() {
		return nil, cordbg.StatusNeutered
	}
	switch {
	case c.d.nativeCode != nil:
		return &codeView{d: c.d.nativeCode, th: c.d.thread(), gen: c.gen}, cordbg.StatusOK
	case c.d.ilCode != nil:
		return &codeView{d: c.d.ilCode, th: c.d.thread(), gen: c.gen}, cordbg.StatusOK
	}
	return nil, cordbg.StatusFail
}

func (c *frameCore) CreateStepper() (cordbg.Stepper, cordbg.Status) {
	if c.stale() {
		return nil, cordbg.StatusNeutered
	}
	th := c.d.thread()
	return &stepperView{id: th.dbg.newID(), active: true}, cordbg.StatusOK
}

// ilOps adds the IL capability.
type ilOps struct {
	d   *frameData
	gen uint64
}

func (o *ilOps) stale() bool {
	return o.gen != o.d.thread().gen
}

func (o *ilOps) ILIP() (uint32, cordbg.MappingResult, cordbg.Status) {
	if o.stale() {
		return 0, 0, cordbg.StatusNeutered
	}
	return o.d.ilIP, o.d.ilMapping, cordbg.StatusOK
}

func (o *ilOps) SetILIP(offset uint32) cordbg.Status {
	if o.stale() {
		return cordbg.StatusNeutered
	}
	body := o.d.spec.IL.BodySize
	if body > 0 && offset >= body {
		return cordbg.StatusInvalidArg
	}
	o.d.ilIP = offset
	o.d.ilMapping = cordbg.MappingExact
	// Retargeting execution invalidates the whole snapshot for the
	// owning thread, this handle included.
	o.d.thread().invalidate()
	return cordbg.StatusOK
}

func (o *ilOps) CanSetILIP(offset uint32) cordbg.Status {
	if o.stale() {
		return cordbg.StatusNeutered
	}
	body := o.d.spec.IL.BodySize
	if body > 0 && offset >= body {
		return cordbg.StatusInvalidArg
	}
	return cordbg.StatusOK
}

func (o *ilOps) ArgumentCount() (int, cordbg.Status) {
	if o.stale() {
		return 0, cordbg.StatusNeutered
	}
	return len(o.d.args), cordbg.StatusOK
}

func (o *ilOps) Argument(i int) (cordbg.Value, cordbg.Status) {
	return o.slot(o.d.args, i)
}

func (o *ilOps) LocalCount() (int, cordbg.Status) {
	if o.stale() {
		return 0, cordbg.StatusNeutered
	}
	return len(o.d.locals), cordbg.StatusOK
}

func (o *ilOps) Local(i int) (cordbg.Value, cordbg.Status) {
	return o.slot(o.d.locals, i)
}

func (o *ilOps) slot(slots []*slotData, i int) (cordbg.Value, cordbg.Status) {
	if o.stale() {
		return nil, cordbg.StatusNeutered
	}
	if i < 0 || i >= len(slots) {
		return nil, cordbg.StatusInvalidArg
	}
	if slots[i].fail {
		return nil, cordbg.StatusUnavailable
	}
	return &valueView{d: slots[i], th: o.d.thread(), gen: o.gen}, cordbg.StatusOK
}

// ilExOps adds the extended IL capability (multiple code
// representations per method).
type ilExOps struct {
	d   *frameData
	gen uint64
}

func (o *ilExOps) stale() bool {
	return o.gen != o.d.thread().gen
}

func (o *ilExOps) localsFor(kind cordbg.ILCodeKind) ([]*slotData, cordbg.Status) {
	switch kind {
	case cordbg.ILCodeOriginal:
		return o.d.locals, cordbg.StatusOK
	case cordbg.ILCodeReJIT:
		if o.d.rejitCode == nil {
			return nil, cordbg.StatusInvalidArg
		}
		return o.d.rejitLocals, cordbg.StatusOK
	}
	return nil, cordbg.StatusInvalidArg
}

func (o *ilExOps) LocalCountEx(kind cordbg.ILCodeKind) (int, cordbg.Status) {
	if o.stale() {
		return 0, cordbg.StatusNeutered
	}
	slots, st := o.localsFor(kind)
	if st.Failed() {
		return 0, st
	}
	return len(slots), cordbg.StatusOK
}

func (o *ilExOps) LocalEx(kind cordbg.ILCodeKind, i int) (cordbg.Value, cordbg.Status) {
	if o.stale() {
		return nil, cordbg.StatusNeutered
	}
	slots, st := o.localsFor(kind)
	if st.Failed() {
		return nil, st
	}
	if i < 0 || i >= len(slots) {
		return nil, cordbg.StatusInvalidArg
	}
	if slots[i].fail {
		return nil, cordbg.StatusUnavailable
	}
	return &valueView{d: slots[i], th: o.d.thread(), gen: o.gen}, cordbg.StatusOK
}

func (o *ilExOps) CodeEx(kind cordbg.ILCodeKind) (cordbg.Code, cordbg.Status) {
	if o.stale() {
		return nil, cordbg.StatusNeutered
	}
	switch kind {
	case cordbg.ILCodeOriginal:
		if o.d.ilCode == nil {
			return nil, cordbg.StatusFail
		}
		return &codeView{d: o.d.ilCode, th: o.d.thread(), gen: o.gen}, cordbg.StatusOK
	case cordbg.ILCodeReJIT:
		if o.d.rejitCode == nil {
			return nil, cordbg.StatusInvalidArg
		}
		return &codeView{d: o.d.rejitCode, th: o.d.thread(), gen: o.gen}, cordbg.StatusOK
	}
	return nil, cordbg.StatusInvalidArg
}

// nativeOps adds the machine code capability.
type nativeOps struct {
	d   *frameData
	gen uint64
}

func (o *nativeOps) stale() bool {
	return o.gen != o.d.thread().gen
}

func (o *nativeOps) NativeIP() (uint32, cordbg.Status) {
	if o.stale() {
		return 0, cordbg.StatusNeutered
	}
	return o.d.nativeIP, cordbg.StatusOK
}

func (o *nativeOps) SetNativeIP(offset uint32) cordbg.Status {
	if o.stale() {
		return cordbg.StatusNeutered
	}
	if size := o.d.nativeCode.size; size > 0 && offset >= size {
		return cordbg.StatusInvalidArg
	}
	o.d.nativeIP = offset
	o.d.thread().invalidate()
	return cordbg.StatusOK
}

func (o *nativeOps) CanSetNativeIP(offset uint32) cordbg.Status {
	if o.stale() {
		return cordbg.StatusNeutered
	}
	if size := o.d.nativeCode.size; size > 0 && offset >= size {
		return cordbg.StatusInvalidArg
	}
	return cordbg.StatusOK
}

func (o *nativeOps) CodeBytes(offset uint32, n int) ([]byte, cordbg.Status) {
	if o.stale() {
		return nil, cordbg.StatusNeutered
	}
	code := o.d.nativeCode.bytes
	if int(offset) > len(code) || n < 0 {
		return nil, cordbg.StatusInvalidArg
	}
	end := int(offset) + n
	if end > len(code) {
		end = len(code)
	}
	return code[offset:end], cordbg.StatusOK
}

func (o *nativeOps) RegisterSet() (cordbg.RegisterSet, cordbg.Status) {
	if o.stale() {
		return nil, cordbg.StatusNeutered
	}
	return &registersView{d: o.d, gen: o.gen}, cordbg.StatusOK
}

// typeParamOps adds the generic parameter cursor.
type typeParamOps struct {
	d   *frameData
	gen uint64
}

func (o *typeParamOps) stale() bool {
	return o.gen != o.d.thread().gen
}

func (o *typeParamOps) TypeParamCount() (int, cordbg.Status) {
	if o.stale() {
		return 0, cordbg.StatusNeutered
	}
	return len(o.d.typeParams), cordbg.StatusOK
}

func (o *typeParamOps) TypeParam(i int) (cordbg.Type, cordbg.Status) {
	if o.stale() {
		return nil, cordbg.StatusNeutered
	}
	if i < 0 || i >= len(o.d.typeParams) {
		return nil, cordbg.StatusInvalidArg
	}
	if o.d.typeParams[i].fail {
		return nil, cordbg.StatusFail
	}
	return &typeView{d: o.d.typeParams[i], th: o.d.thread(), gen: o.gen}, cordbg.StatusOK
}

// internalOps marks runtime-internal frames.
type internalOps struct {
	d   *frameData
	gen uint64
}

func (o *internalOps) InternalKind() (uint32, cordbg.Status) {
	if o.gen != o.d.thread().gen {
		return 0, cordbg.StatusNeutered
	}
	return o.d.spec.InternalKind, cordbg.StatusOK
}

// unwindableOps marks runtime-unwindable frames.
type unwindableOps struct{}

func (unwindableOps) RuntimeUnwindable() {}

// Capability combos. Exactly one of these is instantiated per frame,
// based on its spec.
type basicFrame struct {
	frameCore
}

type internalFrame struct {
	frameCore
	internalOps
}

type unwindableFrame struct {
	frameCore
	unwindableOps
}

type ilFrame struct {
	frameCore
	ilOps
	typeParamOps
}

type ilFrame4 struct {
	frameCore
	ilOps
	ilExOps
	typeParamOps
}

type nativeFrame struct {
	frameCore
	nativeOps
}

type jitFrame struct {
	frameCore
	ilOps
	nativeOps
	typeParamOps
}

type jitFrame4 struct {
	frameCore
	ilOps
	ilExOps
	nativeOps
	typeParamOps
}

// newFrameHandle issues a fresh frame handle bound to the given
// snapshot generation.
func newFrameHandle(fd *frameData, gen uint64) cordbg.Frame {
	core := frameCore{d: fd, gen: gen}
	spec := fd.spec
	switch {
	case spec.Internal:
		return &internalFrame{core, internalOps{fd, gen}}
	case spec.Unwindable:
		return &unwindableFrame{core, unwindableOps{}}
	case spec.IL != nil && spec.Native != nil && spec.IL.Extended:
		return &jitFrame4{core, ilOps{fd, gen}, ilExOps{fd, gen}, nativeOps{fd, gen}, typeParamOps{fd, gen}}
	case spec.IL != nil && spec.Native != nil:
		return &jitFrame{core, ilOps{fd, gen}, nativeOps{fd, gen}, typeParamOps{fd, gen}}
	case spec.IL != nil && spec.IL.Extended:
		return &ilFrame4{core, ilOps{fd, gen}, ilExOps{fd, gen}, typeParamOps{fd, gen}}
	case spec.IL != nil:
		return &ilFrame{core, ilOps{fd, gen}, typeParamOps{fd, gen}}
	case spec.Native != nil:
		return &nativeFrame{core, nativeOps{fd, gen}}
	}
	return &basicFrame{core}
}
