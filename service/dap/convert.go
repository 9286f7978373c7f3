// Package dap converts debuggee stack frames to Debug Adapter Protocol
// types. It maps frame handle identities to small DAP frame ids through
// a handles table so that repeated stack requests hand out stable ids.
package dap

import (
	"fmt"

	"github.com/google/go-dap"

	"github.com/pockees/dnSpy/pkg/dndbg"
	"github.com/pockees/dnSpy/service/api"
)

// startHandle is the first id handed out for a frame. DAP reserves 0.
const startHandle = 1000

// handlesMap allocates small ids for frame handles, reusing the id for
// a handle already seen.
type handlesMap struct {
	nextHandle  int
	handleToVal map[int]uint64
	valToHandle map[uint64]int
}

func newHandlesMap() *handlesMap {
	return &handlesMap{
		nextHandle:  startHandle,
		handleToVal: make(map[int]uint64),
		valToHandle: make(map[uint64]int),
	}
}

func (hs *handlesMap) create(value uint64) int {
	if h, ok := hs.valToHandle[value]; ok {
		return h
	}
	next := hs.nextHandle
	hs.nextHandle++
	hs.handleToVal[next] = value
	hs.valToHandle[value] = next
	return next
}

func (hs *handlesMap) get(handle int) (uint64, bool) {
	v, ok := hs.handleToVal[handle]
	return v, ok
}

func (hs *handlesMap) reset() {
	hs.nextHandle = startHandle
	hs.handleToVal = make(map[int]uint64)
	hs.valToHandle = make(map[uint64]int)
}

// Converter turns frame wrappers into DAP stack frames.
type Converter struct {
	resolver dndbg.NameResolver
	handles  *handlesMap
}

func NewConverter(resolver dndbg.NameResolver) *Converter {
	return &Converter{resolver: resolver, handles: newHandlesMap()}
}

// Reset drops all allocated frame ids. Call between stops, when the
// previous handles have gone stale anyway.
func (c *Converter) Reset() {
	c.handles.reset()
}

// FrameHandleID returns the debuggee handle identity behind a DAP frame
// id previously returned by StackTrace.
func (c *Converter) FrameHandleID(dapID int) (uint64, bool) {
	return c.handles.get(dapID)
}

// StackTrace converts frames to a DAP stack trace response body,
// windowed by startFrame and levels the way the protocol specifies:
// levels == 0 means all remaining frames, and TotalFrames always
// reports the full count.
func (c *Converter) StackTrace(frames []*dndbg.Frame, startFrame, levels int) dap.StackTraceResponseBody {
	if startFrame < 0 {
		startFrame = 0
	}
	converted := make([]dap.StackFrame, 0, len(frames))
	for _, f := range frames {
		converted = append(converted, c.convertFrame(f))
	}
	if startFrame < len(converted) {
		converted = converted[startFrame:]
	} else {
		converted = nil
	}
	if levels > 0 && levels < len(converted) {
		converted = converted[:levels]
	}
	return dap.StackTraceResponseBody{
		StackFrames: converted,
		TotalFrames: len(frames),
	}
}

func (c *Converter) convertFrame(f *dndbg.Frame) dap.StackFrame {
	af := api.ConvertFrame(f, c.resolver)

	name := af.Function
	switch {
	case af.Internal:
		name = "[internal frame]"
	case af.Unwindable:
		name = "[runtime unwindable frame]"
	case name == "":
		name = fmt.Sprintf("method_%08X", af.FunctionToken)
	}
	if len(af.GenericArgs) > 0 {
		name += "<"
		for i, arg := range af.GenericArgs {
			if i > 0 {
				name += ", "
			}
			name += arg
		}
		name += ">"
	}

	sf := dap.StackFrame{
		Id:   c.handles.create(af.ID),
		Name: name,
	}
	if af.Module != "" {
		sf.Source = &dap.Source{Name: af.Module, Path: af.Module}
		sf.ModuleId = af.Module
	}
	if af.ILFrame {
		// DAP has no IL offset field; surface it as the line so
		// clients show where in the method body the frame sits.
		sf.Line = int(af.ILOffset)
		sf.InstructionPointerReference = fmt.Sprintf("IL_%04x", af.ILOffset)
	} else if af.NativeFrame {
		sf.InstructionPointerReference = fmt.Sprintf("%#x", af.NativeIP)
	}
	if af.Internal || af.Unwindable || af.Neutered {
		sf.PresentationHint = "subtle"
	}
	return sf
}
