// Package simdbg implements an in-memory scripted debuggee satisfying
// the raw contracts of pkg/cordbg. It exists so the frame layer can be
// exercised without a live runtime: stacks are described by a snapshot
// (in code or loaded from YAML) and the asynchronous invalidation
// hazard is made deterministic through Resume and SetIP, both of which
// neuter every handle handed out for the affected threads.
package simdbg

import (
	"fmt"
	"sync"

	"github.com/pockees/dnSpy/pkg/cordbg"
)

// Debuggee is a scripted process. It owns all the simulated remote
// objects; handles handed out by it are views that go stale when the
// owning thread's stack is invalidated.
type Debuggee struct {
	mu      sync.Mutex
	nextID  uint64
	threads []*Thread
	modules map[string]*moduleData

	// Meta carries the snapshot's metadata tables for the caller to
	// feed into a metadata reader. The debuggee itself never reads it.
	Meta MetadataSpec
}

// Thread is one simulated debuggee thread. Its stack is fixed at
// construction; what changes over time is the validity of the handles
// it has handed out.
type Thread struct {
	dbg *Debuggee
	id  int

	// gen counts stack invalidations. A handle is valid only while its
	// captured generation matches.
	gen    uint64
	chains []*chainData
}

func (d *Debuggee) newID() uint64 {
	d.nextID++
	return d.nextID
}

// Threads returns the debuggee's threads.
func (d *Debuggee) Threads() []*Thread {
	return d.threads
}

// Thread returns the thread with the given id, nil if there is none.
func (d *Debuggee) Thread(id int) *Thread {
	for _, th := range d.threads {
		if th.id == id {
			return th
		}
	}
	return nil
}

// Resume lets the scripted process run: every frame and chain handle
// previously handed out, on every thread, is neutered.
func (d *Debuggee) Resume() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, th := range d.threads {
		th.gen++
	}
}

// ID returns the thread id.
func (th *Thread) ID() int {
	return th.id
}

// invalidate neuters every stack handle previously handed out for this
// thread. Callers must re-walk the stack to obtain usable handles.
func (th *Thread) invalidate() {
	th.gen++
}

// Chains walks the thread's chains, callee-most first, returning fresh
// handles bound to the current snapshot generation.
func (th *Thread) Chains() []cordbg.Chain {
	chains := make([]cordbg.Chain, len(th.chains))
	for i, cd := range th.chains {
		chains[i] = &chainView{d: cd, gen: th.gen}
	}
	return chains
}

// Frames walks the thread's whole stack, callee-most frame first,
// returning fresh handles bound to the current snapshot generation.
func (th *Thread) Frames() []cordbg.Frame {
	var frames []cordbg.Frame
	for _, cd := range th.chains {
		for _, fd := range cd.frames {
			frames = append(frames, newFrameHandle(fd, th.gen))
		}
	}
	return frames
}

// chainData is the remote chain object.
type chainData struct {
	id      uint64
	th      *Thread
	index   int // position within th.chains, callee-most first
	reason  cordbg.ChainReason
	managed bool
	frames  []*frameData // callee-most first
}

// frameData is the remote frame object.
type frameData struct {
	id    uint64
	ch    *chainData
	index int // position within the flattened thread stack, leaf first
	spec  FrameSpec

	ilIP      uint32
	ilMapping cordbg.MappingResult
	nativeIP  uint32
	regsID    uint64

	args        []*slotData
	locals      []*slotData
	rejitLocals []*slotData
	typeParams  []*typeData

	fn         *functionData
	ilCode     *codeData
	rejitCode  *codeData
	nativeCode *codeData
}

func (fd *frameData) thread() *Thread {
	return fd.ch.th
}

type slotData struct {
	id       uint64
	typeName string
	repr     string
	fail     bool
}

type typeData struct {
	id    uint64
	name  string
	token uint32
	fail  bool
}

type functionData struct {
	id         uint64
	token      uint32
	classToken uint32
	module     *moduleData
}

type codeData struct {
	id      uint64
	isIL    bool
	address uint64
	size    uint32
	bytes   []byte
}

type moduleData struct {
	id   uint64
	name string
}

func (d *Debuggee) module(name string) *moduleData {
	if name == "" {
		return nil
	}
	if m, ok := d.modules[name]; ok {
		return m
	}
	m := &moduleData{id: d.newID(), name: name}
	d.modules[name] = m
	return m
}

// New builds a debuggee from a snapshot description.
func New(snap *Snapshot) (*Debuggee, error) {
	d := &Debuggee{modules: make(map[string]*moduleData), Meta: snap.Metadata}
	for _, ts := range snap.Threads {
		th := &Thread{dbg: d, id: ts.ID}
		frameIndex := 0
		for ci, cs := range ts.Chains {
			reason, err := parseChainReason(cs.Reason)
			if err != nil {
				return nil, fmt.Errorf("thread %d chain %d: %v", ts.ID, ci, err)
			}
			cd := &chainData{id: d.newID(), th: th, index: ci, reason: reason, managed: cs.Managed}
			for fi := range cs.Frames {
				fd, err := d.newFrameData(cd, cs.Frames[fi])
				if err != nil {
					return nil, fmt.Errorf("thread %d chain %d frame %d: %v", ts.ID, ci, fi, err)
				}
				fd.index = frameIndex
				frameIndex++
				cd.frames = append(cd.frames, fd)
			}
			th.chains = append(th.chains, cd)
		}
		d.threads = append(d.threads, th)
	}
	return d, nil
}

func (d *Debuggee) newFrameData(cd *chainData, spec FrameSpec) (*frameData, error) {
	fd := &frameData{id: d.newID(), ch: cd, spec: spec}
	fd.fn = &functionData{
		id:         d.newID(),
		token:      spec.Token,
		classToken: spec.ClassToken,
		module:     d.module(spec.Module),
	}
	if il := spec.IL; il != nil {
		mapping, err := ParseMapping(il.Mapping)
		if err != nil {
			return nil, err
		}
		fd.ilIP = il.IP
		fd.ilMapping = mapping
		fd.args = d.newSlots(il.Args)
		fd.locals = d.newSlots(il.Locals)
		fd.ilCode = &codeData{id: d.newID(), isIL: true, size: il.BodySize}
		if il.Extended && il.ReJITBodySize > 0 {
			fd.rejitLocals = d.newSlots(il.ReJITLocals)
			fd.rejitCode = &codeData{id: d.newID(), isIL: true, size: il.ReJITBodySize}
		}
	}
	if n := spec.Native; n != nil {
		code, err := n.codeBytes()
		if err != nil {
			return nil, err
		}
		fd.nativeIP = n.IP
		fd.nativeCode = &codeData{id: d.newID(), address: n.Address, size: uint32(len(code)), bytes: code}
		fd.regsID = d.newID()
	}
	for _, tp := range spec.TypeParams {
		fd.typeParams = append(fd.typeParams, &typeData{id: d.newID(), name: tp.Name, token: tp.Token, fail: tp.Fail})
	}
	return fd, nil
}

func (d *Debuggee) newSlots(specs []SlotSpec) []*slotData {
	slots := make([]*slotData, len(specs))
	for i, s := range specs {
		slots[i] = &slotData{id: d.newID(), typeName: s.Type, repr: s.Value, fail: s.Fail}
	}
	return slots
}
