package simdbg

import (
	"testing"

	"github.com/pockees/dnSpy/pkg/cordbg"
)

func twoFrameSnapshot() *Snapshot {
	return &Snapshot{
		Threads: []ThreadSpec{
			{ID: 7, Chains: []ChainSpec{{
				Reason:  "enter-managed",
				Managed: true,
				Frames: []FrameSpec{
					{Token: 0x06000010, StackStart: 0x100, StackEnd: 0x140,
						IL: &ILSpec{IP: 2, BodySize: 0x20}},
					{Token: 0x06000011, StackStart: 0x140, StackEnd: 0x180,
						IL: &ILSpec{IP: 9, Mapping: "approximate", BodySize: 0x20}},
				},
			}}},
		},
	}
}

func TestHandleGenerations(t *testing.T) {
	d, err := New(twoFrameSnapshot())
	if err != nil {
		t.Fatal(err)
	}
	th := d.Thread(7)
	old := th.Frames()

	d.Resume()

	if _, st := old[0].Chain(); !st.Neutered() {
		t.Errorf("stale frame chain status = %#x, want neutered", uint32(st))
	}
	if _, st := old[1].FunctionToken(); !st.Neutered() {
		t.Errorf("stale frame token status = %#x, want neutered", uint32(st))
	}

	fresh := th.Frames()
	if _, st := fresh[0].Chain(); st.Failed() {
		t.Errorf("fresh frame chain status = %#x", uint32(st))
	}
	if old[0].HandleID() != fresh[0].HandleID() {
		t.Error("handle identity changed across walks of the same frame")
	}
}

func TestSetILIPInvalidatesThread(t *testing.T) {
	d, err := New(twoFrameSnapshot())
	if err != nil {
		t.Fatal(err)
	}
	th := d.Thread(7)
	frames := th.Frames()

	ilf, ok := frames[0].(cordbg.ILFrame)
	if !ok {
		t.Fatal("frame 0 does not implement the IL extension")
	}
	if st := ilf.SetILIP(0x1f); st.Failed() {
		t.Fatalf("SetILIP status = %#x", uint32(st))
	}
	if _, st := frames[1].Chain(); !st.Neutered() {
		t.Error("sibling frame survived SetILIP")
	}

	// Out of body offsets are rejected without touching the snapshot.
	fresh := th.Frames()
	ilf = fresh[0].(cordbg.ILFrame)
	if st := ilf.SetILIP(0x20); !st.Failed() {
		t.Error("SetILIP accepted an offset past the body")
	}
	if _, st := fresh[1].Chain(); st.Failed() {
		t.Error("rejected SetILIP invalidated the snapshot")
	}
}

func TestCapabilityProbing(t *testing.T) {
	d, err := New(&Snapshot{Threads: []ThreadSpec{{ID: 1, Chains: []ChainSpec{{
		Frames: []FrameSpec{
			{IL: &ILSpec{BodySize: 1}, Native: &NativeSpec{}},
			{IL: &ILSpec{BodySize: 1, Extended: true, ReJITBodySize: 1}, Native: &NativeSpec{}},
			{Native: &NativeSpec{}},
			{Internal: true},
			{Unwindable: true},
			{},
		},
	}}}}})
	if err != nil {
		t.Fatal(err)
	}
	frames := d.Thread(1).Frames()

	assertIs := func(i int, il, il4, native, internal, unwindable bool) {
		t.Helper()
		f := frames[i]
		if _, ok := f.(cordbg.ILFrame); ok != il {
			t.Errorf("frame %d: ILFrame = %v, want %v", i, ok, il)
		}
		if _, ok := f.(cordbg.ILFrame4); ok != il4 {
			t.Errorf("frame %d: ILFrame4 = %v, want %v", i, ok, il4)
		}
		if _, ok := f.(cordbg.NativeFrame); ok != native {
			t.Errorf("frame %d: NativeFrame = %v, want %v", i, ok, native)
		}
		if _, ok := f.(cordbg.InternalFrame); ok != internal {
			t.Errorf("frame %d: InternalFrame = %v, want %v", i, ok, internal)
		}
		if _, ok := f.(cordbg.RuntimeUnwindableFrame); ok != unwindable {
			t.Errorf("frame %d: RuntimeUnwindableFrame = %v, want %v", i, ok, unwindable)
		}
	}
	assertIs(0, true, false, true, false, false)
	assertIs(1, true, true, true, false, false)
	assertIs(2, false, false, true, false, false)
	assertIs(3, false, false, false, true, false)
	assertIs(4, false, false, false, false, true)
	assertIs(5, false, false, false, false, false)
}

func TestParseMapping(t *testing.T) {
	for in, want := range map[string]cordbg.MappingResult{
		"":                cordbg.MappingExact,
		"exact":           cordbg.MappingExact,
		"approximate":     cordbg.MappingApproximate,
		"prolog":          cordbg.MappingProlog,
		"epilog":          cordbg.MappingEpilog,
		"no-info":         cordbg.MappingNoInfo,
		"unmapped":        cordbg.MappingUnmappedAddress,
		"after-tail-call": cordbg.MappingAfterTailCall,
	} {
		got, err := ParseMapping(in)
		if err != nil {
			t.Errorf("ParseMapping(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseMapping(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseMapping("sideways"); err == nil {
		t.Error("bad mapping accepted")
	}
}

func TestLoadSnapshotFile(t *testing.T) {
	dbg, err := Load("../../../_fixtures/stack.yml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	th := dbg.Thread(1)
	if th == nil {
		t.Fatal("thread 1 missing")
	}
	chains := th.Chains()
	if len(chains) != 2 {
		t.Fatalf("len(chains) = %d, want 2", len(chains))
	}
	frames := th.Frames()
	if len(frames) != 3 {
		t.Fatalf("len(frames) = %d, want 3", len(frames))
	}
	if tok, st := frames[0].FunctionToken(); st.Failed() || tok != 0x06000123 {
		t.Errorf("frame 0 token = %#x (status %v)", tok, st)
	}
	if managed, st := chains[1].IsManaged(); st.Failed() || managed {
		t.Errorf("chain 1 managed = %v (status %v)", managed, st)
	}
	if len(dbg.Meta.Modules) != 1 || dbg.Meta.Modules[0].Name != "app.dll" {
		t.Errorf("metadata modules = %+v", dbg.Meta.Modules)
	}
}
