package dndbg_test

import (
	"strings"
	"testing"

	"github.com/pockees/dnSpy/pkg/cordbg"
	"github.com/pockees/dnSpy/pkg/cordbg/simdbg"
	"github.com/pockees/dnSpy/pkg/dndbg"
	"github.com/pockees/dnSpy/pkg/metadata"
)

// testSnapshot builds a debuggee with one thread whose stack exercises
// every frame kind: a JIT-compiled leaf, an extended IL frame, a
// native-only frame, an internal frame, an unwindable marker and a
// frame whose identity queries fail.
func testSnapshot() *simdbg.Snapshot {
	return &simdbg.Snapshot{
		Threads: []simdbg.ThreadSpec{
			{
				ID: 1,
				Chains: []simdbg.ChainSpec{
					{
						Reason:  "enter-managed",
						Managed: true,
						Frames: []simdbg.FrameSpec{
							{
								Token:      0x06000123,
								ClassToken: 0x02000007,
								Module:     "app.dll",
								StackStart: 0x1000,
								StackEnd:   0x1040,
								IL: &simdbg.ILSpec{
									IP:       0xc,
									Mapping:  "exact",
									BodySize: 0x40,
									Args: []simdbg.SlotSpec{
										{Type: "App.Dict`1", Value: "{App.Dict`1}"},
										{Type: "System.String", Value: `"answer"`},
									},
									Locals: []simdbg.SlotSpec{
										{Type: "System.Int32", Value: "42"},
										{Type: "System.String", Value: `"x"`},
										{Fail: true},
										{Type: "System.Boolean", Value: "true"},
										{Type: "System.Object", Value: "null"},
									},
								},
								Native: &simdbg.NativeSpec{
									IP:      0x4,
									Address: 0x7ffd1000,
									Code:    "554889e54883ec20c3",
								},
								TypeParams: []simdbg.TypeParamSpec{
									{Name: "System.String", Token: 0x01000010},
									{Name: "System.Int32", Token: 0x01000011},
									{Name: "System.Boolean", Token: 0x01000012},
								},
							},
							{
								Token:      0x06000200,
								ClassToken: 0x02000002,
								Module:     "app.dll",
								StackStart: 0x1040,
								StackEnd:   0x1080,
								IL: &simdbg.ILSpec{
									IP:            0x30,
									Mapping:       "approximate",
									BodySize:      0x80,
									Locals:        []simdbg.SlotSpec{{Type: "System.Int32", Value: "7"}},
									Extended:      true,
									ReJITBodySize: 0x90,
									ReJITLocals: []simdbg.SlotSpec{
										{Type: "System.Int32", Value: "7"},
										{Type: "System.Int64", Value: "99"},
									},
								},
							},
						},
					},
					{
						Reason: "enter-unmanaged",
						Frames: []simdbg.FrameSpec{
							{
								Token:      0x06000300,
								StackStart: 0x1080,
								StackEnd:   0x10c0,
								Native: &simdbg.NativeSpec{
									IP:   0x4,
									Code: "4831c0c3",
								},
							},
							{Internal: true, InternalKind: 3, StackStart: 0x10c0, StackEnd: 0x1100},
							{Unwindable: true, StackStart: 0x1100, StackEnd: 0x1140},
						},
					},
					{
						Reason:  "thread-start",
						Managed: true,
						Frames: []simdbg.FrameSpec{
							{FailIdentity: true, Token: 0x06000400, StackStart: 0x1140, StackEnd: 0x1180},
						},
					},
				},
			},
		},
		Metadata: simdbg.MetadataSpec{
			Modules: []simdbg.ModuleSpec{
				{
					Name: "app.dll",
					Types: []simdbg.TokenSpec{
						{Token: 0x02000007, Name: "App.Dict`1", GenericParams: 1},
						{Token: 0x02000002, Name: "App.Program", GenericParams: 0},
					},
					Methods: []simdbg.TokenSpec{
						{Token: 0x06000123, Name: "App.Dict`1.TryGet", GenericParams: 2},
						{Token: 0x06000200, Name: "App.Program.Main", GenericParams: 0},
					},
				},
			},
		},
	}
}

func startDebuggee(t *testing.T) *simdbg.Debuggee {
	t.Helper()
	d, err := simdbg.New(testSnapshot())
	if err != nil {
		t.Fatalf("building debuggee: %v", err)
	}
	return d
}

func walkFrames(t *testing.T, d *simdbg.Debuggee) []*dndbg.Frame {
	t.Helper()
	raws := d.Thread(1).Frames()
	frames := make([]*dndbg.Frame, len(raws))
	for i, raw := range raws {
		frames[i] = dndbg.NewFrame(raw)
	}
	return frames
}

func testStore(t *testing.T, d *simdbg.Debuggee) *metadata.Store {
	t.Helper()
	store, err := metadata.NewStore(metadata.FromSnapshot(d.Meta), 0)
	if err != nil {
		t.Fatalf("building metadata store: %v", err)
	}
	return store
}

func TestFrameIdentity(t *testing.T) {
	d := startDebuggee(t)

	// Two independent walks of the same stopped stack produce distinct
	// wrapper instances around the same debuggee-side frames.
	first := walkFrames(t, d)
	second := walkFrames(t, d)

	for i := range first {
		if !first[i].Equal(second[i]) {
			t.Errorf("frame %d: independently constructed wrappers not equal", i)
		}
		if first[i].HandleID() != second[i].HandleID() {
			t.Errorf("frame %d: handle ids differ: %#x vs %#x", i, first[i].HandleID(), second[i].HandleID())
		}
	}
	if first[0].Equal(first[1]) {
		t.Error("wrappers of distinct frames compare equal")
	}
	if first[0].Equal(nil) {
		t.Error("frame equal to nil")
	}
}

func TestSentinelDefaultsOnFailedConstruction(t *testing.T) {
	d := startDebuggee(t)
	frames := walkFrames(t, d)
	f := frames[5] // identity queries fail

	if tok := f.FunctionToken(); tok != 0 {
		t.Errorf("function token = %#x, want 0 sentinel", tok)
	}
	start, end := f.StackRange()
	if start != 0 || end != 0 {
		t.Errorf("stack range = (%#x, %#x), want (0, 0) sentinel", start, end)
	}
}

func TestKindConsistency(t *testing.T) {
	d := startDebuggee(t)
	for i, f := range walkFrames(t, d) {
		want := f.IsILFrame() && f.IsNativeFrame()
		if got := f.IsJITCompiledFrame(); got != want {
			t.Errorf("frame %d: IsJITCompiledFrame = %v, IsILFrame && IsNativeFrame = %v", i, got, want)
		}
	}
}

func TestFrameKinds(t *testing.T) {
	d := startDebuggee(t)
	frames := walkFrames(t, d)

	tests := []struct {
		i                              int
		il, native, internal, unwindable bool
	}{
		{0, true, true, false, false},
		{1, true, false, false, false},
		{2, false, true, false, false},
		{3, false, false, true, false},
		{4, false, false, false, true},
		{5, false, false, false, false},
	}
	for _, tc := range tests {
		f := frames[tc.i]
		if f.IsILFrame() != tc.il {
			t.Errorf("frame %d: IsILFrame = %v, want %v", tc.i, f.IsILFrame(), tc.il)
		}
		if f.IsNativeFrame() != tc.native {
			t.Errorf("frame %d: IsNativeFrame = %v, want %v", tc.i, f.IsNativeFrame(), tc.native)
		}
		if f.IsInternalFrame() != tc.internal {
			t.Errorf("frame %d: IsInternalFrame = %v, want %v", tc.i, f.IsInternalFrame(), tc.internal)
		}
		if f.IsRuntimeUnwindableFrame() != tc.unwindable {
			t.Errorf("frame %d: IsRuntimeUnwindableFrame = %v, want %v", tc.i, f.IsRuntimeUnwindableFrame(), tc.unwindable)
		}
	}
}

func TestNavigation(t *testing.T) {
	d := startDebuggee(t)
	frames := walkFrames(t, d)

	if callee := frames[0].Callee(); callee != nil {
		t.Errorf("leaf frame has callee %v", callee)
	}
	caller := frames[0].Caller()
	if caller == nil {
		t.Fatal("leaf frame has no caller")
	}
	if !caller.Equal(frames[1]) {
		t.Error("caller of leaf is not the next frame")
	}
	if callee := frames[1].Callee(); callee == nil || !callee.Equal(frames[0]) {
		t.Error("callee of frame 1 is not the leaf")
	}
	if caller := frames[5].Caller(); caller != nil {
		t.Errorf("root frame has caller %v", caller)
	}

	chain := frames[0].Chain()
	if chain == nil {
		t.Fatal("frame 0 has no chain")
	}
	if !chain.IsManaged() {
		t.Error("frame 0 chain not managed")
	}
	if reason := chain.Reason(); reason != cordbg.ChainEnterManaged {
		t.Errorf("chain reason = %v, want enter managed", reason)
	}
	if !chain.Equal(frames[1].Chain()) {
		t.Error("frames 0 and 1 report different chains")
	}
	if chain.Equal(frames[2].Chain()) {
		t.Error("frames 0 and 2 report the same chain")
	}

	unmanaged := frames[2].Chain()
	if unmanaged == nil {
		t.Fatal("frame 2 has no chain")
	}
	if callee := unmanaged.Callee(); callee == nil || !callee.Equal(chain) {
		t.Error("callee chain of the unmanaged chain is not the managed leaf chain")
	}
	if got := chain.Frames().Count(); got != 2 {
		t.Errorf("managed chain frame count = %d, want 2", got)
	}
	chainFrames := chain.Frames().Slice()
	if !chainFrames[0].Equal(frames[0]) || !chainFrames[1].Equal(frames[1]) {
		t.Error("chain frames are not callee-most first")
	}
}

func TestInstructionPointers(t *testing.T) {
	d := startDebuggee(t)
	frames := walkFrames(t, d)

	ip := frames[0].ILIP()
	if ip.Offset != 0xc || ip.Mapping != cordbg.MappingExact {
		t.Errorf("frame 0 IL IP = %+v, want offset 0xc exact", ip)
	}
	if !ip.IsExact() {
		t.Error("exact mapping reported as not exact")
	}
	if got := frames[0].NativeIP(); got != 0x4 {
		t.Errorf("frame 0 native IP = %#x, want 0x4", got)
	}
	ip = frames[1].ILIP()
	if ip.Offset != 0x30 || ip.Mapping != cordbg.MappingApproximate {
		t.Errorf("frame 1 IL IP = %+v, want offset 0x30 approximate", ip)
	}
}

func TestCanSetIPIsAdvisory(t *testing.T) {
	d := startDebuggee(t)
	frames := walkFrames(t, d)

	if !frames[0].CanSetILFrameIP(0x10) {
		t.Error("in-body IL offset reported infeasible")
	}
	if frames[0].CanSetILFrameIP(0x1000) {
		t.Error("out-of-body IL offset reported feasible")
	}
	if !frames[0].CanSetNativeFrameIP(0x4) {
		t.Error("in-body native offset reported infeasible")
	}
	// A successful probe must not commit anything: the snapshot is
	// still valid afterward.
	if frames[0].IsNeutered() {
		t.Error("CanSet probe invalidated the snapshot")
	}
}

func TestSetIPInvalidatesSnapshot(t *testing.T) {
	d := startDebuggee(t)
	frames := walkFrames(t, d)
	sibling := frames[1]

	if !frames[0].SetILFrameIP(0x10) {
		t.Fatal("SetILFrameIP failed")
	}
	// Every previously obtained frame for the thread is poisoned, the
	// relocated one included.
	if sibling.Chain() != nil {
		t.Error("sibling frame still resolves its chain after SetIP")
	}
	if !sibling.IsNeutered() {
		t.Error("sibling frame not neutered after SetIP")
	}
	if !frames[0].IsNeutered() {
		t.Error("relocated frame not neutered after SetIP")
	}

	// A fresh walk observes the relocated instruction pointer.
	fresh := walkFrames(t, d)
	ip := fresh[0].ILIP()
	if ip.Offset != 0x10 || ip.Mapping != cordbg.MappingExact {
		t.Errorf("fresh walk IL IP = %+v, want offset 0x10 exact", ip)
	}
}

func TestResumeNeutersHandles(t *testing.T) {
	d := startDebuggee(t)
	frames := walkFrames(t, d)
	chain := frames[0].Chain()

	d.Resume()

	for i, f := range frames {
		if !f.IsNeutered() {
			t.Errorf("frame %d alive after resume", i)
		}
		if f.Chain() != nil {
			t.Errorf("frame %d still resolves its chain after resume", i)
		}
	}
	if chain.Callee() != nil || chain.Frames().Count() != 0 {
		t.Error("stale chain still answers queries after resume")
	}
	if got := frames[0].ILLocals().Count(); got != 0 {
		t.Errorf("stale frame enumerates %d locals after resume", got)
	}
}

func TestFailedSetIPDoesNotInvalidate(t *testing.T) {
	d := startDebuggee(t)
	frames := walkFrames(t, d)

	if frames[0].SetILFrameIP(0x5000) {
		t.Fatal("out-of-body SetILFrameIP succeeded")
	}
	if frames[1].IsNeutered() {
		t.Error("failed SetIP invalidated the snapshot")
	}
}

func TestNonILFrameDegradation(t *testing.T) {
	d := startDebuggee(t)
	f := walkFrames(t, d)[2] // native only

	if got := f.ILLocals().Count(); got != 0 {
		t.Errorf("ILLocals on native frame yields %d slots", got)
	}
	if f.ILLocals().Next() {
		t.Error("ILLocals iterator on native frame advances")
	}
	if got := f.ILArguments().Count(); got != 0 {
		t.Errorf("ILArguments on native frame yields %d slots", got)
	}
	ip := f.ILIP()
	if ip.Offset != 0 || ip.Mapping != cordbg.MappingNoInfo {
		t.Errorf("IL IP on native frame = %+v, want zero/no-info sentinel", ip)
	}
	if f.SetILFrameIP(0) {
		t.Error("SetILFrameIP on native frame succeeded")
	}
	if f.CanSetILFrameIP(0) {
		t.Error("CanSetILFrameIP on native frame reported feasible")
	}
	if f.TypeParameters().Count() != 0 {
		t.Error("native frame enumerates type parameters")
	}
	if f.CodeKind(cordbg.ILCodeOriginal) != nil {
		t.Error("CodeKind on native frame returned a handle")
	}

	// And the other way around: native accessors on an IL-only frame.
	ilOnly := walkFrames(t, d)[1]
	if got := ilOnly.NativeIP(); got != 0 {
		t.Errorf("native IP on IL-only frame = %#x, want 0 sentinel", got)
	}
	if ilOnly.SetNativeFrameIP(0) {
		t.Error("SetNativeFrameIP on IL-only frame succeeded")
	}
	if ilOnly.Disassemble(4) != nil {
		t.Error("Disassemble on IL-only frame returned instructions")
	}
}

func TestLocalsIndexAlignment(t *testing.T) {
	d := startDebuggee(t)
	f := walkFrames(t, d)[0]

	it := f.ILLocals()
	if it.Count() != 5 {
		t.Fatalf("locals count = %d, want 5", it.Count())
	}
	locals := it.Slice()
	if len(locals) != 5 {
		t.Fatalf("locals sequence yields %d elements, want 5", len(locals))
	}
	for i, v := range locals {
		if i == 2 {
			if v != nil {
				t.Errorf("local 2 materialized, want nil absent marker")
			}
			continue
		}
		if v == nil {
			t.Errorf("local %d is nil, want populated", i)
		}
	}
	if locals[0].String() != "42" || locals[0].TypeName() != "System.Int32" {
		t.Errorf("local 0 = %s %s, want System.Int32 42", locals[0].TypeName(), locals[0])
	}

	// The iterator is not restartable: it stays exhausted.
	if it.Next() {
		t.Error("exhausted locals iterator advanced again")
	}
}

func TestILArguments(t *testing.T) {
	d := startDebuggee(t)
	f := walkFrames(t, d)[0]

	args := f.ILArguments().Slice()
	if len(args) != 2 {
		t.Fatalf("arguments yield %d elements, want 2", len(args))
	}
	if args[1].String() != `"answer"` {
		t.Errorf("argument 1 = %s, want \"answer\"", args[1])
	}
}

func TestTypeParameters(t *testing.T) {
	d := startDebuggee(t)
	f := walkFrames(t, d)[0]

	it := f.TypeParameters()
	if it.Count() != 3 {
		t.Fatalf("type parameter count = %d, want 3", it.Count())
	}
	names := []string{}
	for it.Next() {
		th := it.TypeHandle()
		if th == nil {
			t.Fatal("type parameter slot failed to materialize")
		}
		names = append(names, th.Name())
	}
	want := []string{"System.String", "System.Int32", "System.Boolean"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("type parameter %d = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestSplitGenericParameters(t *testing.T) {
	d := startDebuggee(t)
	store := testStore(t, d)
	f := walkFrames(t, d)[0]

	typeArgs, methodArgs, ok := f.SplitGenericParameters(store)
	if !ok {
		t.Fatal("split failed")
	}
	if len(typeArgs)+len(methodArgs) != f.TypeParameters().Count() {
		t.Errorf("split lengths %d+%d do not sum to %d", len(typeArgs), len(methodArgs), f.TypeParameters().Count())
	}
	if len(typeArgs) != 1 || len(methodArgs) != 2 {
		t.Fatalf("split = (%d, %d), want (1, 2)", len(typeArgs), len(methodArgs))
	}
	if typeArgs[0].Name() != "System.String" {
		t.Errorf("type-level argument = %q, want System.String", typeArgs[0].Name())
	}
	if methodArgs[0].Name() != "System.Int32" || methodArgs[1].Name() != "System.Boolean" {
		t.Error("method-level arguments out of order")
	}
}

func TestSplitGenericParametersUnresolvedModule(t *testing.T) {
	d := startDebuggee(t)
	store := testStore(t, d)
	f := walkFrames(t, d)[2] // no module

	typeArgs, methodArgs, ok := f.SplitGenericParameters(store)
	if ok {
		t.Fatal("split succeeded without a resolvable module")
	}
	if typeArgs != nil || methodArgs != nil {
		t.Error("failed split returned partial results")
	}
}

func TestSplitGenericParametersCountMismatchPanics(t *testing.T) {
	d := startDebuggee(t)
	f := walkFrames(t, d)[0]

	// Metadata that disagrees with the runtime about the declared
	// counts signals desynchronization and must not be survivable.
	reader := metadata.NewMapReader()
	reader.AddToken("app.dll", 0x02000007, "App.Dict`1", 2)
	reader.AddToken("app.dll", 0x06000123, "App.Dict`1.TryGet", 2)
	store, err := metadata.NewStore(reader, 0)
	if err != nil {
		t.Fatal(err)
	}

	defer func() {
		if recover() == nil {
			t.Error("count mismatch did not panic")
		}
	}()
	f.SplitGenericParameters(store)
}

func TestJITCompiledFrameScenario(t *testing.T) {
	d := startDebuggee(t)
	f := walkFrames(t, d)[0]

	if f.FunctionToken() != 0x06000123 {
		t.Errorf("function token = %#x, want 0x06000123", f.FunctionToken())
	}
	start, end := f.StackRange()
	if start != 0x1000 || end != 0x1040 {
		t.Errorf("stack range = (%#x, %#x), want (0x1000, 0x1040)", start, end)
	}
	if !f.IsJITCompiledFrame() {
		t.Fatal("frame with IL and native views is not JIT-compiled")
	}
	if f.CodeKind(cordbg.ILCodeOriginal) == nil {
		t.Error("original code representation unavailable")
	}
	// The frame lacks the extended capability, so the instrumented
	// representation is unreachable.
	if f.CodeKind(cordbg.ILCodeReJIT) != nil {
		t.Error("instrumented code representation available without the extended capability")
	}
}

func TestExtendedILFrame(t *testing.T) {
	d := startDebuggee(t)
	f := walkFrames(t, d)[1]

	if f.CodeKind(cordbg.ILCodeOriginal) == nil {
		t.Error("original code representation unavailable")
	}
	rejit := f.CodeKind(cordbg.ILCodeReJIT)
	if rejit == nil {
		t.Fatal("instrumented code representation unavailable on extended frame")
	}
	if !rejit.IsIL() {
		t.Error("instrumented code not marked IL")
	}
	if rejit.Size() != 0x90 {
		t.Errorf("instrumented body size = %#x, want 0x90", rejit.Size())
	}

	if got := f.ILLocalsKind(cordbg.ILCodeReJIT).Count(); got != 2 {
		t.Errorf("instrumented locals count = %d, want 2", got)
	}
	if got := f.ILLocalsKind(cordbg.ILCodeOriginal).Count(); got != 1 {
		t.Errorf("original locals count = %d, want 1", got)
	}
	if v := f.ILLocalKind(cordbg.ILCodeReJIT, 1); v == nil || v.String() != "99" {
		t.Errorf("instrumented local 1 = %v, want 99", v)
	}
	if v := f.ILLocalKind(cordbg.ILCodeReJIT, 5); v != nil {
		t.Error("out of range instrumented local materialized")
	}

	// The non-extended JIT frame degrades instead of failing.
	plain := walkFrames(t, d)[0]
	if got := plain.ILLocalsKind(cordbg.ILCodeReJIT).Count(); got != 0 {
		t.Errorf("ILLocalsKind on non-extended frame yields %d slots", got)
	}
	if plain.ILLocalKind(cordbg.ILCodeOriginal, 0) != nil {
		t.Error("ILLocalKind on non-extended frame returned a value")
	}
}

func TestFunctionAndCode(t *testing.T) {
	d := startDebuggee(t)
	frames := walkFrames(t, d)

	fn := frames[0].Function()
	if fn == nil {
		t.Fatal("frame 0 has no function")
	}
	if fn.Token() != 0x06000123 || fn.ClassToken() != 0x02000007 {
		t.Errorf("function tokens = (%#x, %#x)", fn.Token(), fn.ClassToken())
	}
	module := fn.Module()
	if module == nil {
		t.Fatal("function has no module")
	}
	if name, st := module.Name(); st.Failed() || name != "app.dll" {
		t.Errorf("module name = %q (status %#x)", name, uint32(st))
	}

	code := frames[0].Code()
	if code == nil {
		t.Fatal("frame 0 has no code")
	}
	if code.IsIL() {
		t.Error("JIT frame's code handle reports IL")
	}
	if code.Address() != 0x7ffd1000 {
		t.Errorf("code address = %#x", code.Address())
	}

	if frames[5].Function() == nil {
		// Frame 5 only fails identity queries; the function handle is
		// absent too under the merge policy.
		t.Log("frame 5 function absent")
	}
}

func TestCreateStepper(t *testing.T) {
	d := startDebuggee(t)
	frames := walkFrames(t, d)

	stepper := frames[0].CreateStepper()
	if stepper == nil {
		t.Fatal("CreateStepper failed on a live frame")
	}
	if !stepper.IsActive() {
		t.Error("new stepper not active")
	}
	if !stepper.Deactivate() {
		t.Error("stepper deactivation failed")
	}
	if stepper.IsActive() {
		t.Error("stepper still active after deactivation")
	}

	d.Resume()
	if frames[0].CreateStepper() != nil {
		t.Error("CreateStepper succeeded on a neutered frame")
	}
}

func TestDisassemble(t *testing.T) {
	d := startDebuggee(t)
	// Frame 2's code is 48 31 c0 (xor rax, rax) then c3 (ret); its IP
	// sits one past the last byte, so nothing decodes.
	f := walkFrames(t, d)[2]
	if insts := f.Disassemble(4); len(insts) != 0 {
		t.Errorf("disassembled %d instructions past the end of code", len(insts))
	}

	jit := walkFrames(t, d)[0]
	insts := jit.Disassemble(2)
	if len(insts) != 2 {
		t.Fatalf("disassembled %d instructions, want 2", len(insts))
	}
	if insts[0].Offset != 0x4 {
		t.Errorf("first instruction offset = %#x, want the native IP 0x4", insts[0].Offset)
	}
}

func TestRegisters(t *testing.T) {
	d := startDebuggee(t)
	frames := walkFrames(t, d)

	regs := frames[0].Registers()
	if regs == nil {
		t.Fatal("native frame carries no register state")
	}
	if ip := regs.IP(); ip != 0x7ffd1004 {
		t.Errorf("IP = %#x, want code address plus native offset 0x7ffd1004", ip)
	}
	if sp := regs.SP(); sp != 0x1000 {
		t.Errorf("SP = %#x, want the frame's stack start 0x1000", sp)
	}

	if frames[1].Registers() != nil {
		t.Error("IL-only frame handed out register state")
	}

	d.Resume()
	if ip := regs.IP(); ip != 0 {
		t.Errorf("stale register set IP = %#x, want the 0 sentinel", ip)
	}
}

func TestFormatter(t *testing.T) {
	d := startDebuggee(t)
	store := testStore(t, d)
	frames := walkFrames(t, d)

	var sb strings.Builder
	err := frames[0].WriteText(&sb, dndbg.NewFormatter(store), dndbg.FormatDefault|dndbg.ShowModuleNames|dndbg.ShowTokens)
	if err != nil {
		t.Fatal(err)
	}
	out := sb.String()
	for _, want := range []string{"app.dll!", "App.Dict`1.TryGet", "System.String", "IL_000C", "06000123"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendering %q missing %q", out, want)
		}
	}

	// Without a resolver methods render as raw tokens.
	if s := frames[0].String(); !strings.Contains(s, "method_06000123") {
		t.Errorf("String() = %q, want raw token fallback", s)
	}

	sb.Reset()
	if err := frames[3].WriteText(&sb, nil, dndbg.FormatDefault); err != nil {
		t.Fatal(err)
	}
	if sb.String() != "[internal frame]" {
		t.Errorf("internal frame renders as %q", sb.String())
	}

	sb.Reset()
	if err := frames[4].WriteText(&sb, nil, dndbg.FormatDefault); err != nil {
		t.Fatal(err)
	}
	if sb.String() != "[runtime unwindable frame]" {
		t.Errorf("unwindable frame renders as %q", sb.String())
	}
}
