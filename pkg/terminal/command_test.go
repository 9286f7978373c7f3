package terminal

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pockees/dnSpy/pkg/config"
	"github.com/pockees/dnSpy/pkg/cordbg/simdbg"
	"github.com/pockees/dnSpy/pkg/dndbg"
	"github.com/pockees/dnSpy/pkg/metadata"
)

func testSession(t *testing.T) *Session {
	t.Helper()
	snap := &simdbg.Snapshot{
		Threads: []simdbg.ThreadSpec{{
			ID: 1,
			Chains: []simdbg.ChainSpec{{
				Reason:  "none",
				Managed: true,
				Frames: []simdbg.FrameSpec{
					{
						Token: 0x06000123, ClassToken: 0x02000007, Module: "app.dll",
						StackStart: 0x1000, StackEnd: 0x1040,
						IL: &simdbg.ILSpec{
							IP: 0xc, Mapping: "exact", BodySize: 0x40,
							Args: []simdbg.SlotSpec{
								{Type: "System.String", Value: `"hello"`},
							},
							Locals: []simdbg.SlotSpec{
								{Type: "System.Int32", Value: "42"},
								{Fail: true},
								{Type: "System.Boolean", Value: "true"},
							},
						},
						Native: &simdbg.NativeSpec{IP: 0x4, Address: 0x7ffd1000, Code: "554889e5c3"},
					},
					{
						Token: 0x06000200, Module: "app.dll",
						StackStart: 0x1040, StackEnd: 0x1080,
						IL:         &simdbg.ILSpec{IP: 0x2, Mapping: "approximate", BodySize: 0x20},
					},
				},
			}},
		}},
		Metadata: simdbg.MetadataSpec{
			Modules: []simdbg.ModuleSpec{{
				Name: "app.dll",
				Methods: []simdbg.TokenSpec{
					{Token: 0x06000123, Name: "App.Program.Main"},
					{Token: 0x06000200, Name: "App.Program.Helper"},
				},
			}},
		},
	}
	dbg, err := simdbg.New(snap)
	if err != nil {
		t.Fatalf("building debuggee: %v", err)
	}
	store, err := metadata.NewStore(metadata.FromSnapshot(snap.Metadata), 16)
	if err != nil {
		t.Fatalf("building metadata store: %v", err)
	}
	sess, err := NewSession(dbg, store)
	if err != nil {
		t.Fatalf("building session: %v", err)
	}
	return sess
}

// fakeTerminal builds a Term without entering raw terminal mode.
func fakeTerminal(t *testing.T, sess *Session) (*Term, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	term := &Term{
		session: sess,
		conf:    &config.Config{FrameListLineColor: ansiBlue},
		cmds:    DebugCommands(sess),
		fmtr:    dndbg.NewFormatter(sess.Store()),
		dumb:    true,
		stdout:  &buf,
	}
	return term, &buf
}

func executeCommand(t *testing.T, term *Term, buf *bytes.Buffer, cmdstr string) string {
	t.Helper()
	buf.Reset()
	if err := term.cmds.Call(cmdstr, term); err != nil {
		t.Fatalf("%q: %v", cmdstr, err)
	}
	return buf.String()
}

func TestFramesCommand(t *testing.T) {
	term, buf := fakeTerminal(t, testSession(t))
	out := executeCommand(t, term, buf, "frames")
	if !strings.Contains(out, "App.Program.Main") {
		t.Errorf("frames output missing resolved name:\n%s", out)
	}
	if !strings.Contains(out, "=>  0") {
		t.Errorf("frames output missing current frame marker:\n%s", out)
	}
	lines := strings.Count(out, "\n")
	if lines != 2 {
		t.Errorf("frames printed %d lines, want 2:\n%s", lines, out)
	}
}

func TestFrameSelection(t *testing.T) {
	term, buf := fakeTerminal(t, testSession(t))

	out := executeCommand(t, term, buf, "frame 1")
	if !strings.Contains(out, "App.Program.Helper") {
		t.Errorf("frame 1 output:\n%s", out)
	}
	if term.session.FrameIndex() != 1 {
		t.Errorf("FrameIndex = %d after frame 1", term.session.FrameIndex())
	}

	executeCommand(t, term, buf, "down")
	if term.session.FrameIndex() != 0 {
		t.Errorf("FrameIndex = %d after down", term.session.FrameIndex())
	}
	executeCommand(t, term, buf, "up")
	if term.session.FrameIndex() != 1 {
		t.Errorf("FrameIndex = %d after up", term.session.FrameIndex())
	}

	buf.Reset()
	if err := term.cmds.Call("frame 7", term); err == nil {
		t.Error("frame 7 did not fail on a 2-frame stack")
	}
	if err := term.cmds.Call("up", term); err == nil {
		t.Error("up from the caller-most frame did not fail")
	}
}

func TestLocalsCommand(t *testing.T) {
	term, buf := fakeTerminal(t, testSession(t))
	out := executeCommand(t, term, buf, "locals")
	if !strings.Contains(out, "local 0: System.Int32 = 42") {
		t.Errorf("locals output:\n%s", out)
	}
	if !strings.Contains(out, "local 1 = <unavailable>") {
		t.Errorf("failed slot not reported as unavailable:\n%s", out)
	}
	if !strings.Contains(out, "local 2: System.Boolean = true") {
		t.Errorf("slot after failed slot misaligned:\n%s", out)
	}
}

func TestLocalsMaxLocals(t *testing.T) {
	term, buf := fakeTerminal(t, testSession(t))
	max := 1
	term.conf.MaxLocals = &max
	out := executeCommand(t, term, buf, "locals")
	if !strings.Contains(out, "2 more locals not shown") {
		t.Errorf("locals did not honor max-locals:\n%s", out)
	}
}

func TestArgsCommand(t *testing.T) {
	term, buf := fakeTerminal(t, testSession(t))
	out := executeCommand(t, term, buf, "args")
	if !strings.Contains(out, `arg 0: System.String = "hello"`) {
		t.Errorf("args output:\n%s", out)
	}
}

func TestSetIPCommand(t *testing.T) {
	term, buf := fakeTerminal(t, testSession(t))
	before := term.session.Frames()[0]

	out := executeCommand(t, term, buf, "setip 0x10")
	if !strings.Contains(out, "IL_0010") {
		t.Errorf("setip output:\n%s", out)
	}
	if !before.IsNeutered() {
		t.Error("old frame wrapper not neutered after setip")
	}
	after := term.session.Frames()[0]
	if got := after.ILIP().Offset; got != 0x10 {
		t.Errorf("re-read IL offset = %#x, want 0x10", got)
	}

	// Out of range offsets are rejected and do not invalidate.
	if err := term.cmds.Call("setip 0x1000", term); err == nil {
		t.Error("setip past the method body did not fail")
	}
	if term.session.Frames()[0].IsNeutered() {
		t.Error("failed setip invalidated the snapshot")
	}
}

func TestResumeCommand(t *testing.T) {
	term, buf := fakeTerminal(t, testSession(t))
	before := term.session.Frames()[0]
	executeCommand(t, term, buf, "resume")
	if !before.IsNeutered() {
		t.Error("resume did not neuter the old frame wrappers")
	}
	if term.session.Frames()[0].IsNeutered() {
		t.Error("re-issued frame is already neutered")
	}
}

func TestCommandAliases(t *testing.T) {
	sess := testSession(t)
	term, buf := fakeTerminal(t, sess)
	full := executeCommand(t, term, buf, "frames")
	aliased := executeCommand(t, term, buf, "bt")
	if full != aliased {
		t.Error("bt and frames disagree")
	}
}

func TestCommandMerge(t *testing.T) {
	sess := testSession(t)
	term, buf := fakeTerminal(t, sess)
	term.cmds.Merge(map[string][]string{"frames": {"where"}})
	out := executeCommand(t, term, buf, "where")
	if !strings.Contains(out, "App.Program.Main") {
		t.Errorf("merged alias did not dispatch:\n%s", out)
	}
	// Merging again must not duplicate the alias.
	term.cmds.Merge(map[string][]string{"frames": {"where"}})
	for _, cmd := range term.cmds.cmds {
		if cmd.aliases[0] != "frames" {
			continue
		}
		n := 0
		for _, alias := range cmd.aliases {
			if alias == "where" {
				n++
			}
		}
		if n != 1 {
			t.Errorf("alias where appears %d times after double merge", n)
		}
	}
}

func TestUnknownCommand(t *testing.T) {
	term, _ := fakeTerminal(t, testSession(t))
	if err := term.cmds.Call("frobnicate", term); err != errNoCmd {
		t.Errorf("unknown command returned %v, want %v", err, errNoCmd)
	}
}

func TestEmptyCommandRepeatsLast(t *testing.T) {
	term, buf := fakeTerminal(t, testSession(t))
	first := executeCommand(t, term, buf, "frames")
	repeated := executeCommand(t, term, buf, "")
	if first != repeated {
		t.Error("empty command did not repeat the previous one")
	}
}

func TestCanSetIPCommand(t *testing.T) {
	term, buf := fakeTerminal(t, testSession(t))
	out := executeCommand(t, term, buf, "cansetip 0x10")
	if !strings.Contains(out, "reachable") {
		t.Errorf("cansetip output:\n%s", out)
	}
	out = executeCommand(t, term, buf, "cansetip 0x1000")
	if !strings.Contains(out, "not reachable") {
		t.Errorf("cansetip out-of-range output:\n%s", out)
	}
}

func TestRegsCommand(t *testing.T) {
	term, buf := fakeTerminal(t, testSession(t))
	out := executeCommand(t, term, buf, "regs")
	if !strings.Contains(out, "IP = 0x7ffd1004") || !strings.Contains(out, "SP = 0x1000") {
		t.Errorf("regs output:\n%s", out)
	}

	if err := term.session.SelectFrame(1); err != nil {
		t.Fatal(err)
	}
	out = executeCommand(t, term, buf, "regs")
	if !strings.Contains(out, "no register state") {
		t.Errorf("regs on an IL-only frame:\n%s", out)
	}
}

func TestParseOffset(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want uint32
	}{
		// The IL_%04x rendering pads with zeros; it must read back as
		// hex, never octal.
		{"IL_0010", 0x10},
		{"IL_000c", 0xc},
		{"0010", 0x10},
		{"10", 0x10},
		{"0x10", 0x10},
		{"IL_0x10", 0x10},
	} {
		got, err := parseOffset(tc.in)
		if err != nil {
			t.Errorf("parseOffset(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseOffset(%q) = %#x, want %#x", tc.in, got, tc.want)
		}
	}
	for _, in := range []string{"", "IL_", "0x", "nope", "-4"} {
		if _, err := parseOffset(in); err == nil {
			t.Errorf("parseOffset(%q) accepted a malformed offset", in)
		}
	}
}
