package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/cosiner/argv"

	"github.com/pockees/dnSpy/pkg/config"
	"github.com/pockees/dnSpy/pkg/cordbg"
	"github.com/pockees/dnSpy/pkg/dndbg"
	"github.com/pockees/dnSpy/pkg/terminal/starbind"
)

type cmdfunc func(t *Term, args string) error

type command struct {
	aliases        []string
	builtinAliases []string
	helpMsg        string
	cmdFn          cmdfunc
}

// Returns true if the command string matches one of the aliases for this command
func (c command) match(cmdstr string) bool {
	for _, v := range c.aliases {
		if v == cmdstr {
			return true
		}
	}
	return false
}

// Commands represents the commands of the frame inspector.
type Commands struct {
	cmds    []command
	session *Session

	lastCmd cmdfunc
}

// byFirstAlias will sort by the first
// alias of a command.
type byFirstAlias []command

func (a byFirstAlias) Len() int           { return len(a) }
func (a byFirstAlias) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a byFirstAlias) Less(i, j int) bool { return a[i].aliases[0] < a[j].aliases[0] }

// DebugCommands returns a Commands struct with default commands defined.
func DebugCommands(session *Session) *Commands {
	c := &Commands{session: session}

	c.cmds = []command{
		{aliases: []string{"help", "h"}, cmdFn: c.help, helpMsg: `Prints the help message.

	help [command]

Type "help" followed by the name of a command for more information about it.`},
		{aliases: []string{"frames", "stack", "bt"}, cmdFn: framesCommand, helpMsg: `Print the stack of the current thread.

Lists every frame, callee-most first. The marker => indicates the currently selected frame.`},
		{aliases: []string{"frame"}, cmdFn: frameCommand, helpMsg: `Select a frame by index.

	frame <n>

Subsequent locals, args, setip and disassemble commands operate on it.`},
		{aliases: []string{"up"}, cmdFn: upCommand, helpMsg: `Move one frame towards the caller.`},
		{aliases: []string{"down"}, cmdFn: downCommand, helpMsg: `Move one frame towards the callee.`},
		{aliases: []string{"args"}, cmdFn: argsCommand, helpMsg: `Print the arguments of the selected frame.`},
		{aliases: []string{"locals"}, cmdFn: localsCommand, helpMsg: `Print the local variables of the selected frame.

	locals [-rejit]

With -rejit the locals of the instrumented (re-JITted) code version are printed instead.`},
		{aliases: []string{"typeparams", "tp"}, cmdFn: typeParamsCommand, helpMsg: `Print the generic type parameters of the selected frame.

Shown split into type-level and method-level arguments when metadata is available.`},
		{aliases: []string{"setip"}, cmdFn: setIPCommand, helpMsg: `Move the IL instruction pointer of the selected frame.

	setip <il-offset>

On success every frame handle of the thread is invalidated and the stack is re-read.`},
		{aliases: []string{"cansetip"}, cmdFn: canSetIPCommand, helpMsg: `Check whether the IL instruction pointer can move to an offset.

	cansetip <il-offset>

The answer is advisory: a later setip to the same offset may still fail.`},
		{aliases: []string{"code"}, cmdFn: codeCommand, helpMsg: `Print the code regions of the selected frame.

	code [rejit]

With rejit the instrumented code version is printed, if the frame has one.`},
		{aliases: []string{"disassemble", "disasm"}, cmdFn: disassCommand, helpMsg: `Disassemble machine code at the native instruction pointer of the selected frame.`},
		{aliases: []string{"regs"}, cmdFn: regsCommand, helpMsg: `Print the saved registers of the selected frame.

Only native frames carry register state.`},
		{aliases: []string{"resume", "continue", "c"}, cmdFn: resumeCommand, helpMsg: `Resume the debuggee.

All frame handles are invalidated; the stack is re-read at the next stop.`},
		{aliases: []string{"source"}, cmdFn: c.sourceCommand, helpMsg: `Executes a file containing a list of commands.

	source <path>

If the path ends with .star it is interpreted as a starlark script.`},
		{aliases: []string{"exit", "quit", "q"}, cmdFn: exitCommand, helpMsg: `Exit the inspector.`},
	}

	sort.Sort(byFirstAlias(c.cmds))
	return c
}

// Merge takes aliases defined in the config struct and merges them with the default aliases.
func (c *Commands) Merge(allAliases map[string][]string) {
	for i := range c.cmds {
		if c.cmds[i].builtinAliases != nil {
			c.cmds[i].aliases = append(c.cmds[i].aliases[:0], c.cmds[i].builtinAliases...)
		}
	}
	for i := range c.cmds {
		if aliases, ok := allAliases[c.cmds[i].aliases[0]]; ok {
			if c.cmds[i].builtinAliases == nil {
				c.cmds[i].builtinAliases = make([]string, len(c.cmds[i].aliases))
				copy(c.cmds[i].builtinAliases, c.cmds[i].aliases)
			}
			c.cmds[i].aliases = append(c.cmds[i].aliases, aliases...)
		}
	}
}

var errNoCmd = errors.New("command not available")

func noCmdAvailable(t *Term, args string) error {
	return errNoCmd
}

func nullCommand(t *Term, args string) error {
	return nil
}

// Find returns the function for the command named cmdstr. An empty
// string repeats the last command.
func (c *Commands) Find(cmdstr string) cmdfunc {
	if cmdstr == "" {
		if c.lastCmd != nil {
			return c.lastCmd
		}
		return nullCommand
	}
	for _, v := range c.cmds {
		if v.match(cmdstr) {
			c.lastCmd = v.cmdFn
			return v.cmdFn
		}
	}
	return noCmdAvailable
}

// Call takes a command to execute.
func (c *Commands) Call(cmdstr string, t *Term) error {
	vals := strings.SplitN(strings.TrimSpace(cmdstr), " ", 2)
	cmdname := vals[0]
	var args string
	if len(vals) > 1 {
		args = strings.TrimSpace(vals[1])
	}
	return c.Find(cmdname)(t, args)
}

func (c *Commands) help(t *Term, args string) error {
	if args != "" {
		for _, cmd := range c.cmds {
			for _, alias := range cmd.aliases {
				if alias == args {
					fmt.Fprintln(t.stdout, cmd.helpMsg)
					return nil
				}
			}
		}
		return errNoCmd
	}

	fmt.Fprintln(t.stdout, "The following commands are available:")
	w := new(tabwriter.Writer)
	w.Init(t.stdout, 0, 8, 0, '-', 0)
	for _, cmd := range c.cmds {
		h := cmd.helpMsg
		if idx := strings.Index(h, "\n"); idx >= 0 {
			h = h[:idx]
		}
		if len(cmd.aliases) > 1 {
			fmt.Fprintf(w, "    %s (alias: %s) \t %s\n", cmd.aliases[0], strings.Join(cmd.aliases[1:], " | "), h)
		} else {
			fmt.Fprintf(w, "    %s \t %s\n", cmd.aliases[0], h)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(t.stdout, "Type help followed by a command for full documentation.")
	return nil
}

func framesCommand(t *Term, args string) error {
	frames := t.session.Frames()
	if len(frames) == 0 {
		return errNoFrames
	}
	flags := formatFlags(t)
	for i, f := range frames {
		marker := "  "
		if i == t.session.FrameIndex() {
			marker = "=>"
		}
		var sb strings.Builder
		if err := t.fmtr.WriteFrame(&sb, f, flags); err != nil {
			return err
		}
		t.Println(fmt.Sprintf("%s %2d ", marker, i), sb.String())
	}
	return nil
}

func frameCommand(t *Term, args string) error {
	if args == "" {
		return printSelectedFrame(t)
	}
	i, err := strconv.Atoi(args)
	if err != nil {
		return fmt.Errorf("bad frame index %q", args)
	}
	if err := t.session.SelectFrame(i); err != nil {
		return err
	}
	return printSelectedFrame(t)
}

func upCommand(t *Term, args string) error {
	if err := t.session.MoveFrame(1); err != nil {
		return err
	}
	return printSelectedFrame(t)
}

func downCommand(t *Term, args string) error {
	if err := t.session.MoveFrame(-1); err != nil {
		return err
	}
	return printSelectedFrame(t)
}

func printSelectedFrame(t *Term) error {
	f, err := t.session.CurrentFrame()
	if err != nil {
		return err
	}
	var sb strings.Builder
	if err := t.fmtr.WriteFrame(&sb, f, formatFlags(t)); err != nil {
		return err
	}
	t.Println(fmt.Sprintf("Frame %d: ", t.session.FrameIndex()), sb.String())
	return nil
}

func formatFlags(t *Term) dndbg.FormatFlags {
	flags := dndbg.ShowModuleNames | dndbg.ShowOffsets
	if t.conf.ShowTokens {
		flags |= dndbg.ShowTokens
	}
	if t.conf.ShowGenericArguments {
		flags |= dndbg.ShowGenericArguments
	}
	return flags
}

func argsCommand(t *Term, args string) error {
	f, err := t.session.CurrentFrame()
	if err != nil {
		return err
	}
	return printValues(t, "arg", f.ILArguments())
}

func localsCommand(t *Term, args string) error {
	f, err := t.session.CurrentFrame()
	if err != nil {
		return err
	}
	fields, err := splitArgs(args)
	if err != nil {
		return err
	}
	it := f.ILLocals()
	for _, field := range fields {
		if field == "-rejit" {
			it = f.ILLocalsKind(cordbg.ILCodeReJIT)
		} else {
			return fmt.Errorf("unknown argument %q", field)
		}
	}
	return printValues(t, "local", it)
}

func printValues(t *Term, kind string, it *dndbg.ValueIter) error {
	n := it.Count()
	if n == 0 {
		fmt.Fprintf(t.stdout, "(no %ss)\n", kind)
		return nil
	}
	max := n
	if t.conf.MaxLocals != nil && *t.conf.MaxLocals < max {
		max = *t.conf.MaxLocals
	}
	for i := 0; i < max && it.Next(); i++ {
		v := it.Value()
		if v == nil {
			fmt.Fprintf(t.stdout, "%s %d = <unavailable>\n", kind, i)
			continue
		}
		fmt.Fprintf(t.stdout, "%s %d: %s = %s\n", kind, i, v.TypeName(), v.String())
	}
	if max < n {
		fmt.Fprintf(t.stdout, "(%d more %ss not shown)\n", n-max, kind)
	}
	return nil
}

func typeParamsCommand(t *Term, args string) error {
	f, err := t.session.CurrentFrame()
	if err != nil {
		return err
	}
	typeArgs, methodArgs, ok := f.SplitGenericParameters(t.session.Store())
	if ok {
		printTypeHandles(t, "type", typeArgs)
		printTypeHandles(t, "method", methodArgs)
		return nil
	}
	// Metadata could not resolve the declaring tokens: print the flat
	// list without attributing arguments to type or method.
	all := f.TypeParameters().Slice()
	if len(all) == 0 {
		fmt.Fprintln(t.stdout, "(no type parameters)")
		return nil
	}
	printTypeHandles(t, "generic", all)
	return nil
}

func printTypeHandles(t *Term, kind string, handles []*dndbg.TypeHandle) {
	for i, th := range handles {
		if th == nil {
			fmt.Fprintf(t.stdout, "%s arg %d = <unavailable>\n", kind, i)
			continue
		}
		fmt.Fprintf(t.stdout, "%s arg %d = %s\n", kind, i, th.Name())
	}
}

func setIPCommand(t *Term, args string) error {
	f, err := t.session.CurrentFrame()
	if err != nil {
		return err
	}
	offset, err := parseOffset(args)
	if err != nil {
		return err
	}
	if !f.SetILFrameIP(offset) {
		return fmt.Errorf("cannot move instruction pointer to IL_%04x", offset)
	}
	fmt.Fprintf(t.stdout, "Instruction pointer moved to IL_%04x.\n", offset)
	// The move invalidated every handle on the thread.
	idx := t.session.FrameIndex()
	t.session.Reload()
	if err := t.session.SelectFrame(idx); err == nil {
		return printSelectedFrame(t)
	}
	return nil
}

func canSetIPCommand(t *Term, args string) error {
	f, err := t.session.CurrentFrame()
	if err != nil {
		return err
	}
	offset, err := parseOffset(args)
	if err != nil {
		return err
	}
	if f.CanSetILFrameIP(offset) {
		fmt.Fprintf(t.stdout, "IL_%04x looks reachable (advisory).\n", offset)
	} else {
		fmt.Fprintf(t.stdout, "IL_%04x is not reachable.\n", offset)
	}
	return nil
}

func parseOffset(args string) (uint32, error) {
	if args == "" {
		return 0, errors.New("expected an IL offset argument")
	}
	// IL offsets are hex, matching the IL_%04x rendering of the frame
	// listings; parsing with base 0 would read a leading zero as octal.
	// Only an explicit 0x prefix goes through the general parser.
	s := strings.TrimPrefix(args, "IL_")
	base := 16
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base = 0
	}
	n, err := strconv.ParseUint(s, base, 32)
	if err != nil {
		return 0, fmt.Errorf("bad IL offset %q", args)
	}
	return uint32(n), nil
}

func codeCommand(t *Term, args string) error {
	f, err := t.session.CurrentFrame()
	if err != nil {
		return err
	}
	kind := cordbg.ILCodeOriginal
	if args == "rejit" {
		kind = cordbg.ILCodeReJIT
	} else if args != "" {
		return fmt.Errorf("unknown argument %q", args)
	}
	code := f.CodeKind(kind)
	if code == nil {
		fmt.Fprintf(t.stdout, "(no %s code)\n", kind)
		return nil
	}
	variant := "native"
	if code.IsIL() {
		variant = "IL"
	}
	fmt.Fprintf(t.stdout, "%s code: %s, address %#x, size %#x\n", kind, variant, code.Address(), code.Size())
	return nil
}

func disassCommand(t *Term, args string) error {
	f, err := t.session.CurrentFrame()
	if err != nil {
		return err
	}
	max := 16
	if args != "" {
		n, err := strconv.Atoi(args)
		if err != nil || n <= 0 {
			return fmt.Errorf("bad instruction count %q", args)
		}
		max = n
	}
	instrs := f.Disassemble(max)
	if len(instrs) == 0 {
		fmt.Fprintln(t.stdout, "(no machine code at the native instruction pointer)")
		return nil
	}
	ip := f.NativeIP()
	for _, inst := range instrs {
		marker := "  "
		if inst.Offset == ip {
			marker = "=>"
		}
		fmt.Fprintf(t.stdout, "%s native+0x%-4x % -24x %s\n", marker, inst.Offset, inst.Bytes, inst.Text)
	}
	return nil
}

func regsCommand(t *Term, args string) error {
	f, err := t.session.CurrentFrame()
	if err != nil {
		return err
	}
	regs := f.Registers()
	if regs == nil {
		fmt.Fprintln(t.stdout, "(the selected frame carries no register state)")
		return nil
	}
	fmt.Fprintf(t.stdout, "IP = %#x\nSP = %#x\n", regs.IP(), regs.SP())
	return nil
}

func resumeCommand(t *Term, args string) error {
	t.session.Resume()
	fmt.Fprintln(t.stdout, "Debuggee resumed. Stack re-read; frame selection reset.")
	return nil
}

func (c *Commands) sourceCommand(t *Term, args string) error {
	if fields := config.SplitQuotedFields(args, '"'); len(fields) > 0 {
		args = fields[0]
	}
	if args == "" {
		return errors.New("wrong number of arguments: source <filename>")
	}
	if strings.HasSuffix(args, ".star") {
		env := starbind.New(c.session, t.stdout)
		return env.ExecFile(args)
	}
	return c.executeFile(t, args)
}

func (c *Commands) executeFile(t *Term, name string) error {
	fh, err := os.Open(name)
	if err != nil {
		return err
	}
	defer fh.Close()

	scanner := bufio.NewScanner(fh)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		if err := c.Call(line, t); err != nil {
			if _, isExitRequest := err.(ExitRequestError); isExitRequest {
				return err
			}
			fmt.Fprintf(os.Stderr, "%s:%d: %v\n", name, lineno, err)
		}
	}
	return scanner.Err()
}

// ExitRequestError is returned when the user exits the inspector.
type ExitRequestError struct{}

func (ere ExitRequestError) Error() string {
	return ""
}

func exitCommand(t *Term, args string) error {
	t.quitting = true
	return ExitRequestError{}
}

// splitArgs splits a command line respecting quoting, for commands
// that take multiple arguments.
func splitArgs(args string) ([]string, error) {
	v, err := argv.Argv(args, func(s string) (string, error) {
		return s, nil
	}, nil)
	if err != nil {
		return nil, err
	}
	if len(v) == 0 {
		return nil, nil
	}
	return v[0], nil
}
