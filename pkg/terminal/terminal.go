// Package terminal implements the interactive frame inspector: a REPL
// for walking a debuggee's stack, examining IL and native instruction
// pointers, locals, arguments and generic parameters.
package terminal

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-delve/liner"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/pockees/dnSpy/pkg/config"
	"github.com/pockees/dnSpy/pkg/dndbg"
	"github.com/pockees/dnSpy/pkg/logflags"
)

const (
	historyFile                 = ".dndbg_history"
	terminalHighlightEscapeCode = "\033[%2dm"
	terminalResetEscapeCode     = "\033[0m"
)

const (
	ansiBlack   = 30
	ansiBlue    = 34
	ansiBrWhite = 97
)

// Term represents the terminal running the frame inspector.
type Term struct {
	session *Session
	conf    *config.Config
	prompt  string
	line    *liner.State
	cmds    *Commands
	fmtr    dndbg.Formatter
	dumb    bool
	stdout  io.Writer

	InitFile string

	quitting bool
}

// New returns a new Term attached to session.
func New(session *Session, conf *config.Config) *Term {
	cmds := DebugCommands(session)
	if conf != nil && conf.Aliases != nil {
		cmds.Merge(conf.Aliases)
	}
	if conf == nil {
		conf = &config.Config{}
	}

	var w io.Writer = os.Stdout
	dumb := strings.ToLower(os.Getenv("TERM")) == "dumb"
	if !dumb && isatty.IsTerminal(os.Stdout.Fd()) {
		w = colorable.NewColorableStdout()
	}

	if conf.FrameListLineColor < ansiBlack || conf.FrameListLineColor > ansiBrWhite {
		conf.FrameListLineColor = ansiBlue
	}

	return &Term{
		session: session,
		conf:    conf,
		prompt:  "(dndbg) ",
		line:    liner.NewLiner(),
		cmds:    cmds,
		fmtr:    dndbg.NewFormatter(session.Store()),
		dumb:    dumb,
		stdout:  w,
	}
}

// Close returns the terminal to its previous mode.
func (t *Term) Close() {
	t.line.Close()
}

// Run begins the read-eval-print loop.
func (t *Term) Run() (int, error) {
	defer t.Close()

	logger := logflags.REPLLogger()

	t.line.SetCompleter(func(line string) (c []string) {
		if i := strings.LastIndex(line, " "); i >= 0 {
			// Completing an argument: offer method names.
			prefix, word := line[:i+1], line[i+1:]
			for _, name := range t.session.Store().Complete(word) {
				c = append(c, prefix+name)
			}
			return
		}
		for _, cmd := range t.cmds.cmds {
			for _, alias := range cmd.aliases {
				if strings.HasPrefix(alias, strings.ToLower(line)) {
					c = append(c, alias)
				}
			}
		}
		return
	})

	fullHistoryFile, err := config.GetConfigFilePath(historyFile)
	if err != nil {
		fmt.Printf("Unable to load history file: %v.\n", err)
	} else if f, err := os.Open(fullHistoryFile); err == nil {
		t.line.ReadHistory(f)
		f.Close()
	}

	fmt.Println("Type 'help' for list of commands.")

	if t.InitFile != "" {
		if err := t.cmds.executeFile(t, t.InitFile); err != nil {
			if _, ok := err.(ExitRequestError); ok {
				return t.handleExit()
			}
			fmt.Fprintf(os.Stderr, "Error executing init file: %s\n", err)
		}
	}

	for {
		cmdstr, err := t.promptForInput()
		if err != nil {
			if err == io.EOF {
				fmt.Println("exit")
				return t.handleExit()
			}
			return 1, fmt.Errorf("prompt for input failed: %v", err)
		}

		logger.Debugf("command: %q", cmdstr)

		if err := t.cmds.Call(cmdstr, t); err != nil {
			if _, ok := err.(ExitRequestError); ok {
				return t.handleExit()
			}
			if t.quitting {
				return t.handleExit()
			}
			fmt.Fprintf(os.Stderr, "Command failed: %s\n", err)
		}
	}
}

// Println prints a line to the terminal, colorizing the prefix unless
// running on a dumb terminal.
func (t *Term) Println(prefix, str string) {
	if !t.dumb {
		code := fmt.Sprintf(terminalHighlightEscapeCode, t.conf.FrameListLineColor)
		prefix = fmt.Sprintf("%s%s%s", code, prefix, terminalResetEscapeCode)
	}
	fmt.Fprintf(t.stdout, "%s%s\n", prefix, str)
}

func (t *Term) promptForInput() (string, error) {
	l, err := t.line.Prompt(t.prompt)
	if err != nil {
		return "", err
	}
	l = strings.TrimSuffix(l, "\n")
	if l != "" {
		t.line.AppendHistory(l)
	}
	return l, nil
}

func (t *Term) handleExit() (int, error) {
	if fullHistoryFile, err := config.GetConfigFilePath(historyFile); err == nil {
		if f, err := os.OpenFile(fullHistoryFile, os.O_RDWR|os.O_CREATE, 0640); err == nil {
			if _, err := t.line.WriteHistory(f); err != nil {
				fmt.Println("readline history error:", err)
			}
			f.Close()
		}
	}
	return 0, nil
}
