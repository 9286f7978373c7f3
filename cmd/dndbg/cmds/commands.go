// Package cmds builds the dndbg command tree.
package cmds

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pockees/dnSpy/pkg/config"
	"github.com/pockees/dnSpy/pkg/cordbg/simdbg"
	"github.com/pockees/dnSpy/pkg/dndbg"
	"github.com/pockees/dnSpy/pkg/logflags"
	"github.com/pockees/dnSpy/pkg/metadata"
	"github.com/pockees/dnSpy/pkg/terminal"
	"github.com/pockees/dnSpy/pkg/version"
	"github.com/pockees/dnSpy/service/dap"
)

var (
	// log is whether to log debug statements.
	log bool
	// logOutput is a comma separated list of components that should produce debug output.
	logOutput string
	// logDest is the file path or file descriptor where logs should go.
	logDest string
	// initFile is the path to an initialization file executed by the inspector.
	initFile string

	conf *config.Config
)

const dndbgCommandLongDesc = `dndbg is a stack frame inspector for managed debuggee snapshots.

It walks the chains and frames of a suspended debuggee, resolves IL and
native instruction pointers, locals, arguments and generic parameters,
and degrades gracefully when the debuggee's handles go stale.`

// New returns an initialized command tree.
func New() *cobra.Command {
	conf = config.LoadConfig()

	rootCommand := &cobra.Command{
		Use:   "dndbg",
		Short: "dndbg is a stack frame inspector for managed debuggees.",
		Long:  dndbgCommandLongDesc,
	}

	rootCommand.PersistentFlags().BoolVarP(&log, "log", "", false, "Enable debug logging.")
	rootCommand.PersistentFlags().StringVarP(&logOutput, "log-output", "", "", "Comma separated list of components that should produce debug output (frame,metadata,dap,repl).")
	rootCommand.PersistentFlags().StringVarP(&logDest, "log-dest", "", "", "Writes logs to the specified file or file descriptor.")

	versionCommand := &cobra.Command{
		Use:   "version",
		Short: "Prints version.",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dndbg version: %s\n%s\n", version.DndbgVersion, version.BuildInfo())
		},
	}
	rootCommand.AddCommand(versionCommand)

	inspectCommand := &cobra.Command{
		Use:   "inspect <snapshot.yml>",
		Short: "Inspect a debuggee snapshot interactively.",
		Long: `Loads a debuggee snapshot and starts the interactive frame inspector.

Type 'help' inside the inspector for the list of commands.`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			os.Exit(inspect(args[0]))
		},
	}
	inspectCommand.Flags().StringVar(&initFile, "init", "", "Init file, executed before the first prompt.")
	rootCommand.AddCommand(inspectCommand)

	dapCommand := &cobra.Command{
		Use:   "dap <snapshot.yml>",
		Short: "Print the stack of a snapshot as DAP stack frames.",
		Long: `Loads a debuggee snapshot, converts the stack of its first thread to
Debug Adapter Protocol stack frames and prints them as JSON.`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			os.Exit(dumpDAP(args[0]))
		},
	}
	rootCommand.AddCommand(dapCommand)

	return rootCommand
}

func inspect(path string) int {
	if err := logflags.Setup(log, logOutput, logDest); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer logflags.Close()

	sess, err := loadSession(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	term := terminal.New(sess, conf)
	term.InitFile = initFile
	status, err := term.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
	}
	return status
}

func dumpDAP(path string) int {
	if err := logflags.Setup(log, logOutput, logDest); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer logflags.Close()

	dbg, err := simdbg.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	store, err := metadata.NewStore(metadata.FromSnapshot(dbg.Meta), 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	threads := dbg.Threads()
	if len(threads) == 0 {
		fmt.Fprintln(os.Stderr, "snapshot has no threads")
		return 1
	}
	var frames []*dndbg.Frame
	for _, raw := range threads[0].Frames() {
		frames = append(frames, dndbg.NewFrame(raw))
	}

	body := dap.NewConverter(store).StackTrace(frames, 0, 0)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(body); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	return 0
}

func loadSession(path string) (*terminal.Session, error) {
	dbg, err := simdbg.Load(path)
	if err != nil {
		return nil, err
	}
	store, err := metadata.NewStore(metadata.FromSnapshot(dbg.Meta), 0)
	if err != nil {
		return nil, err
	}
	return terminal.NewSession(dbg, store)
}
