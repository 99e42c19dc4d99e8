package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes.
const (
	exitOK       = 0
	exitError    = 1
	exitInfected = 2
)

// errInfected is returned after the report is written when at least one
// input matched a signature.
var errInfected = errors.New("infected files found")

// NewRootCmd creates the root command for clamscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clamscan",
		Short: "Scan files with a remote clamd daemon",
		Long: `clamscan streams files to a ClamAV daemon (clamd) over TCP using the
INSTREAM command and reports which files matched a signature.

Settings are read from, in order of precedence: command-line flags, the file
given with --config, .clamscan.yaml in the current directory, and
clamscan/config.yaml in the XDG config directory.

Exit status is 0 when every input is clean, 2 when at least one input is
infected and 1 on any error.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs to stderr as JSON")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .clamscan.yaml or $XDG_CONFIG_HOME/clamscan/config.yaml)")

	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewDirCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command and exits with its status.
func Execute() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes the CLI with the given arguments and streams and returns
// the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errInfected):
		return exitInfected
	default:
		fmt.Fprintln(stderr, "Error:", err)
		return exitError
	}
}
