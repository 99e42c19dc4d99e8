package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/nao1215/clamscan/internal/clamd"
)

// Version information set at build time via ldflags.
var (
	version = ""
	commit  = ""
	date    = ""
)

// getVersion returns version string.
// Priority: ldflags > debug.ReadBuildInfo > "(devel)"
func getVersion() string {
	if version != "" {
		return version
	}
	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		if buildInfo.Main.Version != "" {
			return buildInfo.Main.Version
		}
	}
	return "(devel)"
}

// getCommit returns the short commit hash.
func getCommit() string {
	if commit != "" {
		return commit
	}
	if v := buildSetting("vcs.revision"); v != "" {
		if len(v) > 7 {
			return v[:7]
		}
		return v
	}
	return "unknown"
}

// getDate returns build date.
func getDate() string {
	if date != "" {
		return date
	}
	if v := buildSetting("vcs.time"); v != "" {
		return v
	}
	return "unknown"
}

func buildSetting(key string) string {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range buildInfo.Settings {
		if setting.Key == key {
			return setting.Value
		}
	}
	return ""
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print the version, commit hash, and build date of clamscan.

With --daemon, the version string reported by clamd is printed as well.`,
		RunE: runVersionCmd,
	}

	cmd.Flags().Bool("daemon", false, "Also query the clamd version")
	addClientFlags(cmd)

	return cmd
}

func runVersionCmd(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "clamscan version %s\n", getVersion())
	fmt.Fprintf(out, "  commit: %s\n", getCommit())
	fmt.Fprintf(out, "  built:  %s\n", getDate())

	daemon, err := cmd.Flags().GetBool("daemon")
	if err != nil || !daemon {
		return err
	}

	cfg, err := buildClientConfig(cmd)
	if err != nil {
		return err
	}
	logger := setupLogger(cmd, cfg.Verbose)

	client, err := clamd.NewClient(cfg.ClientConfig(), clamd.WithLogger(logger))
	if err != nil {
		return err
	}
	defer closeClient(client, logger)

	v, err := client.Version(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to query clamd version: %w", err)
	}
	fmt.Fprintf(out, "  clamd:  %s\n", v)
	return nil
}
