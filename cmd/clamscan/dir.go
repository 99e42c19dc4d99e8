package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/clamscan/internal/clamd"
	"github.com/nao1215/clamscan/internal/dirscan"
)

// errNoDirectory is returned when neither the argument nor the
// configuration file names a directory.
var errNoDirectory = errors.New("no directory given: pass it as an argument or set directory in the configuration file")

// NewDirCmd creates the dir command.
func NewDirCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dir [directory]",
		Short: "Scan every regular file in a directory",
		Long: `Dir scans each regular file directly inside a directory, one at a time,
and attaches a content digest to every result.

Subdirectories are not entered. Symbolic links are followed to regular
files only. A missing path or a path that is not a directory yields an
empty report. The first file that fails aborts the scan.

Supported digest algorithms: MD5, SHA-1, SHA-256, SHA-512, SHA3-256 and
BLAKE2b-256.

Examples:
  # Scan the uploads directory
  clamscan dir /srv/uploads

  # Use SHA3-256 digests and write a Markdown report
  clamscan dir -a sha3-256 --markdown -o scan.md /srv/uploads

  # Check that the daemon answers before scanning
  clamscan dir --ping /srv/uploads`,
		Args: cobra.MaximumNArgs(1),
		RunE: runDirCmd,
	}

	addClientFlags(cmd)
	addReportFlags(cmd)
	cmd.Flags().StringP("algorithm", "a", "", "Digest algorithm (default SHA-256)")
	cmd.Flags().Int("deep", dirscan.DefaultDeep, "Accepted recursion depth; subdirectories are currently not entered")
	cmd.Flags().Bool("ping", false, "Send PING to the daemon before scanning")

	return cmd
}

// runDirCmd executes the dir command.
func runDirCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if len(args) == 1 {
		cfg.Directory = args[0]
	}
	if cfg.Directory == "" {
		return errNoDirectory
	}
	if cmd.Flags().Changed("algorithm") {
		if cfg.HashAlgorithm, err = cmd.Flags().GetString("algorithm"); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("deep") {
		if cfg.Deep, err = cmd.Flags().GetInt("deep"); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ping, err := cmd.Flags().GetBool("ping")
	if err != nil {
		return err
	}

	logger := setupLogger(cmd, cfg.Verbose)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dirCfg := cfg.DirscanConfig()
	client, err := clamd.NewClient(dirCfg.Client, clamd.WithLogger(logger))
	if err != nil {
		return err
	}
	defer closeClient(client, logger)

	if ping {
		if err := client.Ping(ctx); err != nil {
			return fmt.Errorf("clamd is not reachable at %s: %w", client.Config().Address(), err)
		}
		logger.Debug("clamd answered ping", "daemon", client.Config().Address())
	}

	scanner, err := dirscan.New(dirCfg, dirscan.WithClient(client), dirscan.WithLogger(logger))
	if err != nil {
		return err
	}

	records, err := scanner.Scan(ctx)
	if err != nil {
		return err
	}

	return finishScan(cmd, cfg, records, 0)
}
