package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/clamscan/internal/clamd"
	"github.com/nao1215/clamscan/internal/config"
	"github.com/nao1215/clamscan/internal/model"
	"github.com/nao1215/clamscan/internal/scanerr"
)

// stdinTarget is the argument that selects standard input.
const stdinTarget = "-"

// stdinName is the file name reported for standard input.
const stdinName = "stdin"

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [file...]",
		Short: "Scan files or standard input with clamd",
		Long: `Scan streams each file to clamd with the INSTREAM command and reports
whether a signature matched.

With no arguments, or with "-", standard input is scanned.

Examples:
  # Scan a single file
  clamscan scan invoice.pdf

  # Scan data from a pipe
  curl -s https://example.com/file.zip | clamscan scan -

  # Scan several files concurrently through the worker pool
  clamscan scan --async -w 8 *.zip

  # Use a remote daemon and write a JSON report
  clamscan scan -H av.internal -p 3310 --json -o report.json upload.bin`,
		RunE: runScanCmd,
	}

	addClientFlags(cmd)
	addReportFlags(cmd)
	cmd.Flags().Bool("async", false, "Submit every target to the worker pool at once")

	return cmd
}

// scanTarget is one input of the scan command.
type scanTarget struct {
	name string
	path string
}

func (t scanTarget) isStdin() bool {
	return t.path == stdinTarget
}

// errDuplicateStdin is returned when "-" is given more than once.
var errDuplicateStdin = errors.New(`standard input ("-") can only be scanned once`)

// targetsFromArgs maps command-line arguments to scan targets.
// Standard input can be read only once, so a second "-" is rejected.
func targetsFromArgs(args []string) ([]scanTarget, error) {
	if len(args) == 0 {
		return []scanTarget{{name: stdinName, path: stdinTarget}}, nil
	}
	targets := make([]scanTarget, len(args))
	seenStdin := false
	for i, arg := range args {
		if arg == stdinTarget {
			if seenStdin {
				return nil, errDuplicateStdin
			}
			seenStdin = true
			targets[i] = scanTarget{name: stdinName, path: stdinTarget}
			continue
		}
		targets[i] = scanTarget{name: arg, path: arg}
	}
	return targets, nil
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	targets, err := targetsFromArgs(args)
	if err != nil {
		return err
	}

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	async, err := cmd.Flags().GetBool("async")
	if err != nil {
		return err
	}

	logger := setupLogger(cmd, cfg.Verbose)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := clamd.NewClient(cfg.ClientConfig(), clamd.WithLogger(logger))
	if err != nil {
		return err
	}
	defer closeClient(client, logger)

	logger.Debug("scan starting",
		"daemon", client.Config().Address(),
		"targets", len(targets),
		"async", async,
	)

	var records []model.FileScanRecord
	var failed int
	if async {
		records, failed = scanAsync(ctx, client, targets, cmd.InOrStdin(), logger)
	} else {
		records, failed = scanSequential(ctx, client, targets, cmd.InOrStdin(), logger)
	}

	return finishScan(cmd, cfg, records, failed)
}

// finishScan writes the report and maps the results to the command error.
func finishScan(cmd *cobra.Command, cfg *config.Config, records []model.FileScanRecord, failed int) error {
	if err := outputReport(cmd, cfg, records); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d target(s) could not be scanned", failed)
	}
	if model.Summarize(records).HasInfected() {
		return errInfected
	}
	return nil
}

// scanSequential scans targets one after another. A failed target is
// logged and skipped.
func scanSequential(ctx context.Context, client *clamd.Client, targets []scanTarget, stdin io.Reader, logger *slog.Logger) ([]model.FileScanRecord, int) {
	records := make([]model.FileScanRecord, 0, len(targets))
	failed := 0

	for _, target := range targets {
		var (
			outcome model.ScanOutcome
			err     error
		)
		if target.isStdin() {
			outcome, err = client.Scan(ctx, stdin)
		} else {
			outcome, err = client.ScanFile(ctx, target.path)
		}
		if err != nil {
			logScanFailure(logger, target, err)
			failed++
			continue
		}
		logger.Debug("scanned", "file", target.name, "result", outcome.Verdict())
		records = append(records, model.NewFileScanRecord(outcome, target.name, "", ""))
	}

	return records, failed
}

// scanAsync submits every target to the client's worker pool and waits for
// all of them. Record order follows target order.
func scanAsync(ctx context.Context, client *clamd.Client, targets []scanTarget, stdin io.Reader, logger *slog.Logger) ([]model.FileScanRecord, int) {
	type result struct {
		record model.FileScanRecord
		err    error
	}

	pendings := make([]*clamd.Pending, len(targets))
	for i, target := range targets {
		if target.isStdin() {
			pendings[i] = client.ScanAsync(ctx, stdin)
		} else {
			pendings[i] = client.ScanFileAsync(ctx, target.path)
		}
	}

	results := make([]result, len(targets))
	var g errgroup.Group
	for i, p := range pendings {
		g.Go(func() error {
			outcome, err := p.Wait(ctx)
			if err != nil {
				results[i].err = err
				return nil
			}
			results[i].record = model.NewFileScanRecord(outcome, targets[i].name, "", "")
			return nil
		})
	}
	_ = g.Wait()

	records := make([]model.FileScanRecord, 0, len(targets))
	failed := 0
	for i, r := range results {
		if r.err != nil {
			logScanFailure(logger, targets[i], r.err)
			failed++
			continue
		}
		logger.Debug("scanned", "file", targets[i].name, "result", r.record.Verdict())
		records = append(records, r.record)
	}
	return records, failed
}

func logScanFailure(logger *slog.Logger, target scanTarget, err error) {
	logger.Error("scan failed",
		"file", target.name,
		"kind", scanerr.KindOf(err).String(),
		"error", err,
	)
}
