package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/clamscan/internal/clamd"
	"github.com/nao1215/clamscan/internal/config"
	clamlog "github.com/nao1215/clamscan/internal/log"
	"github.com/nao1215/clamscan/internal/model"
	"github.com/nao1215/clamscan/internal/report"
)

// addClientFlags registers the daemon connection flags shared by scan and dir.
func addClientFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("host", "H", clamd.DefaultHost, "clamd host name or IP address")
	f.IntP("port", "p", clamd.DefaultPort, "clamd TCP port")
	f.Duration("connect-timeout", 0,
		"Connection timeout (default 5s for scan, 10s for dir)")
	f.Duration("scan-timeout", 0,
		"Timeout for each read or write once connected (default 30s for scan, 1m for dir)")
	f.IntP("workers", "w", clamd.DefaultWorkerPoolSize, "Number of concurrent async scans")
	f.String("proxy", "", "SOCKS5 proxy as [socks5://][user:password@]host:port")
}

// addReportFlags registers the output format flags shared by scan and dir.
func addReportFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.BoolP("json", "j", false, "Output JSON report (mutually exclusive with --markdown)")
	f.BoolP("markdown", "m", false, "Output Markdown report (mutually exclusive with --json)")
	f.StringP("output", "o", "", "Write report to specified file path (creates directories if needed)")
}

// buildConfig loads the configuration file and applies every connection
// and report flag the user set on top of it.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := buildClientConfig(cmd)
	if err != nil {
		return nil, err
	}

	f := cmd.Flags()
	if cfg.JSONReport, err = f.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = f.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = f.GetString("output"); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildClientConfig loads the configuration file and applies the
// connection flags the user set explicitly on top of it.
func buildClientConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	cfg.Verbose, err = cmd.Flags().GetBool("verbose")
	if err != nil {
		return nil, err
	}

	f := cmd.Flags()
	if f.Changed("host") {
		if cfg.Host, err = f.GetString("host"); err != nil {
			return nil, err
		}
	}
	if f.Changed("port") {
		if cfg.Port, err = f.GetInt("port"); err != nil {
			return nil, err
		}
	}
	if f.Changed("connect-timeout") {
		if cfg.ConnectionTimeout, err = f.GetDuration("connect-timeout"); err != nil {
			return nil, err
		}
	}
	if f.Changed("scan-timeout") {
		if cfg.ScanTimeout, err = f.GetDuration("scan-timeout"); err != nil {
			return nil, err
		}
	}
	if f.Changed("workers") {
		if cfg.WorkerPoolSize, err = f.GetInt("workers"); err != nil {
			return nil, err
		}
	}
	if f.Changed("proxy") {
		raw, err := f.GetString("proxy")
		if err != nil {
			return nil, err
		}
		if cfg.ProxyAddress, cfg.ProxyUser, cfg.ProxyPassword, err = config.ParseProxy(raw); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// setupLogger creates the redacting logger that writes to the command's
// error stream, as text or as JSON with --log-json.
func setupLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	if asJSON, err := cmd.Flags().GetBool("log-json"); err == nil && asJSON {
		return clamlog.NewJSONLogger(cmd.ErrOrStderr(), verbose)
	}
	return clamlog.NewLogger(cmd.ErrOrStderr(), verbose)
}

// outputReport writes records in the requested format to the report file
// or the command's output stream.
func outputReport(cmd *cobra.Command, cfg *config.Config, records []model.FileScanRecord) (err error) {
	var output io.Writer = cmd.OutOrStdout()
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		file, openErr := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
		if openErr != nil {
			return fmt.Errorf("failed to create output file: %w", openErr)
		}
		defer func() {
			if cerr := file.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("failed to close output file: %w", cerr)
			}
		}()
		output = file
	}

	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(output)
	default:
		w = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	_, err = w.Write(records)
	return err
}

// closeClient closes c and logs a forced shutdown.
func closeClient(c *clamd.Client, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Warn("clamd client shutdown", "error", err)
	}
}
