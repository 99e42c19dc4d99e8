package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/clamscan/internal/model"
)

// SimpleWriter outputs a plain-text report for the terminal.
type SimpleWriter struct {
	baseWriter

	// verbose adds the raw daemon response and timestamp to each record.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs one block per record followed by a summary.
func (w *SimpleWriter) Write(records []model.FileScanRecord) (int, error) {
	var sb strings.Builder

	for _, r := range records {
		w.writeRecord(&sb, r)
	}
	w.writeSummary(&sb, model.Summarize(records))

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeRecord(sb *strings.Builder, r model.FileScanRecord) {
	fmt.Fprintf(sb, "[%s] %s", r.Verdict(), r.FileName)
	if r.Infected {
		fmt.Fprintf(sb, ": %s", r.SignatureName)
	}
	sb.WriteString("\n")

	if r.ContentHash != "" {
		fmt.Fprintf(sb, "    %s: %s\n", r.HashAlgorithm, r.ContentHash)
	}
	if w.verbose {
		fmt.Fprintf(sb, "    Response: %s\n", r.RawResponse)
		fmt.Fprintf(sb, "    Scanned:  %s\n", r.ObservedAt.Format("2006-01-02 15:04:05 MST"))
	}
}

func (w *SimpleWriter) writeSummary(sb *strings.Builder, s model.Summary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "Scanned: %d  Clean: %d  Infected: %d\n", s.Total, s.Clean, s.Infected)
	for _, name := range s.InfectedFiles {
		fmt.Fprintf(sb, "  [!] %s\n", name)
	}
}
