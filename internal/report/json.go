package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/nao1215/clamscan/internal/model"
)

// JSONWriter outputs a Document as JSON, for tool integration.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed output.
	indent       bool
	indentPrefix string
	indentString string

	// version is recorded in the document when set.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint is WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion records the clamscan version in the document.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Document is the JSON report layout.
type Document struct {
	// Version is the clamscan version that generated this report.
	Version string `json:"version,omitempty"`

	// GeneratedAt is when the report was written.
	GeneratedAt time.Time `json:"generated_at"`

	// Summary holds the counts over Records.
	Summary model.Summary `json:"summary"`

	// Records lists every scanned file in scan order.
	Records []model.FileScanRecord `json:"records"`
}

// Write outputs records as a Document followed by a newline.
func (w *JSONWriter) Write(records []model.FileScanRecord) (int, error) {
	if records == nil {
		records = []model.FileScanRecord{}
	}
	doc := Document{
		Version:     w.version,
		GeneratedAt: w.now(),
		Summary:     model.Summarize(records),
		Records:     records,
	}

	var data []byte
	var err error
	if w.indent {
		data, err = json.MarshalIndent(doc, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
