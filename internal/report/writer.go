package report

import (
	"io"
	"time"

	"github.com/nao1215/clamscan/internal/model"
)

// Writer renders scan records to a destination.
type Writer interface {
	// Write renders records in order and returns the number of bytes written.
	Write(records []model.FileScanRecord) (int, error)
}

// MultiWriter writes the same records to several Writers, for example
// the terminal and a report file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the records to every Writer and returns the total bytes
// written. It stops on the first error.
func (m *MultiWriter) Write(records []model.FileScanRecord) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(records)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter holds what every writer needs.
type baseWriter struct {
	output io.Writer

	// now stamps generated reports.
	now func() time.Time
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output, now: time.Now}
}

// displayHash formats a record's digest as "algorithm:hex", or "-" when
// the record carries none.
func displayHash(r model.FileScanRecord) string {
	if r.ContentHash == "" {
		return "-"
	}
	return r.HashAlgorithm + ":" + r.ContentHash
}
