package clamd

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/nao1215/clamscan/internal/model"
	"github.com/nao1215/clamscan/internal/scanerr"
)

// Wire constants.
const (
	// CommandInstream starts chunked streaming mode.
	CommandInstream = "zINSTREAM"

	// CommandPing asks the daemon for a liveness reply.
	CommandPing = "zPING"

	// CommandVersion asks the daemon for its version string.
	CommandVersion = "zVERSION"

	// ChunkSize is the read size used to frame the payload.
	ChunkSize = 2048

	// responseReadSize is the buffer size for reading the reply.
	responseReadSize = 1024

	// maxResponseSize caps the reply; clamd replies are a single short line.
	maxResponseSize = 64 * 1024
)

// signatureSeparator precedes the signature name in a FOUND line.
const signatureSeparator = ": "

// errResponseTooLarge is the cause used when the reply exceeds maxResponseSize.
var errResponseTooLarge = errors.New("response exceeds size limit")

// sourceError marks a failure reading the caller's payload, as opposed to
// a failure writing it to the daemon.
type sourceError struct {
	err error
}

func (e *sourceError) Error() string { return "read payload: " + e.err.Error() }
func (e *sourceError) Unwrap() error { return e.err }

// streamStats describes what writeInstream put on the wire.
type streamStats struct {
	chunks int
	bytes  int64
}

// writeCommand writes a NUL-terminated command.
func writeCommand(w io.Writer, command string) error {
	_, err := io.WriteString(w, command+"\x00")
	return err
}

// writeInstream frames src onto w: the INSTREAM command, one length-prefixed
// chunk per non-empty read and the zero-length terminator, then flushes.
// Errors reading src are returned as *sourceError.
func writeInstream(w io.Writer, src io.Reader) (streamStats, error) {
	var stats streamStats

	bw := bufio.NewWriterSize(w, 4+ChunkSize)
	if err := writeCommand(bw, CommandInstream); err != nil {
		return stats, err
	}

	buf := make([]byte, ChunkSize)
	var prefix [4]byte
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			binary.BigEndian.PutUint32(prefix[:], uint32(n)) //nolint:gosec // n <= ChunkSize
			if _, err := bw.Write(prefix[:]); err != nil {
				return stats, err
			}
			if _, err := bw.Write(buf[:n]); err != nil {
				return stats, err
			}
			stats.chunks++
			stats.bytes += int64(n)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return stats, &sourceError{err: readErr}
		}
	}

	binary.BigEndian.PutUint32(prefix[:], 0)
	if _, err := bw.Write(prefix[:]); err != nil {
		return stats, err
	}
	return stats, bw.Flush()
}

// readResponse accumulates bytes until the peer closes or a NUL byte has been
// received, then strips NULs and surrounding whitespace.
func readResponse(r io.Reader) (string, error) {
	var acc bytes.Buffer
	buf := make([]byte, responseReadSize)
	for {
		n, err := r.Read(buf)
		acc.Write(buf[:n])
		if bytes.IndexByte(acc.Bytes(), 0) >= 0 {
			break
		}
		if acc.Len() > maxResponseSize {
			return "", errResponseTooLarge
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}
	line := strings.ReplaceAll(acc.String(), "\x00", "")
	return strings.TrimSpace(line), nil
}

// ParseResponse classifies a trimmed response line. Suffixes are checked
// in the order OK, FOUND, ERROR; anything else is an unrecognized response.
// observedAt becomes the outcome's ObservedAt.
func ParseResponse(line string, observedAt time.Time) (model.ScanOutcome, error) {
	switch {
	case strings.HasSuffix(line, model.VerdictClean):
		return model.NewCleanOutcome(line, observedAt), nil
	case strings.HasSuffix(line, model.VerdictInfected):
		return model.NewInfectedOutcome(extractSignature(line), line, observedAt), nil
	case strings.HasSuffix(line, model.VerdictError):
		return model.ScanOutcome{}, scanerr.NewProtocolError("scan error", line, nil)
	default:
		return model.ScanOutcome{}, scanerr.NewProtocolError("unknown response", line, nil)
	}
}

// extractSignature returns the text after the first ": " with the trailing
// " FOUND" removed. Lines without a usable label after the separator fall
// back to the whole line minus the suffix, and finally to the line itself,
// so the result is never empty for a line ending in FOUND.
func extractSignature(line string) string {
	suffix := " " + model.VerdictInfected
	if _, rest, ok := strings.Cut(line, signatureSeparator); ok {
		if signature := strings.TrimSpace(strings.TrimSuffix(rest, suffix)); signature != "" {
			return signature
		}
	}
	if signature := strings.TrimSpace(strings.TrimSuffix(line, suffix)); signature != "" {
		return signature
	}
	return line
}
