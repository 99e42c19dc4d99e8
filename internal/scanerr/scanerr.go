package scanerr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can act on it.
type Kind int

const (
	// KindUnknown is returned by KindOf for errors that are not *Error.
	KindUnknown Kind = iota

	// KindConnection means the connection to the daemon could not be established.
	KindConnection

	// KindTimeout means an established transaction exceeded its time budget.
	KindTimeout

	// KindProtocol covers I/O failures during the framed exchange and
	// ERROR or unrecognized daemon responses.
	KindProtocol

	// KindDigest means the content digest could not be computed.
	KindDigest

	// KindOrchestration wraps any of the above raised during a directory run.
	KindOrchestration

	// KindValidation means a configuration or argument was rejected before
	// any network activity.
	KindValidation
)

// String returns a stable identifier for the kind.
func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindTimeout:
		return "timeout"
	case KindProtocol:
		return "protocol"
	case KindDigest:
		return "digest"
	case KindOrchestration:
		return "orchestration"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Error is the classified error type returned by this module.
type Error struct {
	// Kind is the failure class.
	Kind Kind

	// Message is a human-readable description.
	Message string

	// Response is the raw daemon response line, when one was received.
	Response string

	// Cause is the underlying error, if any.
	Cause error
}

// Error returns the message, the raw response and the cause, in that order.
func (e *Error) Error() string {
	msg := e.Message
	if e.Response != "" {
		msg = fmt.Sprintf("%s (response %q)", msg, e.Response)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause for use with errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewConnectionError creates an error for a connection that could not be established.
func NewConnectionError(msg string, cause error) *Error {
	return &Error{Kind: KindConnection, Message: msg, Cause: cause}
}

// NewTimeoutError creates an error for a transaction that ran out of time.
func NewTimeoutError(msg string, cause error) *Error {
	return &Error{Kind: KindTimeout, Message: msg, Cause: cause}
}

// NewProtocolError creates an error for a failed exchange with the daemon.
// response may be empty when no response line was read.
func NewProtocolError(msg, response string, cause error) *Error {
	return &Error{Kind: KindProtocol, Message: msg, Response: response, Cause: cause}
}

// NewDigestError creates an error for a failed content digest.
func NewDigestError(msg string, cause error) *Error {
	return &Error{Kind: KindDigest, Message: msg, Cause: cause}
}

// NewOrchestrationError creates an error for a failed directory run.
// cause should be the classified error of the file that failed.
func NewOrchestrationError(msg string, cause error) *Error {
	return &Error{Kind: KindOrchestration, Message: msg, Cause: cause}
}

// NewValidationError creates an error for rejected configuration or input.
func NewValidationError(msg string, cause error) *Error {
	return &Error{Kind: KindValidation, Message: msg, Cause: cause}
}

// KindOf returns the innermost classified kind in err's chain, skipping
// orchestration wrappers. It returns KindOrchestration only when nothing
// more specific is wrapped, and KindUnknown for unclassified errors.
func KindOf(err error) Kind {
	kind := KindUnknown
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			break
		}
		kind = e.Kind
		if e.Kind != KindOrchestration {
			return kind
		}
		err = e.Cause
	}
	return kind
}

// has reports whether any *Error in err's chain has kind k.
func has(err error, k Kind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == k {
			return true
		}
		err = e.Cause
	}
	return false
}

// IsConnection reports whether err is or wraps a connection error.
func IsConnection(err error) bool { return has(err, KindConnection) }

// IsTimeout reports whether err is or wraps a timeout error.
func IsTimeout(err error) bool { return has(err, KindTimeout) }

// IsProtocol reports whether err is or wraps a protocol error.
func IsProtocol(err error) bool { return has(err, KindProtocol) }

// IsDigest reports whether err is or wraps a digest error.
func IsDigest(err error) bool { return has(err, KindDigest) }

// IsOrchestration reports whether err is or wraps an orchestration error.
func IsOrchestration(err error) bool { return has(err, KindOrchestration) }

// IsValidation reports whether err is or wraps a validation error.
func IsValidation(err error) bool { return has(err, KindValidation) }
