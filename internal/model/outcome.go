package model

import "time"

// Verdict strings as reported by clamd at the end of a response line.
const (
	// VerdictClean is the suffix clamd uses for a clean stream.
	VerdictClean = "OK"

	// VerdictInfected is the suffix clamd uses when a signature matched.
	VerdictInfected = "FOUND"

	// VerdictError is the suffix clamd uses when the scan itself failed.
	VerdictError = "ERROR"
)

// ScanOutcome is the result of one scan transaction.
//
// SignatureName is non-empty if and only if Infected is true. Use
// NewCleanOutcome or NewInfectedOutcome to build one; the zero value is a
// clean outcome with no response attached.
type ScanOutcome struct {
	// Infected reports whether the daemon matched a signature.
	Infected bool `json:"infected"`

	// SignatureName is the threat label reported by the daemon.
	SignatureName string `json:"signature_name,omitempty"`

	// RawResponse is the trimmed, NUL-stripped response line.
	RawResponse string `json:"raw_response"`

	// ObservedAt is when the response was parsed.
	ObservedAt time.Time `json:"observed_at"`
}

// NewCleanOutcome returns an outcome for a stream the daemon reported as clean.
func NewCleanOutcome(rawResponse string, observedAt time.Time) ScanOutcome {
	return ScanOutcome{
		Infected:    false,
		RawResponse: rawResponse,
		ObservedAt:  observedAt,
	}
}

// NewInfectedOutcome returns an outcome for a stream that matched signature.
// An empty signature is not a valid infected outcome; callers are expected
// to reject it before getting here.
func NewInfectedOutcome(signature, rawResponse string, observedAt time.Time) ScanOutcome {
	return ScanOutcome{
		Infected:      true,
		SignatureName: signature,
		RawResponse:   rawResponse,
		ObservedAt:    observedAt,
	}
}

// Verdict returns VerdictInfected or VerdictClean.
func (o ScanOutcome) Verdict() string {
	if o.Infected {
		return VerdictInfected
	}
	return VerdictClean
}

// Label returns the signature name for infected outcomes and VerdictClean otherwise.
func (o ScanOutcome) Label() string {
	if o.Infected {
		return o.SignatureName
	}
	return VerdictClean
}
