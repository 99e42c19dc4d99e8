// Package scanerr defines the error taxonomy shared by the clamd client and
// the directory scanner.
//
// Every failure surfaced by this module is an *Error carrying a Kind, a
// human-readable message and an optional cause. Orchestration errors wrap
// the client or digest error that caused them, so KindOf and errors.As keep
// working across layers:
//
//	_, err := scanner.Scan(ctx)
//	if scanerr.IsOrchestration(err) && scanerr.IsConnection(err) {
//	    // the directory run stopped because clamd was unreachable
//	}
package scanerr
