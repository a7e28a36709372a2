// Package policytypes defines the shared data types for PolicyLens.
// This file contains the request lifecycle types used by the chat surface.
package policytypes

// RequestOutcome is the terminal disposition of one chat request lifecycle.
// Exactly one terminal outcome is reported per started request.
type RequestOutcome int

// Request lifecycle outcomes. OutcomePending is the non-terminal in-flight
// state; the remaining four are mutually exclusive terminal events.
const (
	OutcomePending RequestOutcome = iota
	OutcomeSucceeded
	OutcomeCancelled
	OutcomeTimedOut
	OutcomeFailed
)

// String returns the display name of the outcome.
func (o RequestOutcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeTimedOut:
		return "timed-out"
	case OutcomeFailed:
		return "failed"
	default:
		return "pending"
	}
}

// Terminal reports whether the outcome ends a request lifecycle.
func (o RequestOutcome) Terminal() bool {
	return o != OutcomePending
}
