// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Sign-in outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Recorder captures metric events for the application.
type Recorder interface {
	// Group metrics
	IncGroupCreated()
	IncMemberInvited()
	IncMemberRemoved()

	// Expense metrics
	IncExpenseCreated()
	IncExpenseUpdated()
	IncExpenseDeleted()

	// IncForbidden counts rejected mutations; op is e.g. "expense_update".
	IncForbidden(op string)

	// Identity metrics
	IncSignIn(outcome string) // outcome: "success" or "failure"
	IncSignUp(outcome string)

	// Exchange-rate metrics
	IncRateCacheHit()
	IncRateCacheMiss()
	ObserveRateFetchDuration(duration time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
