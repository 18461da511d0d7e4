package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncGroupCreated()                         {}
func (n *NoopRecorder) IncMemberInvited()                        {}
func (n *NoopRecorder) IncMemberRemoved()                        {}
func (n *NoopRecorder) IncExpenseCreated()                       {}
func (n *NoopRecorder) IncExpenseUpdated()                       {}
func (n *NoopRecorder) IncExpenseDeleted()                       {}
func (n *NoopRecorder) IncForbidden(op string)                   {}
func (n *NoopRecorder) IncSignIn(outcome string)                 {}
func (n *NoopRecorder) IncSignUp(outcome string)                 {}
func (n *NoopRecorder) IncRateCacheHit()                         {}
func (n *NoopRecorder) IncRateCacheMiss()                        {}
func (n *NoopRecorder) ObserveRateFetchDuration(d time.Duration) {}
