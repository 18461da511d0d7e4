package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	GroupsCreated          uint64
	MembersInvited         uint64
	MembersRemoved         uint64
	ExpensesCreated        uint64
	ExpensesUpdated        uint64
	ExpensesDeleted        uint64
	Forbidden              map[string]uint64
	SignIns                map[string]uint64
	SignUps                map[string]uint64
	RateCacheHits          uint64
	RateCacheMisses        uint64
	RateFetchCount         uint64
	RateFetchDurationTotal time.Duration
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	groupsCreated    uint64
	membersInvited   uint64
	membersRemoved   uint64
	expensesCreated  uint64
	expensesUpdated  uint64
	expensesDeleted  uint64
	rateCacheHits    uint64
	rateCacheMisses  uint64
	rateFetchCount   uint64
	rateFetchTotalNs int64

	mu        sync.Mutex
	forbidden map[string]uint64
	signIns   map[string]uint64
	signUps   map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		forbidden: make(map[string]uint64),
		signIns:   make(map[string]uint64),
		signUps:   make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		GroupsCreated:          atomic.LoadUint64(&m.groupsCreated),
		MembersInvited:         atomic.LoadUint64(&m.membersInvited),
		MembersRemoved:         atomic.LoadUint64(&m.membersRemoved),
		ExpensesCreated:        atomic.LoadUint64(&m.expensesCreated),
		ExpensesUpdated:        atomic.LoadUint64(&m.expensesUpdated),
		ExpensesDeleted:        atomic.LoadUint64(&m.expensesDeleted),
		Forbidden:              copyCounts(m.forbidden),
		SignIns:                copyCounts(m.signIns),
		SignUps:                copyCounts(m.signUps),
		RateCacheHits:          atomic.LoadUint64(&m.rateCacheHits),
		RateCacheMisses:        atomic.LoadUint64(&m.rateCacheMisses),
		RateFetchCount:         atomic.LoadUint64(&m.rateFetchCount),
		RateFetchDurationTotal: time.Duration(atomic.LoadInt64(&m.rateFetchTotalNs)),
	}
}

func (m *InMemoryRecorder) IncGroupCreated()   { atomic.AddUint64(&m.groupsCreated, 1) }
func (m *InMemoryRecorder) IncMemberInvited()  { atomic.AddUint64(&m.membersInvited, 1) }
func (m *InMemoryRecorder) IncMemberRemoved()  { atomic.AddUint64(&m.membersRemoved, 1) }
func (m *InMemoryRecorder) IncExpenseCreated() { atomic.AddUint64(&m.expensesCreated, 1) }
func (m *InMemoryRecorder) IncExpenseUpdated() { atomic.AddUint64(&m.expensesUpdated, 1) }
func (m *InMemoryRecorder) IncExpenseDeleted() { atomic.AddUint64(&m.expensesDeleted, 1) }
func (m *InMemoryRecorder) IncRateCacheHit()   { atomic.AddUint64(&m.rateCacheHits, 1) }
func (m *InMemoryRecorder) IncRateCacheMiss()  { atomic.AddUint64(&m.rateCacheMisses, 1) }

// IncForbidden counts a rejected mutation by operation.
func (m *InMemoryRecorder) IncForbidden(op string) {
	m.mu.Lock()
	m.forbidden[op]++
	m.mu.Unlock()
}

// IncSignIn counts a sign-in attempt by outcome.
func (m *InMemoryRecorder) IncSignIn(outcome string) {
	m.mu.Lock()
	m.signIns[outcome]++
	m.mu.Unlock()
}

// IncSignUp counts a sign-up attempt by outcome.
func (m *InMemoryRecorder) IncSignUp(outcome string) {
	m.mu.Lock()
	m.signUps[outcome]++
	m.mu.Unlock()
}

// ObserveRateFetchDuration records an upstream exchange-rate fetch.
func (m *InMemoryRecorder) ObserveRateFetchDuration(d time.Duration) {
	atomic.AddUint64(&m.rateFetchCount, 1)
	atomic.AddInt64(&m.rateFetchTotalNs, d.Nanoseconds())
}

func copyCounts(src map[string]uint64) map[string]uint64 {
	dst := make(map[string]uint64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
