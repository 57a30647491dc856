package metrics

import "sync"

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu                 sync.Mutex
	proposalsCreated   int
	counterOffers      int
	requestsAccepted   int
	requestsRejected   int
	roundLimitReached  int
	threadsExpired     int
	concurrentConflict int
	sessionsCompleted  int
	matchesCompleted   int
	matchesDissolved   int
	cascadeDeletions   map[string]int
	durations          map[string][]float64
	notifSent          map[string]int
	notifFailed        map[string]int
	startupTime        float64
}

var _ Metrics = (*Mock)(nil)

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		cascadeDeletions: make(map[string]int),
		durations:        make(map[string][]float64),
		notifSent:        make(map[string]int),
		notifFailed:      make(map[string]int),
	}
}

func (m *Mock) IncProposalsCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.proposalsCreated++
}

func (m *Mock) IncCounterOffers() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counterOffers++
}

func (m *Mock) IncRequestsAccepted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestsAccepted++
}

func (m *Mock) IncRequestsRejected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestsRejected++
}

func (m *Mock) IncRoundLimitReached() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roundLimitReached++
}

func (m *Mock) IncThreadsExpired(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threadsExpired += count
}

func (m *Mock) IncConcurrentConflicts() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.concurrentConflict++
}

func (m *Mock) IncSessionsCompleted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionsCompleted++
}

func (m *Mock) IncMatchesCompleted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchesCompleted++
}

func (m *Mock) IncMatchesDissolved() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchesDissolved++
}

func (m *Mock) AddCascadeDeletions(entity string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if count <= 0 {
		return
	}
	m.cascadeDeletions[entity] += count
}

func (m *Mock) ObserveOperationDuration(operation string, duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.durations[operation] = append(m.durations[operation], duration)
}

func (m *Mock) IncNotifSent(channel string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifSent[channel]++
}

func (m *Mock) IncNotifFailed(channel string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifFailed[channel]++
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

// ProposalsCreated returns the number of times IncProposalsCreated was called.
func (m *Mock) ProposalsCreated() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.proposalsCreated
}

// CounterOffers returns the number of times IncCounterOffers was called.
func (m *Mock) CounterOffers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counterOffers
}

// RequestsAccepted returns the number of times IncRequestsAccepted was called.
func (m *Mock) RequestsAccepted() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requestsAccepted
}

// RequestsRejected returns the number of times IncRequestsRejected was called.
func (m *Mock) RequestsRejected() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requestsRejected
}

// RoundLimitReached returns the number of times IncRoundLimitReached was called.
func (m *Mock) RoundLimitReached() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.roundLimitReached
}

// ThreadsExpired returns the accumulated count passed to IncThreadsExpired.
func (m *Mock) ThreadsExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.threadsExpired
}

// ConcurrentConflicts returns the number of times IncConcurrentConflicts was called.
func (m *Mock) ConcurrentConflicts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.concurrentConflict
}

// SessionsCompleted returns the number of times IncSessionsCompleted was called.
func (m *Mock) SessionsCompleted() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionsCompleted
}

// MatchesCompleted returns the number of times IncMatchesCompleted was called.
func (m *Mock) MatchesCompleted() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchesCompleted
}

// MatchesDissolved returns the number of times IncMatchesDissolved was called.
func (m *Mock) MatchesDissolved() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchesDissolved
}

// CascadeDeletions returns the accumulated deletions recorded for an entity.
func (m *Mock) CascadeDeletions(entity string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cascadeDeletions[entity]
}

// OperationDurations returns the number of observations recorded for an operation.
func (m *Mock) OperationDurations(operation string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.durations[operation])
}

// NotifSent returns the number of notifications sent on a channel.
func (m *Mock) NotifSent(channel string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifSent[channel]
}

// NotifFailed returns the number of notifications that failed on a channel.
func (m *Mock) NotifFailed(channel string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifFailed[channel]
}
