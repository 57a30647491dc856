package metrics

// Metrics defines the interface for collecting application metrics.
// This decouples the application from the specific metrics implementation (e.g., Prometheus).
type Metrics interface {
	IncProposalsCreated()
	IncCounterOffers()
	IncRequestsAccepted()
	IncRequestsRejected()
	IncRoundLimitReached()
	IncThreadsExpired(count int)
	IncConcurrentConflicts()
	IncSessionsCompleted()
	IncMatchesCompleted()
	IncMatchesDissolved()
	AddCascadeDeletions(entity string, count int)
	ObserveOperationDuration(operation string, duration float64)
	IncNotifSent(channel string)
	IncNotifFailed(channel string)
	SetStartupTime(duration float64)
}
