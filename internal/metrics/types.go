package metrics

import "github.com/prometheus/client_golang/prometheus"

// Service holds all the Prometheus metrics for the application.
// By defining them all in one place, we ensure consistency in naming and labeling.
type Service struct {
	ProposalsCreated   prometheus.Counter
	CounterOffers      prometheus.Counter
	RequestsAccepted   prometheus.Counter
	RequestsRejected   prometheus.Counter
	RoundLimitReached  prometheus.Counter
	ThreadsExpired     prometheus.Counter
	ConcurrentConflict prometheus.Counter
	SessionsCompleted  prometheus.Counter
	MatchesCompleted   prometheus.Counter
	MatchesDissolved   prometheus.Counter
	CascadeDeletions   *prometheus.CounterVec
	OperationDuration  *prometheus.HistogramVec
	NotifSent          *prometheus.CounterVec
	NotifFailed        *prometheus.CounterVec
	StartupTimeSeconds prometheus.Gauge
}
