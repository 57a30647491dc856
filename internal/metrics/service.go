package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		ProposalsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skillswap_proposals_created_total",
			Help: "The total number of initial proposals created.",
		}),
		CounterOffers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skillswap_counter_offers_total",
			Help: "The total number of counter-offers made.",
		}),
		RequestsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skillswap_requests_accepted_total",
			Help: "The total number of match requests accepted.",
		}),
		RequestsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skillswap_requests_rejected_total",
			Help: "The total number of match requests rejected.",
		}),
		RoundLimitReached: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skillswap_round_limit_reached_total",
			Help: "The total number of negotiations closed by the round limit.",
		}),
		ThreadsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skillswap_threads_expired_total",
			Help: "The total number of negotiation threads expired by the sweep.",
		}),
		ConcurrentConflict: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skillswap_concurrent_modifications_total",
			Help: "The total number of optimistic concurrency conflicts.",
		}),
		SessionsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skillswap_sessions_completed_total",
			Help: "The total number of match sessions completed.",
		}),
		MatchesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skillswap_matches_completed_total",
			Help: "The total number of matches completed.",
		}),
		MatchesDissolved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skillswap_matches_dissolved_total",
			Help: "The total number of matches dissolved.",
		}),
		CascadeDeletions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skillswap_cascade_deletions_total",
			Help: "The total number of rows removed by cascade consistency handlers.",
		}, []string{"entity"}),
		OperationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "skillswap_operation_duration_seconds",
			Help:    "The duration of negotiation and match lifecycle operations.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"operation"}),
		NotifSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skillswap_notifications_sent_total",
			Help: "The total number of notifications successfully published.",
		}, []string{"channel"}),
		NotifFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skillswap_notifications_failed_total",
			Help: "The total number of notifications that failed to publish.",
		}, []string{"channel"}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "skillswap_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.ProposalsCreated,
		s.CounterOffers,
		s.RequestsAccepted,
		s.RequestsRejected,
		s.RoundLimitReached,
		s.ThreadsExpired,
		s.ConcurrentConflict,
		s.SessionsCompleted,
		s.MatchesCompleted,
		s.MatchesDissolved,
		s.CascadeDeletions,
		s.OperationDuration,
		s.NotifSent,
		s.NotifFailed,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) IncProposalsCreated() {
	s.ProposalsCreated.Inc()
}

func (s *Service) IncCounterOffers() {
	s.CounterOffers.Inc()
}

func (s *Service) IncRequestsAccepted() {
	s.RequestsAccepted.Inc()
}

func (s *Service) IncRequestsRejected() {
	s.RequestsRejected.Inc()
}

func (s *Service) IncRoundLimitReached() {
	s.RoundLimitReached.Inc()
}

func (s *Service) IncThreadsExpired(count int) {
	s.ThreadsExpired.Add(float64(count))
}

func (s *Service) IncConcurrentConflicts() {
	s.ConcurrentConflict.Inc()
}

func (s *Service) IncSessionsCompleted() {
	s.SessionsCompleted.Inc()
}

func (s *Service) IncMatchesCompleted() {
	s.MatchesCompleted.Inc()
}

func (s *Service) IncMatchesDissolved() {
	s.MatchesDissolved.Inc()
}

// AddCascadeDeletions records rows removed by a cascade handler. Zero is ignored
// so that redelivered events never move the counter.
func (s *Service) AddCascadeDeletions(entity string, count int) {
	if count <= 0 {
		return
	}
	s.CascadeDeletions.WithLabelValues(entity).Add(float64(count))
}

func (s *Service) ObserveOperationDuration(operation string, duration float64) {
	s.OperationDuration.WithLabelValues(operation).Observe(duration)
}

func (s *Service) IncNotifSent(channel string) {
	s.NotifSent.WithLabelValues(channel).Inc()
}

func (s *Service) IncNotifFailed(channel string) {
	s.NotifFailed.WithLabelValues(channel).Inc()
}

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}
