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
		MatchesApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ladder_matches_applied_total",
			Help: "The total number of matches applied to the ladder.",
		}),
		MatchesReversed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ladder_matches_reversed_total",
			Help: "The total number of matches deleted and reversed.",
		}),
		MatchesEdited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ladder_matches_edited_total",
			Help: "The total number of matches replaced by an edit.",
		}),
		RatingDelta: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ladder_rating_delta",
			Help:    "Rating points moved by each applied match.",
			Buckets: []float64{1, 2, 4, 6, 8, 10, 15, 20, 25, 30},
		}),
		ProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ladder_operation_duration_seconds",
			Help:    "The duration of ledger operations including retries.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		StoreConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ladder_store_conflicts_total",
			Help: "The total number of commits that lost a compare-and-swap.",
		}),
		AuditDriftPlayers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ladder_audit_drift_players",
			Help: "Players whose stored aggregates disagreed with the last audit.",
		}),
		SlackNotifSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ladder_slack_notifications_sent_total",
			Help: "The total number of Slack notifications successfully sent.",
		}),
		SlackNotifFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ladder_slack_notifications_failed_total",
			Help: "The total number of Slack notifications that failed to send.",
		}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ladder_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.MatchesApplied,
		s.MatchesReversed,
		s.MatchesEdited,
		s.RatingDelta,
		s.ProcessingDuration,
		s.StoreConflicts,
		s.AuditDriftPlayers,
		s.SlackNotifSent,
		s.SlackNotifFailed,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) IncMatchesApplied() {
	s.MatchesApplied.Inc()
}

func (s *Service) IncMatchesReversed() {
	s.MatchesReversed.Inc()
}

func (s *Service) IncMatchesEdited() {
	s.MatchesEdited.Inc()
}

func (s *Service) ObserveRatingDelta(delta float64) {
	s.RatingDelta.Observe(delta)
}

func (s *Service) ObserveProcessingDuration(duration float64) {
	s.ProcessingDuration.Observe(duration)
}

func (s *Service) IncStoreConflicts() {
	s.StoreConflicts.Inc()
}

func (s *Service) SetAuditDrift(players int) {
	s.AuditDriftPlayers.Set(float64(players))
}

func (s *Service) IncSlackNotifSent() {
	s.SlackNotifSent.Inc()
}

func (s *Service) IncSlackNotifFailed() {
	s.SlackNotifFailed.Inc()
}

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}
