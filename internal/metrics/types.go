package metrics

import "github.com/prometheus/client_golang/prometheus"

// Service holds all the Prometheus metrics for the application.
type Service struct {
	MatchesApplied     prometheus.Counter
	MatchesReversed    prometheus.Counter
	MatchesEdited      prometheus.Counter
	RatingDelta        prometheus.Histogram
	ProcessingDuration prometheus.Histogram
	StoreConflicts     prometheus.Counter
	AuditDriftPlayers  prometheus.Gauge
	SlackNotifSent     prometheus.Counter
	SlackNotifFailed   prometheus.Counter
	StartupTimeSeconds prometheus.Gauge
}
