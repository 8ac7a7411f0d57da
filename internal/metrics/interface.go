package metrics

// Metrics defines the interface for collecting application metrics.
// This decouples the application from the specific metrics implementation (e.g., Prometheus).
type Metrics interface {
	IncMatchesApplied()
	IncMatchesReversed()
	IncMatchesEdited()
	ObserveRatingDelta(delta float64)
	ObserveProcessingDuration(duration float64)
	IncStoreConflicts()
	SetAuditDrift(players int)
	IncSlackNotifSent()
	IncSlackNotifFailed()
	SetStartupTime(duration float64)
}
