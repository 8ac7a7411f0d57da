package metrics

import "sync"

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu                  sync.Mutex
	matchesApplied      int
	matchesReversed     int
	matchesEdited       int
	ratingDeltas        []float64
	processingDurations []float64
	storeConflicts      int
	auditDrift          int
	slackNotifSent      int
	slackNotifFailed    int
	startupTime         float64
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) IncMatchesApplied() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchesApplied++
}

func (m *Mock) IncMatchesReversed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchesReversed++
}

func (m *Mock) IncMatchesEdited() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchesEdited++
}

func (m *Mock) ObserveRatingDelta(delta float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ratingDeltas = append(m.ratingDeltas, delta)
}

func (m *Mock) ObserveProcessingDuration(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processingDurations = append(m.processingDurations, duration)
}

func (m *Mock) IncStoreConflicts() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.storeConflicts++
}

func (m *Mock) SetAuditDrift(players int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.auditDrift = players
}

func (m *Mock) IncSlackNotifSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifSent++
}

func (m *Mock) IncSlackNotifFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifFailed++
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

// MatchesApplied returns the number of times IncMatchesApplied was called.
func (m *Mock) MatchesApplied() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchesApplied
}

// MatchesReversed returns the number of times IncMatchesReversed was called.
func (m *Mock) MatchesReversed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchesReversed
}

// MatchesEdited returns the number of times IncMatchesEdited was called.
func (m *Mock) MatchesEdited() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchesEdited
}

// RatingDeltas returns every observed rating delta.
func (m *Mock) RatingDeltas() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.ratingDeltas...)
}

// StoreConflicts returns the number of times IncStoreConflicts was called.
func (m *Mock) StoreConflicts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.storeConflicts
}

// AuditDrift returns the last value passed to SetAuditDrift.
func (m *Mock) AuditDrift() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.auditDrift
}

// SlackNotifSent returns the number of times IncSlackNotifSent was called.
func (m *Mock) SlackNotifSent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifSent
}

// SlackNotifFailed returns the number of times IncSlackNotifFailed was called.
func (m *Mock) SlackNotifFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifFailed
}
