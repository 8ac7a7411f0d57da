package notifier

import (
	"context"
	"sync"

	"github.com/mauv0809/pong-ladder/internal/ledger"
)

var _ Notifier = (*Mock)(nil)

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Spies for send functions
	SendMatchResultFunc   func(match ledger.Match, dryRun bool) error
	SendMatchReversedFunc func(match ledger.Match, dryRun bool) error

	// Call records
	SendMatchResultCalls   []ledger.Match
	SendMatchReversedCalls []ledger.Match
	SendAuditDriftCalls    []ledger.AuditReport
	SendLadderCalls        [][]ledger.Standing
	SendPlayerStatsCalls   []PlayerStats
	SendPlayerNotFoundCalls []struct {
		Query       string
		Suggestions []string
	}
	DryRuns []bool

	// Last formatted responses
	LastLadderResponse         any
	LastPlayerStatsResponse    any
	LastPlayerNotFoundResponse any
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendMatchResultCalls = nil
	m.SendMatchReversedCalls = nil
	m.SendAuditDriftCalls = nil
	m.SendLadderCalls = nil
	m.SendPlayerStatsCalls = nil
	m.SendPlayerNotFoundCalls = nil
	m.DryRuns = nil
	m.LastLadderResponse = nil
	m.LastPlayerStatsResponse = nil
	m.LastPlayerNotFoundResponse = nil
}

func (m *Mock) SendMatchResult(ctx context.Context, match ledger.Match, dryRun bool) error {
	m.mu.Lock()
	m.SendMatchResultCalls = append(m.SendMatchResultCalls, match)
	m.DryRuns = append(m.DryRuns, dryRun)
	fn := m.SendMatchResultFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(match, dryRun)
	}
	return nil
}

func (m *Mock) SendMatchReversed(ctx context.Context, match ledger.Match, dryRun bool) error {
	m.mu.Lock()
	m.SendMatchReversedCalls = append(m.SendMatchReversedCalls, match)
	m.DryRuns = append(m.DryRuns, dryRun)
	fn := m.SendMatchReversedFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(match, dryRun)
	}
	return nil
}

func (m *Mock) SendAuditDrift(ctx context.Context, report ledger.AuditReport, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendAuditDriftCalls = append(m.SendAuditDriftCalls, report)
	return nil
}

func (m *Mock) SendLadder(ctx context.Context, standings []ledger.Standing, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendLadderCalls = append(m.SendLadderCalls, standings)
	return nil
}

func (m *Mock) SendPlayerStats(ctx context.Context, stats PlayerStats, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendPlayerStatsCalls = append(m.SendPlayerStatsCalls, stats)
	return nil
}

func (m *Mock) SendPlayerNotFound(ctx context.Context, query string, suggestions []string, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendPlayerNotFoundCalls = append(m.SendPlayerNotFoundCalls, struct {
		Query       string
		Suggestions []string
	}{query, suggestions})
	return nil
}

func (m *Mock) FormatLadderResponse(standings []ledger.Standing) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastLadderResponse = standings
	return map[string]any{"text": "formatted_ladder", "rows": len(standings)}, nil
}

func (m *Mock) FormatPlayerStatsResponse(stats PlayerStats) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastPlayerStatsResponse = stats
	return map[string]any{"text": "formatted_player_stats", "player": stats.Standing.Name}, nil
}

func (m *Mock) FormatPlayerNotFoundResponse(query string, suggestions []string) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastPlayerNotFoundResponse = query
	return map[string]any{"text": "formatted_player_not_found", "query": query}, nil
}
