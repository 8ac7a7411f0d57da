package notifier

import (
	"context"

	"github.com/mauv0809/pong-ladder/internal/ledger"
)

// Notifier defines a high-level interface for sending notifications about ladder events.
// This decouples the rest of the application from the specific notification provider (e.g., Slack).
type Notifier interface {
	// For ledger changes
	SendMatchResult(ctx context.Context, match ledger.Match, dryRun bool) error
	SendMatchReversed(ctx context.Context, match ledger.Match, dryRun bool) error
	SendAuditDrift(ctx context.Context, report ledger.AuditReport, dryRun bool) error
	// For slash commands
	SendLadder(ctx context.Context, standings []ledger.Standing, dryRun bool) error
	SendPlayerStats(ctx context.Context, stats PlayerStats, dryRun bool) error
	SendPlayerNotFound(ctx context.Context, query string, suggestions []string, dryRun bool) error

	// For formatting responses for slash commands
	FormatLadderResponse(standings []ledger.Standing) (any, error)
	FormatPlayerStatsResponse(stats PlayerStats) (any, error)
	FormatPlayerNotFoundResponse(query string, suggestions []string) (any, error)
}

// PlayerStats is everything the player profile shows.
type PlayerStats struct {
	Standing   ledger.Standing
	History    []ledger.HistoryPoint
	HeadToHead []ledger.Record
}
