package processor

import (
	"context"

	"github.com/mauv0809/pong-ladder/internal/ledger"
	"github.com/mauv0809/pong-ladder/internal/notifier"
)

// Ledger defines the match operations required by the processor.
// *ledger.Engine satisfies it.
type Ledger interface {
	Apply(ctx context.Context, sub ledger.Submission) (ledger.MatchResult, error)
	Preview(ctx context.Context, sub ledger.Submission) (ledger.MatchResult, error)
	Reverse(ctx context.Context, matchID string) (*ledger.Match, error)
	Edit(ctx context.Context, matchID string, sub ledger.Submission) (ledger.MatchResult, error)
	PreviewEdit(ctx context.Context, matchID string, sub ledger.Submission) (ledger.MatchResult, error)
	Match(ctx context.Context, matchID string) (*ledger.Match, error)
	Audit(ctx context.Context) (ledger.AuditReport, error)
}

// Notifier defines the notification operations required by the processor.
// This is now an alias for the main notifier interface for decoupling.
type Notifier interface {
	notifier.Notifier
}
