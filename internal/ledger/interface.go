package ledger

import "context"

// Store is the persistence collaborator of the Engine. Lookups of missing
// records must return an error wrapping ErrNotFound. Commit must be
// all-or-nothing and must fail with an error wrapping ErrConflict when a
// PlayerUpdate's ExpectedVersion no longer matches.
type Store interface {
	GetPlayer(ctx context.Context, id string) (*Player, error)
	GetMatch(ctx context.Context, id string) (*Match, error)
	// PlayerEntries returns the player's log ordered by CreatedAt, then MatchID.
	PlayerEntries(ctx context.Context, playerID string) ([]Entry, error)
	ListPlayers(ctx context.Context) ([]Player, error)
	// ListMatches returns matches newest first.
	ListMatches(ctx context.Context, filter MatchFilter) ([]Match, error)
	Commit(ctx context.Context, batch Batch) error
}

// ConflictRecorder is notified whenever a commit loses a compare-and-swap.
type ConflictRecorder interface {
	IncStoreConflicts()
}
