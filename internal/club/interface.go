package club

import (
	"context"

	"github.com/mauv0809/pong-ladder/internal/ledger"
)

// ClubStore is the SQL-backed ladder store. It is the ledger's Store plus the
// roster management the engine never does itself.
type ClubStore interface {
	ledger.Store
	CreatePlayer(ctx context.Context, name string, startingRating float64) (*ledger.Player, error)
	RenamePlayer(ctx context.Context, id, name string) error
	SetStartingRating(ctx context.Context, id string, startingRating float64) error
	FindPlayerByName(ctx context.Context, name string) (*ledger.Player, error)
	Clear(ctx context.Context) error
}
