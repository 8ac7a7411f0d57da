package processor

import (
	"github.com/mauv0809/pong-ladder/internal/club"
	"github.com/mauv0809/pong-ladder/internal/ledger"
	"github.com/mauv0809/pong-ladder/internal/metrics"
	"github.com/mauv0809/pong-ladder/internal/pubsub"
)

// Processor runs ledger operations and fans their outcome out to metrics,
// pub/sub and the notifier.
type Processor struct {
	ledger   Ledger
	store    club.ClubStore
	resolver *club.PlayerResolver
	pubsub   pubsub.PubSubClient
	notifier Notifier
	metrics  metrics.Metrics
}

// MatchEvent is the pub/sub payload published after a committed change.
type MatchEvent struct {
	Type  pubsub.EventType `msgpack:"type" json:"type"`
	Match ledger.Match     `msgpack:"match" json:"match"`
	// Replaces is the id of the match an edit superseded.
	Replaces string `msgpack:"replaces,omitempty" json:"replaces,omitempty"`
	DryRun   bool   `msgpack:"dry_run" json:"dry_run"`
}

// PlayerNotFound is returned by PlayerStats when the query matched nobody
// with enough confidence.
type PlayerNotFound struct {
	Query       string
	Suggestions []club.PlayerSuggestion
}

func (e *PlayerNotFound) Error() string {
	return "no player matching " + e.Query
}

func (e *PlayerNotFound) Unwrap() error {
	return ledger.ErrNotFound
}

// Names lists the suggested player names in order.
func (e *PlayerNotFound) Names() []string {
	names := make([]string, 0, len(e.Suggestions))
	for _, s := range e.Suggestions {
		names = append(names, s.Player.Name)
	}
	return names
}
