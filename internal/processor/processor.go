package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/pong-ladder/internal/club"
	"github.com/mauv0809/pong-ladder/internal/ledger"
	"github.com/mauv0809/pong-ladder/internal/metrics"
	"github.com/mauv0809/pong-ladder/internal/notifier"
	"github.com/mauv0809/pong-ladder/internal/pubsub"
)

// New creates a new Processor. A nil pubsub client makes the processor
// notify inline instead of publishing events.
func New(ledger Ledger, store club.ClubStore, notifier Notifier, metrics metrics.Metrics, pubsub pubsub.PubSubClient) *Processor {
	return &Processor{
		ledger:   ledger,
		store:    store,
		resolver: club.NewPlayerResolver(store),
		pubsub:   pubsub,
		notifier: notifier,
		metrics:  metrics,
	}
}

// SubmitMatch records a match. Players may be given by id or by name.
// In dry-run mode the result is computed but nothing is written or published.
func (p *Processor) SubmitMatch(ctx context.Context, sub ledger.Submission, dryRun bool) (ledger.MatchResult, error) {
	defer p.observe(time.Now())

	sub, err := p.resolveSubmission(ctx, sub)
	if err != nil {
		return ledger.MatchResult{}, err
	}
	if dryRun {
		res, err := p.ledger.Preview(ctx, sub)
		if err == nil {
			log.Info("[Dry Run] Would apply match", "winner", res.WinnerName, "loser", res.LoserName, "delta", res.Delta)
		}
		return res, err
	}

	res, err := p.ledger.Apply(ctx, sub)
	if err != nil {
		return ledger.MatchResult{}, err
	}
	p.metrics.IncMatchesApplied()
	p.metrics.ObserveRatingDelta(res.Delta)
	p.publish(ctx, MatchEvent{Type: pubsub.EventMatchApplied, Match: res.Match})
	return res, nil
}

// DeleteMatch reverses a match and returns it as it was.
func (p *Processor) DeleteMatch(ctx context.Context, matchID string, dryRun bool) (*ledger.Match, error) {
	defer p.observe(time.Now())

	if dryRun {
		m, err := p.ledger.Match(ctx, matchID)
		if err == nil {
			log.Info("[Dry Run] Would reverse match", "matchID", m.ID)
		}
		return m, err
	}

	m, err := p.ledger.Reverse(ctx, matchID)
	if err != nil {
		return nil, err
	}
	p.metrics.IncMatchesReversed()
	p.publish(ctx, MatchEvent{Type: pubsub.EventMatchReversed, Match: *m})
	return m, nil
}

// EditMatch replaces a match with a corrected submission.
func (p *Processor) EditMatch(ctx context.Context, matchID string, sub ledger.Submission, dryRun bool) (ledger.MatchResult, error) {
	defer p.observe(time.Now())

	sub, err := p.resolveSubmission(ctx, sub)
	if err != nil {
		return ledger.MatchResult{}, err
	}
	if dryRun {
		res, err := p.ledger.PreviewEdit(ctx, matchID, sub)
		if err == nil {
			log.Info("[Dry Run] Would edit match", "matchID", matchID, "winner", res.WinnerName, "delta", res.Delta)
		}
		return res, err
	}

	res, err := p.ledger.Edit(ctx, matchID, sub)
	if err != nil {
		return ledger.MatchResult{}, err
	}
	p.metrics.IncMatchesEdited()
	p.metrics.ObserveRatingDelta(res.Delta)
	p.publish(ctx, MatchEvent{Type: pubsub.EventMatchApplied, Match: res.Match, Replaces: matchID})
	return res, nil
}

// RunAudit checks the stored aggregates against the match history and
// reports drift to the notifier.
func (p *Processor) RunAudit(ctx context.Context, dryRun bool) (ledger.AuditReport, error) {
	report, err := p.ledger.Audit(ctx)
	if err != nil {
		return ledger.AuditReport{}, err
	}
	p.metrics.SetAuditDrift(len(report.Drifts))
	if !report.Consistent() {
		if err := p.notifier.SendAuditDrift(ctx, report, dryRun); err != nil {
			log.Error("Failed to send audit drift notification", "error", err)
		}
	}
	return report, nil
}

// HandleMatchEvent sends the notification for a published MatchEvent.
func (p *Processor) HandleMatchEvent(ctx context.Context, ev MatchEvent) error {
	log.Debug("Handling match event", "type", ev.Type, "matchID", ev.Match.ID)
	switch ev.Type {
	case pubsub.EventMatchApplied:
		return p.notifier.SendMatchResult(ctx, ev.Match, ev.DryRun)
	case pubsub.EventMatchReversed:
		return p.notifier.SendMatchReversed(ctx, ev.Match, ev.DryRun)
	default:
		return fmt.Errorf("%w: unknown match event type %q", ledger.ErrValidation, ev.Type)
	}
}

// CreatePlayer adds a player to the ladder.
func (p *Processor) CreatePlayer(ctx context.Context, name string, startingRating float64) (*ledger.Player, error) {
	return p.store.CreatePlayer(ctx, name, startingRating)
}

// Player returns a player by id.
func (p *Processor) Player(ctx context.Context, id string) (*ledger.Player, error) {
	return p.store.GetPlayer(ctx, id)
}

// Ladder returns the current standings.
func (p *Processor) Ladder(ctx context.Context) ([]ledger.Standing, error) {
	players, err := p.store.ListPlayers(ctx)
	if err != nil {
		return nil, err
	}
	return ledger.Standings(players), nil
}

// Matches lists matches newest first.
func (p *Processor) Matches(ctx context.Context, filter ledger.MatchFilter) ([]ledger.Match, error) {
	return p.store.ListMatches(ctx, filter)
}

// PlayerStats builds the profile of the player a query resolves to. When
// nobody matches, the error is a *PlayerNotFound carrying suggestions.
func (p *Processor) PlayerStats(ctx context.Context, query string) (notifier.PlayerStats, error) {
	player, err := p.resolve(ctx, query)
	if err != nil {
		return notifier.PlayerStats{}, err
	}
	standings, err := p.Ladder(ctx)
	if err != nil {
		return notifier.PlayerStats{}, err
	}
	matches, err := p.store.ListMatches(ctx, ledger.MatchFilter{PlayerID: player.ID})
	if err != nil {
		return notifier.PlayerStats{}, err
	}

	stats := notifier.PlayerStats{
		History:    ledger.RatingHistory(*player, matches),
		HeadToHead: ledger.HeadToHead(player.ID, matches),
	}
	for _, st := range standings {
		if st.PlayerID == player.ID {
			stats.Standing = st
			break
		}
	}
	return stats, nil
}

func (p *Processor) resolve(ctx context.Context, query string) (*ledger.Player, error) {
	player, suggestions, err := p.resolver.Resolve(ctx, query)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, &PlayerNotFound{Query: query, Suggestions: suggestions}
		}
		return nil, err
	}
	return player, nil
}

func (p *Processor) resolveSubmission(ctx context.Context, sub ledger.Submission) (ledger.Submission, error) {
	if err := sub.Validate(); err != nil {
		return sub, err
	}
	a, err := p.resolve(ctx, sub.PlayerAID)
	if err != nil {
		return sub, err
	}
	b, err := p.resolve(ctx, sub.PlayerBID)
	if err != nil {
		return sub, err
	}
	sub.PlayerAID, sub.PlayerBID = a.ID, b.ID
	return sub, nil
}

// publish hands the event to pub/sub, or notifies inline when pub/sub is not
// configured or unavailable. The ledger change is already committed, so
// failures here are only logged.
func (p *Processor) publish(ctx context.Context, ev MatchEvent) {
	if p.pubsub != nil {
		err := p.pubsub.SendMessage(ctx, ev.Type, ev)
		if err == nil {
			return
		}
		log.Error("Failed to publish match event, notifying inline", "error", err, "type", ev.Type, "matchID", ev.Match.ID)
	}
	if err := p.HandleMatchEvent(ctx, ev); err != nil {
		log.Error("Failed to send match notification", "error", err, "type", ev.Type, "matchID", ev.Match.ID)
	}
}

func (p *Processor) observe(start time.Time) {
	p.metrics.ObserveProcessingDuration(float64(time.Since(start).Milliseconds()))
}
