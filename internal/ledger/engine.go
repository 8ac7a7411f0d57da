// Package ledger applies, reverses and edits ladder matches against a Store.
//
// Every operation reads the players it touches, computes their new state in
// memory and hands the result to Store.Commit as a single batch, so a match
// and both of its players are always written together or not at all.
package ledger

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/jpillora/backoff"
	"github.com/mauv0809/pong-ladder/internal/rating"
	"github.com/mauv0809/pong-ladder/internal/streak"
)

// Engine is the match ledger. It holds no state of its own besides its
// configuration and is safe for concurrent use; concurrent writers to the
// same player are serialised by the store's compare-and-swap and retried.
type Engine struct {
	store       Store
	formula     rating.Formula
	newID       func() string
	now         func() time.Time
	maxAttempts int
	minBackoff  time.Duration
	maxBackoff  time.Duration
	conflicts   ConflictRecorder
}

// Option configures an Engine.
type Option func(*Engine)

// WithFormula sets the rating formula used for new matches.
func WithFormula(f rating.Formula) Option {
	return func(e *Engine) { e.formula = f }
}

// WithClock overrides time.Now for match timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides the match id generator.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// WithRetry sets how many times an operation is attempted when its commit
// loses a compare-and-swap, and the backoff bounds between attempts.
func WithRetry(maxAttempts int, minBackoff, maxBackoff time.Duration) Option {
	return func(e *Engine) {
		e.maxAttempts = maxAttempts
		e.minBackoff = minBackoff
		e.maxBackoff = maxBackoff
	}
}

// WithConflictRecorder reports lost compare-and-swaps, typically to metrics.
func WithConflictRecorder(r ConflictRecorder) Option {
	return func(e *Engine) { e.conflicts = r }
}

// New creates an Engine over store.
func New(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:       store,
		formula:     rating.DefaultFormula,
		newID:       uuid.NewString,
		now:         time.Now,
		maxAttempts: 3,
		minBackoff:  10 * time.Millisecond,
		maxBackoff:  250 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.maxAttempts < 1 {
		e.maxAttempts = 1
	}
	return e
}

// Formula returns the formula applied to new matches.
func (e *Engine) Formula() rating.Formula {
	return e.formula
}

// Validate checks a submission without touching the store.
func (s Submission) Validate() error {
	if len(s.missing) > 0 {
		return &ValidationError{Field: s.missing[0], Reason: "is required"}
	}
	switch {
	case s.PlayerAID == "":
		return &ValidationError{Field: "player_a_id", Reason: "is required"}
	case s.PlayerBID == "":
		return &ValidationError{Field: "player_b_id", Reason: "is required"}
	case s.PlayerAID == s.PlayerBID:
		return &ValidationError{Field: "player_b_id", Reason: "a player cannot play against themselves"}
	case s.ScoreA < 0 || s.ScoreB < 0:
		return &ValidationError{Field: "score", Reason: "scores must not be negative"}
	case s.ScoreA == s.ScoreB:
		return &ValidationError{Field: "score", Reason: "match cannot end in a tie"}
	}
	return nil
}

// Apply records a new match and updates both players.
func (e *Engine) Apply(ctx context.Context, sub Submission) (MatchResult, error) {
	if err := sub.Validate(); err != nil {
		return MatchResult{}, err
	}
	var result MatchResult
	err := e.withRetry(ctx, "apply", func(ctx context.Context) error {
		w := newWorkset(e.store)
		r, err := e.applyInto(ctx, w, sub)
		if err != nil {
			return err
		}
		if err := e.commit(ctx, "apply", w); err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return MatchResult{}, err
	}
	log.Info("Match applied", "matchID", result.MatchID, "winner", result.WinnerName, "loser", result.LoserName, "delta", result.Delta)
	return result, nil
}

// Preview computes what Apply would do without writing anything.
func (e *Engine) Preview(ctx context.Context, sub Submission) (MatchResult, error) {
	if err := sub.Validate(); err != nil {
		return MatchResult{}, err
	}
	return e.applyInto(ctx, newWorkset(e.store), sub)
}

// Reverse removes a match and undoes its effect on both players. It returns
// the match as it was before deletion.
func (e *Engine) Reverse(ctx context.Context, matchID string) (*Match, error) {
	if matchID == "" {
		return nil, &ValidationError{Field: "match_id", Reason: "is required"}
	}
	var removed *Match
	err := e.withRetry(ctx, "reverse", func(ctx context.Context) error {
		w := newWorkset(e.store)
		m, err := e.getMatch(ctx, matchID)
		if err != nil {
			return err
		}
		if err := e.reverseInto(ctx, w, m); err != nil {
			return err
		}
		if err := e.commit(ctx, "reverse", w); err != nil {
			return err
		}
		removed = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info("Match reversed", "matchID", matchID)
	return removed, nil
}

// Edit replaces a match with a new submission. The old match's effects are
// undone and the new match applied in one batch, so a failure leaves the
// ledger exactly as it was. The replacement gets a new id and timestamp.
func (e *Engine) Edit(ctx context.Context, matchID string, sub Submission) (MatchResult, error) {
	if matchID == "" {
		return MatchResult{}, &ValidationError{Field: "match_id", Reason: "is required"}
	}
	if err := sub.Validate(); err != nil {
		return MatchResult{}, err
	}
	var result MatchResult
	err := e.withRetry(ctx, "edit", func(ctx context.Context) error {
		w := newWorkset(e.store)
		m, err := e.getMatch(ctx, matchID)
		if err != nil {
			return err
		}
		if err := e.reverseInto(ctx, w, m); err != nil {
			return err
		}
		r, err := e.applyInto(ctx, w, sub)
		if err != nil {
			return err
		}
		if err := e.commit(ctx, "edit", w); err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return MatchResult{}, err
	}
	log.Info("Match edited", "oldMatchID", matchID, "newMatchID", result.MatchID, "delta", result.Delta)
	return result, nil
}

// PreviewEdit computes what Edit would do without writing anything.
func (e *Engine) PreviewEdit(ctx context.Context, matchID string, sub Submission) (MatchResult, error) {
	if matchID == "" {
		return MatchResult{}, &ValidationError{Field: "match_id", Reason: "is required"}
	}
	if err := sub.Validate(); err != nil {
		return MatchResult{}, err
	}
	w := newWorkset(e.store)
	m, err := e.getMatch(ctx, matchID)
	if err != nil {
		return MatchResult{}, err
	}
	if err := e.reverseInto(ctx, w, m); err != nil {
		return MatchResult{}, err
	}
	return e.applyInto(ctx, w, sub)
}

// Match returns a stored match.
func (e *Engine) Match(ctx context.Context, matchID string) (*Match, error) {
	return e.getMatch(ctx, matchID)
}

func (e *Engine) getMatch(ctx context.Context, matchID string) (*Match, error) {
	m, err := e.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, storeErr("get match", err)
	}
	return m, nil
}

func (e *Engine) applyInto(ctx context.Context, w *workset, sub Submission) (MatchResult, error) {
	a, err := w.player(ctx, sub.PlayerAID)
	if err != nil {
		return MatchResult{}, err
	}
	b, err := w.player(ctx, sub.PlayerBID)
	if err != nil {
		return MatchResult{}, err
	}

	aWon := sub.ScoreA > sub.ScoreB
	winner, loser := a, b
	winnerScore, loserScore := sub.ScoreA, sub.ScoreB
	if !aWon {
		winner, loser = b, a
		winnerScore, loserScore = sub.ScoreB, sub.ScoreA
	}
	delta := rating.Change(winner.Rating, loser.Rating, winnerScore, loserScore, e.formula)

	// Entries are only needed for reversal; load them so the new entries
	// continue each player's sequence.
	if _, err := w.playerEntries(ctx, a.ID); err != nil {
		return MatchResult{}, err
	}
	if _, err := w.playerEntries(ctx, b.ID); err != nil {
		return MatchResult{}, err
	}

	oldA, oldB := a.Rating, b.Rating
	winner.Rating += delta
	loser.Rating -= delta

	m := Match{
		ID:          e.newID(),
		PlayerAID:   a.ID,
		PlayerAName: a.Name,
		PlayerBID:   b.ID,
		PlayerBName: b.Name,
		ScoreA:      sub.ScoreA,
		ScoreB:      sub.ScoreB,
		WinnerID:    winner.ID,
		LoserID:     loser.ID,
		// The realised differences, not ±delta, so that subtracting them
		// restores the previous ratings bit for bit.
		RatingChangeA:  a.Rating - oldA,
		RatingChangeB:  b.Rating - oldB,
		FormulaVersion: e.formula.Version,
		CreatedAt:      e.now().UTC(),
	}

	w.appendEntry(Entry{PlayerID: a.ID, MatchID: m.ID, CreatedAt: m.CreatedAt, Won: aWon, StreakBefore: a.Streak})
	w.appendEntry(Entry{PlayerID: b.ID, MatchID: m.ID, CreatedAt: m.CreatedAt, Won: !aWon, StreakBefore: b.Streak})

	a.Streak = streak.Next(a.Streak, aWon)
	b.Streak = streak.Next(b.Streak, !aWon)
	recordResult(a, aWon)
	recordResult(b, !aWon)

	w.batch.CreateMatches = append(w.batch.CreateMatches, m)

	return MatchResult{
		MatchID:      m.ID,
		WinnerID:     winner.ID,
		WinnerName:   winner.Name,
		LoserID:      loser.ID,
		LoserName:    loser.Name,
		RatingChange: int(math.Round(delta)),
		Delta:        delta,
		Match:        m,
	}, nil
}

func (e *Engine) reverseInto(ctx context.Context, w *workset, m *Match) error {
	a, err := w.player(ctx, m.PlayerAID)
	if err != nil {
		return err
	}
	b, err := w.player(ctx, m.PlayerBID)
	if err != nil {
		return err
	}
	aWon := m.AWon()

	a.Rating -= m.RatingChangeA
	b.Rating -= m.RatingChangeB
	undoResult(a, aWon)
	undoResult(b, !aWon)

	if a.Streak, err = e.rewindStreak(ctx, w, a, m.ID, aWon); err != nil {
		return err
	}
	if b.Streak, err = e.rewindStreak(ctx, w, b, m.ID, !aWon); err != nil {
		return err
	}

	w.batch.DeleteMatches = append(w.batch.DeleteMatches, m.ID)
	return nil
}

// rewindStreak recomputes a player's streak as if the match had never been
// played: the streak recorded before it, replayed through every later result.
// Later entries get their StreakBefore rewritten to match.
func (e *Engine) rewindStreak(ctx context.Context, w *workset, p *Player, matchID string, won bool) (string, error) {
	entries, err := w.playerEntries(ctx, p.ID)
	if err != nil {
		return "", err
	}
	idx := -1
	for i, entry := range entries {
		if entry.MatchID == matchID {
			idx = i
			break
		}
	}
	if idx < 0 {
		log.Warn("No ledger entry for match, streak reset heuristically", "playerID", p.ID, "matchID", matchID, "streak", p.Streak)
		return streak.Unwind(p.Streak, won), nil
	}

	s := entries[idx].StreakBefore
	for i := idx + 1; i < len(entries); i++ {
		if entries[i].StreakBefore != s {
			entries[i].StreakBefore = s
			w.putEntry(entries[i])
		}
		s = streak.Next(s, entries[i].Won)
	}
	w.removeEntry(p.ID, idx)
	return s, nil
}

func recordResult(p *Player, won bool) {
	if won {
		p.Wins++
	} else {
		p.Losses++
	}
	p.GamesPlayed++
}

func undoResult(p *Player, won bool) {
	if won {
		p.Wins = max(0, p.Wins-1)
	} else {
		p.Losses = max(0, p.Losses-1)
	}
	p.GamesPlayed = max(0, p.GamesPlayed-1)
}

func (e *Engine) commit(ctx context.Context, op string, w *workset) error {
	if err := e.store.Commit(ctx, w.finalize()); err != nil {
		if errors.Is(err, ErrConflict) && e.conflicts != nil {
			e.conflicts.IncStoreConflicts()
		}
		return storeErr("commit "+op, err)
	}
	return nil
}

// withRetry runs fn until it succeeds, fails with anything other than
// ErrConflict, or runs out of attempts.
func (e *Engine) withRetry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	b := &backoff.Backoff{Min: e.minBackoff, Max: e.maxBackoff, Factor: 2, Jitter: true}
	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil || !errors.Is(err, ErrConflict) || attempt >= e.maxAttempts {
			return err
		}
		wait := b.Duration()
		log.Warn("Ledger write conflict, retrying", "op", op, "attempt", attempt, "backoff", wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}
