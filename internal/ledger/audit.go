package ledger

import (
	"context"
	"math"
	"sort"

	"github.com/charmbracelet/log"
)

// auditTolerance absorbs float noise from summing stored deltas in a
// different order than they were applied.
const auditTolerance = 1e-6

// Drift is a player whose stored aggregates disagree with a replay of the
// matches they took part in.
type Drift struct {
	PlayerID       string  `json:"player_id"`
	Name           string  `json:"name"`
	StoredRating   float64 `json:"stored_rating"`
	ExpectedRating float64 `json:"expected_rating"`
	StoredWins     int     `json:"stored_wins"`
	ExpectedWins   int     `json:"expected_wins"`
	StoredLosses   int     `json:"stored_losses"`
	ExpectedLosses int     `json:"expected_losses"`
	StoredGames    int     `json:"stored_games"`
	ExpectedGames  int     `json:"expected_games"`
}

// AuditReport is the result of Engine.Audit.
type AuditReport struct {
	Players int     `json:"players"`
	Matches int     `json:"matches"`
	Drifts  []Drift `json:"drifts"`
}

// Consistent reports whether no drift was found.
func (r AuditReport) Consistent() bool {
	return len(r.Drifts) == 0
}

// Audit replays every stored match from each player's starting rating and
// compares the result with the stored aggregates. Streaks are not checked:
// they are derived from the entry log, not from the match list.
func (e *Engine) Audit(ctx context.Context) (AuditReport, error) {
	players, err := e.store.ListPlayers(ctx)
	if err != nil {
		return AuditReport{}, storeErr("list players", err)
	}
	matches, err := e.store.ListMatches(ctx, MatchFilter{})
	if err != nil {
		return AuditReport{}, storeErr("list matches", err)
	}

	type fold struct {
		rating              float64
		wins, losses, games int
	}
	folds := make(map[string]*fold, len(players))
	for _, p := range players {
		folds[p.ID] = &fold{rating: p.Start()}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.Before(matches[j].CreatedAt)
		}
		return matches[i].ID < matches[j].ID
	})
	for _, m := range matches {
		aWon := m.AWon()
		if f, ok := folds[m.PlayerAID]; ok {
			f.rating += m.RatingChangeA
			f.games++
			if aWon {
				f.wins++
			} else {
				f.losses++
			}
		}
		if f, ok := folds[m.PlayerBID]; ok {
			f.rating += m.RatingChangeB
			f.games++
			if aWon {
				f.losses++
			} else {
				f.wins++
			}
		}
	}

	report := AuditReport{Players: len(players), Matches: len(matches)}
	for _, p := range players {
		f := folds[p.ID]
		if math.Abs(f.rating-p.Rating) <= auditTolerance &&
			f.wins == p.Wins && f.losses == p.Losses && f.games == p.GamesPlayed {
			continue
		}
		report.Drifts = append(report.Drifts, Drift{
			PlayerID:       p.ID,
			Name:           p.Name,
			StoredRating:   p.Rating,
			ExpectedRating: f.rating,
			StoredWins:     p.Wins,
			ExpectedWins:   f.wins,
			StoredLosses:   p.Losses,
			ExpectedLosses: f.losses,
			StoredGames:    p.GamesPlayed,
			ExpectedGames:  f.games,
		})
	}
	if !report.Consistent() {
		log.Warn("Ledger audit found drift", "players", len(report.Drifts))
	} else {
		log.Debug("Ledger audit consistent", "players", report.Players, "matches", report.Matches)
	}
	return report, nil
}
