// Package rating computes margin-of-victory weighted Elo adjustments.
package rating

import (
	"errors"
	"fmt"
	"math"
)

// Formula holds the tunable constants of the rating adjustment. Version is
// stored on every match so historical deltas can be traced back to the
// constants that produced them.
type Formula struct {
	Version     int     `json:"version" msgpack:"version"`
	TargetScore int     `json:"target_score" msgpack:"target_score"`
	K           float64 `json:"k" msgpack:"k"`
	MaxChange   float64 `json:"max_change" msgpack:"max_change"`
}

// DefaultFormula is the formula the ladder has used since its first season.
var DefaultFormula = Formula{
	Version:     1,
	TargetScore: 21,
	K:           8,
	MaxChange:   30,
}

// ErrInvalidFormula is returned by Validate.
var ErrInvalidFormula = errors.New("invalid rating formula")

// Validate checks that the formula can produce a bounded, non-negative delta.
func (f Formula) Validate() error {
	switch {
	case f.TargetScore <= 0:
		return fmt.Errorf("%w: target score must be positive, got %d", ErrInvalidFormula, f.TargetScore)
	case f.K < 0:
		return fmt.Errorf("%w: k must not be negative, got %g", ErrInvalidFormula, f.K)
	case f.MaxChange < 0:
		return fmt.Errorf("%w: max change must not be negative, got %g", ErrInvalidFormula, f.MaxChange)
	}
	return nil
}

// Expected returns the logistic probability that a player rated a beats a
// player rated b.
func Expected(a, b float64) float64 {
	return 1 / (1 + math.Pow(10, (b-a)/400))
}

// Change returns the rating delta to add to the winner and subtract from the
// loser. The first score is always treated as the winner's; the caller is
// responsible for ordering and for rejecting ties. Margins beyond the target
// score carry no extra weight and the result is clamped to [0, MaxChange].
func Change(winnerRating, loserRating float64, winnerScore, loserScore int, f Formula) float64 {
	diff := winnerScore - loserScore
	if diff > f.TargetScore {
		diff = f.TargetScore
	}
	expected := Expected(winnerRating, loserRating)
	raw := f.K * float64(diff) * (11 / float64(f.TargetScore)) * (1 - expected)
	return math.Max(0, math.Min(raw, f.MaxChange))
}
