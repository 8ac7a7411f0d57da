package ledger

import (
	"encoding/json"
	"time"
)

// DefaultStartingRating is assumed for players created before starting
// ratings were recorded.
const DefaultStartingRating = 1000

// Player is a ladder participant. Rating, Wins, Losses, GamesPlayed and Streak
// are only ever changed by the Engine.
type Player struct {
	ID             string  `json:"id" msgpack:"id"`
	Name           string  `json:"name" msgpack:"name"`
	Rating         float64 `json:"rating" msgpack:"rating"`
	StartingRating float64 `json:"starting_rating" msgpack:"starting_rating"`
	Wins           int     `json:"wins" msgpack:"wins"`
	Losses         int     `json:"losses" msgpack:"losses"`
	GamesPlayed    int     `json:"games_played" msgpack:"games_played"`
	Streak         string  `json:"streak" msgpack:"streak"`
	// Version is bumped by the store on every committed update and used for
	// compare-and-swap writes.
	Version int64 `json:"-" msgpack:"-"`
}

// Start returns the rating the player joined the ladder with.
func (p Player) Start() float64 {
	if p.StartingRating == 0 {
		return DefaultStartingRating
	}
	return p.StartingRating
}

// Match is an applied result. Matches are never updated in place.
type Match struct {
	ID             string    `json:"id" msgpack:"id"`
	PlayerAID      string    `json:"player_a_id" msgpack:"player_a_id"`
	PlayerAName    string    `json:"player_a_name" msgpack:"player_a_name"`
	PlayerBID      string    `json:"player_b_id" msgpack:"player_b_id"`
	PlayerBName    string    `json:"player_b_name" msgpack:"player_b_name"`
	ScoreA         int       `json:"score_a" msgpack:"score_a"`
	ScoreB         int       `json:"score_b" msgpack:"score_b"`
	WinnerID       string    `json:"winner_id" msgpack:"winner_id"`
	LoserID        string    `json:"loser_id" msgpack:"loser_id"`
	RatingChangeA  float64   `json:"rating_change_a" msgpack:"rating_change_a"`
	RatingChangeB  float64   `json:"rating_change_b" msgpack:"rating_change_b"`
	FormulaVersion int       `json:"formula_version" msgpack:"formula_version"`
	CreatedAt      time.Time `json:"created_at" msgpack:"created_at"`
}

// AWon reports whether player A won the match.
func (m Match) AWon() bool {
	return m.ScoreA > m.ScoreB
}

// Involves reports whether the player took part in the match.
func (m Match) Involves(playerID string) bool {
	return m.PlayerAID == playerID || m.PlayerBID == playerID
}

// Entry is one line of a player's ordered result log. StreakBefore is the
// player's streak immediately before the match, which is what makes
// out-of-order reversal exact. Seq orders the log: it is one more than the
// player's last entry at the time the match was applied.
type Entry struct {
	PlayerID     string    `json:"player_id"`
	MatchID      string    `json:"match_id"`
	Seq          int64     `json:"seq"`
	CreatedAt    time.Time `json:"created_at"`
	Won          bool      `json:"won"`
	StreakBefore string    `json:"streak_before"`
}

// EntryKey identifies an Entry.
type EntryKey struct {
	PlayerID string
	MatchID  string
}

// Submission is a match result as entered by a user.
type Submission struct {
	PlayerAID string `json:"player_a_id"`
	PlayerBID string `json:"player_b_id"`
	ScoreA    int    `json:"score_a"`
	ScoreB    int    `json:"score_b"`

	// missing holds the score fields a decoded body left out or set to null.
	missing []string
}

// UnmarshalJSON decodes a submission, remembering absent scores so that
// Validate can tell a missing score from a zero.
func (s *Submission) UnmarshalJSON(data []byte) error {
	var raw struct {
		PlayerAID string `json:"player_a_id"`
		PlayerBID string `json:"player_b_id"`
		ScoreA    *int   `json:"score_a"`
		ScoreB    *int   `json:"score_b"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Submission{PlayerAID: raw.PlayerAID, PlayerBID: raw.PlayerBID}
	if raw.ScoreA == nil {
		s.missing = append(s.missing, "score_a")
	} else {
		s.ScoreA = *raw.ScoreA
	}
	if raw.ScoreB == nil {
		s.missing = append(s.missing, "score_b")
	} else {
		s.ScoreB = *raw.ScoreB
	}
	return nil
}

// MatchResult summarises an applied match for display.
type MatchResult struct {
	MatchID      string  `json:"match_id" msgpack:"match_id"`
	WinnerID     string  `json:"winner_id" msgpack:"winner_id"`
	WinnerName   string  `json:"winner_name" msgpack:"winner_name"`
	LoserID      string  `json:"loser_id" msgpack:"loser_id"`
	LoserName    string  `json:"loser_name" msgpack:"loser_name"`
	RatingChange int     `json:"rating_change" msgpack:"rating_change"`
	Delta        float64 `json:"delta" msgpack:"delta"`
	Match        Match   `json:"match" msgpack:"match"`
}

// PlayerUpdate writes Player if the stored version still equals
// ExpectedVersion.
type PlayerUpdate struct {
	Player          Player
	ExpectedVersion int64
}

// Batch is the unit of atomic work handed to Store.Commit.
type Batch struct {
	CreateMatches []Match
	DeleteMatches []string
	PutEntries    []Entry
	DeleteEntries []EntryKey
	UpdatePlayers []PlayerUpdate
}

// Empty reports whether the batch has nothing to write.
func (b Batch) Empty() bool {
	return len(b.CreateMatches) == 0 && len(b.DeleteMatches) == 0 &&
		len(b.PutEntries) == 0 && len(b.DeleteEntries) == 0 && len(b.UpdatePlayers) == 0
}

// MatchFilter narrows ListMatches. The zero value lists everything.
type MatchFilter struct {
	PlayerID string
}
