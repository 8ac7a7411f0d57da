package ledger

import (
	"math"
	"sort"
)

// Standing is one row of the ladder table.
type Standing struct {
	Rank          int     `json:"rank"`
	PlayerID      string  `json:"player_id"`
	Name          string  `json:"name"`
	Rating        int     `json:"rating"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	GamesPlayed   int     `json:"games_played"`
	WinPercent    float64 `json:"win_percent"`
	PointsPerGame float64 `json:"points_per_game"`
	Streak        string  `json:"streak"`
}

// Standings ranks players by rating, highest first. Ties keep name order.
func Standings(players []Player) []Standing {
	sorted := make([]Player, len(players))
	copy(sorted, players)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Rating != sorted[j].Rating {
			return sorted[i].Rating > sorted[j].Rating
		}
		return sorted[i].Name < sorted[j].Name
	})

	out := make([]Standing, 0, len(sorted))
	for i, p := range sorted {
		s := Standing{
			Rank:        i + 1,
			PlayerID:    p.ID,
			Name:        p.Name,
			Rating:      int(math.Round(p.Rating)),
			Wins:        p.Wins,
			Losses:      p.Losses,
			GamesPlayed: p.GamesPlayed,
			Streak:      p.Streak,
		}
		if p.GamesPlayed > 0 {
			s.WinPercent = round1(100 * float64(p.Wins) / float64(p.GamesPlayed))
			s.PointsPerGame = round1((p.Rating - p.Start()) / float64(p.GamesPlayed))
		}
		out = append(out, s)
	}
	return out
}

// HistoryPoint is the player's rating after one match.
type HistoryPoint struct {
	MatchID       string  `json:"match_id"`
	OpponentID    string  `json:"opponent_id"`
	OpponentName  string  `json:"opponent_name"`
	Won           bool    `json:"won"`
	Score         int     `json:"score"`
	OpponentScore int     `json:"opponent_score"`
	Change        float64 `json:"change"`
	Rating        int     `json:"rating"`
}

// RatingHistory rebuilds the player's rating trajectory from their starting
// rating. matches may be in any order; unrelated matches are skipped.
func RatingHistory(p Player, matches []Match) []HistoryPoint {
	own := make([]Match, 0, len(matches))
	for _, m := range matches {
		if m.Involves(p.ID) {
			own = append(own, m)
		}
	}
	sort.SliceStable(own, func(i, j int) bool {
		if !own[i].CreatedAt.Equal(own[j].CreatedAt) {
			return own[i].CreatedAt.Before(own[j].CreatedAt)
		}
		return own[i].ID < own[j].ID
	})

	r := p.Start()
	points := make([]HistoryPoint, 0, len(own))
	for _, m := range own {
		hp := HistoryPoint{MatchID: m.ID}
		if m.PlayerAID == p.ID {
			hp.OpponentID, hp.OpponentName = m.PlayerBID, m.PlayerBName
			hp.Score, hp.OpponentScore = m.ScoreA, m.ScoreB
			hp.Change = m.RatingChangeA
		} else {
			hp.OpponentID, hp.OpponentName = m.PlayerAID, m.PlayerAName
			hp.Score, hp.OpponentScore = m.ScoreB, m.ScoreA
			hp.Change = m.RatingChangeB
		}
		hp.Won = hp.Score > hp.OpponentScore
		r += hp.Change
		hp.Rating = int(math.Round(r))
		points = append(points, hp)
	}
	return points
}

// Record is a player's results against one opponent.
type Record struct {
	OpponentID   string `json:"opponent_id"`
	OpponentName string `json:"opponent_name"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
}

// HeadToHead tallies the player's record against every opponent they have
// faced, most played first.
func HeadToHead(playerID string, matches []Match) []Record {
	byOpponent := make(map[string]*Record)
	var order []string
	for _, m := range matches {
		if !m.Involves(playerID) {
			continue
		}
		oppID, oppName := m.PlayerBID, m.PlayerBName
		if m.PlayerBID == playerID {
			oppID, oppName = m.PlayerAID, m.PlayerAName
		}
		rec, ok := byOpponent[oppID]
		if !ok {
			rec = &Record{OpponentID: oppID, OpponentName: oppName}
			byOpponent[oppID] = rec
			order = append(order, oppID)
		}
		if m.WinnerID == playerID {
			rec.Wins++
		} else {
			rec.Losses++
		}
	}

	out := make([]Record, 0, len(order))
	for _, id := range order {
		out = append(out, *byOpponent[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Wins+out[i].Losses > out[j].Wins+out[j].Losses
	})
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
