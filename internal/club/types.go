package club

import (
	"database/sql"
	"sync"
)

const (
	playerColumns = "id, name, rating, starting_rating, wins, losses, games_played, streak, version"
	matchColumns  = "id, player_a_id, player_a_name, player_b_id, player_b_name, score_a, score_b, winner_id, loser_id, rating_change_a, rating_change_b, formula_version, created_at"
)

// store handles all database operations for the ladder.
type store struct {
	db *sql.DB
	mu sync.RWMutex
}
