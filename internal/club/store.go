package club

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/pong-ladder/internal/ledger"
)

type scanner interface {
	Scan(dest ...any) error
}

// New creates a new ClubStore.
func New(db *sql.DB) ClubStore {
	return &store{
		db: db,
	}
}

func (s *store) GetPlayer(ctx context.Context, id string) (*ledger.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+playerColumns+" FROM players WHERE id = ?", id)
	p, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &ledger.NotFoundError{Kind: "player", ID: id}
	}
	return p, err
}

// FindPlayerByName looks a player up by exact name, ignoring case.
func (s *store) FindPlayerByName(ctx context.Context, name string) (*ledger.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+playerColumns+" FROM players WHERE name = ? COLLATE NOCASE", strings.TrimSpace(name))
	p, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &ledger.NotFoundError{Kind: "player", ID: name}
	}
	return p, err
}

func (s *store) ListPlayers(ctx context.Context) ([]ledger.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT "+playerColumns+" FROM players ORDER BY rating DESC, name")
	if err != nil {
		log.Error("Failed to query players", "error", err)
		return nil, err
	}
	defer rows.Close()

	var players []ledger.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, *p)
	}
	return players, rows.Err()
}

// CreatePlayer adds a player to the ladder at startingRating, or at the
// default starting rating when it is zero.
func (s *store) CreatePlayer(ctx context.Context, name string, startingRating float64) (*ledger.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ledger.ValidationError{Field: "name", Reason: "is required"}
	}
	if startingRating < 0 {
		return nil, &ledger.ValidationError{Field: "starting_rating", Reason: "must not be negative"}
	}
	if startingRating == 0 {
		startingRating = ledger.DefaultStartingRating
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var exists bool
	err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM players WHERE name = ? COLLATE NOCASE)", name).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &ledger.ValidationError{Field: "name", Reason: fmt.Sprintf("player %q already exists", name)}
	}

	p := &ledger.Player{
		ID:             uuid.NewString(),
		Name:           name,
		Rating:         startingRating,
		StartingRating: startingRating,
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO players (id, name, rating, starting_rating, created_at) VALUES (?, ?, ?, ?, ?)",
		p.ID, p.Name, p.Rating, p.StartingRating, time.Now().UnixNano())
	if err != nil {
		log.Error("Failed to add player", "error", err, "name", name)
		return nil, err
	}
	log.Info("Added new player to the ladder", "playerID", p.ID, "name", p.Name, "rating", p.Rating)
	return p, nil
}

// RenamePlayer changes the display name. Names already stored on matches are
// left as they were when the match was played.
func (s *store) RenamePlayer(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &ledger.ValidationError{Field: "name", Reason: "is required"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateOne(ctx, id, "UPDATE players SET name = ? WHERE id = ?", name, id)
}

// SetStartingRating records the rating a player joined with. It only feeds
// history and points-per-game, never the current rating.
func (s *store) SetStartingRating(ctx context.Context, id string, startingRating float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateOne(ctx, id, "UPDATE players SET starting_rating = ? WHERE id = ?", startingRating, id)
}

func (s *store) updateOne(ctx context.Context, id, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &ledger.NotFoundError{Kind: "player", ID: id}
	}
	return nil
}

func (s *store) GetMatch(ctx context.Context, id string) (*ledger.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+matchColumns+" FROM matches WHERE id = ?", id)
	m, err := scanMatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &ledger.NotFoundError{Kind: "match", ID: id}
	}
	return m, err
}

// ListMatches returns matches newest first, optionally only those one player
// took part in.
func (s *store) ListMatches(ctx context.Context, filter ledger.MatchFilter) ([]ledger.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT " + matchColumns + " FROM matches"
	var args []any
	if filter.PlayerID != "" {
		query += " WHERE player_a_id = ? OR player_b_id = ?"
		args = append(args, filter.PlayerID, filter.PlayerID)
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("Failed to query matches", "error", err)
		return nil, err
	}
	defer rows.Close()

	var matches []ledger.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, *m)
	}
	return matches, rows.Err()
}

func (s *store) PlayerEntries(ctx context.Context, playerID string) ([]ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT player_id, match_id, seq, created_at, won, streak_before FROM ledger_entries WHERE player_id = ? ORDER BY seq, created_at, match_id",
		playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ledger.Entry
	for rows.Next() {
		var e ledger.Entry
		var createdAt int64
		if err := rows.Scan(&e.PlayerID, &e.MatchID, &e.Seq, &createdAt, &e.Won, &e.StreakBefore); err != nil {
			return nil, err
		}
		e.CreatedAt = time.Unix(0, createdAt).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Commit writes the batch in one transaction. Player rows are updated with a
// compare-and-swap on their version, and deleting a match that is already
// gone counts as a conflict too.
func (s *store) Commit(ctx context.Context, batch ledger.Batch) error {
	if batch.Empty() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, m := range batch.CreateMatches {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO matches (`+matchColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.ID, m.PlayerAID, m.PlayerAName, m.PlayerBID, m.PlayerBName, m.ScoreA, m.ScoreB,
			m.WinnerID, m.LoserID, m.RatingChangeA, m.RatingChangeB, m.FormulaVersion, m.CreatedAt.UnixNano())
		if err != nil {
			return fmt.Errorf("insert match %s: %w", m.ID, err)
		}
	}

	for _, e := range batch.PutEntries {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO ledger_entries (player_id, match_id, seq, created_at, won, streak_before)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(player_id, match_id) DO UPDATE SET
				seq = excluded.seq,
				created_at = excluded.created_at,
				won = excluded.won,
				streak_before = excluded.streak_before`,
			e.PlayerID, e.MatchID, e.Seq, e.CreatedAt.UnixNano(), e.Won, e.StreakBefore)
		if err != nil {
			return fmt.Errorf("put entry %s/%s: %w", e.PlayerID, e.MatchID, err)
		}
	}

	for _, k := range batch.DeleteEntries {
		if _, err := tx.ExecContext(ctx, "DELETE FROM ledger_entries WHERE player_id = ? AND match_id = ?", k.PlayerID, k.MatchID); err != nil {
			return fmt.Errorf("delete entry %s/%s: %w", k.PlayerID, k.MatchID, err)
		}
	}

	for _, id := range batch.DeleteMatches {
		res, err := tx.ExecContext(ctx, "DELETE FROM matches WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("delete match %s: %w", id, err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return ledger.ErrConflict
		}
	}

	for _, u := range batch.UpdatePlayers {
		p := u.Player
		res, err := tx.ExecContext(ctx, `
			UPDATE players
			SET rating = ?, wins = ?, losses = ?, games_played = ?, streak = ?, version = version + 1
			WHERE id = ? AND version = ?`,
			p.Rating, p.Wins, p.Losses, p.GamesPlayed, p.Streak, p.ID, u.ExpectedVersion)
		if err != nil {
			return fmt.Errorf("update player %s: %w", p.ID, err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			log.Debug("Player version moved on", "playerID", p.ID, "expected", u.ExpectedVersion)
			return ledger.ErrConflict
		}
	}

	return tx.Commit()
}

// Clear removes every player, match and ledger entry.
func (s *store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"ledger_entries", "matches", "players"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			log.Error("Failed to clear table", "table", table, "error", err)
			return err
		}
	}
	return tx.Commit()
}

func scanPlayer(row scanner) (*ledger.Player, error) {
	var p ledger.Player
	err := row.Scan(&p.ID, &p.Name, &p.Rating, &p.StartingRating, &p.Wins, &p.Losses, &p.GamesPlayed, &p.Streak, &p.Version)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanMatch(row scanner) (*ledger.Match, error) {
	var m ledger.Match
	var createdAt int64
	err := row.Scan(&m.ID, &m.PlayerAID, &m.PlayerAName, &m.PlayerBID, &m.PlayerBName, &m.ScoreA, &m.ScoreB,
		&m.WinnerID, &m.LoserID, &m.RatingChangeA, &m.RatingChangeB, &m.FormulaVersion, &createdAt)
	if err != nil {
		return nil, err
	}
	m.CreatedAt = time.Unix(0, createdAt).UTC()
	return &m, nil
}
