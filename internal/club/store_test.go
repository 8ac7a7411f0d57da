package club_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/mauv0809/pong-ladder/internal/club"
	"github.com/mauv0809/pong-ladder/internal/database"
	"github.com/mauv0809/pong-ladder/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) (club.ClubStore, *sql.DB, func()) {
	t.Helper()

	db, teardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)

	return club.New(db), db, teardown
}

func newEngine(store ledger.Store) *ledger.Engine {
	var n int
	clock := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	return ledger.New(store,
		ledger.WithIDGenerator(func() string { n++; return fmt.Sprintf("m%02d", n) }),
		ledger.WithClock(func() time.Time { clock = clock.Add(time.Minute); return clock }),
	)
}

func TestCreatePlayer(t *testing.T) {
	ctx := context.Background()
	store, _, teardown := setupTestDB(t)
	defer teardown()

	t.Run("defaults the starting rating", func(t *testing.T) {
		p, err := store.CreatePlayer(ctx, "Wesley", 0)
		require.NoError(t, err)
		assert.NotEmpty(t, p.ID)
		assert.Equal(t, 1000.0, p.Rating)
		assert.Equal(t, 1000.0, p.StartingRating)

		got, err := store.GetPlayer(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, *p, *got)
	})

	t.Run("explicit starting rating", func(t *testing.T) {
		p, err := store.CreatePlayer(ctx, "Derek", 1180)
		require.NoError(t, err)
		assert.Equal(t, 1180.0, p.Rating)
	})

	t.Run("duplicate name ignoring case", func(t *testing.T) {
		_, err := store.CreatePlayer(ctx, "wesley", 0)
		assert.ErrorIs(t, err, ledger.ErrValidation)
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := store.CreatePlayer(ctx, "   ", 0)
		assert.ErrorIs(t, err, ledger.ErrValidation)
	})
}

func TestPlayerLookups(t *testing.T) {
	ctx := context.Background()
	store, _, teardown := setupTestDB(t)
	defer teardown()

	low, err := store.CreatePlayer(ctx, "Cynt", 1020)
	require.NoError(t, err)
	high, err := store.CreatePlayer(ctx, "Matt", 1160)
	require.NoError(t, err)

	t.Run("list is ordered by rating", func(t *testing.T) {
		players, err := store.ListPlayers(ctx)
		require.NoError(t, err)
		require.Len(t, players, 2)
		assert.Equal(t, high.ID, players[0].ID)
		assert.Equal(t, low.ID, players[1].ID)
	})

	t.Run("find by name", func(t *testing.T) {
		p, err := store.FindPlayerByName(ctx, " MATT ")
		require.NoError(t, err)
		assert.Equal(t, high.ID, p.ID)

		_, err = store.FindPlayerByName(ctx, "nobody")
		assert.ErrorIs(t, err, ledger.ErrNotFound)
	})

	t.Run("missing player", func(t *testing.T) {
		_, err := store.GetPlayer(ctx, "nope")
		assert.ErrorIs(t, err, ledger.ErrNotFound)
	})

	t.Run("rename", func(t *testing.T) {
		require.NoError(t, store.RenamePlayer(ctx, low.ID, "Cynthia"))
		p, err := store.GetPlayer(ctx, low.ID)
		require.NoError(t, err)
		assert.Equal(t, "Cynthia", p.Name)

		assert.ErrorIs(t, store.RenamePlayer(ctx, "nope", "x"), ledger.ErrNotFound)
	})

	t.Run("set starting rating", func(t *testing.T) {
		require.NoError(t, store.SetStartingRating(ctx, high.ID, 1200))
		p, err := store.GetPlayer(ctx, high.ID)
		require.NoError(t, err)
		assert.Equal(t, 1200.0, p.StartingRating)
		assert.Equal(t, 1160.0, p.Rating, "current rating is untouched")
	})
}

func TestCommit(t *testing.T) {
	ctx := context.Background()

	t.Run("engine round trip through SQL", func(t *testing.T) {
		store, _, teardown := setupTestDB(t)
		defer teardown()
		engine := newEngine(store)

		a, err := store.CreatePlayer(ctx, "Ryuta", 1120)
		require.NoError(t, err)
		b, err := store.CreatePlayer(ctx, "Sophia", 1080)
		require.NoError(t, err)

		res, err := engine.Apply(ctx, ledger.Submission{PlayerAID: a.ID, PlayerBID: b.ID, ScoreA: 21, ScoreB: 13})
		require.NoError(t, err)

		got, err := store.GetPlayer(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.Version)
		assert.Equal(t, "W1", got.Streak)
		assert.Equal(t, 1, got.Wins)

		m, err := store.GetMatch(ctx, res.MatchID)
		require.NoError(t, err)
		assert.Equal(t, "Ryuta", m.PlayerAName)
		assert.Equal(t, time.Date(2024, 5, 1, 9, 1, 0, 0, time.UTC), m.CreatedAt)
		assert.Equal(t, 1, m.FormulaVersion)

		entries, err := store.PlayerEntries(ctx, b.ID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.False(t, entries[0].Won)

		_, err = engine.Reverse(ctx, res.MatchID)
		require.NoError(t, err)

		got, err = store.GetPlayer(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, 1120.0, got.Rating)
		assert.Equal(t, "", got.Streak)
		assert.Equal(t, int64(2), got.Version)
		_, err = store.GetMatch(ctx, res.MatchID)
		assert.ErrorIs(t, err, ledger.ErrNotFound)
		entries, err = store.PlayerEntries(ctx, b.ID)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("entry sequence survives equal timestamps", func(t *testing.T) {
		store, _, teardown := setupTestDB(t)
		defer teardown()
		ids := []string{"mb", "ma"}
		at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
		engine := ledger.New(store,
			ledger.WithIDGenerator(func() string { id := ids[0]; ids = ids[1:]; return id }),
			ledger.WithClock(func() time.Time { return at }),
		)

		a, err := store.CreatePlayer(ctx, "Karoline", 1040)
		require.NoError(t, err)
		b, err := store.CreatePlayer(ctx, "Cynt", 1020)
		require.NoError(t, err)

		_, err = engine.Apply(ctx, ledger.Submission{PlayerAID: a.ID, PlayerBID: b.ID, ScoreA: 21, ScoreB: 13})
		require.NoError(t, err)
		_, err = engine.Apply(ctx, ledger.Submission{PlayerAID: a.ID, PlayerBID: b.ID, ScoreA: 13, ScoreB: 21})
		require.NoError(t, err)

		entries, err := store.PlayerEntries(ctx, a.ID)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "mb", entries[0].MatchID)
		assert.Equal(t, int64(1), entries[0].Seq)
		assert.Equal(t, "ma", entries[1].MatchID)
		assert.Equal(t, int64(2), entries[1].Seq)

		_, err = engine.Reverse(ctx, "mb")
		require.NoError(t, err)
		got, err := store.GetPlayer(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, "L1", got.Streak)
	})

	t.Run("stale version is a conflict and writes nothing", func(t *testing.T) {
		store, _, teardown := setupTestDB(t)
		defer teardown()

		a, err := store.CreatePlayer(ctx, "Victoria", 0)
		require.NoError(t, err)
		b, err := store.CreatePlayer(ctx, "Karoline", 0)
		require.NoError(t, err)

		stale := *a
		stale.Rating = 1500
		err = store.Commit(ctx, ledger.Batch{
			CreateMatches: []ledger.Match{{
				ID: "m1", PlayerAID: a.ID, PlayerAName: a.Name, PlayerBID: b.ID, PlayerBName: b.Name,
				ScoreA: 21, ScoreB: 1, WinnerID: a.ID, LoserID: b.ID, CreatedAt: time.Now(),
			}},
			UpdatePlayers: []ledger.PlayerUpdate{{Player: stale, ExpectedVersion: 7}},
		})
		assert.ErrorIs(t, err, ledger.ErrConflict)

		got, err := store.GetPlayer(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, 1000.0, got.Rating)
		_, err = store.GetMatch(ctx, "m1")
		assert.ErrorIs(t, err, ledger.ErrNotFound, "the match insert must be rolled back")
	})

	t.Run("deleting a missing match is a conflict", func(t *testing.T) {
		store, _, teardown := setupTestDB(t)
		defer teardown()

		err := store.Commit(ctx, ledger.Batch{DeleteMatches: []string{"gone"}})
		assert.ErrorIs(t, err, ledger.ErrConflict)
	})

	t.Run("empty batch", func(t *testing.T) {
		store, _, teardown := setupTestDB(t)
		defer teardown()

		assert.NoError(t, store.Commit(ctx, ledger.Batch{}))
	})
}

func TestListMatches(t *testing.T) {
	ctx := context.Background()
	store, _, teardown := setupTestDB(t)
	defer teardown()
	engine := newEngine(store)

	a, _ := store.CreatePlayer(ctx, "JWin", 1140)
	b, _ := store.CreatePlayer(ctx, "JLin", 1100)
	c, _ := store.CreatePlayer(ctx, "Sophia", 1080)

	first, err := engine.Apply(ctx, ledger.Submission{PlayerAID: a.ID, PlayerBID: b.ID, ScoreA: 21, ScoreB: 18})
	require.NoError(t, err)
	second, err := engine.Apply(ctx, ledger.Submission{PlayerAID: b.ID, PlayerBID: c.ID, ScoreA: 21, ScoreB: 9})
	require.NoError(t, err)

	t.Run("newest first", func(t *testing.T) {
		matches, err := store.ListMatches(ctx, ledger.MatchFilter{})
		require.NoError(t, err)
		require.Len(t, matches, 2)
		assert.Equal(t, second.MatchID, matches[0].ID)
		assert.Equal(t, first.MatchID, matches[1].ID)
	})

	t.Run("filtered by player", func(t *testing.T) {
		matches, err := store.ListMatches(ctx, ledger.MatchFilter{PlayerID: c.ID})
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, second.MatchID, matches[0].ID)
	})

	t.Run("audit agrees with stored aggregates", func(t *testing.T) {
		report, err := engine.Audit(ctx)
		require.NoError(t, err)
		assert.True(t, report.Consistent())
		assert.Equal(t, 3, report.Players)
	})

	t.Run("clear", func(t *testing.T) {
		require.NoError(t, store.Clear(ctx))
		players, err := store.ListPlayers(ctx)
		require.NoError(t, err)
		assert.Empty(t, players)
	})
}
