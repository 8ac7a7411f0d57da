package main

import (
	"context"
	"testing"

	"github.com/mauv0809/pong-ladder/internal/club"
	"github.com/mauv0809/pong-ladder/internal/database"
	"github.com/mauv0809/pong-ladder/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) club.ClubStore {
	t.Helper()
	db, teardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)
	t.Cleanup(teardown)
	return club.New(db)
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	store := setupTestDB(t)

	summary, err := seed(ctx, store, originalPlayers)
	require.NoError(t, err)
	assert.Equal(t, seedSummary{Created: 10}, summary)

	players, err := store.ListPlayers(ctx)
	require.NoError(t, err)
	require.Len(t, players, 10)
	assert.Equal(t, "Wesley", players[0].Name)
	assert.Equal(t, 1200.0, players[0].Rating)
	assert.Equal(t, "Cynt", players[9].Name)
	assert.Equal(t, 1020.0, players[9].StartingRating)

	summary, err = seed(ctx, store, originalPlayers)
	require.NoError(t, err)
	assert.Equal(t, seedSummary{Existing: 10}, summary)
}

func TestBackfillStartingRatings(t *testing.T) {
	ctx := context.Background()
	mock := club.NewMock()
	mock.AddPlayer(ledger.Player{ID: "w", Name: "wesley", Rating: 1230})
	mock.AddPlayer(ledger.Player{ID: "n", Name: "Newcomer", Rating: 990})
	mock.AddPlayer(ledger.Player{ID: "d", Name: "Derek", Rating: 1170, StartingRating: 1180})

	n, err := backfillStartingRatings(ctx, mock, originalPlayers)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1200.0, mock.Player("w").StartingRating)
	assert.Equal(t, 1230.0, mock.Player("w").Rating, "current rating is untouched")
	assert.Equal(t, float64(ledger.DefaultStartingRating), mock.Player("n").StartingRating)
	assert.Len(t, mock.SetStartingRatingCalls, 2)
}
