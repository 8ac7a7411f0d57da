package main

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/pong-ladder/internal/club"
	"github.com/mauv0809/pong-ladder/internal/ledger"
)

type seedPlayer struct {
	Name           string
	StartingRating float64
}

// originalPlayers is the ladder as it was first set up.
var originalPlayers = []seedPlayer{
	{"Wesley", 1200},
	{"Derek", 1180},
	{"Matt", 1160},
	{"JWin", 1140},
	{"Ryuta", 1120},
	{"JLin", 1100},
	{"Sophia", 1080},
	{"Victoria", 1060},
	{"Karoline", 1040},
	{"Cynt", 1020},
}

type seedSummary struct {
	Created  int
	Existing int
}

func seed(ctx context.Context, store club.ClubStore, players []seedPlayer) (seedSummary, error) {
	var summary seedSummary
	for _, sp := range players {
		_, err := store.FindPlayerByName(ctx, sp.Name)
		if err == nil {
			log.Debug("Player already exists", "name", sp.Name)
			summary.Existing++
			continue
		}
		if !errors.Is(err, ledger.ErrNotFound) {
			return summary, err
		}
		if _, err := store.CreatePlayer(ctx, sp.Name, sp.StartingRating); err != nil {
			return summary, err
		}
		summary.Created++
	}
	return summary, nil
}

// backfillStartingRatings gives every player without a starting rating the
// one from players, matched by name, or the default rating.
func backfillStartingRatings(ctx context.Context, store club.ClubStore, players []seedPlayer) (int, error) {
	known := make(map[string]float64, len(players))
	for _, sp := range players {
		known[strings.ToLower(sp.Name)] = sp.StartingRating
	}

	all, err := store.ListPlayers(ctx)
	if err != nil {
		return 0, err
	}
	updated := 0
	for _, p := range all {
		if p.StartingRating != 0 {
			continue
		}
		r, ok := known[strings.ToLower(p.Name)]
		if !ok {
			r = ledger.DefaultStartingRating
		}
		if err := store.SetStartingRating(ctx, p.ID, r); err != nil {
			return updated, err
		}
		log.Info("Backfilled starting rating", "player", p.Name, "startingRating", r)
		updated++
	}
	return updated, nil
}
