package ledger

import (
	"context"
	"sort"
)

// workset caches the records touched by one operation and accumulates the
// batch that commits them. Nothing is written until the engine commits.
type workset struct {
	store    Store
	players  map[string]*Player
	versions map[string]int64
	order    []string
	entries  map[string][]Entry
	batch    Batch
}

func newWorkset(store Store) *workset {
	return &workset{
		store:    store,
		players:  make(map[string]*Player),
		versions: make(map[string]int64),
		entries:  make(map[string][]Entry),
	}
}

// player loads a player once per operation so that a reverse and an apply on
// the same player compose.
func (w *workset) player(ctx context.Context, id string) (*Player, error) {
	if p, ok := w.players[id]; ok {
		return p, nil
	}
	p, err := w.store.GetPlayer(ctx, id)
	if err != nil {
		return nil, storeErr("get player", err)
	}
	w.players[id] = p
	w.versions[id] = p.Version
	w.order = append(w.order, id)
	return p, nil
}

func (w *workset) playerEntries(ctx context.Context, playerID string) ([]Entry, error) {
	if entries, ok := w.entries[playerID]; ok {
		return entries, nil
	}
	entries, err := w.store.PlayerEntries(ctx, playerID)
	if err != nil {
		return nil, storeErr("list entries", err)
	}
	sort.SliceStable(entries, func(i, j int) bool { return entryLess(entries[i], entries[j]) })
	w.entries[playerID] = entries
	return entries, nil
}

// appendEntry adds e at the end of its player's log. The player's entries
// must already be loaded.
func (w *workset) appendEntry(e Entry) {
	entries := w.entries[e.PlayerID]
	e.Seq = 1
	if n := len(entries); n > 0 {
		e.Seq = entries[n-1].Seq + 1
	}
	w.entries[e.PlayerID] = append(entries, e)
	w.batch.PutEntries = append(w.batch.PutEntries, e)
}

func (w *workset) putEntry(e Entry) {
	for i, existing := range w.batch.PutEntries {
		if existing.PlayerID == e.PlayerID && existing.MatchID == e.MatchID {
			w.batch.PutEntries[i] = e
			return
		}
	}
	w.batch.PutEntries = append(w.batch.PutEntries, e)
}

// removeEntry drops an entry from the cache and schedules its deletion.
func (w *workset) removeEntry(playerID string, idx int) {
	entries := w.entries[playerID]
	removed := entries[idx]
	w.entries[playerID] = append(entries[:idx:idx], entries[idx+1:]...)
	w.batch.DeleteEntries = append(w.batch.DeleteEntries, EntryKey{PlayerID: playerID, MatchID: removed.MatchID})
}

// finalize adds the player updates in load order and returns the batch.
func (w *workset) finalize() Batch {
	b := w.batch
	b.UpdatePlayers = nil
	for _, id := range w.order {
		b.UpdatePlayers = append(b.UpdatePlayers, PlayerUpdate{
			Player:          *w.players[id],
			ExpectedVersion: w.versions[id],
		})
	}
	return b
}

// entryLess orders a player's log by Seq. Timestamps only break ties between
// entries written before sequences existed.
func entryLess(a, b Entry) bool {
	if a.Seq != b.Seq {
		return a.Seq < b.Seq
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.MatchID < b.MatchID
}
