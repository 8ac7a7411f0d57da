package ledger

import (
	"context"
	"sort"
	"sync"
)

// MockStore is an in-memory Store for tests. Without hooks it behaves like a
// real store, including compare-and-swap on player versions. Setting a Func
// hook replaces the default behaviour of that method.
// It is safe for concurrent use.
type MockStore struct {
	mu sync.Mutex

	players map[string]Player
	matches map[string]Match
	entries map[EntryKey]Entry

	GetPlayerFunc     func(ctx context.Context, id string) (*Player, error)
	GetMatchFunc      func(ctx context.Context, id string) (*Match, error)
	PlayerEntriesFunc func(ctx context.Context, playerID string) ([]Entry, error)
	ListPlayersFunc   func(ctx context.Context) ([]Player, error)
	ListMatchesFunc   func(ctx context.Context, filter MatchFilter) ([]Match, error)
	CommitFunc        func(ctx context.Context, batch Batch) error

	GetPlayerCalls []string
	GetMatchCalls  []string
	CommitCalls    []Batch
}

// NewMockStore creates an empty mock store.
func NewMockStore() *MockStore {
	return &MockStore{
		players: make(map[string]Player),
		matches: make(map[string]Match),
		entries: make(map[EntryKey]Entry),
	}
}

// AddPlayer seeds a player directly, bypassing the engine.
func (m *MockStore) AddPlayer(p Player) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players[p.ID] = p
}

// AddMatch seeds a match directly, bypassing the engine and the entry log.
func (m *MockStore) AddMatch(match Match) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matches[match.ID] = match
}

// Player returns the stored player without recording a call.
func (m *MockStore) Player(id string) Player {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.players[id]
}

// MatchCount returns the number of stored matches.
func (m *MockStore) MatchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.matches)
}

// Entries returns every stored entry of a player in log order.
func (m *MockStore) Entries(playerID string) []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playerEntries(playerID)
}

// Reset clears all call records.
func (m *MockStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetPlayerCalls = nil
	m.GetMatchCalls = nil
	m.CommitCalls = nil
}

func (m *MockStore) GetPlayer(ctx context.Context, id string) (*Player, error) {
	m.mu.Lock()
	m.GetPlayerCalls = append(m.GetPlayerCalls, id)
	fn := m.GetPlayerFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[id]
	if !ok {
		return nil, &NotFoundError{Kind: "player", ID: id}
	}
	return &p, nil
}

func (m *MockStore) GetMatch(ctx context.Context, id string) (*Match, error) {
	m.mu.Lock()
	m.GetMatchCalls = append(m.GetMatchCalls, id)
	fn := m.GetMatchFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	match, ok := m.matches[id]
	if !ok {
		return nil, &NotFoundError{Kind: "match", ID: id}
	}
	return &match, nil
}

func (m *MockStore) PlayerEntries(ctx context.Context, playerID string) ([]Entry, error) {
	m.mu.Lock()
	fn := m.PlayerEntriesFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, playerID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playerEntries(playerID), nil
}

func (m *MockStore) playerEntries(playerID string) []Entry {
	var out []Entry
	for k, e := range m.entries {
		if k.PlayerID == playerID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return entryLess(out[i], out[j]) })
	return out
}

func (m *MockStore) ListPlayers(ctx context.Context) ([]Player, error) {
	m.mu.Lock()
	fn := m.ListPlayersFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Player, 0, len(m.players))
	for _, p := range m.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	return out, nil
}

func (m *MockStore) ListMatches(ctx context.Context, filter MatchFilter) ([]Match, error) {
	m.mu.Lock()
	fn := m.ListMatchesFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, filter)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Match
	for _, match := range m.matches {
		if filter.PlayerID != "" && !match.Involves(filter.PlayerID) {
			continue
		}
		out = append(out, match)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Commit applies the batch atomically: every version and every match to
// delete is checked before anything is written.
func (m *MockStore) Commit(ctx context.Context, batch Batch) error {
	m.mu.Lock()
	m.CommitCalls = append(m.CommitCalls, batch)
	fn := m.CommitFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, batch)
	}
	return m.commit(batch)
}

// CommitDirect runs the default Commit behaviour. Hooks use it to let a
// commit through after injecting a failure.
func (m *MockStore) CommitDirect(batch Batch) error {
	return m.commit(batch)
}

func (m *MockStore) commit(batch Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range batch.UpdatePlayers {
		cur, ok := m.players[u.Player.ID]
		if !ok {
			return &NotFoundError{Kind: "player", ID: u.Player.ID}
		}
		if cur.Version != u.ExpectedVersion {
			return ErrConflict
		}
	}
	for _, id := range batch.DeleteMatches {
		if _, ok := m.matches[id]; !ok {
			return ErrConflict
		}
	}
	for _, match := range batch.CreateMatches {
		m.matches[match.ID] = match
	}
	for _, e := range batch.PutEntries {
		m.entries[EntryKey{PlayerID: e.PlayerID, MatchID: e.MatchID}] = e
	}
	for _, k := range batch.DeleteEntries {
		delete(m.entries, k)
	}
	for _, id := range batch.DeleteMatches {
		delete(m.matches, id)
	}
	for _, u := range batch.UpdatePlayers {
		p := u.Player
		p.Version = u.ExpectedVersion + 1
		m.players[p.ID] = p
	}
	return nil
}
