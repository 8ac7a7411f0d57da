package club

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mauv0809/pong-ladder/internal/ledger"
)

// MockStore is a mock implementation of the ClubStore interface for testing.
// Ledger methods are served by an embedded in-memory ledger.MockStore.
// It is safe for concurrent use.
type MockStore struct {
	*ledger.MockStore

	mu     sync.Mutex
	nextID int

	CreatePlayerFunc      func(ctx context.Context, name string, startingRating float64) (*ledger.Player, error)
	RenamePlayerFunc      func(ctx context.Context, id, name string) error
	SetStartingRatingFunc func(ctx context.Context, id string, startingRating float64) error
	FindPlayerByNameFunc  func(ctx context.Context, name string) (*ledger.Player, error)
	ClearFunc             func(ctx context.Context) error

	CreatePlayerCalls      []string
	SetStartingRatingCalls []struct {
		ID             string
		StartingRating float64
	}
	ClearCalls int
}

// NewMock creates a new mock instance.
func NewMock() *MockStore {
	return &MockStore{MockStore: ledger.NewMockStore()}
}

func (m *MockStore) CreatePlayer(ctx context.Context, name string, startingRating float64) (*ledger.Player, error) {
	m.mu.Lock()
	m.CreatePlayerCalls = append(m.CreatePlayerCalls, name)
	m.nextID++
	id := fmt.Sprintf("player-%d", m.nextID)
	m.mu.Unlock()
	if m.CreatePlayerFunc != nil {
		return m.CreatePlayerFunc(ctx, name, startingRating)
	}
	if startingRating == 0 {
		startingRating = ledger.DefaultStartingRating
	}
	p := ledger.Player{ID: id, Name: name, Rating: startingRating, StartingRating: startingRating}
	m.AddPlayer(p)
	return &p, nil
}

func (m *MockStore) RenamePlayer(ctx context.Context, id, name string) error {
	if m.RenamePlayerFunc != nil {
		return m.RenamePlayerFunc(ctx, id, name)
	}
	p, err := m.GetPlayer(ctx, id)
	if err != nil {
		return err
	}
	p.Name = name
	m.AddPlayer(*p)
	return nil
}

func (m *MockStore) SetStartingRating(ctx context.Context, id string, startingRating float64) error {
	m.mu.Lock()
	m.SetStartingRatingCalls = append(m.SetStartingRatingCalls, struct {
		ID             string
		StartingRating float64
	}{id, startingRating})
	m.mu.Unlock()
	if m.SetStartingRatingFunc != nil {
		return m.SetStartingRatingFunc(ctx, id, startingRating)
	}
	p, err := m.GetPlayer(ctx, id)
	if err != nil {
		return err
	}
	p.StartingRating = startingRating
	m.AddPlayer(*p)
	return nil
}

func (m *MockStore) FindPlayerByName(ctx context.Context, name string) (*ledger.Player, error) {
	if m.FindPlayerByNameFunc != nil {
		return m.FindPlayerByNameFunc(ctx, name)
	}
	players, err := m.ListPlayers(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range players {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return &p, nil
		}
	}
	return nil, &ledger.NotFoundError{Kind: "player", ID: name}
}

func (m *MockStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.ClearCalls++
	m.mu.Unlock()
	if m.ClearFunc != nil {
		return m.ClearFunc(ctx)
	}
	m.MockStore = ledger.NewMockStore()
	return nil
}
