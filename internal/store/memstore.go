package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/Herorishi1234/chess-game/internal/domain"
)

// memstore is an in-memory Repository used for development and tests when no
// database is configured.
type memstore struct {
	mu sync.RWMutex

	games          map[string]*domain.Session
	accounts       map[string]*domain.Account
	accountsByName map[string]*domain.Account
}

func NewMemory() Repository {
	return &memstore{
		games:          make(map[string]*domain.Session),
		accounts:       make(map[string]*domain.Account),
		accountsByName: make(map[string]*domain.Account),
	}
}

func (m *memstore) SaveGame(ctx context.Context, g *domain.Session) error {
	if g == nil || g.ID == "" {
		return ErrGameNotFound
	}
	m.mu.Lock()
	m.games[g.ID] = g.Clone()
	m.mu.Unlock()
	return nil
}

func (m *memstore) GetGame(ctx context.Context, id string) (*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.games[id]
	if !ok {
		return nil, ErrGameNotFound
	}
	return g.Clone(), nil
}

func (m *memstore) ListOpenGames(ctx context.Context, limit int) ([]*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var list []*domain.Session
	for _, g := range m.games {
		if g.Status == domain.StatusOpen {
			list = append(list, g.Clone())
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (m *memstore) ListGamesByAccount(ctx context.Context, accountID string, limit int) ([]*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var list []*domain.Session
	for _, g := range m.games {
		if _, ok := g.SeatOf(accountID); ok {
			list = append(list, g.Clone())
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (m *memstore) CreateAccount(ctx context.Context, a *domain.Account) error {
	if a == nil || a.ID == "" {
		return ErrAccountNotFound
	}
	key := nameKey(a.DisplayName)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.accountsByName[key]; exists {
		return ErrDuplicateName
	}
	cp := *a
	m.accounts[a.ID] = &cp
	m.accountsByName[key] = &cp
	return nil
}

func (m *memstore) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memstore) GetAccountByName(ctx context.Context, displayName string) (*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accountsByName[nameKey(displayName)]
	if !ok {
		return nil, ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memstore) ApplyResult(ctx context.Context, accountID string, won bool, rating int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[accountID]
	if !ok {
		return ErrAccountNotFound
	}
	a.GamesPlayed++
	if won {
		a.GamesWon++
	}
	a.Rating = rating
	return nil
}

func (m *memstore) Leaderboard(ctx context.Context, limit int) ([]*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := make([]*domain.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		cp := *a
		list = append(list, &cp)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Rating != list[j].Rating {
			return list[i].Rating > list[j].Rating
		}
		return list[i].DisplayName < list[j].DisplayName
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
