package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Herorishi1234/chess-game/internal/domain"
)

func TestMemstore_GameRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	g := &domain.Session{
		ID:       "g1",
		Mode:     domain.ModePvP,
		Status:   domain.StatusOpen,
		White:    domain.Seat{AccountID: "a1", DisplayName: "alice"},
		FEN:      "startpos",
		MovesUCI: []string{"e2e4"},
	}
	if err := m.SaveGame(ctx, g); err != nil {
		t.Fatalf("SaveGame: %v", err)
	}

	// The store must hold its own copy.
	g.MovesUCI[0] = "mutated"
	got, err := m.GetGame(ctx, "g1")
	if err != nil {
		t.Fatalf("GetGame: %v", err)
	}
	if got.MovesUCI[0] != "e2e4" {
		t.Fatalf("stored game aliases caller memory")
	}

	if _, err := m.GetGame(ctx, "missing"); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("expected ErrGameNotFound, got %v", err)
	}
}

func TestMemstore_ListOpenGames(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	base := time.Now()

	for i, st := range []domain.Status{domain.StatusOpen, domain.StatusActive, domain.StatusOpen, domain.StatusFinished} {
		g := &domain.Session{
			ID:        string(rune('a' + i)),
			Status:    st,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := m.SaveGame(ctx, g); err != nil {
			t.Fatalf("SaveGame: %v", err)
		}
	}

	list, err := m.ListOpenGames(ctx, 10)
	if err != nil {
		t.Fatalf("ListOpenGames: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 open games, got %d", len(list))
	}
	// Newest first.
	if list[0].ID != "c" || list[1].ID != "a" {
		t.Fatalf("unexpected order: %s, %s", list[0].ID, list[1].ID)
	}

	limited, err := m.ListOpenGames(ctx, 1)
	if err != nil || len(limited) != 1 {
		t.Fatalf("limit not applied: len=%d err=%v", len(limited), err)
	}
}

func TestMemstore_ListGamesByAccount(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	games := []*domain.Session{
		{ID: "g1", White: domain.Seat{AccountID: "a1"}, Black: domain.Seat{AccountID: "a2"}},
		{ID: "g2", White: domain.Seat{AccountID: "a2"}, Black: domain.Seat{AccountID: "a3"}},
		{ID: "g3", White: domain.Seat{AccountID: "a3"}, Black: domain.Seat{AccountID: "a1"}},
	}
	for _, g := range games {
		if err := m.SaveGame(ctx, g); err != nil {
			t.Fatalf("SaveGame: %v", err)
		}
	}

	list, err := m.ListGamesByAccount(ctx, "a1", 10)
	if err != nil {
		t.Fatalf("ListGamesByAccount: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 games for a1, got %d", len(list))
	}
}

func TestMemstore_Accounts(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	a := &domain.Account{ID: "a1", DisplayName: "Alice", Rating: 1200}
	if err := m.CreateAccount(ctx, a); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	// Names collide case-insensitively.
	dup := &domain.Account{ID: "a2", DisplayName: "alice"}
	if err := m.CreateAccount(ctx, dup); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}

	got, err := m.GetAccountByName(ctx, "ALICE")
	if err != nil || got.ID != "a1" {
		t.Fatalf("GetAccountByName: got %+v err %v", got, err)
	}
	if _, err := m.GetAccount(ctx, "nobody"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestMemstore_ApplyResult(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.CreateAccount(ctx, &domain.Account{ID: "a1", DisplayName: "alice", Rating: 1200}); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if err := m.ApplyResult(ctx, "a1", true, 1212); err != nil {
		t.Fatalf("ApplyResult: %v", err)
	}
	if err := m.ApplyResult(ctx, "a1", false, 1204); err != nil {
		t.Fatalf("ApplyResult: %v", err)
	}

	got, err := m.GetAccount(ctx, "a1")
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if got.GamesPlayed != 2 || got.GamesWon != 1 || got.Rating != 1204 {
		t.Fatalf("unexpected account after results: %+v", got)
	}

	if err := m.ApplyResult(ctx, "ghost", true, 1); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestMemstore_Leaderboard(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	for _, a := range []*domain.Account{
		{ID: "a1", DisplayName: "carol", Rating: 1300},
		{ID: "a2", DisplayName: "alice", Rating: 1500},
		{ID: "a3", DisplayName: "bob", Rating: 1300},
	} {
		if err := m.CreateAccount(ctx, a); err != nil {
			t.Fatalf("CreateAccount: %v", err)
		}
	}

	list, err := m.Leaderboard(ctx, 2)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("limit not applied: %d", len(list))
	}
	if list[0].DisplayName != "alice" || list[1].DisplayName != "bob" {
		t.Fatalf("unexpected order: %s, %s", list[0].DisplayName, list[1].DisplayName)
	}
}
