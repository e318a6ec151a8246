package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/Herorishi1234/chess-game/internal/domain"
)

func newTestSnapshotStore(t *testing.T) (*SnapshotStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(func() { mr.Close() })
	s, err := NewSnapshotStore(fmt.Sprintf("redis://%s/0", mr.Addr()), time.Hour)
	if err != nil {
		t.Fatalf("NewSnapshotStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestSnapshotStore_RoundTrip(t *testing.T) {
	s, _ := newTestSnapshotStore(t)
	ctx := context.Background()

	g := &domain.Session{
		ID:       "g1",
		Mode:     domain.ModeBot,
		Status:   domain.StatusActive,
		FEN:      "startpos",
		MovesUCI: []string{"e2e4", "e7e5"},
		Turn:     domain.White,
	}
	if err := s.Save(ctx, g); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Get(ctx, "g1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.ID != "g1" || len(got.MovesUCI) != 2 || got.Status != domain.StatusActive {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
}

func TestSnapshotStore_MissIsNotAnError(t *testing.T) {
	s, _ := newTestSnapshotStore(t)
	got, err := s.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get miss: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil snapshot on miss, got %+v", got)
	}
}

func TestSnapshotStore_Expiry(t *testing.T) {
	s, mr := newTestSnapshotStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, &domain.Session{ID: "g1"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	mr.FastForward(2 * time.Hour)

	got, err := s.Get(ctx, "g1")
	if err != nil {
		t.Fatalf("Get after expiry: %v", err)
	}
	if got != nil {
		t.Fatalf("snapshot survived retention window")
	}
}

func TestSnapshotStore_Delete(t *testing.T) {
	s, _ := newTestSnapshotStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, &domain.Session{ID: "g1"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Delete(ctx, "g1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, err := s.Get(ctx, "g1")
	if err != nil || got != nil {
		t.Fatalf("expected miss after delete: got=%+v err=%v", got, err)
	}
}

func TestSnapshotStore_NilReceiverIsSafe(t *testing.T) {
	var s *SnapshotStore
	ctx := context.Background()
	if err := s.Save(ctx, &domain.Session{ID: "g1"}); err != nil {
		t.Fatalf("nil Save: %v", err)
	}
	if got, err := s.Get(ctx, "g1"); err != nil || got != nil {
		t.Fatalf("nil Get: got=%+v err=%v", got, err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("nil Close: %v", err)
	}
}

func TestParseRedisURL(t *testing.T) {
	opts, err := parseRedisURL("redis://:sekret@localhost:6379/2")
	if err != nil {
		t.Fatalf("parseRedisURL: %v", err)
	}
	if opts.Addr != "localhost:6379" || opts.Password != "sekret" || opts.DB != 2 {
		t.Fatalf("unexpected options: %+v", opts)
	}
	if _, err := parseRedisURL("http://localhost"); err == nil {
		t.Fatalf("expected error for non-redis scheme")
	}
}
