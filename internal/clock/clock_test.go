package clock

import (
	"testing"
	"time"

	"github.com/Herorishi1234/chess-game/internal/domain"
)

func TestApply_UntimedIsNoop(t *testing.T) {
	now := time.Now()
	upd := Apply(nil, 0, now.Add(-time.Hour), now)
	if upd.Forfeit || upd.Remaining != 0 {
		t.Fatalf("untimed game must never forfeit: %+v", upd)
	}
}

func TestApply_DeductsElapsedAndAddsIncrement(t *testing.T) {
	tc := &domain.TimeControl{Initial: 600 * time.Second, Increment: 5 * time.Second}
	last := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	now := last.Add(12 * time.Second)

	upd := Apply(tc, 600*time.Second, last, now)
	if upd.Forfeit {
		t.Fatalf("unexpected forfeit")
	}
	if got := upd.Remaining.Milliseconds(); got != 593000 {
		t.Fatalf("remaining = %dms, want 593000ms", got)
	}
}

func TestApply_ForfeitWhenBudgetExhausted(t *testing.T) {
	tc := &domain.TimeControl{Initial: 60 * time.Second, Increment: 2 * time.Second}
	last := time.Now()

	upd := Apply(tc, 3*time.Second, last, last.Add(3*time.Second))
	if !upd.Forfeit {
		t.Fatalf("expected forfeit at exact exhaustion")
	}
	if upd.Remaining != 0 {
		t.Fatalf("forfeited clock must floor at zero, got %v", upd.Remaining)
	}

	// The increment never rescues a flag that already fell.
	upd = Apply(tc, 3*time.Second, last, last.Add(4*time.Second))
	if !upd.Forfeit || upd.Remaining != 0 {
		t.Fatalf("expected forfeit past exhaustion: %+v", upd)
	}
}

func TestApply_ClampsClockSkew(t *testing.T) {
	tc := &domain.TimeControl{Initial: 60 * time.Second, Increment: time.Second}
	last := time.Now()

	// now before lastTransition: treat elapsed as zero rather than refunding.
	upd := Apply(tc, 30*time.Second, last, last.Add(-5*time.Second))
	if upd.Forfeit {
		t.Fatalf("unexpected forfeit")
	}
	if upd.Remaining != 31*time.Second {
		t.Fatalf("remaining = %v, want 31s", upd.Remaining)
	}
}
