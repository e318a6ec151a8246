package clock

import (
	"time"

	"github.com/Herorishi1234/chess-game/internal/domain"
)

// Update is the result of one turn-transition accounting step for the side
// that just moved.
type Update struct {
	Remaining time.Duration
	Forfeit   bool
}

// Apply deducts the wall-clock time elapsed since the last turn transition
// from the mover's remaining budget and adds the increment. If the budget ran
// out before the increment, the move is a time forfeit and the remaining
// budget is floored at zero. Untimed games (nil time control) are a no-op.
func Apply(tc *domain.TimeControl, remaining time.Duration, lastTransition, now time.Time) Update {
	if tc == nil {
		return Update{}
	}
	elapsed := now.Sub(lastTransition)
	if elapsed < 0 {
		elapsed = 0
	}
	left := remaining - elapsed
	if left <= 0 {
		return Update{Remaining: 0, Forfeit: true}
	}
	return Update{Remaining: left + tc.Increment}
}
