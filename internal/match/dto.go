package match

import (
	"github.com/Herorishi1234/chess-game/internal/domain"
	"github.com/Herorishi1234/chess-game/pkg/gamedto"
)

// ToState converts a session to its wire snapshot.
func ToState(g *domain.Session) *gamedto.SessionState {
	if g == nil {
		return nil
	}
	st := &gamedto.SessionState{
		ID:       g.ID,
		Mode:     string(g.Mode),
		Status:   string(g.Status),
		Outcome:  string(g.Outcome),
		EndedBy:  g.EndedBy,
		White:    gamedto.SeatInfo{AccountID: g.White.AccountID, DisplayName: g.White.DisplayName},
		Black:    gamedto.SeatInfo{AccountID: g.Black.AccountID, DisplayName: g.Black.DisplayName},
		FEN:      g.FEN,
		MovesUCI: append([]string(nil), g.MovesUCI...),
		MovesSAN: append([]string(nil), g.MovesSAN...),
		Turn:     string(g.Turn),

		PGN:       g.PGN,
		CreatedAt: g.CreatedAt,
		StartedAt: g.StartedAt,
		EndedAt:   g.EndedAt,
	}
	if g.TimeControl != nil {
		st.TimeControl = &gamedto.TimeControlInfo{
			InitialSec:   int(g.TimeControl.Initial.Seconds()),
			IncrementSec: int(g.TimeControl.Increment.Seconds()),
		}
		st.WhiteClockMS = g.WhiteClock.Milliseconds()
		st.BlackClockMS = g.BlackClock.Milliseconds()
	}
	return st
}

func stateEvent(g *domain.Session) *gamedto.Event {
	return &gamedto.Event{Type: gamedto.EventSessionState, Session: ToState(g)}
}

func moveEvent(g *domain.Session, uci, san string, by domain.Color) *gamedto.Event {
	return &gamedto.Event{
		Type:    gamedto.EventMoveApplied,
		Session: ToState(g),
		Move:    &gamedto.MoveInfo{UCI: uci, SAN: san, By: string(by)},
	}
}

func endedEvent(g *domain.Session) *gamedto.Event {
	return &gamedto.Event{
		Type:    gamedto.EventSessionEnded,
		Session: ToState(g),
		Outcome: string(g.Outcome),
		Reason:  g.EndedBy,
	}
}
