package gamedto

import "time"

type SeatInfo struct {
	AccountID   string `json:"account_id,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

type TimeControlInfo struct {
	InitialSec   int `json:"initial_sec"`
	IncrementSec int `json:"increment_sec"`
}

// SessionState is the full snapshot broadcast to every room member.
type SessionState struct {
	ID       string   `json:"id"`
	Mode     string   `json:"mode"`
	Status   string   `json:"status"`
	Outcome  string   `json:"outcome,omitempty"`
	EndedBy  string   `json:"ended_by,omitempty"`
	White    SeatInfo `json:"white"`
	Black    SeatInfo `json:"black"`
	FEN      string   `json:"fen"`
	MovesUCI []string `json:"moves_uci"`
	MovesSAN []string `json:"moves_san"`
	Turn     string   `json:"turn"`

	TimeControl  *TimeControlInfo `json:"time_control,omitempty"`
	WhiteClockMS int64            `json:"white_clock_ms,omitempty"`
	BlackClockMS int64            `json:"black_clock_ms,omitempty"`

	PGN       string    `json:"pgn,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	StartedAt time.Time `json:"started_at,omitempty"`
	EndedAt   time.Time `json:"ended_at,omitempty"`
}

type AccountSummary struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Rating      int    `json:"rating"`
	GamesPlayed int    `json:"games_played"`
	GamesWon    int    `json:"games_won"`
}
