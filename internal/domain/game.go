package domain

import "time"

// Color identifies a chess side.
type Color string

const (
	White Color = "white"
	Black Color = "black"
)

func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

// Mode distinguishes two-player games from games against the built-in engine.
type Mode string

const (
	ModePvP Mode = "pvp"
	ModeBot Mode = "bot"
)

// Status represents a game lifecycle state. Transitions are one-directional:
// OPEN -> ACTIVE -> FINISHED | ABORTED.
type Status string

const (
	StatusOpen     Status = "OPEN"
	StatusActive   Status = "ACTIVE"
	StatusFinished Status = "FINISHED"
	StatusAborted  Status = "ABORTED"
)

func (s Status) Terminal() bool {
	return s == StatusFinished || s == StatusAborted
}

// Outcome is set exactly when a game reaches FINISHED.
type Outcome string

const (
	OutcomeWhite     Outcome = "white"
	OutcomeBlack     Outcome = "black"
	OutcomeDraw      Outcome = "draw"
	OutcomeUndecided Outcome = ""
)

// Seat binds an account to one side of a game. A zero Seat is unfilled.
type Seat struct {
	AccountID   string `json:"account_id,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

func (s Seat) Empty() bool { return s.AccountID == "" }

// TimeControl configures per-game clocks. A nil *TimeControl means untimed.
type TimeControl struct {
	Initial   time.Duration `json:"initial"`
	Increment time.Duration `json:"increment"`
}

// Session is the authoritative state of one game room.
type Session struct {
	ID       string  `json:"id"`
	Mode     Mode    `json:"mode"`
	Status   Status  `json:"status"`
	Outcome  Outcome `json:"outcome,omitempty"`
	EndedBy  string  `json:"ended_by,omitempty"` // checkmate, stalemate, resignation, timeout, draw_agreed, ...
	White    Seat    `json:"white"`
	Black    Seat    `json:"black"`
	FEN      string  `json:"fen"`
	MovesUCI []string `json:"moves_uci"`
	MovesSAN []string `json:"moves_san"`
	Turn     Color   `json:"turn"`

	TimeControl    *TimeControl  `json:"time_control,omitempty"`
	WhiteClock     time.Duration `json:"white_clock,omitempty"`
	BlackClock     time.Duration `json:"black_clock,omitempty"`
	LastTransition time.Time     `json:"last_transition,omitempty"`

	PGN       string    `json:"pgn,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	StartedAt time.Time `json:"started_at,omitempty"`
	EndedAt   time.Time `json:"ended_at,omitempty"`
}

// Seat returns the seat occupied by the account, if any.
func (g *Session) SeatOf(accountID string) (Color, bool) {
	if accountID != "" && g.White.AccountID == accountID {
		return White, true
	}
	if accountID != "" && g.Black.AccountID == accountID {
		return Black, true
	}
	return "", false
}

func (g *Session) SeatFor(color Color) Seat {
	if color == White {
		return g.White
	}
	return g.Black
}

// Clone returns a deep copy so a mutation can be staged and committed only
// after the persistence write succeeds.
func (g *Session) Clone() *Session {
	cp := *g
	cp.MovesUCI = append([]string(nil), g.MovesUCI...)
	cp.MovesSAN = append([]string(nil), g.MovesSAN...)
	if g.TimeControl != nil {
		tc := *g.TimeControl
		cp.TimeControl = &tc
	}
	return &cp
}

// Account is a registered player. Rating and counters change only at game
// finalization, once per finished game per participant.
type Account struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	SecretHash  string    `json:"-"`
	Rating      int       `json:"rating"`
	GamesPlayed int       `json:"games_played"`
	GamesWon    int       `json:"games_won"`
	CreatedAt   time.Time `json:"created_at"`
}
