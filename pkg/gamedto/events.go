package gamedto

// Websocket event types, client to server.
const (
	ClientJoin       = "join_session"
	ClientMove       = "make_move"
	ClientResign     = "resign"
	ClientOfferDraw  = "offer_draw"
	ClientAcceptDraw = "accept_draw"
	ClientLeave      = "leave_session"
)

// Websocket event types, server to client.
const (
	EventSessionState = "session_state"
	EventMoveApplied  = "move_applied"
	EventSessionEnded = "session_ended"
	EventDrawOffered  = "draw_offered"
	EventError        = "error"
)

// ClientEvent is the inbound envelope on the real-time channel.
type ClientEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Promotion string `json:"promotion,omitempty"`
}

type MoveInfo struct {
	UCI string `json:"uci"`
	SAN string `json:"san"`
	By  string `json:"by"`
}

// Event is the outbound envelope fanned out to room members.
type Event struct {
	Type    string        `json:"type"`
	Session *SessionState `json:"session,omitempty"`
	Move    *MoveInfo     `json:"move,omitempty"`
	Outcome string        `json:"outcome,omitempty"`
	Reason  string        `json:"reason,omitempty"`
	From    string        `json:"from,omitempty"`
	Error   *DomainError  `json:"error,omitempty"`
}
