package match

import "errors"

var (
	// ErrNotFound: unknown session identifier.
	ErrNotFound = errors.New("session not found")
	// ErrForbidden: caller not seated, or acting out of turn.
	ErrForbidden = errors.New("not allowed for this account")
	// ErrIllegalState: action invalid for the session's current status.
	ErrIllegalState = errors.New("action invalid for session state")
	// ErrInvalidMove: rule engine rejected the move; state unchanged.
	ErrInvalidMove = errors.New("illegal move")
	// ErrTimeForfeit: the move arrived after budget exhaustion; the session
	// was finalized as a loss for the mover instead of accepting the move.
	ErrTimeForfeit = errors.New("flag fell before the move arrived")
)
