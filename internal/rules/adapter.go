package rules

import (
	"errors"
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"

	"github.com/Herorishi1234/chess-game/internal/domain"
)

// ErrRejected marks a move the rule engine refused; the position is unchanged.
var ErrRejected = errors.New("move rejected by rule engine")

// StartFEN is the standard initial position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Result is the normalized verdict for an accepted move.
type Result struct {
	FEN      string
	UCI      string
	SAN      string
	Terminal bool
	Method   string       // checkmate, stalemate, threefold_repetition, ...
	Winner   domain.Color // set only for checkmate
}

// Apply validates one candidate move against a position and produces the
// resulting position. It is a pure function of its arguments: the game is
// rebuilt from the FEN on every call and nothing outside it is touched.
func Apply(fen, from, to, promotion string) (*Result, error) {
	game, err := gameFromFEN(fen)
	if err != nil {
		return nil, err
	}

	uci := strings.ToLower(strings.TrimSpace(from) + strings.TrimSpace(to) + strings.ToLower(strings.TrimSpace(promotion)))
	if len(uci) < 4 {
		return nil, ErrRejected
	}

	pos := game.Position()
	notationUCI := nchess.UCINotation{}
	move, err := notationUCI.Decode(pos, uci)
	if err != nil {
		return nil, ErrRejected
	}
	if err := game.Move(move, nil); err != nil {
		return nil, ErrRejected
	}

	res := &Result{
		FEN: game.FEN(),
		UCI: strings.ToLower(notationUCI.Encode(pos, move)),
		SAN: nchess.AlgebraicNotation{}.Encode(pos, move),
	}

	if game.Outcome() != nchess.NoOutcome {
		res.Terminal = true
		res.Method = strings.ToLower(game.Method().String())
		if game.Method() == nchess.Checkmate {
			// The side that just moved delivered mate.
			res.Winner = colorFrom(pos.Turn())
		}
	}
	return res, nil
}

// SideToMove reports whose turn it is in the given position.
func SideToMove(fen string) (domain.Color, error) {
	game, err := gameFromFEN(fen)
	if err != nil {
		return "", err
	}
	return colorFrom(game.Position().Turn()), nil
}

func gameFromFEN(fen string) (*nchess.Game, error) {
	fen = strings.TrimSpace(fen)
	if fen == "" {
		fen = StartFEN
	}
	opt, err := nchess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("parse fen: %w", err)
	}
	return nchess.NewGame(opt), nil
}

func colorFrom(c nchess.Color) domain.Color {
	if c == nchess.White {
		return domain.White
	}
	return domain.Black
}
