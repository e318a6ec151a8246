package bot

import (
	"context"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

// Engine is the automated opponent. BestMove returns a UCI move for the side
// to move in the given position, or ok=false when the position is malformed
// or has no legal move. Running out of context budget degrades the move
// quality, it does not withhold the reply.
type Engine interface {
	BestMove(ctx context.Context, fen string) (uci string, ok bool)
}

var pieceValues = map[nchess.PieceType]int{
	nchess.Pawn:   100,
	nchess.Knight: 320,
	nchess.Bishop: 330,
	nchess.Rook:   500,
	nchess.Queen:  900,
}

const (
	mateScore     = 100000
	mobilityBonus = 2
)

// Minimax is a shallow negamax searcher over material and mobility. It is
// deliberately modest: the session engine only needs a bounded, legal reply.
type Minimax struct {
	Depth int
}

func NewMinimax(depth int) *Minimax {
	if depth < 1 {
		depth = 2
	}
	return &Minimax{Depth: depth}
}

func (e *Minimax) BestMove(ctx context.Context, fen string) (string, bool) {
	opt, err := nchess.FEN(strings.TrimSpace(fen))
	if err != nil {
		return "", false
	}
	game := nchess.NewGame(opt)
	moves := game.ValidMoves()
	if len(moves) == 0 {
		return "", false
	}

	notation := nchess.UCINotation{}
	pos := game.Position()

	bestIdx := -1
	bestScore := -mateScore * 2
	for i := range moves {
		if ctx.Err() != nil {
			break
		}
		mv := moves[i]
		child := game.Clone()
		if err := child.Move(&mv, nil); err != nil {
			continue
		}
		score := -e.negamax(ctx, child, e.Depth-1)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		// Deadline hit before any candidate was scored; any legal move beats
		// forfeiting the reply.
		bestIdx = 0
	}
	mv := moves[bestIdx]
	return strings.ToLower(notation.Encode(pos, &mv)), true
}

func (e *Minimax) negamax(ctx context.Context, game *nchess.Game, depth int) int {
	if outcome := game.Outcome(); outcome != nchess.NoOutcome {
		if game.Method() == nchess.Checkmate {
			// Side to move has been mated.
			return -mateScore
		}
		return 0
	}
	if depth <= 0 || ctx.Err() != nil {
		return evaluate(game)
	}

	moves := game.ValidMoves()
	if len(moves) == 0 {
		return evaluate(game)
	}
	best := -mateScore * 2
	for i := range moves {
		if ctx.Err() != nil {
			break
		}
		mv := moves[i]
		child := game.Clone()
		if err := child.Move(&mv, nil); err != nil {
			continue
		}
		if score := -e.negamax(ctx, child, depth-1); score > best {
			best = score
		}
	}
	if best == -mateScore*2 {
		return evaluate(game)
	}
	return best
}

// evaluate scores the position from the perspective of the side to move.
func evaluate(game *nchess.Game) int {
	pos := game.Position()
	turn := pos.Turn()

	material := 0
	for _, piece := range pos.Board().SquareMap() {
		value := pieceValues[piece.Type()]
		if value == 0 {
			continue
		}
		if piece.Color() == turn {
			material += value
		} else {
			material -= value
		}
	}
	return material + mobilityBonus*len(game.ValidMoves())
}
