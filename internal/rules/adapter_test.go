package rules

import (
	"errors"
	"testing"

	"github.com/Herorishi1234/chess-game/internal/domain"
)

func TestApply_OpeningMove(t *testing.T) {
	res, err := Apply(StartFEN, "e2", "e4", "")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res.UCI != "e2e4" {
		t.Fatalf("unexpected uci: %q", res.UCI)
	}
	if res.SAN != "e4" {
		t.Fatalf("unexpected san: %q", res.SAN)
	}
	if res.FEN == StartFEN || res.FEN == "" {
		t.Fatalf("position did not advance: %q", res.FEN)
	}
	if res.Terminal {
		t.Fatalf("opening move must not be terminal")
	}
}

func TestApply_RejectsIllegalMove(t *testing.T) {
	for _, tc := range [][2]string{
		{"e2", "e5"}, // pawn cannot triple-step
		{"e7", "e5"}, // not white's piece
		{"a1", "a1"}, // null move
		{"zz", "99"}, // garbage squares
	} {
		if _, err := Apply(StartFEN, tc[0], tc[1], ""); !errors.Is(err, ErrRejected) {
			t.Fatalf("Apply(%s%s): expected ErrRejected, got %v", tc[0], tc[1], err)
		}
	}
}

func TestApply_RejectionLeavesNoTrace(t *testing.T) {
	// Rejection is just an error; the caller's FEN is untouched because
	// Apply never mutates shared state.
	res, err := Apply(StartFEN, "e2", "e4", "")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, err := Apply(res.FEN, "e4", "e6", ""); !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
	again, err := Apply(res.FEN, "e7", "e5", "")
	if err != nil {
		t.Fatalf("Apply after rejection: %v", err)
	}
	if again.SAN != "e5" {
		t.Fatalf("position drifted after rejected move: %q", again.SAN)
	}
}

func TestApply_FoolsMate(t *testing.T) {
	fen := StartFEN
	moves := [][3]string{
		{"f2", "f3", ""},
		{"e7", "e5", ""},
		{"g2", "g4", ""},
		{"d8", "h4", ""},
	}
	var res *Result
	for i, mv := range moves {
		var err error
		res, err = Apply(fen, mv[0], mv[1], mv[2])
		if err != nil {
			t.Fatalf("move %d (%s%s): %v", i+1, mv[0], mv[1], err)
		}
		fen = res.FEN
	}
	if !res.Terminal {
		t.Fatalf("expected terminal position after Qh4#")
	}
	if res.Method != "checkmate" {
		t.Fatalf("unexpected method: %q", res.Method)
	}
	if res.Winner != domain.Black {
		t.Fatalf("unexpected winner: %q", res.Winner)
	}
}

func TestApply_Promotion(t *testing.T) {
	res, err := Apply("8/P7/8/8/8/8/8/k6K w - - 0 1", "a7", "a8", "q")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res.UCI != "a7a8q" {
		t.Fatalf("unexpected uci: %q", res.UCI)
	}
}

func TestSideToMove(t *testing.T) {
	c, err := SideToMove(StartFEN)
	if err != nil || c != domain.White {
		t.Fatalf("start position: color=%q err=%v", c, err)
	}
	res, err := Apply(StartFEN, "e2", "e4", "")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	c, err = SideToMove(res.FEN)
	if err != nil || c != domain.Black {
		t.Fatalf("after 1.e4: color=%q err=%v", c, err)
	}
}

func TestSideToMove_BadFEN(t *testing.T) {
	if _, err := SideToMove("not a position"); err == nil {
		t.Fatalf("expected error for malformed fen")
	}
}
