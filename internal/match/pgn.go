package match

import (
	"fmt"
	"strings"
	"time"

	"github.com/Herorishi1234/chess-game/internal/domain"
)

func pgnResultToken(outcome domain.Outcome) string {
	switch outcome {
	case domain.OutcomeWhite:
		return "1-0"
	case domain.OutcomeBlack:
		return "0-1"
	case domain.OutcomeDraw:
		return "1/2-1/2"
	default:
		return "*"
	}
}

// buildPGN renders the session's move history as standard PGN text.
func buildPGN(g *domain.Session, now time.Time) string {
	if g == nil {
		return ""
	}
	token := pgnResultToken(g.Outcome)
	date := g.EndedAt
	if date.IsZero() {
		date = now
	}
	var b strings.Builder
	b.WriteString("[Event \"Live Session\"]\n")
	b.WriteString("[Site \"chess-game\"]\n")
	b.WriteString(fmt.Sprintf("[Date \"%04d.%02d.%02d\"]\n", date.Year(), int(date.Month()), date.Day()))
	b.WriteString(fmt.Sprintf("[White \"%s\"]\n", sanitizePGN(g.White.DisplayName)))
	b.WriteString(fmt.Sprintf("[Black \"%s\"]\n", sanitizePGN(g.Black.DisplayName)))
	if g.TimeControl != nil {
		b.WriteString(fmt.Sprintf("[TimeControl \"%d+%d\"]\n",
			int(g.TimeControl.Initial.Seconds()), int(g.TimeControl.Increment.Seconds())))
	}
	if strings.TrimSpace(g.EndedBy) != "" {
		b.WriteString(fmt.Sprintf("[Termination \"%s\"]\n", sanitizePGN(strings.ToLower(g.EndedBy))))
	}
	b.WriteString(fmt.Sprintf("[Result \"%s\"]\n\n", token))

	for i := 0; i < len(g.MovesSAN); i += 2 {
		turn := (i / 2) + 1
		b.WriteString(fmt.Sprintf("%d. %s", turn, strings.TrimSpace(g.MovesSAN[i])))
		if i+1 < len(g.MovesSAN) {
			b.WriteString(" ")
			b.WriteString(strings.TrimSpace(g.MovesSAN[i+1]))
		}
		b.WriteString(" ")
	}
	b.WriteString(token)
	return b.String()
}

func sanitizePGN(s string) string {
	s = strings.ReplaceAll(s, "\\", " ")
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.TrimSpace(s)
}
