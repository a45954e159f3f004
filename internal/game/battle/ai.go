package battle

import (
	"errors"

	"github.com/roguemon/server/internal/game/rng"
)

// ErrNoMoves is returned when an automated combatant has nothing to select.
var ErrNoMoves = errors.New("combatant knows no moves")

// ChooseMove selects a move for an automated combatant. Among damaging moves
// (power > 0) it computes the effectiveness each would have against
// defenderType and picks uniformly at random among those tied for the highest
// multiplier. With no damaging moves it falls back to a uniform choice over
// every known move, status moves included.
//
// The policy is a pure function of the move list and the opponent's type; it
// carries no memory of prior turns.
//
// Precondition: chart and src must be non-nil.
// Postcondition: Returns a move from attacker.Moves, or ErrNoMoves when the
// move list is empty.
func ChooseMove(attacker *Combatant, defenderType ElementType, chart *Chart, src rng.Source) (Move, error) {
	if len(attacker.Moves) == 0 {
		return Move{}, ErrNoMoves
	}

	var best []Move
	bestMult := 0.0
	for _, m := range attacker.Moves {
		if m.Power <= 0 {
			continue
		}
		mult := chart.Multiplier(m.Type, defenderType)
		switch {
		case mult > bestMult:
			bestMult = mult
			best = []Move{m}
		case mult == bestMult:
			best = append(best, m)
		}
	}

	if len(best) == 0 {
		best = attacker.Moves
	}
	return best[src.Intn(len(best))], nil
}
