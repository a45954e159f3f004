package battle

import "github.com/roguemon/server/internal/game/rng"

// effectiveLevel is the constant level baked into the damage formula. Both
// combatants' nominal levels never enter the in-battle formula; levels affect
// only the stat scaling applied when a combatant is instantiated.
const effectiveLevel = 50

// Damage variance bounds: every hit is scaled by a uniform draw in
// [varianceMin, varianceMax).
const (
	varianceMin = 0.85
	varianceMax = 1.0
)

// stabMultiplier is the same-type attack bonus applied when a move's type
// matches its user's type.
const stabMultiplier = 1.5

// Outcome describes the result of resolving one move.
//
// A status move (power 0) reports Hit=true with Damage 0; callers must
// message "no effect" rather than "missed". A failed accuracy roll reports
// Hit=false with Damage 0.
type Outcome struct {
	// Hit is false only when the accuracy roll failed.
	Hit bool
	// Damage is the damage dealt; the defender's health floors at 0, so
	// on overkill less health is removed than Damage reports.
	Damage int
	// Effectiveness is the chart multiplier applied; 1.0 for status moves.
	Effectiveness float64
	// STAB reports whether the same-type attack bonus applied.
	STAB bool
}

// ResolveMove executes move by attacker against defender and applies the
// resulting damage to the defender, flooring health at zero.
//
// The sequence is fixed:
//  1. Power 0 short-circuits: hit, no damage, no accuracy roll.
//  2. A uniform draw in [0, 1) above move.Accuracy is a miss; no mutation.
//  3. base = ((2*50+10)/250) * (attack/defense) * power + 2
//  4. Same-type attack bonus of 1.5 when move.Type == attacker.Type.
//  5. Chart multiplier for (move.Type, defender.Type).
//  6. Uniform variance in [0.85, 1.0).
//  7. Final damage is the floored product, clamped to a minimum of 1 —
//     unless the chart multiplier is 0 (immunity), which deals nothing.
//
// Precondition: attacker, defender, chart, and src must be non-nil; the move
// and both combatants must have passed construction-time validation. A
// session must not be mid-resolution on another goroutine.
// Postcondition: Returns the Outcome; defender.CurrentHP is reduced by
// Outcome.Damage and remains >= 0. Attacker state is never mutated.
func ResolveMove(attacker, defender *Combatant, move Move, chart *Chart, src rng.Source) Outcome {
	if move.Power == 0 {
		return Outcome{Hit: true, Damage: 0, Effectiveness: 1.0}
	}

	if src.Float64() > move.Accuracy {
		return Outcome{Hit: false, Damage: 0, Effectiveness: 1.0}
	}

	base := float64(2*effectiveLevel+10) / 250.0 *
		(float64(attacker.Attack) / float64(defender.Defense)) *
		float64(move.Power)
	base += 2

	stab := 1.0
	if move.Type == attacker.Type {
		stab = stabMultiplier
	}

	effectiveness := chart.Multiplier(move.Type, defender.Type)
	variance := varianceMin + src.Float64()*(varianceMax-varianceMin)

	damage := int(base * stab * effectiveness * variance)
	if effectiveness > 0 && damage < 1 {
		// A connecting damaging hit always deals at least 1, even at the
		// worst stat disadvantage.
		damage = 1
	}

	defender.ApplyDamage(damage)

	return Outcome{
		Hit:           true,
		Damage:        damage,
		Effectiveness: effectiveness,
		STAB:          stab > 1.0,
	}
}
