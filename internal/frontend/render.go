package frontend

import (
	"fmt"
	"strings"

	"github.com/roguemon/server/internal/game/battle"
)

// hpBarWidth is the printable width of a health bar, excluding brackets.
const hpBarWidth = 20

// typeColors maps element types to their display colors.
var typeColors = map[battle.ElementType]string{
	battle.TypeFire:     BrightRed,
	battle.TypeWater:    BrightBlue,
	battle.TypeGrass:    BrightGreen,
	battle.TypeElectric: BrightYellow,
	battle.TypeNormal:   White,
}

// typeColor returns the display color for an element type, defaulting to
// white for types the palette does not cover.
func typeColor(t battle.ElementType) string {
	if c, ok := typeColors[t]; ok {
		return c
	}
	return White
}

// hpColor picks the bar color from the remaining health fraction.
func hpColor(pct float64) string {
	switch {
	case pct > 0.5:
		return BrightGreen
	case pct > 0.2:
		return BrightYellow
	default:
		return BrightRed
	}
}

// RenderHPBar renders a bracketed health bar for the given combatant.
//
// Precondition: c must be non-nil.
// Postcondition: Returns a string whose printable width is hpBarWidth + 2.
func RenderHPBar(c *battle.Combatant) string {
	pct := c.HPFraction()
	filled := int(pct * hpBarWidth)
	if filled > hpBarWidth {
		filled = hpBarWidth
	}
	// A living combatant always shows at least one tick.
	if filled == 0 && c.CurrentHP > 0 {
		filled = 1
	}

	var sb strings.Builder
	sb.WriteString(Dim + "[" + Reset)
	sb.WriteString(Colorize(hpColor(pct), strings.Repeat("=", filled)))
	sb.WriteString(strings.Repeat(" ", hpBarWidth-filled))
	sb.WriteString(Dim + "]" + Reset)
	return sb.String()
}

// RenderStatus renders a one-line status summary for a combatant: name,
// type, health bar, and numeric health.
//
// Precondition: c must be non-nil.
func RenderStatus(c *battle.Combatant) string {
	var sb strings.Builder
	sb.WriteString(Colorize(Bold, c.Name))
	sb.WriteString(" ")
	sb.WriteString(Colorf(typeColor(c.Type), "(%s)", c.Type))
	sb.WriteString(" ")
	sb.WriteString(RenderHPBar(c))
	sb.WriteString(Colorf(White, " %d/%d HP", c.CurrentHP, c.MaxHP))
	return sb.String()
}

// RenderIntro renders the opening banner for a battle.
//
// Precondition: player and enemy must be non-nil.
func RenderIntro(player, enemy *battle.Combatant) string {
	var sb strings.Builder
	sb.WriteString(Colorf(BrightYellow, "A wild %s appeared!", enemy.Name))
	sb.WriteString("\n\n")
	sb.WriteString(RenderStatus(enemy))
	sb.WriteString("\n")
	sb.WriteString(RenderStatus(player))
	sb.WriteString("\n")
	return sb.String()
}

// RenderMoves renders the numbered move menu for a combatant.
//
// Precondition: c must be non-nil and know at least one move.
func RenderMoves(c *battle.Combatant) string {
	var sb strings.Builder
	sb.WriteString(Colorize(BrightCyan, "Moves:"))
	sb.WriteString("\n")
	for i, m := range c.Moves {
		power := fmt.Sprintf("%d", m.Power)
		if m.Power == 0 {
			power = "--"
		}
		sb.WriteString(fmt.Sprintf("  %d. %-14s %s  power %s, accuracy %.0f%%\n",
			i+1,
			m.Name,
			Colorf(typeColor(m.Type), "[%s]", m.Type),
			power,
			m.Accuracy*100))
	}
	return sb.String()
}

// RenderTurn renders the narration for one resolved turn: the move used,
// a miss or damage line, effectiveness flavor, and a faint notice when the
// turn ended the battle.
//
// Precondition: res must come from a successful Session.PlayTurn call.
func RenderTurn(res battle.TurnResult) string {
	var sb strings.Builder
	sb.WriteString(Colorf(Bold, "%s used %s!", res.Attacker.Name, res.Move.Name))
	sb.WriteString("\n")

	if !res.Outcome.Hit {
		sb.WriteString(Colorize(Dim, "The attack missed!"))
		sb.WriteString("\n")
		return sb.String()
	}
	if res.Move.Power == 0 {
		sb.WriteString(Colorize(Dim, "It had no effect."))
		sb.WriteString("\n")
		return sb.String()
	}

	switch {
	case res.Outcome.Effectiveness == 0:
		sb.WriteString(Colorf(Dim, "It doesn't affect %s...", res.Defender.Name))
	case res.Outcome.Effectiveness > 1:
		sb.WriteString(Colorf(BrightRed, "It's super effective! %s took %d damage.", res.Defender.Name, res.Outcome.Damage))
	case res.Outcome.Effectiveness < 1:
		sb.WriteString(Colorf(BrightBlack, "It's not very effective... %s took %d damage.", res.Defender.Name, res.Outcome.Damage))
	default:
		sb.WriteString(Colorf(White, "%s took %d damage.", res.Defender.Name, res.Outcome.Damage))
	}
	sb.WriteString("\n")

	if res.Ended {
		sb.WriteString(Colorf(BrightMagenta, "%s fainted!", res.Defender.Name))
		sb.WriteString("\n")
	}
	return sb.String()
}

// RenderOutcome renders the closing banner once a session has ended.
//
// Precondition: the session reported a winner via Session.Winner.
func RenderOutcome(winner battle.Side, player, enemy *battle.Combatant) string {
	switch winner {
	case battle.SidePlayer:
		return Colorf(BrightGreen, "%s wins the battle!", player.Name) + "\n"
	case battle.SideEnemy:
		return Colorf(BrightRed, "%s was defeated by %s.", player.Name, enemy.Name) + "\n"
	default:
		return Colorize(Dim, "The battle ended with no winner.") + "\n"
	}
}
