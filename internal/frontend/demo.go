package frontend

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/roguemon/server/internal/game/battle"
	"github.com/roguemon/server/internal/game/rng"
)

// EnemyPolicy selects the enemy's move each turn. The boolean reports
// whether a move was chosen; on false the demo falls back to the built-in
// selector.
type EnemyPolicy interface {
	Choose(attacker, defender *battle.Combatant, chart *battle.Chart, src rng.Source) (string, bool)
}

// Demo drives one interactive battle over a line-oriented reader and writer.
type Demo struct {
	in     *bufio.Scanner
	out    io.Writer
	chart  *battle.Chart
	src    rng.Source
	policy EnemyPolicy
}

// NewDemo constructs a demo reading player commands from in and writing
// rendered output to out. policy may be nil, in which case the enemy always
// uses the built-in move selector.
//
// Precondition: in, out, chart, and src must be non-nil.
func NewDemo(in io.Reader, out io.Writer, chart *battle.Chart, src rng.Source, policy EnemyPolicy) *Demo {
	return &Demo{
		in:     bufio.NewScanner(in),
		out:    out,
		chart:  chart,
		src:    src,
		policy: policy,
	}
}

// Run plays one battle between player and enemy to completion, prompting
// for a move each player turn. The player may answer with a move's number,
// its name, or "run" to flee.
//
// Precondition: player and enemy must be valid combatants at full health.
// Postcondition: Returns the winning side, or SideNone when the player fled
// or input was exhausted mid-battle.
func (d *Demo) Run(player, enemy *battle.Combatant) (battle.Side, error) {
	session, err := battle.NewSession(d.chart, player, enemy)
	if err != nil {
		return battle.SideNone, err
	}
	if err := session.Start(); err != nil {
		return battle.SideNone, err
	}

	fmt.Fprint(d.out, RenderIntro(player, enemy))

	for session.State() != battle.StateEnded {
		var err error
		if session.TurnOwner() == battle.SidePlayer {
			err = d.playerTurn(session, player)
		} else {
			err = d.enemyTurn(session, enemy, player)
		}
		if errors.Is(err, errFled) {
			fmt.Fprint(d.out, Colorf(BrightYellow, "%s ran away!", player.Name)+"\n")
			return battle.SideNone, session.Abort()
		}
		if err != nil {
			return battle.SideNone, err
		}
	}

	winner, _ := session.Winner()
	fmt.Fprint(d.out, RenderOutcome(winner, player, enemy))
	return winner, nil
}

// errFled signals that the player chose to leave the battle.
var errFled = errors.New("player fled")

func (d *Demo) playerTurn(session *battle.Session, player *battle.Combatant) error {
	fmt.Fprint(d.out, "\n"+RenderMoves(player))
	for {
		fmt.Fprint(d.out, Colorize(BrightCyan, "> "))
		if !d.in.Scan() {
			if err := d.in.Err(); err != nil {
				return err
			}
			return errFled
		}
		input := strings.TrimSpace(d.in.Text())
		if input == "" {
			continue
		}
		if strings.EqualFold(input, "run") {
			return errFled
		}

		name, ok := d.resolveMove(player, input)
		if !ok {
			fmt.Fprint(d.out, Colorize(Dim, "Unknown move. Pick a number or a move name, or type 'run'.")+"\n")
			continue
		}

		res, err := session.PlayTurn(battle.SidePlayer, name, d.src)
		if err != nil {
			return err
		}
		fmt.Fprint(d.out, "\n"+RenderTurn(res))
		d.printStatus(session)
		return nil
	}
}

func (d *Demo) enemyTurn(session *battle.Session, enemy, player *battle.Combatant) error {
	name, ok := "", false
	if d.policy != nil {
		name, ok = d.policy.Choose(enemy, player, session.Chart(), d.src)
	}
	if !ok {
		move, err := battle.ChooseMove(enemy, player.Type, session.Chart(), d.src)
		if err != nil {
			return err
		}
		name = move.Name
	}

	res, err := session.PlayTurn(battle.SideEnemy, name, d.src)
	if err != nil {
		return err
	}
	fmt.Fprint(d.out, "\n"+RenderTurn(res))
	d.printStatus(session)
	return nil
}

func (d *Demo) printStatus(session *battle.Session) {
	if session.State() == battle.StateEnded {
		return
	}
	fmt.Fprint(d.out, "\n")
	fmt.Fprint(d.out, RenderStatus(session.Combatant(battle.SideEnemy))+"\n")
	fmt.Fprint(d.out, RenderStatus(session.Combatant(battle.SidePlayer))+"\n")
}

// resolveMove maps player input, either a 1-based move index or a move name
// matched case-insensitively, to a known move name.
func (d *Demo) resolveMove(c *battle.Combatant, input string) (string, bool) {
	if idx, err := strconv.Atoi(input); err == nil {
		if idx < 1 || idx > len(c.Moves) {
			return "", false
		}
		return c.Moves[idx-1].Name, true
	}
	for _, m := range c.Moves {
		if strings.EqualFold(m.Name, input) {
			return m.Name, true
		}
	}
	return "", false
}
