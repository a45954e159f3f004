package battle

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/roguemon/server/internal/game/rng"
)

// State is the battle session lifecycle state.
type State int

const (
	StateNotStarted State = iota
	StateInProgress
	StateEnded
)

// String returns a human-readable state label.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not started"
	case StateInProgress:
		return "in progress"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Side identifies one of the two combatants in a session.
type Side int

const (
	// SideNone marks an ended session with no winner (run, catch, abort).
	SideNone Side = iota - 1
	SidePlayer
	SideEnemy
)

// Other returns the opposing side.
//
// Precondition: s must be SidePlayer or SideEnemy.
func (s Side) Other() Side {
	switch s {
	case SidePlayer:
		return SideEnemy
	case SideEnemy:
		return SidePlayer
	default:
		panic("battle: Side.Other precondition violated: no opposite of SideNone")
	}
}

// String returns a human-readable side label.
func (s Side) String() string {
	switch s {
	case SidePlayer:
		return "player"
	case SideEnemy:
		return "enemy"
	default:
		return "none"
	}
}

// Caller contract violations surfaced by Session methods.
var (
	ErrNotStarted     = errors.New("battle has not started")
	ErrAlreadyStarted = errors.New("battle already started")
	ErrBattleEnded    = errors.New("battle has ended")
	ErrNotYourTurn    = errors.New("not this side's turn")
	ErrUnknownMove    = errors.New("move not known by acting combatant")
)

// Session pairs two combatants with a turn owner and a lifecycle state.
// A session owns its combatant instances exclusively and is discarded when
// the battle ends; a rematch requires a fresh session.
//
// Sessions are not safe for concurrent use: a given battle advances one turn
// resolution at a time, driven by whatever pacing the caller chooses.
type Session struct {
	// ID uniquely identifies this session for callers that track several.
	ID uuid.UUID

	chart      *Chart
	combatants [2]*Combatant
	turn       Side
	state      State
	winner     Side
}

// NewSession creates a session in StateNotStarted.
//
// Postcondition: Returns a session owning player and enemy, or an error if
// chart is nil or either combatant is nil or already fainted.
func NewSession(chart *Chart, player, enemy *Combatant) (*Session, error) {
	if chart == nil {
		return nil, errors.New("session requires a type chart")
	}
	if player == nil || enemy == nil {
		return nil, errors.New("session requires two combatants")
	}
	if player.IsFainted() {
		return nil, fmt.Errorf("combatant %q is already fainted", player.Name)
	}
	if enemy.IsFainted() {
		return nil, fmt.Errorf("combatant %q is already fainted", enemy.Name)
	}
	return &Session{
		ID:         uuid.New(),
		chart:      chart,
		combatants: [2]*Combatant{player, enemy},
		turn:       SidePlayer,
		state:      StateNotStarted,
		winner:     SideNone,
	}, nil
}

// Start transitions NotStarted → InProgress and fixes the first turn owner.
// The strictly faster combatant acts first; on a speed tie the player side
// acts first. The tie-break is deterministic and independent of the damage
// randomness.
//
// Postcondition: State() == StateInProgress, or ErrAlreadyStarted /
// ErrBattleEnded when called out of order.
func (s *Session) Start() error {
	switch s.state {
	case StateInProgress:
		return ErrAlreadyStarted
	case StateEnded:
		return ErrBattleEnded
	}
	s.turn = SidePlayer
	if s.combatants[SideEnemy].Speed > s.combatants[SidePlayer].Speed {
		s.turn = SideEnemy
	}
	s.state = StateInProgress
	return nil
}

// State returns the session lifecycle state.
func (s *Session) State() State { return s.state }

// TurnOwner returns the side permitted to act this turn.
//
// Precondition: the session must be in progress.
func (s *Session) TurnOwner() Side { return s.turn }

// Combatant returns the combatant fighting for side.
//
// Precondition: side must be SidePlayer or SideEnemy.
func (s *Session) Combatant(side Side) *Combatant {
	if side != SidePlayer && side != SideEnemy {
		panic(fmt.Sprintf("battle: Session.Combatant precondition violated: side %d", side))
	}
	return s.combatants[side]
}

// Chart returns the effectiveness table this session resolves against.
func (s *Session) Chart() *Chart { return s.chart }

// Winner returns the winning side of an ended battle.
//
// Postcondition: Returns (side, true) when the battle ended with a winner,
// or (SideNone, false) otherwise.
func (s *Session) Winner() (Side, bool) {
	if s.state != StateEnded || s.winner == SideNone {
		return SideNone, false
	}
	return s.winner, true
}

// TurnResult reports one resolved turn.
type TurnResult struct {
	Attacker *Combatant
	Defender *Combatant
	Move     Move
	Outcome  Outcome
	// Ended is true when this turn's damage ended the battle.
	Ended bool
	// Winner is the winning side when Ended; SideNone otherwise.
	Winner Side
}

// PlayTurn resolves one move by side against its opponent and advances the
// turn, or ends the battle when the defender faints. Contract violations —
// acting out of turn, acting before Start or after the end, selecting an
// unknown move — are rejected with an error and no state change.
//
// Precondition: src must be non-nil; the session must not be advanced
// concurrently.
// Postcondition: On success, either the turn passed to the other side or the
// session is Ended with a winner. Both combatants satisfy
// 0 <= CurrentHP <= MaxHP.
func (s *Session) PlayTurn(side Side, moveName string, src rng.Source) (TurnResult, error) {
	if err := s.checkTurn(side); err != nil {
		return TurnResult{}, err
	}

	attacker := s.combatants[side]
	defender := s.combatants[side.Other()]

	move, ok := attacker.MoveNamed(moveName)
	if !ok {
		return TurnResult{}, fmt.Errorf("%w: %q for %s", ErrUnknownMove, moveName, attacker.Name)
	}

	outcome := ResolveMove(attacker, defender, move, s.chart, src)

	result := TurnResult{
		Attacker: attacker,
		Defender: defender,
		Move:     move,
		Outcome:  outcome,
		Winner:   SideNone,
	}

	// Unreachable under one attacker per turn; a fainted attacker would have
	// ended the battle on the previous resolution.
	if attacker.IsFainted() {
		return TurnResult{}, fmt.Errorf("inconsistent session %s: attacker %q fainted during own turn", s.ID, attacker.Name)
	}

	if defender.IsFainted() {
		s.state = StateEnded
		s.winner = side
		result.Ended = true
		result.Winner = side
		return result, nil
	}

	s.turn = side.Other()
	return result, nil
}

// Pass yields side's turn without resolving a move. Non-combat actions
// outside the rules engine (a failed catch, an item) spend the turn this way.
//
// Postcondition: On success the turn owner is the other side.
func (s *Session) Pass(side Side) error {
	if err := s.checkTurn(side); err != nil {
		return err
	}
	s.turn = side.Other()
	return nil
}

// Abort ends the battle with no winner (run, successful catch, shutdown).
//
// Postcondition: State() == StateEnded and Winner() reports no winner, or
// ErrBattleEnded / ErrNotStarted when called out of order.
func (s *Session) Abort() error {
	switch s.state {
	case StateNotStarted:
		return ErrNotStarted
	case StateEnded:
		return ErrBattleEnded
	}
	s.state = StateEnded
	s.winner = SideNone
	return nil
}

func (s *Session) checkTurn(side Side) error {
	switch s.state {
	case StateNotStarted:
		return ErrNotStarted
	case StateEnded:
		return ErrBattleEnded
	}
	if side != SidePlayer && side != SideEnemy {
		return fmt.Errorf("invalid side %d", side)
	}
	if side != s.turn {
		return fmt.Errorf("%w: turn belongs to %s", ErrNotYourTurn, s.turn)
	}
	return nil
}
