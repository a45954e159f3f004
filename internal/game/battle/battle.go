// Package battle implements the turn-based battle rules engine: move
// legality, accuracy rolls, damage computation, type effectiveness, and the
// battle session state machine. The engine is pure computation over injected
// randomness; presentation, persistence, and pacing belong to callers.
package battle

import (
	"errors"
	"fmt"
)

// ElementType is the elemental type of a combatant or move.
type ElementType string

// The declared element type set. Every chart must be total over these.
const (
	TypeFire     ElementType = "fire"
	TypeWater    ElementType = "water"
	TypeGrass    ElementType = "grass"
	TypeElectric ElementType = "electric"
	TypeNormal   ElementType = "normal"
)

// ElementTypes returns the declared type set in a stable order.
func ElementTypes() []ElementType {
	return []ElementType{TypeFire, TypeWater, TypeGrass, TypeElectric, TypeNormal}
}

// ValidElementType reports whether t is a member of the declared type set.
func ValidElementType(t ElementType) bool {
	switch t {
	case TypeFire, TypeWater, TypeGrass, TypeElectric, TypeNormal:
		return true
	}
	return false
}

// ErrInvalidElementType is returned when a type string is outside the declared set.
var ErrInvalidElementType = errors.New("invalid element type")

// ParseElementType converts a string into an ElementType.
//
// Postcondition: Returns a member of the declared set, or ErrInvalidElementType.
func ParseElementType(s string) (ElementType, error) {
	t := ElementType(s)
	if !ValidElementType(t) {
		return "", fmt.Errorf("%w: %q", ErrInvalidElementType, s)
	}
	return t, nil
}

// Move is a single attack or status technique. Power 0 signals a
// non-damaging status move. Moves are immutable once defined.
type Move struct {
	Name string
	// Power is the base power; 0 means the move deals no damage.
	Power int
	Type  ElementType
	// Accuracy is the hit probability in [0, 1]; 1.0 always hits.
	Accuracy float64
}

// Validate checks the move invariants.
//
// Postcondition: Returns nil iff Name is non-empty, Power >= 0,
// Accuracy is in [0, 1], and Type is in the declared set.
func (m Move) Validate() error {
	if m.Name == "" {
		return errors.New("move name must not be empty")
	}
	if m.Power < 0 {
		return fmt.Errorf("move %q: power must be >= 0, got %d", m.Name, m.Power)
	}
	if m.Accuracy < 0 || m.Accuracy > 1 {
		return fmt.Errorf("move %q: accuracy must be in [0, 1], got %g", m.Name, m.Accuracy)
	}
	if !ValidElementType(m.Type) {
		return fmt.Errorf("move %q: %w: %q", m.Name, ErrInvalidElementType, m.Type)
	}
	return nil
}

// Combatant is an in-battle instance: mutable current health plus stats
// fixed for the battle's duration. Instances are created per battle and
// discarded when it ends; persistent records own their own lifecycle.
//
// Invariant: 0 <= CurrentHP <= MaxHP.
type Combatant struct {
	Name      string
	Type      ElementType
	MaxHP     int
	CurrentHP int
	Attack    int
	Defense   int
	Speed     int
	// Moves is the ordered list of known moves. Four slots by convention,
	// not enforced.
	Moves []Move
}

// NewCombatant constructs a Combatant at full health, rejecting degenerate
// stats up front so the damage formula never divides by zero mid-battle.
//
// Postcondition: Returns a combatant with CurrentHP == MaxHP, or an error if
// name is empty, the type is unknown, maxHP <= 0, attack < 1, defense < 1,
// speed < 0, or any move fails validation.
func NewCombatant(name string, typ ElementType, maxHP, attack, defense, speed int, moves []Move) (*Combatant, error) {
	if name == "" {
		return nil, errors.New("combatant name must not be empty")
	}
	if !ValidElementType(typ) {
		return nil, fmt.Errorf("combatant %q: %w: %q", name, ErrInvalidElementType, typ)
	}
	if maxHP <= 0 {
		return nil, fmt.Errorf("combatant %q: max hp must be > 0, got %d", name, maxHP)
	}
	if attack < 1 {
		return nil, fmt.Errorf("combatant %q: attack must be >= 1, got %d", name, attack)
	}
	// Defense 0 would divide by zero in the damage formula; rejected here
	// rather than clamped.
	if defense < 1 {
		return nil, fmt.Errorf("combatant %q: defense must be >= 1, got %d", name, defense)
	}
	if speed < 0 {
		return nil, fmt.Errorf("combatant %q: speed must be >= 0, got %d", name, speed)
	}
	for _, m := range moves {
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("combatant %q: %w", name, err)
		}
	}
	return &Combatant{
		Name:      name,
		Type:      typ,
		MaxHP:     maxHP,
		CurrentHP: maxHP,
		Attack:    attack,
		Defense:   defense,
		Speed:     speed,
		Moves:     moves,
	}, nil
}

// Clone returns a fresh full-health copy for a new battle. Templates stay
// untouched when their instances take damage.
func (c *Combatant) Clone() *Combatant {
	moves := make([]Move, len(c.Moves))
	copy(moves, c.Moves)
	return &Combatant{
		Name:      c.Name,
		Type:      c.Type,
		MaxHP:     c.MaxHP,
		CurrentHP: c.MaxHP,
		Attack:    c.Attack,
		Defense:   c.Defense,
		Speed:     c.Speed,
		Moves:     moves,
	}
}

// IsFainted reports whether the combatant's health has reached zero.
func (c *Combatant) IsFainted() bool { return c.CurrentHP <= 0 }

// ApplyDamage reduces CurrentHP by amount, flooring at zero.
//
// Precondition: amount must be >= 0.
// Postcondition: CurrentHP >= 0.
func (c *Combatant) ApplyDamage(amount int) {
	c.CurrentHP -= amount
	if c.CurrentHP < 0 {
		c.CurrentHP = 0
	}
}

// Heal raises CurrentHP by amount, capped at MaxHP.
//
// Precondition: amount must be >= 0.
// Postcondition: CurrentHP <= MaxHP.
func (c *Combatant) Heal(amount int) {
	c.CurrentHP += amount
	if c.CurrentHP > c.MaxHP {
		c.CurrentHP = c.MaxHP
	}
}

// HPPercent returns current health as a percentage of max health.
//
// Postcondition: Returns a value in [0, 100].
func (c *Combatant) HPPercent() float64 {
	return float64(c.CurrentHP) / float64(c.MaxHP) * 100
}

// HPFraction returns current health as a fraction of max health, for use
// against [0, 1) random draws and proportional rendering.
//
// Postcondition: Returns a value in [0, 1].
func (c *Combatant) HPFraction() float64 {
	return float64(c.CurrentHP) / float64(c.MaxHP)
}

// MoveNamed returns the known move with the given name.
//
// Postcondition: Returns (move, true) if the combatant knows the move,
// or (zero Move, false) otherwise.
func (c *Combatant) MoveNamed(name string) (Move, bool) {
	for _, m := range c.Moves {
		if m.Name == name {
			return m, true
		}
	}
	return Move{}, false
}
