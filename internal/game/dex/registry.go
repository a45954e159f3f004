package dex

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/roguemon/server/internal/game/battle"
)

// maxKnownMoves caps the moves a spawned combatant knows: the first four of
// its species' ordered move list.
const maxKnownMoves = 4

// Registry holds the validated species catalog and the type chart. Immutable
// after construction; safe for concurrent reads.
type Registry struct {
	species map[int]*Species
	moves   map[string]*MoveDef
	chart   *battle.Chart
}

// NewRegistry validates and indexes the given definitions. Every species
// type, move type, and move reference is resolved here so a battle never
// trips over bad content at runtime.
//
// Postcondition: Returns a registry in which every species resolves to a
// valid element type and known move IDs, or a non-nil error naming the
// offending definition.
func NewRegistry(species []*Species, moves []*MoveDef, chart *battle.Chart) (*Registry, error) {
	if chart == nil {
		return nil, fmt.Errorf("registry requires a type chart")
	}

	moveIdx := make(map[string]*MoveDef, len(moves))
	for _, m := range moves {
		if m.ID == "" {
			return nil, fmt.Errorf("move %q: id must not be empty", m.Name)
		}
		if _, dup := moveIdx[m.ID]; dup {
			return nil, fmt.Errorf("duplicate move id %q", m.ID)
		}
		if _, err := battleMove(m); err != nil {
			return nil, err
		}
		moveIdx[m.ID] = m
	}

	speciesIdx := make(map[int]*Species, len(species))
	for _, s := range species {
		if s.ID <= 0 {
			return nil, fmt.Errorf("species %q: id must be > 0, got %d", s.Name, s.ID)
		}
		if _, dup := speciesIdx[s.ID]; dup {
			return nil, fmt.Errorf("duplicate species id %d", s.ID)
		}
		if _, err := battle.ParseElementType(s.Type); err != nil {
			return nil, fmt.Errorf("species %q: %w", s.Name, err)
		}
		for _, moveID := range s.Moves {
			if _, ok := moveIdx[moveID]; !ok {
				return nil, fmt.Errorf("species %q: %w: %q", s.Name, ErrMoveNotFound, moveID)
			}
		}
		speciesIdx[s.ID] = s
	}

	return &Registry{species: speciesIdx, moves: moveIdx, chart: chart}, nil
}

// LoadRegistry builds a Registry from a content directory laid out as
// dir/moves/*.yaml, dir/species/*.yaml, and dir/typechart.yaml.
func LoadRegistry(dir string) (*Registry, error) {
	moves, err := LoadMoves(filepath.Join(dir, "moves"))
	if err != nil {
		return nil, fmt.Errorf("loading moves: %w", err)
	}
	species, err := LoadSpecies(filepath.Join(dir, "species"))
	if err != nil {
		return nil, fmt.Errorf("loading species: %w", err)
	}
	chart, err := LoadChart(filepath.Join(dir, "typechart.yaml"))
	if err != nil {
		return nil, fmt.Errorf("loading type chart: %w", err)
	}
	return NewRegistry(species, moves, chart)
}

// Chart returns the type-effectiveness table.
func (r *Registry) Chart() *battle.Chart { return r.chart }

// Species returns the species with the given ID.
//
// Postcondition: Returns the species, or ErrSpeciesNotFound.
func (r *Registry) Species(id int) (*Species, error) {
	s, ok := r.species[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrSpeciesNotFound, id)
	}
	return s, nil
}

// AllSpecies returns every species sorted by ID.
func (r *Registry) AllSpecies() []*Species {
	out := make([]*Species, 0, len(r.species))
	for _, s := range r.species {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SpeciesCount returns the number of registered species.
func (r *Registry) SpeciesCount() int { return len(r.species) }

// MoveCount returns the number of registered moves.
func (r *Registry) MoveCount() int { return len(r.moves) }

// Move returns the move definition with the given ID.
//
// Postcondition: Returns the move, or ErrMoveNotFound.
func (r *Registry) Move(id string) (*MoveDef, error) {
	m, ok := r.moves[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %q", ErrMoveNotFound, id)
	}
	return m, nil
}

// Spawn instantiates a full-health battle combatant of the given species
// at the given level, knowing the first four moves of the species list.
//
// Precondition: level must be >= 1.
// Postcondition: Returns a validated combatant, or an error for an unknown
// species or invalid level.
func (r *Registry) Spawn(speciesID, level int) (*battle.Combatant, error) {
	if level < 1 {
		return nil, fmt.Errorf("level must be >= 1, got %d", level)
	}
	s, err := r.Species(speciesID)
	if err != nil {
		return nil, err
	}

	known := s.Moves
	if len(known) > maxKnownMoves {
		known = known[:maxKnownMoves]
	}
	moves := make([]battle.Move, 0, len(known))
	for _, moveID := range known {
		bm, err := battleMove(r.moves[moveID])
		if err != nil {
			return nil, err
		}
		moves = append(moves, bm)
	}

	typ, err := battle.ParseElementType(s.Type)
	if err != nil {
		return nil, fmt.Errorf("species %q: %w", s.Name, err)
	}

	stats := ScaledStats(s.BaseStats, level)
	return battle.NewCombatant(s.Name, typ, stats.HP, stats.Attack, stats.Defense, stats.Speed, moves)
}

// KnownMoves returns the move IDs a freshly spawned member of the species
// knows: the first four of its species list.
//
// Postcondition: Returns a copy, or an error for an unknown species.
func (r *Registry) KnownMoves(speciesID int) ([]string, error) {
	s, err := r.Species(speciesID)
	if err != nil {
		return nil, err
	}
	known := s.Moves
	if len(known) > maxKnownMoves {
		known = known[:maxKnownMoves]
	}
	return append([]string(nil), known...), nil
}

// battleMove converts a MoveDef into an engine move, applying the accuracy
// default.
func battleMove(m *MoveDef) (battle.Move, error) {
	accuracy := m.Accuracy
	if accuracy == 0 {
		accuracy = 1.0
	}
	typ, err := battle.ParseElementType(m.Type)
	if err != nil {
		return battle.Move{}, fmt.Errorf("move %q: %w", m.Name, err)
	}
	bm := battle.Move{Name: m.Name, Power: m.Power, Type: typ, Accuracy: accuracy}
	if err := bm.Validate(); err != nil {
		return battle.Move{}, err
	}
	return bm, nil
}
