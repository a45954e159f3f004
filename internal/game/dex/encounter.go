package dex

import (
	"errors"
	"fmt"

	"github.com/roguemon/server/internal/game/battle"

	"github.com/roguemon/server/internal/game/rng"
)

// EncounterEntry is one row of an area's wild encounter table.
type EncounterEntry struct {
	SpeciesID int `yaml:"species_id" json:"species_id"`
	// Weight is the relative selection weight; entries with larger weights
	// appear proportionally more often.
	Weight int `yaml:"weight" json:"weight"`
	// MinLevel and MaxLevel bound the spawned level, inclusive.
	MinLevel int `yaml:"min_level" json:"min_level"`
	MaxLevel int `yaml:"max_level" json:"max_level"`
}

// WildPokemon is a generated wild encounter: the species, the rolled level,
// and a ready-to-battle combatant instance.
type WildPokemon struct {
	Species   *Species
	Level     int
	Combatant *battle.Combatant
}

// ErrEmptyEncounterTable is returned when an area has no wild entries.
var ErrEmptyEncounterTable = errors.New("encounter table is empty")

// GenerateWild rolls a wild encounter from the given table: one entry is
// chosen weighted by Weight, then a level uniform in [MinLevel, MaxLevel].
//
// Precondition: src must be non-nil.
// Postcondition: Returns a spawned wild combatant, or an error when the
// table is empty, malformed, or references an unknown species.
func (r *Registry) GenerateWild(table []EncounterEntry, src rng.Source) (*WildPokemon, error) {
	if len(table) == 0 {
		return nil, ErrEmptyEncounterTable
	}

	total := 0
	for _, e := range table {
		if e.Weight < 1 {
			return nil, fmt.Errorf("encounter entry for species %d: weight must be >= 1, got %d", e.SpeciesID, e.Weight)
		}
		if e.MinLevel < 1 || e.MaxLevel < e.MinLevel {
			return nil, fmt.Errorf("encounter entry for species %d: bad level range [%d, %d]", e.SpeciesID, e.MinLevel, e.MaxLevel)
		}
		total += e.Weight
	}

	roll := src.Intn(total)
	var picked EncounterEntry
	for _, e := range table {
		if roll < e.Weight {
			picked = e
			break
		}
		roll -= e.Weight
	}

	level := picked.MinLevel + src.Intn(picked.MaxLevel-picked.MinLevel+1)
	combatant, err := r.Spawn(picked.SpeciesID, level)
	if err != nil {
		return nil, fmt.Errorf("spawning wild species %d: %w", picked.SpeciesID, err)
	}
	species, err := r.Species(picked.SpeciesID)
	if err != nil {
		return nil, err
	}

	return &WildPokemon{Species: species, Level: level, Combatant: combatant}, nil
}
