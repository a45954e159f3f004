// Package dex provides the species catalog: move and species definitions
// loaded from YAML content files, level-scaled stat computation, and
// instantiation of battle combatants from species templates.
package dex

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roguemon/server/internal/game/battle"
)

// MoveDef is a move definition as declared in content YAML.
//
// Accuracy 0 in a definition means "unset" and defaults to 1.0 (always hits);
// a move that can never hit is not representable, matching the engine.
type MoveDef struct {
	ID       string  `yaml:"id"`
	Name     string  `yaml:"name"`
	Power    int     `yaml:"power"`
	Type     string  `yaml:"type"`
	Accuracy float64 `yaml:"accuracy"`
}

// BaseStats are a species' stat template before level scaling.
type BaseStats struct {
	HP      int `yaml:"hp"`
	Attack  int `yaml:"attack"`
	Defense int `yaml:"defense"`
	Speed   int `yaml:"speed"`
}

// Species is a species definition as declared in content YAML. Moves holds
// ordered move IDs; a combatant instantiated from the species knows at most
// the first four.
type Species struct {
	ID        int       `yaml:"id"`
	Name      string    `yaml:"name"`
	Type      string    `yaml:"type"`
	BaseStats BaseStats `yaml:"base_stats"`
	Moves     []string  `yaml:"moves"`
	Sprite    string    `yaml:"sprite"`
}

// LoadMoves reads all .yaml files in dir and parses each as a MoveDef.
//
// Precondition: dir must be a readable directory path.
// Postcondition: Returns all parsed moves (may be empty) or a non-nil error.
func LoadMoves(dir string) ([]*MoveDef, error) {
	files, err := yamlFiles(dir)
	if err != nil {
		return nil, err
	}
	moves := make([]*MoveDef, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		var m MoveDef
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parsing move file %s: %w", path, err)
		}
		moves = append(moves, &m)
	}
	return moves, nil
}

// LoadSpecies reads all .yaml files in dir and parses each as a Species.
//
// Precondition: dir must be a readable directory path.
// Postcondition: Returns all parsed species (may be empty) or a non-nil error.
func LoadSpecies(dir string) ([]*Species, error) {
	files, err := yamlFiles(dir)
	if err != nil {
		return nil, err
	}
	species := make([]*Species, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		var s Species
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("parsing species file %s: %w", path, err)
		}
		species = append(species, &s)
	}
	return species, nil
}

// chartFile is the YAML shape of a type chart: attacking type → defending
// type → multiplier.
type chartFile struct {
	Multipliers map[string]map[string]float64 `yaml:"multipliers"`
}

// LoadChart reads a type chart YAML file and builds a validated battle.Chart.
// A missing pair fails here, at load time, never mid-battle.
//
// Precondition: path must be a readable YAML file.
// Postcondition: Returns a total chart or a non-nil error.
func LoadChart(path string) (*battle.Chart, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var cf chartFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parsing type chart %s: %w", path, err)
	}

	entries := make(map[battle.ElementType]map[battle.ElementType]float64, len(cf.Multipliers))
	for atk, row := range cf.Multipliers {
		atkType, err := battle.ParseElementType(atk)
		if err != nil {
			return nil, fmt.Errorf("type chart %s: %w", path, err)
		}
		entries[atkType] = make(map[battle.ElementType]float64, len(row))
		for def, mult := range row {
			defType, err := battle.ParseElementType(def)
			if err != nil {
				return nil, fmt.Errorf("type chart %s: %w", path, err)
			}
			entries[atkType][defType] = mult
		}
	}
	chart, err := battle.NewChart(entries)
	if err != nil {
		return nil, fmt.Errorf("type chart %s: %w", path, err)
	}
	return chart, nil
}

// yamlFiles returns the sorted .yaml/.yml paths directly under dir.
func yamlFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// ErrSpeciesNotFound is returned when a species ID is not in the registry.
var ErrSpeciesNotFound = errors.New("species not found")

// ErrMoveNotFound is returned when a species references an unknown move ID.
var ErrMoveNotFound = errors.New("move not found")
