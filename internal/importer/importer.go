// Package importer loads world content files and seeds them into the
// database: areas, their connection graph, encounter tables, and trainers.
package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roguemon/server/internal/game/dex"
	"github.com/roguemon/server/internal/storage/postgres"
)

// AreaWriter is the subset of the area repository the importer needs.
type AreaWriter interface {
	Create(ctx context.Context, a *postgres.Area) (*postgres.Area, error)
	UpdateConnections(ctx context.Context, id int64, connections []int64) error
	CreateTrainer(ctx context.Context, t *postgres.Trainer) (*postgres.Trainer, error)
}

// Importer orchestrates world content import from a directory of area YAML
// files into the database.
type Importer struct {
	registry *dex.Registry
	areas    AreaWriter
}

// New constructs an Importer. The registry is used to validate species
// references before anything is written.
//
// Precondition: registry and areas must be non-nil.
// Postcondition: returns a non-nil Importer.
func New(registry *dex.Registry, areas AreaWriter) *Importer {
	return &Importer{registry: registry, areas: areas}
}

// Load reads and parses all .yaml files in sourceDir, in lexicographic
// order, and validates the set as a whole: slugs must be unique, every
// connection must resolve to a declared slug, and every encounter and party
// species must exist in the dex.
//
// Precondition: sourceDir must be a readable directory.
// Postcondition: Returns the parsed areas, or a non-nil error naming the
// offending file or definition.
func (imp *Importer) Load(sourceDir string) ([]*AreaData, error) {
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("reading source directory %s: %w", sourceDir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, filepath.Join(sourceDir, e.Name()))
		}
	}
	sort.Strings(files)

	areas := make([]*AreaData, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		var ad AreaData
		if err := yaml.Unmarshal(data, &ad); err != nil {
			return nil, fmt.Errorf("parsing area file %s: %w", path, err)
		}
		if ad.Area.Slug == "" {
			ad.Area.Slug = NameToID(ad.Area.Name)
		}
		areas = append(areas, &ad)
	}

	if err := imp.validate(areas); err != nil {
		return nil, err
	}
	return areas, nil
}

func (imp *Importer) validate(areas []*AreaData) error {
	slugs := make(map[string]bool, len(areas))
	for _, ad := range areas {
		a := ad.Area
		if a.Name == "" {
			return fmt.Errorf("area %q: name must not be empty", a.Slug)
		}
		if slugs[a.Slug] {
			return fmt.Errorf("duplicate area slug %q", a.Slug)
		}
		slugs[a.Slug] = true
	}

	for _, ad := range areas {
		a := ad.Area
		for _, conn := range a.Connections {
			if !slugs[conn] {
				return fmt.Errorf("area %q: connection to unknown area %q", a.Slug, conn)
			}
		}
		for _, e := range a.Encounters {
			if _, err := imp.registry.Species(e.SpeciesID); err != nil {
				return fmt.Errorf("area %q: encounter: %w", a.Slug, err)
			}
			if e.Weight < 1 {
				return fmt.Errorf("area %q: encounter for species %d: weight must be >= 1, got %d", a.Slug, e.SpeciesID, e.Weight)
			}
			if e.MinLevel < 1 || e.MaxLevel < e.MinLevel {
				return fmt.Errorf("area %q: encounter for species %d: bad level range [%d, %d]", a.Slug, e.SpeciesID, e.MinLevel, e.MaxLevel)
			}
		}
		for _, tr := range a.Trainers {
			if tr.Name == "" {
				return fmt.Errorf("area %q: trainer name must not be empty", a.Slug)
			}
			if len(tr.Party) == 0 {
				return fmt.Errorf("area %q: trainer %q: party must not be empty", a.Slug, tr.Name)
			}
			for _, p := range tr.Party {
				if _, err := imp.registry.Species(p.SpeciesID); err != nil {
					return fmt.Errorf("area %q: trainer %q: %w", a.Slug, tr.Name, err)
				}
				if p.Level < 1 {
					return fmt.Errorf("area %q: trainer %q: level must be >= 1, got %d", a.Slug, tr.Name, p.Level)
				}
			}
		}
	}
	return nil
}

// Run loads area files from sourceDir and writes them to the database in
// two passes: areas and trainers first, then the connection graph once
// every slug has an assigned ID.
//
// Precondition: sourceDir must satisfy Load's requirements; the target
// tables should be empty, Run does not deduplicate against existing rows.
// Postcondition: every declared area, trainer, and connection is persisted,
// or an error is returned. A failed run may leave a partial import behind.
func (imp *Importer) Run(ctx context.Context, sourceDir string) error {
	overall := time.Now()

	t0 := time.Now()
	areas, err := imp.Load(sourceDir)
	if err != nil {
		return fmt.Errorf("loading source: %w", err)
	}
	fmt.Printf("load    %d area(s) in %s\n", len(areas), time.Since(t0).Round(time.Millisecond))

	idBySlug := make(map[string]int64, len(areas))
	for _, ad := range areas {
		t1 := time.Now()
		created, err := imp.areas.Create(ctx, &postgres.Area{
			Name:        ad.Area.Name,
			Description: ad.Area.Description,
			Connections: []int64{},
			Encounters:  ad.Area.Encounters,
		})
		if err != nil {
			return fmt.Errorf("creating area %q: %w", ad.Area.Slug, err)
		}
		idBySlug[ad.Area.Slug] = created.ID

		for _, tr := range ad.Area.Trainers {
			party := make([]postgres.TrainerPokemon, 0, len(tr.Party))
			for _, p := range tr.Party {
				party = append(party, postgres.TrainerPokemon{SpeciesID: p.SpeciesID, Level: p.Level})
			}
			if _, err := imp.areas.CreateTrainer(ctx, &postgres.Trainer{
				AreaID: created.ID,
				Name:   tr.Name,
				Party:  party,
			}); err != nil {
				return fmt.Errorf("creating trainer %q in area %q: %w", tr.Name, ad.Area.Slug, err)
			}
		}

		fmt.Printf("wrote   %s  (id %d, %d trainer(s))  in %s\n",
			ad.Area.Slug, created.ID, len(ad.Area.Trainers), time.Since(t1).Round(time.Millisecond))
	}

	for _, ad := range areas {
		if len(ad.Area.Connections) == 0 {
			continue
		}
		conns := make([]int64, 0, len(ad.Area.Connections))
		for _, slug := range ad.Area.Connections {
			conns = append(conns, idBySlug[slug])
		}
		if err := imp.areas.UpdateConnections(ctx, idBySlug[ad.Area.Slug], conns); err != nil {
			return fmt.Errorf("linking area %q: %w", ad.Area.Slug, err)
		}
	}

	fmt.Printf("total   %s\n", time.Since(overall).Round(time.Millisecond))
	return nil
}
