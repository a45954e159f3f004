package importer_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roguemon/server/internal/game/battle"
	"github.com/roguemon/server/internal/game/dex"
	"github.com/roguemon/server/internal/importer"
	"github.com/roguemon/server/internal/storage/postgres"
)

// fakeAreaWriter records writes in memory and assigns sequential IDs.
type fakeAreaWriter struct {
	areas       []*postgres.Area
	trainers    []*postgres.Trainer
	connections map[int64][]int64
}

func newFakeAreaWriter() *fakeAreaWriter {
	return &fakeAreaWriter{connections: make(map[int64][]int64)}
}

func (f *fakeAreaWriter) Create(_ context.Context, a *postgres.Area) (*postgres.Area, error) {
	created := *a
	created.ID = int64(len(f.areas) + 1)
	f.areas = append(f.areas, &created)
	return &created, nil
}

func (f *fakeAreaWriter) UpdateConnections(_ context.Context, id int64, connections []int64) error {
	f.connections[id] = connections
	return nil
}

func (f *fakeAreaWriter) CreateTrainer(_ context.Context, t *postgres.Trainer) (*postgres.Trainer, error) {
	created := *t
	created.ID = int64(len(f.trainers) + 1)
	f.trainers = append(f.trainers, &created)
	return &created, nil
}

func testRegistry(t *testing.T) *dex.Registry {
	t.Helper()
	moves := []*dex.MoveDef{
		{ID: "tackle", Name: "Tackle", Power: 40, Type: "normal", Accuracy: 1.0},
	}
	species := []*dex.Species{
		{ID: 1, Name: "Bulbasaur", Type: "grass",
			BaseStats: dex.BaseStats{HP: 105, Attack: 80, Defense: 80, Speed: 75},
			Moves:     []string{"tackle"}},
		{ID: 4, Name: "Charmander", Type: "fire",
			BaseStats: dex.BaseStats{HP: 100, Attack: 85, Defense: 70, Speed: 90},
			Moves:     []string{"tackle"}},
	}
	registry, err := dex.NewRegistry(species, moves, battle.DefaultChart())
	require.NoError(t, err)
	return registry
}

func writeAreaFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

const palletTown = `
area:
  slug: pallet_town
  name: Pallet Town
  description: A quiet town.
  connections: [route_1]
`

const routeOne = `
area:
  slug: route_1
  name: Route 1
  connections: [pallet_town]
  encounters:
    - species_id: 1
      weight: 3
      min_level: 2
      max_level: 4
  trainers:
    - name: Youngster Ben
      party:
        - species_id: 4
          level: 6
`

func TestImporter_Run_SeedsAreasTrainersAndConnections(t *testing.T) {
	dir := writeAreaFiles(t, map[string]string{
		"01_pallet_town.yaml": palletTown,
		"02_route_1.yaml":     routeOne,
	})
	writer := newFakeAreaWriter()
	imp := importer.New(testRegistry(t), writer)

	require.NoError(t, imp.Run(context.Background(), dir))

	require.Len(t, writer.areas, 2)
	assert.Equal(t, "Pallet Town", writer.areas[0].Name)
	assert.Equal(t, "Route 1", writer.areas[1].Name)
	assert.Equal(t, []dex.EncounterEntry{{SpeciesID: 1, Weight: 3, MinLevel: 2, MaxLevel: 4}},
		writer.areas[1].Encounters)

	require.Len(t, writer.trainers, 1)
	assert.Equal(t, "Youngster Ben", writer.trainers[0].Name)
	assert.Equal(t, writer.areas[1].ID, writer.trainers[0].AreaID)
	assert.Equal(t, []postgres.TrainerPokemon{{SpeciesID: 4, Level: 6}}, writer.trainers[0].Party)

	// Files load in lexicographic order, so pallet_town gets id 1.
	assert.Equal(t, []int64{2}, writer.connections[1])
	assert.Equal(t, []int64{1}, writer.connections[2])
}

func TestImporter_Load_SlugDefaultsFromName(t *testing.T) {
	dir := writeAreaFiles(t, map[string]string{
		"town.yaml": `
area:
  name: Viridian City
`,
	})
	imp := importer.New(testRegistry(t), newFakeAreaWriter())

	areas, err := imp.Load(dir)
	require.NoError(t, err)
	require.Len(t, areas, 1)
	assert.Equal(t, "viridian_city", areas[0].Area.Slug)
}

func TestImporter_Load_RejectsUnknownConnection(t *testing.T) {
	dir := writeAreaFiles(t, map[string]string{
		"town.yaml": `
area:
  name: Pallet Town
  connections: [nowhere]
`,
	})
	imp := importer.New(testRegistry(t), newFakeAreaWriter())

	_, err := imp.Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown area "nowhere"`)
}

func TestImporter_Load_RejectsUnknownSpecies(t *testing.T) {
	dir := writeAreaFiles(t, map[string]string{
		"town.yaml": `
area:
  name: Route 1
  encounters:
    - species_id: 999
      weight: 1
      min_level: 2
      max_level: 3
`,
	})
	imp := importer.New(testRegistry(t), newFakeAreaWriter())

	_, err := imp.Load(dir)
	require.ErrorIs(t, err, dex.ErrSpeciesNotFound)
}

func TestImporter_Load_RejectsDuplicateSlug(t *testing.T) {
	dir := writeAreaFiles(t, map[string]string{
		"a.yaml": palletTown,
		"b.yaml": palletTown,
	})
	imp := importer.New(testRegistry(t), newFakeAreaWriter())

	_, err := imp.Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate area slug")
}

func TestImporter_Load_RejectsBadLevelRange(t *testing.T) {
	dir := writeAreaFiles(t, map[string]string{
		"town.yaml": `
area:
  name: Route 1
  encounters:
    - species_id: 1
      weight: 1
      min_level: 5
      max_level: 2
`,
	})
	imp := importer.New(testRegistry(t), newFakeAreaWriter())

	_, err := imp.Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad level range")
}

func TestImporter_Load_RejectsEmptyTrainerParty(t *testing.T) {
	dir := writeAreaFiles(t, map[string]string{
		"town.yaml": `
area:
  name: Viridian City
  trainers:
    - name: Youngster Ben
      party: []
`,
	})
	imp := importer.New(testRegistry(t), newFakeAreaWriter())

	_, err := imp.Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "party must not be empty")
}

func TestImporter_Run_MissingDirectory(t *testing.T) {
	imp := importer.New(testRegistry(t), newFakeAreaWriter())
	err := imp.Run(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
