package battle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/roguemon/server/internal/game/battle"
)

func TestDefaultChart_KnownMatchups(t *testing.T) {
	chart := battle.DefaultChart()

	assert.Equal(t, 2.0, chart.Multiplier(battle.TypeFire, battle.TypeGrass))
	assert.Equal(t, 0.5, chart.Multiplier(battle.TypeFire, battle.TypeWater))
	assert.Equal(t, 0.5, chart.Multiplier(battle.TypeFire, battle.TypeFire))
	assert.Equal(t, 2.0, chart.Multiplier(battle.TypeWater, battle.TypeFire))
	assert.Equal(t, 2.0, chart.Multiplier(battle.TypeGrass, battle.TypeWater))
	assert.Equal(t, 2.0, chart.Multiplier(battle.TypeElectric, battle.TypeWater))
	assert.Equal(t, 0.5, chart.Multiplier(battle.TypeElectric, battle.TypeElectric))
	assert.Equal(t, 1.0, chart.Multiplier(battle.TypeNormal, battle.TypeFire))
}

// The table is directional: both directions are tabulated independently.
func TestDefaultChart_NotSymmetric(t *testing.T) {
	chart := battle.DefaultChart()
	// electric→grass is resisted, but grass→electric is neutral.
	assert.Equal(t, 0.5, chart.Multiplier(battle.TypeElectric, battle.TypeGrass))
	assert.Equal(t, 1.0, chart.Multiplier(battle.TypeGrass, battle.TypeElectric))
}

// Totality: every pair over the declared set resolves to a defined value.
func TestDefaultChart_Total(t *testing.T) {
	chart := battle.DefaultChart()
	for _, atk := range battle.ElementTypes() {
		for _, def := range battle.ElementTypes() {
			mult := chart.Multiplier(atk, def)
			assert.Contains(t, []float64{0.5, 1.0, 2.0}, mult, "%s vs %s", atk, def)
		}
	}
}

func TestNewChart_RejectsMissingPair(t *testing.T) {
	entries := map[battle.ElementType]map[battle.ElementType]float64{}
	for _, atk := range battle.ElementTypes() {
		entries[atk] = map[battle.ElementType]float64{}
		for _, def := range battle.ElementTypes() {
			entries[atk][def] = 1.0
		}
	}
	delete(entries[battle.TypeFire], battle.TypeGrass)

	_, err := battle.NewChart(entries)
	assert.ErrorIs(t, err, battle.ErrChartIncomplete)
}

func TestNewChart_RejectsUnknownType(t *testing.T) {
	_, err := battle.NewChart(map[battle.ElementType]map[battle.ElementType]float64{
		"shadow": {battle.TypeFire: 1.0},
	})
	assert.ErrorIs(t, err, battle.ErrInvalidElementType)
}

func TestNewChart_RejectsNegativeMultiplier(t *testing.T) {
	_, err := battle.NewChart(map[battle.ElementType]map[battle.ElementType]float64{
		battle.TypeFire: {battle.TypeGrass: -1.0},
	})
	assert.Error(t, err)
}

// Immunities are representable: a 0 multiplier is accepted by construction.
func TestNewChart_AllowsZeroMultiplier(t *testing.T) {
	entries := map[battle.ElementType]map[battle.ElementType]float64{}
	for _, atk := range battle.ElementTypes() {
		entries[atk] = map[battle.ElementType]float64{}
		for _, def := range battle.ElementTypes() {
			entries[atk][def] = 1.0
		}
	}
	entries[battle.TypeElectric][battle.TypeNormal] = 0.0

	chart, err := battle.NewChart(entries)
	require.NoError(t, err)
	assert.Equal(t, 0.0, chart.Multiplier(battle.TypeElectric, battle.TypeNormal))
}

func TestNewChart_Property_ValidFullTablesAccepted(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		entries := map[battle.ElementType]map[battle.ElementType]float64{}
		for _, atk := range battle.ElementTypes() {
			entries[atk] = map[battle.ElementType]float64{}
			for _, def := range battle.ElementTypes() {
				entries[atk][def] = rapid.SampledFrom([]float64{0, 0.5, 1.0, 2.0}).Draw(rt, "mult")
			}
		}
		chart, err := battle.NewChart(entries)
		require.NoError(rt, err)
		for _, atk := range battle.ElementTypes() {
			for _, def := range battle.ElementTypes() {
				assert.Equal(rt, entries[atk][def], chart.Multiplier(atk, def))
			}
		}
	})
}
