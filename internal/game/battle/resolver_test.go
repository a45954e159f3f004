package battle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/roguemon/server/internal/game/battle"
	"github.com/roguemon/server/internal/game/rng"
)

// scriptedSource replays a fixed sequence of draws, letting tests pin the
// accuracy roll and the variance factor independently.
type scriptedSource struct {
	floats []float64
	ints   []int
}

func (s *scriptedSource) Float64() float64 {
	if len(s.floats) == 0 {
		return 0
	}
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

func (s *scriptedSource) Intn(n int) int {
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[0]
	s.ints = s.ints[1:]
	if v >= n {
		return n - 1
	}
	return v
}

// hitWithVariance scripts a guaranteed accuracy pass followed by a variance
// draw of f (0 → 0.85, 1 → 1.0).
func hitWithVariance(f float64) rng.Source {
	return &scriptedSource{floats: []float64{0, f}}
}

func mustCombatant(t require.TestingT, name string, typ battle.ElementType, hp, atk, def, spd int, moves ...battle.Move) *battle.Combatant {
	c, err := battle.NewCombatant(name, typ, hp, atk, def, spd, moves)
	require.NoError(t, err)
	return c
}

// Fire move, power 90, attack 85 vs defense 70, grass defender: STAB 1.5 and
// effectiveness 2.0 apply. With variance pinned to 1.0 the damage is
// floor((110/250 * 85/70 * 90 + 2) * 1.5 * 2.0) = floor(150.26) = 150.
func TestResolveMove_WorkedExample_SuperEffective(t *testing.T) {
	chart := battle.DefaultChart()
	flamethrower := battle.Move{Name: "Flamethrower", Power: 90, Type: battle.TypeFire, Accuracy: 0.9}
	attacker := mustCombatant(t, "Charmander", battle.TypeFire, 300, 85, 70, 90, flamethrower)
	defender := mustCombatant(t, "Bulbasaur", battle.TypeGrass, 300, 80, 70, 75)

	out := battle.ResolveMove(attacker, defender, flamethrower, chart, hitWithVariance(1.0))

	assert.True(t, out.Hit)
	assert.True(t, out.STAB)
	assert.Equal(t, 2.0, out.Effectiveness)
	assert.Equal(t, 150, out.Damage)
	assert.Equal(t, 150, defender.MaxHP-defender.CurrentHP)
}

// Same move against a water defender resists: floor(50.0857 * 1.5 * 0.5) = 37.
func TestResolveMove_WorkedExample_NotVeryEffective(t *testing.T) {
	chart := battle.DefaultChart()
	flamethrower := battle.Move{Name: "Flamethrower", Power: 90, Type: battle.TypeFire, Accuracy: 0.9}
	attacker := mustCombatant(t, "Charmander", battle.TypeFire, 300, 85, 70, 90, flamethrower)
	defender := mustCombatant(t, "Squirtle", battle.TypeWater, 300, 75, 70, 70)

	out := battle.ResolveMove(attacker, defender, flamethrower, chart, hitWithVariance(1.0))

	assert.True(t, out.Hit)
	assert.Equal(t, 0.5, out.Effectiveness)
	assert.Equal(t, 37, out.Damage)
}

func TestResolveMove_StatusMove_HitsWithoutDamage(t *testing.T) {
	chart := battle.DefaultChart()
	sleepPowder := battle.Move{Name: "Sleep Powder", Power: 0, Type: battle.TypeGrass, Accuracy: 0.75}
	attacker := mustCombatant(t, "Bulbasaur", battle.TypeGrass, 100, 80, 80, 75, sleepPowder)
	defender := mustCombatant(t, "Eevee", battle.TypeNormal, 95, 75, 75, 85)

	// Even a scripted failing accuracy draw is irrelevant: power 0 never rolls.
	out := battle.ResolveMove(attacker, defender, sleepPowder, chart, &scriptedSource{floats: []float64{0.99}})

	assert.True(t, out.Hit, "status move reports a hit, not a miss")
	assert.Equal(t, 0, out.Damage)
	assert.Equal(t, 95, defender.CurrentHP)
}

func TestResolveMove_Miss_NoStateChange(t *testing.T) {
	chart := battle.DefaultChart()
	hydroPump := battle.Move{Name: "Hydro Pump", Power: 110, Type: battle.TypeWater, Accuracy: 0.8}
	attacker := mustCombatant(t, "Squirtle", battle.TypeWater, 110, 75, 85, 70, hydroPump)
	defender := mustCombatant(t, "Charmander", battle.TypeFire, 100, 85, 70, 90)

	out := battle.ResolveMove(attacker, defender, hydroPump, chart, &scriptedSource{floats: []float64{0.81}})

	assert.False(t, out.Hit)
	assert.Equal(t, 0, out.Damage)
	assert.Equal(t, 100, defender.CurrentHP)
}

func TestResolveMove_MinimumDamageIsOne(t *testing.T) {
	chart := battle.DefaultChart()
	splash := battle.Move{Name: "Weak Jet", Power: 1, Type: battle.TypeWater, Accuracy: 1.0}
	attacker := mustCombatant(t, "Weakling", battle.TypeNormal, 10, 1, 1, 1, splash)
	defender := mustCombatant(t, "Wall", battle.TypeWater, 500, 1, 400, 1)

	out := battle.ResolveMove(attacker, defender, splash, chart, hitWithVariance(0))

	assert.True(t, out.Hit)
	assert.Equal(t, 1, out.Damage)
	assert.Equal(t, 499, defender.CurrentHP)
}

// An immunity entry (multiplier 0) deals nothing; the 1-damage floor applies
// only to positive multipliers.
func TestResolveMove_ImmunityDealsZero(t *testing.T) {
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

	shock := battle.Move{Name: "Thunder Shock", Power: 40, Type: battle.TypeElectric, Accuracy: 1.0}
	attacker := mustCombatant(t, "Pikachu", battle.TypeElectric, 90, 90, 60, 110, shock)
	defender := mustCombatant(t, "Eevee", battle.TypeNormal, 95, 75, 75, 85)

	out := battle.ResolveMove(attacker, defender, shock, chart, hitWithVariance(1.0))

	assert.True(t, out.Hit)
	assert.Equal(t, 0.0, out.Effectiveness)
	assert.Equal(t, 0, out.Damage)
	assert.Equal(t, 95, defender.CurrentHP)
}

// STAB monotonicity: with the variance factor held fixed, a move matching the
// attacker's type deals at least as much as an otherwise identical move of a
// different, equally effective type.
func TestResolveMove_STABMonotonic(t *testing.T) {
	chart := battle.DefaultChart()
	fireMove := battle.Move{Name: "Flame Burst", Power: 70, Type: battle.TypeFire, Accuracy: 1.0}
	normalMove := battle.Move{Name: "Slam", Power: 70, Type: battle.TypeNormal, Accuracy: 1.0}
	attacker := mustCombatant(t, "Charmander", battle.TypeFire, 100, 85, 70, 90, fireMove, normalMove)

	// Normal defender: both move types are 1.0 effective, isolating STAB.
	defWithSTAB := mustCombatant(t, "Eevee", battle.TypeNormal, 1000, 75, 75, 85)
	defWithout := mustCombatant(t, "Eevee", battle.TypeNormal, 1000, 75, 75, 85)

	stab := battle.ResolveMove(attacker, defWithSTAB, fireMove, chart, hitWithVariance(0.5))
	plain := battle.ResolveMove(attacker, defWithout, normalMove, chart, hitWithVariance(0.5))

	assert.True(t, stab.STAB)
	assert.False(t, plain.STAB)
	assert.GreaterOrEqual(t, stab.Damage, plain.Damage)
}

func TestResolveMove_Property_HealthBoundsAndFloors(t *testing.T) {
	chart := battle.DefaultChart()
	types := battle.ElementTypes()
	rapid.Check(t, func(rt *rapid.T) {
		move := battle.Move{
			Name:     "Strike",
			Power:    rapid.IntRange(0, 150).Draw(rt, "power"),
			Type:     rapid.SampledFrom(types).Draw(rt, "move_type"),
			Accuracy: rapid.Float64Range(0, 1).Draw(rt, "accuracy"),
		}
		attacker := mustCombatant(rt, "A",
			rapid.SampledFrom(types).Draw(rt, "atk_type"),
			rapid.IntRange(1, 300).Draw(rt, "atk_hp"),
			rapid.IntRange(1, 200).Draw(rt, "attack"),
			rapid.IntRange(1, 200).Draw(rt, "atk_def"),
			rapid.IntRange(0, 200).Draw(rt, "atk_spd"),
			move)
		defender := mustCombatant(rt, "D",
			rapid.SampledFrom(types).Draw(rt, "def_type"),
			rapid.IntRange(1, 300).Draw(rt, "def_hp"),
			rapid.IntRange(1, 200).Draw(rt, "def_atk"),
			rapid.IntRange(1, 200).Draw(rt, "defense"),
			rapid.IntRange(0, 200).Draw(rt, "def_spd"))

		src := rng.NewSeededSource(rapid.Int64().Draw(rt, "seed"))
		before := defender.CurrentHP
		out := battle.ResolveMove(attacker, defender, move, chart, src)

		assert.GreaterOrEqual(rt, defender.CurrentHP, 0)
		assert.LessOrEqual(rt, defender.CurrentHP, defender.MaxHP)
		assert.Equal(rt, max(before-out.Damage, 0), defender.CurrentHP)

		if move.Power == 0 {
			assert.True(rt, out.Hit)
			assert.Equal(rt, 0, out.Damage)
			assert.Equal(rt, before, defender.CurrentHP)
		}
		if !out.Hit {
			assert.Equal(rt, before, defender.CurrentHP)
		}
		if out.Hit && move.Power > 0 {
			assert.GreaterOrEqual(rt, out.Damage, 1)
			// Health lost never exceeds the health the defender had.
			assert.LessOrEqual(rt, before-defender.CurrentHP, before)
		}
	})
}
