package battle

import (
	"errors"
	"fmt"
)

// Chart is the type-effectiveness table: a total function from
// (attacking type, defending type) pairs to a damage multiplier.
//
// The table is not symmetric; both directions of every pair are tabulated
// explicitly. A multiplier of 0 marks an immunity — the shipped default
// chart has none, but the structure supports it.
//
// Invariant: every pair over the declared type set has an entry; entries are
// immutable after construction.
type Chart struct {
	multipliers map[ElementType]map[ElementType]float64
}

// ErrChartIncomplete is returned when a chart is missing a (attack, defend) pair.
var ErrChartIncomplete = errors.New("type chart incomplete")

// NewChart builds a validated Chart from the given entries. A missing pair is
// a configuration defect caught here, never a mid-battle condition.
//
// Postcondition: Returns a total Chart, or an error naming every missing or
// unknown entry. All multipliers must be >= 0.
func NewChart(entries map[ElementType]map[ElementType]float64) (*Chart, error) {
	multipliers := make(map[ElementType]map[ElementType]float64, len(entries))
	for atk, row := range entries {
		if !ValidElementType(atk) {
			return nil, fmt.Errorf("%w: %q as attacking type", ErrInvalidElementType, atk)
		}
		dst := make(map[ElementType]float64, len(row))
		for def, mult := range row {
			if !ValidElementType(def) {
				return nil, fmt.Errorf("%w: %q as defending type", ErrInvalidElementType, def)
			}
			if mult < 0 {
				return nil, fmt.Errorf("chart entry %s vs %s: multiplier must be >= 0, got %g", atk, def, mult)
			}
			dst[def] = mult
		}
		multipliers[atk] = dst
	}

	var missing []string
	for _, atk := range ElementTypes() {
		for _, def := range ElementTypes() {
			if _, ok := multipliers[atk][def]; !ok {
				missing = append(missing, fmt.Sprintf("%s vs %s", atk, def))
			}
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %v", ErrChartIncomplete, missing)
	}

	return &Chart{multipliers: multipliers}, nil
}

// Multiplier returns the effectiveness multiplier for a move of type atk
// hitting a defender of type def.
//
// Precondition: atk and def must be members of the declared type set. The
// chart was validated total at construction, so this panics on a violation
// rather than defaulting silently.
func (c *Chart) Multiplier(atk, def ElementType) float64 {
	mult, ok := c.multipliers[atk][def]
	if !ok {
		panic(fmt.Sprintf("battle: Multiplier precondition violated: no entry for %s vs %s", atk, def))
	}
	return mult
}

// DefaultChart returns the built-in five-type chart.
//
// Postcondition: Returns a total Chart; never fails.
func DefaultChart() *Chart {
	chart, err := NewChart(map[ElementType]map[ElementType]float64{
		TypeFire: {
			TypeGrass:    2.0,
			TypeWater:    0.5,
			TypeFire:     0.5,
			TypeElectric: 1.0,
			TypeNormal:   1.0,
		},
		TypeWater: {
			TypeFire:     2.0,
			TypeGrass:    0.5,
			TypeWater:    0.5,
			TypeElectric: 1.0,
			TypeNormal:   1.0,
		},
		TypeGrass: {
			TypeWater:    2.0,
			TypeFire:     0.5,
			TypeGrass:    0.5,
			TypeElectric: 1.0,
			TypeNormal:   1.0,
		},
		TypeElectric: {
			TypeWater:    2.0,
			TypeGrass:    0.5,
			TypeFire:     1.0,
			TypeElectric: 0.5,
			TypeNormal:   1.0,
		},
		TypeNormal: {
			TypeFire:     1.0,
			TypeWater:    1.0,
			TypeGrass:    1.0,
			TypeElectric: 1.0,
			TypeNormal:   1.0,
		},
	})
	if err != nil {
		panic("battle: default chart invalid: " + err.Error())
	}
	return chart
}
