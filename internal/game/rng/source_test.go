package rng_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/roguemon/server/internal/game/rng"
)

func TestSeededSource_Deterministic(t *testing.T) {
	a := rng.NewSeededSource(42)
	b := rng.NewSeededSource(42)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Intn(1000), b.Intn(1000))
		assert.Equal(t, a.Float64(), b.Float64())
	}
}

func TestCryptoSource_IntnPanicsOnInvalidBound(t *testing.T) {
	src := rng.NewCryptoSource()
	assert.Panics(t, func() { src.Intn(0) })
	assert.Panics(t, func() { src.Intn(-3) })
}

func TestSources_Property_Bounds(t *testing.T) {
	sources := []rng.Source{rng.NewCryptoSource(), rng.NewSeededSource(7)}
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 1_000_000).Draw(rt, "n")
		for _, src := range sources {
			v := src.Intn(n)
			assert.GreaterOrEqual(rt, v, 0)
			assert.Less(rt, v, n)

			f := src.Float64()
			assert.GreaterOrEqual(rt, f, 0.0)
			assert.Less(rt, f, 1.0)
		}
	})
}
