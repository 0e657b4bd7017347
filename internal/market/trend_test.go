package market

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrendGenerator_ZeroVariationIsFlat(t *testing.T) {
	g := NewTrendGenerator(rand.NewPCG(7, 7))
	got := g.Generate(0)
	require.Len(t, got, TrendLength)
	for i, v := range got {
		assert.Equal(t, 100.0, v, "sample %d", i)
	}
}

func TestTrendGenerator_StepBounds(t *testing.T) {
	for _, variation := range []float64{5, 12.5, -3, -40} {
		g := NewTrendGenerator(rand.NewPCG(3, 9))
		got := g.Generate(variation)
		require.Len(t, got, TrendLength)
		assert.Equal(t, 100.0, got[0])

		vol := variation / 10
		if vol < 0 {
			vol = -vol
		}
		for i := 1; i < len(got); i++ {
			assert.GreaterOrEqual(t, got[i], 80.0, "floor at sample %d", i)
			if got[i] == 80.0 {
				continue
			}
			step := got[i] - got[i-1]
			if variation >= 0 {
				assert.GreaterOrEqual(t, step, -1e-9)
				assert.LessOrEqual(t, step, 2*vol+1e-9)
			} else {
				assert.LessOrEqual(t, step, 1e-9)
				assert.GreaterOrEqual(t, step, -2*vol-1e-9)
			}
		}
	}
}

func TestTrendGenerator_SeededIsReproducible(t *testing.T) {
	a := NewTrendGenerator(rand.NewPCG(11, 13)).Generate(4.2)
	b := NewTrendGenerator(rand.NewPCG(11, 13)).Generate(4.2)
	assert.Equal(t, a, b)
}

// constSource feeds the generator a fixed word so perturbations are exact:
// 0 yields -volatility, math.MaxUint64 yields (almost) +volatility.
type constSource uint64

func (c constSource) Uint64() uint64 { return uint64(c) }

func TestTrendGenerator_FloorHolds(t *testing.T) {
	got := NewTrendGenerator(constSource(0)).Generate(-90)
	assert.Equal(t, []float64{100, 82, 80, 80, 80, 80, 80}, got)
}

func TestTrendGenerator_ExtremePerturbations(t *testing.T) {
	low := NewTrendGenerator(constSource(0)).Generate(10)
	assert.Equal(t, []float64{100, 100, 100, 100, 100, 100, 100}, low)

	high := NewTrendGenerator(constSource(math.MaxUint64)).Generate(10)
	want := []float64{100, 102, 104, 106, 108, 110, 112}
	for i := range want {
		assert.InDelta(t, want[i], high[i], 1e-9, "sample %d", i)
	}
}
