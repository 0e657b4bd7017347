package market

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

const (
	trendSeed  = 100.0
	trendFloor = 0.8 * trendSeed
)

var defaultTrend = NewTrendGenerator(nil)

// TrendGenerator synthesizes placeholder sparklines for assets whose payload
// has no series. The output only drifts in the direction of the 24h change;
// it must never be presented as real history.
type TrendGenerator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewTrendGenerator returns a generator drawing perturbations from src. A nil
// src uses a time-seeded PCG.
func NewTrendGenerator(src rand.Source) *TrendGenerator {
	if src == nil {
		seed := uint64(time.Now().UnixNano())
		src = rand.NewPCG(seed, seed>>1|1)
	}
	return &TrendGenerator{rnd: rand.New(src)}
}

// Generate returns TrendLength samples starting at 100. Each step moves by
// |variation|/10 in the sign of variation plus a uniform perturbation of the
// same magnitude, never dropping below 80.
func (g *TrendGenerator) Generate(variation float64) []float64 {
	direction := 1.0
	if variation < 0 {
		direction = -1.0
	}
	volatility := math.Abs(variation) / 10

	out := make([]float64, TrendLength)
	out[0] = trendSeed

	g.mu.Lock()
	defer g.mu.Unlock()
	for i := 1; i < TrendLength; i++ {
		noise := (g.rnd.Float64()*2 - 1) * volatility
		next := out[i-1] + direction*volatility + noise
		out[i] = math.Max(next, trendFloor)
	}
	return out
}
