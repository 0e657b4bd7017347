package ui

import (
	"math"
	"strings"
)

// resample averages values into at most width buckets.
func resample(values []float64, width int) []float64 {
	n := len(values)
	if width <= 0 || n == 0 {
		return nil
	}
	if n <= width {
		return values
	}
	out := make([]float64, width)
	for i := range width {
		start := i * n / width
		end := max((i+1)*n/width, start+1)
		var sum float64
		for _, v := range values[start:end] {
			sum += v
		}
		out[i] = sum / float64(end-start)
	}
	return out
}

// renderChart draws values as a block chart of the given size, top row first.
// Each row holds eight levels so the chart resolves height*8 steps. A flat
// series sits at half height.
func renderChart(values []float64, width, height int) []string {
	cols := resample(values, width)
	if len(cols) == 0 || height <= 0 {
		return nil
	}

	lo, hi := cols[0], cols[0]
	for _, v := range cols[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	steps := height * len(sparkBlocks)
	levels := make([]int, len(cols))
	for i, v := range cols {
		if hi > lo {
			levels[i] = 1 + int(math.Round((v-lo)/(hi-lo)*float64(steps-1)))
		} else {
			levels[i] = steps / 2
		}
	}

	rows := make([]string, height)
	for r := range height {
		base := (height - 1 - r) * len(sparkBlocks)
		var b strings.Builder
		for _, level := range levels {
			fill := level - base
			switch {
			case fill <= 0:
				b.WriteByte(' ')
			case fill >= len(sparkBlocks):
				b.WriteRune(sparkBlocks[len(sparkBlocks)-1])
			default:
				b.WriteRune(sparkBlocks[fill-1])
			}
		}
		rows[r] = b.String()
	}
	return rows
}
