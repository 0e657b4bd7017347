package ui

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestResampleAveragesBuckets(t *testing.T) {
	got := resample([]float64{1, 3, 5, 7}, 2)
	if len(got) != 2 || got[0] != 2 || got[1] != 6 {
		t.Fatalf("resample = %v, want [2 6]", got)
	}
	short := []float64{1, 2}
	if got := resample(short, 10); len(got) != 2 {
		t.Fatalf("resample of short series = %v, want unchanged", got)
	}
	if got := resample(nil, 10); got != nil {
		t.Fatalf("resample(nil) = %v, want nil", got)
	}
}

func TestRenderChartRisingSeries(t *testing.T) {
	rows := renderChart([]float64{0, 1, 2, 3}, 4, 2)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	for i, row := range rows {
		if n := utf8.RuneCountInString(row); n != 4 {
			t.Fatalf("row %d width = %d, want 4", i, n)
		}
	}
	top := []rune(rows[0])
	bottom := []rune(rows[1])
	if top[0] != ' ' {
		t.Fatalf("lowest sample reaches the top row: %q", rows[0])
	}
	if bottom[0] != sparkBlocks[0] {
		t.Fatalf("lowest sample = %q, want the smallest block", string(bottom[0]))
	}
	if top[3] != '█' || bottom[3] != '█' {
		t.Fatalf("highest sample should fill its column: %q / %q", rows[0], rows[1])
	}
}

func TestRenderChartFlatSeriesIsHalfHeight(t *testing.T) {
	rows := renderChart([]float64{5, 5, 5}, 10, 4)
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want 4", len(rows))
	}
	if strings.TrimSpace(rows[0]) != "" || strings.TrimSpace(rows[1]) != "" {
		t.Fatalf("upper half should be empty: %q", rows[:2])
	}
	if rows[2] != "███" || rows[3] != "███" {
		t.Fatalf("lower half should be full: %q", rows[2:])
	}
}

func TestRenderChartEmpty(t *testing.T) {
	if rows := renderChart(nil, 10, 4); rows != nil {
		t.Fatalf("renderChart(nil) = %v, want nil", rows)
	}
}
