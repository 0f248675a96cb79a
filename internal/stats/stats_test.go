package stats_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gyaneshwarpardhi/riskflow/internal/stats"
)

func TestSimilarity(t *testing.T) {
	cases := []struct {
		name string
		a, b string
		want float64
	}{
		{name: "both empty", a: "", b: "", want: 1},
		{name: "identical", a: "hello", b: "hello", want: 1},
		{name: "one empty", a: "", b: "abc", want: 0},
		{name: "kitten sitting", a: "kitten", b: "sitting", want: 1 - 3.0/7.0},
		{name: "single substitution", a: "Amazon", b: "Amazan", want: 1 - 1.0/6.0},
		{name: "multibyte runes", a: "café", b: "cafe", want: 0.75},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, stats.Similarity(tc.a, tc.b), 1e-12)
		})
	}
}

func TestSimilarity_SelfAndSymmetry(t *testing.T) {
	words := []string{"", "a", "Starbucks", "Starbuck", "Walmart", "Wells Fargo", "McDonald's"}
	for _, a := range words {
		assert.Equal(t, 1.0, stats.Similarity(a, a), "self similarity of %q", a)
		for _, b := range words {
			assert.Equal(t, stats.Similarity(a, b), stats.Similarity(b, a), "%q vs %q", a, b)
			s := stats.Similarity(a, b)
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 1.0)
		}
	}
}

func TestSimilarity_DifferentWordsBetweenZeroAndOne(t *testing.T) {
	s := stats.Similarity("hello", "world")
	assert.Greater(t, s, 0.0)
	assert.Less(t, s, 1.0)
}

func TestPearson(t *testing.T) {
	cases := []struct {
		name string
		x, y []float64
		want float64
	}{
		{name: "empty", x: nil, y: nil, want: 0},
		{name: "single element", x: []float64{5}, y: []float64{5}, want: 0},
		{name: "one side short", x: []float64{1, 2, 3}, y: []float64{7}, want: 0},
		{name: "self", x: []float64{100, 105, 250, 13}, y: []float64{100, 105, 250, 13}, want: 1},
		{name: "inverse", x: []float64{1, 2, 3}, y: []float64{3, 2, 1}, want: -1},
		{name: "truncated to common prefix", x: []float64{1, 2, 3, 100}, y: []float64{2, 4, 6}, want: 1},
		{name: "constant series", x: []float64{100.1, 100.1, 100.1}, y: []float64{1, 2, 3}, want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, stats.Pearson(tc.x, tc.y), 1e-12)
		})
	}
}

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, stats.Mean(nil))
	assert.InDelta(t, 85.0, stats.Mean([]float64{100, 105, 50}), 1e-12)
}
