package stats

import "math"

// Pearson returns the linear correlation of x and y paired by position over
// their common prefix. It returns 0 when fewer than two pairs exist or when
// either prefix is constant.
func Pearson(x, y []float64) float64 {
	n := min(len(x), len(y))
	if n < 2 {
		return 0
	}
	x, y = x[:n], y[:n]
	if constant(x) || constant(y) {
		return 0
	}
	mx, my := Mean(x), Mean(y)
	var sxy, sxx, syy float64
	for i := range x {
		dx, dy := x[i]-mx, y[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	den := math.Sqrt(sxx) * math.Sqrt(syy)
	if den == 0 {
		return 0
	}
	return math.Max(-1, math.Min(1, sxy/den))
}

// Mean returns the arithmetic mean of xs, or 0 for an empty slice. It is
// accumulated incrementally so large finite inputs do not overflow.
func Mean(xs []float64) float64 {
	var m float64
	for i, x := range xs {
		m += (x - m) / float64(i+1)
	}
	return m
}

func constant(xs []float64) bool {
	for _, x := range xs[1:] {
		if x != xs[0] {
			return false
		}
	}
	return true
}
