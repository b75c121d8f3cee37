package utils

import "math"

// Min returns the minimum of two integers.
func Min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Max returns the maximum of two integers.
func Max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Round3 rounds a float to three decimal places. Route costs and fuel
// figures are reported at this precision throughout the simulator.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// Euclidean returns the straight-line distance between two grid points.
func Euclidean(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return math.Sqrt(dx*dx + dy*dy)
}
