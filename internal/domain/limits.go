package domain

import "math"

const (
	MinPoints = 1
	MaxPoints = 10
)

// ClampPoints forces a point value into [MinPoints, MaxPoints].
func ClampPoints(p int) int {
	if p < MinPoints {
		return MinPoints
	}
	if p > MaxPoints {
		return MaxPoints
	}
	return p
}

// ClampConfidence forces a confidence into [0, 1]. NaN becomes 0.
func ClampConfidence(c float64) float64 {
	if math.IsNaN(c) || c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
