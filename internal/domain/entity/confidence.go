package entity

import "math"

// ClampConfidence приводит значение уверенности к отрезку [0,1].
// NaN превращается в 0.
func ClampConfidence(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
