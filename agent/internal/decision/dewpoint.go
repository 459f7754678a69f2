package decision

import (
	"fmt"
	"math"
)

// Magnus coefficients (Alduchov & Eskridge).
const (
	magnusB = 17.625
	magnusC = 243.04 // °C
)

// Dewpoint returns the dewpoint in °C for temperature t (°C) and relative
// humidity rh (%).
//
// rh must lie in [0, 100]; anything else is a programming error and panics.
// rh == 0 yields NaN.
func Dewpoint(t, rh float64) float64 {
	if math.IsNaN(rh) || rh < 0 || rh > 100 {
		panic(fmt.Sprintf("decision: relative humidity %v outside [0, 100]", rh))
	}
	alpha := math.Log(rh/100) + (magnusB*t)/(magnusC+t)
	return magnusC * alpha / (magnusB - alpha)
}

// Round2 rounds v to two decimal places, halves away from zero.
// The small nudge absorbs binary representation error so that 9.265 rounds
// to 9.27 rather than 9.26.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return math.Round(v*100+math.Copysign(1e-9, v)) / 100
}
