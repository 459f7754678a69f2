package decision

import (
	"github.com/dewdrop/dewdrop/agent/internal/reading"
)

// Decision thresholds. Both comparisons are strict.
const (
	// OpenWindowsDelta is the indoor-minus-outdoor dewpoint above which opening
	// the windows is recommended.
	OpenWindowsDelta = -1.0

	// HumidityAlertPct is the indoor relative humidity above which an alert is raised.
	HumidityAlertPct = 60.0
)

// Result is the outcome of one decision. It has no lifecycle beyond the run
// that produced it.
type Result struct {
	Reading         reading.Reading
	OutdoorDewpoint float64

	IndoorDewpoint float64
	DewpointDelta  float64 // IndoorDewpoint - OutdoorDewpoint
	OpenWindows    bool
	HumidityAlert  bool
}

// LEDOn returns the warning light state that matches the decision: the light
// is on while the windows should stay closed.
func (r Result) LEDOn() bool {
	return !r.OpenWindows
}

// Decide computes the ventilation decision for r given the outdoor dewpoint.
// It panics if r.Humidity is outside [0, 100] (see Dewpoint).
func Decide(r reading.Reading, outdoorDewpoint float64) Result {
	indoor := Dewpoint(r.Temperature, r.Humidity)
	delta := indoor - outdoorDewpoint
	return Result{
		Reading:         r,
		OutdoorDewpoint: outdoorDewpoint,
		IndoorDewpoint:  indoor,
		DewpointDelta:   delta,
		OpenWindows:     shouldOpenWindows(delta),
		HumidityAlert:   humidityAlert(r.Humidity),
	}
}

func shouldOpenWindows(delta float64) bool { return delta > OpenWindowsDelta }

func humidityAlert(rh float64) bool { return rh > HumidityAlertPct }
