// Package decision turns an indoor reading and an outdoor dewpoint into a
// ventilation recommendation.
//
// dewpoint.go holds the Magnus approximation and the two-place rounding used
// for reporting. decide.go holds the pure Decide function: windows may be
// opened when the indoor dewpoint is no more than 1 °C below the outdoor one,
// and a humidity alert is raised above 60 % relative humidity.
package decision
