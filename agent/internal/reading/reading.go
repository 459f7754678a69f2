package reading

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Sentinel is the acknowledgement token sent by the device.
const Sentinel = "a"

var linePattern = regexp.MustCompile(`^\d{1,20},\d{2}\.\d{2},\d{2}\.\d{2},[01]$`)

// ErrNotMatching is returned when a line does not have the reading shape.
var ErrNotMatching = errors.New("reading: line does not match reading format")

// FieldError reports a structurally valid line whose field value could not
// be decoded.
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("reading: invalid %s %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("reading: invalid %s %q", e.Field, e.Value)
}

func (e *FieldError) Unwrap() error { return e.Err }

// Reading is one decoded device sample. It is a value type and never mutated
// after Parse returns it.
type Reading struct {
	DeviceID    uint64
	Temperature float64 // °C
	Humidity    float64 // % relative humidity
	LEDOn       bool    // warning light state as last observed on the device
}

// String encodes r in the device line format.
func (r Reading) String() string {
	led := "0"
	if r.LEDOn {
		led = "1"
	}
	return fmt.Sprintf("%d,%05.2f,%05.2f,%s", r.DeviceID, r.Temperature, r.Humidity, led)
}

// Matches reports whether line (after trimming) has the reading shape.
func Matches(line string) bool {
	return linePattern.MatchString(strings.TrimSpace(line))
}

// IsSentinel reports whether line is the bare acknowledgement token.
func IsSentinel(line string) bool {
	return strings.TrimSpace(line) == Sentinel
}

// IsValidResponse reports whether line proves the device is alive: either a
// full reading or the acknowledgement sentinel.
func IsValidResponse(line string) bool {
	line = strings.TrimSpace(line)
	return line != "" && (line == Sentinel || linePattern.MatchString(line))
}

// Parse decodes a trimmed device line into a Reading.
func Parse(line string) (Reading, error) {
	line = strings.TrimSpace(line)
	if !linePattern.MatchString(line) {
		return Reading{}, ErrNotMatching
	}
	parts := strings.Split(line, ",")

	id, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return Reading{}, &FieldError{Field: "device_id", Value: parts[0], Err: err}
	}
	temp, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return Reading{}, &FieldError{Field: "temperature", Value: parts[1], Err: err}
	}
	hum, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return Reading{}, &FieldError{Field: "humidity", Value: parts[2], Err: err}
	}

	var led bool
	switch parts[3] {
	case "1":
		led = true
	case "0":
		led = false
	default:
		return Reading{}, &FieldError{Field: "led_state", Value: parts[3]}
	}

	return Reading{
		DeviceID:    id,
		Temperature: temp,
		Humidity:    hum,
		LEDOn:       led,
	}, nil
}
