package alerts

import (
	"strconv"
	"strings"

	"github.com/dewdrop/dewdrop/pkg/types"
)

// evalCondition evaluates a rule condition string against a feed. prev is the
// device's previous feed, or nil for the first one.
//
// Supported expressions:
//
//	indoor_humidity > 60
//	indoor_temperature >= 28
//	indoor_dewpoint > 16
//	outdoor_dewpoint < 0
//	dewpoint_delta <= -1
//	keep_windows == Open
//	keep_windows != Closed
//	humidity_alert == true
//	keep_windows changed
//
// Returns (fires bool, triggering value float64). Booleans and window states
// report 1 for true/Open and 0 otherwise.
// Returns (false, 0) if the expression cannot be parsed or the field is unknown.
func evalCondition(cond string, feed, prev *types.SensorFeed) (bool, float64) {
	parts := strings.Fields(cond)

	if len(parts) == 2 && parts[0] == "keep_windows" && parts[1] == "changed" {
		v := boolValue(feed.OpenWindows())
		if prev == nil {
			return false, v
		}
		return prev.KeepWindows != feed.KeepWindows, v
	}

	if len(parts) != 3 {
		return false, 0
	}
	field, op, rhs := parts[0], parts[1], parts[2]

	switch field {
	case "keep_windows":
		return compareString(feed.KeepWindows, op, rhs), boolValue(feed.OpenWindows())

	case "humidity_alert":
		want, err := strconv.ParseBool(rhs)
		if err != nil {
			return false, 0
		}
		v := boolValue(feed.HumidityAlert)
		return compareString(strconv.FormatBool(feed.HumidityAlert), op, strconv.FormatBool(want)), v

	default:
		v, ok := numericField(field, feed)
		if !ok {
			return false, 0
		}
		threshold, err := strconv.ParseFloat(rhs, 64)
		if err != nil {
			return false, 0
		}
		return compareFloat(v, op, threshold), v
	}
}

// isTransition reports whether cond fires on a change rather than a level.
func isTransition(cond string) bool {
	parts := strings.Fields(cond)
	return len(parts) == 2 && parts[1] == "changed"
}

// numericField maps a field name to its value in the feed.
func numericField(field string, f *types.SensorFeed) (float64, bool) {
	switch field {
	case "indoor_temperature":
		return f.IndoorTemperature, true
	case "indoor_humidity":
		return f.IndoorHumidity, true
	case "indoor_dewpoint":
		return f.IndoorDewpoint, true
	case "outdoor_dewpoint":
		return f.OutdoorDewpoint, true
	case "dewpoint_delta":
		return f.DewpointDelta, true
	default:
		return 0, false
	}
}

// compareFloat applies a comparison operator to two float64 values.
func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	case "!=":
		return v != threshold
	default:
		return false
	}
}

// compareString supports equality operators only; matching is case-insensitive.
func compareString(v, op, want string) bool {
	switch op {
	case "==":
		return strings.EqualFold(v, want)
	case "!=":
		return !strings.EqualFold(v, want)
	default:
		return false
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
