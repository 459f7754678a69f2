package report

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/dewdrop/dewdrop/agent/internal/decision"
	"github.com/dewdrop/dewdrop/pkg/types"
)

// NewFeed converts a decision into a SensorFeed. Every numeric field is
// rounded to two decimals; the device id is carried as a decimal string so
// 64-bit ids survive JSON consumers that decode numbers as doubles.
func NewFeed(res decision.Result) *types.SensorFeed {
	return &types.SensorFeed{
		DeviceID:          strconv.FormatUint(res.Reading.DeviceID, 10),
		IndoorTemperature: decision.Round2(res.Reading.Temperature),
		IndoorHumidity:    decision.Round2(res.Reading.Humidity),
		IndoorDewpoint:    decision.Round2(res.IndoorDewpoint),
		OutdoorDewpoint:   decision.Round2(res.OutdoorDewpoint),
		DewpointDelta:     decision.Round2(res.DewpointDelta),
		KeepWindows:       types.KeepWindowsValue(res.OpenWindows),
		HumidityAlert:     res.HumidityAlert,
	}
}

// wireFeed is the posted form of a SensorFeed. Non-finite numbers, such as
// the dewpoint of a 0 % humidity reading, are sent as null.
type wireFeed struct {
	DeviceID          string   `json:"device_id"`
	IndoorTemperature *float64 `json:"indoor_temperature"`
	IndoorHumidity    *float64 `json:"indoor_humidity"`
	IndoorDewpoint    *float64 `json:"indoor_dewpoint"`
	OutdoorDewpoint   *float64 `json:"outdoor_dewpoint"`
	DewpointDelta     *float64 `json:"dewpoint_delta"`
	KeepWindows       string   `json:"keep_windows"`
	HumidityAlert     bool     `json:"humidity_alert"`
}

// marshalFeed encodes feed for the HTTP and MQTT sinks.
func marshalFeed(feed *types.SensorFeed) ([]byte, error) {
	b, err := json.Marshal(wireFeed{
		DeviceID:          feed.DeviceID,
		IndoorTemperature: finite(feed.IndoorTemperature),
		IndoorHumidity:    finite(feed.IndoorHumidity),
		IndoorDewpoint:    finite(feed.IndoorDewpoint),
		OutdoorDewpoint:   finite(feed.OutdoorDewpoint),
		DewpointDelta:     finite(feed.DewpointDelta),
		KeepWindows:       feed.KeepWindows,
		HumidityAlert:     feed.HumidityAlert,
	})
	if err != nil {
		return nil, fmt.Errorf("report: marshal feed: %w", err)
	}
	return b, nil
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
