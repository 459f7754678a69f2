package types

// Values of SensorFeed.KeepWindows.
const (
	WindowsOpen   = "Open"
	WindowsClosed = "Closed"
)

// SensorFeed is the report produced by one probe run.
// Numeric fields are rounded to two decimal places by the producer.
type SensorFeed struct {
	DeviceID          string  `json:"device_id"`
	IndoorTemperature float64 `json:"indoor_temperature"`
	IndoorHumidity    float64 `json:"indoor_humidity"`
	IndoorDewpoint    float64 `json:"indoor_dewpoint"`
	OutdoorDewpoint   float64 `json:"outdoor_dewpoint"`
	DewpointDelta     float64 `json:"dewpoint_delta"`
	KeepWindows       string  `json:"keep_windows"` // "Open" | "Closed"
	HumidityAlert     bool    `json:"humidity_alert"`
}

// OpenWindows reports whether the feed recommends opening the windows.
func (f *SensorFeed) OpenWindows() bool {
	return f.KeepWindows == WindowsOpen
}

// KeepWindowsValue maps an open-windows decision to its feed value.
func KeepWindowsValue(open bool) string {
	if open {
		return WindowsOpen
	}
	return WindowsClosed
}
