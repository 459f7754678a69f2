// Package config loads the dewdrop probe configuration.
//
// Sources, later ones winning:
//   - built-in defaults (115200 baud serial, 1s serial budget polled every
//     50ms, 3 network attempts 1s apart, 10s HTTP timeouts)
//   - the YAML file (optional; a missing file is not an error)
//   - a dotenv file (optional) merged into the process environment
//   - environment variables MODE, ARDUINO_PORT, ARDUINO_IP, GET_URL and
//     POST_URL_SENSOR_FEED
//   - the mode passed on the command line
//
// Load validates the result before returning it. Missing endpoints or ports
// are reported as ErrConfigurationMissing so callers can stop before any
// device or network traffic happens.
package config
