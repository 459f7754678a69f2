// Package reading recognises and decodes the line protocol spoken by the
// indoor sensor device.
//
// A reading line has the shape
//
//	<device_id>,<temperature>,<humidity>,<led_state>
//
// where device_id is 1–20 decimal digits, temperature and humidity are two
// integer digits and two fractional digits, and led_state is "0" or "1".
// The single character "a" is the device's acknowledgement sentinel: it proves
// the device is alive but carries no data.
//
// Parse is all-or-nothing: it either returns a complete Reading or an error
// that is ErrNotMatching (structural mismatch) or a *FieldError (the line has
// the right shape but a field is out of its domain).
package reading
