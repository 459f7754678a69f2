// Package devicesim is an in-memory stand-in for the dewdrop sensor board.
//
// A Device answers the single-byte serial protocol through Handle and the
// HTTP protocol through Router. Port adapts a Device to the byte stream a
// serial port presents, so the agent's serial channel can be exercised
// without hardware. Options script the awkward behaviour real boards show:
// sentinel-only replies while waking up, silence, line noise and 503s.
package devicesim
