// Package receiver implements POST /sensor-feed, the endpoint dewdrop probes
// report to after every run.
//
// Receiver validates that device_id is non-empty and keep_windows is Open or
// Closed (400 otherwise), stores the feed as the device's latest, then hands
// the feed and its predecessor to the alert engine.
//
// New(st, ev) wires the receiver to the feed store and an alert evaluator.
package receiver
