// Package types defines the Go types shared by the dewdrop probe and the
// collector. SensorFeed is the JSON document the probe posts after every run
// and the collector stores, alerts on and serves back.
package types
