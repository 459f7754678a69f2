// Package report delivers the outcome of a probe run.
//
// NewFeed turns a decision into the wire-level types.SensorFeed. Reporters
// send that feed somewhere:
//
//   - HTTP posts it as JSON to the collector (always configured)
//   - MQTT publishes the same JSON at QoS 1 (when report.mqtt.broker is set)
//   - Textfile rewrites a Prometheus textfile-collector file (when
//     report.textfile is set)
//
// New assembles the configured set behind a single Reporter. Sinks are called
// in order and every failure is reported; one sink failing does not stop the
// others.
package report
