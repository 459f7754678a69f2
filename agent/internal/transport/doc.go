// Package transport talks to the indoor sensor device.
//
// Two channels implement the same Channel contract:
//
//   - Serial writes single-byte commands ('d' for data, '1'/'0' for the
//     warning light) to a serial port and reads the reply line.
//   - Network issues GET /data and GET /led?state=1|0 against the device's
//     HTTP server.
//
// Both drive their retries through the same prober state machine
// (probing → retrying → success | exhausted) but with different budgets.
// The serial budget is wall-clock time: a freshly opened port resets the
// microcontroller and it answers with the "a" sentinel until it is ready.
// The network budget is a fixed number of attempts with a fixed pause, and a
// connection failure ends the loop immediately.
//
// A Channel is safe for concurrent use; calls are serialized because the
// underlying device handles one command at a time.
package transport
