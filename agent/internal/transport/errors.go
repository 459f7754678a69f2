package transport

import "errors"

var (
	// ErrDeviceUnresponsive means the serial device gave no valid reading
	// before the poll timeout elapsed.
	ErrDeviceUnresponsive = errors.New("transport: device unresponsive")

	// ErrRemoteUnreachable means the network device could not be contacted.
	ErrRemoteUnreachable = errors.New("transport: remote unreachable")

	// ErrMalformedResponse means the device answered but the body was not a
	// reading.
	ErrMalformedResponse = errors.New("transport: malformed response")

	// ErrRetriesExhausted means every network attempt got a malformed or
	// non-200 answer.
	ErrRetriesExhausted = errors.New("transport: retries exhausted")

	// ErrActuatorAckTimeout means the device never acknowledged a warning
	// light command.
	ErrActuatorAckTimeout = errors.New("transport: actuator acknowledgement timed out")

	// errBudgetExhausted is the prober's internal signal; channels translate
	// it into one of the errors above.
	errBudgetExhausted = errors.New("probe budget exhausted")
)
