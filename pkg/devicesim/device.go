package devicesim

import (
	"fmt"
	"sync"
)

// Sentinel is the reply sent while the board is still warming up and as the
// acknowledgement of a light command.
const Sentinel = "a"

// Device is a simulated sensor board. Its methods are safe for concurrent use.
type Device struct {
	mu          sync.Mutex
	id          uint64
	temperature float64
	humidity    float64
	led         bool

	warmup   int // data requests answered with Sentinel
	silent   int // commands answered with nothing
	noise    int // data requests answered with garbage
	failures int // HTTP requests answered with 503

	commands int
}

// Option configures a Device.
type Option func(*Device)

// WithWarmup makes the first n data requests return the sentinel.
func WithWarmup(n int) Option { return func(d *Device) { d.warmup = n } }

// WithSilence makes the first n commands go unanswered.
func WithSilence(n int) Option { return func(d *Device) { d.silent = n } }

// WithNoise makes the first n data requests return a garbled line.
func WithNoise(n int) Option { return func(d *Device) { d.noise = n } }

// WithFailures makes the first n HTTP requests fail with 503.
func WithFailures(n int) Option { return func(d *Device) { d.failures = n } }

// WithLED sets the initial warning light state.
func WithLED(on bool) Option { return func(d *Device) { d.led = on } }

// New returns a Device reporting the given identity and climate.
func New(id uint64, temperature, humidity float64, opts ...Option) *Device {
	d := &Device{id: id, temperature: temperature, humidity: humidity}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Set changes the simulated climate.
func (d *Device) Set(temperature, humidity float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.temperature, d.humidity = temperature, humidity
}

// LED returns the current warning light state.
func (d *Device) LED() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.led
}

// Commands returns how many commands the device has received.
func (d *Device) Commands() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.commands
}

// Line returns the current reading in wire format.
func (d *Device) Line() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.line()
}

func (d *Device) line() string {
	led := 0
	if d.led {
		led = 1
	}
	return fmt.Sprintf("%d,%05.2f,%05.2f,%d", d.id, d.temperature, d.humidity, led)
}

// Handle processes one serial command and returns the reply line without a
// terminator. An empty reply means the device stayed silent.
//
//	'd'       current reading (or Sentinel while warming up)
//	'1', '0'  switch the warning light on or off, reply Sentinel
//
// Unknown commands are ignored.
func (d *Device) Handle(cmd byte) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.commands++
	if d.silent > 0 {
		d.silent--
		return ""
	}

	switch cmd {
	case 'd':
		if d.warmup > 0 {
			d.warmup--
			return Sentinel
		}
		if d.noise > 0 {
			d.noise--
			return "#?" + d.line()[2:]
		}
		return d.line()
	case '1', '0':
		d.led = cmd == '1'
		return Sentinel
	default:
		return ""
	}
}

// takeFailure consumes one scripted HTTP failure.
func (d *Device) takeFailure() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failures > 0 {
		d.failures--
		return true
	}
	return false
}
