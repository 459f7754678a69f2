package transport

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/dewdrop/dewdrop/agent/internal/config"
	"github.com/dewdrop/dewdrop/pkg/devicesim"
)

var testSerialConfig = config.SerialConfig{
	Port:          "sim",
	Baud:          config.DefaultBaud,
	ReadTimeout:   config.DefaultSerialReadTimeout,
	Timeout:       config.DefaultSerialTimeout,
	RetryInterval: config.DefaultRetryInterval,
}

func newTestSerial(port Port) (*Serial, *fakeClock) {
	s := NewSerial("sim", port, testSerialConfig)
	clk := newFakeClock()
	clk.install(&s.probe)
	return s, clk
}

func TestSerial_PollWarmup(t *testing.T) {
	dev := devicesim.New(123456, 21.35, 48.2, devicesim.WithWarmup(3))
	s, _ := newTestSerial(devicesim.NewPort(dev))

	r, err := s.PollForReading(context.Background())
	if err != nil {
		t.Fatalf("PollForReading: %v", err)
	}
	if r.DeviceID != 123456 || r.Temperature != 21.35 || r.Humidity != 48.2 || r.LEDOn {
		t.Errorf("reading: got %+v", r)
	}
	// Three sentinel replies, then the reading.
	if got := dev.Commands(); got != 4 {
		t.Errorf("probes: got %d, want 4", got)
	}
}

func TestSerial_PollSkipsSilenceAndNoise(t *testing.T) {
	dev := devicesim.New(9, 19, 55.5, devicesim.WithSilence(2), devicesim.WithNoise(2))
	s, _ := newTestSerial(devicesim.NewPort(dev))

	r, err := s.PollForReading(context.Background())
	if err != nil {
		t.Fatalf("PollForReading: %v", err)
	}
	if r.DeviceID != 9 {
		t.Errorf("device id: got %d", r.DeviceID)
	}
	if got := dev.Commands(); got != 5 {
		t.Errorf("probes: got %d, want 5", got)
	}
}

func TestSerial_PollTimeout(t *testing.T) {
	dev := devicesim.New(1, 20, 50, devicesim.WithWarmup(1000))
	s, clk := newTestSerial(devicesim.NewPort(dev))

	_, err := s.PollForReading(context.Background())
	if !errors.Is(err, ErrDeviceUnresponsive) {
		t.Fatalf("err: got %v, want ErrDeviceUnresponsive", err)
	}
	if got := dev.Commands(); got != 22 {
		t.Errorf("probes: got %d, want 22", got)
	}
	if clk.t.Sub(newFakeClock().t) <= testSerialConfig.Timeout {
		t.Error("gave up before the timeout elapsed")
	}
}

func TestSerial_Actuate(t *testing.T) {
	dev := devicesim.New(1, 20, 50)
	s, _ := newTestSerial(devicesim.NewPort(dev))

	if err := s.Actuate(context.Background(), true); err != nil {
		t.Fatalf("Actuate(on): %v", err)
	}
	if !dev.LED() {
		t.Error("led should be on")
	}
	if err := s.Actuate(context.Background(), false); err != nil {
		t.Fatalf("Actuate(off): %v", err)
	}
	if dev.LED() {
		t.Error("led should be off")
	}
}

func TestSerial_ActuateAckTimeout(t *testing.T) {
	dev := devicesim.New(1, 20, 50, devicesim.WithSilence(1000))
	s, _ := newTestSerial(devicesim.NewPort(dev))

	err := s.Actuate(context.Background(), true)
	if !errors.Is(err, ErrActuatorAckTimeout) {
		t.Fatalf("err: got %v, want ErrActuatorAckTimeout", err)
	}
}

// chunkPort replays a fixed reply a few bytes per Read.
type chunkPort struct {
	reply  []byte
	chunk  int
	writes int
}

func (p *chunkPort) Write(b []byte) (int, error) {
	p.writes++
	return len(b), nil
}

func (p *chunkPort) Read(b []byte) (int, error) {
	if len(p.reply) == 0 {
		return 0, io.EOF
	}
	n := p.chunk
	if n > len(p.reply) {
		n = len(p.reply)
	}
	n = copy(b, p.reply[:n])
	p.reply = p.reply[n:]
	return n, nil
}

func (p *chunkPort) Close() error { return nil }

func TestSerial_ReassemblesFragmentedLine(t *testing.T) {
	port := &chunkPort{reply: []byte("18446744073709551615,22.10,45.00,1\r\n"), chunk: 5}
	s, _ := newTestSerial(port)

	r, err := s.PollForReading(context.Background())
	if err != nil {
		t.Fatalf("PollForReading: %v", err)
	}
	if r.DeviceID != 18446744073709551615 || !r.LEDOn {
		t.Errorf("reading: got %+v", r)
	}
	if port.writes != 1 {
		t.Errorf("writes: got %d, want 1", port.writes)
	}
}

type brokenPort struct{ err error }

func (p brokenPort) Write([]byte) (int, error) { return 0, p.err }
func (p brokenPort) Read([]byte) (int, error)  { return 0, p.err }
func (p brokenPort) Close() error              { return nil }

func TestSerial_WriteErrorAborts(t *testing.T) {
	gone := errors.New("device unplugged")
	s, clk := newTestSerial(brokenPort{err: gone})

	_, err := s.PollForReading(context.Background())
	if !errors.Is(err, gone) {
		t.Fatalf("err: got %v, want the write error", err)
	}
	if clk.sleeps != 0 {
		t.Errorf("sleeps: got %d, want 0", clk.sleeps)
	}
}

func TestSerial_Close(t *testing.T) {
	port := devicesim.NewPort(devicesim.New(1, 20, 50))
	s, _ := newTestSerial(port)

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !port.Closed() {
		t.Error("port should be closed")
	}
}

func TestOpenSerial_WaitTimesOut(t *testing.T) {
	cfg := testSerialConfig
	cfg.Port = t.TempDir() + "/ttyACM9"
	cfg.WaitForDevice = 20 * time.Millisecond

	_, err := OpenSerial(context.Background(), cfg)
	if !errors.Is(err, ErrDeviceUnresponsive) {
		t.Fatalf("err: got %v, want ErrDeviceUnresponsive", err)
	}
}
