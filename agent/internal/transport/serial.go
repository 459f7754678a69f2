package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/tarm/serial"

	"github.com/dewdrop/dewdrop/agent/internal/config"
	"github.com/dewdrop/dewdrop/agent/internal/reading"
)

// Serial commands understood by the firmware.
const (
	cmdData   = 'd'
	cmdLEDOn  = '1'
	cmdLEDOff = '0'
)

// maxLine bounds one reply. The longest valid line is 36 bytes with CRLF.
const maxLine = 64

// Port is the byte stream to the device. *serial.Port satisfies it.
type Port interface {
	io.ReadWriteCloser
}

// Serial is the Channel for a device attached over USB serial.
type Serial struct {
	mu    sync.Mutex
	name  string
	port  Port
	probe prober
}

// OpenSerial opens the configured port at 8N1 and returns a Serial channel.
// When cfg.WaitForDevice is positive it first waits for the device node to
// appear.
func OpenSerial(ctx context.Context, cfg config.SerialConfig) (*Serial, error) {
	if cfg.WaitForDevice > 0 {
		if err := waitForDevice(ctx, cfg.Port, cfg.WaitForDevice); err != nil {
			return nil, fmt.Errorf("transport: serial %s: %w", cfg.Port, err)
		}
	}

	p, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Port,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
		Size:        8,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
	})
	if err != nil {
		return nil, fmt.Errorf("transport: open serial %s: %w", cfg.Port, err)
	}
	// Drop anything the board printed while booting.
	_ = p.Flush()

	slog.Info("transport: serial port open", "port", cfg.Port, "baud", cfg.Baud)
	return NewSerial(cfg.Port, p, cfg), nil
}

// NewSerial wraps an already-open port.
func NewSerial(name string, port Port, cfg config.SerialConfig) *Serial {
	return &Serial{
		name:  name,
		port:  port,
		probe: newProber("serial", cfg.RetryInterval, cfg.Timeout, 0),
	}
}

// PollForReading sends the data command until the device answers with a
// reading line. Empty reads, the warm-up sentinel and line noise all count as
// "not yet"; the loop gives up with ErrDeviceUnresponsive once the poll
// timeout has elapsed.
func (s *Serial) PollForReading(ctx context.Context) (reading.Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out reading.Reading
	n, err := s.probe.run(ctx, func(context.Context) (bool, error) {
		line, err := s.exchange(cmdData)
		if err != nil {
			return false, err
		}
		r, perr := reading.Parse(line)
		if perr != nil {
			if line != "" && !reading.IsSentinel(line) {
				slog.Debug("transport: serial noise", "port", s.name, "line", line, "err", perr)
			}
			return false, nil
		}
		out = r
		return true, nil
	})
	switch {
	case errors.Is(err, errBudgetExhausted):
		return reading.Reading{}, fmt.Errorf("transport: serial %s: no reading after %d probes: %w",
			s.name, n, ErrDeviceUnresponsive)
	case err != nil:
		return reading.Reading{}, err
	}

	slog.Debug("transport: serial reading", "port", s.name, "probes", n, "reading", out.String())
	return out, nil
}

// Actuate sends the warning light command until the device acknowledges it
// with any valid response.
func (s *Serial) Actuate(ctx context.Context, ledOn bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cmd := byte(cmdLEDOff)
	if ledOn {
		cmd = cmdLEDOn
	}

	n, err := s.probe.run(ctx, func(context.Context) (bool, error) {
		line, err := s.exchange(cmd)
		if err != nil {
			return false, err
		}
		return reading.IsValidResponse(line), nil
	})
	switch {
	case errors.Is(err, errBudgetExhausted):
		return fmt.Errorf("transport: serial %s: command %q not acknowledged after %d probes: %w",
			s.name, cmd, n, ErrActuatorAckTimeout)
	case err != nil:
		return err
	}

	slog.Info("transport: warning light set", "port", s.name, "on", ledOn, "probes", n)
	return nil
}

// Close releases the port.
func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.port.Close(); err != nil {
		return fmt.Errorf("transport: close serial %s: %w", s.name, err)
	}
	return nil
}

// exchange writes one command byte and returns the trimmed reply, which is
// empty when the device said nothing within the read timeout.
func (s *Serial) exchange(cmd byte) (string, error) {
	if _, err := s.port.Write([]byte{cmd}); err != nil {
		return "", fmt.Errorf("transport: serial %s: write: %w", s.name, err)
	}
	line, err := s.readLine()
	if err != nil {
		return "", fmt.Errorf("transport: serial %s: read: %w", s.name, err)
	}
	return line, nil
}

// readLine accumulates bytes until a newline, a read that returns nothing
// (the port's read timeout), or maxLine bytes.
func (s *Serial) readLine() (string, error) {
	var buf [maxLine]byte
	n := 0
	for n < len(buf) {
		m, err := s.port.Read(buf[n:])
		n += m
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		if bytes.IndexByte(buf[:n], '\n') >= 0 || m == 0 || err != nil {
			break
		}
	}
	line := buf[:n]
	if i := bytes.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	return string(bytes.TrimSpace(line)), nil
}
