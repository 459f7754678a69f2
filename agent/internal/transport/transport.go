package transport

import (
	"context"
	"fmt"

	"github.com/dewdrop/dewdrop/agent/internal/config"
	"github.com/dewdrop/dewdrop/agent/internal/reading"
)

// Channel is a connection to one indoor sensor device.
type Channel interface {
	// PollForReading asks the device for a reading, retrying per the
	// channel's budget.
	PollForReading(ctx context.Context) (reading.Reading, error)

	// Actuate sets the warning light and waits for the device to acknowledge.
	Actuate(ctx context.Context, ledOn bool) error

	// Close releases the connection. It is safe to call once the channel is
	// no longer in use.
	Close() error
}

var (
	_ Channel = (*Serial)(nil)
	_ Channel = (*Network)(nil)
)

// New returns the Channel selected by cfg.Mode.
func New(ctx context.Context, cfg config.DeviceConfig) (Channel, error) {
	switch cfg.Mode {
	case config.ModeSerial:
		return OpenSerial(ctx, cfg.Serial)
	case config.ModeNetwork:
		return NewNetwork(cfg.Network), nil
	default:
		return nil, fmt.Errorf("transport: unsupported mode %q", cfg.Mode)
	}
}
