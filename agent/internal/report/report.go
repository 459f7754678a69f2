package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dewdrop/dewdrop/agent/internal/config"
	"github.com/dewdrop/dewdrop/pkg/types"
)

// ErrRejected is returned when a sink answers but refuses the feed.
var ErrRejected = errors.New("report: rejected")

// Reporter sends a feed to one or more sinks.
type Reporter interface {
	Post(ctx context.Context, feed *types.SensorFeed) error
}

// New builds the Reporter described by cfg. The HTTP sink is always present.
func New(cfg config.ReportConfig) (Reporter, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("report: url is required")
	}

	m := &Multi{}
	m.Add("http", NewHTTP(cfg.URL, cfg.Timeout))
	if cfg.MQTT.Enabled() {
		m.Add("mqtt", NewMQTT(cfg.MQTT, cfg.Timeout))
	}
	if cfg.Textfile != "" {
		m.Add("textfile", NewTextfile(cfg.Textfile))
	}

	if len(m.sinks) == 1 {
		return m.sinks[0].r, nil
	}
	return m, nil
}

type sink struct {
	name string
	r    Reporter
}

// Multi fans a feed out to several sinks, one after another.
type Multi struct {
	sinks []sink
}

// Add appends a named sink.
func (m *Multi) Add(name string, r Reporter) {
	m.sinks = append(m.sinks, sink{name: name, r: r})
}

// Post sends feed to every sink and joins their errors.
func (m *Multi) Post(ctx context.Context, feed *types.SensorFeed) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.r.Post(ctx, feed); err != nil {
			slog.Warn("report: sink failed", "sink", s.name, "err", err)
			errs = append(errs, err)
			continue
		}
		slog.Debug("report: sink delivered", "sink", s.name, "device_id", feed.DeviceID)
	}
	return errors.Join(errs...)
}
