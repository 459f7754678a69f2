package report

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/dewdrop/dewdrop/agent/internal/config"
	"github.com/dewdrop/dewdrop/pkg/types"
)

// mqttQoS is at-least-once delivery.
const mqttQoS = 1

// disconnectQuiesce is how long Disconnect waits for in-flight work, in ms.
const disconnectQuiesce = 250

// MQTT publishes feeds to a broker. Each Post uses a fresh connection; the
// probe runs once and exits, so there is nothing to keep alive.
type MQTT struct {
	cfg     config.MQTTConfig
	timeout time.Duration
}

// NewMQTT returns an MQTT reporter for cfg.
func NewMQTT(cfg config.MQTTConfig, timeout time.Duration) *MQTT {
	return &MQTT{cfg: cfg, timeout: timeout}
}

// Post connects, publishes feed as JSON and disconnects.
func (m *MQTT) Post(ctx context.Context, feed *types.SensorFeed) error {
	payload, err := marshalFeed(feed)
	if err != nil {
		return err
	}

	clientID := m.cfg.ClientID
	if clientID == "" {
		clientID = "dewdrop-" + uuid.NewString()
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(m.cfg.Broker)
	opts.SetClientID(clientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(false)
	opts.SetConnectTimeout(m.timeout)

	client := mqtt.NewClient(opts)
	if err := wait(ctx, client.Connect(), m.timeout); err != nil {
		// Abandons a connect attempt that is still in progress.
		client.Disconnect(0)
		return fmt.Errorf("report: mqtt connect %s: %w", m.cfg.Broker, err)
	}
	defer client.Disconnect(disconnectQuiesce)

	if err := wait(ctx, client.Publish(m.cfg.Topic, mqttQoS, m.cfg.Retain, payload), m.timeout); err != nil {
		return fmt.Errorf("report: mqtt publish %s: %w", m.cfg.Topic, err)
	}
	return nil
}

// wait blocks until tok completes, ctx is cancelled, or timeout elapses.
func wait(ctx context.Context, tok mqtt.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-tok.Done():
		return tok.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("timed out after %s", timeout)
	}
}
