package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/dewdrop/dewdrop/agent/internal/config"
	"github.com/dewdrop/dewdrop/agent/internal/reading"
)

// maxBody caps how much of a device response is read.
const maxBody = 4 << 10

// Network is the Channel for a device reachable over HTTP.
type Network struct {
	mu     sync.Mutex
	base   string
	client *http.Client
	probe  prober
}

// NewNetwork returns a Network channel for cfg. A bare host or IP in
// cfg.BaseURL is treated as http://host.
func NewNetwork(cfg config.NetworkConfig) *Network {
	return &Network{
		base:   normalizeBase(cfg.BaseURL),
		client: &http.Client{Timeout: cfg.RequestTimeout},
		probe:  newProber("network", cfg.Backoff, 0, cfg.Attempts),
	}
}

func normalizeBase(raw string) string {
	base := strings.TrimRight(strings.TrimSpace(raw), "/")
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return base
}

// PollForReading fetches /data until the body parses as a reading. Transport
// failures stop immediately with ErrRemoteUnreachable; non-200 answers and
// malformed bodies are retried until the attempt budget is spent.
func (c *Network) PollForReading(ctx context.Context) (reading.Reading, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		out     reading.Reading
		lastErr error
	)
	n, err := c.probe.run(ctx, func(ctx context.Context) (bool, error) {
		status, body, err := c.get(ctx, "/data")
		if err != nil {
			return false, err
		}
		if status != http.StatusOK {
			lastErr = fmt.Errorf("status %d", status)
			slog.Warn("transport: device returned error status", "url", c.base+"/data", "status", status)
			return false, nil
		}
		r, perr := reading.Parse(body)
		if perr != nil {
			lastErr = perr
			slog.Warn("transport: malformed reading", "url", c.base+"/data", "body", body, "err", perr)
			return false, nil
		}
		out = r
		return true, nil
	})
	switch {
	case errors.Is(err, errBudgetExhausted):
		return reading.Reading{}, fmt.Errorf("transport: network %s: no valid reading after %d attempts (last: %v): %w: %w",
			c.base, n, lastErr, ErrRetriesExhausted, ErrMalformedResponse)
	case err != nil:
		return reading.Reading{}, err
	}

	slog.Debug("transport: network reading", "base", c.base, "attempts", n, "reading", out.String())
	return out, nil
}

// Actuate requests /led?state=1|0 until the device answers 200.
func (c *Network) Actuate(ctx context.Context, ledOn bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	path := "/led?state=0"
	if ledOn {
		path = "/led?state=1"
	}

	n, err := c.probe.run(ctx, func(ctx context.Context) (bool, error) {
		status, _, err := c.get(ctx, path)
		if err != nil {
			return false, err
		}
		if status != http.StatusOK {
			slog.Warn("transport: led command rejected", "url", c.base+path, "status", status)
			return false, nil
		}
		return true, nil
	})
	switch {
	case errors.Is(err, errBudgetExhausted):
		return fmt.Errorf("transport: network %s%s: not acknowledged after %d attempts: %w",
			c.base, path, n, ErrActuatorAckTimeout)
	case err != nil:
		return err
	}

	slog.Info("transport: warning light set", "base", c.base, "on", ledOn, "attempts", n)
	return nil
}

// Close releases idle connections.
func (c *Network) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// get performs one GET and returns the status and trimmed body. Errors are
// connection-level failures and wrap ErrRemoteUnreachable.
func (c *Network) get(ctx context.Context, path string) (int, string, error) {
	url := c.base + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, "", fmt.Errorf("transport: build request %s: %w", url, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, "", ctx.Err()
		}
		return 0, "", fmt.Errorf("transport: GET %s: %w: %v", url, ErrRemoteUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return 0, "", fmt.Errorf("transport: read %s: %w: %v", url, ErrRemoteUnreachable, err)
	}
	return resp.StatusCode, strings.TrimSpace(string(body)), nil
}
