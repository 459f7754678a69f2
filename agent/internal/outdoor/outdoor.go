package outdoor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/dewdrop/dewdrop/agent/internal/config"
)

var (
	// ErrRemoteUnreachable means the outdoor source could not be contacted.
	ErrRemoteUnreachable = errors.New("outdoor: remote unreachable")

	// ErrInvalidNumericFormat means the body was not a number.
	ErrInvalidNumericFormat = errors.New("outdoor: invalid numeric format")
)

const maxBody = 1 << 10

// Fetcher retrieves the current outdoor dewpoint.
type Fetcher struct {
	url    string
	client *http.Client
}

// New returns a Fetcher for cfg.
func New(cfg config.OutdoorConfig) *Fetcher {
	return &Fetcher{
		url:    cfg.URL,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Fetch performs one GET and parses the trimmed body as a finite float.
func (f *Fetcher) Fetch(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return 0, fmt.Errorf("outdoor: build request: %w", err)
	}
	req.Header.Set("Accept", "text/plain")

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, fmt.Errorf("outdoor: GET %s: %w: %v", f.url, ErrRemoteUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return 0, fmt.Errorf("outdoor: read body: %w: %v", ErrRemoteUnreachable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("outdoor: GET %s: unexpected status %d", f.url, resp.StatusCode)
	}

	text := strings.TrimSpace(string(body))
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("outdoor: parse %q: %w", text, ErrInvalidNumericFormat)
	}

	slog.Debug("outdoor: dewpoint fetched", "url", f.url, "dewpoint", v)
	return v, nil
}
