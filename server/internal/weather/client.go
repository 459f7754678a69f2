package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dewdrop/dewdrop/server/internal/config"
)

// ErrNoDewpoint is returned when the gridpoint response carries no dewpoint value.
var ErrNoDewpoint = errors.New("weather: no dewpoint values")

// Source yields the current outdoor dewpoint in °C.
type Source interface {
	Dewpoint(ctx context.Context) (float64, error)
}

// Client queries one NWS gridpoint.
type Client struct {
	url       string
	userAgent string
	http      *http.Client
}

// NewClient creates a Client for the gridpoint named in cfg.
func NewClient(cfg config.WeatherConfig) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		url:       fmt.Sprintf("%s/gridpoints/%s/%d,%d", base, cfg.Office, cfg.GridX, cfg.GridY),
		userAgent: cfg.UserAgent,
		http:      &http.Client{Timeout: cfg.Timeout},
	}
}

// gridpointResponse is the subset of the NWS gridpoint document we read.
// Values are null while a forecast period has no data.
type gridpointResponse struct {
	Properties struct {
		Dewpoint struct {
			UnitCode string `json:"uom"`
			Values   []struct {
				ValidTime string   `json:"validTime"`
				Value     *float64 `json:"value"`
			} `json:"values"`
		} `json:"dewpoint"`
	} `json:"properties"`
}

// Dewpoint returns the first non-null dewpoint value of the gridpoint forecast.
func (c *Client) Dewpoint(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return 0, fmt.Errorf("weather: build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/geo+json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("weather: GET %s: %w", c.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck
		return 0, fmt.Errorf("weather: GET %s: HTTP %d", c.url, resp.StatusCode)
	}

	var gr gridpointResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return 0, fmt.Errorf("weather: decode gridpoint: %w", err)
	}
	for _, v := range gr.Properties.Dewpoint.Values {
		if v.Value != nil {
			return *v.Value, nil
		}
	}
	return 0, ErrNoDewpoint
}
