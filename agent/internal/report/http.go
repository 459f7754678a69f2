package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dewdrop/dewdrop/pkg/types"
)

// HTTP posts feeds as JSON.
type HTTP struct {
	url    string
	client *http.Client
}

// NewHTTP returns an HTTP reporter targeting url.
func NewHTTP(url string, timeout time.Duration) *HTTP {
	return &HTTP{url: url, client: &http.Client{Timeout: timeout}}
}

// Post sends feed. Any status of 300 or above is an error.
func (h *HTTP) Post(ctx context.Context, feed *types.SensorFeed) error {
	body, err := marshalFeed(feed)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("report: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("report: POST %s: %w", h.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("report: POST %s: status %d %s: %w",
			h.url, resp.StatusCode, strings.TrimSpace(string(msg)), ErrRejected)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
