package api

import (
	"github.com/dewdrop/dewdrop/pkg/types"
	"github.com/dewdrop/dewdrop/server/internal/alerts"
)

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	DeviceCount      int      `json:"device_count"`
	AlertCount       int      `json:"alert_count"`
	OutdoorDewpoint  *float64 `json:"outdoor_dewpoint"`             // null until the first refresh
	OutdoorUpdatedAt string   `json:"outdoor_updated_at,omitempty"` // RFC3339
}

// FeedResponse is one device entry in GET /api/v1/feeds or
// GET /api/v1/feeds/{id}.
type FeedResponse struct {
	types.SensorFeed
	ReceivedAt string `json:"received_at"` // RFC3339
}

// SnapshotResponse is the payload for GET /api/v1/snapshot and the
// WebSocket stream.
type SnapshotResponse struct {
	Feeds           []FeedResponse  `json:"feeds"`
	Alerts          []*alerts.Alert `json:"alerts"`
	OutdoorDewpoint *float64        `json:"outdoor_dewpoint"`
	GeneratedAt     string          `json:"generated_at"` // RFC3339
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
