// Package api implements the collector's read-side HTTP API.
//
// New(store, alerts, dewpoint) returns an http.Handler that serves:
//
//	GET /outdoor-dewpoint       bare JSON number in °C; 503 until the first refresh
//	GET /api/v1/health          device and alert counts, cached outdoor dewpoint
//	GET /api/v1/feeds           latest live feed per device ([]FeedResponse)
//	GET /api/v1/feeds/{id}      single device; 404 if unknown or stale
//	GET /api/v1/alerts          firing alerts plus those resolved in the last hour
//	GET /api/v1/snapshot        feeds, alerts and outdoor dewpoint in one document
//
// /weather/outdoor-dewpoint is served as an alias of /outdoor-dewpoint.
// Routing uses gorilla/mux; unknown paths answer 404 and other methods 405,
// both with a JSON error body.
package api
