package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/dewdrop/dewdrop/server/internal/alerts"
	"github.com/dewdrop/dewdrop/server/internal/store"
)

// AlertLister exposes the alerts to report.
type AlertLister interface {
	Active() []*alerts.Alert
}

// DewpointReader exposes the cached outdoor dewpoint.
type DewpointReader interface {
	Get() (value float64, updatedAt time.Time, ok bool)
}

// Handler is the HTTP handler for the read-side endpoints.
type Handler struct {
	store    *store.Store
	alerts   AlertLister
	dewpoint DewpointReader
	router   *mux.Router
}

// New creates a Handler and registers all routes.
func New(st *store.Store, al AlertLister, dp DewpointReader) *Handler {
	h := &Handler{store: st, alerts: al, dewpoint: dp, router: mux.NewRouter()}

	h.router.HandleFunc("/outdoor-dewpoint", h.outdoorDewpoint).Methods(http.MethodGet)
	h.router.HandleFunc("/weather/outdoor-dewpoint", h.outdoorDewpoint).Methods(http.MethodGet)

	v1 := h.router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/health", h.health).Methods(http.MethodGet)
	v1.HandleFunc("/feeds", h.listFeeds).Methods(http.MethodGet)
	v1.HandleFunc("/feeds/{id}", h.getFeed).Methods(http.MethodGet)
	v1.HandleFunc("/alerts", h.listAlerts).Methods(http.MethodGet)
	v1.HandleFunc("/snapshot", h.snapshot).Methods(http.MethodGet)

	h.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		jsonErr(w, http.StatusNotFound, "not found")
	})
	h.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	v1.NotFoundHandler = h.router.NotFoundHandler
	v1.MethodNotAllowedHandler = h.router.MethodNotAllowedHandler

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// outdoorDewpoint returns the cached value as a bare number, the format
// probes parse.
func (h *Handler) outdoorDewpoint(w http.ResponseWriter, r *http.Request) {
	v, _, ok := h.dewpoint.Get()
	if !ok {
		jsonErr(w, http.StatusServiceUnavailable, "outdoor dewpoint not yet available")
		return
	}
	jsonResp(w, http.StatusOK, v)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		DeviceCount: len(h.store.List()),
		AlertCount:  countFiring(h.alerts.Active()),
	}
	if v, at, ok := h.dewpoint.Get(); ok {
		resp.OutdoorDewpoint = &v
		resp.OutdoorUpdatedAt = at.UTC().Format(time.RFC3339)
	}
	jsonResp(w, http.StatusOK, resp)
}

func (h *Handler) listFeeds(w http.ResponseWriter, r *http.Request) {
	entries := h.store.List()
	out := make([]FeedResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toFeedResponse(e))
	}
	jsonResp(w, http.StatusOK, out)
}

func (h *Handler) getFeed(w http.ResponseWriter, r *http.Request) {
	e, ok := h.store.Get(mux.Vars(r)["id"])
	if !ok {
		jsonErr(w, http.StatusNotFound, "device not found")
		return
	}
	jsonResp(w, http.StatusOK, toFeedResponse(e))
}

func (h *Handler) listAlerts(w http.ResponseWriter, r *http.Request) {
	active := h.alerts.Active()
	if active == nil {
		active = []*alerts.Alert{}
	}
	jsonResp(w, http.StatusOK, active)
}

func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	jsonResp(w, http.StatusOK, h.Snapshot())
}

// Snapshot builds the combined view served by GET /api/v1/snapshot and the
// WebSocket stream.
func (h *Handler) Snapshot() SnapshotResponse {
	entries := h.store.List()
	feeds := make([]FeedResponse, 0, len(entries))
	for _, e := range entries {
		feeds = append(feeds, toFeedResponse(e))
	}
	active := h.alerts.Active()
	if active == nil {
		active = []*alerts.Alert{}
	}
	resp := SnapshotResponse{
		Feeds:       feeds,
		Alerts:      active,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if v, _, ok := h.dewpoint.Get(); ok {
		resp.OutdoorDewpoint = &v
	}
	return resp
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

func countFiring(as []*alerts.Alert) int {
	n := 0
	for _, a := range as {
		if a.State == alerts.StateFiring {
			n++
		}
	}
	return n
}

func toFeedResponse(e *store.Entry) FeedResponse {
	return FeedResponse{
		SensorFeed: *e.Feed,
		ReceivedAt: e.ReceivedAt.UTC().Format(time.RFC3339),
	}
}
