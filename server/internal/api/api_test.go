package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dewdrop/dewdrop/pkg/types"
	"github.com/dewdrop/dewdrop/server/internal/alerts"
	"github.com/dewdrop/dewdrop/server/internal/api"
	"github.com/dewdrop/dewdrop/server/internal/store"
)

// --- test helpers -----------------------------------------------------------

type fakeAlerts []*alerts.Alert

func (f fakeAlerts) Active() []*alerts.Alert { return f }

type fakeDewpoint struct {
	v  float64
	at time.Time
	ok bool
}

func (f fakeDewpoint) Get() (float64, time.Time, bool) { return f.v, f.at, f.ok }

var fetched = time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

func newStore(feeds ...*types.SensorFeed) *store.Store {
	st := store.New(5 * time.Minute)
	for _, f := range feeds {
		st.Put(f)
	}
	return st
}

func feed(id, keep string) *types.SensorFeed {
	return &types.SensorFeed{
		DeviceID:          id,
		IndoorTemperature: 22,
		IndoorHumidity:    55,
		IndoorDewpoint:    12.5,
		OutdoorDewpoint:   9.25,
		DewpointDelta:     -3.25,
		KeepWindows:       keep,
	}
}

func newHandler(st *store.Store, al fakeAlerts, dp fakeDewpoint) http.Handler {
	return api.New(st, al, dp)
}

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, path, nil))
	return rr
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	return do(t, h, http.MethodGet, path)
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON: %v (body: %s)", err, rr.Body.String())
	}
}

// --- /outdoor-dewpoint ------------------------------------------------------

func TestOutdoorDewpoint(t *testing.T) {
	h := newHandler(newStore(), nil, fakeDewpoint{v: 12.222222222222221, at: fetched, ok: true})

	for _, path := range []string{"/outdoor-dewpoint", "/weather/outdoor-dewpoint"} {
		rr := get(t, h, path)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: status %d", path, rr.Code)
		}
		if got := strings.TrimSpace(rr.Body.String()); got != "12.222222222222221" {
			t.Errorf("%s: body = %q, want bare number", path, got)
		}
	}
}

func TestOutdoorDewpoint_NotReady(t *testing.T) {
	h := newHandler(newStore(), nil, fakeDewpoint{})
	rr := get(t, h, "/outdoor-dewpoint")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
}

// --- /api/v1/health ---------------------------------------------------------

func TestHealth(t *testing.T) {
	al := fakeAlerts{
		{RuleName: "damp", State: alerts.StateFiring},
		{RuleName: "windows", State: alerts.StateResolved},
	}
	h := newHandler(newStore(feed("1", types.WindowsOpen), feed("2", types.WindowsClosed)), al,
		fakeDewpoint{v: 9.25, at: fetched, ok: true})

	rr := get(t, h, "/api/v1/health")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp api.HealthResponse
	decode(t, rr, &resp)

	if resp.DeviceCount != 2 || resp.AlertCount != 1 {
		t.Errorf("counts = %+v", resp)
	}
	if resp.OutdoorDewpoint == nil || *resp.OutdoorDewpoint != 9.25 {
		t.Errorf("outdoor_dewpoint = %v", resp.OutdoorDewpoint)
	}
	if resp.OutdoorUpdatedAt != "2024-07-01T12:00:00Z" {
		t.Errorf("outdoor_updated_at = %q", resp.OutdoorUpdatedAt)
	}
}

func TestHealth_NoDewpoint(t *testing.T) {
	rr := get(t, newHandler(newStore(), nil, fakeDewpoint{}), "/api/v1/health")
	var resp map[string]interface{}
	decode(t, rr, &resp)
	if v, present := resp["outdoor_dewpoint"]; !present || v != nil {
		t.Errorf("outdoor_dewpoint = %v (present %v), want null", v, present)
	}
}

// --- /api/v1/feeds ----------------------------------------------------------

func TestListFeeds(t *testing.T) {
	h := newHandler(newStore(feed("b", types.WindowsClosed), feed("a", types.WindowsOpen)), nil, fakeDewpoint{})

	rr := get(t, h, "/api/v1/feeds")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var out []map[string]interface{}
	decode(t, rr, &out)

	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	if out[0]["device_id"] != "a" || out[1]["device_id"] != "b" {
		t.Errorf("order = %v, %v", out[0]["device_id"], out[1]["device_id"])
	}
	if out[0]["keep_windows"] != "Open" || out[0]["indoor_dewpoint"].(float64) != 12.5 {
		t.Errorf("feed fields not flattened: %v", out[0])
	}
	if _, ok := out[0]["received_at"]; !ok {
		t.Error("received_at missing")
	}
}

func TestListFeeds_EmptyIsArray(t *testing.T) {
	rr := get(t, newHandler(newStore(), nil, fakeDewpoint{}), "/api/v1/feeds")
	if got := strings.TrimSpace(rr.Body.String()); got != "[]" {
		t.Errorf("body = %q, want []", got)
	}
}

func TestGetFeed(t *testing.T) {
	h := newHandler(newStore(feed("42", types.WindowsClosed)), nil, fakeDewpoint{})

	rr := get(t, h, "/api/v1/feeds/42")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp api.FeedResponse
	decode(t, rr, &resp)
	if resp.DeviceID != "42" || resp.KeepWindows != types.WindowsClosed {
		t.Errorf("resp = %+v", resp)
	}

	if rr := get(t, h, "/api/v1/feeds/43"); rr.Code != http.StatusNotFound {
		t.Errorf("unknown device: status %d, want 404", rr.Code)
	}
}

// --- /api/v1/alerts ---------------------------------------------------------

func TestListAlerts(t *testing.T) {
	al := fakeAlerts{{ID: "x", RuleName: "damp", DeviceID: "42", State: alerts.StateFiring}}
	rr := get(t, newHandler(newStore(), al, fakeDewpoint{}), "/api/v1/alerts")

	var out []alerts.Alert
	decode(t, rr, &out)
	if len(out) != 1 || out[0].RuleName != "damp" {
		t.Errorf("alerts = %+v", out)
	}
}

func TestListAlerts_EmptyIsArray(t *testing.T) {
	rr := get(t, newHandler(newStore(), nil, fakeDewpoint{}), "/api/v1/alerts")
	if got := strings.TrimSpace(rr.Body.String()); got != "[]" {
		t.Errorf("body = %q, want []", got)
	}
}

// --- routing ----------------------------------------------------------------

func TestRouting_Errors(t *testing.T) {
	h := newHandler(newStore(), nil, fakeDewpoint{ok: true})

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodPost, "/api/v1/feeds", http.StatusMethodNotAllowed},
		{http.MethodDelete, "/outdoor-dewpoint", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/v1/pipelines", http.StatusNotFound},
		{http.MethodGet, "/nope", http.StatusNotFound},
	}
	for _, tc := range tests {
		rr := do(t, h, tc.method, tc.path)
		if rr.Code != tc.want {
			t.Errorf("%s %s: status %d, want %d", tc.method, tc.path, rr.Code, tc.want)
		}
		if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("%s %s: content-type %q", tc.method, tc.path, ct)
		}
	}
}

// --- /api/v1/snapshot -------------------------------------------------------

func TestSnapshot(t *testing.T) {
	al := fakeAlerts{{RuleName: "damp", State: alerts.StateFiring}}
	h := newHandler(newStore(feed("1", types.WindowsOpen)), al, fakeDewpoint{v: 9.25, at: fetched, ok: true})

	rr := get(t, h, "/api/v1/snapshot")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp api.SnapshotResponse
	decode(t, rr, &resp)

	if len(resp.Feeds) != 1 || resp.Feeds[0].DeviceID != "1" {
		t.Errorf("feeds = %+v", resp.Feeds)
	}
	if len(resp.Alerts) != 1 {
		t.Errorf("alerts = %+v", resp.Alerts)
	}
	if resp.OutdoorDewpoint == nil || *resp.OutdoorDewpoint != 9.25 {
		t.Errorf("outdoor_dewpoint = %v", resp.OutdoorDewpoint)
	}
	if resp.GeneratedAt == "" {
		t.Error("generated_at missing")
	}
}
