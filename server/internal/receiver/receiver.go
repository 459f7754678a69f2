package receiver

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dewdrop/dewdrop/pkg/types"
	"github.com/dewdrop/dewdrop/server/internal/store"
)

const maxBody = 64 << 10

// Evaluator is notified of every accepted feed. prev is nil for a device's
// first feed.
type Evaluator interface {
	Evaluate(feed, prev *types.SensorFeed)
}

// Receiver is the http.Handler for POST /sensor-feed.
type Receiver struct {
	store  *store.Store
	alerts Evaluator
}

// New creates a Receiver that writes accepted feeds to st and passes them to
// ev. ev may be nil.
func New(st *store.Store, ev Evaluator) *Receiver {
	return &Receiver{store: st, alerts: ev}
}

type response struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (rc *Receiver) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		reply(w, http.StatusMethodNotAllowed, response{Status: "error", Error: "method not allowed"})
		return
	}

	var feed types.SensorFeed
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&feed); err != nil {
		reply(w, http.StatusBadRequest, response{Status: "error", Error: fmt.Sprintf("invalid feed: %v", err)})
		return
	}
	if err := validate(&feed); err != nil {
		reply(w, http.StatusBadRequest, response{Status: "error", Error: err.Error()})
		return
	}

	prev, ok := rc.store.Put(&feed)

	slog.Debug("receiver: feed stored",
		"device_id", feed.DeviceID,
		"indoor_dewpoint", feed.IndoorDewpoint,
		"outdoor_dewpoint", feed.OutdoorDewpoint,
		"keep_windows", feed.KeepWindows,
		"humidity_alert", feed.HumidityAlert,
	)

	if rc.alerts != nil {
		var prevFeed *types.SensorFeed
		if ok {
			prevFeed = prev.Feed
		}
		rc.alerts.Evaluate(&feed, prevFeed)
	}

	reply(w, http.StatusOK, response{Status: "success", Message: "feed stored"})
}

func validate(f *types.SensorFeed) error {
	if f.DeviceID == "" {
		return fmt.Errorf("device_id is required")
	}
	if f.KeepWindows != types.WindowsOpen && f.KeepWindows != types.WindowsClosed {
		return fmt.Errorf("keep_windows must be %q or %q, got %q", types.WindowsOpen, types.WindowsClosed, f.KeepWindows)
	}
	return nil
}

func reply(w http.ResponseWriter, code int, v response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
