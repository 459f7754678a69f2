package devicesim

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Router returns the board's HTTP interface:
//
//	GET /data          current reading as text/plain
//	GET|POST /led      ?state=1|0 switches the warning light
//	GET /health        200 "ok"
func (d *Device) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/data", d.handleData).Methods(http.MethodGet)
	r.HandleFunc("/led", d.handleLED).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	return r
}

func (d *Device) handleData(w http.ResponseWriter, _ *http.Request) {
	if d.takeFailure() {
		http.Error(w, "sensor busy", http.StatusServiceUnavailable)
		return
	}
	reply := d.Handle('d')
	if reply == "" {
		http.Error(w, "no reading", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte(reply + "\n"))
}

func (d *Device) handleLED(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	if state != "1" && state != "0" {
		http.Error(w, "state must be 1 or 0", http.StatusBadRequest)
		return
	}
	if d.takeFailure() {
		http.Error(w, "sensor busy", http.StatusServiceUnavailable)
		return
	}
	if d.Handle(state[0]) == "" {
		http.Error(w, "no acknowledgement", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("OK"))
}
