package report

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/common/expfmt"

	"github.com/dewdrop/dewdrop/pkg/types"
)

func TestTextfile_Post(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dewdrop.prom")

	tf := NewTextfile(path)
	tf.now = func() time.Time { return time.Unix(1717243200, 0) }

	feed := &types.SensorFeed{
		DeviceID:          "7",
		IndoorTemperature: 21.5,
		IndoorHumidity:    64.1,
		IndoorDewpoint:    14.5,
		OutdoorDewpoint:   9.25,
		DewpointDelta:     5.25,
		KeepWindows:       types.WindowsOpen,
		HumidityAlert:     true,
	}
	if err := tf.Post(context.Background(), feed); err != nil {
		t.Fatalf("Post: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(f)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	want := map[string]float64{
		"dewdrop_indoor_temperature_celsius": 21.5,
		"dewdrop_indoor_humidity_percent":    64.1,
		"dewdrop_indoor_dewpoint_celsius":    14.5,
		"dewdrop_outdoor_dewpoint_celsius":   9.25,
		"dewdrop_dewpoint_delta_celsius":     5.25,
		"dewdrop_keep_windows_open":          1,
		"dewdrop_humidity_alert":             1,
		"dewdrop_last_run_timestamp_seconds": 1717243200,
	}
	for name, v := range want {
		mf, ok := mfs[name]
		if !ok {
			t.Errorf("missing family %s", name)
			continue
		}
		m := mf.GetMetric()[0]
		if got := m.GetGauge().GetValue(); got != v {
			t.Errorf("%s: got %v, want %v", name, got, v)
		}
		if l := m.GetLabel(); len(l) != 1 || l[0].GetName() != "device_id" || l[0].GetValue() != "7" {
			t.Errorf("%s: labels %v", name, l)
		}
	}
}

func TestTextfile_ReplacesAndLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dewdrop.prom")
	tf := NewTextfile(path)

	for _, open := range []bool{true, false} {
		feed := &types.SensorFeed{DeviceID: "1", KeepWindows: types.KeepWindowsValue(open)}
		if err := tf.Post(context.Background(), feed); err != nil {
			t.Fatalf("Post: %v", err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "dewdrop.prom" {
		t.Errorf("directory should hold only the output file, got %v", entries)
	}

	f, _ := os.Open(path)
	defer f.Close()
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(f)
	if err != nil {
		t.Fatal(err)
	}
	if got := mfs["dewdrop_keep_windows_open"].GetMetric()[0].GetGauge().GetValue(); got != 0 {
		t.Errorf("keep_windows_open: got %v, want 0 after second post", got)
	}
}

func TestTextfile_MissingDir(t *testing.T) {
	tf := NewTextfile(filepath.Join(t.TempDir(), "nope", "dewdrop.prom"))
	if err := tf.Post(context.Background(), &types.SensorFeed{}); err == nil {
		t.Error("expected error for missing directory")
	}
}
