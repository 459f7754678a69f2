package report

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/dewdrop/dewdrop/pkg/types"
)

// Textfile writes the latest feed in Prometheus text format for node_exporter's
// textfile collector. The file is replaced atomically so a scrape never sees a
// partial write.
type Textfile struct {
	path string
	now  func() time.Time
}

// NewTextfile returns a Textfile reporter writing to path.
func NewTextfile(path string) *Textfile {
	return &Textfile{path: path, now: time.Now}
}

// Post rewrites the file with gauges describing feed.
func (t *Textfile) Post(_ context.Context, feed *types.SensorFeed) error {
	var buf bytes.Buffer
	for _, mf := range t.families(feed) {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			return fmt.Errorf("report: encode %s: %w", mf.GetName(), err)
		}
	}

	dir := filepath.Dir(t.path)
	tmp, err := os.CreateTemp(dir, ".dewdrop-*.prom.tmp")
	if err != nil {
		return fmt.Errorf("report: textfile temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("report: textfile write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("report: textfile close: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("report: textfile chmod: %w", err)
	}
	if err := os.Rename(tmp.Name(), t.path); err != nil {
		return fmt.Errorf("report: textfile rename: %w", err)
	}
	return nil
}

func (t *Textfile) families(feed *types.SensorFeed) []*dto.MetricFamily {
	labels := []*dto.LabelPair{{Name: proto.String("device_id"), Value: proto.String(feed.DeviceID)}}
	g := func(name, help string, v float64) *dto.MetricFamily {
		return &dto.MetricFamily{
			Name: proto.String(name),
			Help: proto.String(help),
			Type: dto.MetricType_GAUGE.Enum(),
			Metric: []*dto.Metric{{
				Label: labels,
				Gauge: &dto.Gauge{Value: proto.Float64(v)},
			}},
		}
	}
	return []*dto.MetricFamily{
		g("dewdrop_indoor_temperature_celsius", "Indoor temperature.", feed.IndoorTemperature),
		g("dewdrop_indoor_humidity_percent", "Indoor relative humidity.", feed.IndoorHumidity),
		g("dewdrop_indoor_dewpoint_celsius", "Indoor dewpoint.", feed.IndoorDewpoint),
		g("dewdrop_outdoor_dewpoint_celsius", "Outdoor dewpoint.", feed.OutdoorDewpoint),
		g("dewdrop_dewpoint_delta_celsius", "Indoor minus outdoor dewpoint.", feed.DewpointDelta),
		g("dewdrop_keep_windows_open", "1 when opening the windows is recommended.", boolGauge(feed.OpenWindows())),
		g("dewdrop_humidity_alert", "1 when indoor humidity is above the alert threshold.", boolGauge(feed.HumidityAlert)),
		g("dewdrop_last_run_timestamp_seconds", "Unix time of the last completed run.", float64(t.now().Unix())),
	}
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
