package alerts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dewdrop/dewdrop/pkg/types"
)

// payloadFunc renders an alert as the JSON body a webhook type expects.
type payloadFunc func(a *Alert) interface{}

var payloads = map[string]payloadFunc{
	"discord": discordPayload,
	"slack":   slackPayload,
	"teams":   teamsPayload,
	"http":    func(a *Alert) interface{} { return map[string]interface{}{"alert": a} },
}

// deliver posts a to every webhook that accepts its rule.
// Errors are logged but do not affect the caller.
func (e *Engine) deliver(a *Alert) {
	for _, wh := range e.webhooks {
		if !wh.Accepts(a.RuleName) {
			continue
		}
		url := wh.URL()
		if url == "" {
			continue
		}
		render, ok := payloads[wh.Type]
		if !ok {
			slog.Warn("alerts: unknown webhook type, skipping", "type", wh.Type)
			continue
		}

		body, err := json.Marshal(render(a))
		if err == nil {
			err = e.post(url, body)
		}
		if err != nil {
			slog.Error("alerts: webhook delivery failed",
				"type", wh.Type,
				"rule", a.RuleName,
				"device_id", a.DeviceID,
				"err", err,
			)
			continue
		}
		slog.Debug("alerts: webhook delivered", "type", wh.Type, "rule", a.RuleName, "state", a.State)
	}
}

// fact is one labelled reading shown in chat cards.
type fact struct {
	Name  string
	Value string
}

// feedFacts lists the readings worth showing next to an alert.
func feedFacts(f *types.SensorFeed) []fact {
	if f == nil {
		return nil
	}
	return []fact{
		{"Device", f.DeviceID},
		{"Keep windows", f.KeepWindows},
		{"Indoor", fmt.Sprintf("%.2f °C, %.2f %% RH", f.IndoorTemperature, f.IndoorHumidity)},
		{"Indoor dewpoint", fmt.Sprintf("%.2f °C", f.IndoorDewpoint)},
		{"Outdoor dewpoint", fmt.Sprintf("%.2f °C", f.OutdoorDewpoint)},
		{"Delta", fmt.Sprintf("%+.2f °C", f.DewpointDelta)},
		{"Humidity alert", fmt.Sprintf("%t", f.HumidityAlert)},
	}
}

func headline(a *Alert) string {
	return fmt.Sprintf("%s %s on device %s", stateLabel(a), a.RuleName, a.DeviceID)
}

func discordPayload(a *Alert) interface{} {
	type field struct {
		Name   string `json:"name"`
		Value  string `json:"value"`
		Inline bool   `json:"inline"`
	}
	facts := feedFacts(a.Feed)
	fields := make([]field, 0, len(facts))
	for _, f := range facts {
		fields = append(fields, field{Name: f.Name, Value: f.Value, Inline: true})
	}
	return map[string]interface{}{
		"content": fmt.Sprintf("%s %s", stateLabel(a), a.Message),
		"embeds": []map[string]interface{}{{
			"title":  headline(a),
			"color":  colorInt(a),
			"fields": fields,
		}},
	}
}

func slackPayload(a *Alert) interface{} {
	type field struct {
		Title string `json:"title"`
		Value string `json:"value"`
		Short bool   `json:"short"`
	}
	facts := feedFacts(a.Feed)
	fields := make([]field, 0, len(facts))
	for _, f := range facts {
		fields = append(fields, field{Title: f.Name, Value: f.Value, Short: true})
	}
	return map[string]interface{}{
		"text": fmt.Sprintf("*%s* %s", stateLabel(a), a.Message),
		"attachments": []map[string]interface{}{{
			"color":  "#" + color(a),
			"fields": fields,
		}},
	}
}

func teamsPayload(a *Alert) interface{} {
	type teamsFact struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	}
	facts := feedFacts(a.Feed)
	tf := make([]teamsFact, 0, len(facts))
	for _, f := range facts {
		tf = append(tf, teamsFact{Name: f.Name, Value: f.Value})
	}
	return map[string]interface{}{
		"@type":      "MessageCard",
		"@context":   "http://schema.org/extensions",
		"themeColor": color(a),
		"summary":    headline(a),
		"title":      "dewdrop: " + headline(a),
		"sections": []map[string]interface{}{{
			"activityTitle": a.Message,
			"facts":         tf,
		}},
	}
}

func (e *Engine) post(url string, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func stateLabel(a *Alert) string {
	if a.State == StateResolved {
		return "[RESOLVED]"
	}
	switch a.Severity {
	case "critical":
		return "[CRITICAL]"
	case "warning":
		return "[WARNING]"
	default:
		return "[INFO]"
	}
}

// color is green for resolved alerts, otherwise by severity.
func color(a *Alert) string {
	if a.State == StateResolved {
		return "2EB67D"
	}
	switch a.Severity {
	case "critical":
		return "E01E5A"
	case "warning":
		return "ECB22E"
	default:
		return "36C5F0"
	}
}

// colorInt is color as the integer Discord embeds expect.
func colorInt(a *Alert) int64 {
	n, _ := strconv.ParseInt(color(a), 16, 32)
	return n
}
