package alerts

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dewdrop/dewdrop/pkg/types"
	"github.com/dewdrop/dewdrop/server/internal/config"
)

const (
	defaultCooldown   = 15 * time.Minute
	maxHistoryLen     = 200
	recentWindowHours = 1
)

// Alert states.
const (
	StateFiring   = "firing"
	StateResolved = "resolved"
)

// Alert represents a single alert event produced by the rule engine.
type Alert struct {
	ID         string     `json:"id"`
	RuleName   string     `json:"rule_name"`
	DeviceID   string     `json:"device_id"`
	Severity   string     `json:"severity"`
	Message    string     `json:"message"`
	Value      float64    `json:"value"`
	FiredAt    time.Time  `json:"fired_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	State      string     `json:"state"`

	// Feed is the feed that fired the alert, or resolved it.
	Feed *types.SensorFeed `json:"feed,omitempty"`
}

// Engine evaluates alert rules against incoming feeds and delivers webhook
// notifications when rules fire or resolve.
//
// Engine is safe for concurrent use.
type Engine struct {
	rules    []config.AlertRule
	webhooks []config.WebhookConfig

	mu       sync.Mutex
	active   map[string]*Alert    // key: "ruleName:deviceID"
	lastFire map[string]time.Time // last fire time per key (for cooldown)
	history  []*Alert             // recently resolved alerts
	client   *http.Client
	now      func() time.Time
	inflight sync.WaitGroup
}

// New creates an Engine from the alert configuration.
// An Engine with empty rules is valid; Evaluate becomes a no-op.
func New(cfg config.AlertsConfig) *Engine {
	return &Engine{
		rules:    cfg.Rules,
		webhooks: cfg.Webhooks,
		active:   make(map[string]*Alert),
		lastFire: make(map[string]time.Time),
		client:   &http.Client{Timeout: 10 * time.Second},
		now:      time.Now,
	}
}

// Evaluate tests all configured rules against feed. prev is the device's
// previous feed (nil if none) and is only consulted by transition rules.
// Alerts that fire are stored and webhook delivery is triggered asynchronously.
// Alerts that were firing but whose condition is now false are resolved.
func (e *Engine) Evaluate(feed, prev *types.SensorFeed) {
	if len(e.rules) == 0 {
		return
	}

	now := e.now()
	for _, rule := range e.rules {
		key := rule.Name + ":" + feed.DeviceID
		fires, value := evalCondition(rule.Condition, feed, prev)

		e.mu.Lock()
		if fires {
			if now.Sub(e.lastFire[key]) < cooldownFor(rule) {
				e.mu.Unlock()
				continue
			}
			sev := rule.Severity
			if sev == "" {
				sev = "warning"
			}
			a := &Alert{
				ID:       uuid.NewString(),
				RuleName: rule.Name,
				DeviceID: feed.DeviceID,
				Severity: sev,
				Value:    value,
				Message:  message(rule, feed),
				FiredAt:  now,
				State:    StateFiring,
				Feed:     snapshot(feed),
			}
			e.active[key] = a
			e.lastFire[key] = now
			alertCopy := *a
			e.mu.Unlock()

			slog.Warn("alerts: fired",
				"rule", rule.Name,
				"device_id", feed.DeviceID,
				"value", value,
				"severity", sev,
			)
			e.dispatch(&alertCopy)
			continue
		}

		a, ok := e.active[key]
		if !ok || a.State != StateFiring {
			e.mu.Unlock()
			continue
		}
		resolved := now
		a.State = StateResolved
		a.ResolvedAt = &resolved
		a.Feed = snapshot(feed)
		delete(e.active, key)

		e.history = append(e.history, a)
		if len(e.history) > maxHistoryLen {
			e.history = e.history[len(e.history)-maxHistoryLen:]
		}
		alertCopy := *a
		e.mu.Unlock()

		slog.Info("alerts: resolved", "rule", rule.Name, "device_id", feed.DeviceID)
		// A window change resolving on the next feed is not news.
		if !isTransition(rule.Condition) {
			e.dispatch(&alertCopy)
		}
	}
}

// Active returns copies of all currently firing alerts plus any alerts
// resolved within the past hour, newest first.
func (e *Engine) Active() []*Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := e.now().Add(-recentWindowHours * time.Hour)
	out := make([]*Alert, 0, len(e.active))

	for _, a := range e.active {
		cp := *a
		out = append(out, &cp)
	}
	for _, a := range e.history {
		if a.ResolvedAt != nil && a.ResolvedAt.After(cutoff) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FiredAt.After(out[j].FiredAt) })
	return out
}

// Wait blocks until in-flight webhook deliveries finish.
func (e *Engine) Wait() {
	e.inflight.Wait()
}

func (e *Engine) dispatch(a *Alert) {
	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()
		e.deliver(a)
	}()
}

func snapshot(f *types.SensorFeed) *types.SensorFeed {
	cp := *f
	return &cp
}

func cooldownFor(rule config.AlertRule) time.Duration {
	if rule.Cooldown > 0 {
		return rule.Cooldown
	}
	if isTransition(rule.Condition) {
		return 0
	}
	return defaultCooldown
}

func message(rule config.AlertRule, f *types.SensorFeed) string {
	return fmt.Sprintf("%s on device %s (%s): indoor %.2f°C at %.2f%% RH, dewpoint %.2f°C vs outdoor %.2f°C (delta %.2f), keep windows %s",
		rule.Name, f.DeviceID, rule.Condition,
		f.IndoorTemperature, f.IndoorHumidity,
		f.IndoorDewpoint, f.OutdoorDewpoint, f.DewpointDelta,
		f.KeepWindows)
}
