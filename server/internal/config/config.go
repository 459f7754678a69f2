package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AlertsConfig holds alerting rules and webhook delivery targets.
type AlertsConfig struct {
	Rules    []AlertRule     `yaml:"rules"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// AlertRule defines one alert condition evaluated against every feed.
type AlertRule struct {
	// Name is the human-readable alert identifier, used as the deduplication key.
	Name string `yaml:"name"`

	// Condition is "field op value" over feed fields ("indoor_humidity > 60",
	// "dewpoint_delta <= -1", "keep_windows == Closed", "humidity_alert == true")
	// or the transition form "keep_windows changed".
	Condition string `yaml:"condition"`

	// Severity is one of: critical | warning | info.
	Severity string `yaml:"severity"`

	// Cooldown suppresses re-fires for this duration after an alert fires.
	// Threshold rules default to 15 minutes; transition rules default to none.
	Cooldown time.Duration `yaml:"cooldown"`
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: discord | slack | teams | http.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable that holds the webhook URL.
	URLEnv string `yaml:"url_env"`

	// Rules limits delivery to alerts from the named rules. Empty means all.
	Rules []string `yaml:"rules"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// Accepts reports whether alerts from rule should go to this webhook.
func (w WebhookConfig) Accepts(rule string) bool {
	if len(w.Rules) == 0 {
		return true
	}
	for _, r := range w.Rules {
		if r == rule {
			return true
		}
	}
	return false
}

// Default values for the server configuration.
const (
	DefaultHTTPPort       = 8080
	DefaultFeedTTL        = time.Hour
	DefaultWeatherBaseURL = "https://api.weather.gov"
	DefaultWeatherRefresh = 30 * time.Minute
	DefaultWeatherRetry   = 5 * time.Second
	DefaultWeatherTimeout = 10 * time.Second
)

// Config holds the collector configuration parsed from the `server:` section
// of the config file.
type Config struct {
	Server ServerConfig `yaml:"server"`
}

// ServerConfig holds all collector settings.
type ServerConfig struct {
	// HTTPPort is the port the feed receiver and REST API listen on (default 8080).
	HTTPPort int `yaml:"http_port"`

	// Feed controls in-memory feed retention.
	Feed FeedConfig `yaml:"feed"`

	// Weather configures the outdoor dewpoint source.
	Weather WeatherConfig `yaml:"weather"`

	// Alerts holds rule definitions and webhook delivery targets.
	Alerts AlertsConfig `yaml:"alerts"`
}

// FeedConfig controls in-memory feed retention.
type FeedConfig struct {
	// TTL is how long a device's latest feed stays listed after it was received.
	TTL time.Duration `yaml:"ttl"`
}

// WeatherConfig configures the National Weather Service gridpoint client.
type WeatherConfig struct {
	// BaseURL is the API root (default https://api.weather.gov).
	BaseURL string `yaml:"base_url"`

	// Office, GridX and GridY identify the forecast gridpoint.
	Office string `yaml:"office"`
	GridX  int    `yaml:"grid_x"`
	GridY  int    `yaml:"grid_y"`

	// UserAgent is required by the NWS API; include contact details.
	UserAgent string `yaml:"user_agent"`

	// Refresh is the interval between successful refreshes (default 30m).
	Refresh time.Duration `yaml:"refresh"`

	// Retry is the pause after a failed refresh (default 5s).
	Retry time.Duration `yaml:"retry"`

	// Timeout bounds each request (default 10s).
	Timeout time.Duration `yaml:"timeout"`
}

// Load reads and parses the config file at path, overlays the environment
// (OFFICE, GRID_X, GRID_Y, NWS_USER_AGENT, HTTP_PORT) and validates the result.
// A missing file is allowed when the environment supplies the required values.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("server config: parse yaml: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("server config: read %q: %w", path, err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("server config: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("server config: %w", err)
	}
	return cfg, nil
}

// LoadEnvFile merges a dotenv file into the process environment. Variables
// already set win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("server config: load env file: %w", err)
	}
	return nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: DefaultHTTPPort,
			Feed:     FeedConfig{TTL: DefaultFeedTTL},
			Weather: WeatherConfig{
				BaseURL: DefaultWeatherBaseURL,
				Refresh: DefaultWeatherRefresh,
				Retry:   DefaultWeatherRetry,
				Timeout: DefaultWeatherTimeout,
			},
		},
	}
}

func applyEnv(cfg *Config) error {
	w := &cfg.Server.Weather
	if v := os.Getenv("OFFICE"); v != "" {
		w.Office = v
	}
	if v := os.Getenv("NWS_USER_AGENT"); v != "" {
		w.UserAgent = v
	}
	for key, dst := range map[string]*int{
		"GRID_X":    &w.GridX,
		"GRID_Y":    &w.GridY,
		"HTTP_PORT": &cfg.Server.HTTPPort,
	} {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s=%q: not an integer", key, v)
		}
		*dst = n
	}
	return nil
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	s := cfg.Server
	if s.HTTPPort <= 0 || s.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", s.HTTPPort)
	}
	if s.Feed.TTL <= 0 {
		return fmt.Errorf("server.feed.ttl must be positive")
	}

	w := s.Weather
	if w.Office == "" {
		return fmt.Errorf("server.weather.office is required")
	}
	if w.GridX < 0 || w.GridY < 0 {
		return fmt.Errorf("server.weather.grid_x and grid_y must not be negative")
	}
	if w.UserAgent == "" {
		return fmt.Errorf("server.weather.user_agent is required by the NWS API")
	}
	if w.Refresh <= 0 || w.Retry <= 0 || w.Timeout <= 0 {
		return fmt.Errorf("server.weather.refresh, retry and timeout must be positive")
	}

	names := make(map[string]bool, len(s.Alerts.Rules))
	for i, r := range s.Alerts.Rules {
		if r.Name == "" {
			return fmt.Errorf("server.alerts.rules[%d]: name is required", i)
		}
		if names[r.Name] {
			return fmt.Errorf("server.alerts.rules[%d]: duplicate name %q", i, r.Name)
		}
		names[r.Name] = true
		if r.Condition == "" {
			return fmt.Errorf("server.alerts.rules[%d] %q: condition is required", i, r.Name)
		}
		switch r.Severity {
		case "", "critical", "warning", "info":
		default:
			return fmt.Errorf("server.alerts.rules[%d] %q: severity %q unknown", i, r.Name, r.Severity)
		}
		if r.Cooldown < 0 {
			return fmt.Errorf("server.alerts.rules[%d] %q: cooldown must not be negative", i, r.Name)
		}
	}
	for i, wh := range s.Alerts.Webhooks {
		switch wh.Type {
		case "discord", "slack", "teams", "http":
		default:
			return fmt.Errorf("server.alerts.webhooks[%d]: type %q unknown: want discord|slack|teams|http", i, wh.Type)
		}
		if wh.URLEnv == "" {
			return fmt.Errorf("server.alerts.webhooks[%d]: url_env is required", i)
		}
	}
	return nil
}
