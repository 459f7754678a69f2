package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Device modes.
const (
	ModeSerial  = "serial"
	ModeNetwork = "network"
)

// modeAliases maps the mode names of earlier deployments (MODE=usb|wifi).
var modeAliases = map[string]string{
	"usb":  ModeSerial,
	"wifi": ModeNetwork,
}

// Default values applied when fields are absent from the config file.
const (
	DefaultBaud              = 115200
	DefaultSerialReadTimeout = 100 * time.Millisecond
	DefaultSerialTimeout     = time.Second
	DefaultRetryInterval     = 50 * time.Millisecond
	DefaultNetworkAttempts   = 3
	DefaultNetworkBackoff    = time.Second
	DefaultHTTPTimeout       = 10 * time.Second
	DefaultMQTTTopic         = "dewdrop/feed"
)

// ErrConfigurationMissing is returned when a required endpoint or port is not set.
var ErrConfigurationMissing = errors.New("configuration missing")

// Config is the top-level probe configuration.
type Config struct {
	Device  DeviceConfig  `yaml:"device"`
	Outdoor OutdoorConfig `yaml:"outdoor"`
	Report  ReportConfig  `yaml:"report"`
}

// DeviceConfig selects and configures the indoor sensor transport.
type DeviceConfig struct {
	// Mode is serial | network. usb and wifi are accepted as aliases.
	Mode string `yaml:"mode"`

	Serial  SerialConfig  `yaml:"serial"`
	Network NetworkConfig `yaml:"network"`
}

// SerialConfig configures the serial transport. Line settings other than the
// baud rate are fixed at 8 data bits, no parity, 1 stop bit, no flow control.
type SerialConfig struct {
	// Port is the device node, e.g. /dev/ttyACM0.
	Port string `yaml:"port"`

	Baud int `yaml:"baud"`

	// ReadTimeout bounds a single read call. Keep it short: the poll loop, not
	// the read, governs overall patience.
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// Timeout is the total time allowed to get a valid response to one command.
	Timeout time.Duration `yaml:"timeout"`

	// RetryInterval is the pause between probes.
	RetryInterval time.Duration `yaml:"retry_interval"`

	// WaitForDevice, when positive, waits this long for Port to appear
	// before opening it (USB devices re-enumerate after a reset).
	WaitForDevice time.Duration `yaml:"wait_for_device"`
}

// NetworkConfig configures the network transport.
type NetworkConfig struct {
	// BaseURL is the device's HTTP root; /data and /led are appended.
	BaseURL string `yaml:"base_url"`

	// Attempts is the number of requests made before giving up.
	Attempts int `yaml:"attempts"`

	// Backoff is the fixed pause between attempts.
	Backoff time.Duration `yaml:"backoff"`

	// RequestTimeout bounds each HTTP exchange.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// OutdoorConfig configures the outdoor dewpoint source.
type OutdoorConfig struct {
	// URL returns the outdoor dewpoint as a bare number.
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// ReportConfig configures where run results are sent.
type ReportConfig struct {
	// URL receives the sensor feed as a JSON POST.
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`

	// MQTT optionally mirrors the feed to a broker.
	MQTT MQTTConfig `yaml:"mqtt"`

	// Textfile, when set, is the path of a Prometheus textfile-collector file
	// rewritten after every run.
	Textfile string `yaml:"textfile"`
}

// MQTTConfig configures the optional MQTT mirror. It is disabled when Broker is empty.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
	Retain   bool   `yaml:"retain"`
}

// Enabled reports whether an MQTT broker is configured.
func (m MQTTConfig) Enabled() bool { return m.Broker != "" }

// Options controls where Load looks for configuration.
type Options struct {
	// Path is the YAML config file. Empty or missing files are skipped.
	Path string

	// EnvFile is a dotenv file merged into the environment. Empty or missing
	// files are skipped; variables already set in the environment win.
	EnvFile string

	// Mode overrides device.mode when non-empty.
	Mode string
}

// Load assembles and validates the configuration described by opts.
func Load(opts Options) (*Config, error) {
	cfg := defaults()

	if opts.Path != "" {
		data, err := os.ReadFile(opts.Path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse yaml: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: load env file: %w", err)
		}
	}
	applyEnv(cfg)

	if opts.Mode != "" {
		cfg.Device.Mode = opts.Mode
	}
	if m, ok := modeAliases[cfg.Device.Mode]; ok {
		cfg.Device.Mode = m
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Device: DeviceConfig{
			Serial: SerialConfig{
				Baud:          DefaultBaud,
				ReadTimeout:   DefaultSerialReadTimeout,
				Timeout:       DefaultSerialTimeout,
				RetryInterval: DefaultRetryInterval,
			},
			Network: NetworkConfig{
				Attempts:       DefaultNetworkAttempts,
				Backoff:        DefaultNetworkBackoff,
				RequestTimeout: DefaultHTTPTimeout,
			},
		},
		Outdoor: OutdoorConfig{Timeout: DefaultHTTPTimeout},
		Report: ReportConfig{
			Timeout: DefaultHTTPTimeout,
			MQTT:    MQTTConfig{Topic: DefaultMQTTTopic},
		},
	}
}

// applyEnv overlays the environment variables used by existing deployments.
func applyEnv(cfg *Config) {
	set := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	set(&cfg.Device.Mode, "MODE")
	set(&cfg.Device.Serial.Port, "ARDUINO_PORT")
	set(&cfg.Device.Network.BaseURL, "ARDUINO_IP")
	set(&cfg.Outdoor.URL, "GET_URL")
	set(&cfg.Report.URL, "POST_URL_SENSOR_FEED")
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	switch cfg.Device.Mode {
	case ModeSerial:
		s := cfg.Device.Serial
		if s.Port == "" {
			return fmt.Errorf("device.serial.port is required in serial mode: %w", ErrConfigurationMissing)
		}
		if s.Baud <= 0 {
			return fmt.Errorf("device.serial.baud must be positive")
		}
		if s.ReadTimeout <= 0 || s.Timeout <= 0 {
			return fmt.Errorf("device.serial.read_timeout and timeout must be positive")
		}
		if s.RetryInterval < 0 || s.WaitForDevice < 0 {
			return fmt.Errorf("device.serial.retry_interval and wait_for_device must not be negative")
		}
	case ModeNetwork:
		n := cfg.Device.Network
		if n.BaseURL == "" {
			return fmt.Errorf("device.network.base_url is required in network mode: %w", ErrConfigurationMissing)
		}
		if n.Attempts <= 0 {
			return fmt.Errorf("device.network.attempts must be positive")
		}
		if n.Backoff < 0 || n.RequestTimeout <= 0 {
			return fmt.Errorf("device.network.backoff must not be negative and request_timeout must be positive")
		}
	case "":
		return fmt.Errorf("device.mode is required: %w", ErrConfigurationMissing)
	default:
		return fmt.Errorf("device.mode %q unknown: want %s|%s", cfg.Device.Mode, ModeSerial, ModeNetwork)
	}

	if cfg.Outdoor.URL == "" {
		return fmt.Errorf("outdoor.url is required: %w", ErrConfigurationMissing)
	}
	if cfg.Report.URL == "" {
		return fmt.Errorf("report.url is required: %w", ErrConfigurationMissing)
	}
	if cfg.Outdoor.Timeout <= 0 || cfg.Report.Timeout <= 0 {
		return fmt.Errorf("outdoor.timeout and report.timeout must be positive")
	}
	if cfg.Report.MQTT.Enabled() && cfg.Report.MQTT.Topic == "" {
		return fmt.Errorf("report.mqtt.topic is required when a broker is set")
	}
	return nil
}
