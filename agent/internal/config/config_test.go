package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv blanks the override variables so the host environment cannot leak
// into a test. Blank values are ignored by applyEnv.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"MODE", "ARDUINO_PORT", "ARDUINO_IP", "GET_URL", "POST_URL_SENSOR_FEED"} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func loadFromString(t *testing.T, yaml string) *Config {
	t.Helper()
	cfg, err := loadStringErr(t, yaml)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return cfg
}

func loadStringErr(t *testing.T, yaml string) (*Config, error) {
	t.Helper()
	clearEnv(t)
	return Load(Options{Path: writeFile(t, "dewdrop.yaml", yaml)})
}

func TestLoad_Serial(t *testing.T) {
	cfg := loadFromString(t, `
device:
  mode: serial
  serial:
    port: /dev/ttyACM0
    baud: 9600
    timeout: 2s
outdoor:
  url: http://collector:8080/outdoor-dewpoint
report:
  url: http://collector:8080/sensor-feed
`)

	if cfg.Device.Mode != ModeSerial {
		t.Errorf("mode: got %q", cfg.Device.Mode)
	}
	if cfg.Device.Serial.Port != "/dev/ttyACM0" {
		t.Errorf("port: got %q", cfg.Device.Serial.Port)
	}
	if cfg.Device.Serial.Baud != 9600 {
		t.Errorf("baud: got %d", cfg.Device.Serial.Baud)
	}
	if cfg.Device.Serial.Timeout != 2*time.Second {
		t.Errorf("timeout: got %v", cfg.Device.Serial.Timeout)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg := loadFromString(t, `
device:
  mode: network
  network:
    base_url: http://arduino.local
outdoor:
  url: http://collector/outdoor-dewpoint
report:
  url: http://collector/sensor-feed
`)

	s := cfg.Device.Serial
	if s.Baud != DefaultBaud {
		t.Errorf("default baud: got %d, want %d", s.Baud, DefaultBaud)
	}
	if s.ReadTimeout != DefaultSerialReadTimeout {
		t.Errorf("default read_timeout: got %v", s.ReadTimeout)
	}
	if s.Timeout != DefaultSerialTimeout {
		t.Errorf("default timeout: got %v", s.Timeout)
	}
	if s.RetryInterval != DefaultRetryInterval {
		t.Errorf("default retry_interval: got %v", s.RetryInterval)
	}
	n := cfg.Device.Network
	if n.Attempts != DefaultNetworkAttempts {
		t.Errorf("default attempts: got %d", n.Attempts)
	}
	if n.Backoff != DefaultNetworkBackoff {
		t.Errorf("default backoff: got %v", n.Backoff)
	}
	if cfg.Report.MQTT.Topic != DefaultMQTTTopic {
		t.Errorf("default mqtt topic: got %q", cfg.Report.MQTT.Topic)
	}
	if cfg.Report.MQTT.Enabled() {
		t.Error("mqtt should be disabled without a broker")
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "no mode",
			yaml: "outdoor: {url: 'http://o'}\nreport: {url: 'http://r'}\n",
			want: "device.mode",
		},
		{
			name: "serial without port",
			yaml: "device: {mode: serial}\noutdoor: {url: 'http://o'}\nreport: {url: 'http://r'}\n",
			want: "device.serial.port",
		},
		{
			name: "network without base url",
			yaml: "device: {mode: network}\noutdoor: {url: 'http://o'}\nreport: {url: 'http://r'}\n",
			want: "device.network.base_url",
		},
		{
			name: "no outdoor url",
			yaml: "device: {mode: network, network: {base_url: 'http://d'}}\nreport: {url: 'http://r'}\n",
			want: "outdoor.url",
		},
		{
			name: "no report url",
			yaml: "device: {mode: network, network: {base_url: 'http://d'}}\noutdoor: {url: 'http://o'}\n",
			want: "report.url",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := loadStringErr(t, tc.yaml)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrConfigurationMissing) {
				t.Errorf("expected ErrConfigurationMissing, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q should mention %q", err, tc.want)
			}
		})
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"unknown mode", "device: {mode: bluetooth}\noutdoor: {url: 'http://o'}\nreport: {url: 'http://r'}\n"},
		{"zero attempts", "device: {mode: network, network: {base_url: 'http://d', attempts: 0}}\noutdoor: {url: 'http://o'}\nreport: {url: 'http://r'}\n"},
		{"negative interval", "device: {mode: serial, serial: {port: /dev/x, retry_interval: -1s}}\noutdoor: {url: 'http://o'}\nreport: {url: 'http://r'}\n"},
		{"mqtt without topic", "device: {mode: network, network: {base_url: 'http://d'}}\noutdoor: {url: 'http://o'}\nreport: {url: 'http://r', mqtt: {broker: 'tcp://b:1883', topic: ''}}\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := loadStringErr(t, tc.yaml)
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.Is(err, ErrConfigurationMissing) {
				t.Errorf("structural error should not be ErrConfigurationMissing: %v", err)
			}
		})
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := loadStringErr(t, "device: [unclosed")
	if err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_MissingFileUsesEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("MODE", "serial")
	t.Setenv("ARDUINO_PORT", "/dev/ttyUSB0")
	t.Setenv("GET_URL", "http://collector/outdoor-dewpoint")
	t.Setenv("POST_URL_SENSOR_FEED", "http://collector/sensor-feed")

	cfg, err := Load(Options{Path: filepath.Join(t.TempDir(), "absent.yaml")})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Device.Serial.Port != "/dev/ttyUSB0" {
		t.Errorf("port: got %q", cfg.Device.Serial.Port)
	}
	if cfg.Outdoor.URL != "http://collector/outdoor-dewpoint" {
		t.Errorf("outdoor url: got %q", cfg.Outdoor.URL)
	}
	if cfg.Report.URL != "http://collector/sensor-feed" {
		t.Errorf("report url: got %q", cfg.Report.URL)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "dewdrop.yaml", `
device:
  mode: serial
  serial: {port: /dev/ttyACM0}
  network: {base_url: "http://from-file"}
outdoor: {url: "http://o"}
report: {url: "http://r"}
`)
	t.Setenv("MODE", "network")
	t.Setenv("ARDUINO_IP", "http://192.168.1.50")

	cfg, err := Load(Options{Path: path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Device.Mode != ModeNetwork {
		t.Errorf("mode: got %q", cfg.Device.Mode)
	}
	if cfg.Device.Network.BaseURL != "http://192.168.1.50" {
		t.Errorf("base_url: got %q", cfg.Device.Network.BaseURL)
	}
}

func TestLoad_ModeOptionWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("MODE", "serial")
	path := writeFile(t, "dewdrop.yaml", `
device:
  network: {base_url: "http://d"}
outdoor: {url: "http://o"}
report: {url: "http://r"}
`)

	cfg, err := Load(Options{Path: path, Mode: ModeNetwork})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Device.Mode != ModeNetwork {
		t.Errorf("mode: got %q, want network", cfg.Device.Mode)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv does not override variables that exist, even blank ones.
	for _, k := range []string{"MODE", "ARDUINO_IP", "GET_URL", "POST_URL_SENSOR_FEED"} {
		os.Unsetenv(k)
	}
	t.Cleanup(func() {
		for _, k := range []string{"MODE", "ARDUINO_IP", "GET_URL", "POST_URL_SENSOR_FEED"} {
			os.Unsetenv(k)
		}
	})

	envFile := writeFile(t, ".env", strings.Join([]string{
		"MODE=network",
		"ARDUINO_IP=http://10.0.0.7",
		"GET_URL=http://collector/outdoor-dewpoint",
		"POST_URL_SENSOR_FEED=http://collector/sensor-feed",
	}, "\n"))

	cfg, err := Load(Options{EnvFile: envFile})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Device.Network.BaseURL != "http://10.0.0.7" {
		t.Errorf("base_url: got %q", cfg.Device.Network.BaseURL)
	}
	if cfg.Report.URL != "http://collector/sensor-feed" {
		t.Errorf("report url: got %q", cfg.Report.URL)
	}
}

func TestLoad_MissingEnvFileIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("MODE", "network")
	t.Setenv("ARDUINO_IP", "http://d")
	t.Setenv("GET_URL", "http://o")
	t.Setenv("POST_URL_SENSOR_FEED", "http://r")

	if _, err := Load(Options{EnvFile: filepath.Join(t.TempDir(), ".env")}); err != nil {
		t.Fatalf("Load: %v", err)
	}
}

func TestLoad_LegacyModeAliases(t *testing.T) {
	tests := []struct {
		env, opt, want string
	}{
		{"usb", "", ModeSerial},
		{"wifi", "", ModeNetwork},
		{"", "usb", ModeSerial},
		{"serial", "wifi", ModeNetwork},
	}
	for _, tc := range tests {
		t.Run(tc.env+"/"+tc.opt, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("MODE", tc.env)
			path := writeFile(t, "dewdrop.yaml", `
device:
  serial: {port: "/dev/ttyACM0"}
  network: {base_url: "http://d"}
outdoor: {url: "http://o"}
report: {url: "http://r"}
`)
			cfg, err := Load(Options{Path: path, Mode: tc.opt})
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.Device.Mode != tc.want {
				t.Errorf("mode: got %q, want %q", cfg.Device.Mode, tc.want)
			}
		})
	}
}
