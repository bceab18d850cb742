// Package config loads the station's settings: a YAML file (path from
// KOINONIA_CONFIG, default station.yaml) with environment overrides for the
// values that differ per deployment.
package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr string `yaml:"listen_addr"`
	ServerURL  string `yaml:"server_url"`
	// AuthSecret is base64; shared with the membership server and used to
	// gate the local surface.
	AuthSecret     string `yaml:"auth_secret"`
	StorePath      string `yaml:"store_path"`
	ScannerDevice  string `yaml:"scanner_device"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`

	VolunteerID    int    `yaml:"volunteer_id"`
	VolunteerName  string `yaml:"volunteer_name"`
	VolunteerEmail string `yaml:"volunteer_email"`
	StationID      string `yaml:"station_id"`
}

var (
	once    sync.Once
	loaded  *Config
	loadErr error
)

func defaults() *Config {
	return &Config{
		ListenAddr:     "0.0.0.0:8090",
		ServerURL:      "https://api.koinonia.church",
		StorePath:      "station.db",
		ScannerDevice:  "/dev/ttyACM0",
		TimeoutSeconds: 10,
		StationID:      "station-01",
	}
}

// Load reads the config once per process.
func Load() (*Config, error) {
	once.Do(func() {
		loaded, loadErr = load()
	})
	return loaded, loadErr
}

func load() (*Config, error) {
	cfg := defaults()

	path := envOr("KOINONIA_CONFIG", "station.yaml")
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.ListenAddr = envOr("KOINONIA_LISTEN_ADDR", cfg.ListenAddr)
	cfg.ServerURL = envOr("KOINONIA_SERVER_URL", cfg.ServerURL)
	cfg.AuthSecret = envOr("KOINONIA_AUTH_SECRET", cfg.AuthSecret)
	cfg.StorePath = envOr("KOINONIA_STORE_PATH", cfg.StorePath)
	cfg.ScannerDevice = envOr("KOINONIA_SCANNER_DEVICE", cfg.ScannerDevice)
	cfg.StationID = envOr("KOINONIA_STATION_ID", cfg.StationID)

	if cfg.AuthSecret == "" {
		return nil, fmt.Errorf("auth secret is required (auth_secret or KOINONIA_AUTH_SECRET)")
	}

	return cfg, nil
}

// RequestTimeout bounds every live call; exceeding it is treated as a
// transport failure by the engine.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
