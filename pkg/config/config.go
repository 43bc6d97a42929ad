package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for tunable knobs. Explore paging defaults match the public
// API contract: pages of 20, capped at 100.
const (
	defaultExploreDefaultLimit = 20
	defaultExploreMaxLimit     = 100

	// digest defaults
	defaultDigestCron = "0 * * * *" // hourly

	// telemetry defaults
	defaultTelemetrySampleRate = 0.001
	defaultTelemetrySlowMs     = 200

	// activity stream defaults
	defaultEventsQueueCapacity  = 4096
	defaultMaxPooledBufferBytes = 1 * 1024 * 1024 // 1 MiB

	// sensor defaults
	defaultSensorPollInterval   = 500 * time.Millisecond
	defaultSensorDiskHighPct    = 80
	defaultSensorDiskLowPct     = 60
	defaultSensorMemHighPct     = 80
	defaultSensorRecoveryWindow = 5 * time.Second
)

// Addr returns the HTTP server address as host:port.
func (c *Config) Addr() string {
	addr := c.Server.Address
	if addr == "" {
		addr = "0.0.0.0"
	}
	port := c.Server.Port
	if port == 0 {
		port = 8080
	}
	return fmt.Sprintf("%s:%d", addr, port)
}

// LoadConfigFile reads and parses a config file.
func LoadConfigFile(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s: %w", path, err)
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ResolveConfigPath returns the config file path, preferring flag, then env.
func ResolveConfigPath(flagPath string, flagSet bool) string {
	if flagSet {
		return flagPath
	}
	if p := os.Getenv("GRAMDB_SERVER_CONFIG"); p != "" {
		return p
	}
	if p := os.Getenv("GRAMDB_CONFIG"); p != "" {
		return p
	}
	return flagPath
}
