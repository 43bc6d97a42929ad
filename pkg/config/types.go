package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Config is the main configuration struct.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	Explore    ExploreConfig    `yaml:"explore"`
	Digest     DigestConfig     `yaml:"digest"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Events     EventsConfig     `yaml:"events"`
	Sensor     SensorConfig     `yaml:"sensor"`
	Validation ValidationConfig `yaml:"validation"`
}

// ServerConfig holds http, tls and data dir settings.
type ServerConfig struct {
	Address string    `yaml:"address"`
	Port    int       `yaml:"port"`
	DataDir string    `yaml:"data_dir"`
	TLS     TLSConfig `yaml:"tls"`
	CORS    struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
}

// TLSConfig holds TLS certificate configuration.
type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ExploreConfig bounds the page size of the recent-posts listing.
type ExploreConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
}

// DigestConfig controls the periodic graph stats digest.
type DigestConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cron    string `yaml:"cron"`
}

// TelemetryConfig controls sampling and slow-request thresholds.
type TelemetryConfig struct {
	SampleRate    float64  `yaml:"sample_rate"`
	SlowThreshold Duration `yaml:"slow_threshold"`
}

// EventsConfig holds activity stream queue settings.
type EventsConfig struct {
	QueueCapacity        int       `yaml:"queue_capacity"`
	MaxPooledBufferBytes SizeBytes `yaml:"max_pooled_buffer_bytes"`
}

// SensorConfig holds resource monitor tuning knobs.
type SensorConfig struct {
	Monitor struct {
		PollInterval   Duration `yaml:"poll_interval"`
		DiskHighPct    int      `yaml:"disk_high_pct"`
		DiskLowPct     int      `yaml:"disk_low_pct"`
		MemHighPct     int      `yaml:"mem_high_pct"`
		RecoveryWindow Duration `yaml:"recovery_window"`
	} `yaml:"monitor"`
}

// ValidationConfig carries per-payload rule overrides layered onto the
// built-in rules.
type ValidationConfig struct {
	User    RuleOverrides `yaml:"user"`
	Post    RuleOverrides `yaml:"post"`
	Comment RuleOverrides `yaml:"comment"`
}

// RuleOverrides is the YAML shape of extra validation rules for one
// payload kind.
type RuleOverrides struct {
	Required []string     `yaml:"required"`
	NonEmpty []string     `yaml:"non_empty"`
	MaxLen   []MaxLenRule `yaml:"max_len"`
	Enums    []EnumRule   `yaml:"enums"`
}

type MaxLenRule struct {
	Path string `yaml:"path"`
	Max  int    `yaml:"max"`
}

type EnumRule struct {
	Path   string   `yaml:"path"`
	Values []string `yaml:"values"`
}

// SizeBytes represents a number of bytes, unmarshaled from human-friendly strings like "64MB" or plain integers.
type SizeBytes int64

func (s *SizeBytes) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		*s = 0
		return nil
	}
	raw := strings.TrimSpace(node.Value)
	if raw == "" {
		*s = 0
		return nil
	}
	if v, err := humanize.ParseBytes(raw); err == nil {
		*s = SizeBytes(v)
		return nil
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*s = SizeBytes(i)
		return nil
	}
	return fmt.Errorf("invalid size value: %q", node.Value)
}

func (s SizeBytes) Int64() int64 { return int64(s) }

// Duration is a wrapper around time.Duration that supports YAML parsing from strings like "100ms" or plain numbers (interpreted as seconds).
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		*d = Duration(0)
		return nil
	}
	raw := strings.TrimSpace(node.Value)
	if raw == "" {
		*d = Duration(0)
		return nil
	}
	if td, err := time.ParseDuration(raw); err == nil {
		*d = Duration(td)
		return nil
	}
	// allow numeric seconds
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		*d = Duration(time.Duration(f * float64(time.Second)))
		return nil
	}
	return fmt.Errorf("invalid duration value: %q", node.Value)
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }
