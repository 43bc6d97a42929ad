package config

import (
	"fmt"
	"os"
	"time"

	"github.com/adhocore/gronx"
)

// ValidateConfig applies defaults and fails fast on invalid values. It
// mutates eff.Config to fill in missing defaults.
func ValidateConfig(eff EffectiveConfigResult) error {
	cfg := eff.Config
	if cfg == nil {
		return fmt.Errorf("effective config is nil")
	}

	// Data dir must be resolvable; state dirs are created from it.
	if eff.DataDir == "" {
		return fmt.Errorf("data directory is empty: set --data flag, GRAMDB_DATA_DIR env, or server.data_dir in config")
	}

	// TLS cert/key presence check if one is set
	cert := cfg.Server.TLS.CertFile
	key := cfg.Server.TLS.KeyFile
	if (cert != "" && key == "") || (cert == "" && key != "") {
		return fmt.Errorf("incomplete TLS configuration: both server.tls.cert_file and server.tls.key_file must be set")
	}
	if cert != "" {
		if _, err := os.Stat(cert); err != nil {
			return fmt.Errorf("tls cert file not accessible: %w", err)
		}
		if _, err := os.Stat(key); err != nil {
			return fmt.Errorf("tls key file not accessible: %w", err)
		}
	}

	// Explore paging defaults and sanity
	if cfg.Explore.DefaultLimit <= 0 {
		cfg.Explore.DefaultLimit = defaultExploreDefaultLimit
	}
	if cfg.Explore.MaxLimit <= 0 {
		cfg.Explore.MaxLimit = defaultExploreMaxLimit
	}
	if cfg.Explore.DefaultLimit > cfg.Explore.MaxLimit {
		return fmt.Errorf("explore.default_limit (%d) exceeds explore.max_limit (%d)", cfg.Explore.DefaultLimit, cfg.Explore.MaxLimit)
	}

	// Digest defaults; validate the cron expression whenever set
	if cfg.Digest.Cron == "" {
		cfg.Digest.Cron = defaultDigestCron
	}
	gron := gronx.New()
	if !gron.IsValid(cfg.Digest.Cron) {
		return fmt.Errorf("invalid digest.cron: not a valid cron expression")
	}

	// Telemetry defaults
	if cfg.Telemetry.SampleRate == 0 {
		cfg.Telemetry.SampleRate = defaultTelemetrySampleRate
	}
	if cfg.Telemetry.SlowThreshold.Duration() == 0 {
		cfg.Telemetry.SlowThreshold = Duration(time.Duration(defaultTelemetrySlowMs) * time.Millisecond)
	}

	// Activity stream defaults
	if cfg.Events.QueueCapacity <= 0 {
		cfg.Events.QueueCapacity = defaultEventsQueueCapacity
	}
	if cfg.Events.MaxPooledBufferBytes.Int64() == 0 {
		cfg.Events.MaxPooledBufferBytes = SizeBytes(defaultMaxPooledBufferBytes)
	}

	// Sensor monitor defaults
	if cfg.Sensor.Monitor.PollInterval.Duration() == 0 {
		cfg.Sensor.Monitor.PollInterval = Duration(defaultSensorPollInterval)
	}
	if cfg.Sensor.Monitor.DiskHighPct == 0 {
		cfg.Sensor.Monitor.DiskHighPct = defaultSensorDiskHighPct
	}
	if cfg.Sensor.Monitor.DiskLowPct == 0 {
		cfg.Sensor.Monitor.DiskLowPct = defaultSensorDiskLowPct
	}
	if cfg.Sensor.Monitor.MemHighPct == 0 {
		cfg.Sensor.Monitor.MemHighPct = defaultSensorMemHighPct
	}
	if cfg.Sensor.Monitor.RecoveryWindow.Duration() == 0 {
		cfg.Sensor.Monitor.RecoveryWindow = Duration(defaultSensorRecoveryWindow)
	}

	return nil
}
