package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "cfg.yaml")
	content := []byte(`server:
  address: 127.0.0.1
  port: 9090
  data_dir: /tmp/gramdb-data
logging:
  level: debug
explore:
  default_limit: 10
  max_limit: 50
digest:
  enabled: true
  cron: "*/5 * * * *"
telemetry:
  sample_rate: 0.5
  slow_threshold: 250ms
events:
  queue_capacity: 128
  max_pooled_buffer_bytes: 2MiB
`)
	if err := os.WriteFile(p, content, 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	c, err := LoadConfigFile(p)
	if err != nil {
		t.Fatalf("LoadConfigFile failed: %v", err)
	}
	if c.Server.Port != 9090 {
		t.Fatalf("expected port 9090 got %d", c.Server.Port)
	}
	if c.Server.DataDir != "/tmp/gramdb-data" {
		t.Fatalf("unexpected data_dir %q", c.Server.DataDir)
	}
	if c.Explore.DefaultLimit != 10 || c.Explore.MaxLimit != 50 {
		t.Fatalf("unexpected explore limits %+v", c.Explore)
	}
	if !c.Digest.Enabled || c.Digest.Cron != "*/5 * * * *" {
		t.Fatalf("unexpected digest config %+v", c.Digest)
	}
	if c.Telemetry.SlowThreshold.Duration() != 250*time.Millisecond {
		t.Fatalf("expected 250ms slow threshold got %v", c.Telemetry.SlowThreshold.Duration())
	}
	if c.Events.MaxPooledBufferBytes.Int64() != 2*1024*1024 {
		t.Fatalf("expected 2MiB got %d", c.Events.MaxPooledBufferBytes.Int64())
	}
}

func TestDurationNumericSeconds(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(p, []byte("telemetry:\n  slow_threshold: 2\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := LoadConfigFile(p)
	if err != nil {
		t.Fatalf("LoadConfigFile failed: %v", err)
	}
	if c.Telemetry.SlowThreshold.Duration() != 2*time.Second {
		t.Fatalf("expected 2s got %v", c.Telemetry.SlowThreshold.Duration())
	}
}

func TestAddrDefaults(t *testing.T) {
	var c Config
	if got := c.Addr(); got != "0.0.0.0:8080" {
		t.Fatalf("expected default addr got %q", got)
	}
	c.Server.Address = "10.0.0.1"
	c.Server.Port = 9000
	if got := c.Addr(); got != "10.0.0.1:9000" {
		t.Fatalf("expected 10.0.0.1:9000 got %q", got)
	}
}

func TestResolveConfigPath(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(p, []byte("server: {}\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	// env var wins when flag not set
	os.Setenv("GRAMDB_SERVER_CONFIG", p)
	defer os.Unsetenv("GRAMDB_SERVER_CONFIG")
	if got := ResolveConfigPath("/nope", false); got != p {
		t.Fatalf("ResolveConfigPath expected %q got %q", p, got)
	}
	// explicit flag wins over env
	if got := ResolveConfigPath("/explicit", true); got != "/explicit" {
		t.Fatalf("ResolveConfigPath expected /explicit got %q", got)
	}
}

func TestLoadEffectiveConfigPrecedence(t *testing.T) {
	fileCfg := &Config{}
	fileCfg.Server.Address = "filehost"
	fileCfg.Server.Port = 7000
	fileCfg.Server.DataDir = "/file/data"

	envCfg := &Config{}
	envCfg.Server.DataDir = "/env/data"

	// explicit -config with missing file is an error
	flags := Flags{Config: "/missing.yaml", Set: map[string]bool{"config": true}}
	if _, err := LoadEffectiveConfig(flags, fileCfg, false, envCfg, EnvResult{}); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}

	// explicit -config uses only the file
	flags = Flags{Config: "/cfg.yaml", Set: map[string]bool{"config": true}}
	res, err := LoadEffectiveConfig(flags, fileCfg, true, envCfg, EnvResult{})
	if err != nil {
		t.Fatalf("LoadEffectiveConfig: %v", err)
	}
	if res.Source != "config" || res.Addr != "filehost:7000" || res.DataDir != "/file/data" {
		t.Fatalf("unexpected result %+v", res)
	}

	// addr flag set: flags win, data dir falls back to env then file
	flags = Flags{Addr: ":9999", Data: "./data", Set: map[string]bool{"addr": true}}
	res, err = LoadEffectiveConfig(flags, fileCfg, true, envCfg, EnvResult{EnvUsed: true})
	if err != nil {
		t.Fatalf("LoadEffectiveConfig: %v", err)
	}
	if res.Source != "flags" || res.Addr != ":9999" || res.DataDir != "/env/data" {
		t.Fatalf("unexpected result %+v", res)
	}

	// no flags: file wins when present
	flags = Flags{Set: map[string]bool{}}
	res, err = LoadEffectiveConfig(flags, fileCfg, true, envCfg, EnvResult{})
	if err != nil {
		t.Fatalf("LoadEffectiveConfig: %v", err)
	}
	if res.Source != "config" || res.DataDir != "/file/data" {
		t.Fatalf("unexpected result %+v", res)
	}

	// no flags, no file: env is the source
	res, err = LoadEffectiveConfig(flags, &Config{}, false, envCfg, EnvResult{EnvUsed: true})
	if err != nil {
		t.Fatalf("LoadEffectiveConfig: %v", err)
	}
	if res.Source != "env" || res.DataDir != "/env/data" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestValidateConfigDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.Server.DataDir = "/tmp/gramdb"
	eff := EffectiveConfigResult{Config: cfg, Addr: ":8080", DataDir: "/tmp/gramdb", Source: "env"}
	if err := ValidateConfig(eff); err != nil {
		t.Fatalf("ValidateConfig: %v", err)
	}
	if cfg.Explore.DefaultLimit != 20 || cfg.Explore.MaxLimit != 100 {
		t.Fatalf("explore defaults not applied: %+v", cfg.Explore)
	}
	if cfg.Digest.Cron == "" {
		t.Fatal("digest cron default not applied")
	}
	if cfg.Telemetry.SampleRate == 0 || cfg.Telemetry.SlowThreshold.Duration() == 0 {
		t.Fatalf("telemetry defaults not applied: %+v", cfg.Telemetry)
	}
	if cfg.Events.QueueCapacity == 0 || cfg.Events.MaxPooledBufferBytes.Int64() == 0 {
		t.Fatalf("events defaults not applied: %+v", cfg.Events)
	}
	if cfg.Sensor.Monitor.PollInterval.Duration() == 0 || cfg.Sensor.Monitor.DiskHighPct == 0 {
		t.Fatalf("sensor defaults not applied: %+v", cfg.Sensor.Monitor)
	}
}

func TestValidateConfigRejects(t *testing.T) {
	// empty data dir
	eff := EffectiveConfigResult{Config: &Config{}}
	if err := ValidateConfig(eff); err == nil {
		t.Fatal("expected error for empty data dir")
	}

	// bad cron
	cfg := &Config{}
	cfg.Digest.Cron = "not a cron"
	eff = EffectiveConfigResult{Config: cfg, DataDir: "/tmp/x"}
	if err := ValidateConfig(eff); err == nil {
		t.Fatal("expected error for invalid cron")
	}

	// default limit above max
	cfg = &Config{}
	cfg.Explore.DefaultLimit = 500
	cfg.Explore.MaxLimit = 100
	eff = EffectiveConfigResult{Config: cfg, DataDir: "/tmp/x"}
	if err := ValidateConfig(eff); err == nil {
		t.Fatal("expected error for default limit above max")
	}

	// half-configured TLS
	cfg = &Config{}
	cfg.Server.TLS.CertFile = "/some/cert.pem"
	eff = EffectiveConfigResult{Config: cfg, DataDir: "/tmp/x"}
	if err := ValidateConfig(eff); err == nil {
		t.Fatal("expected error for incomplete TLS configuration")
	}
}
