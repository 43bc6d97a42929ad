package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// holds parsed command-line flag values and which were set
type Flags struct {
	Addr   string
	Data   string
	Config string
	Set    map[string]bool
}

// holds the results of applying environment overrides
type EnvResult struct {
	EnvUsed bool
}

// holds the result of LoadEffectiveConfig
type EffectiveConfigResult struct {
	Config  *Config
	Addr    string
	DataDir string
	Source  string // "flags", "config", or "env"
}

// parses command-line flags and returns them as a Flags struct
func ParseConfigFlags() Flags {
	// parse any flags with defaults
	addrPtr := flag.String("addr", ":8080", "HTTP listen address")
	dataPtr := flag.String("data", "./data", "Runtime data directory")
	cfgPtr := flag.String("config", "./config.yaml", "Path to config file")
	flag.Parse()

	// record which flags were set explicitly
	setFlags := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })

	// return with defaults
	return Flags{Addr: *addrPtr, Data: *dataPtr, Config: *cfgPtr, Set: setFlags}
}

// loads config from file, returns config, found bool, and error
func ParseConfigFile(flags Flags) (*Config, bool, error) {
	cfgPath := ResolveConfigPath(flags.Config, flags.Set["config"])
	cfg, err := LoadConfigFile(cfgPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, false, nil
		}
		return nil, false, err
	}
	return cfg, true, nil
}

// loads environment variables into a new Config and returns it with EnvResult; caller config is unchanged
func ParseConfigEnvs() (*Config, EnvResult) {
	// gather all relevant env variables
	envs := map[string]string{
		"SERVER_ADDR":     os.Getenv("GRAMDB_SERVER_ADDR"),
		"ADDR":            os.Getenv("GRAMDB_ADDR"),
		"SERVER_ADDRESS":  os.Getenv("GRAMDB_SERVER_ADDRESS"),
		"SERVER_PORT":     os.Getenv("GRAMDB_SERVER_PORT"),
		"SERVER_DATA_DIR": os.Getenv("GRAMDB_SERVER_DATA_DIR"),
		"DATA_DIR":        os.Getenv("GRAMDB_DATA_DIR"),
		"CORS_ORIGINS":    os.Getenv("GRAMDB_CORS_ORIGINS"),
		"TLS_CERT":        os.Getenv("GRAMDB_TLS_CERT"),
		"TLS_KEY":         os.Getenv("GRAMDB_TLS_KEY"),

		// logging
		"LOG_LEVEL": os.Getenv("GRAMDB_LOG_LEVEL"),

		// explore paging
		"EXPLORE_DEFAULT_LIMIT": os.Getenv("GRAMDB_EXPLORE_DEFAULT_LIMIT"),
		"EXPLORE_MAX_LIMIT":     os.Getenv("GRAMDB_EXPLORE_MAX_LIMIT"),

		// stats digest
		"DIGEST_ENABLED": os.Getenv("GRAMDB_DIGEST_ENABLED"),
		"DIGEST_CRON":    os.Getenv("GRAMDB_DIGEST_CRON"),

		// telemetry
		"TELEMETRY_SAMPLE_RATE":    os.Getenv("GRAMDB_TELEMETRY_SAMPLE_RATE"),
		"TELEMETRY_SLOW_THRESHOLD": os.Getenv("GRAMDB_TELEMETRY_SLOW_THRESHOLD"),

		// activity stream queue
		"EVENTS_QUEUE_CAPACITY":          os.Getenv("GRAMDB_EVENTS_QUEUE_CAPACITY"),
		"EVENTS_MAX_POOLED_BUFFER_BYTES": os.Getenv("GRAMDB_EVENTS_MAX_POOLED_BUFFER_BYTES"),

		// sensor.monitor
		"SENSOR_MONITOR_POLL_INTERVAL":   os.Getenv("GRAMDB_SENSOR_MONITOR_POLL_INTERVAL"),
		"SENSOR_MONITOR_DISK_HIGH_PCT":   os.Getenv("GRAMDB_SENSOR_MONITOR_DISK_HIGH_PCT"),
		"SENSOR_MONITOR_DISK_LOW_PCT":    os.Getenv("GRAMDB_SENSOR_MONITOR_DISK_LOW_PCT"),
		"SENSOR_MONITOR_MEM_HIGH_PCT":    os.Getenv("GRAMDB_SENSOR_MONITOR_MEM_HIGH_PCT"),
		"SENSOR_MONITOR_RECOVERY_WINDOW": os.Getenv("GRAMDB_SENSOR_MONITOR_RECOVERY_WINDOW"),
	}

	// check if any env was set
	envUsed := false
	for _, v := range envs {
		if v != "" {
			envUsed = true
			break
		}
	}
	envCfg := &Config{}

	// parse helpers
	parseList := func(v string) []string {
		if v == "" {
			return nil
		}
		parts := []string{}
		for _, p := range strings.Split(v, ",") {
			if s := strings.TrimSpace(p); s != "" {
				parts = append(parts, s)
			}
		}
		return parts
	}

	parseBool := func(v string, def bool) bool {
		if v == "" {
			return def
		}
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes":
			return true
		default:
			return false
		}
	}

	parseDuration := func(v string) Duration {
		if strings.TrimSpace(v) == "" {
			return Duration(0)
		}
		if td, err := time.ParseDuration(v); err == nil {
			return Duration(td)
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return Duration(time.Duration(f * float64(time.Second)))
		}
		return Duration(0)
	}

	parseSizeBytes := func(v string) SizeBytes {
		if strings.TrimSpace(v) == "" {
			return SizeBytes(0)
		}
		if u, err := humanize.ParseBytes(v); err == nil {
			return SizeBytes(u)
		}
		if i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return SizeBytes(i)
		}
		return SizeBytes(0)
	}

	// apply env vars, giving precedence for combined address variables
	if v := envs["SERVER_ADDR"]; v != "" {
		if h, p, err := net.SplitHostPort(v); err == nil {
			envCfg.Server.Address = h
			if pi, err := strconv.Atoi(p); err == nil {
				envCfg.Server.Port = pi
			}
		} else {
			envCfg.Server.Address = v
		}
	} else if v := envs["ADDR"]; v != "" {
		if h, p, err := net.SplitHostPort(v); err == nil {
			envCfg.Server.Address = h
			if pi, err := strconv.Atoi(p); err == nil {
				envCfg.Server.Port = pi
			}
		} else {
			envCfg.Server.Address = v
		}
	} else {
		if host := envs["SERVER_ADDRESS"]; host != "" {
			envCfg.Server.Address = host
		}
		if port := envs["SERVER_PORT"]; port != "" {
			if pi, err := strconv.Atoi(port); err == nil {
				envCfg.Server.Port = pi
			}
		}
	}

	if v := envs["SERVER_DATA_DIR"]; v != "" {
		envCfg.Server.DataDir = v
	} else if v := envs["DATA_DIR"]; v != "" {
		envCfg.Server.DataDir = v
	}

	if v := envs["CORS_ORIGINS"]; v != "" {
		envCfg.Server.CORS.AllowedOrigins = parseList(v)
	}

	// tls cert/key
	if c := envs["TLS_CERT"]; c != "" {
		envCfg.Server.TLS.CertFile = c
	}
	if k := envs["TLS_KEY"]; k != "" {
		envCfg.Server.TLS.KeyFile = k
	}

	// logging env overrides
	if v := envs["LOG_LEVEL"]; v != "" {
		envCfg.Logging.Level = strings.TrimSpace(v)
	}

	// explore env overrides
	if v := envs["EXPLORE_DEFAULT_LIMIT"]; v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envCfg.Explore.DefaultLimit = n
		}
	}
	if v := envs["EXPLORE_MAX_LIMIT"]; v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envCfg.Explore.MaxLimit = n
		}
	}

	// digest env overrides
	if v := envs["DIGEST_ENABLED"]; v != "" {
		envCfg.Digest.Enabled = parseBool(v, false)
	}
	if v := envs["DIGEST_CRON"]; v != "" {
		envCfg.Digest.Cron = v
	}

	// telemetry env overrides
	if v := envs["TELEMETRY_SAMPLE_RATE"]; v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			envCfg.Telemetry.SampleRate = f
		}
	}
	if v := envs["TELEMETRY_SLOW_THRESHOLD"]; v != "" {
		envCfg.Telemetry.SlowThreshold = parseDuration(v)
	}

	// events env overrides
	if v := envs["EVENTS_QUEUE_CAPACITY"]; v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envCfg.Events.QueueCapacity = n
		}
	}
	if v := envs["EVENTS_MAX_POOLED_BUFFER_BYTES"]; v != "" {
		envCfg.Events.MaxPooledBufferBytes = parseSizeBytes(v)
	}

	// sensor.monitor env overrides
	if v := envs["SENSOR_MONITOR_POLL_INTERVAL"]; v != "" {
		envCfg.Sensor.Monitor.PollInterval = parseDuration(v)
	}
	if v := envs["SENSOR_MONITOR_DISK_HIGH_PCT"]; v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envCfg.Sensor.Monitor.DiskHighPct = n
		}
	}
	if v := envs["SENSOR_MONITOR_DISK_LOW_PCT"]; v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envCfg.Sensor.Monitor.DiskLowPct = n
		}
	}
	if v := envs["SENSOR_MONITOR_MEM_HIGH_PCT"]; v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envCfg.Sensor.Monitor.MemHighPct = n
		}
	}
	if v := envs["SENSOR_MONITOR_RECOVERY_WINDOW"]; v != "" {
		envCfg.Sensor.Monitor.RecoveryWindow = parseDuration(v)
	}

	return envCfg, EnvResult{EnvUsed: envUsed}
}

// decides which single source to use (flags, config file, or env) and returns the effective config plus resolved addr and data dir. if --config is set, only the config file is used; otherwise flags if set; else config file if present; else env
func LoadEffectiveConfig(flags Flags, fileCfg *Config, fileExists bool, envCfg *Config, envRes EnvResult) (EffectiveConfigResult, error) {
	var res EffectiveConfigResult

	if flags.Set["config"] {
		if !fileExists {
			return res, fmt.Errorf("config file %s not found", flags.Config)
		}
		res.Config = fileCfg
		res.Addr = fileCfg.Addr()
		res.DataDir = fileCfg.Server.DataDir
		res.Source = "config"
		return res, nil
	}

	if flags.Set["addr"] || flags.Set["data"] {
		addr := flags.Addr
		if !flags.Set["addr"] {
			addr = envCfg.Addr()
			if addr == "" {
				addr = fileCfg.Addr()
			}
		}
		dataDir := flags.Data
		if !flags.Set["data"] {
			if p := strings.TrimSpace(envCfg.Server.DataDir); p != "" {
				dataDir = p
			} else if p := strings.TrimSpace(fileCfg.Server.DataDir); p != "" {
				dataDir = p
			}
		}
		out := &Config{}
		out.Server.Address = addr
		out.Server.Port = parsePortFromAddr(addr)
		out.Server.DataDir = dataDir
		res.Config = out
		res.Addr = addr
		res.DataDir = dataDir
		res.Source = "flags"
		return res, nil
	}

	if fileExists {
		res.Config = fileCfg
		res.Addr = fileCfg.Addr()
		res.DataDir = fileCfg.Server.DataDir
		res.Source = "config"
		return res, nil
	}
	res.Config = envCfg
	res.Addr = envCfg.Addr()
	res.DataDir = envCfg.Server.DataDir
	res.Source = "env"
	return res, nil
}

// extracts port integer from host:port string
func parsePortFromAddr(a string) int {
	if a == "" {
		return 0
	}
	if _, p, err := net.SplitHostPort(a); err == nil {
		if pi, err := strconv.Atoi(p); err == nil {
			return pi
		}
	}
	return 0
}
