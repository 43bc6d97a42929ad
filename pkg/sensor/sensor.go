// Package sensor polls host resources (heap and data dir filesystem) and
// raises advisory throttle signals with hysteresis when thresholds are
// crossed. The app uses those signals to flip readiness.
package sensor

import (
	"runtime"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"gramdb/pkg/logger"
)

// Snapshot contains a lightweight view of system resources. Fields are
// best-effort and may be zero on unsupported platforms.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp"`

	// Heap in bytes
	MemTotal uint64 `json:"mem_total"`
	MemUsed  uint64 `json:"mem_used"`

	// Disk free/total in bytes for the filesystem holding the data dir
	DiskTotal uint64 `json:"disk_total"`
	DiskFree  uint64 `json:"disk_free"`
}

// ThrottleRequest is an advisory signal emitted when resources cross the
// configured thresholds.
type ThrottleRequest struct {
	// Who is requesting (optional)
	Source string
	// Reason is a short string describing the request
	Reason string
	// Severity [0..1] where 1 is most urgent; 0 signals recovery
	Severity float64
}

// MonitorConfig controls thresholds and intervals.
type MonitorConfig struct {
	PollInterval   time.Duration
	DiskHighPct    int
	DiskLowPct     int
	MemHighPct     int
	RecoveryWindow time.Duration
}

// DefaultMonitorConfig returns sensible defaults.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		PollInterval:   500 * time.Millisecond,
		DiskHighPct:    80,
		DiskLowPct:     60,
		MemHighPct:     80,
		RecoveryWindow: 5 * time.Second,
	}
}

// Sensor polls resources on an interval and exposes the current Snapshot.
// It also provides a simple pub/sub for throttle signals.
type Sensor struct {
	config   MonitorConfig
	diskPath string

	mu   sync.RWMutex
	snap Snapshot

	// alert hysteresis
	diskAlert     bool
	memAlert      bool
	lastDiskAlert time.Time
	lastMemAlert  time.Time

	// throttle handlers
	thMu     sync.RWMutex
	handlers []func(ThrottleRequest)

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewSensor creates a sensor polling per config; diskPath names the
// filesystem to watch (usually the data dir).
func NewSensor(config MonitorConfig, diskPath string) *Sensor {
	if config.PollInterval <= 0 {
		config = DefaultMonitorConfig()
	}
	if diskPath == "" {
		diskPath = "/"
	}
	return &Sensor{
		config:   config,
		diskPath: diskPath,
		stopCh:   make(chan struct{}),
	}
}

// Start begins background polling. Call Stop to terminate.
func (s *Sensor) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.config.PollInterval)
		defer ticker.Stop()
		// warm initial sample
		s.check()
		for {
			select {
			case <-s.stopCh:
				return
			case <-ticker.C:
				s.check()
			}
		}
	}()
}

// Stop stops background polling and waits for the loop to exit.
func (s *Sensor) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.wg.Wait()
}

// Snapshot returns the most recent snapshot (fast, copy).
func (s *Sensor) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// RegisterThrottleHandler registers a callback to receive throttle
// signals. Handlers are invoked asynchronously.
func (s *Sensor) RegisterThrottleHandler(h func(ThrottleRequest)) {
	s.thMu.Lock()
	defer s.thMu.Unlock()
	s.handlers = append(s.handlers, h)
}

// SendThrottle emits a throttle signal to registered handlers. This is
// non-blocking and best-effort.
func (s *Sensor) SendThrottle(req ThrottleRequest) {
	s.thMu.RLock()
	handlers := append([]func(ThrottleRequest){}, s.handlers...)
	s.thMu.RUnlock()
	for _, h := range handlers {
		go func(cb func(ThrottleRequest)) {
			// run with a small timeout to avoid runaway handlers
			done := make(chan struct{})
			go func() {
				cb(req)
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(250 * time.Millisecond):
			}
		}(h)
	}
}

// check samples resources, updates the snapshot and evaluates alert
// transitions with the configured hysteresis.
func (s *Sensor) check() {
	now := time.Now()
	snap := Snapshot{Timestamp: now}

	// storage for the data dir filesystem
	var stat unix.Statfs_t
	diskOK := unix.Statfs(s.diskPath, &stat) == nil
	if diskOK {
		snap.DiskFree = stat.Bavail * uint64(stat.Bsize)
		snap.DiskTotal = stat.Blocks * uint64(stat.Bsize)
	}

	// heap statistics
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	snap.MemTotal = m.HeapSys
	snap.MemUsed = m.HeapInuse

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	if diskOK && snap.DiskTotal > 0 {
		usedPct := float64(snap.DiskTotal-snap.DiskFree) / float64(snap.DiskTotal) * 100

		if usedPct > float64(s.config.DiskHighPct) {
			if !s.diskAlert {
				logger.Warn("disk_usage_high", "used_pct", usedPct, "threshold_pct", s.config.DiskHighPct)
				s.diskAlert = true
				s.lastDiskAlert = now
				s.SendThrottle(ThrottleRequest{Source: "sensor", Reason: "disk_high", Severity: 1.0})
			}
		} else if usedPct < float64(s.config.DiskLowPct) && s.diskAlert {
			// below threshold for the full recovery window before clearing
			if now.Sub(s.lastDiskAlert) >= s.config.RecoveryWindow {
				logger.Info("disk_usage_recovered", "used_pct", usedPct, "low_pct", s.config.DiskLowPct)
				s.diskAlert = false
				if !s.memAlert {
					s.SendThrottle(ThrottleRequest{Source: "sensor", Reason: "recovered", Severity: 0})
				}
			}
		}
	}

	if snap.MemTotal > 0 {
		memUsedPct := float64(snap.MemUsed) / float64(snap.MemTotal) * 100

		if memUsedPct > float64(s.config.MemHighPct) {
			if !s.memAlert {
				logger.Warn("memory_usage_high", "used_pct", memUsedPct, "threshold_pct", s.config.MemHighPct)
				s.memAlert = true
				s.lastMemAlert = now
				s.SendThrottle(ThrottleRequest{Source: "sensor", Reason: "mem_high", Severity: 1.0})
			}
		} else if s.memAlert {
			if now.Sub(s.lastMemAlert) >= s.config.RecoveryWindow {
				logger.Info("memory_usage_recovered", "used_pct", memUsedPct)
				s.memAlert = false
				if !s.diskAlert {
					s.SendThrottle(ThrottleRequest{Source: "sensor", Reason: "recovered", Severity: 0})
				}
			}
		}
	}
}
