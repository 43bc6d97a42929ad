package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"

	"gramdb/internal/digest"
	"gramdb/pkg/api/handlers"
	"gramdb/pkg/config"
	"gramdb/pkg/events"
	"gramdb/pkg/graph"
	"gramdb/pkg/logger"
	"gramdb/pkg/metrics"
	"gramdb/pkg/sensor"
	"gramdb/pkg/state"
	"gramdb/pkg/telemetry"
)

// App groups server state and components.
type App struct {
	digestCancel context.CancelFunc
	eff          config.EffectiveConfigResult
	version      string
	commit       string
	buildDate    string

	g     *graph.Graph
	evq   *events.Queue
	spool *events.Spool

	// activity worker lifecycle
	evStop     chan struct{}
	evStopOnce sync.Once

	hwSensor *sensor.Sensor
	degraded atomic.Bool

	srv   *http.Server
	state string
}

// New sets up resources that don't need a running context (graph, queue,
// validation rules, handler wiring). It does not start the scheduler,
// sensor or HTTP server; call Run to start those and block for lifecycle.
func New(eff config.EffectiveConfigResult, version, commit, buildDate string) (*App, error) {
	_ = godotenv.Load(".env")

	// validate config and fail fast if not valid
	if err := config.ValidateConfig(eff); err != nil {
		return nil, err
	}

	// telemetry defaults
	telemetry.SetSampleRate(eff.Config.Telemetry.SampleRate)
	telemetry.SetSlowThreshold(eff.Config.Telemetry.SlowThreshold.Duration())

	// cap pooled event buffers per config
	events.SetMaxPooledBuffer(eff.Config.Events.MaxPooledBufferBytes.Int64())

	// overlay configured validation rules onto the built-ins
	initValidation(eff)

	// spool lives under the state layout (caller ensures directories exist)
	if state.PathsVar.Events == "" {
		return nil, fmt.Errorf("state paths not initialized")
	}

	g := graph.New()

	evq := events.NewQueue(eff.Config.Events.QueueCapacity)
	spool, err := events.NewSpool(state.PathsVar.Events)
	if err != nil {
		return nil, fmt.Errorf("failed to open activity spool at %s: %w", state.PathsVar.Events, err)
	}

	// wire handler package globals
	handlers.Configure(g, evq)
	handlers.SetExploreLimits(eff.Config.Explore.DefaultLimit, eff.Config.Explore.MaxLimit)

	// expose graph counters and queue depth to prometheus
	metrics.SetSource(g.Stats)
	metrics.SetEventQueue(evq)

	summaryItems := []string{
		fmt.Sprintf("queue_capacity: %s", humanize.Comma(int64(eff.Config.Events.QueueCapacity))),
		fmt.Sprintf("max_pooled_buffer: %s", humanize.Bytes(uint64(eff.Config.Events.MaxPooledBufferBytes.Int64()))),
		fmt.Sprintf("spool_dir: %s", state.PathsVar.Events),
	}
	logger.LogConfigSummary("config_activity_stream_summary", summaryItems)

	a := &App{
		eff:       eff,
		version:   version,
		commit:    commit,
		buildDate: buildDate,
		g:         g,
		evq:       evq,
		spool:     spool,
		evStop:    make(chan struct{}),
	}
	return a, nil
}

// Run starts the digest scheduler, resource sensor, activity worker and
// HTTP server, and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	a.printBanner()

	// start digest scheduler if enabled
	digest.SetSource(a.g)
	if cancel, err := digest.Start(ctx, a.eff, a.g); err != nil {
		return err
	} else {
		a.digestCancel = cancel
	}

	// start hardware sensor watching the data dir filesystem
	mon := sensor.MonitorConfig{
		PollInterval:   a.eff.Config.Sensor.Monitor.PollInterval.Duration(),
		DiskHighPct:    a.eff.Config.Sensor.Monitor.DiskHighPct,
		DiskLowPct:     a.eff.Config.Sensor.Monitor.DiskLowPct,
		MemHighPct:     a.eff.Config.Sensor.Monitor.MemHighPct,
		RecoveryWindow: a.eff.Config.Sensor.Monitor.RecoveryWindow.Duration(),
	}
	sensorObj := sensor.NewSensor(mon, state.PathsVar.Data)
	sensorObj.RegisterThrottleHandler(a.onThrottle)
	sensorObj.Start()
	a.hwSensor = sensorObj
	handlers.SetSensor(sensorObj)

	// drain the activity queue into the spool
	go a.evq.RunWorker(a.evStop, a.spool.Handle)

	errCh := a.startHTTP(ctx)

	select {
	case <-ctx.Done():
		// scheduler and sensor stop here; queue teardown happens in
		// Shutdown after the server stops producing events
		if a.digestCancel != nil {
			a.digestCancel()
		}
		if a.hwSensor != nil {
			a.hwSensor.Stop()
		}
		return nil
	case err := <-errCh:
		return err
	}
}

// onThrottle flips readiness when the sensor reports resource pressure.
func (a *App) onThrottle(req sensor.ThrottleRequest) {
	if req.Severity >= 1 {
		a.degraded.Store(true)
		logger.Warn("readiness_degraded", "source", req.Source, "reason", req.Reason)
		return
	}
	a.degraded.Store(false)
	logger.Info("readiness_restored", "source", req.Source, "reason", req.Reason)
}
