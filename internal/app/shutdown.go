package app

import (
	"context"

	"gramdb/pkg/logger"
	"gramdb/pkg/telemetry"
)

// Shutdown performs graceful teardown of all app components. The HTTP
// server stops first so no handler can enqueue into a closed queue.
func (a *App) Shutdown(ctx context.Context) error {
	a.state = "shutting_down"
	logger.Info("shutdown_requested")

	// stop accepting new requests
	if a.srv != nil {
		logger.Info("shutdown_stopping_http")
		if err := a.srv.Shutdown(ctx); err != nil {
			logger.Error("shutdown_http_error", "error", err)
		}
	}

	// stop the activity worker and release any still-queued events
	a.evStopOnce.Do(func() { close(a.evStop) })
	if a.evq != nil {
		logger.Info("shutdown_draining_events", "pending", a.evq.Len(), "dropped", a.evq.Dropped())
		a.evq.CloseAndDrain()
	}
	if a.spool != nil {
		logger.Info("shutdown_closing_spool")
		if err := a.spool.Close(); err != nil {
			logger.Error("shutdown_spool_error", "error", err)
		}
	}

	// flush telemetry
	logger.Info("shutdown_closing_telemetry")
	telemetry.Close()

	logger.Info("shutdown_complete")
	a.state = "stopped"
	return nil
}
