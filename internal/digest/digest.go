// Package digest runs the periodic activity digest: on a cron schedule
// it snapshots graph statistics and emits them through the normal and
// audit log sinks so operators get a heartbeat of data growth without
// scraping metrics.
package digest

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"gramdb/pkg/config"
	"gramdb/pkg/graph"
	"gramdb/pkg/logger"
)

var storedGraph *graph.Graph

// SetSource stores the graph so tests (or admin triggers) can invoke
// digest runs on-demand.
func SetSource(g *graph.Graph) {
	storedGraph = g
}

// RunImmediate triggers a single digest run against the stored graph.
// Returns an error if no graph was registered.
func RunImmediate() error {
	if storedGraph == nil {
		return fmt.Errorf("no graph registered for digest run")
	}
	runOnce(storedGraph)
	return nil
}

// Start starts the digest scheduler if enabled. Returns a cancel func.
func Start(ctx context.Context, eff config.EffectiveConfigResult, g *graph.Graph) (context.CancelFunc, error) {
	dig := eff.Config.Digest

	// if the digest is not enabled, return no-op cancel
	if !dig.Enabled {
		logger.Info("digest_disabled")
		return func() {}, nil
	}

	// map empty cron to the hourly default
	cronExpr := dig.Cron
	if cronExpr == "" {
		cronExpr = "0 * * * *"
	}
	// validate cron expression using gronx
	if !gronx.IsValid(cronExpr) {
		logger.Error("digest_invalid_cron", "cron", dig.Cron)
		return nil, fmt.Errorf("invalid digest cron expression: %s", dig.Cron)
	}

	logger.Info("digest_enabled", "cron", cronExpr)
	ctx2, cancel := context.WithCancel(ctx)

	go runScheduler(ctx2, g, cronExpr)

	logger.Info("digest_scheduler_started")
	return cancel, nil
}

// runScheduler uses gronx to compute the next tick for the configured
// cron expression and sleeps until that time.
func runScheduler(ctx context.Context, g *graph.Graph, cronExpr string) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("digest_scheduler_stopping")
			return
		default:
		}

		// compute next tick after now (UTC). allowCurrent=false so we get the
		// next future tick.
		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("digest_nexttick_failed", "cron", cronExpr, "error", err)
			// fallback sleep then retry
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				logger.Info("digest_scheduler_stopping")
				return
			}
			continue
		}

		wait := time.Until(next)
		if wait <= 0 {
			// due now-ish; run immediately
			runOnce(g)
			// small sleep to avoid tight loop
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				logger.Info("digest_scheduler_stopping")
				return
			}
			continue
		}

		// wait until the exact next tick or cancellation
		select {
		case <-time.After(wait):
			runOnce(g)
		case <-ctx.Done():
			logger.Info("digest_scheduler_stopping")
			return
		}
	}
}

// runOnce snapshots graph statistics and emits them to the log sinks.
func runOnce(g *graph.Graph) {
	s := g.Stats()
	logger.Info("digest_stats",
		"users", s.Users,
		"posts", s.Posts,
		"comments", s.Comments,
		"follow_edges", s.FollowEdges,
		"like_edges", s.LikeEdges,
		"hashtags", s.Hashtags,
	)
	if logger.Audit != nil {
		logger.Audit.Info("activity_digest",
			"users", s.Users,
			"posts", s.Posts,
			"comments", s.Comments,
			"follow_edges", s.FollowEdges,
			"like_edges", s.LikeEdges,
			"hashtags", s.Hashtags,
		)
	}
}
