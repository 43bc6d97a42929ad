// Package handlers implements the REST surface over the social graph:
// one file per resource, each exposing a RegisterX function that wires
// its routes onto the shared router. Handlers decode and validate the
// payload, call exactly one graph operation, then map the outcome onto
// the wire protocol (status code plus {"error"} or {"detail"} body).
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"gramdb/pkg/events"
	"gramdb/pkg/graph"
	"gramdb/pkg/logger"
	"gramdb/pkg/metrics"
	"gramdb/pkg/utils"
)

// maxBodyBytes caps request bodies read by handlers.
const maxBodyBytes = 1 << 20 // 1 MiB

var (
	gr  *graph.Graph
	evq *events.Queue

	exploreDefaultLimit = 20
	exploreMaxLimit     = 100
)

// Configure injects the shared graph and event queue used by all
// handlers. Must be called before the router serves traffic.
func Configure(g *graph.Graph, q *events.Queue) {
	gr = g
	evq = q
}

// SetExploreLimits overrides the default and maximum values accepted by
// the explore feed's limit parameter.
func SetExploreLimits(def, max int) {
	if def > 0 {
		exploreDefaultLimit = def
	}
	if max > 0 {
		exploreMaxLimit = max
	}
}

// readBody drains the request body up to maxBodyBytes.
func readBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
}

// decodeFields parses the body into a generic JSON object so validation
// can distinguish missing fields from explicit nulls from empty strings.
func decodeFields(body []byte) (map[string]interface{}, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// statusForGraphErr maps graph sentinel errors to HTTP status codes.
func statusForGraphErr(err error) int {
	switch {
	case errors.Is(err, graph.ErrUserNotFound),
		errors.Is(err, graph.ErrTargetNotFound),
		errors.Is(err, graph.ErrPostNotFound),
		errors.Is(err, graph.ErrCommentNotFound),
		errors.Is(err, graph.ErrLikeNotFound),
		errors.Is(err, graph.ErrNotFollowing):
		return http.StatusNotFound
	case errors.Is(err, graph.ErrUsernameTaken),
		errors.Is(err, graph.ErrAlreadyFollowing),
		errors.Is(err, graph.ErrAlreadyLiked):
		return http.StatusConflict
	case errors.Is(err, graph.ErrSelfFollow):
		return http.StatusBadRequest
	case errors.Is(err, graph.ErrBlankComment):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeGraphError renders a graph operation failure. Sentinel messages
// are wire strings and pass through verbatim.
func writeGraphError(w http.ResponseWriter, err error) {
	utils.JSONError(w, statusForGraphErr(err), err.Error())
}

// publish records an accepted mutation on the event queue and bumps the
// mutation counter. Queue pressure drops the event rather than blocking
// the request path.
func publish(op string, typ events.EventType, actor, subject string, entity interface{}) {
	metrics.IncMutation(op)
	if evq == nil {
		return
	}
	var payload []byte
	if entity != nil {
		payload, _ = json.Marshal(entity)
	}
	ts := time.Now().UTC().UnixNano()
	if err := evq.TryEnqueueBytes(typ, actor, subject, payload, ts); err != nil {
		logger.Warn("event_enqueue_dropped", "type", string(typ), "subject", subject, "error", err)
	}
}
