package handlers

import (
	"net/http"

	"gramdb/pkg/events"
	"gramdb/pkg/graph"
	"gramdb/pkg/logger"
	"gramdb/pkg/sensor"
	"gramdb/pkg/utils"

	"github.com/gorilla/mux"
)

var sens *sensor.Sensor

// SetSensor wires the hardware sensor into the admin stats endpoint.
// Optional; stats omit the system section when unset.
func SetSensor(s *sensor.Sensor) { sens = s }

// RegisterAdmin registers admin-only routes onto the admin subrouter.
func RegisterAdmin(r *mux.Router) {
	r.HandleFunc("/health", adminHealth).Methods(http.MethodGet)
	r.HandleFunc("/stats", adminStats).Methods(http.MethodGet)
	r.HandleFunc("/reset", adminReset).Methods(http.MethodPost)
	logger.Info("admin_routes_registered")
}

func adminHealth(w http.ResponseWriter, r *http.Request) {
	if !isAdmin(r) {
		utils.JSONError(w, http.StatusForbidden, "forbidden")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok","service":"gramdb"}`))
}

// adminStats reports graph sizes, event queue pressure and, when the
// sensor is wired, a host snapshot.
func adminStats(w http.ResponseWriter, r *http.Request) {
	if !isAdmin(r) {
		utils.JSONError(w, http.StatusForbidden, "forbidden")
		return
	}
	out := struct {
		Graph  graph.Stats      `json:"graph"`
		Events *queueStats      `json:"events,omitempty"`
		System *sensor.Snapshot `json:"system,omitempty"`
	}{Graph: gr.Stats()}
	if evq != nil {
		out.Events = &queueStats{Len: evq.Len(), Cap: evq.Cap(), Dropped: evq.Dropped()}
	}
	if sens != nil {
		snap := sens.Snapshot()
		out.System = &snap
	}
	_ = utils.JSONWrite(w, http.StatusOK, out)
}

type queueStats struct {
	Len     int    `json:"len"`
	Cap     int    `json:"cap"`
	Dropped uint64 `json:"dropped"`
}

// adminReset drops every record and index, returning the service to its
// empty startup state.
func adminReset(w http.ResponseWriter, r *http.Request) {
	if !isAdmin(r) {
		utils.JSONError(w, http.StatusForbidden, "forbidden")
		return
	}
	gr.Reset()
	publish("reset", events.EvGraphReset, "", "", nil)
	logger.Info("graph_reset")
	utils.JSONDetail(w, http.StatusOK, "Storage reset")
}

// isAdmin checks if the request is from an admin or backend.
func isAdmin(r *http.Request) bool {
	role := r.Header.Get("X-Role-Name")
	return role == "admin" || role == "backend"
}
