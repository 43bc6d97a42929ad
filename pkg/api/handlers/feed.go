package handlers

import (
	"net/http"

	"gramdb/pkg/telemetry"
	"gramdb/pkg/utils"

	"github.com/gorilla/mux"
)

// RegisterFeed registers the personalised feed route onto the provided
// router.
func RegisterFeed(r *mux.Router) {
	r.HandleFunc("/feed/{id}", getFeed).Methods(http.MethodGet)
}

// getFeed handles GET /feed/{id}: posts authored by users that {id}
// follows, newest first, never the user's own posts. A user who follows
// nobody gets an empty list. 404 when the user does not exist.
func getFeed(w http.ResponseWriter, r *http.Request) {
	telemetry.SetRequestOp(r.Context(), "feed")

	views, err := gr.Feed(mux.Vars(r)["id"])
	if err != nil {
		writeGraphError(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, views)
}
