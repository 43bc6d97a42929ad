package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"gramdb/pkg/telemetry"
	"gramdb/pkg/utils"

	"github.com/gorilla/mux"
)

// RegisterExplore registers the discovery routes onto the provided
// router. Tag lookups live under /explore/hashtag/ so a tag literally
// named "trending" stays reachable.
func RegisterExplore(r *mux.Router) {
	r.HandleFunc("/explore", exploreRecent).Methods(http.MethodGet)
	r.HandleFunc("/explore/trending", exploreTrending).Methods(http.MethodGet)
	r.HandleFunc("/explore/hashtag/{tag}", exploreByHashtag).Methods(http.MethodGet)
}

// exploreRecent handles GET /explore?limit=N: the newest posts across
// all users. The limit defaults per config and is rejected with 422
// outside [1, max].
func exploreRecent(w http.ResponseWriter, r *http.Request) {
	telemetry.SetRequestOp(r.Context(), "explore")

	limit := exploreDefaultLimit
	if limStr := r.URL.Query().Get("limit"); limStr != "" {
		n, err := strconv.Atoi(limStr)
		if err != nil {
			utils.JSONError(w, http.StatusUnprocessableEntity, "limit must be an integer")
			return
		}
		if n < 1 || n > exploreMaxLimit {
			utils.JSONError(w, http.StatusUnprocessableEntity,
				fmt.Sprintf("limit must be between 1 and %d", exploreMaxLimit))
			return
		}
		limit = n
	}
	_ = utils.JSONWrite(w, http.StatusOK, gr.Recent(limit))
}

// exploreTrending handles GET /explore/trending: the top hashtags
// ranked by live post count. Tags no live post carries are excluded.
func exploreTrending(w http.ResponseWriter, r *http.Request) {
	telemetry.SetRequestOp(r.Context(), "trending")

	_ = utils.JSONWrite(w, http.StatusOK, gr.Trending())
}

// exploreByHashtag handles GET /explore/hashtag/{tag}, newest first.
// Lookup is case-insensitive; an unknown tag yields an empty list, not
// an error.
func exploreByHashtag(w http.ResponseWriter, r *http.Request) {
	telemetry.SetRequestOp(r.Context(), "hashtag")

	_ = utils.JSONWrite(w, http.StatusOK, gr.TaggedPosts(mux.Vars(r)["tag"]))
}
