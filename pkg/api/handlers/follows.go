package handlers

import (
	"net/http"

	"gramdb/pkg/events"
	"gramdb/pkg/telemetry"
	"gramdb/pkg/utils"

	"github.com/gorilla/mux"
)

// RegisterFollows registers the follow-edge routes onto the provided
// router.
func RegisterFollows(r *mux.Router) {
	r.HandleFunc("/users/{id}/follow/{target}", followUser).Methods(http.MethodPost)
	r.HandleFunc("/users/{id}/follow/{target}", unfollowUser).Methods(http.MethodDelete)
	r.HandleFunc("/users/{id}/followers", listFollowers).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}/following", listFollowing).Methods(http.MethodGet)
}

// followUser handles POST /users/{id}/follow/{target}. Both sides of
// the follow relation are updated together. 400 on self-follow, 404 on
// unknown user or target, 409 when the edge already exists.
func followUser(w http.ResponseWriter, r *http.Request) {
	telemetry.SetRequestOp(r.Context(), "follow")

	vars := mux.Vars(r)
	userID, targetID := vars["id"], vars["target"]
	if err := gr.Follow(userID, targetID); err != nil {
		writeGraphError(w, err)
		return
	}
	publish("follow", events.EvFollowed, userID, targetID, nil)
	utils.JSONDetail(w, http.StatusCreated, "Followed successfully")
}

// unfollowUser handles DELETE /users/{id}/follow/{target}. 404 when
// either user is unknown or the edge does not exist.
func unfollowUser(w http.ResponseWriter, r *http.Request) {
	telemetry.SetRequestOp(r.Context(), "unfollow")

	vars := mux.Vars(r)
	userID, targetID := vars["id"], vars["target"]
	if err := gr.Unfollow(userID, targetID); err != nil {
		writeGraphError(w, err)
		return
	}
	publish("unfollow", events.EvUnfollowed, userID, targetID, nil)
	utils.JSONDetail(w, http.StatusOK, "Unfollowed successfully")
}

// listFollowers handles GET /users/{id}/followers. 404 when the user
// does not exist.
func listFollowers(w http.ResponseWriter, r *http.Request) {
	telemetry.SetRequestOp(r.Context(), "list_followers")

	profs, err := gr.Followers(mux.Vars(r)["id"])
	if err != nil {
		writeGraphError(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, profs)
}

// listFollowing handles GET /users/{id}/following. 404 when the user
// does not exist.
func listFollowing(w http.ResponseWriter, r *http.Request) {
	telemetry.SetRequestOp(r.Context(), "list_following")

	profs, err := gr.Following(mux.Vars(r)["id"])
	if err != nil {
		writeGraphError(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, profs)
}
