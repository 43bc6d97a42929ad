package handlers

import (
	"encoding/json"
	"net/http"

	"gramdb/pkg/events"
	"gramdb/pkg/models"
	"gramdb/pkg/telemetry"
	"gramdb/pkg/utils"
	"gramdb/pkg/validation"

	"github.com/gorilla/mux"
)

// RegisterLikes registers the like-edge routes onto the provided
// router.
func RegisterLikes(r *mux.Router) {
	r.HandleFunc("/posts/{id}/like", likePost).Methods(http.MethodPost)
	r.HandleFunc("/posts/{id}/like", unlikePost).Methods(http.MethodDelete)
	r.HandleFunc("/posts/{id}/likes", listLikers).Methods(http.MethodGet)
}

// likePost handles POST /posts/{id}/like with a {"user_id"} body.
// 404 on unknown post or user, 409 when the user already liked it.
func likePost(w http.ResponseWriter, r *http.Request) {
	telemetry.SetRequestOp(r.Context(), "like")

	body, err := readBody(r)
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid body")
		return
	}
	fields, err := decodeFields(body)
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := validation.Validate(validation.KindLike, fields); err != nil {
		utils.JSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	var in models.LikeAction
	_ = json.Unmarshal(body, &in)

	postID := mux.Vars(r)["id"]
	if err := gr.Like(postID, in.UserID); err != nil {
		writeGraphError(w, err)
		return
	}
	publish("like", events.EvPostLiked, in.UserID, postID, nil)
	utils.JSONDetail(w, http.StatusCreated, "Post liked")
}

// unlikePost handles DELETE /posts/{id}/like?user_id=... The acting
// user travels as a query parameter, not a body. 404 when the post is
// unknown or the like edge does not exist.
func unlikePost(w http.ResponseWriter, r *http.Request) {
	telemetry.SetRequestOp(r.Context(), "unlike")

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		utils.JSONError(w, http.StatusUnprocessableEntity, "required query parameter missing: user_id")
		return
	}
	postID := mux.Vars(r)["id"]
	if err := gr.Unlike(postID, userID); err != nil {
		writeGraphError(w, err)
		return
	}
	publish("unlike", events.EvPostUnliked, userID, postID, nil)
	utils.JSONDetail(w, http.StatusOK, "Post unliked")
}

// listLikers handles GET /posts/{id}/likes. 404 when the post does not
// exist.
func listLikers(w http.ResponseWriter, r *http.Request) {
	telemetry.SetRequestOp(r.Context(), "list_likers")

	profs, err := gr.Likers(mux.Vars(r)["id"])
	if err != nil {
		writeGraphError(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, profs)
}
