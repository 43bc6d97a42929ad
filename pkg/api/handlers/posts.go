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

// RegisterPosts registers the post routes onto the provided router.
func RegisterPosts(r *mux.Router) {
	r.HandleFunc("/posts", createPost).Methods(http.MethodPost)
	r.HandleFunc("/posts/{id}", getPost).Methods(http.MethodGet)
	r.HandleFunc("/posts/{id}", deletePost).Methods(http.MethodDelete)

	// Authored-posts listing lives under the user resource.
	r.HandleFunc("/users/{id}/posts", listUserPosts).Methods(http.MethodGet)
}

// createPost handles POST /posts to publish a new image or video post.
// Hashtags are extracted from the caption and indexed lowercased.
// 404 when the authoring user does not exist.
func createPost(w http.ResponseWriter, r *http.Request) {
	telemetry.SetRequestOp(r.Context(), "create_post")

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
	if err := validation.Validate(validation.KindPost, fields); err != nil {
		utils.JSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	var in models.PostCreate
	_ = json.Unmarshal(body, &in)

	end := telemetry.StartSpan(r.Context(), "graph.create_post")
	view, err := gr.CreatePost(in)
	end()
	if err != nil {
		writeGraphError(w, err)
		return
	}
	telemetry.SetSpanData(r.Context(), "post_id", view.ID)
	publish("create_post", events.EvPostCreated, view.AuthorID, view.ID, view)
	_ = utils.JSONWrite(w, http.StatusCreated, view)
}

// getPost handles GET /posts/{id}. 404 when the post does not exist.
func getPost(w http.ResponseWriter, r *http.Request) {
	telemetry.SetRequestOp(r.Context(), "get_post")

	view, err := gr.GetPost(mux.Vars(r)["id"])
	if err != nil {
		writeGraphError(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, view)
}

// listUserPosts handles GET /users/{id}/posts to list a user's posts
// newest first. 404 when the user does not exist.
func listUserPosts(w http.ResponseWriter, r *http.Request) {
	telemetry.SetRequestOp(r.Context(), "list_user_posts")

	views, err := gr.UserPosts(mux.Vars(r)["id"])
	if err != nil {
		writeGraphError(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, views)
}

// deletePost handles DELETE /posts/{id}. The delete cascades over the
// post's likes, comments and hashtag index entries in one operation.
// 404 when the post does not exist.
func deletePost(w http.ResponseWriter, r *http.Request) {
	telemetry.SetRequestOp(r.Context(), "delete_post")

	id := mux.Vars(r)["id"]
	if err := gr.DeletePost(id); err != nil {
		writeGraphError(w, err)
		return
	}
	publish("delete_post", events.EvPostDeleted, "", id, nil)
	utils.JSONDetail(w, http.StatusOK, "Post deleted")
}
