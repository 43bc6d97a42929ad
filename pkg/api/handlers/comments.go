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

// RegisterComments registers the comment routes onto the provided
// router.
func RegisterComments(r *mux.Router) {
	r.HandleFunc("/posts/{id}/comments", createComment).Methods(http.MethodPost)
	r.HandleFunc("/posts/{id}/comments", listComments).Methods(http.MethodGet)
	r.HandleFunc("/comments/{id}", deleteComment).Methods(http.MethodDelete)
}

// createComment handles POST /posts/{id}/comments. Blank text is
// rejected with 422 before existence checks run; 404 on unknown post or
// user.
func createComment(w http.ResponseWriter, r *http.Request) {
	telemetry.SetRequestOp(r.Context(), "create_comment")

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
	if err := validation.Validate(validation.KindComment, fields); err != nil {
		utils.JSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	var in models.CommentCreate
	_ = json.Unmarshal(body, &in)

	c, err := gr.CreateComment(mux.Vars(r)["id"], in)
	if err != nil {
		writeGraphError(w, err)
		return
	}
	publish("create_comment", events.EvCommentCreated, c.AuthorID, c.ID, c)
	_ = utils.JSONWrite(w, http.StatusCreated, c)
}

// listComments handles GET /posts/{id}/comments, oldest first. 404 when
// the post does not exist.
func listComments(w http.ResponseWriter, r *http.Request) {
	telemetry.SetRequestOp(r.Context(), "list_comments")

	cs, err := gr.Comments(mux.Vars(r)["id"])
	if err != nil {
		writeGraphError(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, cs)
}

// deleteComment handles DELETE /comments/{id}. The comment is removed
// from its post's ordered sequence as well; a parent post that was
// already cascade-deleted is tolerated. 404 when the comment does not
// exist.
func deleteComment(w http.ResponseWriter, r *http.Request) {
	telemetry.SetRequestOp(r.Context(), "delete_comment")

	id := mux.Vars(r)["id"]
	if err := gr.DeleteComment(id); err != nil {
		writeGraphError(w, err)
		return
	}
	publish("delete_comment", events.EvCommentDeleted, "", id, nil)
	utils.JSONDetail(w, http.StatusOK, "Comment deleted")
}
