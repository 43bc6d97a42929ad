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

// RegisterUsers registers the account routes onto the provided router.
func RegisterUsers(r *mux.Router) {
	r.HandleFunc("/users", createUser).Methods(http.MethodPost)
	r.HandleFunc("/users/{id}", getUser).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}", updateUser).Methods(http.MethodPut)
}

// createUser handles POST /users to register a new account.
// The username must be unique; 409 when it is already taken.
func createUser(w http.ResponseWriter, r *http.Request) {
	telemetry.SetRequestOp(r.Context(), "create_user")

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
	if err := validation.Validate(validation.KindUser, fields); err != nil {
		utils.JSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	var in models.UserCreate
	_ = json.Unmarshal(body, &in)

	prof, err := gr.CreateUser(in)
	if err != nil {
		writeGraphError(w, err)
		return
	}
	publish("create_user", events.EvUserCreated, prof.ID, prof.ID, prof)
	_ = utils.JSONWrite(w, http.StatusCreated, prof)
}

// getUser handles GET /users/{id} to fetch a profile with derived
// follower/following/post counts. 404 when the user does not exist.
func getUser(w http.ResponseWriter, r *http.Request) {
	telemetry.SetRequestOp(r.Context(), "get_user")

	prof, err := gr.GetUser(mux.Vars(r)["id"])
	if err != nil {
		writeGraphError(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, prof)
}

// updateUser handles PUT /users/{id} to apply a partial profile edit.
// Only fields present and non-null in the body overwrite; the username
// is immutable. 404 when the user does not exist.
func updateUser(w http.ResponseWriter, r *http.Request) {
	telemetry.SetRequestOp(r.Context(), "update_user")

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
	if err := validation.Validate(validation.KindUserUpdate, fields); err != nil {
		utils.JSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	var in models.UserUpdate
	_ = json.Unmarshal(body, &in)

	prof, err := gr.UpdateUser(mux.Vars(r)["id"], in)
	if err != nil {
		writeGraphError(w, err)
		return
	}
	publish("update_user", events.EvUserUpdated, prof.ID, prof.ID, prof)
	_ = utils.JSONWrite(w, http.StatusOK, prof)
}
