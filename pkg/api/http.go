// Package api assembles the HTTP router for the social graph service.
// Resource handlers live in pkg/api/handlers; this package only wires
// route groups, the admin subrouter and the SPA entry point together.
package api

import (
	"net/http"
	"os"

	"gramdb/pkg/api/handlers"
	"gramdb/pkg/utils"

	"github.com/gorilla/mux"
)

// indexFile is the SPA entry point served at the root.
const indexFile = "./static/index.html"

// Handler returns the routed handler for the full API surface.
// handlers.Configure must have been called first.
func Handler() http.Handler {
	r := mux.NewRouter()

	handlers.RegisterUsers(r)
	handlers.RegisterPosts(r)
	handlers.RegisterFollows(r)
	handlers.RegisterLikes(r)
	handlers.RegisterComments(r)
	handlers.RegisterFeed(r)
	handlers.RegisterExplore(r)

	admin := r.PathPrefix("/admin").Subrouter()
	handlers.RegisterAdmin(admin)

	r.HandleFunc("/", serveIndex).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		utils.JSONError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		utils.JSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

// serveIndex serves the bundled frontend at the root when present and
// falls back to a JSON endpoint index otherwise.
func serveIndex(w http.ResponseWriter, r *http.Request) {
	if _, err := os.Stat(indexFile); err == nil {
		http.ServeFile(w, r, indexFile)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"endpoints":["POST /users","GET /users/{id}","PUT /users/{id}","POST /posts","GET /posts/{id}","DELETE /posts/{id}","GET /users/{id}/posts","POST /users/{id}/follow/{target}","GET /users/{id}/followers","GET /users/{id}/following","POST /posts/{id}/like","GET /posts/{id}/likes","POST /posts/{id}/comments","GET /posts/{id}/comments","DELETE /comments/{id}","GET /feed/{id}","GET /explore","GET /explore/trending","GET /explore/hashtag/{tag}"]}`))
}
