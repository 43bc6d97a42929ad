package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
)

func newAdminRouter(t *testing.T) *mux.Router {
	t.Helper()
	r := newTestRouter(t)
	admin := r.PathPrefix("/admin").Subrouter()
	RegisterAdmin(admin)
	return r
}

func newRoleRequest(t *testing.T, method, path, role string) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("X-Role-Name", role)
	return req, httptest.NewRecorder()
}

func TestAdminRoleGate(t *testing.T) {
	r := newAdminRouter(t)

	for _, path := range []string{"/admin/health", "/admin/stats"} {
		rec := doJSON(t, r, "GET", path, nil)
		assert.Equal(t, 403, rec.Code, path)
		assert.Equal(t, "forbidden", decodeMap(t, rec)["error"], path)
	}

	rec := doJSON(t, r, "POST", "/admin/reset", nil)
	assert.Equal(t, 403, rec.Code)

	for _, role := range []string{"admin", "backend"} {
		req, rec := newRoleRequest(t, "GET", "/admin/health", role)
		r.ServeHTTP(rec, req)
		assert.Equal(t, 200, rec.Code, role)
	}

	req, rec := newRoleRequest(t, "GET", "/admin/stats", "frontend")
	r.ServeHTTP(rec, req)
	assert.Equal(t, 403, rec.Code)
}

func TestAdminHealth(t *testing.T) {
	r := newAdminRouter(t)

	req, rec := newRoleRequest(t, "GET", "/admin/health", "admin")
	r.ServeHTTP(rec, req)
	assert.Equal(t, 200, rec.Code)
	out := decodeMap(t, rec)
	assert.Equal(t, "ok", out["status"])
	assert.Equal(t, "gramdb", out["service"])
}

func TestAdminStats(t *testing.T) {
	r := newAdminRouter(t)
	alice := createUserT(t, r, "alice")
	bob := createUserT(t, r, "bob")
	post := createPostT(t, r, alice, "stats #counted")
	doJSON(t, r, "POST", "/users/"+bob+"/follow/"+alice, nil)
	doJSON(t, r, "POST", "/posts/"+post+"/like", map[string]string{"user_id": bob})
	doJSON(t, r, "POST", "/posts/"+post+"/comments", map[string]string{"user_id": bob, "text": "hi"})

	req, rec := newRoleRequest(t, "GET", "/admin/stats", "backend")
	r.ServeHTTP(rec, req)
	assert.Equal(t, 200, rec.Code)
	out := decodeMap(t, rec)

	g, ok := out["graph"].(map[string]interface{})
	assert.True(t, ok, "stats must include a graph section")
	assert.Equal(t, float64(2), g["users"])
	assert.Equal(t, float64(1), g["posts"])
	assert.Equal(t, float64(1), g["comments"])
	assert.Equal(t, float64(1), g["follow_edges"])
	assert.Equal(t, float64(1), g["like_edges"])
	assert.Equal(t, float64(1), g["hashtags"])

	ev, ok := out["events"].(map[string]interface{})
	assert.True(t, ok, "stats must include an events section")
	assert.Contains(t, ev, "len")
	assert.Contains(t, ev, "cap")
	assert.Contains(t, ev, "dropped")

	// no sensor wired in tests, so no host snapshot
	assert.NotContains(t, out, "system")
}

func TestAdminReset(t *testing.T) {
	r := newAdminRouter(t)
	alice := createUserT(t, r, "alice")
	post := createPostT(t, r, alice, "#doomed")

	req, rec := newRoleRequest(t, "POST", "/admin/reset", "admin")
	r.ServeHTTP(rec, req)
	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "Storage reset", decodeMap(t, rec)["detail"])

	assert.Equal(t, 404, doJSON(t, r, "GET", "/users/"+alice, nil).Code)
	assert.Equal(t, 404, doJSON(t, r, "GET", "/posts/"+post, nil).Code)

	req, rec = newRoleRequest(t, "GET", "/admin/stats", "admin")
	r.ServeHTTP(rec, req)
	g := decodeMap(t, rec)["graph"].(map[string]interface{})
	assert.Equal(t, float64(0), g["users"])
	assert.Equal(t, float64(0), g["posts"])
	assert.Equal(t, float64(0), g["hashtags"])

	// the reset graph accepts writes again, including the old username
	rec2 := doJSON(t, r, "POST", "/users", map[string]string{"username": "alice", "display_name": "Alice"})
	assert.Equal(t, 201, rec2.Code)
}
