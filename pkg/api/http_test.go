package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"gramdb/pkg/api/handlers"
	"gramdb/pkg/events"
	"gramdb/pkg/graph"
)

func newHandler(t *testing.T) http.Handler {
	t.Helper()
	q := events.NewQueue(64)
	t.Cleanup(q.CloseAndDrain)
	handlers.Configure(graph.New(), q)
	handlers.SetExploreLimits(20, 100)
	return Handler()
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
	return rec
}

func TestRouterFallbacks(t *testing.T) {
	h := newHandler(t)

	rec := get(t, h, "/nope")
	if rec.Code != 404 {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
	var out map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["error"] != "not found" {
		t.Fatalf("unexpected body: %v", out)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("PATCH", "/users/user-x", nil))
	if rec.Code != 405 {
		t.Fatalf("expected 405 got %d", rec.Code)
	}
	out = map[string]string{}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["error"] != "method not allowed" {
		t.Fatalf("unexpected body: %v", out)
	}
}

// Without a bundled frontend on disk the root serves a JSON endpoint
// index instead.
func TestRootEndpointIndex(t *testing.T) {
	h := newHandler(t)

	rec := get(t, h, "/")
	if rec.Code != 200 {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" && !bytes.Contains([]byte(ct), []byte("html")) {
		t.Fatalf("unexpected content type %q", ct)
	}
}

// End-to-end pass through the assembled router: write through every
// resource group, then read the views back.
func TestHandlerFullSurface(t *testing.T) {
	h := newHandler(t)

	post := func(path string, body map[string]string) *httptest.ResponseRecorder {
		b, _ := json.Marshal(body)
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
		h.ServeHTTP(rec, req)
		return rec
	}
	decode := func(rec *httptest.ResponseRecorder) map[string]interface{} {
		var m map[string]interface{}
		if err := json.NewDecoder(rec.Body).Decode(&m); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return m
	}

	rec := post("/users", map[string]string{"username": "ana", "display_name": "Ana"})
	if rec.Code != 201 {
		t.Fatalf("create user: %d (%s)", rec.Code, rec.Body.String())
	}
	ana := decode(rec)["id"].(string)
	rec = post("/users", map[string]string{"username": "ben", "display_name": "Ben"})
	ben := decode(rec)["id"].(string)

	if rec = post("/users/"+ana+"/follow/"+ben, nil); rec.Code != 201 {
		t.Fatalf("follow: %d", rec.Code)
	}
	rec = post("/posts", map[string]string{
		"user_id": ben, "media_url": "https://cdn.example/p.jpg", "media_type": "image", "caption": "#smoke",
	})
	if rec.Code != 201 {
		t.Fatalf("create post: %d", rec.Code)
	}
	postID := decode(rec)["id"].(string)

	if rec = post("/posts/"+postID+"/like", map[string]string{"user_id": ana}); rec.Code != 201 {
		t.Fatalf("like: %d", rec.Code)
	}
	if rec = post("/posts/"+postID+"/comments", map[string]string{"user_id": ana, "text": "hi"}); rec.Code != 201 {
		t.Fatalf("comment: %d", rec.Code)
	}

	rec = get(t, h, "/feed/"+ana)
	var feed []map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&feed); err != nil {
		t.Fatalf("decode feed: %v", err)
	}
	if len(feed) != 1 || feed[0]["id"] != postID {
		t.Fatalf("unexpected feed: %v", feed)
	}
	if feed[0]["like_count"].(float64) != 1 || feed[0]["comment_count"].(float64) != 1 {
		t.Fatalf("derived counts wrong: %v", feed[0])
	}

	rec = get(t, h, "/explore/hashtag/smoke")
	var tagged []map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&tagged); err != nil {
		t.Fatalf("decode tagged: %v", err)
	}
	if len(tagged) != 1 {
		t.Fatalf("hashtag index missed the post: %v", tagged)
	}

	// admin surface hangs off the same router
	rec = httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/admin/stats", nil)
	req.Header.Set("X-Role-Name", "admin")
	h.ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("admin stats: %d", rec.Code)
	}
	stats := decode(rec)
	g := stats["graph"].(map[string]interface{})
	if g["users"].(float64) != 2 || g["posts"].(float64) != 1 {
		t.Fatalf("unexpected stats: %v", g)
	}
}
