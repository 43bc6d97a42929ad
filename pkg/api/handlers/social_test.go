package handlers

import "testing"

func TestFollowAndListings(t *testing.T) {
	r := newTestRouter(t)
	alice := createUserT(t, r, "alice")
	bob := createUserT(t, r, "bob")
	carol := createUserT(t, r, "carol")

	rec := doJSON(t, r, "POST", "/users/"+alice+"/follow/"+bob, nil)
	if rec.Code != 201 {
		t.Fatalf("expected 201 got %d (%s)", rec.Code, rec.Body.String())
	}
	if msg := decodeMap(t, rec)["detail"]; msg != "Followed successfully" {
		t.Fatalf("unexpected ack: %v", msg)
	}
	doJSON(t, r, "POST", "/users/"+carol+"/follow/"+bob, nil)

	rec = doJSON(t, r, "GET", "/users/"+bob+"/followers", nil)
	if rec.Code != 200 {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	followers := decodeList(t, rec)
	if len(followers) != 2 {
		t.Fatalf("expected 2 followers got %d", len(followers))
	}
	seen := map[string]bool{}
	for _, p := range followers {
		seen[p["id"].(string)] = true
	}
	if !seen[alice] || !seen[carol] {
		t.Fatalf("unexpected follower set: %v", seen)
	}

	rec = doJSON(t, r, "GET", "/users/"+alice+"/following", nil)
	following := decodeList(t, rec)
	if len(following) != 1 || following[0]["id"] != bob {
		t.Fatalf("unexpected following list: %v", following)
	}
	if following[0]["username"] != "bob" {
		t.Fatalf("listing should carry full profiles: %v", following[0])
	}

	rec = doJSON(t, r, "GET", "/users/"+bob+"/following", nil)
	if list := decodeList(t, rec); len(list) != 0 {
		t.Fatalf("bob follows nobody, got %v", list)
	}
}

func TestFollowRejections(t *testing.T) {
	r := newTestRouter(t)
	alice := createUserT(t, r, "alice")
	bob := createUserT(t, r, "bob")

	rec := doJSON(t, r, "POST", "/users/"+alice+"/follow/"+alice, nil)
	if rec.Code != 400 {
		t.Fatalf("self-follow: expected 400 got %d", rec.Code)
	}
	if msg := decodeMap(t, rec)["error"]; msg != "Cannot follow yourself" {
		t.Fatalf("unexpected error message: %v", msg)
	}

	rec = doJSON(t, r, "POST", "/users/"+alice+"/follow/user-ghost", nil)
	if rec.Code != 404 {
		t.Fatalf("unknown target: expected 404 got %d", rec.Code)
	}
	if msg := decodeMap(t, rec)["error"]; msg != "Target user not found" {
		t.Fatalf("unexpected error message: %v", msg)
	}

	rec = doJSON(t, r, "POST", "/users/user-ghost/follow/"+bob, nil)
	if rec.Code != 404 {
		t.Fatalf("unknown follower: expected 404 got %d", rec.Code)
	}
	if msg := decodeMap(t, rec)["error"]; msg != "User not found" {
		t.Fatalf("unexpected error message: %v", msg)
	}

	doJSON(t, r, "POST", "/users/"+alice+"/follow/"+bob, nil)
	rec = doJSON(t, r, "POST", "/users/"+alice+"/follow/"+bob, nil)
	if rec.Code != 409 {
		t.Fatalf("duplicate follow: expected 409 got %d", rec.Code)
	}
	if msg := decodeMap(t, rec)["error"]; msg != "Already following this user" {
		t.Fatalf("unexpected error message: %v", msg)
	}
}

func TestUnfollow(t *testing.T) {
	r := newTestRouter(t)
	alice := createUserT(t, r, "alice")
	bob := createUserT(t, r, "bob")

	rec := doJSON(t, r, "DELETE", "/users/"+alice+"/follow/"+bob, nil)
	if rec.Code != 404 {
		t.Fatalf("unfollow without edge: expected 404 got %d", rec.Code)
	}
	if msg := decodeMap(t, rec)["error"]; msg != "Not following this user" {
		t.Fatalf("unexpected error message: %v", msg)
	}

	doJSON(t, r, "POST", "/users/"+alice+"/follow/"+bob, nil)
	rec = doJSON(t, r, "DELETE", "/users/"+alice+"/follow/"+bob, nil)
	if rec.Code != 200 {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if msg := decodeMap(t, rec)["detail"]; msg != "Unfollowed successfully" {
		t.Fatalf("unexpected ack: %v", msg)
	}

	// both sides of the edge are gone
	rec = doJSON(t, r, "GET", "/users/"+bob+"/followers", nil)
	if list := decodeList(t, rec); len(list) != 0 {
		t.Fatalf("follower set not cleared: %v", list)
	}
	rec = doJSON(t, r, "GET", "/users/"+alice, nil)
	if out := decodeMap(t, rec); out["following_count"].(float64) != 0 {
		t.Fatalf("following_count not decremented: %v", out)
	}
}

func TestLikeLifecycle(t *testing.T) {
	r := newTestRouter(t)
	alice := createUserT(t, r, "alice")
	bob := createUserT(t, r, "bob")
	post := createPostT(t, r, alice, "likeable")

	rec := doJSON(t, r, "POST", "/posts/"+post+"/like", map[string]string{"user_id": bob})
	if rec.Code != 201 {
		t.Fatalf("expected 201 got %d (%s)", rec.Code, rec.Body.String())
	}
	if msg := decodeMap(t, rec)["detail"]; msg != "Post liked" {
		t.Fatalf("unexpected ack: %v", msg)
	}

	rec = doJSON(t, r, "POST", "/posts/"+post+"/like", map[string]string{"user_id": bob})
	if rec.Code != 409 {
		t.Fatalf("double like: expected 409 got %d", rec.Code)
	}
	if msg := decodeMap(t, rec)["error"]; msg != "Post already liked by this user" {
		t.Fatalf("unexpected error message: %v", msg)
	}

	rec = doJSON(t, r, "GET", "/posts/"+post+"/likes", nil)
	if rec.Code != 200 {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	likers := decodeList(t, rec)
	if len(likers) != 1 || likers[0]["id"] != bob {
		t.Fatalf("unexpected likers: %v", likers)
	}

	rec = doJSON(t, r, "DELETE", "/posts/"+post+"/like?user_id="+bob, nil)
	if rec.Code != 200 {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
	if msg := decodeMap(t, rec)["detail"]; msg != "Post unliked" {
		t.Fatalf("unexpected ack: %v", msg)
	}

	rec = doJSON(t, r, "DELETE", "/posts/"+post+"/like?user_id="+bob, nil)
	if rec.Code != 404 {
		t.Fatalf("unlike twice: expected 404 got %d", rec.Code)
	}
	if msg := decodeMap(t, rec)["error"]; msg != "Like not found" {
		t.Fatalf("unexpected error message: %v", msg)
	}
}

func TestLikeRejections(t *testing.T) {
	r := newTestRouter(t)
	alice := createUserT(t, r, "alice")
	post := createPostT(t, r, alice, "x")

	rec := doJSON(t, r, "POST", "/posts/post-ghost/like", map[string]string{"user_id": alice})
	if rec.Code != 404 {
		t.Fatalf("unknown post: expected 404 got %d", rec.Code)
	}
	if msg := decodeMap(t, rec)["error"]; msg != "Post not found" {
		t.Fatalf("unexpected error message: %v", msg)
	}

	rec = doJSON(t, r, "POST", "/posts/"+post+"/like", map[string]string{"user_id": "user-ghost"})
	if rec.Code != 404 {
		t.Fatalf("unknown liker: expected 404 got %d", rec.Code)
	}

	rec = doJSON(t, r, "POST", "/posts/"+post+"/like", map[string]string{})
	if rec.Code != 422 {
		t.Fatalf("missing user_id: expected 422 got %d", rec.Code)
	}

	rec = doJSON(t, r, "DELETE", "/posts/"+post+"/like", nil)
	if rec.Code != 422 {
		t.Fatalf("unlike without query param: expected 422 got %d", rec.Code)
	}
	if msg := decodeMap(t, rec)["error"]; msg != "required query parameter missing: user_id" {
		t.Fatalf("unexpected error message: %v", msg)
	}
}
