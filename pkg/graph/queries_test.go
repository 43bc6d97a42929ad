package graph

import (
	"errors"
	"fmt"
	"sort"
	"testing"

	"gramdb/pkg/models"
)

func TestFeedExclusionAndOrdering(t *testing.T) {
	g := New()
	u := mustUser(t, g, "u")
	v := mustUser(t, g, "v")
	w := mustUser(t, g, "w")

	own := mustPost(t, g, u.ID, "my own post")
	p1 := mustPost(t, g, v.ID, "first")
	p2 := mustPost(t, g, v.ID, "second")
	mustPost(t, g, w.ID, "not followed")

	if err := g.Follow(u.ID, v.ID); err != nil {
		t.Fatalf("Follow: %v", err)
	}

	feed, err := g.Feed(u.ID)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if len(feed) != 2 {
		t.Fatalf("feed length = %d, want 2: %+v", len(feed), feed)
	}
	// Newest first.
	if feed[0].ID != p2.ID || feed[1].ID != p1.ID {
		t.Fatalf("feed order = [%s %s], want [%s %s]", feed[0].ID, feed[1].ID, p2.ID, p1.ID)
	}
	for _, pv := range feed {
		if pv.ID == own.ID {
			t.Fatalf("own post leaked into feed")
		}
	}

	// Following nobody yields an empty list, not an error.
	feed, err = g.Feed(w.ID)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if len(feed) != 0 {
		t.Fatalf("expected empty feed, got %+v", feed)
	}

	if _, err := g.Feed("user-0-0"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("unknown user: expected ErrUserNotFound, got %v", err)
	}
}

func TestUserPosts(t *testing.T) {
	g := New()
	a := mustUser(t, g, "a")
	b := mustUser(t, g, "b")

	p1 := mustPost(t, g, a.ID, "one")
	mustPost(t, g, b.ID, "other author")
	p2 := mustPost(t, g, a.ID, "two")

	posts, err := g.UserPosts(a.ID)
	if err != nil {
		t.Fatalf("UserPosts: %v", err)
	}
	if len(posts) != 2 || posts[0].ID != p2.ID || posts[1].ID != p1.ID {
		t.Fatalf("unexpected posts: %+v", posts)
	}

	if _, err := g.UserPosts("user-0-0"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("unknown user: expected ErrUserNotFound, got %v", err)
	}
}

func TestRecent(t *testing.T) {
	g := New()
	u := mustUser(t, g, "u")

	ids := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		p := mustPost(t, g, u.ID, fmt.Sprintf("post %d", i))
		ids = append(ids, p.ID)
	}

	recent := g.Recent(2)
	if len(recent) != 2 {
		t.Fatalf("Recent(2) length = %d", len(recent))
	}
	if recent[0].ID != ids[4] || recent[1].ID != ids[3] {
		t.Fatalf("Recent not newest-first: %+v", recent)
	}

	// Non-positive limit means no truncation.
	if all := g.Recent(0); len(all) != 5 {
		t.Fatalf("Recent(0) length = %d, want 5", len(all))
	}
	if all := g.Recent(100); len(all) != 5 {
		t.Fatalf("Recent(100) length = %d, want 5", len(all))
	}
}

func TestTrendingNormalizationRoundTrip(t *testing.T) {
	g := New()
	u := mustUser(t, g, "u")

	mustPost(t, g, u.ID, "love #Python")
	mustPost(t, g, u.ID, "LOVE #PYTHON")
	mustPost(t, g, u.ID, "love #python")
	goPost := mustPost(t, g, u.ID, "also #go")

	trending := g.Trending()
	if len(trending) != 2 {
		t.Fatalf("trending = %+v, want 2 entries", trending)
	}
	if trending[0].Tag != "python" || trending[0].Count != 3 {
		t.Fatalf("trending[0] = %+v, want {python 3}", trending[0])
	}
	if trending[1].Tag != "go" || trending[1].Count != 1 {
		t.Fatalf("trending[1] = %+v, want {go 1}", trending[1])
	}

	// Lookup is case-insensitive.
	for _, q := range []string{"PYTHON", "Python", "python"} {
		if got := g.TaggedPosts(q); len(got) != 3 {
			t.Fatalf("TaggedPosts(%q) length = %d, want 3", q, len(got))
		}
	}
	if got := g.TaggedPosts("GO"); len(got) != 1 || got[0].ID != goPost.ID {
		t.Fatalf("TaggedPosts(GO) = %+v", got)
	}
	if got := g.TaggedPosts("nope"); len(got) != 0 {
		t.Fatalf("unknown tag must yield empty list, got %+v", got)
	}
}

func TestTrendingTopTenAndTieBreak(t *testing.T) {
	g := New()
	u := mustUser(t, g, "u")

	// One post carrying twelve distinct tags: every tag has count 1, so
	// the tie-break (ascending tag) decides the cut.
	mustPost(t, g, u.ID, "#t01 #t02 #t03 #t04 #t05 #t06 #t07 #t08 #t09 #t10 #t11 #t12")

	trending := g.Trending()
	if len(trending) != 10 {
		t.Fatalf("trending length = %d, want 10", len(trending))
	}
	for i, tc := range trending {
		want := fmt.Sprintf("t%02d", i+1)
		if tc.Tag != want || tc.Count != 1 {
			t.Fatalf("trending[%d] = %+v, want {%s 1}", i, tc, want)
		}
	}
}

func TestTrendingDropsDeletedPosts(t *testing.T) {
	g := New()
	u := mustUser(t, g, "u")

	keep := mustPost(t, g, u.ID, "#keep")
	gone := mustPost(t, g, u.ID, "#gone")

	if err := g.DeletePost(gone.ID); err != nil {
		t.Fatalf("DeletePost: %v", err)
	}

	trending := g.Trending()
	if len(trending) != 1 || trending[0].Tag != "keep" {
		t.Fatalf("trending = %+v, want only {keep 1}", trending)
	}
	if got := g.TaggedPosts("keep"); len(got) != 1 || got[0].ID != keep.ID {
		t.Fatalf("TaggedPosts(keep) = %+v", got)
	}
}

func TestFollowerListsSortedByID(t *testing.T) {
	g := New()
	target := mustUser(t, g, "target")

	for i := 0; i < 4; i++ {
		f := mustUser(t, g, fmt.Sprintf("fan%d", i))
		if err := g.Follow(f.ID, target.ID); err != nil {
			t.Fatalf("Follow: %v", err)
		}
	}

	followers, err := g.Followers(target.ID)
	if err != nil {
		t.Fatalf("Followers: %v", err)
	}
	if len(followers) != 4 {
		t.Fatalf("followers length = %d", len(followers))
	}
	ids := make([]string, len(followers))
	for i, f := range followers {
		ids[i] = f.ID
	}
	if !sort.StringsAreSorted(ids) {
		t.Fatalf("followers not ordered by id: %v", ids)
	}
}

func TestLikersResolved(t *testing.T) {
	g := New()
	author := mustUser(t, g, "author")
	p := mustPost(t, g, author.ID, "caption")

	var fans []models.UserProfile
	for i := 0; i < 3; i++ {
		f := mustUser(t, g, fmt.Sprintf("fan%d", i))
		fans = append(fans, f)
		if err := g.Like(p.ID, f.ID); err != nil {
			t.Fatalf("Like: %v", err)
		}
	}

	likers, err := g.Likers(p.ID)
	if err != nil {
		t.Fatalf("Likers: %v", err)
	}
	if len(likers) != len(fans) {
		t.Fatalf("likers length = %d, want %d", len(likers), len(fans))
	}
	seen := map[string]bool{}
	for _, l := range likers {
		seen[l.ID] = true
	}
	for _, f := range fans {
		if !seen[f.ID] {
			t.Fatalf("liker %s missing from %+v", f.ID, likers)
		}
	}
}

func TestStats(t *testing.T) {
	g := New()
	a := mustUser(t, g, "a")
	b := mustUser(t, g, "b")
	p := mustPost(t, g, a.ID, "#x #y")

	if err := g.Follow(a.ID, b.ID); err != nil {
		t.Fatalf("Follow: %v", err)
	}
	if err := g.Like(p.ID, b.ID); err != nil {
		t.Fatalf("Like: %v", err)
	}
	if _, err := g.CreateComment(p.ID, models.CommentCreate{AuthorID: b.ID, Text: "hi"}); err != nil {
		t.Fatalf("CreateComment: %v", err)
	}

	s := g.Stats()
	want := Stats{Users: 2, Posts: 1, Comments: 1, FollowEdges: 1, LikeEdges: 1, Hashtags: 2}
	if s != want {
		t.Fatalf("stats = %+v, want %+v", s, want)
	}

	if err := g.DeletePost(p.ID); err != nil {
		t.Fatalf("DeletePost: %v", err)
	}
	s = g.Stats()
	want = Stats{Users: 2, Posts: 0, Comments: 0, FollowEdges: 1, LikeEdges: 0, Hashtags: 0}
	if s != want {
		t.Fatalf("stats after cascade = %+v, want %+v", s, want)
	}
}
