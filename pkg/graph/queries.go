package graph

import (
	"sort"
	"strings"

	"gramdb/pkg/models"
)

// trendingSize caps the number of entries returned by Trending.
const trendingSize = 10

// profileLocked builds a UserProfile snapshot with derived counts.
// Caller holds at least the read lock.
func (g *Graph) profileLocked(u *models.User) models.UserProfile {
	postCount := 0
	for _, p := range g.posts {
		if p.AuthorID == u.ID {
			postCount++
		}
	}
	return models.UserProfile{
		User:           *u,
		FollowerCount:  len(g.followers[u.ID]),
		FollowingCount: len(g.follows[u.ID]),
		PostCount:      postCount,
	}
}

// postViewLocked builds a PostView snapshot with derived counts. The
// hashtag slice is copied so callers never alias index state.
func (g *Graph) postViewLocked(p *models.Post) models.PostView {
	v := models.PostView{
		Post:         *p,
		LikeCount:    len(g.likes[p.ID]),
		CommentCount: len(g.postComments[p.ID]),
	}
	v.Hashtags = append([]string{}, p.Hashtags...)
	return v
}

// sortNewestFirst orders post views newest first. Equal timestamps fall
// back to descending id so the order stays deterministic.
func sortNewestFirst(views []models.PostView) {
	sort.Slice(views, func(i, j int) bool {
		if views[i].TS != views[j].TS {
			return views[i].TS > views[j].TS
		}
		return views[i].ID > views[j].ID
	})
}

// UserPosts returns all posts authored by userID, newest first.
func (g *Graph) UserPosts(userID string) ([]models.PostView, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.users[userID]; !ok {
		return nil, ErrUserNotFound
	}
	out := make([]models.PostView, 0)
	for _, p := range g.posts {
		if p.AuthorID == userID {
			out = append(out, g.postViewLocked(p))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// Feed returns posts authored by users that userID follows, newest
// first. The user's own posts are excluded unconditionally. A user who
// follows nobody gets an empty feed, not an error.
func (g *Graph) Feed(userID string) ([]models.PostView, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.users[userID]; !ok {
		return nil, ErrUserNotFound
	}
	following := g.follows[userID]
	out := make([]models.PostView, 0)
	for _, p := range g.posts {
		if p.AuthorID == userID {
			continue
		}
		if _, ok := following[p.AuthorID]; ok {
			out = append(out, g.postViewLocked(p))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// Recent returns the newest posts across all users, truncated to limit
// when limit is positive.
func (g *Graph) Recent(limit int) []models.PostView {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]models.PostView, 0, len(g.posts))
	for _, p := range g.posts {
		out = append(out, g.postViewLocked(p))
	}
	sortNewestFirst(out)
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

// Trending returns up to ten tags ranked by how many live posts carry
// them. Tags whose post sets have emptied out are skipped. Equal counts
// fall back to ascending tag so the ranking stays deterministic.
func (g *Graph) Trending() []models.HashtagCount {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]models.HashtagCount, 0, len(g.hashtagPosts))
	for tag, ids := range g.hashtagPosts {
		if len(ids) == 0 {
			continue
		}
		out = append(out, models.HashtagCount{Tag: tag, Count: len(ids)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	if len(out) > trendingSize {
		out = out[:trendingSize]
	}
	return out
}

// TaggedPosts returns all posts carrying the given tag, newest first.
// The input is lowercased before lookup, so lookups are
// case-insensitive; an unknown tag yields an empty list.
func (g *Graph) TaggedPosts(tag string) []models.PostView {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ids := g.hashtagPosts[strings.ToLower(tag)]
	out := make([]models.PostView, 0, len(ids))
	for id := range ids {
		if p, ok := g.posts[id]; ok {
			out = append(out, g.postViewLocked(p))
		}
	}
	sortNewestFirst(out)
	return out
}

// Followers resolves the users following userID, ordered by id.
func (g *Graph) Followers(userID string) ([]models.UserProfile, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.users[userID]; !ok {
		return nil, ErrUserNotFound
	}
	return g.resolveUsersLocked(g.followers[userID]), nil
}

// Following resolves the users that userID follows, ordered by id.
func (g *Graph) Following(userID string) ([]models.UserProfile, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.users[userID]; !ok {
		return nil, ErrUserNotFound
	}
	return g.resolveUsersLocked(g.follows[userID]), nil
}

// Likers resolves the users who liked postID, ordered by id.
func (g *Graph) Likers(postID string) ([]models.UserProfile, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.posts[postID]; !ok {
		return nil, ErrPostNotFound
	}
	return g.resolveUsersLocked(g.likes[postID]), nil
}

// resolveUsersLocked turns a set of user ids into profile snapshots
// sorted by id, skipping ids that no longer resolve rather than
// failing the whole read.
func (g *Graph) resolveUsersLocked(ids map[string]struct{}) []models.UserProfile {
	ordered := make([]string, 0, len(ids))
	for id := range ids {
		ordered = append(ordered, id)
	}
	sort.Strings(ordered)
	out := make([]models.UserProfile, 0, len(ordered))
	for _, id := range ordered {
		if u, ok := g.users[id]; ok {
			out = append(out, g.profileLocked(u))
		}
	}
	return out
}

// Comments returns the post's comments oldest first, following the
// stored sequence. Sequence entries that no longer resolve are skipped.
func (g *Graph) Comments(postID string) ([]models.Comment, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.posts[postID]; !ok {
		return nil, ErrPostNotFound
	}
	seq := g.postComments[postID]
	out := make([]models.Comment, 0, len(seq))
	for _, cid := range seq {
		if c, ok := g.comments[cid]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}
