// Package graph holds the in-memory social graph: canonical user, post
// and comment records plus the relational indexes derived from them
// (follow/follower sets, per-post like sets, ordered comment sequences,
// hashtag index). Every bidirectional index is owned and mutated
// exclusively by methods on Graph so that both sides always move
// together and no caller can observe one half of a dual write.
package graph

import (
	"strings"
	"sync"
	"time"

	"gramdb/pkg/models"
	"gramdb/pkg/utils"
)

// Graph is the shared state container. A single RWMutex serializes
// mutations; queries take the read lock and return copies, never live
// references into the maps.
type Graph struct {
	mu sync.RWMutex

	users     map[string]*models.User
	usernames map[string]string // username -> user id

	posts    map[string]*models.Post
	comments map[string]*models.Comment

	follows   map[string]map[string]struct{} // user id -> ids this user follows
	followers map[string]map[string]struct{} // user id -> ids following this user

	likes        map[string]map[string]struct{} // post id -> ids who liked it
	postComments map[string][]string            // post id -> comment ids, oldest first
	hashtagPosts map[string]map[string]struct{} // tag (lowercase) -> post ids
}

// New returns an empty graph.
func New() *Graph {
	g := &Graph{}
	g.init()
	return g
}

func (g *Graph) init() {
	g.users = make(map[string]*models.User)
	g.usernames = make(map[string]string)
	g.posts = make(map[string]*models.Post)
	g.comments = make(map[string]*models.Comment)
	g.follows = make(map[string]map[string]struct{})
	g.followers = make(map[string]map[string]struct{})
	g.likes = make(map[string]map[string]struct{})
	g.postComments = make(map[string][]string)
	g.hashtagPosts = make(map[string]map[string]struct{})
}

// Reset drops all records and indexes.
func (g *Graph) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.init()
}

// now returns the current instant as the internal ordering timestamp
// (ns) and its wire form.
func now() (int64, string) {
	t := time.Now().UTC()
	return t.UnixNano(), t.Format(time.RFC3339Nano)
}

// CreateUser registers a new account and initialises its follow and
// follower sets. Username uniqueness is case sensitive.
func (g *Graph) CreateUser(in models.UserCreate) (models.UserProfile, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, taken := g.usernames[in.Username]; taken {
		return models.UserProfile{}, ErrUsernameTaken
	}

	ts, createdAt := now()
	u := &models.User{
		ID:            utils.GenUserID(),
		Username:      in.Username,
		DisplayName:   in.DisplayName,
		Bio:           in.Bio,
		ProfilePicURL: in.ProfilePicURL,
		CreatedAt:     createdAt,
		TS:            ts,
	}
	g.users[u.ID] = u
	g.usernames[u.Username] = u.ID
	g.follows[u.ID] = make(map[string]struct{})
	g.followers[u.ID] = make(map[string]struct{})
	return g.profileLocked(u), nil
}

// GetUser fetches a user profile with derived counts.
func (g *Graph) GetUser(id string) (models.UserProfile, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	u, ok := g.users[id]
	if !ok {
		return models.UserProfile{}, ErrUserNotFound
	}
	return g.profileLocked(u), nil
}

// UpdateUser applies a partial profile edit. Only non-nil fields
// overwrite; the username is immutable.
func (g *Graph) UpdateUser(id string, in models.UserUpdate) (models.UserProfile, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	u, ok := g.users[id]
	if !ok {
		return models.UserProfile{}, ErrUserNotFound
	}
	if in.DisplayName != nil {
		u.DisplayName = *in.DisplayName
	}
	if in.Bio != nil {
		u.Bio = *in.Bio
	}
	if in.ProfilePicURL != nil {
		u.ProfilePicURL = *in.ProfilePicURL
	}
	return g.profileLocked(u), nil
}

// CreatePost publishes a post, extracts and indexes its hashtags, and
// initialises its (empty) like set and comment sequence. The caption is
// stored verbatim; only the extracted tags are lowercased.
func (g *Graph) CreatePost(in models.PostCreate) (models.PostView, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.users[in.AuthorID]; !ok {
		return models.PostView{}, ErrUserNotFound
	}

	ts, createdAt := now()
	p := &models.Post{
		ID:        utils.GenPostID(),
		AuthorID:  in.AuthorID,
		MediaURL:  in.MediaURL,
		MediaType: in.MediaType,
		Caption:   in.Caption,
		Hashtags:  ExtractHashtags(in.Caption),
		CreatedAt: createdAt,
		TS:        ts,
	}
	g.posts[p.ID] = p
	g.likes[p.ID] = make(map[string]struct{})
	g.postComments[p.ID] = []string{}

	for _, tag := range p.Hashtags {
		set, ok := g.hashtagPosts[tag]
		if !ok {
			set = make(map[string]struct{})
			g.hashtagPosts[tag] = set
		}
		set[p.ID] = struct{}{}
	}
	return g.postViewLocked(p), nil
}

// GetPost fetches a single post with derived counts.
func (g *Graph) GetPost(id string) (models.PostView, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	p, ok := g.posts[id]
	if !ok {
		return models.PostView{}, ErrPostNotFound
	}
	return g.postViewLocked(p), nil
}

// DeletePost removes a post and cascades over every index that refers
// to it: hashtag entries, the comment sequence together with each
// comment record, and the like set. The whole cascade runs under the
// write lock so no reader can observe a partially deleted post.
func (g *Graph) DeletePost(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.posts[id]
	if !ok {
		return ErrPostNotFound
	}

	for _, tag := range p.Hashtags {
		if set, ok := g.hashtagPosts[tag]; ok {
			delete(set, id)
		}
	}
	for _, cid := range g.postComments[id] {
		delete(g.comments, cid)
	}
	delete(g.postComments, id)
	delete(g.likes, id)
	delete(g.posts, id)
	return nil
}

// CreateComment attaches a comment to a post, appending its id to the
// post's ordered comment sequence. Blank text (after trimming) is
// rejected before any state is touched.
func (g *Graph) CreateComment(postID string, in models.CommentCreate) (models.Comment, error) {
	if strings.TrimSpace(in.Text) == "" {
		return models.Comment{}, ErrBlankComment
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.posts[postID]; !ok {
		return models.Comment{}, ErrPostNotFound
	}
	if _, ok := g.users[in.AuthorID]; !ok {
		return models.Comment{}, ErrUserNotFound
	}

	ts, createdAt := now()
	c := &models.Comment{
		ID:        utils.GenCommentID(),
		AuthorID:  in.AuthorID,
		PostID:    postID,
		Text:      in.Text,
		CreatedAt: createdAt,
		TS:        ts,
	}
	g.comments[c.ID] = c
	g.postComments[postID] = append(g.postComments[postID], c.ID)
	return *c, nil
}

// DeleteComment removes a comment record and drops its id from the
// parent post's sequence. A missing sequence is tolerated: the parent
// post may already have been cascade-deleted.
func (g *Graph) DeleteComment(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	c, ok := g.comments[id]
	if !ok {
		return ErrCommentNotFound
	}
	if seq, ok := g.postComments[c.PostID]; ok {
		for i, cid := range seq {
			if cid == id {
				g.postComments[c.PostID] = append(seq[:i], seq[i+1:]...)
				break
			}
		}
	}
	delete(g.comments, id)
	return nil
}
