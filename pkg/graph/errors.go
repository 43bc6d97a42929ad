package graph

import "errors"

// Sentinel errors returned by graph operations. The messages are the
// exact texts surfaced to API clients, so they are capitalized wire
// strings rather than Go-style error prose.
var (
	ErrUserNotFound     = errors.New("User not found")
	ErrTargetNotFound   = errors.New("Target user not found")
	ErrPostNotFound     = errors.New("Post not found")
	ErrCommentNotFound  = errors.New("Comment not found")
	ErrLikeNotFound     = errors.New("Like not found")
	ErrNotFollowing     = errors.New("Not following this user")
	ErrUsernameTaken    = errors.New("Username already taken")
	ErrAlreadyFollowing = errors.New("Already following this user")
	ErrAlreadyLiked     = errors.New("Post already liked by this user")
	ErrSelfFollow       = errors.New("Cannot follow yourself")
	ErrBlankComment     = errors.New("Comment text must not be blank")
)
