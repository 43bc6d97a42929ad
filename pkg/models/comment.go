package models

// Comment is a reply attached to a post. AuthorID travels as "user_id"
// on the wire.
type Comment struct {
	ID        string `json:"id"`
	AuthorID  string `json:"user_id"`
	PostID    string `json:"post_id"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
	TS        int64  `json:"-"`
}

// CommentCreate is the comment publication payload. Text must be
// non-blank after trimming whitespace.
type CommentCreate struct {
	AuthorID string `json:"user_id"`
	Text     string `json:"text"`
}

// LikeAction identifies the user liking or unliking a post.
type LikeAction struct {
	UserID string `json:"user_id"`
}
