package models

// Post is a published item of media with a caption. AuthorID travels as
// "user_id" on the wire. Hashtags holds the tags extracted from the
// caption, lowercased, in first-appearance order with duplicates kept;
// the caption itself is stored verbatim.
type Post struct {
	ID        string   `json:"id"`
	AuthorID  string   `json:"user_id"`
	MediaURL  string   `json:"media_url"`
	MediaType string   `json:"media_type"`
	Caption   string   `json:"caption"`
	Hashtags  []string `json:"hashtags"`
	CreatedAt string   `json:"created_at"`
	TS        int64    `json:"-"`
}

// PostView is a post plus counts derived from the like and comment
// indexes at read time.
type PostView struct {
	Post
	LikeCount    int `json:"like_count"`
	CommentCount int `json:"comment_count"`
}

// PostCreate is the post publication payload. MediaType must be one of
// "image" or "video"; the caption may be empty.
type PostCreate struct {
	AuthorID  string `json:"user_id"`
	MediaURL  string `json:"media_url"`
	MediaType string `json:"media_type"`
	Caption   string `json:"caption"`
}

// HashtagCount is one trending entry: a tag and how many live posts
// currently carry it.
type HashtagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}
