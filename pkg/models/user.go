package models

// User is a registered account. TS is the creation time in ns and is
// used for ordering; CreatedAt carries the same instant on the wire.
type User struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	DisplayName   string `json:"display_name"`
	Bio           string `json:"bio"`
	ProfilePicURL string `json:"profile_pic_url"`
	CreatedAt     string `json:"created_at"`
	TS            int64  `json:"-"`
}

// UserProfile is a user plus counts derived from the follow and post
// indexes at read time.
type UserProfile struct {
	User
	FollowerCount  int `json:"follower_count"`
	FollowingCount int `json:"following_count"`
	PostCount      int `json:"post_count"`
}

// UserCreate is the account registration payload. Username and
// DisplayName are required; Bio and ProfilePicURL default to empty.
type UserCreate struct {
	Username      string `json:"username"`
	DisplayName   string `json:"display_name"`
	Bio           string `json:"bio"`
	ProfilePicURL string `json:"profile_pic_url"`
}

// UserUpdate is a partial profile edit; nil fields are left unchanged.
type UserUpdate struct {
	DisplayName   *string `json:"display_name"`
	Bio           *string `json:"bio"`
	ProfilePicURL *string `json:"profile_pic_url"`
}
