package domain

import "time"

// Profile is an account's public identity.
type Profile struct {
	ID        string
	Username  string
	Email     string
	Bio       string
	Location  string
	AvatarURL string
	CreatedAt time.Time
}

// Post is a single feed entry. Immutable after creation.
type Post struct {
	ID        string
	UserID    string
	Content   string
	ImageURL  string // Public URL, empty if the post has no image
	CreatedAt time.Time
}

// Like marks that an account liked a post.
// At most one per (UserID, PostID) pair.
type Like struct {
	ID        string
	UserID    string
	PostID    string
	CreatedAt time.Time
}

// SavedPost marks that an account bookmarked a post.
// At most one per (UserID, PostID) pair.
type SavedPost struct {
	ID        string
	UserID    string
	PostID    string
	CreatedAt time.Time
}

// Comment is a reply on a post. Display order is CreatedAt ascending.
type Comment struct {
	ID        string
	UserID    string
	PostID    string
	Content   string
	CreatedAt time.Time
}

// Follow records that FollowerID follows FollowingID.
// At most one per ordered pair.
type Follow struct {
	ID          string
	FollowerID  string
	FollowingID string
	CreatedAt   time.Time
}

// EngagementFacts is derived, per-viewer state about a post. It is computed
// fresh on every assembly pass and never persisted; the next pass or an
// optimistic patch supersedes it.
type EngagementFacts struct {
	LikeCount      int
	ViewerHasLiked bool
	ViewerHasSaved bool
	CommentCount   int
}
