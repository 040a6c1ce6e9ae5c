package domain

import "errors"

// CommentMaxLen is the maximum comment length in runes, enforced locally
// before any network call.
const CommentMaxLen = 500

var (
	// ErrUnauthorized indicates missing or invalid credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrEmptyComment indicates a comment whose trimmed text is empty.
	ErrEmptyComment = errors.New("comment cannot be empty")

	// ErrCommentTooLong indicates a comment over CommentMaxLen runes.
	ErrCommentTooLong = errors.New("comment exceeds character limit")

	// ErrEmptyPost indicates a post with no text content.
	ErrEmptyPost = errors.New("post cannot be empty")

	// ErrSelfFollow indicates an attempt to follow one's own account.
	ErrSelfFollow = errors.New("cannot follow yourself")
)
