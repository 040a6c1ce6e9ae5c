package app

import (
	"context"
	"fmt"

	"github.com/framez/framez/domain"
)

// CommentEntry is one comment with its author denormalized.
type CommentEntry struct {
	Comment domain.Comment
	Author  domain.Profile
}

// CommentService reads a post's comment thread.
type CommentService struct {
	ds DataService
}

// NewCommentService creates a CommentService over the given backend.
func NewCommentService(ds DataService) *CommentService {
	return &CommentService{ds: ds}
}

// ListComments returns a post's comments with author identity, oldest
// first. Called on thread open, after a comment mutation, and on every
// comment change event for the post.
func (s *CommentService) ListComments(ctx context.Context, postID string) ([]CommentEntry, error) {
	rows, err := s.ds.Query(ctx, TableComments, QuerySpec{
		Filter:     Filter{"post_id": postID},
		Order:      Order{Column: "created_at"},
		WithAuthor: true,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching comments: %w", err)
	}

	entries := make([]CommentEntry, 0, len(rows))
	for _, r := range rows {
		entry := CommentEntry{Comment: commentFromRow(r)}
		if author, ok := rowNested(r, "profiles"); ok {
			entry.Author = profileFromRow(author)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
