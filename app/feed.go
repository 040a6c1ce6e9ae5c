package app

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/framez/framez/domain"
)

type scopeKind int

const (
	scopeGlobal scopeKind = iota
	scopeAuthoredBy
	scopeLikedBy
	scopeSavedBy
)

// Scope selects which posts a feed view contains.
type Scope struct {
	kind      scopeKind
	accountID string
}

// Global selects all posts, newest first.
func Global() Scope { return Scope{kind: scopeGlobal} }

// AuthoredBy selects posts owned by the given account, newest first.
func AuthoredBy(accountID string) Scope {
	return Scope{kind: scopeAuthoredBy, accountID: accountID}
}

// LikedBy selects posts the given account liked, by like time descending.
func LikedBy(accountID string) Scope {
	return Scope{kind: scopeLikedBy, accountID: accountID}
}

// SavedBy selects posts the given account saved, by save time descending.
func SavedBy(accountID string) Scope {
	return Scope{kind: scopeSavedBy, accountID: accountID}
}

// FeedEntry is one rendered feed item: the post, its author denormalized
// so the view never needs a second round trip, and the viewer's
// engagement facts.
type FeedEntry struct {
	Post       domain.Post
	Author     domain.Profile
	Engagement domain.EngagementFacts
}

// FeedService resolves a scope to an ordered feed.
type FeedService struct {
	ds         DataService
	engagement *EngagementService
	logger     *slog.Logger
}

// NewFeedService creates a FeedService. A nil logger falls back to the
// default slog logger.
func NewFeedService(ds DataService, eng *EngagementService, logger *slog.Logger) *FeedService {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedService{ds: ds, engagement: eng, logger: logger}
}

// Assemble retrieves the posts for a scope, joins author identity, and
// attaches engagement facts in a single batched call. A failure anywhere
// aborts the whole pass; the caller keeps its previous view. Calling twice
// on unchanged data yields an identical sequence.
func (s *FeedService) Assemble(ctx context.Context, scope Scope, viewerID string) ([]FeedEntry, error) {
	var (
		entries []FeedEntry
		err     error
	)
	switch scope.kind {
	case scopeLikedBy:
		entries, err = s.postsViaJoin(ctx, TableLikes, scope.accountID)
	case scopeSavedBy:
		entries, err = s.postsViaJoin(ctx, TableSavedPosts, scope.accountID)
	default:
		entries, err = s.posts(ctx, scope)
	}
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(entries))
	for i := range entries {
		ids[i] = entries[i].Post.ID
	}

	facts, err := s.engagement.ComputeEngagement(ctx, ids, viewerID)
	if err != nil {
		return nil, fmt.Errorf("computing engagement: %w", err)
	}
	for i := range entries {
		entries[i].Engagement = facts[entries[i].Post.ID]
	}
	return entries, nil
}

func (s *FeedService) posts(ctx context.Context, scope Scope) ([]FeedEntry, error) {
	spec := QuerySpec{
		Order:      Order{Column: "created_at", Descending: true},
		WithAuthor: true,
	}
	if scope.kind == scopeAuthoredBy {
		spec.Filter = Filter{"user_id": scope.accountID}
	}

	rows, err := s.ds.Query(ctx, TablePosts, spec)
	if err != nil {
		return nil, fmt.Errorf("fetching posts: %w", err)
	}

	entries := make([]FeedEntry, 0, len(rows))
	for _, r := range rows {
		entry := FeedEntry{Post: postFromRow(r)}
		if author, ok := rowNested(r, "profiles"); ok {
			entry.Author = profileFromRow(author)
		}
		entries = append(entries, entry)
	}

	// The store orders by created_at alone; break ties by post id so
	// repeated calls on unchanged data agree.
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].Post, entries[j].Post
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return entries, nil
}

// postsViaJoin resolves liked/saved feeds: join rows ordered by the join
// row's created_at (not the post's), each dereferenced to its target post.
// A row whose post has been deleted is dropped, not an error.
func (s *FeedService) postsViaJoin(ctx context.Context, table, accountID string) ([]FeedEntry, error) {
	rows, err := s.ds.Query(ctx, table, QuerySpec{
		Filter:   Filter{"user_id": accountID},
		Order:    Order{Column: "created_at", Descending: true},
		WithPost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", table, err)
	}

	entries := make([]FeedEntry, 0, len(rows))
	for _, r := range rows {
		postRow, ok := rowNested(r, "posts")
		if !ok {
			s.logger.Warn("dropping dangling reference to deleted post",
				"table", table,
				"post_id", rowString(r, "post_id"))
			continue
		}
		entry := FeedEntry{Post: postFromRow(postRow)}
		if author, ok := rowNested(postRow, "profiles"); ok {
			entry.Author = profileFromRow(author)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
