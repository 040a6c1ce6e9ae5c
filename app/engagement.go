package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/framez/framez/domain"
)

// EngagementService computes per-post engagement facts for a viewer.
// Every call recomputes from the data service; nothing is cached, since
// engagement state changes frequently and a stale viewer flag would
// misrepresent the viewer's own actions.
type EngagementService struct {
	ds DataService
}

// NewEngagementService creates an EngagementService over the given backend.
func NewEngagementService(ds DataService) *EngagementService {
	return &EngagementService{ds: ds}
}

// ComputeEngagement returns engagement facts for each post id, keyed by
// post id. The four facts per post are independent reads issued
// concurrently, as are the per-post bundles. If any read fails the whole
// batch fails; a partial result would render silently-wrong counts.
func (s *EngagementService) ComputeEngagement(ctx context.Context, postIDs []string, viewerID string) (map[string]domain.EngagementFacts, error) {
	ids := dedupe(postIDs)
	facts := make([]domain.EngagementFacts, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		// Each goroutine writes a distinct field of a distinct element.
		f := &facts[i]
		postID := id

		g.Go(func() error {
			n, err := s.ds.Count(ctx, TableLikes, Filter{"post_id": postID})
			if err != nil {
				return fmt.Errorf("counting likes for %s: %w", postID, err)
			}
			f.LikeCount = n
			return nil
		})
		g.Go(func() error {
			_, found, err := s.ds.FindOne(ctx, TableLikes, Filter{"post_id": postID, "user_id": viewerID})
			if err != nil {
				return fmt.Errorf("checking like for %s: %w", postID, err)
			}
			f.ViewerHasLiked = found
			return nil
		})
		g.Go(func() error {
			_, found, err := s.ds.FindOne(ctx, TableSavedPosts, Filter{"post_id": postID, "user_id": viewerID})
			if err != nil {
				return fmt.Errorf("checking save for %s: %w", postID, err)
			}
			f.ViewerHasSaved = found
			return nil
		})
		g.Go(func() error {
			n, err := s.ds.Count(ctx, TableComments, Filter{"post_id": postID})
			if err != nil {
				return fmt.Errorf("counting comments for %s: %w", postID, err)
			}
			f.CommentCount = n
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]domain.EngagementFacts, len(ids))
	for i, id := range ids {
		out[id] = facts[i]
	}
	return out, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
