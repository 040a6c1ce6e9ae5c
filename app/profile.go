package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/framez/framez/domain"
)

// ProfileView is a profile page's header data: the profile itself plus
// follow aggregates relative to the viewer.
type ProfileView struct {
	Profile        domain.Profile
	FollowerCount  int
	FollowingCount int
	ViewerFollows  bool
}

// ProfileService reads account profiles and their follow aggregates.
type ProfileService struct {
	ds DataService
}

// NewProfileService creates a ProfileService over the given backend.
func NewProfileService(ds DataService) *ProfileService {
	return &ProfileService{ds: ds}
}

// FetchProfile returns the profile for accountID together with follower
// and following counts and whether the viewer follows it. The four reads
// are independent and issued concurrently.
func (s *ProfileService) FetchProfile(ctx context.Context, accountID, viewerID string) (ProfileView, error) {
	var view ProfileView

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		row, found, err := s.ds.FindOne(ctx, TableProfiles, Filter{"id": accountID})
		if err != nil {
			return fmt.Errorf("fetching profile: %w", err)
		}
		if !found {
			return fmt.Errorf("profile %s not found", accountID)
		}
		view.Profile = profileFromRow(row)
		return nil
	})
	g.Go(func() error {
		n, err := s.ds.Count(ctx, TableFollows, Filter{"following_id": accountID})
		if err != nil {
			return fmt.Errorf("counting followers: %w", err)
		}
		view.FollowerCount = n
		return nil
	})
	g.Go(func() error {
		n, err := s.ds.Count(ctx, TableFollows, Filter{"follower_id": accountID})
		if err != nil {
			return fmt.Errorf("counting following: %w", err)
		}
		view.FollowingCount = n
		return nil
	})
	g.Go(func() error {
		_, found, err := s.ds.FindOne(ctx, TableFollows, Filter{
			"follower_id":  viewerID,
			"following_id": accountID,
		})
		if err != nil {
			return fmt.Errorf("checking follow: %w", err)
		}
		view.ViewerFollows = found
		return nil
	})

	if err := g.Wait(); err != nil {
		return ProfileView{}, err
	}
	return view, nil
}
