package app

import (
	"context"
	"errors"
	"testing"
)

func TestFetchProfile_AssemblesFollowAggregates(t *testing.T) {
	ds := &fakeDS{
		findOneFn: func(table string, filter Filter) (Row, bool, error) {
			switch table {
			case TableProfiles:
				return Row{"id": "u1", "username": "ada", "bio": "hello"}, true, nil
			case TableFollows:
				if filter["follower_id"] != "viewer" || filter["following_id"] != "u1" {
					t.Fatalf("unexpected follow check: %v", filter)
				}
				return Row{"id": "f1"}, true, nil
			}
			return nil, false, nil
		},
		countFn: func(table string, filter Filter) (int, error) {
			if filter["following_id"] == "u1" {
				return 12, nil // followers
			}
			return 7, nil // following
		},
	}

	view, err := NewProfileService(ds).FetchProfile(context.Background(), "u1", "viewer")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if view.Profile.Username != "ada" || view.FollowerCount != 12 || view.FollowingCount != 7 || !view.ViewerFollows {
		t.Fatalf("unexpected view: %+v", view)
	}
}

func TestFetchProfile_MissingProfileErrors(t *testing.T) {
	ds := &fakeDS{}
	if _, err := NewProfileService(ds).FetchProfile(context.Background(), "ghost", "viewer"); err == nil {
		t.Fatalf("expected missing-profile error")
	}
}

func TestFetchProfile_ReadFailurePropagates(t *testing.T) {
	boom := errors.New("backend down")
	ds := &fakeDS{
		findOneFn: func(table string, filter Filter) (Row, bool, error) {
			if table == TableProfiles {
				return Row{"id": "u1"}, true, nil
			}
			return nil, false, nil
		},
		countFn: func(table string, filter Filter) (int, error) {
			return 0, boom
		},
	}
	if _, err := NewProfileService(ds).FetchProfile(context.Background(), "u1", "viewer"); !errors.Is(err, boom) {
		t.Fatalf("expected count failure surfaced, got %v", err)
	}
}
