package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/framez/framez/domain"
)

// MutationController executes viewer actions against the data service while
// immediately reflecting the expected outcome in local view state. On
// mutation failure the local patch is reverted, so displayed and actual
// state cannot drift apart permanently.
//
// Toggles are serialized per (operation-kind, target-id) key: at most one
// mutation is in flight per key, and a toggle arriving while one is
// outstanding only flips local state and records the desired end state.
// When the in-flight call returns, one trailing mutation is issued if the
// desired state still differs — last intent wins, and the store's
// uniqueness constraints never see concurrent duplicate writes.
type MutationController struct {
	ds       DataService
	viewerID string
	view     *FeedView

	mu        sync.Mutex
	inflight  map[string]*toggleIntent
	following map[string]bool

	onCommentsChanged func(postID string)
}

type toggleIntent struct {
	desired bool
}

// NewMutationController creates a controller acting on behalf of viewerID,
// patching the given view.
func NewMutationController(ds DataService, viewerID string, view *FeedView) *MutationController {
	return &MutationController{
		ds:        ds,
		viewerID:  viewerID,
		view:      view,
		inflight:  make(map[string]*toggleIntent),
		following: make(map[string]bool),
	}
}

// OnCommentsChanged registers a callback invoked after a comment is
// created or deleted, so the caller can re-fetch the post's comment list.
func (c *MutationController) OnCommentsChanged(fn func(postID string)) {
	c.onCommentsChanged = fn
}

// ToggleLike flips the viewer's like on a post. The local flag and count
// change before the network call is issued.
func (c *MutationController) ToggleLike(ctx context.Context, postID string) error {
	if _, ok := c.view.Entry(postID); !ok {
		return fmt.Errorf("post %s not in view", postID)
	}
	return c.toggle(ctx, "like:"+postID,
		func() bool {
			e, _ := c.view.Entry(postID)
			desired := !e.Engagement.ViewerHasLiked
			c.view.SetLiked(postID, desired)
			return desired
		},
		func(settled bool) { c.view.SetLiked(postID, settled) },
		func(ctx context.Context, liked bool) error {
			pair := Filter{"user_id": c.viewerID, "post_id": postID}
			if liked {
				return c.ds.Insert(ctx, TableLikes, Row(pair))
			}
			return c.ds.Delete(ctx, TableLikes, pair)
		})
}

// ToggleSave flips the viewer's bookmark on a post.
func (c *MutationController) ToggleSave(ctx context.Context, postID string) error {
	if _, ok := c.view.Entry(postID); !ok {
		return fmt.Errorf("post %s not in view", postID)
	}
	return c.toggle(ctx, "save:"+postID,
		func() bool {
			e, _ := c.view.Entry(postID)
			desired := !e.Engagement.ViewerHasSaved
			c.view.SetSaved(postID, desired)
			return desired
		},
		func(settled bool) { c.view.SetSaved(postID, settled) },
		func(ctx context.Context, saved bool) error {
			pair := Filter{"user_id": c.viewerID, "post_id": postID}
			if saved {
				return c.ds.Insert(ctx, TableSavedPosts, Row(pair))
			}
			return c.ds.Delete(ctx, TableSavedPosts, pair)
		})
}

// ToggleFollow flips whether the viewer follows the target account.
// Following yourself is rejected before any network call; the data layer
// does not enforce it.
func (c *MutationController) ToggleFollow(ctx context.Context, targetID string) error {
	if targetID == c.viewerID {
		return domain.ErrSelfFollow
	}
	return c.toggle(ctx, "follow:"+targetID,
		func() bool {
			desired := !c.following[targetID]
			c.following[targetID] = desired
			return desired
		},
		func(settled bool) {
			c.mu.Lock()
			c.following[targetID] = settled
			c.mu.Unlock()
		},
		func(ctx context.Context, follow bool) error {
			pair := Filter{"follower_id": c.viewerID, "following_id": targetID}
			if follow {
				return c.ds.Insert(ctx, TableFollows, Row(pair))
			}
			return c.ds.Delete(ctx, TableFollows, pair)
		})
}

// NoteFollowing seeds the local follow flag for an account, typically from
// a freshly fetched profile view. An account never noted is assumed not
// followed.
func (c *MutationController) NoteFollowing(accountID string, following bool) {
	c.mu.Lock()
	c.following[accountID] = following
	c.mu.Unlock()
}

// Following reports the local follow flag for an account.
func (c *MutationController) Following(accountID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.following[accountID]
}

// toggle runs the per-key serialization protocol. flip mutates local state
// under the controller lock and returns the new desired value; revert puts
// local state back to the last state known to match the server; mutate
// issues the insert or delete for a desired value.
func (c *MutationController) toggle(ctx context.Context, key string, flip func() bool, revert func(bool), mutate func(context.Context, bool) error) error {
	c.mu.Lock()
	desired := flip()
	if p, ok := c.inflight[key]; ok {
		// Another call owns the network round trip; leave it the new
		// target and let it issue the trailing mutation if needed.
		p.desired = desired
		c.mu.Unlock()
		return nil
	}
	p := &toggleIntent{desired: desired}
	c.inflight[key] = p
	c.mu.Unlock()

	want := desired
	for {
		if err := mutate(ctx, want); err != nil {
			c.mu.Lock()
			delete(c.inflight, key)
			c.mu.Unlock()
			revert(!want)
			return fmt.Errorf("toggling %s: %w", key, err)
		}
		c.mu.Lock()
		if p.desired == want {
			delete(c.inflight, key)
			c.mu.Unlock()
			return nil
		}
		want = p.desired
		c.mu.Unlock()
	}
}

// SubmitComment validates and stores a comment on a post. Empty or
// over-length text is rejected locally with no network call. On success
// the comment list is re-fetched via the OnCommentsChanged callback rather
// than spliced in optimistically: correct ordering and deletion targeting
// need the server-assigned id and timestamp.
func (c *MutationController) SubmitComment(ctx context.Context, postID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ErrEmptyComment
	}
	if utf8.RuneCountInString(text) > domain.CommentMaxLen {
		return domain.ErrCommentTooLong
	}

	err := c.ds.Insert(ctx, TableComments, Row{
		"user_id": c.viewerID,
		"post_id": postID,
		"content": text,
	})
	if err != nil {
		return fmt.Errorf("adding comment: %w", err)
	}
	if c.onCommentsChanged != nil {
		c.onCommentsChanged(postID)
	}
	return nil
}

// DeleteComment removes a comment by id and triggers a comment re-fetch
// for its post.
func (c *MutationController) DeleteComment(ctx context.Context, postID, commentID string) error {
	if err := c.ds.Delete(ctx, TableComments, Filter{"id": commentID}); err != nil {
		return fmt.Errorf("deleting comment: %w", err)
	}
	if c.onCommentsChanged != nil {
		c.onCommentsChanged(postID)
	}
	return nil
}

// CreatePost stores a new post. When image bytes are attached they are
// stored first and the post row carries the returned public reference; a
// storage failure aborts creation entirely, so no post ever points at a
// missing image.
func (c *MutationController) CreatePost(ctx context.Context, text string, image []byte, imageExt string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ErrEmptyPost
	}

	row := Row{
		"user_id": c.viewerID,
		"content": text,
	}
	if len(image) > 0 {
		name := fmt.Sprintf("%s-%d.%s", c.viewerID, time.Now().UnixMilli(), strings.TrimPrefix(imageExt, "."))
		ref, err := c.ds.StoreBlob(ctx, PostImageBucket, name, image)
		if err != nil {
			return fmt.Errorf("storing post image: %w", err)
		}
		row["image_url"] = ref
	}

	if err := c.ds.Insert(ctx, TablePosts, row); err != nil {
		return fmt.Errorf("creating post: %w", err)
	}
	return nil
}
