package app

import "sync"

// FeedView holds the most recent assembly result for one rendered view.
// Assembly passes replace it wholesale; the mutation controller patches it
// in place between passes. Each pass is tagged with a monotonic sequence
// number so a late response from a superseded pass cannot overwrite newer
// state.
type FeedView struct {
	mu        sync.Mutex
	nextSeq   int64
	installed int64
	entries   []FeedEntry
}

// NewFeedView returns an empty view.
func NewFeedView() *FeedView {
	return &FeedView{}
}

// Begin registers a new assembly pass and returns its sequence number.
func (v *FeedView) Begin() int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.nextSeq++
	return v.nextSeq
}

// Replace installs the result of the pass with the given sequence number.
// It reports whether the result was installed; a pass that has been
// superseded by a newer one is discarded and the current entries kept.
func (v *FeedView) Replace(seq int64, entries []FeedEntry) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if seq <= v.installed {
		return false
	}
	v.installed = seq
	v.entries = append([]FeedEntry(nil), entries...)
	return true
}

// Entries returns a copy of the current entries in display order.
func (v *FeedView) Entries() []FeedEntry {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]FeedEntry(nil), v.entries...)
}

// Entry returns the entry for a post, if present.
func (v *FeedView) Entry(postID string) (FeedEntry, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, e := range v.entries {
		if e.Post.ID == postID {
			return e, true
		}
	}
	return FeedEntry{}, false
}

// SetLiked patches the viewer's like flag for a post, adjusting the like
// count by the transition. Setting the flag to its current value is a
// no-op, so rollbacks cannot double-adjust the count.
func (v *FeedView) SetLiked(postID string, liked bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.entries {
		e := &v.entries[i]
		if e.Post.ID != postID || e.Engagement.ViewerHasLiked == liked {
			continue
		}
		e.Engagement.ViewerHasLiked = liked
		if liked {
			e.Engagement.LikeCount++
		} else if e.Engagement.LikeCount > 0 {
			e.Engagement.LikeCount--
		}
	}
}

// SetSaved patches the viewer's save flag for a post.
func (v *FeedView) SetSaved(postID string, saved bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.entries {
		if v.entries[i].Post.ID == postID {
			v.entries[i].Engagement.ViewerHasSaved = saved
		}
	}
}
