package app

import (
	"context"
	"errors"
	"testing"
)

type countingSub struct {
	closed *int
}

func (s countingSub) Close() error {
	*s.closed++
	return nil
}

func TestRouter_DuplicateScopeSharesOneSubscription(t *testing.T) {
	var handlers []func(Event)
	closed := 0
	ds := &fakeDS{
		subscribeFn: func(table string, filter Filter, handler func(Event)) (Subscription, error) {
			handlers = append(handlers, handler)
			return countingSub{closed: &closed}, nil
		},
	}
	r := NewRouter(ds)

	fired1, fired2 := 0, 0
	w1, err := r.Watch(context.Background(), TableComments, Filter{"post_id": "p1"}, func() { fired1++ })
	if err != nil {
		t.Fatalf("watch failed: %v", err)
	}
	w2, err := r.Watch(context.Background(), TableComments, Filter{"post_id": "p1"}, func() { fired2++ })
	if err != nil {
		t.Fatalf("second watch failed: %v", err)
	}

	if got := ds.callCount("subscribe:" + TableComments); got != 1 {
		t.Fatalf("duplicate scope must not re-subscribe, got %d transport subscriptions", got)
	}

	handlers[0](Event{Table: TableComments, Type: EventInsert})
	if fired1 != 1 || fired2 != 1 {
		t.Fatalf("all watchers must refresh on an event: %d, %d", fired1, fired2)
	}

	// Releasing one view keeps the scope alive for the other.
	if err := w1.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if closed != 0 {
		t.Fatalf("transport closed while a watcher remains")
	}
	handlers[0](Event{Table: TableComments, Type: EventDelete})
	if fired2 != 2 {
		t.Fatalf("remaining watcher must keep refreshing")
	}

	if err := w2.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if closed != 1 {
		t.Fatalf("transport must close with the last watcher, closed=%d", closed)
	}
	if r.ActiveScopes() != 0 {
		t.Fatalf("scope registry must be empty")
	}
}

func TestRouter_DistinctFiltersAreDistinctScopes(t *testing.T) {
	ds := &fakeDS{}
	r := NewRouter(ds)

	if _, err := r.Watch(context.Background(), TableComments, Filter{"post_id": "p1"}, func() {}); err != nil {
		t.Fatalf("watch failed: %v", err)
	}
	if _, err := r.Watch(context.Background(), TableComments, Filter{"post_id": "p2"}, func() {}); err != nil {
		t.Fatalf("watch failed: %v", err)
	}
	if got := ds.callCount("subscribe:" + TableComments); got != 2 {
		t.Fatalf("expected one transport subscription per filter, got %d", got)
	}
	if r.ActiveScopes() != 2 {
		t.Fatalf("expected two active scopes, got %d", r.ActiveScopes())
	}
}

func TestRouter_SubscribeFailureLeavesNoScope(t *testing.T) {
	ds := &fakeDS{
		subscribeFn: func(table string, filter Filter, handler func(Event)) (Subscription, error) {
			return nil, errors.New("transport down")
		},
	}
	r := NewRouter(ds)

	if _, err := r.Watch(context.Background(), TablePosts, nil, func() {}); err == nil {
		t.Fatalf("expected subscribe failure surfaced")
	}
	if r.ActiveScopes() != 0 {
		t.Fatalf("failed watch must not leave a scope behind")
	}
}

func TestWatch_CloseIsIdempotent(t *testing.T) {
	closed := 0
	ds := &fakeDS{
		subscribeFn: func(table string, filter Filter, handler func(Event)) (Subscription, error) {
			return countingSub{closed: &closed}, nil
		},
	}
	r := NewRouter(ds)

	w, err := r.Watch(context.Background(), TablePosts, nil, func() {})
	if err != nil {
		t.Fatalf("watch failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second close failed: %v", err)
	}
	if closed != 1 {
		t.Fatalf("transport closed %d times", closed)
	}
}

func TestScopeKey_OrderIndependent(t *testing.T) {
	a := scopeKey("likes", Filter{"user_id": "u", "post_id": "p"})
	b := scopeKey("likes", Filter{"post_id": "p", "user_id": "u"})
	if a != b {
		t.Fatalf("scope key must not depend on map order: %q vs %q", a, b)
	}
}
