package app

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Router maintains one live transport subscription per (table, filter)
// scope, however many views are watching it. Every change event triggers
// the watchers' refresh callbacks; event payloads are never applied as
// deltas, since counts and viewer flags cannot be reconstructed from a
// single row change.
type Router struct {
	ds DataService

	mu     sync.Mutex
	scopes map[string]*scopeSub
}

type scopeSub struct {
	sub     Subscription
	watches map[*Watch]struct{}
}

// Watch is one view's claim on a subscription scope. Closing it releases
// exactly that claim; the transport subscription closes only when the last
// watch on the scope is gone.
type Watch struct {
	router  *Router
	key     string
	refresh func()

	closeOnce sync.Once
	closeErr  error
}

// NewRouter creates a Router over the given backend.
func NewRouter(ds DataService) *Router {
	return &Router{ds: ds, scopes: make(map[string]*scopeSub)}
}

// Watch subscribes refresh to changes on the scope. If the scope is
// already active no second transport subscription is established.
// The caller must Close the returned watch when its view loses focus.
func (r *Router) Watch(ctx context.Context, table string, filter Filter, refresh func()) (*Watch, error) {
	key := scopeKey(table, filter)
	w := &Watch{router: r, key: key, refresh: refresh}

	r.mu.Lock()
	if sc, ok := r.scopes[key]; ok {
		sc.watches[w] = struct{}{}
		r.mu.Unlock()
		return w, nil
	}
	sc := &scopeSub{watches: map[*Watch]struct{}{w: {}}}
	r.scopes[key] = sc
	r.mu.Unlock()

	sub, err := r.ds.Subscribe(ctx, table, filter, func(Event) {
		r.fanOut(key)
	})
	if err != nil {
		r.mu.Lock()
		delete(r.scopes, key)
		r.mu.Unlock()
		return nil, fmt.Errorf("subscribing to %s: %w", table, err)
	}

	r.mu.Lock()
	sc.sub = sub
	r.mu.Unlock()
	return w, nil
}

func (r *Router) fanOut(key string) {
	r.mu.Lock()
	sc, ok := r.scopes[key]
	if !ok {
		r.mu.Unlock()
		return
	}
	fns := make([]func(), 0, len(sc.watches))
	for w := range sc.watches {
		fns = append(fns, w.refresh)
	}
	r.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Close releases the watch. Idempotent.
func (w *Watch) Close() error {
	w.closeOnce.Do(func() {
		w.closeErr = w.router.release(w)
	})
	return w.closeErr
}

func (r *Router) release(w *Watch) error {
	r.mu.Lock()
	sc, ok := r.scopes[w.key]
	if !ok {
		r.mu.Unlock()
		return nil
	}
	delete(sc.watches, w)
	if len(sc.watches) > 0 {
		r.mu.Unlock()
		return nil
	}
	delete(r.scopes, w.key)
	sub := sc.sub
	r.mu.Unlock()

	if sub == nil {
		return nil
	}
	return sub.Close()
}

// ActiveScopes reports how many scopes hold a live subscription.
func (r *Router) ActiveScopes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.scopes)
}

func scopeKey(table string, filter Filter) string {
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	key := table
	for _, k := range keys {
		key += fmt.Sprintf("|%s=%v", k, filter[k])
	}
	return key
}
