// Package memory provides an in-process app.DataService used by tests and
// offline runs. It enforces the same uniqueness rules as the production
// schema and fans out change events to subscribers synchronously.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/framez/framez/app"
)

// Store is an in-memory DataService.
type Store struct {
	mu     sync.Mutex
	tables map[string][]app.Row
	blobs  map[string][]byte
	subs   map[string]map[*subscription]struct{}
	now    func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		tables: make(map[string][]app.Row),
		blobs:  make(map[string][]byte),
		subs:   make(map[string]map[*subscription]struct{}),
		now:    time.Now,
	}
}

// SetClock overrides the timestamp source, for deterministic tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

func matches(row app.Row, filter app.Filter) bool {
	for k, want := range filter {
		if fmt.Sprintf("%v", row[k]) != fmt.Sprintf("%v", want) {
			return false
		}
	}
	return true
}

func (s *Store) Query(ctx context.Context, table string, spec app.QuerySpec) ([]app.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []app.Row
	for _, row := range s.tables[table] {
		if !matches(row, spec.Filter) {
			continue
		}
		out = append(out, s.project(row, spec))
	}

	if col := spec.Order.Column; col != "" {
		sort.SliceStable(out, func(i, j int) bool {
			if spec.Order.Descending {
				return lessValue(out[j][col], out[i][col])
			}
			return lessValue(out[i][col], out[j][col])
		})
	}
	return out, nil
}

// project copies a row and attaches the requested joins.
func (s *Store) project(row app.Row, spec app.QuerySpec) app.Row {
	out := copyRow(row)
	if spec.WithAuthor {
		if author, ok := s.lookup(app.TableProfiles, "id", row["user_id"]); ok {
			out["profiles"] = author
		}
	}
	if spec.WithPost {
		if post, ok := s.lookup(app.TablePosts, "id", row["post_id"]); ok {
			if author, ok := s.lookup(app.TableProfiles, "id", post["user_id"]); ok {
				post["profiles"] = author
			}
			out["posts"] = post
		}
		// A deleted target post leaves the join row without a nested
		// entry, matching the REST backend's non-inner join.
	}
	return out
}

func (s *Store) lookup(table, col string, val any) (app.Row, bool) {
	for _, row := range s.tables[table] {
		if fmt.Sprintf("%v", row[col]) == fmt.Sprintf("%v", val) {
			return copyRow(row), true
		}
	}
	return nil, false
}

func (s *Store) Count(ctx context.Context, table string, filter app.Filter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, row := range s.tables[table] {
		if matches(row, filter) {
			n++
		}
	}
	return n, nil
}

func (s *Store) FindOne(ctx context.Context, table string, filter app.Filter) (app.Row, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.tables[table] {
		if matches(row, filter) {
			return copyRow(row), true, nil
		}
	}
	return nil, false, nil
}

// uniquePairs lists the uniqueness constraints the production schema
// enforces. Inserts violating them fail like the backend would.
var uniquePairs = map[string][2]string{
	app.TableLikes:      {"user_id", "post_id"},
	app.TableSavedPosts: {"user_id", "post_id"},
	app.TableFollows:    {"follower_id", "following_id"},
}

func (s *Store) Insert(ctx context.Context, table string, row app.Row) error {
	s.mu.Lock()

	if cols, ok := uniquePairs[table]; ok {
		dup := app.Filter{cols[0]: row[cols[0]], cols[1]: row[cols[1]]}
		for _, existing := range s.tables[table] {
			if matches(existing, dup) {
				s.mu.Unlock()
				return fmt.Errorf("duplicate key in %s for (%v, %v)", table, row[cols[0]], row[cols[1]])
			}
		}
	}

	stored := copyRow(row)
	if stored["id"] == nil {
		stored["id"] = uuid.NewString()
	}
	if stored["created_at"] == nil {
		stored["created_at"] = s.now().UTC()
	}
	s.tables[table] = append(s.tables[table], stored)
	handlers := s.eventHandlers(table, stored)
	s.mu.Unlock()

	fire(handlers, app.Event{Table: table, Type: app.EventInsert, Row: copyRow(stored)})
	return nil
}

func (s *Store) Delete(ctx context.Context, table string, filter app.Filter) error {
	s.mu.Lock()
	var removed []app.Row
	kept := s.tables[table][:0]
	for _, row := range s.tables[table] {
		if matches(row, filter) {
			removed = append(removed, row)
		} else {
			kept = append(kept, row)
		}
	}
	s.tables[table] = kept

	type pending struct {
		handlers []func(app.Event)
		row      app.Row
	}
	var fires []pending
	for _, row := range removed {
		fires = append(fires, pending{s.eventHandlers(table, row), row})
	}
	s.mu.Unlock()

	for _, p := range fires {
		fire(p.handlers, app.Event{Table: table, Type: app.EventDelete, Row: copyRow(p.row)})
	}
	return nil
}

type subscription struct {
	store   *Store
	table   string
	filter  app.Filter
	handler func(app.Event)
}

func (sub *subscription) Close() error {
	sub.store.mu.Lock()
	delete(sub.store.subs[sub.table], sub)
	sub.store.mu.Unlock()
	return nil
}

func (s *Store) Subscribe(ctx context.Context, table string, filter app.Filter, handler func(app.Event)) (app.Subscription, error) {
	sub := &subscription{store: s, table: table, filter: filter, handler: handler}
	s.mu.Lock()
	if s.subs[table] == nil {
		s.subs[table] = make(map[*subscription]struct{})
	}
	s.subs[table][sub] = struct{}{}
	s.mu.Unlock()
	return sub, nil
}

// eventHandlers collects the handlers whose filter matches the changed
// row. Must be called with the lock held; handlers fire after release.
func (s *Store) eventHandlers(table string, row app.Row) []func(app.Event) {
	var out []func(app.Event)
	for sub := range s.subs[table] {
		if matches(row, sub.filter) {
			out = append(out, sub.handler)
		}
	}
	return out
}

func fire(handlers []func(app.Event), ev app.Event) {
	for _, h := range handlers {
		h(ev)
	}
}

func (s *Store) StoreBlob(ctx context.Context, bucket, name string, data []byte) (string, error) {
	s.mu.Lock()
	s.blobs[bucket+"/"+name] = append([]byte(nil), data...)
	s.mu.Unlock()
	return "memory://" + bucket + "/" + name, nil
}

func copyRow(row app.Row) app.Row {
	out := make(app.Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

func lessValue(a, b any) bool {
	switch av := a.(type) {
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Before(bv)
		}
	case string:
		if bv, ok := b.(string); ok {
			return av < bv
		}
	case int:
		if bv, ok := b.(int); ok {
			return av < bv
		}
	case float64:
		if bv, ok := b.(float64); ok {
			return av < bv
		}
	}
	return fmt.Sprintf("%v", a) < fmt.Sprintf("%v", b)
}
