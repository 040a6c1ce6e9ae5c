package app

import "context"

// Table names as they exist in the relational store.
const (
	TableProfiles   = "profiles"
	TablePosts      = "posts"
	TableLikes      = "likes"
	TableSavedPosts = "saved_posts"
	TableComments   = "comments"
	TableFollows    = "follows"
)

// PostImageBucket is the storage bucket holding post images.
const PostImageBucket = "posts"

// Row is one record as returned by the data service. Values are whatever
// the backend's decoder produced; joined records appear as nested Rows.
type Row map[string]any

// Filter matches rows by column equality. All entries must match.
type Filter map[string]any

// Order sorts query results by a single column.
type Order struct {
	Column     string
	Descending bool
}

// QuerySpec describes a filtered, ordered read.
type QuerySpec struct {
	Filter Filter
	Order  Order

	// WithAuthor joins the owning profile (via user_id) under key "profiles".
	WithAuthor bool

	// WithPost joins the target post (via post_id), itself carrying its
	// author, under key "posts". Used for like/save join rows. A row whose
	// target post no longer exists comes back without the nested entry.
	WithPost bool
}

// EventType classifies a change event.
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// Event is a single row change on a subscribed table. The payload is not
// trusted for incremental patching; consumers re-read the affected scope.
type Event struct {
	Table string
	Type  EventType
	Row   Row
}

// Subscription is a live change-event stream. Close releases it.
type Subscription interface {
	Close() error
}

// DataService is the generic query/mutation/subscription capability the
// core consumes. Implementations own storage, transport, and reconnection;
// the core only issues reads and writes against them. Deletes are
// match-and-delete by filter, never identifier-only.
type DataService interface {
	Query(ctx context.Context, table string, spec QuerySpec) ([]Row, error)
	Count(ctx context.Context, table string, filter Filter) (int, error)

	// FindOne returns the first row matching the filter, or found=false
	// when none does. Used for existence checks.
	FindOne(ctx context.Context, table string, filter Filter) (Row, bool, error)

	Insert(ctx context.Context, table string, row Row) error
	Delete(ctx context.Context, table string, filter Filter) error

	// Subscribe delivers change events for rows matching the filter.
	// An empty filter matches the whole table.
	Subscribe(ctx context.Context, table string, filter Filter, handler func(Event)) (Subscription, error)

	// StoreBlob durably stores bytes and returns a public reference.
	StoreBlob(ctx context.Context, bucket, name string, data []byte) (string, error)
}
