package types

import (
	"context"
	"errors"
)

// Store is a live connection to one configured document database server.
// A Store is created by an Opener, owned by the connection registry, and
// torn down with Disconnect. Callers never hold a Store directly; they
// resolve a Database through the registry on every operation.
type Store interface {
	// Database returns a handle to the named database on this store.
	// The database does not need to exist yet; document stores create
	// databases on first write.
	Database(name string) Database

	// Disconnect releases the underlying connection. After Disconnect,
	// operations on databases and collections obtained from this store fail.
	Disconnect(ctx context.Context) error
}

// Database is a handle to one named database on a Store.
type Database interface {
	// Name reports the database name this handle is bound to.
	Name() string

	// Collection returns the named collection, creating it in the store
	// if it does not yet exist.
	Collection(ctx context.Context, name string) (Collection, error)
}

// Collection provides the logical document operations binder depends on.
// Documents are plain nested structures (map[string]any values, []any
// sequences, scalar leaves). Filters follow the store's query shape; the
// store's native identity key is "_id". Updates are expressed as a partial
// set-document: only the given keys are written, the rest of the stored
// document is left untouched.
type Collection interface {
	// FindOne returns the first document matching filter.
	// Returns ErrNoDocument if nothing matches.
	FindOne(ctx context.Context, filter map[string]any) (map[string]any, error)

	// Find returns a forward-only cursor over all documents matching filter.
	Find(ctx context.Context, filter map[string]any) (Cursor, error)

	// InsertOne stores doc and returns the store-issued identity value.
	InsertOne(ctx context.Context, doc map[string]any) (any, error)

	// InsertMany stores docs in a single request and returns the
	// store-issued identity values in submission order.
	InsertMany(ctx context.Context, docs []map[string]any) ([]any, error)

	// UpdateOne applies set to the first document matching filter.
	// Returns the number of documents modified (0 or 1).
	UpdateOne(ctx context.Context, filter, set map[string]any) (int64, error)

	// UpdateMany applies set to every document matching filter and
	// returns the number of documents modified.
	UpdateMany(ctx context.Context, filter, set map[string]any) (int64, error)

	// FindOneAndUpdate applies set to the first document matching filter
	// and returns the document as it exists after the update.
	// Returns ErrNoDocument if nothing matches.
	FindOneAndUpdate(ctx context.Context, filter, set map[string]any) (map[string]any, error)

	// DeleteOne removes the first document matching filter and returns
	// the number of documents deleted (0 or 1).
	DeleteOne(ctx context.Context, filter map[string]any) (int64, error)

	// CountDocuments returns the number of documents matching filter.
	// An empty filter counts the whole collection.
	CountDocuments(ctx context.Context, filter map[string]any) (int64, error)
}

// Cursor is an unmaterialized, forward-only, one-pass sequence of documents.
// Usage follows the database/sql rows idiom:
//
//	for cur.Next(ctx) {
//	    doc := cur.Document()
//	    ...
//	}
//	if err := cur.Err(); err != nil { ... }
//	cur.Close(ctx)
type Cursor interface {
	// Next advances to the next document. It returns false when the
	// sequence is exhausted or an error occurred; check Err afterwards.
	Next(ctx context.Context) bool

	// Document returns the document the cursor is positioned on.
	// Only valid after a Next call that returned true.
	Document() map[string]any

	// Err reports the first error encountered while iterating.
	Err() error

	// Close releases cursor resources. Idempotent.
	Close(ctx context.Context) error
}

// Configuration and lookup errors. Both are caller or deployment defects,
// surfaced immediately and never retried.
var (
	// ErrNotConfigured reports a model type whose database alias or
	// collection name is unset.
	ErrNotConfigured = errors.New("database alias or collection name not configured")

	// ErrUnknownDatabase reports a database alias that is not present in
	// the connection registry.
	ErrUnknownDatabase = errors.New("database alias not found in registry")
)

// Instance state errors.
var (
	// ErrMissingIdentity reports an instance-level operation attempted on
	// a model that has never been persisted (no identity value).
	ErrMissingIdentity = errors.New("model instance has no identity value")
)

// Store result errors.
var (
	// ErrNoDocument reports that no document matched a single-document
	// lookup. The model layer translates it into an absent result; it is
	// not a failure condition.
	ErrNoDocument = errors.New("no matching document")
)
