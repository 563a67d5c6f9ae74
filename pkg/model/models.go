package model

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/mesh-intelligence/binder/pkg/codec"
	"github.com/mesh-intelligence/binder/pkg/registry"
	"github.com/mesh-intelligence/binder/pkg/types"
)

// Models is the persistence handle for one model type. It owns no
// connection state: the binding is re-resolved through the registry on
// every operation, so a re-initialized alias is picked up without
// constructing a new handle.
//
// Operations touching the store take a Context and suspend only at store
// round trips; encode, decode, and diff work runs to completion in
// memory. There is no retry and no timeout policy here: a failed round
// trip propagates to the caller, and a cancelled operation leaves the
// instance exactly as it was before that operation's round trip.
// Concurrent writes to the same instance are not safe; serialize them in
// the caller.
type Models[T any, PT ModelOf[T]] struct {
	reg *registry.Registry
	enc codec.Encoder
}

// Option configures a Models handle.
type Option func(*handleConfig)

type handleConfig struct {
	enc codec.Encoder
}

// WithEncoder replaces the outbound encoder, typically to register
// additional normalization rules beyond enumerations and decimals.
func WithEncoder(enc codec.Encoder) Option {
	return func(c *handleConfig) {
		c.enc = enc
	}
}

// New creates the persistence handle for model type T over reg.
func New[T any, PT ModelOf[T]](reg *registry.Registry, opts ...Option) *Models[T, PT] {
	cfg := handleConfig{enc: codec.NewEncoder()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Models[T, PT]{reg: reg, enc: cfg.enc}
}

// Collection resolves the model's binding to a live collection handle,
// creating the collection in the store if it does not yet exist. It
// fails with types.ErrNotConfigured when the binding is incomplete and
// with types.ErrUnknownDatabase when the alias is not registered.
func (m *Models[T, PT]) Collection(ctx context.Context) (types.Collection, error) {
	var zero T
	b := PT(&zero).Binding()
	if b.Database == "" || b.Collection == "" {
		return nil, fmt.Errorf("%w for %T", types.ErrNotConfigured, zero)
	}
	db, ok := m.reg.Resolve(b.Database)
	if !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownDatabase, b.Database)
	}
	return db.Collection(ctx, b.Collection)
}

// Save persists doc. A transient instance is inserted: it adopts the
// store-issued identity value and its snapshot becomes the decoded
// inserted document. A persisted instance is dirty-diffed key by key
// against its snapshot and only the changed fields are written; when
// nothing changed, Save issues no store call at all. On success the
// changed fields are merged into the snapshot.
func (m *Models[T, PT]) Save(ctx context.Context, doc PT) error {
	coll, err := m.Collection(ctx)
	if err != nil {
		return err
	}
	fields, err := m.preSave(ctx, doc, m.enc.Encode(fieldsOf(doc, false)), false)
	if err != nil {
		return err
	}

	d := doc.document()
	if !d.Persisted() {
		id, err := coll.InsertOne(ctx, fields)
		if err != nil {
			return err
		}
		inserted := make(map[string]any, len(fields)+1)
		for k, v := range fields {
			inserted[k] = v
		}
		inserted["_id"] = id
		d.ID = id
		d.snapshot = codec.Decode(inserted)
		return nil
	}

	changed := make(map[string]any)
	for k, v := range fields {
		if !codec.Equal(v, d.snapshot[k]) {
			changed[k] = v
		}
	}
	if len(changed) == 0 {
		return nil
	}
	if _, err := coll.UpdateOne(ctx, map[string]any{"_id": d.ID}, changed); err != nil {
		return err
	}
	// The snapshot may be nil when the identity was assigned directly
	// rather than by a previous Save or load.
	if d.snapshot == nil {
		d.snapshot = make(map[string]any, len(changed))
	}
	for k, v := range changed {
		d.snapshot[k] = v
	}
	return nil
}

// Update applies a partial update to a persisted instance. fields is
// either a map of field:value pairs or a struct whose nil pointer fields
// are treated as unset. The store performs a find-and-update returning
// the new document, which is merged into the snapshot and used to refresh
// the instance's fields. A transient instance fails with
// types.ErrMissingIdentity before any store call.
func (m *Models[T, PT]) Update(ctx context.Context, doc PT, fields any) error {
	d := doc.document()
	if !d.Persisted() {
		return types.ErrMissingIdentity
	}
	fm, err := toFieldMap(fields)
	if err != nil {
		return err
	}
	enc, err := m.preSave(ctx, doc, m.enc.Encode(fm), false)
	if err != nil {
		return err
	}
	coll, err := m.Collection(ctx)
	if err != nil {
		return err
	}
	updated, err := coll.FindOneAndUpdate(ctx, map[string]any{"_id": d.ID}, enc)
	if errors.Is(err, types.ErrNoDocument) {
		// The document vanished server-side; the instance keeps its
		// last known state.
		return nil
	}
	if err != nil {
		return err
	}
	decoded := codec.Decode(updated)
	if d.snapshot == nil {
		d.snapshot = make(map[string]any, len(decoded))
	}
	for k, v := range decoded {
		d.snapshot[k] = v
	}
	return refresh(d.snapshot, doc)
}

// Reload re-fetches the instance's document by identity and replaces the
// snapshot and fields from it. A missing document is not an error: the
// instance is simply left unchanged. A transient instance fails with
// types.ErrMissingIdentity before any store call.
func (m *Models[T, PT]) Reload(ctx context.Context, doc PT) error {
	d := doc.document()
	if !d.Persisted() {
		return types.ErrMissingIdentity
	}
	coll, err := m.Collection(ctx)
	if err != nil {
		return err
	}
	raw, err := coll.FindOne(ctx, map[string]any{"_id": d.ID})
	if errors.Is(err, types.ErrNoDocument) {
		return nil
	}
	if err != nil {
		return err
	}
	d.snapshot = codec.Decode(raw)
	return refresh(d.snapshot, doc)
}

// Delete removes the instance's document by identity and returns the
// number of documents deleted (0 or 1). On success the snapshot is
// cleared to empty, even when the store reports zero deletions; a failed
// delete leaves the instance as it was. A transient instance fails with
// types.ErrMissingIdentity before any store call.
func (m *Models[T, PT]) Delete(ctx context.Context, doc PT) (int64, error) {
	d := doc.document()
	if !d.Persisted() {
		return 0, types.ErrMissingIdentity
	}
	coll, err := m.Collection(ctx)
	if err != nil {
		return 0, err
	}
	count, err := coll.DeleteOne(ctx, map[string]any{"_id": d.ID})
	if err != nil {
		return count, err
	}
	d.snapshot = map[string]any{}
	return count, nil
}

// Create constructs an instance from a map or struct of fields and saves
// it.
func (m *Models[T, PT]) Create(ctx context.Context, fields any) (PT, error) {
	fm, err := toFieldMap(fields)
	if err != nil {
		return nil, err
	}
	doc := PT(new(T))
	if err := refresh(fm, doc); err != nil {
		return nil, err
	}
	if err := m.Save(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// FindOne returns the first instance matching query, or nil when nothing
// matches; "not found" is not an error. Identity references in the query
// ("id" keys at any depth) are rewritten to the store's identity key
// before dispatch.
func (m *Models[T, PT]) FindOne(ctx context.Context, query map[string]any) (PT, error) {
	coll, err := m.Collection(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := coll.FindOne(ctx, codec.NormalizeQuery(query))
	if errors.Is(err, types.ErrNoDocument) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m.instantiate(raw)
}

// FindMany eagerly materializes every instance matching query. For an
// unmaterialized one-pass view of the matching documents, use FindCursor.
func (m *Models[T, PT]) FindMany(ctx context.Context, query map[string]any) ([]PT, error) {
	return m.findNormalized(ctx, codec.NormalizeQuery(query))
}

// FindCursor dispatches query and returns the store's lazy cursor over
// the raw matching documents: finite, forward-only, one pass. The caller
// owns Close.
func (m *Models[T, PT]) FindCursor(ctx context.Context, query map[string]any) (types.Cursor, error) {
	coll, err := m.Collection(ctx)
	if err != nil {
		return nil, err
	}
	return coll.Find(ctx, codec.NormalizeQuery(query))
}

// Count returns the number of documents matching query; an empty or nil
// query counts the whole collection.
func (m *Models[T, PT]) Count(ctx context.Context, query map[string]any) (int64, error) {
	coll, err := m.Collection(ctx)
	if err != nil {
		return 0, err
	}
	return coll.CountDocuments(ctx, codec.NormalizeQuery(query))
}

// BulkCreate inserts docs — model instances, field maps, or a mix — in a
// single multi-document request and returns freshly constructed instances
// carrying the store-issued identities, zipped positionally.
//
// The positional zip assumes the store returns identity values in
// submission order. MongoDB preserves that order; a store that does not
// would silently mis-assign identities here.
func (m *Models[T, PT]) BulkCreate(ctx context.Context, docs []any) ([]PT, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	coll, err := m.Collection(ctx)
	if err != nil {
		return nil, err
	}
	encoded := make([]map[string]any, 0, len(docs))
	for _, raw := range docs {
		fm, err := toFieldMap(raw)
		if err != nil {
			return nil, err
		}
		target, ok := raw.(PT)
		if !ok {
			target = PT(new(T))
		}
		fields, err := m.preSave(ctx, target, m.enc.Encode(fm), true)
		if err != nil {
			return nil, err
		}
		encoded = append(encoded, fields)
	}
	ids, err := coll.InsertMany(ctx, encoded)
	if err != nil {
		return nil, err
	}
	out := make([]PT, 0, len(ids))
	for i, id := range ids {
		inserted := make(map[string]any, len(encoded[i])+1)
		for k, v := range encoded[i] {
			inserted[k] = v
		}
		inserted["_id"] = id
		inst, err := m.instantiate(inserted)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, nil
}

// UpdateMany applies fields to every document matching query, then
// re-runs the same normalized query and returns the refreshed set.
//
// The result reflects the match set after the update, not before:
// documents the update moved out of the filter are dropped from the
// result and documents that moved in are included. That re-query
// semantic is deliberate.
func (m *Models[T, PT]) UpdateMany(ctx context.Context, query, fields map[string]any) ([]PT, error) {
	coll, err := m.Collection(ctx)
	if err != nil {
		return nil, err
	}
	normalized := codec.NormalizeQuery(query)
	enc, err := m.preSave(ctx, PT(new(T)), m.enc.Encode(fields), true)
	if err != nil {
		return nil, err
	}
	if _, err := coll.UpdateMany(ctx, normalized, enc); err != nil {
		return nil, err
	}
	return m.findNormalized(ctx, normalized)
}

// findNormalized materializes instances for an already-normalized query.
func (m *Models[T, PT]) findNormalized(ctx context.Context, query map[string]any) ([]PT, error) {
	coll, err := m.Collection(ctx)
	if err != nil {
		return nil, err
	}
	cur, err := coll.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []PT
	for cur.Next(ctx) {
		inst, err := m.instantiate(cur.Document())
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// instantiate builds a model instance from a store document: decode,
// refresh fields, adopt identity, install the snapshot.
func (m *Models[T, PT]) instantiate(raw map[string]any) (PT, error) {
	decoded := codec.Decode(raw)
	doc := PT(new(T))
	if err := refresh(decoded, doc); err != nil {
		return nil, err
	}
	d := doc.document()
	d.ID = decoded["id"]
	d.snapshot = decoded
	return doc, nil
}

// preSave runs the model's pre-save hook over encoded fields when the
// type implements PreSaver; otherwise the fields pass through unchanged.
func (m *Models[T, PT]) preSave(ctx context.Context, target PT, fields map[string]any, many bool) (map[string]any, error) {
	if ps, ok := any(target).(PreSaver); ok {
		return ps.PreSave(ctx, fields, many)
	}
	return fields, nil
}

// toFieldMap accepts the two field-set shapes the operations take: a
// plain map used as-is, or a struct (possibly a model instance) whose nil
// pointer fields are treated as unset.
func toFieldMap(fields any) (map[string]any, error) {
	switch f := fields.(type) {
	case map[string]any:
		return f, nil
	case nil:
		return nil, fmt.Errorf("fields must be a map or struct, got nil")
	default:
		v := reflect.ValueOf(f)
		for v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return nil, fmt.Errorf("fields must be a map or struct, got nil %T", f)
			}
			v = v.Elem()
		}
		if v.Kind() != reflect.Struct {
			return nil, fmt.Errorf("fields must be a map or struct, got %T", f)
		}
		return fieldsOf(f, true), nil
	}
}
