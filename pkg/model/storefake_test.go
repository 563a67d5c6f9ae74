package model

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/binder/pkg/codec"
	"github.com/mesh-intelligence/binder/pkg/registry"
	"github.com/mesh-intelligence/binder/pkg/types"
)

// memStore is an in-memory types.Store that records every collection call
// so tests can assert which round trips actually happened and what was
// submitted.
type memStore struct {
	dbs map[string]*memDatabase
}

func newMemStore() *memStore {
	return &memStore{dbs: make(map[string]*memDatabase)}
}

func (s *memStore) Database(name string) types.Database {
	if db, ok := s.dbs[name]; ok {
		return db
	}
	db := &memDatabase{name: name, colls: make(map[string]*memCollection)}
	s.dbs[name] = db
	return db
}

func (s *memStore) Disconnect(context.Context) error { return nil }

// collection digs out a collection for direct assertions.
func (s *memStore) collection(db, name string) *memCollection {
	d, _ := s.Database(db).(*memDatabase)
	return d.colls[name]
}

type memDatabase struct {
	name  string
	colls map[string]*memCollection
}

func (d *memDatabase) Name() string { return d.name }

func (d *memDatabase) Collection(_ context.Context, name string) (types.Collection, error) {
	if c, ok := d.colls[name]; ok {
		return c, nil
	}
	c := &memCollection{}
	d.colls[name] = c
	return c, nil
}

type memCollection struct {
	docs    []map[string]any
	nextID  int
	calls   []string
	lastSet map[string]any

	// failWith, when set, is returned by the next write call.
	failWith error
}

func (c *memCollection) takeFailure() error {
	err := c.failWith
	c.failWith = nil
	return err
}

func (c *memCollection) record(op string) { c.calls = append(c.calls, op) }

func (c *memCollection) issueID() string {
	c.nextID++
	return fmt.Sprintf("oid-%d", c.nextID)
}

func (c *memCollection) matching(filter map[string]any) []int {
	var idx []int
	for i, doc := range c.docs {
		ok := true
		for k, want := range filter {
			got, present := doc[k]
			if !present || !codec.Equal(got, want) {
				ok = false
				break
			}
		}
		if ok {
			idx = append(idx, i)
		}
	}
	return idx
}

func copyDoc(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}

func (c *memCollection) FindOne(_ context.Context, filter map[string]any) (map[string]any, error) {
	c.record("FindOne")
	idx := c.matching(filter)
	if len(idx) == 0 {
		return nil, types.ErrNoDocument
	}
	return copyDoc(c.docs[idx[0]]), nil
}

func (c *memCollection) Find(_ context.Context, filter map[string]any) (types.Cursor, error) {
	c.record("Find")
	var docs []map[string]any
	for _, i := range c.matching(filter) {
		docs = append(docs, copyDoc(c.docs[i]))
	}
	return &memCursor{docs: docs}, nil
}

func (c *memCollection) InsertOne(_ context.Context, doc map[string]any) (any, error) {
	c.record("InsertOne")
	stored := copyDoc(doc)
	id := c.issueID()
	stored["_id"] = id
	c.docs = append(c.docs, stored)
	return id, nil
}

func (c *memCollection) InsertMany(_ context.Context, docs []map[string]any) ([]any, error) {
	c.record("InsertMany")
	ids := make([]any, 0, len(docs))
	for _, doc := range docs {
		stored := copyDoc(doc)
		id := c.issueID()
		stored["_id"] = id
		c.docs = append(c.docs, stored)
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *memCollection) UpdateOne(_ context.Context, filter, set map[string]any) (int64, error) {
	c.record("UpdateOne")
	c.lastSet = set
	idx := c.matching(filter)
	if len(idx) == 0 {
		return 0, nil
	}
	c.apply(idx[0], set)
	return 1, nil
}

func (c *memCollection) UpdateMany(_ context.Context, filter, set map[string]any) (int64, error) {
	c.record("UpdateMany")
	c.lastSet = set
	idx := c.matching(filter)
	for _, i := range idx {
		c.apply(i, set)
	}
	return int64(len(idx)), nil
}

func (c *memCollection) FindOneAndUpdate(_ context.Context, filter, set map[string]any) (map[string]any, error) {
	c.record("FindOneAndUpdate")
	c.lastSet = set
	idx := c.matching(filter)
	if len(idx) == 0 {
		return nil, types.ErrNoDocument
	}
	c.apply(idx[0], set)
	return copyDoc(c.docs[idx[0]]), nil
}

func (c *memCollection) DeleteOne(_ context.Context, filter map[string]any) (int64, error) {
	c.record("DeleteOne")
	if err := c.takeFailure(); err != nil {
		return 0, err
	}
	idx := c.matching(filter)
	if len(idx) == 0 {
		return 0, nil
	}
	i := idx[0]
	c.docs = append(c.docs[:i], c.docs[i+1:]...)
	return 1, nil
}

func (c *memCollection) CountDocuments(_ context.Context, filter map[string]any) (int64, error) {
	c.record("CountDocuments")
	return int64(len(c.matching(filter))), nil
}

func (c *memCollection) apply(i int, set map[string]any) {
	doc := copyDoc(c.docs[i])
	for k, v := range set {
		if k == "_id" {
			continue
		}
		doc[k] = v
	}
	c.docs[i] = doc
}

type memCursor struct {
	docs []map[string]any
	next int
	doc  map[string]any
}

func (c *memCursor) Next(context.Context) bool {
	if c.next >= len(c.docs) {
		return false
	}
	c.doc = c.docs[c.next]
	c.next++
	return true
}

func (c *memCursor) Document() map[string]any    { return c.doc }
func (c *memCursor) Err() error                  { return nil }
func (c *memCursor) Close(context.Context) error { return nil }

// newTestRegistry binds the "default" alias to store.
func newTestRegistry(store types.Store) (*registry.Registry, error) {
	reg := registry.New(registry.WithOpener(
		func(context.Context, types.ConnectionConfig) (types.Store, error) {
			return store, nil
		},
	))
	err := reg.Init(context.Background(), types.Settings{"default": {}})
	return reg, err
}
