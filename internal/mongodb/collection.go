package mongodb

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mesh-intelligence/binder/pkg/codec"
	"github.com/mesh-intelligence/binder/pkg/types"
)

// Compile-time interface checks.
var (
	_ types.Collection = (*collection)(nil)
	_ types.Cursor     = (*cursor)(nil)
)

// collection wraps one mongo collection handle.
type collection struct {
	coll *mongo.Collection
}

func (c *collection) FindOne(ctx context.Context, filter map[string]any) (map[string]any, error) {
	var raw bson.M
	err := c.coll.FindOne(ctx, asFilter(filter)).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, types.ErrNoDocument
	}
	if err != nil {
		return nil, err
	}
	return codec.PlainDoc(raw), nil
}

func (c *collection) Find(ctx context.Context, filter map[string]any) (types.Cursor, error) {
	cur, err := c.coll.Find(ctx, asFilter(filter))
	if err != nil {
		return nil, err
	}
	return &cursor{cur: cur}, nil
}

func (c *collection) InsertOne(ctx context.Context, doc map[string]any) (any, error) {
	res, err := c.coll.InsertOne(ctx, bson.M(doc))
	if err != nil {
		return nil, err
	}
	return res.InsertedID, nil
}

func (c *collection) InsertMany(ctx context.Context, docs []map[string]any) ([]any, error) {
	payload := make([]any, 0, len(docs))
	for _, doc := range docs {
		payload = append(payload, bson.M(doc))
	}
	res, err := c.coll.InsertMany(ctx, payload)
	if err != nil {
		return nil, err
	}
	return res.InsertedIDs, nil
}

func (c *collection) UpdateOne(ctx context.Context, filter, set map[string]any) (int64, error) {
	res, err := c.coll.UpdateOne(ctx, asFilter(filter), bson.M{"$set": bson.M(set)})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (c *collection) UpdateMany(ctx context.Context, filter, set map[string]any) (int64, error) {
	res, err := c.coll.UpdateMany(ctx, asFilter(filter), bson.M{"$set": bson.M(set)})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (c *collection) FindOneAndUpdate(ctx context.Context, filter, set map[string]any) (map[string]any, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var raw bson.M
	err := c.coll.FindOneAndUpdate(ctx, asFilter(filter), bson.M{"$set": bson.M(set)}, opts).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, types.ErrNoDocument
	}
	if err != nil {
		return nil, err
	}
	return codec.PlainDoc(raw), nil
}

func (c *collection) DeleteOne(ctx context.Context, filter map[string]any) (int64, error) {
	res, err := c.coll.DeleteOne(ctx, asFilter(filter))
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (c *collection) CountDocuments(ctx context.Context, filter map[string]any) (int64, error) {
	return c.coll.CountDocuments(ctx, asFilter(filter))
}

// asFilter guards against nil filters; the driver requires a document.
func asFilter(filter map[string]any) bson.M {
	if filter == nil {
		return bson.M{}
	}
	return bson.M(filter)
}

// cursor adapts a mongo cursor to the forward-only types.Cursor contract,
// canonicalizing each document as it is decoded.
type cursor struct {
	cur *mongo.Cursor
	doc map[string]any
	err error
}

func (c *cursor) Next(ctx context.Context) bool {
	if c.err != nil || !c.cur.Next(ctx) {
		return false
	}
	var raw bson.M
	if err := c.cur.Decode(&raw); err != nil {
		c.err = err
		return false
	}
	c.doc = codec.PlainDoc(raw)
	return true
}

func (c *cursor) Document() map[string]any {
	return c.doc
}

func (c *cursor) Err() error {
	if c.err != nil {
		return c.err
	}
	return c.cur.Err()
}

func (c *cursor) Close(ctx context.Context) error {
	return c.cur.Close(ctx)
}
