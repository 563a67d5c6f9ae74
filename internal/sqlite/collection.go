package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/mesh-intelligence/binder/pkg/codec"
	"github.com/mesh-intelligence/binder/pkg/types"
)

// Compile-time interface checks.
var (
	_ types.Collection = (*collection)(nil)
	_ types.Cursor     = (*cursor)(nil)
)

// collection accesses one document table. Documents are stored as
// canonical extended JSON keyed by the stringified identity value.
type collection struct {
	db    *sql.DB
	table string
}

// row pairs a table key with its decoded document.
type row struct {
	key string
	doc map[string]any
}

func (c *collection) FindOne(ctx context.Context, filter map[string]any) (map[string]any, error) {
	match, err := c.firstMatch(ctx, filter)
	if err != nil {
		return nil, err
	}
	if match == nil {
		return nil, types.ErrNoDocument
	}
	return match.doc, nil
}

func (c *collection) Find(ctx context.Context, filter map[string]any) (types.Cursor, error) {
	rows, err := c.matching(ctx, filter)
	if err != nil {
		return nil, err
	}
	docs := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		docs = append(docs, r.doc)
	}
	return &cursor{docs: docs}, nil
}

func (c *collection) InsertOne(ctx context.Context, doc map[string]any) (any, error) {
	stored, id, err := withIdentity(doc)
	if err != nil {
		return nil, err
	}
	raw, err := encodeDoc(stored)
	if err != nil {
		return nil, err
	}
	insertStmt := fmt.Sprintf(`INSERT INTO "%s" (id, doc) VALUES (?, ?)`, c.table)
	if _, err := c.db.ExecContext(ctx, insertStmt, fmt.Sprint(id), raw); err != nil {
		return nil, fmt.Errorf("inserting document: %w", err)
	}
	return id, nil
}

func (c *collection) InsertMany(ctx context.Context, docs []map[string]any) ([]any, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning insert transaction: %w", err)
	}
	defer tx.Rollback()

	insertStmt := fmt.Sprintf(`INSERT INTO "%s" (id, doc) VALUES (?, ?)`, c.table)
	ids := make([]any, 0, len(docs))
	for _, doc := range docs {
		stored, id, err := withIdentity(doc)
		if err != nil {
			return nil, err
		}
		raw, err := encodeDoc(stored)
		if err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx, insertStmt, fmt.Sprint(id), raw); err != nil {
			return nil, fmt.Errorf("inserting document: %w", err)
		}
		ids = append(ids, id)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing insert: %w", err)
	}
	return ids, nil
}

func (c *collection) UpdateOne(ctx context.Context, filter, set map[string]any) (int64, error) {
	match, err := c.firstMatch(ctx, filter)
	if err != nil {
		return 0, err
	}
	if match == nil {
		return 0, nil
	}
	if err := c.writeBack(ctx, match, set); err != nil {
		return 0, err
	}
	return 1, nil
}

func (c *collection) UpdateMany(ctx context.Context, filter, set map[string]any) (int64, error) {
	rows, err := c.matching(ctx, filter)
	if err != nil {
		return 0, err
	}
	for _, r := range rows {
		if err := c.writeBack(ctx, &r, set); err != nil {
			return 0, err
		}
	}
	return int64(len(rows)), nil
}

func (c *collection) FindOneAndUpdate(ctx context.Context, filter, set map[string]any) (map[string]any, error) {
	match, err := c.firstMatch(ctx, filter)
	if err != nil {
		return nil, err
	}
	if match == nil {
		return nil, types.ErrNoDocument
	}
	if err := c.writeBack(ctx, match, set); err != nil {
		return nil, err
	}
	return applySet(match.doc, set), nil
}

func (c *collection) DeleteOne(ctx context.Context, filter map[string]any) (int64, error) {
	match, err := c.firstMatch(ctx, filter)
	if err != nil {
		return 0, err
	}
	if match == nil {
		return 0, nil
	}
	deleteStmt := fmt.Sprintf(`DELETE FROM "%s" WHERE id = ?`, c.table)
	if _, err := c.db.ExecContext(ctx, deleteStmt, match.key); err != nil {
		return 0, fmt.Errorf("deleting document: %w", err)
	}
	return 1, nil
}

func (c *collection) CountDocuments(ctx context.Context, filter map[string]any) (int64, error) {
	if len(filter) == 0 {
		var count int64
		countStmt := fmt.Sprintf(`SELECT COUNT(*) FROM "%s"`, c.table)
		if err := c.db.QueryRowContext(ctx, countStmt).Scan(&count); err != nil {
			return 0, fmt.Errorf("counting documents: %w", err)
		}
		return count, nil
	}
	rows, err := c.matching(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

// firstMatch returns the first document matching filter in insertion
// order, or nil when nothing matches.
func (c *collection) firstMatch(ctx context.Context, filter map[string]any) (*row, error) {
	rows, err := c.matching(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// matching scans the table in insertion order and keeps documents whose
// top-level fields equal every filter entry. Equality is wire-format
// tolerant (codec.Equal); operator filters are not supported by this
// backend.
func (c *collection) matching(ctx context.Context, filter map[string]any) ([]row, error) {
	selectStmt := fmt.Sprintf(`SELECT id, doc FROM "%s" ORDER BY rowid`, c.table)
	res, err := c.db.QueryContext(ctx, selectStmt)
	if err != nil {
		return nil, fmt.Errorf("scanning collection: %w", err)
	}
	defer res.Close()

	var out []row
	for res.Next() {
		var key, raw string
		if err := res.Scan(&key, &raw); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		doc, err := decodeDoc(raw)
		if err != nil {
			return nil, err
		}
		if matches(doc, filter) {
			out = append(out, row{key: key, doc: doc})
		}
	}
	if err := res.Err(); err != nil {
		return nil, fmt.Errorf("scanning collection: %w", err)
	}
	return out, nil
}

// writeBack persists r's document with set merged in.
func (c *collection) writeBack(ctx context.Context, r *row, set map[string]any) error {
	raw, err := encodeDoc(applySet(r.doc, set))
	if err != nil {
		return err
	}
	updateStmt := fmt.Sprintf(`UPDATE "%s" SET doc = ? WHERE id = ?`, c.table)
	if _, err := c.db.ExecContext(ctx, updateStmt, raw, r.key); err != nil {
		return fmt.Errorf("updating document: %w", err)
	}
	return nil
}

// withIdentity returns a copy of doc carrying an "_id", issuing a UUID v7
// when the caller did not provide one, plus the identity value.
func withIdentity(doc map[string]any) (map[string]any, any, error) {
	stored := make(map[string]any, len(doc)+1)
	for k, v := range doc {
		stored[k] = v
	}
	id, ok := stored["_id"]
	if !ok {
		generated, err := uuid.NewV7()
		if err != nil {
			return nil, nil, fmt.Errorf("generating document identity: %w", err)
		}
		id = generated.String()
		stored["_id"] = id
	}
	return stored, id, nil
}

// applySet returns doc with set merged over it. The identity key is
// immutable and silently skipped.
func applySet(doc, set map[string]any) map[string]any {
	out := make(map[string]any, len(doc)+len(set))
	for k, v := range doc {
		out[k] = v
	}
	for k, v := range set {
		if k == "_id" {
			continue
		}
		out[k] = v
	}
	return out
}

// matches reports whether every filter entry equals the corresponding
// top-level document field.
func matches(doc, filter map[string]any) bool {
	for k, want := range filter {
		got, ok := doc[k]
		if !ok || !codec.Equal(got, want) {
			return false
		}
	}
	return true
}

// encodeDoc serializes a document as canonical extended JSON.
func encodeDoc(doc map[string]any) (string, error) {
	raw, err := bson.MarshalExtJSON(bson.M(doc), true, false)
	if err != nil {
		return "", fmt.Errorf("encoding document: %w", err)
	}
	return string(raw), nil
}

// decodeDoc restores a document from canonical extended JSON and
// canonicalizes driver container types away.
func decodeDoc(raw string) (map[string]any, error) {
	var m bson.M
	if err := bson.UnmarshalExtJSON([]byte(raw), true, &m); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	return codec.PlainDoc(m), nil
}

// cursor is a materialized forward-only view over matched documents.
type cursor struct {
	docs []map[string]any
	next int
	doc  map[string]any
}

func (c *cursor) Next(context.Context) bool {
	if c.next >= len(c.docs) {
		return false
	}
	c.doc = c.docs[c.next]
	c.next++
	return true
}

func (c *cursor) Document() map[string]any { return c.doc }

func (c *cursor) Err() error { return nil }

func (c *cursor) Close(context.Context) error { return nil }
