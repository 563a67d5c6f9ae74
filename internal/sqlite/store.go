// Package sqlite implements an embedded document-store backend for binder
// on top of SQLite. Each database name maps to one SQLite file under the
// configured root directory, each collection to one table, and each
// document to one row holding the document as canonical extended JSON, so
// store-special scalar types (high-precision decimals, datetimes) survive
// the round trip losslessly.
//
// The backend issues UUID v7 strings as document identities and supports
// top-level equality filters (including "_id"). It exists to back tests
// and small embedded deployments; full query-language support is the
// MongoDB backend's job.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/binder/pkg/types"
)

// Compile-time interface checks.
var (
	_ types.Store    = (*store)(nil)
	_ types.Database = (*database)(nil)
)

// namePattern restricts database and collection names to identifier
// characters; the names are interpolated into SQL statements.
var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Open creates a Store rooted at a directory. The directory comes from
// cfg.Host, or from cfg.Params["path"] when set; an empty configuration
// uses the current directory. The directory is created if absent.
func Open(_ context.Context, cfg types.ConnectionConfig) (types.Store, error) {
	root := cfg.Host
	if p, ok := cfg.Params["path"]; ok {
		root = fmt.Sprint(p)
	}
	if root == "" {
		root = "."
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	return &store{root: root, dbs: make(map[string]*database)}, nil
}

// store holds one open *sql.DB per database name.
type store struct {
	mu   sync.Mutex
	root string
	dbs  map[string]*database
}

func (s *store) Database(name string) types.Database {
	s.mu.Lock()
	defer s.mu.Unlock()

	if db, ok := s.dbs[name]; ok {
		return db
	}
	db := &database{store: s, name: name}
	s.dbs[name] = db
	return db
}

func (s *store) Disconnect(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for _, db := range s.dbs {
		if err := db.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.dbs = make(map[string]*database)
	return firstErr
}

// database lazily opens its SQLite file on first collection access.
type database struct {
	mu    sync.Mutex
	store *store
	name  string
	db    *sql.DB
}

func (d *database) Name() string {
	return d.name
}

// Collection ensures the backing table exists and returns an accessor.
func (d *database) Collection(ctx context.Context, name string) (types.Collection, error) {
	if !namePattern.MatchString(name) {
		return nil, fmt.Errorf("invalid collection name %q", name)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureOpen(); err != nil {
		return nil, err
	}
	createStmt := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS "%s" (id TEXT PRIMARY KEY, doc TEXT NOT NULL)`, name,
	)
	if _, err := d.db.ExecContext(ctx, createStmt); err != nil {
		return nil, fmt.Errorf("creating collection %q: %w", name, err)
	}
	return &collection{db: d.db, table: name}, nil
}

func (d *database) ensureOpen() error {
	if d.db != nil {
		return nil
	}
	if !namePattern.MatchString(d.name) {
		return fmt.Errorf("invalid database name %q", d.name)
	}
	path := filepath.Join(d.store.root, d.name+".db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("opening database %q: %w", d.name, err)
	}
	d.db = db
	return nil
}

func (d *database) close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	return err
}
