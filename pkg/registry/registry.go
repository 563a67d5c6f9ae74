// Package registry multiplexes named document-database connections behind
// one access point. A Registry is an explicitly constructed object passed
// to the code that needs it; there is no process-wide singleton. Init is
// expected to run before concurrent traffic begins, and the alias table is
// only mutated inside Init and Close.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mesh-intelligence/binder/internal/mongodb"
	"github.com/mesh-intelligence/binder/pkg/types"
)

// ErrNoSettings reports an Init call with no configured aliases.
var ErrNoSettings = errors.New("no database settings given")

// Registry holds the alias to database-handle table. Construct with New,
// populate with Init, and look up handles with Resolve. Entries are
// replaced wholesale on re-Init; callers holding a resolved handle for a
// replaced alias must re-resolve.
type Registry struct {
	mu     sync.RWMutex
	open   types.Opener
	stores map[string]types.Store
	dbs    map[string]types.Database
}

// Option configures a Registry.
type Option func(*Registry)

// WithOpener selects the backend used to open connections. The default
// opener connects to MongoDB.
func WithOpener(open types.Opener) Option {
	return func(r *Registry) {
		r.open = open
	}
}

// New creates an empty Registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		open:   mongodb.Open,
		stores: make(map[string]types.Store),
		dbs:    make(map[string]types.Database),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Init opens a connection for every alias in settings and binds the
// alias to its target database. The database name defaults to the alias
// when the configuration does not set one; an empty configuration is legal
// and connects to the backend's default address.
//
// Init is idempotent per alias: initializing an alias again replaces its
// entry and disconnects the handle it replaces, so handles never
// accumulate. Aliases from earlier Init calls that are not named in
// settings are left untouched.
func (r *Registry) Init(ctx context.Context, settings types.Settings) error {
	if len(settings) == 0 {
		return ErrNoSettings
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for alias, cfg := range settings {
		if cfg.Name == "" {
			cfg.Name = alias
		}
		store, err := r.open(ctx, cfg)
		if err != nil {
			return fmt.Errorf("opening connection %q: %w", alias, err)
		}
		if old, ok := r.stores[alias]; ok {
			if err := old.Disconnect(ctx); err != nil {
				return fmt.Errorf("replacing connection %q: %w", alias, err)
			}
		}
		r.stores[alias] = store
		r.dbs[alias] = store.Database(cfg.Name)
	}
	return nil
}

// Resolve returns the database handle bound to alias. Absence is signaled
// through the second return value, never through a panic or an error.
func (r *Registry) Resolve(alias string) (types.Database, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	db, ok := r.dbs[alias]
	return db, ok
}

// Close disconnects every registered store and empties the registry.
// Intended for process shutdown and test teardown.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for alias, store := range r.stores {
		if err := store.Disconnect(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("disconnecting %q: %w", alias, err)
		}
	}
	r.stores = make(map[string]types.Store)
	r.dbs = make(map[string]types.Database)
	return firstErr
}
