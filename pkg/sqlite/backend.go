// Package sqlite provides the public API for the embedded SQLite
// document-store backend. This package exposes the registry opener while
// keeping implementation details internal.
package sqlite

import (
	"context"

	"github.com/mesh-intelligence/binder/internal/sqlite"
	"github.com/mesh-intelligence/binder/pkg/types"
)

// Open is a registry opener for the embedded SQLite backend. The
// configuration's Host (or Params["path"]) names the directory holding
// one database file per database name.
//
// Example:
//
//	reg := registry.New(registry.WithOpener(sqlite.Open))
//	err := reg.Init(ctx, types.Settings{
//	    "default": {Host: ".binder-data"},
//	})
func Open(ctx context.Context, cfg types.ConnectionConfig) (types.Store, error) {
	return sqlite.Open(ctx, cfg)
}
