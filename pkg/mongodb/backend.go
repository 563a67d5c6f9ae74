// Package mongodb provides the public API for the MongoDB backend. This
// package exposes the registry opener while keeping implementation
// details internal. MongoDB is the registry's default backend; import
// this package when selecting it explicitly alongside others.
package mongodb

import (
	"context"

	"github.com/mesh-intelligence/binder/internal/mongodb"
	"github.com/mesh-intelligence/binder/pkg/types"
)

// Open is the registry opener for MongoDB. See the connection-settings
// documentation on types.ConnectionConfig for parameter resolution.
func Open(ctx context.Context, cfg types.ConnectionConfig) (types.Store, error) {
	return mongodb.Open(ctx, cfg)
}
