// Package mongodb implements the MongoDB storage backend for binder using
// the official Go driver. The backend translates the logical collection
// operations from pkg/types into driver calls and canonicalizes every
// returned document into plain nested structures. It adds no retry,
// timeout, or error-translation policy of its own: driver errors propagate
// unchanged, with the single exception of the driver's "no documents"
// sentinel, which maps to types.ErrNoDocument.
package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mesh-intelligence/binder/pkg/types"
)

// Compile-time interface checks.
var (
	_ types.Store    = (*store)(nil)
	_ types.Database = (*database)(nil)
)

// Open connects to the MongoDB deployment described by cfg and returns a
// Store for it. Connection parameters resolve in this order: an entirely
// empty configuration connects to the driver's default address; a
// filesystem-socket host connects directly through the socket; otherwise
// the explicit fields are combined with the driver's documented defaults.
// cfg.Params entries are merged verbatim into the connection string.
func Open(ctx context.Context, cfg types.ConnectionConfig) (types.Store, error) {
	client, err := mongo.Connect(ctx, clientOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	return &store{client: client}, nil
}

// store wraps one mongo client.
type store struct {
	client *mongo.Client
}

func (s *store) Database(name string) types.Database {
	return &database{db: s.client.Database(name)}
}

func (s *store) Disconnect(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// database wraps one mongo database handle.
type database struct {
	db *mongo.Database
}

func (d *database) Name() string {
	return d.db.Name()
}

// Collection returns the named collection, creating it first when the
// database does not have it yet.
func (d *database) Collection(ctx context.Context, name string) (types.Collection, error) {
	names, err := d.db.ListCollectionNames(ctx, bson.M{"name": name})
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}
	if len(names) == 0 {
		if err := d.db.CreateCollection(ctx, name); err != nil {
			return nil, fmt.Errorf("creating collection %q: %w", name, err)
		}
	}
	return &collection{coll: d.db.Collection(name)}, nil
}

// clientOptions builds driver options from cfg, attaching credentials only
// when a username is configured. The authentication source defaults to
// "admin"; the mechanism is left to driver negotiation unless set.
func clientOptions(cfg types.ConnectionConfig) *options.ClientOptions {
	opts := options.Client().ApplyURI(BuildURI(cfg))
	if cfg.Username != "" {
		cred := options.Credential{
			Username:   cfg.Username,
			Password:   cfg.Password,
			AuthSource: cfg.AuthSource,
		}
		if cred.AuthSource == "" {
			cred.AuthSource = defaultAuthSource
		}
		if cfg.AuthMechanism != "" {
			cred.AuthMechanism = cfg.AuthMechanism
		}
		opts.SetAuth(cred)
	}
	return opts
}
