// Package model binds typed Go structs to documents in a schemaless
// document store. A model type embeds Document for identity and
// mutation-tracking state, declares its storage location with a Binding,
// and performs persistence through a Models handle constructed over a
// connection registry:
//
//	type User struct {
//	    model.Document `bson:"-"`
//
//	    Username string    `bson:"username"`
//	    Age      int       `bson:"age"`
//	}
//
//	func (User) Binding() model.Binding {
//	    return model.Binding{Database: "default", Collection: "users"}
//	}
//
//	users := model.New[User](reg)
//	u := &User{Username: "ada"}
//	err := users.Save(ctx, u)
package model

import "context"

// Document carries the persistence state every model instance needs: the
// store-issued identity value and the last-known-document snapshot used
// for dirty-diffing. Embed it in a model struct. The snapshot is
// structurally separate from the model's own fields: it is unexported,
// never serialized, and only ever set from what the store actually
// returned.
type Document struct {
	// ID is the identity value issued by the store on first save. It is
	// nil while the instance is transient. Model-facing documents and
	// queries name it "id"; the store names it "_id".
	ID any `bson:"-" json:"id,omitempty" mapstructure:"-"`

	snapshot map[string]any
}

// document anchors the ModelOf constraint to this package: only types
// embedding Document satisfy it.
func (d *Document) document() *Document { return d }

// Persisted reports whether the instance has been assigned an identity
// value, i.e. has left the transient state.
func (d *Document) Persisted() bool { return d.ID != nil }

// Snapshot returns a copy of the last-known-document: the fields exactly
// as last read from or written to the store, in model-facing form. It is
// nil for a transient instance and empty after a delete.
func (d *Document) Snapshot() map[string]any {
	if d.snapshot == nil {
		return nil
	}
	out := make(map[string]any, len(d.snapshot))
	for k, v := range d.snapshot {
		out[k] = v
	}
	return out
}

// Binding is the static per-model-type storage configuration: which
// registry alias to resolve and which collection to use. Both fields are
// required for any persistence operation.
type Binding struct {
	Database   string
	Collection string
}

// Bound is implemented by model types to declare their Binding.
type Bound interface {
	Binding() Binding
}

// ModelOf constrains a model pointer type: a *T that embeds Document and
// declares a Binding. Callers never name this constraint directly; type
// inference resolves it from New[T].
type ModelOf[T any] interface {
	*T
	Bound
	document() *Document
}

// PreSaver is an optional extension point. A model type implementing it
// has PreSave run over the encoded field set before every write: Save
// (both insert and update paths), Update, UpdateMany, and BulkCreate.
// many is true for the bulk variants. The returned map is what gets
// written; the default behavior for types that do not implement PreSaver
// is identity.
type PreSaver interface {
	PreSave(ctx context.Context, fields map[string]any, many bool) (map[string]any, error)
}
