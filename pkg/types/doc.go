// Package types defines the store-facing interfaces, connection settings,
// and standard error types for the binder document-mapping layer.
//
// The underlying document database is an external collaborator: binder issues
// logical operations (find, insert, update, delete) through the interfaces in
// this package and never speaks a wire protocol of its own. Backend
// implementations live under internal/ and are selected through an Opener.
package types
