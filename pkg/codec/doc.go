// Package codec converts documents between their model-facing form and the
// form the document store accepts on the wire.
//
// Outbound, an Encoder normalizes special scalar types (enumerations,
// arbitrary-precision decimals) into store-native representations. Inbound,
// Decode renames the store's identity key "_id" to the model-facing "id",
// and NormalizeQuery performs the reverse rename inside query filters.
// All conversions are pure: inputs are never mutated.
package codec
