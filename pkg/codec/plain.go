package codec

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Plain canonicalizes a value decoded by a store driver into the plain
// document shape the rest of the layer works with: driver mapping types
// become map[string]any, driver sequence types become []any, and wire
// datetimes become time.Time in UTC. Scalar driver types that have no
// plain equivalent (identity values, Decimal128) are kept as-is. The input
// is never mutated.
func Plain(v any) any {
	switch t := v.(type) {
	case bson.M:
		return plainMap(t)
	case map[string]any:
		return plainMap(t)
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = Plain(e.Value)
		}
		return out
	case bson.A:
		return plainSlice(t)
	case []any:
		return plainSlice(t)
	case primitive.DateTime:
		return t.Time().UTC()
	default:
		return v
	}
}

// PlainDoc is Plain for a document root, asserting the mapping shape.
func PlainDoc(doc any) map[string]any {
	out, _ := Plain(doc).(map[string]any)
	return out
}

func plainMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = Plain(v)
	}
	return out
}

func plainSlice(s []any) []any {
	out := make([]any, 0, len(s))
	for _, v := range s {
		out = append(out, Plain(v))
	}
	return out
}
