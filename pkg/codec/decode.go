package codec

// Decode converts a store document into its model-facing form by renaming
// the store identity key "_id" to "id" at every nesting level: the
// top-level document, embedded sub-documents, and documents inside
// sequences. When a mapping carries both "_id" and a stale "id" (left by a
// prior partial decode), the "id" entry is dropped first; the store's
// identity key always wins. Mappings without an "_id" entry pass through
// with only their nested values walked. Scalars are untouched. The input
// is never mutated.
func Decode(doc map[string]any) map[string]any {
	out, _ := decodeValue(doc).(map[string]any)
	return out
}

func decodeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return decodeMap(t)
	case []any:
		out := make([]any, 0, len(t))
		for _, item := range t {
			out = append(out, decodeValue(item))
		}
		return out
	default:
		return v
	}
}

func decodeMap(m map[string]any) map[string]any {
	_, hasStoreID := m["_id"]
	out := make(map[string]any, len(m))
	for k, v := range m {
		if hasStoreID && k == "id" {
			continue
		}
		if k == "_id" {
			k = "id"
		}
		out[k] = decodeValue(v)
	}
	return out
}
