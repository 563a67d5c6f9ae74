package codec

// NormalizeQuery rewrites a query filter from model-facing identity naming
// to store naming: every "id" key, at any nesting depth including inside
// lists of sub-queries (operator documents such as "$or"), becomes "_id".
// No "id" key remains at any depth afterwards. The input is never mutated.
func NormalizeQuery(query map[string]any) map[string]any {
	out, _ := normalizeValue(query).(map[string]any)
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if k == "id" {
				k = "_id"
			}
			out[k] = normalizeValue(val)
		}
		return out
	case []any:
		out := make([]any, 0, len(t))
		for _, item := range t {
			out = append(out, normalizeValue(item))
		}
		return out
	default:
		return v
	}
}
