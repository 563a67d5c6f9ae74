package codec

// TransformFunc rewrites a single value during a structural walk. It is
// applied to every element of a container before recursion, so a transform
// may replace a scalar, or replace a container that is then walked again.
type TransformFunc func(v any) any

// Transform walks a nested structure of map[string]any mappings and []any
// sequences and applies fn to every element value, recursively. Container
// shape is preserved: mappings stay keyed by the same keys, sequences keep
// their positional order, and empty containers round-trip as empty
// containers of the same kind. The input is never mutated; Transform
// returns a freshly built structure.
//
// fn is applied to the elements of data, not to data itself. When fn
// returns a container, Transform recurses into the result, which allows
// two-stage transforms that first rewrite a container and then its leaves.
func Transform(data any, fn TransformFunc) any {
	switch d := data.(type) {
	case map[string]any:
		out := make(map[string]any, len(d))
		for k, v := range d {
			out[k] = transformValue(v, fn)
		}
		return out
	case []any:
		out := make([]any, 0, len(d))
		for _, v := range d {
			out = append(out, transformValue(v, fn))
		}
		return out
	default:
		// Not a container; nothing to walk.
		return data
	}
}

// transformValue applies fn to one element and recurses when the result is
// itself a container.
func transformValue(v any, fn TransformFunc) any {
	v = fn(v)
	switch v.(type) {
	case map[string]any, []any:
		return Transform(v, fn)
	}
	return v
}
