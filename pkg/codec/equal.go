package codec

import (
	"math"
	"reflect"
	"time"
)

// Equal reports whether two document values are equal under wire-format
// tolerance. Documents come back from a store with narrower or wider
// scalar types than they were written with (an int becomes an int32 or
// int64, a local time becomes UTC), so dirty-diffing and filter matching
// cannot use strict deep equality. Equal folds integer kinds together,
// folds floats with integers, compares times by instant, and otherwise
// recurses structurally.
func Equal(a, b any) bool {
	switch at := a.(type) {
	case map[string]any:
		bt, ok := b.(map[string]any)
		if !ok || len(at) != len(bt) {
			return false
		}
		for k, av := range at {
			bv, ok := bt[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	case []any:
		bt, ok := b.([]any)
		if !ok || len(at) != len(bt) {
			return false
		}
		for i := range at {
			if !Equal(at[i], bt[i]) {
				return false
			}
		}
		return true
	case time.Time:
		bt, ok := b.(time.Time)
		return ok && at.Equal(bt)
	}

	if eq, ok := numericEqual(a, b); ok {
		return eq
	}
	return reflect.DeepEqual(a, b)
}

// numericEqual compares a and b by value when both are numeric kinds.
// The second return value reports whether the comparison applied.
func numericEqual(a, b any) (equal, applied bool) {
	av := reflect.ValueOf(a)
	bv := reflect.ValueOf(b)
	if !isNumericKind(av.Kind()) || !isNumericKind(bv.Kind()) {
		return false, false
	}
	if isFloatKind(av.Kind()) || isFloatKind(bv.Kind()) {
		return asFloat(av) == asFloat(bv), true
	}
	aUnsigned := isUintKind(av.Kind())
	bUnsigned := isUintKind(bv.Kind())
	switch {
	case !aUnsigned && !bUnsigned:
		return av.Int() == bv.Int(), true
	case aUnsigned && bUnsigned:
		return av.Uint() == bv.Uint(), true
	case aUnsigned:
		return av.Uint() <= math.MaxInt64 && int64(av.Uint()) == bv.Int(), true
	default:
		return bv.Uint() <= math.MaxInt64 && av.Int() == int64(bv.Uint()), true
	}
}

func isNumericKind(k reflect.Kind) bool {
	return isFloatKind(k) || isUintKind(k) ||
		k == reflect.Int || k == reflect.Int8 || k == reflect.Int16 ||
		k == reflect.Int32 || k == reflect.Int64
}

func isUintKind(k reflect.Kind) bool {
	return k == reflect.Uint || k == reflect.Uint8 || k == reflect.Uint16 ||
		k == reflect.Uint32 || k == reflect.Uint64
}

func isFloatKind(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

func asFloat(v reflect.Value) float64 {
	switch {
	case isFloatKind(v.Kind()):
		return v.Float()
	case isUintKind(v.Kind()):
		return float64(v.Uint())
	default:
		return float64(v.Int())
	}
}
