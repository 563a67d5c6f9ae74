package model

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mesh-intelligence/binder/pkg/codec"
)

// Field mapping between model structs and plain documents. Outbound,
// fieldsOf walks a struct with reflection, honoring `bson` tags: a tag
// names the document key, "-" excludes the field, an untagged field maps
// to its lower-cased name (the driver convention), and embedded structs
// are flattened. Inbound, refresh decodes a plain document back into the
// struct with mapstructure, converting store scalar types as it goes.

// fieldsOf extracts the persistable field set of a model (or any struct)
// as a plain map. The embedded Document contributes nothing: its ID is
// tagged out and its snapshot is unexported. When skipNil is true, nil
// pointer fields are dropped entirely, giving partial-update structs
// exclude-unset semantics; otherwise they map to explicit nils.
func fieldsOf(m any, skipNil bool) map[string]any {
	v := reflect.ValueOf(m)
	for v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	out := make(map[string]any)
	collectFields(v, skipNil, out)
	return out
}

func collectFields(v reflect.Value, skipNil bool, out map[string]any) {
	t := v.Type()
	for i := range t.NumField() {
		field := t.Field(i)
		name, omit := fieldName(field)
		if omit {
			continue
		}
		fv := v.Field(i)
		if field.Anonymous && fv.Kind() == reflect.Struct {
			// Embedded struct: flatten into the parent document. This
			// covers unexported embedded types too; their promoted
			// exported fields are readable through reflection.
			collectFields(fv, skipNil, out)
			continue
		}
		if !field.IsExported() {
			continue
		}
		if fv.Kind() == reflect.Pointer && fv.IsNil() {
			if skipNil {
				continue
			}
			out[name] = nil
			continue
		}
		out[name] = fieldValue(fv, skipNil)
	}
}

// fieldName resolves the document key for a struct field from its bson
// tag, falling back to the lower-cased field name.
func fieldName(field reflect.StructField) (name string, omit bool) {
	tag := field.Tag.Get("bson")
	if tag == "" {
		return strings.ToLower(field.Name), false
	}
	name, _, _ = strings.Cut(tag, ",")
	if name == "-" {
		return "", true
	}
	if name == "" {
		return strings.ToLower(field.Name), false
	}
	return name, false
}

// fieldValue converts one field value for the document map. Scalar leaves
// pass through unchanged, including the types the encoder treats
// specially; plain structs become nested maps, slices are walked
// elementwise.
func fieldValue(v reflect.Value, skipNil bool) any {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	val := v.Interface()
	if isLeaf(val) {
		return val
	}
	switch v.Kind() {
	case reflect.Struct:
		return fieldsOf(val, skipNil)
	case reflect.Slice, reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			// Raw bytes are a scalar as far as documents are concerned.
			return val
		}
		out := make([]any, 0, v.Len())
		for i := range v.Len() {
			out = append(out, fieldValue(v.Index(i), skipNil))
		}
		return out
	default:
		return val
	}
}

// isLeaf reports whether a value must not be decomposed even though it is
// struct-shaped.
func isLeaf(v any) bool {
	switch v.(type) {
	case time.Time, decimal.Decimal, primitive.Decimal128, primitive.ObjectID:
		return true
	case codec.Enum:
		return true
	}
	return false
}

// refresh decodes a model-facing document into target, matching keys
// against bson tags (case-insensitively against field names otherwise)
// and flattening embedded structs the same way fieldsOf does. Store
// scalar representations convert back to their model types on the way in.
func refresh(doc map[string]any, target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     target,
		TagName:    "bson",
		Squash:     true,
		ZeroFields: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			decimal128Hook,
			objectIDHook,
		),
	})
	if err != nil {
		return fmt.Errorf("building field decoder: %w", err)
	}
	if err := dec.Decode(doc); err != nil {
		return fmt.Errorf("refreshing model fields: %w", err)
	}
	return nil
}

// decimal128Hook converts store decimals back to arbitrary-precision
// model decimals, preserving the exact textual value.
func decimal128Hook(from, to reflect.Type, data any) (any, error) {
	if from != reflect.TypeOf(primitive.Decimal128{}) || to != reflect.TypeOf(decimal.Decimal{}) {
		return data, nil
	}
	d, err := decimal.NewFromString(data.(primitive.Decimal128).String())
	if err != nil {
		return nil, fmt.Errorf("decoding decimal: %w", err)
	}
	return d, nil
}

// objectIDHook renders store identity values into string fields, for
// models that keep references to other documents as hex strings.
func objectIDHook(from, to reflect.Type, data any) (any, error) {
	if from != reflect.TypeOf(primitive.ObjectID{}) || to.Kind() != reflect.String {
		return data, nil
	}
	return data.(primitive.ObjectID).Hex(), nil
}
