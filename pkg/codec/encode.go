package codec

import (
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Enum is the contract for enumerated value types. A type implements Enum
// to declare the primitive value that represents it on the wire; the
// encoder replaces every Enum member in a document with that value.
type Enum interface {
	// EnumValue returns the member's underlying primitive value.
	EnumValue() any
}

// Rule is one scalar normalization applied by an Encoder. It returns the
// replacement value and whether the rule matched. A rule that does not
// match must return its input unchanged with ok == false.
type Rule func(v any) (replacement any, ok bool)

// ConvertEnums replaces every Enum member in doc with its primitive value,
// recursively through nested mappings and sequences.
func ConvertEnums(doc map[string]any) map[string]any {
	return applyRule(doc, enumRule)
}

// ConvertDecimals replaces every decimal.Decimal in doc with the store's
// native high-precision decimal representation, recursively. The textual
// value is preserved exactly; no binary floating-point conversion occurs.
func ConvertDecimals(doc map[string]any) map[string]any {
	return applyRule(doc, decimalRule)
}

// enumRule matches values implementing Enum.
func enumRule(v any) (any, bool) {
	if e, ok := v.(Enum); ok {
		return e.EnumValue(), true
	}
	return v, false
}

// decimalRule matches decimal.Decimal values and converts them to
// primitive.Decimal128 via their exact decimal string form.
func decimalRule(v any) (any, bool) {
	d, ok := v.(decimal.Decimal)
	if !ok {
		return v, false
	}
	d128, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		// Decimal strings are always parseable as Decimal128 within its
		// exponent range; out-of-range values pass through untouched.
		return v, false
	}
	return d128, true
}

// applyRule runs one rule over every scalar leaf of doc.
func applyRule(doc map[string]any, rule Rule) map[string]any {
	out, _ := Transform(doc, func(v any) any {
		v, _ = rule(v)
		return v
	}).(map[string]any)
	return out
}

// Encoder normalizes a document for the store by applying its rules in
// sequence, each as a full recursive pass. The zero value applies no
// rules; use NewEncoder for the standard rule set.
type Encoder struct {
	rules []Rule
}

// NewEncoder returns an Encoder with the standard normalization rules,
// enumerations first and decimals second, followed by any extra rules in
// the order given. Extra rules extend the encoder to additional
// store-special scalar types without touching the built-in set.
func NewEncoder(extra ...Rule) Encoder {
	rules := make([]Rule, 0, 2+len(extra))
	rules = append(rules, enumRule, decimalRule)
	rules = append(rules, extra...)
	return Encoder{rules: rules}
}

// Encode returns doc with every rule applied, leaving doc itself
// untouched. Encoding a document that no rule matches returns a structure
// deep-equal to the input.
func (e Encoder) Encode(doc map[string]any) map[string]any {
	for _, rule := range e.rules {
		doc = applyRule(doc, rule)
	}
	return doc
}
