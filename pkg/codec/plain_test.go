package codec

import (
	"reflect"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestPlainCanonicalizesDriverTypes(t *testing.T) {
	when := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	in := bson.M{
		"name": "ada",
		"doc":  bson.D{{Key: "nested", Value: bson.A{int32(1), bson.M{"deep": "v"}}}},
		"at":   primitive.NewDateTimeFromTime(when),
	}
	want := map[string]any{
		"name": "ada",
		"doc":  map[string]any{"nested": []any{int32(1), map[string]any{"deep": "v"}}},
		"at":   when,
	}

	got := PlainDoc(in)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PlainDoc() = %#v, want %#v", got, want)
	}
}

func TestPlainKeepsOpaqueScalars(t *testing.T) {
	oid := primitive.NewObjectID()
	d128, err := primitive.ParseDecimal128("13.37")
	if err != nil {
		t.Fatalf("ParseDecimal128: %v", err)
	}

	got := PlainDoc(bson.M{"_id": oid, "amount": d128})
	if got["_id"] != oid {
		t.Errorf("identity value changed: %#v", got["_id"])
	}
	if got["amount"] != d128 {
		t.Errorf("decimal value changed: %#v", got["amount"])
	}
}
