package codec

import (
	"reflect"
	"testing"
)

func TestTransformAppliesToEveryLeaf(t *testing.T) {
	double := func(v any) any {
		if n, ok := v.(int); ok {
			return n * 2
		}
		return v
	}

	tests := []struct {
		name string
		in   any
		want any
	}{
		{
			name: "flat mapping",
			in:   map[string]any{"a": 1, "b": 2},
			want: map[string]any{"a": 2, "b": 4},
		},
		{
			name: "flat sequence",
			in:   []any{1, 2, 3},
			want: []any{2, 4, 6},
		},
		{
			name: "nested mapping",
			in:   map[string]any{"a": map[string]any{"b": 3}},
			want: map[string]any{"a": map[string]any{"b": 6}},
		},
		{
			name: "mapping inside sequence",
			in:   []any{map[string]any{"a": 1}, 5},
			want: []any{map[string]any{"a": 2}, 10},
		},
		{
			name: "mixed leaf types pass through",
			in:   map[string]any{"s": "keep", "n": 1},
			want: map[string]any{"s": "keep", "n": 2},
		},
		{
			name: "empty mapping round-trips",
			in:   map[string]any{},
			want: map[string]any{},
		},
		{
			name: "empty sequence round-trips",
			in:   []any{},
			want: []any{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Transform(tt.in, double)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Transform() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestTransformDoesNotMutateInput(t *testing.T) {
	in := map[string]any{"a": 1, "nested": map[string]any{"b": 2}, "seq": []any{3}}
	Transform(in, func(v any) any {
		if n, ok := v.(int); ok {
			return n + 100
		}
		return v
	})

	want := map[string]any{"a": 1, "nested": map[string]any{"b": 2}, "seq": []any{3}}
	if !reflect.DeepEqual(in, want) {
		t.Errorf("input mutated: %#v", in)
	}
}

func TestTransformRecursesIntoReplacedContainers(t *testing.T) {
	// A transform that expands a marker into a container: the container's
	// own leaves must be transformed too.
	fn := func(v any) any {
		if v == "expand" {
			return map[string]any{"inner": "expand-me"}
		}
		if v == "expand-me" {
			return "expanded"
		}
		return v
	}
	got := Transform(map[string]any{"a": "expand"}, fn)
	want := map[string]any{"a": map[string]any{"inner": "expanded"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Transform() = %#v, want %#v", got, want)
	}
}

func TestTransformNonContainerPassesThrough(t *testing.T) {
	got := Transform("scalar", func(v any) any { return "changed" })
	if got != "scalar" {
		t.Errorf("Transform on non-container = %v, want untouched input", got)
	}
}
