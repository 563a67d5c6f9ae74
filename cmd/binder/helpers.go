// Shared helpers for the binder CLI commands.
package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mesh-intelligence/binder/pkg/codec"
	"github.com/mesh-intelligence/binder/pkg/types"
)

// resolveCollection looks an alias up in the registry and returns the
// named collection, creating it if absent.
func resolveCollection(ctx context.Context, alias, name string) (types.Collection, error) {
	db, ok := reg.Resolve(alias)
	if !ok {
		return nil, fmt.Errorf("unknown connection alias %q", alias)
	}
	coll, err := db.Collection(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("open collection %q: %w", name, err)
	}
	return coll, nil
}

// parseDocument parses a JSON object argument into a document map.
func parseDocument(raw string) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// parseFilter parses the optional --filter argument; an empty string
// matches everything.
func parseFilter(raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}
	return parseDocument(raw)
}

// printDocument renders a store document in model-facing form as
// indented JSON.
func printDocument(doc map[string]any) error {
	output, err := json.MarshalIndent(codec.Decode(doc), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	fmt.Println(string(output))
	return nil
}
