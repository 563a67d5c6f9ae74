// Get command retrieves a document by identity.
package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/binder/pkg/types"
)

var getCmd = &cobra.Command{
	Use:   "get <alias> <collection> <id>",
	Short: "Get a document by identity",
	Long: `Get retrieves a single document from a collection by its identity
value.

Example:
  binder get default users 0191d3a0-5a7e-7c3f-8f0a-1b2c3d4e5f60`,
	Args: cobra.ExactArgs(3),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	coll, err := resolveCollection(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}

	doc, err := coll.FindOne(cmd.Context(), map[string]any{"_id": args[2]})
	if errors.Is(err, types.ErrNoDocument) {
		return fmt.Errorf("document %q not found in %s/%s", args[2], args[0], args[1])
	}
	if err != nil {
		return fmt.Errorf("find document: %w", err)
	}
	return printDocument(doc)
}
