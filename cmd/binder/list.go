// List command prints the documents matching a filter.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/binder/pkg/codec"
)

var listFilter string

var listCmd = &cobra.Command{
	Use:   "list <alias> <collection>",
	Short: "List documents in a collection",
	Long: `List prints every document in a collection, optionally restricted
to the ones matching a JSON filter. Filters use model-facing field names;
"id" addresses the identity.

Example:
  binder list default users
  binder list default users --filter '{"role":"admin"}'`,
	Args: cobra.ExactArgs(2),
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listFilter, "filter", "", "JSON filter object")
}

func runList(cmd *cobra.Command, args []string) error {
	coll, err := resolveCollection(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}
	filter, err := parseFilter(listFilter)
	if err != nil {
		return err
	}

	cur, err := coll.Find(cmd.Context(), codec.NormalizeQuery(filter))
	if err != nil {
		return fmt.Errorf("find documents: %w", err)
	}
	defer cur.Close(cmd.Context())

	for cur.Next(cmd.Context()) {
		if err := printDocument(cur.Document()); err != nil {
			return err
		}
	}
	if err := cur.Err(); err != nil {
		return fmt.Errorf("iterate documents: %w", err)
	}
	return nil
}
