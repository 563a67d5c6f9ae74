// Insert command stores a new document.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var insertCmd = &cobra.Command{
	Use:   "insert <alias> <collection> <json>",
	Short: "Insert a document",
	Long: `Insert stores one JSON document in a collection and prints the
identity value the store issued for it.

Example:
  binder insert default users '{"username":"ada","age":30}'`,
	Args: cobra.ExactArgs(3),
	RunE: runInsert,
}

func runInsert(cmd *cobra.Command, args []string) error {
	coll, err := resolveCollection(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}
	doc, err := parseDocument(args[2])
	if err != nil {
		return err
	}

	id, err := coll.InsertOne(cmd.Context(), doc)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	fmt.Println(id)
	return nil
}
