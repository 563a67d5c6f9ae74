// Delete command removes a document by identity.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <alias> <collection> <id>",
	Short: "Delete a document by identity",
	Args:  cobra.ExactArgs(3),
	RunE:  runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	coll, err := resolveCollection(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}

	count, err := coll.DeleteOne(cmd.Context(), map[string]any{"_id": args[2]})
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("document %q not found in %s/%s", args[2], args[0], args[1])
	}
	fmt.Println("deleted", args[2])
	return nil
}
