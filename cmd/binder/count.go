// Count command reports how many documents match a filter.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/binder/pkg/codec"
)

var countFilter string

var countCmd = &cobra.Command{
	Use:   "count <alias> <collection>",
	Short: "Count documents in a collection",
	Args:  cobra.ExactArgs(2),
	RunE:  runCount,
}

func init() {
	countCmd.Flags().StringVar(&countFilter, "filter", "", "JSON filter object")
}

func runCount(cmd *cobra.Command, args []string) error {
	coll, err := resolveCollection(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}
	filter, err := parseFilter(countFilter)
	if err != nil {
		return err
	}

	count, err := coll.CountDocuments(cmd.Context(), codec.NormalizeQuery(filter))
	if err != nil {
		return fmt.Errorf("count documents: %w", err)
	}
	fmt.Println(count)
	return nil
}
