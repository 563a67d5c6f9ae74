// Connections command shows the configured connection aliases.
package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var connectionsCmd = &cobra.Command{
	Use:   "connections",
	Short: "List configured connection aliases",
	Args:  cobra.NoArgs,
	RunE:  runConnections,
}

func runConnections(cmd *cobra.Command, args []string) error {
	aliases := make([]string, 0, len(settings))
	for alias := range settings {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)

	for _, alias := range aliases {
		cfg := settings[alias]
		db, ok := reg.Resolve(alias)
		if !ok {
			return fmt.Errorf("alias %q not resolved", alias)
		}
		host := cfg.Host
		if host == "" {
			host = "(default)"
		}
		fmt.Printf("%s\tdatabase=%s\thost=%s\n", alias, db.Name(), host)
	}
	return nil
}
