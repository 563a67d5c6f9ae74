// Package main provides the binder CLI, a small inspection and
// manipulation tool for the document stores a binder deployment is
// configured against.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/binder/pkg/registry"
	"github.com/mesh-intelligence/binder/pkg/types"
)

var (
	// configDir is set by the --config-dir flag.
	configDir string

	// dataDir is set by the --data-dir flag; it only affects the
	// embedded sqlite backend.
	dataDir string

	// reg is the global connection registry, initialized on startup.
	reg *registry.Registry

	// settings holds the parsed connection settings for display.
	settings types.Settings
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "binder",
	Short: "Binder is a document-store mapping layer",
	Long: `Binder maps typed application models onto documents in a document
store. This CLI reads the same connection settings the library uses and
provides direct access to the configured collections for inspection,
seeding, and cleanup.`,
	PersistentPreRunE:  initRegistry,
	PersistentPostRunE: closeRegistry,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "config directory (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory for the embedded backend")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(connectionsCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(insertCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(countCmd)
}

// initRegistry loads the settings file and opens the configured
// connections.
func initRegistry(cmd *cobra.Command, args []string) error {
	// Version needs no connections.
	if cmd.Name() == "version" {
		return nil
	}

	cfg, err := loadConfig(configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	r, parsed, err := buildRegistry(cfg)
	if err != nil {
		return err
	}
	if err := r.Init(cmd.Context(), parsed); err != nil {
		return fmt.Errorf("init connections: %w", err)
	}
	reg = r
	settings = parsed
	return nil
}

// closeRegistry disconnects every open connection.
func closeRegistry(cmd *cobra.Command, args []string) error {
	if reg == nil {
		return nil
	}
	return reg.Close(context.Background())
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("binder v0.1.0")
	},
}
