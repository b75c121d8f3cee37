// Package cli wires the cobra command tree of the supplysim binary.
// Commands talk to the application layer exclusively through the
// mediator.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool
)

// NewRootCommand creates the root command for the CLI
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "supplysim",
		Short: "supplysim - multi-agent supply chain simulator",
		Long: `supplysim runs a discrete-event supply chain simulation: stores buy
products from warehouses, warehouses restock from suppliers, and a
vehicle fleet negotiates for and carries every confirmed order over a
grid road network with live traffic.

Examples:
  supplysim run --duration 60s
  supplysim run --seed 7
  supplysim seed list`,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config file (default: search ./config.yaml, ./configs, /etc/supplysim)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose output")

	rootCmd.AddCommand(NewRunCommand())
	rootCmd.AddCommand(NewSeedCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
