// Package cli wires the bcauth commands.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "bcauth",
	Short: "UMA authorization gateway for a permissioned ledger",
	Long:  "Fronts a permissioned ledger, reached only through the external peer CLI,\nwith a UMA-style OAuth2 grant flow: resource registration, permission\ntickets, claims gathering, token exchange and introspection.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config YAML (defaults to $BCAUTH_CONFIG)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
