// Package cmd wires the CLI commands together.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ragd",
	Short: "ragd is a multi-tenant retrieval-augmented generation service",
	Long: `ragd ingests documents into a pgvector-backed knowledge base,
maintains a knowledge-graph side-index, and answers questions grounded
in the retrieved passages.

Run "ragd serve" to start the HTTP API.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
