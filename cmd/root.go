/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "securenotes",
	Short: "Multi-tenant notes API with JWT authentication",
	Long: `securenotes serves a notes API behind bearer-token authentication
and role-based access control. Usage:

	securenotes server
	securenotes migrate up
	securenotes audit tail
`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
