// Package main provides the appraisal binary entry point: the HTTP service
// plus offline scoring and classification commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is overridden at build time.
var Version = "dev"

const appName = "appraisal"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   appName,
		Short: "Evaluation scoring and nine-box classification",
		Long: `Appraisal scores self and supervisor evaluations against job-level
instruments, consolidates several supervisors and places each subject in
the nine-box talent grid.

Run "appraisal serve" for the HTTP service, or "score" and "classify" to
work offline.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(serveCmd(), scoreCmd(), classifyCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	})

	return cmd
}
