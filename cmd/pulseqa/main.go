package main

import (
	"fmt"
	"os"

	"github.com/calgary-pulse/pulseqa/internal/cli"
	"github.com/calgary-pulse/pulseqa/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "pulseqa",
		Short: "Pulse QA CLI - Ask questions about Calgary communities",
		Long: `Pulse QA CLI answers questions about Calgary community profiles.

Environment variables:
  PULSEQA_API_URL   API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.AskCmd())
	rootCmd.AddCommand(client.BatchCmd())
	rootCmd.AddCommand(client.IndexCmd())
	rootCmd.AddCommand(client.RemoveCmd())
	rootCmd.AddCommand(client.CommunitiesCmd())
	rootCmd.AddCommand(client.StatsCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
