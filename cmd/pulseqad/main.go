package main

import (
	"fmt"
	"os"

	"github.com/calgary-pulse/pulseqa/internal/cli"
	"github.com/calgary-pulse/pulseqa/internal/cli/admin"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pulseqad",
		Short: "Pulse QA daemon",
		Long:  "Pulse QA daemon for running the API server",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
