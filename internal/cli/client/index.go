package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// IndexRequest represents the index API request.
type IndexRequest struct {
	Communities []string `json:"communities,omitempty"`
	All         bool     `json:"all,omitempty"`
	Wipe        bool     `json:"wipe,omitempty"`
}

// CommunityIndexResult reports the outcome of indexing one community.
type CommunityIndexResult struct {
	Community string `json:"community"`
	Chunks    int    `json:"chunks"`
	Error     string `json:"error,omitempty"`
}

// IndexReport represents the index API response.
type IndexReport struct {
	Results       []CommunityIndexResult `json:"results"`
	ChunksWritten int                    `json:"chunks_written"`
	Failed        int                    `json:"failed"`
}

// IndexCmd creates the index command.
func IndexCmd() *cobra.Command {
	var (
		all  bool
		wipe bool
	)

	cmd := &cobra.Command{
		Use:   "index [slug...]",
		Short: "Index community profiles",
		Long:  "Indexes the named community profiles, or all of them with --all. --wipe clears the index and rebuilds it from scratch.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			if !all && !wipe && len(args) == 0 {
				return fmt.Errorf("specify community slugs, --all, or --wipe")
			}
			return runIndex(args, all, wipe, outputJSON)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Index every available community profile")
	cmd.Flags().BoolVar(&wipe, "wipe", false, "Clear the index and rebuild from scratch")

	return cmd
}

func runIndex(slugs []string, all, wipe, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Post("/index", IndexRequest{
		Communities: slugs,
		All:         all,
		Wipe:        wipe,
	})
	if err != nil {
		return fmt.Errorf("index failed: %w", err)
	}

	var report IndexReport
	if err := json.Unmarshal(resp.Data, &report); err != nil {
		return fmt.Errorf("failed to parse index report: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	for _, result := range report.Results {
		if result.Error != "" {
			fmt.Printf("  %s: FAILED (%s)\n", result.Community, result.Error)
		} else {
			fmt.Printf("  %s: %d chunks\n", result.Community, result.Chunks)
		}
	}
	fmt.Printf("Indexed %d communities, %d chunks written", len(report.Results)-report.Failed, report.ChunksWritten)
	if report.Failed > 0 {
		fmt.Printf(", %d failed", report.Failed)
	}
	fmt.Println()
	return nil
}

// RemoveCmd creates the remove command.
func RemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <slug>",
		Short: "Remove a community from the index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClient()
			if err != nil {
				return err
			}
			if _, err := api.Delete("/communities/" + args[0]); err != nil {
				return fmt.Errorf("remove failed: %w", err)
			}
			fmt.Printf("Removed %s from the index\n", args[0])
			return nil
		},
	}
}
