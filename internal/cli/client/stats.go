package client

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// StatsResponse represents the stats API response.
type StatsResponse struct {
	Communities int            `json:"communities"`
	Chunks      int            `json:"chunks"`
	Sections    map[string]int `json:"sections"`
}

// StatsCmd creates the stats command.
func StatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show index statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runStats(outputJSON)
		},
	}
}

func runStats(outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Get("/stats")
	if err != nil {
		return fmt.Errorf("failed to fetch stats: %w", err)
	}

	var stats StatsResponse
	if err := json.Unmarshal(resp.Data, &stats); err != nil {
		return fmt.Errorf("failed to parse stats: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Communities: %d\n", stats.Communities)
	fmt.Printf("Chunks:      %d\n", stats.Chunks)
	if len(stats.Sections) > 0 {
		fmt.Println("Sections:")
		sections := make([]string, 0, len(stats.Sections))
		for section := range stats.Sections {
			sections = append(sections, section)
		}
		sort.Strings(sections)
		for _, section := range sections {
			fmt.Printf("  %-20s %d\n", section, stats.Sections[section])
		}
	}
	return nil
}
