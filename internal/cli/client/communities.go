package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

// CommunityInfo represents one indexed community.
type CommunityInfo struct {
	Slug       string `json:"slug"`
	Name       string `json:"name"`
	ChunkCount int    `json:"chunk_count"`
	IndexedAt  string `json:"indexed_at"`
}

// CommunityListResponse represents the communities API response.
type CommunityListResponse struct {
	Items   []CommunityInfo `json:"items"`
	Cursor  string          `json:"cursor,omitempty"`
	HasMore bool            `json:"has_more"`
}

// CommunitiesCmd creates the communities command.
func CommunitiesCmd() *cobra.Command {
	var (
		limit  int
		cursor string
	)

	cmd := &cobra.Command{
		Use:   "communities",
		Short: "List indexed communities",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runCommunities(limit, cursor, outputJSON)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of results")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from previous response")

	return cmd
}

func runCommunities(limit int, cursor string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	if cursor != "" {
		query.Set("cursor", cursor)
	}

	resp, err := api.Get("/communities/?" + query.Encode())
	if err != nil {
		return fmt.Errorf("failed to list communities: %w", err)
	}

	var list CommunityListResponse
	if err := json.Unmarshal(resp.Data, &list); err != nil {
		return fmt.Errorf("failed to parse communities: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(list, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(list.Items) == 0 {
		fmt.Println("No communities indexed.")
		return nil
	}

	for _, c := range list.Items {
		fmt.Printf("%-30s %s (%d chunks, indexed %s)\n", c.Slug, c.Name, c.ChunkCount, c.IndexedAt)
	}
	if list.HasMore && list.Cursor != "" {
		fmt.Printf("\nMore results available. Use --cursor %s\n", list.Cursor)
	}
	return nil
}
