package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// AskRequest represents the ask API request.
type AskRequest struct {
	Question    string   `json:"question"`
	Communities []string `json:"communities,omitempty"`
}

// Citation identifies the community and profile section a fact came from.
type Citation struct {
	Community string `json:"community"`
	Section   string `json:"section"`
}

// VizRef points at a visualization on the Calgary Pulse site.
type VizRef struct {
	Locator string `json:"locator"`
	Label   string `json:"label"`
}

// AnswerResponse represents the ask API response.
type AnswerResponse struct {
	Question  string     `json:"question"`
	Answer    string     `json:"answer"`
	Status    string     `json:"status"`
	Citations []Citation `json:"citations"`
	VizRefs   []VizRef   `json:"viz_refs,omitempty"`
	Missing   []string   `json:"missing,omitempty"`
	AskedAt   string     `json:"asked_at"`
}

// AskCmd creates the ask command.
func AskCmd() *cobra.Command {
	var communities []string

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question about Calgary communities",
		Long:  "Asks a question and answers it from indexed community profile data.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runAsk(args[0], communities, outputJSON)
		},
	}

	cmd.Flags().StringSliceVarP(&communities, "community", "c", nil, "Restrict the answer to the named communities (repeatable)")

	return cmd
}

func runAsk(question string, communities []string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Post("/ask", AskRequest{
		Question:    question,
		Communities: communities,
	})
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	var answer AnswerResponse
	if err := json.Unmarshal(resp.Data, &answer); err != nil {
		return fmt.Errorf("failed to parse answer: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(answer, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	printAnswer(&answer)
	return nil
}

func printAnswer(answer *AnswerResponse) {
	fmt.Println(answer.Answer)

	if len(answer.Citations) > 0 {
		fmt.Printf("\nSources:\n")
		for _, c := range answer.Citations {
			fmt.Printf("  - %s (%s)\n", c.Community, c.Section)
		}
	}
	if len(answer.VizRefs) > 0 {
		fmt.Printf("\nVisualizations:\n")
		for _, v := range answer.VizRefs {
			fmt.Printf("  - %s: %s\n", v.Label, v.Locator)
		}
	}
	if len(answer.Missing) > 0 {
		fmt.Printf("\nNo data for: %s\n", strings.Join(answer.Missing, ", "))
	}
}

// FormatCitations renders citations as a compact single-line list.
func FormatCitations(citations []Citation) string {
	parts := make([]string, 0, len(citations))
	for _, c := range citations {
		parts = append(parts, fmt.Sprintf("%s/%s", c.Community, c.Section))
	}
	return strings.Join(parts, "; ")
}
