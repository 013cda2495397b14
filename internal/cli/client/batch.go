package client

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// BatchAskRequest represents the batch ask API request.
type BatchAskRequest struct {
	Questions []AskRequest `json:"questions"`
}

// BatchCmd creates the batch command. It reads questions from a CSV file
// (columns "id" and "question", header required) and writes one answer row
// per question.
func BatchCmd() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "batch <questions.csv>",
		Short: "Answer a CSV of questions",
		Long:  "Reads questions from a CSV file, answers each one, and writes the answers to an output CSV.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(args[0], outputPath)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "out", "o", "answers.csv", "Output CSV path")

	return cmd
}

type batchQuestion struct {
	id       string
	question string
}

func runBatch(inputPath, outputPath string) error {
	questions, err := readQuestionsCSV(inputPath)
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		return fmt.Errorf("no questions found in %s", inputPath)
	}

	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	fmt.Printf("Processing %d questions...\n", len(questions))

	req := BatchAskRequest{}
	for _, q := range questions {
		req.Questions = append(req.Questions, AskRequest{Question: q.question})
	}

	resp, err := api.Post("/ask/batch", req)
	if err != nil {
		return fmt.Errorf("batch ask failed: %w", err)
	}

	var answers []AnswerResponse
	if err := json.Unmarshal(resp.Data, &answers); err != nil {
		return fmt.Errorf("failed to parse answers: %w", err)
	}
	if len(answers) != len(questions) {
		return fmt.Errorf("expected %d answers, got %d", len(questions), len(answers))
	}

	if err := writeAnswersCSV(outputPath, questions, answers); err != nil {
		return err
	}

	fmt.Printf("Done. %d answers written to %s\n", len(answers), outputPath)
	return nil
}

func readQuestionsCSV(path string) ([]batchQuestion, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("input CSV is empty")
	}

	idCol, questionCol := -1, -1
	for i, name := range rows[0] {
		switch name {
		case "id":
			idCol = i
		case "question", "Question":
			questionCol = i
		}
	}
	if questionCol == -1 {
		return nil, fmt.Errorf("input CSV has no 'question' column")
	}

	var questions []batchQuestion
	for i, row := range rows[1:] {
		if questionCol >= len(row) || row[questionCol] == "" {
			continue
		}
		q := batchQuestion{question: row[questionCol]}
		if idCol != -1 && idCol < len(row) && row[idCol] != "" {
			q.id = row[idCol]
		} else {
			q.id = strconv.Itoa(i + 1)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func writeAnswersCSV(path string, questions []batchQuestion, answers []AnswerResponse) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	timestamp := time.Now().Format("2006-01-02 15:04")

	if err := writer.Write([]string{"id", "question", "ai_answer", "sources", "timestamp"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i, answer := range answers {
		citations := answer.Citations
		if len(citations) > 3 {
			citations = citations[:3]
		}
		row := []string{
			questions[i].id,
			questions[i].question,
			answer.Answer,
			FormatCitations(citations),
			timestamp,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	return writer.Error()
}
