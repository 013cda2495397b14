package client

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempCSV(t *testing.T, rows [][]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "questions.csv")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	writer := csv.NewWriter(f)
	require.NoError(t, writer.WriteAll(rows))
	return path
}

func TestReadQuestionsCSV(t *testing.T) {
	t.Run("id and question columns", func(t *testing.T) {
		path := writeTempCSV(t, [][]string{
			{"id", "question"},
			{"q-1", "Is Tuxedo Park safe?"},
			{"q-2", "How are schools in Evanston?"},
		})

		questions, err := readQuestionsCSV(path)
		require.NoError(t, err)
		require.Len(t, questions, 2)
		assert.Equal(t, "q-1", questions[0].id)
		assert.Equal(t, "Is Tuxedo Park safe?", questions[0].question)
		assert.Equal(t, "q-2", questions[1].id)
	})

	t.Run("capitalized Question header", func(t *testing.T) {
		path := writeTempCSV(t, [][]string{
			{"Question"},
			{"Is Sunnyside walkable?"},
		})

		questions, err := readQuestionsCSV(path)
		require.NoError(t, err)
		require.Len(t, questions, 1)
		assert.Equal(t, "Is Sunnyside walkable?", questions[0].question)
	})

	t.Run("missing id falls back to row number", func(t *testing.T) {
		path := writeTempCSV(t, [][]string{
			{"question"},
			{"First question?"},
			{"Second question?"},
		})

		questions, err := readQuestionsCSV(path)
		require.NoError(t, err)
		require.Len(t, questions, 2)
		assert.Equal(t, "1", questions[0].id)
		assert.Equal(t, "2", questions[1].id)
	})

	t.Run("skips empty question rows", func(t *testing.T) {
		path := writeTempCSV(t, [][]string{
			{"id", "question"},
			{"q-1", "Is Tuxedo Park safe?"},
			{"q-2", ""},
			{"q-3", "Is Bridgeland safe?"},
		})

		questions, err := readQuestionsCSV(path)
		require.NoError(t, err)
		require.Len(t, questions, 2)
		assert.Equal(t, "q-1", questions[0].id)
		assert.Equal(t, "q-3", questions[1].id)
	})

	t.Run("no question column", func(t *testing.T) {
		path := writeTempCSV(t, [][]string{
			{"id", "prompt"},
			{"q-1", "Is Tuxedo Park safe?"},
		})

		_, err := readQuestionsCSV(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "'question' column")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := readQuestionsCSV(filepath.Join(t.TempDir(), "nope.csv"))
		assert.Error(t, err)
	})
}

func TestWriteAnswersCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "answers.csv")

	questions := []batchQuestion{
		{id: "q-1", question: "Is Tuxedo Park safe?"},
	}
	answers := []AnswerResponse{
		{
			Question: "Is Tuxedo Park safe?",
			Answer:   "Tuxedo Park's safety percentile is 10/100.",
			Status:   "delivered",
			Citations: []Citation{
				{Community: "TUXEDO PARK", Section: "safety"},
				{Community: "TUXEDO PARK", Section: "overview"},
				{Community: "TUXEDO PARK", Section: "service-requests"},
				{Community: "TUXEDO PARK", Section: "housing"},
			},
		},
	}

	require.NoError(t, writeAnswersCSV(path, questions, answers))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, []string{"id", "question", "ai_answer", "sources", "timestamp"}, rows[0])
	assert.Equal(t, "q-1", rows[1][0])
	assert.Equal(t, "Is Tuxedo Park safe?", rows[1][1])
	assert.Equal(t, "Tuxedo Park's safety percentile is 10/100.", rows[1][2])
	// sources are capped at three citations
	assert.Equal(t, "TUXEDO PARK/safety; TUXEDO PARK/overview; TUXEDO PARK/service-requests", rows[1][3])
	assert.NotEmpty(t, rows[1][4])
}

func TestFormatCitations(t *testing.T) {
	assert.Equal(t, "", FormatCitations(nil))
	assert.Equal(t, "SUNNYSIDE/safety", FormatCitations([]Citation{
		{Community: "SUNNYSIDE", Section: "safety"},
	}))
	assert.Equal(t, "SUNNYSIDE/safety; EVANSTON/housing", FormatCitations([]Citation{
		{Community: "SUNNYSIDE", Section: "safety"},
		{Community: "EVANSTON", Section: "housing"},
	}))
}
