package service

import (
	"context"
	"errors"
	"testing"

	"github.com/calgary-pulse/pulseqa/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAnswerRetriever is a mock implementation of AnswerRetriever
type MockAnswerRetriever struct {
	mock.Mock
}

func (m *MockAnswerRetriever) Retrieve(ctx context.Context, question string, hints []string) (*RetrievalResult, error) {
	args := m.Called(ctx, question, hints)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*RetrievalResult), args.Error(1)
}

// MockAnswerGenerator is a mock implementation of AnswerGenerator
type MockAnswerGenerator struct {
	mock.Mock
}

func (m *MockAnswerGenerator) GenerateAnswer(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// MockQuestionLog is a mock implementation of QuestionLogRepository
type MockQuestionLog struct {
	mock.Mock
}

func (m *MockQuestionLog) CreateQuestionLog(ctx context.Context, entry QuestionLogEntry) (string, error) {
	args := m.Called(ctx, entry)
	return args.String(0), args.Error(1)
}

func goodRetrieval() *RetrievalResult {
	chunk := retrieved("tuxedo-park-safety", "TUXEDO PARK", domain.SectionSafety, 0.9, 5)
	chunk.Rank = 1
	return &RetrievalResult{
		Chunks:      []domain.RetrievedChunk{chunk},
		Communities: []string{"TUXEDO PARK"},
	}
}

// TestAnswerService_Ask tests the answer pipeline outcomes
func TestAnswerService_Ask(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers an answer with citations", func(t *testing.T) {
		retriever := new(MockAnswerRetriever)
		generator := new(MockAnswerGenerator)
		retriever.On("Retrieve", mock.Anything, "Is Tuxedo Park safe?", []string(nil)).
			Return(goodRetrieval(), nil)
		generator.On("GenerateAnswer", mock.Anything, mock.Anything).
			Return("Tuxedo Park's safety percentile is 10/100.", nil)

		svc := NewAnswerService(retriever, NewAssembler(DefaultAssemblerConfig()), generator, DefaultAnswerConfig())
		answer, err := svc.Ask(ctx, AskInput{Question: "Is Tuxedo Park safe?"})
		require.NoError(t, err)

		assert.Equal(t, domain.AnswerStatusDelivered, answer.Status)
		assert.Equal(t, "Tuxedo Park's safety percentile is 10/100.", answer.Text)
		require.Len(t, answer.Citations, 1)
		assert.Equal(t, "TUXEDO PARK", answer.Citations[0].Community)
		assert.Equal(t, domain.SectionSafety, answer.Citations[0].Section)
		assert.False(t, answer.AskedAt.IsZero())
	})

	t.Run("delivered answer keeps the unresolved communities", func(t *testing.T) {
		retriever := new(MockAnswerRetriever)
		generator := new(MockAnswerGenerator)
		partial := goodRetrieval()
		partial.Missing = []string{"Atlantis"}
		retriever.On("Retrieve", mock.Anything, mock.Anything, []string{"Tuxedo Park", "Atlantis"}).
			Return(partial, nil)
		generator.On("GenerateAnswer", mock.Anything, mock.Anything).
			Return("Tuxedo Park's safety percentile is 10/100.", nil)

		svc := NewAnswerService(retriever, NewAssembler(DefaultAssemblerConfig()), generator, DefaultAnswerConfig())
		answer, err := svc.Ask(ctx, AskInput{
			Question:    "How safe are Tuxedo Park and Atlantis?",
			Communities: []string{"Tuxedo Park", "Atlantis"},
		})
		require.NoError(t, err)

		assert.Equal(t, domain.AnswerStatusDelivered, answer.Status)
		assert.Equal(t, []string{"Atlantis"}, answer.Missing)
		require.Len(t, answer.Citations, 1)
	})

	t.Run("fails on empty question without calling retrieval", func(t *testing.T) {
		retriever := new(MockAnswerRetriever)
		generator := new(MockAnswerGenerator)

		svc := NewAnswerService(retriever, NewAssembler(DefaultAssemblerConfig()), generator, DefaultAnswerConfig())
		answer, err := svc.Ask(ctx, AskInput{Question: "  "})
		require.ErrorIs(t, err, domain.ErrEmptyQuestion)
		assert.Equal(t, domain.AnswerStatusFailed, answer.Status)
		retriever.AssertNotCalled(t, "Retrieve")
	})

	t.Run("insufficient data short-circuits generation", func(t *testing.T) {
		retriever := new(MockAnswerRetriever)
		generator := new(MockAnswerGenerator)
		retriever.On("Retrieve", mock.Anything, mock.Anything, mock.Anything).
			Return(&RetrievalResult{Insufficient: true, Missing: []string{"Atlantis", "El Dorado"}}, nil)

		svc := NewAnswerService(retriever, NewAssembler(DefaultAssemblerConfig()), generator, DefaultAnswerConfig())
		answer, err := svc.Ask(ctx, AskInput{Question: "Compare Atlantis and El Dorado"})
		require.NoError(t, err)

		assert.Equal(t, domain.AnswerStatusInsufficientData, answer.Status)
		assert.Equal(t, "Data not available, missing: Atlantis, El Dorado.", answer.Text)
		assert.Equal(t, []string{"Atlantis", "El Dorado"}, answer.Missing)
		assert.Empty(t, answer.Citations)
		generator.AssertNotCalled(t, "GenerateAnswer")
	})

	t.Run("retrieval failure fails the answer and surfaces the error", func(t *testing.T) {
		retriever := new(MockAnswerRetriever)
		generator := new(MockAnswerGenerator)
		retriever.On("Retrieve", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, domain.ErrIndexUnavailable)

		svc := NewAnswerService(retriever, NewAssembler(DefaultAssemblerConfig()), generator, DefaultAnswerConfig())
		answer, err := svc.Ask(ctx, AskInput{Question: "Is it safe?"})
		require.ErrorIs(t, err, domain.ErrIndexUnavailable)
		assert.Equal(t, domain.AnswerStatusFailed, answer.Status)
	})

	t.Run("generation retries up to the configured bound", func(t *testing.T) {
		retriever := new(MockAnswerRetriever)
		generator := new(MockAnswerGenerator)
		retriever.On("Retrieve", mock.Anything, mock.Anything, mock.Anything).
			Return(goodRetrieval(), nil)
		generator.On("GenerateAnswer", mock.Anything, mock.Anything).
			Return("", errors.New("rate limited")).Times(3)

		svc := NewAnswerService(retriever, NewAssembler(DefaultAssemblerConfig()), generator,
			AnswerConfig{GenerationRetries: 3})
		answer, err := svc.Ask(ctx, AskInput{Question: "Is Tuxedo Park safe?"})
		require.Error(t, err)

		var derr *domain.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, domain.ErrCodeGeneration, derr.Code)
		assert.Equal(t, domain.AnswerStatusFailed, answer.Status)
		generator.AssertExpectations(t)
	})

	t.Run("generation recovers on a later attempt", func(t *testing.T) {
		retriever := new(MockAnswerRetriever)
		generator := new(MockAnswerGenerator)
		retriever.On("Retrieve", mock.Anything, mock.Anything, mock.Anything).
			Return(goodRetrieval(), nil)
		generator.On("GenerateAnswer", mock.Anything, mock.Anything).
			Return("", errors.New("rate limited")).Once()
		generator.On("GenerateAnswer", mock.Anything, mock.Anything).
			Return("Recovered answer.", nil).Once()

		svc := NewAnswerService(retriever, NewAssembler(DefaultAssemblerConfig()), generator, DefaultAnswerConfig())
		answer, err := svc.Ask(ctx, AskInput{Question: "Is Tuxedo Park safe?"})
		require.NoError(t, err)
		assert.Equal(t, domain.AnswerStatusDelivered, answer.Status)
		assert.Equal(t, "Recovered answer.", answer.Text)
	})

	t.Run("question log failures never affect the answer", func(t *testing.T) {
		retriever := new(MockAnswerRetriever)
		generator := new(MockAnswerGenerator)
		log := new(MockQuestionLog)
		retriever.On("Retrieve", mock.Anything, mock.Anything, mock.Anything).
			Return(goodRetrieval(), nil)
		generator.On("GenerateAnswer", mock.Anything, mock.Anything).Return("Answer.", nil)
		log.On("CreateQuestionLog", mock.Anything, mock.MatchedBy(func(entry QuestionLogEntry) bool {
			return entry.Status == domain.AnswerStatusDelivered && len(entry.Results) == 1
		})).Return("", errors.New("insert failed"))

		svc := NewAnswerService(retriever, NewAssembler(DefaultAssemblerConfig()), generator, DefaultAnswerConfig()).
			WithQuestionLog(log)
		answer, err := svc.Ask(ctx, AskInput{Question: "Is Tuxedo Park safe?"})
		require.NoError(t, err)
		assert.Equal(t, domain.AnswerStatusDelivered, answer.Status)
		log.AssertExpectations(t)
	})
}

// TestAnswerService_AskBatch tests batch ordering and isolation
func TestAnswerService_AskBatch(t *testing.T) {
	ctx := context.Background()

	retriever := new(MockAnswerRetriever)
	generator := new(MockAnswerGenerator)

	retriever.On("Retrieve", mock.Anything, "first question", mock.Anything).
		Return(goodRetrieval(), nil)
	retriever.On("Retrieve", mock.Anything, "second question", mock.Anything).
		Return(nil, domain.ErrIndexUnavailable)
	retriever.On("Retrieve", mock.Anything, "third question", mock.Anything).
		Return(goodRetrieval(), nil)
	generator.On("GenerateAnswer", mock.Anything, mock.Anything).Return("Generated.", nil)

	svc := NewAnswerService(retriever, NewAssembler(DefaultAssemblerConfig()), generator, DefaultAnswerConfig())
	answers := svc.AskBatch(ctx, []AskInput{
		{Question: "first question"},
		{Question: "second question"},
		{Question: "third question"},
	})

	require.Len(t, answers, 3)
	assert.Equal(t, "first question", answers[0].Question)
	assert.Equal(t, domain.AnswerStatusDelivered, answers[0].Status)
	assert.Equal(t, domain.AnswerStatusFailed, answers[1].Status)
	assert.Contains(t, answers[1].Text, "Failed to answer")
	assert.Equal(t, domain.AnswerStatusDelivered, answers[2].Status)
}

func TestInsufficientDataText(t *testing.T) {
	assert.Equal(t, "Data not available, missing: Atlantis.", insufficientDataText([]string{"Atlantis"}))
	assert.Equal(t, "Data not available: no indexed community data supports this question.",
		insufficientDataText(nil))
}
