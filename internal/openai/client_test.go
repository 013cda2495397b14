package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockEmbeddingAPI struct {
	mock.Mock
}

func (m *MockEmbeddingAPI) CreateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

type MockChatAPI struct {
	mock.Mock
}

func (m *MockChatAPI) CreateChatCompletion(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	args := m.Called(ctx, systemPrompt, userPrompt)
	return args.String(0), args.Error(1)
}

func newTestClient(api EmbeddingAPI, chat ChatAPI) *Client {
	return &Client{
		api:          api,
		chat:         chat,
		dimensions:   DefaultEmbeddingDimensions,
		systemPrompt: "You answer questions about Calgary communities.",
	}
}

func TestGenerateEmbedding_Success(t *testing.T) {
	mockAPI := new(MockEmbeddingAPI)
	client := newTestClient(mockAPI, nil)

	embedding := make([]float32, 1536)
	mockAPI.On("CreateEmbeddings", mock.Anything, "Safety percentile: 10/100").Return(embedding, nil)

	result, err := client.GenerateEmbedding(context.Background(), "Safety percentile: 10/100")
	require.NoError(t, err)
	assert.Len(t, result, 1536)
	mockAPI.AssertExpectations(t)
}

func TestGenerateEmbedding_EmptyText(t *testing.T) {
	mockAPI := new(MockEmbeddingAPI)
	client := newTestClient(mockAPI, nil)

	_, err := client.GenerateEmbedding(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyText)
	mockAPI.AssertNotCalled(t, "CreateEmbeddings")
}

func TestGenerateEmbedding_WrongDimensions(t *testing.T) {
	mockAPI := new(MockEmbeddingAPI)
	client := newTestClient(mockAPI, nil)

	mockAPI.On("CreateEmbeddings", mock.Anything, "text").Return(make([]float32, 768), nil)

	_, err := client.GenerateEmbedding(context.Background(), "text")
	assert.ErrorIs(t, err, ErrWrongDimensions)
}

func TestGenerateEmbedding_APIError(t *testing.T) {
	mockAPI := new(MockEmbeddingAPI)
	client := newTestClient(mockAPI, nil)

	mockAPI.On("CreateEmbeddings", mock.Anything, "text").Return(nil, errors.New("rate limited"))

	_, err := client.GenerateEmbedding(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create embedding")
}

func TestGenerateAnswer_Success(t *testing.T) {
	mockChat := new(MockChatAPI)
	client := newTestClient(nil, mockChat)

	mockChat.On("CreateChatCompletion", mock.Anything,
		"You answer questions about Calgary communities.",
		"QUESTION: Is Tuxedo Park safe?").
		Return("Tuxedo Park's safety percentile is 10/100.", nil)

	answer, err := client.GenerateAnswer(context.Background(), "QUESTION: Is Tuxedo Park safe?")
	require.NoError(t, err)
	assert.Equal(t, "Tuxedo Park's safety percentile is 10/100.", answer)
	mockChat.AssertExpectations(t)
}

func TestGenerateAnswer_EmptyPrompt(t *testing.T) {
	mockChat := new(MockChatAPI)
	client := newTestClient(nil, mockChat)

	_, err := client.GenerateAnswer(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyText)
	mockChat.AssertNotCalled(t, "CreateChatCompletion")
}

func TestGenerateAnswer_APIError(t *testing.T) {
	mockChat := new(MockChatAPI)
	client := newTestClient(nil, mockChat)

	mockChat.On("CreateChatCompletion", mock.Anything, mock.Anything, mock.Anything).
		Return("", ErrNoChoices)

	_, err := client.GenerateAnswer(context.Background(), "QUESTION: Is Tuxedo Park safe?")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoChoices)
}

func TestNewClientFromEnv_NoAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := NewClientFromEnv()
	assert.ErrorIs(t, err, ErrNoAPIKey)
}
