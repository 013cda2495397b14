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

// MockChunkStore is a mock implementation of ChunkStore
type MockChunkStore struct {
	mock.Mock
}

func (m *MockChunkStore) Upsert(ctx context.Context, community string, chunks []domain.Chunk) error {
	args := m.Called(ctx, community, chunks)
	return args.Error(0)
}

func (m *MockChunkStore) DeleteCommunity(ctx context.Context, community string) error {
	args := m.Called(ctx, community)
	return args.Error(0)
}

func (m *MockChunkStore) Search(ctx context.Context, query string, filter SearchFilter, limit int) ([]domain.RetrievedChunk, error) {
	args := m.Called(ctx, query, filter, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RetrievedChunk), args.Error(1)
}

// MockCommunityRegistry is a mock implementation of CommunityRegistry
type MockCommunityRegistry struct {
	mock.Mock
}

func (m *MockCommunityRegistry) ListAll(ctx context.Context) ([]domain.Community, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Community), args.Error(1)
}

func registryWith(names ...string) []domain.Community {
	var out []domain.Community
	for _, n := range names {
		out = append(out, domain.Community{Slug: slugify(n), Name: n})
	}
	return out
}

func retrieved(id, community string, section domain.Section, score float32, metrics int) domain.RetrievedChunk {
	m := map[string]string{}
	for i := 0; i < metrics; i++ {
		m[string(rune('a'+i))] = "1"
	}
	return domain.RetrievedChunk{
		Chunk: domain.Chunk{ID: id, Community: community, Section: section, Text: id + " text", Metrics: m},
		Score: score,
	}
}

// TestRetriever_Retrieve tests single-community retrieval
func TestRetriever_Retrieve(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects empty question", func(t *testing.T) {
		store := new(MockChunkStore)
		registry := new(MockCommunityRegistry)
		r := NewRetriever(store, registry, DefaultRetrieverConfig())

		_, err := r.Retrieve(ctx, "   ", nil)
		require.ErrorIs(t, err, domain.ErrEmptyQuestion)
	})

	t.Run("filters search by the community named in the question", func(t *testing.T) {
		store := new(MockChunkStore)
		registry := new(MockCommunityRegistry)
		registry.On("ListAll", mock.Anything).Return(registryWith("TUXEDO PARK", "SUNNYSIDE"), nil)

		store.On("Search", mock.Anything, mock.Anything, SearchFilter{Communities: []string{"TUXEDO PARK"}}, 24).
			Return([]domain.RetrievedChunk{
				retrieved("tuxedo-park-safety", "TUXEDO PARK", domain.SectionSafety, 0.8, 5),
			}, nil)

		r := NewRetriever(store, registry, DefaultRetrieverConfig())
		result, err := r.Retrieve(ctx, "Is Tuxedo Park safe?", nil)
		require.NoError(t, err)
		assert.False(t, result.Insufficient)
		assert.Equal(t, []string{"TUXEDO PARK"}, result.Communities)
		require.Len(t, result.Chunks, 1)
		assert.Equal(t, 1, result.Chunks[0].Rank)
		store.AssertExpectations(t)
	})

	t.Run("resolves a hinted slug against the registry", func(t *testing.T) {
		store := new(MockChunkStore)
		registry := new(MockCommunityRegistry)
		registry.On("ListAll", mock.Anything).Return(registryWith("TUXEDO PARK"), nil)
		store.On("Search", mock.Anything, mock.Anything, SearchFilter{Communities: []string{"TUXEDO PARK"}}, 24).
			Return([]domain.RetrievedChunk{
				retrieved("tuxedo-park-overview", "TUXEDO PARK", domain.SectionOverview, 0.6, 2),
			}, nil)

		r := NewRetriever(store, registry, DefaultRetrieverConfig())
		result, err := r.Retrieve(ctx, "What is it like to live there?", []string{"tuxedo-park"})
		require.NoError(t, err)
		assert.Equal(t, []string{"TUXEDO PARK"}, result.Communities)
	})

	t.Run("tolerates a one-letter typo in a single-word name", func(t *testing.T) {
		store := new(MockChunkStore)
		registry := new(MockCommunityRegistry)
		registry.On("ListAll", mock.Anything).Return(registryWith("SUNNYSIDE"), nil)
		store.On("Search", mock.Anything, mock.Anything, SearchFilter{Communities: []string{"SUNNYSIDE"}}, 24).
			Return([]domain.RetrievedChunk{
				retrieved("sunnyside-housing", "SUNNYSIDE", domain.SectionHousing, 0.7, 4),
			}, nil)

		r := NewRetriever(store, registry, DefaultRetrieverConfig())
		result, err := r.Retrieve(ctx, "home prices in Sunnysid", nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"SUNNYSIDE"}, result.Communities)
	})

	t.Run("drops the hard filter when three or more communities are named", func(t *testing.T) {
		store := new(MockChunkStore)
		registry := new(MockCommunityRegistry)
		registry.On("ListAll", mock.Anything).Return(registryWith("SUNNYSIDE", "EVANSTON", "BELTLINE"), nil)
		store.On("Search", mock.Anything, mock.Anything, SearchFilter{}, 24).
			Return([]domain.RetrievedChunk{
				retrieved("sunnyside-safety", "SUNNYSIDE", domain.SectionSafety, 0.8, 5),
				retrieved("evanston-safety", "EVANSTON", domain.SectionSafety, 0.7, 5),
				retrieved("beltline-safety", "BELTLINE", domain.SectionSafety, 0.6, 5),
			}, nil)

		r := NewRetriever(store, registry, DefaultRetrieverConfig())
		result, err := r.Retrieve(ctx, "How do Sunnyside, Evanston, and Beltline compare on crime?", nil)
		require.NoError(t, err)
		assert.False(t, result.Insufficient)
		assert.ElementsMatch(t, []string{"SUNNYSIDE", "EVANSTON", "BELTLINE"}, result.Communities)
		require.Len(t, result.Chunks, 3)
		store.AssertExpectations(t)
	})

	t.Run("reports unknown hinted communities as missing", func(t *testing.T) {
		store := new(MockChunkStore)
		registry := new(MockCommunityRegistry)
		registry.On("ListAll", mock.Anything).Return(registryWith("SUNNYSIDE"), nil)

		r := NewRetriever(store, registry, DefaultRetrieverConfig())
		result, err := r.Retrieve(ctx, "Is it safe?", []string{"Atlantis"})
		require.NoError(t, err)
		assert.True(t, result.Insufficient)
		assert.Equal(t, []string{"Atlantis"}, result.Missing)
		store.AssertNotCalled(t, "Search")
	})

	t.Run("applies the similarity floor only when no community matched", func(t *testing.T) {
		store := new(MockChunkStore)
		registry := new(MockCommunityRegistry)
		registry.On("ListAll", mock.Anything).Return(registryWith("SUNNYSIDE"), nil)
		store.On("Search", mock.Anything, mock.Anything, SearchFilter{}, 24).
			Return([]domain.RetrievedChunk{
				retrieved("sunnyside-transit", "SUNNYSIDE", domain.SectionTransit, 0.1, 1),
			}, nil)

		r := NewRetriever(store, registry, DefaultRetrieverConfig())
		result, err := r.Retrieve(ctx, "what is the meaning of life", nil)
		require.NoError(t, err)
		assert.True(t, result.Insufficient)
		assert.Empty(t, result.Chunks)
	})

	t.Run("keeps low-scoring chunks when the community was identified", func(t *testing.T) {
		store := new(MockChunkStore)
		registry := new(MockCommunityRegistry)
		registry.On("ListAll", mock.Anything).Return(registryWith("SUNNYSIDE"), nil)
		store.On("Search", mock.Anything, mock.Anything, SearchFilter{Communities: []string{"SUNNYSIDE"}}, 24).
			Return([]domain.RetrievedChunk{
				retrieved("sunnyside-demographics", "SUNNYSIDE", domain.SectionDemographics, 0.05, 3),
			}, nil)

		r := NewRetriever(store, registry, DefaultRetrieverConfig())
		result, err := r.Retrieve(ctx, "tell me about Sunnyside", nil)
		require.NoError(t, err)
		assert.False(t, result.Insufficient)
		require.Len(t, result.Chunks, 1)
	})

	t.Run("propagates index errors", func(t *testing.T) {
		store := new(MockChunkStore)
		registry := new(MockCommunityRegistry)
		registry.On("ListAll", mock.Anything).Return(registryWith("SUNNYSIDE"), nil)
		store.On("Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, domain.ErrIndexUnavailable)

		r := NewRetriever(store, registry, DefaultRetrieverConfig())
		_, err := r.Retrieve(ctx, "tell me about Sunnyside", nil)
		require.ErrorIs(t, err, domain.ErrIndexUnavailable)
	})

	t.Run("propagates registry errors", func(t *testing.T) {
		store := new(MockChunkStore)
		registry := new(MockCommunityRegistry)
		registry.On("ListAll", mock.Anything).Return(nil, errors.New("db down"))

		r := NewRetriever(store, registry, DefaultRetrieverConfig())
		_, err := r.Retrieve(ctx, "anything", nil)
		require.Error(t, err)
	})
}

// TestRetriever_SectionBoost tests keyword-driven ranking adjustments
func TestRetriever_SectionBoost(t *testing.T) {
	ctx := context.Background()

	store := new(MockChunkStore)
	registry := new(MockCommunityRegistry)
	registry.On("ListAll", mock.Anything).Return(registryWith("SUNNYSIDE"), nil)

	// Safety scores slightly below housing; the "crime" keyword must flip
	// the order without excluding housing.
	store.On("Search", mock.Anything, mock.Anything, SearchFilter{Communities: []string{"SUNNYSIDE"}}, 24).
		Return([]domain.RetrievedChunk{
			retrieved("sunnyside-housing", "SUNNYSIDE", domain.SectionHousing, 0.70, 4),
			retrieved("sunnyside-safety", "SUNNYSIDE", domain.SectionSafety, 0.65, 5),
		}, nil)

	r := NewRetriever(store, registry, DefaultRetrieverConfig())
	result, err := r.Retrieve(ctx, "How bad is crime in Sunnyside?", nil)
	require.NoError(t, err)
	require.Len(t, result.Chunks, 2)
	assert.Equal(t, "sunnyside-safety", result.Chunks[0].Chunk.ID)
	assert.Equal(t, "sunnyside-housing", result.Chunks[1].Chunk.ID)
	assert.Equal(t, []domain.Section{domain.SectionSafety}, result.Sections)
}

// TestRetriever_Comparison tests two-community comparison retrieval
func TestRetriever_Comparison(t *testing.T) {
	ctx := context.Background()

	store := new(MockChunkStore)
	registry := new(MockCommunityRegistry)
	registry.On("ListAll", mock.Anything).Return(registryWith("SUNNYSIDE", "EVANSTON"), nil)

	sections := []domain.Section{domain.SectionSafety}
	store.On("Search", mock.Anything, mock.Anything,
		SearchFilter{Communities: []string{"SUNNYSIDE"}, Sections: sections}, 4).
		Return([]domain.RetrievedChunk{
			retrieved("sunnyside-safety", "SUNNYSIDE", domain.SectionSafety, 0.9, 5),
		}, nil)
	store.On("Search", mock.Anything, mock.Anything,
		SearchFilter{Communities: []string{"EVANSTON"}, Sections: sections}, 4).
		Return([]domain.RetrievedChunk{
			retrieved("evanston-safety", "EVANSTON", domain.SectionSafety, 0.4, 5),
		}, nil)
	store.On("Search", mock.Anything, mock.Anything,
		SearchFilter{Communities: []string{"SUNNYSIDE", "EVANSTON"}}, 8).
		Return([]domain.RetrievedChunk{
			retrieved("sunnyside-safety", "SUNNYSIDE", domain.SectionSafety, 0.9, 5),
			retrieved("sunnyside-overview", "SUNNYSIDE", domain.SectionOverview, 0.5, 2),
		}, nil)

	r := NewRetriever(store, registry, DefaultRetrieverConfig())
	result, err := r.Retrieve(ctx, "Is Sunnyside safer than Evanston?", nil)
	require.NoError(t, err)

	// Both communities contribute despite the score gap, and the duplicate
	// from the top-up search is dropped.
	require.Len(t, result.Chunks, 3)
	assert.Equal(t, "sunnyside-safety", result.Chunks[0].Chunk.ID)
	assert.Equal(t, "evanston-safety", result.Chunks[1].Chunk.ID)
	assert.Equal(t, "sunnyside-overview", result.Chunks[2].Chunk.ID)
	assert.ElementsMatch(t, []string{"SUNNYSIDE", "EVANSTON"}, result.Communities)
	store.AssertExpectations(t)
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "tuxedo park", normalizeText("Tuxedo-Park?"))
	assert.Equal(t, "is sunnyside safe", normalizeText("Is SUNNYSIDE safe!"))
}

func TestEditDistance(t *testing.T) {
	assert.Equal(t, 0, editDistance("sunnyside", "sunnyside"))
	assert.Equal(t, 1, editDistance("sunnysid", "sunnyside"))
	assert.Equal(t, 2, editDistance("sunyside", "sunnysidee"))
}
