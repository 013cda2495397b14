package service

import (
	"context"
	"testing"

	"github.com/calgary-pulse/pulseqa/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProfileSource is a mock implementation of ProfileSource
type MockProfileSource struct {
	mock.Mock
}

func (m *MockProfileSource) ListSlugs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockProfileSource) GetProfile(ctx context.Context, slug string) ([]byte, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockCommunityRepository is a mock implementation of CommunityRepositoryInterface
type MockCommunityRepository struct {
	mock.Mock
}

func (m *MockCommunityRepository) Upsert(ctx context.Context, c *domain.Community) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCommunityRepository) Delete(ctx context.Context, slug string) error {
	args := m.Called(ctx, slug)
	return args.Error(0)
}

func (m *MockCommunityRepository) DeleteAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockCommunityRepository) ListAll(ctx context.Context) ([]domain.Community, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Community), args.Error(1)
}

// MockIndexJobRepository is a mock implementation of IndexJobRepositoryInterface
type MockIndexJobRepository struct {
	mock.Mock
}

func (m *MockIndexJobRepository) Create(ctx context.Context, job *domain.IndexJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func newTestIndexer(source *MockProfileSource, client *MockEmbeddingClient, repo *MockChunkRepository,
	communities *MockCommunityRepository, jobs *MockIndexJobRepository) *IndexerService {
	store := NewChunkStoreAdapter(client, repo)
	chunker := NewChunker(DefaultChunkerConfig())
	return NewIndexerService(source, store, chunker, communities, jobs)
}

const validProfileDoc = `{"slug": "sunnyside", "name": "SUNNYSIDE", "sector": "CENTRE"}`

// TestIndexerService_IndexCommunities tests batch indexing isolation
func TestIndexerService_IndexCommunities(t *testing.T) {
	ctx := context.Background()

	t.Run("a malformed profile fails only its own community", func(t *testing.T) {
		source := new(MockProfileSource)
		client := new(MockEmbeddingClient)
		repo := new(MockChunkRepository)
		communities := new(MockCommunityRepository)
		jobs := new(MockIndexJobRepository)

		source.On("GetProfile", mock.Anything, "sunnyside").Return([]byte(validProfileDoc), nil)
		source.On("GetProfile", mock.Anything, "broken").
			Return([]byte(`{"safety": {"percentile": 500}, "name": "BROKEN"}`), nil)
		client.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{0.1}, nil)
		repo.On("ReplaceCommunityChunks", mock.Anything, "SUNNYSIDE", mock.Anything).Return(nil)
		communities.On("Upsert", mock.Anything, mock.MatchedBy(func(c *domain.Community) bool {
			return c.Slug == "sunnyside" && c.Name == "SUNNYSIDE" && c.ChunkCount > 0
		})).Return(nil)

		indexer := newTestIndexer(source, client, repo, communities, jobs)
		report, err := indexer.IndexCommunities(ctx, []string{"sunnyside", "broken"})
		require.NoError(t, err)

		require.Len(t, report.Results, 2)
		assert.Empty(t, report.Results[0].Error)
		assert.NotEmpty(t, report.Results[1].Error)
		assert.Equal(t, 1, report.Failed)
		assert.Greater(t, report.ChunksWritten, 0)

		// Malformed profiles fail identically every time; no retry job.
		jobs.AssertNotCalled(t, "Create")
	})

	t.Run("infrastructure failures queue a retry job", func(t *testing.T) {
		source := new(MockProfileSource)
		client := new(MockEmbeddingClient)
		repo := new(MockChunkRepository)
		communities := new(MockCommunityRepository)
		jobs := new(MockIndexJobRepository)

		source.On("GetProfile", mock.Anything, "sunnyside").Return([]byte(validProfileDoc), nil)
		client.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{0.1}, nil)
		repo.On("ReplaceCommunityChunks", mock.Anything, mock.Anything, mock.Anything).
			Return(domain.ErrIndexUnavailable)
		jobs.On("Create", mock.Anything, mock.MatchedBy(func(job *domain.IndexJob) bool {
			return job.Community == "sunnyside" && job.Status == domain.IndexJobStatusPending
		})).Return(nil)

		indexer := newTestIndexer(source, client, repo, communities, jobs)
		report, err := indexer.IndexCommunities(ctx, []string{"sunnyside"})
		require.NoError(t, err)
		assert.Equal(t, 1, report.Failed)
		jobs.AssertExpectations(t)
	})

	t.Run("missing profiles do not queue retries", func(t *testing.T) {
		source := new(MockProfileSource)
		client := new(MockEmbeddingClient)
		repo := new(MockChunkRepository)
		communities := new(MockCommunityRepository)
		jobs := new(MockIndexJobRepository)

		source.On("GetProfile", mock.Anything, "ghost").Return(nil, domain.ErrProfileNotFound)

		indexer := newTestIndexer(source, client, repo, communities, jobs)
		report, err := indexer.IndexCommunities(ctx, []string{"ghost"})
		require.NoError(t, err)
		assert.Equal(t, 1, report.Failed)
		jobs.AssertNotCalled(t, "Create")
	})
}

// TestIndexerService_Wipe tests the wipe-and-rebuild path
func TestIndexerService_Wipe(t *testing.T) {
	ctx := context.Background()

	source := new(MockProfileSource)
	client := new(MockEmbeddingClient)
	repo := new(MockChunkRepository)
	communities := new(MockCommunityRepository)
	jobs := new(MockIndexJobRepository)

	repo.On("DeleteAll", mock.Anything).Return(nil)
	communities.On("DeleteAll", mock.Anything).Return(nil)
	source.On("ListSlugs", mock.Anything).Return([]string{"sunnyside"}, nil)
	source.On("GetProfile", mock.Anything, "sunnyside").Return([]byte(validProfileDoc), nil)
	client.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{0.1}, nil)
	repo.On("ReplaceCommunityChunks", mock.Anything, "SUNNYSIDE", mock.Anything).Return(nil)
	communities.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	indexer := newTestIndexer(source, client, repo, communities, jobs)
	report, err := indexer.Wipe(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Failed)
	repo.AssertCalled(t, "DeleteAll", mock.Anything)
	communities.AssertCalled(t, "DeleteAll", mock.Anything)
}

// TestIndexerService_RemoveCommunity tests slug-to-name resolution on delete
func TestIndexerService_RemoveCommunity(t *testing.T) {
	ctx := context.Background()

	source := new(MockProfileSource)
	client := new(MockEmbeddingClient)
	repo := new(MockChunkRepository)
	communities := new(MockCommunityRepository)
	jobs := new(MockIndexJobRepository)

	communities.On("ListAll", mock.Anything).Return([]domain.Community{
		{Slug: "sunnyside", Name: "SUNNYSIDE"},
	}, nil)
	// Chunks key on the community name, not the slug.
	repo.On("DeleteCommunity", mock.Anything, "SUNNYSIDE").Return(nil)
	communities.On("Delete", mock.Anything, "sunnyside").Return(nil)

	indexer := newTestIndexer(source, client, repo, communities, jobs)
	require.NoError(t, indexer.RemoveCommunity(ctx, "sunnyside"))
	repo.AssertExpectations(t)
	communities.AssertExpectations(t)
}
