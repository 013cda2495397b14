package service

import (
	"context"
	"fmt"

	"github.com/calgary-pulse/pulseqa/internal/domain"
	"github.com/calgary-pulse/pulseqa/internal/telemetry"
)

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// SearchFilter restricts a vector search to specific communities or sections.
// Empty slices mean no restriction.
type SearchFilter struct {
	Communities []string
	Sections    []domain.Section
}

// StoreStats summarizes the indexed corpus.
type StoreStats struct {
	Communities int
	Chunks      int
	Sections    map[string]int
}

// ChunkRepository defines the repository interface for chunk persistence
type ChunkRepository interface {
	ReplaceCommunityChunks(ctx context.Context, community string, chunks []domain.Chunk) error
	DeleteCommunity(ctx context.Context, community string) error
	DeleteAll(ctx context.Context) error
	SearchByEmbedding(ctx context.Context, embedding []float32, filter SearchFilter, limit int) ([]domain.RetrievedChunk, error)
	Stats(ctx context.Context) (*StoreStats, error)
}

// ChunkStore is the narrow contract the retrieval pipeline holds on the
// vector index. Implementations own embedding generation so callers pass
// plain text on both the write and read paths.
type ChunkStore interface {
	Upsert(ctx context.Context, community string, chunks []domain.Chunk) error
	DeleteCommunity(ctx context.Context, community string) error
	Search(ctx context.Context, query string, filter SearchFilter, limit int) ([]domain.RetrievedChunk, error)
}

// ChunkStoreAdapter implements ChunkStore over a pgvector-backed repository,
// generating embeddings through the configured client.
type ChunkStoreAdapter struct {
	client EmbeddingClient
	repo   ChunkRepository
}

// NewChunkStoreAdapter creates a new ChunkStoreAdapter instance
func NewChunkStoreAdapter(client EmbeddingClient, repo ChunkRepository) *ChunkStoreAdapter {
	return &ChunkStoreAdapter{
		client: client,
		repo:   repo,
	}
}

// Upsert embeds the chunks and replaces the community's rows in a single
// transaction. Existing rows for the community are only removed once the new
// set is ready, so a failed embedding pass leaves the previous index intact.
func (s *ChunkStoreAdapter) Upsert(ctx context.Context, community string, chunks []domain.Chunk) error {
	ctx, span := telemetry.StartSpan(ctx, "ChunkStoreAdapter.Upsert", telemetry.SpanAttributes{
		Community: community,
		Operation: "upsert",
	})
	defer span.End()

	if len(chunks) == 0 {
		return nil
	}

	embedded := make([]domain.Chunk, len(chunks))
	for i, chunk := range chunks {
		embedding, err := s.client.GenerateEmbedding(ctx, chunk.Text)
		if err != nil {
			span.SetError(err)
			return fmt.Errorf("failed to embed chunk %s: %w", chunk.ID, err)
		}
		chunk.Embedding = embedding
		embedded[i] = chunk
	}

	if err := s.repo.ReplaceCommunityChunks(ctx, community, embedded); err != nil {
		span.SetError(err)
		return err
	}
	return nil
}

// DeleteCommunity removes every chunk belonging to the community.
func (s *ChunkStoreAdapter) DeleteCommunity(ctx context.Context, community string) error {
	ctx, span := telemetry.StartSpan(ctx, "ChunkStoreAdapter.DeleteCommunity", telemetry.SpanAttributes{
		Community: community,
		Operation: "delete",
	})
	defer span.End()

	return s.repo.DeleteCommunity(ctx, community)
}

// DeleteAll wipes the entire index.
func (s *ChunkStoreAdapter) DeleteAll(ctx context.Context) error {
	ctx, span := telemetry.StartSpan(ctx, "ChunkStoreAdapter.DeleteAll", telemetry.SpanAttributes{
		Operation: "delete",
	})
	defer span.End()

	return s.repo.DeleteAll(ctx)
}

// Search embeds the query and returns the closest chunks by cosine
// similarity, optionally filtered by community or section.
func (s *ChunkStoreAdapter) Search(ctx context.Context, query string, filter SearchFilter, limit int) ([]domain.RetrievedChunk, error) {
	ctx, span := telemetry.StartSpan(ctx, "ChunkStoreAdapter.Search", telemetry.SpanAttributes{
		Operation: "search",
	})
	defer span.End()

	embedding, err := s.client.GenerateEmbedding(ctx, query)
	if err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := s.repo.SearchByEmbedding(ctx, embedding, filter, limit)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	return results, nil
}

// Stats reports corpus-level counts from the repository.
func (s *ChunkStoreAdapter) Stats(ctx context.Context) (*StoreStats, error) {
	return s.repo.Stats(ctx)
}
