package service

import (
	"context"
	"errors"
	"time"

	"github.com/calgary-pulse/pulseqa/internal/domain"
	"github.com/calgary-pulse/pulseqa/internal/telemetry"
	"github.com/google/uuid"
)

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// ProfileSource defines the interface for fetching raw profile documents
type ProfileSource interface {
	ListSlugs(ctx context.Context) ([]string, error)
	GetProfile(ctx context.Context, slug string) ([]byte, error)
}

// CommunityRepositoryInterface defines the repository interface for the
// community registry
type CommunityRepositoryInterface interface {
	Upsert(ctx context.Context, c *domain.Community) error
	Delete(ctx context.Context, slug string) error
	DeleteAll(ctx context.Context) error
	ListAll(ctx context.Context) ([]domain.Community, error)
}

// IndexJobRepositoryInterface defines the repository interface for index
// job persistence
type IndexJobRepositoryInterface interface {
	Create(ctx context.Context, job *domain.IndexJob) error
}

// CommunityIndexResult reports one community's indexing outcome.
type CommunityIndexResult struct {
	Community string `json:"community"`
	Chunks    int    `json:"chunks"`
	Error     string `json:"error,omitempty"`
}

// IndexReport summarizes an indexing run.
type IndexReport struct {
	Results       []CommunityIndexResult `json:"results"`
	ChunksWritten int                    `json:"chunks_written"`
	Failed        int                    `json:"failed"`
}

// IndexerService (re)indexes community profiles into the chunk store. Each
// community is isolated: a malformed profile fails that community only, and
// retryable failures are queued for the background worker instead of
// aborting the rest of the run.
type IndexerService struct {
	source      ProfileSource
	store       *ChunkStoreAdapter
	chunker     *Chunker
	communities CommunityRepositoryInterface
	jobs        IndexJobRepositoryInterface
	uuidGen     UUIDGenerator
}

// NewIndexerService creates a new IndexerService instance
func NewIndexerService(
	source ProfileSource,
	store *ChunkStoreAdapter,
	chunker *Chunker,
	communities CommunityRepositoryInterface,
	jobs IndexJobRepositoryInterface,
) *IndexerService {
	return &IndexerService{
		source:      source,
		store:       store,
		chunker:     chunker,
		communities: communities,
		jobs:        jobs,
		uuidGen:     &DefaultUUIDGenerator{},
	}
}

// IndexCommunities indexes the named communities by slug.
func (s *IndexerService) IndexCommunities(ctx context.Context, slugs []string) (*IndexReport, error) {
	ctx, span := telemetry.StartSpan(ctx, "IndexerService.IndexCommunities", telemetry.SpanAttributes{
		Operation: "index",
	})
	defer span.End()

	report := &IndexReport{}
	for _, slug := range slugs {
		result := CommunityIndexResult{Community: slug}
		count, err := s.IndexCommunity(ctx, slug)
		if err != nil {
			result.Error = err.Error()
			report.Failed++
			if isRetryableIndexError(err) {
				s.enqueueRetry(ctx, slug)
			}
		} else {
			result.Chunks = count
			report.ChunksWritten += count
		}
		report.Results = append(report.Results, result)
	}
	return report, nil
}

// IndexAll indexes every profile the source knows about.
func (s *IndexerService) IndexAll(ctx context.Context) (*IndexReport, error) {
	slugs, err := s.source.ListSlugs(ctx)
	if err != nil {
		return nil, err
	}
	return s.IndexCommunities(ctx, slugs)
}

// Wipe clears the whole index and registry, then rebuilds from the source.
func (s *IndexerService) Wipe(ctx context.Context) (*IndexReport, error) {
	ctx, span := telemetry.StartSpan(ctx, "IndexerService.Wipe", telemetry.SpanAttributes{
		Operation: "wipe",
	})
	defer span.End()

	if err := s.store.DeleteAll(ctx); err != nil {
		span.SetError(err)
		return nil, err
	}
	if err := s.communities.DeleteAll(ctx); err != nil {
		span.SetError(err)
		return nil, err
	}
	return s.IndexAll(ctx)
}

// IndexCommunity indexes a single community and returns the number of
// chunks written. The chunk replacement and registry update happen after
// the profile fully parses, so a malformed document leaves the previous
// index untouched.
func (s *IndexerService) IndexCommunity(ctx context.Context, slug string) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "IndexerService.IndexCommunity", telemetry.SpanAttributes{
		Community: slug,
		Operation: "index",
	})
	defer span.End()

	doc, err := s.source.GetProfile(ctx, slug)
	if err != nil {
		span.SetError(err)
		return 0, err
	}

	profile, err := ParseProfile(doc)
	if err != nil {
		span.SetError(err)
		return 0, err
	}

	chunks := s.chunker.ChunkProfile(profile)
	if err := s.store.Upsert(ctx, profile.Name, chunks); err != nil {
		span.SetError(err)
		return 0, err
	}

	entry := &domain.Community{
		Slug:       profile.Slug,
		Name:       profile.Name,
		ChunkCount: len(chunks),
		IndexedAt:  time.Now().UTC(),
	}
	if err := s.communities.Upsert(ctx, entry); err != nil {
		span.SetError(err)
		return 0, err
	}
	return len(chunks), nil
}

// RemoveCommunity deletes a community's chunks and registry entry.
func (s *IndexerService) RemoveCommunity(ctx context.Context, slug string) error {
	ctx, span := telemetry.StartSpan(ctx, "IndexerService.RemoveCommunity", telemetry.SpanAttributes{
		Community: slug,
		Operation: "delete",
	})
	defer span.End()

	known, err := s.communities.ListAll(ctx)
	if err != nil {
		return err
	}
	name := slug
	for _, c := range known {
		if c.Slug == slug {
			name = c.Name
			break
		}
	}

	if err := s.store.DeleteCommunity(ctx, name); err != nil {
		span.SetError(err)
		return err
	}
	return s.communities.Delete(ctx, slug)
}

// ListCommunities returns the registry contents.
func (s *IndexerService) ListCommunities(ctx context.Context) ([]domain.Community, error) {
	return s.communities.ListAll(ctx)
}

// Stats reports corpus-level index counts.
func (s *IndexerService) Stats(ctx context.Context) (*StoreStats, error) {
	return s.store.Stats(ctx)
}

func (s *IndexerService) enqueueRetry(ctx context.Context, slug string) {
	if s.jobs == nil {
		return
	}
	job := &domain.IndexJob{
		ID:        s.uuidGen.NewString(),
		Community: slug,
		Status:    domain.IndexJobStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		telemetry.CaptureError(ctx, err)
	}
}

// isRetryableIndexError reports whether a failed community is worth
// queueing for the background worker. Malformed or missing profiles fail
// the same way every time, so only infrastructure failures retry.
func isRetryableIndexError(err error) bool {
	var derr *domain.DomainError
	if errors.As(err, &derr) {
		switch derr.Code {
		case domain.ErrCodeValidation, domain.ErrCodeNotFound:
			return false
		}
	}
	return true
}
