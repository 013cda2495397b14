package repository

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/calgary-pulse/pulseqa/internal/domain"
	"github.com/calgary-pulse/pulseqa/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// ChunkRepository handles persistence of community chunks and their
// embeddings.
type ChunkRepository struct {
	pool *pgxpool.Pool
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{pool: pool}
}

// ReplaceCommunityChunks deletes a community's chunks and inserts the new
// set in one transaction, so searches never observe a half-written
// community.
func (r *ChunkRepository) ReplaceCommunityChunks(ctx context.Context, community string, chunks []domain.Chunk) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return indexUnavailable(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM chunks WHERE community = $1`, community); err != nil {
		return indexUnavailable(err)
	}

	for _, c := range chunks {
		if err := insertChunk(ctx, tx, c); err != nil {
			return indexUnavailable(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return indexUnavailable(err)
	}
	return nil
}

func insertChunk(ctx context.Context, db dbtx, c domain.Chunk) error {
	metricsJSON, err := json.Marshal(c.Metrics)
	if err != nil {
		return err
	}

	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var vizLocator, vizLabel *string
	if c.VizRef != nil {
		vizLocator = nullableString(c.VizRef.Locator)
		vizLabel = nullableString(c.VizRef.Label)
	}

	_, err = db.Exec(ctx,
		`INSERT INTO chunks (id, community, section, content, metrics, viz_locator, viz_label, embedding, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET
			community = EXCLUDED.community,
			section = EXCLUDED.section,
			content = EXCLUDED.content,
			metrics = EXCLUDED.metrics,
			viz_locator = EXCLUDED.viz_locator,
			viz_label = EXCLUDED.viz_label,
			embedding = EXCLUDED.embedding,
			created_at = EXCLUDED.created_at`,
		c.ID,
		c.Community,
		string(c.Section),
		c.Text,
		metricsJSON,
		vizLocator,
		vizLabel,
		pgvector.NewVector(c.Embedding),
		createdAt,
	)
	return err
}

// DeleteCommunity removes all chunks for the community.
func (r *ChunkRepository) DeleteCommunity(ctx context.Context, community string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM chunks WHERE community = $1`, community); err != nil {
		return indexUnavailable(err)
	}
	return nil
}

// DeleteAll wipes the chunk table.
func (r *ChunkRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM chunks`); err != nil {
		return indexUnavailable(err)
	}
	return nil
}

// SearchByEmbedding returns the closest chunks by cosine distance. An empty
// index yields an empty result set, not an error.
func (r *ChunkRepository) SearchByEmbedding(ctx context.Context, embedding []float32, filter service.SearchFilter, limit int) ([]domain.RetrievedChunk, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, community, section, content, metrics, viz_locator, viz_label, created_at,
		       1.0 / (1.0 + (embedding <=> $1)) AS score
		FROM chunks
		WHERE embedding IS NOT NULL`
	args := []interface{}{pgvector.NewVector(embedding)}

	if len(filter.Communities) > 0 {
		args = append(args, filter.Communities)
		query += ` AND community = ANY($` + itoa(len(args)) + `)`
	}
	if len(filter.Sections) > 0 {
		sections := make([]string, len(filter.Sections))
		for i, s := range filter.Sections {
			sections[i] = string(s)
		}
		args = append(args, sections)
		query += ` AND section = ANY($` + itoa(len(args)) + `)`
	}

	args = append(args, limit)
	query += `
		ORDER BY score DESC, id ASC
		LIMIT $` + itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, indexUnavailable(err)
	}
	defer rows.Close()

	results := make([]domain.RetrievedChunk, 0)
	for rows.Next() {
		rc, err := scanRetrievedChunk(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, rc)
	}
	return results, rows.Err()
}

// Stats reports corpus-level counts.
func (r *ChunkRepository) Stats(ctx context.Context) (*service.StoreStats, error) {
	stats := &service.StoreStats{Sections: map[string]int{}}

	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT community) FROM chunks`,
	).Scan(&stats.Chunks, &stats.Communities)
	if err != nil {
		return nil, indexUnavailable(err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT section, COUNT(*) FROM chunks GROUP BY section ORDER BY section`,
	)
	if err != nil {
		return nil, indexUnavailable(err)
	}
	defer rows.Close()

	for rows.Next() {
		var section string
		var count int
		if err := rows.Scan(&section, &count); err != nil {
			return nil, err
		}
		stats.Sections[section] = count
	}
	return stats, rows.Err()
}

func scanRetrievedChunk(rows pgx.Rows) (domain.RetrievedChunk, error) {
	var rc domain.RetrievedChunk
	var section string
	var metricsJSON []byte
	var vizLocator, vizLabel *string

	if err := rows.Scan(&rc.Chunk.ID, &rc.Chunk.Community, &section, &rc.Chunk.Text,
		&metricsJSON, &vizLocator, &vizLabel, &rc.Chunk.CreatedAt, &rc.Score); err != nil {
		return rc, err
	}

	rc.Chunk.Section = domain.Section(section)
	if len(metricsJSON) > 0 {
		if err := json.Unmarshal(metricsJSON, &rc.Chunk.Metrics); err != nil {
			return rc, err
		}
	}
	if vizLocator != nil {
		rc.Chunk.VizRef = &domain.VizRef{Locator: *vizLocator}
		if vizLabel != nil {
			rc.Chunk.VizRef.Label = *vizLabel
		}
	}
	return rc, nil
}

func indexUnavailable(err error) error {
	return domain.NewDomainErrorWithCause(domain.ErrCodeIndexUnavailable, "vector index unreachable", err)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
