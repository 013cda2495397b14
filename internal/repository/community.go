package repository

import (
	"context"
	"errors"
	"time"

	"github.com/calgary-pulse/pulseqa/internal/domain"
	"github.com/calgary-pulse/pulseqa/internal/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CommunityRepository stores the registry of indexed communities.
type CommunityRepository struct {
	pool *pgxpool.Pool
}

func NewCommunityRepository(pool *pgxpool.Pool) *CommunityRepository {
	return &CommunityRepository{pool: pool}
}

func (r *CommunityRepository) Upsert(ctx context.Context, c *domain.Community) error {
	indexedAt := c.IndexedAt
	if indexedAt.IsZero() {
		indexedAt = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO communities (slug, name, chunk_count, indexed_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (slug) DO UPDATE SET
			name = EXCLUDED.name,
			chunk_count = EXCLUDED.chunk_count,
			indexed_at = EXCLUDED.indexed_at`,
		c.Slug, c.Name, c.ChunkCount, indexedAt,
	)
	return err
}

func (r *CommunityRepository) GetBySlug(ctx context.Context, slug string) (*domain.Community, error) {
	var c domain.Community
	err := r.pool.QueryRow(ctx,
		`SELECT slug, name, chunk_count, indexed_at FROM communities WHERE slug = $1`,
		slug,
	).Scan(&c.Slug, &c.Name, &c.ChunkCount, &c.IndexedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCommunityNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *CommunityRepository) Delete(ctx context.Context, slug string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM communities WHERE slug = $1`, slug)
	return err
}

func (r *CommunityRepository) DeleteAll(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM communities`)
	return err
}

func (r *CommunityRepository) ListAll(ctx context.Context) ([]domain.Community, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT slug, name, chunk_count, indexed_at FROM communities ORDER BY slug ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCommunityRows(rows)
}

// ListWithCursor pages through the registry ordered by slug.
func (r *CommunityRepository) ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int) (*pagination.PageResult[domain.Community], error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT slug, name, chunk_count, indexed_at FROM communities`
	args := []interface{}{}
	if cursor != nil {
		query += ` WHERE slug > $1`
		args = append(args, cursor.LastID)
	}
	query += ` ORDER BY slug ASC LIMIT $` + itoa(len(args)+1)
	args = append(args, limit+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := scanCommunityRows(rows)
	if err != nil {
		return nil, err
	}

	result := &pagination.PageResult[domain.Community]{Items: items}
	if len(items) > limit {
		result.Items = items[:limit]
		result.HasMore = true
		last := result.Items[limit-1]
		result.Cursor = pagination.EncodeCursor(last.Slug, last.IndexedAt)
	}
	return result, nil
}

func scanCommunityRows(rows pgx.Rows) ([]domain.Community, error) {
	var items []domain.Community
	for rows.Next() {
		var c domain.Community
		if err := rows.Scan(&c.Slug, &c.Name, &c.ChunkCount, &c.IndexedAt); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}
