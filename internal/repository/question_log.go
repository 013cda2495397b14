package repository

import (
	"context"
	"encoding/json"

	"github.com/calgary-pulse/pulseqa/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuestionLogRepository stores question logs for evaluation of the
// retrieval pipeline.
type QuestionLogRepository struct {
	pool *pgxpool.Pool
}

func NewQuestionLogRepository(pool *pgxpool.Pool) *QuestionLogRepository {
	return &QuestionLogRepository{pool: pool}
}

func (r *QuestionLogRepository) CreateQuestionLog(ctx context.Context, entry service.QuestionLogEntry) (string, error) {
	communitiesJSON, _ := json.Marshal(entry.Communities)
	resultsJSON, _ := json.Marshal(entry.Results)

	var id string
	err := r.pool.QueryRow(ctx,
		`INSERT INTO question_logs (question, status, communities, results, result_count, duration_ms)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		entry.Question,
		string(entry.Status),
		communitiesJSON,
		resultsJSON,
		len(entry.Results),
		entry.DurationMs,
	).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}
