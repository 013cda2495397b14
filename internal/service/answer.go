package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/calgary-pulse/pulseqa/internal/domain"
	"github.com/calgary-pulse/pulseqa/internal/telemetry"
)

// AnswerGenerator defines the interface for the external text generator
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, prompt string) (string, error)
}

// QuestionLogResult captures a single retrieved chunk for logging.
type QuestionLogResult struct {
	ChunkID string  `json:"chunk_id"`
	Score   float32 `json:"score"`
}

// QuestionLogEntry captures a question and its outcome.
type QuestionLogEntry struct {
	Question    string
	Status      domain.AnswerStatus
	Communities []string
	DurationMs  int
	Results     []QuestionLogResult
}

// QuestionLogRepository persists question logs for evaluation.
type QuestionLogRepository interface {
	CreateQuestionLog(ctx context.Context, entry QuestionLogEntry) (string, error)
}

// AnswerRetriever defines the retrieval step of the answer pipeline
type AnswerRetriever interface {
	Retrieve(ctx context.Context, question string, hints []string) (*RetrievalResult, error)
}

// AnswerConfig bounds the generation step.
type AnswerConfig struct {
	// GenerationRetries is the number of attempts per question before the
	// answer fails.
	GenerationRetries int
}

// DefaultAnswerConfig provides the default generation policy.
func DefaultAnswerConfig() AnswerConfig {
	return AnswerConfig{
		GenerationRetries: 3,
	}
}

// AnswerService drives a question through retrieval, context assembly, and
// generation. A question moves received -> retrieving -> assembling ->
// generating -> delivered, with failed reachable from any step; the
// insufficient-data outcome short-circuits past generation so nothing is
// ever fabricated.
type AnswerService struct {
	retriever AnswerRetriever
	assembler *Assembler
	generator AnswerGenerator
	log       QuestionLogRepository
	cfg       AnswerConfig
}

// NewAnswerService creates a new AnswerService instance
func NewAnswerService(retriever AnswerRetriever, assembler *Assembler, generator AnswerGenerator, cfg AnswerConfig) *AnswerService {
	if cfg.GenerationRetries <= 0 {
		cfg.GenerationRetries = DefaultAnswerConfig().GenerationRetries
	}
	return &AnswerService{
		retriever: retriever,
		assembler: assembler,
		generator: generator,
		cfg:       cfg,
	}
}

// WithQuestionLog attaches a question log. Logging failures never affect
// the answer.
func (s *AnswerService) WithQuestionLog(log QuestionLogRepository) *AnswerService {
	s.log = log
	return s
}

// AskInput represents one question with optional explicit community hints.
type AskInput struct {
	Question    string
	Communities []string
}

// Ask answers one question. The returned Answer always carries a terminal
// status; a non-nil error accompanies only the failed status and is
// retryable by the caller.
func (s *AnswerService) Ask(ctx context.Context, input AskInput) (*domain.Answer, error) {
	ctx, span := telemetry.StartSpan(ctx, "AnswerService.Ask", telemetry.SpanAttributes{
		Question:  input.Question,
		Operation: "ask",
	})
	defer span.End()

	started := time.Now()
	answer := &domain.Answer{
		Question: input.Question,
		AskedAt:  started.UTC(),
	}

	if strings.TrimSpace(input.Question) == "" {
		answer.Status = domain.AnswerStatusFailed
		return answer, domain.ErrEmptyQuestion
	}

	result, err := s.retriever.Retrieve(ctx, input.Question, input.Communities)
	if err != nil {
		span.SetError(err)
		answer.Status = domain.AnswerStatusFailed
		s.logOutcome(ctx, answer, nil, started)
		return answer, err
	}

	if result.Insufficient {
		answer.Status = domain.AnswerStatusInsufficientData
		answer.Missing = result.Missing
		answer.Text = insufficientDataText(result.Missing)
		s.logOutcome(ctx, answer, result, started)
		return answer, nil
	}

	actx := s.assembler.Assemble(result.Chunks)
	if len(actx.Chunks) == 0 {
		answer.Status = domain.AnswerStatusInsufficientData
		answer.Missing = result.Missing
		answer.Text = insufficientDataText(result.Missing)
		s.logOutcome(ctx, answer, result, started)
		return answer, nil
	}

	prompt := s.assembler.RenderPrompt(input.Question, actx)

	text, err := s.generate(ctx, prompt)
	if err != nil {
		span.SetError(err)
		answer.Status = domain.AnswerStatusFailed
		s.logOutcome(ctx, answer, result, started)
		return answer, err
	}

	answer.Status = domain.AnswerStatusDelivered
	answer.Text = text
	answer.Citations = actx.Citations
	answer.VizRefs = actx.VizRefs
	// A delivered answer can still be partial: hinted communities the index
	// does not cover stay on the answer so the caller sees what was omitted.
	answer.Missing = result.Missing
	s.logOutcome(ctx, answer, result, started)
	return answer, nil
}

// AskBatch answers questions in input order. A failed question is recorded
// in place with the failed status; the rest of the batch proceeds.
func (s *AnswerService) AskBatch(ctx context.Context, inputs []AskInput) []domain.Answer {
	answers := make([]domain.Answer, 0, len(inputs))
	for _, input := range inputs {
		answer, err := s.Ask(ctx, input)
		if err != nil && answer.Text == "" {
			answer.Text = fmt.Sprintf("Failed to answer: %v", err)
		}
		answers = append(answers, *answer)
	}
	return answers
}

// generate calls the external generator with bounded retries.
func (s *AnswerService) generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < s.cfg.GenerationRetries; attempt++ {
		text, err := s.generator.GenerateAnswer(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return "", domain.NewDomainErrorWithCause(domain.ErrCodeGeneration,
		fmt.Sprintf("answer generation failed after %d attempts", s.cfg.GenerationRetries), lastErr)
}

func (s *AnswerService) logOutcome(ctx context.Context, answer *domain.Answer, result *RetrievalResult, started time.Time) {
	if s.log == nil {
		return
	}
	entry := QuestionLogEntry{
		Question:   answer.Question,
		Status:     answer.Status,
		DurationMs: int(time.Since(started).Milliseconds()),
	}
	if result != nil {
		entry.Communities = result.Communities
		for _, rc := range result.Chunks {
			entry.Results = append(entry.Results, QuestionLogResult{
				ChunkID: rc.Chunk.ID,
				Score:   rc.Score,
			})
		}
	}
	if _, err := s.log.CreateQuestionLog(ctx, entry); err != nil {
		telemetry.CaptureError(ctx, err)
	}
}

func insufficientDataText(missing []string) string {
	if len(missing) == 0 {
		return "Data not available: no indexed community data supports this question."
	}
	return "Data not available, missing: " + strings.Join(missing, ", ") + "."
}
