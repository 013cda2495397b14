package domain

import "time"

// AnswerStatus is the terminal outcome of a question.
type AnswerStatus string

const (
	AnswerStatusDelivered        AnswerStatus = "delivered"
	AnswerStatusInsufficientData AnswerStatus = "insufficient_data"
	AnswerStatusFailed           AnswerStatus = "failed"
)

// AnswerState tracks a question through the answering pipeline.
type AnswerState string

const (
	AnswerStateReceived   AnswerState = "received"
	AnswerStateRetrieving AnswerState = "retrieving"
	AnswerStateAssembling AnswerState = "assembling"
	AnswerStateGenerating AnswerState = "generating"
	AnswerStateDelivered  AnswerState = "delivered"
	AnswerStateFailed     AnswerState = "failed"
)

// Answer is the packaged result of one question.
type Answer struct {
	Question  string
	Text      string
	Status    AnswerStatus
	Citations []Citation
	VizRefs   []VizRef
	// Missing names the communities (or, when empty, the general lack of
	// supporting data) behind an insufficient_data outcome.
	Missing   []string
	AskedAt   time.Time
}

// IsValidAnswerStatus checks if s is a known terminal status.
func IsValidAnswerStatus(s AnswerStatus) bool {
	switch s {
	case AnswerStatusDelivered, AnswerStatusInsufficientData, AnswerStatusFailed:
		return true
	}
	return false
}
