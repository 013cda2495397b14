package domain

import "time"

// Chunk is an immutable retrievable unit derived from one profile section.
// Chunks are replaced wholesale on reindex, never mutated in place.
type Chunk struct {
	ID        string
	Community string
	Section   Section
	Text      string
	// Metrics maps fact names to their formatted values. Every value here
	// also appears verbatim in Text, which is what lets citations quote
	// exact figures.
	Metrics   map[string]string
	VizRef    *VizRef
	Embedding []float32
	CreatedAt time.Time
}

// VizRef points at an external visualization of a chunk's data.
type VizRef struct {
	Locator string
	Label   string
}

// RetrievedChunk is a Chunk with its relevance score and rank within a
// single query's result set.
type RetrievedChunk struct {
	Chunk Chunk
	Score float32
	Rank  int
}

// Citation asserts a (community, section) pair as the provenance of a fact.
type Citation struct {
	Community string
	Section   Section
}

// AnswerContext is the deduplicated, budget-bounded chunk sequence handed
// to the external generator. Citations is the authoritative provenance list
// for the answer built from it.
type AnswerContext struct {
	Chunks    []RetrievedChunk
	Citations []Citation
	VizRefs   []VizRef
	TotalChars int
}

// MetricsDensity is the number of named facts a chunk carries. Used as a
// deterministic tie-breaker during ranking.
func (c Chunk) MetricsDensity() int {
	return len(c.Metrics)
}
