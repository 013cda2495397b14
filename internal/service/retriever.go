package service

import (
	"context"
	"strings"

	"github.com/calgary-pulse/pulseqa/internal/domain"
	"github.com/calgary-pulse/pulseqa/internal/telemetry"
)

// RetrieverConfig holds the ranking policy knobs. Boost weights and
// thresholds are tuning choices, so they live in configuration rather than
// constants.
type RetrieverConfig struct {
	// TopK is the maximum number of chunks returned per question.
	TopK int
	// MinScore is the similarity floor below which a chunk is never
	// returned when no community was identified in the question.
	MinScore float32
	// SectionBoost is added to the score of chunks whose section matches
	// a keyword implied by the question.
	SectionBoost float32
	// CandidateFactor widens the initial vector search so re-ranking has
	// headroom before the cut to TopK.
	CandidateFactor int
}

// DefaultRetrieverConfig provides tested defaults for retrieval.
func DefaultRetrieverConfig() RetrieverConfig {
	return RetrieverConfig{
		TopK:            8,
		MinScore:        0.25,
		SectionBoost:    0.15,
		CandidateFactor: 3,
	}
}

// CommunityRegistry defines the interface for listing known communities
type CommunityRegistry interface {
	ListAll(ctx context.Context) ([]domain.Community, error)
}

// RetrievalResult is the ranked candidate set for one question plus the
// routing decisions made while building it.
type RetrievalResult struct {
	Chunks      []domain.RetrievedChunk
	Communities []string
	Sections    []domain.Section
	// Insufficient is set when no chunk supports the question; Missing
	// names the communities the caller asked about that the index does
	// not cover.
	Insufficient bool
	Missing      []string
}

// Retriever ranks indexed chunks against a free-text question. Ranking is
// the black-box similarity score plus an ordered list of deterministic
// adjustments, so results are reproducible for a fixed index.
type Retriever struct {
	store    ChunkStore
	registry CommunityRegistry
	cfg      RetrieverConfig
}

// NewRetriever creates a new Retriever instance
func NewRetriever(store ChunkStore, registry CommunityRegistry, cfg RetrieverConfig) *Retriever {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultRetrieverConfig().TopK
	}
	if cfg.CandidateFactor <= 0 {
		cfg.CandidateFactor = DefaultRetrieverConfig().CandidateFactor
	}
	return &Retriever{
		store:    store,
		registry: registry,
		cfg:      cfg,
	}
}

// Retrieve matches communities named in the question (or passed as hints)
// against the registry, runs the vector search with the matched communities
// as a hard filter, applies section boosts, and returns the ranked top-k.
func (r *Retriever) Retrieve(ctx context.Context, question string, hints []string) (*RetrievalResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "Retriever.Retrieve", telemetry.SpanAttributes{
		Question:  question,
		Operation: "retrieve",
	})
	defer span.End()

	if strings.TrimSpace(question) == "" {
		return nil, domain.ErrEmptyQuestion
	}

	known, err := r.registry.ListAll(ctx)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	matched, missing := matchCommunities(question, hints, known)
	if len(missing) > 0 && len(matched) == 0 {
		// Every community the caller named is absent from the index.
		return &RetrievalResult{Insufficient: true, Missing: missing}, nil
	}

	sections := impliedSections(question)

	if len(matched) == 2 && len(sections) > 0 {
		return r.retrieveComparison(ctx, question, matched, sections, missing)
	}

	// The hard community filter applies only when one or two communities
	// are named; with three or more the question is a broad survey, so the
	// search stays unfiltered and boosts alone steer the ranking.
	filter := SearchFilter{}
	if len(matched) <= 2 {
		filter.Communities = matched
	}
	candidates, err := r.store.Search(ctx, question, filter, r.cfg.TopK*r.cfg.CandidateFactor)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	ranked := rankCandidates(candidates, sections, r.cfg.SectionBoost)

	// Without a recognized community the similarity floor is the only
	// guard against answering from unrelated chunks.
	if len(matched) == 0 {
		ranked = filterBelow(ranked, r.cfg.MinScore)
	}
	if len(ranked) == 0 {
		return &RetrievalResult{
			Communities:  matched,
			Sections:     sections,
			Insufficient: true,
			Missing:      append(missing, matched...),
		}, nil
	}

	return &RetrievalResult{
		Chunks:      capAndRank(ranked, r.cfg.TopK),
		Communities: matched,
		Sections:    sections,
		Missing:     missing,
	}, nil
}

// retrieveComparison handles two-community comparison questions. Each side
// is searched independently on the implicated sections so neither community
// dominates purely by embedding similarity, then the two lists are
// interleaved and topped up from an unrestricted search across both.
func (r *Retriever) retrieveComparison(ctx context.Context, question string, communities []string, sections []domain.Section, missing []string) (*RetrievalResult, error) {
	perSide := r.cfg.TopK / 2
	if perSide < 1 {
		perSide = 1
	}

	sides := make([][]domain.RetrievedChunk, 0, len(communities))
	for _, community := range communities {
		filter := SearchFilter{Communities: []string{community}, Sections: sections}
		chunks, err := r.store.Search(ctx, question, filter, perSide)
		if err != nil {
			return nil, err
		}
		sides = append(sides, rankCandidates(chunks, sections, r.cfg.SectionBoost))
	}

	merged := interleave(sides)

	if len(merged) < r.cfg.TopK {
		filter := SearchFilter{Communities: communities}
		extra, err := r.store.Search(ctx, question, filter, r.cfg.TopK)
		if err != nil {
			return nil, err
		}
		merged = append(merged, rankCandidates(extra, sections, r.cfg.SectionBoost)...)
	}
	merged = dedupeByChunkID(merged)

	if len(merged) == 0 {
		return &RetrievalResult{
			Communities:  communities,
			Sections:     sections,
			Insufficient: true,
			Missing:      append(missing, communities...),
		}, nil
	}

	return &RetrievalResult{
		Chunks:      capAndRank(merged, r.cfg.TopK),
		Communities: communities,
		Sections:    sections,
		Missing:     missing,
	}, nil
}

// matchCommunities resolves explicit hints and names mentioned in the
// question against the registry. Hints that resolve to nothing are reported
// back as missing; question text never produces missing entries because a
// non-match there is indistinguishable from an ordinary word.
func matchCommunities(question string, hints []string, known []domain.Community) (matched, missing []string) {
	seen := map[string]bool{}

	for _, hint := range hints {
		if name, ok := lookupCommunity(hint, known); ok {
			if !seen[name] {
				matched = append(matched, name)
				seen[name] = true
			}
		} else if strings.TrimSpace(hint) != "" {
			missing = append(missing, strings.TrimSpace(hint))
		}
	}

	normalized := " " + normalizeText(question) + " "
	for _, c := range known {
		if seen[c.Name] {
			continue
		}
		name := " " + normalizeText(c.Name) + " "
		if strings.Contains(normalized, name) {
			matched = append(matched, c.Name)
			seen[c.Name] = true
			continue
		}
		// Fuzzy pass for single-word names so minor typos still resolve.
		if !strings.Contains(strings.TrimSpace(name), " ") {
			for _, token := range strings.Fields(normalized) {
				if len(token) >= 4 && editDistance(token, strings.TrimSpace(name)) == 1 {
					matched = append(matched, c.Name)
					seen[c.Name] = true
					break
				}
			}
		}
	}
	return matched, missing
}

func lookupCommunity(hint string, known []domain.Community) (string, bool) {
	h := normalizeText(hint)
	for _, c := range known {
		if h == normalizeText(c.Name) || h == normalizeText(c.Slug) {
			return c.Name, true
		}
	}
	return "", false
}

// normalizeText lowercases and collapses non-alphanumeric runs to single
// spaces, so "Tuxedo Park" matches "tuxedo-park" and "Tuxedo Park?".
func normalizeText(s string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// editDistance is the Levenshtein distance between two short strings.
func editDistance(a, b string) int {
	if a == b {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
