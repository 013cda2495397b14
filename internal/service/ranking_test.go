package service

import (
	"testing"

	"github.com/calgary-pulse/pulseqa/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImpliedSections(t *testing.T) {
	t.Run("maps keywords to sections in canonical order", func(t *testing.T) {
		sections := impliedSections("Are the schools good and is crime low?")
		assert.Equal(t, []domain.Section{domain.SectionSafety, domain.SectionSchools}, sections)
	})

	t.Run("no keywords means no sections", func(t *testing.T) {
		assert.Empty(t, impliedSections("tell me everything"))
	})

	t.Run("311 vocabulary hits service requests", func(t *testing.T) {
		sections := impliedSections("how many 311 graffiti complaints")
		assert.Equal(t, []domain.Section{domain.SectionServiceRequests}, sections)
	})
}

func TestRankCandidates(t *testing.T) {
	t.Run("boost is an adjustment, not a filter", func(t *testing.T) {
		candidates := []domain.RetrievedChunk{
			retrieved("a-housing", "A", domain.SectionHousing, 0.70, 2),
			retrieved("a-safety", "A", domain.SectionSafety, 0.60, 2),
		}
		ranked := rankCandidates(candidates, []domain.Section{domain.SectionSafety}, 0.15)
		require.Len(t, ranked, 2)
		assert.Equal(t, "a-safety", ranked[0].Chunk.ID)
		assert.Equal(t, "a-housing", ranked[1].Chunk.ID)
	})

	t.Run("score ties break by metrics density then chunk id", func(t *testing.T) {
		candidates := []domain.RetrievedChunk{
			{Chunk: domain.Chunk{ID: "b-overview", Metrics: map[string]string{"x": "1"}}, Score: 0.5},
			{Chunk: domain.Chunk{ID: "a-overview", Metrics: map[string]string{"x": "1"}}, Score: 0.5},
			{Chunk: domain.Chunk{ID: "c-safety", Metrics: map[string]string{"x": "1", "y": "2"}}, Score: 0.5},
		}
		ranked := rankCandidates(candidates, nil, 0)
		assert.Equal(t, "c-safety", ranked[0].Chunk.ID)
		assert.Equal(t, "a-overview", ranked[1].Chunk.ID)
		assert.Equal(t, "b-overview", ranked[2].Chunk.ID)
	})

	t.Run("does not mutate the input slice", func(t *testing.T) {
		candidates := []domain.RetrievedChunk{
			retrieved("a-safety", "A", domain.SectionSafety, 0.60, 2),
		}
		rankCandidates(candidates, []domain.Section{domain.SectionSafety}, 0.15)
		assert.InDelta(t, 0.60, candidates[0].Score, 1e-6)
	})
}

func TestInterleave(t *testing.T) {
	a1 := retrieved("a-1", "A", domain.SectionSafety, 0.9, 1)
	a2 := retrieved("a-2", "A", domain.SectionHousing, 0.8, 1)
	b1 := retrieved("b-1", "B", domain.SectionSafety, 0.7, 1)

	merged := interleave([][]domain.RetrievedChunk{{a1, a2}, {b1}})
	require.Len(t, merged, 3)
	assert.Equal(t, "a-1", merged[0].Chunk.ID)
	assert.Equal(t, "b-1", merged[1].Chunk.ID)
	assert.Equal(t, "a-2", merged[2].Chunk.ID)
}

func TestDedupeByChunkID(t *testing.T) {
	high := retrieved("a-1", "A", domain.SectionSafety, 0.9, 1)
	low := retrieved("a-1", "A", domain.SectionSafety, 0.4, 1)
	other := retrieved("a-2", "A", domain.SectionHousing, 0.5, 1)

	out := dedupeByChunkID([]domain.RetrievedChunk{high, other, low})
	require.Len(t, out, 2)
	assert.InDelta(t, 0.9, out[0].Score, 1e-6)
}

func TestCapAndRank(t *testing.T) {
	chunks := []domain.RetrievedChunk{
		retrieved("a-1", "A", domain.SectionSafety, 0.9, 1),
		retrieved("a-2", "A", domain.SectionHousing, 0.8, 1),
		retrieved("a-3", "A", domain.SectionTransit, 0.7, 1),
	}
	out := capAndRank(chunks, 2)
	require.Len(t, out, 2)
	assert.Equal(t, 1, out[0].Rank)
	assert.Equal(t, 2, out[1].Rank)
}
