package service

import (
	"sort"
	"strings"

	"github.com/calgary-pulse/pulseqa/internal/domain"
)

// sectionKeywords maps question vocabulary to the section it implicates.
// A hit boosts that section's chunks in the ranking; it never excludes
// other sections.
var sectionKeywords = map[string]domain.Section{
	"safe":        domain.SectionSafety,
	"safer":       domain.SectionSafety,
	"safest":      domain.SectionSafety,
	"safety":      domain.SectionSafety,
	"crime":       domain.SectionSafety,
	"dangerous":   domain.SectionSafety,
	"theft":       domain.SectionSafety,
	"break":       domain.SectionSafety,
	"house":       domain.SectionHousing,
	"housing":     domain.SectionHousing,
	"home":        domain.SectionHousing,
	"price":       domain.SectionHousing,
	"prices":      domain.SectionHousing,
	"cheaper":     domain.SectionHousing,
	"expensive":   domain.SectionHousing,
	"assessed":    domain.SectionHousing,
	"property":    domain.SectionHousing,
	"rent":        domain.SectionHousing,
	"school":      domain.SectionSchools,
	"schools":     domain.SectionSchools,
	"education":   domain.SectionSchools,
	"kids":        domain.SectionSchools,
	"transit":     domain.SectionTransit,
	"bus":         domain.SectionTransit,
	"train":       domain.SectionTransit,
	"ctrain":      domain.SectionTransit,
	"commute":     domain.SectionTransit,
	"demographic": domain.SectionDemographics,
	"income":      domain.SectionDemographics,
	"age":         domain.SectionDemographics,
	"population":  domain.SectionDemographics,
	"renter":      domain.SectionDemographics,
	"owner":       domain.SectionDemographics,
	"business":    domain.SectionBusiness,
	"businesses":  domain.SectionBusiness,
	"shop":        domain.SectionBusiness,
	"permit":      domain.SectionBusiness,
	"development": domain.SectionBusiness,
	"license":     domain.SectionBusiness,
	"311":         domain.SectionServiceRequests,
	"complaint":   domain.SectionServiceRequests,
	"complaints":  domain.SectionServiceRequests,
	"graffiti":    domain.SectionServiceRequests,
	"snow":        domain.SectionServiceRequests,
	"restaurant":  domain.SectionAmenities,
	"restaurants": domain.SectionAmenities,
	"cafe":        domain.SectionAmenities,
	"cafes":       domain.SectionAmenities,
	"grocery":     domain.SectionAmenities,
	"park":        domain.SectionAmenities,
	"parks":       domain.SectionAmenities,
	"amenities":   domain.SectionAmenities,
	"walkable":    domain.SectionAmenities,
	"landmark":    domain.SectionAmenities,
	"landmarks":   domain.SectionAmenities,
}

// impliedSections returns the sections implicated by the question's
// vocabulary, in fixed section order for determinism.
func impliedSections(question string) []domain.Section {
	hit := map[domain.Section]bool{}
	for _, token := range strings.Fields(normalizeText(question)) {
		if section, ok := sectionKeywords[token]; ok {
			hit[section] = true
		}
	}
	var sections []domain.Section
	for _, s := range domain.Sections {
		if hit[s] {
			sections = append(sections, s)
		}
	}
	return sections
}

// rankCandidates applies the section boost and re-sorts. Ties break by
// higher metrics density, then lexically smaller chunk id, so a fixed index
// always ranks the same way.
func rankCandidates(candidates []domain.RetrievedChunk, boosted []domain.Section, boost float32) []domain.RetrievedChunk {
	ranked := make([]domain.RetrievedChunk, len(candidates))
	copy(ranked, candidates)

	if len(boosted) > 0 && boost != 0 {
		set := map[domain.Section]bool{}
		for _, s := range boosted {
			set[s] = true
		}
		for i := range ranked {
			if set[ranked[i].Chunk.Section] {
				ranked[i].Score += boost
			}
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		di, dj := ranked[i].Chunk.MetricsDensity(), ranked[j].Chunk.MetricsDensity()
		if di != dj {
			return di > dj
		}
		return ranked[i].Chunk.ID < ranked[j].Chunk.ID
	})
	return ranked
}

// interleave merges per-community result lists round-robin, preserving each
// list's internal order.
func interleave(sides [][]domain.RetrievedChunk) []domain.RetrievedChunk {
	var merged []domain.RetrievedChunk
	for i := 0; ; i++ {
		advanced := false
		for _, side := range sides {
			if i < len(side) {
				merged = append(merged, side[i])
				advanced = true
			}
		}
		if !advanced {
			return merged
		}
	}
}

// dedupeByChunkID keeps the first (higher-ranked) occurrence of each chunk.
func dedupeByChunkID(chunks []domain.RetrievedChunk) []domain.RetrievedChunk {
	seen := map[string]bool{}
	out := chunks[:0:0]
	for _, c := range chunks {
		if seen[c.Chunk.ID] {
			continue
		}
		seen[c.Chunk.ID] = true
		out = append(out, c)
	}
	return out
}

func filterBelow(chunks []domain.RetrievedChunk, minScore float32) []domain.RetrievedChunk {
	out := chunks[:0:0]
	for _, c := range chunks {
		if c.Score >= minScore {
			out = append(out, c)
		}
	}
	return out
}

// capAndRank trims to k and stamps 1-based rank positions.
func capAndRank(chunks []domain.RetrievedChunk, k int) []domain.RetrievedChunk {
	if len(chunks) > k {
		chunks = chunks[:k]
	}
	for i := range chunks {
		chunks[i].Rank = i + 1
	}
	return chunks
}
