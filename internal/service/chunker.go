package service

import (
	"time"

	"github.com/calgary-pulse/pulseqa/internal/domain"
)

// ChunkerConfig controls how profile sections become chunks.
type ChunkerConfig struct {
	// MaxChars is the rendered-text length above which a splittable section
	// (amenities, schools) is broken into sub-category chunks.
	MaxChars int
	// BaseURL is the root of the external visualization site used in viz
	// locators.
	BaseURL string
}

// DefaultChunkerConfig provides sane defaults for chunking.
func DefaultChunkerConfig() ChunkerConfig {
	return ChunkerConfig{
		MaxChars: 1800,
		BaseURL:  "https://calgarypulse.ca/communities",
	}
}

// Chunker converts normalized profiles into retrievable chunks. Chunking is
// referentially transparent: the same profile always yields the same chunk
// ids and text.
type Chunker struct {
	cfg ChunkerConfig
}

func NewChunker(cfg ChunkerConfig) *Chunker {
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = DefaultChunkerConfig().MaxChars
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultChunkerConfig().BaseURL
	}
	return &Chunker{cfg: cfg}
}

// renderPart is one atomic piece of a section's rendering. Parts are never
// split further, so no single fact is ever cut mid-sentence.
type renderPart struct {
	key     string
	text    string
	metrics map[string]string
}

// ChunkProfile renders every section of the profile. Empty sections produce
// a chunk that states the data is unavailable instead of disappearing, so
// retrieval can surface "no data" answers rather than guessing.
func (c *Chunker) ChunkProfile(p *domain.Profile) []domain.Chunk {
	now := time.Now().UTC()
	var chunks []domain.Chunk
	for _, section := range domain.Sections {
		parts := c.renderSection(p, section)
		chunks = append(chunks, c.buildChunks(p, section, parts, now)...)
	}
	return chunks
}

func (c *Chunker) renderSection(p *domain.Profile, section domain.Section) []renderPart {
	switch section {
	case domain.SectionOverview:
		return renderOverview(p)
	case domain.SectionSafety:
		return renderSafety(p)
	case domain.SectionHousing:
		return renderHousing(p)
	case domain.SectionServiceRequests:
		return renderServiceRequests(p)
	case domain.SectionSchools:
		return renderSchools(p)
	case domain.SectionTransit:
		return renderTransit(p)
	case domain.SectionDemographics:
		return renderDemographics(p)
	case domain.SectionBusiness:
		return renderBusiness(p)
	case domain.SectionAmenities:
		return renderAmenities(p)
	}
	return nil
}

// buildChunks folds rendered parts into chunks. One chunk per section by
// default; when the combined text exceeds MaxChars the parts become separate
// chunks keyed by their sub-category.
func (c *Chunker) buildChunks(p *domain.Profile, section domain.Section, parts []renderPart, now time.Time) []domain.Chunk {
	if len(parts) == 0 {
		return nil
	}

	total := 0
	for _, part := range parts {
		total += len(part.text)
	}

	viz := vizRefFor(c.cfg.BaseURL, p.Slug, section)
	baseID := p.Slug + "-" + string(section)

	if len(parts) == 1 || total <= c.cfg.MaxChars {
		text := parts[0].text
		metrics := cloneMetrics(parts[0].metrics)
		for _, part := range parts[1:] {
			text += " " + part.text
			for k, v := range part.metrics {
				metrics[k] = v
			}
		}
		return []domain.Chunk{{
			ID:        baseID,
			Community: p.Name,
			Section:   section,
			Text:      text,
			Metrics:   metrics,
			VizRef:    viz,
			CreatedAt: now,
		}}
	}

	chunks := make([]domain.Chunk, 0, len(parts))
	for _, part := range parts {
		chunks = append(chunks, domain.Chunk{
			ID:        baseID + "-" + part.key,
			Community: p.Name,
			Section:   section,
			Text:      part.text,
			Metrics:   cloneMetrics(part.metrics),
			VizRef:    viz,
			CreatedAt: now,
		})
	}
	return chunks
}

func cloneMetrics(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func emptySectionPart(name string, section domain.Section) []renderPart {
	label := sectionLabel(section)
	return []renderPart{{
		text:    name + " " + label + ". No " + label + " data is available for this community.",
		metrics: map[string]string{},
	}}
}

func sectionLabel(section domain.Section) string {
	switch section {
	case domain.SectionOverview:
		return "community overview"
	case domain.SectionSafety:
		return "safety and crime"
	case domain.SectionHousing:
		return "housing"
	case domain.SectionServiceRequests:
		return "311 service requests"
	case domain.SectionSchools:
		return "schools"
	case domain.SectionTransit:
		return "transit"
	case domain.SectionDemographics:
		return "demographics"
	case domain.SectionBusiness:
		return "business and development"
	case domain.SectionAmenities:
		return "amenities and lifestyle"
	}
	return string(section)
}
