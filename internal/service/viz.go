package service

import (
	"github.com/calgary-pulse/pulseqa/internal/domain"
)

// vizEntry describes where a section's data is visualized externally.
type vizEntry struct {
	fragment string
	label    string
}

// sectionViz is the fixed section → visualization lookup table. Sections
// missing from this table get no viz reference.
var sectionViz = map[domain.Section]vizEntry{
	domain.SectionOverview:        {"", "Stat cards: population, safety score, assessed value"},
	domain.SectionSafety:          {"#safety", "Crime and disorder stat cards with quarterly trend chart"},
	domain.SectionHousing:         {"#housing", "Assessed values by property type and district benchmark prices"},
	domain.SectionServiceRequests: {"#311", "Top 311 request categories bar chart with monthly trend"},
	domain.SectionSchools:         {"#schools", "School list with board, grade level, and rating"},
	domain.SectionTransit:         {"#transit", "Transit stop count and key routes"},
	domain.SectionDemographics:    {"#demographics", "Census stat grid: ownership, age, income, diversity"},
	domain.SectionBusiness:        {"#business", "Business licenses and building permits overview"},
	domain.SectionAmenities:       {"#amenities", "Amenity lists: grocery, dining, parks, landmarks"},
}

// vizRefFor builds the viz reference for a community's section, or nil when
// the section has no known visualization.
func vizRefFor(baseURL, slug string, section domain.Section) *domain.VizRef {
	entry, ok := sectionViz[section]
	if !ok {
		return nil
	}
	return &domain.VizRef{
		Locator: baseURL + "/" + slug + entry.fragment,
		Label:   entry.label,
	}
}
