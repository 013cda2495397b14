package domain

// Section identifies one of the fixed data sections of a community profile.
type Section string

const (
	SectionOverview        Section = "overview"
	SectionSafety          Section = "safety"
	SectionHousing         Section = "housing"
	SectionServiceRequests Section = "service-requests"
	SectionSchools         Section = "schools"
	SectionTransit         Section = "transit"
	SectionDemographics    Section = "demographics"
	SectionBusiness        Section = "business"
	SectionAmenities       Section = "amenities"
)

// Sections lists every section in canonical rendering order.
var Sections = []Section{
	SectionOverview,
	SectionSafety,
	SectionHousing,
	SectionServiceRequests,
	SectionSchools,
	SectionTransit,
	SectionDemographics,
	SectionBusiness,
	SectionAmenities,
}

// IsValidSection checks if a Section is one of the fixed tags.
func IsValidSection(s Section) bool {
	switch s {
	case SectionOverview, SectionSafety, SectionHousing, SectionServiceRequests,
		SectionSchools, SectionTransit, SectionDemographics, SectionBusiness,
		SectionAmenities:
		return true
	}
	return false
}
