package domain

import "fmt"

// RawProfile is the wire shape of a community profile document. Optional
// fields are pointers or slices so absence survives decoding.
type RawProfile struct {
	Slug                 string                  `json:"slug"`
	Name                 string                  `json:"name"`
	Sector               string                  `json:"sector"`
	District             string                  `json:"creb_district"`
	Description          string                  `json:"description"`
	DistanceToDowntownKM *float64                `json:"distance_to_downtown_km"`
	Hero                 *RawHero                `json:"hero"`
	Safety               *RawSafety              `json:"safety"`
	Housing              *RawHousing             `json:"housing"`
	ServiceRequests      *RawServiceRequests     `json:"service_requests_311"`
	Schools              *RawSchools             `json:"schools"`
	Transit              *RawTransit             `json:"transit"`
	Demographics         *RawDemographics        `json:"demographics"`
	BusinessDevelopment  *RawBusinessDevelopment `json:"business_development"`
	BusinessCharacter    *RawBusinessCharacter   `json:"business_character"`
	Amenities            *RawAmenities           `json:"amenities"`
	Parks                []RawNamedPlace         `json:"parks"`
	Recreation           []RawNamedPlace         `json:"recreation"`
	Landmarks            []RawNamedPlace         `json:"landmarks"`
}

type RawHero struct {
	Population       *int     `json:"population"`
	SafetyPercentile *float64 `json:"safety_percentile"`
	AvgValue         *float64 `json:"avg_value"`
}

type RawSafety struct {
	Percentile      *float64          `json:"percentile"`
	PercentileLabel string            `json:"percentile_label"`
	Crime           *RawIncidentStats `json:"crime"`
	Disorder        *RawIncidentStats `json:"disorder"`
	Breakdown       *RawCrimeSplit    `json:"breakdown"`
	Trend           []RawTrendPoint   `json:"trend"`
}

type RawIncidentStats struct {
	Count          *int     `json:"count"`
	Per1000        *float64 `json:"per_1000"`
	CityAvgPer1000 *float64 `json:"city_avg_per_1000"`
	YoYPct         *float64 `json:"yoy_pct"`
}

type RawCrimeSplit struct {
	Property *RawCrimeShare `json:"property"`
	Violent  *RawCrimeShare `json:"violent"`
}

type RawCrimeShare struct {
	Count *int     `json:"count"`
	Pct   *float64 `json:"pct"`
}

type RawTrendPoint struct {
	Quarter  string `json:"quarter"`
	Crime    int    `json:"crime"`
	Disorder int    `json:"disorder"`
}

type RawHousing struct {
	AssessedValue  *float64                    `json:"assessed_value"`
	ValueVsCityPct *float64                    `json:"value_vs_city"`
	PropertyCount  *int                        `json:"property_count"`
	District       string                      `json:"district"`
	ByType         map[string]RawPropertyStats `json:"assessed_by_type"`
	Benchmarks     *RawBenchmarks              `json:"district_benchmarks"`
}

type RawPropertyStats struct {
	Value    *float64 `json:"value"`
	Count    int      `json:"count"`
	ValueYoY *float64 `json:"value_yoy"`
}

type RawBenchmarks struct {
	Date         string   `json:"date"`
	Detached     *float64 `json:"detached"`
	SemiDetached *float64 `json:"semi_detached"`
	Row          *float64 `json:"row"`
	Apartment    *float64 `json:"apartment"`
}

type RawServiceRequests struct {
	Total         *int                 `json:"total"`
	TopCategories []RawRequestCategory `json:"top_categories"`
}

type RawRequestCategory struct {
	Category string   `json:"category"`
	Count    int      `json:"count"`
	YoYPct   *float64 `json:"yoy_pct"`
}

type RawSchools struct {
	Count      int         `json:"count"`
	AvgRating  *float64    `json:"avg_rating"`
	RatedCount int         `json:"rated_count"`
	List       []RawSchool `json:"list"`
}

type RawSchool struct {
	Name   string   `json:"name"`
	Board  string   `json:"board"`
	Level  string   `json:"level"`
	Rating *float64 `json:"rating"`
}

type RawTransit struct {
	StopCount    int              `json:"stop_count"`
	StopsPer1000 *float64         `json:"stops_per_1000"`
	Routes       []RawTransitRoute `json:"routes"`
}

type RawTransitRoute struct {
	Route       string `json:"route"`
	Destination string `json:"destination"`
}

type RawDemographics struct {
	MedianAge          *float64 `json:"median_age"`
	AvgIncome          *float64 `json:"avg_income"`
	OwnerPct           *float64 `json:"owner_pct"`
	RenterPct          *float64 `json:"renter_pct"`
	VisibleMinorityPct *float64 `json:"visible_minority_pct"`
}

type RawBusinessDevelopment struct {
	Licenses *RawBusinessLicenses `json:"business_licenses"`
	Permits  *RawBuildingPermits  `json:"building_permits"`
}

type RawBusinessLicenses struct {
	ActiveTotal   *int             `json:"active_total"`
	CityAvgActive *float64         `json:"city_avg_active"`
	TopTypes      []RawLicenseType `json:"top_types"`
}

type RawLicenseType struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

type RawBuildingPermits struct {
	Total12Mo       *int     `json:"total_12mo"`
	TotalYoYPct     *float64 `json:"total_yoy_pct"`
	UnitsCreated    *int     `json:"units_created_12mo"`
	TotalValue12Mo  *float64 `json:"total_value_12mo"`
}

type RawBusinessCharacter struct {
	Character       string `json:"character"`
	TotalBusinesses *int   `json:"total_businesses"`
}

type RawAmenities struct {
	Grocery         []string `json:"grocery"`
	Pharmacy        []string `json:"pharmacy"`
	Childcare       []string `json:"childcare"`
	RestaurantCount *int     `json:"restaurant_count"`
	CafeCount       *int     `json:"cafe_count"`
}

type RawNamedPlace struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Profile is a normalized community profile. Every section is present;
// sections without data carry Present=false so downstream code never
// branches on field absence.
type Profile struct {
	Slug string
	Name string

	Overview        OverviewSection
	Safety          SafetySection
	Housing         HousingSection
	ServiceRequests ServiceRequestsSection
	Schools         SchoolsSection
	Transit         TransitSection
	Demographics    DemographicsSection
	Business        BusinessSection
	Amenities       AmenitiesSection
}

type OverviewSection struct {
	Present          bool
	Sector           string
	District         string
	Description      string
	DistanceKM       *float64
	Population       *int
	SafetyPercentile *float64
	AvgHomeValue     *float64
}

type SafetySection struct {
	Present         bool
	Percentile      *float64
	PercentileLabel string
	Crime           *IncidentStats
	Disorder        *IncidentStats
	PropertyPct     *float64
	ViolentPct      *float64
	Trend           []TrendPoint
}

type IncidentStats struct {
	Count          *int
	Per1000        *float64
	CityAvgPer1000 *float64
	YoYPct         *float64
}

type TrendPoint struct {
	Quarter  string
	Crime    int
	Disorder int
}

type HousingSection struct {
	Present        bool
	AssessedValue  *float64
	ValueVsCityPct *float64
	PropertyCount  *int
	District       string
	ByType         []PropertyTypeStats
	BenchmarkDate  string
	Benchmarks     []Benchmark
}

type PropertyTypeStats struct {
	Type     string
	Value    *float64
	Count    int
	ValueYoY *float64
}

type Benchmark struct {
	Type  string
	Price float64
}

type ServiceRequestsSection struct {
	Present       bool
	Total         *int
	TopCategories []RequestCategory
}

type RequestCategory struct {
	Category string
	Count    int
	YoYPct   *float64
}

type SchoolsSection struct {
	Present    bool
	Count      int
	AvgRating  *float64
	RatedCount int
	Schools    []School
}

type School struct {
	Name   string
	Board  string
	Level  string
	Rating *float64
}

type TransitSection struct {
	Present      bool
	StopCount    int
	StopsPer1000 *float64
	Routes       []TransitRoute
}

type TransitRoute struct {
	Route       string
	Destination string
}

type DemographicsSection struct {
	Present            bool
	MedianAge          *float64
	AvgIncome          *float64
	OwnerPct           *float64
	RenterPct          *float64
	VisibleMinorityPct *float64
}

type BusinessSection struct {
	Present         bool
	Character       string
	TotalBusinesses *int
	ActiveLicenses  *int
	CityAvgLicenses *float64
	TopLicenseTypes []LicenseTypeCount
	Permits12Mo     *int
	PermitsYoYPct   *float64
	UnitsCreated    *int
	PermitValue     *float64
}

type LicenseTypeCount struct {
	Type  string
	Count int
}

type AmenitiesSection struct {
	Present         bool
	Grocery         []string
	Pharmacy        []string
	Childcare       []string
	RestaurantCount *int
	CafeCount       *int
	Parks           []string
	Landmarks       []string
	Recreation      []string
}

// ValidateProfile validates a normalized Profile. The checks cover basic
// type sanity only; statistical correctness of the values is out of scope.
func ValidateProfile(p *Profile) error {
	if p == nil {
		return fmt.Errorf("profile cannot be nil")
	}
	if p.Slug == "" {
		return fmt.Errorf("profile slug is required")
	}
	if p.Name == "" {
		return fmt.Errorf("profile name is required")
	}
	if err := validatePercentile("overview safety percentile", p.Overview.SafetyPercentile); err != nil {
		return err
	}
	if err := validatePercentile("safety percentile", p.Safety.Percentile); err != nil {
		return err
	}
	if err := validatePercentile("demographics owner pct", p.Demographics.OwnerPct); err != nil {
		return err
	}
	if err := validatePercentile("demographics renter pct", p.Demographics.RenterPct); err != nil {
		return err
	}
	if err := validatePercentile("demographics visible minority pct", p.Demographics.VisibleMinorityPct); err != nil {
		return err
	}
	if err := validateCount("overview population", p.Overview.Population); err != nil {
		return err
	}
	if p.Safety.Crime != nil {
		if err := validateCount("safety crime count", p.Safety.Crime.Count); err != nil {
			return err
		}
	}
	if p.Safety.Disorder != nil {
		if err := validateCount("safety disorder count", p.Safety.Disorder.Count); err != nil {
			return err
		}
	}
	if err := validateCount("housing property count", p.Housing.PropertyCount); err != nil {
		return err
	}
	if err := validateCount("service request total", p.ServiceRequests.Total); err != nil {
		return err
	}
	if p.Schools.Count < 0 {
		return fmt.Errorf("schools count cannot be negative: %d", p.Schools.Count)
	}
	if p.Transit.StopCount < 0 {
		return fmt.Errorf("transit stop count cannot be negative: %d", p.Transit.StopCount)
	}
	return nil
}

func validatePercentile(field string, v *float64) error {
	if v == nil {
		return nil
	}
	if *v < 0 || *v > 100 {
		return fmt.Errorf("%s must be within [0,100]: %g", field, *v)
	}
	return nil
}

func validateCount(field string, v *int) error {
	if v == nil {
		return nil
	}
	if *v < 0 {
		return fmt.Errorf("%s cannot be negative: %d", field, *v)
	}
	return nil
}
