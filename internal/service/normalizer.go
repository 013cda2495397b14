package service

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/calgary-pulse/pulseqa/internal/domain"
)

// ParseProfile decodes a raw profile document and normalizes it. Unknown
// fields in the document are ignored; missing optional sections come back
// explicitly empty.
func ParseProfile(data []byte) (*domain.Profile, error) {
	var raw domain.RawProfile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation,
			"profile document is not valid JSON", err)
	}
	return NormalizeProfile(&raw)
}

// NormalizeProfile flattens a raw profile into the fixed nine-section shape.
// Pure transformation: it never touches external state and never derives new
// numbers from the input.
func NormalizeProfile(raw *domain.RawProfile) (*domain.Profile, error) {
	if raw == nil {
		return nil, domain.NewMalformedProfileError("", fmt.Errorf("profile is nil"))
	}
	if strings.TrimSpace(raw.Name) == "" && strings.TrimSpace(raw.Slug) == "" {
		return nil, domain.NewMalformedProfileError("", fmt.Errorf("community name is missing"))
	}

	p := &domain.Profile{
		Slug: raw.Slug,
		Name: raw.Name,
	}
	if p.Slug == "" {
		p.Slug = slugify(raw.Name)
	}
	if p.Name == "" {
		p.Name = strings.ToUpper(raw.Slug)
	}

	p.Overview = normalizeOverview(raw)
	p.Safety = normalizeSafety(raw.Safety)
	p.Housing = normalizeHousing(raw.Housing)
	p.ServiceRequests = normalizeServiceRequests(raw.ServiceRequests)
	p.Schools = normalizeSchools(raw.Schools)
	p.Transit = normalizeTransit(raw.Transit)
	p.Demographics = normalizeDemographics(raw.Demographics)
	p.Business = normalizeBusiness(raw.BusinessDevelopment, raw.BusinessCharacter)
	p.Amenities = normalizeAmenities(raw)

	if err := domain.ValidateProfile(p); err != nil {
		return nil, domain.NewMalformedProfileError(p.Name, err)
	}
	return p, nil
}

func normalizeOverview(raw *domain.RawProfile) domain.OverviewSection {
	s := domain.OverviewSection{
		Sector:      raw.Sector,
		District:    raw.District,
		Description: raw.Description,
		DistanceKM:  raw.DistanceToDowntownKM,
	}
	if raw.Hero != nil {
		s.Population = raw.Hero.Population
		s.SafetyPercentile = raw.Hero.SafetyPercentile
		s.AvgHomeValue = raw.Hero.AvgValue
	}
	s.Present = s.Sector != "" || s.District != "" || s.Description != "" ||
		s.DistanceKM != nil || s.Population != nil || s.SafetyPercentile != nil || s.AvgHomeValue != nil
	return s
}

func normalizeSafety(raw *domain.RawSafety) domain.SafetySection {
	if raw == nil {
		return domain.SafetySection{}
	}
	s := domain.SafetySection{
		Present:         true,
		Percentile:      raw.Percentile,
		PercentileLabel: raw.PercentileLabel,
	}
	if raw.Crime != nil {
		s.Crime = &domain.IncidentStats{
			Count:          raw.Crime.Count,
			Per1000:        raw.Crime.Per1000,
			CityAvgPer1000: raw.Crime.CityAvgPer1000,
			YoYPct:         raw.Crime.YoYPct,
		}
	}
	if raw.Disorder != nil {
		s.Disorder = &domain.IncidentStats{
			Count:          raw.Disorder.Count,
			Per1000:        raw.Disorder.Per1000,
			CityAvgPer1000: raw.Disorder.CityAvgPer1000,
			YoYPct:         raw.Disorder.YoYPct,
		}
	}
	if raw.Breakdown != nil {
		if raw.Breakdown.Property != nil {
			s.PropertyPct = raw.Breakdown.Property.Pct
		}
		if raw.Breakdown.Violent != nil {
			s.ViolentPct = raw.Breakdown.Violent.Pct
		}
	}
	for _, t := range raw.Trend {
		s.Trend = append(s.Trend, domain.TrendPoint{
			Quarter:  t.Quarter,
			Crime:    t.Crime,
			Disorder: t.Disorder,
		})
	}
	return s
}

func normalizeHousing(raw *domain.RawHousing) domain.HousingSection {
	if raw == nil {
		return domain.HousingSection{}
	}
	s := domain.HousingSection{
		Present:        true,
		AssessedValue:  raw.AssessedValue,
		ValueVsCityPct: raw.ValueVsCityPct,
		PropertyCount:  raw.PropertyCount,
		District:       raw.District,
	}
	// Map iteration order is not deterministic; sort by type so chunking
	// stays referentially transparent.
	types := make([]string, 0, len(raw.ByType))
	for t := range raw.ByType {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		stats := raw.ByType[t]
		if stats.Count <= 0 {
			continue
		}
		s.ByType = append(s.ByType, domain.PropertyTypeStats{
			Type:     t,
			Value:    stats.Value,
			Count:    stats.Count,
			ValueYoY: stats.ValueYoY,
		})
	}
	if raw.Benchmarks != nil && raw.Benchmarks.Date != "" {
		s.BenchmarkDate = raw.Benchmarks.Date
		for _, b := range []struct {
			name  string
			price *float64
		}{
			{"detached", raw.Benchmarks.Detached},
			{"semi_detached", raw.Benchmarks.SemiDetached},
			{"row", raw.Benchmarks.Row},
			{"apartment", raw.Benchmarks.Apartment},
		} {
			if b.price != nil {
				s.Benchmarks = append(s.Benchmarks, domain.Benchmark{Type: b.name, Price: *b.price})
			}
		}
	}
	return s
}

func normalizeServiceRequests(raw *domain.RawServiceRequests) domain.ServiceRequestsSection {
	if raw == nil {
		return domain.ServiceRequestsSection{}
	}
	s := domain.ServiceRequestsSection{
		Present: true,
		Total:   raw.Total,
	}
	for _, c := range raw.TopCategories {
		s.TopCategories = append(s.TopCategories, domain.RequestCategory{
			Category: c.Category,
			Count:    c.Count,
			YoYPct:   c.YoYPct,
		})
	}
	return s
}

func normalizeSchools(raw *domain.RawSchools) domain.SchoolsSection {
	if raw == nil || raw.Count == 0 {
		return domain.SchoolsSection{}
	}
	s := domain.SchoolsSection{
		Present:    true,
		Count:      raw.Count,
		AvgRating:  raw.AvgRating,
		RatedCount: raw.RatedCount,
	}
	for _, sch := range raw.List {
		s.Schools = append(s.Schools, domain.School{
			Name:   sch.Name,
			Board:  sch.Board,
			Level:  sch.Level,
			Rating: sch.Rating,
		})
	}
	return s
}

func normalizeTransit(raw *domain.RawTransit) domain.TransitSection {
	if raw == nil || raw.StopCount == 0 {
		return domain.TransitSection{}
	}
	s := domain.TransitSection{
		Present:      true,
		StopCount:    raw.StopCount,
		StopsPer1000: raw.StopsPer1000,
	}
	for _, r := range raw.Routes {
		s.Routes = append(s.Routes, domain.TransitRoute{Route: r.Route, Destination: r.Destination})
	}
	return s
}

func normalizeDemographics(raw *domain.RawDemographics) domain.DemographicsSection {
	if raw == nil {
		return domain.DemographicsSection{}
	}
	return domain.DemographicsSection{
		Present:            true,
		MedianAge:          raw.MedianAge,
		AvgIncome:          raw.AvgIncome,
		OwnerPct:           raw.OwnerPct,
		RenterPct:          raw.RenterPct,
		VisibleMinorityPct: raw.VisibleMinorityPct,
	}
}

func normalizeBusiness(dev *domain.RawBusinessDevelopment, char *domain.RawBusinessCharacter) domain.BusinessSection {
	if dev == nil && char == nil {
		return domain.BusinessSection{}
	}
	s := domain.BusinessSection{Present: true}
	if char != nil {
		s.Character = char.Character
		s.TotalBusinesses = char.TotalBusinesses
	}
	if dev != nil {
		if dev.Licenses != nil {
			s.ActiveLicenses = dev.Licenses.ActiveTotal
			s.CityAvgLicenses = dev.Licenses.CityAvgActive
			for _, t := range dev.Licenses.TopTypes {
				s.TopLicenseTypes = append(s.TopLicenseTypes, domain.LicenseTypeCount{Type: t.Type, Count: t.Count})
			}
		}
		if dev.Permits != nil {
			s.Permits12Mo = dev.Permits.Total12Mo
			s.PermitsYoYPct = dev.Permits.TotalYoYPct
			s.UnitsCreated = dev.Permits.UnitsCreated
			s.PermitValue = dev.Permits.TotalValue12Mo
		}
	}
	return s
}

func normalizeAmenities(raw *domain.RawProfile) domain.AmenitiesSection {
	s := domain.AmenitiesSection{}
	if raw.Amenities != nil {
		s.Grocery = raw.Amenities.Grocery
		s.Pharmacy = raw.Amenities.Pharmacy
		s.Childcare = raw.Amenities.Childcare
		s.RestaurantCount = raw.Amenities.RestaurantCount
		s.CafeCount = raw.Amenities.CafeCount
	}
	for _, p := range raw.Parks {
		s.Parks = append(s.Parks, p.Name)
	}
	for _, l := range raw.Landmarks {
		s.Landmarks = append(s.Landmarks, l.Name)
	}
	for _, r := range raw.Recreation {
		s.Recreation = append(s.Recreation, r.Name)
	}
	s.Present = raw.Amenities != nil || len(s.Parks) > 0 || len(s.Landmarks) > 0 || len(s.Recreation) > 0
	return s
}

func slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
