package service

import (
	"strings"

	"github.com/calgary-pulse/pulseqa/internal/domain"
)

// Section renderers turn normalized profile sections into retrievable text.
// Every metric value is written into the text with the exact same formatted
// string that is recorded in the part's metrics map, so any figure quoted
// from a chunk can be checked against the chunk's own text.

func renderOverview(p *domain.Profile) []renderPart {
	o := p.Overview
	if !o.Present {
		return emptySectionPart(p.Name, domain.SectionOverview)
	}

	metrics := map[string]string{}
	var b strings.Builder
	b.WriteString(p.Name + " community overview. ")
	if o.Sector != "" || o.District != "" {
		b.WriteString("Located in " + o.Sector + " sector, CREB district: " + o.District + ". ")
	}
	if o.DistanceKM != nil {
		v := formatNumber(*o.DistanceKM)
		metrics["distance_to_downtown_km"] = v
		b.WriteString(v + " km from downtown. ")
	}
	if o.Population != nil {
		v := formatCount(*o.Population)
		metrics["population"] = v
		b.WriteString("Population: " + v + ". ")
	}
	if o.SafetyPercentile != nil {
		v := formatNumber(*o.SafetyPercentile)
		metrics["safety_percentile"] = v
		b.WriteString("Safety percentile: " + v + "/100. ")
	}
	if o.AvgHomeValue != nil {
		v := formatCurrency(*o.AvgHomeValue)
		metrics["avg_home_value"] = v
		b.WriteString("Average assessed home value: " + v + ". ")
	}
	if o.Description != "" {
		b.WriteString(o.Description)
	}
	return []renderPart{{text: strings.TrimSpace(b.String()), metrics: metrics}}
}

func renderSafety(p *domain.Profile) []renderPart {
	s := p.Safety
	if !s.Present {
		return emptySectionPart(p.Name, domain.SectionSafety)
	}

	metrics := map[string]string{}
	var b strings.Builder
	b.WriteString(p.Name + " safety and crime data. ")
	if s.Percentile != nil {
		v := formatNumber(*s.Percentile)
		metrics["percentile"] = v
		b.WriteString("Safety percentile: " + v + "/100")
		if s.PercentileLabel != "" {
			b.WriteString(" (" + s.PercentileLabel + ")")
		}
		b.WriteString(". ")
	}
	if c := s.Crime; c != nil {
		if c.Count != nil {
			v := formatCount(*c.Count)
			metrics["crime_count"] = v
			b.WriteString("Crime incidents (latest quarter): " + v)
			if c.Per1000 != nil {
				r := formatNumber(*c.Per1000)
				metrics["crime_per_1000"] = r
				b.WriteString(", " + r + " per 1,000 residents")
				if c.CityAvgPer1000 != nil {
					a := formatNumber(*c.CityAvgPer1000)
					metrics["crime_city_avg_per_1000"] = a
					b.WriteString(" (city average: " + a + ")")
				}
			}
			b.WriteString(". ")
		}
		if c.YoYPct != nil {
			v := formatSignedPct(*c.YoYPct)
			metrics["crime_yoy_pct"] = v
			b.WriteString("Year-over-year change: " + v + ". ")
		}
	}
	if s.PropertyPct != nil && s.ViolentPct != nil {
		pv := formatNumber(*s.PropertyPct)
		vv := formatNumber(*s.ViolentPct)
		metrics["property_pct"] = pv
		metrics["violent_pct"] = vv
		b.WriteString("Breakdown: " + pv + "% property crime, " + vv + "% violent crime. ")
	}
	if d := s.Disorder; d != nil && d.Count != nil {
		v := formatCount(*d.Count)
		metrics["disorder_count"] = v
		b.WriteString("Disorder calls: " + v)
		if d.Per1000 != nil {
			r := formatNumber(*d.Per1000)
			metrics["disorder_per_1000"] = r
			b.WriteString(", " + r + " per 1,000")
			if d.CityAvgPer1000 != nil {
				a := formatNumber(*d.CityAvgPer1000)
				metrics["disorder_city_avg_per_1000"] = a
				b.WriteString(" (city average: " + a + ")")
			}
		}
		b.WriteString(". ")
	}
	if len(s.Trend) >= 2 {
		first := s.Trend[0]
		last := s.Trend[len(s.Trend)-1]
		fv := formatCount(first.Crime)
		lv := formatCount(last.Crime)
		metrics["trend_first_crime"] = fv
		metrics["trend_last_crime"] = lv
		b.WriteString("Crime trend: " + first.Quarter + " had " + fv + " incidents, " +
			last.Quarter + " had " + lv + " incidents. ")
	}
	return []renderPart{{text: strings.TrimSpace(b.String()), metrics: metrics}}
}

func renderHousing(p *domain.Profile) []renderPart {
	h := p.Housing
	if !h.Present {
		return emptySectionPart(p.Name, domain.SectionHousing)
	}

	metrics := map[string]string{}
	var b strings.Builder
	b.WriteString(p.Name + " housing data. ")
	if h.AssessedValue != nil {
		v := formatCurrency(*h.AssessedValue)
		metrics["assessed_value"] = v
		b.WriteString("Average assessed value: " + v + ". ")
	}
	if h.ValueVsCityPct != nil {
		v := formatSignedPct(*h.ValueVsCityPct)
		metrics["value_vs_city"] = v
		b.WriteString("Compared to city median: " + v + ". ")
	}
	if h.PropertyCount != nil {
		v := formatCount(*h.PropertyCount)
		metrics["property_count"] = v
		b.WriteString("Total properties: " + v + ". ")
	}
	for _, t := range h.ByType {
		if t.Count == 0 || t.Value == nil {
			continue
		}
		label := titleCase(t.Type)
		key := strings.ReplaceAll(t.Type, " ", "_")
		val := formatCurrency(*t.Value)
		cnt := formatCount(t.Count)
		metrics[key+"_value"] = val
		metrics[key+"_count"] = cnt
		b.WriteString(label + ": " + val + " avg (" + cnt + " properties")
		if t.ValueYoY != nil {
			yoy := formatSignedPct(*t.ValueYoY)
			metrics[key+"_value_yoy"] = yoy
			b.WriteString(", " + yoy + " YoY")
		}
		b.WriteString("). ")
	}
	if h.BenchmarkDate != "" && len(h.Benchmarks) > 0 {
		b.WriteString("District (" + h.District + ") benchmark prices as of " + h.BenchmarkDate + ": ")
		entries := make([]string, 0, len(h.Benchmarks))
		for _, bm := range h.Benchmarks {
			v := formatCurrency(bm.Price)
			metrics["benchmark_"+strings.ReplaceAll(bm.Type, " ", "_")] = v
			entries = append(entries, titleCase(bm.Type)+": "+v)
		}
		b.WriteString(strings.Join(entries, ", ") + ". ")
	}
	return []renderPart{{text: strings.TrimSpace(b.String()), metrics: metrics}}
}

func renderServiceRequests(p *domain.Profile) []renderPart {
	sr := p.ServiceRequests
	if !sr.Present {
		return emptySectionPart(p.Name, domain.SectionServiceRequests)
	}

	metrics := map[string]string{}
	var b strings.Builder
	b.WriteString(p.Name + " 311 service requests. ")
	if sr.Total != nil {
		v := formatCount(*sr.Total)
		metrics["total"] = v
		b.WriteString("Total requests (24 months): " + v + ". ")
	}
	if len(sr.TopCategories) > 0 {
		b.WriteString("Top categories: ")
		entries := make([]string, 0, len(sr.TopCategories))
		for _, cat := range sr.TopCategories {
			cnt := formatCount(cat.Count)
			key := slugify(cat.Category)
			metrics[key+"_count"] = cnt
			entry := cat.Category + " (" + cnt
			if cat.YoYPct != nil {
				yoy := formatSignedPct(*cat.YoYPct)
				metrics[key+"_yoy_pct"] = yoy
				entry += ", " + yoy + " YoY"
			}
			entries = append(entries, entry+")")
		}
		b.WriteString(strings.Join(entries, ", ") + ". ")
	}
	return []renderPart{{text: strings.TrimSpace(b.String()), metrics: metrics}}
}

func renderSchools(p *domain.Profile) []renderPart {
	s := p.Schools
	if !s.Present || s.Count == 0 {
		return emptySectionPart(p.Name, domain.SectionSchools)
	}

	metrics := map[string]string{
		"count": formatCount(s.Count),
	}
	var b strings.Builder
	b.WriteString(p.Name + " schools. ")
	b.WriteString(metrics["count"] + " schools in the community. ")
	if s.AvgRating != nil {
		v := formatNumber(*s.AvgRating)
		metrics["avg_rating"] = v
		metrics["rated_count"] = formatCount(s.RatedCount)
		b.WriteString("Average Fraser Institute rating: " + v + "/10 (" +
			metrics["rated_count"] + " rated). ")
	}
	parts := []renderPart{{key: "summary", text: strings.TrimSpace(b.String()), metrics: metrics}}

	// One part per school board so an oversized directory splits along a
	// boundary a reader would recognize.
	byBoard := map[string][]domain.School{}
	var boards []string
	for _, school := range s.Schools {
		board := school.Board
		if board == "" {
			board = "other"
		}
		if _, ok := byBoard[board]; !ok {
			boards = append(boards, board)
		}
		byBoard[board] = append(byBoard[board], school)
	}
	for _, board := range boards {
		var sb strings.Builder
		sm := map[string]string{}
		sb.WriteString(p.Name + " schools (" + board + "). ")
		for _, school := range byBoard[board] {
			sb.WriteString(school.Name + " (" + school.Board + ", " + school.Level)
			if school.Rating != nil {
				r := formatNumber(*school.Rating)
				sm[slugify(school.Name)+"_rating"] = r
				sb.WriteString(", rating: " + r + "/10")
			}
			sb.WriteString("). ")
		}
		parts = append(parts, renderPart{
			key:     slugify(board),
			text:    strings.TrimSpace(sb.String()),
			metrics: sm,
		})
	}
	return parts
}

func renderTransit(p *domain.Profile) []renderPart {
	t := p.Transit
	if !t.Present || t.StopCount == 0 {
		return emptySectionPart(p.Name, domain.SectionTransit)
	}

	metrics := map[string]string{
		"stop_count": formatCount(t.StopCount),
	}
	var b strings.Builder
	b.WriteString(p.Name + " transit. ")
	b.WriteString(metrics["stop_count"] + " transit stops")
	if t.StopsPer1000 != nil {
		v := formatNumber(*t.StopsPer1000)
		metrics["stops_per_1000"] = v
		b.WriteString(" (" + v + " per 1,000 residents)")
	}
	b.WriteString(". ")
	if len(t.Routes) > 0 {
		b.WriteString("Key routes: ")
		entries := make([]string, 0, len(t.Routes))
		for _, r := range t.Routes {
			entries = append(entries, "Route "+r.Route+" ("+r.Destination+")")
		}
		b.WriteString(strings.Join(entries, ", ") + ". ")
	}
	return []renderPart{{text: strings.TrimSpace(b.String()), metrics: metrics}}
}

func renderDemographics(p *domain.Profile) []renderPart {
	d := p.Demographics
	if !d.Present {
		return emptySectionPart(p.Name, domain.SectionDemographics)
	}

	metrics := map[string]string{}
	var b strings.Builder
	b.WriteString(p.Name + " demographics (Census 2021). ")
	if d.MedianAge != nil {
		v := formatNumber(*d.MedianAge)
		metrics["median_age"] = v
		b.WriteString("Median age: " + v + ". ")
	}
	if d.AvgIncome != nil {
		v := formatCurrency(*d.AvgIncome)
		metrics["avg_income"] = v
		b.WriteString("Average income: " + v + ". ")
	}
	if d.OwnerPct != nil {
		ov := formatNumber(*d.OwnerPct)
		metrics["owner_pct"] = ov
		b.WriteString("Homeowners: " + ov + "%")
		if d.RenterPct != nil {
			rv := formatNumber(*d.RenterPct)
			metrics["renter_pct"] = rv
			b.WriteString(", Renters: " + rv + "%")
		}
		b.WriteString(". ")
	}
	if d.VisibleMinorityPct != nil {
		v := formatNumber(*d.VisibleMinorityPct)
		metrics["visible_minority_pct"] = v
		b.WriteString("Visible minority: " + v + "%. ")
	}
	return []renderPart{{text: strings.TrimSpace(b.String()), metrics: metrics}}
}

func renderBusiness(p *domain.Profile) []renderPart {
	bz := p.Business
	if !bz.Present {
		return emptySectionPart(p.Name, domain.SectionBusiness)
	}

	metrics := map[string]string{}
	var b strings.Builder
	b.WriteString(p.Name + " business and development. ")
	if bz.Character != "" {
		b.WriteString("Business character: " + bz.Character + ". ")
	}
	if bz.TotalBusinesses != nil {
		v := formatCount(*bz.TotalBusinesses)
		metrics["total_businesses"] = v
		b.WriteString("Total active businesses: " + v + ". ")
	}
	if bz.ActiveLicenses != nil {
		v := formatCount(*bz.ActiveLicenses)
		metrics["active_licenses"] = v
		b.WriteString("Active business licenses: " + v)
		if bz.CityAvgLicenses != nil {
			a := formatNumber(*bz.CityAvgLicenses)
			metrics["city_avg_licenses"] = a
			b.WriteString(" (city average: " + a + ")")
		}
		b.WriteString(". ")
	}
	if len(bz.TopLicenseTypes) > 0 {
		b.WriteString("Top types: ")
		entries := make([]string, 0, len(bz.TopLicenseTypes))
		for _, t := range bz.TopLicenseTypes {
			cnt := formatCount(t.Count)
			metrics[slugify(t.Type)+"_count"] = cnt
			entries = append(entries, t.Type+" ("+cnt+")")
		}
		b.WriteString(strings.Join(entries, ", ") + ". ")
	}
	if bz.Permits12Mo != nil {
		v := formatCount(*bz.Permits12Mo)
		metrics["permits_12mo"] = v
		b.WriteString("Building permits (12 months): " + v)
		if bz.PermitsYoYPct != nil {
			yoy := formatSignedPct(*bz.PermitsYoYPct)
			metrics["permits_yoy_pct"] = yoy
			b.WriteString(" (" + yoy + " YoY)")
		}
		b.WriteString(". ")
	}
	if bz.UnitsCreated != nil {
		v := formatCount(*bz.UnitsCreated)
		metrics["units_created_12mo"] = v
		b.WriteString("Units created: " + v + ". ")
	}
	if bz.PermitValue != nil {
		v := formatCurrency(*bz.PermitValue)
		metrics["permit_value_12mo"] = v
		b.WriteString("Total permit value: " + v + ". ")
	}
	return []renderPart{{text: strings.TrimSpace(b.String()), metrics: metrics}}
}

func renderAmenities(p *domain.Profile) []renderPart {
	a := p.Amenities
	if !a.Present {
		return emptySectionPart(p.Name, domain.SectionAmenities)
	}

	var parts []renderPart

	metrics := map[string]string{}
	var b strings.Builder
	b.WriteString(p.Name + " amenities and lifestyle. ")
	if len(a.Grocery) > 0 {
		b.WriteString("Grocery stores: " + joinCapped(a.Grocery, 5) + ". ")
	}
	if a.RestaurantCount != nil {
		v := formatCount(*a.RestaurantCount)
		metrics["restaurant_count"] = v
		b.WriteString("Restaurants: " + v + ". ")
	}
	if a.CafeCount != nil {
		v := formatCount(*a.CafeCount)
		metrics["cafe_count"] = v
		b.WriteString("Cafes: " + v + ". ")
	}
	if len(a.Pharmacy) > 0 {
		v := formatCount(len(a.Pharmacy))
		metrics["pharmacy_count"] = v
		b.WriteString("Pharmacies: " + v + ". ")
	}
	if len(a.Childcare) > 0 {
		v := formatCount(len(a.Childcare))
		metrics["childcare_count"] = v
		b.WriteString("Childcare: " + v + " centres. ")
	}
	parts = append(parts, renderPart{key: "shops", text: strings.TrimSpace(b.String()), metrics: metrics})

	if len(a.Parks) > 0 || len(a.Recreation) > 0 {
		var pb strings.Builder
		pb.WriteString(p.Name + " parks and recreation. ")
		if len(a.Parks) > 0 {
			pb.WriteString("Parks: " + joinCapped(a.Parks, 3) + ". ")
		}
		if len(a.Recreation) > 0 {
			pb.WriteString("Recreation facilities: " + joinCapped(a.Recreation, 3) + ". ")
		}
		parts = append(parts, renderPart{key: "parks", text: strings.TrimSpace(pb.String()), metrics: map[string]string{}})
	}

	if len(a.Landmarks) > 0 {
		text := p.Name + " landmarks. Landmarks: " + joinCapped(a.Landmarks, 5) + "."
		parts = append(parts, renderPart{key: "landmarks", text: text, metrics: map[string]string{}})
	}

	return parts
}

func joinCapped(items []string, max int) string {
	if len(items) <= max {
		return strings.Join(items, ", ")
	}
	rest := len(items) - max
	return strings.Join(items[:max], ", ") + " (+" + formatCount(rest) + " more)"
}
