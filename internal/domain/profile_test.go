package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProfile() *Profile {
	pct := 62.0
	pop := 4100
	return &Profile{
		Slug: "sunnyside",
		Name: "SUNNYSIDE",
		Overview: OverviewSection{
			Present:          true,
			Sector:           "CENTRE",
			Population:       &pop,
			SafetyPercentile: &pct,
		},
	}
}

func TestValidateProfile(t *testing.T) {
	t.Run("valid profile passes", func(t *testing.T) {
		require.NoError(t, ValidateProfile(validProfile()))
	})

	t.Run("nil profile", func(t *testing.T) {
		assert.Error(t, ValidateProfile(nil))
	})

	t.Run("missing slug", func(t *testing.T) {
		p := validProfile()
		p.Slug = ""
		err := ValidateProfile(p)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "slug")
	})

	t.Run("missing name", func(t *testing.T) {
		p := validProfile()
		p.Name = ""
		err := ValidateProfile(p)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "name")
	})

	t.Run("percentile above 100", func(t *testing.T) {
		p := validProfile()
		bad := 140.0
		p.Safety.Percentile = &bad
		err := ValidateProfile(p)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "percentile")
	})

	t.Run("percentile below 0", func(t *testing.T) {
		p := validProfile()
		bad := -3.0
		p.Overview.SafetyPercentile = &bad
		assert.Error(t, ValidateProfile(p))
	})

	t.Run("boundary percentiles pass", func(t *testing.T) {
		p := validProfile()
		lo, hi := 0.0, 100.0
		p.Safety.Percentile = &lo
		p.Demographics.OwnerPct = &hi
		assert.NoError(t, ValidateProfile(p))
	})

	t.Run("negative crime count", func(t *testing.T) {
		p := validProfile()
		bad := -5
		p.Safety.Present = true
		p.Safety.Crime = &IncidentStats{Count: &bad}
		err := ValidateProfile(p)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "crime count")
	})

	t.Run("negative population", func(t *testing.T) {
		p := validProfile()
		bad := -1
		p.Overview.Population = &bad
		assert.Error(t, ValidateProfile(p))
	})

	t.Run("negative schools count", func(t *testing.T) {
		p := validProfile()
		p.Schools.Count = -2
		assert.Error(t, ValidateProfile(p))
	})

	t.Run("negative transit stop count", func(t *testing.T) {
		p := validProfile()
		p.Transit.StopCount = -1
		assert.Error(t, ValidateProfile(p))
	})

	t.Run("absent optional values pass", func(t *testing.T) {
		p := &Profile{Slug: "evanston", Name: "EVANSTON"}
		assert.NoError(t, ValidateProfile(p))
	})
}

func TestValidateIndexJob(t *testing.T) {
	t.Run("valid job passes", func(t *testing.T) {
		job := &IndexJob{ID: "job-1", Community: "sunnyside", Status: IndexJobStatusPending}
		assert.NoError(t, ValidateIndexJob(job))
	})

	t.Run("nil job", func(t *testing.T) {
		assert.Error(t, ValidateIndexJob(nil))
	})

	t.Run("missing community", func(t *testing.T) {
		job := &IndexJob{ID: "job-1", Status: IndexJobStatusPending}
		assert.Error(t, ValidateIndexJob(job))
	})

	t.Run("invalid status", func(t *testing.T) {
		job := &IndexJob{ID: "job-1", Community: "sunnyside", Status: "queued"}
		assert.Error(t, ValidateIndexJob(job))
	})

	t.Run("negative retries", func(t *testing.T) {
		job := &IndexJob{ID: "job-1", Community: "sunnyside", Status: IndexJobStatusPending, Retries: -1}
		assert.Error(t, ValidateIndexJob(job))
	})
}
