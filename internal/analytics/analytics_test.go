package analytics

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/norar1/fireportal/internal/logger"
	"github.com/norar1/fireportal/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func incident(barangay string, date models.Date, year string, damage string) models.FireIncident {
	return models.FireIncident{
		ID:         uuid.New(),
		Barangay:   barangay,
		Purok:      "Purok 1",
		Date:       date,
		Year:       year,
		DamageCost: models.ParseAmount(damage),
	}
}

func fixedAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	now := time.Date(2025, time.August, 20, 9, 0, 0, 0, time.UTC)
	return NewAnalyzerWithClock(logger.Nop(), func() time.Time { return now })
}

func sampleIncidents() []models.FireIncident {
	return []models.FireIncident{
		incident("Santa Cruz", models.NewDate(2025, time.January, 15), "2025", "1,500,000 PHP"),
		incident("Santa Cruz", models.NewDate(2025, time.July, 4), "2025", "500000 PHP"),
		incident("Remedios", models.NewDate(2024, time.November, 2), "2024", ""),
		incident("San Matias", models.NewDate(2024, time.May, 30), "2024", "250000 PHP"),
		// Year disagrees with date
		incident("Remedios", models.NewDate(2024, time.December, 31), "2025", "100 PHP"),
	}
}

func TestYearly(t *testing.T) {
	summaries := Yearly(sampleIncidents())

	require.Len(t, summaries, 2)
	assert.Equal(t, "2024", summaries[0].Year)
	assert.Equal(t, "2025", summaries[1].Year)

	assert.Equal(t, 2, summaries[0].CaseCount)
	assert.Equal(t, int64(250000), summaries[0].TotalDamage)
	assert.Equal(t, float64(125000), summaries[0].AverageDamage)

	assert.Equal(t, 3, summaries[1].CaseCount)
	assert.Equal(t, int64(2000100), summaries[1].TotalDamage)
}

func TestYearly_Properties(t *testing.T) {
	incidents := sampleIncidents()
	incidents = append(incidents, incident("Santa Rita", models.NewDate(2023, time.March, 1), "", "999 PHP"))

	summaries := Yearly(incidents)

	withYear := 0
	for _, f := range incidents {
		if f.Year != "" {
			withYear++
		}
	}
	total := 0
	for _, s := range summaries {
		total += s.CaseCount
		if s.CaseCount > 0 {
			assert.Equal(t, float64(s.TotalDamage)/float64(s.CaseCount), s.AverageDamage)
		}
	}
	assert.Equal(t, withYear, total)
}

func TestYearly_Empty(t *testing.T) {
	assert.Empty(t, Yearly(nil))
}

func TestMonthly_AlwaysTwelve(t *testing.T) {
	a := fixedAnalyzer(t)

	for _, incidents := range [][]models.FireIncident{nil, {}, sampleIncidents()} {
		months := a.Monthly(incidents)
		require.Len(t, months, 12)
		for i, m := range months {
			assert.Equal(t, MonthNames[i], m.Month)
		}
	}

	months := a.Monthly(sampleIncidents())
	assert.Equal(t, 1, months[0].CaseCount)
	assert.Equal(t, int64(1500000), months[0].TotalDamage)
	assert.Equal(t, 1, months[6].CaseCount)
	assert.Equal(t, 1, months[11].CaseCount)
}

func TestMonthly_SkipsUndated(t *testing.T) {
	var buf bytes.Buffer
	a := NewAnalyzerWithClock(logger.NewWithWriter("test", &buf), time.Now)

	undated := incident("Santa Cruz", models.Date{}, "2025", "10 PHP")
	months := a.Monthly([]models.FireIncident{undated})

	total := 0
	for _, m := range months {
		total += m.CaseCount
	}
	assert.Zero(t, total)
	assert.Contains(t, buf.String(), "Skipping fire incident without a date")
}

func TestTopBarangays(t *testing.T) {
	var incidents []models.FireIncident
	for i, name := range models.Barangays[:12] {
		for n := 0; n <= i; n++ {
			incidents = append(incidents, incident(name, models.NewDate(2025, time.March, 1), "2025", fmt.Sprintf("%d PHP", 100)))
		}
	}

	top := TopBarangays(incidents)

	require.Len(t, top, TopBarangayLimit)
	assert.Equal(t, models.Barangays[11], top[0].Barangay)
	assert.Equal(t, 12, top[0].CaseCount)
	assert.Equal(t, int64(1200), top[0].TotalDamage)
	for i := 1; i < len(top); i++ {
		assert.GreaterOrEqual(t, top[i-1].CaseCount, top[i].CaseCount)
	}
}

func TestSeasonal(t *testing.T) {
	a := fixedAnalyzer(t)

	assert.Equal(t, DrySeason, SeasonOf(time.January))
	assert.Equal(t, WetSeason, SeasonOf(time.July))
	assert.Equal(t, DrySeason, SeasonOf(time.November))
	assert.Equal(t, DrySeason, SeasonOf(time.April))
	assert.Equal(t, WetSeason, SeasonOf(time.May))
	assert.Equal(t, WetSeason, SeasonOf(time.October))

	seasons := a.Seasonal(sampleIncidents())
	require.Len(t, seasons, 2)
	assert.Equal(t, SeasonalSummary{Season: DrySeason, CaseCount: 3}, seasons[0])
	assert.Equal(t, SeasonalSummary{Season: WetSeason, CaseCount: 2}, seasons[1])

	jan := a.Seasonal([]models.FireIncident{incident("Santa Cruz", models.NewDate(2025, time.January, 15), "2025", "")})
	assert.Equal(t, 1, jan[0].CaseCount)
	jul := a.Seasonal([]models.FireIncident{incident("Santa Cruz", models.NewDate(2025, time.July, 4), "2025", "")})
	assert.Equal(t, 1, jul[1].CaseCount)
}

func TestOverall(t *testing.T) {
	a := fixedAnalyzer(t)

	o := a.Overall(sampleIncidents())
	assert.Equal(t, 5, o.TotalCases)
	assert.Equal(t, int64(2250100), o.TotalDamage)
	assert.Equal(t, float64(2250100)/5, o.AverageDamage)
	assert.Equal(t, 3, o.CurrentYearCases)

	assert.Equal(t, Overall{}, a.Overall(nil))
}

func TestAnalyze(t *testing.T) {
	report := fixedAnalyzer(t).Analyze(sampleIncidents())

	assert.Equal(t, 2025, report.GeneratedYear)
	assert.Len(t, report.Monthly, 12)
	assert.Len(t, report.Seasonal, 2)
	assert.Len(t, report.Yearly, 2)
	assert.Len(t, report.TopBarangays, 3)
	assert.Len(t, report.Puroks, 6)
}
