// Package analytics computes the fire-incident aggregates shown on the
// dashboard. Every function accepts a nil or empty slice and never fails.
//
// Yearly grouping uses the incident's year field while monthly and seasonal
// grouping use its date, so the views can disagree when the two differ.
package analytics

import (
	"slices"
	"strings"
	"time"

	"github.com/norar1/fireportal/internal/logger"
	"github.com/norar1/fireportal/internal/models"
)

// TopBarangayLimit is the number of barangays kept by TopBarangays.
const TopBarangayLimit = 10

// Season labels.
const (
	DrySeason = "Dry Season (Nov-Apr)"
	WetSeason = "Wet Season (May-Oct)"
)

// MonthNames are the monthly summary labels in calendar order.
var MonthNames = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// YearlySummary aggregates the incidents recorded under one year.
type YearlySummary struct {
	Year          string  `json:"year"`
	CaseCount     int     `json:"cases"`
	TotalDamage   int64   `json:"totalDamage"`
	AverageDamage float64 `json:"averageDamage"`
}

// MonthlySummary aggregates the incidents dated in one calendar month.
type MonthlySummary struct {
	Month       string `json:"month"`
	CaseCount   int    `json:"cases"`
	TotalDamage int64  `json:"damage"`
}

// BarangaySummary aggregates the incidents of one barangay.
type BarangaySummary struct {
	Barangay    string `json:"barangay"`
	CaseCount   int    `json:"cases"`
	TotalDamage int64  `json:"totalDamage"`
}

// SeasonalSummary counts the incidents dated in one season.
type SeasonalSummary struct {
	Season    string `json:"season"`
	CaseCount int    `json:"value"`
}

// Overall holds the headline numbers.
type Overall struct {
	TotalCases       int     `json:"totalCases"`
	TotalDamage      int64   `json:"totalDamage"`
	AverageDamage    float64 `json:"averageDamage"`
	CurrentYearCases int     `json:"currentYearCases"`
}

// Report bundles every view.
type Report struct {
	Overall       Overall           `json:"overall"`
	Yearly        []YearlySummary   `json:"yearly"`
	Monthly       []MonthlySummary  `json:"monthly"`
	TopBarangays  []BarangaySummary `json:"topBarangays"`
	Seasonal      []SeasonalSummary `json:"seasonal"`
	Barangays     []string          `json:"barangays"`
	Puroks        []string          `json:"puroks"`
	GeneratedYear int               `json:"generatedYear"`
}

// Analyzer computes aggregates relative to the current date.
type Analyzer struct {
	log *logger.Logger
	now func() time.Time
}

// NewAnalyzer creates an Analyzer using the wall clock.
func NewAnalyzer(log *logger.Logger) *Analyzer {
	return NewAnalyzerWithClock(log, time.Now)
}

// NewAnalyzerWithClock creates an Analyzer with an injected clock.
func NewAnalyzerWithClock(log *logger.Logger, now func() time.Time) *Analyzer {
	if log == nil {
		log = logger.Nop()
	}
	return &Analyzer{log: log, now: now}
}

// Analyze computes every view.
func (a *Analyzer) Analyze(incidents []models.FireIncident) Report {
	return Report{
		Overall:       a.Overall(incidents),
		Yearly:        Yearly(incidents),
		Monthly:       a.Monthly(incidents),
		TopBarangays:  TopBarangays(incidents),
		Seasonal:      a.Seasonal(incidents),
		Barangays:     models.Barangays,
		Puroks:        models.Puroks,
		GeneratedYear: a.now().Year(),
	}
}

// damage returns the incident's damage in whole pesos, treating negative
// amounts as zero.
func damage(f *models.FireIncident) int64 {
	if f.DamageCost.Minor <= 0 {
		return 0
	}
	return f.DamageCost.Major()
}

func average(total int64, count int) float64 {
	if count == 0 {
		return 0
	}
	return float64(total) / float64(count)
}

// Yearly groups incidents by their year field, ascending. Incidents without
// a year are left out.
func Yearly(incidents []models.FireIncident) []YearlySummary {
	byYear := make(map[string]*YearlySummary)
	for i := range incidents {
		f := &incidents[i]
		year := strings.TrimSpace(f.Year)
		if year == "" {
			continue
		}
		s, ok := byYear[year]
		if !ok {
			s = &YearlySummary{Year: year}
			byYear[year] = s
		}
		s.CaseCount++
		s.TotalDamage += damage(f)
	}

	out := make([]YearlySummary, 0, len(byYear))
	for _, s := range byYear {
		s.AverageDamage = average(s.TotalDamage, s.CaseCount)
		out = append(out, *s)
	}
	slices.SortFunc(out, func(x, y YearlySummary) int {
		return strings.Compare(x.Year, y.Year)
	})
	return out
}

// Monthly always returns twelve entries, January first. Incidents without a
// date are skipped.
func (a *Analyzer) Monthly(incidents []models.FireIncident) []MonthlySummary {
	out := make([]MonthlySummary, len(MonthNames))
	for i, name := range MonthNames {
		out[i].Month = name
	}

	for i := range incidents {
		f := &incidents[i]
		if f.Date.IsZero() {
			a.skipUndated(f, "monthly")
			continue
		}
		m := int(f.Date.Month()) - 1
		out[m].CaseCount++
		out[m].TotalDamage += damage(f)
	}
	return out
}

// TopBarangays ranks barangays by case count, keeping the top ten.
// Equal counts are ordered by name.
func TopBarangays(incidents []models.FireIncident) []BarangaySummary {
	byName := make(map[string]*BarangaySummary)
	for i := range incidents {
		f := &incidents[i]
		if f.Barangay == "" {
			continue
		}
		s, ok := byName[f.Barangay]
		if !ok {
			s = &BarangaySummary{Barangay: f.Barangay}
			byName[f.Barangay] = s
		}
		s.CaseCount++
		s.TotalDamage += damage(f)
	}

	out := make([]BarangaySummary, 0, len(byName))
	for _, s := range byName {
		out = append(out, *s)
	}
	slices.SortFunc(out, func(x, y BarangaySummary) int {
		if x.CaseCount != y.CaseCount {
			return y.CaseCount - x.CaseCount
		}
		return strings.Compare(x.Barangay, y.Barangay)
	})
	if len(out) > TopBarangayLimit {
		out = out[:TopBarangayLimit]
	}
	return out
}

// SeasonOf returns the season label for a month.
func SeasonOf(m time.Month) string {
	if m >= time.November || m <= time.April {
		return DrySeason
	}
	return WetSeason
}

// Seasonal counts incidents per season, dry season first.
func (a *Analyzer) Seasonal(incidents []models.FireIncident) []SeasonalSummary {
	dry, wet := 0, 0
	for i := range incidents {
		f := &incidents[i]
		if f.Date.IsZero() {
			a.skipUndated(f, "seasonal")
			continue
		}
		if SeasonOf(f.Date.Month()) == DrySeason {
			dry++
		} else {
			wet++
		}
	}
	return []SeasonalSummary{
		{Season: DrySeason, CaseCount: dry},
		{Season: WetSeason, CaseCount: wet},
	}
}

// Overall computes the headline totals. Current-year cases are counted by
// the year field.
func (a *Analyzer) Overall(incidents []models.FireIncident) Overall {
	currentYear := a.now().Year()

	var o Overall
	o.TotalCases = len(incidents)
	for i := range incidents {
		f := &incidents[i]
		o.TotalDamage += damage(f)
		if y, ok := f.YearNumber(); ok && y == currentYear {
			o.CurrentYearCases++
		}
	}
	o.AverageDamage = average(o.TotalDamage, o.TotalCases)
	return o
}

func (a *Analyzer) skipUndated(f *models.FireIncident, view string) {
	a.log.Warn("Skipping fire incident without a date", map[string]interface{}{
		"incident_id": f.ID.String(),
		"view":        view,
	})
}
