package models

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// FireIncident is one recorded fire in the municipality.
// Year is stored separately from Date and is not forced to agree with it.
type FireIncident struct {
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Date       Date      `json:"date"`
	DamageCost Amount    `json:"damageCost"`
	Barangay   string    `json:"barangay"`
	Purok      string    `json:"purok"`
	Year       string    `json:"year"`
	ID         uuid.UUID `json:"id"`
}

// YearNumber parses Year, reporting false when it is not a number.
func (f *FireIncident) YearNumber() (int, bool) {
	n, err := strconv.Atoi(f.Year)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Barangays lists the barangays of Lubao, Pampanga.
var Barangays = []string{
	"Balantacan", "Bancal Sinubli", "Bancal Pugad", "Baruya (San Rafael)", "Calangain",
	"Concepcion", "Del Carmen", "De La Paz", "Don Ignacio Dimson", "Lourdes (Lauc Pau)",
	"Prado Siongco", "Remedios", "San Agustin", "San Antonio", "San Francisco",
	"San Isidro", "San Jose Apunan", "San Jose Gumi", "San Juan (Poblacion)", "San Matias",
	"San Miguel", "San Nicolas 1st (Poblacion)", "San Nicolas 2nd", "San Pablo 1st", "San Pablo 2nd",
	"San Pedro Palcarangan", "San Pedro Saug", "San Roque Arbol", "San Roque Dau", "San Vicente",
	"Santa Barbara", "Santa Catalina", "Santa Cruz", "Santa Lucia (Poblacion)", "Santa Maria",
	"Santa Monica", "Santa Rita", "Santa Teresa 1st", "Santa Teresa 2nd", "Santiago",
	"Santo Domingo", "Santo Niño (Prado Aruba or Prado Saba)", "Santo Tomas (Poblacion)", "Santo Cristo",
}

// Puroks lists the purok names used within every barangay.
var Puroks = []string{"Purok 1", "Purok 2", "Purok 3", "Purok 4", "Purok 5", "Purok 6"}

var (
	barangaySet = toSet(Barangays)
	purokSet    = toSet(Puroks)
)

// IsBarangay reports whether name is a known barangay.
func IsBarangay(name string) bool {
	_, ok := barangaySet[name]
	return ok
}

// IsPurok reports whether name is a known purok.
func IsPurok(name string) bool {
	_, ok := purokSet[name]
	return ok
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
