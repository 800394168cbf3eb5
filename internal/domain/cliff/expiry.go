package cliff

import (
	"math"
	"strings"
	"time"

	"github.com/turtacn/PatentCliff/internal/domain/record"
)

// DefaultTermYears approximates the statutory patent term from filing.
const DefaultTermYears = 20

// Expiry is a resolved expiration date.
type Expiry struct {
	Date time.Time `json:"date"`
	// Estimated is true when Date was derived from the filing date.
	Estimated bool `json:"estimated"`
	// PublicationNumber names the record the date came from.
	PublicationNumber string `json:"publication_number,omitempty"`
}

// String renders the date as YYYY-MM-DD.
func (e Expiry) String() string { return record.FormatDate(e.Date) }

// Resolve returns the expiration of r: the explicit expiration date when it
// parses, otherwise the filing date plus termYears.  Unparseable dates count
// as absent.
func Resolve(r *record.PatentRecord, termYears int) (Expiry, bool) {
	if termYears <= 0 {
		termYears = DefaultTermYears
	}
	if t, ok := record.ParseDate(r.ExpirationDate); ok {
		return Expiry{Date: t, PublicationNumber: r.PublicationNumber}, true
	}
	// a bare year is too coarse to anchor a term estimate
	filing := strings.TrimSpace(r.FilingDate)
	if len(filing) == 4 {
		return Expiry{}, false
	}
	if t, ok := record.ParseDate(filing); ok {
		return Expiry{
			Date:              t.AddDate(termYears, 0, 0),
			Estimated:         true,
			PublicationNumber: r.PublicationNumber,
		}, true
	}
	return Expiry{}, false
}

// ─────────────────────────────────────────────────────────────────────────────
// Distance and classification
// ─────────────────────────────────────────────────────────────────────────────

// Risk levels by distance to the cliff.
const (
	RiskHigh   = "High"
	RiskMedium = "Medium"
	RiskLow    = "Low"
)

// Cliff status labels.
const (
	StatusSafe    = "Safe (>5 years)"
	StatusWarning = "Warning (<5 years)"
)

// YearsUntil returns whole days from now to t divided by 365.25, rounded to
// two decimals.  Past dates yield negative values.
func YearsUntil(now, t time.Time) float64 {
	days := math.Floor(t.Sub(now).Hours() / 24)
	return math.Round(days/365.25*100) / 100
}

// RiskLevel classifies the years remaining before the cliff.
func RiskLevel(years float64) string {
	switch {
	case years < 3:
		return RiskHigh
	case years < 5:
		return RiskMedium
	default:
		return RiskLow
	}
}

// Status labels the years remaining before the cliff.
func Status(years float64) string {
	if years > 5 {
		return StatusSafe
	}
	return StatusWarning
}

//Personal.AI order the ending
