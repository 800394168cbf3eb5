// Package record defines the canonical patent record consumed by the
// consolidation core, and the normalizer that maps the loosely-typed records
// produced by source collaborators onto it.
package record

import (
	"strings"
)

// JurisdictionWO is the jurisdiction code of international (PCT) publications.
const JurisdictionWO = "WO"

// ─────────────────────────────────────────────────────────────────────────────
// Value objects
// ─────────────────────────────────────────────────────────────────────────────

// Priority is a single priority claim.
type Priority struct {
	Country string `json:"country,omitempty"`
	Number  string `json:"number"`
	Date    string `json:"date,omitempty"`
}

// Exclusive carries fields that only one source is known to supply.  They are
// passed through a merge untouched by precedence.
type Exclusive struct {
	Attorney          string           `json:"attorney,omitempty"`
	NationalPhaseDate string           `json:"national_phase_date,omitempty"`
	LinkNational      string           `json:"link_national,omitempty"`
	PCTNumber         string           `json:"pct_number,omitempty"`
	PCTDate           string           `json:"pct_date,omitempty"`
	WODate            string           `json:"wo_date,omitempty"`
	Documents         []map[string]any `json:"documents,omitempty"`
	Despachos         []map[string]any `json:"despachos,omitempty"`
}

// IsZero reports whether no exclusive field is populated.
func (e Exclusive) IsZero() bool {
	return e.Attorney == "" && e.NationalPhaseDate == "" && e.LinkNational == "" &&
		e.PCTNumber == "" && e.PCTDate == "" && e.WODate == "" &&
		len(e.Documents) == 0 && len(e.Despachos) == 0
}

// ─────────────────────────────────────────────────────────────────────────────
// PatentRecord
// ─────────────────────────────────────────────────────────────────────────────

// PatentRecord is one observed patent document from one source.  Dates are
// kept as received; ParseDate interprets them on demand.
type PatentRecord struct {
	PublicationNumber string     `json:"publication_number"`
	Jurisdiction      string     `json:"jurisdiction"`
	Title             string     `json:"title,omitempty"`
	Abstract          string     `json:"abstract,omitempty"`
	Assignees         []string   `json:"assignees,omitempty"`
	Inventors         []string   `json:"inventors,omitempty"`
	IPCCodes          []string   `json:"ipc_codes,omitempty"`
	CPCCodes          []string   `json:"cpc_codes,omitempty"`
	Priorities        []Priority `json:"priority_numbers,omitempty"`

	FilingDate      string `json:"filing_date,omitempty"`
	PublicationDate string `json:"publication_date,omitempty"`
	GrantDate       string `json:"grant_date,omitempty"`
	ExpirationDate  string `json:"expiration_date,omitempty"`
	PriorityDate    string `json:"priority_date,omitempty"`

	FamilyID    string `json:"family_id,omitempty"`
	WOReference string `json:"wo_reference,omitempty"`

	Source       string `json:"source,omitempty"`
	SourceEngine string `json:"source_engine,omitempty"`
	SourceURL    string `json:"source_url,omitempty"`

	PatentType            string   `json:"patent_type,omitempty"`
	LegalStatus           string   `json:"legal_status,omitempty"`
	FamilyMembers         []string `json:"family_members,omitempty"`
	WorldwideApplications []string `json:"worldwide_applications,omitempty"`
	ForwardCitations      int      `json:"forward_citations,omitempty"`
	BackwardCitations     int      `json:"backward_citations,omitempty"`

	Exclusive Exclusive `json:"exclusive,omitempty"`

	// RawData is preserved for traceability and never interpreted.
	RawData map[string]any `json:"raw_data,omitempty"`
}

// IsWO reports whether the record is itself an international publication.
func (r *PatentRecord) IsWO() bool {
	return r.Jurisdiction == JurisdictionWO
}

// WONumber returns the WO number this record is keyed under: its own number
// for a WO record, its reference otherwise.
func (r *PatentRecord) WONumber() string {
	if r.IsWO() {
		return r.PublicationNumber
	}
	return r.WOReference
}

// Key identifies the record instance within one source.
func (r *PatentRecord) Key() string {
	return r.Jurisdiction + ":" + r.PublicationNumber
}

// PriorityNumbers returns the non-empty priority numbers, at most limit of
// them (limit <= 0 means all).
func (r *PatentRecord) PriorityNumbers(limit int) []string {
	out := make([]string, 0, len(r.Priorities))
	for _, p := range r.Priorities {
		if limit > 0 && len(out) >= limit {
			break
		}
		n := strings.TrimSpace(p.Number)
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}

// Country returns the two-letter code used for display, falling back to the
// publication number prefix.
func (r *PatentRecord) Country() string {
	if r.Jurisdiction != "" {
		return r.Jurisdiction
	}
	return InferJurisdiction(r.PublicationNumber)
}

//Personal.AI order the ending
