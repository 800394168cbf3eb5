package consolidation

import (
	"time"

	"github.com/turtacn/PatentCliff/internal/domain/cliff"
	"github.com/turtacn/PatentCliff/internal/domain/record"
)

// Provenance tells whether a WO entry was seen as a record or only inferred
// from national references.
type Provenance string

const (
	ProvenanceObserved Provenance = "observed"
	ProvenanceDerived  Provenance = "derived"
)

// Labels carried by derived WO entries.
const (
	DerivedSource            = "Referenced"
	DerivedSourceEngine      = "Derived from national patents"
	DerivedFromMembersEngine = "Derived from family members"
)

// UnknownJurisdiction groups national records whose country cannot be told.
const UnknownJurisdiction = "UNKNOWN"

// GooglePatentsURL is the public page pattern linked from every national entry.
const GooglePatentsURL = "https://patents.google.com/patent/"

// ─────────────────────────────────────────────────────────────────────────────
// WO entries
// ─────────────────────────────────────────────────────────────────────────────

// WOData is the bibliographic view of an international publication.
type WOData struct {
	PublicationNumber  string   `json:"publication_number"`
	PublicationDate    string   `json:"publication_date,omitempty"`
	FilingDate         string   `json:"filing_date,omitempty"`
	PriorityDate       string   `json:"priority_date,omitempty"`
	Title              string   `json:"title,omitempty"`
	Abstract           string   `json:"abstract,omitempty"`
	Assignees          []string `json:"assignees"`
	Inventors          []string `json:"inventors"`
	IPCClassifications []string `json:"ipc_classifications"`
	CPCClassifications []string `json:"cpc_classifications"`
	FamilyID           string   `json:"family_id,omitempty"`
	Source             string   `json:"source,omitempty"`
	SourceEngine       string   `json:"source_engine,omitempty"`
	SourceURL          string   `json:"source_url,omitempty"`
	Sources            []string `json:"sources,omitempty"`
}

// CliffImpact is the expiry exposure of one WO entry.
type CliffImpact struct {
	EarliestExpiration          string   `json:"earliest_expiration,omitempty"`
	YearsUntilExpiration        *float64 `json:"years_until_expiration"`
	JurisdictionsWithProtection []string `json:"jurisdictions_with_protection"`
	TotalNationalPatents        int      `json:"total_national_patents"`
}

// EntryStatistics counts the national patents under one WO entry.
type EntryStatistics struct {
	TotalNationalPatents  int            `json:"total_national_patents"`
	JurisdictionsCount    int            `json:"jurisdictions_count"`
	PatentsByJurisdiction map[string]int `json:"patents_by_jurisdiction"`
}

// WOEntry is one international publication with its national-phase patents
// grouped by jurisdiction.
type WOEntry struct {
	WONumber          string                     `json:"wo_number"`
	Provenance        Provenance                 `json:"provenance"`
	WOData            WOData                     `json:"wo_data"`
	NationalPatents   map[string][]NationalEntry `json:"national_patents"`
	PatentCliffImpact CliffImpact                `json:"patent_cliff_impact"`
	Statistics        EntryStatistics            `json:"statistics"`
}

// Jurisdictions returns the national jurisdictions in discovery order.
func (e *WOEntry) Jurisdictions() []string {
	return append([]string(nil), e.PatentCliffImpact.JurisdictionsWithProtection...)
}

// Nationals returns every national entry, jurisdiction by jurisdiction.
func (e *WOEntry) Nationals() []NationalEntry {
	var out []NationalEntry
	for _, j := range e.PatentCliffImpact.JurisdictionsWithProtection {
		out = append(out, e.NationalPatents[j]...)
	}
	return out
}

// OrphanWO is a WO publication with no national patent referencing it.
type OrphanWO struct {
	WONumber   string     `json:"wo_number"`
	Provenance Provenance `json:"provenance"`
	WOData     WOData     `json:"wo_data"`
}

// OrphanNational is a national patent without a resolvable WO reference.
type OrphanNational struct {
	Jurisdiction string        `json:"jurisdiction"`
	Patent       NationalEntry `json:"patent_data"`
}

// ─────────────────────────────────────────────────────────────────────────────
// National entries
// ─────────────────────────────────────────────────────────────────────────────

type Bibliographic struct {
	Title              string   `json:"title,omitempty"`
	Abstract           string   `json:"abstract,omitempty"`
	Assignees          []string `json:"assignees"`
	Inventors          []string `json:"inventors"`
	IPCClassifications []string `json:"ipc_classifications"`
	CPCClassifications []string `json:"cpc_classifications"`
}

// Dates holds the raw dates plus the resolved expiration.
type Dates struct {
	PriorityDate        string `json:"priority_date,omitempty"`
	FilingDate          string `json:"filing_date,omitempty"`
	PublicationDate     string `json:"publication_date,omitempty"`
	GrantDate           string `json:"grant_date,omitempty"`
	ExpirationDate      string `json:"expiration_date,omitempty"`
	ExpirationEstimated bool   `json:"expiration_estimated,omitempty"`
}

type FamilyData struct {
	FamilyID              string   `json:"family_id,omitempty"`
	FamilyMembers         []string `json:"family_members"`
	WORelated             string   `json:"wo_related,omitempty"`
	WorldwideApplications []string `json:"worldwide_applications"`
}

type URLs struct {
	SourceURL         string `json:"source_url,omitempty"`
	LinkGooglePatents string `json:"link_google_patents,omitempty"`
}

type Citations struct {
	Forward  int `json:"forward_citations"`
	Backward int `json:"backward_citations"`
}

type SourceInfo struct {
	Source       string `json:"source,omitempty"`
	SourceEngine string `json:"source_engine,omitempty"`
}

// NationalEntry is one merged national patent.
type NationalEntry struct {
	PatentNumber  string              `json:"patent_number"`
	Jurisdiction  string              `json:"jurisdiction"`
	PatentType    string              `json:"patent_type,omitempty"`
	LegalStatus   string              `json:"legal_status,omitempty"`
	Bibliographic Bibliographic       `json:"bibliographic_data"`
	Dates         Dates               `json:"dates"`
	FamilyData    FamilyData          `json:"family_data"`
	URLs          URLs                `json:"urls"`
	Citations     Citations           `json:"citations"`
	SourceInfo    SourceInfo          `json:"source_info"`
	Sources       []string            `json:"sources"`
	Contributions map[string][]string `json:"contributions,omitempty"`
	Exclusive     *record.Exclusive   `json:"exclusive,omitempty"`
	RawData       map[string]any      `json:"raw_data,omitempty"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Output
// ─────────────────────────────────────────────────────────────────────────────

// Statistics are the run-wide counts.
type Statistics struct {
	TotalWOPatents           int            `json:"total_wo_patents"`
	WOWithNationalPatents    int            `json:"wo_with_national_patents"`
	WOWithoutNationalPatents int            `json:"wo_without_national_patents"`
	WOWithBRPatents          int            `json:"wo_with_br_patents"`
	DerivedWOPatents         int            `json:"derived_wo_patents"`
	PatentsWithoutWO         int            `json:"patents_without_wo"`
	TotalUniqueJurisdictions int            `json:"total_unique_jurisdictions"`
	PatentsByJurisdiction    map[string]int `json:"patents_by_jurisdiction"`
	TotalNationalPatents     int            `json:"total_national_patents"`
}

// CliffSummary is the headline expiry exposure of the whole result.
type CliffSummary struct {
	FirstExpiration            string   `json:"first_expiration,omitempty"`
	LastExpiration             string   `json:"last_expiration,omitempty"`
	TotalPatentsWithExpiration int      `json:"total_patents_with_expiration"`
	YearsUntilCliff            *float64 `json:"years_until_cliff,omitempty"`
	Status                     string   `json:"status,omitempty"`
	RiskLevel                  string   `json:"risk_level,omitempty"`
}

// Metadata describes the run that produced an Output.
type Metadata struct {
	RunID                string    `json:"run_id,omitempty"`
	Query                string    `json:"query,omitempty"`
	Version              string    `json:"version"`
	GeneratedAt          time.Time `json:"generated_at"`
	TotalWOPatents       int       `json:"total_wo_patents"`
	TotalNationalPatents int       `json:"total_national_patents"`
	RecordsReceived      int       `json:"records_received"`
	RecordsRejected      int       `json:"records_rejected"`
	Complete             bool      `json:"complete"`
}

// Output is the consolidated view.
type Output struct {
	Metadata                  Metadata           `json:"metadata"`
	PatentCliffSummary        CliffSummary       `json:"patent_cliff_summary"`
	ConsolidatedPatents       []WOEntry          `json:"consolidated_patents"`
	WOPatentsWithoutNationals []OrphanWO         `json:"wo_patents_without_nationals"`
	PatentsWithoutWO          []OrphanNational   `json:"patents_without_wo"`
	Statistics                Statistics         `json:"statistics"`
	Rejected                  []record.Rejection `json:"rejected,omitempty"`
	Cliff                     *cliff.Result      `json:"patent_cliff,omitempty"`
}

//Personal.AI order the ending
