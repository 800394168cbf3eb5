package consolidation

import (
	"context"
	"time"
)

// RunStatus is the outcome of one consolidation run.
type RunStatus string

const (
	RunComplete RunStatus = "complete"
	RunPartial  RunStatus = "partial"
	RunCached   RunStatus = "cached"
	RunFailed   RunStatus = "failed"
)

// Run is the history entry kept for every consolidation.
type Run struct {
	ID                 string        `json:"id"`
	Query              string        `json:"query,omitempty"`
	InputDigest        string        `json:"input_digest"`
	Status             RunStatus     `json:"status"`
	Complete           bool          `json:"complete"`
	RecordsReceived    int           `json:"records_received"`
	RecordsRejected    int           `json:"records_rejected"`
	Families           int           `json:"families"`
	WOEntries          int           `json:"wo_entries"`
	NationalPatents    int           `json:"national_patents"`
	EarliestExpiration string        `json:"earliest_expiration,omitempty"`
	RiskLevel          string        `json:"risk_level,omitempty"`
	InputKey           string        `json:"input_key,omitempty"`
	OutputKey          string        `json:"output_key,omitempty"`
	Duration           time.Duration `json:"duration_ns"`
	CreatedAt          time.Time     `json:"created_at"`
}

// NewRun fills the counters of a run from its output.
func NewRun(id, digest string, out *Output, families int, createdAt time.Time) *Run {
	r := &Run{
		ID:                 id,
		Query:              out.Metadata.Query,
		InputDigest:        digest,
		Status:             RunComplete,
		Complete:           out.Metadata.Complete,
		RecordsReceived:    out.Metadata.RecordsReceived,
		RecordsRejected:    out.Metadata.RecordsRejected,
		Families:           families,
		WOEntries:          out.Statistics.TotalWOPatents,
		NationalPatents:    out.Statistics.TotalNationalPatents,
		EarliestExpiration: out.PatentCliffSummary.FirstExpiration,
		RiskLevel:          out.PatentCliffSummary.RiskLevel,
		CreatedAt:          createdAt,
	}
	if !r.Complete {
		r.Status = RunPartial
	}
	return r
}

// RunRepository persists run history.
type RunRepository interface {
	Save(ctx context.Context, run *Run) error
	// Get returns a CONS_003 error when id is unknown.
	Get(ctx context.Context, id string) (*Run, error)
	// List returns the most recent runs first.
	List(ctx context.Context, limit int) ([]*Run, error)
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// CompletedEvent announces a finished run to downstream consumers.
type CompletedEvent struct {
	RunID              string    `json:"run_id"`
	Query              string    `json:"query,omitempty"`
	Status             RunStatus `json:"status"`
	Complete           bool      `json:"complete"`
	WOEntries          int       `json:"wo_entries"`
	NationalPatents    int       `json:"national_patents"`
	EarliestExpiration string    `json:"earliest_expiration,omitempty"`
	RiskLevel          string    `json:"risk_level,omitempty"`
	OutputKey          string    `json:"output_key,omitempty"`
	CompletedAt        time.Time `json:"completed_at"`
}

// Event builds the completion event of r.
func (r *Run) Event(completedAt time.Time) CompletedEvent {
	return CompletedEvent{
		RunID:              r.ID,
		Query:              r.Query,
		Status:             r.Status,
		Complete:           r.Complete,
		WOEntries:          r.WOEntries,
		NationalPatents:    r.NationalPatents,
		EarliestExpiration: r.EarliestExpiration,
		RiskLevel:          r.RiskLevel,
		OutputKey:          r.OutputKey,
		CompletedAt:        completedAt,
	}
}

//Personal.AI order the ending
