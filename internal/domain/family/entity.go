package family

import (
	"fmt"
	"sort"

	"github.com/turtacn/PatentCliff/internal/domain/record"
)

// MatchKind records which index placed a record into its family.
type MatchKind string

const (
	// MatchSeed marks the record that opened the family.
	MatchSeed     MatchKind = "seed"
	MatchWO       MatchKind = "wo"
	MatchPriority MatchKind = "priority"
	// MatchTitle is approximate: equal normalized title prefixes.
	MatchTitle MatchKind = "title"
)

// Member is one record inside a family.
type Member struct {
	Record *record.PatentRecord `json:"record"`
	Match  MatchKind            `json:"match"`
	// Index is the record's position in the clustering input.
	Index int `json:"index"`
}

// Family is a cluster of records believed to share an invention lineage.
// Members are ordered by their position in the clustering input.
type Family struct {
	ID      string   `json:"family_id"`
	Members []Member `json:"members"`

	woNumbers []string
}

func newFamily(seq int) *Family {
	return &Family{ID: fmt.Sprintf("FAM_%04d", seq)}
}

func (f *Family) add(rec *record.PatentRecord, idx int, kind MatchKind) {
	f.Members = append(f.Members, Member{Record: rec, Match: kind, Index: idx})
	if wo := rec.WONumber(); wo != "" && !contains(f.woNumbers, wo) {
		f.woNumbers = append(f.woNumbers, wo)
	}
}

func (f *Family) sortMembers() {
	sort.SliceStable(f.Members, func(i, j int) bool { return f.Members[i].Index < f.Members[j].Index })
}

// Size returns the member count.
func (f *Family) Size() int { return len(f.Members) }

// Records returns the member records in input order.
func (f *Family) Records() []*record.PatentRecord {
	out := make([]*record.PatentRecord, len(f.Members))
	for i, m := range f.Members {
		out[i] = m.Record
	}
	return out
}

// PublicationNumbers returns the member publication numbers in input order.
func (f *Family) PublicationNumbers() []string {
	out := make([]string, len(f.Members))
	for i, m := range f.Members {
		out[i] = m.Record.PublicationNumber
	}
	return out
}

// WONumbers returns the WO numbers seen across members, in discovery order.
func (f *Family) WONumbers() []string {
	return append([]string(nil), f.woNumbers...)
}

// Countries returns up to limit distinct member countries in member order
// (limit <= 0 means all).
func (f *Family) Countries(limit int) []string {
	seen := make([]string, 0, len(f.Members))
	for _, m := range f.Members {
		c := m.Record.Country()
		if c == "" || contains(seen, c) {
			continue
		}
		seen = append(seen, c)
		if limit > 0 && len(seen) == limit {
			break
		}
	}
	return seen
}

// Summary is the persisted view of a family.
type Summary struct {
	RunID     string   `json:"run_id"`
	FamilyID  string   `json:"family_id"`
	Size      int      `json:"size"`
	WONumbers []string `json:"wo_numbers,omitempty"`
	Members   []string `json:"members"`
	Countries []string `json:"countries,omitempty"`
}

// Summarize builds the persisted view of f for runID.
func Summarize(runID string, f *Family) Summary {
	return Summary{
		RunID:     runID,
		FamilyID:  f.ID,
		Size:      f.Size(),
		WONumbers: f.WONumbers(),
		Members:   f.PublicationNumbers(),
		Countries: f.Countries(0),
	}
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

//Personal.AI order the ending
