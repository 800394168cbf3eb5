// Package merge combines records that describe the same legal document as
// observed through several sources.  Scalars follow a source-precedence
// policy and are never overwritten once populated; list fields are unioned;
// each merged record keeps the provenance of every contributing source.
package merge

import (
	"strings"

	"github.com/turtacn/PatentCliff/internal/domain/family"
	"github.com/turtacn/PatentCliff/internal/domain/record"
)

// Well-known source labels.
const (
	SourceEPO           = "EPO"
	SourceINPI          = "INPI"
	SourceGooglePatents = "Google Patents"

	// SourceUnknown labels records that arrive without a source tag.
	SourceUnknown = "unknown"
)

// ─────────────────────────────────────────────────────────────────────────────
// Policy
// ─────────────────────────────────────────────────────────────────────────────

// Policy orders sources from most to least trusted.  Sources missing from
// Precedence rank after every listed source, in order of first appearance.
type Policy struct {
	Precedence []string `json:"precedence" mapstructure:"precedence"`
}

// DefaultPolicy ranks the primary registry first, the richer national
// register second and the generic aggregator last.
func DefaultPolicy() Policy {
	return Policy{Precedence: []string{SourceEPO, SourceINPI, SourceGooglePatents}}
}

func (p Policy) rank(source string) (int, bool) {
	for i, s := range p.Precedence {
		if strings.EqualFold(s, source) {
			return i, true
		}
	}
	return len(p.Precedence), false
}

// ─────────────────────────────────────────────────────────────────────────────
// Output
// ─────────────────────────────────────────────────────────────────────────────

// Record is the merged view of one publication number.
type Record struct {
	record.PatentRecord

	// Sources lists every source that contributed at least one field, in
	// precedence order.
	Sources []string `json:"sources"`
	// Contributions names the fields each source supplied.
	Contributions map[string][]string `json:"contributions,omitempty"`
}

// Result is the merge output: one Record per distinct publication number, in
// first-seen order, plus the inputs that were refused.
type Result struct {
	Records  []Record           `json:"records"`
	Rejected []record.Rejection `json:"rejected,omitempty"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Merger
// ─────────────────────────────────────────────────────────────────────────────

// Merger applies a Policy.  It is stateless and safe for concurrent use.
type Merger struct {
	policy Policy
}

// NewMerger returns a Merger; an empty policy takes the default precedence.
func NewMerger(policy Policy) *Merger {
	if len(policy.Precedence) == 0 {
		policy = DefaultPolicy()
	}
	return &Merger{policy: policy}
}

// Policy returns the effective policy.
func (m *Merger) Policy() Policy { return m.policy }

// MergeFamilies merges the members of families, family by family.  Members
// sharing a publication number are merged even when they were clustered into
// different families.
func (m *Merger) MergeFamilies(families []*family.Family) Result {
	var records []record.PatentRecord
	for _, f := range families {
		for _, r := range f.Records() {
			records = append(records, *r)
		}
	}
	return m.Merge(records)
}

// Merge groups records by publication number and merges each group.
// Records without a publication number are rejected; the rest of the batch
// is still processed.
func (m *Merger) Merge(records []record.PatentRecord) Result {
	var res Result
	groups := make(map[string][]int)
	order := make([]string, 0)

	for i := range records {
		pn := record.CanonicalNumber(records[i].PublicationNumber)
		if pn == "" {
			res.Rejected = append(res.Rejected, record.Rejection{
				Index:  i,
				Source: records[i].Source,
				Reason: "publication number is required",
			})
			continue
		}
		if _, seen := groups[pn]; !seen {
			order = append(order, pn)
		}
		groups[pn] = append(groups[pn], i)
	}

	res.Records = make([]Record, 0, len(order))
	for _, pn := range order {
		res.Records = append(res.Records, m.mergeGroup(records, groups[pn]))
	}
	return res
}

func (m *Merger) mergeGroup(records []record.PatentRecord, idxs []int) Record {
	ordered := m.byPrecedence(records, idxs)

	out := Record{Contributions: make(map[string][]string)}
	for _, i := range ordered {
		src := records[i].Source
		if src == "" {
			src = SourceUnknown
		}
		fields := apply(&out.PatentRecord, &records[i])
		if len(fields) == 0 {
			continue
		}
		if _, seen := out.Contributions[src]; !seen {
			out.Sources = append(out.Sources, src)
		}
		out.Contributions[src] = appendUnique(out.Contributions[src], fields...)
	}
	out.PublicationNumber = record.CanonicalNumber(out.PublicationNumber)
	if len(out.Contributions) == 0 {
		out.Contributions = nil
	}
	return out
}

// byPrecedence orders group members by source rank, keeping input order
// within a rank and first-appearance order among unranked sources.
func (m *Merger) byPrecedence(records []record.PatentRecord, idxs []int) []int {
	type ranked struct {
		idx   int
		rank  int
		extra int
	}
	unranked := make(map[string]int)
	items := make([]ranked, 0, len(idxs))
	for _, i := range idxs {
		r, ok := m.policy.rank(records[i].Source)
		extra := 0
		if !ok {
			key := strings.ToLower(records[i].Source)
			if _, seen := unranked[key]; !seen {
				unranked[key] = len(unranked)
			}
			extra = unranked[key]
		}
		items = append(items, ranked{idx: i, rank: r, extra: extra})
	}
	// insertion sort keeps it stable; groups are tiny
	for i := 1; i < len(items); i++ {
		for j := i; j > 0; j-- {
			a, b := items[j-1], items[j]
			if a.rank < b.rank || (a.rank == b.rank && a.extra <= b.extra) {
				break
			}
			items[j-1], items[j] = b, a
		}
	}
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.idx
	}
	return out
}

//Personal.AI order the ending
