// Package consolidation assembles merged patent records into a WO-centric
// tree: one entry per international publication with its national-phase
// patents grouped by jurisdiction, plus the records that could not be linked.
package consolidation

import (
	"sort"
	"time"

	"github.com/turtacn/PatentCliff/internal/domain/cliff"
	"github.com/turtacn/PatentCliff/internal/domain/merge"
	"github.com/turtacn/PatentCliff/internal/domain/record"
)

// DefaultVersion is stamped into Metadata when no version is configured.
const DefaultVersion = "dev"

// Options configures an Assembler.
type Options struct {
	Version   string
	TermYears int
}

// Assembler builds Output values.  It is stateless apart from its clock.
type Assembler struct {
	opts Options
	now  cliff.Clock
}

// NewAssembler returns an Assembler.  A nil clock uses time.Now.
func NewAssembler(opts Options, now cliff.Clock) *Assembler {
	if opts.Version == "" {
		opts.Version = DefaultVersion
	}
	if opts.TermYears <= 0 {
		opts.TermYears = cliff.DefaultTermYears
	}
	if now == nil {
		now = time.Now
	}
	return &Assembler{opts: opts, now: now}
}

type woNode struct {
	number     string
	provenance Provenance
	data       WOData
	nationals  []NationalEntry
	expiries   []time.Time
}

// Assemble builds the tree from merged records.  Records are expected to be
// unique per publication number, as produced by merge.Merger.
func (a *Assembler) Assemble(records []merge.Record) *Output {
	now := a.now()
	nodes := make(map[string]*woNode)
	order := make([]string, 0)
	var orphans []OrphanNational

	// observed WO publications first, so derived placeholders never shadow them
	for i := range records {
		r := &records[i]
		if !r.IsWO() {
			continue
		}
		wo := record.CanonicalNumber(r.PublicationNumber)
		if _, ok := nodes[wo]; ok {
			continue
		}
		nodes[wo] = &woNode{number: wo, provenance: ProvenanceObserved, data: observedData(wo, r)}
		order = append(order, wo)
	}

	for i := range records {
		r := &records[i]
		if r.IsWO() {
			continue
		}
		entry, expiry, ok := a.national(r)
		wo := record.CanonicalNumber(r.WOReference)
		if wo == "" {
			orphans = append(orphans, OrphanNational{Jurisdiction: entry.Jurisdiction, Patent: entry})
			continue
		}
		n, seen := nodes[wo]
		if !seen {
			n = &woNode{number: wo, provenance: ProvenanceDerived, data: derivedData(wo, r)}
			nodes[wo] = n
			order = append(order, wo)
		}
		n.nationals = append(n.nationals, entry)
		if ok {
			n.expiries = append(n.expiries, expiry.Date)
		}
	}

	// WO family members pointing at a primary WO nobody else mentioned
	for i := range records {
		r := &records[i]
		if !r.IsWO() || r.WOReference == "" {
			continue
		}
		wo := record.CanonicalNumber(r.WOReference)
		if _, seen := nodes[wo]; seen {
			continue
		}
		nodes[wo] = &woNode{number: wo, provenance: ProvenanceDerived, data: memberData(wo, r)}
		order = append(order, wo)
	}

	out := &Output{
		ConsolidatedPatents:       []WOEntry{},
		WOPatentsWithoutNationals: []OrphanWO{},
		PatentsWithoutWO:          []OrphanNational{},
	}
	if orphans != nil {
		out.PatentsWithoutWO = orphans
	}
	for _, wo := range order {
		n := nodes[wo]
		if len(n.nationals) == 0 {
			out.WOPatentsWithoutNationals = append(out.WOPatentsWithoutNationals, OrphanWO{
				WONumber: n.number, Provenance: n.provenance, WOData: n.data,
			})
			continue
		}
		out.ConsolidatedPatents = append(out.ConsolidatedPatents, a.entry(n, now))
	}

	sort.SliceStable(out.ConsolidatedPatents, func(i, j int) bool {
		ei := out.ConsolidatedPatents[i].PatentCliffImpact.EarliestExpiration
		ej := out.ConsolidatedPatents[j].PatentCliffImpact.EarliestExpiration
		switch {
		case ei == "":
			return false
		case ej == "":
			return true
		default:
			return ei < ej
		}
	})
	sort.SliceStable(out.WOPatentsWithoutNationals, func(i, j int) bool {
		return out.WOPatentsWithoutNationals[i].WONumber < out.WOPatentsWithoutNationals[j].WONumber
	})

	out.Statistics = statistics(out, len(order))
	out.PatentCliffSummary = summarize(out.ConsolidatedPatents, now)
	out.Metadata = Metadata{
		Version:              a.opts.Version,
		GeneratedAt:          now,
		TotalWOPatents:       out.Statistics.TotalWOPatents,
		TotalNationalPatents: out.Statistics.TotalNationalPatents,
		Complete:             true,
	}
	return out
}

func (a *Assembler) entry(n *woNode, now time.Time) WOEntry {
	e := WOEntry{
		WONumber:        n.number,
		Provenance:      n.provenance,
		WOData:          n.data,
		NationalPatents: make(map[string][]NationalEntry),
		Statistics:      EntryStatistics{PatentsByJurisdiction: make(map[string]int)},
	}
	jurisdictions := make([]string, 0)
	for _, ne := range n.nationals {
		if _, ok := e.NationalPatents[ne.Jurisdiction]; !ok {
			jurisdictions = append(jurisdictions, ne.Jurisdiction)
		}
		e.NationalPatents[ne.Jurisdiction] = append(e.NationalPatents[ne.Jurisdiction], ne)
		e.Statistics.PatentsByJurisdiction[ne.Jurisdiction]++
	}
	e.Statistics.TotalNationalPatents = len(n.nationals)
	e.Statistics.JurisdictionsCount = len(jurisdictions)

	e.PatentCliffImpact = CliffImpact{
		JurisdictionsWithProtection: jurisdictions,
		TotalNationalPatents:        len(n.nationals),
	}
	if len(n.expiries) > 0 {
		earliest := n.expiries[0]
		for _, t := range n.expiries[1:] {
			if t.Before(earliest) {
				earliest = t
			}
		}
		years := cliff.YearsUntil(now, earliest)
		e.PatentCliffImpact.EarliestExpiration = record.FormatDate(earliest)
		e.PatentCliffImpact.YearsUntilExpiration = &years
	}
	return e
}

func (a *Assembler) national(r *merge.Record) (NationalEntry, cliff.Expiry, bool) {
	jurisdiction := r.Country()
	if jurisdiction == "" {
		jurisdiction = UnknownJurisdiction
	}
	pn := record.CanonicalNumber(r.PublicationNumber)
	e := NationalEntry{
		PatentNumber: pn,
		Jurisdiction: jurisdiction,
		PatentType:   r.PatentType,
		LegalStatus:  r.LegalStatus,
		Bibliographic: Bibliographic{
			Title:              r.Title,
			Abstract:           r.Abstract,
			Assignees:          nonNil(r.Assignees),
			Inventors:          nonNil(r.Inventors),
			IPCClassifications: nonNil(r.IPCCodes),
			CPCClassifications: nonNil(r.CPCCodes),
		},
		Dates: Dates{
			PriorityDate:    record.FormatCompactDate(r.PriorityDate),
			FilingDate:      record.FormatCompactDate(r.FilingDate),
			PublicationDate: record.FormatCompactDate(r.PublicationDate),
			GrantDate:       record.FormatCompactDate(r.GrantDate),
		},
		FamilyData: FamilyData{
			FamilyID:              r.FamilyID,
			FamilyMembers:         nonNil(r.FamilyMembers),
			WORelated:             record.CanonicalNumber(r.WOReference),
			WorldwideApplications: nonNil(r.WorldwideApplications),
		},
		URLs:          URLs{SourceURL: r.SourceURL},
		Citations:     Citations{Forward: r.ForwardCitations, Backward: r.BackwardCitations},
		SourceInfo:    SourceInfo{Source: r.Source, SourceEngine: r.SourceEngine},
		Sources:       nonNil(r.Sources),
		Contributions: r.Contributions,
		RawData:       r.RawData,
	}
	if pn != "" {
		e.URLs.LinkGooglePatents = GooglePatentsURL + pn
	}
	if !r.Exclusive.IsZero() {
		x := r.Exclusive
		e.Exclusive = &x
	}
	exp, ok := cliff.Resolve(&r.PatentRecord, a.opts.TermYears)
	if ok {
		e.Dates.ExpirationDate = exp.String()
		e.Dates.ExpirationEstimated = exp.Estimated
	}
	return e, exp, ok
}

func observedData(wo string, r *merge.Record) WOData {
	return WOData{
		PublicationNumber:  wo,
		PublicationDate:    record.FormatCompactDate(r.PublicationDate),
		FilingDate:         record.FormatCompactDate(r.FilingDate),
		PriorityDate:       record.FormatCompactDate(r.PriorityDate),
		Title:              r.Title,
		Abstract:           r.Abstract,
		Assignees:          nonNil(r.Assignees),
		Inventors:          nonNil(r.Inventors),
		IPCClassifications: nonNil(r.IPCCodes),
		CPCClassifications: nonNil(r.CPCCodes),
		FamilyID:           r.FamilyID,
		Source:             r.Source,
		SourceEngine:       r.SourceEngine,
		SourceURL:          r.SourceURL,
		Sources:            r.Sources,
	}
}

// derivedData is the placeholder for a WO known only through the national
// records that reference it.
func derivedData(wo string, referrer *merge.Record) WOData {
	return WOData{
		PublicationNumber:  wo,
		Assignees:          []string{},
		Inventors:          []string{},
		IPCClassifications: []string{},
		CPCClassifications: []string{},
		FamilyID:           referrer.FamilyID,
		Source:             DerivedSource,
		SourceEngine:       DerivedSourceEngine,
	}
}

// memberData is the placeholder for a WO known only through a WO family
// member.  The member's bibliography stands in for the missing record.
func memberData(wo string, member *merge.Record) WOData {
	d := observedData(wo, member)
	d.PublicationDate = ""
	d.Source = DerivedSource
	d.SourceEngine = DerivedFromMembersEngine
	d.SourceURL = ""
	d.Sources = nil
	return d
}

func statistics(out *Output, totalWO int) Statistics {
	s := Statistics{
		TotalWOPatents:           totalWO,
		WOWithNationalPatents:    len(out.ConsolidatedPatents),
		WOWithoutNationalPatents: len(out.WOPatentsWithoutNationals),
		PatentsWithoutWO:         len(out.PatentsWithoutWO),
		PatentsByJurisdiction:    make(map[string]int),
	}
	for i := range out.ConsolidatedPatents {
		e := &out.ConsolidatedPatents[i]
		if e.Provenance == ProvenanceDerived {
			s.DerivedWOPatents++
		}
		if _, ok := e.NationalPatents["BR"]; ok {
			s.WOWithBRPatents++
		}
		for j, n := range e.Statistics.PatentsByJurisdiction {
			s.PatentsByJurisdiction[j] += n
		}
		s.TotalNationalPatents += e.Statistics.TotalNationalPatents
	}
	s.TotalUniqueJurisdictions = len(s.PatentsByJurisdiction)
	return s
}

// summarize derives the headline figures from the per-entry cliff impacts.
func summarize(entries []WOEntry, now time.Time) CliffSummary {
	var s CliffSummary
	for i := range entries {
		d := entries[i].PatentCliffImpact.EarliestExpiration
		if d == "" {
			continue
		}
		s.TotalPatentsWithExpiration++
		if s.FirstExpiration == "" || d < s.FirstExpiration {
			s.FirstExpiration = d
		}
		if d > s.LastExpiration {
			s.LastExpiration = d
		}
	}
	if t, ok := record.ParseDate(s.FirstExpiration); ok {
		years := cliff.YearsUntil(now, t)
		s.YearsUntilCliff = &years
		s.Status = cliff.Status(years)
		s.RiskLevel = cliff.RiskLevel(years)
	}
	return s
}

func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}

//Personal.AI order the ending
