package merge

import (
	"strings"

	"github.com/turtacn/PatentCliff/internal/domain/record"
)

// apply folds src into dst and returns the names of the fields src supplied.
// Populated scalars in dst are never replaced.
func apply(dst, src *record.PatentRecord) []string {
	var c contrib

	c.str(&dst.PublicationNumber, src.PublicationNumber, "publication_number")
	c.str(&dst.Jurisdiction, src.Jurisdiction, "jurisdiction")
	c.str(&dst.Title, src.Title, "title")
	c.str(&dst.Abstract, src.Abstract, "abstract")

	c.list(&dst.Assignees, src.Assignees, "assignees")
	c.list(&dst.Inventors, src.Inventors, "inventors")
	c.list(&dst.IPCCodes, src.IPCCodes, "ipc_codes")
	c.list(&dst.CPCCodes, src.CPCCodes, "cpc_codes")
	c.priorities(&dst.Priorities, src.Priorities)

	c.str(&dst.FilingDate, src.FilingDate, "filing_date")
	c.str(&dst.PublicationDate, src.PublicationDate, "publication_date")
	c.str(&dst.GrantDate, src.GrantDate, "grant_date")
	c.str(&dst.ExpirationDate, src.ExpirationDate, "expiration_date")
	c.str(&dst.PriorityDate, src.PriorityDate, "priority_date")

	c.str(&dst.FamilyID, src.FamilyID, "family_id")
	c.str(&dst.WOReference, src.WOReference, "wo_reference")

	c.str(&dst.Source, src.Source, "source")
	c.str(&dst.SourceEngine, src.SourceEngine, "source_engine")
	c.str(&dst.SourceURL, src.SourceURL, "source_url")
	c.str(&dst.PatentType, src.PatentType, "patent_type")
	c.str(&dst.LegalStatus, src.LegalStatus, "legal_status")
	c.list(&dst.FamilyMembers, src.FamilyMembers, "family_members")
	c.list(&dst.WorldwideApplications, src.WorldwideApplications, "worldwide_applications")
	c.num(&dst.ForwardCitations, src.ForwardCitations, "forward_citations")
	c.num(&dst.BackwardCitations, src.BackwardCitations, "backward_citations")

	dx, sx := &dst.Exclusive, &src.Exclusive
	c.str(&dx.Attorney, sx.Attorney, "attorney")
	c.str(&dx.NationalPhaseDate, sx.NationalPhaseDate, "national_phase_date")
	c.str(&dx.LinkNational, sx.LinkNational, "link_national")
	c.str(&dx.PCTNumber, sx.PCTNumber, "pct_number")
	c.str(&dx.PCTDate, sx.PCTDate, "pct_date")
	c.str(&dx.WODate, sx.WODate, "wo_date")
	c.objects(&dx.Documents, sx.Documents, "documents")
	c.objects(&dx.Despachos, sx.Despachos, "despachos")

	if dst.RawData == nil && len(src.RawData) > 0 {
		dst.RawData = src.RawData
		c.fields = append(c.fields, "raw_data")
	}
	return c.fields
}

type contrib struct {
	fields []string
}

func (c *contrib) str(dst *string, v, name string) {
	if *dst == "" && strings.TrimSpace(v) != "" {
		*dst = v
		c.fields = append(c.fields, name)
	}
}

func (c *contrib) num(dst *int, v int, name string) {
	if *dst == 0 && v != 0 {
		*dst = v
		c.fields = append(c.fields, name)
	}
}

func (c *contrib) list(dst *[]string, vs []string, name string) {
	added := false
	for _, v := range vs {
		v = strings.TrimSpace(v)
		if v == "" || containsString(*dst, v) {
			continue
		}
		*dst = append(*dst, v)
		added = true
	}
	if added {
		c.fields = append(c.fields, name)
	}
}

func (c *contrib) priorities(dst *[]record.Priority, ps []record.Priority) {
	added := false
	for _, p := range ps {
		n := record.CanonicalNumber(p.Number)
		if n == "" {
			continue
		}
		dup := false
		for _, q := range *dst {
			if record.CanonicalNumber(q.Number) == n {
				dup = true
				break
			}
		}
		if !dup {
			*dst = append(*dst, p)
			added = true
		}
	}
	if added {
		c.fields = append(c.fields, "priority_numbers")
	}
}

func (c *contrib) objects(dst *[]map[string]any, vs []map[string]any, name string) {
	if len(*dst) == 0 && len(vs) > 0 {
		*dst = vs
		c.fields = append(c.fields, name)
	}
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

func appendUnique(dst []string, vs ...string) []string {
	for _, v := range vs {
		if !containsString(dst, v) {
			dst = append(dst, v)
		}
	}
	return dst
}

//Personal.AI order the ending
