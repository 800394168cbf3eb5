package record

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/turtacn/PatentCliff/pkg/errors"
)

// ErrMissingPublicationNumber is returned by Normalize for records that carry
// no usable publication number.
var ErrMissingPublicationNumber = errors.New(errors.ErrCodePatentNumberMissing, "publication number is required")

// Field aliases, in lookup order.  Sources disagree on naming; resolution
// happens once here so the core never probes raw keys.
var (
	aliasPublicationNumber = []string{"publication_number", "patent_number", "number"}
	aliasJurisdiction      = []string{"jurisdiction", "country", "country_code"}
	aliasWOReference       = []string{"wo_reference", "wo_related", "wo_number", "wo_primary"}
	aliasWOMember          = []string{"wo_reference", "wo_related", "wo_primary"}
	aliasAssignees         = []string{"assignees", "applicants"}
	aliasIPC               = []string{"ipc_codes", "ipc_classifications"}
	aliasCPC               = []string{"cpc_codes", "cpc_classifications"}
	aliasExpiration        = []string{"expiration_date", "expiry_date"}
	aliasFiling            = []string{"filing_date", "application_date"}
	aliasPriorities        = []string{"priority_numbers", "priorities"}
)

// Rejection records an input that could not become a PatentRecord.
type Rejection struct {
	Index  int    `json:"index"`
	Source string `json:"source,omitempty"`
	Reason string `json:"reason"`
}

// Normalize maps one loosely-typed source record onto PatentRecord.  It is a
// pure function; the only failure is a missing publication number.
func Normalize(raw map[string]any) (PatentRecord, error) {
	var rec PatentRecord

	rec.PublicationNumber = CanonicalNumber(firstString(raw, aliasPublicationNumber...))
	if rec.PublicationNumber == "" {
		return PatentRecord{}, ErrMissingPublicationNumber
	}

	if j, ok := DefaultJurisdictions.Normalize(firstString(raw, aliasJurisdiction...)); ok {
		rec.Jurisdiction = j
	} else {
		rec.Jurisdiction = InferJurisdiction(rec.PublicationNumber)
	}

	rec.Title = strings.TrimSpace(firstString(raw, "title"))
	rec.Abstract = strings.TrimSpace(firstString(raw, "abstract"))
	rec.Assignees = firstStrings(raw, aliasAssignees...)
	rec.Inventors = firstStrings(raw, "inventors")
	rec.IPCCodes = firstStrings(raw, aliasIPC...)
	rec.CPCCodes = firstStrings(raw, aliasCPC...)
	rec.Priorities = priorities(firstValue(raw, aliasPriorities...))

	rec.FilingDate = firstString(raw, aliasFiling...)
	rec.PublicationDate = firstString(raw, "publication_date")
	rec.GrantDate = firstString(raw, "grant_date")
	rec.ExpirationDate = firstString(raw, aliasExpiration...)
	rec.PriorityDate = firstString(raw, "priority_date")

	rec.FamilyID = firstString(raw, "family_id")
	rec.Source = firstString(raw, "source")
	rec.SourceEngine = firstString(raw, "source_engine")
	rec.SourceURL = firstString(raw, "source_url")
	rec.PatentType = firstString(raw, "patent_type")
	rec.LegalStatus = firstString(raw, "legal_status")
	rec.FamilyMembers = firstStrings(raw, "family_members")
	rec.WorldwideApplications = firstStrings(raw, "worldwide_applications")
	rec.ForwardCitations = intValue(raw["forward_citations"])
	rec.BackwardCitations = intValue(raw["backward_citations"])

	// On a WO record wo_number names the record itself; any other alias
	// points at the family's primary WO.
	if !rec.IsWO() {
		rec.WOReference = CanonicalNumber(firstString(raw, aliasWOReference...))
	} else if ref := CanonicalNumber(firstString(raw, aliasWOMember...)); ref != rec.PublicationNumber {
		rec.WOReference = ref
	}

	rec.Exclusive = Exclusive{
		Attorney:          firstString(raw, "attorney"),
		NationalPhaseDate: firstString(raw, "national_phase_date"),
		LinkNational:      firstString(raw, "link_national"),
		PCTNumber:         firstString(raw, "pct_number"),
		PCTDate:           firstString(raw, "pct_date"),
		WODate:            firstString(raw, "wo_date"),
		Documents:         objects(raw["documents"]),
		Despachos:         objects(raw["despachos"]),
	}

	if rd, ok := raw["raw_data"].(map[string]any); ok {
		rec.RawData = rd
	}
	return rec, nil
}

// NormalizeAll normalizes a batch, collecting rejections instead of failing.
func NormalizeAll(raws []map[string]any) ([]PatentRecord, []Rejection) {
	records := make([]PatentRecord, 0, len(raws))
	var rejected []Rejection
	for i, raw := range raws {
		rec, err := Normalize(raw)
		if err != nil {
			rejected = append(rejected, Rejection{
				Index:  i,
				Source: firstString(raw, "source"),
				Reason: err.Error(),
			})
			continue
		}
		records = append(records, rec)
	}
	return records, rejected
}

// ─────────────────────────────────────────────────────────────────────────────
// Value coercion
// ─────────────────────────────────────────────────────────────────────────────

func firstValue(raw map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
				continue
			}
			return v
		}
	}
	return nil
}

func firstString(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := stringValue(raw[k]); s != "" {
			return s
		}
	}
	return ""
}

func firstStrings(raw map[string]any, keys ...string) []string {
	for _, k := range keys {
		if ss := stringSlice(raw[k]); len(ss) > 0 {
			return ss
		}
	}
	return nil
}

func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case fmt.Stringer:
		return strings.TrimSpace(t.String())
	default:
		return ""
	}
}

func stringSlice(v any) []string {
	var out []string
	switch t := v.(type) {
	case []string:
		for _, s := range t {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, e := range t {
			if s := stringValue(e); s != "" {
				out = append(out, s)
			}
		}
	case string:
		if s := strings.TrimSpace(t); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func intValue(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case json.Number:
		n, _ := t.Int64()
		return int(n)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(t))
		return n
	default:
		return 0
	}
}

func priorities(v any) []Priority {
	items, ok := v.([]any)
	if !ok {
		if ss, isStrings := v.([]string); isStrings {
			for _, s := range ss {
				items = append(items, s)
			}
		} else {
			return nil
		}
	}
	out := make([]Priority, 0, len(items))
	for _, item := range items {
		switch t := item.(type) {
		case string:
			if n := strings.TrimSpace(t); n != "" {
				out = append(out, Priority{Number: n})
			}
		case map[string]any:
			p := Priority{
				Country: stringValue(t["country"]),
				Number:  firstString(t, "number", "priority_number", "doc_number"),
				Date:    stringValue(t["date"]),
			}
			if p.Number != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func objects(v any) []map[string]any {
	items, ok := v.([]any)
	if !ok {
		if ms, isMaps := v.([]map[string]any); isMaps {
			return ms
		}
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, isMap := item.(map[string]any); isMap {
			out = append(out, m)
		}
	}
	return out
}

//Personal.AI order the ending
