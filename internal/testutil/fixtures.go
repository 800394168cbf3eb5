package testutil

import "time"

// FixedNow is the reference instant used by clock-dependent tests.
var FixedNow = time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

// FixedClock always returns FixedNow.
func FixedClock() time.Time { return FixedNow }

// ScenarioRecords is a WO publication and one Brazilian national-phase
// filing that references it.  The BR filing date puts its estimated expiry
// on 2033-01-10.
func ScenarioRecords() []map[string]any {
	return []map[string]any{
		{
			"publication_number": "WO2013084138",
			"jurisdiction":       "WO",
			"title":              "Crystalline forms of a GLP-1 receptor agonist",
			"source":             "EPO",
		},
		{
			"publication_number": "BR112015003344",
			"country":            "BR",
			"wo_related":         "WO 2013/084138",
			"filing_date":        "2013-01-10",
			"source":             "INPI",
			"attorney":           "Dannemann Siemsen",
		},
	}
}

// MixedRecords adds a second source for the BR filing, a national filing
// without a WO reference and a record that has no publication number.
func MixedRecords() []map[string]any {
	out := ScenarioRecords()
	return append(out,
		map[string]any{
			"patent_number": "BR112015003344",
			"title":         "Formas cristalinas",
			"applicants":    []any{"Acme Pharma"},
			"source":        "Google Patents",
		},
		map[string]any{
			"publication_number": "US9000001",
			"expiration_date":    "2031-05-02",
			"assignees":          []any{"Acme Pharma", "Beta Labs"},
			"source":             "Google Patents",
		},
		map[string]any{
			"title":  "missing identifier",
			"source": "Google Patents",
		},
	)
}

//Personal.AI order the ending
