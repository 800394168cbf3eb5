// Package cliff computes when patent families lose protection.  It resolves
// one expiration per family, buckets families by year and summarises the
// result under a wall-clock budget; output produced after the budget runs out
// is returned as a partial result rather than an error.
package cliff

import (
	"sort"
	"time"

	"github.com/turtacn/PatentCliff/internal/domain/family"
	"github.com/turtacn/PatentCliff/internal/domain/record"
)

// Options bounds the analysis.
type Options struct {
	MaxMembersScanned int           `json:"max_members_scanned" mapstructure:"max_members_scanned"`
	MaxYears          int           `json:"max_years" mapstructure:"max_years"`
	MaxPerYear        int           `json:"max_per_year" mapstructure:"max_per_year"`
	MaxOverview       int           `json:"max_overview" mapstructure:"max_overview"`
	MaxCountries      int           `json:"max_countries" mapstructure:"max_countries"`
	Budget            time.Duration `json:"budget" mapstructure:"budget"`
	TermYears         int           `json:"term_years" mapstructure:"term_years"`
}

// DefaultOptions returns the standard caps and a 30 second budget.
func DefaultOptions() Options {
	return Options{
		MaxMembersScanned: 5,
		MaxYears:          20,
		MaxPerYear:        10,
		MaxOverview:       50,
		MaxCountries:      5,
		Budget:            30 * time.Second,
		TermYears:         DefaultTermYears,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxMembersScanned <= 0 {
		o.MaxMembersScanned = d.MaxMembersScanned
	}
	if o.MaxYears <= 0 {
		o.MaxYears = d.MaxYears
	}
	if o.MaxPerYear <= 0 {
		o.MaxPerYear = d.MaxPerYear
	}
	if o.MaxOverview <= 0 {
		o.MaxOverview = d.MaxOverview
	}
	if o.MaxCountries <= 0 {
		o.MaxCountries = d.MaxCountries
	}
	if o.Budget <= 0 {
		o.Budget = d.Budget
	}
	if o.TermYears <= 0 {
		o.TermYears = d.TermYears
	}
	return o
}

// Clock returns the current time.
type Clock func() time.Time

// ─────────────────────────────────────────────────────────────────────────────
// Result
// ─────────────────────────────────────────────────────────────────────────────

// Expiration is one family listed under a timeline year.
type Expiration struct {
	FamilyID       string   `json:"family_id"`
	ExpirationDate string   `json:"expiration_date"`
	Estimated      bool     `json:"estimated"`
	Members        int      `json:"patent_count"`
	Countries      []string `json:"countries"`
}

// YearEntry aggregates the families expiring in one calendar year.
// PatentsExpiring sums the member counts of Expirations; families beyond the
// per-year cap are reported through the Omitted counters.
type YearEntry struct {
	Year             int          `json:"year"`
	FamiliesExpiring int          `json:"families_expiring"`
	PatentsExpiring  int          `json:"patents_expiring"`
	Expirations      []Expiration `json:"expirations"`
	OmittedFamilies  int          `json:"omitted_families,omitempty"`
	OmittedPatents   int          `json:"omitted_patents,omitempty"`
}

// FamilyOverview is the compact per-family listing.
type FamilyOverview struct {
	FamilyID       string   `json:"family_id"`
	Members        int      `json:"member_count"`
	Countries      []string `json:"countries"`
	ExpirationDate string   `json:"expiration_date,omitempty"`
}

// Summary holds the headline figures.
type Summary struct {
	TotalFamilies          int      `json:"total_patent_families"`
	FamiliesWithExpiration int      `json:"families_with_known_expiry"`
	EarliestExpiration     string   `json:"earliest_expiry,omitempty"`
	LatestExpiration       string   `json:"latest_expiry,omitempty"`
	AnalysisYears          int      `json:"analysis_years"`
	YearsUntilCliff        *float64 `json:"years_until_cliff,omitempty"`
	RiskLevel              string   `json:"risk_level,omitempty"`
}

// Result is the analysis output.  Complete is false when the budget ran out;
// the figures then cover only what was processed in time.
type Result struct {
	Summary  Summary          `json:"summary"`
	Timeline []YearEntry      `json:"timeline"`
	Families []FamilyOverview `json:"families"`

	Complete         bool          `json:"complete"`
	RecordsTotal     int           `json:"records_total"`
	RecordsProcessed int           `json:"records_processed"`
	FamiliesResolved int           `json:"families_resolved"`
	Elapsed          time.Duration `json:"elapsed_ns"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Analyzer
// ─────────────────────────────────────────────────────────────────────────────

// Analyzer runs cliff analyses.  It keeps no per-run state.
type Analyzer struct {
	opts      Options
	clusterer *family.Clusterer
	now       Clock
}

// NewAnalyzer returns an Analyzer.  A nil clusterer uses the default matching
// options and a nil clock uses time.Now.
func NewAnalyzer(opts Options, clusterer *family.Clusterer, now Clock) *Analyzer {
	if clusterer == nil {
		clusterer = family.NewClusterer(family.DefaultOptions())
	}
	if now == nil {
		now = time.Now
	}
	return &Analyzer{opts: opts.withDefaults(), clusterer: clusterer, now: now}
}

// Options returns the effective options.
func (a *Analyzer) Options() Options { return a.opts }

// Analyze clusters records and analyses the resulting families.  Clustering
// and expiry resolution share one budget.
func (a *Analyzer) Analyze(records []record.PatentRecord) Result {
	res, _ := a.AnalyzeWithFamilies(records)
	return res
}

// AnalyzeWithFamilies is Analyze that also returns the families built, which
// cover only the processed records when the budget ran out.
func (a *Analyzer) AnalyzeWithFamilies(records []record.PatentRecord) (Result, []*family.Family) {
	start := a.now()
	expired := a.deadline(start)

	families, placed := a.clusterer.ClusterUntil(records, expired)
	res := a.analyze(families, start, expired, placed == len(records))
	res.RecordsTotal = len(records)
	res.RecordsProcessed = placed
	return res, families
}

// AnalyzeFamilies analyses families that were clustered elsewhere.
func (a *Analyzer) AnalyzeFamilies(families []*family.Family) Result {
	start := a.now()
	res := a.analyze(families, start, a.deadline(start), true)
	for _, f := range families {
		res.RecordsTotal += f.Size()
	}
	res.RecordsProcessed = res.RecordsTotal
	return res
}

func (a *Analyzer) deadline(start time.Time) func() bool {
	return func() bool { return a.now().Sub(start) > a.opts.Budget }
}

type resolved struct {
	family *family.Family
	expiry Expiry
}

func (a *Analyzer) analyze(families []*family.Family, start time.Time, expired func() bool, clustered bool) Result {
	res := Result{Complete: clustered, Timeline: []YearEntry{}}
	expiries := make(map[string]Expiry, len(families))

	if clustered {
		byYear := make(map[int][]resolved)
		for i, f := range families {
			if e, ok := a.resolveFamily(f); ok {
				expiries[f.ID] = e
				byYear[e.Date.Year()] = append(byYear[e.Date.Year()], resolved{family: f, expiry: e})
				a.extend(&res.Summary, e)
			}
			res.FamiliesResolved = i + 1
			if expired() && i < len(families)-1 {
				res.Complete = false
				break
			}
		}
		res.Timeline = a.timeline(byYear)
	}

	res.Summary.TotalFamilies = len(families)
	res.Summary.FamiliesWithExpiration = len(expiries)
	res.Summary.AnalysisYears = len(res.Timeline)
	if t, ok := record.ParseDate(res.Summary.EarliestExpiration); ok {
		years := YearsUntil(a.now(), t)
		res.Summary.YearsUntilCliff = &years
		res.Summary.RiskLevel = RiskLevel(years)
	}
	res.Families = a.overview(families, expiries)
	res.Elapsed = a.now().Sub(start)
	return res
}

// resolveFamily takes the first resolvable expiry among the leading members.
func (a *Analyzer) resolveFamily(f *family.Family) (Expiry, bool) {
	for i, m := range f.Members {
		if i == a.opts.MaxMembersScanned {
			break
		}
		if e, ok := Resolve(m.Record, a.opts.TermYears); ok {
			return e, true
		}
	}
	return Expiry{}, false
}

func (a *Analyzer) extend(s *Summary, e Expiry) {
	d := e.String()
	if s.EarliestExpiration == "" || d < s.EarliestExpiration {
		s.EarliestExpiration = d
	}
	if s.LatestExpiration == "" || d > s.LatestExpiration {
		s.LatestExpiration = d
	}
}

func (a *Analyzer) timeline(byYear map[int][]resolved) []YearEntry {
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)
	if len(years) > a.opts.MaxYears {
		years = years[:a.opts.MaxYears]
	}

	out := make([]YearEntry, 0, len(years))
	for _, y := range years {
		items := byYear[y]
		entry := YearEntry{Year: y, FamiliesExpiring: len(items), Expirations: []Expiration{}}
		for i, it := range items {
			if i >= a.opts.MaxPerYear {
				entry.OmittedFamilies++
				entry.OmittedPatents += it.family.Size()
				continue
			}
			entry.Expirations = append(entry.Expirations, Expiration{
				FamilyID:       it.family.ID,
				ExpirationDate: it.expiry.String(),
				Estimated:      it.expiry.Estimated,
				Members:        it.family.Size(),
				Countries:      it.family.Countries(a.opts.MaxCountries),
			})
			entry.PatentsExpiring += it.family.Size()
		}
		out = append(out, entry)
	}
	return out
}

func (a *Analyzer) overview(families []*family.Family, expiries map[string]Expiry) []FamilyOverview {
	n := len(families)
	if n > a.opts.MaxOverview {
		n = a.opts.MaxOverview
	}
	out := make([]FamilyOverview, 0, n)
	for _, f := range families[:n] {
		ov := FamilyOverview{
			FamilyID:  f.ID,
			Members:   f.Size(),
			Countries: f.Countries(a.opts.MaxCountries),
		}
		if e, ok := expiries[f.ID]; ok {
			ov.ExpirationDate = e.String()
		}
		out = append(out, ov)
	}
	return out
}

//Personal.AI order the ending
