// Package family groups patent records into families using incrementally
// built lookup indexes (WO number, priority number, title prefix) instead of
// pairwise comparison.
package family

import (
	"sort"
	"strings"

	"github.com/turtacn/PatentCliff/internal/domain/record"
)

// Options tunes family matching.
type Options struct {
	// TitlePrefixLength is the number of characters of the normalized title
	// used as the title key.
	TitlePrefixLength int `json:"title_prefix_length" mapstructure:"title_prefix_length"`
	// TitleMinLength is the length a title key must exceed to be indexed.
	TitleMinLength int `json:"title_min_length" mapstructure:"title_min_length"`
	// MaxPriorities bounds how many priority claims per record are indexed.
	MaxPriorities int `json:"max_priorities" mapstructure:"max_priorities"`
	// DisableTitleMatch turns the approximate title heuristic off.
	DisableTitleMatch bool `json:"disable_title_match" mapstructure:"disable_title_match"`
}

// DefaultOptions returns the standard matching thresholds.
func DefaultOptions() Options {
	return Options{
		TitlePrefixLength: 50,
		TitleMinLength:    20,
		MaxPriorities:     3,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.TitlePrefixLength <= 0 {
		o.TitlePrefixLength = d.TitlePrefixLength
	}
	if o.TitleMinLength < 0 {
		o.TitleMinLength = d.TitleMinLength
	}
	if o.MaxPriorities <= 0 {
		o.MaxPriorities = d.MaxPriorities
	}
	return o
}

// ─────────────────────────────────────────────────────────────────────────────
// Run-scoped indexes
// ─────────────────────────────────────────────────────────────────────────────

// index holds the three lookup tables for a single clustering run.  A key
// keeps the first family it was registered against.
type index struct {
	byWO       map[string]*Family
	byPriority map[string]*Family
	byTitle    map[string]*Family
}

func newIndex() *index {
	return &index{
		byWO:       make(map[string]*Family),
		byPriority: make(map[string]*Family),
		byTitle:    make(map[string]*Family),
	}
}

type keys struct {
	wo         string
	priorities []string
	title      string
}

func (ix *index) lookup(k keys) (*Family, MatchKind) {
	if k.wo != "" {
		if f, ok := ix.byWO[k.wo]; ok {
			return f, MatchWO
		}
	}
	for _, p := range k.priorities {
		if f, ok := ix.byPriority[p]; ok {
			return f, MatchPriority
		}
	}
	if k.title != "" {
		if f, ok := ix.byTitle[k.title]; ok {
			return f, MatchTitle
		}
	}
	return nil, ""
}

func (ix *index) register(k keys, f *Family) {
	if k.wo != "" {
		if _, ok := ix.byWO[k.wo]; !ok {
			ix.byWO[k.wo] = f
		}
	}
	for _, p := range k.priorities {
		if _, ok := ix.byPriority[p]; !ok {
			ix.byPriority[p] = f
		}
	}
	if k.title != "" {
		if _, ok := ix.byTitle[k.title]; !ok {
			ix.byTitle[k.title] = f
		}
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Clusterer
// ─────────────────────────────────────────────────────────────────────────────

// Clusterer partitions records into families.  It holds no state between
// calls and is safe for concurrent use.
type Clusterer struct {
	opts Options
}

// NewClusterer returns a Clusterer; zero-valued options take their defaults.
func NewClusterer(opts Options) *Clusterer {
	return &Clusterer{opts: opts.withDefaults()}
}

// Options returns the effective options.
func (c *Clusterer) Options() Options { return c.opts }

// Cluster partitions records into families covering every record exactly once.
func (c *Clusterer) Cluster(records []record.PatentRecord) []*Family {
	families, _ := c.ClusterUntil(records, nil)
	return families
}

// ClusterUntil clusters records, consulting expired before each record.  When
// expired reports true the families built so far are returned together with
// the number of records placed; callers treat that as a partial result.
//
// Records are visited in a canonical order derived from their content, so
// the partition does not depend on input order.  Members are reported in
// input order and family ids follow the canonical visit order.
func (c *Clusterer) ClusterUntil(records []record.PatentRecord, expired func() bool) ([]*Family, int) {
	ix := newIndex()
	families := make([]*Family, 0)
	order := canonicalOrder(records)

	placed := 0
	for _, i := range order {
		if expired != nil && expired() {
			break
		}
		rec := &records[i]
		k := c.keysOf(rec)

		f, kind := ix.lookup(k)
		if f == nil {
			f = newFamily(len(families) + 1)
			families = append(families, f)
			kind = MatchSeed
		}
		f.add(rec, i, kind)
		ix.register(k, f)
		placed++
	}

	for _, f := range families {
		f.sortMembers()
	}
	return families, placed
}

func (c *Clusterer) keysOf(rec *record.PatentRecord) keys {
	k := keys{wo: record.CanonicalNumber(rec.WONumber())}
	for _, p := range rec.PriorityNumbers(c.opts.MaxPriorities) {
		if n := record.CanonicalNumber(p); n != "" {
			k.priorities = append(k.priorities, n)
		}
	}
	if !c.opts.DisableTitleMatch {
		k.title = TitleKey(rec.Title, c.opts.TitlePrefixLength, c.opts.TitleMinLength)
	}
	return k
}

// TitleKey lower-cases and trims title and keeps its first prefixLen
// characters.  Keys of minLen characters or fewer are discarded ("").
func TitleKey(title string, prefixLen, minLen int) string {
	t := []rune(strings.ToLower(strings.TrimSpace(title)))
	if len(t) > prefixLen {
		t = t[:prefixLen]
	}
	key := strings.TrimSpace(string(t))
	if len([]rune(key)) <= minLen {
		return ""
	}
	return key
}

// canonicalOrder returns record indexes sorted by matching-relevant content.
// Records that tie on every compared field carry identical keys, so their
// relative order cannot change the partition.
func canonicalOrder(records []record.PatentRecord) []int {
	sortKeys := make([]string, len(records))
	for i := range records {
		r := &records[i]
		var sb strings.Builder
		for _, part := range []string{
			r.PublicationNumber, r.Jurisdiction, r.Source, r.SourceEngine,
			r.WOReference, strings.Join(r.PriorityNumbers(0), ","),
			strings.ToLower(strings.TrimSpace(r.Title)),
			r.FilingDate, r.ExpirationDate,
		} {
			sb.WriteString(part)
			sb.WriteByte(0)
		}
		sortKeys[i] = sb.String()
	}
	order := make([]int, len(records))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return sortKeys[order[a]] < sortKeys[order[b]] })
	return order
}

// Partition renders families as sorted member-number sets, the label-free
// form used to compare clusterings.
func Partition(families []*Family) [][]string {
	out := make([][]string, 0, len(families))
	for _, f := range families {
		members := f.PublicationNumbers()
		sort.Strings(members)
		out = append(out, members)
	}
	sort.Slice(out, func(i, j int) bool { return strings.Join(out[i], ",") < strings.Join(out[j], ",") })
	return out
}

//Personal.AI order the ending
