package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/PatentCliff/internal/domain/family"
	"github.com/turtacn/PatentCliff/internal/domain/record"
)

type MergeTestSuite struct {
	suite.Suite
	merger *Merger
}

func (s *MergeTestSuite) SetupTest() {
	s.merger = NewMerger(Policy{})
}

func TestMergeTestSuite(t *testing.T) {
	suite.Run(t, new(MergeTestSuite))
}

func (s *MergeTestSuite) single(res Result) Record {
	s.Require().Len(res.Records, 1)
	return res.Records[0]
}

func (s *MergeTestSuite) TestPopulatedTitleSurvivesEmptyTitle() {
	a := record.PatentRecord{PublicationNumber: "BR112015003344", Title: "Crystalline form", Source: SourceGooglePatents}
	b := record.PatentRecord{PublicationNumber: "BR112015003344", Source: SourceEPO}

	for _, in := range [][]record.PatentRecord{{a, b}, {b, a}} {
		got := s.single(s.merger.Merge(in))
		s.Equal("Crystalline form", got.Title)
	}
}

func (s *MergeTestSuite) TestListUnion() {
	res := s.merger.Merge([]record.PatentRecord{
		{PublicationNumber: "US1", Assignees: []string{"Acme"}, Source: SourceEPO},
		{PublicationNumber: "US1", Assignees: []string{"Acme", "Beta"}, Source: SourceINPI},
	})

	got := s.single(res)
	s.ElementsMatch([]string{"Acme", "Beta"}, got.Assignees)
	s.Len(got.Assignees, 2)
}

func (s *MergeTestSuite) TestPrecedenceDecidesConflictingScalars() {
	res := s.merger.Merge([]record.PatentRecord{
		{PublicationNumber: "BR1", Title: "aggregator title", Source: SourceGooglePatents},
		{PublicationNumber: "BR1", Title: "registry title", Source: SourceEPO},
		{PublicationNumber: "BR1", Title: "register title", Abstract: "only here", Source: SourceINPI},
	})

	got := s.single(res)
	s.Equal("registry title", got.Title)
	s.Equal("only here", got.Abstract)
	s.Equal([]string{SourceEPO, SourceINPI}, got.Sources)
	s.Equal([]string{"abstract"}, got.Contributions[SourceINPI])
	s.NotContains(got.Contributions, SourceGooglePatents)
}

func (s *MergeTestSuite) TestCustomPolicy() {
	m := NewMerger(Policy{Precedence: []string{SourceGooglePatents}})
	res := m.Merge([]record.PatentRecord{
		{PublicationNumber: "BR1", Title: "registry title", Source: SourceEPO},
		{PublicationNumber: "BR1", Title: "aggregator title", Source: SourceGooglePatents},
	})

	s.Equal("aggregator title", s.single(res).Title)
}

func (s *MergeTestSuite) TestUnrankedSourcesFollowFirstAppearance() {
	res := s.merger.Merge([]record.PatentRecord{
		{PublicationNumber: "US1", Title: "from lens", Source: "Lens"},
		{PublicationNumber: "US1", Title: "from free", Source: "FreePatents"},
		{PublicationNumber: "US1", Abstract: "from inpi", Source: SourceINPI},
		{PublicationNumber: "US1", Inventors: []string{"Doe"}, Source: "FreePatents"},
	})

	got := s.single(res)
	s.Equal("from lens", got.Title)
	s.Equal([]string{SourceINPI, "Lens", "FreePatents"}, got.Sources)
	s.Equal([]string{"Doe"}, got.Inventors)
}

func (s *MergeTestSuite) TestExclusiveFieldsCarriedThrough() {
	res := s.merger.Merge([]record.PatentRecord{
		{PublicationNumber: "BR1", Title: "t", Source: SourceEPO},
		{
			PublicationNumber: "BR1",
			Title:             "other",
			Source:            SourceINPI,
			Exclusive: record.Exclusive{
				Attorney:          "Dannemann",
				NationalPhaseDate: "2014-06-10",
				Despachos:         []map[string]any{{"code": "3.1"}},
			},
		},
	})

	got := s.single(res)
	s.Equal("t", got.Title)
	s.Equal("Dannemann", got.Exclusive.Attorney)
	s.Equal("2014-06-10", got.Exclusive.NationalPhaseDate)
	s.Len(got.Exclusive.Despachos, 1)
	s.ElementsMatch([]string{"attorney", "national_phase_date", "despachos"}, got.Contributions[SourceINPI])
}

func (s *MergeTestSuite) TestLinkageFieldsFillOnlyWhenEmpty() {
	res := s.merger.Merge([]record.PatentRecord{
		{PublicationNumber: "BR1", WOReference: "WO1", Source: SourceEPO},
		{PublicationNumber: "BR1", WOReference: "WO2", Exclusive: record.Exclusive{PCTNumber: "PCT/US2012/067123"}, Source: SourceINPI},
	})

	got := s.single(res)
	s.Equal("WO1", got.WOReference)
	s.Equal("PCT/US2012/067123", got.Exclusive.PCTNumber)
}

func (s *MergeTestSuite) TestMissingPublicationNumberIsRejected() {
	res := s.merger.Merge([]record.PatentRecord{
		{PublicationNumber: "US1", Source: SourceEPO},
		{Title: "no number", Source: SourceINPI},
		{PublicationNumber: "US2"},
	})

	s.Len(res.Records, 2)
	s.Require().Len(res.Rejected, 1)
	s.Equal(1, res.Rejected[0].Index)
	s.Equal(SourceINPI, res.Rejected[0].Source)
}

func (s *MergeTestSuite) TestEmptySourceIsLabelledUnknown() {
	got := s.single(s.merger.Merge([]record.PatentRecord{{PublicationNumber: "US1", Title: "x"}}))
	s.Equal([]string{SourceUnknown}, got.Sources)
}

func (s *MergeTestSuite) TestPrioritiesDedupedByCanonicalNumber() {
	got := s.single(s.merger.Merge([]record.PatentRecord{
		{PublicationNumber: "US1", Priorities: []record.Priority{{Number: "US 61/567,123"}}, Source: SourceEPO},
		{PublicationNumber: "US1", Priorities: []record.Priority{{Number: "US61/567,123", Date: "2011-12-06"}, {Number: "EP1"}}, Source: SourceINPI},
	}))

	s.Len(got.Priorities, 2)
	s.Equal("US 61/567,123", got.Priorities[0].Number)
	s.Equal("EP1", got.Priorities[1].Number)
}

func (s *MergeTestSuite) TestMergeFamiliesJoinsAcrossFamilies() {
	records := []record.PatentRecord{
		{PublicationNumber: "WO1", Jurisdiction: record.JurisdictionWO, Source: SourceEPO},
		{PublicationNumber: "BR1", Jurisdiction: "BR", WOReference: "WO1", Source: SourceEPO},
		{PublicationNumber: "BR1", Jurisdiction: "BR", Title: "from inpi", Source: SourceINPI},
	}
	families := family.NewClusterer(family.DefaultOptions()).Cluster(records)

	res := s.merger.MergeFamilies(families)

	s.Len(res.Records, 2)
	for _, r := range res.Records {
		if r.PublicationNumber == "BR1" {
			s.Equal("WO1", r.WOReference)
			s.Equal("from inpi", r.Title)
			s.Equal([]string{SourceEPO, SourceINPI}, r.Sources)
		}
	}
}

func TestAppendUnique(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"a", "b", "c"}, appendUnique([]string{"a"}, "b", "a", "c", "b"))
	assert.Equal(t, []string{"x"}, appendUnique(nil, "x", "x"))
}

//Personal.AI order the ending
