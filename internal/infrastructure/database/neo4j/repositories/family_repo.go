// Package repositories holds the Neo4j implementations of graph ports.
package repositories

import (
	"context"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/turtacn/PatentCliff/internal/domain/family"
	"github.com/turtacn/PatentCliff/internal/domain/record"
	driver "github.com/turtacn/PatentCliff/internal/infrastructure/database/neo4j"
	"github.com/turtacn/PatentCliff/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentCliff/pkg/errors"
)

const saveFamiliesCypher = `
MERGE (r:Run {run_id: $runId})
ON CREATE SET r.created_at = datetime()
WITH r
UNWIND $families AS fam
MERGE (f:Family {run_id: $runId, family_id: fam.family_id})
SET f.size = fam.size, f.wo_numbers = fam.wo_numbers, f.countries = fam.countries
MERGE (r)-[:PRODUCED]->(f)
WITH f, fam
UNWIND fam.members AS m
MERGE (p:Patent {publication_number: m.publication_number})
SET p.jurisdiction = m.jurisdiction,
    p.title = CASE WHEN m.title = '' THEN p.title ELSE m.title END
MERGE (f)-[hm:HAS_MEMBER]->(p)
SET hm.match = m.match, hm.position = m.position
`

const linkNationalPhaseCypher = `
UNWIND $links AS l
MERGE (w:Patent {publication_number: l.wo})
SET w:WO, w.jurisdiction = 'WO'
MERGE (p:Patent {publication_number: l.national})
MERGE (p)-[:NATIONAL_PHASE_OF]->(w)
`

const familiesForPatentCypher = `
MATCH (:Patent {publication_number: $pn})<-[:HAS_MEMBER]-(f:Family)<-[:PRODUCED]-(r:Run)
MATCH (f)-[hm:HAS_MEMBER]->(m:Patent)
WITH r, f, m ORDER BY hm.position
WITH r, f, collect(m.publication_number) AS members
RETURN r.run_id AS run_id, f.family_id AS family_id, f.size AS size,
       f.wo_numbers AS wo_numbers, f.countries AS countries, members
ORDER BY r.created_at DESC, f.family_id
`

// FamilyGraphRepository stores families as
// (:Run)-[:PRODUCED]->(:Family)-[:HAS_MEMBER]->(:Patent) and national filings
// as (:Patent)-[:NATIONAL_PHASE_OF]->(:Patent:WO).
type FamilyGraphRepository struct {
	driver driver.DriverInterface
	log    logging.Logger
}

var _ family.GraphRepository = (*FamilyGraphRepository)(nil)

func NewFamilyGraphRepository(d driver.DriverInterface, log logging.Logger) *FamilyGraphRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &FamilyGraphRepository{driver: d, log: log.Named("family-graph")}
}

// SaveFamilies is idempotent per run: saving the same run twice leaves one
// node per family and member.
func (r *FamilyGraphRepository) SaveFamilies(ctx context.Context, runID string, families []*family.Family) error {
	if runID == "" {
		return errors.New(errors.ErrCodeValidation, "run id is required")
	}
	if len(families) == 0 {
		return nil
	}
	famParams, links := familyParams(families)

	_, err := r.driver.ExecuteWrite(ctx, func(tx driver.Transaction) (any, error) {
		res, err := tx.Run(ctx, saveFamiliesCypher, map[string]any{"runId": runID, "families": famParams})
		if err != nil {
			return nil, err
		}
		if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}
		if len(links) == 0 {
			return nil, nil
		}
		res, err = tx.Run(ctx, linkNationalPhaseCypher, map[string]any{"links": links})
		if err != nil {
			return nil, err
		}
		_, err = res.Consume(ctx)
		return nil, err
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeGraphError, "failed to save families")
	}
	r.log.Debug("families saved",
		logging.String(logging.FieldRunID, runID),
		logging.Int("families", len(families)),
		logging.Int("wo_links", len(links)))
	return nil
}

// FamiliesForPatent returns every stored family holding publicationNumber.
func (r *FamilyGraphRepository) FamiliesForPatent(ctx context.Context, publicationNumber string) ([]family.Summary, error) {
	pn := record.CanonicalNumber(publicationNumber)
	if pn == "" {
		return nil, errors.New(errors.ErrCodePatentNumberMissing, "publication number is required")
	}
	out, err := r.driver.ExecuteRead(ctx, func(tx driver.Transaction) (any, error) {
		res, err := tx.Run(ctx, familiesForPatentCypher, map[string]any{"pn": pn})
		if err != nil {
			return nil, err
		}
		return driver.CollectRecords(ctx, res, mapSummary)
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeGraphError, "failed to query families")
	}
	summaries, _ := out.([]family.Summary)
	return summaries, nil
}

func familyParams(families []*family.Family) ([]map[string]any, []map[string]any) {
	fams := make([]map[string]any, 0, len(families))
	var links []map[string]any
	seen := make(map[string]bool)
	for _, f := range families {
		if f == nil {
			continue
		}
		members := make([]map[string]any, 0, f.Size())
		for pos, m := range f.Members {
			rec := m.Record
			members = append(members, map[string]any{
				"publication_number": rec.PublicationNumber,
				"jurisdiction":       rec.Country(),
				"title":              rec.Title,
				"match":              string(m.Match),
				"position":           pos,
			})
			if wo := rec.WOReference; !rec.IsWO() && wo != "" {
				key := rec.PublicationNumber + ">" + wo
				if !seen[key] {
					seen[key] = true
					links = append(links, map[string]any{"national": rec.PublicationNumber, "wo": wo})
				}
			}
		}
		fams = append(fams, map[string]any{
			"family_id":  f.ID,
			"size":       f.Size(),
			"wo_numbers": f.WONumbers(),
			"countries":  f.Countries(0),
			"members":    members,
		})
	}
	return fams, links
}

func mapSummary(rec *neo4j.Record) (family.Summary, error) {
	var s family.Summary
	if v, ok := rec.Get("run_id"); ok {
		s.RunID, _ = v.(string)
	}
	if v, ok := rec.Get("family_id"); ok {
		s.FamilyID, _ = v.(string)
	}
	if v, ok := rec.Get("size"); ok {
		if n, ok := v.(int64); ok {
			s.Size = int(n)
		}
	}
	if v, ok := rec.Get("wo_numbers"); ok {
		s.WONumbers = driver.Strings(v)
	}
	if v, ok := rec.Get("countries"); ok {
		s.Countries = driver.Strings(v)
	}
	if v, ok := rec.Get("members"); ok {
		s.Members = driver.Strings(v)
	}
	if strings.TrimSpace(s.FamilyID) == "" {
		return s, errors.New(errors.ErrCodeGraphError, "family record without family_id")
	}
	return s, nil
}

//Personal.AI order the ending
