package family

import (
	"context"
)

// GraphRepository persists the families of a consolidation run as a graph so
// lineage can be queried across runs.
type GraphRepository interface {
	// SaveFamilies upserts the families of runID together with their members
	// and WO links.
	SaveFamilies(ctx context.Context, runID string, families []*Family) error

	// FamiliesForPatent returns every stored family containing the given
	// publication number, newest run first.
	FamiliesForPatent(ctx context.Context, publicationNumber string) ([]Summary, error)
}

//Personal.AI order the ending
