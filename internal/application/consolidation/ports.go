package consolidation

import (
	"context"

	domainCons "github.com/turtacn/PatentCliff/internal/domain/consolidation"
)

// ResultCache memoizes outputs by input digest.  GetOrCompute reports
// whether the value came from the cache.  Cache failures are returned with
// the COMMON_013 code so callers can fall back to computing directly.
type ResultCache interface {
	GetOrCompute(ctx context.Context, key string, compute func(context.Context) (*domainCons.Output, error)) (*domainCons.Output, bool, error)
}

// ArchiveStore keeps raw inputs and consolidated outputs as objects.
type ArchiveStore interface {
	PutInput(ctx context.Context, runID string, data []byte) (string, error)
	PutOutput(ctx context.Context, runID string, data []byte) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
}

// EntryIndexer makes WO entries searchable.
type EntryIndexer interface {
	IndexEntries(ctx context.Context, runID string, entries []domainCons.WOEntry) error
}

// EventPublisher announces finished runs.
type EventPublisher interface {
	PublishCompleted(ctx context.Context, event domainCons.CompletedEvent) error
}

//Personal.AI order the ending
