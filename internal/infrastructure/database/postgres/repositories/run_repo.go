// Package repositories holds the PostgreSQL implementations of domain
// repository ports.
package repositories

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	domainCons "github.com/turtacn/PatentCliff/internal/domain/consolidation"
	"github.com/turtacn/PatentCliff/internal/infrastructure/monitoring/logging"
	appErrors "github.com/turtacn/PatentCliff/pkg/errors"
)

// DBTX is the query surface shared by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	maxListLimit = 500

	runColumns = `id, query, input_digest, status, complete, records_received, records_rejected,
		families, wo_entries, national_patents, earliest_expiration, risk_level,
		input_key, output_key, duration_ns, created_at`
)

// RunRepository stores consolidation run history in consolidation_runs.
type RunRepository struct {
	db     DBTX
	logger logging.Logger
}

var _ domainCons.RunRepository = (*RunRepository)(nil)

// NewRunRepository constructs a RunRepository over db.
func NewRunRepository(db DBTX, logger logging.Logger) *RunRepository {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &RunRepository{db: db, logger: logger.Named("run-repo")}
}

// Save upserts run by id.
func (r *RunRepository) Save(ctx context.Context, run *domainCons.Run) error {
	if run == nil || run.ID == "" {
		return appErrors.New(appErrors.ErrCodeValidation, "run id is required")
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO consolidation_runs (`+runColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			complete = EXCLUDED.complete,
			input_key = EXCLUDED.input_key,
			output_key = EXCLUDED.output_key,
			duration_ns = EXCLUDED.duration_ns`,
		run.ID, run.Query, run.InputDigest, string(run.Status), run.Complete,
		run.RecordsReceived, run.RecordsRejected, run.Families, run.WOEntries,
		run.NationalPatents, run.EarliestExpiration, run.RiskLevel,
		run.InputKey, run.OutputKey, int64(run.Duration), run.CreatedAt.UTC(),
	)
	if err != nil {
		r.logger.Error("insert run failed", logging.String(logging.FieldRunID, run.ID), logging.Err(err))
		return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to save run")
	}
	return nil
}

// Get returns the run with id, or a CONS_003 error.
func (r *RunRepository) Get(ctx context.Context, id string) (*domainCons.Run, error) {
	row := r.db.QueryRow(ctx, `SELECT `+runColumns+` FROM consolidation_runs WHERE id = $1`, id)
	run, err := scanRun(row)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, appErrors.Newf(appErrors.ErrCodeConsolidationRunNotFound, "run %s not found", id)
	}
	if err != nil {
		r.logger.Error("select run failed", logging.String(logging.FieldRunID, id), logging.Err(err))
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to load run")
	}
	return run, nil
}

// List returns up to limit runs, newest first.
func (r *RunRepository) List(ctx context.Context, limit int) ([]*domainCons.Run, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+runColumns+` FROM consolidation_runs ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to list runs")
	}
	defer rows.Close()

	runs := make([]*domainCons.Run, 0, limit)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to scan run row")
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "row iteration error")
	}
	return runs, nil
}

// PurgeBefore deletes runs created before cutoff and reports how many went.
func (r *RunRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM consolidation_runs WHERE created_at < $1`, cutoff.UTC())
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to purge runs")
	}
	return tag.RowsAffected(), nil
}

func scanRun(row pgx.Row) (*domainCons.Run, error) {
	var (
		run      domainCons.Run
		status   string
		duration int64
	)
	err := row.Scan(
		&run.ID, &run.Query, &run.InputDigest, &status, &run.Complete,
		&run.RecordsReceived, &run.RecordsRejected, &run.Families, &run.WOEntries,
		&run.NationalPatents, &run.EarliestExpiration, &run.RiskLevel,
		&run.InputKey, &run.OutputKey, &duration, &run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	run.Status = domainCons.RunStatus(status)
	run.Duration = time.Duration(duration)
	run.CreatedAt = run.CreatedAt.UTC()
	return &run, nil
}

//Personal.AI order the ending
