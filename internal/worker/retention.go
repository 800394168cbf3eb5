package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/turtacn/PatentCliff/internal/infrastructure/monitoring/logging"
)

// Purger deletes run history older than a cutoff.
type Purger interface {
	PurgeRuns(ctx context.Context, before time.Time) (int64, error)
}

// Locker is a non-blocking lease shared by worker replicas.
type Locker interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
}

// RetentionJob purges run history on a cron schedule.  With a Locker only
// one replica runs each tick.
type RetentionJob struct {
	purger  Purger
	lock    Locker
	period  atomic.Int64
	timeout time.Duration
	now     func() time.Time
	logger  logging.Logger
}

// NewRetentionJob creates the job.  lock may be nil for single-replica
// deployments.
func NewRetentionJob(purger Purger, lock Locker, period time.Duration, logger logging.Logger) *RetentionJob {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	j := &RetentionJob{
		purger:  purger,
		lock:    lock,
		timeout: time.Minute,
		now:     time.Now,
		logger:  logger.Named("retention"),
	}
	j.SetPeriod(period)
	return j
}

// SetPeriod changes the retention window; it is safe to call while the
// scheduler runs.
func (j *RetentionJob) SetPeriod(d time.Duration) {
	j.period.Store(int64(d))
}

// Period returns the current retention window.
func (j *RetentionJob) Period() time.Duration {
	return time.Duration(j.period.Load())
}

// Run performs one purge.  It reports the number of deleted runs; zero is
// returned without error when another replica holds the lease.
func (j *RetentionJob) Run(ctx context.Context) (int64, error) {
	period := j.Period()
	if period <= 0 {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	if j.lock != nil {
		ok, err := j.lock.TryLock(ctx)
		if err != nil {
			return 0, err
		}
		if !ok {
			j.logger.Debug("retention lease held elsewhere, skipping")
			return 0, nil
		}
		defer func() {
			if err := j.lock.Unlock(context.Background()); err != nil {
				j.logger.Warn("failed to release retention lease", logging.Err(err))
			}
		}()
	}

	cutoff := j.now().Add(-period)
	n, err := j.purger.PurgeRuns(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	j.logger.Info("retention purge finished",
		logging.Int64("deleted", n),
		logging.String("cutoff", cutoff.UTC().Format(time.RFC3339)))
	return n, nil
}

// Schedule registers the job on c under spec.
func (j *RetentionJob) Schedule(c *cron.Cron, spec string) (cron.EntryID, error) {
	return c.AddFunc(spec, func() {
		if _, err := j.Run(context.Background()); err != nil {
			j.logger.Error("retention purge failed", logging.Err(err))
		}
	})
}

//Personal.AI order the ending
