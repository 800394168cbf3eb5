// Package neo4j wraps the Neo4j driver behind small interfaces so graph
// repositories can be exercised without a server.
package neo4j

import (
	"context"
	"sync"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/turtacn/PatentCliff/internal/config"
	"github.com/turtacn/PatentCliff/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentCliff/pkg/errors"
)

// Result is the subset of neo4j.ResultWithContext used by repositories.
type Result interface {
	Next(ctx context.Context) bool
	Record() *neo4j.Record
	Err() error
	Consume(ctx context.Context) (neo4j.ResultSummary, error)
}

// Transaction runs Cypher inside a managed transaction.
type Transaction interface {
	Run(ctx context.Context, cypher string, params map[string]any) (Result, error)
}

// TransactionWork is retried by the driver on transient failures, so it must
// be idempotent.
type TransactionWork func(tx Transaction) (any, error)

// DriverInterface is what repositories depend on.
type DriverInterface interface {
	ExecuteRead(ctx context.Context, work TransactionWork) (any, error)
	ExecuteWrite(ctx context.Context, work TransactionWork) (any, error)
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

type managedTx struct {
	tx neo4j.ManagedTransaction
}

func (t managedTx) Run(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	return t.tx.Run(ctx, cypher, params)
}

// Driver is the production DriverInterface.
type Driver struct {
	driver   neo4j.DriverWithContext
	database string
	logger   logging.Logger
	once     sync.Once
}

var _ DriverInterface = (*Driver)(nil)

// NewDriver connects and verifies connectivity.
func NewDriver(ctx context.Context, cfg config.Neo4jConfig, log logging.Logger) (*Driver, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	auth := neo4j.BasicAuth(cfg.User, cfg.Password, "")
	d, err := neo4j.NewDriverWithContext(cfg.URI, auth, func(c *neo4j.Config) {
		c.MaxConnectionPoolSize = 50
		if cfg.MaxConnectionPoolSize > 0 {
			c.MaxConnectionPoolSize = cfg.MaxConnectionPoolSize
		}
		c.ConnectionAcquisitionTimeout = 30 * time.Second
		if cfg.ConnectionTimeout > 0 {
			c.SocketConnectTimeout = cfg.ConnectionTimeout
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeGraphError, "failed to create neo4j driver")
	}

	verifyCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := d.VerifyConnectivity(verifyCtx); err != nil {
		_ = d.Close(context.Background())
		return nil, errors.Wrap(err, errors.ErrCodeGraphError, "failed to connect to neo4j")
	}

	database := cfg.Database
	if database == "" {
		database = "neo4j"
	}
	log.Info("connected to Neo4j", logging.String("uri", cfg.URI), logging.String("database", database))
	return &Driver{driver: d, database: database, logger: log.Named("neo4j")}, nil
}

func (d *Driver) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return d.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: d.database, AccessMode: mode})
}

func (d *Driver) ExecuteRead(ctx context.Context, work TransactionWork) (any, error) {
	s := d.session(ctx, neo4j.AccessModeRead)
	defer s.Close(ctx)

	res, err := s.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return work(managedTx{tx: tx})
	})
	if err != nil {
		d.logger.Error("neo4j read transaction failed", logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodeGraphError, "neo4j read failed")
	}
	return res, nil
}

func (d *Driver) ExecuteWrite(ctx context.Context, work TransactionWork) (any, error) {
	s := d.session(ctx, neo4j.AccessModeWrite)
	defer s.Close(ctx)

	res, err := s.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return work(managedTx{tx: tx})
	})
	if err != nil {
		d.logger.Error("neo4j write transaction failed", logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodeGraphError, "neo4j write failed")
	}
	return res, nil
}

func (d *Driver) HealthCheck(ctx context.Context) error {
	if err := d.driver.VerifyConnectivity(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeGraphError, "neo4j connectivity check failed")
	}
	return nil
}

func (d *Driver) Close(ctx context.Context) error {
	var err error
	d.once.Do(func() {
		if err = d.driver.Close(ctx); err != nil {
			d.logger.Error("failed to close neo4j driver", logging.Err(err))
			return
		}
		d.logger.Info("neo4j driver closed")
	})
	return err
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

// CollectRecords maps every record of result.
func CollectRecords[T any](ctx context.Context, result Result, mapper func(*neo4j.Record) (T, error)) ([]T, error) {
	var items []T
	for result.Next(ctx) {
		item, err := mapper(result.Record())
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := result.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Strings converts a Cypher list value to []string, skipping non-strings.
func Strings(v any) []string {
	list, ok := v.([]any)
	if !ok {
		if ss, ok := v.([]string); ok {
			return ss
		}
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

//Personal.AI order the ending
