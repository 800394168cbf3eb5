package redis

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	domainCons "github.com/turtacn/PatentCliff/internal/domain/consolidation"
	"github.com/turtacn/PatentCliff/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentCliff/pkg/errors"
)

const (
	DefaultResultPrefix = "patentcliff:result:"
	DefaultResultTTL    = 24 * time.Hour
)

// ResultCache stores consolidated outputs under the digest of their input.
// Concurrent misses on one key share a single computation.
type ResultCache struct {
	client *Client
	logger logging.Logger
	prefix string
	ttl    time.Duration
	jitter float64
	group  singleflight.Group
}

type CacheOption func(*ResultCache)

func WithPrefix(prefix string) CacheOption {
	return func(c *ResultCache) { c.prefix = prefix }
}

func WithTTL(ttl time.Duration) CacheOption {
	return func(c *ResultCache) { c.ttl = ttl }
}

// WithJitter spreads expiry by ±fraction of the TTL.  Zero disables it.
func WithJitter(fraction float64) CacheOption {
	return func(c *ResultCache) { c.jitter = fraction }
}

func NewResultCache(client *Client, logger logging.Logger, opts ...CacheOption) *ResultCache {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	c := &ResultCache{
		client: client,
		logger: logger.Named("result-cache"),
		prefix: DefaultResultPrefix,
		ttl:    DefaultResultTTL,
		jitter: 0.1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *ResultCache) expiry() time.Duration {
	if c.ttl <= 0 || c.jitter <= 0 {
		return c.ttl
	}
	delta := float64(c.ttl) * c.jitter * (rand.Float64()*2 - 1)
	return c.ttl + time.Duration(delta)
}

// GetOrCompute returns the cached output for key, or runs compute and stores
// its result.  A failed write is logged and the computed output still returned.
func (c *ResultCache) GetOrCompute(ctx context.Context, key string, compute func(context.Context) (*domainCons.Output, error)) (*domainCons.Output, bool, error) {
	full := c.prefix + key

	data, err := c.client.Get(ctx, full).Bytes()
	switch {
	case err == nil:
		var out domainCons.Output
		uErr := json.Unmarshal(data, &out)
		if uErr == nil {
			return &out, true, nil
		}
		c.logger.Warn("discarding undecodable cache entry", logging.String("key", full), logging.Err(uErr))
	case !stderrors.Is(err, redis.Nil):
		return nil, false, errors.Wrap(err, errors.ErrCodeCacheError, "result cache read failed")
	}

	v, err, shared := c.group.Do(full, func() (interface{}, error) {
		out, cErr := compute(ctx)
		if cErr != nil {
			return nil, cErr
		}
		// Budget-limited outputs are served once and never stored.
		if out == nil || !out.Metadata.Complete {
			c.logger.Debug("partial result not cached", logging.String("key", full))
			return out, nil
		}
		payload, mErr := json.Marshal(out)
		if mErr != nil {
			c.logger.Warn("result not cacheable", logging.String("key", full), logging.Err(mErr))
			return out, nil
		}
		if sErr := c.client.Set(ctx, full, payload, c.expiry()).Err(); sErr != nil {
			c.logger.Warn("result cache write failed", logging.String("key", full), logging.Err(sErr))
		}
		return out, nil
	})
	if err != nil {
		return nil, false, err
	}
	if shared {
		c.logger.Debug("computation shared", logging.String("key", full))
	}
	return v.(*domainCons.Output), false, nil
}

// Invalidate drops one entry.
func (c *ResultCache) Invalidate(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "result cache delete failed")
	}
	return nil
}

//Personal.AI order the ending
