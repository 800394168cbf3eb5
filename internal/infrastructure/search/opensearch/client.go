// Package opensearch indexes consolidated WO entries for downstream search.
package opensearch

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"

	"github.com/turtacn/PatentCliff/internal/config"
	"github.com/turtacn/PatentCliff/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentCliff/pkg/errors"
)

var (
	ErrInvalidConfig = errors.New(errors.ErrCodeValidation, "opensearch addresses are required")
)

// Client wraps the OpenSearch client.
type Client struct {
	client *opensearch.Client
	logger logging.Logger
}

// NewClient creates a client and pings the cluster once.
func NewClient(ctx context.Context, cfg config.OpenSearchConfig, logger logging.Logger) (*Client, error) {
	if len(cfg.Addresses) == 0 {
		return nil, ErrInvalidConfig
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	transport := &http.Transport{MaxIdleConnsPerHost: 10}
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via config
	}
	client, err := opensearch.NewClient(opensearch.Config{
		Addresses:     cfg.Addresses,
		Username:      cfg.User,
		Password:      cfg.Password,
		MaxRetries:    3,
		RetryBackoff:  func(i int) time.Duration { return time.Duration(i) * 100 * time.Millisecond },
		RetryOnStatus: []int{502, 503, 504, 429},
		Transport:     transport,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSearchError, "failed to create opensearch client")
	}

	c := &Client{client: client, logger: logger.Named("opensearch")}
	if err := c.Ping(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Ping checks the connection to OpenSearch.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.client.Ping(c.client.Ping.WithContext(ctx))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSearchError, "opensearch ping failed")
	}
	defer resp.Body.Close()

	if resp.IsError() {
		c.logger.Warn("opensearch ping returned error status", logging.Int("status", resp.StatusCode))
		return errors.Newf(errors.ErrCodeSearchError, "opensearch ping returned %d", resp.StatusCode)
	}
	return nil
}

//Personal.AI order the ending
