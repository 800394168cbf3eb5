// Package minio archives raw input batches and consolidated outputs in an
// S3-compatible bucket.
package minio

import (
	"context"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"

	"github.com/turtacn/PatentCliff/internal/config"
	"github.com/turtacn/PatentCliff/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentCliff/pkg/errors"
)

var (
	ErrObjectNotFound = errors.New(errors.ErrCodeNotFound, "object not found")
)

// ObjectAPI is the slice of the MinIO SDK the archive uses.
type ObjectAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	SetBucketLifecycle(ctx context.Context, bucketName string, config *lifecycle.Configuration) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	ReadObject(ctx context.Context, bucketName, objectName string) (io.ReadCloser, error)
}

// sdkClient adapts *minio.Client.  ReadObject stats the object first so a
// missing key surfaces as ErrObjectNotFound before any bytes are read.
type sdkClient struct {
	*minio.Client
}

func (c sdkClient) ReadObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	obj, err := c.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, err
	}
	return obj, nil
}

// NewObjectAPI builds an SDK client for cfg.
func NewObjectAPI(cfg config.MinIOConfig) (ObjectAPI, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "failed to create minio client")
	}
	return sdkClient{Client: client}, nil
}

// EnsureBucket creates bucket when missing and, when retentionDays > 0,
// installs an expiration rule for archived runs.
func EnsureBucket(ctx context.Context, api ObjectAPI, bucket, region string, retentionDays int, log logging.Logger) error {
	exists, err := api.BucketExists(ctx, bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "failed to check bucket existence")
	}
	if !exists {
		if err := api.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return errors.Wrapf(err, errors.ErrCodeStorageError, "failed to create bucket %s", bucket)
		}
		log.Info("created bucket", logging.String("bucket", bucket))
	}
	if retentionDays <= 0 {
		return nil
	}

	lc := lifecycle.NewConfiguration()
	lc.Rules = []lifecycle.Rule{{
		ID:     "runs-expiry",
		Status: "Enabled",
		RuleFilter: lifecycle.Filter{
			Prefix: runsPrefix,
		},
		Expiration: lifecycle.Expiration{Days: lifecycle.ExpirationDays(retentionDays)},
	}}
	if err := api.SetBucketLifecycle(ctx, bucket, lc); err != nil {
		// Some S3 implementations reject lifecycle rules; run history purge still applies.
		log.Warn("failed to set bucket lifecycle", logging.String("bucket", bucket), logging.Err(err))
	}
	return nil
}

// HealthCheck verifies the bucket is reachable.
func HealthCheck(ctx context.Context, api ObjectAPI, bucket string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	ok, err := api.BucketExists(ctx, bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "minio health check failed")
	}
	if !ok {
		return errors.Newf(errors.ErrCodeStorageError, "bucket %s missing", bucket)
	}
	return nil
}

//Personal.AI order the ending
