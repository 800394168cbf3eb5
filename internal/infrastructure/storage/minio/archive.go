package minio

import (
	"bytes"
	"context"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/PatentCliff/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentCliff/pkg/errors"
)

const (
	runsPrefix      = "runs/"
	inputObject     = "input.json"
	outputObject    = "output.json"
	jsonContentType = "application/json"
)

// ArchiveStore writes one input and one output object per run under
// runs/{id}/.  Keys returned by the Put methods are bucket-relative.
type ArchiveStore struct {
	api    ObjectAPI
	bucket string
	logger logging.Logger
}

func NewArchiveStore(api ObjectAPI, bucket string, log logging.Logger) *ArchiveStore {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &ArchiveStore{api: api, bucket: bucket, logger: log.Named("archive")}
}

// RunKey is the object key of name within runID's folder.
func RunKey(runID, name string) string {
	return path.Join(strings.TrimSuffix(runsPrefix, "/"), runID, name)
}

func (s *ArchiveStore) PutInput(ctx context.Context, runID string, data []byte) (string, error) {
	return s.put(ctx, RunKey(runID, inputObject), runID, "input", data)
}

func (s *ArchiveStore) PutOutput(ctx context.Context, runID string, data []byte) (string, error) {
	return s.put(ctx, RunKey(runID, outputObject), runID, "output", data)
}

func (s *ArchiveStore) put(ctx context.Context, key, runID, kind string, data []byte) (string, error) {
	if runID == "" || strings.ContainsAny(runID, "/\\") {
		return "", errors.Newf(errors.ErrCodeValidation, "invalid run id %q", runID)
	}
	opts := minio.PutObjectOptions{
		ContentType:  jsonContentType,
		UserMetadata: map[string]string{"run-id": runID, "kind": kind},
	}
	info, err := s.api.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), opts)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrCodeStorageError, "failed to archive %s", key)
	}
	s.logger.Debug("object archived",
		logging.String("key", key),
		logging.Int64("size", info.Size),
		logging.String(logging.FieldRunID, runID))
	return key, nil
}

// Get reads an archived object.
func (s *ArchiveStore) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, errors.New(errors.ErrCodeValidation, "object key is required")
	}
	rc, err := s.api.ReadObject(ctx, s.bucket, key)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrObjectNotFound.WithDetail(key)
		}
		return nil, errors.Wrapf(err, errors.ErrCodeStorageError, "failed to read %s", key)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodeStorageError, "failed to read %s", key)
	}
	return data, nil
}

//Personal.AI order the ending
