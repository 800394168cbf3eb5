// Package worker holds the background jobs of the worker process: the
// ingest handler driven by the records topic and the run-history
// retention job.
package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/turtacn/PatentCliff/internal/application/consolidation"
	"github.com/turtacn/PatentCliff/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/PatentCliff/internal/infrastructure/monitoring/logging"
	prom "github.com/turtacn/PatentCliff/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/PatentCliff/pkg/errors"
)

// DefaultHandlerTimeout bounds one consolidation triggered by an event.
const DefaultHandlerTimeout = 5 * time.Minute

// IngestHandler consolidates the batch carried by a records.ingested event.
// Completion is announced by the service's event publisher.
type IngestHandler struct {
	svc      consolidation.Service
	metrics  *prom.ConsolidationMetrics
	logger   logging.Logger
	timeout  time.Duration
	validate *validator.Validate
}

// NewIngestHandler creates the handler.  metrics may be nil.
func NewIngestHandler(svc consolidation.Service, metrics *prom.ConsolidationMetrics, logger logging.Logger) *IngestHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &IngestHandler{
		svc:      svc,
		metrics:  metrics,
		logger:   logger.Named("ingest"),
		timeout:  DefaultHandlerTimeout,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Handle implements kafka.MessageHandler.  Malformed envelopes are not
// retryable, so they are logged and acknowledged instead of returned.
func (h *IngestHandler) Handle(ctx context.Context, msg *kafka.Message) error {
	log := h.logger.With(
		logging.String("topic", msg.Topic),
		logging.Int("partition", msg.Partition),
		logging.Int64("offset", msg.Offset),
	)

	req, env, err := decodeIngest(msg)
	if err != nil {
		log.Warn("discarding malformed ingest event", logging.Err(err))
		h.record(msg.Topic, err)
		return nil
	}
	if err := h.validate.Struct(req); err != nil {
		log.Warn("discarding invalid ingest event", logging.String("event_id", env.EventID), logging.Err(err))
		h.record(msg.Topic, err)
		return nil
	}
	ctx = logging.WithRequestID(ctx, env.EventID)

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	out, err := h.svc.Consolidate(ctx, req)
	if err != nil {
		if errors.IsValidation(err) {
			log.Warn("ingest batch rejected", logging.String("event_id", env.EventID), logging.Err(err))
			h.record(msg.Topic, err)
			return nil
		}
		h.record(msg.Topic, err)
		return err
	}
	h.record(msg.Topic, nil)
	log.Info("ingest batch consolidated",
		logging.String("event_id", env.EventID),
		logging.String(logging.FieldRunID, out.Metadata.RunID),
		logging.Int("records", len(req.Records)),
		logging.Bool("complete", out.Metadata.Complete))
	return nil
}

func (h *IngestHandler) record(topic string, err error) {
	if h.metrics != nil {
		h.metrics.RecordEvent(topic, err)
	}
}

// decodeIngest unwraps the envelope and maps its payload onto a request.
func decodeIngest(msg *kafka.Message) (*consolidation.Request, *kafka.EventEnvelope, error) {
	env, err := kafka.MessageToEventEnvelope(msg)
	if err != nil {
		return nil, nil, err
	}
	if env.EventType != kafka.EventRecordsIngested {
		return nil, nil, errors.Newf(errors.ErrCodeValidation, "unexpected event type %q", env.EventType)
	}
	var payload kafka.RecordsIngestedPayload
	if err := env.DecodePayload(&payload); err != nil {
		return nil, nil, err
	}
	if payload.Records == nil {
		return nil, nil, errors.New(errors.ErrCodeValidation, "payload has no records")
	}
	req := &consolidation.Request{Query: payload.Query, Records: payload.Records}
	if len(payload.Options) > 0 && string(payload.Options) != "null" {
		var opts consolidation.RequestOptions
		if err := json.Unmarshal(payload.Options, &opts); err != nil {
			return nil, nil, errors.Wrap(err, errors.ErrCodeSerialization, "invalid options")
		}
		req.Options = &opts
	}
	return req, env, nil
}

//Personal.AI order the ending
