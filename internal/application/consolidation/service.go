// Package consolidation runs the consolidation pipeline for callers of the
// REST facade, the CLI and the worker.  It normalizes raw records, clusters
// them into families under the analysis budget, merges them across sources,
// assembles the WO-centric tree and attaches the cliff analysis.  Optional
// adapters receive the result afterwards; their failures are logged and
// never fail a run.
package consolidation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/PatentCliff/internal/domain/cliff"
	domainCons "github.com/turtacn/PatentCliff/internal/domain/consolidation"
	"github.com/turtacn/PatentCliff/internal/domain/family"
	"github.com/turtacn/PatentCliff/internal/domain/merge"
	"github.com/turtacn/PatentCliff/internal/domain/record"
	"github.com/turtacn/PatentCliff/internal/infrastructure/monitoring/logging"
	prom "github.com/turtacn/PatentCliff/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/PatentCliff/pkg/errors"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Service defines the consolidation operations.
type Service interface {
	Consolidate(ctx context.Context, req *Request) (*domainCons.Output, error)
	Cliff(ctx context.Context, req *Request) (*cliff.Result, error)
	GetRun(ctx context.Context, id string) (*domainCons.Run, error)
	ListRuns(ctx context.Context, limit int) ([]*domainCons.Run, error)
	// GetOutput reloads the archived output of a run.
	GetOutput(ctx context.Context, runID string) (*domainCons.Output, error)
	PurgeRuns(ctx context.Context, before time.Time) (int64, error)
}

// Request is one batch of raw source records.
type Request struct {
	Query   string           `json:"query" validate:"max=256"`
	Records []map[string]any `json:"records" validate:"required"`
	Options *RequestOptions  `json:"options,omitempty"`
}

// RequestOptions override the configured pipeline settings for one request.
type RequestOptions struct {
	Precedence        []string `json:"precedence,omitempty" validate:"omitempty,dive,required"`
	DisableTitleMatch bool     `json:"disable_title_match,omitempty"`
	MaxYears          int      `json:"max_years,omitempty" validate:"omitempty,min=1,max=50"`
	MaxPerYear        int      `json:"max_per_year,omitempty" validate:"omitempty,min=1,max=100"`
}

// Config holds the pipeline defaults.
type Config struct {
	Precedence []string
	Family     family.Options
	Cliff      cliff.Options
	Version    string
	// MaxRecords bounds a single request; zero means unbounded.
	MaxRecords int
}

// Deps are the collaborators of the service.  Everything except Logger may
// be nil.
type Deps struct {
	Logger    logging.Logger
	Metrics   *prom.ConsolidationMetrics
	Cache     ResultCache
	Runs      domainCons.RunRepository
	Graph     family.GraphRepository
	Archive   ArchiveStore
	Indexer   EntryIndexer
	Publisher EventPublisher
	Clock     cliff.Clock
	NewID     func() string
}

type serviceImpl struct {
	cfg       Config
	logger    logging.Logger
	metrics   *prom.ConsolidationMetrics
	cache     ResultCache
	runs      domainCons.RunRepository
	graph     family.GraphRepository
	archive   ArchiveStore
	indexer   EntryIndexer
	publisher EventPublisher
	now       cliff.Clock
	newID     func() string
}

// NewService creates a new consolidation Service.
func NewService(cfg Config, deps Deps) Service {
	if deps.Logger == nil {
		deps.Logger = logging.NewNopLogger()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	return &serviceImpl{
		cfg:       cfg,
		logger:    deps.Logger.Named("consolidation"),
		metrics:   deps.Metrics,
		cache:     deps.Cache,
		runs:      deps.Runs,
		graph:     deps.Graph,
		archive:   deps.Archive,
		indexer:   deps.Indexer,
		publisher: deps.Publisher,
		now:       deps.Clock,
		newID:     deps.NewID,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Pipeline settings
// ─────────────────────────────────────────────────────────────────────────────

// pipeline is the effective configuration of one request.  It is part of
// the cache key, so every field must be JSON-encodable.
type pipeline struct {
	Precedence []string       `json:"precedence"`
	Family     family.Options `json:"family"`
	Cliff      cliff.Options  `json:"cliff"`
}

func (s *serviceImpl) pipeline(o *RequestOptions) pipeline {
	p := pipeline{Precedence: s.cfg.Precedence, Family: s.cfg.Family, Cliff: s.cfg.Cliff}
	if o == nil {
		return p
	}
	if len(o.Precedence) > 0 {
		p.Precedence = o.Precedence
	}
	if o.DisableTitleMatch {
		p.Family.DisableTitleMatch = true
	}
	if o.MaxYears > 0 {
		p.Cliff.MaxYears = o.MaxYears
	}
	if o.MaxPerYear > 0 {
		p.Cliff.MaxPerYear = o.MaxPerYear
	}
	return p
}

func (s *serviceImpl) validate(req *Request) error {
	if req == nil || req.Records == nil {
		return errors.New(errors.ErrCodeConsolidationInvalidInput, "records are required")
	}
	if s.cfg.MaxRecords > 0 && len(req.Records) > s.cfg.MaxRecords {
		return errors.Newf(errors.ErrCodeConsolidationInvalidInput, "batch of %d records exceeds the limit of %d", len(req.Records), s.cfg.MaxRecords)
	}
	for i, r := range req.Records {
		if r == nil {
			return errors.Newf(errors.ErrCodeConsolidationInvalidInput, "record %d is not an object", i)
		}
	}
	if req.Options != nil {
		for _, src := range req.Options.Precedence {
			if src == "" {
				return errors.New(errors.ErrCodeConsolidationOptions, "precedence entries must be non-empty")
			}
		}
	}
	return nil
}

// Digest identifies a batch together with the settings applied to it.
// encoding/json sorts map keys, so equal batches hash equally.
func Digest(records []map[string]any, settings any) (string, error) {
	data, err := json.Marshal(struct {
		Records  []map[string]any `json:"records"`
		Settings any              `json:"settings"`
	}{records, settings})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode batch")
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Operations
// ─────────────────────────────────────────────────────────────────────────────

func (s *serviceImpl) Consolidate(ctx context.Context, req *Request) (*domainCons.Output, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	p := s.pipeline(req.Options)
	digest, err := Digest(req.Records, p)
	if err != nil {
		return nil, err
	}
	if s.cache == nil {
		return s.run(ctx, req, p, digest)
	}

	start := time.Now()
	out, hit, err := s.cache.GetOrCompute(ctx, s.cacheKey(digest), func(ctx context.Context) (*domainCons.Output, error) {
		return s.run(ctx, req, p, digest)
	})
	if err != nil {
		if !errors.IsCode(err, errors.ErrCodeCacheError) {
			return nil, err
		}
		s.logger.Warn("result cache unavailable", logging.Err(err))
		return s.run(ctx, req, p, digest)
	}
	s.metric(func(m *prom.ConsolidationMetrics) { m.RecordCacheAccess(hit) })
	if hit {
		s.metric(func(m *prom.ConsolidationMetrics) {
			m.RecordRun(prom.RunStatusCached, 0, time.Since(start))
		})
		s.logger.WithContext(ctx).Info("consolidation served from cache",
			logging.String("digest", digest), logging.String(logging.FieldRunID, out.Metadata.RunID))
	}
	return out, nil
}

// cacheKey scopes a digest to the current UTC day, so cached years-until
// values are never more than a day old.
func (s *serviceImpl) cacheKey(digest string) string {
	return digest + ":" + s.now().UTC().Format("20060102")
}

func (s *serviceImpl) run(ctx context.Context, req *Request, p pipeline, digest string) (*domainCons.Output, error) {
	start := s.now()
	wall := time.Now()
	runID := s.newID()
	ctx = logging.WithRunID(ctx, runID)
	log := s.logger.WithContext(ctx)

	s.countIngested(req.Records)
	t := time.Now()
	records, rejected := record.NormalizeAll(req.Records)
	s.stage(log, "normalize", t)

	t = time.Now()
	analyzer := cliff.NewAnalyzer(p.Cliff, family.NewClusterer(p.Family), s.now)
	analysis, families := analyzer.AnalyzeWithFamilies(records)
	s.stage(log, "cluster", t)
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeTimeout, "consolidation cancelled")
	}

	t = time.Now()
	merged := merge.NewMerger(merge.Policy{Precedence: p.Precedence}).Merge(records)
	rejected = append(rejected, merged.Rejected...)
	s.stage(log, "merge", t)

	t = time.Now()
	assembler := domainCons.NewAssembler(domainCons.Options{Version: s.cfg.Version, TermYears: p.Cliff.TermYears}, s.now)
	out := assembler.Assemble(merged.Records)
	s.stage(log, "assemble", t)

	out.Cliff = &analysis
	out.Rejected = rejected
	out.Metadata.RunID = runID
	out.Metadata.Query = req.Query
	out.Metadata.RecordsReceived = len(req.Records)
	out.Metadata.RecordsRejected = len(rejected)
	out.Metadata.Complete = analysis.Complete

	s.reportRejected(log, rejected)
	if !analysis.Complete {
		log.Warn("analysis budget exhausted",
			logging.Int("records_total", analysis.RecordsTotal),
			logging.Int("records_processed", analysis.RecordsProcessed),
			logging.Int("families_resolved", analysis.FamiliesResolved),
			logging.Duration("budget", analyzer.Options().Budget))
	}

	run := domainCons.NewRun(runID, digest, out, len(families), start)
	run.Duration = s.now().Sub(start)
	s.persist(ctx, log, run, req.Records, out, families)

	s.metric(func(m *prom.ConsolidationMetrics) {
		m.RecordRun(string(run.Status), len(families), time.Since(wall))
	})
	log.Info("consolidation finished",
		logging.String("query", req.Query),
		logging.String("status", string(run.Status)),
		logging.Int("records", len(req.Records)),
		logging.Int("rejected", len(rejected)),
		logging.Int("families", len(families)),
		logging.Int("wo_entries", out.Statistics.TotalWOPatents),
		logging.String("first_expiration", out.PatentCliffSummary.FirstExpiration))
	return out, nil
}

func (s *serviceImpl) Cliff(ctx context.Context, req *Request) (*cliff.Result, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	p := s.pipeline(req.Options)
	log := s.logger.WithContext(ctx)

	t := time.Now()
	records, rejected := record.NormalizeAll(req.Records)
	s.reportRejected(log, rejected)
	res := cliff.NewAnalyzer(p.Cliff, family.NewClusterer(p.Family), s.now).Analyze(records)
	s.stage(log, "cliff", t)

	if !res.Complete {
		s.metric(func(m *prom.ConsolidationMetrics) { m.BudgetExhaustedTotal.WithLabelValues().Inc() })
		log.Warn("analysis budget exhausted",
			logging.Int("records_total", res.RecordsTotal),
			logging.Int("records_processed", res.RecordsProcessed))
	}
	log.Info("cliff analysis finished",
		logging.Int("families", res.Summary.TotalFamilies),
		logging.String("earliest_expiration", res.Summary.EarliestExpiration),
		logging.Bool("complete", res.Complete))
	return &res, nil
}

func (s *serviceImpl) GetRun(ctx context.Context, id string) (*domainCons.Run, error) {
	if s.runs == nil {
		return nil, errors.New(errors.ErrCodeFeatureDisabled, "run history is disabled")
	}
	if id == "" {
		return nil, errors.New(errors.ErrCodeConsolidationInvalidInput, "run id is required")
	}
	return s.runs.Get(ctx, id)
}

func (s *serviceImpl) ListRuns(ctx context.Context, limit int) ([]*domainCons.Run, error) {
	if s.runs == nil {
		return nil, errors.New(errors.ErrCodeFeatureDisabled, "run history is disabled")
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return s.runs.List(ctx, limit)
}

func (s *serviceImpl) GetOutput(ctx context.Context, runID string) (*domainCons.Output, error) {
	if s.archive == nil {
		return nil, errors.New(errors.ErrCodeFeatureDisabled, "output archive is disabled")
	}
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.OutputKey == "" {
		return nil, errors.Newf(errors.ErrCodeNotFound, "run %s has no archived output", runID)
	}
	data, err := s.archive.Get(ctx, run.OutputKey)
	if err != nil {
		return nil, err
	}
	var out domainCons.Output
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "archived output is corrupt")
	}
	return &out, nil
}

func (s *serviceImpl) PurgeRuns(ctx context.Context, before time.Time) (int64, error) {
	if s.runs == nil {
		return 0, errors.New(errors.ErrCodeFeatureDisabled, "run history is disabled")
	}
	n, err := s.runs.PurgeBefore(ctx, before)
	if err != nil {
		return 0, err
	}
	s.logger.Info("run history purged", logging.Int64("deleted", n), logging.String("before", before.Format(time.RFC3339)))
	return n, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Side effects
// ─────────────────────────────────────────────────────────────────────────────

func (s *serviceImpl) persist(ctx context.Context, log logging.Logger, run *domainCons.Run, raw []map[string]any, out *domainCons.Output, families []*family.Family) {
	if s.archive != nil {
		run.InputKey = s.archivePut(ctx, log, "input", raw, s.archive.PutInput, run.ID)
		run.OutputKey = s.archivePut(ctx, log, "output", out, s.archive.PutOutput, run.ID)
	}
	if s.graph != nil {
		if err := s.graph.SaveFamilies(ctx, run.ID, families); err != nil {
			log.Warn("family graph update failed", logging.Err(err))
		}
	}
	if s.indexer != nil {
		if err := s.indexer.IndexEntries(ctx, run.ID, out.ConsolidatedPatents); err != nil {
			log.Warn("entry indexing failed", logging.Err(err))
		}
	}
	if s.runs != nil {
		if err := s.runs.Save(ctx, run); err != nil {
			log.Warn("run history save failed", logging.Err(err))
		}
	}
	if s.publisher != nil {
		err := s.publisher.PublishCompleted(ctx, run.Event(s.now()))
		s.metric(func(m *prom.ConsolidationMetrics) { m.RecordEvent("consolidation.completed", err) })
		if err != nil {
			log.Warn("completion event not published", logging.Err(err))
		}
	}
}

func (s *serviceImpl) archivePut(ctx context.Context, log logging.Logger, kind string, v any, put func(context.Context, string, []byte) (string, error), runID string) string {
	data, err := json.Marshal(v)
	if err != nil {
		log.Warn("archive encode failed", logging.String("kind", kind), logging.Err(err))
		return ""
	}
	key, err := put(ctx, runID, data)
	if err != nil {
		log.Warn("archive write failed", logging.String("kind", kind), logging.Err(err))
		return ""
	}
	return key
}

func (s *serviceImpl) reportRejected(log logging.Logger, rejected []record.Rejection) {
	if len(rejected) == 0 {
		return
	}
	for _, r := range rejected {
		s.metric(func(m *prom.ConsolidationMetrics) { m.RecordRejected(r.Source) })
		log.Debug("record rejected", logging.Int("index", r.Index), logging.String("source", r.Source), logging.String("reason", r.Reason))
	}
	log.Warn("records rejected", logging.Int("count", len(rejected)))
}

func (s *serviceImpl) countIngested(raw []map[string]any) {
	if s.metrics == nil {
		return
	}
	bySource := make(map[string]int)
	for _, r := range raw {
		src, _ := r["source"].(string)
		bySource[src]++
	}
	for src, n := range bySource {
		s.metrics.RecordIngested(src, n)
	}
}

func (s *serviceImpl) stage(log logging.Logger, name string, start time.Time) {
	logging.LogStage(log, name, start)
	s.metric(func(m *prom.ConsolidationMetrics) { m.RecordStage(name, time.Since(start)) })
}

func (s *serviceImpl) metric(fn func(*prom.ConsolidationMetrics)) {
	if s.metrics != nil {
		fn(s.metrics)
	}
}

//Personal.AI order the ending
