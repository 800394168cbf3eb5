package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerHost = "0.0.0.0"
	DefaultServerPort = 8080
	DefaultServerMode = "release"

	DefaultDBHost = "localhost"
	DefaultDBPort = 5432
	DefaultDBName = "patentcliff"

	DefaultRedisAddr = "localhost:6379"

	DefaultNeo4jURI = "bolt://localhost:7687"

	DefaultKafkaBroker         = "localhost:9092"
	DefaultKafkaGroupID        = "patentcliff-worker"
	DefaultKafkaIngestTopic    = "patentcliff.records.ingested"
	DefaultKafkaCompletedTopic = "patentcliff.consolidation.completed"
	DefaultKafkaDLQTopic       = "patentcliff.records.dlq"

	DefaultOpenSearchAddr  = "http://localhost:9200"
	DefaultOpenSearchIndex = "wo_entries"

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "patentcliff-archive"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsNamespace = "patentcliff"

	DefaultWorkerConcurrency = 4
	DefaultRetentionSchedule = "@daily"
	DefaultRetentionPeriod   = 90 * 24 * time.Hour
)

// DefaultPrecedence ranks sources when merging conflicting fields.
var DefaultPrecedence = []string{"EPO", "INPI", "Google Patents"}

// ApplyDefaults fills every zero-value field in cfg.  Explicit values win.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultServerHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 45 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15 * time.Second
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = 32 << 20
	}
	if cfg.Server.RateBurst == 0 {
		cfg.Server.RateBurst = 20
	}

	// ── Database ──────────────────────────────────────────────────────────────
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 10
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "patentcliff:result:"
	}

	// ── Neo4j ─────────────────────────────────────────────────────────────────
	if cfg.Neo4j.URI == "" {
		cfg.Neo4j.URI = DefaultNeo4jURI
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.IngestTopic == "" {
		cfg.Kafka.IngestTopic = DefaultKafkaIngestTopic
	}
	if cfg.Kafka.CompletedTopic == "" {
		cfg.Kafka.CompletedTopic = DefaultKafkaCompletedTopic
	}
	if cfg.Kafka.DLQTopic == "" {
		cfg.Kafka.DLQTopic = DefaultKafkaDLQTopic
	}
	if cfg.Kafka.MaxRetries == 0 {
		cfg.Kafka.MaxRetries = 3
	}
	if cfg.Kafka.RetryBackoff == 0 {
		cfg.Kafka.RetryBackoff = time.Second
	}
	if cfg.Kafka.AutoOffsetReset == "" {
		cfg.Kafka.AutoOffsetReset = "earliest"
	}

	// ── OpenSearch ────────────────────────────────────────────────────────────
	if len(cfg.OpenSearch.Addresses) == 0 {
		cfg.OpenSearch.Addresses = []string{DefaultOpenSearchAddr}
	}
	if cfg.OpenSearch.Index == "" {
		cfg.OpenSearch.Index = DefaultOpenSearchIndex
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}

	// ── Worker ────────────────────────────────────────────────────────────────
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}
	if cfg.Worker.MetricsAddr == "" {
		cfg.Worker.MetricsAddr = ":9091"
	}
	if cfg.Worker.RetentionSchedule == "" {
		cfg.Worker.RetentionSchedule = DefaultRetentionSchedule
	}
	if cfg.Worker.RetentionPeriod == 0 {
		cfg.Worker.RetentionPeriod = DefaultRetentionPeriod
	}

	// ── Log / Metrics ─────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stderr"
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}

	// ── Consolidation ─────────────────────────────────────────────────────────
	c := &cfg.Consolidation
	if len(c.Precedence) == 0 {
		c.Precedence = append([]string(nil), DefaultPrecedence...)
	}
	if c.TitlePrefixLength == 0 {
		c.TitlePrefixLength = 50
	}
	if c.TitleMinLength == 0 {
		c.TitleMinLength = 20
	}
	if c.MaxPriorities == 0 {
		c.MaxPriorities = 3
	}
	if c.MaxYears == 0 {
		c.MaxYears = 20
	}
	if c.MaxPerYear == 0 {
		c.MaxPerYear = 10
	}
	if c.MaxOverview == 0 {
		c.MaxOverview = 50
	}
	if c.MaxMembersScanned == 0 {
		c.MaxMembersScanned = 5
	}
	if c.MaxCountries == 0 {
		c.MaxCountries = 5
	}
	if c.Budget == 0 {
		c.Budget = 30 * time.Second
	}
	if c.MaxRecords == 0 {
		c.MaxRecords = 50000
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = 24 * time.Hour
	}
}

// Default returns a fully defaulted Config with every adapter disabled.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

//Personal.AI order the ending
