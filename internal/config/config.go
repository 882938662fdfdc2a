package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the root configuration shared by every binary
type Config struct {
	Service    Service    `envconfig:"SERVICE"`
	Ingest     Ingest     `envconfig:"INGEST"`
	Registry   Registry   `envconfig:"REGISTRY"`
	Stats      Stats      `envconfig:"STATS"`
	Queue      Queue      `envconfig:"QUEUE"`
	Transport  Transport  `envconfig:"TRANSPORT"`
	SQS        SQS        `envconfig:"SQS"`
	ClickHouse ClickHouse `envconfig:"CLICKHOUSE"`
	Valkey     Valkey     `envconfig:"VALKEY"`
	Consumer   Consumer   `envconfig:"CONSUMER"`
	Archive    Archive    `envconfig:"ARCHIVE"`
	Simulator  Simulator  `envconfig:"SIMULATOR"`
}

type Service struct {
	Environment string `split_words:"true" default:"development"`
	APIPort     string `split_words:"true" default:"8080"`
	Host        string `split_words:"true" default:"localhost:8080"`
	Source      string `split_words:"true" default:"practice-web"`
}

// Ingest bounds the server side of POST /api/events
type Ingest struct {
	MaxBatchSize int   `split_words:"true" default:"100"`
	MaxBodyBytes int64 `split_words:"true" default:"4194304"`
}

type Registry struct {
	MaxRecentErrors int           `split_words:"true" default:"200"`
	ErrorRetention  time.Duration `split_words:"true" default:"24h"`
	SeedCatalog     bool          `split_words:"true" default:"true"`
}

// Stats configures bucket retention and the health classification thresholds
type Stats struct {
	MinuteRetention  time.Duration `split_words:"true" default:"2h"`
	HourRetention    time.Duration `split_words:"true" default:"24h"`
	WarningErrorRate float64       `split_words:"true" default:"0.05"`
	ExpectTraffic    bool          `split_words:"true" default:"false"`
}

// Queue configures the client-side event queue
type Queue struct {
	BatchSize       int           `split_words:"true" default:"100"`
	Capacity        int           `split_words:"true" default:"1000"`
	MaxAttempts     int           `split_words:"true" default:"5"`
	FlushInterval   time.Duration `split_words:"true" default:"5s"`
	InitialBackoff  time.Duration `split_words:"true" default:"500ms"`
	MaxBackoff      time.Duration `split_words:"true" default:"30s"`
	DeadLetterLimit int           `split_words:"true" default:"500"`
}

type Transport struct {
	Endpoint       string        `split_words:"true" default:"http://localhost:8080"`
	RequestTimeout time.Duration `split_words:"true" default:"10s"`
	Codec          string        `split_words:"true" default:"json"`
}

// SQS points at the dead-letter queue; an empty QueueURL disables it
type SQS struct {
	Endpoint string `split_words:"true"`
	QueueURL string `split_words:"true"`
	Region   string `split_words:"true" default:"eu-central-1"`
}

// Enabled reports whether a dead-letter queue is configured
func (s SQS) Enabled() bool {
	return s.QueueURL != ""
}

// ClickHouse configures the audit archive; an empty Host disables it
type ClickHouse struct {
	Host               string `split_words:"true"`
	Port               string `split_words:"true" default:"9000"`
	Database           string `split_words:"true" default:"telemetry"`
	User               string `split_words:"true" default:""`
	Password           string `split_words:"true" default:""`
	UseTLS             bool   `split_words:"true" default:"false"`
	MaxOpenConns       int    `split_words:"true" default:"5"`
	MaxIdleConns       int    `split_words:"true" default:"2"`
	ConnMaxLifetimeSec int    `split_words:"true" default:"3600"`
}

// Enabled reports whether a ClickHouse archive is configured
func (c ClickHouse) Enabled() bool {
	return c.Host != ""
}

// Valkey configures the idempotency store; an empty Host falls back to memory
type Valkey struct {
	Host                string        `split_words:"true"`
	Port                string        `split_words:"true" default:"6379"`
	IdempotencyEnabled  bool          `split_words:"true" default:"true"`
	IdempotencyFailOpen bool          `split_words:"true" default:"true"`
	IdempotencyTTL      time.Duration `split_words:"true" default:"24h"`
	MemoryCapacity      int           `split_words:"true" default:"100000"`
}

// Enabled reports whether a Valkey server is configured
func (v Valkey) Enabled() bool {
	return v.Host != ""
}

type Consumer struct {
	BatchSizeMax    int    `split_words:"true" default:"500"`
	BatchTimeoutSec int    `split_words:"true" default:"10"`
	HealthCheckPort string `split_words:"true" default:"8081"`
}

// Archive configures the batched audit writer in front of ClickHouse
type Archive struct {
	BufferSize   int           `split_words:"true" default:"1000"`
	MaxBatchSize int           `split_words:"true" default:"200"`
	FlushTimeout time.Duration `split_words:"true" default:"5s"`
}

// Simulator drives cmd/simulator
type Simulator struct {
	Interval     time.Duration `split_words:"true" default:"200ms"`
	InvalidRatio float64       `split_words:"true" default:"0.05"`
	Actors       int           `split_words:"true" default:"5"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Queue.BatchSize <= 0 {
		return fmt.Errorf("QUEUE_BATCH_SIZE must be positive, got %d", c.Queue.BatchSize)
	}
	if c.Queue.Capacity <= 0 {
		return fmt.Errorf("QUEUE_CAPACITY must be positive, got %d", c.Queue.Capacity)
	}
	if c.Queue.MaxAttempts <= 0 {
		return fmt.Errorf("QUEUE_MAX_ATTEMPTS must be positive, got %d", c.Queue.MaxAttempts)
	}
	if c.Ingest.MaxBatchSize <= 0 {
		return fmt.Errorf("INGEST_MAX_BATCH_SIZE must be positive, got %d", c.Ingest.MaxBatchSize)
	}
	if c.Stats.MinuteRetention < time.Hour {
		return fmt.Errorf("STATS_MINUTE_RETENTION must cover at least one hour, got %s", c.Stats.MinuteRetention)
	}
	if c.Stats.WarningErrorRate < 0 || c.Stats.WarningErrorRate > 1 {
		return fmt.Errorf("STATS_WARNING_ERROR_RATE must be within [0,1], got %v", c.Stats.WarningErrorRate)
	}
	switch c.Transport.Codec {
	case "json", "msgpack":
	default:
		return fmt.Errorf("TRANSPORT_CODEC must be json or msgpack, got %q", c.Transport.Codec)
	}
	return nil
}
