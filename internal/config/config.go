// Package config loads the gateway and event processor settings from an .env
// file, the environment and built-in defaults.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config is shared by both binaries; each reads the sections it needs.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Kafka       KafkaConfig
	Postgres    PostgresConfig
	MongoDB     MongoDBConfig
	Outbox      OutboxConfig
	WorkerPool  WorkerPoolConfig
	Storage     StorageConfig
	Lock        LockConfig
	Limits      LimitsConfig
	Settlement  SettlementConfig
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env  string
	Name string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port            int           // Port to listen on
	ShutdownTimeout time.Duration // Grace period for server shutdown
	ReadTimeout     time.Duration // Maximum duration for reading entire request
	WriteTimeout    time.Duration // Maximum duration for writing response
	IdleTimeout     time.Duration // Maximum duration to wait for next request
}

// KafkaConfig contains Kafka configuration
type KafkaConfig struct {
	Brokers           string
	TransactionTopic  string
	NumPartitions     int // Number of partitions for topics
	ReplicationFactor int // Replication factor for topics
	ConsumerGroup     string
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	StartOffset       int64
	DLQTopic          string // Topic for Dead Letter Queue
}

// PostgresConfig contains PostgreSQL configuration
type PostgresConfig struct {
	URL             string        // Database connection string
	MaxConns        int32         // Maximum number of open connections
	MinConns        int32         // Maximum number of idle connections
	ConnMaxLifetime time.Duration // Maximum lifetime of a connection
	ConnMaxIdleTime time.Duration // Maximum idle time of a connection
	MigrationsPath  string        // Path to migration files
}

// MongoDBConfig contains MongoDB configuration
type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// OutboxConfig contains outbox pattern configuration
type OutboxConfig struct {
	PollingInterval  time.Duration
	BatchSize        int
	MaxRetryAttempts int // Maximum number of retry attempts for outbox messages
}

// WorkerPoolConfig contains worker pool configuration
type WorkerPoolConfig struct {
	Size int // Maximum number of workers in the pool
}

// StorageConfig selects the transactional store backing the settlement services
type StorageConfig struct {
	Driver string // "postgres" or "memory"
}

// LockConfig bounds how long an operation waits for a resource lock
type LockConfig struct {
	MaxAttempts int
	RetryDelay  time.Duration
}

// LimitsConfig holds per-transaction and rolling transfer limits in minor units
type LimitsConfig struct {
	Currency            string
	MinTransferAmount   int64
	MaxTransferAmount   int64
	DailyTransferLimit  int64 // trailing 24 hours
	WeeklyTransferLimit int64 // trailing seven days
}

type SettlementConfig struct {
	EscrowDefaultExpiry   time.Duration
	JarDefaultPenaltyRate decimal.Decimal
	BillPaymentFee        int64 // minor units
}

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// problems collects every invalid setting so one startup failure reports them all
type problems []string

func (p *problems) require(ok bool, msg string) {
	if !ok {
		*p = append(*p, msg)
	}
}

func (p *problems) positive(name string, value int64) {
	p.require(value > 0, name+" must be greater than 0")
}

func (p *problems) positiveDuration(name string, value time.Duration) {
	p.require(value > 0, name+" must be greater than 0")
}

// validate checks the settings the selected storage driver actually uses. The
// memory driver runs without Postgres or the Kafka relay, so those are skipped.
func (c *Config) validate() error {
	var p problems

	p.positive("SERVER_PORT", int64(c.Server.Port))
	p.positiveDuration("SERVER_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)
	p.positiveDuration("SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	p.positiveDuration("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)
	p.positiveDuration("SERVER_IDLE_TIMEOUT", c.Server.IdleTimeout)

	switch c.Storage.Driver {
	case StorageDriverPostgres:
		c.validateRelay(&p)
	case StorageDriverMemory:
	default:
		p = append(p, "STORAGE_DRIVER must be postgres or memory")
	}

	// the gateway reads history from Mongo in both modes
	p.require(c.MongoDB.URI != "", "MONGO_URI is required")
	p.require(c.MongoDB.Database != "", "MONGO_DATABASE is required")
	p.positiveDuration("MONGO_TIMEOUT", c.MongoDB.Timeout)
	p.require(c.MongoDB.MinPoolSize <= c.MongoDB.MaxPoolSize, "MONGO_MIN_POOL_SIZE must not exceed MONGO_MAX_POOL_SIZE")

	p.positive("WORKER_POOL_SIZE", int64(c.WorkerPool.Size))
	p.positive("LOCK_MAX_ATTEMPTS", int64(c.Lock.MaxAttempts))
	p.positiveDuration("LOCK_RETRY_DELAY", c.Lock.RetryDelay)

	p.require(len(c.Limits.Currency) == 3, "LIMITS_CURRENCY must be a 3-letter code")
	p.positive("LIMITS_MIN_TRANSFER_AMOUNT", c.Limits.MinTransferAmount)
	p.require(c.Limits.MaxTransferAmount >= c.Limits.MinTransferAmount,
		"LIMITS_MAX_TRANSFER_AMOUNT must not be below LIMITS_MIN_TRANSFER_AMOUNT")
	p.positive("LIMITS_DAILY_TRANSFER_LIMIT", c.Limits.DailyTransferLimit)
	p.require(c.Limits.WeeklyTransferLimit >= c.Limits.DailyTransferLimit,
		"LIMITS_WEEKLY_TRANSFER_LIMIT must not be below LIMITS_DAILY_TRANSFER_LIMIT")

	p.positiveDuration("ESCROW_DEFAULT_EXPIRY", c.Settlement.EscrowDefaultExpiry)
	rate := c.Settlement.JarDefaultPenaltyRate
	p.require(!rate.IsNegative() && !rate.GreaterThan(decimal.NewFromInt(1)), "JAR_DEFAULT_PENALTY_RATE must be between 0 and 1")
	p.require(c.Settlement.BillPaymentFee >= 0, "BILL_PAYMENT_FEE must not be negative")

	if len(p) > 0 {
		return errors.New(strings.Join(p, ", "))
	}
	return nil
}

// validateRelay covers Postgres, the outbox and Kafka, which only run with the postgres driver
func (c *Config) validateRelay(p *problems) {
	p.require(c.Postgres.URL != "", "POSTGRES_URL is required")
	p.require(c.Postgres.MigrationsPath != "", "POSTGRES_MIGRATIONS_PATH is required")
	p.positive("POSTGRES_MAX_CONNS", int64(c.Postgres.MaxConns))
	p.require(c.Postgres.MinConns >= 0 && c.Postgres.MinConns <= c.Postgres.MaxConns,
		"POSTGRES_MIN_CONNS must be between 0 and POSTGRES_MAX_CONNS")
	p.positiveDuration("POSTGRES_MAX_CONN_LIFETIME", c.Postgres.ConnMaxLifetime)
	p.positiveDuration("POSTGRES_MAX_CONN_IDLE_TIME", c.Postgres.ConnMaxIdleTime)

	p.positiveDuration("OUTBOX_POLLING_INTERVAL", c.Outbox.PollingInterval)
	p.positive("OUTBOX_BATCH_SIZE", int64(c.Outbox.BatchSize))
	p.positive("OUTBOX_MAX_RETRY_ATTEMPTS", int64(c.Outbox.MaxRetryAttempts))

	p.require(c.Kafka.Brokers != "", "KAFKA_BROKERS is required")
	p.require(c.Kafka.TransactionTopic != "", "KAFKA_TRANSACTION_TOPIC is required")
	p.require(c.Kafka.ConsumerGroup != "", "KAFKA_CONSUMER_GROUP is required")
	p.require(c.Kafka.DLQTopic != c.Kafka.TransactionTopic, "KAFKA_DLQ_TOPIC must differ from KAFKA_TRANSACTION_TOPIC")
	p.positive("KAFKA_CONSUMER_MIN_BYTES", int64(c.Kafka.MinBytes))
	p.require(c.Kafka.MaxBytes >= c.Kafka.MinBytes, "KAFKA_CONSUMER_MAX_BYTES must not be below KAFKA_CONSUMER_MIN_BYTES")
	p.positiveDuration("KAFKA_CONSUMER_MAX_WAIT", c.Kafka.MaxWait)
}
