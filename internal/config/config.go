package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the environment driven configuration for the chat service.
type Config struct {
	// Service Configuration
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"chat-api"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"CHAT_API_PORT" envDefault:"8290"`
	LogLevel        string        `env:"CHAT_LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"CHAT_LOG_FORMAT" envDefault:"console"`
	EnableTracing   bool          `env:"ENABLE_TRACING" envDefault:"false"`
	OTLPEndpoint    string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Storage Backend Selection
	StorageBackend string `env:"CHAT_STORAGE_BACKEND" envDefault:"postgres"` // Options: "postgres" or "memory"

	// Database
	DBPostgresqlWriteDSN string `env:"DB_POSTGRESQL_WRITE_DSN"`
	DBPostgresqlRead1DSN string `env:"DB_POSTGRESQL_READ1_DSN"` // Optional read replica

	// Database Connection Pool
	DBMaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBMaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"15"`
	DBConnLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`

	// Messaging
	MaxMessageLength int           `env:"CHAT_MAX_MESSAGE_LENGTH" envDefault:"1000"`
	HistoryPageLimit int           `env:"CHAT_HISTORY_PAGE_LIMIT" envDefault:"100"`
	RetentionDays    int           `env:"CHAT_RETENTION_DAYS" envDefault:"0"` // 0 disables retention cleanup
	CleanupInterval  time.Duration `env:"CHAT_CLEANUP_INTERVAL" envDefault:"1h"`

	// Realtime transport
	WSHandshakeTimeout time.Duration `env:"CHAT_WS_HANDSHAKE_TIMEOUT" envDefault:"20s"`
	WSWriteTimeout     time.Duration `env:"CHAT_WS_WRITE_TIMEOUT" envDefault:"10s"`
	WSPongTimeout      time.Duration `env:"CHAT_WS_PONG_TIMEOUT" envDefault:"60s"`
	WSSendBuffer       int           `env:"CHAT_WS_SEND_BUFFER" envDefault:"64"`

	// Authentication
	AuthEnabled bool   `env:"AUTH_ENABLED" envDefault:"true"`
	AuthSecret  string `env:"AUTH_TOKEN_SECRET"`
	AuthIssuer  string `env:"AUTH_ISSUER" envDefault:"masterful"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	cfg.AuthSecret = strings.TrimSpace(cfg.AuthSecret)
	if cfg.AuthEnabled && cfg.AuthSecret == "" {
		return nil, fmt.Errorf("AUTH_TOKEN_SECRET is required when AUTH_ENABLED is true")
	}
	if cfg.IsPostgresStorage() && strings.TrimSpace(cfg.DBPostgresqlWriteDSN) == "" {
		return nil, fmt.Errorf("DB_POSTGRESQL_WRITE_DSN is required for the postgres storage backend")
	}
	if cfg.MaxMessageLength <= 0 {
		cfg.MaxMessageLength = 1000
	}
	return cfg, nil
}

// GetDatabaseWriteDSN returns the write database connection string.
func (c *Config) GetDatabaseWriteDSN() string {
	return c.DBPostgresqlWriteDSN
}

// GetDatabaseReadDSN returns the read database connection string.
// Falls back to the write DSN when no replica is configured.
func (c *Config) GetDatabaseReadDSN() string {
	if c.DBPostgresqlRead1DSN != "" {
		return c.DBPostgresqlRead1DSN
	}
	return c.GetDatabaseWriteDSN()
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// IsMemoryStorage returns true if the in-memory storage backend is configured.
func (c *Config) IsMemoryStorage() bool {
	return strings.ToLower(strings.TrimSpace(c.StorageBackend)) == "memory"
}

// IsPostgresStorage returns true if the postgres storage backend is configured.
func (c *Config) IsPostgresStorage() bool {
	backend := strings.ToLower(strings.TrimSpace(c.StorageBackend))
	return backend == "" || backend == "postgres"
}
