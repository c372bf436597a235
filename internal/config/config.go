package config

import (
	"strings"
	"time"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Realtime RealtimeConfig `yaml:"realtime"`
	Sync     SyncConfig     `yaml:"sync"`
	Notify   NotifyConfig   `yaml:"notify"`
	Log      LogConfig      `yaml:"log"`
	CORS     CORSConfig     `yaml:"cors"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,PATCH,DELETE,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Content-Type,X-Request-Id"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"false"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`

	// WriteRateLimit caps POST/PATCH/DELETE requests per client IP per minute. 0 disables it.
	WriteRateLimit int `yaml:"write_rate_limit" env:"SERVER_WRITE_RATE_LIMIT" env-default:"120"`
}

// DatabaseConfig holds PostgreSQL connection settings.
// DSN is only required with the postgres storage driver.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// StorageConfig selects the remote store implementation.
type StorageConfig struct {
	Driver string `yaml:"driver"    env:"STORAGE_DRIVER"    env-default:"postgres"`
	// SeedDemo fills an empty memory store with demo data on start.
	SeedDemo bool `yaml:"seed_demo" env:"STORAGE_SEED_DEMO" env-default:"false"`
}

// RealtimeConfig holds change feed settings. Channel must match the channel
// the notify triggers in the migrations publish on.
type RealtimeConfig struct {
	Channel        string        `yaml:"channel"         env:"REALTIME_CHANNEL"         env-default:"table_changes"`
	BackoffInitial time.Duration `yaml:"backoff_initial" env:"REALTIME_BACKOFF_INITIAL" env-default:"500ms"`
	BackoffMax     time.Duration `yaml:"backoff_max"     env:"REALTIME_BACKOFF_MAX"     env-default:"30s"`
}

// SyncConfig holds collection cache and dashboard stream settings.
type SyncConfig struct {
	RollbackFailedDelete bool          `yaml:"rollback_failed_delete" env:"SYNC_ROLLBACK_FAILED_DELETE" env-default:"false"`
	DashboardRecent      int           `yaml:"dashboard_recent"       env:"SYNC_DASHBOARD_RECENT"       env-default:"5"`
	WSWriteTimeout       time.Duration `yaml:"ws_write_timeout"       env:"SYNC_WS_WRITE_TIMEOUT"       env-default:"10s"`
	WSPingInterval       time.Duration `yaml:"ws_ping_interval"       env:"SYNC_WS_PING_INTERVAL"       env-default:"30s"`
}

// NotifyConfig holds notification history settings.
type NotifyConfig struct {
	History int `yaml:"history" env:"NOTIFY_HISTORY" env-default:"100"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// UsesPostgres reports whether the postgres storage driver is selected.
func (c StorageConfig) UsesPostgres() bool {
	return strings.EqualFold(c.Driver, DriverPostgres)
}
