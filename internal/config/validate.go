package config

import (
	"fmt"
	"regexp"
	"strings"
)

var identifierRe = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535 (got %d)", c.Server.Port)
	}

	if c.Server.WriteRateLimit < 0 {
		return fmt.Errorf("server.write_rate_limit must be >= 0 (got %d)", c.Server.WriteRateLimit)
	}

	switch strings.ToLower(c.Storage.Driver) {
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required with storage.driver %q", DriverPostgres)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("storage.driver must be %q or %q (got %q)", DriverPostgres, DriverMemory, c.Storage.Driver)
	}

	if err := c.Realtime.validate(); err != nil {
		return fmt.Errorf("realtime: %w", err)
	}

	if c.Sync.DashboardRecent < 0 {
		return fmt.Errorf("sync.dashboard_recent must be >= 0 (got %d)", c.Sync.DashboardRecent)
	}
	if c.Notify.History < 1 {
		return fmt.Errorf("notify.history must be >= 1 (got %d)", c.Notify.History)
	}

	if err := c.Log.validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}

	return nil
}

func (r *RealtimeConfig) validate() error {
	if !identifierRe.MatchString(r.Channel) {
		return fmt.Errorf("channel %q is not a valid identifier", r.Channel)
	}
	if r.BackoffInitial <= 0 {
		return fmt.Errorf("backoff_initial must be > 0 (got %v)", r.BackoffInitial)
	}
	if r.BackoffMax < r.BackoffInitial {
		return fmt.Errorf("backoff_max (%v) must be >= backoff_initial (%v)", r.BackoffMax, r.BackoffInitial)
	}
	return nil
}

func (l *LogConfig) validate() error {
	switch strings.ToLower(l.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown level %q", l.Level)
	}
	switch strings.ToLower(l.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("unknown format %q", l.Format)
	}
	return nil
}
