// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
}

// SchedulerConfig provides settings for the asynq sweep scheduler.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// AutomationConfig provides tuning knobs for the task automation engine.
type AutomationConfig interface {
	// GetReengagementThreshold is the elapsed time since last contact after
	// which the re-engagement escalation fires.
	GetReengagementThreshold() time.Duration
	// GetEscalationSkipWindow is the due-date window inside which an existing
	// contact task is considered urgent enough and left untouched.
	GetEscalationSkipWindow() time.Duration
	// GetSweepInterval is how often the stale-lead dispatcher scans for leads
	// due for escalation.
	GetSweepInterval() time.Duration
	// GetSweepBatchSize is the maximum number of stale leads claimed per scan.
	GetSweepBatchSize() int
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                   string
	HTTPAddr              string
	DatabaseURL           string
	CORSAllowAll          bool
	CORSOrigins           []string
	RedisURL              string
	RedisTLSInsecure      bool
	AsynqQueueName        string
	AsynqConcurrency      int
	ReengagementThreshold time.Duration
	EscalationSkipWindow  time.Duration
	SweepInterval         time.Duration
	SweepBatchSize        int
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// AutomationConfig implementation
func (c *Config) GetReengagementThreshold() time.Duration { return c.ReengagementThreshold }
func (c *Config) GetEscalationSkipWindow() time.Duration  { return c.EscalationSkipWindow }
func (c *Config) GetSweepInterval() time.Duration         { return c.SweepInterval }
func (c *Config) GetSweepBatchSize() int                  { return c.SweepBatchSize }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:                   getEnv("APP_ENV", "development"),
		HTTPAddr:              getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		CORSAllowAll:          strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true"),
		CORSOrigins:           splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200")),
		RedisURL:              getEnv("REDIS_URL", ""),
		RedisTLSInsecure:      strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:        getEnv("ASYNQ_QUEUE", "automation"),
		AsynqConcurrency:      mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		ReengagementThreshold: mustDuration(getEnv("REENGAGEMENT_THRESHOLD", "72h")),
		EscalationSkipWindow:  mustDuration(getEnv("ESCALATION_SKIP_WINDOW", "24h")),
		SweepInterval:         mustDuration(getEnv("SWEEP_INTERVAL", "5m")),
		SweepBatchSize:        mustInt(getEnv("SWEEP_BATCH_SIZE", "100")),
	}

	if containsWildcard(cfg.CORSOrigins) {
		cfg.CORSAllowAll = true
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.ReengagementThreshold <= 0 {
		return nil, fmt.Errorf("REENGAGEMENT_THRESHOLD must be a positive duration")
	}
	if cfg.EscalationSkipWindow <= 0 {
		return nil, fmt.Errorf("ESCALATION_SKIP_WINDOW must be a positive duration")
	}
	if cfg.SweepInterval <= 0 {
		return nil, fmt.Errorf("SWEEP_INTERVAL must be a positive duration")
	}
	if cfg.SweepBatchSize < 1 {
		cfg.SweepBatchSize = 100
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
