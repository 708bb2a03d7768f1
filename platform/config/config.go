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

// ProviderConfig provides settings for the messaging provider API.
type ProviderConfig interface {
	GetProviderBaseURL() string
	GetProviderAPIKey() string
	GetProviderWebhookSecret() string
	GetPublicBaseURL() string
}

// SchedulerConfig provides settings for the asynq task queue.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// OutreachConfig provides the outreach engine's rate and timing policy.
type OutreachConfig interface {
	GetMaxInvitesPerDay() int
	GetMaxMessagesPerDay() int
	GetMinTickInterval() time.Duration
	GetMaxTickInterval() time.Duration
	GetMinActionDelay() time.Duration
	GetWorkingHoursStart() int
	GetWorkingHoursEnd() int
	GetNightlyHourUTC() int
	GetConnectionCheckInterval() time.Duration
	GetIdempotencyWindow() time.Duration
	GetLeadConcurrency() int
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                     string
	HTTPAddr                string
	SchedulerHTTPAddr       string
	DatabaseURL             string
	CORSAllowAll            bool
	CORSOrigins             []string
	ProviderBaseURL         string
	ProviderAPIKey          string
	ProviderWebhookSecret   string
	PublicBaseURL           string
	RedisURL                string
	RedisTLSInsecure        bool
	AsynqQueueName          string
	AsynqConcurrency        int
	MaxInvitesPerDay        int
	MaxMessagesPerDay       int
	MinTickInterval         time.Duration
	MaxTickInterval         time.Duration
	MinActionDelay          time.Duration
	WorkingHoursStart       int
	WorkingHoursEnd         int
	NightlyHourUTC          int
	ConnectionCheckInterval time.Duration
	IdempotencyWindow       time.Duration
	LeadConcurrency         int
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

// ProviderConfig implementation
func (c *Config) GetProviderBaseURL() string       { return c.ProviderBaseURL }
func (c *Config) GetProviderAPIKey() string        { return c.ProviderAPIKey }
func (c *Config) GetProviderWebhookSecret() string { return c.ProviderWebhookSecret }
func (c *Config) GetPublicBaseURL() string         { return c.PublicBaseURL }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// OutreachConfig implementation
func (c *Config) GetMaxInvitesPerDay() int                  { return c.MaxInvitesPerDay }
func (c *Config) GetMaxMessagesPerDay() int                 { return c.MaxMessagesPerDay }
func (c *Config) GetMinTickInterval() time.Duration         { return c.MinTickInterval }
func (c *Config) GetMaxTickInterval() time.Duration         { return c.MaxTickInterval }
func (c *Config) GetMinActionDelay() time.Duration          { return c.MinActionDelay }
func (c *Config) GetWorkingHoursStart() int                 { return c.WorkingHoursStart }
func (c *Config) GetWorkingHoursEnd() int                   { return c.WorkingHoursEnd }
func (c *Config) GetNightlyHourUTC() int                    { return c.NightlyHourUTC }
func (c *Config) GetConnectionCheckInterval() time.Duration { return c.ConnectionCheckInterval }
func (c *Config) GetIdempotencyWindow() time.Duration       { return c.IdempotencyWindow }
func (c *Config) GetLeadConcurrency() int                   { return c.LeadConcurrency }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                     getEnv("APP_ENV", "development"),
		HTTPAddr:                getEnv("HTTP_ADDR", ":8080"),
		SchedulerHTTPAddr:       getEnv("SCHEDULER_HTTP_ADDR", ":8081"),
		DatabaseURL:             getEnv("DATABASE_URL", ""),
		CORSAllowAll:            corsAllowAll,
		CORSOrigins:             corsOrigins,
		ProviderBaseURL:         getEnv("PROVIDER_API_BASE_URL", "https://api.unipile.com/v1"),
		ProviderAPIKey:          getEnv("PROVIDER_API_KEY", ""),
		ProviderWebhookSecret:   getEnv("PROVIDER_WEBHOOK_SECRET", ""),
		PublicBaseURL:           getEnv("PUBLIC_BASE_URL", ""),
		RedisURL:                getEnv("REDIS_URL", ""),
		RedisTLSInsecure:        strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:          getEnv("ASYNQ_QUEUE_NAME", "outreach"),
		AsynqConcurrency:        mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		MaxInvitesPerDay:        mustInt(getEnv("MAX_INVITES_PER_DAY", "25")),
		MaxMessagesPerDay:       mustInt(getEnv("MAX_MESSAGES_PER_DAY", "100")),
		MinTickInterval:         mustDuration(getEnv("MIN_TICK_INTERVAL", "1m")),
		MaxTickInterval:         mustDuration(getEnv("MAX_TICK_INTERVAL", "5m")),
		MinActionDelay:          mustDuration(getEnv("MIN_ACTION_DELAY", "5m")),
		WorkingHoursStart:       mustInt(getEnv("WORKING_HOURS_START", "9")),
		WorkingHoursEnd:         mustInt(getEnv("WORKING_HOURS_END", "17")),
		NightlyHourUTC:          mustInt(getEnv("NIGHTLY_HOUR_UTC", "1")),
		ConnectionCheckInterval: mustDuration(getEnv("CONNECTION_CHECK_INTERVAL", "2h")),
		IdempotencyWindow:       mustDuration(getEnv("IDEMPOTENCY_WINDOW", "10m")),
		LeadConcurrency:         mustInt(getEnv("LEAD_CONCURRENCY", "4")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.MaxInvitesPerDay < 1 || cfg.MaxMessagesPerDay < 1 {
		return nil, fmt.Errorf("daily rate caps must be positive")
	}
	if cfg.MinTickInterval <= 0 || cfg.MaxTickInterval < cfg.MinTickInterval {
		return nil, fmt.Errorf("tick interval bounds are invalid")
	}
	if cfg.WorkingHoursStart < 0 || cfg.WorkingHoursEnd > 24 || cfg.WorkingHoursStart >= cfg.WorkingHoursEnd {
		return nil, fmt.Errorf("working hours window is invalid")
	}
	if cfg.NightlyHourUTC < 0 || cfg.NightlyHourUTC > 23 {
		return nil, fmt.Errorf("NIGHTLY_HOUR_UTC must be between 0 and 23")
	}
	if cfg.LeadConcurrency < 1 {
		cfg.LeadConcurrency = 1
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
