// Package config loads the route optimization engine's settings from
// embedded YAML defaults, then applies environment-variable overrides,
// matching the teacher's go:embed pattern (internal/api/docs_embed.go)
// for shipping static assets alongside the binary.
package config

import (
	_ "embed"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config is the process-wide, read-only-after-start settings surface
// from spec §6.
type Config struct {
	GoogleMapsAPIKey                string        `yaml:"-"`
	UseAPIByDefault                 bool          `yaml:"useApiByDefault"`
	MaxRetries                      int           `yaml:"maxRetries"`
	BackoffFactor                   float64       `yaml:"backoffFactor"`
	RetryDelaySeconds                int          `yaml:"retryDelaySeconds"`
	CacheExpiryDays                 int           `yaml:"cacheExpiryDays"`
	OptimizationResultCacheTimeoutS int           `yaml:"optimizationResultCacheTimeoutSeconds"`
	TimeLimitSeconds                int           `yaml:"timeLimitSeconds"`
	Testing                         bool          `yaml:"-"`
	RedisURL                        string        `yaml:"-"`
	DatabaseURL                     string        `yaml:"-"`
}

// RetryDelay is RetryDelaySeconds as a time.Duration.
func (c Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySeconds) * time.Second
}

// CacheExpiry is CacheExpiryDays as a time.Duration.
func (c Config) CacheExpiry() time.Duration {
	return time.Duration(c.CacheExpiryDays) * 24 * time.Hour
}

// ResultCacheTimeout is OptimizationResultCacheTimeoutS as a
// time.Duration.
func (c Config) ResultCacheTimeout() time.Duration {
	return time.Duration(c.OptimizationResultCacheTimeoutS) * time.Second
}

// TimeLimit is TimeLimitSeconds as a time.Duration, the solver's
// per-request time_limit_seconds.
func (c Config) TimeLimit() time.Duration {
	return time.Duration(c.TimeLimitSeconds) * time.Second
}

// Load parses the embedded defaults, then overrides fields from the
// process environment, per spec §6's configuration shape.
func Load() (Config, error) {
	var c Config
	if err := yaml.Unmarshal(defaultsYAML, &c); err != nil {
		return Config{}, err
	}

	c.GoogleMapsAPIKey = os.Getenv("GOOGLE_MAPS_API_KEY")
	c.RedisURL = os.Getenv("REDIS_URL")
	c.DatabaseURL = os.Getenv("DATABASE_URL")
	c.Testing = envBool("TESTING", false)

	c.UseAPIByDefault = envBool("USE_API_BY_DEFAULT", c.UseAPIByDefault)
	c.MaxRetries = envInt("MAX_RETRIES", c.MaxRetries)
	c.BackoffFactor = envFloat("BACKOFF_FACTOR", c.BackoffFactor)
	c.RetryDelaySeconds = envInt("RETRY_DELAY_SECONDS", c.RetryDelaySeconds)
	c.CacheExpiryDays = envInt("CACHE_EXPIRY_DAYS", c.CacheExpiryDays)
	c.OptimizationResultCacheTimeoutS = envInt("OPTIMIZATION_RESULT_CACHE_TIMEOUT", c.OptimizationResultCacheTimeoutS)
	c.TimeLimitSeconds = envInt("TIME_LIMIT_SECONDS", c.TimeLimitSeconds)

	return c, nil
}

func envBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
