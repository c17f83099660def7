package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// DatabaseURL is optional: without it the source registry comes from
	// the YAML file alone and ranking runs are not audited.
	DatabaseURL string `envconfig:"DATABASE_URL" default:""`
	DBMinConns  int32  `envconfig:"NR_DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"NR_DB_MAX_CONNS" default:"8"`

	SourcesFile string `envconfig:"NR_SOURCES_FILE" default:"sources.yaml"`

	SimilarityThreshold    float64 `envconfig:"NR_SIMILARITY_THRESHOLD" default:"0.6"`
	CorroborationThreshold float64 `envconfig:"NR_CORROBORATION_THRESHOLD" default:"0.5"`
	DefaultPreset          string  `envconfig:"NR_DEFAULT_PRESET" default:"quality"`
	DefaultLimit           int     `envconfig:"NR_DEFAULT_LIMIT" default:"20"`
	MaxLimit               int     `envconfig:"NR_MAX_LIMIT" default:"200"`
	DiversityCap           int     `envconfig:"NR_DIVERSITY_CAP" default:"3"`
	FreshnessHalfLifeHours int     `envconfig:"NR_FRESHNESS_HALF_LIFE_HOURS" default:"24"`

	ListenAddr         string `envconfig:"NR_LISTEN_ADDR" default:":8080"`
	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:""`

	// When both are set, mutating API routes require HTTP basic auth.
	AdminUser         string `envconfig:"NR_ADMIN_USER" default:""`
	AdminPasswordHash string `envconfig:"NR_ADMIN_PASSWORD_HASH" default:""`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DBMinConns < 0 {
		return fmt.Errorf("NR_DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("NR_DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("NR_DB_MIN_CONNS (%d) cannot exceed NR_DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("NR_SIMILARITY_THRESHOLD must be within [0,1]")
	}
	if c.CorroborationThreshold < 0 || c.CorroborationThreshold > 1 {
		return fmt.Errorf("NR_CORROBORATION_THRESHOLD must be within [0,1]")
	}
	if strings.TrimSpace(c.DefaultPreset) == "" {
		return fmt.Errorf("NR_DEFAULT_PRESET is required")
	}
	if c.DefaultLimit < 1 {
		return fmt.Errorf("NR_DEFAULT_LIMIT must be >= 1")
	}
	if c.MaxLimit < c.DefaultLimit {
		return fmt.Errorf("NR_MAX_LIMIT (%d) cannot be below NR_DEFAULT_LIMIT (%d)", c.MaxLimit, c.DefaultLimit)
	}
	if c.DiversityCap < 0 {
		return fmt.Errorf("NR_DIVERSITY_CAP must be >= 0")
	}
	if c.FreshnessHalfLifeHours < 1 {
		return fmt.Errorf("NR_FRESHNESS_HALF_LIFE_HOURS must be >= 1")
	}
	if strings.TrimSpace(c.ListenAddr) == "" {
		return fmt.Errorf("NR_LISTEN_ADDR is required")
	}
	hasUser := strings.TrimSpace(c.AdminUser) != ""
	hasHash := strings.TrimSpace(c.AdminPasswordHash) != ""
	if hasUser != hasHash {
		return fmt.Errorf("NR_ADMIN_USER and NR_ADMIN_PASSWORD_HASH must be set together")
	}
	return nil
}

// HasDatabase reports whether a database connection is configured.
func (c *Config) HasDatabase() bool {
	return c != nil && strings.TrimSpace(c.DatabaseURL) != ""
}

func (c *Config) CORSAllowedOriginsList() []string {
	if c == nil {
		return nil
	}

	parts := strings.Split(c.CORSAllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		if _, exists := seen[origin]; exists {
			continue
		}
		seen[origin] = struct{}{}
		origins = append(origins, origin)
	}
	return origins
}
