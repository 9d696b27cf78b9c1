// Package config loads engine configuration from YAML with environment
// variable overrides. Secrets live in env vars (optionally via .env locally);
// tunable scoring and analysis constants live in the YAML file so they can be
// adjusted without a rebuild.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the engine.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Similarity SimilarityConfig `yaml:"similarity"`
	Cache      CacheConfig      `yaml:"cache"`
	Scoring    ScoringConfig    `yaml:"scoring"`
	Analyzer   AnalyzerConfig   `yaml:"analyzer"`
	Voice      VoiceConfig      `yaml:"voice"`
	Batch      BatchConfig      `yaml:"batch"`
}

// ServerConfig holds the HTTP API listener settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns the host:port pair the server binds to.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds the Postgres corpus store settings.
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// RedisConfig holds the cache/lock store settings. An empty Addr disables
// Redis; the cache then runs in-memory and the batch lock falls back to
// Postgres advisory locks.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// SimilarityConfig holds the embedding provider settings. When APIKeyEnv
// resolves to an empty value the analyzer uses the keyword-overlap provider
// directly.
type SimilarityConfig struct {
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	APIKeyEnv      string `yaml:"api_key_env"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
}

// Timeout returns the provider call timeout as a duration.
func (c SimilarityConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CacheConfig holds research cache TTLs.
type CacheConfig struct {
	Prefix           string `yaml:"prefix"`
	ResearchTTLHours int    `yaml:"research_ttl_hours"`
	TopicTTLHours    int    `yaml:"topic_ttl_hours"`
	SweepMinutes     int    `yaml:"sweep_minutes"`
}

// ResearchTTL returns the TTL for cached research lookups.
func (c CacheConfig) ResearchTTL() time.Duration {
	return time.Duration(c.ResearchTTLHours) * time.Hour
}

// TopicTTL returns the TTL for cached similarity/pattern results.
func (c CacheConfig) TopicTTL() time.Duration {
	return time.Duration(c.TopicTTLHours) * time.Hour
}

// SweepInterval returns how often the cache sweep runs.
func (c CacheConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepMinutes) * time.Minute
}

// ScoringConfig exposes the tunable parts of the ICP scoring engine.
// The 80/40 thresholds mirror the product's documented behavior; they are
// conventions, not domain-validated constants.
type ScoringConfig struct {
	QualifiedThreshold int      `yaml:"qualified_threshold"`
	ReviewThreshold    int      `yaml:"review_threshold"`
	TargetSizeBuckets  []string `yaml:"target_size_buckets"`
	ICPTopics          []string `yaml:"icp_topics"`
}

// AnalyzerConfig holds analyzer defaults.
type AnalyzerConfig struct {
	DefaultLimit int `yaml:"default_limit"`
}

// VoiceConfig holds voice learner tunables.
type VoiceConfig struct {
	CommentWeight       float64 `yaml:"comment_weight"`
	RecencyHalfLifeDays int     `yaml:"recency_half_life_days"`
}

// BatchConfig holds batch orchestrator settings.
type BatchConfig struct {
	PageSize        int `yaml:"page_size"`
	IntervalMinutes int `yaml:"interval_minutes"`
	LockTTLMinutes  int `yaml:"lock_ttl_minutes"`
}

// Interval returns how often the worker triggers a full analysis run.
func (c BatchConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// LockTTL returns the distributed lock TTL for one run.
func (c BatchConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLMinutes) * time.Minute
}

// Load reads and parses the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Similarity.BaseURL == "" {
		cfg.Similarity.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Similarity.Model == "" {
		cfg.Similarity.Model = "text-embedding-3-small"
	}
	if cfg.Similarity.APIKeyEnv == "" {
		cfg.Similarity.APIKeyEnv = "SIMILARITY_API_KEY"
	}
	if cfg.Similarity.TimeoutSeconds == 0 {
		cfg.Similarity.TimeoutSeconds = 30
	}
	if cfg.Similarity.MaxRetries == 0 {
		cfg.Similarity.MaxRetries = 3
	}
	if cfg.Cache.Prefix == "" {
		cfg.Cache.Prefix = "research"
	}
	if cfg.Cache.ResearchTTLHours == 0 {
		cfg.Cache.ResearchTTLHours = 168 // 7 days
	}
	if cfg.Cache.TopicTTLHours == 0 {
		cfg.Cache.TopicTTLHours = 24
	}
	if cfg.Cache.SweepMinutes == 0 {
		cfg.Cache.SweepMinutes = 60
	}
	if cfg.Scoring.QualifiedThreshold == 0 {
		cfg.Scoring.QualifiedThreshold = 80
	}
	if cfg.Scoring.ReviewThreshold == 0 {
		cfg.Scoring.ReviewThreshold = 40
	}
	if len(cfg.Scoring.TargetSizeBuckets) == 0 {
		cfg.Scoring.TargetSizeBuckets = []string{"11-50", "51-200"}
	}
	if cfg.Analyzer.DefaultLimit == 0 {
		cfg.Analyzer.DefaultLimit = 5
	}
	if cfg.Voice.CommentWeight == 0 {
		cfg.Voice.CommentWeight = 0.3
	}
	if cfg.Voice.RecencyHalfLifeDays == 0 {
		cfg.Voice.RecencyHalfLifeDays = 180
	}
	if cfg.Batch.PageSize == 0 {
		cfg.Batch.PageSize = 200
	}
	if cfg.Batch.IntervalMinutes == 0 {
		cfg.Batch.IntervalMinutes = 360
	}
	if cfg.Batch.LockTTLMinutes == 0 {
		cfg.Batch.LockTTLMinutes = 30
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars in deployment.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("SIMILARITY_BASE_URL"); v != "" {
		cfg.Similarity.BaseURL = v
	}
	if v := os.Getenv("SIMILARITY_MODEL"); v != "" {
		cfg.Similarity.Model = v
	}

	return cfg, nil
}

// SimilarityAPIKey resolves the provider API key through the configured env
// var indirection. Empty means "no provider configured".
func (c *Config) SimilarityAPIKey() string {
	return os.Getenv(c.Similarity.APIKeyEnv)
}
