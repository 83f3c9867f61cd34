package model

import "time"

// Config is the process-wide configuration object. It is constructed once
// at startup (flags > env > config file > defaults) and injected into the
// engine; nothing mutates it afterwards.
type Config struct {
	Provider     ProviderConfig     `yaml:"provider" json:"provider"`
	Search       SearchConfig       `yaml:"search" json:"search"`
	Cache        CacheConfig        `yaml:"cache" json:"cache"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" json:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" json:"rate_limiting"`
	Temporal     TemporalConfig     `yaml:"temporal" json:"temporal"`
	Scoring      ScoringConfig      `yaml:"scoring" json:"scoring"`
	Output       OutputConfig       `yaml:"output" json:"output"`
}

// ProviderConfig configures the AI text-judgment provider
type ProviderConfig struct {
	Name       string `yaml:"name" json:"name"` // openai, anthropic, ollama, "" (disabled)
	Model      string `yaml:"model" json:"model"`
	APIKey     string `yaml:"api_key,omitempty" json:"-"`
	BaseURL    string `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	Timeout    int    `yaml:"timeout" json:"timeout"` // seconds
	MaxTokens  int    `yaml:"max_tokens" json:"max_tokens"`
	MaxRetries int    `yaml:"max_retries" json:"max_retries"`
	HTTPProxy  string `yaml:"http_proxy,omitempty" json:"http_proxy,omitempty"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" json:"https_proxy,omitempty"`
}

// SearchConfig configures the duplicate-content search collaborator
type SearchConfig struct {
	Endpoint      string        `yaml:"endpoint" json:"endpoint"`
	APIKey        string        `yaml:"api_key,omitempty" json:"-"`
	Timeout       time.Duration `yaml:"timeout" json:"timeout"`
	MaxResults    int           `yaml:"max_results" json:"max_results"`
	VerifyOrigins bool          `yaml:"verify_origins" json:"verify_origins"`
	UserAgent     string        `yaml:"user_agent" json:"user_agent"`
}

// CacheConfig controls result caching
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" json:"enabled"`
	MemoryTTL time.Duration `yaml:"memory_ttl" json:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" json:"disk_ttl"`
	DiskDir   string        `yaml:"disk_dir" json:"disk_dir"` // empty disables the disk layer
}

// ConcurrencyConfig bounds parallel work
type ConcurrencyConfig struct {
	Workers         int `yaml:"workers" json:"workers"`                   // batch worker pool size
	AnalyzerTimeout int `yaml:"analyzer_timeout" json:"analyzer_timeout"` // seconds, per variant
}

// RateLimitingConfig throttles outbound provider/search calls
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" json:"burst_size"`
}

// TemporalConfig holds the spread-forensics thresholds. These are tunable
// parameters, not fixed constants.
type TemporalConfig struct {
	RapidVelocity    float64       `yaml:"rapid_velocity" json:"rapid_velocity"`         // sightings/hour
	ClusterWindow    time.Duration `yaml:"cluster_window" json:"cluster_window"`         // coordinated-timing window
	ClusterSize      int           `yaml:"cluster_size" json:"cluster_size"`             // sightings per window
	BotIntervalCV    float64       `yaml:"bot_interval_cv" json:"bot_interval_cv"`       // coefficient-of-variation ceiling
	MinBotIntervals  int           `yaml:"min_bot_intervals" json:"min_bot_intervals"`   // intervals needed for the bot check
	HighConfidenceAt int           `yaml:"high_confidence_at" json:"high_confidence_at"` // sample size for full confidence
}

// ScoringConfig holds aggregation parameters
type ScoringConfig struct {
	NeutralScore  float64 `yaml:"neutral_score" json:"neutral_score"` // all-failed fallback
	PenaltyHigh   float64 `yaml:"penalty_high" json:"penalty_high"`
	PenaltyMedium float64 `yaml:"penalty_medium" json:"penalty_medium"`
	PenaltyLow    float64 `yaml:"penalty_low" json:"penalty_low"`
}

// OutputConfig controls CLI rendering
type OutputConfig struct {
	Verbose bool `yaml:"verbose" json:"verbose"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			Name:       "", // disabled unless configured
			Timeout:    30,
			MaxTokens:  1024,
			MaxRetries: 3,
		},
		Search: SearchConfig{
			Timeout:       15 * time.Second,
			MaxResults:    25,
			VerifyOrigins: true,
			UserAgent:     "Veridict/0.1 (+https://github.com/veridict/veridict)",
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers:         4,
			AnalyzerTimeout: 30,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         5,
		},
		Temporal: TemporalConfig{
			RapidVelocity:    10,
			ClusterWindow:    15 * time.Minute,
			ClusterSize:      5,
			BotIntervalCV:    0.1,
			MinBotIntervals:  3,
			HighConfidenceAt: 10,
		},
		Scoring: ScoringConfig{
			NeutralScore:  50,
			PenaltyHigh:   12,
			PenaltyMedium: 7,
			PenaltyLow:    3,
		},
	}
}
