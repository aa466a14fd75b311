package types

import "time"

// Config groups all settings for the serp-evals CLI. It is populated by
// viper from serp-evals.yaml, SERP_EVALS_* environment variables, and flags.
type Config struct {
	Log      LogConfig      `json:"log" yaml:"log" mapstructure:"log"`
	Search   SearchConfig   `json:"search" yaml:"search" mapstructure:"search"`
	Evaluate EvaluateConfig `json:"evaluate" yaml:"evaluate" mapstructure:"evaluate"`
	Rank     RankConfig     `json:"rank" yaml:"rank" mapstructure:"rank"`
	Secrets  SecretsConfig  `json:"secrets" yaml:"secrets" mapstructure:"secrets"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	// Level is a logrus level name (debug, info, warn, error). Unknown values fall back to info.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// File, when set, receives a copy of every log line.
	File string `json:"file" yaml:"file" mapstructure:"file"`
}

// HTTPConfig holds shared HTTP settings used by the search backends.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// RetryConfig is the retry policy for transient network failures.
type RetryConfig struct {
	MaxAttempts int           `json:"max_attempts" yaml:"max_attempts" mapstructure:"max_attempts"`
	BaseDelay   time.Duration `json:"base_delay" yaml:"base_delay" mapstructure:"base_delay"`
	MaxDelay    time.Duration `json:"max_delay" yaml:"max_delay" mapstructure:"max_delay"`
}

// SearchConfig holds settings for the fetch stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Backend selects the search service: "serphouse" or "discovery".
	Backend string `json:"backend" yaml:"backend" mapstructure:"backend"`

	// RatePerSecond caps outgoing search calls. Zero disables the limit.
	RatePerSecond float64 `json:"rate_per_second" yaml:"rate_per_second" mapstructure:"rate_per_second"`

	Retry     RetryConfig     `json:"retry" yaml:"retry" mapstructure:"retry"`
	SerpHouse SerpHouseConfig `json:"serphouse" yaml:"serphouse" mapstructure:"serphouse"`
	Discovery DiscoveryConfig `json:"discovery" yaml:"discovery" mapstructure:"discovery"`
}

// SerpHouseConfig holds the SerpHouse live SERP request parameters.
type SerpHouseConfig struct {
	Endpoint  string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`
	APIKey    string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`
	Domain    string `json:"domain" yaml:"domain" mapstructure:"domain"`
	Lang      string `json:"lang" yaml:"lang" mapstructure:"lang"`
	Device    string `json:"device" yaml:"device" mapstructure:"device"`
	SerpType  string `json:"serp_type" yaml:"serp_type" mapstructure:"serp_type"`
	Location  string `json:"loc" yaml:"loc" mapstructure:"loc"`
	NumResult int    `json:"num_result" yaml:"num_result" mapstructure:"num_result"`
}

// DiscoveryConfig identifies the Discovery Engine data store to query.
type DiscoveryConfig struct {
	ProjectID     string `json:"project_id" yaml:"project_id" mapstructure:"project_id"`
	Location      string `json:"location" yaml:"location" mapstructure:"location"`
	DataStoreID   string `json:"data_store_id" yaml:"data_store_id" mapstructure:"data_store_id"`
	ServingConfig string `json:"serving_config" yaml:"serving_config" mapstructure:"serving_config"`
	PageSize      int    `json:"page_size" yaml:"page_size" mapstructure:"page_size"`

	// Endpoint overrides the service endpoint derived from Location.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" mapstructure:"endpoint"`
}

// EvaluateConfig holds settings for the evaluation run.
type EvaluateConfig struct {
	// QueryTemplate is a fmt template receiving the company name and site URL.
	QueryTemplate string `json:"query_template" yaml:"query_template" mapstructure:"query_template"`
}

// RankConfig holds settings for the filter/rank stage.
type RankConfig struct {
	// AllowedYears are substrings a creation date must contain to be kept.
	AllowedYears []string `json:"allowed_years" yaml:"allowed_years" mapstructure:"allowed_years"`
}

// SecretsConfig locates credential files.
type SecretsConfig struct {
	// Dir is a directory of one-file-per-secret keys.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// KeysFile is a YAML credentials file (serphouse.key).
	KeysFile string `json:"keys_file" yaml:"keys_file" mapstructure:"keys_file"`
}
