// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// outbound requests.
type HTTPConfig struct {
	// Timeout bounds every outbound request made by the component.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with outbound requests
	// (e.g. "arxivpulse/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// AllowedOrigins lists CORS origins; empty allows any origin.
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins" mapstructure:"allowed_origins"`

	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`

	// StreamTimeout bounds a single chat stream, including the PDF fetch.
	StreamTimeout time.Duration `json:"stream_timeout" yaml:"stream_timeout" mapstructure:"stream_timeout"`
}

// DiscoveryConfig holds settings for the arXiv discovery pipeline.
type DiscoveryConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL overrides the arXiv query endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// PageSize is the default page size (default 20).
	PageSize int `json:"page_size" yaml:"page_size" mapstructure:"page_size"`

	// DefaultCategory is used when a query sets no filter at all (default "cs.AI").
	DefaultCategory string `json:"default_category" yaml:"default_category" mapstructure:"default_category"`

	// RequestInterval is the minimum spacing between arXiv requests (default 3s).
	RequestInterval time.Duration `json:"request_interval" yaml:"request_interval" mapstructure:"request_interval"`

	// MaxRetries caps retries on HTTP 429/503 (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// EnrichmentConfig holds settings for the best-effort metrics lookups.
type EnrichmentConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty" mapstructure:"semantic_scholar_api_key"`
	AltmetricAPIKey       string `json:"altmetric_api_key,omitempty" yaml:"altmetric_api_key,omitempty" mapstructure:"altmetric_api_key"`

	// RelatedLimit is the number of related papers requested per record
	// (default 5, 0 disables the lookup).
	RelatedLimit int `json:"related_limit" yaml:"related_limit" mapstructure:"related_limit"`

	// Concurrency bounds parallel per-record lookups (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`

	// CacheTTL is how long a successful lookup is reused (default 6h).
	CacheTTL time.Duration `json:"cache_ttl" yaml:"cache_ttl" mapstructure:"cache_ttl"`

	// CacheSize is the in-memory cache capacity (default 512).
	CacheSize int `json:"cache_size" yaml:"cache_size" mapstructure:"cache_size"`

	// CachePath selects a SQLite cache file instead of the in-memory cache.
	CachePath string `json:"cache_path,omitempty" yaml:"cache_path,omitempty" mapstructure:"cache_path"`
}

// GenAIConfig holds settings for the generative text service used by chat.
type GenAIConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// Model is the model identifier (default "gemini-1.5-flash").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// MaxPromptChars truncates paper text placed in prompts (default 400000).
	MaxPromptChars int `json:"max_prompt_chars" yaml:"max_prompt_chars" mapstructure:"max_prompt_chars"`
}

// SummarizerConfig holds settings for the flow-orchestration summarizer.
// When BaseURL or FlowID is empty, summaries fall back to the GenAI model.
type SummarizerConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`
	FlowID  string `json:"flow_id,omitempty" yaml:"flow_id,omitempty" mapstructure:"flow_id"`
	APIKey  string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Tweaks is passed to the flow unchanged.
	Tweaks map[string]any `json:"tweaks,omitempty" yaml:"tweaks,omitempty" mapstructure:"tweaks"`
}

// PDFConfig holds settings for PDF fetching and text extraction.
type PDFConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// MaxBytes caps a downloaded PDF (default 50 MiB).
	MaxBytes int64 `json:"max_bytes" yaml:"max_bytes" mapstructure:"max_bytes"`

	// CacheSize is the number of extracted texts kept in memory (default 32).
	CacheSize int `json:"cache_size" yaml:"cache_size" mapstructure:"cache_size"`
}

// LogConfig selects the logger flavour.
type LogConfig struct {
	// Level is one of debug, info, warn, error (default info).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Development switches to the human-readable console encoder.
	Development bool `json:"development" yaml:"development" mapstructure:"development"`
}

// Config groups all component configurations.
type Config struct {
	Server     ServerConfig     `json:"server" yaml:"server" mapstructure:"server"`
	Discovery  DiscoveryConfig  `json:"discovery" yaml:"discovery" mapstructure:"discovery"`
	Enrichment EnrichmentConfig `json:"enrichment" yaml:"enrichment" mapstructure:"enrichment"`
	GenAI      GenAIConfig      `json:"genai" yaml:"genai" mapstructure:"genai"`
	Summarizer SummarizerConfig `json:"summarizer" yaml:"summarizer" mapstructure:"summarizer"`
	PDF        PDFConfig        `json:"pdf" yaml:"pdf" mapstructure:"pdf"`
	Log        LogConfig        `json:"log" yaml:"log" mapstructure:"log"`
}

// DefaultUserAgent identifies outbound requests.
const DefaultUserAgent = "arxivpulse/0.1"

// DefaultConfig returns the configuration used when no file or
// environment override is present.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			StreamTimeout:   3 * time.Minute,
		},
		Discovery: DiscoveryConfig{
			HTTPConfig:      HTTPConfig{Timeout: 20 * time.Second, UserAgent: DefaultUserAgent},
			PageSize:        20,
			DefaultCategory: "cs.AI",
			RequestInterval: 3 * time.Second,
			MaxRetries:      3,
		},
		Enrichment: EnrichmentConfig{
			HTTPConfig:   HTTPConfig{Timeout: 5 * time.Second, UserAgent: DefaultUserAgent},
			RelatedLimit: 5,
			Concurrency:  4,
			CacheTTL:     6 * time.Hour,
			CacheSize:    512,
		},
		GenAI: GenAIConfig{
			HTTPConfig:     HTTPConfig{Timeout: 2 * time.Minute, UserAgent: DefaultUserAgent},
			Model:          "gemini-1.5-flash",
			MaxPromptChars: 400000,
		},
		Summarizer: SummarizerConfig{
			HTTPConfig: HTTPConfig{Timeout: time.Minute, UserAgent: DefaultUserAgent},
		},
		PDF: PDFConfig{
			HTTPConfig: HTTPConfig{Timeout: 60 * time.Second, UserAgent: DefaultUserAgent},
			MaxBytes:   50 << 20,
			CacheSize:  32,
		},
		Log: LogConfig{Level: "info"},
	}
}
