package model

import (
	"path/filepath"
	"time"
)

// Config holds every tunable of the curation tool
type Config struct {
	Repository  RepositoryConfig  `yaml:"repository" mapstructure:"repository"`
	Curator     CuratorConfig     `yaml:"curator" mapstructure:"curator"`
	Registry    RegistryConfig    `yaml:"registry" mapstructure:"registry"`
	Xrefs       XrefConfig        `yaml:"xrefs" mapstructure:"xrefs"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// RepositoryConfig locates the four mapping sets and the curators table
type RepositoryConfig struct {
	Dir           string `yaml:"dir" mapstructure:"dir"`
	Positive      string `yaml:"positive" mapstructure:"positive"`
	Negative      string `yaml:"negative" mapstructure:"negative"`
	Unsure        string `yaml:"unsure" mapstructure:"unsure"`
	Predicted     string `yaml:"predicted" mapstructure:"predicted"`
	Curators      string `yaml:"curators" mapstructure:"curators"`
	PURLBase      string `yaml:"purl_base" mapstructure:"purl_base"`           // Prefix for mapping_set_id
	Title         string `yaml:"title" mapstructure:"title"`                   // mapping_set_title written to headers
	License       string `yaml:"license" mapstructure:"license"`               // license written to headers
	TrustedAuthor string `yaml:"trusted_author" mapstructure:"trusted_author"` // Author namespace preferred when deduplicating
}

// CuratorConfig overrides the OS login used to look up the current curator
type CuratorConfig struct {
	User string `yaml:"user" mapstructure:"user"`
}

// RegistryConfig points at an optional YAML file with extra prefixes
type RegistryConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// XrefConfig configures the external cross-reference provider
type XrefConfig struct {
	Dir               string        `yaml:"dir" mapstructure:"dir"`           // Local <prefix>.tsv files
	BaseURL           string        `yaml:"base_url" mapstructure:"base_url"` // Remote mirror serving <prefix>.tsv
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent         string        `yaml:"user_agent" mapstructure:"user_agent"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
	RespectRobots     bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	MaxBodyBytes      int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy         string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy        string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy           string        `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// CacheConfig configures the provider lookup cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig bounds parallel provider fetches
type ConcurrencyConfig struct {
	FetchWorkers int `yaml:"fetch_workers" mapstructure:"fetch_workers"`
}

// ServerConfig configures the curation web surface
type ServerConfig struct {
	Addr         string `yaml:"addr" mapstructure:"addr"`
	ResolverBase string `yaml:"resolver_base" mapstructure:"resolver_base"`
}

// OutputConfig controls CLI output
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Repository: RepositoryConfig{
			Dir:           "resources",
			Positive:      "positive.sssom.tsv",
			Negative:      "negative.sssom.tsv",
			Unsure:        "unsure.sssom.tsv",
			Predicted:     "predictions.sssom.tsv",
			Curators:      "curators.tsv",
			PURLBase:      "https://w3id.org/biomappings",
			Title:         "biomappings",
			License:       "https://creativecommons.org/publicdomain/zero/1.0/",
			TrustedAuthor: AuthorPrefix,
		},
		Xrefs: XrefConfig{
			Timeout:           30 * time.Second,
			UserAgent:         "biomap/0.1 (+https://github.com/ppiankov/biomap)",
			RequestsPerSecond: 2,
			Burst:             2,
			RespectRobots:     true,
			MaxBodyBytes:      64 << 20,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       filepath.Join(".cache", "biomap"),
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			FetchWorkers: 4,
		},
		Server: ServerConfig{
			Addr:         "127.0.0.1:5000",
			ResolverBase: "https://bioregistry.io",
		},
	}
}

// SetPath resolves the file backing a set
func (c RepositoryConfig) SetPath(name SetName) string {
	var file string
	switch name {
	case SetPositive:
		file = c.Positive
	case SetNegative:
		file = c.Negative
	case SetUnsure:
		file = c.Unsure
	case SetPredicted:
		file = c.Predicted
	default:
		return ""
	}
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(c.Dir, file)
}

// CuratorsPath resolves the curators table
func (c RepositoryConfig) CuratorsPath() string {
	if filepath.IsAbs(c.Curators) {
		return c.Curators
	}
	return filepath.Join(c.Dir, c.Curators)
}
