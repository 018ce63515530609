package model

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Config is the complete tabrules configuration
type Config struct {
	Convert      ConvertConfig      `yaml:"convert" mapstructure:"convert"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Logging      LoggingConfig      `yaml:"logging" mapstructure:"logging"`
}

// ConvertConfig controls how bookmarks become rules
type ConvertConfig struct {
	Policy          string   `yaml:"policy" mapstructure:"policy"`                     // eager or lazy
	Format          string   `yaml:"format" mapstructure:"format"`                     // empty = detect
	DefaultFolder   string   `yaml:"default_folder" mapstructure:"default_folder"`     // group for unfiled bookmarks
	ExcludeFolders  []string `yaml:"exclude_folders" mapstructure:"exclude_folders"`   // glob patterns
	StrictHostnames bool     `yaml:"strict_hostnames" mapstructure:"strict_hostnames"` // fail on underivable hostnames
}

// OutputConfig controls where documents are written
type OutputConfig struct {
	Dir      string `yaml:"dir" mapstructure:"dir"`
	Filename string `yaml:"filename" mapstructure:"filename"` // fixed or timestamped
	Verbose  bool   `yaml:"verbose" mapstructure:"verbose"`
}

// HTTPConfig controls fetching of remote bookmark sources
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	InsecureTLS  bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	HTTPProxy    string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// CacheConfig controls caching of fetched sources
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig controls batch parallelism
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitingConfig throttles remote fetches per host
type RateLimitingConfig struct {
	RequestsPerSecond float64    `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int        `yaml:"burst_size" mapstructure:"burst_size"`
	Hosts             []HostRate `yaml:"hosts" mapstructure:"hosts"`
}

// HostRate overrides the rate limit for one host
type HostRate struct {
	Host              string  `yaml:"host" mapstructure:"host"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// LoggingConfig controls the log file
type LoggingConfig struct {
	File string `yaml:"file" mapstructure:"file"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Convert: ConvertConfig{
			Policy:        "eager",
			DefaultFolder: DefaultFolder,
		},
		Output: OutputConfig{
			Dir:      ".",
			Filename: "fixed",
		},
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "tabrules/0.1 (+https://github.com/ppiankov/tabrules)",
			MaxBodyBytes: 20_000_000,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       filepath.Join(xdg.CacheHome, "tabrules"),
			MemoryTTL: 10 * time.Minute,
			DiskTTL:   time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         2,
		},
	}
}
