package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	AppPort int `yaml:"app_port"`

	Search SearchConfig `yaml:"search"`
	Scrape ScrapeConfig `yaml:"scrape"`
	Cache  CacheConfig  `yaml:"cache"`
	LLM    LLMConfig    `yaml:"llm"`
}

type SearchConfig struct {
	APIKey        string        `yaml:"api_key"`
	BaseURL       string        `yaml:"base_url"`
	Region        string        `yaml:"region"`
	Language      string        `yaml:"language"`
	ResultsPerQry int           `yaml:"results_per_query"`
	MaxQueries    int           `yaml:"max_queries"`
	MaxResults    int           `yaml:"max_results"`
	PerDomainCap  int           `yaml:"per_domain_cap"`
	MaxConcurrent int           `yaml:"max_concurrent"`
	MinInterval   time.Duration `yaml:"min_interval"`
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryBaseWait time.Duration `yaml:"retry_base_wait"`
}

type ScrapeConfig struct {
	MaxPages           int           `yaml:"max_pages"`
	ProbeTimeout       time.Duration `yaml:"probe_timeout"`
	FetchTimeout       time.Duration `yaml:"fetch_timeout"`
	MaxRedirects       int           `yaml:"max_redirects"`
	MaxBodyBytes       int64         `yaml:"max_body_bytes"`
	StreamCapBytes     int64         `yaml:"stream_cap_bytes"`
	LargePageBytes     int           `yaml:"large_page_bytes"`
	MaxContentLength   int           `yaml:"max_content_length"`
	MinQualityLength   int           `yaml:"min_quality_length"`
	MinJitter          time.Duration `yaml:"min_jitter"`
	MaxJitter          time.Duration `yaml:"max_jitter"`
	ContentCacheTTL    time.Duration `yaml:"content_cache_ttl"`
	ValidateConcurrent int           `yaml:"validate_concurrent"`
	ValidateInterval   time.Duration `yaml:"validate_interval"`
}

type CacheConfig struct {
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
	DBPath     string        `yaml:"db_path"`
}

type LLMConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	return &Config{
		AppPort: 8080,
		Search: SearchConfig{
			BaseURL:       "https://google.serper.dev/search",
			Region:        "br",
			Language:      "pt-br",
			ResultsPerQry: 10,
			MaxQueries:    4,
			MaxResults:    5,
			PerDomainCap:  2,
			MaxConcurrent: 2,
			MinInterval:   time.Second,
			RetryAttempts: 3,
			RetryBaseWait: 500 * time.Millisecond,
		},
		Scrape: ScrapeConfig{
			MaxPages:           5,
			ProbeTimeout:       5 * time.Second,
			FetchTimeout:       15 * time.Second,
			MaxRedirects:       5,
			MaxBodyBytes:       2 << 20,
			StreamCapBytes:     5 << 20,
			LargePageBytes:     300 << 10,
			MaxContentLength:   8000,
			MinQualityLength:   200,
			MinJitter:          time.Second,
			MaxJitter:          3 * time.Second,
			ContentCacheTTL:    5 * time.Minute,
			ValidateConcurrent: 5,
			ValidateInterval:   200 * time.Millisecond,
		},
		Cache: CacheConfig{
			TTL:        time.Hour,
			MaxEntries: 100,
		},
	}
}

// Load reads the YAML file at path on top of defaults, then applies
// environment overrides for secrets. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if v := os.Getenv("SEARCH_API_KEY"); v != "" {
		cfg.Search.APIKey = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("CACHE_DB_PATH"); v != "" {
		cfg.Cache.DBPath = v
	}

	return cfg, nil
}
