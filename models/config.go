// Package models defines data structures for configuration and collected snapshots.
package models

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultDBPath = "book_rankings.db"

// DefaultURLs are the product pages of the monitored title.
var DefaultURLs = map[SourceID]string{
	SourceKyobo:  "https://product.kyobobook.co.kr/detail/S000217241525",
	SourceYes24:  "https://www.yes24.com/product/goods/150701473",
	SourceAladin: "https://www.aladin.co.kr/shop/wproduct.aspx?ItemId=369431124",
}

// Config holds runtime configuration for collection and queries.
// Values come from defaults, then the YAML file, then DB_PATH, then CLI flags.
type Config struct {
	DBPath            string              `yaml:"db_path"`
	Interval          time.Duration       `yaml:"interval"`
	Poll              time.Duration       `yaml:"poll"`
	Pace              time.Duration       `yaml:"pace"`
	Timeout           time.Duration       `yaml:"timeout"`
	RequestsPerSecond float64             `yaml:"requests_per_second"`
	UserAgent         string              `yaml:"user_agent"`
	SaveJSONDir       string              `yaml:"save_json_dir"`
	DumpHTMLDir       string              `yaml:"dump_html_dir"`
	Sources           map[SourceID]string `yaml:"sources"`
}

// DefaultConfig returns the configuration used when nothing else is given.
func DefaultConfig() *Config {
	urls := make(map[SourceID]string, len(DefaultURLs))
	for k, v := range DefaultURLs {
		urls[k] = v
	}
	return &Config{
		DBPath:            DefaultDBPath,
		Interval:          30 * time.Minute,
		Poll:              time.Minute,
		Pace:              time.Second,
		Timeout:           30 * time.Second,
		RequestsPerSecond: 2,
		Sources:           urls,
	}
}

// LoadConfig reads path on top of the defaults. An empty path or a missing
// file yields the defaults. DB_PATH overrides db_path when set.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			var fileCfg Config
			if err := yaml.Unmarshal(data, &fileCfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
			var set explicitKeys
			if err := yaml.Unmarshal(data, &set); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
			cfg.merge(&fileCfg, &set)
		}
	}

	if env := os.Getenv("DB_PATH"); env != "" {
		cfg.DBPath = env
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// explicitKeys records keys where a zero in the file is meaningful:
// pace 0 disables pacing and requests_per_second 0 disables the limiter.
type explicitKeys struct {
	Pace              *time.Duration `yaml:"pace"`
	RequestsPerSecond *float64       `yaml:"requests_per_second"`
}

func (c *Config) merge(o *Config, set *explicitKeys) {
	if o.DBPath != "" {
		c.DBPath = o.DBPath
	}
	if o.Interval > 0 {
		c.Interval = o.Interval
	}
	if o.Poll > 0 {
		c.Poll = o.Poll
	}
	if set.Pace != nil {
		c.Pace = *set.Pace
	}
	if o.Timeout > 0 {
		c.Timeout = o.Timeout
	}
	if set.RequestsPerSecond != nil {
		c.RequestsPerSecond = *set.RequestsPerSecond
	}
	if o.UserAgent != "" {
		c.UserAgent = o.UserAgent
	}
	if o.SaveJSONDir != "" {
		c.SaveJSONDir = o.SaveJSONDir
	}
	if o.DumpHTMLDir != "" {
		c.DumpHTMLDir = o.DumpHTMLDir
	}
	for id, u := range o.Sources {
		if u != "" {
			c.Sources[id] = u
		}
	}
}

// Validate rejects unknown sources and non-positive intervals.
func (c *Config) Validate() error {
	for id := range c.Sources {
		if SourceFields(id) == nil {
			return fmt.Errorf("unknown source %q (use: %s, %s, %s)", id, SourceKyobo, SourceYes24, SourceAladin)
		}
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", c.Interval)
	}
	if c.Poll <= 0 {
		return fmt.Errorf("poll must be positive, got %s", c.Poll)
	}
	if c.Pace < 0 {
		return fmt.Errorf("pace must not be negative, got %s", c.Pace)
	}
	return nil
}
