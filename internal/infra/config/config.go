// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Station   StationConfig   `yaml:"station"`
	Playlist  PlaylistConfig  `yaml:"playlist"`
	Clock     ClockConfig     `yaml:"clock"`
	Resolver  ResolverConfig  `yaml:"resolver"`
	Extractor ExtractorConfig `yaml:"extractor"`
}

// ServerConfig represents HTTP server configuration.
type ServerConfig struct {
	Addr         string `yaml:"addr" default:":8080"`
	ShareBaseURL string `yaml:"share_base_url" default:"http://localhost:8080" validate:"url"`
}

// StationConfig represents station identity configuration.
type StationConfig struct {
	Name        string `yaml:"name" default:"Rockwave Radio"`
	Description string `yaml:"description" default:"Now playing on Rockwave Radio"`
}

// PlaylistConfig represents the seed playlist configuration.
type PlaylistConfig struct {
	NoShuffle bool        `yaml:"no_shuffle"` // Skip the one-time startup shuffle
	Seed      []SeedEntry `yaml:"seed" validate:"dive"`
}

// SeedEntry represents one seed playlist entry. Title and artist are
// optional; the extractor's metadata fills whatever is missing.
type SeedEntry struct {
	SourceURL string `yaml:"source_url" validate:"required,url"`
	Title     string `yaml:"title"`
	Artist    string `yaml:"artist"`
}

// ClockConfig represents broadcast clock configuration.
type ClockConfig struct {
	UpcomingCount   int `yaml:"upcoming_count" default:"3" validate:"gte=1,lte=10"`
	MinTrackSeconds int `yaml:"min_track_seconds" default:"30" validate:"gte=1"`
}

// ResolverConfig represents audio link resolver configuration.
type ResolverConfig struct {
	RefreshMarginMinutes int `yaml:"refresh_margin_minutes" default:"20" validate:"gte=1"`
	FallbackTTLMinutes   int `yaml:"fallback_ttl_minutes" default:"120" validate:"gte=1"`
}

// ExtractorConfig represents the external extractor configuration.
type ExtractorConfig struct {
	Type     string         `yaml:"type" default:"ytdlp" validate:"required"`
	Settings map[string]any `yaml:"settings"`
}

// Load loads configuration from a YAML file. Environment variables take
// precedence over file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	cfg.overrideFromEnv()

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("RADIO_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("RADIO_SHARE_BASE_URL"); v != "" {
		c.Server.ShareBaseURL = v
	}
	if v := os.Getenv("YTDLP_PATH"); v != "" {
		if c.Extractor.Settings == nil {
			c.Extractor.Settings = make(map[string]any)
		}
		c.Extractor.Settings["binary_path"] = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}

// RefreshMargin returns the resolver refresh margin as a duration.
func (c *Config) RefreshMargin() time.Duration {
	return time.Duration(c.Resolver.RefreshMarginMinutes) * time.Minute
}

// FallbackTTL returns the assumed stream URL lifetime as a duration.
func (c *Config) FallbackTTL() time.Duration {
	return time.Duration(c.Resolver.FallbackTTLMinutes) * time.Minute
}

// MinTrackDuration returns the duration floor applied to added tracks.
func (c *Config) MinTrackDuration() time.Duration {
	return time.Duration(c.Clock.MinTrackSeconds) * time.Second
}
