package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/skillsenselab/voiceid/cache"
	"github.com/skillsenselab/voiceid/classify"
	"github.com/skillsenselab/voiceid/codec"
	"github.com/skillsenselab/voiceid/feature"
	"github.com/skillsenselab/voiceid/logger"
	"github.com/skillsenselab/voiceid/observability"
	"github.com/skillsenselab/voiceid/processor"
	"github.com/skillsenselab/voiceid/profile"
	"github.com/skillsenselab/voiceid/redis"
)

// Config is the full engine configuration tree.
type Config struct {
	Logger        logger.Config            `mapstructure:"logger"`
	Redis         redis.Config             `mapstructure:"redis"`
	FeatureCache  cache.FeatureCacheConfig `mapstructure:"feature_cache"`
	SimilarityTTL time.Duration            `mapstructure:"similarity_ttl"`
	Extractor     feature.ExtractorConfig  `mapstructure:"extractor"`
	FFmpeg        codec.FFmpegConfig       `mapstructure:"ffmpeg"`
	Processor     processor.Config         `mapstructure:"processor"`
	Cascade       classify.CascadeConfig   `mapstructure:"cascade"`
	Profiles      ProfilesConfig           `mapstructure:"profiles"`
	Observability observability.Config     `mapstructure:"observability"`
}

// ProfilesConfig selects where voice profiles come from.
type ProfilesConfig struct {
	// Enabled turns on the REST source. Disabled means the store
	// starts empty and is fed by ReloadProfiles against a custom
	// source or not at all.
	Enabled bool `mapstructure:"enabled"`

	REST profile.RESTConfig `mapstructure:"rest"`
}

// ApplyDefaults fills zero-valued fields across all sections.
func (c *Config) ApplyDefaults() {
	c.Logger.ApplyDefaults()
	c.FeatureCache.ApplyDefaults()
	if c.SimilarityTTL <= 0 {
		c.SimilarityTTL = 30 * time.Minute
	}
	c.Extractor.ApplyDefaults()
	c.FFmpeg.ApplyDefaults()
	c.Processor.ApplyDefaults()
	c.Cascade.Voice.ApplyDefaults()
	c.Cascade.Text.ApplyDefaults()
	c.Profiles.REST.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate checks the sections that are switched on.
func (c *Config) Validate() error {
	v := validator.New()

	if c.Redis.Enabled {
		if err := c.Redis.Validate(); err != nil {
			return fmt.Errorf("config: redis: %w", err)
		}
	}
	if c.Profiles.Enabled {
		if err := v.Struct(c.Profiles.REST); err != nil {
			return fmt.Errorf("config: profiles: %w", err)
		}
	}
	return nil
}
