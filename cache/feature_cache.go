package cache

import (
	"context"
	"time"

	"github.com/skillsenselab/voiceid/feature"
	"github.com/skillsenselab/voiceid/logger"
)

// FeatureCacheConfig configures the tiered feature cache.
type FeatureCacheConfig struct {
	// TTL is the default lifetime of a cached feature vector.
	TTL time.Duration `mapstructure:"ttl"`

	// ExternalTimeout bounds each call to the external tier.
	ExternalTimeout time.Duration `mapstructure:"external_timeout"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *FeatureCacheConfig) ApplyDefaults() {
	if c.TTL <= 0 {
		c.TTL = time.Hour
	}
	if c.ExternalTimeout <= 0 {
		c.ExternalTimeout = 2 * time.Second
	}
}

// FeatureCache maps audio-content hashes to feature vectors across two
// tiers: a shared external tier (optional, may fail) and a local
// in-process tier (always available). External failures degrade
// silently to the local tier.
type FeatureCache struct {
	cfg      FeatureCacheConfig
	external Tier // nil when no external tier is configured
	local    *localTier
	log      *logger.Logger
}

// NewFeatureCache creates the cache. Pass a nil external tier to run
// local-only.
func NewFeatureCache(cfg FeatureCacheConfig, external Tier, log *logger.Logger) *FeatureCache {
	cfg.ApplyDefaults()
	return &FeatureCache{
		cfg:      cfg,
		external: external,
		local:    newLocalTier(),
		log:      log.WithComponent("feature-cache"),
	}
}

// TTL returns the configured default entry lifetime.
func (c *FeatureCache) TTL() time.Duration { return c.cfg.TTL }

// Get returns the cached vector for an audio hash, trying the external
// tier first and falling back to the local tier. Expired entries are
// reported as misses.
func (c *FeatureCache) Get(ctx context.Context, audioHash string) (feature.Vector, bool) {
	if c.external != nil {
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.ExternalTimeout)
		vec, ok, err := c.external.Get(callCtx, audioHash)
		cancel()
		switch {
		case err != nil:
			c.degraded("get", audioHash, err)
		case ok:
			return vec, true
		}
	}
	return c.local.get(audioHash)
}

// Put stores a vector in both tiers. A non-positive TTL produces an
// entry that is already expired, which the read contract reports as a
// miss. External write failures degrade to local-only.
func (c *FeatureCache) Put(ctx context.Context, audioHash string, vec feature.Vector, ttl time.Duration) {
	if c.external != nil && ttl > 0 {
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.ExternalTimeout)
		err := c.external.Put(callCtx, audioHash, vec, ttl)
		cancel()
		if err != nil {
			c.degraded("put", audioHash, err)
		}
	}
	c.local.put(audioHash, vec, ttl)
}

// LocalLen returns the local tier entry count, including entries that
// expired but have not been read since. Useful for observability.
func (c *FeatureCache) LocalLen() int { return c.local.len() }

func (c *FeatureCache) degraded(op, audioHash string, err error) {
	c.log.WithError(err).Warn("external cache tier unavailable, using local tier", map[string]interface{}{
		"op":                  op,
		logger.FieldAudioHash: audioHash,
		logger.FieldCacheTier: "external",
	})
}
