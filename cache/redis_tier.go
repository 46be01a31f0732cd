package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/skillsenselab/voiceid/feature"
	"github.com/skillsenselab/voiceid/redis"
)

// featureKeyPrefix namespaces feature entries in the shared tier.
const featureKeyPrefix = "voice_features"

// Tier is the external feature-cache tier. Implementations may be
// absent or unreachable; callers treat any error as a degradation
// signal, never a hard failure.
type Tier interface {
	Get(ctx context.Context, key string) (feature.Vector, bool, error)
	Put(ctx context.Context, key string, vec feature.Vector, ttl time.Duration) error
}

// RedisTier implements Tier on the shared Redis client, serializing
// vectors as JSON arrays.
type RedisTier struct {
	client *redis.Client
}

// NewRedisTier creates a Redis-backed external tier.
func NewRedisTier(client *redis.Client) *RedisTier {
	return &RedisTier{client: client}
}

func featureKey(key string) string {
	return featureKeyPrefix + ":" + key
}

// Get loads a vector. The second return is false when the key is absent.
func (t *RedisTier) Get(ctx context.Context, key string) (feature.Vector, bool, error) {
	raw, err := t.client.GetBytes(ctx, featureKey(key))
	if err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var vec feature.Vector
	if err := json.Unmarshal(raw, &vec); err != nil {
		return nil, false, fmt.Errorf("decode cached vector %q: %w", key, err)
	}
	return vec, true, nil
}

// Put stores a vector with the given TTL.
func (t *RedisTier) Put(ctx context.Context, key string, vec feature.Vector, ttl time.Duration) error {
	data, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("encode vector %q: %w", key, err)
	}
	return t.client.Set(ctx, featureKey(key), data, ttl)
}
