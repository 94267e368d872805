// Package cache keeps generated reasoning in Redis so identical readings do
// not trigger a second text-generation call
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/abelzeko/panchayat-water/internal/integration/openai"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "reasoning:"

// CachedReasoner decorates a ReasoningService with a Redis read-through cache.
// Redis failures are logged and never surface to the caller.
type CachedReasoner struct {
	next   openai.ReasoningService
	client redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedReasoner wraps next with a cache whose entries live for ttl
func NewCachedReasoner(next openai.ReasoningService, client redis.Cmdable, ttl time.Duration, logger *zap.Logger) *CachedReasoner {
	return &CachedReasoner{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Key derives the cache key for a request: kind plus a digest of the
// reading and the result. The subject is not part of the key, so two wards
// with the same reading share an explanation.
func Key(req openai.ReasoningRequest) (string, error) {
	input, err := json.Marshal(req.Input)
	if err != nil {
		return "", fmt.Errorf("failed to encode input for cache key: %w", err)
	}
	result, err := json.Marshal(req.Result)
	if err != nil {
		return "", fmt.Errorf("failed to encode result for cache key: %w", err)
	}

	h := sha256.New()
	h.Write(input)
	h.Write([]byte{'\n'})
	h.Write(result)
	return keyPrefix + string(req.Kind) + ":" + hex.EncodeToString(h.Sum(nil)), nil
}

// Explain returns a cached explanation when there is one, otherwise asks
// the wrapped service and stores its answer
func (c *CachedReasoner) Explain(ctx context.Context, req openai.ReasoningRequest) (*openai.Reasoning, error) {
	key, err := Key(req)
	if err != nil {
		c.logger.Warn("Skipping reasoning cache", zap.Error(err))
		return c.next.Explain(ctx, req)
	}

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached openai.Reasoning
		if jsonErr := json.Unmarshal(data, &cached); jsonErr == nil {
			c.logger.Debug("Reasoning cache hit", zap.String("key", key))
			return &cached, nil
		}
		c.logger.Warn("Discarding corrupt reasoning cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("Reasoning cache read failed", zap.String("key", key), zap.Error(err))
	}

	reasoning, err := c.next.Explain(ctx, req)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(reasoning)
	if err != nil {
		return reasoning, nil
	}
	if err := c.client.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
		c.logger.Warn("Reasoning cache write failed", zap.String("key", key), zap.Error(err))
	}
	return reasoning, nil
}
