// Package cache provides Redis caching for per-blueprint pin lists.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/TChrisVivek/S-R-Associates-sub000/internal/config"
	"github.com/TChrisVivek/S-R-Associates-sub000/internal/models"
)

const blueprintKeyPrefix = "pins:blueprint:"

// Cache defines the interface for caching operations. All read errors degrade
// to a cache miss; the caller falls through to the database.
type Cache interface {
	// GetByBlueprint retrieves a cached pin list for one sheet.
	GetByBlueprint(ctx context.Context, blueprintID string) ([]models.Pin, bool, error)

	// SetByBlueprint stores a sheet's pin list in cache.
	SetByBlueprint(ctx context.Context, blueprintID string, pins []models.Pin) error

	// InvalidateBlueprint removes a sheet's cached pin list. Called after
	// every pin mutation on that sheet.
	InvalidateBlueprint(ctx context.Context, blueprintID string) error

	// Close closes the cache connection.
	Close() error
}

// RedisCache implements Cache using Redis.
type RedisCache struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// NewRedisCache creates a new Redis cache.
func NewRedisCache(cfg *config.Config, logger *zap.Logger) (Cache, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Connected to Redis cache")

	return &RedisCache{
		client: client,
		logger: logger,
		ttl:    time.Duration(cfg.CacheTTLSeconds) * time.Second,
	}, nil
}

// GetByBlueprint retrieves a cached pin list for one sheet.
func (c *RedisCache) GetByBlueprint(ctx context.Context, blueprintID string) ([]models.Pin, bool, error) {
	key := blueprintKeyPrefix + blueprintID

	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil // Cache miss
	}
	if err != nil {
		c.logger.Warn("Failed to get blueprint pins from cache", zap.String("key", key), zap.Error(err))
		return nil, false, nil // Treat errors as cache miss
	}

	var pins []models.Pin
	if err := json.Unmarshal(data, &pins); err != nil {
		c.logger.Warn("Failed to unmarshal cached pins", zap.Error(err))
		return nil, false, nil
	}

	c.logger.Debug("Cache hit", zap.String("key", key))
	return pins, true, nil
}

// SetByBlueprint stores a sheet's pin list in cache.
func (c *RedisCache) SetByBlueprint(ctx context.Context, blueprintID string, pins []models.Pin) error {
	key := blueprintKeyPrefix + blueprintID

	data, err := json.Marshal(pins)
	if err != nil {
		c.logger.Warn("Failed to marshal pins for cache", zap.Error(err))
		return err
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Failed to set blueprint pins cache", zap.String("key", key), zap.Error(err))
		return err
	}

	c.logger.Debug("Cached blueprint pins", zap.String("key", key), zap.Int("count", len(pins)))
	return nil
}

// InvalidateBlueprint removes a sheet's cached pin list.
func (c *RedisCache) InvalidateBlueprint(ctx context.Context, blueprintID string) error {
	key := blueprintKeyPrefix + blueprintID

	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Warn("Failed to invalidate blueprint cache", zap.String("key", key), zap.Error(err))
		return err
	}

	c.logger.Debug("Invalidated blueprint cache", zap.String("key", key))
	return nil
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	c.logger.Info("Closing Redis connection")
	return c.client.Close()
}
