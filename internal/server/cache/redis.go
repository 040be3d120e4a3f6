package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tuneshelf/internal/logging"
	"github.com/dmitrijs2005/tuneshelf/internal/server/models"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

const artistKeyPrefix = "artist:"

func artistKey(id string) string {
	return artistKeyPrefix + id
}

// RedisArtistCache keeps JSON-encoded artists in Redis. Reads go through a
// circuit breaker so an unhealthy Redis is skipped instead of adding latency
// to every request.
type RedisArtistCache struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	cb     *gobreaker.CircuitBreaker
	logger logging.Logger
}

func NewRedisArtistCache(rdb redis.Cmdable, ttl time.Duration, logger logging.Logger) *RedisArtistCache {
	st := gobreaker.Settings{
		Name:        "artist-cache",
		MaxRequests: 1,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn(context.Background(), "circuit breaker state changed",
				"name", name, "from", from.String(), "to", to.String())
		},
	}

	return &RedisArtistCache{
		rdb:    rdb,
		ttl:    ttl,
		cb:     gobreaker.NewCircuitBreaker(st),
		logger: logger,
	}
}

func (c *RedisArtistCache) Get(ctx context.Context, id string) (*models.Artist, error) {
	val, err := c.cb.Execute(func() (interface{}, error) {
		res, err := c.rdb.Get(ctx, artistKey(id)).Result()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return res, nil
	})
	if err != nil {
		return nil, fmt.Errorf("cache get %s: %w", id, err)
	}
	if val == nil {
		return nil, nil
	}

	var a models.Artist
	if err := json.Unmarshal([]byte(val.(string)), &a); err != nil {
		return nil, fmt.Errorf("cache decode %s: %w", id, err)
	}
	return &a, nil
}

func (c *RedisArtistCache) Set(ctx context.Context, artist *models.Artist) error {
	// Presigned URLs expire on their own schedule; only the key is cached.
	stored := *artist
	stored.ImageURL = ""

	data, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", artist.ID, err)
	}
	if err := c.rdb.Set(ctx, artistKey(artist.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", artist.ID, err)
	}
	return nil
}

func (c *RedisArtistCache) Delete(ctx context.Context, id string) error {
	if err := c.rdb.Del(ctx, artistKey(id)).Err(); err != nil {
		return fmt.Errorf("cache delete %s: %w", id, err)
	}
	return nil
}
