package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bangersure/twoupfeed/internal/pkg/interfaces"
	"github.com/bangersure/twoupfeed/internal/pkg/models"
)

var _ interfaces.FixtureStorage = (*RedisFixtureCache)(nil)

const defaultFixtureTTL = time.Hour

// RedisFixtureCache keeps the latest normalized record per fixture with
// a TTL, for consumers that want lookups by id without reading the
// snapshot file.
type RedisFixtureCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisFixtureCache(addr, password string, db int, ttl time.Duration) (*RedisFixtureCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if ttl <= 0 {
		ttl = defaultFixtureTTL
	}
	return &RedisFixtureCache{client: client, ttl: ttl}, nil
}

func fixtureKey(id int64) string {
	return "fixtures:2up:" + strconv.FormatInt(id, 10)
}

func (r *RedisFixtureCache) StoreFixtures(ctx context.Context, fixtures []models.FixtureRecord) error {
	pipe := r.client.Pipeline()
	for i := range fixtures {
		data, err := json.Marshal(&fixtures[i])
		if err != nil {
			return fmt.Errorf("failed to marshal fixture %d: %w", fixtures[i].ID, err)
		}
		pipe.Set(ctx, fixtureKey(fixtures[i].ID), data, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store fixtures: %w", err)
	}
	slog.Info("Fixture snapshot cached in Redis", "fixtures", len(fixtures), "ttl", r.ttl)
	return nil
}

// GetFixture returns the cached record or nil when absent/expired.
func (r *RedisFixtureCache) GetFixture(ctx context.Context, id int64) (*models.FixtureRecord, error) {
	data, err := r.client.Get(ctx, fixtureKey(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fixture %d: %w", id, err)
	}

	var fixture models.FixtureRecord
	if err := json.Unmarshal([]byte(data), &fixture); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fixture %d: %w", id, err)
	}
	return &fixture, nil
}

func (r *RedisFixtureCache) Close() error {
	return r.client.Close()
}
