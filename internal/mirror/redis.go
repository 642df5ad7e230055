package mirror

import (
	"context"
	"time"

	"codeberg.org/mutker/dhtlogger/internal/errors"
	"codeberg.org/mutker/dhtlogger/internal/logger"
	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "sensor:last:"
	redisTTL       = 24 * time.Hour
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// redisClient is the part of *redis.Client the cache uses.
type redisClient interface {
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Close() error
}

// RedisCache keeps the latest sample per location in a hash that expires
// when the sensor goes quiet.
type RedisCache struct {
	client redisClient
	logger logger.Logger
}

func NewRedis(ctx context.Context, cfg RedisConfig, log logger.Logger) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, errors.New().Wrap(ErrMirrorConnect, err)
	}

	log.Info().Str("addr", cfg.Addr).Msg("Connected to Redis")

	return &RedisCache{client: rdb, logger: log}, nil
}

func (c *RedisCache) Name() string {
	return "redis"
}

// Key returns the hash key holding the latest sample for location.
func Key(location string) string {
	return redisKeyPrefix + location
}

func (c *RedisCache) Publish(ctx context.Context, s Sample) error {
	errFactory := errors.New()
	key := Key(s.Location)

	err := c.client.HSet(ctx, key,
		"timestamp", s.Timestamp.UTC().Format(time.RFC3339),
		"sensor_type", s.SensorType,
		"temperature_celsius", s.TemperatureCelsius,
		"temperature_fahrenheit", s.TemperatureFahrenheit,
		"humidity_percent", s.HumidityPercent,
	).Err()
	if err != nil {
		return errFactory.Wrap(ErrMirrorPublish, err)
	}

	if err := c.client.Expire(ctx, key, redisTTL).Err(); err != nil {
		return errFactory.Wrap(ErrMirrorPublish, err)
	}

	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
