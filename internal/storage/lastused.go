package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Bisp1999/grading-app/internal/models"
)

// RedisLastUsedStore keeps last-used selections in a Redis hash per teacher
type RedisLastUsedStore struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedisLastUsedStore connects to Redis
func NewRedisLastUsedStore(ctx context.Context, cfg RedisConfig) (*RedisLastUsedStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisLastUsedStore{client: client, ttl: cfg.TTL}, nil
}

func lastUsedKey(teacherID int64) string {
	return "gradebook:teacher:" + strconv.FormatInt(teacherID, 10) + ":last_test"
}

// Get returns the recorded selection; a teacher with none gets the zero value
func (s *RedisLastUsedStore) Get(ctx context.Context, teacherID int64) (models.LastUsed, error) {
	vals, err := s.client.HGetAll(ctx, lastUsedKey(teacherID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.LastUsed{}, nil
		}
		return models.LastUsed{}, fmt.Errorf("failed to read last used selection: %w", err)
	}

	return models.LastUsed{
		Grade:     vals["grade"],
		ClassName: vals["class_name"],
	}, nil
}

// Set records the selection
func (s *RedisLastUsedStore) Set(ctx context.Context, teacherID int64, last models.LastUsed) error {
	key := lastUsedKey(teacherID)

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, "grade", last.Grade, "class_name", last.ClassName)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record last used selection: %w", err)
	}

	return nil
}

// Ping checks Redis connectivity
func (s *RedisLastUsedStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client
func (s *RedisLastUsedStore) Close() error {
	return s.client.Close()
}
