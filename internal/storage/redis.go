package storage

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis key layout.
const (
	redisSubscribersKey = "tipbot:subscribers"
	redisSeenKey        = "tipbot:seen"
	redisSettingsKey    = "tipbot:settings"
)

// Redis implements Storage on a Redis server. Seen keys live in a sorted set
// scored by the time they were recorded.
type Redis struct {
	client *redis.Client
}

// NewRedis connects to addr and checks the connection.
func NewRedis(ctx context.Context, addr string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisWithClient(client), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.client.Close()
}

// AddSubscriber registers chatID. It reports false if already subscribed.
func (r *Redis) AddSubscriber(ctx context.Context, chatID int64) (bool, error) {
	n, err := r.client.SAdd(ctx, redisSubscribersKey, chatID).Result()
	if err != nil {
		return false, fmt.Errorf("add subscriber: %w", err)
	}
	return n > 0, nil
}

// RemoveSubscriber unregisters chatID. It reports false if it was not subscribed.
func (r *Redis) RemoveSubscriber(ctx context.Context, chatID int64) (bool, error) {
	n, err := r.client.SRem(ctx, redisSubscribersKey, chatID).Result()
	if err != nil {
		return false, fmt.Errorf("remove subscriber: %w", err)
	}
	return n > 0, nil
}

// ListSubscribers returns subscribed chat IDs in ascending order.
func (r *Redis) ListSubscribers(ctx context.Context) ([]int64, error) {
	members, err := r.client.SMembers(ctx, redisSubscribersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse subscriber %q: %w", m, err)
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// MarkSeen records key. An existing entry keeps its original time.
func (r *Redis) MarkSeen(ctx context.Context, key string, at time.Time) error {
	err := r.client.ZAddNX(ctx, redisSeenKey, redis.Z{Score: float64(at.Unix()), Member: key}).Err()
	if err != nil {
		return fmt.Errorf("mark seen: %w", err)
	}
	return nil
}

// IsSeen reports whether key was recorded.
func (r *Redis) IsSeen(ctx context.Context, key string) (bool, error) {
	err := r.client.ZScore(ctx, redisSeenKey, key).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check seen: %w", err)
	}
	return true, nil
}

// ClearSeen removes entries recorded before the given time.
func (r *Redis) ClearSeen(ctx context.Context, before time.Time) (int64, error) {
	n, err := r.client.ZRemRangeByScore(ctx, redisSeenKey, "-inf", "("+strconv.FormatInt(before.Unix(), 10)).Result()
	if err != nil {
		return 0, fmt.Errorf("clear seen: %w", err)
	}
	return n, nil
}

// GetSetting returns a stored setting.
func (r *Redis) GetSetting(ctx context.Context, name string) (string, bool, error) {
	v, err := r.client.HGet(ctx, redisSettingsKey, name).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting: %w", err)
	}
	return v, true, nil
}

// SetSetting stores a setting.
func (r *Redis) SetSetting(ctx context.Context, name, value string) error {
	if err := r.client.HSet(ctx, redisSettingsKey, name, value).Err(); err != nil {
		return fmt.Errorf("set setting: %w", err)
	}
	return nil
}
