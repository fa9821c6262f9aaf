package navstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"lineage/internal/genealogy/navigator"
	"lineage/pkg/platform/sentinel"
)

var (
	loadDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lineage_navstate_load_duration_ms",
		Help:    "Latency of navigation state loads from redis in milliseconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
	})
)

// Redis key prefix for navigation sessions.
const sessionKeyPrefix = "lineage:nav:"

// RedisStore shares navigation state between server instances.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis constructs a redis-backed store. The client lifecycle is managed by
// the caller. A zero TTL stores keys without expiry.
func NewRedis(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Save(ctx context.Context, sessionID string, state navigator.State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal navigation state: %w", err)
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+sessionID, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("save navigation state: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

// Load returns found=false when the session is unknown or expired.
func (s *RedisStore) Load(ctx context.Context, sessionID string) (navigator.State, bool, error) {
	start := time.Now()
	defer func() {
		loadDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	payload, err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return navigator.State{}, false, nil
	}
	if err != nil {
		return navigator.State{}, false, fmt.Errorf("load navigation state: %w: %w", sentinel.ErrUnavailable, err)
	}

	var state navigator.State
	if err := json.Unmarshal(payload, &state); err != nil {
		return navigator.State{}, false, fmt.Errorf("decode navigation state: %w", err)
	}
	return state, true, nil
}

// Delete returns sentinel.ErrNotFound when no key was removed.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	removed, err := s.client.Del(ctx, sessionKeyPrefix+sessionID).Result()
	if err != nil {
		return fmt.Errorf("delete navigation state: %w: %w", sentinel.ErrUnavailable, err)
	}
	if removed == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

var (
	_ Store = (*RedisStore)(nil)
	_ Store = (*InMemoryStore)(nil)
)
