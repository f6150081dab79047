package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrBackendUnavailable wraps Redis transport failures in the shared state.
var ErrBackendUnavailable = errors.New("rate state backend unavailable")

// RedisState shares the flood-wait table across processes: one PX-expiring
// key per category whose remaining TTL is the remaining wait. SET with a
// longer expiry never shortens an existing wait because recorded waits only
// grow while one is running.
type RedisState struct {
	redis  redis.UniversalClient
	prefix string
	clock  Clock
}

var _ State = (*RedisState)(nil)

// NewRedisState returns a shared wait table. Keys are "<prefix>:<category>".
func NewRedisState(client redis.UniversalClient, prefix string, clock Clock) *RedisState {
	if prefix == "" {
		prefix = "fw"
	}
	return &RedisState{redis: client, prefix: prefix, clock: clock}
}

func (s *RedisState) key(category Category) string {
	return s.prefix + ":" + string(category)
}

// NextAllowed implements [State].
func (s *RedisState) NextAllowed(ctx context.Context, category Category) (time.Time, error) {
	ttl, err := s.redis.PTTL(ctx, s.key(category)).Result()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	// PTTL reports -2 for a missing key and -1 for no expiry; neither holds
	// a running wait.
	if ttl <= 0 {
		return time.Time{}, nil
	}
	return s.clock.Now().Add(ttl), nil
}

// RecordWait implements [State].
func (s *RedisState) RecordWait(ctx context.Context, category Category, until time.Time) error {
	wait := until.Sub(s.clock.Now())
	if wait <= 0 {
		return nil
	}
	current, err := s.redis.PTTL(ctx, s.key(category)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if current >= wait {
		return nil
	}
	if err := s.redis.Set(ctx, s.key(category), 1, wait).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}
