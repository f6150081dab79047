package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrBackendUnavailable wraps Redis transport failures so callers can
// distinguish a down backend from a missing or corrupted session.
var ErrBackendUnavailable = errors.New("session backend unavailable")

// RedisStore is a [Store] backed by Redis, for deployments where several
// processes share one session (the engine still serializes mutation per
// identity inside each process). SET is a whole-value replace, which
// preserves the atomicity contract.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore returns a store over the given client. Keys are
// "<prefix>:<identity>".
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ub"
	}
	return &RedisStore{redis: client, prefix: prefix}
}

func (s *RedisStore) key(identity string) string {
	return s.prefix + ":" + identity
}

// Load implements [Store].
func (s *RedisStore) Load(ctx context.Context, identity string) (*Session, error) {
	data, err := s.redis.Get(ctx, s.key(identity)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return Decode(data)
}

// Save implements [Store].
func (s *RedisStore) Save(ctx context.Context, identity string, sess *Session) error {
	blob, err := Encode(sess)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.key(identity), blob, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

// Delete implements [Store].
func (s *RedisStore) Delete(ctx context.Context, identity string) error {
	if err := s.redis.Del(ctx, s.key(identity)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}
