package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const pending = "\x00pending"

// ErrInFlight is returned by Begin when another request holding the same
// key has not finished yet.
var ErrInFlight = errors.New("idempotency: request with this key is in flight")

type Store struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewStore(rdb redis.Cmdable, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// Key names a Kafka message for consumer-side deduplication.
func (s *Store) Key(topic string, partition int, offset int64) string {
	return fmt.Sprintf("idem:%s:%d:%d", topic, partition, offset)
}

// RequestKey names a client supplied Idempotency-Key for scope.
func (s *Store) RequestKey(scope, key string) string {
	return fmt.Sprintf("idem:req:%s:%s", scope, key)
}

// Seen marks key and reports whether it had been marked before.
func (s *Store) Seen(ctx context.Context, key string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, key, "1", s.ttl).Result()
	if err != nil {
		return false, err
	}

	return !ok, nil
}

// Begin claims key for a new request. When the key was already completed
// the stored result is returned with fresh=false. A claimed but
// unfinished key yields ErrInFlight.
func (s *Store) Begin(ctx context.Context, key string) (result string, fresh bool, err error) {
	ok, err := s.rdb.SetNX(ctx, key, pending, s.ttl).Result()
	if err != nil {
		return "", false, err
	}
	if ok {
		return "", true, nil
	}
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SetNX and Get; try once more
		return s.Begin(ctx, key)
	}
	if err != nil {
		return "", false, err
	}
	if v == pending {
		return "", false, ErrInFlight
	}
	return v, false, nil
}

// Complete stores the result of a request begun with Begin.
func (s *Store) Complete(ctx context.Context, key, result string) error {
	return s.rdb.Set(ctx, key, result, s.ttl).Err()
}

// Release drops a claim after a failed request so the client can retry.
func (s *Store) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}
