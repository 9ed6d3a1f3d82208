package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	unreadCountKeyPrefix = "engagement:unread:"
	dirtyPairsKey        = "engagement:graph:dirty"
)

// DirtyPair marks a follow edge whose two halves may have diverged. The
// reconciler drains these and re-applies both sides.
type DirtyPair struct {
	FollowerID string
	TargetID   string
	Unfollow   bool
}

// EngagementStore defines Redis operations for unread notification count
// caching and dirty follow-pair tracking.
type EngagementStore interface {
	GetUnreadCount(ctx context.Context, userID string) (int64, bool, error)
	SetUnreadCount(ctx context.Context, userID string, count int64) error
	CondIncrUnreadCount(ctx context.Context, userID string) error
	CondDecrUnreadCount(ctx context.Context, userID string) error
	InvalidateUnreadCount(ctx context.Context, userID string) error
	RecordDirtyPair(ctx context.Context, pair DirtyPair) error
	PopDirtyPairs(ctx context.Context, n int64) ([]DirtyPair, error)
	ClearDirtyPair(ctx context.Context, pair DirtyPair) error
	Close() error
}

// RedisEngagementStore implements EngagementStore backed by Redis.
type RedisEngagementStore struct {
	client *redis.Client
}

// NewRedisEngagementStore creates a new Redis-backed engagement store.
func NewRedisEngagementStore(address, password string, db int) (*RedisEngagementStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisEngagementStore{client: client}, nil
}

func unreadCountKey(userID string) string {
	return unreadCountKeyPrefix + userID
}

// GetUnreadCount returns the cached unread notification count for a user.
// Returns (count, true, nil) on hit, (0, false, nil) on miss, (0, false, err) on error.
func (s *RedisEngagementStore) GetUnreadCount(ctx context.Context, userID string) (int64, bool, error) {
	val, err := s.client.Get(ctx, unreadCountKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("redis get unread count: %w", err)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse unread count: %w", err)
	}
	return count, true, nil
}

// SetUnreadCount sets the unread notification count for a user in Redis.
func (s *RedisEngagementStore) SetUnreadCount(ctx context.Context, userID string, count int64) error {
	err := s.client.Set(ctx, unreadCountKey(userID), count, 0).Err()
	if err != nil {
		return fmt.Errorf("redis set unread count: %w", err)
	}
	return nil
}

// condIncrScript atomically increments the key only if it exists.
// Returns 1 if incremented, 0 if key did not exist.
var condIncrScript = redis.NewScript(`
local key = KEYS[1]
if redis.call("EXISTS", key) == 1 then
  return redis.call("INCR", key)
end
return 0
`)

// condDecrScript atomically decrements the key only if it exists and result >= 0.
// Returns the new value if decremented, 0 if key did not exist.
var condDecrScript = redis.NewScript(`
local key = KEYS[1]
if redis.call("EXISTS", key) == 1 then
  local val = tonumber(redis.call("GET", key))
  if val and val > 0 then
    return redis.call("DECR", key)
  end
end
return 0
`)

// CondIncrUnreadCount atomically increments the unread count only if the key
// exists. A miss stays a miss until a full recount primes the cache.
func (s *RedisEngagementStore) CondIncrUnreadCount(ctx context.Context, userID string) error {
	err := condIncrScript.Run(ctx, s.client, []string{unreadCountKey(userID)}).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis cond incr unread count: %w", err)
	}
	return nil
}

// CondDecrUnreadCount atomically decrements the unread count only if the key exists.
func (s *RedisEngagementStore) CondDecrUnreadCount(ctx context.Context, userID string) error {
	err := condDecrScript.Run(ctx, s.client, []string{unreadCountKey(userID)}).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis cond decr unread count: %w", err)
	}
	return nil
}

// InvalidateUnreadCount drops the cached count so the next read recounts
// from the inbox. Used when a mutation's effect on the count is unknown.
func (s *RedisEngagementStore) InvalidateUnreadCount(ctx context.Context, userID string) error {
	err := s.client.Del(ctx, unreadCountKey(userID)).Err()
	if err != nil {
		return fmt.Errorf("redis invalidate unread count: %w", err)
	}
	return nil
}

func dirtyMember(pair DirtyPair) string {
	verb := "follow"
	if pair.Unfollow {
		verb = "unfollow"
	}
	return pair.FollowerID + "|" + pair.TargetID + "|" + verb
}

func parseDirtyMember(member string) (DirtyPair, error) {
	parts := strings.SplitN(member, "|", 3)
	if len(parts) != 3 {
		return DirtyPair{}, fmt.Errorf("malformed dirty pair %q", member)
	}
	return DirtyPair{
		FollowerID: parts[0],
		TargetID:   parts[1],
		Unfollow:   parts[2] == "unfollow",
	}, nil
}

// RecordDirtyPair enqueues a follow edge for the reconciler, scored by the
// time it was recorded so the oldest divergence is repaired first.
func (s *RedisEngagementStore) RecordDirtyPair(ctx context.Context, pair DirtyPair) error {
	err := s.client.ZAdd(ctx, dirtyPairsKey, redis.Z{
		Score:  float64(time.Now().Unix()),
		Member: dirtyMember(pair),
	}).Err()
	if err != nil {
		return fmt.Errorf("redis record dirty pair: %w", err)
	}
	return nil
}

// PopDirtyPairs removes and returns up to n of the oldest dirty pairs.
func (s *RedisEngagementStore) PopDirtyPairs(ctx context.Context, n int64) ([]DirtyPair, error) {
	members, err := s.client.ZPopMin(ctx, dirtyPairsKey, n).Result()
	if err != nil {
		return nil, fmt.Errorf("redis pop dirty pairs: %w", err)
	}

	pairs := make([]DirtyPair, 0, len(members))
	for _, m := range members {
		member, ok := m.Member.(string)
		if !ok {
			continue
		}
		pair, err := parseDirtyMember(member)
		if err != nil {
			continue
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

// ClearDirtyPair removes a pair once its two halves are confirmed in sync.
func (s *RedisEngagementStore) ClearDirtyPair(ctx context.Context, pair DirtyPair) error {
	err := s.client.ZRem(ctx, dirtyPairsKey, dirtyMember(pair)).Err()
	if err != nil {
		return fmt.Errorf("redis clear dirty pair: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (s *RedisEngagementStore) Close() error {
	return s.client.Close()
}

// Ensure interface is satisfied at compile time.
var _ EngagementStore = (*RedisEngagementStore)(nil)
