package cachesvc

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/padhaidunia/padhaidunia/core"
	"github.com/padhaidunia/padhaidunia/core/notification"
)

const keyPrefix = "padhaidunia:"

func NewRedisClient(conf *core.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Address,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
}

// Ping checks the connection. Waits 100ms longer between each attempt.
func Ping(ctx context.Context, client redis.UniversalClient) error {
	var err error
	for attempts := 1; attempts <= 10; attempts++ {
		if err = client.Ping(ctx).Err(); err == nil {
			return nil
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}
	return errors.Wrap(err, "redis ping timeout")
}

// UnreadCountCache keeps unread notification counts for a limited time.
type UnreadCountCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

var _ notification.Cache = (*UnreadCountCache)(nil)

func NewUnreadCountCache(client redis.UniversalClient, conf *core.Config) *UnreadCountCache {
	return &UnreadCountCache{client: client, ttl: conf.Redis.UnreadTTL}
}

func unreadKey(userID string) string {
	return keyPrefix + "notifications:unread:" + userID
}

func (c *UnreadCountCache) GetUnreadCount(ctx context.Context, userID string) (int, bool, error) {
	val, err := c.client.Get(ctx, unreadKey(userID)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.Wrap(err, "getting unread count")
	}
	count, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, errors.Wrap(err, "parsing unread count")
	}
	return count, true, nil
}

func (c *UnreadCountCache) SetUnreadCount(ctx context.Context, userID string, count int) error {
	return errors.Wrap(c.client.Set(ctx, unreadKey(userID), count, c.ttl).Err(), "setting unread count")
}

func (c *UnreadCountCache) InvalidateUnreadCount(ctx context.Context, userID string) error {
	return errors.Wrap(c.client.Del(ctx, unreadKey(userID)).Err(), "invalidating unread count")
}

// RateLimiter is a fixed window counter.
type RateLimiter struct {
	client redis.UniversalClient
	name   string
	limit  int
	window time.Duration
}

func NewRateLimiter(client redis.UniversalClient, name string, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, name: name, limit: limit, window: window}
}

// NewSendRateLimiter limits the messages a user may send per window.
func NewSendRateLimiter(client redis.UniversalClient, conf *core.Config) *RateLimiter {
	return NewRateLimiter(client, "send", conf.Redis.SendLimit, conf.Redis.SendWindow)
}

// Allow counts one hit for id and reports whether it is within the limit.
func (rl *RateLimiter) Allow(ctx context.Context, id string) (bool, error) {
	if rl.limit <= 0 {
		return true, nil
	}
	key := rl.key(id)

	// the window is opened with its expiry and counted in one transaction
	var incr *redis.IntCmd
	_, err := rl.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, rl.window)
		incr = pipe.Incr(ctx, key)
		return nil
	})
	if err != nil {
		return false, errors.Wrap(err, "counting rate limit hit")
	}
	return incr.Val() <= int64(rl.limit), nil
}

func (rl *RateLimiter) key(id string) string {
	return keyPrefix + "ratelimit:" + rl.name + ":" + id
}
