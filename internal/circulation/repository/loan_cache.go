package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"library-circulation/internal/circulation/models"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
)

var cacheJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// LoanListCache keeps each student's loan list in Redis. A nil cache is a
// valid no-op, so callers never need a separate disabled mode.
type LoanListCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLoanListCache connects to redisURL (redis://host:port/db) and verifies
// the connection.
func NewLoanListCache(redisURL, password string, ttl time.Duration) (*LoanListCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if password != "" {
		opts.Password = password
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewLoanListCacheFromClient(rdb, ttl), nil
}

func NewLoanListCacheFromClient(client *redis.Client, ttl time.Duration) *LoanListCache {
	return &LoanListCache{client: client, ttl: ttl}
}

func loanListKey(studentID string) string {
	return fmt.Sprintf("loans:student:%s", studentID)
}

func loanGenKey(studentID string) string {
	return fmt.Sprintf("loans:gen:%s", studentID)
}

// genTTL outlives any list entry so a generation cannot reset to zero while
// a reader still holds the old value.
const genTTL = 24 * time.Hour

// setIfGeneration stores the list only when the student's generation still
// matches the one the caller read before querying storage. A missing
// generation counts as zero.
var setIfGeneration = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if (cur or '0') ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[2], ARGV[2])
end
return 1
`)

// Get reports a miss with ok=false and a nil error.
func (c *LoanListCache) Get(ctx context.Context, studentID string) ([]models.LoanView, bool, error) {
	if c == nil || c.client == nil {
		return nil, false, nil
	}

	raw, err := c.client.Get(ctx, loanListKey(studentID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached loans: %w", err)
	}

	var views []models.LoanView
	if err := cacheJSON.Unmarshal(raw, &views); err != nil {
		return nil, false, fmt.Errorf("decode cached loans: %w", err)
	}
	return views, true, nil
}

// Generation returns the student's invalidation counter. Read it before
// loading the list from storage and hand it back to Set.
func (c *LoanListCache) Generation(ctx context.Context, studentID string) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}

	gen, err := c.client.Get(ctx, loanGenKey(studentID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get loan generation: %w", err)
	}
	return gen, nil
}

// Set stores views unless the student was invalidated after gen was read.
// stored is false when the write was dropped as stale.
func (c *LoanListCache) Set(ctx context.Context, studentID string, gen int64, views []models.LoanView) (stored bool, err error) {
	if c == nil || c.client == nil {
		return false, nil
	}

	raw, err := cacheJSON.Marshal(views)
	if err != nil {
		return false, fmt.Errorf("encode loans: %w", err)
	}

	keys := []string{loanGenKey(studentID), loanListKey(studentID)}
	n, err := setIfGeneration.Run(ctx, c.client, keys, strconv.FormatInt(gen, 10), raw, c.ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("set cached loans: %w", err)
	}
	return n == 1, nil
}

// Invalidate bumps the generation and drops the list in one MULTI block, so
// any read that started earlier can no longer write its result back.
func (c *LoanListCache) Invalidate(ctx context.Context, studentID string) error {
	if c == nil || c.client == nil {
		return nil
	}

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, loanGenKey(studentID))
		pipe.Expire(ctx, loanGenKey(studentID), genTTL)
		pipe.Del(ctx, loanListKey(studentID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("invalidate cached loans: %w", err)
	}
	return nil
}

func (c *LoanListCache) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

func (c *LoanListCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
