package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResultCache keeps recent send outcomes in redis so the admin surface can
// show them without re-reading the message row. Entirely optional: a nil
// *ResultCache is safe everywhere.
type ResultCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewResultCache(rdb *redis.Client, ttl time.Duration) *ResultCache {
	return &ResultCache{rdb: rdb, ttl: ttl}
}

func resultKey(messageID string) string {
	return fmt.Sprintf("push:result:%s", messageID)
}

func (c *ResultCache) Store(ctx context.Context, messageID string, result *SendResult) error {
	if c == nil {
		return nil
	}
	b, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, resultKey(messageID), b, c.ttl).Err()
}

// Get returns the cached result, or nil when none is stored.
func (c *ResultCache) Get(ctx context.Context, messageID string) (*SendResult, error) {
	if c == nil {
		return nil, nil
	}
	b, err := c.rdb.Get(ctx, resultKey(messageID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var result SendResult
	if err := json.Unmarshal(b, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
