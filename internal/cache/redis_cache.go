package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func outcomeKey(jobID int64) string {
	return fmt.Sprintf("smsjob:%d:outcome", jobID)
}

func (c *RedisCache) StoreOutcome(ctx context.Context, o Outcome) error {
	o.CompletedAt = o.CompletedAt.UTC()

	b, err := json.Marshal(o)
	if err != nil {
		return err
	}

	return errors.Wrapf(c.rdb.Set(ctx, outcomeKey(o.JobID), b, c.ttl).Err(), "cache outcome of sms job %d", o.JobID)
}

func (c *RedisCache) LoadOutcome(ctx context.Context, jobID int64) (Outcome, bool, error) {
	b, err := c.rdb.Get(ctx, outcomeKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Outcome{}, false, nil
	}
	if err != nil {
		return Outcome{}, false, errors.Wrapf(err, "load outcome of sms job %d", jobID)
	}

	var o Outcome
	if err := json.Unmarshal(b, &o); err != nil {
		return Outcome{}, false, errors.Wrapf(err, "decode outcome of sms job %d", jobID)
	}
	return o, true, nil
}
