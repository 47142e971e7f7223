package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/summary"
	"github.com/fekuna/omnipos-inventory-service/internal/summary/dto"
	"github.com/redis/go-redis/v9"
)

// generationKey sits outside the KeyPrefix namespace so the sweep never deletes it.
const (
	generationKey = "inventory_summary_generation"
	scanBatch     = 100
)

var _ summary.Cache = (*RedisSummaryCache)(nil)

var errStaleGeneration = errors.New("summary generation changed")

type RedisSummaryCache struct {
	client *redis.Client
}

func NewRedisSummaryCache(client *redis.Client) *RedisSummaryCache {
	return &RedisSummaryCache{client: client}
}

func (c *RedisSummaryCache) Get(ctx context.Context, key string) (*dto.SummaryResult, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var result dto.SummaryResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, false, fmt.Errorf("decode cached summary %s: %w", key, err)
	}
	return &result, true, nil
}

func (c *RedisSummaryCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// SetIfGeneration stores value only while the generation still equals generation. WATCH makes
// an InvalidateAll racing the write abort the transaction.
func (c *RedisSummaryCache) SetIfGeneration(ctx context.Context, key string, value *dto.SummaryResult, generation int64, ttl time.Duration) (bool, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return false, err
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, generationKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, ttl)
			return nil
		})
		return err
	}, generationKey)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errStaleGeneration), errors.Is(err, redis.TxFailedErr):
		return false, nil
	default:
		return false, err
	}
}

func (c *RedisSummaryCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// InvalidateAll advances the generation, then sweeps every key under the summary prefix.
func (c *RedisSummaryCache) InvalidateAll(ctx context.Context) error {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("bump summary generation: %w", err)
	}

	iter := c.client.Scan(ctx, 0, summary.KeyPrefix+"*", scanBatch).Iterator()
	batch := make([]string, 0, scanBatch)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := c.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan summary keys: %w", err)
	}
	return c.Delete(ctx, batch...)
}
