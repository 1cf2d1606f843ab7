package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"freshmart/internal/domain"
	applog "freshmart/internal/log"
)

// CachedProducts is a read-through redis cache in front of a ProductReader.
// Cache errors never fail a lookup.
type CachedProducts struct {
	next     ProductReader
	rdb      *redis.Client
	cacheTTL time.Duration
}

func NewCachedProducts(next ProductReader, rdb *redis.Client) *CachedProducts {
	return &CachedProducts{next: next, rdb: rdb, cacheTTL: 10 * time.Minute}
}

func productKey(id string) string { return fmt.Sprintf("product:%s", id) }

func (c *CachedProducts) Get(ctx context.Context, id string) (*domain.Product, error) {
	key := productKey(id)

	if val, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var p domain.Product
		if err := json.Unmarshal(val, &p); err == nil {
			return &p, nil
		}
	} else if err != redis.Nil {
		applog.WarnCtx(ctx, "cache.product.get", zap.String("key", key), zap.Error(err))
	}

	p, err := c.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(p); err == nil {
		if err := c.rdb.Set(ctx, key, data, c.cacheTTL).Err(); err != nil {
			applog.WarnCtx(ctx, "cache.product.set", zap.String("key", key), zap.Error(err))
		}
	}
	return p, nil
}
