package redis_repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/model"
	"github.com/redis/go-redis/v9"
)

var (
	ErrCacheMiss = errors.New("cache miss")
	// ErrStaleVersion 讀 db 期間商品已被 invalidate，回填會寫回舊資料
	ErrStaleVersion = errors.New("cache version changed")
)

// IProductCache 商品讀取快取，真相來源為 db
type IProductCache interface {
	// GetProduct 錯誤:
	//   - ErrCacheMiss: 快取不存在
	GetProduct(ctx context.Context, productID string) (*model.Product, error)
	// Version 目前的 invalidate 版本號，需在讀 db 之前取得
	Version(ctx context.Context, productID string) (int64, error)
	// SetProduct 只有版本號未變時才寫入
	//
	// 錯誤:
	//   - ErrStaleVersion: 讀取版本號之後有 invalidate
	SetProduct(ctx context.Context, product *model.Product, version int64) error
	// DeleteProducts 刪除快取並遞增版本號
	DeleteProducts(ctx context.Context, productIDs ...string) error
}

/*
	redis 只放單一商品詳細資料
	結構:
	storefront:product:{商品ID} -> json
	storefront:product:{商品ID}:ver -> invalidate 次數
*/

type ProductRedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewProductRedisCache(client *redis.Client, prefix string, ttl time.Duration) *ProductRedisCache {
	if client == nil {
		panic("redis client cannot be nil")
	}
	if prefix == "" {
		prefix = "storefront"
	}
	return &ProductRedisCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *ProductRedisCache) generateProductKey(productID string) string {
	return fmt.Sprintf("%s:product:%s", c.prefix, productID)
}

func (c *ProductRedisCache) generateVersionKey(productID string) string {
	return fmt.Sprintf("%s:product:%s:ver", c.prefix, productID)
}

// versionTTL 版本號需比商品資料活得久，否則過期後舊版本號會再次相符
func (c *ProductRedisCache) versionTTL() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	return 2 * c.ttl
}

func (c *ProductRedisCache) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	raw, err := c.client.Get(ctx, c.generateProductKey(productID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}

	var product model.Product
	if err := json.Unmarshal(raw, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *ProductRedisCache) Version(ctx context.Context, productID string) (int64, error) {
	version, err := c.client.Get(ctx, c.generateVersionKey(productID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return version, err
}

func (c *ProductRedisCache) SetProduct(ctx context.Context, product *model.Product, version int64) error {
	raw, err := json.Marshal(product)
	if err != nil {
		return err
	}
	key := c.generateProductKey(product.ID)
	verKey := c.generateVersionKey(product.ID)

	// WATCH 版本號，比對後到 EXEC 之間有 invalidate 也會失敗
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, verKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return ErrStaleVersion
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, c.ttl)
			return nil
		})
		return err
	}, verKey)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrStaleVersion
	}
	return err
}

func (c *ProductRedisCache) DeleteProducts(ctx context.Context, productIDs ...string) error {
	if len(productIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		keys = append(keys, c.generateProductKey(id))
	}

	verTTL := c.versionTTL()
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		for _, id := range productIDs {
			verKey := c.generateVersionKey(id)
			pipe.Incr(ctx, verKey)
			if verTTL > 0 {
				pipe.Expire(ctx, verKey, verTTL)
			}
		}
		return nil
	})
	return err
}

// NoopProductCache 未設定 REDIS_ADDR 時使用，永遠 miss
type NoopProductCache struct{}

func (NoopProductCache) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	return nil, ErrCacheMiss
}

func (NoopProductCache) Version(ctx context.Context, productID string) (int64, error) {
	return 0, nil
}

func (NoopProductCache) SetProduct(ctx context.Context, product *model.Product, version int64) error {
	return nil
}

func (NoopProductCache) DeleteProducts(ctx context.Context, productIDs ...string) error {
	return nil
}
