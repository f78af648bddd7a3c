package redis_decorator

import (
	"context"
	"errors"

	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/redis_repo"
	"github.com/RoyceAzure/lab/storefront/internal/model"
	"github.com/rs/zerolog"
)

// IProductReader 單一商品讀取，可被快取包裝
type IProductReader interface {
	GetProduct(ctx context.Context, productID string) (*model.Product, error)
	// InvalidateProducts 寫入 commit 後呼叫
	InvalidateProducts(ctx context.Context, productIDs ...string)
}

/*
cache-aside:
讀取先查 redis，miss 才查 db 並回填，回填以版本號條件寫入
寫入一律由 db transaction 完成，commit 後刪除 cache
redis 異常只記 log，不影響讀取結果
*/
type CacheAsideProductRepo struct {
	store  db.IStore
	cache  redis_repo.IProductCache
	logger *zerolog.Logger
}

func NewCacheAsideProductRepo(store db.IStore, cache redis_repo.IProductCache, logger *zerolog.Logger) *CacheAsideProductRepo {
	if store == nil {
		panic("store cannot be nil")
	}
	if cache == nil {
		cache = redis_repo.NoopProductCache{}
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &CacheAsideProductRepo{store: store, cache: cache, logger: logger}
}

// GetProduct 錯誤:
//   - db.ErrNotFound: 商品不存在
func (p *CacheAsideProductRepo) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	product, err := p.cache.GetProduct(ctx, productID)
	if err == nil {
		return product, nil
	}
	if !errors.Is(err, redis_repo.ErrCacheMiss) {
		p.logger.Warn().Err(err).Str("product_id", productID).Msg("product cache read failed")
	}

	// 版本號要在讀 db 前取得，期間有 invalidate 就放棄回填
	version, verErr := p.cache.Version(ctx, productID)
	if verErr != nil {
		p.logger.Warn().Err(verErr).Str("product_id", productID).Msg("product cache version read failed")
	}

	err = p.store.Do(ctx, func(q db.Querier) error {
		var qErr error
		product, qErr = q.GetProduct(ctx, productID)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	if verErr != nil {
		return product, nil
	}

	if err := p.cache.SetProduct(ctx, product, version); err != nil {
		if errors.Is(err, redis_repo.ErrStaleVersion) {
			p.logger.Debug().Str("product_id", productID).Msg("skip product cache fill, invalidated during read")
		} else {
			p.logger.Warn().Err(err).Str("product_id", productID).Msg("product cache write failed")
		}
	}
	return product, nil
}

func (p *CacheAsideProductRepo) InvalidateProducts(ctx context.Context, productIDs ...string) {
	if len(productIDs) == 0 {
		return
	}
	if err := p.cache.DeleteProducts(ctx, productIDs...); err != nil {
		p.logger.Warn().Err(err).Strs("product_ids", productIDs).Msg("product cache invalidate failed")
	}
}
