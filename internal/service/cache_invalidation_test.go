package service

import (
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/redis_decorator"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/redis_repo"
	"github.com/RoyceAzure/lab/storefront/internal/model"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// useRedisCache 把商品讀取換成 miniredis 上的 cache-aside
func (suite *ServiceTestSuite) useRedisCache() *miniredis.Miniredis {
	mr := miniredis.RunT(suite.T())
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	suite.T().Cleanup(func() { client.Close() })

	cache := redis_repo.NewProductRedisCache(client, "test", time.Minute)
	suite.reader = redis_decorator.NewCacheAsideProductRepo(suite.store, cache, nil)
	suite.products = NewProductService(suite.store, suite.reader)
	suite.orders = suite.newOrderService(false)
	return mr
}

// cachedProduct 讀一次讓快取回填，並確認已寫入 redis
func (suite *ServiceTestSuite) cachedProduct(mr *miniredis.Miniredis, productID string) *model.Product {
	product, err := suite.products.GetProduct(suite.ctx, productID)
	require.NoError(suite.T(), err)
	require.True(suite.T(), mr.Exists("test:product:"+productID))
	return product
}

func (suite *ServiceTestSuite) TestCache_CheckoutAndCancelInvalidate() {
	mr := suite.useRedisCache()
	p := suite.createProduct("Bra", 199)
	require.Equal(suite.T(), 1, suite.cachedProduct(mr, p.ID).IsActive)

	suite.setAddress(suite.alice)
	require.NoError(suite.T(), suite.cart.AddItem(suite.ctx, suite.alice, p.ID, 1, ""))
	order, err := suite.orders.Checkout(suite.ctx, suite.alice, model.CheckoutParams{})
	require.NoError(suite.T(), err)

	require.False(suite.T(), mr.Exists("test:product:"+p.ID))
	require.Equal(suite.T(), 0, suite.cachedProduct(mr, p.ID).IsActive)

	_, err = suite.orders.CancelOrder(suite.ctx, suite.alice, order.ID)
	require.NoError(suite.T(), err)

	require.False(suite.T(), mr.Exists("test:product:"+p.ID))
	require.Equal(suite.T(), 1, suite.cachedProduct(mr, p.ID).IsActive)
}

func (suite *ServiceTestSuite) TestCache_AdminDeleteOrderInvalidates() {
	mr := suite.useRedisCache()
	p := suite.createProduct("Bra", 199)

	order, err := suite.orders.Checkout(suite.ctx, suite.alice, model.CheckoutParams{
		Items:   []model.CheckoutItem{{ProductID: p.ID, Qty: 1}},
		Address: "1 Test Road",
		Contact: "13800000000",
	})
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), 0, suite.cachedProduct(mr, p.ID).IsActive)

	require.NoError(suite.T(), suite.orders.DeleteOrder(suite.ctx, suite.admin, order.ID))
	require.False(suite.T(), mr.Exists("test:product:"+p.ID))
	require.Equal(suite.T(), 1, suite.cachedProduct(mr, p.ID).IsActive)
}

func (suite *ServiceTestSuite) TestCache_ProductMutationsInvalidate() {
	mr := suite.useRedisCache()
	p := suite.createProduct("Old", 10)
	require.Equal(suite.T(), "Old", suite.cachedProduct(mr, p.ID).Name)

	_, err := suite.products.UpdateProduct(suite.ctx, suite.admin, p.ID, model.ProductUpdate{Name: model.Some("New")})
	require.NoError(suite.T(), err)
	require.False(suite.T(), mr.Exists("test:product:"+p.ID))
	require.Equal(suite.T(), "New", suite.cachedProduct(mr, p.ID).Name)

	require.NoError(suite.T(), suite.products.DeleteProduct(suite.ctx, suite.admin, p.ID))
	require.False(suite.T(), mr.Exists("test:product:"+p.ID))
	_, err = suite.products.GetProduct(suite.ctx, p.ID)
	require.Error(suite.T(), err)
}
