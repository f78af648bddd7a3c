package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db/dbtest"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/redis_decorator"
	"github.com/RoyceAzure/lab/storefront/internal/infra/token"
	"github.com/RoyceAzure/lab/storefront/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

const testTokenKey = "12345678901234567890123456789012"

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.OrderEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, evt model.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []model.OrderEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.OrderEventType, 0, len(p.events))
	for _, evt := range p.events {
		out = append(out, evt.Type)
	}
	return out
}

// ServiceTestSuite 各 service 共用的 sqlite 測試環境
type ServiceTestSuite struct {
	suite.Suite
	ctx        context.Context
	store      *db.Store
	tokenMaker token.Maker
	reader     *redis_decorator.CacheAsideProductRepo
	publisher  *recordingPublisher
	clock      atomic.Int64

	auth      *AuthService
	products  *ProductService
	cart      *CartService
	orders    *OrderService
	addresses *AddressService

	admin *model.Identity
	alice *model.Identity
	bob   *model.Identity
}

// SetupTest 在每個測試前執行
func (suite *ServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.store = dbtest.NewStore(suite.T())

	maker, err := token.NewPasetoMaker(testTokenKey)
	require.NoError(suite.T(), err)
	suite.tokenMaker = maker

	suite.reader = redis_decorator.NewCacheAsideProductRepo(suite.store, nil, nil)
	suite.publisher = &recordingPublisher{}
	suite.clock.Store(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli())

	suite.auth = NewAuthService(suite.store, maker, time.Hour, WithBcryptCost(bcrypt.MinCost))
	suite.products = NewProductService(suite.store, suite.reader)
	suite.cart = NewCartService(suite.store)
	suite.orders = suite.newOrderService(false)
	suite.addresses = NewAddressService(suite.store)

	suite.admin = suite.createIdentity("admin", constants.RoleAdmin)
	suite.alice = suite.createIdentity("alice", constants.RoleUser)
	suite.bob = suite.createIdentity("bob", constants.RoleUser)
}

func (suite *ServiceTestSuite) newOrderService(retain bool) *OrderService {
	return NewOrderService(suite.store, suite.reader, suite.publisher,
		WithRetainCancelled(retain),
		WithClock(func() time.Time {
			return time.UnixMilli(suite.clock.Add(1))
		}),
	)
}

func (suite *ServiceTestSuite) createIdentity(username string, role constants.Role) *model.Identity {
	hash, err := HashPassword("password", bcrypt.MinCost)
	require.NoError(suite.T(), err)
	user := &model.User{ID: uuid.NewString(), Username: username, PasswordHash: hash, Role: role}
	require.NoError(suite.T(), suite.store.CreateUser(suite.ctx, user))
	return &model.Identity{ID: user.ID, Username: user.Username, Role: user.Role}
}

func (suite *ServiceTestSuite) createProduct(name string, price int64) *model.Product {
	p := decimal.NewFromInt(price)
	product, err := suite.products.CreateProduct(suite.ctx, suite.admin, model.NewProduct{Name: name, Price: &p})
	require.NoError(suite.T(), err)
	return product
}

func (suite *ServiceTestSuite) getProduct(id string) *model.Product {
	product, err := suite.store.GetProduct(suite.ctx, id)
	require.NoError(suite.T(), err)
	return product
}

func (suite *ServiceTestSuite) setAddress(caller *model.Identity) {
	_, err := suite.addresses.UpsertAddress(suite.ctx, caller, "1 Test Road", "13800000000")
	require.NoError(suite.T(), err)
}
