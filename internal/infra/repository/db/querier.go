package db

import (
	"context"

	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/RoyceAzure/lab/storefront/internal/model"
	"gorm.io/gorm"
)

type Querier interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	CountUsersByRole(ctx context.Context, role constants.Role) (int64, error)

	CreateProduct(ctx context.Context, product *model.Product) error
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListProducts(ctx context.Context, params model.ListProductsParams) ([]model.Product, error)
	CountProducts(ctx context.Context) (int64, error)
	UpdateProduct(ctx context.Context, id string, cols map[string]any) (int64, error)
	DeleteProduct(ctx context.Context, id string) (int64, error)
	// ReserveProduct 只在商品仍為上架時下架並標記由 orderID 保留
	ReserveProduct(ctx context.Context, productID, orderID string) (int64, error)
	// ReleaseProductsByOrder 重新上架 orderID 保留的商品，回傳商品 id
	ReleaseProductsByOrder(ctx context.Context, orderID string) ([]string, error)

	ListCartLines(ctx context.Context, userID string) ([]model.CartLine, error)
	ListCartItems(ctx context.Context, userID string) ([]model.CartItemView, error)
	UpsertCartLine(ctx context.Context, line *model.CartLine) error
	IncrementCartLine(ctx context.Context, userID, productID string, delta int) error
	DeleteCartLine(ctx context.Context, userID, productID string) error
	ClearCart(ctx context.Context, userID string) error
	DeleteCartLinesByProduct(ctx context.Context, productID string) error

	CreateOrder(ctx context.Context, order *model.Order) error
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]model.Order, error)
	ListAllOrders(ctx context.Context) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, from, to constants.OrderStatus) (int64, error)
	DeleteOrder(ctx context.Context, id string) (int64, error)

	GetAddress(ctx context.Context, userID string) (*model.Address, error)
	UpsertAddress(ctx context.Context, address *model.Address) error
}

type Queries struct {
	db  *gorm.DB
	ctx context.Context
}

func NewQueries(db *gorm.DB) *Queries {
	return &Queries{db: db}
}

// 由 Store 綁定的 timeout context 優先於呼叫端傳入的 ctx
func newBoundQueries(ctx context.Context, db *gorm.DB) *Queries {
	return &Queries{db: db, ctx: ctx}
}

func (q *Queries) conn(ctx context.Context) *gorm.DB {
	if q.ctx != nil {
		ctx = q.ctx
	}
	return q.db.WithContext(ctx)
}

var _ Querier = (*Queries)(nil)
