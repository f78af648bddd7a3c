package db

import (
	"context"

	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/RoyceAzure/lab/storefront/internal/model"
	"gorm.io/gorm/clause"
)

func (q *Queries) CreateOrder(ctx context.Context, order *model.Order) error {
	return q.conn(ctx).Create(order).Error
}

func (q *Queries) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	if err := q.conn(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (q *Queries) ListOrdersByUser(ctx context.Context, userID string) ([]model.Order, error) {
	orders := []model.Order{}
	err := q.conn(ctx).Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (q *Queries) ListAllOrders(ctx context.Context) ([]model.Order, error) {
	orders := []model.Order{}
	if err := q.conn(ctx).Order("created_at DESC").Order("id DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateOrderStatus 只在目前狀態為 from 時更新
func (q *Queries) UpdateOrderStatus(ctx context.Context, id string, from, to constants.OrderStatus) (int64, error) {
	res := q.conn(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected, res.Error
}

func (q *Queries) DeleteOrder(ctx context.Context, id string) (int64, error) {
	res := q.conn(ctx).Where("id = ?", id).Delete(&model.Order{})
	return res.RowsAffected, res.Error
}

func (q *Queries) GetAddress(ctx context.Context, userID string) (*model.Address, error) {
	var address model.Address
	if err := q.conn(ctx).Where("user_id = ?", userID).First(&address).Error; err != nil {
		return nil, err
	}
	return &address, nil
}

func (q *Queries) UpsertAddress(ctx context.Context, address *model.Address) error {
	return q.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"address", "contact"}),
	}).Create(address).Error
}
