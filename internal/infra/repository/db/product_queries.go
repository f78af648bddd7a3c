package db

import (
	"context"

	"github.com/RoyceAzure/lab/storefront/internal/model"
)

func (q *Queries) CreateProduct(ctx context.Context, product *model.Product) error {
	return q.conn(ctx).Create(product).Error
}

func (q *Queries) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	if err := q.conn(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// ListProducts 新的在前
func (q *Queries) ListProducts(ctx context.Context, params model.ListProductsParams) ([]model.Product, error) {
	tx := q.conn(ctx).Order("created_at DESC").Order("id DESC")
	if !params.IncludeInactive {
		tx = tx.Where("is_active = ?", 1)
	}
	products := []model.Product{}
	if err := tx.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (q *Queries) CountProducts(ctx context.Context) (int64, error) {
	var count int64
	err := q.conn(ctx).Model(&model.Product{}).Count(&count).Error
	return count, err
}

func (q *Queries) UpdateProduct(ctx context.Context, id string, cols map[string]any) (int64, error) {
	res := q.conn(ctx).Model(&model.Product{}).Where("id = ?", id).Updates(cols)
	return res.RowsAffected, res.Error
}

func (q *Queries) DeleteProduct(ctx context.Context, id string) (int64, error) {
	res := q.conn(ctx).Where("id = ?", id).Delete(&model.Product{})
	return res.RowsAffected, res.Error
}

func (q *Queries) ReserveProduct(ctx context.Context, productID, orderID string) (int64, error) {
	res := q.conn(ctx).Model(&model.Product{}).
		Where("id = ? AND is_active = ?", productID, 1).
		Updates(map[string]any{"is_active": 0, "reserved_by": orderID})
	return res.RowsAffected, res.Error
}

func (q *Queries) ReleaseProductsByOrder(ctx context.Context, orderID string) ([]string, error) {
	ids := []string{}
	if err := q.conn(ctx).Model(&model.Product{}).Where("reserved_by = ?", orderID).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return ids, nil
	}

	err := q.conn(ctx).Model(&model.Product{}).
		Where("reserved_by = ?", orderID).
		Updates(map[string]any{"is_active": 1, "reserved_by": nil}).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
