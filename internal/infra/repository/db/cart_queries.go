package db

import (
	"context"

	"github.com/RoyceAzure/lab/storefront/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (q *Queries) ListCartLines(ctx context.Context, userID string) ([]model.CartLine, error) {
	lines := []model.CartLine{}
	if err := q.conn(ctx).Where("user_id = ?", userID).Order("product_id").Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

type cartItemRow struct {
	ProductID    string              `gorm:"column:product_id"`
	Qty          int                 `gorm:"column:qty"`
	ProductRowID *string             `gorm:"column:p_id"`
	Name         *string             `gorm:"column:p_name"`
	Price        decimal.NullDecimal `gorm:"column:p_price"`
	Image        *string             `gorm:"column:p_image"`
}

// ListCartItems 購物車 join 目前的商品資料
func (q *Queries) ListCartItems(ctx context.Context, userID string) ([]model.CartItemView, error) {
	var rows []cartItemRow
	err := q.conn(ctx).Table("cart AS c").
		Select("c.product_id, c.qty, p.id AS p_id, p.name AS p_name, p.price AS p_price, p.image AS p_image").
		Joins("LEFT JOIN products p ON p.id = c.product_id").
		Where("c.user_id = ?", userID).
		Order("c.product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	items := make([]model.CartItemView, 0, len(rows))
	for _, row := range rows {
		item := model.CartItemView{ProductID: row.ProductID, Qty: row.Qty}
		if row.ProductRowID != nil {
			snapshot := &model.CartProductSnapshot{ID: *row.ProductRowID, Image: row.Image}
			if row.Name != nil {
				snapshot.Name = *row.Name
			}
			if row.Price.Valid {
				snapshot.Price = row.Price.Decimal
			}
			item.Product = snapshot
		}
		items = append(items, item)
	}
	return items, nil
}

func (q *Queries) UpsertCartLine(ctx context.Context, line *model.CartLine) error {
	return q.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"qty"}),
	}).Create(line).Error
}

// IncrementCartLine 以單一語句加減數量，不先讀再寫，並發的第一次加入也不會互相覆蓋
//
// delta > 0: insert，衝突時 qty = cart.qty + excluded.qty
// delta < 0: 條件式 update，結果會 <= 0 時改為刪除該行
func (q *Queries) IncrementCartLine(ctx context.Context, userID, productID string, delta int) error {
	if delta == 0 {
		return nil
	}
	tx := q.conn(ctx)
	if delta > 0 {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{"qty": gorm.Expr("cart.qty + excluded.qty")}),
		}).Create(&model.CartLine{UserID: userID, ProductID: productID, Qty: delta}).Error
	}

	res := tx.Model(&model.CartLine{}).
		Where("user_id = ? AND product_id = ? AND qty + ? > 0", userID, productID, delta).
		Update("qty", gorm.Expr("qty + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	return q.DeleteCartLine(ctx, userID, productID)
}

func (q *Queries) DeleteCartLine(ctx context.Context, userID, productID string) error {
	return q.conn(ctx).Where("user_id = ? AND product_id = ?", userID, productID).Delete(&model.CartLine{}).Error
}

func (q *Queries) ClearCart(ctx context.Context, userID string) error {
	return q.conn(ctx).Where("user_id = ?", userID).Delete(&model.CartLine{}).Error
}

func (q *Queries) DeleteCartLinesByProduct(ctx context.Context, productID string) error {
	return q.conn(ctx).Where("product_id = ?", productID).Delete(&model.CartLine{}).Error
}
