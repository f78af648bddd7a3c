package model

import (
	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/shopspring/decimal"
)

// NewProduct 建立商品的輸入，Price 必填
type NewProduct struct {
	Name        string
	Description string
	Price       *decimal.Decimal
	Image       *string
	Category    *string
	Year        *int
	Mileage     *int
	Images      []string
}

// ProductUpdate 部分更新，只套用 Set 的欄位
type ProductUpdate struct {
	Name        Optional[string]
	Description Optional[string]
	Price       Optional[decimal.Decimal]
	Image       Optional[*string]
	Category    Optional[*string]
	Year        Optional[*int]
	Mileage     Optional[*int]
	Images      Optional[[]string]
	IsActive    Optional[int]
}

func (u ProductUpdate) IsEmpty() bool {
	return !u.Name.Set && !u.Description.Set && !u.Price.Set && !u.Image.Set &&
		!u.Category.Set && !u.Year.Set && !u.Mileage.Set && !u.Images.Set && !u.IsActive.Set
}

// Columns 轉成 gorm Updates 用的欄位 map
func (u ProductUpdate) Columns() map[string]any {
	cols := map[string]any{}
	if u.Name.Set {
		cols["name"] = u.Name.Value
	}
	if u.Description.Set {
		cols["description"] = u.Description.Value
	}
	if u.Price.Set {
		cols["price"] = u.Price.Value
	}
	if u.Image.Set {
		cols["image"] = u.Image.Value
	}
	if u.Category.Set {
		cols["category"] = u.Category.Value
	}
	if u.Year.Set {
		cols["year"] = u.Year.Value
	}
	if u.Mileage.Set {
		cols["mileage"] = u.Mileage.Value
	}
	if u.Images.Set {
		cols["images"] = StringList(u.Images.Value)
	}
	if u.IsActive.Set {
		cols["is_active"] = u.IsActive.Value
		// 手動上下架會清掉訂單的保留
		cols["reserved_by"] = nil
	}
	return cols
}

type ListProductsParams struct {
	IncludeInactive bool
}

// CheckoutItem 明確指定的下單品項，Qty 為 0 代表未帶
type CheckoutItem struct {
	ProductID string
	Qty       int
}

type CheckoutParams struct {
	Items   []CheckoutItem
	Address string
	Contact string
}

// CartItemView 購物車列表，商品資訊即時讀取不做快照
type CartItemView struct {
	ProductID string               `json:"productId"`
	Qty       int                  `json:"qty"`
	Product   *CartProductSnapshot `json:"product"`
}

type CartProductSnapshot struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Image *string         `json:"image"`
}

type CartView struct {
	Items []CartItemView `json:"items"`
	Count int            `json:"count"`
}

type AuthResult struct {
	User      *User
	Token     string
	ExpiresAt int64
}

type OrderEventType string

const (
	OrderEventCreated   OrderEventType = "order.created"
	OrderEventCancelled OrderEventType = "order.cancelled"
	OrderEventDeleted   OrderEventType = "order.deleted"
)

// OrderEvent 送到 kafka 的訂單事件
type OrderEvent struct {
	Type       OrderEventType        `json:"type"`
	OrderID    string                `json:"orderId"`
	UserID     string                `json:"userId"`
	ActorID    string                `json:"actorId"`
	Status     constants.OrderStatus `json:"status,omitempty"`
	TotalPrice decimal.Decimal       `json:"totalPrice"`
	ProductIDs []string              `json:"productIds"`
	OccurredAt int64                 `json:"occurredAt"`
}
