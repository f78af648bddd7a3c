package model

import (
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/shopspring/decimal"
)

func init() {
	// 前端直接拿價格做運算，輸出成 number
	decimal.MarshalJSONWithoutQuotes = true
}

type User struct {
	ID           string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Username     string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	PasswordHash string         `gorm:"not null" json:"-"`
	Role         constants.Role `gorm:"type:varchar(16);not null;default:user" json:"role"`
	CreatedAt    time.Time      `json:"createdAt"`
}

func (User) TableName() string { return "users" }

type Product struct {
	ID          string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:text;not null;default:''" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Image       *string         `gorm:"type:text" json:"image"`
	Category    *string         `gorm:"type:varchar(64)" json:"category"`
	Year        *int            `json:"year,omitempty"`
	Mileage     *int            `json:"mileage,omitempty"`
	CreatedBy   string          `gorm:"type:varchar(36)" json:"createdBy"`
	Images      StringList      `gorm:"type:text;not null" json:"images"`
	IsActive    int             `gorm:"not null;default:1;index" json:"isActive"`
	ReservedBy  *string         `gorm:"type:varchar(36);index" json:"-"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (Product) TableName() string { return "products" }

// CartLine 一個使用者對一個商品只會有一筆
type CartLine struct {
	UserID    string `gorm:"primaryKey;type:varchar(36)" json:"userId"`
	ProductID string `gorm:"primaryKey;type:varchar(36)" json:"productId"`
	Qty       int    `gorm:"not null" json:"qty"`
}

func (CartLine) TableName() string { return "cart" }

type OrderItem struct {
	ProductID       string          `json:"productId"`
	Qty             int             `json:"qty"`
	PriceAtPurchase decimal.Decimal `json:"priceAtPurchase"`
}

type Order struct {
	ID         string                `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID     string                `gorm:"type:varchar(36);not null;index" json:"userId"`
	Items      OrderItems            `gorm:"type:text;not null" json:"items"`
	TotalPrice decimal.Decimal       `gorm:"type:decimal(12,2);not null" json:"totalPrice"`
	Status     constants.OrderStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	CreatedAt  int64                 `gorm:"autoCreateTime:milli;index" json:"createdAt"`
	Address    string                `gorm:"type:text;not null" json:"address"`
	Contact    string                `gorm:"type:varchar(255);not null" json:"contact"`
}

func (Order) TableName() string { return "orders" }

type Address struct {
	UserID  string `gorm:"primaryKey;type:varchar(36)" json:"-"`
	Address string `gorm:"type:text;not null" json:"address"`
	Contact string `gorm:"type:varchar(255);not null" json:"contact"`
}

func (Address) TableName() string { return "addresses" }

// Identity 由 session token 解析出的呼叫者
type Identity struct {
	ID       string         `json:"id"`
	Username string         `json:"username"`
	Role     constants.Role `json:"role"`
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == constants.RoleAdmin
}

// AllModels migration 與測試建表使用
func AllModels() []any {
	return []any{&User{}, &Product{}, &CartLine{}, &Order{}, &Address{}}
}
