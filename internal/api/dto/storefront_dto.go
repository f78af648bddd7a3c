package dto

import (
	"github.com/RoyceAzure/lab/storefront/internal/model"
	"github.com/shopspring/decimal"
)

// UserActionDTO POST /users 同時處理登入與註冊
type UserActionDTO struct {
	Action   string `json:"action"` //login | register
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse 登入/註冊成功的回應
type AuthResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"` //unix ms
}

type UserDTO struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	CreatedAt int64  `json:"createdAt"`
}

type ProductCreateDTO struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Image       *string          `json:"image"`
	Category    *string          `json:"category"`
	Year        *int             `json:"year"`
	Mileage     *int             `json:"mileage"`
	Images      []string         `json:"images"`
}

// ProductUpdateDTO 沒帶的欄位不更新，帶 null 的可為空欄位會清空
type ProductUpdateDTO struct {
	Name        model.Optional[*string]          `json:"name"`
	Description model.Optional[*string]          `json:"description"`
	Price       model.Optional[*decimal.Decimal] `json:"price"`
	Image       model.Optional[*string]          `json:"image"`
	Category    model.Optional[*string]          `json:"category"`
	Year        model.Optional[*int]             `json:"year"`
	Mileage     model.Optional[*int]             `json:"mileage"`
	Images      model.Optional[[]string]         `json:"images"`
	IsActive    model.Optional[*int]             `json:"isActive"`
}

// CartItemDTO carId 為車輛版前端的舊欄位名稱
type CartItemDTO struct {
	ProductID string `json:"productId"`
	CarID     string `json:"carId"`
	Qty       *int   `json:"qty"`
	Mode      string `json:"mode"` //increment | set
}

func (c CartItemDTO) ResolveProductID() string {
	if c.ProductID != "" {
		return c.ProductID
	}
	return c.CarID
}

type CheckoutItemDTO struct {
	ProductID string `json:"productId"`
	CarID     string `json:"carId"`
	Qty       int    `json:"qty"`
}

type CheckoutDTO struct {
	Items   []CheckoutItemDTO `json:"items"`
	Address string            `json:"address"`
	Contact string            `json:"contact"`
}

type OrderActionDTO struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type AddressDTO struct {
	Address string `json:"address"`
	Contact string `json:"contact"`
}

type HealthDTO struct {
	Status string `json:"status"`
}
