package service

import (
	"context"
	"strings"

	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/redis_decorator"
	"github.com/RoyceAzure/lab/storefront/internal/model"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var maxPrice = decimal.New(1, constants.MaxPriceDigits)

type IProductService interface {
	// GetProduct 錯誤:
	//   - apperr.NotFound 404 (ProductNotFound)
	GetProduct(ctx context.Context, productID string) (*model.Product, error)
	// ListProducts 新的在前，includeInactive 只有 admin 有效
	ListProducts(ctx context.Context, caller *model.Identity, includeInactive bool) ([]model.Product, error)
	// CreateProduct 建立上架商品
	//
	// 錯誤:
	//   - apperr.Forbidden 403: 非 admin
	//   - apperr.InvalidInput 400: name 為空、price 未帶或小於 0
	CreateProduct(ctx context.Context, caller *model.Identity, input model.NewProduct) (*model.Product, error)
	// UpdateProduct 部分更新，回傳更新後的商品
	//
	// 錯誤:
	//   - apperr.Forbidden 403: 非 admin
	//   - apperr.InvalidInput 400: 沒有欄位或欄位不合法
	//   - apperr.NotFound 404 (ProductNotFound)
	UpdateProduct(ctx context.Context, caller *model.Identity, productID string, update model.ProductUpdate) (*model.Product, error)
	// DeleteProduct hard delete，同時移除所有購物車中的該商品
	DeleteProduct(ctx context.Context, caller *model.Identity, productID string) error
}

type ProductService struct {
	store  db.IStore
	reader redis_decorator.IProductReader
}

func NewProductService(store db.IStore, reader redis_decorator.IProductReader) *ProductService {
	if store == nil {
		panic("store cannot be nil")
	}
	if reader == nil {
		panic("reader cannot be nil")
	}
	return &ProductService{store: store, reader: reader}
}

func (s *ProductService) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	if productID == "" {
		return nil, apperr.New(apperr.InvalidInput, "product id is required")
	}
	product, err := s.reader.GetProduct(ctx, productID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.ProductNotFound(productID)
		}
		return nil, err
	}
	return product, nil
}

func (s *ProductService) ListProducts(ctx context.Context, caller *model.Identity, includeInactive bool) ([]model.Product, error) {
	params := model.ListProductsParams{IncludeInactive: includeInactive && caller.IsAdmin()}
	var products []model.Product
	err := s.store.Do(ctx, func(q db.Querier) error {
		var err error
		products, err = q.ListProducts(ctx, params)
		return err
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (s *ProductService) CreateProduct(ctx context.Context, caller *model.Identity, input model.NewProduct) (*model.Product, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperr.New(apperr.InvalidInput, "name is required")
	}
	if input.Price == nil {
		return nil, apperr.New(apperr.InvalidInput, "price is required")
	}
	if err := validatePrice(*input.Price); err != nil {
		return nil, err
	}

	images := input.Images
	if images == nil {
		images = []string{}
		if input.Image != nil && *input.Image != "" {
			images = []string{*input.Image}
		}
	}

	product := &model.Product{
		ID:          uuid.NewString(),
		Name:        name,
		Description: input.Description,
		Price:       *input.Price,
		Image:       input.Image,
		Category:    input.Category,
		Year:        input.Year,
		Mileage:     input.Mileage,
		CreatedBy:   caller.ID,
		Images:      model.StringList(images),
		IsActive:    1,
	}
	err := s.store.Do(ctx, func(q db.Querier) error {
		return q.CreateProduct(ctx, product)
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, caller *model.Identity, productID string, update model.ProductUpdate) (*model.Product, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if productID == "" {
		return nil, apperr.New(apperr.InvalidInput, "product id is required")
	}
	if err := validateProductUpdate(&update); err != nil {
		return nil, err
	}

	var product *model.Product
	err := s.store.ExecTx(ctx, func(q db.Querier) error {
		rows, err := q.UpdateProduct(ctx, productID, update.Columns())
		if err != nil {
			return err
		}
		if rows == 0 {
			return apperr.ProductNotFound(productID)
		}
		product, err = q.GetProduct(ctx, productID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.reader.InvalidateProducts(ctx, productID)
	return product, nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, caller *model.Identity, productID string) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	if productID == "" {
		return apperr.New(apperr.InvalidInput, "product id is required")
	}

	err := s.store.ExecTx(ctx, func(q db.Querier) error {
		if err := q.DeleteCartLinesByProduct(ctx, productID); err != nil {
			return err
		}
		rows, err := q.DeleteProduct(ctx, productID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return apperr.ProductNotFound(productID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.reader.InvalidateProducts(ctx, productID)
	return nil
}

func validateProductUpdate(update *model.ProductUpdate) error {
	if update.IsEmpty() {
		return apperr.New(apperr.InvalidInput, "no fields to update")
	}
	if update.Name.Set {
		update.Name.Value = strings.TrimSpace(update.Name.Value)
		if update.Name.Value == "" {
			return apperr.New(apperr.InvalidInput, "name must not be empty")
		}
	}
	if update.Price.Set {
		if err := validatePrice(update.Price.Value); err != nil {
			return err
		}
	}
	if update.IsActive.Set && update.IsActive.Value != 0 && update.IsActive.Value != 1 {
		return apperr.New(apperr.InvalidInput, "isActive must be 0 or 1")
	}
	return nil
}

// validatePrice 需符合 products.price DECIMAL(10,2)，超出位數的值不做四捨五入
func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return apperr.New(apperr.InvalidInput, "price must not be negative")
	}
	if !price.Equal(price.Round(constants.PriceScale)) {
		return apperr.Newf(apperr.InvalidInput, "price must have at most %d decimal places", constants.PriceScale)
	}
	if !price.LessThan(maxPrice) {
		return apperr.Newf(apperr.InvalidInput, "price must be less than %s", maxPrice.String())
	}
	return nil
}
