package service

import (
	"context"

	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/model"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
)

type ICartService interface {
	// GetCart 商品名稱、價格為即時資料，count 為數量總和
	GetCart(ctx context.Context, caller *model.Identity) (*model.CartView, error)
	// AddItem mode 為 increment(預設) 累加或 set 覆蓋，結果 <= 0 時移除該行
	//
	// 錯誤:
	//   - apperr.InvalidInput 400: productId 為空、qty 為 0、mode 不合法
	//   - apperr.NotFound 404 (ProductNotFound)
	AddItem(ctx context.Context, caller *model.Identity, productID string, qty int, mode constants.CartMode) error
	// SetQty 直接設定數量，<= 0 時移除該行
	SetQty(ctx context.Context, caller *model.Identity, productID string, qty int) error
	// RemoveItem 冪等
	RemoveItem(ctx context.Context, caller *model.Identity, productID string) error
	ClearCart(ctx context.Context, caller *model.Identity) error
}

type CartService struct {
	store db.IStore
}

func NewCartService(store db.IStore) *CartService {
	if store == nil {
		panic("store cannot be nil")
	}
	return &CartService{store: store}
}

func (s *CartService) GetCart(ctx context.Context, caller *model.Identity) (*model.CartView, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, err
	}

	var items []model.CartItemView
	err := s.store.Do(ctx, func(q db.Querier) error {
		var err error
		items, err = q.ListCartItems(ctx, caller.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	view := &model.CartView{Items: items}
	for _, item := range items {
		view.Count += item.Qty
	}
	return view, nil
}

func (s *CartService) AddItem(ctx context.Context, caller *model.Identity, productID string, qty int, mode constants.CartMode) error {
	if err := requireIdentity(caller); err != nil {
		return err
	}
	if productID == "" {
		return apperr.New(apperr.InvalidInput, "productId is required")
	}
	if qty == 0 {
		return apperr.New(apperr.InvalidInput, "qty is required")
	}
	if qty > constants.MaxLineQty || qty < -constants.MaxLineQty {
		return apperr.Newf(apperr.InvalidInput, "qty must be between -%d and %d", constants.MaxLineQty, constants.MaxLineQty)
	}
	if mode == "" {
		mode = constants.CartModeIncrement
	}
	if mode != constants.CartModeIncrement && mode != constants.CartModeSet {
		return apperr.Newf(apperr.InvalidInput, "unsupported cart mode %q", mode)
	}

	return s.store.ExecTx(ctx, func(q db.Querier) error {
		if err := ensureProductExists(ctx, q, productID); err != nil {
			return err
		}

		if mode == constants.CartModeIncrement {
			return q.IncrementCartLine(ctx, caller.ID, productID, qty)
		}
		return writeCartLine(ctx, q, caller.ID, productID, qty)
	})
}

func (s *CartService) SetQty(ctx context.Context, caller *model.Identity, productID string, qty int) error {
	if err := requireIdentity(caller); err != nil {
		return err
	}
	if productID == "" {
		return apperr.New(apperr.InvalidInput, "productId is required")
	}
	if qty > constants.MaxLineQty {
		return apperr.Newf(apperr.InvalidInput, "qty must not exceed %d", constants.MaxLineQty)
	}

	return s.store.ExecTx(ctx, func(q db.Querier) error {
		if qty > 0 {
			if err := ensureProductExists(ctx, q, productID); err != nil {
				return err
			}
		}
		return writeCartLine(ctx, q, caller.ID, productID, qty)
	})
}

func (s *CartService) RemoveItem(ctx context.Context, caller *model.Identity, productID string) error {
	if err := requireIdentity(caller); err != nil {
		return err
	}
	if productID == "" {
		return apperr.New(apperr.InvalidInput, "productId is required")
	}
	return s.store.Do(ctx, func(q db.Querier) error {
		return q.DeleteCartLine(ctx, caller.ID, productID)
	})
}

func (s *CartService) ClearCart(ctx context.Context, caller *model.Identity) error {
	if err := requireIdentity(caller); err != nil {
		return err
	}
	return s.store.Do(ctx, func(q db.Querier) error {
		return q.ClearCart(ctx, caller.ID)
	})
}

func ensureProductExists(ctx context.Context, q db.Querier, productID string) error {
	if _, err := q.GetProduct(ctx, productID); err != nil {
		if isNotFound(err) {
			return apperr.ProductNotFound(productID)
		}
		return err
	}
	return nil
}

// qty <= 0 表示該行不存在
func writeCartLine(ctx context.Context, q db.Querier, userID, productID string, qty int) error {
	if qty <= 0 {
		return q.DeleteCartLine(ctx, userID, productID)
	}
	return q.UpsertCartLine(ctx, &model.CartLine{UserID: userID, ProductID: productID, Qty: qty})
}
