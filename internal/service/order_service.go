package service

import (
	"context"
	"strings"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/RoyceAzure/lab/storefront/internal/infra/producer"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/redis_decorator"
	"github.com/RoyceAzure/lab/storefront/internal/metrics"
	"github.com/RoyceAzure/lab/storefront/internal/model"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const publishTimeout = 5 * time.Second

// orders.total_price 的整數位上限
var maxOrderTotal = decimal.New(1, constants.MaxTotalDigits)

type IOrderService interface {
	// Checkout 將購物車或指定品項轉成訂單
	//
	// 同一個 transaction 內: 建立訂單、快照價格、下架商品、清空購物車
	// 任一步失敗全部 rollback
	//
	// 錯誤:
	//   - apperr.Unauthorized 401: 未登入
	//   - apperr.InvalidInput 400 (EmptyOrder / MissingAddress): 沒有品項、地址或聯絡方式不完整
	//   - apperr.NotFound 404 (ProductNotFound)
	//   - apperr.Conflict 409 (ProductUnavailable): 商品已下架或被其他訂單搶先
	Checkout(ctx context.Context, caller *model.Identity, params model.CheckoutParams) (*model.Order, error)
	// CancelOrder 擁有者或 admin 取消 pending 訂單，並重新上架該訂單保留的商品
	//
	// 錯誤:
	//   - apperr.NotFound 404 (OrderNotFound)
	//   - apperr.Forbidden 403: 非擁有者且非 admin
	//   - apperr.Conflict 409 (InvalidStatusTransition): 訂單不是 pending
	CancelOrder(ctx context.Context, caller *model.Identity, orderID string) (*model.Order, error)
	// DeleteOrder admin 刪除任意狀態的訂單，並重新上架該訂單保留的商品
	DeleteOrder(ctx context.Context, caller *model.Identity, orderID string) error
	// ListOrders 新的在前，includeAll 只有 admin 有效
	ListOrders(ctx context.Context, caller *model.Identity, includeAll bool) ([]model.Order, error)
	GetOrder(ctx context.Context, caller *model.Identity, orderID string) (*model.Order, error)
}

type OrderService struct {
	store           db.IStore
	reader          redis_decorator.IProductReader
	publisher       producer.IOrderEventPublisher
	metrics         *metrics.Metrics
	logger          *zerolog.Logger
	retainCancelled bool
	now             func() time.Time
}

type OrderOption func(*OrderService)

// WithRetainCancelled 取消時保留訂單並改為 cancelled，預設直接刪除
func WithRetainCancelled(retain bool) OrderOption {
	return func(s *OrderService) {
		s.retainCancelled = retain
	}
}

func WithOrderMetrics(m *metrics.Metrics) OrderOption {
	return func(s *OrderService) {
		s.metrics = m
	}
}

func WithOrderLogger(logger *zerolog.Logger) OrderOption {
	return func(s *OrderService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(now func() time.Time) OrderOption {
	return func(s *OrderService) {
		s.now = now
	}
}

func NewOrderService(store db.IStore, reader redis_decorator.IProductReader, publisher producer.IOrderEventPublisher, opts ...OrderOption) *OrderService {
	if store == nil {
		panic("store cannot be nil")
	}
	if reader == nil {
		panic("reader cannot be nil")
	}
	if publisher == nil {
		panic("publisher cannot be nil")
	}
	nop := zerolog.Nop()
	s := &OrderService{
		store:     store,
		reader:    reader,
		publisher: publisher,
		logger:    &nop,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *OrderService) Checkout(ctx context.Context, caller *model.Identity, params model.CheckoutParams) (*model.Order, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, err
	}
	explicit, err := normalizeCheckoutItems(params.Items)
	if err != nil {
		return nil, err
	}

	var order *model.Order
	var productIDs []string
	err = s.store.ExecTx(ctx, func(q db.Querier) error {
		items := explicit
		if len(items) == 0 {
			lines, err := q.ListCartLines(ctx, caller.ID)
			if err != nil {
				return err
			}
			items = make([]model.CheckoutItem, 0, len(lines))
			for _, line := range lines {
				items = append(items, model.CheckoutItem{ProductID: line.ProductID, Qty: line.Qty})
			}
		}
		if len(items) == 0 {
			return apperr.EmptyOrder()
		}

		address, contact, err := resolveShipping(ctx, q, caller.ID, params.Address, params.Contact)
		if err != nil {
			return err
		}

		orderItems := make(model.OrderItems, 0, len(items))
		total := decimal.Zero
		for _, item := range items {
			product, err := q.GetProduct(ctx, item.ProductID)
			if err != nil {
				if isNotFound(err) {
					return apperr.ProductNotFound(item.ProductID)
				}
				return err
			}
			if product.IsActive != 1 {
				return apperr.ProductUnavailable(item.ProductID)
			}
			// 購物車可累加超過上限，結帳時再擋
			if item.Qty <= 0 || item.Qty > constants.MaxLineQty {
				return apperr.Newf(apperr.InvalidInput, "invalid qty for product %s", item.ProductID)
			}
			orderItems = append(orderItems, model.OrderItem{
				ProductID:       product.ID,
				Qty:             item.Qty,
				PriceAtPurchase: product.Price,
			})
			total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Qty))))
		}

		if !total.LessThan(maxOrderTotal) {
			return apperr.New(apperr.InvalidInput, "order total is too large")
		}

		o := &model.Order{
			ID:         uuid.NewString(),
			UserID:     caller.ID,
			Items:      orderItems,
			TotalPrice: total,
			Status:     constants.OrderStatusPending,
			CreatedAt:  s.now().UnixMilli(),
			Address:    address,
			Contact:    contact,
		}
		if err := q.CreateOrder(ctx, o); err != nil {
			return err
		}

		// 條件式下架，並發的另一筆 checkout 會在這裡拿到 0 rows
		ids := make([]string, 0, len(orderItems))
		for _, item := range orderItems {
			rows, err := q.ReserveProduct(ctx, item.ProductID, o.ID)
			if err != nil {
				return err
			}
			if rows == 0 {
				return apperr.ProductUnavailable(item.ProductID)
			}
			ids = append(ids, item.ProductID)
		}

		if err := q.ClearCart(ctx, caller.ID); err != nil {
			return err
		}

		order = o
		productIDs = ids
		return nil
	})
	s.metrics.ObserveOrderOp("checkout", err)
	if err != nil {
		return nil, err
	}

	s.reader.InvalidateProducts(ctx, productIDs...)
	s.publish(ctx, model.OrderEventCreated, order, caller.ID, productIDs)
	return order, nil
}

func (s *OrderService) CancelOrder(ctx context.Context, caller *model.Identity, orderID string) (*model.Order, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, err
	}
	if orderID == "" {
		return nil, apperr.New(apperr.InvalidInput, "order id is required")
	}

	var order *model.Order
	var released []string
	err := s.store.ExecTx(ctx, func(q db.Querier) error {
		o, err := q.GetOrder(ctx, orderID)
		if err != nil {
			if isNotFound(err) {
				return apperr.OrderNotFound(orderID)
			}
			return err
		}
		if o.UserID != caller.ID && !caller.IsAdmin() {
			return apperr.New(apperr.Forbidden, "not allowed to cancel this order")
		}
		if o.Status != constants.OrderStatusPending {
			return apperr.InvalidStatusTransition(string(o.Status), string(constants.OrderStatusCancelled))
		}

		ids, err := q.ReleaseProductsByOrder(ctx, o.ID)
		if err != nil {
			return err
		}

		if s.retainCancelled {
			rows, err := q.UpdateOrderStatus(ctx, o.ID, constants.OrderStatusPending, constants.OrderStatusCancelled)
			if err != nil {
				return err
			}
			if rows == 0 {
				return apperr.InvalidStatusTransition(string(o.Status), string(constants.OrderStatusCancelled))
			}
		} else {
			rows, err := q.DeleteOrder(ctx, o.ID)
			if err != nil {
				return err
			}
			if rows == 0 {
				return apperr.OrderNotFound(orderID)
			}
		}

		o.Status = constants.OrderStatusCancelled
		order = o
		released = ids
		return nil
	})
	s.metrics.ObserveOrderOp("cancel", err)
	if err != nil {
		return nil, err
	}

	s.reader.InvalidateProducts(ctx, released...)
	s.publish(ctx, model.OrderEventCancelled, order, caller.ID, released)
	return order, nil
}

func (s *OrderService) DeleteOrder(ctx context.Context, caller *model.Identity, orderID string) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	if orderID == "" {
		return apperr.New(apperr.InvalidInput, "order id is required")
	}

	var order *model.Order
	var released []string
	err := s.store.ExecTx(ctx, func(q db.Querier) error {
		o, err := q.GetOrder(ctx, orderID)
		if err != nil {
			if isNotFound(err) {
				return apperr.OrderNotFound(orderID)
			}
			return err
		}

		ids, err := q.ReleaseProductsByOrder(ctx, o.ID)
		if err != nil {
			return err
		}
		rows, err := q.DeleteOrder(ctx, o.ID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return apperr.OrderNotFound(orderID)
		}

		order = o
		released = ids
		return nil
	})
	s.metrics.ObserveOrderOp("delete", err)
	if err != nil {
		return err
	}

	s.reader.InvalidateProducts(ctx, released...)
	s.publish(ctx, model.OrderEventDeleted, order, caller.ID, released)
	return nil
}

func (s *OrderService) ListOrders(ctx context.Context, caller *model.Identity, includeAll bool) ([]model.Order, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, err
	}

	var orders []model.Order
	err := s.store.Do(ctx, func(q db.Querier) error {
		var err error
		if includeAll && caller.IsAdmin() {
			orders, err = q.ListAllOrders(ctx)
		} else {
			orders, err = q.ListOrdersByUser(ctx, caller.ID)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *OrderService) GetOrder(ctx context.Context, caller *model.Identity, orderID string) (*model.Order, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, err
	}

	var order *model.Order
	err := s.store.Do(ctx, func(q db.Querier) error {
		var err error
		order, err = q.GetOrder(ctx, orderID)
		return err
	})
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.OrderNotFound(orderID)
		}
		return nil, err
	}
	if order.UserID != caller.ID && !caller.IsAdmin() {
		return nil, apperr.New(apperr.Forbidden, "not allowed to view this order")
	}
	return order, nil
}

// publish 在 commit 後執行，失敗只記錄不回滾
func (s *OrderService) publish(ctx context.Context, eventType model.OrderEventType, order *model.Order, actorID string, productIDs []string) {
	evt := model.OrderEvent{
		Type:       eventType,
		OrderID:    order.ID,
		UserID:     order.UserID,
		ActorID:    actorID,
		Status:     order.Status,
		TotalPrice: order.TotalPrice,
		ProductIDs: productIDs,
		OccurredAt: s.now().UnixMilli(),
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	err := s.publisher.Publish(pubCtx, evt)
	s.metrics.ObserveOrderEvent(string(eventType), err)
	if err != nil {
		logger := s.logger
		if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
			logger = l
		}
		logger.Error().Err(err).
			Str("event_type", string(eventType)).
			Str("order_id", order.ID).
			Msg("publish order event failed")
	}
}

// normalizeCheckoutItems qty 未帶視為 1，同商品合併
func normalizeCheckoutItems(items []model.CheckoutItem) ([]model.CheckoutItem, error) {
	if len(items) == 0 {
		return nil, nil
	}
	merged := make([]model.CheckoutItem, 0, len(items))
	index := make(map[string]int, len(items))
	for _, item := range items {
		productID := strings.TrimSpace(item.ProductID)
		if productID == "" {
			return nil, apperr.New(apperr.InvalidInput, "productId is required for every item")
		}
		if item.Qty < 0 || item.Qty > constants.MaxLineQty {
			return nil, apperr.Newf(apperr.InvalidInput, "invalid qty for product %s", productID)
		}
		qty := item.Qty
		if qty == 0 {
			qty = 1
		}
		if i, ok := index[productID]; ok {
			if merged[i].Qty+qty > constants.MaxLineQty {
				return nil, apperr.Newf(apperr.InvalidInput, "qty for product %s exceeds %d", productID, constants.MaxLineQty)
			}
			merged[i].Qty += qty
			continue
		}
		index[productID] = len(merged)
		merged = append(merged, model.CheckoutItem{ProductID: productID, Qty: qty})
	}
	return merged, nil
}

// resolveShipping 明確帶入的欄位優先，缺少的用地址簿補上
func resolveShipping(ctx context.Context, q db.Querier, userID, address, contact string) (string, string, error) {
	if strings.TrimSpace(address) == "" || strings.TrimSpace(contact) == "" {
		saved, err := q.GetAddress(ctx, userID)
		if err != nil && !isNotFound(err) {
			return "", "", err
		}
		if saved != nil {
			if strings.TrimSpace(address) == "" {
				address = saved.Address
			}
			if strings.TrimSpace(contact) == "" {
				contact = saved.Contact
			}
		}
	}
	if strings.TrimSpace(address) == "" || strings.TrimSpace(contact) == "" {
		return "", "", apperr.MissingAddress()
	}
	return address, contact, nil
}
