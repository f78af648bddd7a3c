package service

import (
	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/RoyceAzure/lab/storefront/internal/model"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func (suite *ServiceTestSuite) TestCheckout_FromCart() {
	p := suite.createProduct("轻薄无钢圈文胸", 199)
	require.NoError(suite.T(), suite.cart.AddItem(suite.ctx, suite.alice, p.ID, 2, ""))

	view, err := suite.cart.GetCart(suite.ctx, suite.alice)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), 2, view.Count)

	suite.setAddress(suite.alice)

	order, err := suite.orders.Checkout(suite.ctx, suite.alice, model.CheckoutParams{})
	require.NoError(suite.T(), err)
	require.True(suite.T(), order.TotalPrice.Equal(decimal.NewFromInt(398)))
	require.Equal(suite.T(), constants.OrderStatusPending, order.Status)
	require.Equal(suite.T(), "1 Test Road", order.Address)
	require.Equal(suite.T(), "13800000000", order.Contact)
	require.Len(suite.T(), order.Items, 1)
	require.Equal(suite.T(), 2, order.Items[0].Qty)
	require.True(suite.T(), order.Items[0].PriceAtPurchase.Equal(decimal.NewFromInt(199)))

	view, err = suite.cart.GetCart(suite.ctx, suite.alice)
	require.NoError(suite.T(), err)
	require.Empty(suite.T(), view.Items)

	require.Equal(suite.T(), 0, suite.getProduct(p.ID).IsActive)
	require.Equal(suite.T(), []model.OrderEventType{model.OrderEventCreated}, suite.publisher.types())
}

func (suite *ServiceTestSuite) TestCheckout_ExplicitItemsAndAddress() {
	p := suite.createProduct("Car", 100)

	order, err := suite.orders.Checkout(suite.ctx, suite.alice, model.CheckoutParams{
		Items:   []model.CheckoutItem{{ProductID: p.ID}},
		Address: "2 Explicit St",
		Contact: "555",
	})
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), 1, order.Items[0].Qty)
	require.Equal(suite.T(), "2 Explicit St", order.Address)
	require.True(suite.T(), order.TotalPrice.Equal(decimal.NewFromInt(100)))
}

func (suite *ServiceTestSuite) TestCheckout_PriceSnapshot() {
	p := suite.createProduct("Car", 100)
	suite.setAddress(suite.alice)

	order, err := suite.orders.Checkout(suite.ctx, suite.alice, model.CheckoutParams{
		Items: []model.CheckoutItem{{ProductID: p.ID, Qty: 1}},
	})
	require.NoError(suite.T(), err)

	_, err = suite.products.UpdateProduct(suite.ctx, suite.admin, p.ID, model.ProductUpdate{Price: model.Some(decimal.NewFromInt(150))})
	require.NoError(suite.T(), err)

	orders, err := suite.orders.ListOrders(suite.ctx, suite.alice, false)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), orders, 1)
	require.Equal(suite.T(), order.ID, orders[0].ID)
	require.True(suite.T(), orders[0].TotalPrice.Equal(decimal.NewFromInt(100)))
	require.True(suite.T(), orders[0].Items[0].PriceAtPurchase.Equal(decimal.NewFromInt(100)))
}

func (suite *ServiceTestSuite) TestCheckout_AtomicOnUnavailableProduct() {
	p1 := suite.createProduct("Active", 10)
	p2 := suite.createProduct("Withdrawn", 20)
	require.NoError(suite.T(), suite.cart.AddItem(suite.ctx, suite.alice, p1.ID, 1, ""))
	require.NoError(suite.T(), suite.cart.AddItem(suite.ctx, suite.alice, p2.ID, 1, ""))
	_, err := suite.products.UpdateProduct(suite.ctx, suite.admin, p2.ID, model.ProductUpdate{IsActive: model.Some(0)})
	require.NoError(suite.T(), err)
	suite.setAddress(suite.alice)

	_, err = suite.orders.Checkout(suite.ctx, suite.alice, model.CheckoutParams{})
	require.True(suite.T(), apperr.HasReason(err, apperr.ReasonProductUnavailable))

	orders, err := suite.orders.ListOrders(suite.ctx, suite.alice, false)
	require.NoError(suite.T(), err)
	require.Empty(suite.T(), orders)

	view, err := suite.cart.GetCart(suite.ctx, suite.alice)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), view.Items, 2)
	require.Equal(suite.T(), 1, suite.getProduct(p1.ID).IsActive)
	require.Empty(suite.T(), suite.publisher.types())
}

func (suite *ServiceTestSuite) TestCheckout_Errors() {
	p := suite.createProduct("Car", 100)

	_, err := suite.orders.Checkout(suite.ctx, suite.alice, model.CheckoutParams{})
	require.True(suite.T(), apperr.HasReason(err, apperr.ReasonEmptyOrder))

	require.NoError(suite.T(), suite.cart.AddItem(suite.ctx, suite.alice, p.ID, 1, ""))
	_, err = suite.orders.Checkout(suite.ctx, suite.alice, model.CheckoutParams{})
	require.True(suite.T(), apperr.HasReason(err, apperr.ReasonMissingAddress))

	_, err = suite.orders.Checkout(suite.ctx, suite.alice, model.CheckoutParams{Address: "only address"})
	require.True(suite.T(), apperr.HasReason(err, apperr.ReasonMissingAddress))

	_, err = suite.orders.Checkout(suite.ctx, suite.alice, model.CheckoutParams{
		Items:   []model.CheckoutItem{{ProductID: "missing", Qty: 1}},
		Address: "a",
		Contact: "c",
	})
	require.True(suite.T(), apperr.HasReason(err, apperr.ReasonProductNotFound))

	_, err = suite.orders.Checkout(suite.ctx, suite.alice, model.CheckoutParams{
		Items:   []model.CheckoutItem{{ProductID: p.ID, Qty: -1}},
		Address: "a",
		Contact: "c",
	})
	require.Equal(suite.T(), apperr.InvalidInput, apperr.CodeOf(err))

	_, err = suite.orders.Checkout(suite.ctx, nil, model.CheckoutParams{})
	require.Equal(suite.T(), apperr.Unauthorized, apperr.CodeOf(err))

	require.Equal(suite.T(), 1, suite.getProduct(p.ID).IsActive)
}

func (suite *ServiceTestSuite) TestCheckout_ConcurrentSameProduct() {
	p := suite.createProduct("Only One", 500)
	suite.setAddress(suite.alice)
	suite.setAddress(suite.bob)

	callers := []*model.Identity{suite.alice, suite.bob}
	errs := make([]error, len(callers))
	var g errgroup.Group
	for i, caller := range callers {
		g.Go(func() error {
			_, errs[i] = suite.orders.Checkout(suite.ctx, caller, model.CheckoutParams{
				Items: []model.CheckoutItem{{ProductID: p.ID, Qty: 1}},
			})
			return nil
		})
	}
	require.NoError(suite.T(), g.Wait())

	succeeded, unavailable := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case apperr.HasReason(err, apperr.ReasonProductUnavailable):
			unavailable++
		default:
			suite.T().Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(suite.T(), 1, succeeded)
	require.Equal(suite.T(), 1, unavailable)

	all, err := suite.orders.ListOrders(suite.ctx, suite.admin, true)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), all, 1)
}

func (suite *ServiceTestSuite) TestCancelOrder_ReactivatesAndRemoves() {
	p := suite.createProduct("Car", 100)
	suite.setAddress(suite.alice)
	order, err := suite.orders.Checkout(suite.ctx, suite.alice, model.CheckoutParams{Items: []model.CheckoutItem{{ProductID: p.ID}}})
	require.NoError(suite.T(), err)

	_, err = suite.orders.CancelOrder(suite.ctx, suite.bob, order.ID)
	require.Equal(suite.T(), apperr.Forbidden, apperr.CodeOf(err))

	cancelled, err := suite.orders.CancelOrder(suite.ctx, suite.alice, order.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), constants.OrderStatusCancelled, cancelled.Status)
	require.Equal(suite.T(), 1, suite.getProduct(p.ID).IsActive)

	_, err = suite.orders.GetOrder(suite.ctx, suite.alice, order.ID)
	require.True(suite.T(), apperr.HasReason(err, apperr.ReasonOrderNotFound))

	_, err = suite.orders.CancelOrder(suite.ctx, suite.alice, order.ID)
	require.True(suite.T(), apperr.HasReason(err, apperr.ReasonOrderNotFound))

	require.Equal(suite.T(), []model.OrderEventType{model.OrderEventCreated, model.OrderEventCancelled}, suite.publisher.types())
}

func (suite *ServiceTestSuite) TestCancelOrder_RetainCancelled() {
	orders := suite.newOrderService(true)
	p := suite.createProduct("Car", 100)
	suite.setAddress(suite.alice)
	order, err := orders.Checkout(suite.ctx, suite.alice, model.CheckoutParams{Items: []model.CheckoutItem{{ProductID: p.ID}}})
	require.NoError(suite.T(), err)

	// admin 可以取消任何人的訂單
	_, err = orders.CancelOrder(suite.ctx, suite.admin, order.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), 1, suite.getProduct(p.ID).IsActive)

	got, err := orders.GetOrder(suite.ctx, suite.alice, order.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), constants.OrderStatusCancelled, got.Status)

	_, err = orders.CancelOrder(suite.ctx, suite.alice, order.ID)
	require.True(suite.T(), apperr.HasReason(err, apperr.ReasonInvalidStatusTransition))
}

func (suite *ServiceTestSuite) TestCancelOrder_DoesNotReleaseLaterHold() {
	p := suite.createProduct("Car", 100)
	suite.setAddress(suite.alice)
	suite.setAddress(suite.bob)

	first, err := suite.orders.Checkout(suite.ctx, suite.alice, model.CheckoutParams{Items: []model.CheckoutItem{{ProductID: p.ID}}})
	require.NoError(suite.T(), err)

	// admin 手動重新上架後被 bob 買走
	_, err = suite.products.UpdateProduct(suite.ctx, suite.admin, p.ID, model.ProductUpdate{IsActive: model.Some(1)})
	require.NoError(suite.T(), err)
	second, err := suite.orders.Checkout(suite.ctx, suite.bob, model.CheckoutParams{Items: []model.CheckoutItem{{ProductID: p.ID}}})
	require.NoError(suite.T(), err)

	_, err = suite.orders.CancelOrder(suite.ctx, suite.alice, first.ID)
	require.NoError(suite.T(), err)

	product := suite.getProduct(p.ID)
	require.Equal(suite.T(), 0, product.IsActive)
	require.NotNil(suite.T(), product.ReservedBy)
	require.Equal(suite.T(), second.ID, *product.ReservedBy)
}

func (suite *ServiceTestSuite) TestDeleteOrder() {
	p := suite.createProduct("Car", 100)
	suite.setAddress(suite.alice)
	order, err := suite.orders.Checkout(suite.ctx, suite.alice, model.CheckoutParams{Items: []model.CheckoutItem{{ProductID: p.ID}}})
	require.NoError(suite.T(), err)

	err = suite.orders.DeleteOrder(suite.ctx, suite.alice, order.ID)
	require.Equal(suite.T(), apperr.Forbidden, apperr.CodeOf(err))

	require.NoError(suite.T(), suite.orders.DeleteOrder(suite.ctx, suite.admin, order.ID))
	require.Equal(suite.T(), 1, suite.getProduct(p.ID).IsActive)

	err = suite.orders.DeleteOrder(suite.ctx, suite.admin, order.ID)
	require.True(suite.T(), apperr.HasReason(err, apperr.ReasonOrderNotFound))
}

func (suite *ServiceTestSuite) TestListOrders_Scope() {
	p1 := suite.createProduct("A", 1)
	p2 := suite.createProduct("B", 2)
	suite.setAddress(suite.alice)
	suite.setAddress(suite.bob)

	first, err := suite.orders.Checkout(suite.ctx, suite.alice, model.CheckoutParams{Items: []model.CheckoutItem{{ProductID: p1.ID}}})
	require.NoError(suite.T(), err)
	second, err := suite.orders.Checkout(suite.ctx, suite.bob, model.CheckoutParams{Items: []model.CheckoutItem{{ProductID: p2.ID}}})
	require.NoError(suite.T(), err)

	own, err := suite.orders.ListOrders(suite.ctx, suite.alice, true)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), own, 1)
	require.Equal(suite.T(), first.ID, own[0].ID)

	adminOwn, err := suite.orders.ListOrders(suite.ctx, suite.admin, false)
	require.NoError(suite.T(), err)
	require.Empty(suite.T(), adminOwn)

	all, err := suite.orders.ListOrders(suite.ctx, suite.admin, true)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), all, 2)
	// 新的在前
	require.Equal(suite.T(), second.ID, all[0].ID)
	require.Equal(suite.T(), first.ID, all[1].ID)

	_, err = suite.orders.GetOrder(suite.ctx, suite.bob, first.ID)
	require.Equal(suite.T(), apperr.Forbidden, apperr.CodeOf(err))
}

func (suite *ServiceTestSuite) TestNormalizeCheckoutItems_MergesDuplicates() {
	items, err := normalizeCheckoutItems([]model.CheckoutItem{{ProductID: "a"}, {ProductID: "b", Qty: 2}, {ProductID: "a", Qty: 3}})
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), []model.CheckoutItem{{ProductID: "a", Qty: 4}, {ProductID: "b", Qty: 2}}, items)
}

func (suite *ServiceTestSuite) TestNormalizeCheckoutItems_QtyBounds() {
	_, err := normalizeCheckoutItems([]model.CheckoutItem{{ProductID: "a", Qty: constants.MaxLineQty + 1}})
	require.Equal(suite.T(), apperr.InvalidInput, apperr.CodeOf(err))

	// 合併後超過上限，不會溢位成負數
	huge := int(^uint(0) >> 1)
	_, err = normalizeCheckoutItems([]model.CheckoutItem{{ProductID: "a", Qty: huge}, {ProductID: "a", Qty: huge}})
	require.Equal(suite.T(), apperr.InvalidInput, apperr.CodeOf(err))

	_, err = normalizeCheckoutItems([]model.CheckoutItem{{ProductID: "a", Qty: constants.MaxLineQty}, {ProductID: "a", Qty: 1}})
	require.Equal(suite.T(), apperr.InvalidInput, apperr.CodeOf(err))

	items, err := normalizeCheckoutItems([]model.CheckoutItem{{ProductID: "a", Qty: constants.MaxLineQty - 1}, {ProductID: "a"}})
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), constants.MaxLineQty, items[0].Qty)
}

func (suite *ServiceTestSuite) TestCheckout_RejectsOversizedQtyAndTotal() {
	suite.setAddress(suite.alice)

	// 購物車累加超過上限
	p := suite.createProduct("Bra", 1)
	require.NoError(suite.T(), suite.cart.AddItem(suite.ctx, suite.alice, p.ID, constants.MaxLineQty, ""))
	require.NoError(suite.T(), suite.cart.AddItem(suite.ctx, suite.alice, p.ID, 1, ""))
	_, err := suite.orders.Checkout(suite.ctx, suite.alice, model.CheckoutParams{})
	require.Equal(suite.T(), apperr.InvalidInput, apperr.CodeOf(err))
	require.Equal(suite.T(), 1, suite.getProduct(p.ID).IsActive)

	expensive := suite.createProduct("Car", 99999999)
	_, err = suite.orders.Checkout(suite.ctx, suite.alice, model.CheckoutParams{
		Items: []model.CheckoutItem{{ProductID: expensive.ID, Qty: constants.MaxLineQty}},
	})
	require.Equal(suite.T(), apperr.InvalidInput, apperr.CodeOf(err))
	require.Equal(suite.T(), 1, suite.getProduct(expensive.ID).IsActive)
	require.Empty(suite.T(), suite.publisher.types())
}
