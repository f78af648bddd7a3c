package handler

import (
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/api"
	"github.com/RoyceAzure/lab/storefront/internal/api/dto"
	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/RoyceAzure/lab/storefront/internal/model"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/RoyceAzure/lab/storefront/internal/util"
)

type OrderHandler struct {
	orderService service.IOrderService
}

func NewOrderHandler(orderService service.IOrderService) *OrderHandler {
	if orderService == nil {
		panic("orderService cannot be nil")
	}
	return &OrderHandler{
		orderService: orderService,
	}
}

// @Summary list orders or get one by id
// @use admin 帶 all=1 列出所有人的訂單
// @Tags orders
// @Produce json
// @Param id query string false "order id"
// @Param all query string false "1 to list all orders (admin only)"
// @Success 200 {array} model.Order "success"
// @Failure 401 {object} api.ResponseError "Unauthorized"
// @Security ApiKeyAuth
// @Router /orders [get]
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := util.GetIdentityFromContext(ctx)

	if id := r.URL.Query().Get("id"); id != "" {
		order, err := h.orderService.GetOrder(ctx, caller, id)
		if err != nil {
			api.ErrorJSON(w, r, err)
			return
		}
		api.SuccessJSON(w, order)
		return
	}

	orders, err := h.orderService.ListOrders(ctx, caller, r.URL.Query().Get("all") == "1")
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}
	api.SuccessJSON(w, orders)
}

// @Summary checkout
// @use 沒帶 items 時使用購物車，沒帶 address/contact 時使用地址簿
// @Tags orders
// @Accept json
// @Produce json
// @Param body body dto.CheckoutDTO false "items, address, contact"
// @Success 201 {object} model.Order "created"
// @Failure 400 {object} api.ResponseError "EmptyOrder / MissingAddress"
// @Failure 404 {object} api.ResponseError "ProductNotFound"
// @Failure 409 {object} api.ResponseError "ProductUnavailable"
// @Security ApiKeyAuth
// @Router /orders [post]
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req dto.CheckoutDTO
	if err := api.DecodeJSON(r, &req); err != nil {
		api.ErrorJSON(w, r, err)
		return
	}

	ctx := r.Context()
	order, err := h.orderService.Checkout(ctx, util.GetIdentityFromContext(ctx), convertCheckoutDTO(req))
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	api.CreatedJSON(w, order)
}

// @Summary cancel order
// @use 只接受 status=cancelled，擁有者或 admin 可取消
// @Tags orders
// @Accept json
// @Produce json
// @Param body body dto.OrderActionDTO true "id, status"
// @Success 200 {object} api.ResponseSuccess "success"
// @Failure 403 {object} api.ResponseError "Forbidden"
// @Failure 404 {object} api.ResponseError "OrderNotFound"
// @Failure 409 {object} api.ResponseError "InvalidStatusTransition"
// @Security ApiKeyAuth
// @Router /orders [patch]
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req dto.OrderActionDTO
	if err := api.DecodeJSON(r, &req); err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	if req.ID == "" || req.Status != string(constants.OrderStatusCancelled) {
		api.ErrorJSON(w, r, apperr.New(apperr.InvalidInput, "id and status=cancelled are required"))
		return
	}

	ctx := r.Context()
	if _, err := h.orderService.CancelOrder(ctx, util.GetIdentityFromContext(ctx), req.ID); err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	api.OkJSON(w)
}

// @Summary delete order
// @Tags orders
// @Accept json
// @Produce json
// @Param body body dto.OrderActionDTO true "id"
// @Success 200 {object} api.ResponseSuccess "success"
// @Failure 403 {object} api.ResponseError "Forbidden"
// @Failure 404 {object} api.ResponseError "OrderNotFound"
// @Security ApiKeyAuth
// @Router /orders [delete]
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req dto.OrderActionDTO
	if err := api.DecodeJSON(r, &req); err != nil {
		api.ErrorJSON(w, r, err)
		return
	}

	ctx := r.Context()
	if err := h.orderService.DeleteOrder(ctx, util.GetIdentityFromContext(ctx), req.ID); err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	api.OkJSON(w)
}

func convertCheckoutDTO(req dto.CheckoutDTO) model.CheckoutParams {
	items := make([]model.CheckoutItem, 0, len(req.Items))
	for _, it := range req.Items {
		productID := it.ProductID
		if productID == "" {
			productID = it.CarID
		}
		items = append(items, model.CheckoutItem{ProductID: productID, Qty: it.Qty})
	}
	return model.CheckoutParams{
		Items:   items,
		Address: req.Address,
		Contact: req.Contact,
	}
}
