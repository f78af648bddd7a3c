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

type CartHandler struct {
	cartService service.ICartService
}

func NewCartHandler(cartService service.ICartService) *CartHandler {
	if cartService == nil {
		panic("cartService cannot be nil")
	}
	return &CartHandler{
		cartService: cartService,
	}
}

// @Summary get cart
// @Tags cart
// @Produce json
// @Success 200 {object} model.CartView "success"
// @Failure 401 {object} api.ResponseError "Unauthorized"
// @Security ApiKeyAuth
// @Router /cart [get]
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := h.cartService.GetCart(ctx, util.GetIdentityFromContext(ctx))
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	if view.Items == nil {
		view.Items = []model.CartItemView{}
	}
	api.SuccessJSON(w, view)
}

// @Summary add item to cart
// @use mode=increment(預設) 累加，mode=set 覆蓋數量
// @Tags cart
// @Accept json
// @Produce json
// @Param body body dto.CartItemDTO true "productId(or carId), qty, mode"
// @Success 200 {object} api.ResponseSuccess "success"
// @Failure 400 {object} api.ResponseError "InvalidInput"
// @Failure 404 {object} api.ResponseError "ProductNotFound"
// @Security ApiKeyAuth
// @Router /cart [post]
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req dto.CartItemDTO
	if err := api.DecodeJSON(r, &req); err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	if req.Qty == nil {
		api.ErrorJSON(w, r, apperr.New(apperr.InvalidInput, "missing productId or qty"))
		return
	}

	ctx := r.Context()
	err := h.cartService.AddItem(ctx, util.GetIdentityFromContext(ctx), req.ResolveProductID(), *req.Qty, constants.CartMode(req.Mode))
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	api.OkJSON(w)
}

// @Summary set cart item qty
// @use qty <= 0 移除該品項
// @Tags cart
// @Accept json
// @Produce json
// @Param body body dto.CartItemDTO true "productId(or carId), qty"
// @Success 200 {object} api.ResponseSuccess "success"
// @Security ApiKeyAuth
// @Router /cart [put]
func (h *CartHandler) SetQty(w http.ResponseWriter, r *http.Request) {
	var req dto.CartItemDTO
	if err := api.DecodeJSON(r, &req); err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	if req.Qty == nil {
		api.ErrorJSON(w, r, apperr.New(apperr.InvalidInput, "missing productId or qty"))
		return
	}

	ctx := r.Context()
	if err := h.cartService.SetQty(ctx, util.GetIdentityFromContext(ctx), req.ResolveProductID(), *req.Qty); err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	api.OkJSON(w)
}

// @Summary remove cart item
// @Tags cart
// @Accept json
// @Produce json
// @Param body body dto.CartItemDTO true "productId(or carId)"
// @Success 200 {object} api.ResponseSuccess "success"
// @Security ApiKeyAuth
// @Router /cart [delete]
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	var req dto.CartItemDTO
	if err := api.DecodeJSON(r, &req); err != nil {
		api.ErrorJSON(w, r, err)
		return
	}

	ctx := r.Context()
	if err := h.cartService.RemoveItem(ctx, util.GetIdentityFromContext(ctx), req.ResolveProductID()); err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	api.OkJSON(w)
}
