package handler

import (
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/api"
	"github.com/RoyceAzure/lab/storefront/internal/api/dto"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/RoyceAzure/lab/storefront/internal/util"
)

type AddressHandler struct {
	addressService service.IAddressService
}

func NewAddressHandler(addressService service.IAddressService) *AddressHandler {
	if addressService == nil {
		panic("addressService cannot be nil")
	}
	return &AddressHandler{
		addressService: addressService,
	}
}

// @Summary get saved address
// @use 尚未設定時回傳 {}
// @Tags address
// @Produce json
// @Success 200 {object} dto.AddressDTO "success"
// @Security ApiKeyAuth
// @Router /address [get]
func (h *AddressHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	address, err := h.addressService.GetAddress(ctx, util.GetIdentityFromContext(ctx))
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	if address == nil {
		api.SuccessJSON(w, struct{}{})
		return
	}
	api.SuccessJSON(w, dto.AddressDTO{Address: address.Address, Contact: address.Contact})
}

// @Summary save address
// @Tags address
// @Accept json
// @Produce json
// @Param body body dto.AddressDTO true "address, contact"
// @Success 200 {object} api.ResponseSuccess "success"
// @Failure 400 {object} api.ResponseError "InvalidInput"
// @Security ApiKeyAuth
// @Router /address [post]
func (h *AddressHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req dto.AddressDTO
	if err := api.DecodeJSON(r, &req); err != nil {
		api.ErrorJSON(w, r, err)
		return
	}

	ctx := r.Context()
	if _, err := h.addressService.UpsertAddress(ctx, util.GetIdentityFromContext(ctx), req.Address, req.Contact); err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	api.OkJSON(w)
}
