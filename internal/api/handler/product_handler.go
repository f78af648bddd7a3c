package handler

import (
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/api"
	"github.com/RoyceAzure/lab/storefront/internal/api/dto"
	"github.com/RoyceAzure/lab/storefront/internal/model"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/RoyceAzure/lab/storefront/internal/util"
)

// ProductHandler 同時服務 /products 與車輛版的 /cars
type ProductHandler struct {
	productService service.IProductService
}

func NewProductHandler(productService service.IProductService) *ProductHandler {
	if productService == nil {
		panic("productService cannot be nil")
	}
	return &ProductHandler{
		productService: productService,
	}
}

// @Summary list products or get one by id
// @use 帶 id 取得單一商品(含下架)，admin 帶 all=1 可列出下架商品
// @Tags products
// @Produce json
// @Param id query string false "product id"
// @Param all query string false "1 to include inactive (admin only)"
// @Success 200 {array} model.Product "success"
// @Failure 404 {object} api.ResponseError "ProductNotFound"
// @Router /products [get]
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if id := r.URL.Query().Get("id"); id != "" {
		product, err := h.productService.GetProduct(ctx, id)
		if err != nil {
			api.ErrorJSON(w, r, err)
			return
		}
		api.SuccessJSON(w, product)
		return
	}

	includeInactive := r.URL.Query().Get("all") == "1"
	products, err := h.productService.ListProducts(ctx, util.GetIdentityFromContext(ctx), includeInactive)
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	if products == nil {
		products = []model.Product{}
	}
	api.SuccessJSON(w, products)
}

// @Summary create product
// @Tags products
// @Accept json
// @Produce json
// @Param body body dto.ProductCreateDTO true "product"
// @Success 201 {object} model.Product "created"
// @Failure 400 {object} api.ResponseError "InvalidInput"
// @Failure 403 {object} api.ResponseError "Forbidden"
// @Security ApiKeyAuth
// @Router /products [post]
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.ProductCreateDTO
	if err := api.DecodeJSON(r, &req); err != nil {
		api.ErrorJSON(w, r, err)
		return
	}

	ctx := r.Context()
	product, err := h.productService.CreateProduct(ctx, util.GetIdentityFromContext(ctx), model.NewProduct{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Image:       req.Image,
		Category:    req.Category,
		Year:        req.Year,
		Mileage:     req.Mileage,
		Images:      req.Images,
	})
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	api.CreatedJSON(w, product)
}

// @Summary partial update product
// @use 只更新有帶的欄位，isActive 0/1 上下架
// @Tags products
// @Accept json
// @Produce json
// @Param id query string true "product id"
// @Param body body dto.ProductUpdateDTO true "fields to update"
// @Success 200 {object} model.Product "success"
// @Failure 400 {object} api.ResponseError "InvalidInput"
// @Failure 403 {object} api.ResponseError "Forbidden"
// @Failure 404 {object} api.ResponseError "ProductNotFound"
// @Security ApiKeyAuth
// @Router /products [patch]
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		api.ErrorJSON(w, r, apperr.New(apperr.InvalidInput, "missing product id"))
		return
	}

	var req dto.ProductUpdateDTO
	if err := api.DecodeJSON(r, &req); err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	update, err := convertProductUpdateDTO(req)
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}

	ctx := r.Context()
	product, err := h.productService.UpdateProduct(ctx, util.GetIdentityFromContext(ctx), id, update)
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	api.SuccessJSON(w, product)
}

// @Summary delete product
// @Tags products
// @Produce json
// @Param id query string true "product id"
// @Success 200 {object} api.ResponseSuccess "success"
// @Failure 403 {object} api.ResponseError "Forbidden"
// @Failure 404 {object} api.ResponseError "ProductNotFound"
// @Security ApiKeyAuth
// @Router /products [delete]
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		api.ErrorJSON(w, r, apperr.New(apperr.InvalidInput, "missing product id"))
		return
	}

	ctx := r.Context()
	if err := h.productService.DeleteProduct(ctx, util.GetIdentityFromContext(ctx), id); err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	api.OkJSON(w)
}

// convertProductUpdateDTO 不可為空的欄位帶 null 視為輸入錯誤
//
// 參數:
//   - req: request body，未帶的欄位 Set 為 false
//
// 返回值:
//   - model.ProductUpdate: 只包含有帶的欄位
//
// 錯誤:
//   - apperr.InvalidInput: name、description、price、isActive 為 null
func convertProductUpdateDTO(req dto.ProductUpdateDTO) (model.ProductUpdate, error) {
	var update model.ProductUpdate

	if req.Name.Set {
		if req.Name.Value == nil {
			return update, apperr.New(apperr.InvalidInput, "name cannot be null")
		}
		update.Name = model.Some(*req.Name.Value)
	}
	if req.Description.Set {
		desc := ""
		if req.Description.Value != nil {
			desc = *req.Description.Value
		}
		update.Description = model.Some(desc)
	}
	if req.Price.Set {
		if req.Price.Value == nil {
			return update, apperr.New(apperr.InvalidInput, "price cannot be null")
		}
		update.Price = model.Some(*req.Price.Value)
	}
	if req.IsActive.Set {
		if req.IsActive.Value == nil {
			return update, apperr.New(apperr.InvalidInput, "isActive cannot be null")
		}
		update.IsActive = model.Some(*req.IsActive.Value)
	}
	if req.Image.Set {
		update.Image = model.Some(emptyToNil(req.Image.Value))
	}
	if req.Category.Set {
		update.Category = model.Some(emptyToNil(req.Category.Value))
	}
	update.Year = req.Year
	update.Mileage = req.Mileage
	if req.Images.Set {
		images := req.Images.Value
		if images == nil {
			images = []string{}
		}
		update.Images = model.Some(images)
	}
	return update, nil
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
