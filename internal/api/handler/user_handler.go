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

type UserHandler struct {
	authService service.IAuthService
}

func NewUserHandler(authService service.IAuthService) *UserHandler {
	if authService == nil {
		panic("authService cannot be nil")
	}
	return &UserHandler{
		authService: authService,
	}
}

// @Summary login or register
// @use action=login 登入，action=register 註冊一般使用者
// @Tags users
// @Accept json
// @Produce json
// @Param body body dto.UserActionDTO true "action, username, password"
// @Success 200 {object} dto.AuthResponse "success"
// @Failure 400 {object} api.ResponseError "InvalidInput"
// @Failure 401 {object} api.ResponseError "InvalidCredentials"
// @Failure 409 {object} api.ResponseError "UsernameTaken"
// @Router /users [post]
func (h *UserHandler) UserAction(w http.ResponseWriter, r *http.Request) {
	var req dto.UserActionDTO
	if err := api.DecodeJSON(r, &req); err != nil {
		api.ErrorJSON(w, r, err)
		return
	}

	ctx := r.Context()

	var (
		result *model.AuthResult
		err    error
	)
	switch req.Action {
	case "login":
		result, err = h.authService.Login(ctx, req.Username, req.Password)
	case "register":
		result, err = h.authService.Register(ctx, req.Username, req.Password)
	default:
		err = apperr.Newf(apperr.InvalidInput, "unknown action %q", req.Action)
	}
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}

	api.SuccessJSON(w, convertAuthResultToDTO(result))
}

// @Summary get current login user info
// @Tags users
// @Produce json
// @Success 200 {object} dto.UserDTO "success"
// @Failure 401 {object} api.ResponseError "Unauthorized"
// @Security ApiKeyAuth
// @Router /users/me [get]
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := h.authService.Me(ctx, util.GetIdentityFromContext(ctx))
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	api.SuccessJSON(w, convertUserModelToDTO(user))
}

func convertAuthResultToDTO(result *model.AuthResult) dto.AuthResponse {
	return dto.AuthResponse{
		ID:        result.User.ID,
		Username:  result.User.Username,
		Role:      string(result.User.Role),
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
	}
}

// convertUserModelToDTO 不輸出 password hash
func convertUserModelToDTO(user *model.User) dto.UserDTO {
	return dto.UserDTO{
		ID:        user.ID,
		Username:  user.Username,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt.UnixMilli(),
	}
}
