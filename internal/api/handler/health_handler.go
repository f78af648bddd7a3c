package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/api"
	"github.com/RoyceAzure/lab/storefront/internal/api/dto"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
)

// Pinger 健康檢查依賴，db.IStore 已實作
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	if db == nil {
		panic("db cannot be nil")
	}
	return &HealthHandler{db: db}
}

// @Summary liveness
// @Tags health
// @Produce json
// @Success 200 {object} dto.HealthDTO "ok"
// @Failure 503 {object} api.ResponseError "database unreachable"
// @Router /healthz [get]
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		api.ErrorJSON(w, r, apperr.Wrap(apperr.Unavailable, "database unreachable", err))
		return
	}
	api.SuccessJSON(w, dto.HealthDTO{Status: "ok"})
}
