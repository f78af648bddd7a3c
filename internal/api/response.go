package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/rs/zerolog"
)

type ResponseError struct {
	Error string `json:"error"`
}

type ResponseSuccess struct {
	Success bool `json:"success"`
}

// WriteJSON 寫入 status 與 json body
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

func SuccessJSON(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, data)
}

func CreatedJSON(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, data)
}

// OkJSON 只有副作用的操作回傳 {success:true}
func OkJSON(w http.ResponseWriter) {
	WriteJSON(w, http.StatusOK, ResponseSuccess{Success: true})
}

// ErrorJSON 依 apperr.Code 決定 status
//
// Internal 與 Unavailable 會記錄完整錯誤，回給前端的訊息不帶內部細節
func ErrorJSON(w http.ResponseWriter, r *http.Request, err error) {
	code := apperr.CodeOf(err)
	status := apperr.HTTPStatus(code)

	if status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().
			Err(err).
			Str("code", string(code)).
			Msg("request failed")
	}

	WriteJSON(w, status, ResponseError{Error: apperr.PublicMessage(err)})
}

// StatusJSON 不經過 apperr 的錯誤回應，例如 404 route、405、429
func StatusJSON(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, ResponseError{Error: msg})
}

// DecodeJSON 空 body 視為沒有欄位，格式錯誤回傳 InvalidInput
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperr.Wrap(apperr.InvalidInput, "invalid json body", err)
	}
	return nil
}
