package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code 錯誤分類，決定對外回應的 HTTP status
type Code string

const (
	InvalidInput Code = "invalid_input"
	Unauthorized Code = "unauthorized"
	Forbidden    Code = "forbidden"
	NotFound     Code = "not_found"
	Conflict     Code = "conflict"
	Unavailable  Code = "unavailable"
	Internal     Code = "internal"
)

// Reason 細分的業務錯誤原因
type Reason string

const (
	ReasonNone                    Reason = ""
	ReasonUsernameTaken           Reason = "username_taken"
	ReasonInvalidCredentials      Reason = "invalid_credentials"
	ReasonProductNotFound         Reason = "product_not_found"
	ReasonProductUnavailable      Reason = "product_unavailable"
	ReasonOrderNotFound           Reason = "order_not_found"
	ReasonInvalidStatusTransition Reason = "invalid_status_transition"
	ReasonEmptyOrder              Reason = "empty_order"
	ReasonMissingAddress          Reason = "missing_address"
)

var statusMap = map[Code]int{
	InvalidInput: http.StatusBadRequest,
	Unauthorized: http.StatusUnauthorized,
	Forbidden:    http.StatusForbidden,
	NotFound:     http.StatusNotFound,
	Conflict:     http.StatusConflict,
	Unavailable:  http.StatusServiceUnavailable,
	Internal:     http.StatusInternalServerError,
}

// AppError 服務層統一錯誤型別
//
// Message 可以直接回給前端，Err 為底層錯誤只寫進 log
type AppError struct {
	Code    Code
	Reason  Reason
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}

func Newf(code Code, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, msg string, err error) *AppError {
	return &AppError{Code: code, Message: msg, Err: err}
}

// WithReason 產生帶 reason 的錯誤
func WithReason(code Code, reason Reason, msg string) *AppError {
	return &AppError{Code: code, Reason: reason, Message: msg}
}

func UsernameTaken(username string) *AppError {
	return WithReason(Conflict, ReasonUsernameTaken, fmt.Sprintf("username %q already exists", username))
}

func InvalidCredentials() *AppError {
	return WithReason(Unauthorized, ReasonInvalidCredentials, "invalid username or password")
}

func ProductNotFound(id string) *AppError {
	return WithReason(NotFound, ReasonProductNotFound, fmt.Sprintf("product %s not found", id))
}

func ProductUnavailable(id string) *AppError {
	return WithReason(Conflict, ReasonProductUnavailable, fmt.Sprintf("product %s is unavailable", id))
}

func OrderNotFound(id string) *AppError {
	return WithReason(NotFound, ReasonOrderNotFound, fmt.Sprintf("order %s not found", id))
}

func InvalidStatusTransition(from, to string) *AppError {
	return WithReason(Conflict, ReasonInvalidStatusTransition, fmt.Sprintf("cannot change order status from %s to %s", from, to))
}

func EmptyOrder() *AppError {
	return WithReason(InvalidInput, ReasonEmptyOrder, "order has no items")
}

func MissingAddress() *AppError {
	return WithReason(InvalidInput, ReasonMissingAddress, "address and contact are required")
}

// CodeOf 取出錯誤分類，非 AppError 一律視為 Internal
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return Internal
}

func ReasonOf(err error) Reason {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Reason
	}
	return ReasonNone
}

func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

func HasReason(err error, reason Reason) bool {
	return err != nil && ReasonOf(err) == reason
}

func HTTPStatus(code Code) int {
	if s, ok := statusMap[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// PublicMessage 回給前端的訊息，Internal 不外洩細節
func PublicMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != Internal {
		return appErr.Message
	}
	return "internal server error"
}
