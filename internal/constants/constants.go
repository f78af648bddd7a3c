package constants

import "time"

// for api auth
type ContextKey string

const (
	AuthorizationHeaderKey  ContextKey = "authorization"
	AuthorizationTypeBearer ContextKey = "bearer"
	IdentityKey             ContextKey = "identity"
	ClientIPKey             ContextKey = "ip_address"
)

// 舊版前端直接帶 user id 的 header
const LegacyUserIDHeader = "X-User-Id"

type RequestID string

const (
	RequestIDKey RequestID = "request_id"
)

const RequestIDHeader = "X-Request-Id"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type CartMode string

const (
	CartModeIncrement CartMode = "increment"
	CartModeSet       CartMode = "set"
)

type TokenType string

const (
	TokenTypePaseto TokenType = "paseto"
	TokenTypeJWT    TokenType = "jwt"
)

type DbDriver string

const (
	DriverPostgres DbDriver = "postgres"
	DriverSqlite   DbDriver = "sqlite"
)

const (
	DefaultShutdownTimeout = 30 * time.Second
	DefaultRetryBackoff    = 50 * time.Millisecond
)

// 對應 schema 欄位範圍: products.price DECIMAL(10,2)、orders.total_price DECIMAL(12,2)
const (
	MaxLineQty     = 10000
	PriceScale     = 2
	MaxPriceDigits = 8
	MaxTotalDigits = 10
)
