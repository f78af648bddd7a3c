package db

import (
	"context"
	"database/sql/driver"
	"errors"
	"strings"

	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

var (
	// ErrNotFound 查無資料
	ErrNotFound = gorm.ErrRecordNotFound
	// ErrDuplicatedKey unique / primary key 衝突
	ErrDuplicatedKey = gorm.ErrDuplicatedKey
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// 可以重試的 postgres error code
var transientPgCodes = map[string]struct{}{
	"40001": {}, // serialization_failure
	"40P01": {}, // deadlock_detected
	"55P03": {}, // lock_not_available
	"57014": {}, // query_canceled
	"57P01": {}, // admin_shutdown
	"53300": {}, // too_many_connections
}

// classify 把 driver 的暫時性錯誤轉成 apperr.Unavailable，其餘原樣回傳
func classify(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if IsTransient(err) {
		return apperr.Wrap(apperr.Unavailable, "store unavailable", err)
	}
	return err
}

func IsTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if _, ok := transientPgCodes[pgErr.Code]; ok {
			return true
		}
		// class 08 connection exception
		return strings.HasPrefix(pgErr.Code, "08")
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrBusy || liteErr.Code == sqlite3.ErrLocked
	}
	return false
}
