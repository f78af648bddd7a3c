package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"gorm.io/gorm"
)

type IStore interface {
	Querier
	// Do 以單一 statement 執行 fn，套用 timeout 與 retry，不開 transaction
	Do(ctx context.Context, fn func(Querier) error) error
	// ExecTx 在同一個 transaction 內執行 fn，fn 回傳錯誤即 rollback
	//
	// 錯誤:
	//   - apperr.Unavailable: timeout 或暫時性錯誤，已重試 retry 次數
	//   - fn 回傳的錯誤原樣傳出
	ExecTx(ctx context.Context, fn func(Querier) error) error
	Ping(ctx context.Context) error
	Close() error
}

type StoreOption func(*Store)

func WithTimeout(d time.Duration) StoreOption {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithRetry 總嘗試次數，小於 1 視為 1
func WithRetry(attempts int, backoff time.Duration) StoreOption {
	return func(s *Store) {
		if attempts < 1 {
			attempts = 1
		}
		s.attempts = attempts
		if backoff > 0 {
			s.backoff = backoff
		}
	}
}

// Store 結構用來管理數據庫連接和交易
type Store struct {
	*Queries
	db       *gorm.DB
	txOpts   *sql.TxOptions
	timeout  time.Duration
	attempts int
	backoff  time.Duration
}

// NewStore 創建一個新的 Store
func NewStore(db *gorm.DB, opts ...StoreOption) *Store {
	s := &Store{
		Queries:  NewQueries(db),
		db:       db,
		timeout:  5 * time.Second,
		attempts: 1,
		backoff:  constants.DefaultRetryBackoff,
	}
	if db.Dialector.Name() == "postgres" {
		s.txOpts = &sql.TxOptions{Isolation: sql.LevelReadCommitted}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Do(ctx context.Context, fn func(Querier) error) error {
	return s.withRetry(ctx, func(ctx context.Context) error {
		return fn(newBoundQueries(ctx, s.db))
	})
}

// ExecTx 執行一個交易
func (s *Store) ExecTx(ctx context.Context, fn func(Querier) error) error {
	return s.withRetry(ctx, func(ctx context.Context) error {
		var opts []*sql.TxOptions
		if s.txOpts != nil {
			opts = append(opts, s.txOpts)
		}
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(newBoundQueries(ctx, tx))
		}, opts...)
	})
}

func (s *Store) withRetry(ctx context.Context, op func(context.Context) error) error {
	var err error
	backoff := s.backoff
	for attempt := 1; attempt <= s.attempts; attempt++ {
		opCtx, cancel := context.WithTimeout(ctx, s.timeout)
		err = classify(op(opCtx))
		cancel()

		if err == nil || !apperr.Is(err, apperr.Unavailable) || ctx.Err() != nil {
			return err
		}
		if attempt == s.attempts {
			break
		}

		select {
		case <-ctx.Done():
			return err
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return classify(sqlDB.PingContext(ctx))
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
