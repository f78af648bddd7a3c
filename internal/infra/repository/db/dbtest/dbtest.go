// Package dbtest 提供 in-memory sqlite 的 Store 給各層測試使用
package dbtest

import (
	"fmt"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/config"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// NewStore 每次呼叫都是獨立的資料庫，測試結束自動關閉
func NewStore(t testing.TB) *db.Store {
	t.Helper()

	cf := &config.Config{
		DbDriver:  "sqlite",
		SqliteDSN: fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString()),
	}
	logger := zerolog.Nop()
	conn, err := db.GetDbConn(cf, &logger)
	require.NoError(t, err)
	require.NoError(t, db.MigrateUp(conn))

	store := db.NewStore(conn, db.WithTimeout(5*time.Second), db.WithRetry(2, 10*time.Millisecond))
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
