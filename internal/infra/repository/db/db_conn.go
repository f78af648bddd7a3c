package db

import (
	"fmt"

	"github.com/RoyceAzure/lab/storefront/internal/config"
	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// GetDbConn 依 DB_DRIVER 建立連線
//
// postgres 為正式環境，sqlite 用於本機開發與測試
func GetDbConn(cf *config.Config, logger *zerolog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch constants.DbDriver(cf.DbDriver) {
	case constants.DriverPostgres:
		// 資料來源名稱 (DSN)
		dsn := fmt.Sprintf("user=%s password=%s host=%s port=%s dbname=%s sslmode=disable",
			cf.DbUser, cf.DbPas, cf.DbHost, cf.DbPort, cf.DbName)
		dialector = postgres.Open(dsn)
	case constants.DriverSqlite:
		dialector = sqlite.Open(cf.SqliteDSN)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cf.DbDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         NewGormLogger(logger),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if constants.DbDriver(cf.DbDriver) == constants.DriverSqlite {
		// sqlite 同時只能有一個 writer
		sqlDB.SetMaxOpenConns(1)
	} else if cf.DbMaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cf.DbMaxOpenConns)
	}
	return db, nil
}
