package appcontext

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/bootstrap"
	"github.com/RoyceAzure/lab/storefront/internal/config"
	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/RoyceAzure/lab/storefront/internal/infra/producer"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/redis_decorator"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/redis_repo"
	"github.com/RoyceAzure/lab/storefront/internal/infra/token"
	"github.com/RoyceAzure/lab/storefront/internal/logger"
	"github.com/RoyceAzure/lab/storefront/internal/metrics"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type ApplicationContext struct {
	Cf               *config.Config
	Logger           *zerolog.Logger
	DbConn           *gorm.DB
	DbDao            *db.Store
	RedisClient      *redis.Client
	ProductCache     redis_repo.IProductCache
	ProductReader    *redis_decorator.CacheAsideProductRepo
	OrderPublisher   producer.IOrderEventPublisher
	TokenMaker       token.Maker
	Metrics          *metrics.Metrics
	IdentityResolver service.IIdentityResolver
	AuthService      service.IAuthService
	ProductService   service.IProductService
	CartService      service.ICartService
	OrderService     service.IOrderService
	AddressService   service.IAddressService
}

// NewApplicationContext 依序建立所有依賴，任一步失敗會關閉已建立的資源
func NewApplicationContext(cf *config.Config) (*ApplicationContext, error) {
	app := ApplicationContext{
		Cf: cf,
	}
	if err := app.Init(); err != nil {
		_ = app.Shutdown(context.Background())
		return nil, err
	}
	return &app, nil
}

func (app *ApplicationContext) Init() error {
	steps := []func() error{
		app.setUpLogger,
		app.setUpDbConn,
		app.setUpDbDao,
		app.setUpRedis,
		app.setUpProductCache,
		app.setUpOrderPublisher,
		app.setTokenMaker,
		app.setUpMetrics,
		app.setUpServices,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}

	config.OnChange(func(cf *config.Config) {
		lvl := logger.ApplyLevel(cf.LogLevel)
		app.Logger.Info().Str("level", lvl.String()).Msg("config reloaded")
	})
	return nil
}

// Bootstrap 執行 migration 與 seed，serve 在 DB_AUTO_MIGRATE=true 時使用
func (app *ApplicationContext) Bootstrap(ctx context.Context) error {
	app.Logger.Info().Msg("Start database migration")
	if err := db.MigrateUp(app.DbConn); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	app.Logger.Info().Msg("Finish database migration")

	return bootstrap.NewSeeder(app.DbDao, app.Logger, app.Cf.SeedAdminUsername, app.Cf.SeedAdminPassword).Seed(ctx)
}

func (app *ApplicationContext) setUpLogger() error {
	app.Logger = logger.New(app.Cf, nil)
	app.Logger.Info().Msg("Finish setup logger")
	return nil
}

func (app *ApplicationContext) setUpDbConn() error {
	app.Logger.Info().Str("driver", app.Cf.DbDriver).Msg("Start setup database connection")
	conn, err := db.GetDbConn(app.Cf, app.Logger)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	app.DbConn = conn
	app.Logger.Info().Msg("Finish setup database connection")
	return nil
}

func (app *ApplicationContext) setUpDbDao() error {
	app.Logger.Info().Msg("Start setup database DAO")
	app.DbDao = db.NewStore(app.DbConn,
		db.WithTimeout(app.Cf.StoreTimeout),
		db.WithRetry(app.Cf.StoreRetryAttempts, constants.DefaultRetryBackoff),
	)
	app.Logger.Info().Msg("Finish setup database DAO")
	return nil
}

// setUpRedis 沒設定 REDIS_ADDR 或連不上時不使用快取
func (app *ApplicationContext) setUpRedis() error {
	if app.Cf.RedisAddr == "" {
		app.Logger.Info().Msg("Skip setup redis, REDIS_ADDR is empty")
		return nil
	}
	app.Logger.Info().Str("addr", app.Cf.RedisAddr).Msg("Start setup redis")
	client := redis.NewClient(&redis.Options{
		Addr:     app.Cf.RedisAddr,
		Password: app.Cf.RedisPassword,
		DB:       app.Cf.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		app.Logger.Warn().Err(err).Msg("redis unreachable, product cache disabled")
		_ = client.Close()
		return nil
	}
	app.RedisClient = client
	app.Logger.Info().Msg("Finish setup redis")
	return nil
}

func (app *ApplicationContext) setUpProductCache() error {
	app.Logger.Info().Msg("Start setup product cache")
	if app.RedisClient != nil {
		app.ProductCache = redis_repo.NewProductRedisCache(app.RedisClient, app.Cf.ModuleName, app.Cf.ProductCacheTTL)
	} else {
		app.ProductCache = redis_repo.NoopProductCache{}
	}
	app.ProductReader = redis_decorator.NewCacheAsideProductRepo(app.DbDao, app.ProductCache, app.Logger)
	app.Logger.Info().Msg("Finish setup product cache")
	return nil
}

// setUpOrderPublisher 沒設定 KAFKA_BROKERS 時只寫 log
func (app *ApplicationContext) setUpOrderPublisher() error {
	app.Logger.Info().Msg("Start setup order event publisher")
	if len(app.Cf.KafkaBrokers) == 0 {
		app.OrderPublisher = producer.NewLogPublisher(app.Logger)
		app.Logger.Info().Msg("Finish setup order event publisher (log only)")
		return nil
	}
	writer := producer.NewKafkaWriter(app.Cf.KafkaBrokers, app.Cf.KafkaOrderTopic)
	app.OrderPublisher = producer.NewOrderEventProducer(writer)
	app.Logger.Info().Strs("brokers", app.Cf.KafkaBrokers).Str("topic", app.Cf.KafkaOrderTopic).Msg("Finish setup order event publisher")
	return nil
}

func (app *ApplicationContext) setTokenMaker() error {
	app.Logger.Info().Str("type", app.Cf.TokenType).Msg("Start setup token maker")
	key := app.Cf.AuthTokenKey
	if key == "" {
		// 每次重啟都會讓舊 token 失效，只適合本機開發
		buf := make([]byte, 16)
		if _, err := rand.Read(buf); err != nil {
			return err
		}
		key = hex.EncodeToString(buf)
		app.Logger.Warn().Msg("AUTH_TOKEN_KEY is empty, using an ephemeral key")
	}

	tokenMaker, err := token.NewMaker(constants.TokenType(app.Cf.TokenType), key)
	if err != nil {
		return fmt.Errorf("create token maker: %w", err)
	}
	app.TokenMaker = tokenMaker
	app.Logger.Info().Msg("Finish setup token maker")
	return nil
}

func (app *ApplicationContext) setUpMetrics() error {
	app.Metrics = metrics.New()
	app.Logger.Info().Msg("Finish setup metrics")
	return nil
}

func (app *ApplicationContext) setUpServices() error {
	app.Logger.Info().Msg("Start setup services")
	if app.Cf.AuthAllowUserIDHeader {
		app.Logger.Warn().Str("header", constants.LegacyUserIDHeader).Msg("legacy user id header is enabled, any client can impersonate any user")
	}
	app.IdentityResolver = service.NewIdentityResolver(app.DbDao, app.TokenMaker, app.Cf.AuthAllowUserIDHeader)
	app.AuthService = service.NewAuthService(app.DbDao, app.TokenMaker, app.Cf.AccessTokenDuration)
	app.ProductService = service.NewProductService(app.DbDao, app.ProductReader)
	app.CartService = service.NewCartService(app.DbDao)
	app.OrderService = service.NewOrderService(app.DbDao, app.ProductReader, app.OrderPublisher,
		service.WithRetainCancelled(app.Cf.OrderRetainCancelled),
		service.WithOrderMetrics(app.Metrics),
		service.WithOrderLogger(app.Logger),
	)
	app.AddressService = service.NewAddressService(app.DbDao)
	app.Logger.Info().Msg("Finish setup services")
	return nil
}

// Shutdown 依建立的反向順序關閉資源，ctx 逾時直接返回
func (app *ApplicationContext) Shutdown(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		var errs []error
		if app.OrderPublisher != nil {
			errs = append(errs, app.OrderPublisher.Close())
		}
		if app.RedisClient != nil {
			errs = append(errs, app.RedisClient.Close())
		}
		if app.DbDao != nil {
			errs = append(errs, app.DbDao.Close())
		}
		done <- errors.Join(errs...)
	}()

	select {
	case err := <-done:
		if app.Logger != nil {
			app.Logger.Info().Err(err).Msg("application shutdown completed")
		}
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
