package config

import (
	"errors"
	"log"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	viper "github.com/spf13/viper"
)

/*
把init config跟read config分開
init : 需要設置viper watch 與 onConfigChange
read config : 一般讀寫  需要使用讀寫鎖
*/
var configSingleton *ConfigSingleton
var muonce sync.Once

// 由 cli --config 設定，需在 GetConfig 前呼叫
var configFile = os.Getenv("CONFIG_FILE")

type ConfigSingleton struct {
	Config    *Config
	mu        sync.RWMutex
	v         *viper.Viper
	listeners []func(*Config)
}

type Config struct {
	ModuleName            string        `mapstructure:"MODULE_NAME"`
	ServerPort            string        `mapstructure:"SERVER_PORT"`
	DbDriver              string        `mapstructure:"DB_DRIVER"`
	DbName                string        `mapstructure:"POSTGRES_DB"`
	DbHost                string        `mapstructure:"POSTGRES_HOST"`
	DbPort                string        `mapstructure:"POSTGRES_PORT"`
	DbUser                string        `mapstructure:"POSTGRES_USER"`
	DbPas                 string        `mapstructure:"POSTGRES_PASSWORD"`
	SqliteDSN             string        `mapstructure:"SQLITE_DSN"`
	DbMaxOpenConns        int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DbAutoMigrate         bool          `mapstructure:"DB_AUTO_MIGRATE"`
	StoreTimeout          time.Duration `mapstructure:"STORE_TIMEOUT"`
	StoreRetryAttempts    int           `mapstructure:"STORE_RETRY_ATTEMPTS"`
	RedisAddr             string        `mapstructure:"REDIS_ADDR"`
	RedisPassword         string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB               int           `mapstructure:"REDIS_DB"`
	ProductCacheTTL       time.Duration `mapstructure:"PRODUCT_CACHE_TTL"`
	KafkaBrokers          []string      `mapstructure:"KAFKA_BROKERS"`
	KafkaOrderTopic       string        `mapstructure:"KAFKA_ORDER_TOPIC"`
	TokenType             string        `mapstructure:"TOKEN_TYPE"`
	AuthTokenKey          string        `mapstructure:"AUTH_TOKEN_KEY"`
	AccessTokenDuration   time.Duration `mapstructure:"ACCESS_TOKEN_DURATION"`
	AuthAllowUserIDHeader bool          `mapstructure:"AUTH_ALLOW_USER_ID_HEADER"`
	OrderRetainCancelled  bool          `mapstructure:"ORDER_RETAIN_CANCELLED"`
	SeedAdminUsername     string        `mapstructure:"SEED_ADMIN_USERNAME"`
	SeedAdminPassword     string        `mapstructure:"SEED_ADMIN_PASSWORD"`
	CorsAllowedOrigins    []string      `mapstructure:"CORS_ALLOWED_ORIGINS"`
	LoginRatePerMinute    int           `mapstructure:"LOGIN_RATE_PER_MINUTE"`
	LogLevel              string        `mapstructure:"LOG_LEVEL"`
	LogFormat             string        `mapstructure:"LOG_FORMAT"`
}

var defaults = map[string]any{
	"MODULE_NAME":               "storefront",
	"SERVER_PORT":               "8080",
	"DB_DRIVER":                 "postgres",
	"POSTGRES_DB":               "storefront",
	"POSTGRES_HOST":             "localhost",
	"POSTGRES_PORT":             "5432",
	"POSTGRES_USER":             "postgres",
	"POSTGRES_PASSWORD":         "",
	"SQLITE_DSN":                "file:storefront.db?_busy_timeout=5000",
	"DB_MAX_OPEN_CONNS":         20,
	"DB_AUTO_MIGRATE":           false,
	"STORE_TIMEOUT":             "5s",
	"STORE_RETRY_ATTEMPTS":      3,
	"REDIS_ADDR":                "",
	"REDIS_PASSWORD":            "",
	"REDIS_DB":                  0,
	"PRODUCT_CACHE_TTL":         "5m",
	"KAFKA_BROKERS":             "",
	"KAFKA_ORDER_TOPIC":         "storefront.orders",
	"TOKEN_TYPE":                "paseto",
	"AUTH_TOKEN_KEY":            "",
	"ACCESS_TOKEN_DURATION":     "24h",
	"AUTH_ALLOW_USER_ID_HEADER": false,
	"ORDER_RETAIN_CANCELLED":    false,
	"SEED_ADMIN_USERNAME":       "admin",
	"SEED_ADMIN_PASSWORD":       "admin",
	"CORS_ALLOWED_ORIGINS":      "*",
	"LOGIN_RATE_PER_MINUTE":     20,
	"LOG_LEVEL":                 "info",
	"LOG_FORMAT":                "json",
}

// SetConfigFile 指定設定檔路徑，空字串代表只讀環境變數
func SetConfigFile(path string) {
	if path != "" {
		configFile = path
	}
}

func GetConfig() *Config {
	initConfig()
	configSingleton.mu.RLock()
	defer configSingleton.mu.RUnlock()
	return configSingleton.Config
}

// OnChange 註冊設定檔變更後的回呼
func OnChange(fn func(*Config)) {
	initConfig()
	configSingleton.mu.Lock()
	defer configSingleton.mu.Unlock()
	configSingleton.listeners = append(configSingleton.listeners, fn)
}

func initConfig() {
	muonce.Do(func() {
		configSingleton = &ConfigSingleton{v: viper.New()}
		cf, err := loadConfig(configSingleton.v, configFile)
		if err != nil {
			log.Fatalf("error read config: %v", err)
		}
		configSingleton.Config = cf

		if configFile == "" {
			return
		}
		configSingleton.v.OnConfigChange(func(e fsnotify.Event) {
			cf, err := loadConfig(configSingleton.v, configFile)
			if err != nil {
				log.Printf("failed to reload config file %s: %v", e.Name, err)
				return
			}
			configSingleton.mu.Lock()
			configSingleton.Config = cf
			listeners := append([]func(*Config){}, configSingleton.listeners...)
			configSingleton.mu.Unlock()

			for _, fn := range listeners {
				fn(cf)
			}
		})
		configSingleton.v.WatchConfig()
	})
}

// Load 讀取單一設定檔，不建立 singleton，測試與 cli 子命令使用
func Load(path string) (*Config, error) {
	return loadConfig(viper.New(), path)
}

/*
單純回傳錯誤  由外部決定要不要Fatal, 畢竟有可能有替代方案
*/
func loadConfig(v *viper.Viper, path string) (*Config, error) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		}
	}

	cf := &Config{}
	if err := v.Unmarshal(cf); err != nil {
		return nil, err
	}
	return cf, nil
}
