// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Драйверы хранилища
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Провайдеры идентификации
const (
	IdentityFirebase = "firebase"
	IdentityLocal    = "local"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageDriver           string `yaml:"storage_driver" env:"STORAGE_DRIVER" env-default:"postgres"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING" env-required:"true"`
	MongoDatabase           string `yaml:"mongo_database" env:"MONGO_DATABASE" env-default:"biteplans"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	RabbitMQ                `yaml:"rabbitmq"`
	HTTPServer              `yaml:"http_server"`
	Identity                `yaml:"identity"`
	PayPal                  `yaml:"paypal"`
	RateLimit               `yaml:"rate_limit"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis   string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password       string        `yaml:"password" env:"REDIS_PASSWORD"`
	User           string        `yaml:"user"`
	DB             int           `yaml:"db"`
	MaxRetries     int           `yaml:"max_retries"`
	DialTimeout    time.Duration `yaml:"dial_timeout"`
	TimeoutRedis   time.Duration `yaml:"timeoutredis"`
	CatalogTTL     time.Duration `yaml:"catalog_ttl" env-default:"5m"`
	ConfirmLockTTL time.Duration `yaml:"confirm_lock_ttl" env-default:"30s"`
}

// RabbitMQ настройки брокера для очереди досинхронизации.
// Пустой URL отключает публикацию в брокер.
type RabbitMQ struct {
	URL        string        `yaml:"url" env:"RABBITMQ_URL"`
	MaxRetries int           `yaml:"max_retries" env-default:"5"`
	RetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// Identity настройки проверки bearer-токенов
type Identity struct {
	Provider        string        `yaml:"provider" env:"IDENTITY_PROVIDER" env-default:"firebase"`
	CredentialsFile string        `yaml:"credentials_file" env:"FIREBASE_CREDENTIALS_FILE"`
	LocalSecret     string        `yaml:"local_secret" env:"LOCAL_TOKEN_SECRET"`
	LocalTokenTTL   time.Duration `yaml:"local_token_ttl" env-default:"24h"`
	TimeoutIdentity time.Duration `yaml:"timeout" env-default:"5s"`
}

// PayPal настройки платёжного процессора
type PayPal struct {
	ClientID      string        `yaml:"client_id" env:"PAYPAL_CLIENT_ID"`
	ClientSecret  string        `yaml:"client_secret" env:"PAYPAL_CLIENT_SECRET"`
	BaseURL       string        `yaml:"base_url" env:"PAYPAL_BASE_URL" env-default:"https://api-m.sandbox.paypal.com"`
	ReturnURL     string        `yaml:"return_url" env:"PAYPAL_RETURN_URL"`
	CancelURL     string        `yaml:"cancel_url" env:"PAYPAL_CANCEL_URL"`
	TimeoutPayPal time.Duration `yaml:"timeout" env-default:"10s"`
}

// RateLimit лимит запросов на одного пользователя
type RateLimit struct {
	RPS   float64 `yaml:"rps" env-default:"5"`
	Burst int     `yaml:"burst" env-default:"10"`
}

// MustLoad функция для загрузки конфига, путь к файлу берётся из CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// Load читает конфиг из файла, применяет переменные окружения и проверяет значения.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет взаимозависимые поля.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case DriverPostgres, DriverMongo:
	default:
		return fmt.Errorf("unknown storage_driver %q", c.StorageDriver)
	}
	switch c.Provider {
	case IdentityFirebase:
	case IdentityLocal:
		if c.LocalSecret == "" {
			return fmt.Errorf("identity.local_secret is required for local provider")
		}
	default:
		return fmt.Errorf("unknown identity provider %q", c.Provider)
	}
	return nil
}

// String печатает конфиг без секретов.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"StorageDriver: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"  CatalogTTL: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"Identity:\n"+
			"  Provider: %s\n"+
			"  Timeout: %s\n"+
			"PayPal:\n"+
			"  BaseURL: %s\n"+
			"  Timeout: %s\n",
		c.Env,
		c.StorageDriver,
		c.AddressRedis,
		c.DB,
		c.CatalogTTL,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.Provider,
		c.TimeoutIdentity,
		c.BaseURL,
		c.TimeoutPayPal,
	)
}
