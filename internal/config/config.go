// Package config предоставляет структуры и функцию для парсинга и загрузки конфига.
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек сервиса.
type Config struct {
	Env                     string `yaml:"env" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	RedisConnection         `yaml:"redis_connection"`
	RabbitMQ                `yaml:"rabbitmq"`
	HTTPServer              `yaml:"http_server"`
	Gateway                 `yaml:"gateway"`
	Session                 `yaml:"session"`
	Activation              `yaml:"activation"`
}

// HTTPServer структура для настройки сервера.
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:"0.0.0.0:8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env-default:"localhost:6379"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db" env-default:"0"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
}

// RabbitMQ структура для подключения к брокеру событий активации.
// Пустой URL отключает публикацию событий.
type RabbitMQ struct {
	URL string `yaml:"url" env:"RABBITMQ_URL"`
}

// Gateway структура для настройки клиента платёжного шлюза.
// PriceAmount — единственная допустимая сумма платежа; любое другое
// значение отклоняется до сетевого вызова.
type Gateway struct {
	BackendURL     string        `yaml:"backend_url" env:"GATEWAY_BACKEND_URL"`
	TimeoutGateway time.Duration `yaml:"timeoutgateway" env-default:"10s"`
	PriceAmount    int           `yaml:"price_amount" env-default:"25"`
	Description    string        `yaml:"description" env-default:"Abonnement Premium Kamerun News"`
}

// Session структура для работы с сессией бэкенда аутентификации.
type Session struct {
	AuthURL        string        `yaml:"auth_url" env:"SESSION_AUTH_URL"`
	AccessToken    string        `yaml:"access_token" env:"SESSION_ACCESS_TOKEN"`
	RefreshToken   string        `yaml:"refresh_token" env:"SESSION_REFRESH_TOKEN"`
	RefreshTimeout time.Duration `yaml:"refresh_timeout" env-default:"10s"`
	ExpiryLeeway   time.Duration `yaml:"expiry_leeway" env-default:"30s"`
}

// Activation структура с таймингами машины активации и фоновой сверки.
type Activation struct {
	InitialVerifyDelay  time.Duration `yaml:"initial_verify_delay" env-default:"5s"`
	PendingRetryDelay   time.Duration `yaml:"pending_retry_delay" env-default:"10s"`
	ErrorRetryDelay     time.Duration `yaml:"error_retry_delay" env-default:"15s"`
	CallbackVerifyDelay time.Duration `yaml:"callback_verify_delay" env-default:"2s"`
	VerifyCeiling       int           `yaml:"verify_ceiling" env-default:"15"`
	WatcherInterval     time.Duration `yaml:"watcher_interval" env-default:"10s"`
	PremiumCacheTTL     time.Duration `yaml:"premium_cache_ttl" env-default:"30s"`
}

// MustLoad функция для загрузки конфига по пути из CONFIG_PATH.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"StorageConnectionString: %s\n"+
			"Gateway:\n"+
			"  BackendURL: %s\n"+
			"  PriceAmount: %d\n"+
			"Session:\n"+
			"  AuthURL: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"Activation:\n"+
			"  InitialVerifyDelay: %s\n"+
			"  PendingRetryDelay: %s\n"+
			"  ErrorRetryDelay: %s\n"+
			"  VerifyCeiling: %d\n"+
			"  WatcherInterval: %s\n",
		c.Env,
		c.StorageConnectionString,
		c.BackendURL,
		c.PriceAmount,
		c.AuthURL,
		c.AddressHTTP,
		c.InitialVerifyDelay,
		c.PendingRetryDelay,
		c.ErrorRetryDelay,
		c.VerifyCeiling,
		c.WatcherInterval,
	)
}
