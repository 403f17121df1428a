package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Services ServicesConfig
	HTTP     HTTPConfig
	Session  SessionConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Metrics  MetricsConfig
}

type AppConfig struct {
	Env    string `env:"APP_ENV" envDefault:"dev"`
	Locale string `env:"APP_LOCALE" envDefault:"vi"`
}

type LoggerConfig struct {
	Level             string `env:"LOGGER_LEVEL" envDefault:"info"`
	Encoding          string `env:"LOGGER_ENCODING" envDefault:"console"`
	DisableCaller     bool   `env:"LOGGER_DISABLE_CALLER" envDefault:"false"`
	DisableStacktrace bool   `env:"LOGGER_DISABLE_STACKTRACE" envDefault:"true"`
}

// ServicesConfig holds the base URL of every backend the console talks to.
// Unset per-service URLs fall back to the API gateway.
type ServicesConfig struct {
	GatewayURL   string `env:"API_BASE_URL" envDefault:"http://localhost:8080"`
	AuthURL      string `env:"AUTH_SERVICE_URL"`
	CatalogURL   string `env:"CATALOG_SERVICE_URL"`
	SalesURL     string `env:"SALES_SERVICE_URL"`
	InventoryURL string `env:"INVENTORY_SERVICE_URL"`
	DealerURL    string `env:"DEALER_SERVICE_URL"`
	PaymentURL   string `env:"PAYMENT_SERVICE_URL"`
}

type HTTPConfig struct {
	Timeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"15s"`
}

type SessionConfig struct {
	DBPath string `env:"SESSION_DB_PATH" envDefault:"evmctl.db"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type KafkaConfig struct {
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	Topic   string   `env:"KAFKA_TOPIC_ORDERS" envDefault:"sales-orders.events"`
	GroupID string   `env:"KAFKA_GROUP_ID" envDefault:"evmctl"`
}

type MetricsConfig struct {
	Addr string `env:"METRICS_ADDR"`
}

// Load reads the configuration from the environment. Callers load a .env
// file beforehand if they want one.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.Services.GatewayURL = strings.TrimRight(cfg.Services.GatewayURL, "/")
	return &cfg, nil
}

// URL returns override when set, otherwise the gateway URL.
func (s ServicesConfig) URL(override string) string {
	if v := strings.TrimSpace(override); v != "" {
		return strings.TrimRight(v, "/")
	}
	return s.GatewayURL
}

func (c *Config) IsDevelopment() bool {
	return c.App.Env == "dev" || c.App.Env == "development"
}
