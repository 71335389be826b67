package config

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds everything the binaries need, sourced from APP_* environment
// variables with optional config file overrides.
type Config struct {
	Port        string `mapstructure:"PORT" validate:"required"`
	RunLocal    bool   `mapstructure:"RUN_LOCAL"`
	Development bool   `mapstructure:"DEVELOPMENT"`

	UsersTable    string `mapstructure:"USERS_TABLE" validate:"required"`
	BooksTable    string `mapstructure:"BOOKS_TABLE" validate:"required"`
	OrdersTable   string `mapstructure:"ORDERS_TABLE" validate:"required"`
	WishlistTable string `mapstructure:"WISHLIST_TABLE" validate:"required"`
	RatingsTable  string `mapstructure:"RATINGS_TABLE" validate:"required"`
	PaymentsTable string `mapstructure:"PAYMENTS_TABLE" validate:"required"`

	FulfillmentQueueURL string `mapstructure:"FULFILLMENT_QUEUE_URL"`

	StripeKey  string `mapstructure:"STRIPE_KEY" validate:"required"`
	SiteDomain string `mapstructure:"SITE_DOMAIN" validate:"required,url"`

	JWTSecret string `mapstructure:"JWT_SECRET" validate:"required,min=16"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	GatewayTimeoutSeconds int `mapstructure:"GATEWAY_TIMEOUT_SECONDS" validate:"min=1"`
}

// GatewayTimeout is the bound on a single payment-gateway call.
func (c *Config) GatewayTimeout() time.Duration {
	return time.Duration(c.GatewayTimeoutSeconds) * time.Second
}

// Load reads configuration from the environment (and config.yaml when present)
// and validates it.
func Load(logger *zap.Logger) (*Config, error) {
	viper.SetEnvPrefix("app")
	viper.AutomaticEnv()

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("USERS_TABLE", "users")
	viper.SetDefault("BOOKS_TABLE", "books")
	viper.SetDefault("ORDERS_TABLE", "orders")
	viper.SetDefault("WISHLIST_TABLE", "wishlist")
	viper.SetDefault("RATINGS_TABLE", "ratings")
	viper.SetDefault("PAYMENTS_TABLE", "payments")
	viper.SetDefault("GATEWAY_TIMEOUT_SECONDS", 10)

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		logger.Debug("no config file found, using environment only", zap.Error(err))
	}

	// viper.Unmarshal does not see env-only keys without explicit binding
	for _, key := range []string{
		"PORT", "RUN_LOCAL", "DEVELOPMENT",
		"USERS_TABLE", "BOOKS_TABLE", "ORDERS_TABLE", "WISHLIST_TABLE", "RATINGS_TABLE", "PAYMENTS_TABLE",
		"FULFILLMENT_QUEUE_URL", "STRIPE_KEY", "SITE_DOMAIN", "JWT_SECRET",
		"REDIS_ADDR", "REDIS_PASSWORD", "GATEWAY_TIMEOUT_SECONDS",
	} {
		if err := viper.BindEnv(key); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		return nil, err
	}
	return &cfg, nil
}
