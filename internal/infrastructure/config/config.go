package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	sharedConfig "github.com/orris-inc/lnsubs/internal/shared/config"
)

type Config struct {
	Server    sharedConfig.ServerConfig    `mapstructure:"server"`
	Database  sharedConfig.DatabaseConfig  `mapstructure:"database"`
	Logger    sharedConfig.LoggerConfig    `mapstructure:"logger"`
	Redis     sharedConfig.RedisConfig     `mapstructure:"redis"`
	Auth      sharedConfig.AuthConfig      `mapstructure:"auth"`
	Billing   sharedConfig.BillingConfig   `mapstructure:"billing"`
	Payment   sharedConfig.PaymentConfig   `mapstructure:"payment"`
	RateLimit sharedConfig.RateLimitConfig `mapstructure:"ratelimit"`
	Email     sharedConfig.EmailConfig     `mapstructure:"email"`
	Webhook   sharedConfig.WebhookConfig   `mapstructure:"webhook"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load loads configuration from file and environment variables
func Load(env string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../configs")
	v.AddConfigPath("../../configs")

	v.SetEnvPrefix("LNSUBS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Allow env parameter to override server mode if provided
	if env != "" && env != "default" {
		v.Set("server.mode", env)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.Payment.Provider {
	case "fake", "lnbits":
	default:
		return fmt.Errorf("unsupported payment provider %q", c.Payment.Provider)
	}
	if c.Payment.Provider == "lnbits" && c.Payment.BaseURL == "" {
		return fmt.Errorf("payment.base_url is required for the lnbits provider")
	}
	if c.Billing.MaxFailedPayments < 0 {
		return fmt.Errorf("billing.max_failed_payments must not be negative")
	}
	if c.Billing.RetryBackoff < 0 {
		return fmt.Errorf("billing.retry_backoff must not be negative")
	}
	for i, key := range c.Auth.APIKeys {
		if key.Key == "" || key.Wallet == "" {
			return fmt.Errorf("auth.api_keys[%d] needs both key and wallet", i)
		}
		if key.Role != "admin" && key.Role != "invoice" {
			return fmt.Errorf("auth.api_keys[%d] has unknown role %q", i, key.Role)
		}
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.base_url", "http://localhost:8080")

	// Database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "lnsubs.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.username", "root")
	v.SetDefault("database.database", "lnsubs")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.conn_max_lifetime", 60)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stdout")

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	// Billing defaults
	v.SetDefault("billing.scan_interval", "1m")
	v.SetDefault("billing.reconcile_interval", "5m")
	v.SetDefault("billing.counter_check_period", "1h")
	v.SetDefault("billing.batch_size", 100)
	v.SetDefault("billing.workers", 4)
	v.SetDefault("billing.retry_backoff", "10m")
	v.SetDefault("billing.max_failed_payments", 0)

	// Payment defaults
	v.SetDefault("payment.provider", "fake")
	v.SetDefault("payment.timeout", "10s")
	v.SetDefault("payment.invoice_expiry", "1h")

	// Rate limit defaults
	v.SetDefault("ratelimit.public_requests_per_minute", 10)
	v.SetDefault("ratelimit.burst", 10)

	// Email defaults
	v.SetDefault("email.enabled", false)
	v.SetDefault("email.smtp_host", "localhost")
	v.SetDefault("email.smtp_port", 1025)
	v.SetDefault("email.from_address", "billing@lnsubs.local")
	v.SetDefault("email.from_name", "Lightning Subscriptions")

	// Webhook defaults
	v.SetDefault("webhook.enabled", true)
	v.SetDefault("webhook.timeout", "5s")
}
