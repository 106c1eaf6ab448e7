package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	BaseURL        string   `mapstructure:"base_url"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	Timezone       string   `mapstructure:"timezone"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	Path            string `mapstructure:"path"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

// GetDSN returns the MySQL DSN. Times are parsed as UTC.
func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&collation=utf8mb4_general_ci&parseTime=true&loc=UTC",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// APIKeyConfig binds an API key to the wallet it acts for.
// Role is "admin" (read and write) or "invoice" (read only).
type APIKeyConfig struct {
	Key    string `mapstructure:"key"`
	Wallet string `mapstructure:"wallet"`
	Role   string `mapstructure:"role"`
}

type AuthConfig struct {
	APIKeys        []APIKeyConfig `mapstructure:"api_keys"`
	CallbackSecret string         `mapstructure:"callback_secret"`
}

type BillingConfig struct {
	ScanInterval       time.Duration `mapstructure:"scan_interval"`
	ReconcileInterval  time.Duration `mapstructure:"reconcile_interval"`
	CounterCheckPeriod time.Duration `mapstructure:"counter_check_period"`
	BatchSize          int           `mapstructure:"batch_size"`
	Workers            int           `mapstructure:"workers"`
	// RetryBackoff keeps a subscription out of the due scan for this long
	// after invoicing it failed.
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	// MaxFailedPayments cancels a subscription once this many consecutive
	// payments failed. Zero disables automatic cancellation.
	MaxFailedPayments int `mapstructure:"max_failed_payments"`
}

type PaymentConfig struct {
	Provider      string        `mapstructure:"provider"`
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	InvoiceExpiry time.Duration `mapstructure:"invoice_expiry"`
	// WalletKeys maps a wallet id to the invoice key used to create invoices on it.
	WalletKeys map[string]string `mapstructure:"wallet_keys"`
}

type RateLimitConfig struct {
	PublicRequestsPerMinute int `mapstructure:"public_requests_per_minute"`
	Burst                   int `mapstructure:"burst"`
}

type EmailConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     int    `mapstructure:"smtp_port"`
	SMTPUser     string `mapstructure:"smtp_user"`
	SMTPPassword string `mapstructure:"smtp_password"`
	FromAddress  string `mapstructure:"from_address"`
	FromName     string `mapstructure:"from_name"`
}

type WebhookConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	SigningSecret string        `mapstructure:"signing_secret"`
	Timeout       time.Duration `mapstructure:"timeout"`
}
