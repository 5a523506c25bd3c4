package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Log         LogConfig
	HTTP        HTTPConfig
	Payment     PaymentConfig
	Idempotency IdempotencyConfig
	Reconcile   ReconcileConfig
	Ledger      LedgerConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds JWT settings
type JWTConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	TrustedProxies []string
}

// PaymentConfig holds payment gateway settings
type PaymentConfig struct {
	Provider       string        // active external provider name
	CallbackSecret string        // shared secret for webhook signature verification
	IntentExpiry   time.Duration // how long an external payment intent stays payable
	CallbackDedupe time.Duration // TTL for webhook replay suppression
}

// IdempotencyConfig holds operation guard settings
type IdempotencyConfig struct {
	WaitTimeout  time.Duration // how long a caller waits on an in-progress duplicate
	PollInterval time.Duration
}

// ReconcileConfig holds reconciliation job settings
type ReconcileConfig struct {
	Enabled    bool
	Interval   time.Duration // how often the sweeper runs
	StaleAfter time.Duration // pending age before a movement is queried upstream
	BatchSize  int
	JobTimeout time.Duration
}

// LedgerConfig maps business events to chart-of-accounts codes
type LedgerConfig struct {
	CashAccountCode           string
	SavingsAccountCode        string
	SalesRevenueAccountCode   string
	COGSAccountCode           string
	InventoryAccountCode      string
	LoanReceivableAccountCode string
	InterestIncomeAccountCode string
	ClearingAccountCode       string
}

// Load loads configuration from TOML file and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with KOPERASI_ prefix (e.g., KOPERASI_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("KOPERASI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:     v.GetString("jwt.secret"),
			Issuer:     v.GetString("jwt.issuer"),
			Expiration: v.GetDuration("jwt.expiration"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
		Payment: PaymentConfig{
			Provider:       v.GetString("payment.provider"),
			CallbackSecret: v.GetString("payment.callback_secret"),
			IntentExpiry:   v.GetDuration("payment.intent_expiry"),
			CallbackDedupe: v.GetDuration("payment.callback_dedupe"),
		},
		Idempotency: IdempotencyConfig{
			WaitTimeout:  v.GetDuration("idempotency.wait_timeout"),
			PollInterval: v.GetDuration("idempotency.poll_interval"),
		},
		Reconcile: ReconcileConfig{
			Enabled:    v.GetBool("reconcile.enabled"),
			Interval:   v.GetDuration("reconcile.interval"),
			StaleAfter: v.GetDuration("reconcile.stale_after"),
			BatchSize:  v.GetInt("reconcile.batch_size"),
			JobTimeout: v.GetDuration("reconcile.job_timeout"),
		},
		Ledger: LedgerConfig{
			CashAccountCode:           v.GetString("ledger.cash_account_code"),
			SavingsAccountCode:        v.GetString("ledger.savings_account_code"),
			SalesRevenueAccountCode:   v.GetString("ledger.sales_revenue_account_code"),
			COGSAccountCode:           v.GetString("ledger.cogs_account_code"),
			InventoryAccountCode:      v.GetString("ledger.inventory_account_code"),
			LoanReceivableAccountCode: v.GetString("ledger.loan_receivable_account_code"),
			InterestIncomeAccountCode: v.GetString("ledger.interest_income_account_code"),
			ClearingAccountCode:       v.GetString("ledger.clearing_account_code"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "koperasi-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "koperasi"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "koperasi-backend"
	}
	if cfg.JWT.Expiration == 0 {
		cfg.JWT.Expiration = 24 * time.Hour
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.Payment.Provider == "" {
		cfg.Payment.Provider = "mockpay"
	}
	if cfg.Payment.IntentExpiry == 0 {
		cfg.Payment.IntentExpiry = 15 * time.Minute
	}
	if cfg.Payment.CallbackDedupe == 0 {
		cfg.Payment.CallbackDedupe = 24 * time.Hour
	}
	if cfg.Idempotency.WaitTimeout == 0 {
		cfg.Idempotency.WaitTimeout = 5 * time.Second
	}
	if cfg.Idempotency.PollInterval == 0 {
		cfg.Idempotency.PollInterval = 100 * time.Millisecond
	}
	if cfg.Reconcile.Interval == 0 {
		cfg.Reconcile.Interval = 5 * time.Minute
	}
	if cfg.Reconcile.StaleAfter == 0 {
		cfg.Reconcile.StaleAfter = 10 * time.Minute
	}
	if cfg.Reconcile.BatchSize == 0 {
		cfg.Reconcile.BatchSize = 100
	}
	if cfg.Reconcile.JobTimeout == 0 {
		cfg.Reconcile.JobTimeout = 2 * time.Minute
	}
	if cfg.Ledger.CashAccountCode == "" {
		cfg.Ledger.CashAccountCode = "1000"
	}
	if cfg.Ledger.InventoryAccountCode == "" {
		cfg.Ledger.InventoryAccountCode = "1200"
	}
	if cfg.Ledger.LoanReceivableAccountCode == "" {
		cfg.Ledger.LoanReceivableAccountCode = "1300"
	}
	if cfg.Ledger.ClearingAccountCode == "" {
		cfg.Ledger.ClearingAccountCode = "1900"
	}
	if cfg.Ledger.SavingsAccountCode == "" {
		cfg.Ledger.SavingsAccountCode = "2100"
	}
	if cfg.Ledger.SalesRevenueAccountCode == "" {
		cfg.Ledger.SalesRevenueAccountCode = "4000"
	}
	if cfg.Ledger.InterestIncomeAccountCode == "" {
		cfg.Ledger.InterestIncomeAccountCode = "4100"
	}
	if cfg.Ledger.COGSAccountCode == "" {
		cfg.Ledger.COGSAccountCode = "5000"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.App.Env == "production" {
		if c.JWT.Secret == "" {
			return fmt.Errorf("jwt.secret is required in production")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Payment.CallbackSecret == "" {
			return fmt.Errorf("payment.callback_secret is required in production")
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the Redis address in host:port form
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
