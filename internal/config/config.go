package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

type AuthConfig struct {
	AccessSecret string
}

type BillingConfig struct {
	DefaultTaxRate float64
	DueDay         int
}

type WorkOrderConfig struct {
	DefaultStartTime string
}

type QuoteConfig struct {
	ReviewBaseURL string
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Billing     BillingConfig
	WorkOrders  WorkOrderConfig
	Quotes      QuoteConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")
	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Billing: BillingConfig{
			DefaultTaxRate: v.GetFloat64("BILLING_DEFAULT_TAX_RATE"),
			DueDay:         v.GetInt("BILLING_DUE_DAY"),
		},
		WorkOrders: WorkOrderConfig{
			DefaultStartTime: v.GetString("WORKORDER_DEFAULT_START_TIME"),
		},
		Quotes: QuoteConfig{
			ReviewBaseURL: v.GetString("QUOTE_REVIEW_BASE_URL"),
		},
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7090
	}
	if cfg.Billing.DefaultTaxRate == 0 {
		cfg.Billing.DefaultTaxRate = 0.08
	}
	if cfg.Billing.DueDay == 0 {
		cfg.Billing.DueDay = 25
	}
	if cfg.WorkOrders.DefaultStartTime == "" {
		cfg.WorkOrders.DefaultStartTime = "21:00"
	}
	if cfg.Quotes.ReviewBaseURL == "" {
		cfg.Quotes.ReviewBaseURL = "https://app.brightserv.io/quote/review"
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.Billing.DueDay < 1 || cfg.Billing.DueDay > 28 {
		return fmt.Errorf("BILLING_DUE_DAY must be between 1 and 28")
	}
	return nil
}
