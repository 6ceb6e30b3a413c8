package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every runtime setting. Keys map 1:1 onto upper-case
// environment variables, e.g. db_source <- DB_SOURCE.
type Config struct {
	DBSource       string        `mapstructure:"db_source"`
	DBMaxConns     int32         `mapstructure:"db_max_conns"`
	Port           string        `mapstructure:"server_port"`
	Env            string        `mapstructure:"environment"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	AppBaseURL     string        `mapstructure:"app_base_url"`

	JWTSecret string `mapstructure:"jwt_secret"`

	PaymentKeyID     string `mapstructure:"payment_key_id"`
	PaymentKeySecret string `mapstructure:"payment_key_secret"`
	PaymentBaseURL   string `mapstructure:"payment_base_url"`
	UnlockFeePaise   int64  `mapstructure:"unlock_fee_paise"`
	Currency         string `mapstructure:"currency"`

	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     int    `mapstructure:"smtp_port"`
	SMTPUsername string `mapstructure:"smtp_username"`
	SMTPPassword string `mapstructure:"smtp_password"`
	SMTPFrom     string `mapstructure:"smtp_from"`
}

var defaults = map[string]any{
	"db_source":          "",
	"db_max_conns":       10,
	"server_port":        "8080",
	"environment":        "development",
	"request_timeout":    10 * time.Second,
	"app_base_url":       "http://localhost:8080",
	"jwt_secret":         "",
	"payment_key_id":     "",
	"payment_key_secret": "",
	"payment_base_url":   "https://api.razorpay.com",
	"unlock_fee_paise":   4900,
	"currency":           "INR",
	"smtp_host":          "",
	"smtp_port":          587,
	"smtp_username":      "",
	"smtp_password":      "",
	"smtp_from":          "no-reply@cardfees.local",
}

// Load reads defaults, then the optional config file at path, then the
// environment. Later sources win.
func Load(path string) (*Config, error) {
	return LoadFrom(viper.New(), path)
}

// LoadFrom is Load on a caller-supplied viper instance, so flags already
// bound to v take part.
func LoadFrom(v *viper.Viper, path string) (*Config, error) {
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Validate checks the settings needed to serve traffic and reports every
// problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.DBSource == "" {
		errs = append(errs, errors.New("DB_SOURCE environment variable is required"))
	}
	if c.DBMaxConns <= 0 {
		errs = append(errs, errors.New("DB_MAX_CONNS must be positive"))
	}
	if c.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT must not be empty"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.PaymentKeyID == "" || c.PaymentKeySecret == "" {
		errs = append(errs, errors.New("PAYMENT_KEY_ID and PAYMENT_KEY_SECRET are required"))
	}
	if c.UnlockFeePaise <= 0 {
		errs = append(errs, errors.New("UNLOCK_FEE_PAISE must be positive"))
	}
	if len(c.Currency) != 3 {
		errs = append(errs, fmt.Errorf("CURRENCY %q is not an ISO 4217 code", c.Currency))
	}
	if c.IsProduction() && c.SMTPHost == "" {
		errs = append(errs, errors.New("SMTP_HOST is required in production"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
