package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds the application settings. Every key can be set through the
// environment or a .env file in the working directory.
type Config struct {
	AppPort       string        `mapstructure:"APP_PORT"`
	DBDriver      string        `mapstructure:"DB_DRIVER"`
	DatabaseDSN   string        `mapstructure:"DATABASE_DSN"`
	JWTSecret     string        `mapstructure:"JWT_SECRET"`
	TokenTTL      time.Duration `mapstructure:"TOKEN_TTL"`
	LinkTTL       time.Duration `mapstructure:"LINK_TTL"`
	RabbitMQURL   string        `mapstructure:"RABBITMQ_URL"` // empty disables the broker
	NotifyQueue   string        `mapstructure:"NOTIFICATION_QUEUE"`
	OrderQueue    string        `mapstructure:"ORDER_QUEUE"`
	AdminAPIKey   string        `mapstructure:"ADMIN_API_KEY"`
	PublicBaseURL string        `mapstructure:"PUBLIC_BASE_URL"`
	StoreURL      string        `mapstructure:"STORE_URL"`
	LoginURL      string        `mapstructure:"LOGIN_URL"`
	SessionCookie string        `mapstructure:"SESSION_COOKIE"`
	SMTPHost      string        `mapstructure:"SMTP_HOST"` // empty logs emails instead of sending
	SMTPPort      int           `mapstructure:"SMTP_PORT"`
	SMTPUsername  string        `mapstructure:"SMTP_USERNAME"`
	SMTPPassword  string        `mapstructure:"SMTP_PASSWORD"`
	MailFrom      string        `mapstructure:"MAIL_FROM"`
}

var keys = map[string]interface{}{
	"APP_PORT":           ":8080",
	"DB_DRIVER":          DriverSQLite,
	"DATABASE_DSN":       "shopfusion.db",
	"JWT_SECRET":         "",
	"TOKEN_TTL":          "24h",
	"LINK_TTL":           "24h",
	"RABBITMQ_URL":       "",
	"NOTIFICATION_QUEUE": "notification_queue",
	"ORDER_QUEUE":        "order_queue",
	"ADMIN_API_KEY":      "",
	"PUBLIC_BASE_URL":    "http://localhost:8080",
	"STORE_URL":          "/api/v1/store",
	"LOGIN_URL":          "/api/v1/auth/login",
	"SESSION_COOKIE":     "cart_session",
	"SMTP_HOST":          "",
	"SMTP_PORT":          587,
	"SMTP_USERNAME":      "",
	"SMTP_PASSWORD":      "",
	"MAIL_FROM":          "ShopFusion <no-reply@shopfusion.local>",
}

// New returns a viper instance with every key defaulted and bound to the
// environment.
func New() *viper.Viper {
	v := viper.New()
	for key, value := range keys {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads an optional .env file and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables only")
	}
	return FromViper(New())
}

// FromViper decodes and validates the settings held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the application cannot start without.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	switch c.DBDriver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN must be set")
	}
	return nil
}

// BrokerEnabled reports whether a RabbitMQ URL is configured.
func (c *Config) BrokerEnabled() bool {
	return c.RabbitMQURL != ""
}
