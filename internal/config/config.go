package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Redis    RedisConfig    `json:"redis"`
	Registry RegistryConfig `json:"registry"`
	Payments PaymentsConfig `json:"payments"`
	Checkout CheckoutConfig `json:"checkout"`
	Auth     AuthConfig     `json:"auth"`
	Storage  StorageConfig  `json:"storage"`
	Logging  LoggingConfig  `json:"logging"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Host           string `json:"host"`
	Port           int    `json:"port"`
	User           string `json:"user"`
	Password       string `json:"password"`
	DBName         string `json:"db_name"`
	SSLMode        string `json:"ssl_mode"`
	MaxConnections int    `json:"max_connections"`
	MaxIdleConns   int    `json:"max_idle_conns"`
}

// RedisConfig represents the Redis connection used for the market cache
// and the checkout workflow store
type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// RegistryConfig configures the upstream carbon registry client
type RegistryConfig struct {
	BaseURL        string        `json:"base_url"`
	APIKey         string        `json:"api_key"`
	RequestTimeout time.Duration `json:"request_timeout"`
	CacheTTL       time.Duration `json:"cache_ttl"`
	RefreshCron    string        `json:"refresh_cron"`
}

// PaymentsConfig configures the external payment backend and the
// payment-status monitor
type PaymentsConfig struct {
	BaseURL           string        `json:"base_url"`
	APIKey            string        `json:"api_key"`
	RequestTimeout    time.Duration `json:"request_timeout"`
	PollInterval      time.Duration `json:"poll_interval"`
	MaxMonitoringTime time.Duration `json:"max_monitoring_time"`
}

// CheckoutConfig configures price presentation and quote matching
type CheckoutConfig struct {
	MarkupMultiplier string        `json:"markup_multiplier"`
	PriceTolerance   string        `json:"price_tolerance"`
	WorkflowTTL      time.Duration `json:"workflow_ttl"`
}

// AuthConfig configures OTP authentication
type AuthConfig struct {
	JWTSecret       string        `json:"jwt_secret"`
	TokenTTL        time.Duration `json:"token_ttl"`
	OTPTTL          time.Duration `json:"otp_ttl"`
	OTPLength       int           `json:"otp_length"`
	SenderEmail     string        `json:"sender_email"`
	CaptchaSiteKey  string        `json:"captcha_site_key"`
	CaptchaSecret   string        `json:"captcha_secret"`
	CaptchaRequired bool          `json:"captcha_required"`
	Environment     string        `json:"environment"`
}

// StorageConfig configures retirement certificate storage
type StorageConfig struct {
	Bucket string `json:"bucket"`
	Region string `json:"region"`
}

// LoggingConfig
type LoggingConfig struct {
	Level string `json:"level"`
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Default config
	config := &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			User:    os.Getenv("USER"),
			DBName:  "forestblock_marketplace",
			SSLMode: "disable",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Registry: RegistryConfig{
			BaseURL:        "https://v15.api.carbonmark.com",
			RequestTimeout: 15 * time.Second,
			CacheTTL:       5 * time.Minute,
			RefreshCron:    "@every 5m",
		},
		Payments: PaymentsConfig{
			RequestTimeout:    15 * time.Second,
			PollInterval:      5 * time.Second,
			MaxMonitoringTime: 10 * time.Minute,
		},
		Checkout: CheckoutConfig{
			MarkupMultiplier: "1.1",
			PriceTolerance:   "0.01",
			WorkflowTTL:      30 * time.Minute,
		},
		Auth: AuthConfig{
			TokenTTL:  24 * time.Hour,
			OTPTTL:    10 * time.Minute,
			OTPLength: 6,
		},
	}

	// Load from file if exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// Override with environment variables
	overrideWithEnv(config)

	return config, nil
}

func overrideWithEnv(config *Config) {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if dbHost := os.Getenv("DATABASE_HOST"); dbHost != "" {
		config.Database.Host = dbHost
	}
	if dbUser := os.Getenv("DATABASE_USER"); dbUser != "" {
		config.Database.User = dbUser
	}
	if dbPass := os.Getenv("DATABASE_PASSWORD"); dbPass != "" {
		config.Database.Password = dbPass
	}
	if dbName := os.Getenv("DATABASE_DBNAME"); dbName != "" {
		config.Database.DBName = dbName
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		config.Redis.Addr = addr
	}
	if pass := os.Getenv("REDIS_PASSWORD"); pass != "" {
		config.Redis.Password = pass
	}
	if base := os.Getenv("CARBONMARK_API_URL"); base != "" {
		config.Registry.BaseURL = base
	}
	if key := os.Getenv("CARBONMARK_API_KEY"); key != "" {
		config.Registry.APIKey = key
	}
	if base := os.Getenv("PAYMENT_API_URL"); base != "" {
		config.Payments.BaseURL = base
	}
	if key := os.Getenv("PAYMENT_API_KEY"); key != "" {
		config.Payments.APIKey = key
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.Auth.JWTSecret = secret
	}
	if sender := os.Getenv("SENDER_EMAIL"); sender != "" {
		config.Auth.SenderEmail = sender
	}
	if siteKey := os.Getenv("RECAPTCHA_SITE_KEY"); siteKey != "" {
		config.Auth.CaptchaSiteKey = siteKey
	}
	if secret := os.Getenv("RECAPTCHA_SECRET"); secret != "" {
		config.Auth.CaptchaSecret = secret
	}
	if env := os.Getenv("APP_ENV"); env != "" {
		config.Auth.Environment = env
		// CAPTCHA is enforced in production only
		config.Auth.CaptchaRequired = env == "production"
	}
	if bucket := os.Getenv("CERTIFICATE_BUCKET"); bucket != "" {
		config.Storage.Bucket = bucket
	}
	if region := os.Getenv("AWS_REGION"); region != "" {
		config.Storage.Region = region
	}
}

// GetDatabaseURL returns the database connection string
func (c *DatabaseConfig) GetDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
