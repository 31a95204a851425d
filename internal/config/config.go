package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration. It is loaded once in main and
// passed to the constructors that need it; nothing reads the environment
// after startup.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	SMTP     SMTPConfig
	Khalti   KhaltiConfig
	AWS      AWSConfig
	Sweeper  SweeperConfig
}

type ServerConfig struct {
	Port    string
	BaseURL string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type RedisConfig struct {
	URL string
}

type JWTConfig struct {
	Secret string
}

type SMTPConfig struct {
	Host     string
	Port     string
	From     string
	Password string
}

// KhaltiConfig configures the payment gateway client. BaseURL points at
// either the sandbox or the live API.
type KhaltiConfig struct {
	BaseURL   string
	SecretKey string
	ReturnURL string
	Timeout   time.Duration
}

type AWSConfig struct {
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UploadDir string
}

// SweeperConfig controls the pending-booking expiry sweep.
type SweeperConfig struct {
	CronSpec string
	Hold     time.Duration
}

// Load builds the configuration from environment variables, applying
// defaults suitable for local development.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			BaseURL: getEnv("BASE_URL", "http://localhost:8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     getEnv("DB_NAME", "gharbeti"),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		JWT: JWTConfig{
			Secret: os.Getenv("JWT_SECRET"),
		},
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     os.Getenv("SMTP_PORT"),
			From:     os.Getenv("EMAIL_FROM"),
			Password: os.Getenv("EMAIL_PASSWORD"),
		},
		Khalti: KhaltiConfig{
			BaseURL:   getEnv("KHALTI_BASE_URL", "https://a.khalti.com/api/v2"),
			SecretKey: os.Getenv("KHALTI_SECRET_KEY"),
			ReturnURL: getEnv("KHALTI_RETURN_URL", getEnv("BASE_URL", "http://localhost:8080")+"/payment/callback"),
			Timeout:   getDuration("KHALTI_TIMEOUT_SECONDS", time.Second, 15*time.Second),
		},
		AWS: AWSConfig{
			Region:    os.Getenv("AWS_REGION"),
			AccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			Bucket:    os.Getenv("AWS_S3_BUCKET"),
			UploadDir: getEnv("UPLOAD_DIR", "/app/uploads"),
		},
		Sweeper: SweeperConfig{
			CronSpec: getEnv("BOOKING_SWEEP_CRON", "*/10 * * * *"),
			Hold:     getDuration("BOOKING_HOLD_HOURS", time.Hour, 24*time.Hour),
		},
	}

	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, unit, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return time.Duration(n) * unit
}
