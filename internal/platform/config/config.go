package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr                   string
	DatabaseURL            string
	JWTSecret              string
	TokenTTL               time.Duration
	DataEncryptionKey      string
	Environment            string
	Timezone               string
	SeedCompanyName        string
	SeedSuperAdminEmail    string
	SeedSuperAdminPassword string
	EmailFrom              string
	EmailEnabled           bool
	SMTPHost               string
	SMTPPort               int
	SMTPUser               string
	SMTPPassword           string
	SMTPUseTLS             bool
	RunMigrations          bool
	MigrationsDir          string
	RunSeed                bool
	MaxBodyBytes           int64
	MaxUploadBytes         int64
	RateLimitPerMinute     int
	DefaultVacationDays    int
	MonthlyHoursTarget     float64
	ShiftTemplateFile      string
	StorageDir             string
	VacationPeriodInterval time.Duration
	LogLevel               string
	LogFilePath            string
	MetricsEnabled         bool
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Addr:                   getEnv("APP_ADDR", ":8080"),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		JWTSecret:              getEnv("JWT_SECRET", ""),
		TokenTTL:               getEnvDuration("TOKEN_TTL", 8*time.Hour),
		DataEncryptionKey:      getEnv("DATA_ENCRYPTION_KEY", ""),
		Environment:            getEnv("APP_ENV", "development"),
		Timezone:               getEnv("APP_TIMEZONE", "UTC"),
		SeedCompanyName:        getEnv("SEED_COMPANY_NAME", "Default Company"),
		SeedSuperAdminEmail:    getEnv("SEED_SUPER_ADMIN_EMAIL", ""),
		SeedSuperAdminPassword: getEnv("SEED_SUPER_ADMIN_PASSWORD", ""),
		EmailFrom:              getEnv("EMAIL_FROM", "no-reply@example.com"),
		EmailEnabled:           getEnvBool("EMAIL_ENABLED", false),
		SMTPHost:               getEnv("SMTP_HOST", ""),
		SMTPPort:               getEnvInt("SMTP_PORT", 587),
		SMTPUser:               getEnv("SMTP_USER", ""),
		SMTPPassword:           getEnv("SMTP_PASSWORD", ""),
		SMTPUseTLS:             getEnvBool("SMTP_USE_TLS", true),
		RunMigrations:          getEnvBool("RUN_MIGRATIONS", true),
		MigrationsDir:          getEnv("MIGRATIONS_DIR", "migrations"),
		RunSeed:                getEnvBool("RUN_SEED", true),
		MaxBodyBytes:           int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		MaxUploadBytes:         int64(getEnvInt("MAX_UPLOAD_BYTES", 10*1024*1024)),
		RateLimitPerMinute:     getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		DefaultVacationDays:    getEnvInt("DEFAULT_VACATION_DAYS", 22),
		MonthlyHoursTarget:     getEnvFloat("MONTHLY_HOURS_TARGET", 160),
		ShiftTemplateFile:      getEnv("SHIFT_TEMPLATE_FILE", ""),
		StorageDir:             getEnv("STORAGE_DIR", "storage"),
		VacationPeriodInterval: getEnvDuration("VACATION_PERIOD_INTERVAL", 24*time.Hour),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		LogFilePath:            getEnv("LOG_FILE_PATH", ""),
		MetricsEnabled:         getEnvBool("METRICS_ENABLED", true),
	}
}

// Location resolves the configured business time zone, falling back to UTC.
func (c Config) Location() *time.Location {
	if strings.TrimSpace(c.Timezone) == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Environment == "production" {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if strings.TrimSpace(c.DataEncryptionKey) == "" {
			return fmt.Errorf("DATA_ENCRYPTION_KEY must be set in production for encrypted payroll documents")
		}
		if c.RunSeed && strings.TrimSpace(c.SeedSuperAdminPassword) == "" {
			return fmt.Errorf("SEED_SUPER_ADMIN_PASSWORD must be set or RUN_SEED disabled in production")
		}
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("APP_TIMEZONE is invalid: %w", err)
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.DefaultVacationDays < 0 {
		return fmt.Errorf("DEFAULT_VACATION_DAYS must not be negative")
	}
	if c.MonthlyHoursTarget <= 0 {
		return fmt.Errorf("MONTHLY_HOURS_TARGET must be positive")
	}
	if c.EmailEnabled && c.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST must be set when EMAIL_ENABLED is true")
	}
	return nil
}
