package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	App          *AppConfig          `yaml:"app"`
	Security     *SecurityConfig     `yaml:"security"`
	Database     *DatabaseConfig     `yaml:"database"`
	Redis        *RedisConfig        `yaml:"redis"`
	SMTP         *SMTPConfig         `yaml:"smtp"`
	SMS          *SMSConfig          `yaml:"sms"`
	Push         *PushConfig         `yaml:"push"`
	Payment      *PaymentConfig      `yaml:"payment"`
	OAuth        *OAuthConfig        `yaml:"oauth"`
	Maps         *MapsConfig         `yaml:"maps"`
	Storage      *StorageConfig      `yaml:"storage"`
	Booking      *BookingConfig      `yaml:"booking"`
	Notification *NotificationConfig `yaml:"notification"`
	Tracking     *TrackingConfig     `yaml:"tracking"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
	Port        int    `yaml:"port"`
	Host        string `yaml:"host"`
	BaseURL     string `yaml:"base_url"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	Timezone    string `yaml:"timezone"`
	Currency    string `yaml:"currency"`
}

type SecurityConfig struct {
	JWTSecret          string        `yaml:"jwt_secret"`
	SessionTTL         time.Duration `yaml:"session_ttl"`
	BcryptCost         int           `yaml:"bcrypt_cost"`
	PasswordMinLength  int           `yaml:"password_min_length"`
	OTPLength          int           `yaml:"otp_length"`
	OTPExpiry          time.Duration `yaml:"otp_expiry"`
	OTPMaxAttempts     int           `yaml:"otp_max_attempts"`
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"`
	TrustedProxies     []string      `yaml:"trusted_proxies"`
}

func Load() (*Config, error) {
	config := &Config{
		App:          loadAppConfig(),
		Security:     loadSecurityConfig(),
		Database:     loadDatabaseConfig(),
		Redis:        loadRedisConfig(),
		SMTP:         loadSMTPConfig(),
		SMS:          loadSMSConfig(),
		Push:         loadPushConfig(),
		Payment:      loadPaymentConfig(),
		OAuth:        loadOAuthConfig(),
		Maps:         loadMapsConfig(),
		Storage:      loadStorageConfig(),
		Booking:      loadBookingConfig(),
		Notification: loadNotificationConfig(),
		Tracking:     loadTrackingConfig(),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if IsProduction() && c.Security.JWTSecret == defaultJWTSecret {
		return errors.New("JWT_SECRET must be set in production")
	}
	if c.Booking.MaxStops < 0 {
		return errors.New("BOOKING_MAX_STOPS must not be negative")
	}
	if c.Tracking.MinPollInterval <= 0 || c.Tracking.MaxPollInterval < c.Tracking.MinPollInterval {
		return errors.New("tracking poll interval bounds are invalid")
	}
	return nil
}

const defaultJWTSecret = "change-me-in-production"

func loadAppConfig() *AppConfig {
	return &AppConfig{
		Name:        getEnv("APP_NAME", "OneRideTho"),
		Version:     getEnv("APP_VERSION", "1.0.0"),
		Environment: getEnv("APP_ENV", "development"),
		Port:        getEnvAsInt("APP_PORT", 8080),
		Host:        getEnv("APP_HOST", "0.0.0.0"),
		BaseURL:     getEnv("APP_BASE_URL", "http://localhost:8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", defaultLogFormat()),
		Timezone:    getEnv("APP_TIMEZONE", "America/Nassau"),
		Currency:    getEnv("APP_CURRENCY", "USD"),
	}
}

func defaultLogFormat() string {
	if IsProduction() {
		return "json"
	}
	return "text"
}

func loadSecurityConfig() *SecurityConfig {
	return &SecurityConfig{
		JWTSecret:          getEnv("JWT_SECRET", defaultJWTSecret),
		SessionTTL:         getEnvAsDuration("SESSION_TTL", 30*24*time.Hour),
		BcryptCost:         getEnvAsInt("BCRYPT_COST", 12),
		PasswordMinLength:  getEnvAsInt("PASSWORD_MIN_LENGTH", 8),
		OTPLength:          getEnvAsInt("OTP_LENGTH", 6),
		OTPExpiry:          getEnvAsDuration("OTP_EXPIRY", 10*time.Minute),
		OTPMaxAttempts:     getEnvAsInt("OTP_MAX_ATTEMPTS", 5),
		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		TrustedProxies:     getEnvAsSlice("TRUSTED_PROXIES", []string{}),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func IsProduction() bool {
	return getEnv("APP_ENV", "development") == "production"
}

func IsDevelopment() bool {
	return getEnv("APP_ENV", "development") == "development"
}

func IsTest() bool {
	return getEnv("APP_ENV", "development") == "test"
}
