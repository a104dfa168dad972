package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Auth          AuthConfig
	Providers     ProvidersConfig
	Decision      DecisionConfig
	Delivery      DeliveryConfig
	TenantCache   TenantCacheConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL database configuration.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence over individual fields.
type DatabaseConfig struct {
	ConnectionString string // From DATABASE_URL when set
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// RedisConfig holds Redis configuration for the channel suspension store.
// When Addr is empty the engine falls back to the in-memory store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AuthConfig holds JWT authentication configuration
type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

// ProvidersConfig holds channel provider configurations
type ProvidersConfig struct {
	Twilio TwilioConfig
	Email  EmailConfig
}

// TwilioConfig holds shared Twilio transport settings (SMS, WhatsApp, voice).
// Account credentials are per-tenant and come from the tenant config store.
type TwilioConfig struct {
	BaseURL string
	Timeout time.Duration
	Voice   string // TTS voice for spoken messages
}

// EmailConfig holds email provider transport settings
type EmailConfig struct {
	BaseURL string
	Timeout time.Duration
}

// DecisionConfig holds channel scoring weights
type DecisionConfig struct {
	PriorityFitWeight float64
	TypeFitWeight     float64
	CostWeight        float64
	LatencyWeight     float64
	PreferenceWeight  float64
}

// DeliveryConfig holds delivery coordinator settings
type DeliveryConfig struct {
	AttemptTimeout     time.Duration
	SuspensionCooldown time.Duration
}

// TenantCacheConfig holds tenant config snapshot cache settings
type TenantCacheConfig struct {
	MaxSize int
	TTL     time.Duration
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // json or text
}

// New creates a new Config instance by loading environment variables
func New() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: loadDatabaseConfig(),
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			Issuer:    getEnv("JWT_ISSUER", "channel-engine"),
		},
		Providers: ProvidersConfig{
			Twilio: TwilioConfig{
				BaseURL: getEnv("TWILIO_BASE_URL", "https://api.twilio.com/2010-04-01"),
				Timeout: getEnvAsDuration("TWILIO_TIMEOUT", 10*time.Second),
				Voice:   getEnv("TWILIO_VOICE", "Polly.Joanna"),
			},
			Email: EmailConfig{
				BaseURL: getEnv("EMAIL_BASE_URL", "https://api.resend.com"),
				Timeout: getEnvAsDuration("EMAIL_TIMEOUT", 10*time.Second),
			},
		},
		Decision: DecisionConfig{
			PriorityFitWeight: getEnvAsFloat("DECISION_WEIGHT_PRIORITY_FIT", 0.40),
			TypeFitWeight:     getEnvAsFloat("DECISION_WEIGHT_TYPE_FIT", 0.15),
			CostWeight:        getEnvAsFloat("DECISION_WEIGHT_COST", 0.10),
			LatencyWeight:     getEnvAsFloat("DECISION_WEIGHT_LATENCY", 0.15),
			PreferenceWeight:  getEnvAsFloat("DECISION_WEIGHT_PREFERENCE", 0.20),
		},
		Delivery: DeliveryConfig{
			AttemptTimeout:     getEnvAsDuration("DELIVERY_ATTEMPT_TIMEOUT", 5*time.Second),
			SuspensionCooldown: getEnvAsDuration("SUSPENSION_COOLDOWN", 15*time.Minute),
		},
		TenantCache: TenantCacheConfig{
			MaxSize: getEnvAsInt("TENANT_CACHE_MAX_SIZE", 1000),
			TTL:     getEnvAsDuration("TENANT_CACHE_TTL", 60*time.Second),
		},
		Observability: ObservabilityConfig{
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	// Database validation (DATABASE_URL or DB_* vars)
	if c.Database.ConnectionString == "" && c.Database.Host == "" {
		return fmt.Errorf("database configuration required: set DATABASE_URL or DB_HOST")
	}
	if c.Database.ConnectionString == "" {
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	}

	// Auth validation (required in production)
	if c.IsProduction() && c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required in production")
	}

	// Scoring weights must be positive; relative magnitudes are up to the operator
	weights := []float64{
		c.Decision.PriorityFitWeight,
		c.Decision.TypeFitWeight,
		c.Decision.CostWeight,
		c.Decision.LatencyWeight,
		c.Decision.PreferenceWeight,
	}
	for _, w := range weights {
		if w < 0 {
			return fmt.Errorf("decision weights must be non-negative")
		}
	}

	if c.Delivery.AttemptTimeout <= 0 {
		return fmt.Errorf("delivery attempt timeout must be positive")
	}

	// Observability validation
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// DSN returns the PostgreSQL connection string.
// Uses ConnectionString (from DATABASE_URL) when set; otherwise builds from individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LogString returns a safe string for logging (no password). Parses ConnectionString when set.
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			host := u.Hostname()
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			db := strings.TrimPrefix(u.Path, "/")
			return fmt.Sprintf("host=%s port=%s database=%s", host, port, db)
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

// loadDatabaseConfig loads database config from DATABASE_URL or DB_* env vars
func loadDatabaseConfig() DatabaseConfig {
	dbURL := getEnv("DATABASE_URL", "")
	if dbURL != "" {
		return DatabaseConfig{
			ConnectionString: dbURL,
			MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		}
	}
	return DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvAsInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "channel_engine"),
		Password:        getEnv("DB_PASSWORD", ""),
		Database:        getEnv("DB_NAME", "channel_engine"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 8080)
func getPort() int {
	if value := os.Getenv("PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	if value := os.Getenv("SERVER_PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	return 8080
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
