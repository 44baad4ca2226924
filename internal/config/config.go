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
	Database DatabaseConfig
	Server   ServerConfig
	Gate     GateConfig
	Engine   EngineConfig
	Notifier NotifierConfig
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	TrustedProxies []string
}

// GateConfig holds the knobs of the token verification flow.
type GateConfig struct {
	GrantSecret      string
	GrantExpiry      time.Duration
	ChallengeTTL     time.Duration
	RateLimitWindow  time.Duration
	MaxFailedPerPair int
	CleanupInterval  time.Duration
	AdminKeyHash     string
}

// EngineConfig points at the external generative-AI analysis service.
type EngineConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// NotifierConfig configures the report email notifier.
type NotifierConfig struct {
	AWSRegion   string
	FromAddress string
	ToAddress   string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	grantSecret := getEnv("GRANT_SECRET", "")
	if grantSecret == "" {
		return nil, fmt.Errorf("GRANT_SECRET is required")
	}

	env := getEnv("ENV", "development")

	cfg := &Config{
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "grafogate"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			TrustedProxies: parseTrustedProxies(),
		},
		Gate: GateConfig{
			GrantSecret:      grantSecret,
			GrantExpiry:      getEnvAsDuration("GRANT_EXPIRY", 10*time.Minute),
			ChallengeTTL:     getEnvAsDuration("CHALLENGE_TTL", 2*time.Minute),
			RateLimitWindow:  getEnvAsDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
			MaxFailedPerPair: getEnvAsInt("RATE_LIMIT_MAX_FAILED", 5),
			CleanupInterval:  getEnvAsDuration("CLEANUP_INTERVAL", 1*time.Hour),
			AdminKeyHash:     getEnv("ADMIN_KEY_HASH", ""),
		},
		Engine: EngineConfig{
			BaseURL: getEnv("ENGINE_BASE_URL", "https://generativelanguage.googleapis.com"),
			APIKey:  getEnv("ENGINE_API_KEY", ""),
			Model:   getEnv("ENGINE_MODEL", "gemini-1.5-flash"),
			Timeout: getEnvAsDuration("ENGINE_TIMEOUT", 60*time.Second),
		},
		Notifier: NotifierConfig{
			AWSRegion:   getEnv("AWS_REGION", "us-east-1"),
			FromAddress: getEnv("NOTIFY_FROM_ADDRESS", ""),
			ToAddress:   getEnv("NOTIFY_TO_ADDRESS", ""),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	if err := validateGrantSecret(grantSecret, env); err != nil {
		return nil, err
	}

	if env == "production" && cfg.Gate.AdminKeyHash == "" {
		return nil, fmt.Errorf("ADMIN_KEY_HASH is required in production")
	}

	return cfg, nil
}

// validateGrantSecret enforces minimum strength for the grant signing secret
func validateGrantSecret(secret, env string) error {
	minLength := 16 // Development minimum
	if env == "production" {
		minLength = 32 // Production requires 256 bits
	}

	if len(secret) < minLength {
		return fmt.Errorf("GRANT_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("GRANT_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func parseTrustedProxies() []string {
	proxiesStr := getEnv("TRUSTED_PROXIES", "")
	if proxiesStr == "" {
		return nil
	}
	proxies := strings.Split(proxiesStr, ",")
	for i, p := range proxies {
		proxies[i] = strings.TrimSpace(p)
	}
	return proxies
}
