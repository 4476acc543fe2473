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
	Database  DatabaseConfig
	Server    ServerConfig
	Auth      AuthConfig
	Lockout   LockoutConfig
	RateLimit RateLimitConfig
}

type DatabaseConfig struct {
	URL               string // DATABASE_URL; overrides the discrete fields when set
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
	CORSOrigin     string
	TrustedProxies []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
}

type AuthConfig struct {
	JWTSecret          string
	TokenExpiry        time.Duration
	BcryptCost         int
	FailureDelay       time.Duration
	FailureDelayJitter time.Duration
}

type LockoutConfig struct {
	MaxAttempts   int
	Window        time.Duration
	LockDuration  time.Duration
	SweepInterval time.Duration
}

type RateLimitConfig struct {
	RegisterLimit  int
	RegisterWindow time.Duration
	APILimit       int
	APIWindow      time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	env := getEnv("ENV", "development")

	cfg := &Config{
		Database: DatabaseConfig{
			URL:               getEnv("DATABASE_URL", ""),
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "skilltrack"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "5000"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			CORSOrigin:     getEnv("CORS_ORIGIN", "*"),
			TrustedProxies: getEnvAsList("TRUSTED_PROXIES"),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			RequestTimeout: getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 10*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret:          jwtSecret,
			TokenExpiry:        getEnvAsDuration("TOKEN_EXPIRY", 7*24*time.Hour),
			BcryptCost:         getEnvAsInt("BCRYPT_COST", 10),
			FailureDelay:       time.Duration(getEnvAsInt("AUTH_FAILURE_DELAY_MS", 0)) * time.Millisecond,
			FailureDelayJitter: time.Duration(getEnvAsInt("AUTH_FAILURE_JITTER_MS", 0)) * time.Millisecond,
		},
		Lockout: LockoutConfig{
			MaxAttempts:   getEnvAsInt("LOCKOUT_MAX_ATTEMPTS", 5),
			Window:        getEnvAsDuration("LOCKOUT_WINDOW", 15*time.Minute),
			LockDuration:  getEnvAsDuration("LOCKOUT_DURATION", 15*time.Minute),
			SweepInterval: getEnvAsDuration("LOCKOUT_SWEEP_INTERVAL", 5*time.Minute),
		},
		RateLimit: RateLimitConfig{
			RegisterLimit:  getEnvAsInt("REGISTER_RATE_LIMIT", 10),
			RegisterWindow: getEnvAsDuration("REGISTER_RATE_WINDOW", time.Hour),
			APILimit:       getEnvAsInt("API_RATE_LIMIT", 100),
			APIWindow:      getEnvAsDuration("API_RATE_WINDOW", 15*time.Minute),
		},
	}

	if cfg.Database.URL == "" && cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required when DATABASE_URL is not set")
	}

	// Validate JWT secret strength
	if err := validateJWTSecret(jwtSecret, env); err != nil {
		return nil, err
	}

	if err := cfg.Lockout.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateJWTSecret enforces minimum security standards for JWT secret
func validateJWTSecret(secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32
	}

	if len(secret) < minLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak || strings.Trim(secretLower, "0123456789!-_") == weak {
			return fmt.Errorf("JWT_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func (c *LockoutConfig) validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("LOCKOUT_MAX_ATTEMPTS must be at least 1 (got %d)", c.MaxAttempts)
	}
	if c.Window <= 0 {
		return fmt.Errorf("LOCKOUT_WINDOW must be positive (got %s)", c.Window)
	}
	if c.LockDuration <= 0 {
		return fmt.Errorf("LOCKOUT_DURATION must be positive (got %s)", c.LockDuration)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("LOCKOUT_SWEEP_INTERVAL must be positive (got %s)", c.SweepInterval)
	}
	return nil
}

// IsProduction reports whether the server runs with production settings
func (c *ServerConfig) IsProduction() bool {
	return c.Env == "production"
}

func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
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

func getEnvAsList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
