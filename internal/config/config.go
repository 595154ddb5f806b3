package config

import (
	"errors"  // Validation errors
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"strings" // Strategy normalisation
	"time"    // Durations

	"github.com/go-sql-driver/mysql" // DSN builder
	"github.com/joho/godotenv"       // For loading .env files
)

// Supported authentication strategies
const (
	StrategyToken   = "token"
	StrategySession = "session"
)

// Config holds the application configuration
type Config struct {
	AppPort    string // Application port
	DBUser     string // Database user
	DBPassword string // Database password
	DBHost     string // Database host
	DBPort     string // Database port
	DBName     string // Database name
	JWTSecret  string // JWT secret key
	JWTExpires time.Duration
	RedisAddr  string // Redis server address
	RedisPass  string // Redis password
	RedisDB    int    // Redis database number
	IsProd     bool   // Is production environment
	LogLevel   string

	AuthStrategy           string        // "token" or "session"
	SessionName            string        // Cookie name
	SessionMaxAge          time.Duration // Cookie max age
	SessionStoreTTL        time.Duration // Idle TTL of a stored session
	SessionAbsoluteTimeout time.Duration // Hard cap on a session's lifetime
	SessionSweepInterval   time.Duration // How often expired sessions are purged

	MinTransferAmount int64         // Smallest transfer accepted, in minor units
	TransferTimeout   time.Duration // Upper bound on a transfer transaction
	CacheTTL          time.Duration // Response cache TTL
	BcryptCost        int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	return &Config{
		AppPort:    getEnv("APP_PORT", "8080"),     // Application port
		DBUser:     os.Getenv("DB_USER"),           // Database user
		DBPassword: os.Getenv("DB_PASSWORD"),       // Database password
		DBHost:     getEnv("DB_HOST", "127.0.0.1"), // Database host
		DBPort:     getEnv("DB_PORT", "3306"),      // Database port
		DBName:     os.Getenv("DB_NAME"),           // Database name
		JWTSecret:  os.Getenv("JWT_SECRET"),        // JWT secret key
		JWTExpires: getDuration("JWT_EXPIRES", time.Hour),
		RedisAddr:  getEnv("REDIS_ADDR", "127.0.0.1:6379"), // Redis server address
		RedisPass:  os.Getenv("REDIS_PASS"),                // Redis password
		RedisDB:    getInt("REDIS_DB", 0),                  // Redis database number
		IsProd:     os.Getenv("IS_PROD") == "true",         // Is production environment
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		AuthStrategy:           strings.ToLower(getEnv("AUTH_STRATEGY", StrategyToken)),
		SessionName:            getEnv("SESSION_NAME", "figo.sid"),
		SessionMaxAge:          getDuration("SESSION_COOKIE_MAX_AGE", 24*time.Hour),
		SessionStoreTTL:        getDuration("SESSION_STORE_TTL", 30*time.Minute),
		SessionAbsoluteTimeout: getDuration("SESSION_ABSOLUTE_TIMEOUT", 24*time.Hour),
		SessionSweepInterval:   getDuration("SESSION_SWEEP_INTERVAL", time.Minute),

		MinTransferAmount: int64(getInt("MIN_TRANSFER_AMOUNT", 100)),
		TransferTimeout:   getDuration("TRANSFER_TIMEOUT", 5*time.Second),
		CacheTTL:          getDuration("CACHE_TTL", 60*time.Second),
		BcryptCost:        getInt("BCRYPT_COST", 12),
	}
}

// Validate reports configuration the server cannot start with
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" && c.AuthStrategy == StrategyToken {
		errs = append(errs, errors.New("JWT_SECRET is required for the token strategy"))
	}
	if c.AuthStrategy != StrategyToken && c.AuthStrategy != StrategySession {
		errs = append(errs, errors.New("AUTH_STRATEGY must be \"token\" or \"session\""))
	}
	if c.SessionMaxAge <= 0 || c.SessionAbsoluteTimeout <= 0 {
		errs = append(errs, errors.New("session lifetimes must be positive"))
	}
	if c.MinTransferAmount <= 0 {
		errs = append(errs, errors.New("MIN_TRANSFER_AMOUNT must be positive"))
	}
	if c.TransferTimeout <= 0 {
		errs = append(errs, errors.New("TRANSFER_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// DSN builds the MySQL data source name
func (c *Config) DSN() string {
	mc := mysql.NewConfig()
	mc.User = c.DBUser
	mc.Passwd = c.DBPassword
	mc.Net = "tcp"
	mc.Addr = c.DBHost + ":" + c.DBPort
	mc.DBName = c.DBName
	mc.ParseTime = true // Scan DATETIME into time.Time
	return mc.FormatDSN()
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

// getDuration accepts Go durations ("90s") or bare milliseconds ("90000")
func getDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
