package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Operator  OperatorConfig
	Indodax   IndodaxConfig
	Trading   TradingConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Host string
	Port string
	Env  string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Prefix   string
}

// JWTConfig holds JWT token configuration
type JWTConfig struct {
	Secret            string
	AccessTokenExpire time.Duration
}

// OperatorConfig holds the single operator account of the API
type OperatorConfig struct {
	Username     string
	PasswordHash string
}

// IndodaxConfig holds Indodax API configuration
type IndodaxConfig struct {
	APIURL               string
	APIKey               string
	APISecret            string
	PrivateRatePerSecond float64
	OrderRetries         int
}

// TradingConfig holds the scouting parameters
type TradingConfig struct {
	Bridge               string
	SupportedCoins       []string
	TransactionFee       float64
	ScoutMultiplier      float64
	ScoutInterval        time.Duration
	ValueInterval        time.Duration
	PaperTrading         bool
	PaperInitialBridge   float64
	ScoutHistoryMaxItems int64
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute     int
	AuthRequestsPerMinute int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
}

// coinListFile is the YAML layout accepted by COIN_LIST_FILE
type coinListFile struct {
	Coins []string `yaml:"coins"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("SERVER_ENV", "development"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Prefix:   getEnv("REDIS_PREFIX", "bridgebot"),
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", ""),
			AccessTokenExpire: time.Duration(getEnvAsInt("JWT_ACCESS_TOKEN_EXPIRE_MINUTES", 60)) * time.Minute,
		},
		Operator: OperatorConfig{
			Username:     getEnv("OPERATOR_USERNAME", "operator"),
			PasswordHash: getEnv("OPERATOR_PASSWORD_HASH", ""),
		},
		Indodax: IndodaxConfig{
			APIURL:               getEnv("INDODAX_API_URL", "https://indodax.com"),
			APIKey:               getEnv("INDODAX_API_KEY", ""),
			APISecret:            getEnv("INDODAX_API_SECRET", ""),
			PrivateRatePerSecond: getEnvAsFloat("INDODAX_PRIVATE_RATE_PER_SECOND", 3),
			OrderRetries:         getEnvAsInt("INDODAX_ORDER_RETRIES", 3),
		},
		Trading: TradingConfig{
			Bridge:               strings.ToLower(getEnv("BRIDGE", "idr")),
			SupportedCoins:       normalizeCoins(getEnvAsSlice("SUPPORTED_COINS", nil, ",")),
			TransactionFee:       getEnvAsFloat("SCOUT_TRANSACTION_FEE", 0.003),
			ScoutMultiplier:      getEnvAsFloat("SCOUT_MULTIPLIER", 5),
			ScoutInterval:        time.Duration(getEnvAsInt("SCOUT_SLEEP_SECONDS", 5)) * time.Second,
			ValueInterval:        time.Duration(getEnvAsInt("VALUE_SNAPSHOT_MINUTES", 1)) * time.Minute,
			PaperTrading:         getEnvAsBool("PAPER_TRADING", true),
			PaperInitialBridge:   getEnvAsFloat("PAPER_INITIAL_BRIDGE", 10000000),
			ScoutHistoryMaxItems: int64(getEnvAsInt("SCOUT_HISTORY_MAX_ITEMS", 50000)),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}, ","),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute:     getEnvAsInt("RATE_LIMIT_REQUESTS_PER_MINUTE", 120),
			AuthRequestsPerMinute: getEnvAsInt("RATE_LIMIT_AUTH_REQUESTS_PER_MINUTE", 5),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if path := getEnv("COIN_LIST_FILE", ""); path != "" {
		coins, err := LoadCoinList(path)
		if err != nil {
			return nil, err
		}
		cfg.Trading.SupportedCoins = coins
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks required fields and trading parameter ranges
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.Operator.PasswordHash == "" {
		return fmt.Errorf("OPERATOR_PASSWORD_HASH is required")
	}

	t := c.Trading
	if t.Bridge == "" {
		return fmt.Errorf("BRIDGE is required")
	}
	if len(t.SupportedCoins) == 0 {
		return fmt.Errorf("SUPPORTED_COINS or COIN_LIST_FILE must list at least one coin")
	}
	for _, coin := range t.SupportedCoins {
		if coin == t.Bridge {
			return fmt.Errorf("bridge %s cannot be a supported coin", t.Bridge)
		}
	}
	if t.TransactionFee < 0 || t.TransactionFee >= 1 {
		return fmt.Errorf("SCOUT_TRANSACTION_FEE must be in [0, 1)")
	}
	if t.ScoutMultiplier <= 0 {
		return fmt.Errorf("SCOUT_MULTIPLIER must be positive")
	}
	if t.ScoutInterval <= 0 {
		return fmt.Errorf("SCOUT_SLEEP_SECONDS must be positive")
	}

	if !t.PaperTrading && (c.Indodax.APIKey == "" || c.Indodax.APISecret == "") {
		return fmt.Errorf("INDODAX_API_KEY and INDODAX_API_SECRET are required for live trading")
	}

	return nil
}

// LoadCoinList reads the coin universe from a YAML file
func LoadCoinList(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read coin list: %w", err)
	}

	var f coinListFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse coin list: %w", err)
	}

	return normalizeCoins(f.Coins), nil
}

// Address returns the full server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsProduction returns true if running in production mode
func (c *ServerConfig) IsProduction() bool {
	return c.Env == "production"
}

// normalizeCoins lowercases, trims and de-duplicates symbols, keeping order
func normalizeCoins(coins []string) []string {
	seen := make(map[string]bool, len(coins))
	out := make([]string, 0, len(coins))
	for _, c := range coins {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// Helper functions

func getEnv(key string, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string, separator string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, separator)
}
