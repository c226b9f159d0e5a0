package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	CORS     CORSConfig
	Log      LogConfig
	Engine   EngineConfig
	Price    PriceConfig
	Wallet   WalletConfig
	Security SecurityConfig
	Redis    RedisConfig
	Sources  SourcesFile
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Pretty bool
}

// EngineConfig holds accounting and sampling configuration
type EngineConfig struct {
	Currency           string
	StartingBalance    float64
	Location           *time.Location
	SampleSchedule     string // cron spec
	HistoryDisplayDays int
	SyncLimit          int // transactions pulled per exchange per sync
}

// PriceConfig holds price oracle configuration
type PriceConfig struct {
	BaseURL string
	RPS     float64
	Timeout time.Duration
}

// WalletConfig holds the on-chain wallet configuration
type WalletConfig struct {
	Address string
	RPCURL  string
}

// SecurityConfig holds secrets used by the service
type SecurityConfig struct {
	CredentialKey  string // fernet key for exchange credentials
	InternalAPIKey string
}

// RedisConfig holds the optional Redis connection for the price cache
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// SourcesFile is the optional YAML file describing wallet tokens, price ids
// and simulated exchanges.
type SourcesFile struct {
	NativeSymbol string            `yaml:"native_symbol"`
	Tokens       []TokenConfig     `yaml:"tokens"`
	PriceIDs     map[string]string `yaml:"price_ids"`
	Simulated    []SimulatedConfig `yaml:"simulated"`
}

// TokenConfig describes one ERC-20 token read from the wallet.
type TokenConfig struct {
	Symbol   string `yaml:"symbol"`
	Contract string `yaml:"contract"`
	Decimals int32  `yaml:"decimals"`
}

// SimulatedConfig describes a simulated exchange registered at startup.
type SimulatedConfig struct {
	Name     string             `yaml:"name"`
	Balances map[string]float64 `yaml:"balances"`
	Prices   map[string]float64 `yaml:"prices"`
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/pnl_tracker.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost")),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Engine: EngineConfig{
			Currency:       strings.ToUpper(getEnv("DISPLAY_CURRENCY", "USD")),
			SampleSchedule: getEnv("SAMPLE_SCHEDULE", "@every 30s"),
		},
		Price: PriceConfig{
			BaseURL: getEnv("PRICE_API_URL", "https://api.coingecko.com/api/v3"),
		},
		Wallet: WalletConfig{
			Address: getEnv("WALLET_ADDRESS", ""),
			RPCURL:  getEnv("WALLET_RPC_URL", "https://mainnet.base.org"),
		},
		Security: SecurityConfig{
			CredentialKey:  getEnv("CREDENTIAL_KEY", ""),
			InternalAPIKey: getEnv("INTERNAL_API_KEY", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
	}

	var err error
	if config.Log.Pretty, err = getBool("LOG_PRETTY", false); err != nil {
		return nil, err
	}
	if config.Engine.StartingBalance, err = getFloat("STARTING_BALANCE", 0); err != nil {
		return nil, err
	}
	if config.Engine.HistoryDisplayDays, err = getInt("HISTORY_DISPLAY_DAYS", 30); err != nil {
		return nil, err
	}
	if config.Engine.SyncLimit, err = getInt("SYNC_LIMIT", 100); err != nil {
		return nil, err
	}
	if config.Price.RPS, err = getFloat("PRICE_RPS", 0.5); err != nil {
		return nil, err
	}
	if config.Redis.DB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	timeoutSec, err := getInt("PRICE_TIMEOUT_SECONDS", 10)
	if err != nil {
		return nil, err
	}
	config.Price.Timeout = time.Duration(timeoutSec) * time.Second

	config.Engine.Location, err = loadLocation(getEnv("TIMEZONE", "Local"))
	if err != nil {
		return nil, err
	}

	if path := getEnv("SOURCES_FILE", ""); path != "" {
		sources, err := LoadSourcesFile(path)
		if err != nil {
			return nil, err
		}
		config.Sources = sources
	}
	if config.Sources.NativeSymbol == "" {
		config.Sources.NativeSymbol = "ETH"
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// LoadSourcesFile reads the YAML sources file at path.
func LoadSourcesFile(path string) (SourcesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SourcesFile{}, fmt.Errorf("failed to read sources file: %w", err)
	}

	var sources SourcesFile
	if err := yaml.Unmarshal(data, &sources); err != nil {
		return SourcesFile{}, fmt.Errorf("failed to parse sources file: %w", err)
	}
	for i, t := range sources.Tokens {
		if t.Symbol == "" || t.Contract == "" {
			return SourcesFile{}, fmt.Errorf("sources file: token %d needs symbol and contract", i)
		}
		sources.Tokens[i].Symbol = strings.ToUpper(t.Symbol)
	}
	return sources, nil
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", name, err)
	}
	return loc, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return f, nil
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return i, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return b, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
