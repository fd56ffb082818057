package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported values for DB_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Supported values for FETCH_STRATEGY.
const (
	FetchStrategyFull = "full"
	FetchStrategyGap  = "gap"
)

// Config holds application configuration.
type Config struct {
	Port          string
	IsProduction  bool
	EnableDBCheck bool

	// Storage
	DBDriver       string
	DatabaseURL    string
	SQLitePath     string
	MigrationsPath string

	// Upstream provider
	RateProviderBaseURL string
	RateProviderTimeout time.Duration

	// Query handling
	SupportedCurrencies map[string]string
	DefaultBase         string
	DefaultSymbols      []string
	MaxRangeDays        int
	StartToleranceDays  int
	FetchStrategy       string

	// HTTP surface
	CORSAllowedOrigins []string
	RateLimit          string
	RateLimitRedisURL  string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("ENABLE_DB_CHECK", false)
	v.SetDefault("DB_DRIVER", DriverSQLite)
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("SQLITE_PATH", "fxrates.db")
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("RATE_PROVIDER_BASE_URL", "https://api.frankfurter.dev/v1")
	v.SetDefault("RATE_PROVIDER_TIMEOUT", "10s")
	v.SetDefault("SUPPORTED_CURRENCIES", "EUR:Euro,USD:US Dollar,CAD:Canadian Dollar")
	v.SetDefault("DEFAULT_BASE", "EUR")
	v.SetDefault("DEFAULT_SYMBOLS", "USD,CAD")
	v.SetDefault("MAX_RANGE_DAYS", 730)
	v.SetDefault("START_TOLERANCE_DAYS", 3)
	v.SetDefault("FETCH_STRATEGY", FetchStrategyFull)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")
	v.SetDefault("RATE_LIMIT", "60-M")
	v.SetDefault("RATE_LIMIT_REDIS_URL", "")
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:                v.GetString("PORT"),
		IsProduction:        v.GetBool("IS_PRODUCTION"),
		EnableDBCheck:       v.GetBool("ENABLE_DB_CHECK"),
		DBDriver:            strings.ToLower(strings.TrimSpace(v.GetString("DB_DRIVER"))),
		DatabaseURL:         v.GetString("PGSQL_URL"),
		SQLitePath:          v.GetString("SQLITE_PATH"),
		MigrationsPath:      v.GetString("MIGRATIONS_PATH"),
		RateProviderBaseURL: strings.TrimRight(v.GetString("RATE_PROVIDER_BASE_URL"), "/"),
		DefaultBase:         strings.ToUpper(strings.TrimSpace(v.GetString("DEFAULT_BASE"))),
		DefaultSymbols:      SplitCodes(v.GetString("DEFAULT_SYMBOLS")),
		MaxRangeDays:        v.GetInt("MAX_RANGE_DAYS"),
		StartToleranceDays:  v.GetInt("START_TOLERANCE_DAYS"),
		FetchStrategy:       strings.ToLower(strings.TrimSpace(v.GetString("FETCH_STRATEGY"))),
		CORSAllowedOrigins:  splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		RateLimit:           v.GetString("RATE_LIMIT"),
		RateLimitRedisURL:   v.GetString("RATE_LIMIT_REDIS_URL"),
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
		slog.Warn("PORT environment variable not set. Using default", "port", cfg.Port)
	}

	timeout, err := time.ParseDuration(v.GetString("RATE_PROVIDER_TIMEOUT"))
	if err != nil || timeout <= 0 {
		return nil, fmt.Errorf("invalid RATE_PROVIDER_TIMEOUT %q", v.GetString("RATE_PROVIDER_TIMEOUT"))
	}
	cfg.RateProviderTimeout = timeout

	switch cfg.DBDriver {
	case DriverSQLite:
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("SQLITE_PATH must be set when DB_DRIVER=%s", DriverSQLite)
		}
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("PGSQL_URL must be set when DB_DRIVER=%s", DriverPostgres)
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	switch cfg.FetchStrategy {
	case FetchStrategyFull, FetchStrategyGap:
	default:
		return nil, fmt.Errorf("unsupported FETCH_STRATEGY %q", cfg.FetchStrategy)
	}

	if cfg.MaxRangeDays <= 0 {
		return nil, fmt.Errorf("MAX_RANGE_DAYS must be positive, got %d", cfg.MaxRangeDays)
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return nil, fmt.Errorf("CORS_ALLOWED_ORIGINS must list at least one origin (or \"*\")")
	}
	if cfg.StartToleranceDays < 0 {
		return nil, fmt.Errorf("START_TOLERANCE_DAYS must not be negative, got %d", cfg.StartToleranceDays)
	}

	cfg.SupportedCurrencies, err = ParseCurrencies(v.GetString("SUPPORTED_CURRENCIES"))
	if err != nil {
		return nil, err
	}
	if _, ok := cfg.SupportedCurrencies[cfg.DefaultBase]; !ok {
		return nil, fmt.Errorf("DEFAULT_BASE %q is not a supported currency", cfg.DefaultBase)
	}
	for _, code := range cfg.DefaultSymbols {
		if _, ok := cfg.SupportedCurrencies[code]; !ok {
			return nil, fmt.Errorf("DEFAULT_SYMBOLS entry %q is not a supported currency", code)
		}
	}

	return cfg, nil
}

// ParseCurrencies parses "EUR:Euro,USD:US Dollar" into a code -> name map.
// Codes are upper-cased; a missing name falls back to the code.
func ParseCurrencies(raw string) (map[string]string, error) {
	currencies := make(map[string]string)
	for _, entry := range splitList(raw) {
		code, name, _ := strings.Cut(entry, ":")
		code = strings.ToUpper(strings.TrimSpace(code))
		name = strings.TrimSpace(name)
		if len(code) != 3 {
			return nil, fmt.Errorf("invalid currency code %q in SUPPORTED_CURRENCIES", code)
		}
		if name == "" {
			name = code
		}
		currencies[code] = name
	}
	if len(currencies) == 0 {
		return nil, fmt.Errorf("SUPPORTED_CURRENCIES must list at least one currency")
	}
	return currencies, nil
}

// SplitCodes splits a comma-separated list of currency codes, upper-casing
// each entry and dropping blanks and repeats while keeping first-seen order.
func SplitCodes(raw string) []string {
	parts := splitList(raw)
	codes := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		code := strings.ToUpper(p)
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	return codes
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
