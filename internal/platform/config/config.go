package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL        string
	Port               string
	IsProduction       bool
	EnableDBCheck      bool
	JWTSecret          string
	JWTIssuer          string
	RateLimit          string // ulule/limiter format, e.g. "100-M"
	CORSAllowedOrigins []string
	MigrationsPath     string
	PosthogAPIKey      string
	PosthogEndpoint    string

	// Ledger settings
	DefaultCreator   string            // Recorded as creator of backfilled movements whose source has none
	ReconcileTimeout time.Duration     // Upper bound for one reconciliation run
	MethodAccounts   map[string]string `mapstructure:"method_accounts"` // Payment method -> account name overrides
}

const (
	defaultJWTSecret        = "a-very-secret-key-should-be-longer-and-random"
	defaultReconcileTimeout = 10 * time.Minute
)

// LoadConfig loads configuration from environment variables and .env file if present.
// Payment-method overrides are read from the YAML file named by LEDGER_CONFIG_FILE, when set.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("JWT_ISSUER", "cash-ledger")
	viper.SetDefault("RATE_LIMIT", "300-M")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("MIGRATIONS_PATH", "file://migrations")
	viper.SetDefault("POSTHOG_API_KEY", "")
	viper.SetDefault("POSTHOG_ENDPOINT", "https://eu.i.posthog.com")
	viper.SetDefault("LEDGER_DEFAULT_CREATOR", "system")
	viper.SetDefault("RECONCILE_TIMEOUT", defaultReconcileTimeout.String())
	viper.SetDefault("LEDGER_CONFIG_FILE", "")

	viper.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:     viper.GetString("PGSQL_URL"),
		Port:            viper.GetString("PORT"),
		IsProduction:    viper.GetBool("IS_PRODUCTION"),
		EnableDBCheck:   viper.GetBool("ENABLE_DB_CHECK"),
		JWTSecret:       viper.GetString("JWT_SECRET"),
		JWTIssuer:       viper.GetString("JWT_ISSUER"),
		RateLimit:       viper.GetString("RATE_LIMIT"),
		MigrationsPath:  viper.GetString("MIGRATIONS_PATH"),
		PosthogAPIKey:   viper.GetString("POSTHOG_API_KEY"),
		PosthogEndpoint: viper.GetString("POSTHOG_ENDPOINT"),
		DefaultCreator:  viper.GetString("LEDGER_DEFAULT_CREATOR"),
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	if cfg.JWTSecret == "" || cfg.JWTSecret == defaultJWTSecret {
		cfg.JWTSecret = defaultJWTSecret // !! CHANGE IN PRODUCTION !!
		if cfg.IsProduction {
			return nil, errors.New("JWT_SECRET must be set in production")
		}
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	for _, origin := range strings.Split(viper.GetString("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	timeoutStr := viper.GetString("RECONCILE_TIMEOUT")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil || timeout <= 0 {
		timeout = defaultReconcileTimeout
		log.Printf("Warning: Invalid value for RECONCILE_TIMEOUT ('%s'). Defaulting to %s.\n", timeoutStr, timeout)
	}
	cfg.ReconcileTimeout = timeout

	if path := viper.GetString("LEDGER_CONFIG_FILE"); path != "" {
		methods, err := loadMethodAccounts(path)
		if err != nil {
			return nil, err
		}
		cfg.MethodAccounts = methods
	}

	return cfg, nil
}

// loadMethodAccounts reads the method_accounts table of a ledger config file.
func loadMethodAccounts(path string) (map[string]string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("ledger config file %s: %w", path, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read ledger config file %s: %w", path, err)
	}

	var fileCfg struct {
		MethodAccounts map[string]string `mapstructure:"method_accounts"`
	}
	if err := v.Unmarshal(&fileCfg); err != nil {
		return nil, fmt.Errorf("failed to parse ledger config file %s: %w", path, err)
	}
	return fileCfg.MethodAccounts, nil
}
