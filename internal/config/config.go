// Package config loads runtime configuration from flags, environment
// variables, and an optional config file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	// Solana endpoints
	RPCEndpoint string
	WSEndpoint  string

	// Pool feed
	ProgramID       string
	PoolAccountSize int64

	// Storage
	PostgresDSN   string
	ClickhouseDSN string
	UseMemory     bool

	// Risk gate
	GeminiAPIKey      string
	GeminiModel       string
	GeminiMaxRequests int
	RiskThreshold     int

	// Execution
	WalletSecret     string
	SwapAPIURL       string
	SlippageBps      int
	BuyAmountSOL     float64
	MinBalanceUSD    float64
	SOLPriceUSD      float64
	RelayEndpoints   []string
	RelayTimeout     time.Duration
	PublicMaxRetries int

	// Engine
	Workers int

	// HTTP
	HTTPAddr string

	// Logging
	LogLevel string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SNIPER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("rpc-endpoint", "https://api.mainnet-beta.solana.com")
	v.SetDefault("ws-endpoint", "wss://api.mainnet-beta.solana.com")
	v.SetDefault("pool-account-size", int64(752))
	v.SetDefault("use-memory", false)
	v.SetDefault("gemini-model", "gemini-2.0-flash")
	v.SetDefault("gemini-max-requests", 10)
	v.SetDefault("risk-threshold", 70)
	v.SetDefault("swap-api-url", "https://quote-api.jup.ag/v6")
	v.SetDefault("slippage-bps", 300)
	v.SetDefault("buy-amount-sol", 0.1)
	v.SetDefault("min-balance-usd", 20.0)
	v.SetDefault("sol-price-usd", 200.0)
	v.SetDefault("relay-timeout", 5*time.Second)
	v.SetDefault("public-max-retries", 3)
	v.SetDefault("workers", 8)
	v.SetDefault("http-addr", ":8080")
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCEndpoint:       v.GetString("rpc-endpoint"),
		WSEndpoint:        v.GetString("ws-endpoint"),
		ProgramID:         v.GetString("program-id"),
		PoolAccountSize:   v.GetInt64("pool-account-size"),
		PostgresDSN:       v.GetString("postgres-dsn"),
		ClickhouseDSN:     v.GetString("clickhouse-dsn"),
		UseMemory:         v.GetBool("use-memory"),
		GeminiAPIKey:      v.GetString("gemini-api-key"),
		GeminiModel:       v.GetString("gemini-model"),
		GeminiMaxRequests: v.GetInt("gemini-max-requests"),
		RiskThreshold:     v.GetInt("risk-threshold"),
		WalletSecret:      v.GetString("wallet-secret"),
		SwapAPIURL:        v.GetString("swap-api-url"),
		SlippageBps:       v.GetInt("slippage-bps"),
		BuyAmountSOL:      v.GetFloat64("buy-amount-sol"),
		MinBalanceUSD:     v.GetFloat64("min-balance-usd"),
		SOLPriceUSD:       v.GetFloat64("sol-price-usd"),
		RelayEndpoints:    getStringSlice(v, "relay-endpoints"),
		RelayTimeout:      v.GetDuration("relay-timeout"),
		PublicMaxRetries:  v.GetInt("public-max-retries"),
		Workers:           v.GetInt("workers"),
		HTTPAddr:          v.GetString("http-addr"),
		LogLevel:          v.GetString("log-level"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// validate rejects configurations the pipeline cannot run with.
func (c Config) validate() error {
	if c.ProgramID == "" {
		return fmt.Errorf("program-id is required")
	}
	if c.WalletSecret == "" {
		return fmt.Errorf("wallet-secret is required")
	}
	if !c.UseMemory {
		if c.PostgresDSN == "" {
			return fmt.Errorf("postgres-dsn is required unless use-memory is set")
		}
	}
	if c.BuyAmountSOL <= 0 {
		return fmt.Errorf("buy-amount-sol must be positive")
	}
	if c.RiskThreshold < 0 || c.RiskThreshold > 100 {
		return fmt.Errorf("risk-threshold must be in [0, 100]")
	}
	return nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
