package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("program-id", "ammprogram", "")
	flags.String("wallet-secret", "secret", "")
	flags.Bool("use-memory", true, "")
	return flags
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", baseFlags())
	require.NoError(t, err)

	assert.Equal(t, "https://api.mainnet-beta.solana.com", cfg.RPCEndpoint)
	assert.Equal(t, int64(752), cfg.PoolAccountSize)
	assert.Equal(t, 70, cfg.RiskThreshold)
	assert.Equal(t, 300, cfg.SlippageBps)
	assert.Equal(t, 0.1, cfg.BuyAmountSOL)
	assert.Equal(t, 5*time.Second, cfg.RelayTimeout)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_MissingProgramID(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("wallet-secret", "secret", "")
	flags.Bool("use-memory", true, "")

	_, err := Load("", flags)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "program-id")
}

func TestLoad_MissingWalletSecret(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("program-id", "ammprogram", "")
	flags.Bool("use-memory", true, "")

	_, err := Load("", flags)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wallet-secret")
}

func TestLoad_PostgresRequiredWithoutMemory(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("program-id", "ammprogram", "")
	flags.String("wallet-secret", "secret", "")

	_, err := Load("", flags)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres-dsn")
}

func TestLoad_RelayEndpointsFromCommaSeparated(t *testing.T) {
	flags := baseFlags()
	flags.String("relay-endpoints", "https://relay1.example, https://relay2.example", "")

	cfg, err := Load("", flags)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://relay1.example", "https://relay2.example"}, cfg.RelayEndpoints)
}

func TestLoad_InvalidThreshold(t *testing.T) {
	flags := baseFlags()
	flags.Int("risk-threshold", 150, "")

	_, err := Load("", flags)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "risk-threshold")
}
