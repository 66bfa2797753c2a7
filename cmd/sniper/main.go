// Package main runs the pool sniper: a Solana program subscription feeds
// new pools into a pipeline that risk-scores them and buys the
// whitelisted survivors, with an HTTP dashboard for the operator.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ethanan544-art/sniper-engine/internal/broadcast"
	"github.com/ethanan544-art/sniper-engine/internal/config"
	"github.com/ethanan544-art/sniper-engine/internal/dashboard"
	"github.com/ethanan544-art/sniper-engine/internal/engine"
	"github.com/ethanan544-art/sniper-engine/internal/executor"
	"github.com/ethanan544-art/sniper-engine/internal/feed"
	"github.com/ethanan544-art/sniper-engine/internal/observability"
	"github.com/ethanan544-art/sniper-engine/internal/risk"
	"github.com/ethanan544-art/sniper-engine/internal/solana"
	"github.com/ethanan544-art/sniper-engine/internal/storage/clickhouse"
	"github.com/ethanan544-art/sniper-engine/internal/storage/memory"
	"github.com/ethanan544-art/sniper-engine/internal/storage/migrations"
	"github.com/ethanan544-art/sniper-engine/internal/storage/postgres"
	"github.com/ethanan544-art/sniper-engine/internal/swapapi"
	"github.com/ethanan544-art/sniper-engine/internal/wallet"
)

var cfgFile string

func main() {
	root := &cobra.Command{
		Use:   "sniper",
		Short: "Solana pool sniper: detect, score, and buy new liquidity pools",
		RunE:  run,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	flags := root.PersistentFlags()
	flags.String("rpc-endpoint", "", "Solana RPC HTTP endpoint")
	flags.String("ws-endpoint", "", "Solana WebSocket endpoint")
	flags.String("program-id", "", "AMM program ID to watch")
	flags.Int64("pool-account-size", 0, "pool state account size for the dataSize filter")
	flags.String("postgres-dsn", "", "PostgreSQL connection string")
	flags.String("clickhouse-dsn", "", "ClickHouse connection string for the pipeline ledger")
	flags.Bool("use-memory", false, "use in-memory stores instead of databases")
	flags.String("gemini-api-key", "", "Gemini API key for the risk oracle")
	flags.String("gemini-model", "", "Gemini model name")
	flags.String("wallet-secret", "", "base58 wallet secret key")
	flags.String("swap-api-url", "", "swap aggregator base URL")
	flags.Int("slippage-bps", 0, "slippage tolerance in basis points")
	flags.Float64("buy-amount-sol", 0, "SOL spent per buy")
	flags.String("relay-endpoints", "", "comma-separated relay endpoints in priority order")
	flags.Int("workers", 0, "max concurrent event handlers")
	flags.String("http-addr", "", "dashboard listen address")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.Bool("autostart", true, "start the pipeline immediately")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics("")

	// Storage
	stores, cleanup, err := buildStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	// Solana clients
	rpcClient := solana.NewHTTPClient(cfg.RPCEndpoint)

	wsClient, err := solana.NewWSClient(ctx, cfg.WSEndpoint, nil, logger)
	if err != nil {
		return fmt.Errorf("connect websocket: %w", err)
	}
	defer wsClient.Close()

	// Wallet
	w, err := wallet.New(cfg.WalletSecret, rpcClient)
	if err != nil {
		return fmt.Errorf("load wallet: %w", err)
	}
	logger.Info("wallet loaded", zap.String("address", w.PublicKey()))

	// Risk gate
	oracle, err := risk.NewGeminiOracle(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiMaxRequests)
	if err != nil {
		return fmt.Errorf("create risk oracle: %w", err)
	}
	gate := risk.NewGate(oracle, logger, risk.WithThreshold(cfg.RiskThreshold))

	// Execution chain
	swaps := swapapi.NewClient(cfg.SwapAPIURL)
	relay := broadcast.NewPriorityRelay(cfg.RelayEndpoints, rpcClient, logger,
		broadcast.WithEndpointTimeout(cfg.RelayTimeout),
		broadcast.WithPublicMaxRetries(cfg.PublicMaxRetries),
		broadcast.WithMetrics(metrics))
	exec := executor.New(w, swaps, relay, stores.Trades, executor.Config{
		BuyAmountSOL:  cfg.BuyAmountSOL,
		SlippageBps:   cfg.SlippageBps,
		MinBalanceUSD: cfg.MinBalanceUSD,
		SOLPriceUSD:   cfg.SOLPriceUSD,
	}, logger)

	// Feed and pipeline
	source := feed.NewSource(wsClient, rpcClient, cfg.ProgramID, cfg.PoolAccountSize, logger,
		feed.WithMetrics(metrics))
	pipeline := engine.New(source, gate, exec, w, stores, logger,
		engine.WithWorkers(cfg.Workers),
		engine.WithMetrics(metrics))

	autostart, _ := cmd.Flags().GetBool("autostart")
	if autostart {
		if err := pipeline.Start(ctx); err != nil {
			return fmt.Errorf("start pipeline: %w", err)
		}
	}

	// Dashboard
	server := dashboard.NewServer(pipeline, logger)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start(cfg.HTTPAddr)
	}()
	logger.Info("dashboard listening", zap.String("addr", cfg.HTTPAddr))

	// Graceful shutdown: first signal drains, second forces exit.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		logger.Error("dashboard server exited", zap.Error(err))
		pipeline.Stop()
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	done := make(chan struct{})
	go func() {
		pipeline.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("dashboard shutdown error", zap.Error(err))
		}
		close(done)
	}()

	select {
	case <-done:
		logger.Info("shutdown complete")
	case sig := <-sigCh:
		logger.Warn("second signal, forcing exit", zap.String("signal", sig.String()))
		os.Exit(1)
	case <-time.After(30 * time.Second):
		logger.Warn("graceful shutdown timed out, forcing exit")
		os.Exit(1)
	}

	return nil
}

// buildStores wires either in-memory stores or Postgres plus ClickHouse,
// running migrations on the way. The ledger degrades to memory when no
// ClickHouse DSN is configured.
func buildStores(ctx context.Context, cfg config.Config, logger *zap.Logger) (engine.Stores, func(), error) {
	if cfg.UseMemory {
		logger.Info("using in-memory stores")
		return engine.Stores{
			Pools:     memory.NewPoolStore(),
			Trades:    memory.NewTradeStore(),
			Whitelist: memory.NewWhitelistStore(),
			Ledger:    memory.NewLedgerStore(),
		}, func() {}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return engine.Stores{}, nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return engine.Stores{}, nil, fmt.Errorf("apply postgres migrations: %w", err)
	}

	stores := engine.Stores{
		Pools:     postgres.NewPoolStore(pool),
		Trades:    postgres.NewTradeStore(pool),
		Whitelist: postgres.NewWhitelistStore(pool),
	}

	cleanup := func() { pool.Close() }

	if cfg.ClickhouseDSN == "" {
		logger.Warn("no clickhouse dsn, pipeline ledger kept in memory")
		stores.Ledger = memory.NewLedgerStore()
		return stores, cleanup, nil
	}

	conn, err := clickhouse.NewConn(ctx, cfg.ClickhouseDSN)
	if err != nil {
		pool.Close()
		return engine.Stores{}, nil, fmt.Errorf("connect clickhouse: %w", err)
	}

	if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
		conn.Close()
		pool.Close()
		return engine.Stores{}, nil, fmt.Errorf("apply clickhouse migrations: %w", err)
	}

	stores.Ledger = clickhouse.NewLedgerStore(conn)

	return stores, func() {
		conn.Close()
		pool.Close()
	}, nil
}

// newLogger builds a production zap logger at the requested level.
func newLogger(level string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
