package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ethanan544-art/sniper-engine/internal/domain"
	"github.com/ethanan544-art/sniper-engine/internal/storage"
	"github.com/ethanan544-art/sniper-engine/internal/swapapi"
)

// WrappedSOLMint is the input side of every buy.
const WrappedSOLMint = domain.WrappedSOLMint

const lamportsPerSOL = 1_000_000_000

// ErrInsufficientFunds is returned when the wallet balance does not
// exceed the configured floor. No network calls are made in that case.
var ErrInsufficientFunds = errors.New("wallet balance below minimum")

// ErrNoTargetMint is returned when neither side of the pool identifies
// a token to buy with SOL.
var ErrNoTargetMint = errors.New("pool has no buyable token side")

// Signer signs swap transactions and reports the wallet state.
type Signer interface {
	PublicKey() string
	Balance(ctx context.Context) (uint64, error)
	SignTransaction(txBase64 string) (signedBase64, signature string, err error)
}

// SwapAPI prices and assembles swaps.
type SwapAPI interface {
	GetQuote(ctx context.Context, req swapapi.QuoteRequest) (*swapapi.Quote, error)
	BuildSwap(ctx context.Context, quote *swapapi.Quote, userPublicKey string) (string, error)
}

// Relay broadcasts signed transactions.
type Relay interface {
	Submit(ctx context.Context, txBase64 string) (string, error)
}

// Config holds executor tuning.
type Config struct {
	// BuyAmountSOL is the SOL spent per buy.
	BuyAmountSOL float64
	// SlippageBps is the tolerated slippage in basis points.
	SlippageBps int
	// MinBalanceUSD is the balance floor; the wallet must hold strictly
	// more than this for a buy to proceed.
	MinBalanceUSD float64
	// SOLPriceUSD converts the floor to lamports.
	SOLPriceUSD float64
}

// Executor performs a single buy per invocation: quote, build, sign,
// broadcast, record. It never retries; a failed buy is a failed buy and
// the decision to revisit the pool belongs to the caller.
type Executor struct {
	signer Signer
	swaps  SwapAPI
	relay  Relay
	trades storage.TradeStore
	logger *zap.Logger
	cfg    Config
}

// New creates a trade executor.
func New(signer Signer, swaps SwapAPI, relay Relay, trades storage.TradeStore, cfg Config, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		signer: signer,
		swaps:  swaps,
		relay:  relay,
		trades: trades,
		logger: logger,
		cfg:    cfg,
	}
}

// minBalanceLamports converts the USD floor into lamports.
func (e *Executor) minBalanceLamports() uint64 {
	if e.cfg.SOLPriceUSD <= 0 {
		return 0
	}
	sol := e.cfg.MinBalanceUSD / e.cfg.SOLPriceUSD
	return uint64(sol * lamportsPerSOL)
}

// Buy swaps the configured SOL amount into the pool's target mint and
// records the resulting trade. The recorded OutAmount is the quoted
// amount, an estimate of what lands after the swap settles.
func (e *Executor) Buy(ctx context.Context, pool *domain.Pool) (*domain.Trade, error) {
	targetMint := pool.TargetMint()
	if targetMint == "" {
		return nil, ErrNoTargetMint
	}

	balance, err := e.signer.Balance(ctx)
	if err != nil {
		return nil, fmt.Errorf("read wallet balance: %w", err)
	}

	// The balance must exceed the floor; equal is not enough.
	if floor := e.minBalanceLamports(); balance <= floor {
		e.logger.Warn("buy refused, balance at or below floor",
			zap.Uint64("balance", balance),
			zap.Uint64("floor", floor),
			zap.String("pool", pool.Address))
		return nil, ErrInsufficientFunds
	}

	inLamports := uint64(e.cfg.BuyAmountSOL * lamportsPerSOL)

	quote, err := e.swaps.GetQuote(ctx, swapapi.QuoteRequest{
		InputMint:   WrappedSOLMint,
		OutputMint:  targetMint,
		Amount:      inLamports,
		SlippageBps: e.cfg.SlippageBps,
	})
	if err != nil {
		return nil, fmt.Errorf("quote swap: %w", err)
	}

	unsignedTx, err := e.swaps.BuildSwap(ctx, quote, e.signer.PublicKey())
	if err != nil {
		return nil, fmt.Errorf("build swap: %w", err)
	}

	signedTx, _, err := e.signer.SignTransaction(unsignedTx)
	if err != nil {
		return nil, fmt.Errorf("sign swap: %w", err)
	}

	signature, err := e.relay.Submit(ctx, signedTx)
	if err != nil {
		return nil, fmt.Errorf("broadcast swap: %w", err)
	}

	trade := &domain.Trade{
		Signature:   signature,
		PoolAddress: pool.Address,
		OutputMint:  targetMint,
		InLamports:  inLamports,
		OutAmount:   quote.OutAmount,
		Status:      domain.TradeStatusExecuted,
		ExecutedAt:  time.Now().UnixMilli(),
	}

	if err := e.trades.Insert(ctx, trade); err != nil {
		// The trade is on chain; a persistence failure must not hide it.
		e.logger.Error("trade executed but not persisted",
			zap.String("signature", signature),
			zap.Error(err))
		return trade, fmt.Errorf("persist trade: %w", err)
	}

	e.logger.Info("buy executed",
		zap.String("pool", pool.Address),
		zap.String("mint", targetMint),
		zap.Uint64("in_lamports", inLamports),
		zap.Uint64("out_amount", quote.OutAmount),
		zap.String("signature", signature))

	return trade, nil
}
