// Package engine drives the acquisition pipeline: consume pool events,
// score them, and buy the ones that pass both the risk gate and the
// operator whitelist.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ethanan544-art/sniper-engine/internal/broadcast"
	"github.com/ethanan544-art/sniper-engine/internal/domain"
	"github.com/ethanan544-art/sniper-engine/internal/executor"
	"github.com/ethanan544-art/sniper-engine/internal/observability"
	"github.com/ethanan544-art/sniper-engine/internal/storage"
)

// ErrAlreadyRunning is returned by Start when the pipeline is active.
var ErrAlreadyRunning = errors.New("pipeline already running")

// DefaultWorkers caps concurrent event handlers.
const DefaultWorkers = 8

// Source emits new pool events.
type Source interface {
	Subscribe(ctx context.Context) (<-chan domain.PoolCreated, error)
}

// Gate scores a token. The verdict is always usable; oracle failures
// surface as failing verdicts, not errors.
type Gate interface {
	Analyze(ctx context.Context, mint string) domain.RiskVerdict
}

// Buyer executes a single buy for a pool.
type Buyer interface {
	Buy(ctx context.Context, pool *domain.Pool) (*domain.Trade, error)
}

// BalanceSource reports the trading wallet balance.
type BalanceSource interface {
	Balance(ctx context.Context) (uint64, error)
}

// Stores bundles the persistence dependencies of the pipeline.
type Stores struct {
	Pools     storage.PoolStore
	Trades    storage.TradeStore
	Whitelist storage.WhitelistStore
	Ledger    storage.LedgerStore
}

// Pipeline owns the event loop between the feed and the executor.
// It transitions between exactly two states, stopped and running, and
// both transitions are idempotent from the caller's perspective: Start
// on a running pipeline returns ErrAlreadyRunning, Stop on a stopped
// one is a no-op.
type Pipeline struct {
	source  Source
	gate    Gate
	buyer   Buyer
	balance BalanceSource
	stores  Stores
	logger  *zap.Logger
	metrics *observability.Metrics
	workers int

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Option configures Pipeline.
type Option func(*Pipeline)

// WithWorkers caps concurrent event handlers.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// New creates a pipeline in the stopped state.
func New(source Source, gate Gate, buyer Buyer, balance BalanceSource, stores Stores, logger *zap.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{
		source:  source,
		gate:    gate,
		buyer:   buyer,
		balance: balance,
		stores:  stores,
		logger:  logger,
		workers: DefaultWorkers,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start subscribes to the feed and begins consuming events.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return ErrAlreadyRunning
	}

	// Stop owns cancellation; the caller's ctx only scopes values.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	events, err := p.source.Subscribe(runCtx)
	if err != nil {
		cancel()
		return fmt.Errorf("subscribe to feed: %w", err)
	}

	p.cancel = cancel
	p.running = true

	p.wg.Add(1)
	go p.consume(runCtx, events)

	p.logger.Info("pipeline started", zap.Int("workers", p.workers))
	return nil
}

// Stop halts event consumption and blocks until in-flight handlers
// finish. Already-started buys run to completion; only new events stop
// being picked up.
func (p *Pipeline) Stop() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	p.cancel()
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info("pipeline stopped")
	return nil
}

// Active reports whether the pipeline is consuming events.
func (p *Pipeline) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// consume drains the event channel, dispatching each event to a worker.
// Handlers get a context that survives Stop so an in-flight buy is never
// torn down halfway.
func (p *Pipeline) consume(ctx context.Context, events <-chan domain.PoolCreated) {
	defer p.wg.Done()

	handlerCtx := context.WithoutCancel(ctx)
	sem := make(chan struct{}, p.workers)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				p.logger.Warn("feed channel closed")
				return
			}

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}

			p.wg.Add(1)
			go func(ev domain.PoolCreated) {
				defer p.wg.Done()
				defer func() { <-sem }()
				p.handleEvent(handlerCtx, ev)
			}(event)
		}
	}
}

// handleEvent runs one pool through the full decision chain.
func (p *Pipeline) handleEvent(ctx context.Context, event domain.PoolCreated) {
	if p.metrics != nil {
		p.metrics.HandlersInFlight.Inc()
		defer p.metrics.HandlersInFlight.Dec()
	}

	pool := &domain.Pool{
		Address:     event.Address,
		BaseMint:    event.BaseMint,
		QuoteMint:   event.QuoteMint,
		Liquidity:   event.Liquidity,
		Slot:        event.Slot,
		TxSignature: event.TxSignature,
		DetectedAt:  event.DetectedAt,
		Status:      domain.PoolStatusAnalyzing,
	}

	// Create is the dedup point: the second event for an address loses
	// here and never reaches the risk gate.
	if err := p.stores.Pools.Create(ctx, pool); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			if p.metrics != nil {
				p.metrics.DuplicatePools.Inc()
			}
			p.logger.Debug("duplicate pool event dropped", zap.String("pool", event.Address))
			return
		}
		p.storeError("pools", "create")
		p.logger.Error("create pool failed", zap.String("pool", event.Address), zap.Error(err))
		return
	}

	if p.metrics != nil {
		p.metrics.PoolsObserved.Inc()
	}

	p.appendLedger(ctx, domain.LedgerPoolObserved, pool.Address,
		fmt.Sprintf("slot=%d liquidity=%.4f mint=%s", pool.Slot, pool.Liquidity, pool.QuoteMint))

	// When decode could not recover the mint, the gate scores the pool
	// address instead. The oracle has less to go on and the fail-closed
	// default applies.
	subject := pool.TargetMint()
	if subject == "" {
		subject = pool.Address
	}

	start := time.Now()
	verdict := p.gate.Analyze(ctx, subject)
	if p.metrics != nil {
		p.metrics.RiskCheckLatency.Observe(time.Since(start).Seconds())
		outcome := "failed"
		if verdict.Passed {
			outcome = "passed"
		}
		p.metrics.RiskChecks.WithLabelValues(outcome).Inc()
	}

	status := domain.PoolStatusRisky
	if verdict.Passed {
		status = domain.PoolStatusPending
	}

	if err := p.stores.Pools.SetVerdict(ctx, pool.Address, status, verdict.Score, verdict.Rationale); err != nil {
		p.storeError("pools", "set_verdict")
		p.logger.Error("set verdict failed", zap.String("pool", pool.Address), zap.Error(err))
		return
	}

	p.appendLedger(ctx, domain.LedgerVerdict, pool.Address,
		fmt.Sprintf("score=%d passed=%t %s", verdict.Score, verdict.Passed, verdict.Rationale))

	if !verdict.Passed {
		p.logger.Info("pool rejected by risk gate",
			zap.String("pool", pool.Address),
			zap.Int("score", verdict.Score))
		return
	}

	approved, err := p.stores.Whitelist.IsApproved(ctx, pool.Address)
	if err != nil {
		// Fail closed: an unreadable whitelist never buys.
		p.storeError("whitelist", "is_approved")
		p.logger.Error("whitelist check failed", zap.String("pool", pool.Address), zap.Error(err))
		return
	}
	if !approved {
		p.logger.Info("pool passed risk gate, awaiting approval",
			zap.String("pool", pool.Address),
			zap.Int("score", verdict.Score))
		return
	}

	pool.Status = domain.PoolStatusPending
	pool.RiskScore = &verdict.Score

	trade, err := p.buyer.Buy(ctx, pool)
	if err != nil {
		// The pool stays pending; whether to revisit is an operator call.
		if p.metrics != nil {
			p.metrics.TradesFailed.WithLabelValues(failReason(err)).Inc()
		}
		p.logger.Error("buy failed", zap.String("pool", pool.Address), zap.Error(err))
		p.appendLedger(ctx, domain.LedgerTradeFailed, pool.Address, err.Error())
		return
	}

	if p.metrics != nil {
		p.metrics.TradesExecuted.Inc()
	}
	p.appendLedger(ctx, domain.LedgerTradeExecuted, pool.Address,
		fmt.Sprintf("signature=%s out=%d", trade.Signature, trade.OutAmount))
}

// appendLedger writes one ledger row; the ledger is best effort and a
// write failure only logs.
func (p *Pipeline) appendLedger(ctx context.Context, kind domain.LedgerEventKind, pool, detail string) {
	err := p.stores.Ledger.Append(ctx, &domain.LedgerEvent{
		Kind:        kind,
		PoolAddress: pool,
		Detail:      detail,
		Timestamp:   time.Now().UnixMilli(),
	})
	if err != nil {
		p.storeError("ledger", "append")
		p.logger.Warn("ledger append failed",
			zap.String("kind", string(kind)),
			zap.String("pool", pool),
			zap.Error(err))
	}
}

// storeError counts one failed storage operation.
func (p *Pipeline) storeError(store, operation string) {
	if p.metrics != nil {
		p.metrics.StoreErrors.WithLabelValues(store, operation).Inc()
	}
}

// failReason buckets buy errors for metrics.
func failReason(err error) string {
	switch {
	case errors.Is(err, executor.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, executor.ErrNoTargetMint):
		return "no_target_mint"
	case errors.Is(err, broadcast.ErrAllEndpointsFailed):
		return "broadcast"
	default:
		return "other"
	}
}

// Approve whitelists a pool. Approval arriving after the scoring pass
// does not retrigger a buy; the executor only fires while the event is
// in flight.
func (p *Pipeline) Approve(ctx context.Context, poolAddress string) error {
	return p.stores.Whitelist.Approve(ctx, poolAddress)
}

// Balance reports the trading wallet balance in lamports.
func (p *Pipeline) Balance(ctx context.Context) (uint64, error) {
	balance, err := p.balance.Balance(ctx)
	if err == nil && p.metrics != nil {
		p.metrics.WalletLamports.Set(float64(balance))
	}
	return balance, err
}

// RecentPools lists the most recently detected pools.
func (p *Pipeline) RecentPools(ctx context.Context, limit int) ([]*domain.Pool, error) {
	return p.stores.Pools.ListRecent(ctx, limit)
}

// RecentTrades lists the most recently executed trades.
func (p *Pipeline) RecentTrades(ctx context.Context, limit int) ([]*domain.Trade, error) {
	return p.stores.Trades.ListRecent(ctx, limit)
}

// RecentLedger lists the most recent pipeline ledger rows.
func (p *Pipeline) RecentLedger(ctx context.Context, limit int) ([]*domain.LedgerEvent, error) {
	return p.stores.Ledger.ListRecent(ctx, limit)
}
