package feed

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ethanan544-art/sniper-engine/internal/domain"
	"github.com/ethanan544-art/sniper-engine/internal/observability"
	"github.com/ethanan544-art/sniper-engine/internal/solana"
)

const lamportsPerSOL = 1_000_000_000

// Source streams newly created pool events from a Solana program
// subscription. Malformed notifications are logged and skipped so a bad
// payload never stops the stream.
type Source struct {
	ws      solana.WSClient
	rpc     solana.RPCClient
	logger  *zap.Logger
	metrics *observability.Metrics

	programID string
	dataSize  int64
}

// SourceOption configures Source.
type SourceOption func(*Source)

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *observability.Metrics) SourceOption {
	return func(s *Source) {
		s.metrics = m
	}
}

// NewSource creates a pool event source watching the given AMM program.
func NewSource(ws solana.WSClient, rpc solana.RPCClient, programID string, dataSize int64, logger *zap.Logger, opts ...SourceOption) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dataSize == 0 {
		dataSize = PoolAccountSize
	}
	s := &Source{
		ws:        ws,
		rpc:       rpc,
		logger:    logger,
		programID: programID,
		dataSize:  dataSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe starts the program subscription and returns a channel of pool
// creation events. The channel closes when the subscription ends.
func (s *Source) Subscribe(ctx context.Context) (<-chan domain.PoolCreated, error) {
	notifs, err := s.ws.SubscribeProgram(ctx, solana.ProgramFilter{
		ProgramID: s.programID,
		DataSize:  s.dataSize,
	})
	if err != nil {
		return nil, err
	}

	events := make(chan domain.PoolCreated, 1024)

	go func() {
		defer close(events)

		for {
			select {
			case <-ctx.Done():
				return
			case notif, ok := <-notifs:
				if !ok {
					return
				}

				received := time.Now()
				event, ok := s.toEvent(ctx, notif)
				if !ok {
					continue
				}

				select {
				case events <- event:
					if s.metrics != nil {
						s.metrics.DetectionLatency.Observe(time.Since(received).Seconds())
					}
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events, nil
}

// toEvent converts one account notification into a pool creation event.
// Returns false when the payload cannot be decoded.
func (s *Source) toEvent(ctx context.Context, notif solana.AccountNotification) (domain.PoolCreated, bool) {
	account, err := DecodePoolAccount(notif.Data)
	if err != nil {
		if s.metrics != nil {
			s.metrics.MalformedAccounts.Inc()
		}
		s.logger.Warn("skipping malformed pool account",
			zap.String("pubkey", notif.Pubkey),
			zap.Int64("slot", notif.Slot),
			zap.Error(err))
		return domain.PoolCreated{}, false
	}

	event := domain.PoolCreated{
		Address:    notif.Pubkey,
		BaseMint:   account.BaseMint,
		QuoteMint:  account.QuoteMint,
		Slot:       notif.Slot,
		DetectedAt: time.Now().UnixMilli(),
	}

	// Liquidity is read from whichever vault holds wrapped SOL. A pool
	// with no SOL side still flows, with zero liquidity; the pipeline
	// records it but the executor has nothing to buy it with.
	switch domain.WrappedSOLMint {
	case account.BaseMint:
		event.Liquidity = s.estimateLiquidity(ctx, account.BaseVault)
	case account.QuoteMint:
		event.Liquidity = s.estimateLiquidity(ctx, account.QuoteVault)
	default:
		s.logger.Warn("pool has no wrapped SOL side",
			zap.String("pubkey", notif.Pubkey),
			zap.String("base_mint", account.BaseMint),
			zap.String("quote_mint", account.QuoteMint))
	}

	return event, true
}

// estimateLiquidity reads the SOL-side vault balance and converts to SOL.
// A failed lookup degrades to zero so detection latency is never blocked
// on a slow balance read.
func (s *Source) estimateLiquidity(ctx context.Context, vault string) float64 {
	lamports, err := s.rpc.GetBalance(ctx, vault)
	if err != nil {
		s.logger.Warn("vault balance lookup failed",
			zap.String("vault", vault),
			zap.Error(err))
		return 0
	}
	return float64(lamports) / lamportsPerSOL
}
