package broadcast

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ethanan544-art/sniper-engine/internal/observability"
	"github.com/ethanan544-art/sniper-engine/internal/solana"
)

// ErrAllEndpointsFailed is returned when every relay endpoint and the
// public RPC fallback rejected the transaction.
var ErrAllEndpointsFailed = errors.New("all broadcast endpoints failed")

// DefaultEndpointTimeout bounds one relay submission attempt.
const DefaultEndpointTimeout = 5 * time.Second

// PriorityRelay submits signed transactions to private relay endpoints
// in priority order, falling back to the public RPC when all relays
// fail. Each endpoint gets exactly one attempt per submission; latency
// matters more than per-endpoint retries during a snipe.
type PriorityRelay struct {
	endpoints  []string
	client     *http.Client
	rpc        solana.RPCClient
	maxRetries int
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// RelayOption configures PriorityRelay.
type RelayOption func(*PriorityRelay)

// WithEndpointTimeout sets the per-endpoint submission timeout.
func WithEndpointTimeout(d time.Duration) RelayOption {
	return func(r *PriorityRelay) {
		r.client.Timeout = d
	}
}

// WithPublicMaxRetries sets maxRetries forwarded to the public RPC
// fallback.
func WithPublicMaxRetries(n int) RelayOption {
	return func(r *PriorityRelay) {
		r.maxRetries = n
	}
}

// WithRelayHTTPClient sets a custom http.Client for relay submissions.
func WithRelayHTTPClient(client *http.Client) RelayOption {
	return func(r *PriorityRelay) {
		r.client = client
	}
}

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *observability.Metrics) RelayOption {
	return func(r *PriorityRelay) {
		r.metrics = m
	}
}

// NewPriorityRelay creates a relay over the given endpoints, tried in
// the order supplied.
func NewPriorityRelay(endpoints []string, rpc solana.RPCClient, logger *zap.Logger, opts ...RelayOption) *PriorityRelay {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &PriorityRelay{
		endpoints:  endpoints,
		client:     &http.Client{Timeout: DefaultEndpointTimeout},
		rpc:        rpc,
		maxRetries: 3,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Submit broadcasts a signed transaction. Endpoints are tried once each
// in priority order; the public RPC is the last resort. Returns the
// signature reported by whichever endpoint accepted the transaction.
func (r *PriorityRelay) Submit(ctx context.Context, txBase64 string) (string, error) {
	var lastErr error

	for _, endpoint := range r.endpoints {
		sig, err := r.submitOne(ctx, endpoint, txBase64)
		if err == nil {
			r.submission("relay_accepted")
			r.logger.Info("transaction accepted by relay",
				zap.String("endpoint", endpoint),
				zap.String("signature", sig))
			return sig, nil
		}

		r.submission("relay_rejected")
		r.logger.Warn("relay endpoint rejected transaction",
			zap.String("endpoint", endpoint),
			zap.Error(err))
		lastErr = err

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}

	// Public RPC fallback. Preflight is skipped so the node forwards
	// immediately instead of simulating first.
	sig, err := r.rpc.SendTransaction(ctx, txBase64, &solana.SendOpts{
		SkipPreflight: true,
		MaxRetries:    r.maxRetries,
	})
	if err == nil {
		r.submission("fallback_accepted")
		r.logger.Info("transaction accepted by public rpc fallback",
			zap.String("signature", sig))
		return sig, nil
	}

	r.submission("fallback_failed")
	r.logger.Error("public rpc fallback failed", zap.Error(err))
	if lastErr == nil {
		lastErr = err
	}

	return "", fmt.Errorf("%w: %v", ErrAllEndpointsFailed, lastErr)
}

// submission counts one broadcast attempt outcome.
func (r *PriorityRelay) submission(outcome string) {
	if r.metrics != nil {
		r.metrics.RelaySubmissions.WithLabelValues(outcome).Inc()
	}
}

// submitOne posts one sendTransaction request to a relay endpoint.
func (r *PriorityRelay) submitOne(ctx context.Context, endpoint, txBase64 string) (string, error) {
	reqBody := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "sendTransaction",
		"params": []interface{}{
			txBase64,
			map[string]interface{}{"encoding": "base64"},
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var rpcResp struct {
		Result string `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if rpcResp.Error != nil {
		return "", fmt.Errorf("relay error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}

	if rpcResp.Result == "" {
		return "", fmt.Errorf("empty signature in relay response")
	}

	return rpcResp.Result, nil
}
