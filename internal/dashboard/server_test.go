package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethanan544-art/sniper-engine/internal/domain"
	"github.com/ethanan544-art/sniper-engine/internal/engine"
)

// fakePipeline is a scriptable Pipeline.
type fakePipeline struct {
	active     bool
	startErr   error
	stopErr    error
	balance    uint64
	balanceErr error
	pools      []*domain.Pool
	trades     []*domain.Trade
	ledger     []*domain.LedgerEvent
	approved   []string
	approveErr error
}

func (f *fakePipeline) Start(ctx context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.active = true
	return nil
}

func (f *fakePipeline) Stop() error {
	if f.stopErr != nil {
		return f.stopErr
	}
	f.active = false
	return nil
}

func (f *fakePipeline) Active() bool { return f.active }

func (f *fakePipeline) Approve(ctx context.Context, poolAddress string) error {
	if f.approveErr != nil {
		return f.approveErr
	}
	f.approved = append(f.approved, poolAddress)
	return nil
}

func (f *fakePipeline) Balance(ctx context.Context) (uint64, error) {
	return f.balance, f.balanceErr
}

func (f *fakePipeline) RecentPools(ctx context.Context, limit int) ([]*domain.Pool, error) {
	return f.pools, nil
}

func (f *fakePipeline) RecentTrades(ctx context.Context, limit int) ([]*domain.Trade, error) {
	return f.trades, nil
}

func (f *fakePipeline) RecentLedger(ctx context.Context, limit int) ([]*domain.LedgerEvent, error) {
	return f.ledger, nil
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	p := &fakePipeline{active: true}
	s := NewServer(p, nil)

	rec := doRequest(t, s, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Active)
}

func TestServer_Balance(t *testing.T) {
	p := &fakePipeline{balance: 2_500_000_000}
	s := NewServer(p, nil)

	rec := doRequest(t, s, http.MethodGet, "/balance", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp balanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint64(2_500_000_000), resp.Lamports)
	assert.InDelta(t, 2.5, resp.SOL, 0.0001)
}

func TestServer_Balance_Unavailable(t *testing.T) {
	p := &fakePipeline{balanceErr: errors.New("rpc down")}
	s := NewServer(p, nil)

	rec := doRequest(t, s, http.MethodGet, "/balance", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestServer_Pools(t *testing.T) {
	score := 85
	rationale := "clean"
	p := &fakePipeline{
		pools: []*domain.Pool{
			{
				Address:       "pool1",
				QuoteMint:     "mint1",
				Liquidity:     12.5,
				Status:        domain.PoolStatusPending,
				RiskScore:     &score,
				RiskRationale: &rationale,
			},
			{Address: "pool2", Status: domain.PoolStatusAnalyzing},
		},
	}
	s := NewServer(p, nil)

	rec := doRequest(t, s, http.MethodGet, "/pools", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []poolResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.Equal(t, "pool1", resp[0].Address)
	assert.Equal(t, "pending", resp[0].Status)
	require.NotNil(t, resp[0].RiskScore)
	assert.Equal(t, 85, *resp[0].RiskScore)
	assert.Nil(t, resp[1].RiskScore)
}

func TestServer_Trades(t *testing.T) {
	p := &fakePipeline{
		trades: []*domain.Trade{
			{
				Signature:   "sig1",
				PoolAddress: "pool1",
				OutputMint:  "mint1",
				InLamports:  100_000_000,
				OutAmount:   999,
				Status:      domain.TradeStatusExecuted,
			},
		},
	}
	s := NewServer(p, nil)

	rec := doRequest(t, s, http.MethodGet, "/trades", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []tradeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "sig1", resp[0].Signature)
	assert.Equal(t, "executed", resp[0].Status)
}

func TestServer_Ledger(t *testing.T) {
	p := &fakePipeline{
		ledger: []*domain.LedgerEvent{
			{Kind: domain.LedgerPoolObserved, PoolAddress: "pool1", Detail: "slot=1"},
		},
	}
	s := NewServer(p, nil)

	rec := doRequest(t, s, http.MethodGet, "/ledger", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []ledgerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "pool_observed", resp[0].Kind)
}

func TestServer_Approve(t *testing.T) {
	p := &fakePipeline{}
	s := NewServer(p, nil)

	rec := doRequest(t, s, http.MethodPost, "/pools/approve", `{"pool_address": "pool1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"pool1"}, p.approved)
}

func TestServer_Approve_CamelCaseKey(t *testing.T) {
	p := &fakePipeline{}
	s := NewServer(p, nil)

	rec := doRequest(t, s, http.MethodPost, "/pools/approve", `{"poolAddress": "pool2"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"pool2"}, p.approved)
}

func TestServer_Approve_MissingAddress(t *testing.T) {
	p := &fakePipeline{}
	s := NewServer(p, nil)

	rec := doRequest(t, s, http.MethodPost, "/pools/approve", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, p.approved)
}

func TestServer_StartStop(t *testing.T) {
	p := &fakePipeline{}
	s := NewServer(p, nil)

	rec := doRequest(t, s, http.MethodPost, "/start", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, p.active)

	rec = doRequest(t, s, http.MethodPost, "/stop", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, p.active)
}

func TestServer_Start_AlreadyRunning(t *testing.T) {
	p := &fakePipeline{startErr: engine.ErrAlreadyRunning}
	s := NewServer(p, nil)

	rec := doRequest(t, s, http.MethodPost, "/start", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListLimit(t *testing.T) {
	p := &fakePipeline{}
	s := NewServer(p, nil)

	// Out-of-range limits fall back to the default instead of erroring.
	rec := doRequest(t, s, http.MethodGet, "/pools?limit=-5", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/pools?limit=junk", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
