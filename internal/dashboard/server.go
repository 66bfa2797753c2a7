// Package dashboard exposes the operator HTTP API: pipeline state,
// recent pools and trades, whitelist approval and start/stop control.
package dashboard

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/ethanan544-art/sniper-engine/internal/domain"
	"github.com/ethanan544-art/sniper-engine/internal/engine"
	"github.com/ethanan544-art/sniper-engine/internal/observability"
)

// defaultListLimit bounds list responses when no limit is given.
const defaultListLimit = 50

// Pipeline is the engine surface the dashboard needs.
type Pipeline interface {
	Start(ctx context.Context) error
	Stop() error
	Active() bool
	Approve(ctx context.Context, poolAddress string) error
	Balance(ctx context.Context) (uint64, error)
	RecentPools(ctx context.Context, limit int) ([]*domain.Pool, error)
	RecentTrades(ctx context.Context, limit int) ([]*domain.Trade, error)
	RecentLedger(ctx context.Context, limit int) ([]*domain.LedgerEvent, error)
}

// Server wires the dashboard routes onto an echo instance.
type Server struct {
	echo     *echo.Echo
	pipeline Pipeline
	logger   *zap.Logger
}

// NewServer creates the dashboard HTTP server.
func NewServer(pipeline Pipeline, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:     e,
		pipeline: pipeline,
		logger:   logger,
	}

	e.GET("/health", s.health)
	e.GET("/balance", s.balance)
	e.GET("/pools", s.pools)
	e.GET("/trades", s.trades)
	e.GET("/ledger", s.ledger)
	e.POST("/pools/approve", s.approve)
	e.POST("/start", s.start)
	e.POST("/stop", s.stop)
	e.GET("/metrics", echo.WrapHandler(observability.Handler()))

	return s
}

// Start begins serving on addr. Blocks until shutdown.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

type healthResponse struct {
	Status string `json:"status"`
	Active bool   `json:"active"`
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{
		Status: "ok",
		Active: s.pipeline.Active(),
	})
}

type balanceResponse struct {
	Lamports uint64  `json:"lamports"`
	SOL      float64 `json:"sol"`
}

func (s *Server) balance(c echo.Context) error {
	lamports, err := s.pipeline.Balance(c.Request().Context())
	if err != nil {
		s.logger.Error("balance lookup failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, "balance unavailable")
	}
	return c.JSON(http.StatusOK, balanceResponse{
		Lamports: lamports,
		SOL:      float64(lamports) / 1e9,
	})
}

type poolResponse struct {
	Address       string  `json:"address"`
	BaseMint      string  `json:"base_mint"`
	QuoteMint     string  `json:"quote_mint"`
	Liquidity     float64 `json:"liquidity"`
	Slot          int64   `json:"slot"`
	DetectedAt    int64   `json:"detected_at"`
	Status        string  `json:"status"`
	RiskScore     *int    `json:"risk_score,omitempty"`
	RiskRationale *string `json:"risk_rationale,omitempty"`
}

func (s *Server) pools(c echo.Context) error {
	limit := listLimit(c)

	pools, err := s.pipeline.RecentPools(c.Request().Context(), limit)
	if err != nil {
		s.logger.Error("list pools failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "pools unavailable")
	}

	resp := make([]poolResponse, 0, len(pools))
	for _, p := range pools {
		resp = append(resp, poolResponse{
			Address:       p.Address,
			BaseMint:      p.BaseMint,
			QuoteMint:     p.QuoteMint,
			Liquidity:     p.Liquidity,
			Slot:          p.Slot,
			DetectedAt:    p.DetectedAt,
			Status:        string(p.Status),
			RiskScore:     p.RiskScore,
			RiskRationale: p.RiskRationale,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

type tradeResponse struct {
	Signature   string `json:"signature"`
	PoolAddress string `json:"pool_address"`
	OutputMint  string `json:"output_mint"`
	InLamports  uint64 `json:"in_lamports"`
	OutAmount   uint64 `json:"out_amount"`
	Status      string `json:"status"`
	ExecutedAt  int64  `json:"executed_at"`
}

func (s *Server) trades(c echo.Context) error {
	limit := listLimit(c)

	trades, err := s.pipeline.RecentTrades(c.Request().Context(), limit)
	if err != nil {
		s.logger.Error("list trades failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "trades unavailable")
	}

	resp := make([]tradeResponse, 0, len(trades))
	for _, t := range trades {
		resp = append(resp, tradeResponse{
			Signature:   t.Signature,
			PoolAddress: t.PoolAddress,
			OutputMint:  t.OutputMint,
			InLamports:  t.InLamports,
			OutAmount:   t.OutAmount,
			Status:      string(t.Status),
			ExecutedAt:  t.ExecutedAt,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

type ledgerResponse struct {
	Kind        string `json:"kind"`
	PoolAddress string `json:"pool_address"`
	Detail      string `json:"detail"`
	Timestamp   int64  `json:"timestamp"`
}

func (s *Server) ledger(c echo.Context) error {
	limit := listLimit(c)

	rows, err := s.pipeline.RecentLedger(c.Request().Context(), limit)
	if err != nil {
		s.logger.Error("list ledger failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "ledger unavailable")
	}

	resp := make([]ledgerResponse, 0, len(rows))
	for _, r := range rows {
		resp = append(resp, ledgerResponse{
			Kind:        string(r.Kind),
			PoolAddress: r.PoolAddress,
			Detail:      r.Detail,
			Timestamp:   r.Timestamp,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

// approveRequest accepts both key spellings for the pool address.
type approveRequest struct {
	PoolAddress      string `json:"pool_address"`
	PoolAddressCamel string `json:"poolAddress"`
}

func (r approveRequest) address() string {
	if r.PoolAddress != "" {
		return r.PoolAddress
	}
	return r.PoolAddressCamel
}

func (s *Server) approve(c echo.Context) error {
	var req approveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	addr := req.address()
	if addr == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "pool_address is required")
	}

	if err := s.pipeline.Approve(c.Request().Context(), addr); err != nil {
		s.logger.Error("approve failed", zap.String("pool", addr), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "approve failed")
	}

	s.logger.Info("pool approved", zap.String("pool", addr))
	return c.JSON(http.StatusOK, map[string]string{"status": "approved"})
}

func (s *Server) start(c echo.Context) error {
	err := s.pipeline.Start(c.Request().Context())
	if err != nil {
		if errors.Is(err, engine.ErrAlreadyRunning) {
			return echo.NewHTTPError(http.StatusConflict, "pipeline already running")
		}
		s.logger.Error("pipeline start failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "start failed")
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "started"})
}

func (s *Server) stop(c echo.Context) error {
	if err := s.pipeline.Stop(); err != nil {
		s.logger.Error("pipeline stop failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "stop failed")
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "stopped"})
}

// listLimit parses the optional ?limit= query parameter.
func listLimit(c echo.Context) int {
	raw := c.QueryParam("limit")
	if raw == "" {
		return defaultListLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > 500 {
		return defaultListLimit
	}
	return n
}
