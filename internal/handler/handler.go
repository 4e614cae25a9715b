package handler

import (
	"context"

	"satstacker/internal/domain"
	"satstacker/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// PriceReader is the slice of the price service the handlers consume.
type PriceReader interface {
	GetCurrentPrice(ctx context.Context, symbol string) (*domain.PriceSnapshot, error)
	GetCurrentPrices(ctx context.Context) ([]*domain.PriceSnapshot, error)
	GetCandles(ctx context.Context, symbol, interval string, limit int) ([]*domain.Candle, error)
}

// BacktestRunner is the slice of the backtest service the handlers consume.
type BacktestRunner interface {
	StartRun(ctx context.Context, req domain.BacktestRequest) (*domain.BacktestRun, error)
	GetRun(ctx context.Context, id string) (*domain.BacktestRun, error)
	ListRuns(ctx context.Context, limit int) ([]*domain.BacktestRun, error)
	CancelRun(id string) error
}

// PortfolioReader exposes the live trading books. Nil when live trading is
// disabled.
type PortfolioReader interface {
	Portfolios() []service.StrategyPortfolio
}

type Handler struct {
	tracer     trace.Tracer
	prices     PriceReader
	backtests  BacktestRunner
	portfolios PortfolioReader
	apiKey     string
}

func New(tracer trace.Tracer, prices PriceReader, backtests BacktestRunner, portfolios PortfolioReader, apiKey string) *Handler {
	return &Handler{
		tracer:     tracer,
		prices:     prices,
		backtests:  backtests,
		portfolios: portfolios,
		apiKey:     apiKey,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/api/prices", h.GetAllPrices)
	r.GET("/api/prices/:symbol", h.GetPrice)
	r.GET("/api/candles/:symbol", h.GetCandles)
	r.GET("/api/strategies", h.GetStrategies)
	r.GET("/api/portfolio", h.GetPortfolio)
	r.GET("/api/backtests", h.ListBacktests)
	r.GET("/api/backtests/:id", h.GetBacktest)
	r.GET("/api/backtests/:id/trades", h.GetBacktestTrades)

	auth := r.Group("/", APIKeyAuth(h.apiKey))
	auth.POST("/api/backtests", h.StartBacktest)
	auth.DELETE("/api/backtests/:id", h.CancelBacktest)
}
