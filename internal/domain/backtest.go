package domain

import "time"

// RunStatus is the lifecycle state of a backtest run.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// BacktestRequest is the external request to evaluate one strategy over a
// stored historical series.
type BacktestRequest struct {
	Symbol         string    `json:"symbol"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	InitialCapital float64   `json:"initial_capital"`
	StrategyID     string    `json:"strategy_id"`
}

// PortfolioSnapshot is a periodic sample of the simulated portfolio.
type PortfolioSnapshot struct {
	Timestamp      time.Time `json:"timestamp"`
	Price          float64   `json:"price"`
	PortfolioValue float64   `json:"portfolio_value"`
	Cash           float64   `json:"cash"`
	CryptoAmount   float64   `json:"crypto_amount"`
	CryptoValue    float64   `json:"crypto_value"`
	Regime         Regime    `json:"regime"`
	RegimeScore    int       `json:"regime_score"`
	RSI            float64   `json:"rsi"`
}

// BacktestMetrics is computed once when a run finishes.
type BacktestMetrics struct {
	TotalReturnPct    float64 `json:"total_return_pct"`
	MaxDrawdownPct    float64 `json:"max_drawdown_pct"`
	WinRatePct        float64 `json:"win_rate_pct"`
	AvgTradeReturnPct float64 `json:"avg_trade_return_pct"`
	AvgWinSize        float64 `json:"avg_win_size"`
	AvgLossSize       float64 `json:"avg_loss_size"`
	SharpeRatio       float64 `json:"sharpe_ratio"`
	BuyAndHoldPct     float64 `json:"buy_and_hold_pct"`
	OutperformancePct float64 `json:"outperformance_pct"`
	TotalTrades       int     `json:"total_trades"`
	FinalValue        float64 `json:"final_value"`
}

// BacktestRun is one backtest request plus everything it produced.
// Immutable once completed except for progress updates mid-run.
type BacktestRun struct {
	ID          string              `json:"id"`
	Request     BacktestRequest     `json:"request"`
	Config      StrategyConfig      `json:"config"`
	Status      RunStatus           `json:"status"`
	Progress    int                 `json:"progress"`
	Error       string              `json:"error,omitempty"`
	Trades      []TradeRecord       `json:"trades,omitempty"`
	Snapshots   []PortfolioSnapshot `json:"snapshots,omitempty"`
	Metrics     *BacktestMetrics    `json:"metrics,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
}
