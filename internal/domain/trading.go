package domain

import "time"

// Regime is a discretized market sentiment classification.
type Regime string

const (
	RegimeExtremeFear  Regime = "extreme_fear"
	RegimeFear         Regime = "fear"
	RegimeNeutral      Regime = "neutral"
	RegimeGreed        Regime = "greed"
	RegimeExtremeGreed Regime = "extreme_greed"
)

// MarketConditions is the per-bar derived view the strategy policies decide on.
// It is recomputed on every step and never persisted as mutable state.
type MarketConditions struct {
	Time           time.Time `json:"time"`
	Price          float64   `json:"price"`
	RSI            float64   `json:"rsi"`
	MA50           *float64  `json:"ma50,omitempty"`
	MA200          *float64  `json:"ma200,omitempty"`
	PercentFromATH float64   `json:"percent_from_ath"`
	Regime         Regime    `json:"regime"`
	RegimeScore    int       `json:"regime_score"`
	Signals        []string  `json:"signals,omitempty"`
}

// StrategyConfig holds every tunable of one strategy instance. It is
// immutable for the duration of a run; the engine never mutates it.
type StrategyConfig struct {
	ID                       string  `json:"id"`
	Name                     string  `json:"name"`
	Category                 string  `json:"category"`
	AllocationPercent        float64 `json:"allocation_percent"`
	BuyAmountPercent         float64 `json:"buy_amount_percent"`
	BuyFrequencyHours        float64 `json:"buy_frequency_hours"`
	SellAmountPercent        float64 `json:"sell_amount_percent"`
	MinProfitToSell          float64 `json:"min_profit_to_sell"`
	MaxPositionPercent       float64 `json:"max_position_percent"`
	MinPositionPercent       float64 `json:"min_position_percent"`
	FearThreshold            float64 `json:"fear_threshold"`
	ExtremeFearThreshold     float64 `json:"extreme_fear_threshold"`
	GreedRSIThreshold        float64 `json:"greed_rsi_threshold"`
	ExtremeGreedRSIThreshold float64 `json:"extreme_greed_rsi_threshold"`

	// Extra carries strategy-specific parameters (e.g. the dip buyer's
	// entry threshold) keyed by name.
	Extra map[string]float64 `json:"extra,omitempty"`
}

// PortfolioState is the read-only portfolio input to a policy decision.
// LastBuyTime is explicit so decisions never read a wall clock.
type PortfolioState struct {
	Cash                 float64   `json:"cash"`
	CryptoAmount         float64   `json:"crypto_amount"`
	CryptoValue          float64   `json:"crypto_value"`
	TotalValue           float64   `json:"total_value"`
	CostBasis            float64   `json:"cost_basis"`
	AvgEntryPrice        float64   `json:"avg_entry_price"`
	UnrealizedPnLPercent float64   `json:"unrealized_pnl_percent"`
	LastBuyTime          time.Time `json:"last_buy_time"`
}

// PositionStatus tracks the lifecycle of a ledger position.
type PositionStatus string

const (
	PositionOpen    PositionStatus = "open"
	PositionPartial PositionStatus = "partial"
	PositionClosed  PositionStatus = "closed"
)

// Position is the weighted-average cost-basis ledger entry for one strategy.
type Position struct {
	Amount          float64        `json:"amount"`
	CostBasis       float64        `json:"cost_basis"`
	AvgEntryPrice   float64        `json:"avg_entry_price"`
	RealizedProfit  float64        `json:"realized_profit"`
	TotalBuys       int            `json:"total_buys"`
	TotalSells      int            `json:"total_sells"`
	Status          PositionStatus `json:"status"`
	FirstActivityAt time.Time      `json:"first_activity_at"`
}

// TradeAction is what a policy decided to do on a bar.
type TradeAction string

const (
	ActionBuy  TradeAction = "buy"
	ActionSell TradeAction = "sell"
	ActionHold TradeAction = "hold"
)

// TradeDecision is the pure output of one policy call. Amount is USD for
// buys and asset units for sells.
type TradeDecision struct {
	Action TradeAction `json:"action"`
	Amount float64     `json:"amount"`
	Reason string      `json:"reason"`
}

// Fill is a confirmed execution returned by an execution port. Cost is the
// notional in USD; Fee is charged on top and never enters the cost basis.
type Fill struct {
	Amount float64 `json:"amount"`
	Price  float64 `json:"price"`
	Cost   float64 `json:"cost"`
	Fee    float64 `json:"fee"`
}

// TradeRecord is the append-only record of one executed decision.
type TradeRecord struct {
	ID               int64       `json:"id,omitempty"`
	StrategyID       string      `json:"strategy_id"`
	Symbol           string      `json:"symbol"`
	Action           TradeAction `json:"action"`
	Timestamp        time.Time   `json:"timestamp"`
	Price            float64     `json:"price"`
	Amount           float64     `json:"amount"`
	ValueUSD         float64     `json:"value_usd"`
	Fee              float64     `json:"fee"`
	Regime           Regime      `json:"regime"`
	RegimeScore      int         `json:"regime_score"`
	Reason           string      `json:"reason"`
	CostBasisPortion *float64    `json:"cost_basis_portion,omitempty"`
	Profit           *float64    `json:"profit,omitempty"`
	ProfitPercent    *float64    `json:"profit_percent,omitempty"`
}

// DecisionRecord is the structured observability record emitted per step.
// The engine produces it as data; persisting or logging it is the caller's job.
type DecisionRecord struct {
	Timestamp   time.Time   `json:"timestamp"`
	StrategyID  string      `json:"strategy_id"`
	Regime      Regime      `json:"regime"`
	RegimeScore int         `json:"regime_score"`
	Signals     []string    `json:"signals,omitempty"`
	Action      TradeAction `json:"action"`
	Reason      string      `json:"reason"`
}
