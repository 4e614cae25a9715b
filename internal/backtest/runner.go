package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"satstacker/internal/domain"
	"satstacker/internal/execution"
	"satstacker/internal/ledger"
	"satstacker/internal/regime"
	"satstacker/internal/strategy"
	"satstacker/internal/ta"
)

// WarmupBars is the span consumed to seed the longest moving average.
// Trading decisions start on the bar after it.
const WarmupBars = 200

// ErrInsufficientData is returned before any simulation starts when the
// series cannot cover the warm-up window plus one tradeable bar.
var ErrInsufficientData = errors.New("insufficient data: need at least 201 bars")

const (
	rsiPeriod        = 14
	snapshotInterval = 7
	feeRate          = execution.DefaultFeeRate
)

// Result is everything one run produced. The runner performs no storage
// I/O; persisting trades and snapshots is the consumer's job.
type Result struct {
	Trades      []domain.TradeRecord
	Snapshots   []domain.PortfolioSnapshot
	Decisions   []domain.DecisionRecord
	EquityCurve []float64
	Metrics     domain.BacktestMetrics
}

// Runner replays one strategy bar by bar over a historical series. A runner
// owns its ledger and shares no mutable state, so independent runs may
// execute concurrently.
type Runner struct {
	variant        strategy.Variant
	initialCapital float64
	athSeed        float64
}

func NewRunner(variant strategy.Variant, initialCapital float64) *Runner {
	return &Runner{variant: variant, initialCapital: initialCapital}
}

// SeedATH primes the all-time-high tracker with a peak that predates the
// available series.
func (r *Runner) SeedATH(high float64) {
	r.athSeed = high
}

// Run simulates the strategy over candles, which must be ordered ascending
// by open time. onProgress (optional) receives an integer percentage of
// bars processed. Cancellation is cooperative: the context is checked
// between bars, and a cancelled run returns ctx.Err() with no result.
//
// Identical {candles, variant, capital} inputs always produce identical
// trades and metrics; nothing here reads a wall clock or randomness.
func (r *Runner) Run(ctx context.Context, candles []*domain.Candle, onProgress func(int)) (*Result, error) {
	if len(candles) < WarmupBars+1 {
		return nil, fmt.Errorf("%w, got %d", ErrInsufficientData, len(candles))
	}

	cfg := r.variant.Config
	policy := r.variant.Policy

	exec := execution.NewSimulated(feeRate)
	pos := ledger.New()
	ath := ta.NewATHTracker(r.athSeed)

	cash := r.initialCapital

	// Seed the running high with the warm-up bars: the ATH spans all bars
	// seen, not just the trading window.
	for _, c := range candles[:WarmupBars] {
		ath.Observe(c.High)
	}

	closes := make([]float64, 0, len(candles))
	for _, c := range candles[:WarmupBars] {
		closes = append(closes, c.Close)
	}

	result := &Result{}
	tradeable := len(candles) - WarmupBars
	lastProgress := -1

	var lastBuyAt time.Time // zero until the first buy

	for i := WarmupBars; i < len(candles); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		bar := candles[i]
		ath.Observe(bar.High)
		closes = append(closes, bar.Close)
		price := bar.Close
		exec.SetPrice(price)

		conditions := DeriveConditions(bar, closes, ath, cfg)
		state := ledger.PortfolioState(pos, cash, price, lastBuyAt)

		decision := policy.Decide(conditions, state, cfg)

		result.Decisions = append(result.Decisions, domain.DecisionRecord{
			Timestamp:   bar.OpenTime,
			StrategyID:  cfg.ID,
			Regime:      conditions.Regime,
			RegimeScore: conditions.RegimeScore,
			Signals:     conditions.Signals,
			Action:      decision.Action,
			Reason:      decision.Reason,
		})

		switch decision.Action {
		case domain.ActionBuy:
			usd := decision.Amount
			if usd > 0 && cash >= usd*(1+feeRate) {
				fill, err := exec.Buy(ctx, bar.Symbol, usd)
				if err != nil {
					return nil, fmt.Errorf("simulated buy at bar %d: %w", i, err)
				}
				// Fill confirmed: apply cash debit and ledger credit together.
				if err := ledger.ApplyBuy(pos, fill.Amount, fill.Cost, bar.OpenTime); err != nil {
					return nil, fmt.Errorf("apply buy at bar %d: %w", i, err)
				}
				cash -= fill.Cost + fill.Fee
				lastBuyAt = bar.OpenTime

				result.Trades = append(result.Trades, domain.TradeRecord{
					StrategyID:  cfg.ID,
					Symbol:      bar.Symbol,
					Action:      domain.ActionBuy,
					Timestamp:   bar.OpenTime,
					Price:       fill.Price,
					Amount:      fill.Amount,
					ValueUSD:    fill.Cost,
					Fee:         fill.Fee,
					Regime:      conditions.Regime,
					RegimeScore: conditions.RegimeScore,
					Reason:      decision.Reason,
				})
			}

		case domain.ActionSell:
			amount := decision.Amount
			if amount > pos.Amount {
				amount = pos.Amount
			}
			if amount > 0 {
				fill, err := exec.Sell(ctx, bar.Symbol, amount)
				if err != nil {
					return nil, fmt.Errorf("simulated sell at bar %d: %w", i, err)
				}
				sellRes, err := ledger.ApplySell(pos, fill.Amount, fill.Cost, fill.Fee)
				if err != nil {
					return nil, fmt.Errorf("apply sell at bar %d: %w", i, err)
				}
				cash += fill.Cost - fill.Fee

				costBasisPortion := sellRes.CostBasisPortion
				profit := sellRes.Profit
				profitPercent := sellRes.ProfitPercent
				result.Trades = append(result.Trades, domain.TradeRecord{
					StrategyID:       cfg.ID,
					Symbol:           bar.Symbol,
					Action:           domain.ActionSell,
					Timestamp:        bar.OpenTime,
					Price:            fill.Price,
					Amount:           fill.Amount,
					ValueUSD:         fill.Cost,
					Fee:              fill.Fee,
					Regime:           conditions.Regime,
					RegimeScore:      conditions.RegimeScore,
					Reason:           decision.Reason,
					CostBasisPortion: &costBasisPortion,
					Profit:           &profit,
					ProfitPercent:    &profitPercent,
				})
			}
		}

		equity := cash + pos.Amount*price
		result.EquityCurve = append(result.EquityCurve, equity)

		barIndex := i - WarmupBars
		if barIndex%snapshotInterval == 0 || i == len(candles)-1 {
			result.Snapshots = append(result.Snapshots, domain.PortfolioSnapshot{
				Timestamp:      bar.OpenTime,
				Price:          price,
				PortfolioValue: equity,
				Cash:           cash,
				CryptoAmount:   pos.Amount,
				CryptoValue:    pos.Amount * price,
				Regime:         conditions.Regime,
				RegimeScore:    conditions.RegimeScore,
				RSI:            conditions.RSI,
			})
		}

		if onProgress != nil {
			progress := (barIndex + 1) * 100 / tradeable
			if progress != lastProgress {
				onProgress(progress)
				lastProgress = progress
			}
		}
	}

	result.Metrics = computeMetrics(r.initialCapital, result, candles)
	return result, nil
}

// DeriveConditions computes the market view for one bar given the close
// history up to and including it. Shared by the runner and the live loop.
func DeriveConditions(bar *domain.Candle, closes []float64, ath *ta.ATHTracker, cfg domain.StrategyConfig) domain.MarketConditions {
	price := bar.Close

	var ma50, ma200 *float64
	if v, ok := ta.SMA(closes, 50); ok {
		ma50 = &v
	}
	if v, ok := ta.SMA(closes, 200); ok {
		ma200 = &v
	}

	rsi := ta.RSI(closes, rsiPeriod)
	pctFromATH := ath.PercentFromATH(price)

	cls := regime.Classify(regime.Input{
		Price:          price,
		RSI:            rsi,
		MA50:           ma50,
		MA200:          ma200,
		PercentFromATH: pctFromATH,
	}, cfg)

	return domain.MarketConditions{
		Time:           bar.OpenTime,
		Price:          price,
		RSI:            rsi,
		MA50:           ma50,
		MA200:          ma200,
		PercentFromATH: pctFromATH,
		Regime:         cls.Regime,
		RegimeScore:    cls.Score,
		Signals:        cls.Signals,
	}
}
