package backtest

import (
	"math"

	"satstacker/internal/domain"
	"satstacker/internal/ta"
)

// computeMetrics summarizes a finished run. The equity curve has one point
// per tradeable bar.
func computeMetrics(initialCapital float64, result *Result, candles []*domain.Candle) domain.BacktestMetrics {
	m := domain.BacktestMetrics{TotalTrades: len(result.Trades)}

	curve := result.EquityCurve
	if len(curve) == 0 || initialCapital <= 0 {
		return m
	}

	final := curve[len(curve)-1]
	m.FinalValue = final
	m.TotalReturnPct = (final - initialCapital) / initialCapital * 100
	m.MaxDrawdownPct = maxDrawdown(curve)

	// Sell-side trade stats.
	var sells, wins int
	var profitPctSum, winSum, lossSum float64
	var losses int
	for _, tr := range result.Trades {
		if tr.Action != domain.ActionSell || tr.Profit == nil {
			continue
		}
		sells++
		if tr.ProfitPercent != nil {
			profitPctSum += *tr.ProfitPercent
		}
		if *tr.Profit > 0 {
			wins++
			winSum += *tr.Profit
		} else {
			losses++
			lossSum += math.Abs(*tr.Profit)
		}
	}
	if sells > 0 {
		m.WinRatePct = float64(wins) / float64(sells) * 100
		m.AvgTradeReturnPct = profitPctSum / float64(sells)
	}
	if wins > 0 {
		m.AvgWinSize = winSum / float64(wins)
	}
	if losses > 0 {
		m.AvgLossSize = lossSum / float64(losses)
	}

	m.SharpeRatio = sharpeRatio(curve)

	// Buy-and-hold benchmark from the first tradeable bar's close.
	firstClose := candles[WarmupBars].Close
	lastClose := candles[len(candles)-1].Close
	if firstClose > 0 {
		m.BuyAndHoldPct = (lastClose - firstClose) / firstClose * 100
	}
	m.OutperformancePct = m.TotalReturnPct - m.BuyAndHoldPct

	return m
}

// maxDrawdown is the largest peak-to-trough percentage drop of the curve.
// Always >= 0.
func maxDrawdown(curve []float64) float64 {
	peak := curve[0]
	maxDD := 0.0
	for _, v := range curve {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			dd := (peak - v) / peak * 100
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// sharpeRatio annualizes the per-bar return series assuming daily bars.
// Zero when volatility is zero.
func sharpeRatio(curve []float64) float64 {
	if len(curve) < 2 {
		return 0
	}
	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		if curve[i-1] <= 0 {
			continue
		}
		returns = append(returns, (curve[i]-curve[i-1])/curve[i-1])
	}
	if len(returns) == 0 {
		return 0
	}
	mean, std := ta.MeanStd(returns)
	if std == 0 {
		return 0
	}
	return mean * 365 / (std * math.Sqrt(365))
}
