package strategy

import "satstacker/internal/domain"

// neverSell disables profit-gated selling for variants that only accumulate.
const neverSell = 1e9

// cashBufferPct of free cash is reserved for fees and slippage on every buy.
const cashBufferPct = 2

// minOrderUSD filters out dust orders the exchange would reject anyway.
const minOrderUSD = 1

func hold(reason string) domain.TradeDecision {
	return domain.TradeDecision{Action: domain.ActionHold, Reason: reason}
}

func buy(amountUSD float64, reason string) domain.TradeDecision {
	return domain.TradeDecision{Action: domain.ActionBuy, Amount: amountUSD, Reason: reason}
}

func sell(assetAmount float64, reason string) domain.TradeDecision {
	return domain.TradeDecision{Action: domain.ActionSell, Amount: assetAmount, Reason: reason}
}

// allocationPct is the share of total value currently held in crypto.
func allocationPct(p domain.PortfolioState) float64 {
	if p.TotalValue <= 0 {
		return 0
	}
	return p.CryptoValue / p.TotalValue * 100
}

// atCeiling reports whether further buys are suppressed by the position cap.
func atCeiling(p domain.PortfolioState, cfg domain.StrategyConfig) bool {
	return cfg.MaxPositionPercent > 0 && allocationPct(p) >= cfg.MaxPositionPercent
}

// belowFloor reports whether the allocation dropped under the rebalance floor.
func belowFloor(p domain.PortfolioState, cfg domain.StrategyConfig) bool {
	return cfg.MinPositionPercent > 0 && allocationPct(p) < cfg.MinPositionPercent
}

// buyAllowed enforces the buy throttle against the bar clock, never a wall
// clock. frequencyHours <= 0 means unthrottled.
func buyAllowed(m domain.MarketConditions, p domain.PortfolioState, frequencyHours float64) bool {
	if frequencyHours <= 0 || p.LastBuyTime.IsZero() {
		return true
	}
	return m.Time.Sub(p.LastBuyTime).Hours() >= frequencyHours
}

// buySizeUSD sizes a buy as a percentage of free cash, times an optional
// regime multiplier, capped to leave the fee/slippage buffer untouched.
func buySizeUSD(p domain.PortfolioState, cfg domain.StrategyConfig, multiplier float64) float64 {
	amount := p.Cash * cfg.BuyAmountPercent / 100 * multiplier
	maxSpend := p.Cash * (1 - cashBufferPct/100.0)
	if amount > maxSpend {
		amount = maxSpend
	}
	if amount < minOrderUSD {
		return 0
	}
	return amount
}

// sellSizeAsset sizes a sell as a percentage of holdings, times an optional
// regime multiplier, capped so the remaining allocation never drops below
// the position floor.
func sellSizeAsset(m domain.MarketConditions, p domain.PortfolioState, cfg domain.StrategyConfig, multiplier float64) float64 {
	amount := p.CryptoAmount * cfg.SellAmountPercent / 100 * multiplier
	if amount > p.CryptoAmount {
		amount = p.CryptoAmount
	}

	if cfg.MinPositionPercent > 0 && m.Price > 0 {
		floorValue := cfg.MinPositionPercent / 100 * p.TotalValue
		maxSellable := p.CryptoAmount - floorValue/m.Price
		if maxSellable < 0 {
			maxSellable = 0
		}
		if amount > maxSellable {
			amount = maxSellable
		}
	}

	if amount*m.Price < minOrderUSD {
		return 0
	}
	return amount
}

// floorRebalance sizes the buy that closes the gap back up to the position
// floor, still respecting the cash buffer.
func floorRebalance(p domain.PortfolioState, cfg domain.StrategyConfig) float64 {
	target := cfg.MinPositionPercent / 100 * p.TotalValue
	gap := target - p.CryptoValue
	maxSpend := p.Cash * (1 - cashBufferPct/100.0)
	if gap > maxSpend {
		gap = maxSpend
	}
	if gap < minOrderUSD {
		return 0
	}
	return gap
}
