package strategy

import (
	"fmt"

	"satstacker/internal/domain"
)

// BuyAndHold enters once with the full configured amount and never sells.
type BuyAndHold struct{}

func (s *BuyAndHold) Decide(m domain.MarketConditions, p domain.PortfolioState, cfg domain.StrategyConfig) domain.TradeDecision {
	if p.CryptoAmount > 0 {
		return hold("already holding")
	}
	if atCeiling(p, cfg) {
		return hold("position ceiling reached")
	}
	amount := buySizeUSD(p, cfg, 1)
	if amount <= 0 {
		return hold("no cash available")
	}
	return buy(amount, "initial buy-and-hold entry")
}

// DCA buys a fixed share of cash on a fixed schedule, regardless of regime,
// and never sells.
type DCA struct{}

func (s *DCA) Decide(m domain.MarketConditions, p domain.PortfolioState, cfg domain.StrategyConfig) domain.TradeDecision {
	if atCeiling(p, cfg) {
		return hold("position ceiling reached")
	}
	if !buyAllowed(m, p, cfg.BuyFrequencyHours) {
		return hold("waiting for next scheduled buy")
	}
	amount := buySizeUSD(p, cfg, 1)
	if amount <= 0 {
		return hold("no cash available")
	}
	return buy(amount, fmt.Sprintf("scheduled DCA buy (every %.0fh)", cfg.BuyFrequencyHours))
}

// Profile selects how eagerly a FearGreed policy trades.
type Profile int

const (
	ProfileConservative Profile = iota
	ProfileBalanced
	ProfileAggressive
)

// FearGreed accumulates into fear regimes and distributes into greed
// regimes. The three profiles share the decision shape and differ in which
// regimes they act on, their sizing multipliers, and the rebalance floor.
type FearGreed struct {
	Profile Profile
}

func (s *FearGreed) Decide(m domain.MarketConditions, p domain.PortfolioState, cfg domain.StrategyConfig) domain.TradeDecision {
	// Floor rebalance overrides the regime gate for the aggressive profile.
	if s.Profile == ProfileAggressive && belowFloor(p, cfg) {
		if amount := floorRebalance(p, cfg); amount > 0 {
			return buy(amount, fmt.Sprintf("rebalancing up to %.0f%% position floor", cfg.MinPositionPercent))
		}
	}

	if d, ok := s.tryBuy(m, p, cfg); ok {
		return d
	}
	if d, ok := s.trySell(m, p, cfg); ok {
		return d
	}
	return hold(fmt.Sprintf("no action in %s regime", m.Regime))
}

func (s *FearGreed) tryBuy(m domain.MarketConditions, p domain.PortfolioState, cfg domain.StrategyConfig) (domain.TradeDecision, bool) {
	extremeFear := m.Regime == domain.RegimeExtremeFear
	fear := m.Regime == domain.RegimeFear

	buyRegime := extremeFear
	if s.Profile != ProfileConservative {
		buyRegime = buyRegime || fear
	}
	if !buyRegime {
		return domain.TradeDecision{}, false
	}
	if atCeiling(p, cfg) {
		return hold("position ceiling reached"), true
	}

	// Buy twice as often while the market is in extreme fear.
	frequency := cfg.BuyFrequencyHours
	if extremeFear && s.Profile != ProfileConservative {
		frequency /= 2
	}
	if !buyAllowed(m, p, frequency) {
		return hold("buy throttle active"), true
	}

	multiplier := 1.0
	if extremeFear {
		switch s.Profile {
		case ProfileBalanced:
			multiplier = 1.5
		case ProfileAggressive:
			multiplier = 2
		}
	}

	amount := buySizeUSD(p, cfg, multiplier)
	if amount <= 0 {
		return hold("no cash available"), true
	}
	return buy(amount, fmt.Sprintf("buying %s (score %d)", m.Regime, m.RegimeScore)), true
}

func (s *FearGreed) trySell(m domain.MarketConditions, p domain.PortfolioState, cfg domain.StrategyConfig) (domain.TradeDecision, bool) {
	extremeGreed := m.Regime == domain.RegimeExtremeGreed
	greed := m.Regime == domain.RegimeGreed

	sellRegime := extremeGreed
	if s.Profile == ProfileBalanced {
		sellRegime = sellRegime || greed
	}
	if !sellRegime || p.CryptoAmount <= 0 {
		return domain.TradeDecision{}, false
	}

	if p.UnrealizedPnLPercent < cfg.MinProfitToSell {
		return hold(fmt.Sprintf("unrealized %.1f%% below %.1f%% sell gate", p.UnrealizedPnLPercent, cfg.MinProfitToSell)), true
	}

	multiplier := 1.0
	if extremeGreed {
		multiplier = 1.5
	}
	amount := sellSizeAsset(m, p, cfg, multiplier)
	if amount <= 0 {
		return hold("sell blocked by position floor"), true
	}
	return sell(amount, fmt.Sprintf("taking profit in %s (unrealized %.1f%%)", m.Regime, p.UnrealizedPnLPercent)), true
}

// TrendFollower rides the 50/200 MA trend: it buys while MA50 holds above
// MA200 and exits on the break regardless of profit. Selling at a loss here
// is intentional policy, not a bug.
type TrendFollower struct{}

func (s *TrendFollower) Decide(m domain.MarketConditions, p domain.PortfolioState, cfg domain.StrategyConfig) domain.TradeDecision {
	if m.MA50 == nil || m.MA200 == nil {
		return hold("moving averages not warmed up")
	}

	uptrend := *m.MA50 > *m.MA200

	if !uptrend && p.CryptoAmount > 0 {
		amount := sellSizeAsset(m, p, cfg, 1)
		if amount <= 0 {
			return hold("trend break but nothing sellable")
		}
		return sell(amount, "trend break: MA50 crossed below MA200")
	}

	if uptrend && m.Price > *m.MA200 {
		if atCeiling(p, cfg) {
			return hold("position ceiling reached")
		}
		if !buyAllowed(m, p, cfg.BuyFrequencyHours) {
			return hold("buy throttle active")
		}
		amount := buySizeUSD(p, cfg, 1)
		if amount <= 0 {
			return hold("no cash available")
		}
		return buy(amount, "uptrend: MA50 above MA200")
	}

	return hold("no trend signal")
}

// DipBuyer accumulates when price is far enough below the all-time high and
// distributes once price recovers near it.
type DipBuyer struct{}

func (s *DipBuyer) Decide(m domain.MarketConditions, p domain.PortfolioState, cfg domain.StrategyConfig) domain.TradeDecision {
	dipThreshold := cfg.Extra["dip_threshold"]
	deepDipThreshold := cfg.Extra["deep_dip_threshold"]
	recoveryThreshold := cfg.Extra["recovery_threshold"]

	if dipThreshold != 0 && m.PercentFromATH <= dipThreshold {
		if atCeiling(p, cfg) {
			return hold("position ceiling reached")
		}
		if !buyAllowed(m, p, cfg.BuyFrequencyHours) {
			return hold("buy throttle active")
		}
		multiplier := 1.0
		if deepDipThreshold != 0 && m.PercentFromATH <= deepDipThreshold {
			multiplier = 1.5
		}
		amount := buySizeUSD(p, cfg, multiplier)
		if amount <= 0 {
			return hold("no cash available")
		}
		return buy(amount, fmt.Sprintf("buying the dip (%.1f%% from ATH)", m.PercentFromATH))
	}

	if p.CryptoAmount > 0 && recoveryThreshold != 0 && m.PercentFromATH >= recoveryThreshold {
		if p.UnrealizedPnLPercent < cfg.MinProfitToSell {
			return hold(fmt.Sprintf("unrealized %.1f%% below %.1f%% sell gate", p.UnrealizedPnLPercent, cfg.MinProfitToSell))
		}
		amount := sellSizeAsset(m, p, cfg, 1)
		if amount <= 0 {
			return hold("nothing sellable")
		}
		return sell(amount, fmt.Sprintf("selling into recovery (%.1f%% from ATH)", m.PercentFromATH))
	}

	return hold("waiting for a dip")
}
