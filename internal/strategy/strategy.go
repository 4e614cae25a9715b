package strategy

import (
	"errors"
	"fmt"

	"satstacker/internal/domain"
)

// ErrNotFound is returned when a request references an unknown strategy id.
// There is deliberately no fallback to a default strategy.
var ErrNotFound = errors.New("strategy not found")

// Policy maps {market conditions, portfolio state, config} to a trade
// decision. Implementations must be pure functions of their inputs: no
// hidden timers, no ambient clock reads. "Time since last buy" comes in via
// portfolio.LastBuyTime against market.Time.
type Policy interface {
	Decide(m domain.MarketConditions, p domain.PortfolioState, cfg domain.StrategyConfig) domain.TradeDecision
}

// Variant couples one shipped strategy config with its policy. The set is
// closed: adding a variant means adding a config plus (at most) a policy,
// never engine changes.
type Variant struct {
	Config domain.StrategyConfig
	Policy Policy
}

var variants = []Variant{
	{
		Config: domain.StrategyConfig{
			ID:                       "buy-and-hold",
			Name:                     "Buy and Hold",
			Category:                 "passive",
			AllocationPercent:        100,
			BuyAmountPercent:         100,
			BuyFrequencyHours:        0,
			SellAmountPercent:        0,
			MinProfitToSell:          neverSell,
			MaxPositionPercent:       100,
			FearThreshold:            -30,
			ExtremeFearThreshold:     -45,
			GreedRSIThreshold:        70,
			ExtremeGreedRSIThreshold: 80,
		},
		Policy: &BuyAndHold{},
	},
	{
		Config: domain.StrategyConfig{
			ID:                       "dca",
			Name:                     "Fixed Schedule DCA",
			Category:                 "passive",
			AllocationPercent:        100,
			BuyAmountPercent:         5,
			BuyFrequencyHours:        168,
			SellAmountPercent:        0,
			MinProfitToSell:          neverSell,
			MaxPositionPercent:       100,
			FearThreshold:            -30,
			ExtremeFearThreshold:     -45,
			GreedRSIThreshold:        70,
			ExtremeGreedRSIThreshold: 80,
		},
		Policy: &DCA{},
	},
	{
		Config: domain.StrategyConfig{
			ID:                       "conservative",
			Name:                     "Conservative Fear Buyer",
			Category:                 "fear-greed",
			AllocationPercent:        50,
			BuyAmountPercent:         10,
			BuyFrequencyHours:        72,
			SellAmountPercent:        15,
			MinProfitToSell:          20,
			MaxPositionPercent:       60,
			FearThreshold:            -30,
			ExtremeFearThreshold:     -50,
			GreedRSIThreshold:        75,
			ExtremeGreedRSIThreshold: 85,
		},
		Policy: &FearGreed{Profile: ProfileConservative},
	},
	{
		Config: domain.StrategyConfig{
			ID:                       "balanced",
			Name:                     "Balanced Fear Buyer",
			Category:                 "fear-greed",
			AllocationPercent:        70,
			BuyAmountPercent:         15,
			BuyFrequencyHours:        48,
			SellAmountPercent:        20,
			MinProfitToSell:          15,
			MaxPositionPercent:       80,
			MinPositionPercent:       5,
			FearThreshold:            -25,
			ExtremeFearThreshold:     -45,
			GreedRSIThreshold:        70,
			ExtremeGreedRSIThreshold: 80,
		},
		Policy: &FearGreed{Profile: ProfileBalanced},
	},
	{
		Config: domain.StrategyConfig{
			ID:                       "aggressive",
			Name:                     "Aggressive Fear Buyer",
			Category:                 "fear-greed",
			AllocationPercent:        90,
			BuyAmountPercent:         25,
			BuyFrequencyHours:        24,
			SellAmountPercent:        25,
			MinProfitToSell:          10,
			MaxPositionPercent:       95,
			MinPositionPercent:       15,
			FearThreshold:            -20,
			ExtremeFearThreshold:     -40,
			GreedRSIThreshold:        68,
			ExtremeGreedRSIThreshold: 78,
		},
		Policy: &FearGreed{Profile: ProfileAggressive},
	},
	{
		Config: domain.StrategyConfig{
			ID:                       "trend-follower",
			Name:                     "MA Trend Follower",
			Category:                 "trend",
			AllocationPercent:        80,
			BuyAmountPercent:         30,
			BuyFrequencyHours:        24,
			SellAmountPercent:        100,
			MinProfitToSell:          0,
			MaxPositionPercent:       90,
			FearThreshold:            -30,
			ExtremeFearThreshold:     -45,
			GreedRSIThreshold:        70,
			ExtremeGreedRSIThreshold: 80,
		},
		Policy: &TrendFollower{},
	},
	{
		Config: domain.StrategyConfig{
			ID:                       "dip-buyer",
			Name:                     "ATH Dip Buyer",
			Category:                 "fear-greed",
			AllocationPercent:        70,
			BuyAmountPercent:         20,
			BuyFrequencyHours:        48,
			SellAmountPercent:        30,
			MinProfitToSell:          12,
			MaxPositionPercent:       85,
			FearThreshold:            -30,
			ExtremeFearThreshold:     -50,
			GreedRSIThreshold:        70,
			ExtremeGreedRSIThreshold: 80,
			Extra: map[string]float64{
				"dip_threshold":      -25,
				"deep_dip_threshold": -40,
				"recovery_threshold": -5,
			},
		},
		Policy: &DipBuyer{},
	},
}

// Variants returns all shipped strategy variants in a stable order.
func Variants() []Variant {
	out := make([]Variant, len(variants))
	copy(out, variants)
	return out
}

// Get returns the variant for id, or ErrNotFound.
func Get(id string) (Variant, error) {
	for _, v := range variants {
		if v.Config.ID == id {
			return v, nil
		}
	}
	return Variant{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}
