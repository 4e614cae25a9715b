package strategy

import (
	"strings"
	"testing"
	"time"

	"satstacker/internal/domain"
)

var barTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func market(regime domain.Regime, score int) domain.MarketConditions {
	return domain.MarketConditions{
		Time:        barTime,
		Price:       50000,
		RSI:         50,
		Regime:      regime,
		RegimeScore: score,
	}
}

func portfolio(cash, amount, price float64) domain.PortfolioState {
	cryptoValue := amount * price
	return domain.PortfolioState{
		Cash:         cash,
		CryptoAmount: amount,
		CryptoValue:  cryptoValue,
		TotalValue:   cash + cryptoValue,
	}
}

func mustGet(t *testing.T, id string) Variant {
	t.Helper()
	v, err := Get(id)
	if err != nil {
		t.Fatalf("unexpected error for %s: %v", id, err)
	}
	return v
}

func TestGetUnknownStrategy(t *testing.T) {
	t.Parallel()

	if _, err := Get("martingale"); err == nil {
		t.Fatal("expected not-found error")
	}
}

func TestVariantsClosedSet(t *testing.T) {
	t.Parallel()

	all := Variants()
	if len(all) != 7 {
		t.Fatalf("expected 7 shipped variants, got %d", len(all))
	}
	seen := map[string]bool{}
	for _, v := range all {
		if seen[v.Config.ID] {
			t.Fatalf("duplicate variant id %s", v.Config.ID)
		}
		seen[v.Config.ID] = true
		if v.Policy == nil {
			t.Fatalf("variant %s has no policy", v.Config.ID)
		}
	}
}

func TestBuyAndHoldEntersOnce(t *testing.T) {
	t.Parallel()

	v := mustGet(t, "buy-and-hold")

	d := v.Policy.Decide(market(domain.RegimeNeutral, 0), portfolio(10000, 0, 50000), v.Config)
	if d.Action != domain.ActionBuy {
		t.Fatalf("expected buy, got %s (%s)", d.Action, d.Reason)
	}
	if d.Amount > 10000*0.98 {
		t.Fatalf("buy should leave the cash buffer, got %v", d.Amount)
	}

	d = v.Policy.Decide(market(domain.RegimeExtremeGreed, 80), portfolio(200, 0.19, 50000), v.Config)
	if d.Action != domain.ActionHold {
		t.Fatalf("expected hold once holding, got %s", d.Action)
	}
}

func TestDCARespectsSchedule(t *testing.T) {
	t.Parallel()

	v := mustGet(t, "dca")

	p := portfolio(10000, 0, 50000)
	p.LastBuyTime = barTime.Add(-time.Duration(v.Config.BuyFrequencyHours)*time.Hour + time.Hour)
	d := v.Policy.Decide(market(domain.RegimeExtremeFear, -80), p, v.Config)
	if d.Action != domain.ActionHold {
		t.Fatalf("expected schedule to block the buy, got %s", d.Action)
	}

	p.LastBuyTime = barTime.Add(-time.Duration(v.Config.BuyFrequencyHours) * time.Hour)
	d = v.Policy.Decide(market(domain.RegimeNeutral, 0), p, v.Config)
	if d.Action != domain.ActionBuy {
		t.Fatalf("expected scheduled buy, got %s (%s)", d.Action, d.Reason)
	}
	if d.Amount != 10000*v.Config.BuyAmountPercent/100 {
		t.Fatalf("unexpected buy size %v", d.Amount)
	}
}

func TestConservativeSellGate(t *testing.T) {
	t.Parallel()

	// minProfitToSell=20, unrealized +12% in a greed regime: hold, not sell.
	v := mustGet(t, "conservative")
	if v.Config.MinProfitToSell != 20 {
		t.Fatalf("fixture expects minProfitToSell 20, got %v", v.Config.MinProfitToSell)
	}

	p := portfolio(5000, 0.1, 50000)
	p.CostBasis = 4464.29
	p.AvgEntryPrice = 44642.9
	p.UnrealizedPnLPercent = 12

	d := v.Policy.Decide(market(domain.RegimeExtremeGreed, 60), p, v.Config)
	if d.Action != domain.ActionHold {
		t.Fatalf("expected hold below the sell gate, got %s (%s)", d.Action, d.Reason)
	}
	if !strings.Contains(d.Reason, "sell gate") {
		t.Fatalf("expected gate reason, got %q", d.Reason)
	}
}

func TestConservativeOnlyBuysExtremeFear(t *testing.T) {
	t.Parallel()

	v := mustGet(t, "conservative")
	p := portfolio(10000, 0, 50000)

	if d := v.Policy.Decide(market(domain.RegimeFear, -30), p, v.Config); d.Action != domain.ActionHold {
		t.Fatalf("conservative should not buy plain fear, got %s", d.Action)
	}
	if d := v.Policy.Decide(market(domain.RegimeExtremeFear, -70), p, v.Config); d.Action != domain.ActionBuy {
		t.Fatalf("expected buy in extreme fear, got %s", d.Action)
	}
}

func TestAggressiveExtremeFearSizingAndThrottle(t *testing.T) {
	t.Parallel()

	v := mustGet(t, "aggressive")

	p := portfolio(10000, 0.05, 50000)
	p.LastBuyTime = barTime.Add(-13 * time.Hour)

	// 13h elapsed beats the halved 12h throttle in extreme fear.
	d := v.Policy.Decide(market(domain.RegimeExtremeFear, -80), p, v.Config)
	if d.Action != domain.ActionBuy {
		t.Fatalf("expected buy, got %s (%s)", d.Action, d.Reason)
	}
	want := 10000 * v.Config.BuyAmountPercent / 100 * 2
	if d.Amount != want {
		t.Fatalf("expected 2x sizing %v, got %v", want, d.Amount)
	}

	// The same elapsed time in plain fear stays throttled (24h).
	d = v.Policy.Decide(market(domain.RegimeFear, -30), p, v.Config)
	if d.Action != domain.ActionHold {
		t.Fatalf("expected throttled hold in fear, got %s", d.Action)
	}
}

func TestPositionCeilingSuppressesBuys(t *testing.T) {
	t.Parallel()

	v := mustGet(t, "aggressive")

	// 96% allocated against a 95% cap.
	p := portfolio(400, 0.192, 50000)
	d := v.Policy.Decide(market(domain.RegimeExtremeFear, -80), p, v.Config)
	if d.Action != domain.ActionHold {
		t.Fatalf("expected ceiling hold, got %s (%s)", d.Action, d.Reason)
	}
}

func TestAggressiveFloorRebalanceOverridesRegime(t *testing.T) {
	t.Parallel()

	v := mustGet(t, "aggressive")

	// 5% allocated against a 15% floor, in a neutral regime where the
	// normal gate would never buy.
	p := portfolio(9500, 0.01, 50000)
	d := v.Policy.Decide(market(domain.RegimeNeutral, 0), p, v.Config)
	if d.Action != domain.ActionBuy {
		t.Fatalf("expected floor rebalance buy, got %s (%s)", d.Action, d.Reason)
	}
	target := v.Config.MinPositionPercent / 100 * p.TotalValue
	if got := p.CryptoValue + d.Amount; got > target+1 {
		t.Fatalf("rebalance overshoots floor: %v > %v", got, target)
	}
}

func TestBalancedSellFloorCap(t *testing.T) {
	t.Parallel()

	v := mustGet(t, "balanced")

	p := portfolio(100, 0.04, 50000)
	p.CostBasis = 1000
	p.AvgEntryPrice = 25000
	p.UnrealizedPnLPercent = 100

	d := v.Policy.Decide(market(domain.RegimeExtremeGreed, 70), p, v.Config)
	if d.Action != domain.ActionSell {
		t.Fatalf("expected sell, got %s (%s)", d.Action, d.Reason)
	}
	remaining := (p.CryptoAmount - d.Amount) * 50000
	floorValue := v.Config.MinPositionPercent / 100 * p.TotalValue
	if remaining < floorValue-1e-6 {
		t.Fatalf("sell dropped below position floor: %v < %v", remaining, floorValue)
	}
}

func TestTrendFollowerSellsBreakAtLoss(t *testing.T) {
	t.Parallel()

	v := mustGet(t, "trend-follower")

	ma50 := 45000.0
	ma200 := 48000.0
	m := market(domain.RegimeNeutral, 0)
	m.MA50 = &ma50
	m.MA200 = &ma200

	p := portfolio(1000, 0.1, 50000)
	p.CostBasis = 6000
	p.AvgEntryPrice = 60000
	p.UnrealizedPnLPercent = -16.7

	// Underwater, but the trend break sells anyway: intentional policy.
	d := v.Policy.Decide(m, p, v.Config)
	if d.Action != domain.ActionSell {
		t.Fatalf("expected trend-break sell, got %s (%s)", d.Action, d.Reason)
	}
	if d.Amount != p.CryptoAmount {
		t.Fatalf("expected full exit, got %v of %v", d.Amount, p.CryptoAmount)
	}
}

func TestTrendFollowerBuysUptrend(t *testing.T) {
	t.Parallel()

	v := mustGet(t, "trend-follower")

	ma50 := 52000.0
	ma200 := 48000.0
	m := market(domain.RegimeGreed, 30)
	m.MA50 = &ma50
	m.MA200 = &ma200

	d := v.Policy.Decide(m, portfolio(10000, 0, 50000), v.Config)
	if d.Action != domain.ActionBuy {
		t.Fatalf("expected uptrend buy, got %s (%s)", d.Action, d.Reason)
	}
}

func TestTrendFollowerHoldsWithoutMAs(t *testing.T) {
	t.Parallel()

	v := mustGet(t, "trend-follower")
	d := v.Policy.Decide(market(domain.RegimeExtremeFear, -80), portfolio(10000, 0, 50000), v.Config)
	if d.Action != domain.ActionHold {
		t.Fatalf("expected hold without MAs, got %s", d.Action)
	}
}

func TestDipBuyerBuysDeepDipBigger(t *testing.T) {
	t.Parallel()

	v := mustGet(t, "dip-buyer")

	m := market(domain.RegimeFear, -30)
	m.PercentFromATH = -45

	p := portfolio(10000, 0, 50000)
	d := v.Policy.Decide(m, p, v.Config)
	if d.Action != domain.ActionBuy {
		t.Fatalf("expected dip buy, got %s (%s)", d.Action, d.Reason)
	}
	want := 10000 * v.Config.BuyAmountPercent / 100 * 1.5
	if d.Amount != want {
		t.Fatalf("expected deep-dip sizing %v, got %v", want, d.Amount)
	}

	m.PercentFromATH = -10
	if d := v.Policy.Decide(m, p, v.Config); d.Action != domain.ActionHold {
		t.Fatalf("expected hold in a shallow dip, got %s", d.Action)
	}
}

func TestDipBuyerSellsIntoRecovery(t *testing.T) {
	t.Parallel()

	v := mustGet(t, "dip-buyer")

	m := market(domain.RegimeGreed, 30)
	m.PercentFromATH = -2

	p := portfolio(1000, 0.2, 50000)
	p.CostBasis = 6000
	p.AvgEntryPrice = 30000
	p.UnrealizedPnLPercent = 66.7

	d := v.Policy.Decide(m, p, v.Config)
	if d.Action != domain.ActionSell {
		t.Fatalf("expected recovery sell, got %s (%s)", d.Action, d.Reason)
	}
}

func TestDecisionsArePureFunctions(t *testing.T) {
	t.Parallel()

	// The same inputs must always produce the same decision.
	for _, v := range Variants() {
		m := market(domain.RegimeExtremeFear, -80)
		p := portfolio(10000, 0.05, 50000)
		first := v.Policy.Decide(m, p, v.Config)
		for i := 0; i < 5; i++ {
			if got := v.Policy.Decide(m, p, v.Config); got != first {
				t.Fatalf("%s: decision not deterministic: %+v vs %+v", v.Config.ID, first, got)
			}
		}
	}
}
