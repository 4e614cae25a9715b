package regime

import (
	"testing"

	"satstacker/internal/domain"
)

func defaultConfig() domain.StrategyConfig {
	return domain.StrategyConfig{
		FearThreshold:            -30,
		ExtremeFearThreshold:     -45,
		GreedRSIThreshold:        70,
		ExtremeGreedRSIThreshold: 80,
	}
}

func f(v float64) *float64 { return &v }

func TestFromScoreBreakpoints(t *testing.T) {
	t.Parallel()

	// Sweep the full score range and assert the fixed step function.
	for score := -100; score <= 100; score++ {
		got := FromScore(score)
		var want domain.Regime
		switch {
		case score <= -50:
			want = domain.RegimeExtremeFear
		case score <= -20:
			want = domain.RegimeFear
		case score >= 50:
			want = domain.RegimeExtremeGreed
		case score >= 20:
			want = domain.RegimeGreed
		default:
			want = domain.RegimeNeutral
		}
		if got != want {
			t.Fatalf("score %d: expected %s, got %s", score, want, got)
		}
	}
}

func TestClassifyDeepCrash(t *testing.T) {
	t.Parallel()

	// 50% below a $60k ATH, RSI 25, MA200 deviation -25%, death cross:
	// -40 -30 -20 -10 = -100 -> extreme fear.
	in := Input{
		Price:          30000,
		RSI:            25,
		MA50:           f(36000),
		MA200:          f(40000),
		PercentFromATH: -50,
	}
	res := Classify(in, defaultConfig())
	if res.Score != -100 {
		t.Fatalf("expected score -100, got %d", res.Score)
	}
	if res.Regime != domain.RegimeExtremeFear {
		t.Fatalf("expected extreme_fear, got %s", res.Regime)
	}
	if len(res.Signals) != 4 {
		t.Fatalf("expected 4 contributing signals, got %d: %v", len(res.Signals), res.Signals)
	}
}

func TestClassifyFlatSeriesRSIBucket(t *testing.T) {
	t.Parallel()

	// A flat series reads RSI 100, which lands in the extreme-greed RSI
	// bucket (+30), not the neutral band.
	in := Input{
		Price:          100,
		RSI:            100,
		PercentFromATH: 0,
	}
	res := Classify(in, defaultConfig())
	// +20 near-ATH, +30 extreme-greed RSI; MA factors skipped.
	if res.Score != 50 {
		t.Fatalf("expected score 50, got %d", res.Score)
	}
	if res.Regime != domain.RegimeExtremeGreed {
		t.Fatalf("expected extreme_greed, got %s", res.Regime)
	}
}

func TestClassifySkipsUndefinedMAs(t *testing.T) {
	t.Parallel()

	in := Input{
		Price:          100,
		RSI:            50,
		MA50:           nil,
		MA200:          nil,
		PercentFromATH: -20,
	}
	res := Classify(in, defaultConfig())
	if res.Score != 0 {
		t.Fatalf("expected neutral factors only, got score %d", res.Score)
	}
	if res.Regime != domain.RegimeNeutral {
		t.Fatalf("expected neutral, got %s", res.Regime)
	}
}

func TestClassifyPerStrategyThresholds(t *testing.T) {
	t.Parallel()

	in := Input{Price: 100, RSI: 50, PercentFromATH: -35}

	cautious := defaultConfig()
	cautious.FearThreshold = -30

	relaxed := defaultConfig()
	relaxed.FearThreshold = -40
	relaxed.ExtremeFearThreshold = -60

	if got := Classify(in, cautious).Score; got != -25 {
		t.Fatalf("cautious config: expected -25, got %d", got)
	}
	if got := Classify(in, relaxed).Score; got != 0 {
		t.Fatalf("relaxed config: expected 0, got %d", got)
	}
}

func TestClassifyGoldenCrossExtended(t *testing.T) {
	t.Parallel()

	in := Input{
		Price:          160,
		RSI:            75,
		MA50:           f(130),
		MA200:          f(100),
		PercentFromATH: -2,
	}
	res := Classify(in, defaultConfig())
	// +20 near ATH, +20 RSI greed, +20 extended above MA200, +10 golden cross.
	if res.Score != 70 {
		t.Fatalf("expected score 70, got %d", res.Score)
	}
	if res.Regime != domain.RegimeExtremeGreed {
		t.Fatalf("expected extreme_greed, got %s", res.Regime)
	}
}
