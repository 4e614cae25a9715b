package regime

import (
	"fmt"

	"satstacker/internal/domain"
)

// Input carries the indicator values one classification step needs.
// MA50 and MA200 are nil when the series is too short; factors that depend
// on them are skipped rather than guessed.
type Input struct {
	Price          float64
	RSI            float64
	MA50           *float64
	MA200          *float64
	PercentFromATH float64
}

// Result is the composite score with its factor breakdown.
type Result struct {
	Score   int
	Regime  domain.Regime
	Signals []string
}

// Classify computes the signed composite score from four independent
// factors using the strategy's own thresholds, so two strategies can
// disagree on the regime for the same bar.
func Classify(in Input, cfg domain.StrategyConfig) Result {
	score := 0
	var signals []string

	// Factor 1: distance from the all-time high.
	switch {
	case in.PercentFromATH <= cfg.ExtremeFearThreshold:
		score -= 40
		signals = append(signals, fmt.Sprintf("price %.1f%% below ATH (extreme fear zone)", -in.PercentFromATH))
	case in.PercentFromATH <= cfg.FearThreshold:
		score -= 25
		signals = append(signals, fmt.Sprintf("price %.1f%% below ATH (fear zone)", -in.PercentFromATH))
	case in.PercentFromATH >= -10:
		score += 20
		signals = append(signals, fmt.Sprintf("price %.1f%% from ATH (near highs)", in.PercentFromATH))
	}

	// Factor 2: RSI band.
	switch {
	case in.RSI >= cfg.ExtremeGreedRSIThreshold:
		score += 30
		signals = append(signals, fmt.Sprintf("RSI %.0f extremely overbought", in.RSI))
	case in.RSI >= cfg.GreedRSIThreshold:
		score += 20
		signals = append(signals, fmt.Sprintf("RSI %.0f overbought", in.RSI))
	case in.RSI <= 30:
		score -= 30
		signals = append(signals, fmt.Sprintf("RSI %.0f oversold", in.RSI))
	case in.RSI <= 40:
		score -= 15
		signals = append(signals, fmt.Sprintf("RSI %.0f weak", in.RSI))
	}

	// Factor 3: deviation from the 200-period MA. Skipped while undefined.
	if in.MA200 != nil && *in.MA200 > 0 {
		dev := (in.Price - *in.MA200) / *in.MA200 * 100
		switch {
		case dev < -20:
			score -= 20
			signals = append(signals, fmt.Sprintf("price %.1f%% below MA200", -dev))
		case dev < 0:
			score -= 10
			signals = append(signals, fmt.Sprintf("price %.1f%% below MA200", -dev))
		case dev > 50:
			score += 20
			signals = append(signals, fmt.Sprintf("price %.1f%% above MA200 (extended)", dev))
		case dev > 20:
			score += 10
			signals = append(signals, fmt.Sprintf("price %.1f%% above MA200", dev))
		}
	}

	// Factor 4: 50/200 MA cross. Skipped while either is undefined.
	if in.MA50 != nil && in.MA200 != nil {
		switch {
		case *in.MA50 > *in.MA200*1.05:
			score += 10
			signals = append(signals, "golden cross (MA50 above MA200)")
		case *in.MA50 < *in.MA200*0.95:
			score -= 10
			signals = append(signals, "death cross (MA50 below MA200)")
		}
	}

	return Result{
		Score:   score,
		Regime:  FromScore(score),
		Signals: signals,
	}
}

// FromScore maps a composite score to a regime. The breakpoints are fixed;
// only the per-factor thresholds vary by strategy.
func FromScore(score int) domain.Regime {
	switch {
	case score <= -50:
		return domain.RegimeExtremeFear
	case score <= -20:
		return domain.RegimeFear
	case score >= 50:
		return domain.RegimeExtremeGreed
	case score >= 20:
		return domain.RegimeGreed
	default:
		return domain.RegimeNeutral
	}
}
