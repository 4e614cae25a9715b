package ta

import "math"

// SMA returns the arithmetic mean of the last period closes. The second
// return is false when fewer than period values are available; callers must
// treat that as "insufficient data", never as zero.
func SMA(closes []float64, period int) (float64, bool) {
	if period <= 0 || len(closes) < period {
		return 0, false
	}
	var sum float64
	for _, v := range closes[len(closes)-period:] {
		sum += v
	}
	return sum / float64(period), true
}

// RSI computes a simple (non-smoothed) relative strength index over the last
// period bar-to-bar changes. With fewer than period+1 closes it returns the
// neutral default 50.
//
// When avgLoss is zero the result is 100 even for a perfectly flat series
// (avgGain also zero). Inherited behavior; kept for parity with the live
// decision path.
func RSI(closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period+1 {
		return 50
	}

	var gains float64
	var losses float64
	start := len(closes) - period
	for i := start; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// MeanStd returns the mean and population standard deviation of values.
func MeanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}

// ATHTracker keeps a running maximum of bar highs. It may be seeded with a
// known historical peak that predates the available series.
type ATHTracker struct {
	high float64
}

// NewATHTracker returns a tracker seeded with the given peak (0 for none).
func NewATHTracker(seed float64) *ATHTracker {
	return &ATHTracker{high: seed}
}

// Observe feeds one bar high into the tracker.
func (a *ATHTracker) Observe(high float64) {
	if high > a.high {
		a.high = high
	}
}

// High returns the running all-time high, or 0 if nothing observed yet.
func (a *ATHTracker) High() float64 {
	return a.high
}

// PercentFromATH returns how far price sits from the running high, in
// percent. Typically <= 0; a fresh high reads as 0 modulo float noise.
func (a *ATHTracker) PercentFromATH(price float64) float64 {
	if a.high == 0 {
		return 0
	}
	return (price - a.high) / a.high * 100
}
