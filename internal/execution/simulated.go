package execution

import (
	"context"
	"fmt"

	"satstacker/internal/domain"
)

// DefaultFeeRate is the flat taker fee applied to simulated fills.
const DefaultFeeRate = 0.001

// Simulated fills orders deterministically at the current mark price with a
// fixed fee rate. The backtest runner advances the mark price bar by bar.
type Simulated struct {
	feeRate float64
	price   float64
}

func NewSimulated(feeRate float64) *Simulated {
	if feeRate < 0 {
		feeRate = DefaultFeeRate
	}
	return &Simulated{feeRate: feeRate}
}

// SetPrice sets the mark price used for subsequent fills.
func (s *Simulated) SetPrice(price float64) {
	s.price = price
}

func (s *Simulated) Buy(ctx context.Context, symbol string, usdAmount float64) (domain.Fill, error) {
	if err := ctx.Err(); err != nil {
		return domain.Fill{}, err
	}
	if s.price <= 0 {
		return domain.Fill{}, fmt.Errorf("no mark price for %s", symbol)
	}
	if usdAmount <= 0 {
		return domain.Fill{}, fmt.Errorf("invalid buy amount: %v", usdAmount)
	}

	return domain.Fill{
		Amount: usdAmount / s.price,
		Price:  s.price,
		Cost:   usdAmount,
		Fee:    usdAmount * s.feeRate,
	}, nil
}

func (s *Simulated) Sell(ctx context.Context, symbol string, assetAmount float64) (domain.Fill, error) {
	if err := ctx.Err(); err != nil {
		return domain.Fill{}, err
	}
	if s.price <= 0 {
		return domain.Fill{}, fmt.Errorf("no mark price for %s", symbol)
	}
	if assetAmount <= 0 {
		return domain.Fill{}, fmt.Errorf("invalid sell amount: %v", assetAmount)
	}

	proceeds := assetAmount * s.price
	return domain.Fill{
		Amount: assetAmount,
		Price:  s.price,
		Cost:   proceeds,
		Fee:    proceeds * s.feeRate,
	}, nil
}
