package ledger

import (
	"fmt"
	"time"

	"satstacker/internal/domain"
)

// SellResult breaks down one sell for trade recording.
type SellResult struct {
	CostBasisPortion float64
	Profit           float64
	ProfitPercent    float64
}

// New returns an empty open position for one strategy.
func New() *domain.Position {
	return &domain.Position{Status: domain.PositionOpen}
}

// ApplyBuy adds a confirmed buy fill to the position. fillCost is the USD
// notional; fees never enter the cost basis.
func ApplyBuy(p *domain.Position, fillAmount, fillCost float64, at time.Time) error {
	if fillAmount <= 0 || fillCost <= 0 {
		return fmt.Errorf("invalid buy fill: amount=%v cost=%v", fillAmount, fillCost)
	}

	p.Amount += fillAmount
	p.CostBasis += fillCost
	p.AvgEntryPrice = p.CostBasis / p.Amount
	p.TotalBuys++
	if p.FirstActivityAt.IsZero() {
		p.FirstActivityAt = at
	}
	if p.Status == domain.PositionClosed {
		p.Status = domain.PositionOpen
	}
	return nil
}

// ApplySell removes a confirmed sell fill from the position and realizes
// profit against the weighted-average entry price. The average entry price
// is never recomputed on a sell.
func ApplySell(p *domain.Position, fillAmount, fillProceeds, fee float64) (SellResult, error) {
	if fillAmount <= 0 {
		return SellResult{}, fmt.Errorf("invalid sell fill amount: %v", fillAmount)
	}
	if fillAmount > p.Amount {
		return SellResult{}, fmt.Errorf("sell amount %v exceeds position %v", fillAmount, p.Amount)
	}

	costBasisPortion := p.AvgEntryPrice * fillAmount
	profit := fillProceeds - costBasisPortion - fee

	profitPercent := 0.0
	if costBasisPortion > 0 {
		profitPercent = profit / costBasisPortion * 100
	}

	p.Amount -= fillAmount
	p.CostBasis -= costBasisPortion
	if p.CostBasis < 0 {
		// Clamp rounding drift; the basis must never go negative.
		p.CostBasis = 0
	}
	p.RealizedProfit += profit
	p.TotalSells++

	if p.Amount <= 0 {
		p.Amount = 0
		p.CostBasis = 0
		p.Status = domain.PositionClosed
	} else {
		p.Status = domain.PositionPartial
	}

	return SellResult{
		CostBasisPortion: costBasisPortion,
		Profit:           profit,
		ProfitPercent:    profitPercent,
	}, nil
}

// PortfolioState derives the read-only policy input from a position, free
// cash, current price and the explicit last-buy time.
func PortfolioState(p *domain.Position, cash, price float64, lastBuy time.Time) domain.PortfolioState {
	cryptoValue := p.Amount * price

	state := domain.PortfolioState{
		Cash:          cash,
		CryptoAmount:  p.Amount,
		CryptoValue:   cryptoValue,
		TotalValue:    cash + cryptoValue,
		CostBasis:     p.CostBasis,
		AvgEntryPrice: p.AvgEntryPrice,
		LastBuyTime:   lastBuy,
	}
	if p.CostBasis > 0 {
		state.UnrealizedPnLPercent = (cryptoValue - p.CostBasis) / p.CostBasis * 100
	}
	return state
}
