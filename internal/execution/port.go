package execution

import (
	"context"

	"satstacker/internal/domain"
)

// Port places orders and returns confirmed fills. The engine only depends
// on this abstraction; the ledger is mutated after a fill confirms, never
// optimistically before.
type Port interface {
	// Buy spends usdAmount at market and returns the fill.
	Buy(ctx context.Context, symbol string, usdAmount float64) (domain.Fill, error)
	// Sell disposes assetAmount units at market and returns the fill.
	Sell(ctx context.Context, symbol string, assetAmount float64) (domain.Fill, error)
}
