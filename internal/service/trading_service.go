package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"satstacker/internal/backtest"
	"satstacker/internal/domain"
	"satstacker/internal/execution"
	"satstacker/internal/ledger"
	"satstacker/internal/strategy"
	"satstacker/internal/ta"

	"go.opentelemetry.io/otel/trace"
)

// TradeStore persists executed live trades. May be nil.
type TradeStore interface {
	InsertTrade(ctx context.Context, t *domain.TradeRecord) error
}

// TrailingCandleSource supplies the warm-up history for each tick.
type TrailingCandleSource interface {
	GetTrailingCandles(ctx context.Context, symbol, interval string, limit int) ([]*domain.Candle, error)
}

// TradeNotifier is told about executed trades. May be nil.
type TradeNotifier interface {
	NotifyTrade(t *domain.TradeRecord)
}

// book is one strategy's live portfolio.
type book struct {
	variant   strategy.Variant
	pos       *domain.Position
	cash      float64
	lastBuyAt time.Time
}

// StrategyPortfolio is a read-only view of one strategy's live book.
type StrategyPortfolio struct {
	StrategyID string                `json:"strategy_id"`
	Name       string                `json:"name"`
	State      domain.PortfolioState `json:"state"`
	Realized   float64               `json:"realized_profit"`
}

// TradingService runs the live decision loop: on each tick it derives market
// conditions from stored candles, asks every active strategy for a decision,
// executes through the port, and updates per-strategy ledgers.
type TradingService struct {
	tracer   trace.Tracer
	candles  TrailingCandleSource
	trades   TradeStore
	port     execution.Port
	notifier TradeNotifier

	symbol   string
	interval string
	ath      *ta.ATHTracker

	mu        sync.Mutex
	books     map[string]*book
	lastPrice float64
}

func NewTradingService(
	tracer trace.Tracer,
	candles TrailingCandleSource,
	trades TradeStore,
	port execution.Port,
	notifier TradeNotifier,
	symbol, interval string,
	strategyIDs []string,
	capitalPerStrategy float64,
	athSeed float64,
) (*TradingService, error) {
	books := make(map[string]*book, len(strategyIDs))
	for _, id := range strategyIDs {
		variant, err := strategy.Get(id)
		if err != nil {
			return nil, err
		}
		books[id] = &book{
			variant: variant,
			pos:     ledger.New(),
			cash:    capitalPerStrategy,
		}
	}

	return &TradingService{
		tracer:   tracer,
		candles:  candles,
		trades:   trades,
		port:     port,
		notifier: notifier,
		symbol:   symbol,
		interval: interval,
		ath:      ta.NewATHTracker(athSeed),
		books:    books,
	}, nil
}

// Tick evaluates every active strategy against the latest stored bar.
// Strategies are processed in a fixed order so a replay of the same candle
// history produces the same trades.
func (s *TradingService) Tick(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "trading-service.tick")
	defer span.End()

	history, err := s.candles.GetTrailingCandles(ctx, s.symbol, s.interval, backtest.WarmupBars+100)
	if err != nil {
		return fmt.Errorf("load trailing candles: %w", err)
	}
	if len(history) < backtest.WarmupBars+1 {
		return fmt.Errorf("%w, got %d", backtest.ErrInsufficientData, len(history))
	}

	closes := make([]float64, len(history))
	for i, c := range history {
		s.ath.Observe(c.High)
		closes[i] = c.Close
	}

	bar := history[len(history)-1]
	price := bar.Close

	if sim, ok := s.port.(interface{ SetPrice(float64) }); ok {
		sim.SetPrice(price)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastPrice = price

	for _, id := range s.bookOrder() {
		b := s.books[id]
		conditions := backtest.DeriveConditions(bar, closes, s.ath, b.variant.Config)
		state := ledger.PortfolioState(b.pos, b.cash, price, b.lastBuyAt)

		decision := b.variant.Policy.Decide(conditions, state, b.variant.Config)
		log.Printf("tick %s: %s %s (%s)", id, decision.Action, s.symbol, decision.Reason)

		if err := s.apply(ctx, b, bar, conditions, decision); err != nil {
			log.Printf("apply decision for %s: %v", id, err)
		}
	}
	return nil
}

func (s *TradingService) apply(ctx context.Context, b *book, bar *domain.Candle, m domain.MarketConditions, d domain.TradeDecision) error {
	cfg := b.variant.Config

	switch d.Action {
	case domain.ActionBuy:
		usd := d.Amount
		if usd <= 0 || b.cash < usd*(1+execution.DefaultFeeRate) {
			return nil
		}
		fill, err := s.port.Buy(ctx, bar.Symbol, usd)
		if err != nil {
			return fmt.Errorf("buy: %w", err)
		}
		if err := ledger.ApplyBuy(b.pos, fill.Amount, fill.Cost, bar.OpenTime); err != nil {
			return fmt.Errorf("apply buy: %w", err)
		}
		b.cash -= fill.Cost + fill.Fee
		b.lastBuyAt = bar.OpenTime

		s.record(ctx, domain.TradeRecord{
			StrategyID:  cfg.ID,
			Symbol:      bar.Symbol,
			Action:      domain.ActionBuy,
			Timestamp:   bar.OpenTime,
			Price:       fill.Price,
			Amount:      fill.Amount,
			ValueUSD:    fill.Cost,
			Fee:         fill.Fee,
			Regime:      m.Regime,
			RegimeScore: m.RegimeScore,
			Reason:      d.Reason,
		})

	case domain.ActionSell:
		amount := d.Amount
		if amount > b.pos.Amount {
			amount = b.pos.Amount
		}
		if amount <= 0 {
			return nil
		}
		fill, err := s.port.Sell(ctx, bar.Symbol, amount)
		if err != nil {
			return fmt.Errorf("sell: %w", err)
		}
		sellRes, err := ledger.ApplySell(b.pos, fill.Amount, fill.Cost, fill.Fee)
		if err != nil {
			return fmt.Errorf("apply sell: %w", err)
		}
		b.cash += fill.Cost - fill.Fee

		costBasisPortion := sellRes.CostBasisPortion
		profit := sellRes.Profit
		profitPercent := sellRes.ProfitPercent
		s.record(ctx, domain.TradeRecord{
			StrategyID:       cfg.ID,
			Symbol:           bar.Symbol,
			Action:           domain.ActionSell,
			Timestamp:        bar.OpenTime,
			Price:            fill.Price,
			Amount:           fill.Amount,
			ValueUSD:         fill.Cost,
			Fee:              fill.Fee,
			Regime:           m.Regime,
			RegimeScore:      m.RegimeScore,
			Reason:           d.Reason,
			CostBasisPortion: &costBasisPortion,
			Profit:           &profit,
			ProfitPercent:    &profitPercent,
		})
	}
	return nil
}

func (s *TradingService) record(ctx context.Context, t domain.TradeRecord) {
	if s.trades != nil {
		if err := s.trades.InsertTrade(ctx, &t); err != nil {
			log.Printf("persist trade for %s: %v", t.StrategyID, err)
		}
	}
	if s.notifier != nil {
		s.notifier.NotifyTrade(&t)
	}
}

// Portfolios returns the live book of every active strategy, valued at the
// last tick's price.
func (s *TradingService) Portfolios() []StrategyPortfolio {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]StrategyPortfolio, 0, len(s.books))
	for _, id := range s.bookOrder() {
		b := s.books[id]
		out = append(out, StrategyPortfolio{
			StrategyID: id,
			Name:       b.variant.Config.Name,
			State:      ledger.PortfolioState(b.pos, b.cash, s.lastPrice, b.lastBuyAt),
			Realized:   b.pos.RealizedProfit,
		})
	}
	return out
}

// bookOrder returns strategy ids sorted for deterministic iteration.
// Callers must hold s.mu or be pre-Start.
func (s *TradingService) bookOrder() []string {
	ids := make([]string, 0, len(s.books))
	for id := range s.books {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
