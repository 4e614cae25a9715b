package job

import (
	"context"
	"log"
	"time"

	"satstacker/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// CandlePoller runs background goroutines that periodically fetch and store
// price and candle data, keeping the bar history the engine reads fresh.
type CandlePoller struct {
	tracer       trace.Tracer
	priceService PriceDataRefresher
	pollInterval time.Duration
}

type PriceDataRefresher interface {
	RefreshPrices(ctx context.Context) error
	RefreshIntradayCandles(ctx context.Context, symbol string) error
	RefreshDailyCandles(ctx context.Context, symbol string) error
}

func NewCandlePoller(tracer trace.Tracer, priceService PriceDataRefresher, pollIntervalSecs int) *CandlePoller {
	return &CandlePoller{
		tracer:       tracer,
		priceService: priceService,
		pollInterval: time.Duration(pollIntervalSecs) * time.Second,
	}
}

// Start launches background polling goroutines. Blocks until ctx is cancelled.
func (p *CandlePoller) Start(ctx context.Context) {
	log.Println("Candle poller starting...")

	// Tier 1: current prices every pollInterval (default 60s).
	go p.pollLoop(ctx, "current-prices", p.pollInterval, func(ctx context.Context) error {
		return p.priceService.RefreshPrices(ctx)
	})

	// Tier 2: intraday candles, 2 coins every 5 minutes, round-robin.
	go p.pollIntradayCandles(ctx)

	// Tier 3: daily candles, 1 coin every 30 minutes, round-robin.
	go p.pollDailyCandles(ctx)

	<-ctx.Done()
	log.Println("Candle poller stopped")
}

func (p *CandlePoller) pollLoop(ctx context.Context, name string, interval time.Duration, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		log.Printf("poller %s initial run error: %v", name, err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := fn(ctx); err != nil {
				log.Printf("poller %s error: %v", name, err)
			}
		}
	}
}

func (p *CandlePoller) pollIntradayCandles(ctx context.Context) {
	// Stagger with the price poller to spread API calls.
	select {
	case <-ctx.Done():
		return
	case <-time.After(10 * time.Second):
	}

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	coinIndex := 0
	coinsPerTick := 2

	p.fetchIntradayBatch(ctx, &coinIndex, coinsPerTick)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.fetchIntradayBatch(ctx, &coinIndex, coinsPerTick)
		}
	}
}

func (p *CandlePoller) fetchIntradayBatch(ctx context.Context, coinIndex *int, count int) {
	symbols := domain.SupportedSymbols
	for i := 0; i < count; i++ {
		symbol := symbols[*coinIndex%len(symbols)]
		*coinIndex++

		if err := p.priceService.RefreshIntradayCandles(ctx, symbol); err != nil {
			log.Printf("intraday candle refresh error for %s: %v", symbol, err)
		}
	}
}

func (p *CandlePoller) pollDailyCandles(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(30 * time.Second):
	}

	ticker := time.NewTicker(30 * time.Minute)
	defer ticker.Stop()

	coinIndex := 0

	p.fetchDailyBatch(ctx, &coinIndex)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.fetchDailyBatch(ctx, &coinIndex)
		}
	}
}

func (p *CandlePoller) fetchDailyBatch(ctx context.Context, coinIndex *int) {
	symbols := domain.SupportedSymbols
	symbol := symbols[*coinIndex%len(symbols)]
	*coinIndex++

	if err := p.priceService.RefreshDailyCandles(ctx, symbol); err != nil {
		log.Printf("daily candle refresh error for %s: %v", symbol, err)
	}
}
