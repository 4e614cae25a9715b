package job

import (
	"context"
	"testing"
	"time"

	"satstacker/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

func TestNewCandlePollerInterval(t *testing.T) {
	tracer := trace.NewNoopTracerProvider().Tracer("test")
	poller := NewCandlePoller(tracer, &stubPriceService{}, 2)
	if poller.pollInterval != 2*time.Second {
		t.Fatalf("expected 2s interval, got %v", poller.pollInterval)
	}
}

func TestCandlePollerStart(t *testing.T) {
	t.Parallel()

	tracer := trace.NewNoopTracerProvider().Tracer("test")
	stub := &stubPriceService{}
	poller := NewCandlePoller(tracer, stub, 1)

	ctx, cancel := context.WithCancel(context.Background())
	go poller.Start(ctx)

	eventually(t, func() bool { return stub.refreshPricesCalls > 0 })
	cancel()
}

func TestFetchIntradayBatch(t *testing.T) {
	tracer := trace.NewNoopTracerProvider().Tracer("test")
	stub := &stubPriceService{}
	poller := NewCandlePoller(tracer, stub, 1)

	idx := 0
	poller.fetchIntradayBatch(context.Background(), &idx, 3)

	if len(stub.intradaySymbols) != 3 {
		t.Fatalf("expected 3 symbols, got %d", len(stub.intradaySymbols))
	}
	if stub.intradaySymbols[0] != domain.SupportedSymbols[0] {
		t.Fatalf("unexpected symbol order: %+v", stub.intradaySymbols)
	}
}

func TestFetchDailyBatch(t *testing.T) {
	tracer := trace.NewNoopTracerProvider().Tracer("test")
	stub := &stubPriceService{}
	poller := NewCandlePoller(tracer, stub, 1)

	idx := 0
	poller.fetchDailyBatch(context.Background(), &idx)

	if len(stub.dailySymbols) != 1 {
		t.Fatalf("expected 1 symbol, got %d", len(stub.dailySymbols))
	}
	if stub.dailySymbols[0] != domain.SupportedSymbols[0] {
		t.Fatalf("unexpected symbol: %+v", stub.dailySymbols)
	}
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(100 * time.Millisecond)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met")
}

type stubPriceService struct {
	refreshPricesCalls int
	intradaySymbols    []string
	dailySymbols       []string
}

func (s *stubPriceService) RefreshPrices(ctx context.Context) error {
	s.refreshPricesCalls++
	return nil
}

func (s *stubPriceService) RefreshIntradayCandles(ctx context.Context, symbol string) error {
	s.intradaySymbols = append(s.intradaySymbols, symbol)
	return nil
}

func (s *stubPriceService) RefreshDailyCandles(ctx context.Context, symbol string) error {
	s.dailySymbols = append(s.dailySymbols, symbol)
	return nil
}
