package job

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"
)

type stubTicker struct {
	mu      sync.Mutex
	calls   int
	active  int
	overlap bool
	delay   time.Duration
	err     error
}

func (s *stubTicker) Tick(ctx context.Context) error {
	s.mu.Lock()
	s.calls++
	s.active++
	if s.active > 1 {
		s.overlap = true
	}
	s.mu.Unlock()

	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	s.mu.Lock()
	s.active--
	s.mu.Unlock()
	return s.err
}

func (s *stubTicker) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestNewTraderJobInterval(t *testing.T) {
	tracer := trace.NewNoopTracerProvider().Tracer("test")
	job := NewTraderJob(tracer, &stubTicker{}, 3600)
	if job.interval != time.Hour {
		t.Fatalf("expected 1h interval, got %v", job.interval)
	}
}

func TestTraderJobTicksImmediatelyAndStops(t *testing.T) {
	t.Parallel()

	tracer := trace.NewNoopTracerProvider().Tracer("test")
	stub := &stubTicker{}
	job := NewTraderJob(tracer, stub, 1)

	ctx, cancel := context.WithCancel(context.Background())
	go job.Start(ctx)

	eventually(t, func() bool { return stub.callCount() > 0 })
	cancel()
}

func TestTraderJobTicksNeverOverlap(t *testing.T) {
	t.Parallel()

	tracer := trace.NewNoopTracerProvider().Tracer("test")
	stub := &stubTicker{delay: 30 * time.Millisecond}
	job := NewTraderJob(tracer, stub, 1)
	job.interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	go job.Start(ctx)

	time.Sleep(120 * time.Millisecond)
	cancel()

	stub.mu.Lock()
	defer stub.mu.Unlock()
	if stub.overlap {
		t.Fatal("ticks overlapped")
	}
	if stub.calls < 2 {
		t.Fatalf("expected multiple ticks, got %d", stub.calls)
	}
}

func TestTraderJobSurvivesTickError(t *testing.T) {
	t.Parallel()

	tracer := trace.NewNoopTracerProvider().Tracer("test")
	stub := &stubTicker{err: errors.New("tick failed")}
	job := NewTraderJob(tracer, stub, 1)
	job.interval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	go job.Start(ctx)

	eventually(t, func() bool { return stub.callCount() >= 2 })
	cancel()
}
