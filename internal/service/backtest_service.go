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
	"satstacker/internal/repository"
	"satstacker/internal/strategy"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// BacktestCandleSource provides the historical series a run replays.
type BacktestCandleSource interface {
	GetCandlesInRange(ctx context.Context, symbol, interval string, from, to time.Time) ([]*domain.Candle, error)
}

// BacktestStore persists runs and their yielded records. May be nil, in
// which case runs live only in memory.
type BacktestStore interface {
	InsertRun(ctx context.Context, run *domain.BacktestRun) error
	UpdateStatus(ctx context.Context, id string, status domain.RunStatus, progress int, errMsg string) error
	SaveResult(ctx context.Context, id string, trades []domain.TradeRecord, snapshots []domain.PortfolioSnapshot, metrics domain.BacktestMetrics, completedAt time.Time) error
	GetRun(ctx context.Context, id string) (*domain.BacktestRun, error)
	ListRuns(ctx context.Context, limit int) ([]*domain.BacktestRun, error)
}

// BacktestService owns the lifecycle of backtest runs: it starts them in
// background goroutines, bounds concurrency, tracks progress for polling,
// and persists the records each run yields. Individual runs share no
// mutable state, so concurrent runs are safe.
type BacktestService struct {
	tracer  trace.Tracer
	candles BacktestCandleSource
	store   BacktestStore
	athSeed float64

	sem chan struct{}

	mu   sync.RWMutex
	runs map[string]*liveRun
}

type liveRun struct {
	run    domain.BacktestRun
	cancel context.CancelFunc
}

func NewBacktestService(tracer trace.Tracer, candles BacktestCandleSource, store BacktestStore, maxConcurrent int, athSeed float64) *BacktestService {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &BacktestService{
		tracer:  tracer,
		candles: candles,
		store:   store,
		athSeed: athSeed,
		sem:     make(chan struct{}, maxConcurrent),
		runs:    make(map[string]*liveRun),
	}
}

// StartRun validates the request, registers a pending run, and launches it
// in the background. Returns immediately with the run id for polling.
func (s *BacktestService) StartRun(ctx context.Context, req domain.BacktestRequest) (*domain.BacktestRun, error) {
	_, span := s.tracer.Start(ctx, "backtest-service.start-run")
	defer span.End()

	if _, ok := domain.CoinGeckoID[req.Symbol]; !ok {
		return nil, fmt.Errorf("unsupported symbol: %s", req.Symbol)
	}
	variant, err := strategy.Get(req.StrategyID)
	if err != nil {
		return nil, err
	}
	if req.InitialCapital <= 0 {
		req.InitialCapital = 10000
	}
	if req.EndDate.IsZero() {
		req.EndDate = time.Now().UTC()
	}
	if !req.StartDate.Before(req.EndDate) {
		return nil, fmt.Errorf("start date %s is not before end date %s", req.StartDate, req.EndDate)
	}

	run := domain.BacktestRun{
		ID:        uuid.NewString(),
		Request:   req,
		Config:    variant.Config,
		Status:    domain.RunPending,
		CreatedAt: time.Now().UTC(),
	}

	if s.store != nil {
		if err := s.store.InsertRun(ctx, &run); err != nil {
			return nil, fmt.Errorf("insert run: %w", err)
		}
	}

	// Runs outlive the HTTP request that started them.
	runCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.runs[run.ID] = &liveRun{run: run, cancel: cancel}
	s.mu.Unlock()

	go s.execute(runCtx, run.ID, variant, req)

	out := run
	return &out, nil
}

func (s *BacktestService) execute(ctx context.Context, id string, variant strategy.Variant, req domain.BacktestRequest) {
	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-ctx.Done():
		s.finish(id, domain.RunCancelled, ctx.Err().Error())
		return
	}

	s.setStatus(ctx, id, domain.RunRunning, 0)

	candles, err := s.candles.GetCandlesInRange(ctx, req.Symbol, "1d", req.StartDate, req.EndDate)
	if err != nil {
		s.finish(id, domain.RunFailed, fmt.Sprintf("load candles: %v", err))
		return
	}

	runner := backtest.NewRunner(variant, req.InitialCapital)
	if s.athSeed > 0 {
		runner.SeedATH(s.athSeed)
	}

	res, err := runner.Run(ctx, candles, func(p int) { s.setProgress(id, p) })
	if err != nil {
		status := domain.RunFailed
		if ctx.Err() != nil {
			status = domain.RunCancelled
		}
		s.finish(id, status, err.Error())
		return
	}

	now := time.Now().UTC()
	s.mu.Lock()
	if lr, ok := s.runs[id]; ok {
		lr.run.Status = domain.RunCompleted
		lr.run.Progress = 100
		lr.run.Trades = res.Trades
		lr.run.Snapshots = res.Snapshots
		metrics := res.Metrics
		lr.run.Metrics = &metrics
		lr.run.CompletedAt = &now
	}
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.SaveResult(context.Background(), id, res.Trades, res.Snapshots, res.Metrics, now); err != nil {
			log.Printf("persist backtest result %s: %v", id, err)
		}
	}
	log.Printf("Backtest %s completed: %d trades, %.2f%% return", id, len(res.Trades), res.Metrics.TotalReturnPct)
}

// GetRun returns the current view of a run, live progress included.
func (s *BacktestService) GetRun(ctx context.Context, id string) (*domain.BacktestRun, error) {
	s.mu.RLock()
	lr, ok := s.runs[id]
	if ok {
		out := lr.run
		s.mu.RUnlock()
		return &out, nil
	}
	s.mu.RUnlock()

	if s.store != nil {
		return s.store.GetRun(ctx, id)
	}
	return nil, fmt.Errorf("%w: %s", repository.ErrRunNotFound, id)
}

// ListRuns returns recent runs, newest first.
func (s *BacktestService) ListRuns(ctx context.Context, limit int) ([]*domain.BacktestRun, error) {
	if s.store != nil {
		return s.store.ListRuns(ctx, limit)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	runs := make([]*domain.BacktestRun, 0, len(s.runs))
	for _, lr := range s.runs {
		out := lr.run
		runs = append(runs, &out)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].CreatedAt.After(runs[j].CreatedAt) })
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// CancelRun requests cooperative cancellation of a running backtest.
func (s *BacktestService) CancelRun(id string) error {
	s.mu.RLock()
	lr, ok := s.runs[id]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", repository.ErrRunNotFound, id)
	}
	lr.cancel()
	return nil
}

func (s *BacktestService) setProgress(id string, progress int) {
	s.mu.Lock()
	if lr, ok := s.runs[id]; ok {
		lr.run.Progress = progress
	}
	s.mu.Unlock()
}

func (s *BacktestService) setStatus(ctx context.Context, id string, status domain.RunStatus, progress int) {
	s.mu.Lock()
	if lr, ok := s.runs[id]; ok {
		lr.run.Status = status
		lr.run.Progress = progress
	}
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.UpdateStatus(ctx, id, status, progress, ""); err != nil {
			log.Printf("update backtest status %s: %v", id, err)
		}
	}
}

func (s *BacktestService) finish(id string, status domain.RunStatus, errMsg string) {
	s.mu.Lock()
	var progress int
	if lr, ok := s.runs[id]; ok {
		lr.run.Status = status
		lr.run.Error = errMsg
		progress = lr.run.Progress
	}
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.UpdateStatus(context.Background(), id, status, progress, errMsg); err != nil {
			log.Printf("update backtest status %s: %v", id, err)
		}
	}
	log.Printf("Backtest %s %s: %s", id, status, errMsg)
}
