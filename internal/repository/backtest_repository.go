package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"satstacker/internal/domain"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/trace"
)

// ErrRunNotFound is returned when no backtest run exists for an id.
var ErrRunNotFound = errors.New("backtest run not found")

// BacktestRepository persists backtest runs. Trades, snapshots and metrics
// are produced by the runner as plain records and stored as JSON documents;
// the engine itself never touches storage.
type BacktestRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewBacktestRepository(pool PgxPool, tracer trace.Tracer) *BacktestRepository {
	return &BacktestRepository{pool: pool, tracer: tracer}
}

func (r *BacktestRepository) InsertRun(ctx context.Context, run *domain.BacktestRun) error {
	_, span := r.tracer.Start(ctx, "backtest-repo.insert-run")
	defer span.End()

	request, err := json.Marshal(run.Request)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	config, err := json.Marshal(run.Config)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO backtest_runs (id, strategy_id, request, config, status, progress, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		run.ID, run.Config.ID, request, config, run.Status, run.Progress, run.CreatedAt,
	)
	return err
}

func (r *BacktestRepository) UpdateStatus(ctx context.Context, id string, status domain.RunStatus, progress int, errMsg string) error {
	_, span := r.tracer.Start(ctx, "backtest-repo.update-status")
	defer span.End()

	_, err := r.pool.Exec(ctx,
		`UPDATE backtest_runs SET status = $2, progress = $3, error = NULLIF($4, '') WHERE id = $1`,
		id, status, progress, errMsg,
	)
	return err
}

// SaveResult attaches the finished run's trades, snapshots and metrics and
// marks it completed.
func (r *BacktestRepository) SaveResult(ctx context.Context, id string, trades []domain.TradeRecord, snapshots []domain.PortfolioSnapshot, metrics domain.BacktestMetrics, completedAt time.Time) error {
	_, span := r.tracer.Start(ctx, "backtest-repo.save-result")
	defer span.End()

	tradesJSON, err := json.Marshal(trades)
	if err != nil {
		return fmt.Errorf("marshal trades: %w", err)
	}
	snapshotsJSON, err := json.Marshal(snapshots)
	if err != nil {
		return fmt.Errorf("marshal snapshots: %w", err)
	}
	metricsJSON, err := json.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`UPDATE backtest_runs
		 SET status = $2, progress = 100, trades = $3, snapshots = $4, metrics = $5, completed_at = $6
		 WHERE id = $1`,
		id, domain.RunCompleted, tradesJSON, snapshotsJSON, metricsJSON, completedAt,
	)
	return err
}

func (r *BacktestRepository) GetRun(ctx context.Context, id string) (*domain.BacktestRun, error) {
	_, span := r.tracer.Start(ctx, "backtest-repo.get-run")
	defer span.End()

	var (
		run       domain.BacktestRun
		request   []byte
		config    []byte
		errMsg    *string
		trades    []byte
		snapshots []byte
		metrics   []byte
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, request, config, status, progress, error, trades, snapshots, metrics, created_at, completed_at
		 FROM backtest_runs
		 WHERE id = $1`,
		id,
	).Scan(&run.ID, &request, &config, &run.Status, &run.Progress, &errMsg,
		&trades, &snapshots, &metrics, &run.CreatedAt, &run.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(request, &run.Request); err != nil {
		return nil, fmt.Errorf("unmarshal request: %w", err)
	}
	if err := json.Unmarshal(config, &run.Config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if errMsg != nil {
		run.Error = *errMsg
	}
	if trades != nil {
		if err := json.Unmarshal(trades, &run.Trades); err != nil {
			return nil, fmt.Errorf("unmarshal trades: %w", err)
		}
	}
	if snapshots != nil {
		if err := json.Unmarshal(snapshots, &run.Snapshots); err != nil {
			return nil, fmt.Errorf("unmarshal snapshots: %w", err)
		}
	}
	if metrics != nil {
		run.Metrics = &domain.BacktestMetrics{}
		if err := json.Unmarshal(metrics, run.Metrics); err != nil {
			return nil, fmt.Errorf("unmarshal metrics: %w", err)
		}
	}
	return &run, nil
}

func (r *BacktestRepository) ListRuns(ctx context.Context, limit int) ([]*domain.BacktestRun, error) {
	_, span := r.tracer.Start(ctx, "backtest-repo.list-runs")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT id, request, config, status, progress, error, created_at, completed_at
		 FROM backtest_runs
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*domain.BacktestRun
	for rows.Next() {
		var (
			run     domain.BacktestRun
			request []byte
			config  []byte
			errMsg  *string
		)
		if err := rows.Scan(&run.ID, &request, &config, &run.Status, &run.Progress, &errMsg,
			&run.CreatedAt, &run.CompletedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(request, &run.Request); err != nil {
			return nil, fmt.Errorf("unmarshal request: %w", err)
		}
		if err := json.Unmarshal(config, &run.Config); err != nil {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
		if errMsg != nil {
			run.Error = *errMsg
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}
