package repository

import (
	"context"

	"satstacker/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// TradeRepository persists the append-only trade log for the live loop.
type TradeRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewTradeRepository(pool PgxPool, tracer trace.Tracer) *TradeRepository {
	return &TradeRepository{pool: pool, tracer: tracer}
}

func (r *TradeRepository) InsertTrade(ctx context.Context, t *domain.TradeRecord) error {
	_, span := r.tracer.Start(ctx, "trade-repo.insert-trade")
	defer span.End()

	return r.pool.QueryRow(ctx,
		`INSERT INTO trades (strategy_id, symbol, action, executed_at, price, amount, value_usd, fee,
		                     regime, regime_score, reason, cost_basis_portion, profit, profit_percent)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING id`,
		t.StrategyID, t.Symbol, t.Action, t.Timestamp, t.Price, t.Amount, t.ValueUSD, t.Fee,
		t.Regime, t.RegimeScore, t.Reason, t.CostBasisPortion, t.Profit, t.ProfitPercent,
	).Scan(&t.ID)
}

func (r *TradeRepository) GetTrades(ctx context.Context, strategyID string, limit int) ([]*domain.TradeRecord, error) {
	_, span := r.tracer.Start(ctx, "trade-repo.get-trades")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT id, strategy_id, symbol, action, executed_at, price, amount, value_usd, fee,
		        regime, regime_score, reason, cost_basis_portion, profit, profit_percent
		 FROM trades
		 WHERE strategy_id = $1
		 ORDER BY executed_at DESC
		 LIMIT $2`,
		strategyID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []*domain.TradeRecord
	for rows.Next() {
		t := &domain.TradeRecord{}
		if err := rows.Scan(&t.ID, &t.StrategyID, &t.Symbol, &t.Action, &t.Timestamp, &t.Price,
			&t.Amount, &t.ValueUSD, &t.Fee, &t.Regime, &t.RegimeScore, &t.Reason,
			&t.CostBasisPortion, &t.Profit, &t.ProfitPercent); err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}
