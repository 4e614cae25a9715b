package handler

import (
	"errors"
	"net/http"
	"strconv"

	"satstacker/internal/domain"
	"satstacker/internal/repository"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// StartBacktest godoc
// @Summary      Start a backtest run
// @Description  Launches a background backtest of one strategy over a stored historical series
// @Tags         backtests
// @Accept       json
// @Produce      json
// @Param        request  body  domain.BacktestRequest  true  "Backtest parameters"
// @Success      202  {object}  domain.BacktestRun
// @Failure      400  {object}  map[string]string
// @Router       /api/backtests [post]
func (h *Handler) StartBacktest(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.start-backtest")
	defer span.End()

	var req domain.BacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	span.SetAttributes(
		attribute.String("symbol", req.Symbol),
		attribute.String("strategy", req.StrategyID),
	)

	run, err := h.backtests.StartRun(ctx, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, run)
}

// GetBacktest godoc
// @Summary      Get a backtest run
// @Description  Returns status, progress, and (when completed) metrics and snapshots
// @Tags         backtests
// @Produce      json
// @Param        id  path  string  true  "Run id"
// @Success      200  {object}  domain.BacktestRun
// @Failure      404  {object}  map[string]string
// @Router       /api/backtests/{id} [get]
func (h *Handler) GetBacktest(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-backtest")
	defer span.End()

	id := c.Param("id")
	span.SetAttributes(attribute.String("run_id", id))

	run, err := h.backtests.GetRun(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, run)
}

// GetBacktestTrades godoc
// @Summary      Get the trades of a backtest run
// @Tags         backtests
// @Produce      json
// @Param        id  path  string  true  "Run id"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /api/backtests/{id}/trades [get]
func (h *Handler) GetBacktestTrades(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-backtest-trades")
	defer span.End()

	id := c.Param("id")
	span.SetAttributes(attribute.String("run_id", id))

	run, err := h.backtests.GetRun(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id": run.ID,
		"status": run.Status,
		"trades": run.Trades,
	})
}

// ListBacktests godoc
// @Summary      List recent backtest runs
// @Tags         backtests
// @Produce      json
// @Param        limit  query  int  false  "Max runs to return (default 20)"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/backtests [get]
func (h *Handler) ListBacktests(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.list-backtests")
	defer span.End()

	limit := 20
	if l := c.Query("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	runs, err := h.backtests.ListRuns(ctx, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// CancelBacktest godoc
// @Summary      Cancel a running backtest
// @Tags         backtests
// @Produce      json
// @Param        id  path  string  true  "Run id"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/backtests/{id} [delete]
func (h *Handler) CancelBacktest(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.cancel-backtest")
	defer span.End()

	id := c.Param("id")
	span.SetAttributes(attribute.String("run_id", id))

	if err := h.backtests.CancelRun(id); err != nil {
		if errors.Is(err, repository.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "cancellation requested"})
}
