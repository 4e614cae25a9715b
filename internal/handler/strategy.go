package handler

import (
	"net/http"

	"satstacker/internal/domain"
	"satstacker/internal/strategy"

	"github.com/gin-gonic/gin"
)

// GetStrategies godoc
// @Summary      List available strategies
// @Description  Returns the full configuration of every built-in strategy
// @Tags         strategies
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/strategies [get]
func (h *Handler) GetStrategies(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.get-strategies")
	defer span.End()

	variants := strategy.Variants()
	configs := make([]domain.StrategyConfig, 0, len(variants))
	for _, v := range variants {
		configs = append(configs, v.Config)
	}

	c.JSON(http.StatusOK, gin.H{"strategies": configs})
}

// GetPortfolio godoc
// @Summary      Get live trading portfolios
// @Description  Returns the current book of every active live strategy
// @Tags         portfolio
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]string
// @Router       /api/portfolio [get]
func (h *Handler) GetPortfolio(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.get-portfolio")
	defer span.End()

	if h.portfolios == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "live trading is disabled"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"portfolios": h.portfolios.Portfolios()})
}
