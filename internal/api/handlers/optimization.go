package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ledgerline/copytrade-analytics/internal/services"
)

type OptimizationHandler struct {
	optimizer *services.StrategyOptimizer
}

func NewOptimizationHandler(optimizer *services.StrategyOptimizer) *OptimizationHandler {
	return &OptimizationHandler{optimizer: optimizer}
}

// OptimizeRequest is the body for POST /api/v1/analytics/followers/optimize.
type OptimizeRequest struct {
	FollowerID      int64   `json:"follower_id"`
	RiskTolerance   float64 `json:"risk_tolerance"`
	MaxDrawdownPct  float64 `json:"max_drawdown_pct"`
	TargetReturnPct float64 `json:"target_return_pct"`
}

// OptimizeFollower handles POST /api/v1/analytics/followers/optimize
func (h *OptimizationHandler) OptimizeFollower(c *gin.Context) {
	var req OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.FollowerID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Follower ID is required"})
		return
	}
	if req.RiskTolerance < 0 || req.RiskTolerance > 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Risk tolerance must be between 0 and 1"})
		return
	}
	if req.MaxDrawdownPct < 0 || req.MaxDrawdownPct > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Max drawdown must be between 0 and 100"})
		return
	}
	if req.TargetReturnPct < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Target return must be non-negative"})
		return
	}

	optimization, err := h.optimizer.Optimize(c.Request.Context(), req.FollowerID, req.RiskTolerance, req.MaxDrawdownPct, req.TargetReturnPct)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to optimize strategy"})
		return
	}

	c.JSON(http.StatusOK, optimization)
}
