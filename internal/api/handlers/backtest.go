package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ledgerline/copytrade-analytics/internal/models"
	"github.com/ledgerline/copytrade-analytics/internal/services"
	"github.com/ledgerline/copytrade-analytics/internal/utils"
)

type BacktestHandler struct {
	tracker *services.BacktestTracker
}

func NewBacktestHandler(tracker *services.BacktestTracker) *BacktestHandler {
	return &BacktestHandler{tracker: tracker}
}

// BacktestRequest is the body for POST /api/v1/analytics/backtests.
type BacktestRequest struct {
	LeaderAddress  string    `json:"leader_address"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	InitialCapital float64   `json:"initial_capital"`
	CopyPercentage float64   `json:"copy_percentage"`
}

// CreateBacktest handles POST /api/v1/analytics/backtests
func (h *BacktestHandler) CreateBacktest(c *gin.Context) {
	var req BacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	config := models.BacktestConfig{
		LeaderAddress:  req.LeaderAddress,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		InitialCapital: req.InitialCapital,
		CopyPercentage: req.CopyPercentage,
	}
	if err := config.Validate(); err != nil {
		status := http.StatusInternalServerError
		if utils.IsValidationError(err) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	id := h.tracker.Submit(config)
	h.tracker.Start(id)

	c.JSON(http.StatusAccepted, gin.H{
		"backtest_id": id,
		"status":      models.BacktestStatusQueued,
		"message":     "Backtest started",
	})
}

// GetBacktest handles GET /api/v1/analytics/backtests/:id
func (h *BacktestHandler) GetBacktest(c *gin.Context) {
	id := c.Param("id")

	job := h.tracker.Job(id)
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Backtest not found"})
		return
	}

	c.JSON(http.StatusOK, job)
}
