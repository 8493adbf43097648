package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ledgerline/copytrade-analytics/internal/api/handlers"
	"github.com/ledgerline/copytrade-analytics/internal/database"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Services  Services  `json:"services"`
}

type Services struct {
	Database string `json:"database"`
	Redis    string `json:"redis"`
}

// Handlers groups the handler set wired into the router.
type Handlers struct {
	Analytics    *handlers.AnalyticsHandler
	Optimization *handlers.OptimizationHandler
	Backtest     *handlers.BacktestHandler
	Prediction   *handlers.PredictionHandler
}

func SetupRoutes(router *gin.Engine, db *database.PostgresDB, redis *database.RedisClient, h Handlers) {
	// Health check endpoint
	router.GET("/health", healthCheck(db, redis))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		analytics := v1.Group("/analytics")
		{
			leaders := analytics.Group("/leaders")
			{
				leaders.GET("/:address/performance", h.Analytics.GetLeaderPerformance)
				leaders.GET("/:address/risk", h.Analytics.GetLeaderRisk)
			}

			analytics.GET("/compare", h.Analytics.CompareLeaders)
			analytics.GET("/trending", h.Analytics.GetTrendingLeaders)
			analytics.POST("/portfolio", h.Analytics.AnalyzePortfolio)
			analytics.POST("/followers/optimize", h.Optimization.OptimizeFollower)

			backtests := analytics.Group("/backtests")
			{
				backtests.POST("", h.Backtest.CreateBacktest)
				backtests.GET("/:id", h.Backtest.GetBacktest)
			}
		}

		ml := v1.Group("/ml")
		{
			ml.GET("/predictions/:address", h.Prediction.GetPrediction)
		}
	}
}

func healthCheck(db *database.PostgresDB, redis *database.RedisClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := HealthResponse{
			Status:    "ok",
			Timestamp: time.Now(),
			Version:   "1.0.0",
			Services: Services{
				Database: "ok",
				Redis:    "ok",
			},
		}

		// Check database health
		if err := db.HealthCheck(c.Request.Context()); err != nil {
			response.Services.Database = "error"
			response.Status = "degraded"
		}

		// Check Redis health
		if err := redis.HealthCheck(c.Request.Context()); err != nil {
			response.Services.Redis = "error"
			response.Status = "degraded"
		}

		statusCode := http.StatusOK
		if response.Status == "degraded" {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, response)
	}
}
