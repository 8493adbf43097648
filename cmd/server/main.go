package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ledgerline/copytrade-analytics/internal/api"
	"github.com/ledgerline/copytrade-analytics/internal/api/handlers"
	"github.com/ledgerline/copytrade-analytics/internal/cache"
	"github.com/ledgerline/copytrade-analytics/internal/config"
	"github.com/ledgerline/copytrade-analytics/internal/database"
	"github.com/ledgerline/copytrade-analytics/internal/ml"
	"github.com/ledgerline/copytrade-analytics/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	// Initialize database
	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize Redis
	redis, err := database.NewRedisConnection(cfg.Redis)
	if err != nil {
		logrus.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redis.Close()

	// Wire the analytics pipeline
	repo := database.NewTradeRepository(db.Pool)
	calc := services.NewMetricsCalculator(cfg.Analytics.BaselineCapital)

	predictor := ml.NewPredictor(repo, nil, ml.Config{
		MinPredictionTrades: cfg.ML.MinPredictionTrades,
		MinTrainingSamples:  cfg.ML.MinTrainingSamples,
		FeatureWindowDays:   cfg.ML.FeatureWindowDays,
	})

	analysisCache := cache.NewAnalysisCache(redis.Client, time.Duration(cfg.Analytics.CacheTTLMinutes)*time.Minute)
	analytics := services.NewAnalyticsService(repo, calc, predictor, analysisCache, cfg.Analytics.DefaultAnalysisDays, cfg.ML.ConfidenceThreshold)
	optimizer := services.NewStrategyOptimizer(repo, calc, cfg.Analytics.OptimizerWindowDays)
	tracker := services.NewBacktestTracker(repo, calc)

	// Setup Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	api.SetupRoutes(router, db, redis, api.Handlers{
		Analytics:    handlers.NewAnalyticsHandler(analytics, cfg.Analytics.RiskWindowDays),
		Optimization: handlers.NewOptimizationHandler(optimizer),
		Backtest:     handlers.NewBacktestHandler(tracker),
		Prediction:   handlers.NewPredictionHandler(predictor, cfg.ML.ConfidenceThreshold),
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logrus.Infof("Server starting on port %d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Fatalf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}
