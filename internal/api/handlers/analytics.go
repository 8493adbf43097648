package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ledgerline/copytrade-analytics/internal/models"
	"github.com/ledgerline/copytrade-analytics/internal/services"
)

type AnalyticsHandler struct {
	analytics      *services.AnalyticsService
	riskWindowDays int
}

// NewAnalyticsHandler creates an analytics handler. riskWindowDays is the
// default lookback applied to risk requests that omit the days parameter.
func NewAnalyticsHandler(analytics *services.AnalyticsService, riskWindowDays int) *AnalyticsHandler {
	if riskWindowDays < 30 {
		riskWindowDays = 90
	}
	return &AnalyticsHandler{analytics: analytics, riskWindowDays: riskWindowDays}
}

// GetLeaderPerformance handles GET /api/v1/analytics/leaders/:address/performance
func (h *AnalyticsHandler) GetLeaderPerformance(c *gin.Context) {
	address := c.Param("address")
	if address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Leader address is required"})
		return
	}

	days, ok := parseDaysParam(c, "days", 30, 1, 365)
	if !ok {
		return
	}
	includePredictions := c.DefaultQuery("include_predictions", "false") == "true"

	analysis, err := h.analytics.AnalyzeLeader(c.Request.Context(), address, days, includePredictions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to analyze leader"})
		return
	}
	if analysis == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No trading data found for leader"})
		return
	}

	c.JSON(http.StatusOK, analysis)
}

// GetLeaderRisk handles GET /api/v1/analytics/leaders/:address/risk
func (h *AnalyticsHandler) GetLeaderRisk(c *gin.Context) {
	address := c.Param("address")
	if address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Leader address is required"})
		return
	}

	days, ok := parseDaysParam(c, "days", h.riskWindowDays, 30, 365)
	if !ok {
		return
	}

	risk, err := h.analytics.LeaderRiskMetrics(c.Request.Context(), address, days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute risk metrics"})
		return
	}
	if risk == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No trading data found for leader"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"leader_address":       address,
		"analysis_period_days": days,
		"risk_metrics":         risk,
		"timestamp":            time.Now().UTC(),
	})
}

// CompareLeaders handles GET /api/v1/analytics/compare
func (h *AnalyticsHandler) CompareLeaders(c *gin.Context) {
	raw := c.Query("addresses")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one leader address is required"})
		return
	}
	addresses := splitAddresses(raw)
	if len(addresses) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one leader address is required"})
		return
	}

	days, ok := parseDaysParam(c, "days", 30, 1, 365)
	if !ok {
		return
	}

	comparison, err := h.analytics.CompareLeaders(c.Request.Context(), addresses, days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compare leaders"})
		return
	}
	if comparison == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No trading data found for any leader"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"comparison":           comparison,
		"analysis_period_days": days,
		"timestamp":            time.Now().UTC(),
	})
}

// PortfolioRequest is the body for POST /api/v1/analytics/portfolio.
type PortfolioRequest struct {
	LeaderAddresses []string  `json:"leader_addresses"`
	Weights         []float64 `json:"weights,omitempty"`
	Days            int       `json:"days,omitempty"`
}

// AnalyzePortfolio handles POST /api/v1/analytics/portfolio
func (h *AnalyticsHandler) AnalyzePortfolio(c *gin.Context) {
	var req PortfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if len(req.LeaderAddresses) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one leader address is required"})
		return
	}
	if len(req.Weights) > 0 && len(req.Weights) != len(req.LeaderAddresses) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Weights length must match leader addresses"})
		return
	}
	days := req.Days
	if days == 0 {
		days = 30
	}
	if days < 1 || days > 365 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Days must be between 1 and 365"})
		return
	}

	portfolio, err := h.analytics.AnalyzePortfolio(c.Request.Context(), req.LeaderAddresses, req.Weights, days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to analyze portfolio"})
		return
	}
	if portfolio == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No trading data found for any leader"})
		return
	}

	c.JSON(http.StatusOK, portfolio)
}

// GetTrendingLeaders handles GET /api/v1/analytics/trending
func (h *AnalyticsHandler) GetTrendingLeaders(c *gin.Context) {
	timeframe := c.DefaultQuery("timeframe", "7d")
	switch timeframe {
	case "1d", "3d", "7d", "30d":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Timeframe must be one of 1d, 3d, 7d, 30d"})
		return
	}

	minFollowers, ok := parseIntParam(c, "min_followers", 0, 0, 1000000)
	if !ok {
		return
	}
	limit, ok := parseIntParam(c, "limit", 10, 1, 100)
	if !ok {
		return
	}

	leaders, err := h.analytics.TrendingLeaders(c.Request.Context(), timeframe, minFollowers, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch trending leaders"})
		return
	}
	if leaders == nil {
		leaders = []models.LeaderRanking{}
	}

	c.JSON(http.StatusOK, gin.H{
		"timeframe": timeframe,
		"leaders":   leaders,
		"timestamp": time.Now().UTC(),
	})
}

func splitAddresses(raw string) []string {
	var addresses []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			addresses = append(addresses, trimmed)
		}
	}
	return addresses
}

func parseDaysParam(c *gin.Context, name string, def, min, max int) (int, bool) {
	return parseIntParam(c, name, def, min, max)
}

func parseIntParam(c *gin.Context, name string, def, min, max int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < min || value > max {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be between " + strconv.Itoa(min) + " and " + strconv.Itoa(max)})
		return 0, false
	}
	return value, true
}
