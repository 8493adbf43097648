package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ledgerline/copytrade-analytics/internal/services"
)

type PredictionHandler struct {
	predictor           services.Predictor
	confidenceThreshold float64
}

func NewPredictionHandler(predictor services.Predictor, confidenceThreshold float64) *PredictionHandler {
	return &PredictionHandler{
		predictor:           predictor,
		confidenceThreshold: confidenceThreshold,
	}
}

// GetPrediction handles GET /api/v1/ml/predictions/:address
func (h *PredictionHandler) GetPrediction(c *gin.Context) {
	address := c.Param("address")
	if address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Leader address is required"})
		return
	}

	horizonDays, ok := parseIntParam(c, "horizon_days", 7, 1, 30)
	if !ok {
		return
	}

	threshold := h.confidenceThreshold
	if raw := c.Query("confidence_threshold"); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || value < 0.5 || value > 0.99 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "confidence_threshold must be between 0.5 and 0.99"})
			return
		}
		threshold = value
	}

	prediction, err := h.predictor.Predict(c.Request.Context(), address, horizonDays, threshold)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate prediction"})
		return
	}
	if prediction == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "No prediction available for leader",
			"timestamp": time.Now().UTC(),
		})
		return
	}

	c.JSON(http.StatusOK, prediction)
}
