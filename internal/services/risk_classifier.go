package services

import (
	"math"

	"github.com/ledgerline/copytrade-analytics/internal/models"
)

// AssessRisk maps raw risk figures to a discrete level and a bounded score.
// The scoring is additive with a capped contribution per factor; it is a
// heuristic tiering, not a calibrated statistical model.
func AssessRisk(volatilityPct, maxDrawdownPct, var95Pct float64) (models.RiskLevel, float64) {
	score := 0.0

	// Volatility component (0-0.3)
	switch {
	case volatilityPct > 50:
		score += 0.3
	case volatilityPct > 30:
		score += 0.2
	case volatilityPct > 15:
		score += 0.1
	}

	// Max drawdown component (0-0.4)
	switch {
	case maxDrawdownPct > 30:
		score += 0.4
	case maxDrawdownPct > 20:
		score += 0.3
	case maxDrawdownPct > 10:
		score += 0.2
	case maxDrawdownPct > 5:
		score += 0.1
	}

	// VaR component (0-0.3)
	absVaR := math.Abs(var95Pct)
	switch {
	case absVaR > 10:
		score += 0.3
	case absVaR > 5:
		score += 0.2
	case absVaR > 2:
		score += 0.1
	}

	score = math.Min(score, 1.0)

	var level models.RiskLevel
	switch {
	case score >= 0.7:
		level = models.RiskLevelExtreme
	case score >= 0.5:
		level = models.RiskLevelHigh
	case score >= 0.3:
		level = models.RiskLevelMedium
	default:
		level = models.RiskLevelLow
	}

	return level, score
}
