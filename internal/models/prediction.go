package models

import "time"

// PredictionResult is a horizon-adjusted ML forecast for a leader.
type PredictionResult struct {
	LeaderAddress          string             `json:"leader_address"`
	HorizonDays            int                `json:"horizon_days"`
	PredictedReturnPct     float64            `json:"predicted_return_pct"`
	ProbabilityOfProfit    float64            `json:"probability_of_profit"`
	ExpectedMaxDrawdownPct float64            `json:"expected_max_drawdown_pct"`
	Confidence             float64            `json:"confidence"`
	FeatureImportance      map[string]float64 `json:"feature_importance"`
	ModelVersion           string             `json:"model_version"`
	PredictionTimestamp    time.Time          `json:"prediction_timestamp"`
}
