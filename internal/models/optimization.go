package models

// RiskControls are the guard-rail settings applied on top of copy settings.
type RiskControls struct {
	MaxTradesPerDay      int     `json:"max_trades_per_day"`
	MaxConsecutiveLosses int     `json:"max_consecutive_losses"`
	CorrelationLimit     float64 `json:"correlation_limit"`
}

// CopySettings are the trading parameters a follower copies with.
type CopySettings struct {
	CopyPercentage    float64      `json:"copy_percentage"`
	MaxPositionSize   float64      `json:"max_position_size"`
	StopLossPct       float64      `json:"stop_loss_percentage"`
	TakeProfitPct     float64      `json:"take_profit_percentage"`
	RiskControls      RiskControls `json:"risk_settings"`
}

// FollowerSnapshot captures a follower's measured state at optimization time.
type FollowerSnapshot struct {
	Performance PerformanceMetrics `json:"performance"`
	Risk        RiskMetrics        `json:"risk"`
}

// ExpectedImprovement estimates the effect of switching to the proposed
// settings. The figures are coarse standing estimates, not a replay-backed
// forecast.
type ExpectedImprovement struct {
	ReturnImprovementPct  float64 `json:"return_improvement_pct"`
	RiskReductionPct      float64 `json:"risk_reduction_pct"`
	SharpeImprovement     float64 `json:"sharpe_improvement"`
	DrawdownReductionPct  float64 `json:"drawdown_reduction_pct"`
}

// FollowerOptimization is the full strategy-optimization result for a
// follower.
type FollowerOptimization struct {
	FollowerID          int64               `json:"follower_id"`
	CurrentState        FollowerSnapshot    `json:"current_settings"`
	OptimizedSettings   CopySettings        `json:"optimized_settings"`
	ExpectedImprovement ExpectedImprovement `json:"expected_improvement"`
	RiskAssessment      RiskMetrics         `json:"risk_assessment"`
	RecommendedLeaders  []string            `json:"recommended_leaders"`
	PortfolioAllocation map[string]float64  `json:"portfolio_allocation"`
	ConfidenceScore     float64             `json:"confidence_score"`
}
