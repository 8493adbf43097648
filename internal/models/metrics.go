package models

import "time"

// RiskLevel is the discrete risk tier assigned by the risk classifier.
type RiskLevel string

const (
	RiskLevelLow     RiskLevel = "low"
	RiskLevelMedium  RiskLevel = "medium"
	RiskLevelHigh    RiskLevel = "high"
	RiskLevelExtreme RiskLevel = "extreme"
)

// PerformanceMetrics summarizes realized performance over an analysis window.
// All percentage fields are relative to a fixed notional baseline capital, not
// the account's real capital.
type PerformanceMetrics struct {
	TotalReturnPct      float64 `json:"total_return_pct"`
	AnnualizedReturnPct float64 `json:"annualized_return_pct"`
	TotalTrades         int     `json:"total_trades"`
	ProfitableTrades    int     `json:"profitable_trades"`
	WinRatePct          float64 `json:"win_rate_pct"`
	AvgWinPct           float64 `json:"avg_win_pct"`
	AvgLossPct          float64 `json:"avg_loss_pct"`
	LargestWinPct       float64 `json:"largest_win_pct"`
	LargestLossPct      float64 `json:"largest_loss_pct"`
	ProfitFactor        float64 `json:"profit_factor"`
	RecoveryFactor      float64 `json:"recovery_factor"`
	CalmarRatio         float64 `json:"calmar_ratio"`
}

// RiskMetrics summarizes downside and dispersion risk over an analysis window.
type RiskMetrics struct {
	MaxDrawdownPct        float64   `json:"max_drawdown_pct"`
	CurrentDrawdownPct    float64   `json:"current_drawdown_pct"`
	VolatilityPct         float64   `json:"volatility_pct"`
	DownsideDeviationPct  float64   `json:"downside_deviation_pct"`
	ValueAtRisk95Pct      float64   `json:"value_at_risk_95_pct"`
	ConditionalVaR95Pct   float64   `json:"conditional_var_95_pct"`
	SharpeRatio           float64   `json:"sharpe_ratio"`
	SortinoRatio          float64   `json:"sortino_ratio"`
	RiskLevel             RiskLevel `json:"risk_level"`
	RiskScore             float64   `json:"risk_score"`
}

// MarketMetrics relates a leader's returns to reference assets. Without a
// market-data feed these stay at their neutral defaults (correlation 0,
// beta 1, alpha 0) rather than fabricated values.
type MarketMetrics struct {
	CorrelationToBTC float64 `json:"correlation_to_btc"`
	CorrelationToETH float64 `json:"correlation_to_eth"`
	BetaToMarket     float64 `json:"beta_to_market"`
	Alpha            float64 `json:"alpha"`
	TrackingErrorPct float64 `json:"tracking_error_pct"`
	InformationRatio float64 `json:"information_ratio"`
}

// NeutralMarketMetrics returns the documented "market data unavailable"
// defaults.
func NeutralMarketMetrics() MarketMetrics {
	return MarketMetrics{BetaToMarket: 1.0}
}

// HourCount and DayCount are (bucket, trade count) pairs ranked by activity.
type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

type DayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// TradingFrequency describes when and how intensely a trader is active.
type TradingFrequency struct {
	TradesPerDay              float64     `json:"trades_per_day"`
	MostActiveHours           []HourCount `json:"most_active_hours"`
	MostActiveDays            []DayCount  `json:"most_active_days"`
	AvgTimeBetweenTradesMins  float64     `json:"avg_time_between_trades_minutes"`
	TradingIntensityScore     float64     `json:"trading_intensity_score"`
}

// LeaderPerformanceAnalysis is the full analysis payload for one leader.
type LeaderPerformanceAnalysis struct {
	LeaderAddress      string              `json:"leader_address"`
	AnalysisPeriodDays int                 `json:"analysis_period_days"`
	Performance        PerformanceMetrics  `json:"performance_metrics"`
	Risk               RiskMetrics         `json:"risk_metrics"`
	Market             MarketMetrics       `json:"market_metrics"`
	TradingFrequency   TradingFrequency    `json:"trading_frequency"`
	AssetAllocation    map[string]float64  `json:"asset_allocation"`
	TimeSeries         TimeSeries          `json:"time_series_data"`
	Prediction         *PredictionResult   `json:"predictions,omitempty"`
	AnalysisTimestamp  time.Time           `json:"analysis_timestamp"`
}

// LeaderComparison is the flattened metric subset used when comparing
// multiple leaders side by side.
type LeaderComparison struct {
	ReturnPct      float64 `json:"return"`
	SharpeRatio    float64 `json:"sharpe"`
	MaxDrawdownPct float64 `json:"max_drawdown"`
	WinRatePct     float64 `json:"win_rate"`
	TotalTrades    int     `json:"total_trades"`
	VolatilityPct  float64 `json:"volatility"`
}

// PortfolioAnalysis is the weighted multi-leader analysis result.
type PortfolioAnalysis struct {
	ExpectedReturnPct      float64            `json:"expected_return_pct"`
	ExpectedVolatilityPct  float64            `json:"expected_volatility_pct"`
	SharpeRatio            float64            `json:"sharpe_ratio"`
	MaxDrawdownPct         float64            `json:"max_drawdown_pct"`
	Allocation             map[string]float64 `json:"allocation"`
	RebalanceFrequency     string             `json:"rebalance_frequency"`
	DiversificationBenefit float64            `json:"diversification_benefit"`
}
