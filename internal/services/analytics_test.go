package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/copytrade-analytics/internal/models"
)

type fakePredictor struct {
	result *models.PredictionResult
	err    error
	calls  int
}

func (f *fakePredictor) Predict(ctx context.Context, leaderAddress string, horizonDays int, confidenceThreshold float64) (*models.PredictionResult, error) {
	f.calls++
	return f.result, f.err
}

func populatedStore(base time.Time) *fakeStore {
	return &fakeStore{
		leaderTrades: map[string][]models.Trade{
			"0xleader": alternatingTrades(base),
		},
		aggregated: map[string]*models.AggregatedPerformance{
			"0xleader": {TradingDays: 1, TotalTrades: 10, TotalPnL: 50},
		},
		allocation: map[string]map[string]float64{
			"0xleader": {"BTC": 100},
		},
		timeSeries: map[string]*models.TimeSeries{
			"0xleader": {Dates: []string{"2024-01-01"}, DailyPnL: []float64{50}, CumulativePnL: []float64{50}, DailyTrades: []int{10}, DailyVolume: []float64{1050}},
		},
	}
}

func TestAnalyticsService_AnalyzeLeader(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := populatedStore(base)
	svc := NewAnalyticsService(store, NewMetricsCalculator(10000), nil, nil, 30, 0.7)

	analysis, err := svc.AnalyzeLeader(context.Background(), "0xleader", 30, false)
	require.NoError(t, err)
	require.NotNil(t, analysis)

	assert.Equal(t, "0xleader", analysis.LeaderAddress)
	assert.Equal(t, 30, analysis.AnalysisPeriodDays)
	assert.Equal(t, 10, analysis.Performance.TotalTrades)
	assert.InDelta(t, 100.0, analysis.AssetAllocation["BTC"], 1e-9)
	assert.Equal(t, []string{"2024-01-01"}, analysis.TimeSeries.Dates)
	assert.Nil(t, analysis.Prediction)
	assert.Equal(t, models.NeutralMarketMetrics(), analysis.Market)
}

func TestAnalyticsService_AnalyzeLeader_NoData(t *testing.T) {
	svc := NewAnalyticsService(&fakeStore{}, NewMetricsCalculator(10000), nil, nil, 30, 0.7)

	analysis, err := svc.AnalyzeLeader(context.Background(), "0xunknown", 30, false)
	assert.NoError(t, err)
	assert.Nil(t, analysis)
}

func TestAnalyticsService_AnalyzeLeader_StoreErrorDegradesToNoData(t *testing.T) {
	store := &fakeStore{err: errors.New("db down")}
	svc := NewAnalyticsService(store, NewMetricsCalculator(10000), nil, nil, 30, 0.7)

	analysis, err := svc.AnalyzeLeader(context.Background(), "0xleader", 30, false)
	assert.NoError(t, err)
	assert.Nil(t, analysis)
}

func TestAnalyticsService_AnalyzeLeader_WithPrediction(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := populatedStore(base)
	predictor := &fakePredictor{
		result: &models.PredictionResult{
			LeaderAddress:      "0xleader",
			HorizonDays:        7,
			PredictedReturnPct: 3.2,
			Confidence:         0.8,
			ModelVersion:       "1.0",
		},
	}
	svc := NewAnalyticsService(store, NewMetricsCalculator(10000), predictor, nil, 30, 0.7)

	analysis, err := svc.AnalyzeLeader(context.Background(), "0xleader", 30, true)
	require.NoError(t, err)
	require.NotNil(t, analysis)
	require.NotNil(t, analysis.Prediction)
	assert.Equal(t, 1, predictor.calls)
	assert.InDelta(t, 3.2, analysis.Prediction.PredictedReturnPct, 1e-9)
}

func TestAnalyticsService_AnalyzeLeader_PredictionFailureOnlyLogged(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := populatedStore(base)
	predictor := &fakePredictor{err: errors.New("model exploded")}
	svc := NewAnalyticsService(store, NewMetricsCalculator(10000), predictor, nil, 30, 0.7)

	analysis, err := svc.AnalyzeLeader(context.Background(), "0xleader", 30, true)
	require.NoError(t, err)
	require.NotNil(t, analysis)
	assert.Nil(t, analysis.Prediction)
}

func TestAnalyticsService_LeaderRiskMetrics(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := populatedStore(base)
	svc := NewAnalyticsService(store, NewMetricsCalculator(10000), nil, nil, 30, 0.7)

	risk, err := svc.LeaderRiskMetrics(context.Background(), "0xleader", 90)
	require.NoError(t, err)
	require.NotNil(t, risk)
	assert.Equal(t, models.RiskLevelLow, risk.RiskLevel)

	risk, err = svc.LeaderRiskMetrics(context.Background(), "0xempty", 90)
	assert.NoError(t, err)
	assert.Nil(t, risk)
}

func TestAnalyticsService_CompareLeaders(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := populatedStore(base)
	svc := NewAnalyticsService(store, NewMetricsCalculator(10000), nil, nil, 30, 0.7)

	comparison, err := svc.CompareLeaders(context.Background(), []string{"0xleader", "0xempty"}, 30)
	require.NoError(t, err)
	require.NotNil(t, comparison)

	// Leaders without data are omitted, not zero-filled.
	require.Len(t, comparison, 1)
	entry, ok := comparison["0xleader"]
	require.True(t, ok)
	assert.InDelta(t, 0.5, entry.ReturnPct, 1e-9)
	assert.InDelta(t, 50.0, entry.WinRatePct, 1e-9)
	assert.Equal(t, 10, entry.TotalTrades)
}

func TestAnalyticsService_CompareLeaders_NoData(t *testing.T) {
	svc := NewAnalyticsService(&fakeStore{}, NewMetricsCalculator(10000), nil, nil, 30, 0.7)

	comparison, err := svc.CompareLeaders(context.Background(), []string{"0xa", "0xb"}, 30)
	assert.NoError(t, err)
	assert.Nil(t, comparison)
}

func TestAnalyticsService_AnalyzePortfolio_WeightNormalization(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := populatedStore(base)
	store.leaderTrades["0xother"] = alternatingTrades(base.Add(24 * time.Hour))
	svc := NewAnalyticsService(store, NewMetricsCalculator(10000), nil, nil, 30, 0.7)

	portfolio, err := svc.AnalyzePortfolio(context.Background(), []string{"0xleader", "0xother"}, []float64{3, 1}, 30)
	require.NoError(t, err)
	require.NotNil(t, portfolio)

	assert.InDelta(t, 0.75, portfolio.Allocation["0xleader"], 1e-9)
	assert.InDelta(t, 0.25, portfolio.Allocation["0xother"], 1e-9)

	var total float64
	for _, w := range portfolio.Allocation {
		total += w
	}
	assert.InDelta(t, 1.0, total, 1e-9)

	// Both legs are the identical sequence so the weighted return equals the
	// single-leader return.
	assert.InDelta(t, 0.5, portfolio.ExpectedReturnPct, 1e-9)
	assert.InDelta(t, 0.3, portfolio.DiversificationBenefit, 1e-9)
	assert.Equal(t, "weekly", portfolio.RebalanceFrequency)
}

func TestAnalyticsService_AnalyzePortfolio_EqualWeightFallback(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := populatedStore(base)
	store.leaderTrades["0xother"] = alternatingTrades(base)
	svc := NewAnalyticsService(store, NewMetricsCalculator(10000), nil, nil, 30, 0.7)

	portfolio, err := svc.AnalyzePortfolio(context.Background(), []string{"0xleader", "0xother"}, nil, 30)
	require.NoError(t, err)
	require.NotNil(t, portfolio)

	assert.InDelta(t, 0.5, portfolio.Allocation["0xleader"], 1e-9)
	assert.InDelta(t, 0.5, portfolio.Allocation["0xother"], 1e-9)
}

func TestAnalyticsService_AnalyzePortfolio_MissingLeaderWeightRedistributed(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := populatedStore(base)
	svc := NewAnalyticsService(store, NewMetricsCalculator(10000), nil, nil, 30, 0.7)

	portfolio, err := svc.AnalyzePortfolio(context.Background(), []string{"0xleader", "0xghost"}, []float64{1, 1}, 30)
	require.NoError(t, err)
	require.NotNil(t, portfolio)

	// The ghost leader drops out and the surviving weight renormalizes to 1.
	require.Len(t, portfolio.Allocation, 1)
	assert.InDelta(t, 1.0, portfolio.Allocation["0xleader"], 1e-9)
}

func TestAnalyticsService_AnalyzePortfolio_NoLeaders(t *testing.T) {
	svc := NewAnalyticsService(&fakeStore{}, NewMetricsCalculator(10000), nil, nil, 30, 0.7)

	portfolio, err := svc.AnalyzePortfolio(context.Background(), nil, nil, 30)
	assert.NoError(t, err)
	assert.Nil(t, portfolio)
}

func TestAnalyticsService_TrendingLeaders(t *testing.T) {
	store := &fakeStore{
		rankings: []models.LeaderRanking{
			{LeaderAddress: "0xtop", TotalPnL: 500, TotalTrades: 40, FollowersCount: 12},
			{LeaderAddress: "0xsecond", TotalPnL: 200, TotalTrades: 25, FollowersCount: 4},
		},
	}
	svc := NewAnalyticsService(store, NewMetricsCalculator(10000), nil, nil, 30, 0.7)

	leaders, err := svc.TrendingLeaders(context.Background(), "7d", 1, 10)
	require.NoError(t, err)
	require.Len(t, leaders, 2)

	assert.Equal(t, 1, leaders[0].Rank)
	assert.Equal(t, 2, leaders[1].Rank)
	assert.InDelta(t, 5.0, leaders[0].ReturnPct, 1e-9)
	assert.InDelta(t, 2.0, leaders[1].ReturnPct, 1e-9)
}

func TestAnalyticsService_TrendingLeaders_ErrorDegrades(t *testing.T) {
	store := &fakeStore{err: errors.New("db down")}
	svc := NewAnalyticsService(store, NewMetricsCalculator(10000), nil, nil, 30, 0.7)

	leaders, err := svc.TrendingLeaders(context.Background(), "1d", 0, 10)
	assert.NoError(t, err)
	assert.Nil(t, leaders)
}
