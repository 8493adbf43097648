package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ledgerline/copytrade-analytics/internal/cache"
	"github.com/ledgerline/copytrade-analytics/internal/models"
)

// Predictor is the ML forecasting surface the facade depends on. A nil
// result with a nil error means the prediction is withheld, not failed.
type Predictor interface {
	Predict(ctx context.Context, leaderAddress string, horizonDays int, confidenceThreshold float64) (*models.PredictionResult, error)
}

// defaultPredictionHorizonDays is the horizon attached to a full leader
// analysis when predictions are requested.
const defaultPredictionHorizonDays = 7

// timeframeDays maps the trending-endpoint timeframe labels to lookback days.
var timeframeDays = map[string]int{
	"1d":  1,
	"3d":  3,
	"7d":  7,
	"30d": 30,
}

// AnalyticsService is the facade over the metric, risk, frequency and
// prediction pipelines. Every operation answers "no data" with (nil, nil);
// upstream failures are logged and degrade to no-data rather than surfacing
// as 500s.
type AnalyticsService struct {
	store               TradeStore
	calc                *MetricsCalculator
	predictor           Predictor
	cache               *cache.AnalysisCache
	defaultDays         int
	confidenceThreshold float64
}

// NewAnalyticsService wires the facade. The cache and predictor may be nil;
// the facade then skips caching and predictions respectively.
func NewAnalyticsService(store TradeStore, calc *MetricsCalculator, predictor Predictor, analysisCache *cache.AnalysisCache, defaultDays int, confidenceThreshold float64) *AnalyticsService {
	if defaultDays <= 0 {
		defaultDays = 30
	}
	return &AnalyticsService{
		store:               store,
		calc:                calc,
		predictor:           predictor,
		cache:               analysisCache,
		defaultDays:         defaultDays,
		confidenceThreshold: confidenceThreshold,
	}
}

// AnalyzeLeader produces the full analysis payload for one leader. It returns
// (nil, nil) when the leader has no trades in the window.
func (s *AnalyticsService) AnalyzeLeader(ctx context.Context, leaderAddress string, days int, includePrediction bool) (*models.LeaderPerformanceAnalysis, error) {
	if days <= 0 {
		days = s.defaultDays
	}

	if s.cache != nil {
		if analysis, ok := s.cache.Get(ctx, leaderAddress, days, includePrediction); ok {
			return analysis, nil
		}
	}

	// Cheap existence probe before running the full pipeline.
	aggregated, err := s.store.AggregatedPerformance(ctx, leaderAddress, days)
	if err != nil {
		s.logDegraded("aggregated performance", leaderAddress, err)
		return nil, nil
	}
	if aggregated == nil {
		return nil, nil
	}

	trades, err := s.store.LeaderTrades(ctx, leaderAddress, days, 0)
	if err != nil {
		s.logDegraded("leader trades", leaderAddress, err)
		return nil, nil
	}
	if len(trades) == 0 {
		return nil, nil
	}

	allocation, err := s.store.AssetAllocation(ctx, leaderAddress, days)
	if err != nil {
		s.logDegraded("asset allocation", leaderAddress, err)
		allocation = map[string]float64{}
	}

	timeSeries, err := s.store.TimeSeriesData(ctx, leaderAddress, days)
	if err != nil {
		s.logDegraded("time series", leaderAddress, err)
		timeSeries = nil
	}

	analysis := &models.LeaderPerformanceAnalysis{
		LeaderAddress:      leaderAddress,
		AnalysisPeriodDays: days,
		Performance:        s.calc.PerformanceMetrics(trades, days),
		Risk:               s.calc.RiskMetrics(trades),
		Market:             s.calc.MarketMetrics(trades, days),
		TradingFrequency:   s.calc.TradingFrequency(trades),
		AssetAllocation:    allocation,
		AnalysisTimestamp:  time.Now().UTC(),
	}
	if timeSeries != nil {
		analysis.TimeSeries = *timeSeries
	}

	if includePrediction && s.predictor != nil {
		prediction, err := s.predictor.Predict(ctx, leaderAddress, defaultPredictionHorizonDays, s.confidenceThreshold)
		if err != nil {
			// Prediction is an enhancement; the analysis ships without it.
			logrus.WithError(err).WithField("leader", leaderAddress).Warn("Prediction failed, returning analysis without it")
		} else {
			analysis.Prediction = prediction
		}
	}

	if s.cache != nil {
		s.cache.Set(ctx, analysis, includePrediction)
	}
	return analysis, nil
}

// LeaderRiskMetrics computes only the risk block for a leader. (nil, nil)
// when there are no trades.
func (s *AnalyticsService) LeaderRiskMetrics(ctx context.Context, leaderAddress string, days int) (*models.RiskMetrics, error) {
	if days <= 0 {
		days = s.defaultDays
	}

	trades, err := s.store.LeaderTrades(ctx, leaderAddress, days, 0)
	if err != nil {
		s.logDegraded("leader trades", leaderAddress, err)
		return nil, nil
	}
	if len(trades) == 0 {
		return nil, nil
	}

	risk := s.calc.RiskMetrics(trades)
	return &risk, nil
}

// CompareLeaders returns the flattened comparison subset for each leader that
// has data; leaders without trades are silently omitted. (nil, nil) when no
// leader has data.
func (s *AnalyticsService) CompareLeaders(ctx context.Context, leaderAddresses []string, days int) (map[string]models.LeaderComparison, error) {
	if days <= 0 {
		days = s.defaultDays
	}

	comparison := make(map[string]models.LeaderComparison)
	for _, address := range leaderAddresses {
		trades, err := s.store.LeaderTrades(ctx, address, days, 0)
		if err != nil {
			s.logDegraded("leader trades", address, err)
			continue
		}
		if len(trades) == 0 {
			continue
		}

		perf := s.calc.PerformanceMetrics(trades, days)
		risk := s.calc.RiskMetrics(trades)
		comparison[address] = models.LeaderComparison{
			ReturnPct:      perf.TotalReturnPct,
			SharpeRatio:    risk.SharpeRatio,
			MaxDrawdownPct: risk.MaxDrawdownPct,
			WinRatePct:     perf.WinRatePct,
			TotalTrades:    perf.TotalTrades,
			VolatilityPct:  risk.VolatilityPct,
		}
	}

	if len(comparison) == 0 {
		return nil, nil
	}
	return comparison, nil
}

// AnalyzePortfolio evaluates a weighted basket of leaders. Weights are
// normalized to sum to 1; a missing or zero-sum weight vector falls back to
// equal weights. Leaders without data contribute nothing and their weight is
// effectively redistributed by the normalization over analyzed leaders.
func (s *AnalyticsService) AnalyzePortfolio(ctx context.Context, leaderAddresses []string, weights []float64, days int) (*models.PortfolioAnalysis, error) {
	if days <= 0 {
		days = s.defaultDays
	}
	if len(leaderAddresses) == 0 {
		return nil, nil
	}

	normalized := normalizeWeights(leaderAddresses, weights)

	type leaderBlock struct {
		weight float64
		perf   models.PerformanceMetrics
		risk   models.RiskMetrics
	}

	var blocks []leaderBlock
	allocation := make(map[string]float64)
	var analyzedWeight float64

	for i, address := range leaderAddresses {
		trades, err := s.store.LeaderTrades(ctx, address, days, 0)
		if err != nil {
			s.logDegraded("leader trades", address, err)
			continue
		}
		if len(trades) == 0 {
			continue
		}

		blocks = append(blocks, leaderBlock{
			weight: normalized[i],
			perf:   s.calc.PerformanceMetrics(trades, days),
			risk:   s.calc.RiskMetrics(trades),
		})
		allocation[address] = normalized[i]
		analyzedWeight += normalized[i]
	}

	if len(blocks) == 0 || analyzedWeight == 0 {
		return nil, nil
	}

	var expectedReturn, expectedVolatility, maxDrawdown float64
	for _, b := range blocks {
		w := b.weight / analyzedWeight
		expectedReturn += w * b.perf.TotalReturnPct
		expectedVolatility += w * b.risk.VolatilityPct
		maxDrawdown += w * b.risk.MaxDrawdownPct
	}
	for address, w := range allocation {
		allocation[address] = w / analyzedWeight
	}

	sharpe := 0.0
	if expectedVolatility > 0 {
		sharpe = expectedReturn / expectedVolatility
	}

	diversification := float64(len(blocks)) * 0.15
	if diversification > 0.8 {
		diversification = 0.8
	}

	return &models.PortfolioAnalysis{
		ExpectedReturnPct:      expectedReturn,
		ExpectedVolatilityPct:  expectedVolatility,
		SharpeRatio:            sharpe,
		MaxDrawdownPct:         maxDrawdown,
		Allocation:             allocation,
		RebalanceFrequency:     "weekly",
		DiversificationBenefit: diversification,
	}, nil
}

// TrendingLeaders ranks recently active leaders over a named timeframe.
// Unknown timeframes fall back to 7d. (nil, nil) when nothing qualifies.
func (s *AnalyticsService) TrendingLeaders(ctx context.Context, timeframe string, minFollowers, limit int) ([]models.LeaderRanking, error) {
	days, ok := timeframeDays[timeframe]
	if !ok {
		days = timeframeDays["7d"]
	}
	if limit <= 0 {
		limit = 10
	}

	rankings, err := s.store.TopLeaders(ctx, days, minFollowers, limit)
	if err != nil {
		s.logDegraded("top leaders", timeframe, err)
		return nil, nil
	}
	if len(rankings) == 0 {
		return nil, nil
	}

	baseline := s.calc.BaselineCapital
	for i := range rankings {
		rankings[i].Rank = i + 1
		if baseline > 0 {
			rankings[i].ReturnPct = rankings[i].TotalPnL / baseline * 100
		}
	}
	return rankings, nil
}

func (s *AnalyticsService) logDegraded(operation, subject string, err error) {
	logrus.WithError(err).WithFields(logrus.Fields{
		"operation": operation,
		"subject":   subject,
	}).Error("Analytics upstream failure, degrading to no-data")
}

// normalizeWeights returns per-address weights summing to 1. Nil, mismatched
// or non-positive-sum inputs produce equal weights.
func normalizeWeights(addresses []string, weights []float64) []float64 {
	n := len(addresses)
	normalized := make([]float64, n)

	if len(weights) != n {
		for i := range normalized {
			normalized[i] = 1 / float64(n)
		}
		return normalized
	}

	var sum float64
	for _, w := range weights {
		if w > 0 {
			sum += w
		}
	}
	if sum <= 0 {
		for i := range normalized {
			normalized[i] = 1 / float64(n)
		}
		return normalized
	}

	for i, w := range weights {
		if w > 0 {
			normalized[i] = w / sum
		}
	}
	return normalized
}
