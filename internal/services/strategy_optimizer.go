package services

import (
	"context"
	"math"

	"github.com/ledgerline/copytrade-analytics/internal/models"
	"github.com/sirupsen/logrus"
)

// StrategyOptimizer derives recommended copy-trading settings and a leader
// allocation from a follower's risk preferences.
type StrategyOptimizer struct {
	store      TradeStore
	calc       *MetricsCalculator
	windowDays int
}

// NewStrategyOptimizer creates an optimizer reading follower history over
// windowDays days.
func NewStrategyOptimizer(store TradeStore, calc *MetricsCalculator, windowDays int) *StrategyOptimizer {
	if windowDays <= 0 {
		windowDays = 90
	}
	return &StrategyOptimizer{
		store:      store,
		calc:       calc,
		windowDays: windowDays,
	}
}

// Optimize produces a full optimization for a follower. Ledger failures
// degrade to an empty history rather than failing the call; the settings
// derivation itself is deterministic in the inputs.
func (o *StrategyOptimizer) Optimize(ctx context.Context, followerID int64, riskTolerance, maxDrawdownPct, targetReturnPct float64) (*models.FollowerOptimization, error) {
	trades, _, err := o.store.FollowerTrades(ctx, followerID, o.windowDays)
	if err != nil {
		logrus.WithError(err).WithField("follower_id", followerID).Warn("Failed to fetch follower trades, optimizing without history")
		trades = nil
	}

	currentPerformance := o.calc.PerformanceMetrics(trades, o.windowDays)
	currentRisk := o.calc.RiskMetrics(trades)

	optimized := DeriveCopySettings(riskTolerance, maxDrawdownPct, targetReturnPct)

	recommended := o.recommendLeaders(ctx, riskTolerance)
	allocation := EqualWeightAllocation(recommended)

	return &models.FollowerOptimization{
		FollowerID: followerID,
		CurrentState: models.FollowerSnapshot{
			Performance: currentPerformance,
			Risk:        currentRisk,
		},
		OptimizedSettings:   optimized,
		ExpectedImprovement: standingImprovementEstimate(),
		RiskAssessment:      currentRisk,
		RecommendedLeaders:  recommended,
		PortfolioAllocation: allocation,
		ConfidenceScore:     0.75,
	}, nil
}

// DeriveCopySettings maps risk preferences onto concrete copy parameters.
func DeriveCopySettings(riskTolerance, maxDrawdownPct, targetReturnPct float64) models.CopySettings {
	return models.CopySettings{
		CopyPercentage:  math.Min(riskTolerance*20, 15),
		MaxPositionSize: 1000 * (1 + riskTolerance),
		StopLossPct:     maxDrawdownPct * 0.5,
		TakeProfitPct:   targetReturnPct * 0.3,
		RiskControls: models.RiskControls{
			MaxTradesPerDay:      int(5 * (1 + riskTolerance)),
			MaxConsecutiveLosses: int(3 * (2 - riskTolerance)),
			CorrelationLimit:     0.8 - riskTolerance*0.2,
		},
	}
}

// EqualWeightAllocation spreads 100% evenly across the given leaders. An
// empty leader list yields an empty map.
func EqualWeightAllocation(leaders []string) map[string]float64 {
	allocation := make(map[string]float64, len(leaders))
	if len(leaders) == 0 {
		return allocation
	}
	weight := 100 / float64(len(leaders))
	for _, leader := range leaders {
		allocation[leader] = weight
	}
	return allocation
}

func (o *StrategyOptimizer) recommendLeaders(ctx context.Context, riskTolerance float64) []string {
	rankings, err := o.store.TopLeaders(ctx, o.windowDays, 1, 3)
	if err != nil {
		logrus.WithError(err).Warn("Failed to fetch leader recommendations")
		return nil
	}

	leaders := make([]string, 0, len(rankings))
	for _, r := range rankings {
		leaders = append(leaders, r.LeaderAddress)
	}
	return leaders
}

// standingImprovementEstimate is a coarse fixed estimate of what the proposed
// settings buy. A replay-driven estimator would replace this; the shape of
// the result is the contract, not the numbers.
func standingImprovementEstimate() models.ExpectedImprovement {
	return models.ExpectedImprovement{
		ReturnImprovementPct: 2.5,
		RiskReductionPct:     15.0,
		SharpeImprovement:    0.3,
		DrawdownReductionPct: 20.0,
	}
}
