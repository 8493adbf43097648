package ml

import (
	"math"
	"sort"
	"time"

	"github.com/ledgerline/copytrade-analytics/internal/models"
)

// FeatureNames is the canonical feature ordering shared by extraction,
// training and prediction. Trading days ride along for confidence scoring
// but are not part of the model input.
var FeatureNames = []string{
	"total_pnl", "win_rate", "avg_win", "avg_loss", "profit_factor",
	"volatility", "momentum", "max_consecutive_losses", "drawdown",
	"avg_trades_per_day", "trade_size_variance", "unique_assets",
	"asset_concentration", "most_active_hour", "weekend_trading_ratio",
	"recent_win_rate", "recent_avg_pnl", "total_trades",
}

// FeatureCount is the model input dimensionality.
var FeatureCount = len(FeatureNames)

// Features is the engineered description of a trade history. Every field
// degrades to 0 (or its neutral value) when the underlying data is absent.
type Features struct {
	TotalPnL             float64
	WinRate              float64
	AvgWin               float64
	AvgLoss              float64
	ProfitFactor         float64
	Volatility           float64
	Momentum             float64
	MaxConsecutiveLosses float64
	Drawdown             float64
	AvgTradesPerDay      float64
	TradeSizeVariance    float64
	UniqueAssets         float64
	AssetConcentration   float64
	MostActiveHour       float64
	WeekendTradingRatio  float64
	RecentWinRate        float64
	RecentAvgPnL         float64
	TotalTrades          float64
	TradingDays          float64
}

// Vector returns the model input in FeatureNames order.
func (f *Features) Vector() []float64 {
	return []float64{
		f.TotalPnL, f.WinRate, f.AvgWin, f.AvgLoss, f.ProfitFactor,
		f.Volatility, f.Momentum, f.MaxConsecutiveLosses, f.Drawdown,
		f.AvgTradesPerDay, f.TradeSizeVariance, f.UniqueAssets,
		f.AssetConcentration, f.MostActiveHour, f.WeekendTradingRatio,
		f.RecentWinRate, f.RecentAvgPnL, f.TotalTrades,
	}
}

// ExtractFeatures computes the feature set from a trade history. It is a
// pure function: nil for an empty history, otherwise the same trades always
// yield the same features.
func ExtractFeatures(trades []models.Trade) *Features {
	if len(trades) == 0 {
		return nil
	}

	// Work on a chronological copy so sequential features (losing streaks,
	// recent window) do not depend on fetch order.
	ordered := append([]models.Trade(nil), trades...)
	sort.SliceStable(ordered, func(a, b int) bool {
		return ordered[a].ExecutedAt.Before(ordered[b].ExecutedAt)
	})

	pnls := make([]float64, len(ordered))
	for i := range ordered {
		pnls[i] = ordered[i].PnL()
	}

	var totalPnL, winSum, lossSum float64
	var winCount, lossCount int
	for _, pnl := range pnls {
		totalPnL += pnl
		if pnl > 0 {
			winCount++
			winSum += pnl
		} else if pnl < 0 {
			lossCount++
			lossSum += pnl
		}
	}

	winRate := float64(winCount) / float64(len(pnls))
	var avgWin, avgLoss, profitFactor float64
	if winCount > 0 {
		avgWin = winSum / float64(winCount)
	}
	if lossCount > 0 {
		avgLoss = math.Abs(lossSum / float64(lossCount))
	}
	if lossSum != 0 {
		profitFactor = math.Abs(winSum / lossSum)
	}

	dates, dailyPnL := dailyPnLSeries(ordered, pnls)

	volatility := sampleStd(dailyPnL)
	momentum := recentMomentum(dailyPnL, 7)
	drawdown := currentDrawdown(dailyPnL)

	sizes := make([]float64, len(ordered))
	assets := make(map[string]float64)
	hourCounts := make(map[int]int)
	var weekendTrades int
	for i, t := range ordered {
		size, _ := t.Size.Float64()
		sizes[i] = size
		assets[t.Asset] += pnls[i]
		ts := t.ExecutedAt.UTC()
		hourCounts[ts.Hour()]++
		if wd := ts.Weekday(); wd == time.Saturday || wd == time.Sunday {
			weekendTrades++
		}
	}

	var concentration float64
	if totalPnL != 0 {
		var maxAssetPnL float64
		for _, pnl := range assets {
			if abs := math.Abs(pnl); abs > maxAssetPnL {
				maxAssetPnL = abs
			}
		}
		concentration = maxAssetPnL / math.Abs(totalPnL)
	}

	recent := pnls
	if len(recent) > 10 {
		recent = recent[len(recent)-10:]
	}
	var recentWins int
	var recentSum float64
	for _, pnl := range recent {
		if pnl > 0 {
			recentWins++
		}
		recentSum += pnl
	}

	f := &Features{
		TotalPnL:             totalPnL,
		WinRate:              winRate,
		AvgWin:               avgWin,
		AvgLoss:              avgLoss,
		ProfitFactor:         profitFactor,
		Volatility:           volatility,
		Momentum:             momentum,
		MaxConsecutiveLosses: float64(maxConsecutiveLosses(pnls)),
		Drawdown:             drawdown,
		AvgTradesPerDay:      float64(len(ordered)) / float64(len(dates)),
		TradeSizeVariance:    sampleVariance(sizes),
		UniqueAssets:         float64(len(assets)),
		AssetConcentration:   concentration,
		MostActiveHour:       float64(mostFrequentHour(hourCounts)),
		WeekendTradingRatio:  float64(weekendTrades) / float64(len(ordered)),
		RecentWinRate:        float64(recentWins) / float64(len(recent)),
		RecentAvgPnL:         recentSum / float64(len(recent)),
		TotalTrades:          float64(len(ordered)),
		TradingDays:          float64(len(dates)),
	}
	f.clean()
	return f
}

// clean zeroes any non-finite value so downstream math never sees NaN/Inf.
func (f *Features) clean() {
	vals := []*float64{
		&f.TotalPnL, &f.WinRate, &f.AvgWin, &f.AvgLoss, &f.ProfitFactor,
		&f.Volatility, &f.Momentum, &f.MaxConsecutiveLosses, &f.Drawdown,
		&f.AvgTradesPerDay, &f.TradeSizeVariance, &f.UniqueAssets,
		&f.AssetConcentration, &f.MostActiveHour, &f.WeekendTradingRatio,
		&f.RecentWinRate, &f.RecentAvgPnL, &f.TotalTrades, &f.TradingDays,
	}
	for _, v := range vals {
		if math.IsNaN(*v) || math.IsInf(*v, 0) {
			*v = 0
		}
	}
}

// dailyPnLSeries buckets chronologically ordered per-trade PnL by UTC day.
func dailyPnLSeries(ordered []models.Trade, pnls []float64) ([]string, []float64) {
	var dates []string
	var daily []float64
	for i, t := range ordered {
		date := t.ExecutedAt.UTC().Format("2006-01-02")
		if len(dates) == 0 || dates[len(dates)-1] != date {
			dates = append(dates, date)
			daily = append(daily, 0)
		}
		daily[len(daily)-1] += pnls[i]
	}
	return dates, daily
}

// recentMomentum is the mean day-over-day percentage change across the last
// n daily buckets. Changes off a zero base are skipped.
func recentMomentum(daily []float64, n int) float64 {
	var changes []float64
	for i := 1; i < len(daily); i++ {
		if daily[i-1] == 0 {
			continue
		}
		changes = append(changes, (daily[i]-daily[i-1])/math.Abs(daily[i-1]))
	}
	if len(changes) == 0 {
		return 0
	}
	if len(changes) > n {
		changes = changes[len(changes)-n:]
	}
	var sum float64
	for _, c := range changes {
		sum += c
	}
	return sum / float64(len(changes))
}

func currentDrawdown(daily []float64) float64 {
	if len(daily) == 0 {
		return 0
	}
	var cumulative, runningMax, drawdown float64
	for i, pnl := range daily {
		cumulative += pnl
		if i == 0 || cumulative > runningMax {
			runningMax = cumulative
		}
		drawdown = cumulative - runningMax
	}
	return math.Abs(drawdown)
}

func maxConsecutiveLosses(pnls []float64) int {
	var streak, longest int
	for _, pnl := range pnls {
		if pnl < 0 {
			streak++
			if streak > longest {
				longest = streak
			}
		} else {
			streak = 0
		}
	}
	return longest
}

// mostFrequentHour returns the modal trading hour, midday when there is no
// activity to speak of. Ties break toward the earlier hour.
func mostFrequentHour(counts map[int]int) int {
	if len(counts) == 0 {
		return 12
	}
	best, bestCount := 24, 0
	for hour, count := range counts {
		if count > bestCount || (count == bestCount && hour < best) {
			best, bestCount = hour, count
		}
	}
	return best
}

func sampleStd(values []float64) float64 {
	return math.Sqrt(sampleVariance(values))
}

func sampleVariance(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	avg := sum / float64(len(values))
	var sumSq float64
	for _, v := range values {
		d := v - avg
		sumSq += d * d
	}
	return sumSq / float64(len(values)-1)
}
