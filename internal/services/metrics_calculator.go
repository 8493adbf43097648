package services

import (
	"math"
	"sort"
	"time"

	"github.com/ledgerline/copytrade-analytics/internal/models"
)

// MetricsCalculator turns a set of filled trades into performance, risk and
// trading-pattern statistics. All methods are pure: the same trades always
// produce the same metrics, and empty input produces a zero-valued record
// rather than an error.
type MetricsCalculator struct {
	// BaselineCapital is the fixed notional used to express absolute PnL as
	// percentages. This is a documented approximation: percentages are
	// relative to this baseline, not the trader's real capital.
	BaselineCapital float64
}

const (
	defaultBaselineCapital = 10000.0
	annualizationFactor    = 252 // trading days per year
	maxIntensityTradesDay  = 50.0
)

// NewMetricsCalculator creates a calculator with the given baseline capital.
// A non-positive baseline falls back to the default.
func NewMetricsCalculator(baselineCapital float64) *MetricsCalculator {
	if baselineCapital <= 0 {
		baselineCapital = defaultBaselineCapital
	}
	return &MetricsCalculator{BaselineCapital: baselineCapital}
}

// PerformanceMetrics computes realized performance over a window of
// windowDays days.
func (calc *MetricsCalculator) PerformanceMetrics(trades []models.Trade, windowDays int) models.PerformanceMetrics {
	if len(trades) == 0 {
		return models.PerformanceMetrics{}
	}

	pnls := signedPnLs(trades)

	var totalPnL, totalWins, totalLosses float64
	var largestWin, largestLoss float64
	var winCount, lossCount int
	for _, pnl := range pnls {
		totalPnL += pnl
		switch {
		case pnl > 0:
			winCount++
			totalWins += pnl
			if pnl > largestWin {
				largestWin = pnl
			}
		case pnl < 0:
			lossCount++
			totalLosses += pnl
			if pnl < largestLoss {
				largestLoss = pnl
			}
		}
	}

	winRate := float64(winCount) / float64(len(pnls)) * 100

	var avgWin, avgLoss float64
	if winCount > 0 {
		avgWin = totalWins / float64(winCount)
	}
	if lossCount > 0 {
		avgLoss = math.Abs(totalLosses / float64(lossCount))
	}

	// Profit factor is 0, not infinite, when there are no losing trades.
	var profitFactor float64
	if totalLosses != 0 {
		profitFactor = totalWins / math.Abs(totalLosses)
	}

	totalReturnPct := totalPnL / calc.BaselineCapital * 100
	var annualizedReturn float64
	if windowDays > 0 {
		annualizedReturn = totalReturnPct * (365 / float64(windowDays))
	}

	maxDrawdownPct := calc.maxDrawdownPct(trades, pnls)
	var recoveryFactor, calmarRatio float64
	if maxDrawdownPct > 0 {
		recoveryFactor = totalReturnPct / maxDrawdownPct
		calmarRatio = annualizedReturn / maxDrawdownPct
	}

	return models.PerformanceMetrics{
		TotalReturnPct:      sanitize(totalReturnPct),
		AnnualizedReturnPct: sanitize(annualizedReturn),
		TotalTrades:         len(pnls),
		ProfitableTrades:    winCount,
		WinRatePct:          sanitize(winRate),
		AvgWinPct:           sanitize(avgWin / calc.BaselineCapital * 100),
		AvgLossPct:          sanitize(avgLoss / calc.BaselineCapital * 100),
		LargestWinPct:       sanitize(largestWin / calc.BaselineCapital * 100),
		LargestLossPct:      sanitize(math.Abs(largestLoss) / calc.BaselineCapital * 100),
		ProfitFactor:        sanitize(profitFactor),
		RecoveryFactor:      sanitize(recoveryFactor),
		CalmarRatio:         sanitize(calmarRatio),
	}
}

// RiskMetrics computes drawdown, dispersion and tail-loss statistics.
func (calc *MetricsCalculator) RiskMetrics(trades []models.Trade) models.RiskMetrics {
	if len(trades) == 0 {
		return models.RiskMetrics{RiskLevel: models.RiskLevelLow}
	}

	pnls := signedPnLs(trades)

	vol := stdDev(pnls)
	volatilityPct := vol * math.Sqrt(annualizationFactor) / calc.BaselineCapital * 100

	var negatives []float64
	for _, pnl := range pnls {
		if pnl < 0 {
			negatives = append(negatives, pnl)
		}
	}
	downsideDev := 0.0
	if len(negatives) > 0 {
		downsideDev = stdDev(negatives)
	}
	downsideDevPct := downsideDev / calc.BaselineCapital * 100

	p5 := percentile(pnls, 5)
	var95Pct := p5 / calc.BaselineCapital * 100

	var tailSum float64
	var tailCount int
	for _, pnl := range pnls {
		if pnl <= p5 {
			tailSum += pnl
			tailCount++
		}
	}
	var cvar95Pct float64
	if tailCount > 0 {
		cvar95Pct = tailSum / float64(tailCount) / calc.BaselineCapital * 100
	}

	avg := mean(pnls)
	var sharpe, sortino float64
	if vol > 0 {
		sharpe = avg / vol
	}
	if downsideDev > 0 {
		sortino = avg / downsideDev
	}

	maxDrawdownPct := calc.maxDrawdownPct(trades, pnls)

	// Current drawdown needs live position data that the ledger does not
	// carry, so it stays 0.
	currentDrawdownPct := 0.0

	level, score := AssessRisk(volatilityPct, maxDrawdownPct, var95Pct)

	return models.RiskMetrics{
		MaxDrawdownPct:       sanitize(maxDrawdownPct),
		CurrentDrawdownPct:   currentDrawdownPct,
		VolatilityPct:        sanitize(volatilityPct),
		DownsideDeviationPct: sanitize(downsideDevPct),
		ValueAtRisk95Pct:     sanitize(var95Pct),
		ConditionalVaR95Pct:  sanitize(cvar95Pct),
		SharpeRatio:          sanitize(sharpe),
		SortinoRatio:         sanitize(sortino),
		RiskLevel:            level,
		RiskScore:            score,
	}
}

// MarketMetrics relates the trade set to reference assets. Correlation needs
// a market-data feed this engine does not have, so the neutral defaults are
// returned for any input.
func (calc *MetricsCalculator) MarketMetrics(trades []models.Trade, windowDays int) models.MarketMetrics {
	return models.NeutralMarketMetrics()
}

// TradingFrequency analyzes when and how intensely the trader is active.
func (calc *MetricsCalculator) TradingFrequency(trades []models.Trade) models.TradingFrequency {
	if len(trades) == 0 {
		return models.TradingFrequency{}
	}

	hourCounts := make(map[int]int)
	dayCounts := make(map[string]int)
	tradingDays := make(map[string]struct{})
	for _, t := range trades {
		ts := t.ExecutedAt.UTC()
		hourCounts[ts.Hour()]++
		dayCounts[ts.Weekday().String()]++
		tradingDays[ts.Format("2006-01-02")] = struct{}{}
	}

	tradesPerDay := float64(len(trades)) / float64(len(tradingDays))

	return models.TradingFrequency{
		TradesPerDay:             sanitize(tradesPerDay),
		MostActiveHours:          topHours(hourCounts, 3),
		MostActiveDays:           topDays(dayCounts, 3),
		AvgTimeBetweenTradesMins: sanitize(avgTimeBetweenTrades(trades)),
		TradingIntensityScore:    math.Min(tradesPerDay/maxIntensityTradesDay, 1.0),
	}
}

// maxDrawdownPct walks the cumulative PnL sequence in execution order and
// returns the deepest peak-to-trough decline as a percentage of baseline.
func (calc *MetricsCalculator) maxDrawdownPct(trades []models.Trade, pnls []float64) float64 {
	if len(trades) == 0 {
		return 0
	}

	order := make([]int, len(trades))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return trades[order[a]].ExecutedAt.Before(trades[order[b]].ExecutedAt)
	})

	var cumulative, runningMax, minDrawdown float64
	for i, idx := range order {
		cumulative += pnls[idx]
		if i == 0 || cumulative > runningMax {
			runningMax = cumulative
		}
		if dd := cumulative - runningMax; dd < minDrawdown {
			minDrawdown = dd
		}
	}

	return math.Abs(minDrawdown) / calc.BaselineCapital * 100
}

func avgTimeBetweenTrades(trades []models.Trade) float64 {
	if len(trades) < 2 {
		return 0
	}

	times := make([]time.Time, len(trades))
	for i, t := range trades {
		times[i] = t.ExecutedAt
	}
	sort.Slice(times, func(a, b int) bool { return times[a].Before(times[b]) })

	total := times[len(times)-1].Sub(times[0])
	return total.Minutes() / float64(len(times)-1)
}

func topHours(counts map[int]int, n int) []models.HourCount {
	ranked := make([]models.HourCount, 0, len(counts))
	for hour, count := range counts {
		ranked = append(ranked, models.HourCount{Hour: hour, Count: count})
	}
	sort.Slice(ranked, func(a, b int) bool {
		if ranked[a].Count != ranked[b].Count {
			return ranked[a].Count > ranked[b].Count
		}
		return ranked[a].Hour < ranked[b].Hour
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func topDays(counts map[string]int, n int) []models.DayCount {
	ranked := make([]models.DayCount, 0, len(counts))
	for day, count := range counts {
		ranked = append(ranked, models.DayCount{Day: day, Count: count})
	}
	sort.Slice(ranked, func(a, b int) bool {
		if ranked[a].Count != ranked[b].Count {
			return ranked[a].Count > ranked[b].Count
		}
		return ranked[a].Day < ranked[b].Day
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func signedPnLs(trades []models.Trade) []float64 {
	pnls := make([]float64, len(trades))
	for i := range trades {
		pnls[i] = trades[i].PnL()
	}
	return pnls
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDev is the population standard deviation.
func stdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	avg := mean(values)
	var sumSq float64
	for _, v := range values {
		d := v - avg
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)))
}

// sampleVariance uses Bessel's correction; it is 0 for fewer than two values.
func sampleVariance(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	avg := mean(values)
	var sumSq float64
	for _, v := range values {
		d := v - avg
		sumSq += d * d
	}
	return sumSq / float64(len(values)-1)
}

// percentile computes the q-th percentile (0-100) with linear interpolation
// between closest ranks.
func percentile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	rank := q / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	frac := rank - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// sanitize replaces NaN and infinities with 0 so derived ratios are always
// finite when surfaced.
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
