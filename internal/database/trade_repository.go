package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ledgerline/copytrade-analytics/internal/models"
)

// DatabasePool defines the interface for database pool operations.
// This interface allows for both real pool and mock pool implementations.
type DatabasePool interface {
	// QueryRow executes a query that is expected to return at most one row.
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	// Exec executes a query without returning any rows.
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	// Query executes a query that returns rows.
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// TradeRepository is the read-only accessor over the trade ledger. Every
// lookup returns an empty result when nothing qualifies; absence is not an
// error.
type TradeRepository struct {
	pool DatabasePool
}

// NewTradeRepository creates a new trade repository.
func NewTradeRepository(pool DatabasePool) *TradeRepository {
	return &TradeRepository{
		pool: pool,
	}
}

// LeaderTrades returns filled, leader-attributed trades within the last
// `days` days, newest first. A limit of 0 means no limit.
func (r *TradeRepository) LeaderTrades(ctx context.Context, leaderAddress string, days, limit int) ([]models.Trade, error) {
	query := `
		SELECT id, leader_address, asset, side, size, price,
		       order_type, is_leader_trade, executed_at, status
		FROM trades
		WHERE leader_address = $1
		  AND is_leader_trade = true
		  AND executed_at >= NOW() - make_interval(days => $2)
		  AND status = 'filled'
		ORDER BY executed_at DESC
	`
	args := []interface{}{leaderAddress, days}
	if limit > 0 {
		query += " LIMIT $3"
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leader trades: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// FollowerTrades returns filled, follower-attributed trades within the last
// `days` days, newest first, along with the follower's current copy settings.
// The settings are nil when the follower has no qualifying trades.
func (r *TradeRepository) FollowerTrades(ctx context.Context, followerID int64, days int) ([]models.Trade, *models.FollowerCopySettings, error) {
	query := `
		SELECT t.id, t.leader_address, t.follower_id, t.asset, t.side, t.size, t.price,
		       t.order_type, t.is_leader_trade, t.executed_at, t.status,
		       f.copy_percentage, f.max_position_size
		FROM trades t
		JOIN followers f ON t.follower_id = f.id
		WHERE t.follower_id = $1
		  AND t.is_leader_trade = false
		  AND t.executed_at >= NOW() - make_interval(days => $2)
		  AND t.status = 'filled'
		ORDER BY t.executed_at DESC
	`

	rows, err := r.pool.Query(ctx, query, followerID, days)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch follower trades: %w", err)
	}
	defer rows.Close()

	var trades []models.Trade
	var settings *models.FollowerCopySettings
	for rows.Next() {
		var t models.Trade
		var s models.FollowerCopySettings
		if err := rows.Scan(
			&t.ID, &t.LeaderAddress, &t.FollowerID, &t.Asset, &t.Side, &t.Size, &t.Price,
			&t.OrderType, &t.IsLeaderTrade, &t.ExecutedAt, &t.Status,
			&s.CopyPercentage, &s.MaxPositionSize,
		); err != nil {
			return nil, nil, fmt.Errorf("failed to scan follower trade: %w", err)
		}
		if settings == nil {
			settings = &s
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating follower trades: %w", err)
	}

	return trades, settings, nil
}

// LeaderTradesBetween returns filled leader trades inside [start, end),
// oldest first, for backtest replay.
func (r *TradeRepository) LeaderTradesBetween(ctx context.Context, leaderAddress string, start, end time.Time) ([]models.Trade, error) {
	query := `
		SELECT id, leader_address, asset, side, size, price,
		       order_type, is_leader_trade, executed_at, status
		FROM trades
		WHERE leader_address = $1
		  AND is_leader_trade = true
		  AND executed_at >= $2
		  AND executed_at < $3
		  AND status = 'filled'
		ORDER BY executed_at ASC
	`

	rows, err := r.pool.Query(ctx, query, leaderAddress, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leader trades for window: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// AggregatedPerformance returns daily-bucketed ledger statistics for a
// leader, or nil when the leader has no qualifying trades in the window.
func (r *TradeRepository) AggregatedPerformance(ctx context.Context, leaderAddress string, days int) (*models.AggregatedPerformance, error) {
	query := `
		WITH daily_pnl AS (
			SELECT
				DATE(executed_at) AS trade_date,
				SUM(CASE WHEN side = 'sell' THEN size * price ELSE -size * price END) AS daily_pnl,
				COUNT(*) AS daily_trades,
				SUM(size * price) AS daily_volume
			FROM trades
			WHERE leader_address = $1
			  AND is_leader_trade = true
			  AND executed_at >= NOW() - make_interval(days => $2)
			  AND status = 'filled'
			GROUP BY DATE(executed_at)
		),
		cumulative AS (
			SELECT
				trade_date, daily_pnl, daily_trades, daily_volume,
				SUM(daily_pnl) OVER (ORDER BY trade_date) AS cumulative_pnl,
				MAX(SUM(daily_pnl) OVER (ORDER BY trade_date)) OVER (ORDER BY trade_date ROWS UNBOUNDED PRECEDING) AS running_max
			FROM daily_pnl
		)
		SELECT
			COUNT(*) AS trading_days,
			COALESCE(SUM(daily_trades), 0) AS total_trades,
			COALESCE(SUM(daily_volume), 0) AS total_volume,
			COALESCE(SUM(daily_pnl), 0) AS total_pnl,
			COALESCE(AVG(daily_pnl), 0) AS avg_daily_pnl,
			COALESCE(STDDEV(daily_pnl), 0) AS daily_pnl_stddev,
			COALESCE(SUM(CASE WHEN daily_pnl > 0 THEN 1 ELSE 0 END), 0) AS profitable_days,
			COALESCE(ABS(MIN(cumulative_pnl - running_max)), 0) AS max_drawdown,
			COALESCE(MAX(daily_pnl), 0) AS best_day,
			COALESCE(MIN(daily_pnl), 0) AS worst_day
		FROM cumulative
	`

	var agg models.AggregatedPerformance
	err := r.pool.QueryRow(ctx, query, leaderAddress, days).Scan(
		&agg.TradingDays, &agg.TotalTrades, &agg.TotalVolume, &agg.TotalPnL,
		&agg.AvgDailyPnL, &agg.DailyPnLStddev, &agg.ProfitableDays,
		&agg.MaxDrawdown, &agg.BestDay, &agg.WorstDay,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch aggregated performance: %w", err)
	}
	if agg.TradingDays == 0 {
		return nil, nil
	}

	if agg.TradingDays > 0 {
		agg.WinRate = float64(agg.ProfitableDays) / float64(agg.TradingDays)
	}
	if agg.DailyPnLStddev > 0 {
		agg.SharpeRatio = agg.AvgDailyPnL / agg.DailyPnLStddev
	}

	return &agg, nil
}

// AssetAllocation returns each asset's share of traded volume as a
// percentage. Shares sum to 100; the map is empty when there is no volume.
func (r *TradeRepository) AssetAllocation(ctx context.Context, leaderAddress string, days int) (map[string]float64, error) {
	query := `
		SELECT asset, SUM(size * price) AS total_volume
		FROM trades
		WHERE leader_address = $1
		  AND is_leader_trade = true
		  AND executed_at >= NOW() - make_interval(days => $2)
		  AND status = 'filled'
		GROUP BY asset
		ORDER BY total_volume DESC
	`

	rows, err := r.pool.Query(ctx, query, leaderAddress, days)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch asset allocation: %w", err)
	}
	defer rows.Close()

	volumes := make(map[string]float64)
	var totalVolume float64
	for rows.Next() {
		var asset string
		var volume float64
		if err := rows.Scan(&asset, &volume); err != nil {
			return nil, fmt.Errorf("failed to scan asset volume: %w", err)
		}
		volumes[asset] = volume
		totalVolume += volume
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating asset volumes: %w", err)
	}

	allocation := make(map[string]float64, len(volumes))
	if totalVolume == 0 {
		return allocation, nil
	}
	for asset, volume := range volumes {
		allocation[asset] = volume / totalVolume * 100
	}

	return allocation, nil
}

// TimeSeriesData returns parallel daily arrays for charting, oldest first.
func (r *TradeRepository) TimeSeriesData(ctx context.Context, leaderAddress string, days int) (*models.TimeSeries, error) {
	query := `
		WITH daily AS (
			SELECT
				DATE(executed_at) AS trade_date,
				SUM(CASE WHEN side = 'sell' THEN size * price ELSE -size * price END) AS daily_pnl,
				COUNT(*) AS daily_trades,
				SUM(size * price) AS daily_volume
			FROM trades
			WHERE leader_address = $1
			  AND is_leader_trade = true
			  AND executed_at >= NOW() - make_interval(days => $2)
			  AND status = 'filled'
			GROUP BY DATE(executed_at)
		)
		SELECT
			trade_date::text, daily_pnl, daily_trades, daily_volume,
			SUM(daily_pnl) OVER (ORDER BY trade_date) AS cumulative_pnl
		FROM daily
		ORDER BY trade_date
	`

	rows, err := r.pool.Query(ctx, query, leaderAddress, days)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch time series: %w", err)
	}
	defer rows.Close()

	series := &models.TimeSeries{}
	for rows.Next() {
		var date string
		var dailyPnL, dailyVolume, cumulativePnL float64
		var dailyTrades int
		if err := rows.Scan(&date, &dailyPnL, &dailyTrades, &dailyVolume, &cumulativePnL); err != nil {
			return nil, fmt.Errorf("failed to scan time series row: %w", err)
		}
		series.Dates = append(series.Dates, date)
		series.DailyPnL = append(series.DailyPnL, dailyPnL)
		series.CumulativePnL = append(series.CumulativePnL, cumulativePnL)
		series.DailyTrades = append(series.DailyTrades, dailyTrades)
		series.DailyVolume = append(series.DailyVolume, dailyVolume)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating time series rows: %w", err)
	}

	return series, nil
}

// TopLeaders ranks leaders by realized PnL over the window. Leaders with
// fewer followers than minFollowers are excluded.
func (r *TradeRepository) TopLeaders(ctx context.Context, days, minFollowers, limit int) ([]models.LeaderRanking, error) {
	query := `
		WITH daily AS (
			SELECT
				leader_address,
				DATE(executed_at) AS trade_date,
				SUM(CASE WHEN side = 'sell' THEN size * price ELSE -size * price END) AS daily_pnl,
				COUNT(*) AS daily_trades
			FROM trades
			WHERE is_leader_trade = true
			  AND executed_at >= NOW() - make_interval(days => $1)
			  AND status = 'filled'
			GROUP BY leader_address, DATE(executed_at)
		),
		per_leader AS (
			SELECT
				leader_address,
				SUM(daily_pnl) AS total_pnl,
				SUM(daily_trades) AS total_trades,
				CASE WHEN STDDEV(daily_pnl) > 0 THEN AVG(daily_pnl) / STDDEV(daily_pnl) ELSE 0 END AS sharpe_ratio
			FROM daily
			GROUP BY leader_address
		)
		SELECT
			p.leader_address, p.total_pnl, p.total_trades, p.sharpe_ratio,
			COALESCE(fc.followers_count, 0) AS followers_count
		FROM per_leader p
		LEFT JOIN (
			SELECT leader_address, COUNT(*) AS followers_count
			FROM followers
			WHERE is_active = true
			GROUP BY leader_address
		) fc ON fc.leader_address = p.leader_address
		WHERE COALESCE(fc.followers_count, 0) >= $2
		ORDER BY p.total_pnl DESC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, days, minFollowers, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch top leaders: %w", err)
	}
	defer rows.Close()

	var rankings []models.LeaderRanking
	for rows.Next() {
		var ranking models.LeaderRanking
		if err := rows.Scan(&ranking.LeaderAddress, &ranking.TotalPnL, &ranking.TotalTrades, &ranking.SharpeRatio, &ranking.FollowersCount); err != nil {
			return nil, fmt.Errorf("failed to scan leader ranking: %w", err)
		}
		ranking.Rank = len(rankings) + 1
		rankings = append(rankings, ranking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leader rankings: %w", err)
	}

	return rankings, nil
}

func scanTrades(rows pgx.Rows) ([]models.Trade, error) {
	var trades []models.Trade
	for rows.Next() {
		var t models.Trade
		if err := rows.Scan(
			&t.ID, &t.LeaderAddress, &t.Asset, &t.Side, &t.Size, &t.Price,
			&t.OrderType, &t.IsLeaderTrade, &t.ExecutedAt, &t.Status,
		); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trades: %w", err)
	}

	return trades, nil
}
