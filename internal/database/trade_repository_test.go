package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/copytrade-analytics/internal/models"
)

// MockPoolAdapter wraps pgxmock.PgxPoolIface to implement DatabasePool.
type MockPoolAdapter struct {
	mock pgxmock.PgxPoolIface
}

func NewMockPoolAdapter(mock pgxmock.PgxPoolIface) DatabasePool {
	return &MockPoolAdapter{mock: mock}
}

func (m *MockPoolAdapter) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return m.mock.QueryRow(ctx, sql, args...)
}

func (m *MockPoolAdapter) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	return m.mock.Exec(ctx, sql, args...)
}

func (m *MockPoolAdapter) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return m.mock.Query(ctx, sql, args...)
}

func newMockRepo(t *testing.T) (*TradeRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	return NewTradeRepository(NewMockPoolAdapter(mockPool)), mockPool
}

var tradeColumns = []string{
	"id", "leader_address", "asset", "side", "size", "price",
	"order_type", "is_leader_trade", "executed_at", "status",
}

func TestTradeRepository_LeaderTrades(t *testing.T) {
	repo, mockPool := newMockRepo(t)
	executedAt := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	mockPool.ExpectQuery("ORDER BY executed_at DESC").
		WithArgs("0xleader", 30).
		WillReturnRows(pgxmock.NewRows(tradeColumns).
			AddRow(int64(2), "0xleader", "BTC", "sell", "1.5", "40000", "market", true, executedAt, "filled").
			AddRow(int64(1), "0xleader", "ETH", "buy", "2", "2500", "limit", true, executedAt.Add(-time.Hour), "filled"))

	trades, err := repo.LeaderTrades(context.Background(), "0xleader", 30, 0)
	require.NoError(t, err)
	require.Len(t, trades, 2)

	assert.Equal(t, int64(2), trades[0].ID)
	assert.Equal(t, models.TradeSideSell, trades[0].Side)
	assert.Equal(t, "BTC", trades[0].Asset)
	assert.InDelta(t, 60000.0, trades[0].PnL(), 1e-9)
	assert.InDelta(t, -5000.0, trades[1].PnL(), 1e-9)

	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestTradeRepository_LeaderTrades_WithLimit(t *testing.T) {
	repo, mockPool := newMockRepo(t)

	mockPool.ExpectQuery("LIMIT \\$3").
		WithArgs("0xleader", 30, 5).
		WillReturnRows(pgxmock.NewRows(tradeColumns))

	trades, err := repo.LeaderTrades(context.Background(), "0xleader", 30, 5)
	require.NoError(t, err)
	assert.Empty(t, trades)

	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestTradeRepository_LeaderTrades_QueryError(t *testing.T) {
	repo, mockPool := newMockRepo(t)

	mockPool.ExpectQuery("ORDER BY executed_at DESC").
		WithArgs("0xleader", 30).
		WillReturnError(errors.New("connection refused"))

	trades, err := repo.LeaderTrades(context.Background(), "0xleader", 30, 0)
	assert.Error(t, err)
	assert.Nil(t, trades)
	assert.Contains(t, err.Error(), "failed to fetch leader trades")
}

func TestTradeRepository_FollowerTrades(t *testing.T) {
	repo, mockPool := newMockRepo(t)
	executedAt := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	followerID := int64(42)

	columns := []string{
		"id", "leader_address", "follower_id", "asset", "side", "size", "price",
		"order_type", "is_leader_trade", "executed_at", "status",
		"copy_percentage", "max_position_size",
	}
	mockPool.ExpectQuery("JOIN followers f").
		WithArgs(followerID, 90).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(int64(10), "0xleader", &followerID, "BTC", "buy", "0.5", "40000", "market", false, executedAt, "filled", "10", "5000"))

	trades, settings, err := repo.FollowerTrades(context.Background(), followerID, 90)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	require.NotNil(t, settings)

	assert.Equal(t, followerID, *trades[0].FollowerID)
	assert.False(t, trades[0].IsLeaderTrade)
	assert.Equal(t, "10", settings.CopyPercentage.String())

	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestTradeRepository_FollowerTrades_NoHistory(t *testing.T) {
	repo, mockPool := newMockRepo(t)

	mockPool.ExpectQuery("JOIN followers f").
		WithArgs(int64(7), 90).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "leader_address", "follower_id", "asset", "side", "size", "price",
			"order_type", "is_leader_trade", "executed_at", "status",
			"copy_percentage", "max_position_size",
		}))

	trades, settings, err := repo.FollowerTrades(context.Background(), int64(7), 90)
	require.NoError(t, err)
	assert.Empty(t, trades)
	assert.Nil(t, settings)
}

func TestTradeRepository_LeaderTradesBetween(t *testing.T) {
	repo, mockPool := newMockRepo(t)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	mockPool.ExpectQuery("ORDER BY executed_at ASC").
		WithArgs("0xleader", start, end).
		WillReturnRows(pgxmock.NewRows(tradeColumns).
			AddRow(int64(1), "0xleader", "BTC", "sell", "1", "100", "market", true, start.Add(time.Hour), "filled"))

	trades, err := repo.LeaderTradesBetween(context.Background(), "0xleader", start, end)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, int64(1), trades[0].ID)

	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestTradeRepository_AggregatedPerformance(t *testing.T) {
	repo, mockPool := newMockRepo(t)

	columns := []string{
		"trading_days", "total_trades", "total_volume", "total_pnl",
		"avg_daily_pnl", "daily_pnl_stddev", "profitable_days",
		"max_drawdown", "best_day", "worst_day",
	}
	mockPool.ExpectQuery("WITH daily_pnl AS").
		WithArgs("0xleader", 30).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(10, 50, 100000.0, 500.0, 50.0, 25.0, 7, 120.0, 200.0, -80.0))

	agg, err := repo.AggregatedPerformance(context.Background(), "0xleader", 30)
	require.NoError(t, err)
	require.NotNil(t, agg)

	assert.Equal(t, 10, agg.TradingDays)
	assert.InDelta(t, 0.7, agg.WinRate, 1e-9)
	assert.InDelta(t, 2.0, agg.SharpeRatio, 1e-9)
	assert.InDelta(t, 120.0, agg.MaxDrawdown, 1e-9)
}

func TestTradeRepository_AggregatedPerformance_NoTradingDays(t *testing.T) {
	repo, mockPool := newMockRepo(t)

	columns := []string{
		"trading_days", "total_trades", "total_volume", "total_pnl",
		"avg_daily_pnl", "daily_pnl_stddev", "profitable_days",
		"max_drawdown", "best_day", "worst_day",
	}
	mockPool.ExpectQuery("WITH daily_pnl AS").
		WithArgs("0xghost", 30).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(0, 0, 0.0, 0.0, 0.0, 0.0, 0, 0.0, 0.0, 0.0))

	agg, err := repo.AggregatedPerformance(context.Background(), "0xghost", 30)
	assert.NoError(t, err)
	assert.Nil(t, agg)
}

func TestTradeRepository_AssetAllocation(t *testing.T) {
	repo, mockPool := newMockRepo(t)

	mockPool.ExpectQuery("GROUP BY asset").
		WithArgs("0xleader", 30).
		WillReturnRows(pgxmock.NewRows([]string{"asset", "total_volume"}).
			AddRow("BTC", 75000.0).
			AddRow("ETH", 25000.0))

	allocation, err := repo.AssetAllocation(context.Background(), "0xleader", 30)
	require.NoError(t, err)

	assert.InDelta(t, 75.0, allocation["BTC"], 1e-9)
	assert.InDelta(t, 25.0, allocation["ETH"], 1e-9)

	var total float64
	for _, share := range allocation {
		total += share
	}
	assert.InDelta(t, 100.0, total, 1e-9)
}

func TestTradeRepository_AssetAllocation_NoVolume(t *testing.T) {
	repo, mockPool := newMockRepo(t)

	mockPool.ExpectQuery("GROUP BY asset").
		WithArgs("0xghost", 30).
		WillReturnRows(pgxmock.NewRows([]string{"asset", "total_volume"}))

	allocation, err := repo.AssetAllocation(context.Background(), "0xghost", 30)
	require.NoError(t, err)
	assert.Empty(t, allocation)
}

func TestTradeRepository_TimeSeriesData(t *testing.T) {
	repo, mockPool := newMockRepo(t)

	columns := []string{"trade_date", "daily_pnl", "daily_trades", "daily_volume", "cumulative_pnl"}
	mockPool.ExpectQuery("trade_date::text").
		WithArgs("0xleader", 30).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow("2024-01-01", 100.0, 5, 10000.0, 100.0).
			AddRow("2024-01-02", -40.0, 3, 6000.0, 60.0))

	series, err := repo.TimeSeriesData(context.Background(), "0xleader", 30)
	require.NoError(t, err)
	require.NotNil(t, series)

	assert.Equal(t, []string{"2024-01-01", "2024-01-02"}, series.Dates)
	assert.Equal(t, []float64{100, -40}, series.DailyPnL)
	assert.Equal(t, []float64{100, 60}, series.CumulativePnL)
	assert.Equal(t, []int{5, 3}, series.DailyTrades)
}

func TestTradeRepository_TopLeaders(t *testing.T) {
	repo, mockPool := newMockRepo(t)

	columns := []string{"leader_address", "total_pnl", "total_trades", "sharpe_ratio", "followers_count"}
	mockPool.ExpectQuery("per_leader").
		WithArgs(7, 1, 10).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow("0xtop", 900.0, 40, 1.2, 15).
			AddRow("0xsecond", 400.0, 22, 0.8, 3))

	rankings, err := repo.TopLeaders(context.Background(), 7, 1, 10)
	require.NoError(t, err)
	require.Len(t, rankings, 2)

	assert.Equal(t, 1, rankings[0].Rank)
	assert.Equal(t, "0xtop", rankings[0].LeaderAddress)
	assert.InDelta(t, 900.0, rankings[0].TotalPnL, 1e-9)
	assert.InDelta(t, 1.2, rankings[0].SharpeRatio, 1e-9)
	assert.Equal(t, 2, rankings[1].Rank)
}
