package services

import (
	"context"
	"time"

	"github.com/ledgerline/copytrade-analytics/internal/models"
)

// TradeStore is the read surface of the trade ledger that the analytics
// services depend on. Implementations return empty results, not errors, when
// the requested entity simply has no data.
type TradeStore interface {
	LeaderTrades(ctx context.Context, leaderAddress string, days, limit int) ([]models.Trade, error)
	FollowerTrades(ctx context.Context, followerID int64, days int) ([]models.Trade, *models.FollowerCopySettings, error)
	LeaderTradesBetween(ctx context.Context, leaderAddress string, start, end time.Time) ([]models.Trade, error)
	AggregatedPerformance(ctx context.Context, leaderAddress string, days int) (*models.AggregatedPerformance, error)
	AssetAllocation(ctx context.Context, leaderAddress string, days int) (map[string]float64, error)
	TimeSeriesData(ctx context.Context, leaderAddress string, days int) (*models.TimeSeries, error)
	TopLeaders(ctx context.Context, days, minFollowers, limit int) ([]models.LeaderRanking, error)
}
