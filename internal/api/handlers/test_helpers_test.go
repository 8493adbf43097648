package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/ledgerline/copytrade-analytics/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubStore is a minimal in-memory TradeStore for handler tests.
type stubStore struct {
	leaderTrades map[string][]models.Trade
	aggregated   map[string]*models.AggregatedPerformance
	rankings     []models.LeaderRanking
	err          error
}

func (s *stubStore) LeaderTrades(ctx context.Context, leaderAddress string, days, limit int) ([]models.Trade, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.leaderTrades[leaderAddress], nil
}

func (s *stubStore) FollowerTrades(ctx context.Context, followerID int64, days int) ([]models.Trade, *models.FollowerCopySettings, error) {
	return nil, nil, s.err
}

func (s *stubStore) LeaderTradesBetween(ctx context.Context, leaderAddress string, start, end time.Time) ([]models.Trade, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.leaderTrades[leaderAddress], nil
}

func (s *stubStore) AggregatedPerformance(ctx context.Context, leaderAddress string, days int) (*models.AggregatedPerformance, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.aggregated[leaderAddress], nil
}

func (s *stubStore) AssetAllocation(ctx context.Context, leaderAddress string, days int) (map[string]float64, error) {
	return map[string]float64{"BTC": 100}, s.err
}

func (s *stubStore) TimeSeriesData(ctx context.Context, leaderAddress string, days int) (*models.TimeSeries, error) {
	return &models.TimeSeries{}, s.err
}

func (s *stubStore) TopLeaders(ctx context.Context, days, minFollowers, limit int) ([]models.LeaderRanking, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.rankings, nil
}

func stubTrades(n int) []models.Trade {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	trades := make([]models.Trade, 0, n)
	for i := 0; i < n; i++ {
		side := models.TradeSideSell
		price := 110.0
		if i%2 == 1 {
			side = models.TradeSideBuy
			price = 100.0
		}
		trades = append(trades, models.Trade{
			LeaderAddress: "0xleader",
			Asset:         "BTC",
			Side:          side,
			Size:          decimal.NewFromInt(1),
			Price:         decimal.NewFromFloat(price),
			IsLeaderTrade: true,
			ExecutedAt:    base.Add(time.Duration(i) * time.Hour),
			Status:        models.TradeStatusFilled,
		})
	}
	return trades
}

func populatedStubStore() *stubStore {
	return &stubStore{
		leaderTrades: map[string][]models.Trade{
			"0xleader": stubTrades(10),
		},
		aggregated: map[string]*models.AggregatedPerformance{
			"0xleader": {TradingDays: 1, TotalTrades: 10},
		},
	}
}
