package services

import (
	"context"
	"time"

	"github.com/ledgerline/copytrade-analytics/internal/models"
)

// fakeStore is an in-memory TradeStore for service tests. Any field left nil
// simply yields empty data; the err field fails every call.
type fakeStore struct {
	leaderTrades map[string][]models.Trade
	followers    map[int64][]models.Trade
	settings     *models.FollowerCopySettings
	aggregated   map[string]*models.AggregatedPerformance
	allocation   map[string]map[string]float64
	timeSeries   map[string]*models.TimeSeries
	rankings     []models.LeaderRanking
	err          error
}

func (f *fakeStore) LeaderTrades(ctx context.Context, leaderAddress string, days, limit int) ([]models.Trade, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.leaderTrades[leaderAddress], nil
}

func (f *fakeStore) FollowerTrades(ctx context.Context, followerID int64, days int) ([]models.Trade, *models.FollowerCopySettings, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.followers[followerID], f.settings, nil
}

func (f *fakeStore) LeaderTradesBetween(ctx context.Context, leaderAddress string, start, end time.Time) ([]models.Trade, error) {
	if f.err != nil {
		return nil, f.err
	}
	var inRange []models.Trade
	for _, trade := range f.leaderTrades[leaderAddress] {
		if !trade.ExecutedAt.Before(start) && !trade.ExecutedAt.After(end) {
			inRange = append(inRange, trade)
		}
	}
	return inRange, nil
}

func (f *fakeStore) AggregatedPerformance(ctx context.Context, leaderAddress string, days int) (*models.AggregatedPerformance, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.aggregated[leaderAddress], nil
}

func (f *fakeStore) AssetAllocation(ctx context.Context, leaderAddress string, days int) (map[string]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.allocation[leaderAddress], nil
}

func (f *fakeStore) TimeSeriesData(ctx context.Context, leaderAddress string, days int) (*models.TimeSeries, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.timeSeries[leaderAddress], nil
}

func (f *fakeStore) TopLeaders(ctx context.Context, days, minFollowers, limit int) ([]models.LeaderRanking, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.rankings) > limit {
		return f.rankings[:limit], nil
	}
	return f.rankings, nil
}
