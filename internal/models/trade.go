package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeSide is the direction of a trade.
type TradeSide string

const (
	TradeSideBuy  TradeSide = "buy"
	TradeSideSell TradeSide = "sell"
)

// TradeStatus is the execution status of a trade.
type TradeStatus string

const (
	TradeStatusPending   TradeStatus = "pending"
	TradeStatusFilled    TradeStatus = "filled"
	TradeStatusCancelled TradeStatus = "cancelled"
	TradeStatusRejected  TradeStatus = "rejected"
)

// Trade represents a single executed trade attributed to a leader or follower.
// Trades are immutable once persisted; analytics only ever reads filled trades
// inside a lookback window.
type Trade struct {
	ID            int64           `json:"id" db:"id"`
	LeaderAddress string          `json:"leader_address" db:"leader_address"`
	FollowerID    *int64          `json:"follower_id,omitempty" db:"follower_id"`
	Asset         string          `json:"asset" db:"asset"`
	Side          TradeSide       `json:"side" db:"side"`
	Size          decimal.Decimal `json:"size" db:"size"`
	Price         decimal.Decimal `json:"price" db:"price"`
	OrderType     string          `json:"order_type" db:"order_type"`
	IsLeaderTrade bool            `json:"is_leader_trade" db:"is_leader_trade"`
	ExecutedAt    time.Time       `json:"executed_at" db:"executed_at"`
	Status        TradeStatus     `json:"status" db:"status"`
}

// PnL returns the signed profit-and-loss contribution of the trade: a sell
// realizes size*price, a buy commits -size*price. This deliberately ignores
// round-trip position matching and treats each fill in isolation.
func (t *Trade) PnL() float64 {
	notional, _ := t.Size.Mul(t.Price).Float64()
	if t.Side == TradeSideSell {
		return notional
	}
	return -notional
}

// FollowerCopySettings is the follower's active copy configuration, joined in
// when follower trades are fetched.
type FollowerCopySettings struct {
	CopyPercentage  decimal.Decimal `json:"copy_percentage" db:"copy_percentage"`
	MaxPositionSize decimal.Decimal `json:"max_position_size" db:"max_position_size"`
}

// TimeSeries holds daily aggregates for charting. All slices are parallel and
// of equal length.
type TimeSeries struct {
	Dates         []string  `json:"dates"`
	DailyPnL      []float64 `json:"daily_pnl"`
	CumulativePnL []float64 `json:"cumulative_pnl"`
	DailyTrades   []int     `json:"daily_trades"`
	DailyVolume   []float64 `json:"daily_volume"`
}

// AggregatedPerformance is the pre-aggregated daily statistics block produced
// by the ledger, used as a cheap existence probe before detailed analysis.
type AggregatedPerformance struct {
	TradingDays    int     `json:"trading_days"`
	TotalTrades    int     `json:"total_trades"`
	TotalVolume    float64 `json:"total_volume"`
	TotalPnL       float64 `json:"total_pnl"`
	AvgDailyPnL    float64 `json:"avg_daily_pnl"`
	DailyPnLStddev float64 `json:"daily_pnl_stddev"`
	ProfitableDays int     `json:"profitable_days"`
	WinRate        float64 `json:"win_rate"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	MaxDrawdown    float64 `json:"max_drawdown"`
	BestDay        float64 `json:"best_day"`
	WorstDay       float64 `json:"worst_day"`
}

// LeaderRanking is one row of the trending-leaders listing.
type LeaderRanking struct {
	Rank           int     `json:"rank"`
	LeaderAddress  string  `json:"leader_address"`
	TotalPnL       float64 `json:"total_pnl"`
	ReturnPct      float64 `json:"return_pct"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	TotalTrades    int     `json:"total_trades"`
	FollowersCount int     `json:"followers_count"`
}
