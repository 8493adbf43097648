package models

import (
	"time"

	"github.com/ledgerline/copytrade-analytics/internal/utils"
)

// BacktestStatus is the lifecycle state of a backtest job. Jobs move
// queued -> running -> completed|failed, one direction only.
type BacktestStatus string

const (
	BacktestStatusQueued    BacktestStatus = "queued"
	BacktestStatusRunning   BacktestStatus = "running"
	BacktestStatusCompleted BacktestStatus = "completed"
	BacktestStatusFailed    BacktestStatus = "failed"
)

// Terminal reports whether the status is an end state.
func (s BacktestStatus) Terminal() bool {
	return s == BacktestStatusCompleted || s == BacktestStatusFailed
}

// BacktestConfig is the immutable configuration snapshot taken when a
// backtest is submitted.
type BacktestConfig struct {
	LeaderAddress  string    `json:"leader_address"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	InitialCapital float64   `json:"initial_capital"`
	CopyPercentage float64   `json:"copy_percentage"`
}

// maxBacktestWindowDays caps the replay window.
const maxBacktestWindowDays = 365

// Validate checks the configuration before a job is accepted.
func (c BacktestConfig) Validate() error {
	if c.LeaderAddress == "" {
		return utils.NewValidationError("Leader address is required")
	}
	if !c.EndDate.After(c.StartDate) {
		return utils.NewValidationError("End date must be after start date")
	}
	if c.EndDate.Sub(c.StartDate) > maxBacktestWindowDays*24*time.Hour {
		return utils.NewValidationErrorf("Backtest window cannot exceed %d days", maxBacktestWindowDays)
	}
	if c.InitialCapital <= 0 {
		return utils.NewValidationError("Initial capital must be positive")
	}
	if c.CopyPercentage <= 0 || c.CopyPercentage > 100 {
		return utils.NewValidationError("Copy percentage must be between 0 and 100")
	}
	return nil
}

// BacktestResult is the outcome of a completed replay.
type BacktestResult struct {
	TotalReturnPct float64 `json:"total_return_pct"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	TotalTrades    int     `json:"total_trades"`
	WinRatePct     float64 `json:"win_rate_pct"`
	FinalCapital   float64 `json:"final_capital"`
}

// BacktestJob is an in-memory job record. Job state lives only in the
// tracker's map; a process restart loses it.
type BacktestJob struct {
	ID          string          `json:"backtest_id"`
	Status      BacktestStatus  `json:"status"`
	Config      BacktestConfig  `json:"config"`
	Progress    int             `json:"progress"`
	Result      *BacktestResult `json:"results,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}
