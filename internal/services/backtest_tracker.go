package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerline/copytrade-analytics/internal/models"
	"github.com/sirupsen/logrus"
)

// BacktestTracker owns the in-memory table of backtest jobs. Jobs move
// queued -> running -> completed|failed exactly once; a duplicate start is a
// no-op. State lives only in memory, so a process restart forgets all jobs.
type BacktestTracker struct {
	store TradeStore
	calc  *MetricsCalculator

	mu   sync.Mutex
	jobs map[string]*models.BacktestJob
}

// NewBacktestTracker creates an empty tracker.
func NewBacktestTracker(store TradeStore, calc *MetricsCalculator) *BacktestTracker {
	return &BacktestTracker{
		store: store,
		calc:  calc,
		jobs:  make(map[string]*models.BacktestJob),
	}
}

// Submit registers a new queued job and returns its id.
func (t *BacktestTracker) Submit(config models.BacktestConfig) string {
	job := &models.BacktestJob{
		ID:        uuid.New().String(),
		Status:    models.BacktestStatusQueued,
		Config:    config,
		CreatedAt: time.Now().UTC(),
	}

	t.mu.Lock()
	t.jobs[job.ID] = job
	t.mu.Unlock()

	return job.ID
}

// Start launches execution of a queued job in the background and returns
// immediately. Starting an unknown id or a job that is already running or
// terminal does nothing.
func (t *BacktestTracker) Start(id string) {
	t.mu.Lock()
	job, ok := t.jobs[id]
	if !ok || job.Status != models.BacktestStatusQueued {
		t.mu.Unlock()
		return
	}
	now := time.Now().UTC()
	job.Status = models.BacktestStatusRunning
	job.StartedAt = &now
	config := job.Config
	t.mu.Unlock()

	go t.execute(id, config)
}

// Job returns a snapshot of the job record, or nil if the id is unknown.
func (t *BacktestTracker) Job(id string) *models.BacktestJob {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, ok := t.jobs[id]
	if !ok {
		return nil
	}
	snapshot := *job
	return &snapshot
}

// execute replays the leader's trades at the configured copy percentage and
// records the outcome on the job. Runs on its own goroutine.
func (t *BacktestTracker) execute(id string, config models.BacktestConfig) {
	ctx := context.Background()

	trades, err := t.store.LeaderTradesBetween(ctx, config.LeaderAddress, config.StartDate, config.EndDate)
	if err != nil {
		logrus.WithError(err).WithField("backtest_id", id).Error("Backtest execution failed")
		t.fail(id, err.Error())
		return
	}

	t.setProgress(id, 50)

	result := t.replay(trades, config)
	t.complete(id, result)
}

// replay scales each leader trade by the copy percentage and measures the
// resulting performance against the initial capital.
func (t *BacktestTracker) replay(trades []models.Trade, config models.BacktestConfig) *models.BacktestResult {
	scale := config.CopyPercentage / 100

	var totalPnL float64
	var wins int
	pnls := make([]float64, len(trades))
	for i, trade := range trades {
		pnl := trade.PnL() * scale
		pnls[i] = pnl
		totalPnL += pnl
		if pnl > 0 {
			wins++
		}
	}

	var winRate float64
	if len(trades) > 0 {
		winRate = float64(wins) / float64(len(trades)) * 100
	}

	var totalReturnPct, maxDrawdownPct float64
	if config.InitialCapital > 0 {
		totalReturnPct = totalPnL / config.InitialCapital * 100

		var cumulative, runningMax, minDrawdown float64
		for i, pnl := range pnls {
			cumulative += pnl
			if i == 0 || cumulative > runningMax {
				runningMax = cumulative
			}
			if dd := cumulative - runningMax; dd < minDrawdown {
				minDrawdown = dd
			}
		}
		maxDrawdownPct = -minDrawdown / config.InitialCapital * 100
	}

	var sharpe float64
	if vol := stdDev(pnls); vol > 0 {
		sharpe = mean(pnls) / vol
	}

	return &models.BacktestResult{
		TotalReturnPct: sanitize(totalReturnPct),
		MaxDrawdownPct: sanitize(maxDrawdownPct),
		SharpeRatio:    sanitize(sharpe),
		TotalTrades:    len(trades),
		WinRatePct:     sanitize(winRate),
		FinalCapital:   config.InitialCapital + totalPnL,
	}
}

func (t *BacktestTracker) setProgress(id string, progress int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if job, ok := t.jobs[id]; ok && job.Status == models.BacktestStatusRunning {
		job.Progress = progress
	}
}

func (t *BacktestTracker) complete(id string, result *models.BacktestResult) {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, ok := t.jobs[id]
	if !ok || job.Status != models.BacktestStatusRunning {
		return
	}
	now := time.Now().UTC()
	job.Status = models.BacktestStatusCompleted
	job.Progress = 100
	job.Result = result
	job.CompletedAt = &now
}

func (t *BacktestTracker) fail(id string, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, ok := t.jobs[id]
	if !ok || job.Status != models.BacktestStatusRunning {
		return
	}
	now := time.Now().UTC()
	job.Status = models.BacktestStatusFailed
	job.Error = message
	job.CompletedAt = &now
}
