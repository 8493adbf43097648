package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/copytrade-analytics/internal/models"
)

func waitForTerminal(t *testing.T, tracker *BacktestTracker, id string) *models.BacktestJob {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job := tracker.Job(id)
		require.NotNil(t, job)
		if job.Status.Terminal() {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("backtest %s never reached a terminal state", id)
	return nil
}

func backtestConfig() models.BacktestConfig {
	return models.BacktestConfig{
		LeaderAddress:  "0xleader",
		StartDate:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		InitialCapital: 10000,
		CopyPercentage: 10,
	}
}

func TestBacktestTracker_Lifecycle(t *testing.T) {
	base := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	store := &fakeStore{
		leaderTrades: map[string][]models.Trade{
			"0xleader": {
				testTrade(models.TradeSideSell, 1, 500, base),
				testTrade(models.TradeSideBuy, 1, 200, base.Add(time.Hour)),
			},
		},
	}
	tracker := NewBacktestTracker(store, NewMetricsCalculator(10000))

	id := tracker.Submit(backtestConfig())
	require.NotEmpty(t, id)

	queued := tracker.Job(id)
	require.NotNil(t, queued)
	assert.Equal(t, models.BacktestStatusQueued, queued.Status)
	assert.Nil(t, queued.StartedAt)

	tracker.Start(id)
	job := waitForTerminal(t, tracker, id)

	assert.Equal(t, models.BacktestStatusCompleted, job.Status)
	assert.Equal(t, 100, job.Progress)
	require.NotNil(t, job.StartedAt)
	require.NotNil(t, job.CompletedAt)
	require.NotNil(t, job.Result)

	// Scaled at 10%: +50 then -20 against 10000 initial capital.
	assert.Equal(t, 2, job.Result.TotalTrades)
	assert.InDelta(t, 0.3, job.Result.TotalReturnPct, 1e-9)
	assert.InDelta(t, 0.2, job.Result.MaxDrawdownPct, 1e-9)
	assert.InDelta(t, 50.0, job.Result.WinRatePct, 1e-9)
	assert.InDelta(t, 10030.0, job.Result.FinalCapital, 1e-9)
}

func TestBacktestTracker_FailureOnStoreError(t *testing.T) {
	store := &fakeStore{err: errors.New("ledger unavailable")}
	tracker := NewBacktestTracker(store, NewMetricsCalculator(10000))

	id := tracker.Submit(backtestConfig())
	tracker.Start(id)

	job := waitForTerminal(t, tracker, id)
	assert.Equal(t, models.BacktestStatusFailed, job.Status)
	assert.Contains(t, job.Error, "ledger unavailable")
	assert.Nil(t, job.Result)
}

func TestBacktestTracker_DuplicateStartNoOp(t *testing.T) {
	store := &fakeStore{}
	tracker := NewBacktestTracker(store, NewMetricsCalculator(10000))

	id := tracker.Submit(backtestConfig())
	tracker.Start(id)
	job := waitForTerminal(t, tracker, id)
	firstCompleted := *job.CompletedAt

	// Starting a terminal job must not restart it or touch its record.
	tracker.Start(id)
	time.Sleep(20 * time.Millisecond)

	again := tracker.Job(id)
	require.NotNil(t, again)
	assert.Equal(t, job.Status, again.Status)
	assert.Equal(t, firstCompleted, *again.CompletedAt)
}

func TestBacktestTracker_UnknownJob(t *testing.T) {
	tracker := NewBacktestTracker(&fakeStore{}, NewMetricsCalculator(10000))

	assert.Nil(t, tracker.Job("no-such-id"))
	// Starting an unknown id must not panic or create a record.
	tracker.Start("no-such-id")
	assert.Nil(t, tracker.Job("no-such-id"))
}

func TestBacktestTracker_ConcurrentJobs(t *testing.T) {
	base := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	store := &fakeStore{
		leaderTrades: map[string][]models.Trade{
			"0xleader": {testTrade(models.TradeSideSell, 1, 100, base)},
		},
	}
	tracker := NewBacktestTracker(store, NewMetricsCalculator(10000))

	ids := make([]string, 5)
	for i := range ids {
		ids[i] = tracker.Submit(backtestConfig())
		tracker.Start(ids[i])
	}

	for _, id := range ids {
		job := waitForTerminal(t, tracker, id)
		assert.Equal(t, models.BacktestStatusCompleted, job.Status)
	}
}

func TestBacktestReplay_EmptyTradeSet(t *testing.T) {
	tracker := NewBacktestTracker(&fakeStore{}, NewMetricsCalculator(10000))

	result := tracker.replay(nil, backtestConfig())

	assert.Zero(t, result.TotalTrades)
	assert.Zero(t, result.TotalReturnPct)
	assert.Zero(t, result.WinRatePct)
	assert.InDelta(t, 10000.0, result.FinalCapital, 1e-9)
}
