package session

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strategy-trader/internal/broker"
	apperrors "strategy-trader/internal/errors"
	"strategy-trader/internal/models"
	"strategy-trader/internal/store"
	"strategy-trader/internal/strategy"
)

func newTestManager(t *testing.T, data broker.MarketData) *Manager {
	t.Helper()
	m, err := NewManager(store.NewMemoryStore(), data, strategy.DefaultRegistry(), zerolog.Nop())
	require.NoError(t, err)
	return m
}

func sineCandles(start time.Time, n int) []models.Candle {
	candles := make([]models.Candle, n)
	for i := 0; i < n; i++ {
		close := 100 + 20*math.Sin(float64(i)/8)
		candles[i] = models.Candle{
			Timestamp: start.Add(time.Duration(i) * 5 * time.Minute),
			Open:      close,
			High:      close + 0.5,
			Low:       close - 0.5,
			Close:     close,
			Volume:    1000,
		}
	}
	return candles
}

func historicalConfig(start, end time.Time) models.SessionConfig {
	return models.SessionConfig{
		Mode:                models.ModeHistorical,
		Symbols:             []string{"RELIANCE"},
		Strategies:          []models.StrategySpec{{Name: "EMA_CROSS"}},
		Resolution:          "5",
		StartDate:           start,
		EndDate:             end,
		InitialCapital:      100000,
		PositionSizePercent: 20,
		StopLossPercent:     2,
		TargetPercent:       5,
		MaxPositions:        5,
		ChargePerTrade:      20,
	}
}

func waitForFinish(t *testing.T, m *Manager, sessionID string) models.SessionStatus {
	t.Helper()
	var status models.SessionStatus
	require.Eventually(t, func() bool {
		session, err := m.Status(context.Background(), sessionID)
		if err != nil {
			return false
		}
		status = session.Status
		return status != models.StatusRunning && status != models.StatusCreated
	}, 5*time.Second, 10*time.Millisecond)
	return status
}

func TestManager_HistoricalSessionCompletes(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 6, 3, 9, 15, 0, 0, time.UTC)
	candles := sineCandles(start, 120)

	data := broker.NewStaticData()
	data.SetCandles("RELIANCE", candles)
	m := newTestManager(t, data)

	sessionID, err := m.Start(ctx, historicalConfig(start, start.Add(24*time.Hour)))
	require.NoError(t, err)
	require.NotEmpty(t, sessionID)

	status := waitForFinish(t, m, sessionID)
	assert.Equal(t, models.StatusCompleted, status)

	results, err := m.Results(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, 100000.0, results.InitialCapital)
	assert.Greater(t, results.TotalSignals, 0)
	assert.GreaterOrEqual(t, results.TotalSignals, results.TotalTrades)
	assert.Empty(t, results.OpenPositions, "end of data must close everything")
	assert.NotEmpty(t, results.EquityCurve)
	// Final value must obey the accounting identity with everything realized
	expected := results.InitialCapital + results.RealizedPnL - results.TotalCharges
	assert.InDelta(t, expected, results.FinalValue, 1e-6)
	for _, trade := range results.ClosedTrades {
		assert.InDelta(t, trade.GrossPnL-trade.Charges, trade.NetPnL, 1e-9)
	}

	// Finished session survives a manager restart via the store
	summaries, err := m.ListHistory(ctx, 0)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, sessionID, summaries[0].ID)
	assert.Equal(t, models.StatusCompleted, summaries[0].Status)
}

func TestManager_HistoricalSessionNoDataFails(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 6, 3, 9, 15, 0, 0, time.UTC)

	m := newTestManager(t, broker.NewStaticData())

	sessionID, err := m.Start(ctx, historicalConfig(start, start.Add(time.Hour)))
	require.NoError(t, err)

	status := waitForFinish(t, m, sessionID)
	assert.Equal(t, models.StatusError, status)

	session, err := m.Status(ctx, sessionID)
	require.NoError(t, err)
	assert.Contains(t, session.ErrorMessage, "no candles")
}

func TestManager_StartValidation(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 6, 3, 9, 15, 0, 0, time.UTC)
	m := newTestManager(t, broker.NewStaticData())

	tests := []struct {
		name   string
		mutate func(*models.SessionConfig)
	}{
		{"bad mode", func(c *models.SessionConfig) { c.Mode = "replay" }},
		{"no symbols", func(c *models.SessionConfig) { c.Symbols = nil }},
		{"no strategies", func(c *models.SessionConfig) { c.Strategies = nil }},
		{"unknown strategy", func(c *models.SessionConfig) {
			c.Strategies = []models.StrategySpec{{Name: "ASTROLOGY"}}
		}},
		{"duplicate strategy", func(c *models.SessionConfig) {
			c.Strategies = []models.StrategySpec{{Name: "RSI"}, {Name: "RSI"}}
		}},
		{"zero capital", func(c *models.SessionConfig) { c.InitialCapital = 0 }},
		{"oversized position", func(c *models.SessionConfig) { c.PositionSizePercent = 150 }},
		{"negative max positions", func(c *models.SessionConfig) { c.MaxPositions = -1 }},
		{"inverted dates", func(c *models.SessionConfig) {
			c.StartDate, c.EndDate = c.EndDate, c.StartDate
		}},
		{"live without poll interval", func(c *models.SessionConfig) {
			c.Mode = models.ModeLive
			c.PollInterval = 0
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := historicalConfig(start, start.Add(time.Hour))
			tt.mutate(&config)

			_, err := m.Start(ctx, config)
			assert.ErrorIs(t, err, apperrors.ErrConfigInvalid)

			var configErr *apperrors.ConfigError
			assert.ErrorAs(t, err, &configErr)
		})
	}

	// Validation failures must not leave sessions behind
	summaries, err := m.ListHistory(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestManager_StatusUnknownSessionIsNotAnError(t *testing.T) {
	m := newTestManager(t, broker.NewStaticData())

	session, err := m.Status(context.Background(), "01J000000000000000000000NO")
	require.NoError(t, err)
	assert.Equal(t, models.StatusNotFound, session.Status)
}

func TestManager_StopLiveSessionIsIdempotent(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 6, 3, 9, 15, 0, 0, time.UTC)

	config := historicalConfig(start, start.Add(time.Hour))
	config.Mode = models.ModeLive
	config.StartDate = time.Time{}
	config.EndDate = time.Time{}
	config.PollInterval = 10 * time.Millisecond

	m := newTestManager(t, broker.NewStaticData())
	sessionID, err := m.Start(ctx, config)
	require.NoError(t, err)

	// Give the runner at least one poll cycle
	time.Sleep(50 * time.Millisecond)

	first, err := m.Stop(ctx, sessionID)
	require.NoError(t, err)
	second, err := m.Stop(ctx, sessionID)
	require.NoError(t, err)
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, first.FinalValue, second.FinalValue)
	assert.Equal(t, first.TotalTrades, second.TotalTrades)

	session, err := m.Status(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusStopped, session.Status)
	assert.Empty(t, session.Results.OpenPositions)
}

func TestManager_DeleteRefusesRunningSession(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 6, 3, 9, 15, 0, 0, time.UTC)

	config := historicalConfig(start, start.Add(time.Hour))
	config.Mode = models.ModeLive
	config.StartDate = time.Time{}
	config.EndDate = time.Time{}
	config.PollInterval = time.Hour // never ticks during the test

	m := newTestManager(t, broker.NewStaticData())
	sessionID, err := m.Start(ctx, config)
	require.NoError(t, err)

	err = m.Delete(ctx, sessionID)
	assert.ErrorIs(t, err, apperrors.ErrSessionRunning)

	_, err = m.Stop(ctx, sessionID)
	require.NoError(t, err)
	require.NoError(t, m.Delete(ctx, sessionID))

	session, err := m.Status(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNotFound, session.Status)
}

func TestManager_RecoversInterruptedSessions(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	orphan := &models.Session{
		ID:        "orphan-1",
		Status:    models.StatusRunning,
		Config:    historicalConfig(time.Now(), time.Now().Add(time.Hour)),
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, st.Save(ctx, orphan))

	m, err := NewManager(st, broker.NewStaticData(), strategy.DefaultRegistry(), zerolog.Nop())
	require.NoError(t, err)

	session, err := m.Status(ctx, "orphan-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusStopped, session.Status)
	assert.Contains(t, session.ErrorMessage, "interrupted")
}

func TestResolutionDuration(t *testing.T) {
	assert.Equal(t, 5*time.Minute, resolutionDuration("5"))
	assert.Equal(t, time.Minute, resolutionDuration("1"))
	assert.Equal(t, 24*time.Hour, resolutionDuration("D"))
	assert.Equal(t, 5*time.Minute, resolutionDuration("bogus"))
}

// stalledData serves the warm-up fetch, then blocks every later fetch until
// the request context expires.
type stalledData struct {
	mu     sync.Mutex
	seeded map[string]bool
}

func (d *stalledData) GetCandles(ctx context.Context, symbol, resolution string, from, to time.Time) ([]models.Candle, error) {
	d.mu.Lock()
	if d.seeded == nil {
		d.seeded = make(map[string]bool)
	}
	first := !d.seeded[symbol]
	d.seeded[symbol] = true
	d.mu.Unlock()

	if first {
		return nil, nil
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func (d *stalledData) GetLastPrice(ctx context.Context, symbol string) (float64, error) {
	return 0, apperrors.ErrNoData
}

var _ broker.MarketData = (*stalledData)(nil)

func TestManager_LivePollTimeoutEndsInError(t *testing.T) {
	prev := pollTimeout
	pollTimeout = 50 * time.Millisecond
	t.Cleanup(func() { pollTimeout = prev })

	ctx := context.Background()
	config := historicalConfig(time.Time{}, time.Time{})
	config.Mode = models.ModeLive
	config.PollInterval = 10 * time.Millisecond

	m := newTestManager(t, &stalledData{})
	sessionID, err := m.Start(ctx, config)
	require.NoError(t, err)

	status := waitForFinish(t, m, sessionID)
	assert.Equal(t, models.StatusError, status)

	session, err := m.Status(ctx, sessionID)
	require.NoError(t, err)
	assert.Contains(t, session.ErrorMessage, "polling RELIANCE")
}
