package session

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"strategy-trader/internal/broker"
	apperrors "strategy-trader/internal/errors"
	"strategy-trader/internal/engine"
	"strategy-trader/internal/models"
	"strategy-trader/internal/portfolio"
	"strategy-trader/internal/store"
	"strategy-trader/internal/strategy"
)

const progressInterval = 100 // persist progress every N candles in historical mode

// pollTimeout bounds one live data fetch; shortened in tests.
var pollTimeout = 30 * time.Second

// runner executes one session in a background goroutine.
type runner struct {
	mu      sync.Mutex
	session *models.Session
	engine  *engine.Engine
	store   store.SessionStore
	data    broker.MarketData
	logger  zerolog.Logger

	cancel      context.CancelFunc
	done        chan struct{}
	equityCurve []models.EquityPoint
	lastTick    time.Time
	lastCandle  models.Candle
}

func newRunner(session *models.Session, strategies []strategy.Strategy, st store.SessionStore, data broker.MarketData, logger zerolog.Logger) *runner {
	ledger := portfolio.NewLedger(session.Config.InitialCapital, portfolio.RiskParams{
		PositionSizePercent: session.Config.PositionSizePercent,
		StopLossPercent:     session.Config.StopLossPercent,
		TargetPercent:       session.Config.TargetPercent,
		MaxPositions:        session.Config.MaxPositions,
		ChargePerTrade:      session.Config.ChargePerTrade,
		SlippagePercent:     session.Config.SlippagePercent,
	})

	return &runner{
		session: session,
		engine:  engine.New(ledger, strategies, logger),
		store:   st,
		data:    data,
		logger:  logger,
		done:    make(chan struct{}),
	}
}

func (r *runner) start(onExit func()) {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	go func() {
		defer close(r.done)
		defer onExit()
		r.run(ctx)
	}()
}

func (r *runner) stop() {
	r.cancel()
}

func (r *runner) wait() {
	<-r.done
}

func (r *runner) run(ctx context.Context) {
	r.transition(ctx, models.StatusRunning)

	var err error
	switch r.session.Config.Mode {
	case models.ModeHistorical:
		err = r.runHistorical(ctx)
	case models.ModeLive:
		err = r.runLive(ctx)
	}

	r.finalize(err)
}

func (r *runner) transition(ctx context.Context, status models.SessionStatus) {
	r.mu.Lock()
	r.session.Status = status
	if status == models.StatusRunning {
		r.session.StartedAt = time.Now().UTC()
	}
	session := r.sessionCopyLocked()
	r.mu.Unlock()

	if err := r.store.Save(ctx, session); err != nil {
		r.logger.Error().Err(err).Msg("Failed to persist session state")
	}
}

func (r *runner) finalize(runErr error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case runErr == nil:
		if r.session.Config.Mode == models.ModeHistorical {
			r.session.Status = models.StatusCompleted
		} else {
			r.session.Status = models.StatusStopped
		}
	case errors.Is(runErr, context.Canceled):
		r.session.Status = models.StatusStopped
	default:
		r.session.Status = models.StatusError
		r.session.ErrorMessage = runErr.Error()
		r.logger.Error().Err(runErr).Msg("Session failed")
	}

	r.session.FinishedAt = time.Now().UTC()
	r.session.Progress = r.progressLocked()
	r.session.Results = r.buildResultsLocked()
	session := r.sessionCopyLocked()

	// Persist with a fresh context; the run context may already be cancelled.
	saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.store.Save(saveCtx, session); err != nil {
		r.logger.Error().Err(err).Msg("Failed to persist final session state")
	}

	r.logger.Info().
		Str("status", string(r.session.Status)).
		Float64("final_value", r.session.Results.FinalValue).
		Int("trades", r.session.Results.TotalTrades).
		Msg("Session finished")
}

func (r *runner) runHistorical(ctx context.Context) error {
	config := r.session.Config

	type tick struct {
		symbol string
		candle models.Candle
	}
	var ticks []tick
	for _, symbol := range config.Symbols {
		candles, err := r.data.GetCandles(ctx, symbol, config.Resolution, config.StartDate, config.EndDate)
		if err != nil {
			return err
		}
		if len(candles) == 0 {
			return apperrors.NewDataError(symbol, "no candles in requested range", true, apperrors.ErrNoData)
		}
		for _, candle := range candles {
			ticks = append(ticks, tick{symbol: symbol, candle: candle})
		}
	}
	sort.SliceStable(ticks, func(i, j int) bool {
		return ticks[i].candle.Timestamp.Before(ticks[j].candle.Timestamp)
	})

	for i, tk := range ticks {
		select {
		case <-ctx.Done():
			r.engine.CloseAll(r.lastProcessed(), models.ExitStopped)
			return ctx.Err()
		default:
		}

		r.engine.OnCandle(tk.symbol, tk.candle)
		r.observe(tk.candle)

		if (i+1)%progressInterval == 0 {
			r.persistProgress(ctx)
		}
	}

	last := ticks[len(ticks)-1].candle
	r.engine.CloseAll(last, models.ExitEndOfData)
	r.observe(last)
	return nil
}

func (r *runner) runLive(ctx context.Context) error {
	config := r.session.Config

	lastSeen := make(map[string]time.Time)
	lookback := time.Duration(3*r.engine.Warmup()) * resolutionDuration(config.Resolution)
	now := time.Now().UTC()
	for _, symbol := range config.Symbols {
		candles, err := r.data.GetCandles(ctx, symbol, config.Resolution, now.Add(-lookback), now)
		if err != nil {
			return err
		}
		r.engine.SeedHistory(symbol, candles)
		if len(candles) > 0 {
			lastSeen[symbol] = candles[len(candles)-1].Timestamp
		} else {
			lastSeen[symbol] = now.Add(-resolutionDuration(config.Resolution))
		}
	}

	ticker := time.NewTicker(config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.engine.CloseAll(r.lastProcessed(), models.ExitStopped)
			return ctx.Err()
		case <-ticker.C:
			if err := r.poll(ctx, lastSeen); err != nil {
				r.engine.CloseAll(r.lastProcessed(), models.ExitStopped)
				return err
			}
		}
	}
}

func (r *runner) poll(ctx context.Context, lastSeen map[string]time.Time) error {
	tickCtx, cancel := context.WithTimeout(ctx, pollTimeout)
	defer cancel()

	config := r.session.Config
	now := time.Now().UTC()

	batch := make(map[string][]models.Candle)
	for _, symbol := range config.Symbols {
		candles, err := r.data.GetCandles(tickCtx, symbol, config.Resolution, lastSeen[symbol].Add(time.Second), now)
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return apperrors.Wrapf(apperrors.ErrTimeout, "polling %s", symbol)
		}
		if err != nil {
			return err
		}
		var fresh []models.Candle
		for _, candle := range candles {
			if candle.Timestamp.After(lastSeen[symbol]) {
				fresh = append(fresh, candle)
			}
		}
		if len(fresh) > 0 {
			batch[symbol] = fresh
			lastSeen[symbol] = fresh[len(fresh)-1].Timestamp
		}
	}

	if len(batch) > 0 {
		r.engine.Advance(batch)
		for _, candles := range batch {
			r.observe(candles[len(candles)-1])
		}
	}

	// Mark open positions to the latest quote between candles, so progress
	// snapshots reflect the live price rather than the last bar close.
	ledger := r.engine.Ledger()
	for _, position := range ledger.Positions() {
		price, err := r.data.GetLastPrice(tickCtx, position.Symbol)
		if err != nil || price <= 0 {
			continue
		}
		ledger.MarkPrice(position.Symbol, price)
	}

	r.persistProgress(ctx)
	return nil
}

// observe records the equity curve point and last processed candle.
func (r *runner) observe(candle models.Candle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastTick = candle.Timestamp
	r.lastCandle = candle
	r.equityCurve = append(r.equityCurve, models.EquityPoint{
		Timestamp: candle.Timestamp,
		Equity:    r.engine.Ledger().Equity(),
	})
}

func (r *runner) lastProcessed() models.Candle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastCandle
}

func (r *runner) persistProgress(ctx context.Context) {
	r.mu.Lock()
	r.session.Progress = r.progressLocked()
	session := r.sessionCopyLocked()
	r.mu.Unlock()

	if err := r.store.Save(ctx, session); err != nil {
		r.logger.Warn().Err(err).Msg("Failed to persist progress")
	}
}

func (r *runner) progressLocked() models.Progress {
	ledger := r.engine.Ledger()
	return models.Progress{
		PortfolioValue: ledger.Equity(),
		TotalPnL:       ledger.Equity() - ledger.InitialCapital(),
		OpenPositions:  ledger.OpenCount(),
		TotalTrades:    len(ledger.Trades()),
		TotalSignals:   r.engine.TotalSignals(),
		LastTick:       r.lastTick,
	}
}

func (r *runner) sessionCopyLocked() *models.Session {
	copied := *r.session
	return &copied
}

// snapshot returns the current session record with live progress.
func (r *runner) snapshot() *models.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.session.Progress = r.progressLocked()
	return r.sessionCopyLocked()
}

// results assembles a live results snapshot for a running session.
func (r *runner) results() *models.SessionResults {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buildResultsLocked()
}

func (r *runner) buildResultsLocked() *models.SessionResults {
	ledger := r.engine.Ledger()
	trades := ledger.Trades()
	equity := ledger.Equity()
	initial := ledger.InitialCapital()

	curve := make([]models.EquityPoint, len(r.equityCurve))
	copy(curve, r.equityCurve)
	metrics := portfolio.ComputeMetrics(trades, curve)

	return &models.SessionResults{
		InitialCapital:  initial,
		FinalValue:      equity,
		RealizedPnL:     ledger.RealizedPnL(),
		UnrealizedPnL:   ledger.UnrealizedPnL(),
		TotalCharges:    ledger.TotalCharges(),
		TotalReturnPct:  (equity - initial) / initial * 100,
		CurrentCash:     ledger.Cash(),
		InvestedCapital: ledger.InvestedCapital(),
		TotalSignals:    r.engine.TotalSignals(),
		TotalDecisions:  r.engine.TotalDecisions(),
		TotalTrades:     len(trades),
		WinningTrades:   metrics.WinningTrades,
		LosingTrades:    metrics.LosingTrades,
		WinRate:         metrics.WinRate,
		AvgWin:          metrics.AvgWin,
		AvgLoss:         metrics.AvgLoss,
		ProfitFactor:    metrics.ProfitFactor,
		MaxDrawdownPct:  metrics.MaxDrawdownPct,
		OpenPositions:   ledger.Positions(),
		ClosedTrades:    trades,
		Signals:         r.engine.Signals(),
		SignalsByStrat:  r.engine.SignalBreakdown(),
		EquityCurve:     curve,
	}
}

// resolutionDuration maps a candle resolution string to its bar duration.
// Numeric resolutions are minutes; "D" is a daily bar.
func resolutionDuration(resolution string) time.Duration {
	if resolution == "D" {
		return 24 * time.Hour
	}
	if minutes, err := strconv.Atoi(resolution); err == nil && minutes > 0 {
		return time.Duration(minutes) * time.Minute
	}
	return 5 * time.Minute
}
