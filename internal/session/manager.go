// Package session manages the lifecycle of backtest and paper-trading
// sessions: creation, background execution, inspection and persistence.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"strategy-trader/internal/broker"
	apperrors "strategy-trader/internal/errors"
	"strategy-trader/internal/logging"
	"strategy-trader/internal/models"
	"strategy-trader/internal/store"
	"strategy-trader/internal/strategy"
	"strategy-trader/pkg/id"
)

// Manager owns all sessions. Finished sessions live in the store; running
// ones additionally have an in-memory runner.
type Manager struct {
	mu       sync.Mutex
	store    store.SessionStore
	data     broker.MarketData
	registry *strategy.Registry
	logger   zerolog.Logger
	runners  map[string]*runner
}

// NewManager creates a Manager and marks any session left RUNNING by a
// previous process as STOPPED.
func NewManager(st store.SessionStore, data broker.MarketData, registry *strategy.Registry, logger zerolog.Logger) (*Manager, error) {
	m := &Manager{
		store:    st,
		data:     data,
		registry: registry,
		logger:   logger,
		runners:  make(map[string]*runner),
	}
	if err := m.restoreInterrupted(context.Background()); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) restoreInterrupted(ctx context.Context) error {
	interrupted, err := m.store.LoadByStatus(ctx, models.StatusRunning)
	if err != nil {
		return fmt.Errorf("recovering interrupted sessions: %w", err)
	}
	for _, session := range interrupted {
		session.Status = models.StatusStopped
		session.ErrorMessage = "interrupted by process restart"
		session.FinishedAt = time.Now().UTC()
		if err := m.store.Save(ctx, session); err != nil {
			return fmt.Errorf("recovering session %s: %w", session.ID, err)
		}
		m.logger.Warn().Str("session_id", session.ID).Msg("Marked interrupted session as stopped")
	}
	return nil
}

// Start validates the config, persists a new session and launches it in the
// background. Validation failures are returned synchronously and leave no
// session behind.
func (m *Manager) Start(ctx context.Context, config models.SessionConfig) (string, error) {
	if err := validateConfig(config); err != nil {
		return "", err
	}
	strategies, err := buildStrategies(m.registry, config.Strategies)
	if err != nil {
		return "", err
	}

	session := &models.Session{
		ID:        id.New(),
		Config:    config,
		Status:    models.StatusCreated,
		CreatedAt: time.Now().UTC(),
		Progress: models.Progress{
			PortfolioValue: config.InitialCapital,
		},
	}
	if err := m.store.Save(ctx, session); err != nil {
		return "", err
	}

	r := newRunner(session, strategies, m.store, m.data, logging.WithSession(m.logger, session.ID))

	m.mu.Lock()
	m.runners[session.ID] = r
	m.mu.Unlock()

	r.start(func() {
		m.mu.Lock()
		delete(m.runners, session.ID)
		m.mu.Unlock()
	})

	m.logger.Info().
		Str("session_id", session.ID).
		Str("mode", string(config.Mode)).
		Strs("symbols", config.Symbols).
		Msg("Session started")
	return session.ID, nil
}

// Status returns the current session record. Unknown IDs yield a session
// with StatusNotFound rather than an error.
func (m *Manager) Status(ctx context.Context, sessionID string) (*models.Session, error) {
	m.mu.Lock()
	r, running := m.runners[sessionID]
	m.mu.Unlock()

	if running {
		return r.snapshot(), nil
	}

	session, err := m.store.Load(ctx, sessionID)
	if apperrors.Is(err, apperrors.ErrSessionNotFound) {
		return &models.Session{ID: sessionID, Status: models.StatusNotFound}, nil
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Stop halts a running session, force-closing open positions at their last
// marked price, and returns the final results; the force-closed positions
// are available via SessionResults.ForceClosed. Stopping a session that has
// already finished returns its stored results without closing anything again.
func (m *Manager) Stop(ctx context.Context, sessionID string) (*models.SessionResults, error) {
	m.mu.Lock()
	r, running := m.runners[sessionID]
	m.mu.Unlock()

	if running {
		r.stop()
		r.wait()
	}

	session, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return session.Results, nil
}

// Results returns the outcome of a session. For a running session it is a
// live snapshot; for a finished one it is the stored final result.
func (m *Manager) Results(ctx context.Context, sessionID string) (*models.SessionResults, error) {
	m.mu.Lock()
	r, running := m.runners[sessionID]
	m.mu.Unlock()

	if running {
		return r.results(), nil
	}

	session, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Results == nil {
		return nil, apperrors.Wrapf(apperrors.ErrSessionNotFound, "no results for session %s", sessionID)
	}
	return session.Results, nil
}

// Delete removes a finished session from the store. Running sessions must
// be stopped first.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	_, running := m.runners[sessionID]
	m.mu.Unlock()

	if running {
		return apperrors.Wrapf(apperrors.ErrSessionRunning, "session %s", sessionID)
	}
	return m.store.Delete(ctx, sessionID)
}

// ListHistory returns stored session summaries, newest first.
func (m *Manager) ListHistory(ctx context.Context, limit int) ([]models.SessionSummary, error) {
	return m.store.List(ctx, limit)
}

// StopAll stops every running session and waits for them to finish. Used on
// process shutdown.
func (m *Manager) StopAll() {
	m.mu.Lock()
	running := make([]*runner, 0, len(m.runners))
	for _, r := range m.runners {
		running = append(running, r)
	}
	m.mu.Unlock()

	for _, r := range running {
		r.stop()
		r.wait()
	}
}

func buildStrategies(registry *strategy.Registry, specs []models.StrategySpec) ([]strategy.Strategy, error) {
	strategies := make([]strategy.Strategy, 0, len(specs))
	seen := make(map[string]bool)
	for _, spec := range specs {
		if seen[spec.Name] {
			return nil, apperrors.NewConfigError("strategies", spec.Name, "duplicate strategy")
		}
		seen[spec.Name] = true
		s, err := registry.Create(spec.Name, spec.Params)
		if err != nil {
			return nil, apperrors.NewConfigError("strategies", spec.Name, err.Error())
		}
		strategies = append(strategies, s)
	}
	return strategies, nil
}

func validateConfig(config models.SessionConfig) error {
	switch config.Mode {
	case models.ModeHistorical, models.ModeLive:
	default:
		return apperrors.NewConfigError("mode", config.Mode, "must be historical or live")
	}
	if len(config.Symbols) == 0 {
		return apperrors.NewConfigError("symbols", config.Symbols, "at least one symbol required")
	}
	if len(config.Strategies) == 0 {
		return apperrors.NewConfigError("strategies", nil, "at least one strategy required")
	}
	if config.Resolution == "" {
		return apperrors.NewConfigError("resolution", config.Resolution, "resolution required")
	}
	if config.InitialCapital <= 0 {
		return apperrors.NewConfigError("initial_capital", config.InitialCapital, "must be positive")
	}
	if config.PositionSizePercent <= 0 || config.PositionSizePercent > 100 {
		return apperrors.NewConfigError("position_size_percent", config.PositionSizePercent, "must be in (0, 100]")
	}
	if config.MaxPositions < 0 {
		return apperrors.NewConfigError("max_positions", config.MaxPositions, "must not be negative")
	}
	if config.StopLossPercent < 0 || config.TargetPercent < 0 {
		return apperrors.NewConfigError("risk", config.StopLossPercent, "stop and target must not be negative")
	}
	if config.ChargePerTrade < 0 {
		return apperrors.NewConfigError("charge_per_trade", config.ChargePerTrade, "must not be negative")
	}
	if config.SlippagePercent < 0 {
		return apperrors.NewConfigError("slippage_percent", config.SlippagePercent, "must not be negative")
	}

	switch config.Mode {
	case models.ModeHistorical:
		if config.StartDate.IsZero() || config.EndDate.IsZero() {
			return apperrors.NewConfigError("dates", nil, "start and end dates required for historical mode")
		}
		if !config.StartDate.Before(config.EndDate) {
			return apperrors.NewConfigError("dates", config.StartDate, "start date must be before end date")
		}
	case models.ModeLive:
		if config.PollInterval <= 0 {
			return apperrors.NewConfigError("poll_interval", config.PollInterval, "must be positive for live mode")
		}
	}
	return nil
}
