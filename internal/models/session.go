package models

import "time"

// SessionMode selects the data source for a trading session.
type SessionMode string

const (
	ModeHistorical SessionMode = "historical"
	ModeLive       SessionMode = "live"
)

// SessionStatus represents the lifecycle state of a session.
type SessionStatus string

const (
	StatusCreated   SessionStatus = "CREATED"
	StatusRunning   SessionStatus = "RUNNING"
	StatusCompleted SessionStatus = "COMPLETED"
	StatusStopped   SessionStatus = "STOPPED"
	StatusError     SessionStatus = "ERROR"
	// StatusNotFound is returned for unknown session IDs. It is a normal
	// answer, not an error.
	StatusNotFound SessionStatus = "NOT_FOUND"
)

// StrategySpec names a strategy to run and its parameters.
type StrategySpec struct {
	Name   string
	Params map[string]float64
}

// SessionConfig is everything needed to start a session. It is validated
// synchronously before any session state exists.
type SessionConfig struct {
	Mode                SessionMode
	Symbols             []string
	Strategies          []StrategySpec
	Resolution          string
	StartDate           time.Time
	EndDate             time.Time
	InitialCapital      float64
	PositionSizePercent float64
	StopLossPercent     float64
	TargetPercent       float64
	MaxPositions        int
	ChargePerTrade      float64
	SlippagePercent     float64
	PollInterval        time.Duration
}

// Progress is a point-in-time snapshot of a running session.
type Progress struct {
	PortfolioValue float64
	TotalPnL       float64
	OpenPositions  int
	TotalTrades    int
	TotalSignals   int
	LastTick       time.Time
}

// EquityPoint is one observation on the equity curve.
type EquityPoint struct {
	Timestamp time.Time
	Equity    float64
}

// SignalBreakdown counts signals per strategy and direction.
type SignalBreakdown struct {
	Strategy string
	Buy      int
	Sell     int
}

// SessionResults is the full outcome of a session.
type SessionResults struct {
	InitialCapital  float64
	FinalValue      float64
	RealizedPnL     float64 // gross, before charges
	UnrealizedPnL   float64
	TotalCharges    float64
	TotalReturnPct  float64
	CurrentCash     float64 // reference only, not part of the value identity
	InvestedCapital float64 // reference only
	TotalSignals    int
	TotalDecisions  int
	TotalTrades     int
	WinningTrades   int
	LosingTrades    int
	WinRate         float64
	AvgWin          float64
	AvgLoss         float64
	ProfitFactor    float64
	MaxDrawdownPct  float64
	OpenPositions   []Position
	ClosedTrades    []Trade
	Signals         []Signal
	SignalsByStrat  []SignalBreakdown
	EquityCurve     []EquityPoint
}

// ForceClosed returns the trades closed by a stop request, in recorded
// order. Together with the rest of the struct this is the full outcome of a
// stop: the force-closed positions plus the final results.
func (r *SessionResults) ForceClosed() []Trade {
	var closed []Trade
	for _, trade := range r.ClosedTrades {
		if trade.ExitReason == ExitStopped {
			closed = append(closed, trade)
		}
	}
	return closed
}

// Session is the durable record of a trading session.
type Session struct {
	ID           string
	Config       SessionConfig
	Status       SessionStatus
	ErrorMessage string
	CreatedAt    time.Time
	StartedAt    time.Time
	FinishedAt   time.Time
	Progress     Progress
	Results      *SessionResults
}

// SessionSummary is the compact listing form of a session.
type SessionSummary struct {
	ID         string
	Mode       SessionMode
	Symbols    []string
	Status     SessionStatus
	CreatedAt  time.Time
	FinishedAt time.Time
	TotalPnL   float64
	Trades     int
}
