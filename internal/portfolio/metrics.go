package portfolio

import (
	"math"

	"strategy-trader/internal/models"
)

// Metrics summarise a set of closed trades and an equity curve.
type Metrics struct {
	WinningTrades  int
	LosingTrades   int
	WinRate        float64 // percent
	AvgWin         float64 // net, per winning trade
	AvgLoss        float64 // net, per losing trade (negative)
	ProfitFactor   float64
	MaxDrawdownPct float64
}

// ComputeMetrics derives win/loss statistics from trade net P&L and the
// maximum drawdown from the equity curve.
func ComputeMetrics(trades []models.Trade, equityCurve []models.EquityPoint) Metrics {
	var m Metrics

	var wins, losses []float64
	for _, trade := range trades {
		if trade.NetPnL > 0 {
			m.WinningTrades++
			wins = append(wins, trade.NetPnL)
		} else {
			m.LosingTrades++
			losses = append(losses, trade.NetPnL)
		}
	}

	if len(trades) > 0 {
		m.WinRate = float64(m.WinningTrades) / float64(len(trades)) * 100
	}

	for _, w := range wins {
		m.AvgWin += w
	}
	if len(wins) > 0 {
		m.AvgWin /= float64(len(wins))
	}

	for _, l := range losses {
		m.AvgLoss += l
	}
	if len(losses) > 0 {
		m.AvgLoss /= float64(len(losses))
	}

	totalWins := m.AvgWin * float64(len(wins))
	totalLosses := math.Abs(m.AvgLoss) * float64(len(losses))
	if totalLosses > 0 {
		m.ProfitFactor = totalWins / totalLosses
	}

	m.MaxDrawdownPct = maxDrawdown(equityCurve) * 100
	return m
}

// maxDrawdown is the largest peak-to-trough decline as a fraction of the
// peak equity.
func maxDrawdown(curve []models.EquityPoint) float64 {
	var peak, worst float64
	for _, point := range curve {
		if point.Equity > peak {
			peak = point.Equity
		}
		if peak > 0 {
			dd := (peak - point.Equity) / peak
			if dd > worst {
				worst = dd
			}
		}
	}
	return worst
}
