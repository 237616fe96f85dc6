package cli

import (
	"fmt"
	"strconv"
	"strings"

	"strategy-trader/internal/models"
)

func renderSessionList(output *Output, summaries []models.SessionSummary) {
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			s.ID,
			string(s.Mode),
			string(s.Status),
			joinSymbols(s.Symbols),
			FormatDateTime(s.CreatedAt),
			strconv.Itoa(s.Trades),
			output.ColoredPnL(s.TotalPnL),
		})
	}
	output.Table([]string{"ID", "Mode", "Status", "Symbols", "Created", "Trades", "P&L"}, rows)
}

func renderSessionStatus(output *Output, session *models.Session) {
	output.Bold("Session %s", session.ID)
	output.Printf("  Status:    %s\n", output.statusText(session.Status))
	if session.Status == models.StatusNotFound {
		return
	}
	output.Printf("  Mode:      %s\n", session.Config.Mode)
	output.Printf("  Symbols:   %s\n", joinSymbols(session.Config.Symbols))
	output.Printf("  Created:   %s\n", FormatDateTime(session.CreatedAt))
	output.Printf("  Started:   %s\n", FormatDateTime(session.StartedAt))
	output.Printf("  Finished:  %s\n", FormatDateTime(session.FinishedAt))
	if session.ErrorMessage != "" {
		output.Printf("  Error:     %s\n", output.Red(session.ErrorMessage))
	}
	output.Println()
	output.Bold("Progress")
	output.Printf("  Portfolio Value: %s\n", FormatIndianCurrency(session.Progress.PortfolioValue))
	output.Printf("  Total P&L:       %s\n", output.ColoredPnL(session.Progress.TotalPnL))
	output.Printf("  Open Positions:  %d\n", session.Progress.OpenPositions)
	output.Printf("  Trades:          %d\n", session.Progress.TotalTrades)
	output.Printf("  Signals:         %d\n", session.Progress.TotalSignals)
}

func renderResults(output *Output, session *models.Session, results *models.SessionResults) {
	output.Bold("Results for session %s (%s)", session.ID, session.Status)
	output.Println()

	output.Printf("  Initial Capital:  %s\n", FormatIndianCurrency(results.InitialCapital))
	output.Printf("  Final Value:      %s\n", FormatIndianCurrency(results.FinalValue))
	output.Printf("  Total Return:     %s\n", output.ColoredPercent(results.TotalReturnPct))
	output.Printf("  Realized P&L:     %s\n", output.ColoredPnL(results.RealizedPnL))
	if results.UnrealizedPnL != 0 {
		output.Printf("  Unrealized P&L:   %s\n", output.ColoredPnL(results.UnrealizedPnL))
	}
	output.Printf("  Total Charges:    %s\n", FormatIndianCurrency(results.TotalCharges))
	output.Println()

	output.Printf("  Signals:          %d\n", results.TotalSignals)
	output.Printf("  Decisions:        %d\n", results.TotalDecisions)
	output.Printf("  Trades:           %d (%d W / %d L)\n",
		results.TotalTrades, results.WinningTrades, results.LosingTrades)
	if results.TotalTrades > 0 {
		output.Printf("  Win Rate:         %.1f%%\n", results.WinRate)
		output.Printf("  Avg Win/Loss:     %s / %s\n",
			FormatIndianCurrency(results.AvgWin), FormatIndianCurrency(results.AvgLoss))
		output.Printf("  Profit Factor:    %.2f\n", results.ProfitFactor)
		output.Printf("  Max Drawdown:     %.2f%%\n", results.MaxDrawdownPct)
	}

	if len(results.SignalsByStrat) > 0 {
		output.Println()
		output.Bold("Signals by strategy")
		rows := make([][]string, 0, len(results.SignalsByStrat))
		for _, b := range results.SignalsByStrat {
			rows = append(rows, []string{
				b.Strategy,
				strconv.Itoa(b.Buy),
				strconv.Itoa(b.Sell),
			})
		}
		output.Table([]string{"Strategy", "Buy", "Sell"}, rows)
	}

	if len(results.OpenPositions) > 0 {
		output.Println()
		output.Bold("Open positions")
		rows := make([][]string, 0, len(results.OpenPositions))
		for _, p := range results.OpenPositions {
			rows = append(rows, []string{
				p.Symbol,
				string(p.Side),
				strconv.Itoa(p.Quantity),
				fmt.Sprintf("%.2f", p.EntryPrice),
				fmt.Sprintf("%.2f", p.LastPrice),
				output.ColoredPnL(p.UnrealizedPnL()),
			})
		}
		output.Table([]string{"Symbol", "Side", "Qty", "Entry", "Last", "Unrealized"}, rows)
	}
}

func renderTrades(output *Output, trades []models.Trade) {
	output.Bold("Trades")
	rows := make([][]string, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, []string{
			t.Symbol,
			string(t.Side),
			strconv.Itoa(t.Quantity),
			fmt.Sprintf("%.2f", t.EntryPrice),
			fmt.Sprintf("%.2f", t.ExitPrice),
			output.ColoredPnL(t.NetPnL),
			string(t.ExitReason),
			FormatDuration(t.HoldDuration),
			TruncateString(joinSymbols(t.Strategies), 30),
		})
	}
	output.Table([]string{"Symbol", "Side", "Qty", "Entry", "Exit", "Net P&L", "Reason", "Held", "Strategies"}, rows)
}

func (o *Output) statusText(status models.SessionStatus) string {
	switch status {
	case models.StatusRunning:
		return o.Yellow(string(status))
	case models.StatusCompleted:
		return o.Green(string(status))
	case models.StatusError:
		return o.Red(string(status))
	default:
		return string(status)
	}
}

func joinSymbols(symbols []string) string {
	return strings.Join(symbols, ",")
}
