package cli

import (
	"github.com/spf13/cobra"
)

// strategyDescriptions maps registry names to one-line summaries shown in
// the strategies listing.
var strategyDescriptions = map[string]string{
	"RSI":        "RSI crossing into oversold/overbought zones",
	"MACD":       "MACD line crossing its signal line",
	"SUPERTREND": "SuperTrend direction flips",
	"BOLLINGER":  "Close touching the Bollinger bands",
	"ADX":        "Strong trend (ADX) filtered by price vs SMA",
	"ATR":        "Volatility expansion with a directional move",
	"RENKO":      "Runs of consecutive Renko bricks",
	"STOCHASTIC": "Stochastic %K/%D crosses in extreme zones",
	"EMA_CROSS":  "Fast EMA crossing the slow EMA",
}

func newStrategiesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List available strategies",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			names := app.Registry.List()

			if output.IsJSON() {
				entries := make([]map[string]string, 0, len(names))
				for _, name := range names {
					entries = append(entries, map[string]string{
						"name":        name,
						"description": strategyDescriptions[name],
					})
				}
				return output.JSON(entries)
			}

			rows := make([][]string, 0, len(names))
			for _, name := range names {
				rows = append(rows, []string{name, strategyDescriptions[name]})
			}
			output.Table([]string{"Strategy", "Description"}, rows)
			return nil
		},
	}
}
