package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"strategy-trader/internal/broker"
	"strategy-trader/internal/models"
)

func newBacktestCmd(app *App) *cobra.Command {
	var (
		symbols    []string
		strategies []string
		dataDir    string
		fromStr    string
		toStr      string
		capital    float64
		resolution string
	)

	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Run a historical backtest",
		Long: `Run the configured strategies over historical candles and print the
results. Candles are loaded from <data-dir>/<SYMBOL>.csv files with
timestamp,open,high,low,close,volume columns.

Strategies take optional parameters: --strategy "RSI:period=21,oversold=25".`,
		Example: `  strategy-trader backtest --data ./candles --symbol RELIANCE \
      --strategy RSI --strategy MACD --from 2024-06-01 --to 2024-06-30`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx := cmd.Context()

			specs, err := parseStrategySpecs(strategies)
			if err != nil {
				return err
			}
			from, to, err := parseDateRange(fromStr, toStr)
			if err != nil {
				return err
			}

			data, err := broker.LoadCandlesDir(dataDir)
			if err != nil {
				return fmt.Errorf("loading candle data: %w", err)
			}

			manager, closeManager, err := app.openManager(data)
			if err != nil {
				return err
			}
			defer closeManager()

			cfg := app.newSessionConfig(models.ModeHistorical, symbols, specs, resolution, capital)
			cfg.StartDate = from
			cfg.EndDate = to

			sessionID, err := manager.Start(ctx, cfg)
			if err != nil {
				return err
			}
			if !output.IsJSON() {
				output.Info("Backtest session %s", sessionID)
			}

			session, err := waitForSession(ctx, manager, sessionID)
			if err != nil {
				return err
			}
			if session.Status == models.StatusError {
				return fmt.Errorf("backtest failed: %s", session.ErrorMessage)
			}

			results, err := manager.Results(ctx, sessionID)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(results)
			}
			renderResults(output, session, results)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&symbols, "symbol", nil, "symbol to trade (repeatable)")
	cmd.Flags().StringSliceVar(&strategies, "strategy", nil, "strategy to run, NAME or NAME:k=v,k=v (repeatable)")
	cmd.Flags().StringVar(&dataDir, "data", "", "directory of <SYMBOL>.csv candle files")
	cmd.Flags().StringVar(&fromStr, "from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&toStr, "to", "", "end date (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&capital, "capital", 0, "starting capital (default from config)")
	cmd.Flags().StringVar(&resolution, "resolution", "", "candle resolution (default from config)")
	cmd.MarkFlagRequired("symbol")
	cmd.MarkFlagRequired("strategy")
	cmd.MarkFlagRequired("data")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")

	return cmd
}

// newSessionConfig fills a session config from flags with config-file
// defaults for everything not overridden.
func (app *App) newSessionConfig(mode models.SessionMode, symbols []string, specs []models.StrategySpec, resolution string, capital float64) models.SessionConfig {
	risk := app.Config.Risk
	if resolution == "" {
		resolution = app.Config.Trading.Resolution
	}
	if capital <= 0 {
		capital = risk.InitialCapital
	}
	return models.SessionConfig{
		Mode:                mode,
		Symbols:             symbols,
		Strategies:          specs,
		Resolution:          resolution,
		InitialCapital:      capital,
		PositionSizePercent: risk.PositionSizePercent,
		StopLossPercent:     risk.StopLossPercent,
		TargetPercent:       risk.TargetPercent,
		MaxPositions:        risk.MaxPositions,
		ChargePerTrade:      risk.ChargePerTrade,
		SlippagePercent:     risk.SlippagePercent,
		PollInterval:        app.Config.PollInterval(),
	}
}

// parseStrategySpecs parses NAME or NAME:key=value,key=value entries.
func parseStrategySpecs(entries []string) ([]models.StrategySpec, error) {
	specs := make([]models.StrategySpec, 0, len(entries))
	for _, entry := range entries {
		name, rawParams, hasParams := strings.Cut(entry, ":")
		spec := models.StrategySpec{Name: strings.ToUpper(strings.TrimSpace(name))}

		if hasParams && rawParams != "" {
			spec.Params = make(map[string]float64)
			for _, pair := range strings.Split(rawParams, ",") {
				key, value, ok := strings.Cut(pair, "=")
				if !ok {
					return nil, fmt.Errorf("invalid strategy parameter %q in %q", pair, entry)
				}
				var parsed float64
				if _, err := fmt.Sscanf(strings.TrimSpace(value), "%g", &parsed); err != nil {
					return nil, fmt.Errorf("invalid value %q for parameter %q", value, key)
				}
				spec.Params[strings.TrimSpace(key)] = parsed
			}
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func parseDateRange(fromStr, toStr string) (time.Time, time.Time, error) {
	ist, _ := time.LoadLocation("Asia/Kolkata")
	from, err := time.ParseInLocation("2006-01-02", fromStr, ist)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --from date %q: %w", fromStr, err)
	}
	to, err := time.ParseInLocation("2006-01-02", toStr, ist)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --to date %q: %w", toStr, err)
	}
	// Inclusive end date
	return from, to.Add(24*time.Hour - time.Second), nil
}

type sessionManager interface {
	Status(ctx context.Context, sessionID string) (*models.Session, error)
}

// waitForSession polls until the session leaves the running states.
func waitForSession(ctx context.Context, manager sessionManager, sessionID string) (*models.Session, error) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		session, err := manager.Status(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		switch session.Status {
		case models.StatusCreated, models.StatusRunning:
		default:
			return session, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
