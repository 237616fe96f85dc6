package cli

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"strategy-trader/internal/broker"
	"strategy-trader/internal/models"
	"strategy-trader/pkg/utils"
)

func newPaperCmd(app *App) *cobra.Command {
	var (
		symbols    []string
		strategies []string
		dataDir    string
		capital    float64
		resolution string
	)

	cmd := &cobra.Command{
		Use:   "paper",
		Short: "Run a live paper-trading session",
		Long: `Run strategies against a polled candle feed, simulating fills in a
paper portfolio. The session runs until interrupted (Ctrl-C); open
positions are closed at the last seen price and results are printed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			specs, err := parseStrategySpecs(strategies)
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

			cfg := app.newSessionConfig(models.ModeLive, symbols, specs, resolution, capital)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			sessionID, err := manager.Start(ctx, cfg)
			if err != nil {
				return err
			}
			if !output.IsJSON() {
				output.Info("Paper session %s, polling every %s. Ctrl-C to stop.", sessionID, cfg.PollInterval)
				if !utils.IsMarketOpen(time.Now()) {
					output.Warning("Market is closed; next open %s",
						utils.NextMarketOpen(time.Now()).Format("02-Jan-2006 15:04 MST"))
				}
			}

			<-ctx.Done()
			stop()

			results, err := manager.Stop(cmd.Context(), sessionID)
			if err != nil {
				return err
			}
			session, err := manager.Status(cmd.Context(), sessionID)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(results)
			}
			output.Println()
			if closed := results.ForceClosed(); len(closed) > 0 {
				output.Warning("Force-closed %d open position(s) at last mark", len(closed))
			}
			renderResults(output, session, results)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&symbols, "symbol", nil, "symbol to trade (repeatable)")
	cmd.Flags().StringSliceVar(&strategies, "strategy", nil, "strategy to run, NAME or NAME:k=v,k=v (repeatable)")
	cmd.Flags().StringVar(&dataDir, "data", "", "directory of <SYMBOL>.csv candle files to poll")
	cmd.Flags().Float64Var(&capital, "capital", 0, "starting capital (default from config)")
	cmd.Flags().StringVar(&resolution, "resolution", "", "candle resolution (default from config)")
	cmd.MarkFlagRequired("symbol")
	cmd.MarkFlagRequired("strategy")
	cmd.MarkFlagRequired("data")

	return cmd
}
