package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"strategy-trader/internal/broker"
	"strategy-trader/internal/models"
)

func newSessionsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect and manage stored sessions",
	}

	cmd.AddCommand(newSessionsListCmd(app))
	cmd.AddCommand(newSessionsStatusCmd(app))
	cmd.AddCommand(newSessionsResultsCmd(app))
	cmd.AddCommand(newSessionsStopCmd(app))
	cmd.AddCommand(newSessionsDeleteCmd(app))

	return cmd
}

func newSessionsListCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			manager, closeManager, err := app.openManager(broker.NewStaticData())
			if err != nil {
				return err
			}
			defer closeManager()

			summaries, err := manager.ListHistory(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(summaries)
			}
			if len(summaries) == 0 {
				output.Dim("No sessions found.")
				return nil
			}
			renderSessionList(output, summaries)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum sessions to list (0 for all)")
	return cmd
}

func newSessionsStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status <session-id>",
		Short: "Show the status of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			manager, closeManager, err := app.openManager(broker.NewStaticData())
			if err != nil {
				return err
			}
			defer closeManager()

			session, err := manager.Status(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(session)
			}
			renderSessionStatus(output, session)
			return nil
		},
	}
}

func newSessionsResultsCmd(app *App) *cobra.Command {
	var showTrades bool

	cmd := &cobra.Command{
		Use:   "results <session-id>",
		Short: "Show the results of a finished session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			manager, closeManager, err := app.openManager(broker.NewStaticData())
			if err != nil {
				return err
			}
			defer closeManager()

			session, err := manager.Status(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if session.Status == models.StatusNotFound {
				return fmt.Errorf("session %s not found", args[0])
			}
			results, err := manager.Results(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(results)
			}
			renderResults(output, session, results)
			if showTrades && len(results.ClosedTrades) > 0 {
				output.Println()
				renderTrades(output, results.ClosedTrades)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showTrades, "trades", false, "include the full trade list")
	return cmd
}

func newSessionsStopCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stop <session-id>",
		Short: "Stop a running session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			manager, closeManager, err := app.openManager(broker.NewStaticData())
			if err != nil {
				return err
			}
			defer closeManager()

			results, err := manager.Stop(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(results)
			}
			output.Success("Session %s stopped", args[0])
			if results != nil {
				if closed := results.ForceClosed(); len(closed) > 0 {
					output.Printf("  Force-closed %d open position(s)\n", len(closed))
				}
				output.Printf("  Final Value: %s  P&L: %s\n",
					FormatIndianCurrency(results.FinalValue),
					output.ColoredPnL(results.FinalValue-results.InitialCapital))
			}
			return nil
		},
	}
}

func newSessionsDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a stored session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			manager, closeManager, err := app.openManager(broker.NewStaticData())
			if err != nil {
				return err
			}
			defer closeManager()

			if err := manager.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]string{"session_id": args[0], "status": "deleted"})
			}
			output.Success("Session %s deleted", args[0])
			return nil
		},
	}
}
