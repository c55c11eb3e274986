package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/alexanderramin/sitetrack/internal/cli/formatter"
	"github.com/alexanderramin/sitetrack/internal/contract"
	"github.com/spf13/cobra"
)

func newProgressCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Record stage plans, actuals and completion",
	}
	cmd.AddCommand(
		newProgressRecordCmd(app),
		newProgressCompleteCmd(app),
		newProgressHistoryCmd(app),
	)
	return cmd
}

func newProgressRecordCmd(app *App) *cobra.Command {
	var v recordValues

	cmd := &cobra.Command{
		Use:   "record PLOT STAGE",
		Short: "Record planned or actual dates for a plot stage",
		Long: `Record planned or actual dates for a plot stage.

A change to the planned window bumps the plan version and appends a history
row. Programme dates can be set once. Actual dates cannot be changed once
recorded. With no flags on an interactive terminal a form is shown.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			plot, err := resolvePlot(ctx, app, args[0])
			if err != nil {
				return err
			}
			stage, err := resolveStage(ctx, app, plot, args[1])
			if err != nil {
				return err
			}

			if v.empty() {
				if !app.interactive() {
					return fmt.Errorf("nothing to record: pass at least one of --planned-start, --planned-end, --actual-start, --actual-end, --complete")
				}
				current, err := currentProgress(ctx, app, plot.ID, stage.ID)
				if err != nil {
					return err
				}
				if err := recordForm(plot.Name+" · "+stage.Name, current, &v).Run(); err != nil {
					return err
				}
			}

			req, err := v.toRequest(plot.ID, stage.ID)
			if err != nil {
				return err
			}
			resp, err := app.Progress.Record(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatRecordResult(resp))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&v.programmeStart, "programme-start", "", "Baseline start (YYYY-MM-DD), set once")
	f.StringVar(&v.programmeEnd, "programme-end", "", "Baseline end (YYYY-MM-DD), set once")
	f.StringVar(&v.plannedStart, "planned-start", "", "Planned start (YYYY-MM-DD)")
	f.StringVar(&v.plannedEnd, "planned-end", "", "Planned end (YYYY-MM-DD)")
	f.StringVar(&v.actualStart, "actual-start", "", "Actual start (YYYY-MM-DD)")
	f.StringVar(&v.actualEnd, "actual-end", "", "Actual end (YYYY-MM-DD)")
	f.StringVar(&v.completion, "complete", "", "Completion percentage (0-100)")
	f.StringVar(&v.notes, "notes", "", "Notes")
	f.StringVar(&v.recordedBy, "by", "", "Who recorded the update")
	f.StringVar(&v.reason, "reason", "", "Reason for a plan change")

	return cmd
}

func currentProgress(ctx context.Context, app *App, plotID, stageID string) (*contract.ProgressView, error) {
	views, err := app.Progress.ListByPlot(ctx, plotID, app.now())
	if err != nil {
		return nil, err
	}
	for i := range views {
		if views[i].ConstructionStageID == stageID {
			return &views[i], nil
		}
	}
	return nil, nil
}

func newProgressCompleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "complete PLOT STAGE PERCENT",
		Short: "Set a stage's completion percentage",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			pct, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("percent %q is not a number", args[2])
			}
			plot, err := resolvePlot(ctx, app, args[0])
			if err != nil {
				return err
			}
			stage, err := resolveStage(ctx, app, plot, args[1])
			if err != nil {
				return err
			}
			resp, err := app.Progress.SetCompletion(ctx, plot.ID, stage.ID, pct)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatRecordResult(resp))
			return nil
		},
	}
}

func newProgressHistoryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "history PLOT STAGE",
		Short: "Show a stage's plan versions",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			id, err := resolveProgressID(ctx, app, args[0], args[1])
			if err != nil {
				return err
			}
			history, err := app.Progress.History(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatHistory(history))
			return nil
		},
	}
}

func newPlanCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Inspect plan version history",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "verify PLOT",
		Short: "Check that every stage's history matches its current plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			plot, err := resolvePlot(ctx, app, args[0])
			if err != nil {
				return err
			}
			checks, err := app.Progress.VerifyHistory(ctx, plot.ID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatHistoryChecks(checks))
			for _, c := range checks {
				if !c.OK() {
					return fmt.Errorf("plan history inconsistent for %s", plot.Name)
				}
			}
			return nil
		},
	})
	return cmd
}
