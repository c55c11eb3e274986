package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alexanderramin/sitetrack/internal/cli/formatter"
	"github.com/alexanderramin/sitetrack/internal/domain"
	"github.com/spf13/cobra"
)

func newPlotCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Manage plots",
	}
	cmd.AddCommand(
		newPlotAddCmd(app),
		newPlotListCmd(app),
		newPlotAssignCmd(app),
		newPlotRemoveCmd(app),
	)
	return cmd
}

func newPlotAddCmd(app *App) *cobra.Command {
	var (
		name, mapSlug, typeName, address, coords string
		beds                                     int
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a plot; a construction type seeds its stage rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			m, err := app.Reference.GetMap(ctx, mapSlug)
			if err != nil {
				return fmt.Errorf("map %q: %w", mapSlug, err)
			}

			p := &domain.Plot{MapID: m.ID, Name: name, StreetAddress: address}
			if typeName != "" {
				ct, err := app.Reference.GetConstructionType(ctx, typeName)
				if err != nil {
					return fmt.Errorf("construction type %q: %w", typeName, err)
				}
				p.ConstructionTypeID = &ct.ID
			}
			if coords != "" {
				if err := json.Unmarshal([]byte(coords), &p.Coordinates); err != nil {
					return fmt.Errorf("invalid --coords %q: expected [[x,y],...]", coords)
				}
			}
			if cmd.Flags().Changed("beds") {
				p.NumberOfBeds = &beds
			}

			if err := app.Plots.Create(ctx, p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created plot %s %s (%d stages)\n",
				formatter.Bold(p.Name), formatter.TruncID(p.ID), len(p.Progress))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Plot name")
	cmd.Flags().StringVar(&mapSlug, "map", "", "Map slug")
	cmd.Flags().StringVar(&typeName, "type", "", "Construction type name or id")
	cmd.Flags().StringVar(&address, "address", "", "Street address")
	cmd.Flags().StringVar(&coords, "coords", "", `Polygon as JSON, e.g. "[[0,0],[10,0],[10,8]]"`)
	cmd.Flags().IntVar(&beds, "beds", 0, "Number of bedrooms")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("map")

	return cmd
}

func newPlotListCmd(app *App) *cobra.Command {
	var mapSlug string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List plots",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			var (
				plots []*domain.Plot
				err   error
			)
			if mapSlug != "" {
				m, merr := app.Reference.GetMap(ctx, mapSlug)
				if merr != nil {
					return fmt.Errorf("map %q: %w", mapSlug, merr)
				}
				plots, err = app.Plots.ListByMap(ctx, m.ID)
			} else {
				plots, err = app.Plots.List(ctx)
			}
			if err != nil {
				return err
			}
			if len(plots) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No plots found.")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatPlotList(plots))
			return nil
		},
	}

	cmd.Flags().StringVar(&mapSlug, "map", "", "Only plots on this map")
	return cmd
}

func newPlotAssignCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "assign PLOT TYPE",
		Short: "Set a plot's construction type, replacing its stage rows",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			plot, err := resolvePlot(ctx, app, args[0])
			if err != nil {
				return err
			}
			ct, err := app.Reference.GetConstructionType(ctx, args[1])
			if err != nil {
				return fmt.Errorf("construction type %q: %w", args[1], err)
			}
			if err := app.Plots.AssignConstructionType(ctx, plot.ID, ct.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Assigned %s to %s (%d stages)\n", ct.Name, plot.Name, len(ct.Stages))
			return nil
		},
	}
}

func newPlotRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove PLOT",
		Short: "Delete a plot with its progress and history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			plot, err := resolvePlot(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := app.Plots.Delete(ctx, plot.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed plot %s\n", plot.Name)
			return nil
		},
	}
}
