package cli

import (
	"context"
	"fmt"

	"github.com/alexanderramin/sitetrack/internal/cli/formatter"
	"github.com/alexanderramin/sitetrack/internal/domain"
	"github.com/spf13/cobra"
)

func newMapCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map",
		Short: "Manage site maps",
	}
	cmd.AddCommand(
		newMapAddCmd(app),
		newMapListCmd(app),
		newMapSummaryCmd(app),
	)
	return cmd
}

func newMapAddCmd(app *App) *cobra.Command {
	var m domain.SiteMap

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a site map",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Reference.CreateMap(context.Background(), &m); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created map %s (%s)\n", m.Name, m.Slug)
			return nil
		},
	}

	cmd.Flags().StringVar(&m.Name, "name", "", "Map name")
	cmd.Flags().StringVar(&m.Slug, "slug", "", "URL slug, e.g. welbourne-phase-2")
	cmd.Flags().StringVar(&m.ImagePath, "image", "", "Site plan image path")
	cmd.Flags().IntVar(&m.NaturalWidth, "width", 0, "Image width in pixels")
	cmd.Flags().IntVar(&m.NaturalHeight, "height", 0, "Image height in pixels")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("slug")

	return cmd
}

func newMapListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List site maps",
		RunE: func(cmd *cobra.Command, args []string) error {
			maps, err := app.Reference.ListMaps(context.Background())
			if err != nil {
				return err
			}
			if len(maps) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No maps found.")
				return nil
			}
			rows := make([][]string, 0, len(maps))
			for _, m := range maps {
				rows = append(rows, []string{m.Slug, formatter.Bold(m.Name), formatter.Dim(m.ImagePath)})
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.RenderTable([]string{"SLUG", "NAME", "IMAGE"}, rows))
			return nil
		},
	}
}

func newMapSummaryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "summary SLUG",
		Short: "Show every plot's status on a map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := app.Dashboard.MapSummary(context.Background(), args[0], app.now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatMapSummary(resp))
			return nil
		},
	}
}

func newMatrixCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "matrix [SLUG]",
		Short: "Show the plot by stage status grid",
		Long:  "Show the plot by stage status grid for one map, or for every map when no slug is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slug := ""
			if len(args) == 1 {
				slug = args[0]
			}
			resp, err := app.Dashboard.Matrix(context.Background(), slug, app.now())
			if err != nil {
				return err
			}
			if len(resp.Rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No plots found.")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatMatrix(resp))
			return nil
		},
	}
}

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status PLOT",
		Short: "Show a plot's stages and schedule status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			plot, err := resolvePlot(ctx, app, args[0])
			if err != nil {
				return err
			}
			resp, err := app.Dashboard.PlotDetail(ctx, plot.ID, app.now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatPlotDetail(resp))
			return nil
		},
	}
}
