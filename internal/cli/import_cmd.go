package cli

import (
	"context"
	"fmt"

	"github.com/alexanderramin/sitetrack/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import a site (types, maps, plots) from a YAML or JSON file",
		Long: `Import a site description in one transaction.

The file is validated first; any error aborts the import with nothing written.
Plots with a construction type get one progress row per stage, and any dates
given for a stage are recorded as that row's initial plan.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.Import.ImportFile(context.Background(), args[0])
			if err != nil {
				return err
			}
			rows := [][]string{
				{"Construction types", fmt.Sprint(res.ConstructionTypeCount)},
				{"Homebuilders", fmt.Sprint(res.HomebuilderCount)},
				{"Unit types", fmt.Sprint(res.UnitTypeCount)},
				{"Maps", fmt.Sprint(res.MapCount)},
				{"Plots", fmt.Sprint(res.PlotCount)},
				{"Progress rows", fmt.Sprint(res.ProgressRowCount)},
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.RenderBox("Imported "+args[0], formatter.RenderTable([]string{"", "COUNT"}, rows)))
			return nil
		},
	}
}
