package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/sitetrack/internal/cli/formatter"
	"github.com/alexanderramin/sitetrack/internal/contract"
	"github.com/alexanderramin/sitetrack/internal/domain"
	"github.com/spf13/cobra"
)

func newTypeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "type",
		Short: "Manage construction types and their stages",
	}

	var name, description string
	var stages []string
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a construction type; stages are built in the order given",
		RunE: func(cmd *cobra.Command, args []string) error {
			ct := &domain.ConstructionType{Name: name, Description: description}
			for _, s := range stages {
				ct.Stages = append(ct.Stages, domain.ConstructionStage{Name: strings.TrimSpace(s)})
			}
			if err := app.Reference.CreateConstructionType(context.Background(), ct); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created construction type %s (%d stages)\n", ct.Name, len(ct.Stages))
			return nil
		},
	}
	add.Flags().StringVar(&name, "name", "", "Type name")
	add.Flags().StringVar(&description, "description", "", "Description")
	add.Flags().StringSliceVar(&stages, "stage", nil, "Stage name (repeatable or comma separated)")
	_ = add.MarkFlagRequired("name")

	list := &cobra.Command{
		Use:   "list",
		Short: "List construction types with their stages",
		RunE: func(cmd *cobra.Command, args []string) error {
			types, err := app.Reference.ListConstructionTypes(context.Background())
			if err != nil {
				return err
			}
			if len(types) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No construction types found.")
				return nil
			}
			for _, t := range types {
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Bold(t.Name))
				for _, st := range t.OrderedStages() {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s %2d. %s\n", formatter.Swatch(st.Color), st.SortOrder, st.Name)
				}
			}
			return nil
		},
	}

	cmd.AddCommand(add, list)
	return cmd
}

func newHomebuilderCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "homebuilder",
		Short: "Manage homebuilders",
	}

	var hb domain.Homebuilder
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a homebuilder",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Reference.CreateHomebuilder(context.Background(), &hb); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created homebuilder %s\n", hb.Name)
			return nil
		},
	}
	add.Flags().StringVar(&hb.Name, "name", "", "Name")
	add.Flags().StringVar(&hb.ContactEmail, "email", "", "Contact email")
	add.Flags().StringVar(&hb.ContactPhone, "phone", "", "Contact phone")
	add.Flags().StringVar(&hb.Website, "website", "", "Website")
	_ = add.MarkFlagRequired("name")

	list := &cobra.Command{
		Use:   "list",
		Short: "List homebuilders",
		RunE: func(cmd *cobra.Command, args []string) error {
			hbs, err := app.Reference.ListHomebuilders(context.Background())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(hbs))
			for _, h := range hbs {
				rows = append(rows, []string{formatter.Bold(h.Name), h.ContactEmail, h.ContactPhone})
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.RenderTable([]string{"NAME", "EMAIL", "PHONE"}, rows))
			return nil
		},
	}

	cmd.AddCommand(add, list)
	return cmd
}

func newUnitTypeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unit-type",
		Short: "Manage unit types",
	}

	var ut domain.UnitType
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a unit type",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Reference.CreateUnitType(context.Background(), &ut); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created unit type %s\n", ut.Name)
			return nil
		},
	}
	add.Flags().StringVar(&ut.Name, "name", "", "Name")
	add.Flags().StringVar(&ut.Description, "description", "", "Description")
	_ = add.MarkFlagRequired("name")

	list := &cobra.Command{
		Use:   "list",
		Short: "List unit types",
		RunE: func(cmd *cobra.Command, args []string) error {
			uts, err := app.Reference.ListUnitTypes(context.Background())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(uts))
			for _, u := range uts {
				rows = append(rows, []string{formatter.Bold(u.Name), formatter.Dim(u.Description)})
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.RenderTable([]string{"NAME", "DESCRIPTION"}, rows))
			return nil
		},
	}

	cmd.AddCommand(add, list)
	return cmd
}

func newSalesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sales",
		Short: "Track promised delivery dates",
	}

	var programmed, actual, notes, by string
	var planned []string
	add := &cobra.Command{
		Use:   "add PLOT",
		Short: "Record a sales update for a plot",
		Long:  `Record a sales update. --planned takes "YYYY-MM-DD" or "YYYY-MM-DD:reason" and may repeat.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			plot, err := resolvePlot(ctx, app, args[0])
			if err != nil {
				return err
			}
			su := &domain.SalesUpdate{PlotID: plot.ID, Notes: notes, CreatedBy: by}
			if su.ProgrammedDeliveryDate, err = contract.ParseDate(programmed); err != nil {
				return fmt.Errorf("--programmed: %w", err)
			}
			if su.ActualDeliveryDate, err = contract.ParseDate(actual); err != nil {
				return fmt.Errorf("--actual: %w", err)
			}
			for _, p := range planned {
				raw, reason, _ := strings.Cut(p, ":")
				d, err := contract.ParseDate(raw)
				if err != nil || d == nil {
					return fmt.Errorf("--planned %q: expected YYYY-MM-DD[:reason]", p)
				}
				su.PlannedDeliveryDates = append(su.PlannedDeliveryDates, domain.PlannedDeliveryDate{PlannedDate: *d, Reason: reason})
			}
			if err := app.Reference.CreateSalesUpdate(ctx, su); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded sales update for %s\n", plot.Name)
			return nil
		},
	}
	add.Flags().StringVar(&programmed, "programmed", "", "Programmed delivery date")
	add.Flags().StringVar(&actual, "actual", "", "Actual delivery date")
	add.Flags().StringArrayVar(&planned, "planned", nil, "Planned delivery date, optionally with :reason")
	add.Flags().StringVar(&notes, "notes", "", "Notes")
	add.Flags().StringVar(&by, "by", "", "Who recorded the update")

	list := &cobra.Command{
		Use:   "list [PLOT]",
		Short: "List sales updates, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			plotID := ""
			if len(args) == 1 {
				plot, err := resolvePlot(ctx, app, args[0])
				if err != nil {
					return err
				}
				plotID = plot.ID
			}
			updates, err := app.Reference.ListSalesUpdates(ctx, plotID)
			if err != nil {
				return err
			}
			if len(updates) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sales updates found.")
				return nil
			}
			rows := make([][]string, 0, len(updates))
			for _, su := range updates {
				latest := formatter.Dim("--")
				if n := len(su.PlannedDeliveryDates); n > 0 {
					pd := su.PlannedDeliveryDates[n-1]
					latest = contract.FormatDate(&pd.PlannedDate)
					if pd.Reason != "" {
						latest += " " + formatter.Dim("("+pd.Reason+")")
					}
				}
				rows = append(rows, []string{
					formatter.TruncID(su.PlotID),
					formatter.DateOrDash(su.ProgrammedDeliveryDate),
					latest,
					formatter.DateOrDash(su.ActualDeliveryDate),
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.RenderTable([]string{"PLOT", "PROGRAMMED", "PLANNED", "ACTUAL"}, rows))
			return nil
		},
	}

	cmd.AddCommand(add, list)
	return cmd
}
