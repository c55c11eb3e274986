package cli

import (
	"time"

	"github.com/alexanderramin/sitetrack/internal/api"
	"github.com/alexanderramin/sitetrack/internal/config"
	"github.com/alexanderramin/sitetrack/internal/logger"
	"github.com/alexanderramin/sitetrack/internal/service"
	"github.com/spf13/cobra"
)

// App holds the services and settings CLI commands run against.
type App struct {
	Progress  service.ProgressService
	Plots     service.PlotService
	Dashboard service.DashboardService
	Reference service.ReferenceService
	Import    service.ImportService

	Config *config.Config
	Log    *logger.Logger
	// DB backs the /health endpoint of `serve`.
	DB api.Pinger
	// Version is reported by /health.
	Version string

	// IsInteractive reports whether stdin is a terminal. Forms are only
	// offered when it returns true.
	IsInteractive func() bool
	// Now overrides the clock used for status classification.
	Now func() time.Time
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now().UTC()
}

func (a *App) logger() *logger.Logger {
	if a.Log == nil {
		return logger.Nop()
	}
	return a.Log
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

// NewRootCmd creates the top-level "sitetrack" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "sitetrack",
		Short:         "Construction site progress tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newMapCmd(app),
		newPlotCmd(app),
		newProgressCmd(app),
		newPlanCmd(app),
		newStatusCmd(app),
		newMatrixCmd(app),
		newTypeCmd(app),
		newHomebuilderCmd(app),
		newUnitTypeCmd(app),
		newSalesCmd(app),
		newImportCmd(app),
		newDashboardCmd(app),
		newServeCmd(app),
	)

	return root
}
