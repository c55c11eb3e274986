package cli

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newDashboardCmd(app *App) *cobra.Command {
	var statePath string

	cmd := &cobra.Command{
		Use:   "dashboard SLUG",
		Short: "Browse a map's plots interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.interactive() {
				return fmt.Errorf("dashboard needs an interactive terminal; use `sitetrack map summary %s`", args[0])
			}
			if statePath == "" {
				statePath = defaultDashboardStatePath(args[0])
			}
			m := newDashboardModel(app, args[0], statePath)
			final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
			if err != nil {
				return err
			}
			if dm, ok := final.(*dashboardModel); ok && dm.err != nil {
				return dm.err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&statePath, "state", "", "File that keeps expanded plots between runs")
	return cmd
}

func defaultDashboardStatePath(slug string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "sitetrack", "dashboard-"+slug+".json")
}
