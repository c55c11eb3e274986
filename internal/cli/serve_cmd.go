package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexanderramin/sitetrack/internal/api"
	"github.com/spf13/cobra"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Config == nil {
				return fmt.Errorf("serve requires configuration")
			}
			sc := app.Config.Server
			if addr == "" {
				addr = sc.Addr
			}

			h := api.NewHandler(api.Services{
				Progress:  app.Progress,
				Plots:     app.Plots,
				Dashboard: app.Dashboard,
				Reference: app.Reference,
			}, app.DB, app.logger(), app.Version)

			srv := &http.Server{
				Addr:         addr,
				Handler:      api.NewRouter(h),
				ReadTimeout:  time.Duration(sc.ReadTimeout),
				WriteTimeout: time.Duration(sc.WriteTimeout),
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, srv, app, time.Duration(sc.ShutdownTimeout))
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}

// runServer serves until ctx is cancelled, then drains in-flight requests
// for up to shutdownTimeout.
func runServer(ctx context.Context, srv *http.Server, app *App, shutdownTimeout time.Duration) error {
	log := app.logger()
	errCh := make(chan error, 1)
	go func() {
		log.Info("api listening", "addr", srv.Addr, "version", app.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down api", "timeout", shutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api shutdown: %w", err)
	}
	return nil
}
