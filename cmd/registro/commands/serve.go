package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lauolme/registro-app/internal/api"
	"github.com/lauolme/registro-app/internal/dictamen"
)

func NewServeCmd(app *App) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dictamen HTTP API",
		Long: `Serve the stateless dictamen HTTP API under /api/v1.

SIGHUP reloads the rule set and template; a failed reload keeps the rules
currently being served. SIGINT/SIGTERM shut the server down gracefully.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = app.Config.API.Addr
			}
			snap, err := app.LoadSnapshot()
			if err != nil {
				return err
			}
			eng, err := dictamen.NewEngine(snap, app.Logger)
			if err != nil {
				return err
			}
			load := app.Loader()
			srv := &api.Server{
				Engine:         eng,
				Reload:         load,
				Logger:         app.Logger,
				AllowedOrigins: app.Config.API.AllowedOrigins,
				AdminUser:      app.Config.API.AdminUser,
				AdminPassHash:  app.Config.API.AdminPassHash,
			}
			httpSrv := &http.Server{
				Addr:              addr,
				Handler:           srv.Routes(),
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       15 * time.Second,
				WriteTimeout:      30 * time.Second,
				IdleTimeout:       60 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			hup := make(chan os.Signal, 1)
			signal.Notify(hup, syscall.SIGHUP)
			defer signal.Stop(hup)
			go func() {
				for {
					select {
					case <-ctx.Done():
						return
					case <-hup:
						_, _ = eng.Reload(load)
					}
				}
			}()

			errCh := make(chan error, 1)
			go func() {
				app.Logger.Info("serving", "addr", addr, "rules", len(snap.Rules), "version", snap.Version)
				errCh <- httpSrv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("serve: %w", err)
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			app.Logger.Info("shutting down")
			return httpSrv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8080)")
	return cmd
}
