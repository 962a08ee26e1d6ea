package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/warp/payroll-engine/api"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/store/sqlite"
)

// newServeCmd starts the HTTP API.
//
// STARTUP SEQUENCE:
//  1. Open the SQLite store
//  2. Build the handler over the loaded policy
//  3. Optionally seed a demo scenario
//  4. Start the payroll readiness check
//  5. Serve until SIGINT/SIGTERM, then drain for up to 30s
func newServeCmd(a *app) *cobra.Command {
	var (
		port          int
		dbPath        string
		seed          string
		staticDir     string
		checkInterval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.Port = port
			}
			if cmd.Flags().Changed("db") {
				a.cfg.DBPath = dbPath
			}
			log := a.log

			store, err := sqlite.New(a.cfg.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			handler := api.NewHandler(store, a.policy, generic.SystemClock{}, a.cfg.Location(), log)
			if seed != "" {
				if err := handler.Seed(cmd.Context(), seed); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			scheduler := api.NewPayrollScheduler(handler)
			scheduler.CheckInterval = checkInterval
			scheduler.Enabled = checkInterval > 0
			scheduler.Start(ctx)
			defer scheduler.Stop()

			server := &http.Server{
				Addr: a.cfg.Address(),
				Handler: api.NewRouter(handler, api.RouterOptions{
					AllowedOrigins: a.cfg.CORSAllowedOrigins,
					MetricsPath:    a.cfg.MetricsPath,
					StaticDir:      staticDir,
					Scheduler:      scheduler,
				}),
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 15 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			serveErr := make(chan error, 1)
			go func() {
				log.WithFields(logrus.Fields{
					"addr":   server.Addr,
					"db":     a.cfg.DBPath,
					"policy": a.policy.ID,
				}).Info("server starting")
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
				close(serveErr)
			}()

			select {
			case err := <-serveErr:
				if err != nil {
					return err
				}
			case <-ctx.Done():
			}

			log.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return err
			}
			log.Info("server stopped")
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "HTTP server port (env PORT)")
	cmd.Flags().StringVar(&dbPath, "db", "payroll.db", `SQLite database path, ":memory:" for in-memory (env DB_PATH)`)
	cmd.Flags().StringVar(&seed, "seed", "", "Load a demo scenario at startup (resets the database)")
	cmd.Flags().StringVar(&staticDir, "static", "./web/dist", "Front-end build to serve at /")
	cmd.Flags().DurationVar(&checkInterval, "check-interval", time.Hour, "Payroll readiness check interval, 0 disables")
	return cmd
}
