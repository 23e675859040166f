package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"timetable/internal/cache"
	"timetable/internal/grouporder"
	"timetable/internal/query"
	"timetable/internal/scheduler"
	"timetable/internal/server"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Keep the timetable cached and serve the JSON API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, f, err := setup()
			if err != nil {
				return err
			}

			c := cache.New(f, grouporder.New(), log)
			c.SetWorkers(cfg.ExtractWorkers)

			sched := scheduler.New(c, log)
			sched.SetTickInterval(cfg.RefreshInterval)

			q := query.New(c, f, log)
			q.SetBellsTTL(cfg.BellsTTL)

			srv := &http.Server{
				Addr:              cfg.ListenAddr,
				Handler:           server.New(q, sched, cfg.AllowedOrigins, log),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			go sched.Run(ctx)

			errCh := make(chan error, 1)
			go func() {
				log.Info("starting server", "addr", cfg.ListenAddr, "source", cfg.SourceBaseURL)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("listen on %s: %w", cfg.ListenAddr, err)
				}
			case <-ctx.Done():
			}

			shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
			defer stop()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown server: %w", err)
			}

			log.Info("server stopped")
			return nil
		},
	}
}
