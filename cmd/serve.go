package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dailydigest/digestd/internal/metrics"
)

// newServeCmd runs all jobs on their schedule with an ops endpoint for
// metrics and health.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the digest scheduler as a long-lived service",
		Long: `Runs the morning digest, noon reminder, umbrella check and reply
poller on their configured schedules, and serves /metrics, /healthz and
/status on the ops port.`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := buildRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close()
	metrics.Init()
	logger := rt.logger

	sched := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DiscardLogger),
		cron.Recover(cron.DiscardLogger),
	))

	job := func(name string, fn func(context.Context) error) func() {
		return func() {
			logger.Info("scheduled job starting", zap.String("job", name))
			if err := fn(ctx); err != nil {
				logger.Error("scheduled job failed", zap.String("job", name), zap.Error(err))
				return
			}
			logger.Info("scheduled job finished", zap.String("job", name))
		}
	}

	if _, err := sched.AddFunc(rt.cfg.Schedule.Morning, job("morning", rt.pipe.Morning)); err != nil {
		return fmt.Errorf("schedule morning job: %w", err)
	}
	if _, err := sched.AddFunc(rt.cfg.Schedule.Noon, job("noon", rt.pipe.Noon)); err != nil {
		return fmt.Errorf("schedule noon job: %w", err)
	}
	pollSpec := "@every " + rt.cfg.Schedule.PollInterval
	if _, err := sched.AddFunc(pollSpec, job("poll", rt.pipe.PollReplies)); err != nil {
		return fmt.Errorf("schedule poll job: %w", err)
	}
	if rt.checker != nil {
		umbrellaJob := job("umbrella", func(ctx context.Context) error {
			return rt.checker.Run(ctx, false)
		})
		if _, err := sched.AddFunc(rt.cfg.Schedule.Umbrella, umbrellaJob); err != nil {
			return fmt.Errorf("schedule umbrella job: %w", err)
		}
	}

	sched.Start()
	defer func() { <-sched.Stop().Done() }()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", rt.cfg.Server.Port),
		Handler:           rt.opsRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("ops server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("ops server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("ops server shutdown", zap.Error(err))
	}
	return nil
}

func (rt *runtime) opsRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
		stats := rt.tracker.Stats()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"total_sent": stats.TotalSent,
			"history":    rt.tracker.History(10),
		})
	})
	return r
}
