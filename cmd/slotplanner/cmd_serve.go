package main

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

	"github.com/ls1intum/tum-apply-sub002/internal/application"
	"github.com/ls1intum/tum-apply-sub002/internal/bookingstore"
	httptransport "github.com/ls1intum/tum-apply-sub002/internal/http"
	"github.com/ls1intum/tum-apply-sub002/internal/metrics"
	"github.com/ls1intum/tum-apply-sub002/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the slot planner HTTP API",
	Long:  "Start the HTTP API that hosts editing sessions. Bookings are seeded from SLOTPLANNER_BOOKINGS_FILE when set.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bookings := bookingstore.NewMemory(cfg.Location)
	if cfg.BookingsFile != "" {
		count, err := bookings.LoadFile(cfg.BookingsFile)
		if err != nil {
			return fmt.Errorf("seed bookings: %w", err)
		}
		logger.Info("bookings loaded", "file", cfg.BookingsFile, "count", count)
	}

	recorder := metrics.New()
	service := application.NewPlanningService(application.PlanningServiceDeps{
		Engine:      newEngine(cfg),
		Bookings:    bookings,
		Metrics:     recorder,
		IDGenerator: newIDGenerator(),
		Now:         time.Now,
		Logger:      logger,
		SessionTTL:  cfg.SessionTTL,
		CacheTTL:    cfg.CacheTTL,
	})

	sessionHandler := httptransport.NewSessionHandler(service, httptransport.SessionHandlerOptions{
		Location: cfg.Location,
		DefaultPolicy: scheduler.Policy{
			DurationMinutes: cfg.DefaultDurationMinutes,
			BreakMinutes:    cfg.DefaultBreakMinutes,
		},
	}, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Sessions:       sessionHandler,
		Metrics:        recorder.Handler(),
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
		Middleware:     []func(http.Handler) http.Handler{recorder.Middleware},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go sweepSessions(ctx, service, sweepInterval(cfg.SessionTTL))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("slot planner API listening", "addr", server.Addr, "timezone", cfg.Timezone)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve http: %w", err)
	}
	logger.Info("slot planner API stopped")
	return nil
}

func sweepSessions(ctx context.Context, service *application.PlanningService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			service.SweepExpired(ctx)
		}
	}
}

func sweepInterval(ttl time.Duration) time.Duration {
	interval := ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	return interval
}
