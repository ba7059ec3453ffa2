package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ls1intum/tum-apply-sub002/internal/config"
	"github.com/ls1intum/tum-apply-sub002/internal/logging"
	"github.com/ls1intum/tum-apply-sub002/internal/scheduler"
)

var (
	logger *slog.Logger
	cfg    config.Config
)

var rootCmd = &cobra.Command{
	Use:           "slotplanner",
	Short:         "Interview slot planner",
	Long:          "Plans interview slots for one day of an interview process: generates slots from ranges, detects conflicts and copies plans to other dates.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration and the logger for commands that need them.
func loadConfig() error {
	loaded, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg = loaded
	logger = logging.New(os.Stderr, cfg.LogLevel)
	slog.SetDefault(logger)
	return nil
}

func newIDGenerator() func() string {
	return uuid.NewString
}

func newEngine(cfg config.Config) *scheduler.Engine {
	return scheduler.NewEngine(scheduler.EngineOptions{
		Location:       cfg.Location,
		MaxWindowSlots: cfg.MaxWindowSlots,
		Classifier:     scheduler.NewClassifier(cfg.VirtualDomains...),
		IDGenerator:    newIDGenerator(),
	})
}
