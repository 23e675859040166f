package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"timetable/internal/config"
	"timetable/internal/fetcher"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "timetable",
		Short:        "timetable scrapes the published college timetable and serves it as JSON",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newDatesCmd(), newScheduleCmd(), newBellsCmd())
	return root
}

// setup loads the configuration and builds the logger and source fetcher
// shared by every command.
func setup() (*config.Config, *slog.Logger, *fetcher.Fetcher, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	log := newLogger(cfg.LogLevel)

	client := fetcher.NewClient(fetcher.ClientOptions{
		Timeout: cfg.FetchTimeout,
		Retries: cfg.FetchRetries,
		RPS:     cfg.FetchRPS,
	}, log)
	f := fetcher.New(client, fetcher.Source{
		BaseURL:   cfg.SourceBaseURL,
		IndexPath: cfg.SourceIndexPath,
		BellsPath: cfg.SourceBellsPath,
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.FetchTimeout,
	})
	return cfg, log, f, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "http":
		lvl = fetcher.LevelHTTP
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
