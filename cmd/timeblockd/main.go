package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/campusclock/timeblock/pkg/config"
	"github.com/campusclock/timeblock/pkg/planner"
	"github.com/campusclock/timeblock/pkg/server"
	"github.com/campusclock/timeblock/pkg/solver"
	"github.com/campusclock/timeblock/pkg/storage"
)

var (
	configFile  = flag.String("config", "", "Configuration file path")
	port        = flag.Int("port", 0, "HTTP server port (default: 8090)")
	solverURL   = flag.String("solver-url", "", "Solver service base URL (default: http://localhost:8000)")
	historyDB   = flag.String("history-db", "", "SQLite run-history database path (default: disabled)")
	logLevel    = flag.String("log-level", "", "Log level (debug, info, warn, error)")
	showVersion = flag.Bool("version", false, "Show version information")
)

const version = "1.0.0"

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("timeblockd version %s\n", version)
		os.Exit(0)
	}

	cfg, err := loadConfiguration()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger := server.NewLogger("timeblockd", server.LogLevel(cfg.LogLevel))

	var store *storage.RunStore
	if cfg.HistoryDB != "" {
		store, err = storage.NewRunStore(cfg.HistoryDB)
		if err != nil {
			logger.Error("failed to open run history database", "path", cfg.HistoryDB, "error", err)
			os.Exit(1)
		}
		defer store.Close()
	}

	solverClient := solver.NewClient(cfg.SolverURL, cfg.SolverTimeout)
	p := planner.New(solverClient)
	p.SuccessThreshold = cfg.SuccessThreshold
	p.MaxHorizonExtensions = cfg.MaxHorizonExtensions

	srv := server.NewServer(p, solverClient, store, cfg.Port, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("timeblockd starting", "version", version, "solver_url", cfg.SolverURL)
	if err := srv.Start(ctx); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("timeblockd stopped")
}

// loadConfiguration merges config file, environment, and flags
func loadConfiguration() (*config.Config, error) {
	flagConfig := &config.Config{
		SolverURL: *solverURL,
		Port:      *port,
		HistoryDB: *historyDB,
		LogLevel:  *logLevel,
	}
	return config.Load(*configFile, flagConfig)
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "timeblockd - scheduling orchestration daemon\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                # Start with defaults\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -port 9000 -history-db runs.db # Custom port with run history\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -config /etc/timeblockd.toml   # Use custom config file\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nThe daemon accepts scheduling requests over HTTP and forwards the\n")
		fmt.Fprintf(os.Stderr, "generated constraint problems to the external solver service.\n")
	}
}
