package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/campusclock/timeblock/pkg/config"
	"github.com/campusclock/timeblock/pkg/planner"
	"github.com/campusclock/timeblock/pkg/schedule"
	"github.com/campusclock/timeblock/pkg/solver"
	"github.com/campusclock/timeblock/pkg/ui"
)

var (
	flagConfig config.Config
	configFile string
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "timeblock [flags] REQUEST_FILE",
	Short: "Schedule tasks into calendar time blocks via the constraint solver",
	Long: `timeblock reads a scheduling request from a JSON file, translates it into a
constraint problem, sends it to the external CP-SAT solver service, and prints
the resulting schedule as JSON.

Configuration precedence (highest to lowest):
1. CLI flags
2. Environment variables (TIMEBLOCK_*)
3. Configuration file (TOML, via --config)
4. Default values

Environment variables:
- TIMEBLOCK_SOLVER_URL: Base URL of the solver service
- TIMEBLOCK_SOLVER_TIMEOUT: Timeout per solve call (e.g., "30s")
- TIMEBLOCK_SUCCESS_THRESHOLD: Success rate that stops horizon extension
- TIMEBLOCK_MAX_HORIZON_EXTENSIONS: Extra days to try beyond the requested horizon

EXAMPLES:
  # Schedule the tasks described in request.json
  timeblock request.json

  # Point at a non-default solver with a tighter timeout
  timeblock --solver-url http://solver:8000 --solver-timeout 10s request.json

  # Verify the solver service is reachable
  timeblock check`,
	Args: cobra.ExactArgs(1),
	RunE: runSchedule,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Probe the solver service's health endpoint",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&flagConfig.SolverURL, "solver-url", "", "Solver service base URL (default: http://localhost:8000)")
	rootCmd.PersistentFlags().DurationVar(&flagConfig.SolverTimeout, "solver-timeout", 0, "Timeout per solve call (default: 30s)")
	rootCmd.Flags().Float64Var(&flagConfig.SuccessThreshold, "success-threshold", 0, "Success rate that stops horizon extension (default: 0.8)")
	rootCmd.Flags().IntVar(&flagConfig.MaxHorizonExtensions, "max-extensions", 0, "Extra days to try beyond the requested horizon (default: 3)")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output")

	rootCmd.AddCommand(checkCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, &flagConfig)
	if err != nil {
		return err
	}

	req, err := readRequest(args[0])
	if err != nil {
		return err
	}

	p := planner.New(solver.NewClient(cfg.SolverURL, cfg.SolverTimeout))
	p.SuccessThreshold = cfg.SuccessThreshold
	p.MaxHorizonExtensions = cfg.MaxHorizonExtensions

	reporter := ui.NewReporter(os.Stderr)
	reporter.SetQuiet(quiet)
	p.Reporter = reporter

	result, err := p.Schedule(context.Background(), req)
	if err != nil {
		return fmt.Errorf("scheduling failed: %w", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	if result.Status == planner.StatusImpossible || result.Status == planner.StatusError {
		os.Exit(1)
	}
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, &flagConfig)
	if err != nil {
		return err
	}

	client := solver.NewClient(cfg.SolverURL, cfg.SolverTimeout)
	info, err := client.Health(context.Background())
	if err != nil {
		return fmt.Errorf("solver at %s is unreachable: %w", cfg.SolverURL, err)
	}

	fmt.Printf("Solver at %s: %s (OR-Tools %s, %d workers, %.1fs limit)\n",
		cfg.SolverURL, info.Status, info.OrtoolsVersion, info.NumWorkers, info.TimeoutSeconds)
	return nil
}

// readRequest loads a scheduling request from a JSON file
func readRequest(path string) (*schedule.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read request file: %w", err)
	}

	var req schedule.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request file: %w", err)
	}
	return &req, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
