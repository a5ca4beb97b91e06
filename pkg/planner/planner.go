// Package planner orchestrates scheduling runs: it validates the request,
// builds a constraint problem per horizon attempt, sends it to the external
// solver, and widens the horizon until enough tasks are placed or the
// extension budget runs out.
package planner

import (
	"context"
	"time"

	"github.com/campusclock/timeblock/pkg/metrics"
	"github.com/campusclock/timeblock/pkg/quality"
	"github.com/campusclock/timeblock/pkg/schedule"
	"github.com/campusclock/timeblock/pkg/solver"
	"github.com/campusclock/timeblock/pkg/ui"
)

// Defaults for the horizon search
const (
	DefaultSuccessThreshold     = 0.8
	DefaultMaxHorizonExtensions = 3
)

// Gateway sends constraint problems to the external solver. *solver.Client
// satisfies it; tests substitute stubs.
type Gateway interface {
	Solve(ctx context.Context, problem *solver.Problem) (*solver.Response, error)
}

// Planner is the top-level scheduling entry point. It holds no per-run state
// and is safe for concurrent use.
type Planner struct {
	Gateway              Gateway
	Validator            *schedule.Validator
	SuccessThreshold     float64
	MaxHorizonExtensions int
	Reporter             *ui.Reporter
}

// New creates a planner with default thresholds
func New(gateway Gateway) *Planner {
	return &Planner{
		Gateway:              gateway,
		Validator:            schedule.NewValidator(),
		SuccessThreshold:     DefaultSuccessThreshold,
		MaxHorizonExtensions: DefaultMaxHorizonExtensions,
	}
}

// Schedule runs one complete scheduling operation. Validation errors and
// solver communication errors propagate; infeasibility is reported through
// the result's status instead. A solver timeout on any attempt aborts the
// whole run, even when an earlier attempt already produced a result.
func (p *Planner) Schedule(ctx context.Context, req *schedule.Request) (*Result, error) {
	runStart := time.Now()

	if req != nil && len(req.Tasks) == 0 {
		// Nothing to place; trivially optimal
		result := &Result{Status: StatusOptimal, SuccessRate: 1}
		result.Metrics = metrics.NewRunMetrics(0, 0, string(result.Status), 1, time.Since(runStart), nil)
		return result, nil
	}

	validated, err := p.Validator.Validate(req)
	if err != nil {
		return nil, err
	}

	var best *Result
	var attemptMetrics []metrics.AttemptMetric

	for extension := 0; extension <= p.MaxHorizonExtensions; extension++ {
		attempt := extension + 1
		horizonDays := validated.TimeHorizonDays + extension
		attemptStart := time.Now()

		if p.Reporter != nil {
			p.Reporter.AttemptStart(attempt, p.MaxHorizonExtensions+1, horizonDays)
		}

		model := BuildModel(validated, horizonDays)
		if len(model.TaskVars) == 0 {
			// No task can be placed in any horizon attempt; extending would
			// not change that for deadline-driven infeasibility, so stop now.
			result := &Result{
				Status:             StatusImpossible,
				UnscheduledTaskIDs: allTaskIDs(validated),
				AttemptCount:       attempt,
				HorizonDays:        horizonDays,
			}
			result.Metrics = p.finishMetrics(validated, result, runStart, attemptMetrics)
			p.reportFinal(validated, result)
			return result, nil
		}

		resp, err := p.Gateway.Solve(ctx, model.Problem)
		if err != nil {
			return nil, err
		}

		result := ParseSolution(validated, model, resp)
		result.AttemptCount = attempt
		if len(result.Tasks) > 0 {
			result.Quality = quality.Analyze(validated, result.Tasks)
		}
		best = result

		attemptMetrics = append(attemptMetrics, metrics.AttemptMetric{
			HorizonDays:    horizonDays,
			Status:         string(result.Status),
			SuccessRate:    result.SuccessRate,
			SolverWallTime: resp.WallTime,
			Duration:       time.Since(attemptStart),
		})

		decision := Decide(result, p.SuccessThreshold, p.MaxHorizonExtensions-extension)
		if decision == DecisionRetry {
			if p.Reporter != nil {
				p.Reporter.AttemptRetry(attempt, result.SuccessRate, horizonDays+1)
			}
			continue
		}

		best.Metrics = p.finishMetrics(validated, best, runStart, attemptMetrics)
		p.reportFinal(validated, best)
		return best, nil
	}

	if best != nil {
		best.Metrics = p.finishMetrics(validated, best, runStart, attemptMetrics)
		p.reportFinal(validated, best)
		return best, nil
	}
	return &Result{Status: StatusError}, nil
}

func (p *Planner) finishMetrics(req *schedule.ValidatedRequest, result *Result, runStart time.Time, attempts []metrics.AttemptMetric) *metrics.RunMetrics {
	return metrics.NewRunMetrics(
		len(req.Tasks),
		len(result.Tasks),
		string(result.Status),
		result.SuccessRate,
		time.Since(runStart),
		attempts,
	)
}

func (p *Planner) reportFinal(req *schedule.ValidatedRequest, result *Result) {
	if p.Reporter == nil {
		return
	}
	p.Reporter.FinalSummary(string(result.Status), result.SuccessRate, len(result.Tasks), len(req.Tasks), result.AttemptCount)
}
